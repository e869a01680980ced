package submission

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for submission repository
type Repository interface {
	Create(ctx context.Context, submission core.Submission) (core.Submission, error)
	Get(ctx context.Context, id string) (core.Submission, error)
	GetByURL(ctx context.Context, url string) (core.Submission, error)
	GetList(ctx context.Context, query ListQuery) ([]core.Submission, int64, error)
	Update(ctx context.Context, submission core.Submission) (core.Submission, error)
	SetStatus(ctx context.Context, id string, status string, publishedAt *time.Time) error
	Delete(ctx context.Context, id string) error
	CountFreeSince(ctx context.Context, userID string, since time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new submission repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts the row. The unique index on url is the final arbiter
// for concurrent duplicates.
func (r *repository) Create(ctx context.Context, submission core.Submission) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreate")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&submission).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.Submission{}, core.NewErrorAlreadyExists("This URL has already been submitted")
		}
		return core.Submission{}, err
	}
	return submission, nil
}

func (r *repository) Get(ctx context.Context, id string) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGet")
	defer span.End()

	var submission core.Submission
	err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error
	return submission, err
}

func (r *repository) GetByURL(ctx context.Context, url string) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetByURL")
	defer span.End()

	var submission core.Submission
	err := r.db.WithContext(ctx).First(&submission, "url = ?", url).Error
	return submission, err
}

func (r *repository) GetList(ctx context.Context, query ListQuery) ([]core.Submission, int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetList")
	defer span.End()

	tx := r.db.WithContext(ctx).Model(&core.Submission{})

	if query.Status != "" {
		tx = tx.Where("status = ?", query.Status)
	}
	if len(query.Tags) > 0 {
		tx = tx.Where("tags && ?", pq.StringArray(query.Tags))
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		tx = tx.Where("url ILIKE ? OR original_meta::text ILIKE ?", pattern, pattern)
	}

	var total int64
	err := tx.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	sort, ok := sortColumns[query.Sort]
	if !ok {
		sort = "c_date"
	}
	order := "desc"
	if query.Order == "asc" {
		order = "asc"
	}

	var submissions []core.Submission
	err = tx.Order(sort + " " + order).
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&submissions).Error

	return submissions, total, err
}

func (r *repository) Update(ctx context.Context, submission core.Submission) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryUpdate")
	defer span.End()

	err := r.db.WithContext(ctx).Model(&core.Submission{}).Where("id = ?", submission.ID).Updates(map[string]interface{}{
		"tags":   submission.Tags,
		"images": submission.Images,
	}).Error
	if err != nil {
		return core.Submission{}, err
	}
	return r.Get(ctx, submission.ID)
}

func (r *repository) SetStatus(ctx context.Context, id string, status string, publishedAt *time.Time) error {
	ctx, span := tracer.Start(ctx, "RepositorySetStatus")
	defer span.End()

	updates := map[string]interface{}{"status": status}
	if publishedAt != nil {
		updates["published_at"] = *publishedAt
	}

	return r.db.WithContext(ctx).Model(&core.Submission{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "RepositoryDelete")
	defer span.End()

	return r.db.WithContext(ctx).Delete(&core.Submission{}, "id = ?", id).Error
}

// CountFreeSince counts free-tier submissions of a user created at or
// after the given instant
func (r *repository) CountFreeSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCountFreeSince")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Submission{}).
		Where("submitted_by = ? AND submission_type = 'free' AND c_date >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCount")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Submission{}).Count(&count).Error
	return count, err
}
