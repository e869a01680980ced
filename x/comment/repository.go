package comment

import (
	"context"

	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for comment repository
type Repository interface {
	Create(ctx context.Context, comment core.Comment) (core.Comment, error)
	Get(ctx context.Context, id string) (core.Comment, error)
	ListBySubmission(ctx context.Context, submissionID string, limit, offset int) ([]core.Comment, int64, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new comment repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, comment core.Comment) (core.Comment, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreate")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&core.Submission{}).
			Where("id = ?", comment.SubmissionID).
			Update("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	return comment, err
}

func (r *repository) Get(ctx context.Context, id string) (core.Comment, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGet")
	defer span.End()

	var comment core.Comment
	err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error
	return comment, err
}

func (r *repository) ListBySubmission(ctx context.Context, submissionID string, limit, offset int) ([]core.Comment, int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryListBySubmission")
	defer span.End()

	tx := r.db.WithContext(ctx).Model(&core.Comment{}).Where("submission_id = ?", submissionID)

	var total int64
	err := tx.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var comments []core.Comment
	err = tx.Order("c_date asc").Limit(limit).Offset(offset).Find(&comments).Error
	return comments, total, err
}

func (r *repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "RepositoryDelete")
	defer span.End()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment core.Comment
		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&core.Comment{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&core.Submission{}).
			Where("id = ?", comment.SubmissionID).
			Update("comments_count", gorm.Expr("comments_count - 1")).Error
	})
}
