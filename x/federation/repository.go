package federation

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for federation repository
type Repository interface {
	Create(ctx context.Context, record core.FederatedSubmission) (core.FederatedSubmission, error)
	Get(ctx context.Context, id string) (core.FederatedSubmission, error)
	GetBySubmission(ctx context.Context, submissionID string) ([]core.FederatedSubmission, error)
	GetList(ctx context.Context, query ListQuery) ([]core.FederatedSubmission, int64, error)
	MarkSynced(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	ListRetryable(ctx context.Context, before time.Time, maxAttempts int) ([]core.FederatedSubmission, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new federation repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record core.FederatedSubmission) (core.FederatedSubmission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreate")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&record).Error
	return record, err
}

func (r *repository) Get(ctx context.Context, id string) (core.FederatedSubmission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGet")
	defer span.End()

	var record core.FederatedSubmission
	err := r.db.WithContext(ctx).Preload("Submission").First(&record, "id = ?", id).Error
	return record, err
}

func (r *repository) GetBySubmission(ctx context.Context, submissionID string) ([]core.FederatedSubmission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetBySubmission")
	defer span.End()

	var records []core.FederatedSubmission
	err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).Order("c_date desc").Find(&records).Error
	return records, err
}

func (r *repository) GetList(ctx context.Context, query ListQuery) ([]core.FederatedSubmission, int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetList")
	defer span.End()

	tx := r.db.WithContext(ctx).Model(&core.FederatedSubmission{})
	if query.Status != "" {
		tx = tx.Where("status = ?", query.Status)
	}

	var total int64
	err := tx.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var records []core.FederatedSubmission
	err = tx.Order("c_date desc").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&records).Error

	return records, total, err
}

// MarkSynced stamps the sync time and bumps the attempt counter
func (r *repository) MarkSynced(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "RepositoryMarkSynced")
	defer span.End()

	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&core.FederatedSubmission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     core.SyncSynced,
		"last_error": "",
		"synced_at":  now,
		"attempts":   gorm.Expr("attempts + 1"),
	}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id string, lastError string) error {
	ctx, span := tracer.Start(ctx, "RepositoryMarkFailed")
	defer span.End()

	return r.db.WithContext(ctx).Model(&core.FederatedSubmission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     core.SyncFailed,
		"last_error": lastError,
		"attempts":   gorm.Expr("attempts + 1"),
	}).Error
}

// ListRetryable returns failed or stuck-pending rows old enough to retry
// and still under the attempt cap
func (r *repository) ListRetryable(ctx context.Context, before time.Time, maxAttempts int) ([]core.FederatedSubmission, error) {
	ctx, span := tracer.Start(ctx, "RepositoryListRetryable")
	defer span.End()

	var records []core.FederatedSubmission
	err := r.db.WithContext(ctx).
		Preload("Submission").
		Where("status IN ? AND c_date < ? AND attempts < ?", []string{core.SyncFailed, core.SyncPending}, before, maxAttempts).
		Find(&records).Error
	return records, err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCount")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.FederatedSubmission{}).Count(&count).Error
	return count, err
}
