package instance

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for instance repository
type Repository interface {
	Upsert(ctx context.Context, instance core.FederationInstance) (core.FederationInstance, error)
	Get(ctx context.Context, id string) (core.FederationInstance, error)
	GetByURL(ctx context.Context, baseURL string) (core.FederationInstance, error)
	List(ctx context.Context) ([]core.FederationInstance, error)
	ListByStatus(ctx context.Context, status string) ([]core.FederationInstance, error)
	ListStale(ctx context.Context, before time.Time) ([]core.FederationInstance, error)
	SetStatus(ctx context.Context, id string, status string, lastSeen time.Time) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new instance repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, instance core.FederationInstance) (core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "RepositoryUpsert")
	defer span.End()

	err := r.db.WithContext(ctx).Save(&instance).Error
	return instance, err
}

func (r *repository) Get(ctx context.Context, id string) (core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGet")
	defer span.End()

	var instance core.FederationInstance
	err := r.db.WithContext(ctx).First(&instance, "id = ?", id).Error
	return instance, err
}

func (r *repository) GetByURL(ctx context.Context, baseURL string) (core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetByURL")
	defer span.End()

	var instance core.FederationInstance
	err := r.db.WithContext(ctx).First(&instance, "base_url = ?", baseURL).Error
	return instance, err
}

func (r *repository) List(ctx context.Context) ([]core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "RepositoryList")
	defer span.End()

	var instances []core.FederationInstance
	err := r.db.WithContext(ctx).Order("c_date desc").Find(&instances).Error
	return instances, err
}

func (r *repository) ListByStatus(ctx context.Context, status string) ([]core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "RepositoryListByStatus")
	defer span.End()

	var instances []core.FederationInstance
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("c_date desc").Find(&instances).Error
	return instances, err
}

// ListStale returns instances not seen since the given instant, regardless
// of status
func (r *repository) ListStale(ctx context.Context, before time.Time) ([]core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "RepositoryListStale")
	defer span.End()

	var instances []core.FederationInstance
	err := r.db.WithContext(ctx).Where("last_seen < ?", before).Find(&instances).Error
	return instances, err
}

func (r *repository) SetStatus(ctx context.Context, id string, status string, lastSeen time.Time) error {
	ctx, span := tracer.Start(ctx, "RepositorySetStatus")
	defer span.End()

	return r.db.WithContext(ctx).Model(&core.FederationInstance{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":    status,
		"last_seen": lastSeen,
	}).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "RepositoryDelete")
	defer span.End()

	return r.db.WithContext(ctx).Delete(&core.FederationInstance{}, "id = ?", id).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCount")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.FederationInstance{}).Count(&count).Error
	return count, err
}
