package partner

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for partner repository
type Repository interface {
	Create(ctx context.Context, partner core.FederationPartner) (core.FederationPartner, error)
	Get(ctx context.Context, id string) (core.FederationPartner, error)
	GetByAPIKey(ctx context.Context, key string) (core.FederationPartner, error)
	GetList(ctx context.Context) ([]core.FederationPartner, error)
	SetStatus(ctx context.Context, id string, status string) error
	TouchLastActive(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new partner repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, partner core.FederationPartner) (core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreate")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&partner).Error
	return partner, err
}

func (r *repository) Get(ctx context.Context, id string) (core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGet")
	defer span.End()

	var partner core.FederationPartner
	err := r.db.WithContext(ctx).First(&partner, "id = ?", id).Error
	return partner, err
}

func (r *repository) GetByAPIKey(ctx context.Context, key string) (core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetByAPIKey")
	defer span.End()

	var partner core.FederationPartner
	err := r.db.WithContext(ctx).First(&partner, "api_key = ?", key).Error
	return partner, err
}

func (r *repository) GetList(ctx context.Context) ([]core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetList")
	defer span.End()

	var partners []core.FederationPartner
	err := r.db.WithContext(ctx).Find(&partners).Error
	return partners, err
}

func (r *repository) SetStatus(ctx context.Context, id string, status string) error {
	ctx, span := tracer.Start(ctx, "RepositorySetStatus")
	defer span.End()

	return r.db.WithContext(ctx).Model(&core.FederationPartner{}).Where("id = ?", id).Update("status", status).Error
}

func (r *repository) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "RepositoryTouchLastActive")
	defer span.End()

	return r.db.WithContext(ctx).Model(&core.FederationPartner{}).Where("id = ?", id).Update("last_active", at).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "RepositoryDelete")
	defer span.End()

	return r.db.WithContext(ctx).Delete(&core.FederationPartner{}, "id = ?", id).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCount")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.FederationPartner{}).Count(&count).Error
	return count, err
}
