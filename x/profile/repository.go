package profile

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for profile repository
type Repository interface {
	Get(ctx context.Context, id string) (core.Profile, error)
	Upsert(ctx context.Context, profile core.Profile) (core.Profile, error)
	GetByAPIKey(ctx context.Context, key string) (core.Profile, error)
	TouchAPIKey(ctx context.Context, key string, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new profile repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id string) (core.Profile, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGet")
	defer span.End()

	var profile core.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	return profile, err
}

func (r *repository) Upsert(ctx context.Context, profile core.Profile) (core.Profile, error) {
	ctx, span := tracer.Start(ctx, "RepositoryUpsert")
	defer span.End()

	err := r.db.WithContext(ctx).Save(&profile).Error
	return profile, err
}

func (r *repository) GetByAPIKey(ctx context.Context, key string) (core.Profile, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetByAPIKey")
	defer span.End()

	var apikey core.APIKey
	err := r.db.WithContext(ctx).First(&apikey, "key = ?", key).Error
	if err != nil {
		return core.Profile{}, err
	}

	return r.Get(ctx, apikey.OwnerID)
}

func (r *repository) TouchAPIKey(ctx context.Context, key string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "RepositoryTouchAPIKey")
	defer span.End()

	return r.db.WithContext(ctx).Model(&core.APIKey{}).Where("key = ?", key).Update("last_used", at).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCount")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Profile{}).Count(&count).Error
	return count, err
}
