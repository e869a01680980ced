package badge

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for badge repository
type Repository interface {
	CreateDefinition(ctx context.Context, definition core.BadgeDefinition) (core.BadgeDefinition, error)
	GetDefinition(ctx context.Context, id string) (core.BadgeDefinition, error)
	ListDefinitions(ctx context.Context) ([]core.BadgeDefinition, error)
	DeleteDefinition(ctx context.Context, id string) error
	CreateUserBadge(ctx context.Context, award core.UserBadge) (core.UserBadge, error)
	GetUserBadge(ctx context.Context, id string) (core.UserBadge, error)
	ListUserBadges(ctx context.Context, userID string) ([]core.UserBadge, error)
	CreateVerification(ctx context.Context, verification core.BadgeVerification) (core.BadgeVerification, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new badge repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateDefinition(ctx context.Context, definition core.BadgeDefinition) (core.BadgeDefinition, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreateDefinition")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&definition).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.BadgeDefinition{}, core.NewErrorAlreadyExists("A badge with this slug already exists")
		}
		return core.BadgeDefinition{}, err
	}
	return definition, nil
}

func (r *repository) GetDefinition(ctx context.Context, id string) (core.BadgeDefinition, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetDefinition")
	defer span.End()

	var definition core.BadgeDefinition
	err := r.db.WithContext(ctx).First(&definition, "id = ?", id).Error
	return definition, err
}

func (r *repository) ListDefinitions(ctx context.Context) ([]core.BadgeDefinition, error) {
	ctx, span := tracer.Start(ctx, "RepositoryListDefinitions")
	defer span.End()

	var definitions []core.BadgeDefinition
	err := r.db.WithContext(ctx).Order("c_date asc").Find(&definitions).Error
	return definitions, err
}

func (r *repository) DeleteDefinition(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "RepositoryDeleteDefinition")
	defer span.End()

	return r.db.WithContext(ctx).Delete(&core.BadgeDefinition{}, "id = ?", id).Error
}

func (r *repository) CreateUserBadge(ctx context.Context, award core.UserBadge) (core.UserBadge, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreateUserBadge")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&award).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.UserBadge{}, core.NewErrorAlreadyExists("This badge is already awarded to the user")
		}
		return core.UserBadge{}, err
	}
	return award, nil
}

func (r *repository) GetUserBadge(ctx context.Context, id string) (core.UserBadge, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGetUserBadge")
	defer span.End()

	var award core.UserBadge
	err := r.db.WithContext(ctx).First(&award, "id = ?", id).Error
	return award, err
}

func (r *repository) ListUserBadges(ctx context.Context, userID string) ([]core.UserBadge, error) {
	ctx, span := tracer.Start(ctx, "RepositoryListUserBadges")
	defer span.End()

	var awards []core.UserBadge
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("c_date desc").Find(&awards).Error
	return awards, err
}

func (r *repository) CreateVerification(ctx context.Context, verification core.BadgeVerification) (core.BadgeVerification, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreateVerification")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&verification).Error
	return verification, err
}
