// Package badge implements the signed achievement catalog
package badge

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

var tracer = otel.Tracer("badge")

// Service is the interface for badge service
type Service interface {
	CreateDefinition(ctx context.Context, slug, name, description, imageURL string) (core.BadgeDefinition, error)
	GetDefinition(ctx context.Context, id string) (core.BadgeDefinition, error)
	ListDefinitions(ctx context.Context) ([]core.BadgeDefinition, error)
	DeleteDefinition(ctx context.Context, id string) error
	Award(ctx context.Context, badgeID, userID string) (core.UserBadge, error)
	ListUserBadges(ctx context.Context, userID string) ([]core.UserBadge, error)
	Verify(ctx context.Context, userBadgeID, verifier, pubkey string) (core.BadgeVerification, error)
}

// payload is the canonical signed document. Field order matters: the
// signature covers the exact marshaled bytes stored alongside it.
type payload struct {
	BadgeID string `json:"badge_id"`
	Slug    string `json:"slug"`
	UserID  string `json:"user_id"`
	Issuer  string `json:"issuer"`
}

type service struct {
	repository Repository
	config     core.Config
}

// NewService creates a new badge service
func NewService(repository Repository, config core.Config) Service {
	return &service{repository: repository, config: config}
}

func (s *service) CreateDefinition(ctx context.Context, slug, name, description, imageURL string) (core.BadgeDefinition, error) {
	ctx, span := tracer.Start(ctx, "ServiceCreateDefinition")
	defer span.End()

	if slug == "" || name == "" {
		return core.BadgeDefinition{}, core.NewErrorValidation("slug and name are required")
	}

	return s.repository.CreateDefinition(ctx, core.BadgeDefinition{
		ID:          xid.New().String(),
		Slug:        slug,
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
	})
}

func (s *service) GetDefinition(ctx context.Context, id string) (core.BadgeDefinition, error) {
	ctx, span := tracer.Start(ctx, "ServiceGetDefinition")
	defer span.End()

	definition, err := s.repository.GetDefinition(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.BadgeDefinition{}, core.NewErrorNotFound("badge not found")
		}
		return core.BadgeDefinition{}, err
	}
	return definition, nil
}

func (s *service) ListDefinitions(ctx context.Context) ([]core.BadgeDefinition, error) {
	ctx, span := tracer.Start(ctx, "ServiceListDefinitions")
	defer span.End()

	return s.repository.ListDefinitions(ctx)
}

func (s *service) DeleteDefinition(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ServiceDeleteDefinition")
	defer span.End()

	if _, err := s.repository.GetDefinition(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NewErrorNotFound("badge not found")
		}
		return err
	}

	return s.repository.DeleteDefinition(ctx, id)
}

// Award signs the canonical payload with the instance key and stores the
// award. One badge per user, enforced by the unique index.
func (s *service) Award(ctx context.Context, badgeID, userID string) (core.UserBadge, error) {
	ctx, span := tracer.Start(ctx, "ServiceAward")
	defer span.End()

	if userID == "" {
		return core.UserBadge{}, core.NewErrorValidation("user_id is required")
	}
	if s.config.Badge.SigningKey == "" {
		return core.UserBadge{}, core.NewError(core.KindInternal, "badge signing key is not configured")
	}

	definition, err := s.GetDefinition(ctx, badgeID)
	if err != nil {
		return core.UserBadge{}, err
	}

	document, err := json.Marshal(payload{
		BadgeID: definition.ID,
		Slug:    definition.Slug,
		UserID:  userID,
		Issuer:  s.config.Site.BaseURL,
	})
	if err != nil {
		return core.UserBadge{}, err
	}

	signature, err := core.SignBytes(document, s.config.Badge.SigningKey)
	if err != nil {
		span.RecordError(err)
		return core.UserBadge{}, err
	}

	return s.repository.CreateUserBadge(ctx, core.UserBadge{
		ID:        xid.New().String(),
		BadgeID:   definition.ID,
		UserID:    userID,
		Payload:   string(document),
		Signature: hex.EncodeToString(signature),
	})
}

func (s *service) ListUserBadges(ctx context.Context, userID string) ([]core.UserBadge, error) {
	ctx, span := tracer.Start(ctx, "ServiceListUserBadges")
	defer span.End()

	return s.repository.ListUserBadges(ctx, userID)
}

// Verify checks the stored signature against the expected signer and records
// the outcome. An unknown badge is an error; a bad signature is a valid=false
// result.
func (s *service) Verify(ctx context.Context, userBadgeID, verifier, pubkey string) (core.BadgeVerification, error) {
	ctx, span := tracer.Start(ctx, "ServiceVerify")
	defer span.End()

	award, err := s.repository.GetUserBadge(ctx, userBadgeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.BadgeVerification{}, core.NewErrorNotFound("user badge not found")
		}
		return core.BadgeVerification{}, err
	}

	if pubkey == "" {
		pubkey = s.config.Badge.PublicKey
	}

	verification := core.BadgeVerification{
		ID:          xid.New().String(),
		UserBadgeID: award.ID,
		Verifier:    verifier,
		Valid:       true,
	}

	signature, err := hex.DecodeString(award.Signature)
	if err != nil {
		verification.Valid = false
		verification.Detail = "malformed signature encoding"
	} else if err := core.VerifySignature([]byte(award.Payload), signature, pubkey); err != nil {
		verification.Valid = false
		verification.Detail = err.Error()
	}

	return s.repository.CreateVerification(ctx, verification)
}
