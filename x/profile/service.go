// Package profile manages local user records
package profile

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/launchpadder/launchpadder/core"
)

var tracer = otel.Tracer("profile")

// Service is the interface for profile service
type Service interface {
	Get(ctx context.Context, id string) (core.Profile, error)
	Upsert(ctx context.Context, profile core.Profile) (core.Profile, error)
	GetByAPIKey(ctx context.Context, key string) (core.Profile, error)
	TouchAPIKey(ctx context.Context, key string) error
	IsAdmin(ctx context.Context, id string) bool
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repository Repository
}

// NewService creates a new profile service
func NewService(repository Repository) Service {
	return &service{repository}
}

func (s *service) Get(ctx context.Context, id string) (core.Profile, error) {
	ctx, span := tracer.Start(ctx, "ServiceGet")
	defer span.End()

	return s.repository.Get(ctx, id)
}

func (s *service) Upsert(ctx context.Context, profile core.Profile) (core.Profile, error) {
	ctx, span := tracer.Start(ctx, "ServiceUpsert")
	defer span.End()

	return s.repository.Upsert(ctx, profile)
}

func (s *service) GetByAPIKey(ctx context.Context, key string) (core.Profile, error) {
	ctx, span := tracer.Start(ctx, "ServiceGetByAPIKey")
	defer span.End()

	return s.repository.GetByAPIKey(ctx, key)
}

// TouchAPIKey records the moment a key was used
func (s *service) TouchAPIKey(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "ServiceTouchAPIKey")
	defer span.End()

	return s.repository.TouchAPIKey(ctx, key, time.Now())
}

// IsAdmin reports whether the user exists and carries the admin flag
func (s *service) IsAdmin(ctx context.Context, id string) bool {
	ctx, span := tracer.Start(ctx, "ServiceIsAdmin")
	defer span.End()

	profile, err := s.repository.Get(ctx, id)
	if err != nil {
		return false
	}
	return profile.IsAdmin
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceCount")
	defer span.End()

	return s.repository.Count(ctx)
}
