// Package partner manages federation partner records and their API keys.
package partner

import (
	"context"
	"time"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"

	"github.com/launchpadder/launchpadder/core"
)

var tracer = otel.Tracer("partner")

// Service is the interface for partner service
type Service interface {
	Create(ctx context.Context, name string, tier string) (core.FederationPartner, error)
	Get(ctx context.Context, id string) (core.FederationPartner, error)
	GetByAPIKey(ctx context.Context, key string) (core.FederationPartner, error)
	List(ctx context.Context) ([]core.FederationPartner, error)
	SetStatus(ctx context.Context, id string, status string) error
	TouchLastActive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repository Repository
}

// NewService creates a new partner service
func NewService(repository Repository) Service {
	return &service{repository}
}

// Create registers a partner and mints its fed_key_ API key
func (s *service) Create(ctx context.Context, name string, tier string) (core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "ServiceCreate")
	defer span.End()

	if name == "" {
		return core.FederationPartner{}, core.NewErrorValidation("name is required")
	}
	if _, ok := map[string]bool{core.TierBasic: true, core.TierPremium: true, core.TierEnterprise: true}[tier]; !ok {
		return core.FederationPartner{}, core.NewErrorValidation("unknown tier")
	}

	partner := core.FederationPartner{
		ID:         xid.New().String(),
		Name:       name,
		APIKey:     core.APIKeyPrefix + xid.New().String() + xid.New().String(),
		Tier:       tier,
		Status:     core.PartnerActive,
		LastActive: time.Now(),
	}

	return s.repository.Create(ctx, partner)
}

func (s *service) Get(ctx context.Context, id string) (core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "ServiceGet")
	defer span.End()

	return s.repository.Get(ctx, id)
}

func (s *service) GetByAPIKey(ctx context.Context, key string) (core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "ServiceGetByAPIKey")
	defer span.End()

	return s.repository.GetByAPIKey(ctx, key)
}

func (s *service) List(ctx context.Context) ([]core.FederationPartner, error) {
	ctx, span := tracer.Start(ctx, "ServiceList")
	defer span.End()

	return s.repository.GetList(ctx)
}

func (s *service) SetStatus(ctx context.Context, id string, status string) error {
	ctx, span := tracer.Start(ctx, "ServiceSetStatus")
	defer span.End()

	if status != core.PartnerActive && status != core.PartnerSuspended {
		return core.NewErrorValidation("unknown status")
	}

	return s.repository.SetStatus(ctx, id, status)
}

func (s *service) TouchLastActive(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ServiceTouchLastActive")
	defer span.End()

	return s.repository.TouchLastActive(ctx, id, time.Now())
}

func (s *service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ServiceDelete")
	defer span.End()

	return s.repository.Delete(ctx, id)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceCount")
	defer span.End()

	return s.repository.Count(ctx)
}
