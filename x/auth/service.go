// Package auth resolves request identities and issues partner tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/partner"
	"github.com/launchpadder/launchpadder/x/profile"
)

var tracer = otel.Tracer("auth")

const tokenLifetime = time.Hour

// Service is the interface for auth service
type Service interface {
	Identify(ctx context.Context, bearer string, apiKey string) (Principal, error)
	ExchangeToken(ctx context.Context, apiKey string) (TokenResponse, error)
	IssueUserToken(ctx context.Context, userID string, lifetime time.Duration) (string, error)
}

type service struct {
	config  core.Config
	partner partner.Service
	profile profile.Service
}

// NewService creates a new auth service
func NewService(config core.Config, partner partner.Service, profile profile.Service) Service {
	return &service{config, partner, profile}
}

// Identify resolves a bearer JWT or an API key to a principal.
// Partner records must be active; a suspended partner fails closed.
func (s *service) Identify(ctx context.Context, bearer string, apiKey string) (Principal, error) {
	ctx, span := tracer.Start(ctx, "ServiceIdentify")
	defer span.End()

	if bearer != "" {
		return s.identifyToken(ctx, bearer)
	}
	if apiKey != "" {
		return s.identifyAPIKey(ctx, apiKey)
	}

	return Principal{}, core.NewErrorUnauthorized("missing credentials")
}

func (s *service) identifyToken(ctx context.Context, token string) (Principal, error) {
	ctx, span := tracer.Start(ctx, "ServiceIdentifyToken")
	defer span.End()

	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, core.NewErrorUnauthorized("unexpected signing method")
		}
		return []byte(s.config.Auth.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		span.RecordError(err)
		return Principal{}, core.NewErrorUnauthorized("invalid token")
	}

	if claims.PartnerID != "" {
		record, err := s.partner.Get(ctx, claims.PartnerID)
		if err != nil {
			span.RecordError(err)
			return Principal{}, core.NewErrorUnauthorized("unknown partner")
		}
		if record.Status != core.PartnerActive {
			return Principal{}, core.NewErrorUnauthorized("partner is not active")
		}
		return Principal{Type: core.RequesterTypePartner, ID: record.ID, Tier: record.Tier}, nil
	}

	subject := claims.Subject
	if subject == "" {
		return Principal{}, core.NewErrorUnauthorized("token has no subject")
	}

	tier := core.TierBasic
	record, err := s.profile.Get(ctx, subject)
	if err == nil && record.Tier != "" {
		tier = record.Tier
	}

	return Principal{Type: core.LocalUser, ID: subject, Tier: tier}, nil
}

func (s *service) identifyAPIKey(ctx context.Context, key string) (Principal, error) {
	ctx, span := tracer.Start(ctx, "ServiceIdentifyAPIKey")
	defer span.End()

	if strings.HasPrefix(key, core.APIKeyPrefix) {
		record, err := s.partner.GetByAPIKey(ctx, key)
		if err != nil {
			span.RecordError(err)
			return Principal{}, core.NewErrorUnauthorized("unknown api key")
		}
		if record.Status != core.PartnerActive {
			return Principal{}, core.NewErrorUnauthorized("partner is not active")
		}
		return Principal{Type: core.RequesterTypePartner, ID: record.ID, Tier: record.Tier}, nil
	}

	record, err := s.profile.GetByAPIKey(ctx, key)
	if err != nil {
		span.RecordError(err)
		return Principal{}, core.NewErrorUnauthorized("unknown api key")
	}

	go s.profile.TouchAPIKey(context.WithoutCancel(ctx), key)

	tier := record.Tier
	if tier == "" {
		tier = core.TierBasic
	}

	return Principal{Type: core.LocalUser, ID: record.ID, Tier: tier}, nil
}

// ExchangeToken trades a partner API key for a one-hour JWT.
// Clients re-exchange the key when the token expires; there is no refresh flow.
func (s *service) ExchangeToken(ctx context.Context, apiKey string) (TokenResponse, error) {
	ctx, span := tracer.Start(ctx, "ServiceExchangeToken")
	defer span.End()

	if !strings.HasPrefix(apiKey, core.APIKeyPrefix) {
		return TokenResponse{}, core.NewErrorValidation("api_key must start with " + core.APIKeyPrefix)
	}

	record, err := s.partner.GetByAPIKey(ctx, apiKey)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, core.NewErrorUnauthorized("unknown api key")
		}
		return TokenResponse{}, err
	}
	if record.Status != core.PartnerActive {
		return TokenResponse{}, core.NewErrorUnauthorized("partner is not active")
	}

	now := time.Now()
	claims := Claims{
		PartnerID: record.ID,
		Tier:      record.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Site.BaseURL,
			Subject:   record.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        xid.New().String(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Auth.JWTSecret))
	if err != nil {
		span.RecordError(err)
		return TokenResponse{}, err
	}

	go s.partner.TouchLastActive(context.WithoutCancel(ctx), record.ID)

	return TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(tokenLifetime.Seconds()),
	}, nil
}

// IssueUserToken mints a user JWT. Used by tests and local tooling; in
// production user tokens come from the identity provider sharing the secret.
func (s *service) IssueUserToken(ctx context.Context, userID string, lifetime time.Duration) (string, error) {
	_, span := tracer.Start(ctx, "ServiceIssueUserToken")
	defer span.End()

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Site.BaseURL,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        xid.New().String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Auth.JWTSecret))
}
