package auth

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/profile"
	"github.com/launchpadder/launchpadder/x/ratelimit"
)

type Role int

const (
	ISUSER Role = iota
	ISPARTNER
	ISADMIN
	ISMODERATOR
)

// publicPaths is the allow-list of endpoints reachable without credentials.
// Anonymous requests there are limited under the public tier, keyed by
// client IP.
var publicPaths = map[string]bool{
	"POST /api/v1/auth/token":             true,
	"GET /api/v1/federation/info":         true,
	"GET /api/v1/federation/directories":  true,
	"GET /api/v1/federation/instances":    true,
	"POST /api/v1/federation/instances":   true,
	"GET /api/submissions":                true,
	"GET /api/submissions/:id":            true,
	"GET /api/submissions/:id/comments":   true,
	"GET /api/badges":                     true,
	"GET /api/badges/:id":                 true,
	"POST /api/v1/badges/:badgeId/verify": true,
}

// Middleware gates /api/v1/* behind identification and rate limiting
type Middleware struct {
	service  Service
	limiter  ratelimit.Store
	profiles profile.Service
}

// NewMiddleware creates the auth/rate-limit middleware
func NewMiddleware(service Service, limiter ratelimit.Store, profiles profile.Service) *Middleware {
	return &Middleware{service: service, limiter: limiter, profiles: profiles}
}

// Gate identifies the requester, checks its quota and stamps the
// X-RateLimit headers on the response.
func (m *Middleware) Gate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "auth.Gate")
		defer span.End()

		if c.Request().Method == http.MethodOptions {
			return next(c)
		}

		public := publicPaths[c.Request().Method+" "+c.Path()]

		bearer, _ := cutBearer(c.Request().Header.Get("Authorization"))
		apiKey := c.Request().Header.Get("X-API-Key")

		var principal Principal
		if bearer != "" || apiKey != "" {
			identified, err := m.service.Identify(ctx, bearer, apiKey)
			if err != nil {
				span.RecordError(err)
				if !public {
					apiErr := core.AsAPIError(err)
					return c.JSON(apiErr.HTTPStatus(), core.NewV1Error(apiErr.Code(), apiErr.Message))
				}
			} else {
				principal = identified
			}
		} else if !public {
			return c.JSON(http.StatusUnauthorized, core.NewV1Error("UNAUTHORIZED", "missing Authorization bearer token or X-API-Key"))
		}

		key := "ip:" + c.RealIP()
		tier := core.TierPublic
		if principal.Type != core.Unknown {
			key = core.RequesterTypeString(principal.Type) + ":" + principal.ID
			tier = principal.Tier
			c.Set(core.RequesterTypeCtxKey, principal.Type)
			c.Set(core.RequesterIdCtxKey, principal.ID)
			c.Set(core.RequesterTierCtxKey, principal.Tier)
			span.SetAttributes(attribute.String("RequesterType", core.RequesterTypeString(principal.Type)))
			span.SetAttributes(attribute.String("RequesterId", principal.ID))
		}

		result, err := m.limiter.Check(ctx, key, tier)
		if err != nil {
			// a broken limiter store fails open
			span.RecordError(err)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}

		header := c.Response().Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		header.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

		if !result.Allowed {
			return c.JSON(http.StatusTooManyRequests, core.NewV1Error("RATE_LIMITED", "rate limit exceeded"))
		}

		c.Set(core.RateLimitCtxKey, result)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func cutBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):], true
	}
	return "", false
}

// Restrict rejects requests whose resolved principal lacks the role
func (m *Middleware) Restrict(role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "auth.Restrict")
			defer span.End()

			requesterType, _ := c.Get(core.RequesterTypeCtxKey).(int)
			requesterID, _ := c.Get(core.RequesterIdCtxKey).(string)

			switch role {
			case ISUSER:
				if requesterType != core.LocalUser {
					return c.JSON(http.StatusForbidden, core.NewV1Error("FORBIDDEN", "you are not authorized to perform this action"))
				}

			case ISPARTNER:
				if requesterType != core.RequesterTypePartner {
					return c.JSON(http.StatusForbidden, core.NewV1Error("FORBIDDEN", "you are not authorized to perform this action"))
				}

			case ISADMIN:
				if requesterType != core.LocalUser || !m.profiles.IsAdmin(ctx, requesterID) {
					return c.JSON(http.StatusForbidden, core.NewV1Error("FORBIDDEN", "you are not admin"))
				}

			case ISMODERATOR:
				if requesterType != core.LocalUser {
					return c.JSON(http.StatusForbidden, core.NewV1Error("FORBIDDEN", "you are not authorized to perform this action"))
				}
				record, err := m.profiles.Get(ctx, requesterID)
				if err != nil || (!record.IsModerator && !record.IsAdmin) {
					return c.JSON(http.StatusForbidden, core.NewV1Error("FORBIDDEN", "you are not a moderator"))
				}
			}

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
