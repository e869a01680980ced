// Package ratelimit implements tiered sliding-window rate limiting.
package ratelimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/launchpadder/launchpadder/core"
)

var tracer = otel.Tracer("ratelimit")

// Result is a structured allow/deny decision. A deny is not an error.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Store decides whether a request identified by key may proceed under the
// given tier. State may be process-local or shared, depending on the
// implementation.
type Store interface {
	Check(ctx context.Context, key string, tier string) (Result, error)
}

// TierLimit is one sliding window configuration
type TierLimit struct {
	Limit  int
	Window time.Duration
}

// TierLimits maps tier names to their windows
var TierLimits = map[string]TierLimit{
	core.TierPublic:     {Limit: 60, Window: time.Minute},
	core.TierBasic:      {Limit: 100, Window: time.Hour},
	core.TierPremium:    {Limit: 1000, Window: time.Hour},
	core.TierEnterprise: {Limit: 10000, Window: time.Hour},
}

func limitFor(tier string) TierLimit {
	if l, ok := TierLimits[tier]; ok {
		return l
	}
	return TierLimits[core.TierPublic]
}
