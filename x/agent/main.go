// Package agent runs some scheduled tasks
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"

	"github.com/launchpadder/launchpadder/x/federation"
	"github.com/launchpadder/launchpadder/x/instance"
	"github.com/launchpadder/launchpadder/x/profile"
	"github.com/launchpadder/launchpadder/x/ratelimit"
	"github.com/launchpadder/launchpadder/x/submission"
)

var tracer = otel.Tracer("agent")

const (
	retryAge         = 10 * time.Minute
	retryMaxAttempts = 5
	staleInstanceAge = 30 * time.Minute
)

var resourceCountGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "lp_resources_count",
		Help: "resource count",
	},
	[]string{"type"},
)

// Service is the interface for agent service
type Service interface {
	Boot()
}

type agent struct {
	limiter     *ratelimit.MemoryStore
	instances   instance.Service
	federations federation.Service
	submissions submission.Service
	profiles    profile.Service
}

// NewAgent creates a new agent. The limiter may be nil when rate-limit
// state lives in redis.
func NewAgent(
	limiter *ratelimit.MemoryStore,
	instances instance.Service,
	federations federation.Service,
	submissions submission.Service,
	profiles profile.Service,
) Service {
	return &agent{
		limiter,
		instances,
		federations,
		submissions,
		profiles,
	}
}

// Boot starts agent
func (a *agent) Boot() {
	slog.Info("agent start!")

	ticker60 := time.NewTicker(60 * time.Second)
	go func() {
		for range ticker60.C {
			ctx, span := tracer.Start(context.Background(), "Agent.Boot.PruneRateLimit")
			a.pruneRateLimit(ctx)
			span.End()
		}
	}()

	ticker600 := time.NewTicker(600 * time.Second)
	go func() {
		for range ticker600.C {
			ctx, span := tracer.Start(context.Background(), "Agent.Boot.RefreshInstances")
			a.refreshInstances(ctx)
			span.End()
		}
	}()

	ticker300 := time.NewTicker(300 * time.Second)
	go func() {
		for range ticker300.C {
			ctx, span := tracer.Start(context.Background(), "Agent.Boot.RetryFederation")
			a.retryFederation(ctx)
			span.End()
		}
	}()

	ticker15 := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker15.C {
			ctx, span := tracer.Start(context.Background(), "Agent.Boot.UpdateMetrics")
			a.updateMetrics(ctx)
			span.End()
		}
	}()
}

func (a *agent) pruneRateLimit(ctx context.Context) {
	if a.limiter == nil {
		return
	}
	a.limiter.Prune(time.Hour)
}

// refreshInstances re-probes instances that have not been seen recently
func (a *agent) refreshInstances(ctx context.Context) {
	stale, err := a.instances.ListStale(ctx, time.Now().UTC().Add(-staleInstanceAge))
	if err != nil {
		slog.Error("failed to list stale instances", slog.String("error", err.Error()))
		return
	}
	for _, record := range stale {
		a.instances.Refresh(ctx, record)
	}
}

func (a *agent) retryFederation(ctx context.Context) {
	attempted := a.federations.RetryStale(ctx, retryAge, retryMaxAttempts)
	if attempted > 0 {
		slog.Info("retried federated submissions", slog.Int("count", attempted))
	}
}

func (a *agent) updateMetrics(ctx context.Context) {
	if count, err := a.submissions.Count(ctx); err == nil {
		resourceCountGauge.WithLabelValues("submission").Set(float64(count))
	}
	if count, err := a.federations.Count(ctx); err == nil {
		resourceCountGauge.WithLabelValues("federated_submission").Set(float64(count))
	}
	if count, err := a.instances.Count(ctx); err == nil {
		resourceCountGauge.WithLabelValues("instance").Set(float64(count))
	}
	if count, err := a.profiles.Count(ctx); err == nil {
		resourceCountGauge.WithLabelValues("profile").Set(float64(count))
	}
}
