// Package federation fans submissions out to remote directories
package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/launchpadder/launchpadder/client"
	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/instance"
	"github.com/launchpadder/launchpadder/x/submission"
)

var tracer = otel.Tracer("federation")

const (
	maxConcurrentPushes = 4

	// outbound politeness cap across all targets
	outboundRate  = 5
	outboundBurst = 10
)

// Service is the interface for federation service
type Service interface {
	Fanout(ctx context.Context, submissionID string, request FanoutRequest, userID string) ([]core.FanoutResult, error)
	GetBySubmission(ctx context.Context, submissionID string, userID string) ([]core.FederatedSubmission, error)
	GetList(ctx context.Context, query ListQuery) ([]core.FederatedSubmission, int64, error)
	RetryStale(ctx context.Context, olderThan time.Duration, maxAttempts int) int
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repository  Repository
	submissions submission.Service
	instances   instance.Service
	client      client.Client
	config      core.Config
	limiter     *rate.Limiter
}

// NewService creates a new federation service
func NewService(
	repository Repository,
	submissions submission.Service,
	instances instance.Service,
	client client.Client,
	config core.Config,
) Service {
	return &service{
		repository:  repository,
		submissions: submissions,
		instances:   instances,
		client:      client,
		config:      config,
		limiter:     rate.NewLimiter(rate.Limit(outboundRate), outboundBurst),
	}
}

// Fanout creates one tracking row per target and pushes to all of them with
// bounded concurrency. Targets succeed or fail independently; there is no
// cross-target rollback.
func (s *service) Fanout(ctx context.Context, submissionID string, request FanoutRequest, userID string) ([]core.FanoutResult, error) {
	ctx, span := tracer.Start(ctx, "ServiceFanout")
	defer span.End()

	record, err := s.submissions.Get(ctx, submissionID)
	if err != nil || record.SubmittedBy != userID {
		return nil, core.NewErrorNotFound("submission not found or no permission")
	}

	if len(request.Directories) == 0 {
		return nil, core.NewErrorValidation("directories must not be empty")
	}

	targets := make([]core.DirectoryDescriptor, 0, len(request.Directories))
	for _, target := range request.Directories {
		descriptor, err := s.resolveTarget(ctx, target)
		if err != nil {
			return nil, core.NewErrorValidation(fmt.Sprintf("unknown directory: %s", target))
		}
		targets = append(targets, descriptor)
	}

	rows := make([]core.FederatedSubmission, 0, len(targets))
	for _, target := range targets {
		row, err := s.repository.Create(ctx, core.FederatedSubmission{
			ID:            xid.New().String(),
			SubmissionID:  record.ID,
			Target:        target.ID,
			PaymentMethod: request.PaymentMethod,
			Status:        core.SyncPending,
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		rows = append(rows, row)
	}

	results := make([]core.FanoutResult, len(rows))
	semaphore := make(chan struct{}, maxConcurrentPushes)
	var wg sync.WaitGroup

	for i := range rows {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = s.push(ctx, rows[i], targets[i], record)
		}(i)
	}
	wg.Wait()

	return results, nil
}

// push delivers one submission to one target and records the outcome
func (s *service) push(ctx context.Context, row core.FederatedSubmission, target core.DirectoryDescriptor, record core.Submission) core.FanoutResult {
	ctx, span := tracer.Start(ctx, "ServicePush")
	defer span.End()

	fail := func(err error) core.FanoutResult {
		span.RecordError(err)
		s.repository.MarkFailed(ctx, row.ID, err.Error())
		return core.FanoutResult{Target: target.ID, Status: core.SyncFailed, Error: err.Error()}
	}

	if target.APIKey == "" {
		return fail(errors.New("no credentials configured for this directory"))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	token, err := s.client.ExchangeToken(ctx, target.BaseURL, target.APIKey)
	if err != nil {
		return fail(err)
	}

	var meta core.PageMetadata
	if err := json.Unmarshal([]byte(record.OriginalMeta), &meta); err != nil {
		return fail(err)
	}

	_, err = s.client.PushSubmission(ctx, target.BaseURL, token, client.PushPayload{
		URL:      record.URL,
		Metadata: meta,
		Tags:     record.Tags,
	})
	if err != nil {
		return fail(err)
	}

	if err := s.repository.MarkSynced(ctx, row.ID); err != nil {
		span.RecordError(err)
	}
	return core.FanoutResult{Target: target.ID, Status: core.SyncSynced}
}

// resolveTarget finds a directory by id, first among the configured
// directories, then among the active registered instances
func (s *service) resolveTarget(ctx context.Context, target string) (core.DirectoryDescriptor, error) {
	for _, directory := range s.config.Federation.Directories {
		if directory.ID == target {
			return directory, nil
		}
	}

	registered, err := s.instances.Get(ctx, target)
	if err != nil {
		return core.DirectoryDescriptor{}, err
	}
	if registered.Status != core.InstanceActive {
		return core.DirectoryDescriptor{}, errors.New("instance is not active")
	}

	return core.DirectoryDescriptor{
		ID:      registered.ID,
		Name:    registered.Name,
		BaseURL: registered.BaseURL,
	}, nil
}

func (s *service) GetBySubmission(ctx context.Context, submissionID string, userID string) ([]core.FederatedSubmission, error) {
	ctx, span := tracer.Start(ctx, "ServiceGetBySubmission")
	defer span.End()

	record, err := s.submissions.Get(ctx, submissionID)
	if err != nil || record.SubmittedBy != userID {
		return nil, core.NewErrorNotFound("submission not found or no permission")
	}

	return s.repository.GetBySubmission(ctx, submissionID)
}

func (s *service) GetList(ctx context.Context, query ListQuery) ([]core.FederatedSubmission, int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceGetList")
	defer span.End()

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = defaultLimit
	}
	if query.Limit > maxLimit {
		query.Limit = maxLimit
	}

	return s.repository.GetList(ctx, query)
}

// RetryStale re-pushes old failed or stuck rows. Returns the number of rows
// attempted.
func (s *service) RetryStale(ctx context.Context, olderThan time.Duration, maxAttempts int) int {
	ctx, span := tracer.Start(ctx, "ServiceRetryStale")
	defer span.End()

	rows, err := s.repository.ListRetryable(ctx, time.Now().UTC().Add(-olderThan), maxAttempts)
	if err != nil {
		span.RecordError(err)
		return 0
	}

	for _, row := range rows {
		target, err := s.resolveTarget(ctx, row.Target)
		if err != nil {
			s.repository.MarkFailed(ctx, row.ID, err.Error())
			continue
		}
		s.push(ctx, row, target, row.Submission)
	}

	return len(rows)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceCount")
	defer span.End()

	return s.repository.Count(ctx)
}
