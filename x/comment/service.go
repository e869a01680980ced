// Package comment implements submission comments
package comment

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/submission"
)

var tracer = otel.Tracer("comment")

const maxBodyLength = 4000

// Service is the interface for comment service
type Service interface {
	Create(ctx context.Context, submissionID, userID, body string) (core.Comment, error)
	ListBySubmission(ctx context.Context, submissionID string, limit, offset int) ([]core.Comment, int64, error)
	Delete(ctx context.Context, id, requesterID string) error
}

type service struct {
	repository  Repository
	submissions submission.Service
}

// NewService creates a new comment service
func NewService(repository Repository, submissions submission.Service) Service {
	return &service{repository: repository, submissions: submissions}
}

func (s *service) Create(ctx context.Context, submissionID, userID, body string) (core.Comment, error) {
	ctx, span := tracer.Start(ctx, "ServiceCreate")
	defer span.End()

	body = strings.TrimSpace(body)
	if body == "" {
		return core.Comment{}, core.NewErrorValidation("comment body must not be empty")
	}
	if len(body) > maxBodyLength {
		return core.Comment{}, core.NewErrorValidation("comment body is too long")
	}

	if _, err := s.submissions.Get(ctx, submissionID); err != nil {
		return core.Comment{}, err
	}

	return s.repository.Create(ctx, core.Comment{
		ID:           xid.New().String(),
		SubmissionID: submissionID,
		UserID:       userID,
		Body:         body,
	})
}

func (s *service) ListBySubmission(ctx context.Context, submissionID string, limit, offset int) ([]core.Comment, int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceListBySubmission")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.repository.ListBySubmission(ctx, submissionID, limit, offset)
}

// Delete removes the requester's own comment. Foreign and missing comments
// are indistinguishable.
func (s *service) Delete(ctx context.Context, id, requesterID string) error {
	ctx, span := tracer.Start(ctx, "ServiceDelete")
	defer span.End()

	existing, err := s.repository.Get(ctx, id)
	if err != nil || existing.UserID != requesterID {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
		}
		return core.NewErrorNotFound("comment not found or no permission")
	}

	return s.repository.Delete(ctx, id)
}
