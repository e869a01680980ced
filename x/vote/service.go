// Package vote implements upvotes, one per user per submission
package vote

import (
	"context"
	"errors"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/submission"
)

var tracer = otel.Tracer("vote")

// Service is the interface for vote service
type Service interface {
	Create(ctx context.Context, submissionID, userID string) (core.Vote, error)
	Delete(ctx context.Context, submissionID, userID string) error
}

type service struct {
	repository  Repository
	submissions submission.Service
}

// NewService creates a new vote service
func NewService(repository Repository, submissions submission.Service) Service {
	return &service{repository: repository, submissions: submissions}
}

func (s *service) Create(ctx context.Context, submissionID, userID string) (core.Vote, error) {
	ctx, span := tracer.Start(ctx, "ServiceCreate")
	defer span.End()

	if _, err := s.submissions.Get(ctx, submissionID); err != nil {
		return core.Vote{}, err
	}

	return s.repository.Create(ctx, core.Vote{
		ID:           xid.New().String(),
		SubmissionID: submissionID,
		UserID:       userID,
	})
}

func (s *service) Delete(ctx context.Context, submissionID, userID string) error {
	ctx, span := tracer.Start(ctx, "ServiceDelete")
	defer span.End()

	err := s.repository.Delete(ctx, submissionID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.NewErrorNotFound("vote not found")
	}
	return err
}
