package vote

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
)

// Repository is the interface for vote repository
type Repository interface {
	Create(ctx context.Context, vote core.Vote) (core.Vote, error)
	Get(ctx context.Context, submissionID, userID string) (core.Vote, error)
	Delete(ctx context.Context, submissionID, userID string) error
	CountBySubmission(ctx context.Context, submissionID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new vote repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts the vote and bumps the submission counter in one
// transaction. The unique index rejects double votes.
func (r *repository) Create(ctx context.Context, vote core.Vote) (core.Vote, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCreate")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		return tx.Model(&core.Submission{}).
			Where("id = ?", vote.SubmissionID).
			Update("votes_count", gorm.Expr("votes_count + 1")).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.Vote{}, core.NewErrorAlreadyExists("You have already voted for this submission")
		}
		return core.Vote{}, err
	}

	return vote, nil
}

func (r *repository) Get(ctx context.Context, submissionID, userID string) (core.Vote, error) {
	ctx, span := tracer.Start(ctx, "RepositoryGet")
	defer span.End()

	var vote core.Vote
	err := r.db.WithContext(ctx).First(&vote, "submission_id = ? AND user_id = ?", submissionID, userID).Error
	return vote, err
}

func (r *repository) Delete(ctx context.Context, submissionID, userID string) error {
	ctx, span := tracer.Start(ctx, "RepositoryDelete")
	defer span.End()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&core.Vote{}, "submission_id = ? AND user_id = ?", submissionID, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&core.Submission{}).
			Where("id = ?", submissionID).
			Update("votes_count", gorm.Expr("votes_count - 1")).Error
	})
}

func (r *repository) CountBySubmission(ctx context.Context, submissionID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "RepositoryCountBySubmission")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Vote{}).Where("submission_id = ?", submissionID).Count(&count).Error
	return count, err
}
