package vote

import (
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/internal/testutil"
	"github.com/launchpadder/launchpadder/x/metadata"
	"github.com/launchpadder/launchpadder/x/profile"
	"github.com/launchpadder/launchpadder/x/rewriter"
	"github.com/launchpadder/launchpadder/x/submission"
)

var ctx = context.Background()
var db *gorm.DB
var s Service
var submissionService submission.Service

func TestMain(m *testing.M) {
	log.Println("Test Start")

	var cleanup_db func()
	db, cleanup_db = testutil.CreateDB()
	defer cleanup_db()

	submissionService = submission.NewService(
		submission.NewRepository(db),
		profile.NewService(profile.NewRepository(db)),
		metadata.NewService(nil, core.Config{}),
		rewriter.NewService(core.Config{}),
	)
	s = NewService(NewRepository(db), submissionService)

	m.Run()

	log.Println("Test End")
}

func seedSubmission(t *testing.T, url string) core.Submission {
	t.Helper()
	created, err := submissionService.Ingest(ctx, submission.IngestRequest{
		URL:      url,
		Metadata: core.PageMetadata{URL: url, Title: "Votable Product"},
	}, "seeder")
	assert.NoError(t, err)
	return created
}

func TestVoteAdjustsCounter(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/votable")

	created, err := s.Create(ctx, seeded.ID, "voter-a")
	assert.NoError(t, err)
	assert.Equal(t, seeded.ID, created.SubmissionID)

	fetched, err := submissionService.Get(ctx, seeded.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, fetched.VotesCount)

	err = s.Delete(ctx, seeded.ID, "voter-a")
	assert.NoError(t, err)

	fetched, err = submissionService.Get(ctx, seeded.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, fetched.VotesCount)
}

func TestVoteRejectsDoubleVote(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/once-only")

	_, err := s.Create(ctx, seeded.ID, "voter-b")
	assert.NoError(t, err)

	_, err = s.Create(ctx, seeded.ID, "voter-b")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindAlreadyExists))

	// the failed vote must not bump the counter
	fetched, err := submissionService.Get(ctx, seeded.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, fetched.VotesCount)
}

func TestVoteUnknownSubmission(t *testing.T) {
	_, err := s.Create(ctx, "doesnotexist12345678", "voter-c")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestUnvoteWithoutVote(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/never-voted")

	err := s.Delete(ctx, seeded.ID, "voter-d")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}
