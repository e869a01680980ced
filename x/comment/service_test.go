package comment

import (
	"context"
	"log"
	"strings"
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
		Metadata: core.PageMetadata{URL: url, Title: "Commentable Product"},
	}, "seeder")
	assert.NoError(t, err)
	return created
}

func TestCommentAdjustsCounter(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/discussed")

	created, err := s.Create(ctx, seeded.ID, "commenter-a", "looks great")
	assert.NoError(t, err)
	assert.Equal(t, "looks great", created.Body)

	fetched, err := submissionService.Get(ctx, seeded.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, fetched.CommentsCount)

	err = s.Delete(ctx, created.ID, "commenter-a")
	assert.NoError(t, err)

	fetched, err = submissionService.Get(ctx, seeded.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, fetched.CommentsCount)
}

func TestCommentRejectsEmptyBody(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/silent")

	_, err := s.Create(ctx, seeded.ID, "commenter-b", "   ")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestCommentRejectsOversizedBody(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/verbose")

	_, err := s.Create(ctx, seeded.ID, "commenter-c", strings.Repeat("a", maxBodyLength+1))
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestCommentListOrderedOldestFirst(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/threaded")

	first, err := s.Create(ctx, seeded.ID, "commenter-d", "first")
	assert.NoError(t, err)
	second, err := s.Create(ctx, seeded.ID, "commenter-d", "second")
	assert.NoError(t, err)

	comments, total, err := s.ListBySubmission(ctx, seeded.ID, 50, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	if assert.Len(t, comments, 2) {
		assert.Equal(t, first.ID, comments[0].ID)
		assert.Equal(t, second.ID, comments[1].ID)
	}
}

func TestCommentDeleteRequiresOwnership(t *testing.T) {
	seeded := seedSubmission(t, "https://example.com/protected")

	created, err := s.Create(ctx, seeded.ID, "commenter-e", "mine")
	assert.NoError(t, err)

	err = s.Delete(ctx, created.ID, "someone-else")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}
