package federation

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/client"
	mock_client "github.com/launchpadder/launchpadder/client/mock"
	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/internal/testutil"
	"github.com/launchpadder/launchpadder/x/instance"
	"github.com/launchpadder/launchpadder/x/metadata"
	"github.com/launchpadder/launchpadder/x/profile"
	"github.com/launchpadder/launchpadder/x/rewriter"
	"github.com/launchpadder/launchpadder/x/submission"
)

var ctx = context.Background()
var db *gorm.DB
var testRepository Repository
var submissionService submission.Service

var testConfig = core.Config{
	Federation: core.FederationConfig{
		Directories: []core.DirectoryDescriptor{
			{
				ID:      "dir-keyed",
				Name:    "Keyed Directory",
				BaseURL: "https://keyed.example.com",
				APIKey:  "fed_key_outbound",
			},
			{
				ID:      "dir-keyless",
				Name:    "Keyless Directory",
				BaseURL: "https://keyless.example.com",
			},
		},
	},
}

func TestMain(m *testing.M) {
	log.Println("Test Start")

	var cleanup_db func()
	db, cleanup_db = testutil.CreateDB()
	defer cleanup_db()

	testRepository = NewRepository(db)
	submissionService = submission.NewService(
		submission.NewRepository(db),
		profile.NewService(profile.NewRepository(db)),
		metadata.NewService(nil, core.Config{}),
		rewriter.NewService(core.Config{}),
	)

	m.Run()

	log.Println("Test End")
}

func serviceWith(t *testing.T, remote client.Client) Service {
	t.Helper()
	instanceService := instance.NewService(instance.NewRepository(db), remote, testConfig)
	return NewService(testRepository, submissionService, instanceService, remote, testConfig)
}

func seedSubmission(t *testing.T, url string, userID string) core.Submission {
	t.Helper()
	created, err := submissionService.Ingest(ctx, submission.IngestRequest{
		URL: url,
		Metadata: core.PageMetadata{
			URL:   url,
			Title: "Seeded Product",
		},
	}, userID)
	assert.NoError(t, err)
	return created
}

func TestFanoutMarksTargetSynced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		ExchangeToken(gomock.Any(), "https://keyed.example.com", "fed_key_outbound").
		Return("jwt-token", nil)
	remote.EXPECT().
		PushSubmission(gomock.Any(), "https://keyed.example.com", "jwt-token", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, payload client.PushPayload) (core.Submission, error) {
			assert.Equal(t, "Seeded Product", payload.Metadata.Title)
			return core.Submission{ID: "remote-id"}, nil
		})

	seeded := seedSubmission(t, "https://local.example.com/synced", "owner-1")

	results, err := serviceWith(t, remote).Fanout(ctx, seeded.ID, FanoutRequest{
		Directories: []string{"dir-keyed"},
	}, "owner-1")
	assert.NoError(t, err)
	if assert.Len(t, results, 1) {
		assert.Equal(t, "dir-keyed", results[0].Target)
		assert.Equal(t, core.SyncSynced, results[0].Status)
	}

	rows, err := testRepository.GetBySubmission(ctx, seeded.ID)
	assert.NoError(t, err)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, core.SyncSynced, rows[0].Status)
		assert.NotNil(t, rows[0].SyncedAt)
		assert.Equal(t, 1, rows[0].Attempts)
	}
}

func TestFanoutRecordsPushFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		ExchangeToken(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", assert.AnError)

	seeded := seedSubmission(t, "https://local.example.com/failed", "owner-2")

	results, err := serviceWith(t, remote).Fanout(ctx, seeded.ID, FanoutRequest{
		Directories: []string{"dir-keyed"},
	}, "owner-2")
	assert.NoError(t, err)
	if assert.Len(t, results, 1) {
		assert.Equal(t, core.SyncFailed, results[0].Status)
		assert.NotEmpty(t, results[0].Error)
	}

	rows, err := testRepository.GetBySubmission(ctx, seeded.ID)
	assert.NoError(t, err)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, core.SyncFailed, rows[0].Status)
		assert.NotEmpty(t, rows[0].LastError)
	}
}

func TestFanoutFailsTargetWithoutCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)

	seeded := seedSubmission(t, "https://local.example.com/keyless", "owner-3")

	results, err := serviceWith(t, remote).Fanout(ctx, seeded.ID, FanoutRequest{
		Directories: []string{"dir-keyless"},
	}, "owner-3")
	assert.NoError(t, err)
	if assert.Len(t, results, 1) {
		assert.Equal(t, core.SyncFailed, results[0].Status)
		assert.Contains(t, results[0].Error, "no credentials")
	}
}

func TestFanoutRejectsUnknownDirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)

	seeded := seedSubmission(t, "https://local.example.com/unknown", "owner-4")

	_, err := serviceWith(t, remote).Fanout(ctx, seeded.ID, FanoutRequest{
		Directories: []string{"nowhere"},
	}, "owner-4")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
	assert.Contains(t, err.Error(), "unknown directory")
}

func TestFanoutRequiresOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)

	seeded := seedSubmission(t, "https://local.example.com/foreign", "owner-5")

	_, err := serviceWith(t, remote).Fanout(ctx, seeded.ID, FanoutRequest{
		Directories: []string{"dir-keyed"},
	}, "intruder")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestRetryStalePicksUpFailedRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		ExchangeToken(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", assert.AnError)

	seeded := seedSubmission(t, "https://local.example.com/retry", "owner-6")
	service := serviceWith(t, remote)

	_, err := service.Fanout(ctx, seeded.ID, FanoutRequest{Directories: []string{"dir-keyed"}}, "owner-6")
	assert.NoError(t, err)

	// rows too young are not retried
	attempted := service.RetryStale(ctx, time.Hour, 5)
	assert.Equal(t, 0, attempted)
}
