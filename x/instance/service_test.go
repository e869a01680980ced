package instance

import (
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	mock_client "github.com/launchpadder/launchpadder/client/mock"
	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/internal/testutil"
)

var ctx = context.Background()
var db *gorm.DB
var testRepository Repository

var testConfig = core.Config{
	Site: core.Site{
		Name:    "unit test directory",
		BaseURL: "https://unittest.example.com",
	},
	Federation: core.FederationConfig{
		Directories: []core.DirectoryDescriptor{
			{ID: "dir-static", Name: "Static Directory", BaseURL: "https://static.example.com"},
		},
	},
}

func TestMain(m *testing.M) {
	log.Println("Test Start")

	var cleanup_db func()
	db, cleanup_db = testutil.CreateDB()
	defer cleanup_db()

	testRepository = NewRepository(db)

	m.Run()

	log.Println("Test End")
}

func TestRegisterActiveWhenProbeSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		GetInfo(gomock.Any(), "https://peer.example.com").
		Return(core.InstanceInfo{Name: "Peer", BaseURL: "https://peer.example.com"}, nil)

	service := NewService(testRepository, remote, testConfig)

	registered, err := service.Register(ctx, RegisterRequest{
		Name:       "Peer",
		BaseURL:    "https://peer.example.com",
		AdminEmail: "admin@peer.example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, core.InstanceActive, registered.Status)
}

func TestRegisterUnreachableWhenProbeFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		GetInfo(gomock.Any(), gomock.Any()).
		Return(core.InstanceInfo{}, assert.AnError)

	service := NewService(testRepository, remote, testConfig)

	registered, err := service.Register(ctx, RegisterRequest{
		Name:       "Dark Peer",
		BaseURL:    "https://dark.example.com",
		AdminEmail: "admin@dark.example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, core.InstanceUnreachable, registered.Status)
}

func TestRegisterRejectsMismatchedBaseURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		GetInfo(gomock.Any(), gomock.Any()).
		Return(core.InstanceInfo{Name: "Liar", BaseURL: "https://elsewhere.example.com"}, nil)

	service := NewService(testRepository, remote, testConfig)

	registered, err := service.Register(ctx, RegisterRequest{
		Name:       "Liar",
		BaseURL:    "https://liar.example.com",
		AdminEmail: "admin@liar.example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, core.InstanceUnreachable, registered.Status)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		GetInfo(gomock.Any(), gomock.Any()).
		Return(core.InstanceInfo{Name: "Twin", BaseURL: "https://twin.example.com"}, nil)

	service := NewService(testRepository, remote, testConfig)

	_, err := service.Register(ctx, RegisterRequest{
		Name:       "Twin",
		BaseURL:    "https://twin.example.com",
		AdminEmail: "admin@twin.example.com",
	})
	assert.NoError(t, err)

	_, err = service.Register(ctx, RegisterRequest{
		Name:       "Twin Again",
		BaseURL:    "https://twin.example.com",
		AdminEmail: "admin@twin.example.com",
	})
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindAlreadyExists))
}

func TestRegisterRequiresFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewService(testRepository, mock_client.NewMockClient(ctrl), testConfig)

	_, err := service.Register(ctx, RegisterRequest{Name: "No URL"})
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestDirectoriesIncludeActiveInstances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock_client.NewMockClient(ctrl)
	remote.EXPECT().
		GetInfo(gomock.Any(), "https://listed.example.com").
		Return(core.InstanceInfo{Name: "Listed", BaseURL: "https://listed.example.com"}, nil)

	service := NewService(testRepository, remote, testConfig)

	registered, err := service.Register(ctx, RegisterRequest{
		Name:       "Listed",
		BaseURL:    "https://listed.example.com",
		AdminEmail: "admin@listed.example.com",
	})
	assert.NoError(t, err)

	directories := service.Directories(ctx)
	ids := make([]string, 0, len(directories))
	for _, directory := range directories {
		ids = append(ids, directory.ID)
	}
	assert.Contains(t, ids, "dir-static")
	assert.Contains(t, ids, registered.ID)
}

func TestInfoDescribesThisInstance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewService(testRepository, mock_client.NewMockClient(ctrl), testConfig)

	info := service.Info(ctx)
	assert.Equal(t, "unit test directory", info.Name)
	assert.Equal(t, "https://unittest.example.com", info.BaseURL)
	assert.NotEmpty(t, info.ProtocolVersion)
}
