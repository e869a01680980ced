package auth

import (
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/internal/testutil"
	"github.com/launchpadder/launchpadder/x/partner"
	"github.com/launchpadder/launchpadder/x/profile"
)

var ctx = context.Background()
var db *gorm.DB
var s Service
var partnerService partner.Service

var testConfig = core.Config{
	Site: core.Site{
		Name:    "unit test directory",
		BaseURL: "https://unittest.example.com",
	},
	Auth: core.AuthConfig{
		JWTSecret: "unit-test-secret",
	},
}

func TestMain(m *testing.M) {
	log.Println("Test Start")

	var cleanup_db func()
	db, cleanup_db = testutil.CreateDB()
	defer cleanup_db()

	partnerService = partner.NewService(partner.NewRepository(db))
	profileService := profile.NewService(profile.NewRepository(db))
	s = NewService(testConfig, partnerService, profileService)

	m.Run()

	log.Println("Test End")
}

func TestExchangeTokenRejectsBadPrefix(t *testing.T) {
	_, err := s.ExchangeToken(ctx, "not_a_federation_key")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestExchangeTokenRejectsUnknownKey(t *testing.T) {
	_, err := s.ExchangeToken(ctx, core.APIKeyPrefix+"doesnotexist")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindUnauthorized))
}

func TestExchangeTokenIssuesJWT(t *testing.T) {
	created, err := partnerService.Create(ctx, "partner one", core.TierPremium)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.APIKey, core.APIKeyPrefix))

	response, err := s.ExchangeToken(ctx, created.APIKey)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, 3600, response.ExpiresIn)

	// the issued token identifies the partner with its tier
	principal, err := s.Identify(ctx, response.Token, "")
	assert.NoError(t, err)
	assert.Equal(t, core.RequesterTypePartner, principal.Type)
	assert.Equal(t, created.ID, principal.ID)
	assert.Equal(t, core.TierPremium, principal.Tier)
}

func TestExchangeTokenRejectsSuspendedPartner(t *testing.T) {
	created, err := partnerService.Create(ctx, "partner two", core.TierBasic)
	assert.NoError(t, err)

	err = partnerService.SetStatus(ctx, created.ID, core.PartnerSuspended)
	assert.NoError(t, err)

	_, err = s.ExchangeToken(ctx, created.APIKey)
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindUnauthorized))
}

func TestIdentifyAPIKeyDirectly(t *testing.T) {
	created, err := partnerService.Create(ctx, "partner three", core.TierEnterprise)
	assert.NoError(t, err)

	principal, err := s.Identify(ctx, "", created.APIKey)
	assert.NoError(t, err)
	assert.Equal(t, core.RequesterTypePartner, principal.Type)
	assert.Equal(t, core.TierEnterprise, principal.Tier)
}

func TestIdentifyUserToken(t *testing.T) {
	token, err := s.IssueUserToken(ctx, "user-xyz", time.Hour)
	assert.NoError(t, err)

	principal, err := s.Identify(ctx, token, "")
	assert.NoError(t, err)
	assert.Equal(t, core.LocalUser, principal.Type)
	assert.Equal(t, "user-xyz", principal.ID)
	assert.Equal(t, core.TierBasic, principal.Tier)
}

func TestIdentifyUserAPIKeyTouchesLastUsed(t *testing.T) {
	user := core.Profile{ID: "key-user", Tier: core.TierPremium}
	assert.NoError(t, db.Create(&user).Error)

	apikey := core.APIKey{ID: xid.New().String(), Key: "user-key-1", OwnerID: user.ID, Label: "ci"}
	assert.NoError(t, db.Create(&apikey).Error)

	principal, err := s.Identify(ctx, "", apikey.Key)
	assert.NoError(t, err)
	assert.Equal(t, core.LocalUser, principal.Type)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, core.TierPremium, principal.Tier)

	// the usage timestamp is recorded asynchronously
	assert.Eventually(t, func() bool {
		var row core.APIKey
		if err := db.First(&row, "id = ?", apikey.ID).Error; err != nil {
			return false
		}
		return row.LastUsed.Year() > 2000
	}, 2*time.Second, 50*time.Millisecond)
}

func TestIdentifyGarbageToken(t *testing.T) {
	_, err := s.Identify(ctx, "garbage.token.value", "")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindUnauthorized))
}
