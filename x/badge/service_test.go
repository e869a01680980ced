package badge

import (
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/internal/testutil"
)

const (
	signingKey = "f1229da9dbb71bbd6aaf3adef77f6463d5beb1f4c9d697e9d430ddd621597a6f"
	publicKey  = "03a8c522cfcad109894b76f73a73417cfe62f0b9eacd17c7595b9d221117776d3d"

	// an unrelated keypair, for negative verification
	otherPublicKey = "03e5d30ab784251da967d4b025c26b4e671eae583b299a25cf3b78c9cff9faf74b"
)

var ctx = context.Background()
var db *gorm.DB
var s Service

var testConfig = core.Config{
	Site: core.Site{
		Name:    "unit test directory",
		BaseURL: "https://unittest.example.com",
	},
	Badge: core.BadgeConfig{
		SigningKey: signingKey,
		PublicKey:  publicKey,
	},
}

func TestMain(m *testing.M) {
	log.Println("Test Start")

	var cleanup_db func()
	db, cleanup_db = testutil.CreateDB()
	defer cleanup_db()

	s = NewService(NewRepository(db), testConfig)

	m.Run()

	log.Println("Test End")
}

func TestCreateDefinitionRejectsDuplicateSlug(t *testing.T) {
	_, err := s.CreateDefinition(ctx, "early-adopter", "Early Adopter", "joined in the first month", "")
	assert.NoError(t, err)

	_, err = s.CreateDefinition(ctx, "early-adopter", "Early Adopter Again", "", "")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindAlreadyExists))
}

func TestAwardAndVerifyRoundTrip(t *testing.T) {
	definition, err := s.CreateDefinition(ctx, "launch-champion", "Launch Champion", "ten approved launches", "")
	assert.NoError(t, err)

	award, err := s.Award(ctx, definition.ID, "user-champ")
	assert.NoError(t, err)
	assert.NotEmpty(t, award.Payload)
	assert.Len(t, award.Signature, 130)

	verification, err := s.Verify(ctx, award.ID, "verifier-1", "")
	assert.NoError(t, err)
	assert.True(t, verification.Valid)
	assert.Empty(t, verification.Detail)
}

func TestVerifyRejectsWrongPublicKey(t *testing.T) {
	definition, err := s.CreateDefinition(ctx, "night-owl", "Night Owl", "", "")
	assert.NoError(t, err)

	award, err := s.Award(ctx, definition.ID, "user-owl")
	assert.NoError(t, err)

	verification, err := s.Verify(ctx, award.ID, "verifier-2", otherPublicKey)
	assert.NoError(t, err)
	assert.False(t, verification.Valid)
	assert.NotEmpty(t, verification.Detail)
}

func TestAwardRejectsDoubleAward(t *testing.T) {
	definition, err := s.CreateDefinition(ctx, "first-launch", "First Launch", "", "")
	assert.NoError(t, err)

	_, err = s.Award(ctx, definition.ID, "user-dup")
	assert.NoError(t, err)

	_, err = s.Award(ctx, definition.ID, "user-dup")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindAlreadyExists))
}

func TestVerifyUnknownBadge(t *testing.T) {
	_, err := s.Verify(ctx, "nonexistent-award-id", "verifier-3", "")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestAwardRequiresSigningKey(t *testing.T) {
	unsigned := NewService(NewRepository(db), core.Config{})

	definition, err := s.CreateDefinition(ctx, "unsignable", "Unsignable", "", "")
	assert.NoError(t, err)

	_, err = unsigned.Award(ctx, definition.ID, "user-x")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInternal))
}
