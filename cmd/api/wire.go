//go:build wireinject

package main

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/client"
	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/agent"
	"github.com/launchpadder/launchpadder/x/auth"
	"github.com/launchpadder/launchpadder/x/badge"
	"github.com/launchpadder/launchpadder/x/comment"
	"github.com/launchpadder/launchpadder/x/federation"
	"github.com/launchpadder/launchpadder/x/instance"
	"github.com/launchpadder/launchpadder/x/metadata"
	"github.com/launchpadder/launchpadder/x/partner"
	"github.com/launchpadder/launchpadder/x/profile"
	"github.com/launchpadder/launchpadder/x/ratelimit"
	"github.com/launchpadder/launchpadder/x/rewriter"
	"github.com/launchpadder/launchpadder/x/submission"
	"github.com/launchpadder/launchpadder/x/vote"
)

var profileProvider = wire.NewSet(profile.NewService, profile.NewRepository)
var partnerProvider = wire.NewSet(partner.NewService, partner.NewRepository)
var authProvider = wire.NewSet(auth.NewService, partnerProvider, profileProvider)
var submissionProvider = wire.NewSet(submission.NewService, submission.NewRepository, profileProvider, metadata.NewService, rewriter.NewService)
var instanceProvider = wire.NewSet(instance.NewService, instance.NewRepository)
var federationProvider = wire.NewSet(federation.NewService, federation.NewRepository, submissionProvider, instanceProvider)

func SetupAuthHandler(db *gorm.DB, config core.Config) auth.Handler {
	wire.Build(auth.NewHandler, authProvider)
	return nil
}

func SetupAuthMiddleware(db *gorm.DB, limiter ratelimit.Store, config core.Config) *auth.Middleware {
	wire.Build(auth.NewMiddleware, authProvider)
	return nil
}

func SetupPartnerHandler(db *gorm.DB) partner.Handler {
	wire.Build(partner.NewHandler, partnerProvider)
	return nil
}

func SetupSubmissionHandler(db *gorm.DB, mc *memcache.Client, config core.Config) submission.Handler {
	wire.Build(submission.NewHandler, submissionProvider)
	return nil
}

func SetupSubmissionService(db *gorm.DB, mc *memcache.Client, config core.Config) submission.Service {
	wire.Build(submissionProvider)
	return nil
}

func SetupInstanceHandler(db *gorm.DB, remote client.Client, config core.Config) instance.Handler {
	wire.Build(instance.NewHandler, instanceProvider)
	return nil
}

func SetupFederationHandler(db *gorm.DB, mc *memcache.Client, remote client.Client, config core.Config) federation.Handler {
	wire.Build(federation.NewHandler, federationProvider)
	return nil
}

func SetupBadgeHandler(db *gorm.DB, config core.Config) badge.Handler {
	wire.Build(badge.NewHandler, badge.NewService, badge.NewRepository)
	return nil
}

func SetupVoteHandler(db *gorm.DB, mc *memcache.Client, config core.Config) vote.Handler {
	wire.Build(vote.NewHandler, vote.NewService, vote.NewRepository, submissionProvider)
	return nil
}

func SetupCommentHandler(db *gorm.DB, mc *memcache.Client, config core.Config) comment.Handler {
	wire.Build(comment.NewHandler, comment.NewService, comment.NewRepository, submissionProvider)
	return nil
}

func SetupAgent(db *gorm.DB, mc *memcache.Client, limiter *ratelimit.MemoryStore, remote client.Client, config core.Config) agent.Service {
	wire.Build(agent.NewAgent, federationProvider)
	return nil
}
