package core

const (
	RequesterTypeCtxKey = "lp-requesterType"
	RequesterIdCtxKey   = "lp-requesterId"
	RequesterTierCtxKey = "lp-requesterTier"
	RateLimitCtxKey     = "lp-rateLimit"
)

// Requester types resolved by the auth middleware
const (
	Unknown = iota
	LocalUser
	RequesterTypePartner
)

func RequesterTypeString(t int) string {
	switch t {
	case LocalUser:
		return "user"
	case RequesterTypePartner:
		return "federation_partner"
	default:
		return "unknown"
	}
}

// Submission statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Federated submission sync statuses
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncFailed  = "failed"
)

// Partner/instance statuses
const (
	PartnerActive    = "active"
	PartnerSuspended = "suspended"

	InstanceActive      = "active"
	InstanceUnreachable = "unreachable"
)

// Rate-limit tiers
const (
	TierPublic     = "public"
	TierBasic      = "basic"
	TierPremium    = "premium"
	TierEnterprise = "enterprise"
)

// APIKeyPrefix is required on every federation partner key
const APIKeyPrefix = "fed_key_"

// ProtocolVersion of the federation surface
const ProtocolVersion = "1.0"
