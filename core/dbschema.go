package core

import (
	"time"

	"github.com/lib/pq"
)

// Submission is a launched product entry
// url and submitted_by are immutable after creation
type Submission struct {
	ID             string         `json:"id" gorm:"primaryKey;type:char(20)"`
	URL            string         `json:"url" gorm:"type:text;uniqueIndex:uniq_submission_url;not null"`
	SubmittedBy    string         `json:"submitted_by" gorm:"type:text;index;not null"`
	SubmissionType string         `json:"submission_type" gorm:"type:text;default:'free'"`
	OriginalMeta   string         `json:"original_meta" gorm:"type:json"`
	RewrittenMeta  *string        `json:"rewritten_meta,omitempty" gorm:"type:json;default:null"`
	Images         string         `json:"images" gorm:"type:json;default:'{}'"`
	Tags           pq.StringArray `json:"tags" gorm:"type:text[]"`
	Status         string         `json:"status" gorm:"type:text;default:'pending';index"`
	VotesCount     int            `json:"votes_count" gorm:"type:integer;default:0"`
	CommentsCount  int            `json:"comments_count" gorm:"type:integer;default:0"`
	ViewsCount     int            `json:"views_count" gorm:"type:integer;default:0"`
	CDate          time.Time      `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate          time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	PublishedAt    *time.Time     `json:"published_at,omitempty" gorm:"type:timestamp with time zone;default:null"`
}

// FederatedSubmission tracks one fan-out target of a submission.
// One row per (submission, target); each target syncs independently.
type FederatedSubmission struct {
	ID            string     `json:"id" gorm:"primaryKey;type:char(20)"`
	SubmissionID  string     `json:"submission_id" gorm:"type:char(20);index;not null"`
	Submission    Submission `json:"-" gorm:"foreignKey:SubmissionID"`
	Target        string     `json:"target" gorm:"type:text;not null"`
	PaymentMethod string     `json:"payment_method" gorm:"type:text"`
	Status        string     `json:"status" gorm:"type:text;default:'pending';index"`
	Attempts      int        `json:"attempts" gorm:"type:integer;default:0"`
	LastError     string     `json:"last_error,omitempty" gorm:"type:text"`
	CDate         time.Time  `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	SyncedAt      *time.Time `json:"synced_at,omitempty" gorm:"type:timestamp with time zone;default:null"`
}

// FederationPartner is an external platform authenticated by API key or JWT
type FederationPartner struct {
	ID         string    `json:"id" gorm:"primaryKey;type:char(20)"`
	Name       string    `json:"name" gorm:"type:text;not null"`
	APIKey     string    `json:"-" gorm:"type:text;uniqueIndex:uniq_partner_key"`
	Tier       string    `json:"tier" gorm:"type:text;default:'basic'"`
	Status     string    `json:"status" gorm:"type:text;default:'active'"`
	LastActive time.Time `json:"last_active" gorm:"type:timestamp with time zone"`
	CDate      time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// FederationInstance is a registered remote directory
type FederationInstance struct {
	ID         string    `json:"id" gorm:"primaryKey;type:char(20)"`
	Name       string    `json:"name" gorm:"type:text;not null"`
	BaseURL    string    `json:"base_url" gorm:"type:text;uniqueIndex:uniq_instance_url;not null"`
	AdminEmail string    `json:"admin_email" gorm:"type:text;not null"`
	Status     string    `json:"status" gorm:"type:text;default:'pending'"`
	LastSeen   time.Time `json:"last_seen" gorm:"type:timestamp with time zone"`
	CDate      time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// Profile is a local user record
type Profile struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	DisplayName string    `json:"display_name" gorm:"type:text"`
	Tier        string    `json:"tier" gorm:"type:text;default:'basic'"`
	IsAdmin     bool      `json:"is_admin" gorm:"type:boolean;default:false"`
	IsModerator bool      `json:"is_moderator" gorm:"type:boolean;default:false"`
	CDate       time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// APIKey is a user-scoped key for the public API
type APIKey struct {
	ID       string    `json:"id" gorm:"primaryKey;type:char(20)"`
	Key      string    `json:"-" gorm:"type:text;uniqueIndex:uniq_api_key"`
	OwnerID  string    `json:"owner_id" gorm:"type:text;index;not null"`
	Label    string    `json:"label" gorm:"type:text"`
	LastUsed time.Time `json:"last_used" gorm:"type:timestamp with time zone"`
	CDate    time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// BadgeDefinition is a catalog entry
type BadgeDefinition struct {
	ID          string    `json:"id" gorm:"primaryKey;type:char(20)"`
	Slug        string    `json:"slug" gorm:"type:text;uniqueIndex:uniq_badge_slug;not null"`
	Name        string    `json:"name" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ImageURL    string    `json:"image_url" gorm:"type:text"`
	CDate       time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// UserBadge is an award record
type UserBadge struct {
	ID        string    `json:"id" gorm:"primaryKey;type:char(20)"`
	BadgeID   string    `json:"badge_id" gorm:"type:char(20);uniqueIndex:uniq_user_badge;not null"`
	UserID    string    `json:"user_id" gorm:"type:text;index;uniqueIndex:uniq_user_badge;not null"`
	Payload   string    `json:"payload" gorm:"type:json"`
	Signature string    `json:"signature" gorm:"type:char(130)"`
	CDate     time.Time `json:"awarded_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// BadgeVerification records one signature check of a user badge
type BadgeVerification struct {
	ID          string    `json:"id" gorm:"primaryKey;type:char(20)"`
	UserBadgeID string    `json:"user_badge_id" gorm:"type:char(20);index;not null"`
	Verifier    string    `json:"verifier" gorm:"type:text"`
	Valid       bool      `json:"valid" gorm:"type:boolean"`
	Detail      string    `json:"detail" gorm:"type:text"`
	CDate       time.Time `json:"verified_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// Vote is unique per (user, submission)
type Vote struct {
	ID           string    `json:"id" gorm:"primaryKey;type:char(20)"`
	SubmissionID string    `json:"submission_id" gorm:"type:char(20);uniqueIndex:uniq_vote;not null"`
	UserID       string    `json:"user_id" gorm:"type:text;uniqueIndex:uniq_vote;not null"`
	CDate        time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Comment struct {
	ID           string    `json:"id" gorm:"primaryKey;type:char(20)"`
	SubmissionID string    `json:"submission_id" gorm:"type:char(20);index;not null"`
	UserID       string    `json:"user_id" gorm:"type:text;index;not null"`
	Body         string    `json:"body" gorm:"type:text;not null"`
	CDate        time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
