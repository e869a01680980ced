package submission

import "github.com/launchpadder/launchpadder/core"

// CreateRequest is the body of POST /api/submissions
type CreateRequest struct {
	URL            string   `json:"url"`
	SubmissionType string   `json:"submission_type"`
	Tags           []string `json:"tags,omitempty"`
}

// UpdateRequest carries the owner-mutable fields. URL, author and status
// are not updatable through this surface.
type UpdateRequest struct {
	Tags   []string `json:"tags,omitempty"`
	Images *struct {
		Logo   string `json:"logo,omitempty"`
		Banner string `json:"banner,omitempty"`
	} `json:"images,omitempty"`
}

// IngestRequest is the body of a federation push. The origin instance has
// already fetched the metadata.
type IngestRequest struct {
	URL      string            `json:"url"`
	Metadata core.PageMetadata `json:"metadata"`
	Tags     []string          `json:"tags,omitempty"`
}

// ListQuery is the parsed query string of GET /api/submissions
type ListQuery struct {
	Page   int
	Limit  int
	Status string
	Tags   []string
	Search string
	Sort   string
	Order  string
}

const (
	defaultLimit = 20
	maxLimit     = 50
)

// sortColumns maps the allow-listed sort query values to their columns.
// The creation timestamp is exposed as created_at but stored in c_date.
var sortColumns = map[string]string{
	"created_at":     "c_date",
	"published_at":   "published_at",
	"votes_count":    "votes_count",
	"comments_count": "comments_count",
	"views_count":    "views_count",
}
