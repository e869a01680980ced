package core

import "encoding/json"

// ImageCandidate is one extracted image or favicon with optional dimensions
type ImageCandidate struct {
	URL    string `json:"url"`
	Type   string `json:"type,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Sizes  string `json:"sizes,omitempty"`
}

// PageMetadata is the best-effort extraction result for a submitted URL
type PageMetadata struct {
	URL            string            `json:"url"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Canonical      string            `json:"canonical,omitempty"`
	ContentType    string            `json:"content_type,omitempty"`
	Images         []ImageCandidate  `json:"images,omitempty"`
	Favicons       []ImageCandidate  `json:"favicons,omitempty"`
	OpenGraph      map[string]string `json:"open_graph,omitempty"`
	Twitter        map[string]string `json:"twitter,omitempty"`
	StructuredData []json.RawMessage `json:"structured_data,omitempty"`
}

// RewrittenMeta is the AI-enhanced metadata
type RewrittenMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// SubmissionImages holds curated image slots
type SubmissionImages struct {
	Logo   string `json:"logo,omitempty"`
	Banner string `json:"banner,omitempty"`
}

// DirectoryDescriptor is one entry of the federation discovery listing.
// The API key authenticates outbound pushes and never leaves the server.
type DirectoryDescriptor struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	BaseURL     string   `json:"base_url" yaml:"baseUrl"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Categories  []string `json:"categories,omitempty" yaml:"categories"`
	APIKey      string   `json:"-" yaml:"apiKey"`
}

// InstanceInfo is the capability descriptor served at /api/v1/federation/info
type InstanceInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	BaseURL         string   `json:"base_url"`
	Version         string   `json:"version"`
	ProtocolVersion string   `json:"protocol_version"`
	Features        []string `json:"features"`
	AdminEmail      string   `json:"admin_email,omitempty"`
}
