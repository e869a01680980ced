// Package submission implements the product listing lifecycle
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/metadata"
	"github.com/launchpadder/launchpadder/x/profile"
	"github.com/launchpadder/launchpadder/x/rewriter"
)

var tracer = otel.Tracer("submission")

const freeDailyLimit = 1

// Service is the interface for submission service
type Service interface {
	Create(ctx context.Context, request CreateRequest, userID string) (core.Submission, error)
	Ingest(ctx context.Context, request IngestRequest, partnerID string) (core.Submission, error)
	Get(ctx context.Context, id string) (core.Submission, error)
	GetList(ctx context.Context, query ListQuery) ([]core.Submission, int64, error)
	Update(ctx context.Context, id string, request UpdateRequest, requesterID string) (core.Submission, error)
	Delete(ctx context.Context, id string, requesterID string) error
	SetStatus(ctx context.Context, id string, status string) (core.Submission, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repository Repository
	profile    profile.Service
	metadata   metadata.Service
	rewriter   rewriter.Service
}

// NewService creates a new submission service
func NewService(repository Repository, profile profile.Service, metadata metadata.Service, rewriter rewriter.Service) Service {
	return &service{
		repository: repository,
		profile:    profile,
		metadata:   metadata,
		rewriter:   rewriter,
	}
}

// Create validates the URL, enforces the free-tier daily quota, fetches and
// optionally rewrites the page metadata, then persists a pending listing.
func (s *service) Create(ctx context.Context, request CreateRequest, userID string) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "ServiceCreate")
	defer span.End()

	parsed, err := url.Parse(request.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return core.Submission{}, core.NewErrorValidation("Invalid URL")
	}

	submissionType := request.SubmissionType
	if submissionType == "" {
		submissionType = "free"
	}
	if submissionType != "free" && submissionType != "paid" {
		return core.Submission{}, core.NewErrorValidation("Invalid submission type")
	}

	// Pre-check for a friendlier error; the unique index still resolves
	// concurrent duplicates on insert.
	_, err = s.repository.GetByURL(ctx, request.URL)
	if err == nil {
		return core.Submission{}, core.NewErrorAlreadyExists("This URL has already been submitted")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return core.Submission{}, err
	}

	if submissionType == "free" && !s.profile.IsAdmin(ctx, userID) {
		midnight := time.Now().UTC().Truncate(24 * time.Hour)
		count, err := s.repository.CountFreeSince(ctx, userID, midnight)
		if err != nil {
			span.RecordError(err)
			return core.Submission{}, err
		}
		if count >= freeDailyLimit {
			return core.Submission{}, core.NewError(core.KindRateLimited, "Daily free submission limit reached")
		}
	}

	meta, err := s.metadata.Fetch(ctx, request.URL)
	if err != nil {
		span.RecordError(err)
		return core.Submission{}, err
	}

	tags := request.Tags
	var rewrittenJSON *string
	if s.rewriter.Enabled() {
		rewritten, err := s.rewriter.Rewrite(ctx, meta)
		if err != nil {
			span.RecordError(err)
			return core.Submission{}, err
		}
		raw, err := json.Marshal(rewritten)
		if err != nil {
			return core.Submission{}, err
		}
		encoded := string(raw)
		rewrittenJSON = &encoded
		if len(tags) == 0 {
			tags = rewritten.Tags
		}
	}

	originalJSON, err := json.Marshal(meta)
	if err != nil {
		return core.Submission{}, err
	}

	imagesJSON, err := json.Marshal(curateImages(meta))
	if err != nil {
		return core.Submission{}, err
	}

	return s.repository.Create(ctx, core.Submission{
		ID:             xid.New().String(),
		URL:            request.URL,
		SubmittedBy:    userID,
		SubmissionType: submissionType,
		OriginalMeta:   string(originalJSON),
		RewrittenMeta:  rewrittenJSON,
		Images:         string(imagesJSON),
		Tags:           tags,
		Status:         core.StatusPending,
	})
}

// Ingest persists a submission pushed by a federation partner. The metadata
// travels with the push, so nothing is fetched locally.
func (s *service) Ingest(ctx context.Context, request IngestRequest, partnerID string) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "ServiceIngest")
	defer span.End()

	if request.URL == "" || request.Metadata.Title == "" {
		return core.Submission{}, core.NewErrorValidation("url and metadata.title are required")
	}
	parsed, err := url.Parse(request.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return core.Submission{}, core.NewErrorValidation("Invalid URL")
	}

	originalJSON, err := json.Marshal(request.Metadata)
	if err != nil {
		return core.Submission{}, err
	}

	return s.repository.Create(ctx, core.Submission{
		ID:             xid.New().String(),
		URL:            request.URL,
		SubmittedBy:    partnerID,
		SubmissionType: "federated",
		OriginalMeta:   string(originalJSON),
		Images:         "{}",
		Tags:           request.Tags,
		Status:         core.StatusPending,
	})
}

func (s *service) Get(ctx context.Context, id string) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "ServiceGet")
	defer span.End()

	submission, err := s.repository.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Submission{}, core.NewErrorNotFound("submission not found")
		}
		span.RecordError(err)
		return core.Submission{}, err
	}
	return submission, nil
}

func (s *service) GetList(ctx context.Context, query ListQuery) ([]core.Submission, int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceGetList")
	defer span.End()

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = defaultLimit
	}
	if query.Limit > maxLimit {
		query.Limit = maxLimit
	}

	return s.repository.GetList(ctx, query)
}

// Update applies owner-mutable fields. A missing row and a foreign row are
// indistinguishable to the caller.
func (s *service) Update(ctx context.Context, id string, request UpdateRequest, requesterID string) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "ServiceUpdate")
	defer span.End()

	existing, err := s.repository.Get(ctx, id)
	if err != nil || existing.SubmittedBy != requesterID {
		return core.Submission{}, core.NewErrorNotFound("submission not found or no permission")
	}

	if request.Tags != nil {
		existing.Tags = request.Tags
	}
	if request.Images != nil {
		imagesJSON, err := json.Marshal(core.SubmissionImages{
			Logo:   request.Images.Logo,
			Banner: request.Images.Banner,
		})
		if err != nil {
			return core.Submission{}, err
		}
		existing.Images = string(imagesJSON)
	}

	return s.repository.Update(ctx, existing)
}

func (s *service) Delete(ctx context.Context, id string, requesterID string) error {
	ctx, span := tracer.Start(ctx, "ServiceDelete")
	defer span.End()

	existing, err := s.repository.Get(ctx, id)
	if err != nil || existing.SubmittedBy != requesterID {
		return core.NewErrorNotFound("submission not found or no permission")
	}

	return s.repository.Delete(ctx, id)
}

// SetStatus is the moderation entry point. Approval stamps published_at.
func (s *service) SetStatus(ctx context.Context, id string, status string) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "ServiceSetStatus")
	defer span.End()

	if !slices.Contains([]string{core.StatusPending, core.StatusApproved, core.StatusRejected}, status) {
		return core.Submission{}, core.NewErrorValidation("Invalid status")
	}

	if _, err := s.repository.Get(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Submission{}, core.NewErrorNotFound("submission not found")
		}
		return core.Submission{}, err
	}

	var publishedAt *time.Time
	if status == core.StatusApproved {
		now := time.Now().UTC()
		publishedAt = &now
	}

	if err := s.repository.SetStatus(ctx, id, status, publishedAt); err != nil {
		span.RecordError(err)
		return core.Submission{}, err
	}

	return s.repository.Get(ctx, id)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceCount")
	defer span.End()

	return s.repository.Count(ctx)
}

// curateImages picks the first extracted image as banner and the first
// favicon as logo
func curateImages(meta core.PageMetadata) core.SubmissionImages {
	var images core.SubmissionImages
	if len(meta.Favicons) > 0 {
		images.Logo = meta.Favicons[0].URL
	}
	if len(meta.Images) > 0 {
		images.Banner = meta.Images[0].URL
	}
	return images
}
