// Package instance implements federation discovery and the remote
// instance registry
package instance

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/xid"
	recaptcha "github.com/xinguang/go-recaptcha"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/launchpadder/launchpadder/client"
	"github.com/launchpadder/launchpadder/core"
)

var tracer = otel.Tracer("instance")

// Version is stamped at build time
var Version = "dev"

// Service is the interface for instance service
type Service interface {
	Info(ctx context.Context) core.InstanceInfo
	Directories(ctx context.Context) []core.DirectoryDescriptor
	Register(ctx context.Context, request RegisterRequest) (core.FederationInstance, error)
	Get(ctx context.Context, id string) (core.FederationInstance, error)
	List(ctx context.Context) ([]core.FederationInstance, error)
	Delete(ctx context.Context, id string) error
	Probe(ctx context.Context, instance core.FederationInstance) error
	Refresh(ctx context.Context, instance core.FederationInstance)
	ListStale(ctx context.Context, before time.Time) ([]core.FederationInstance, error)
	Count(ctx context.Context) (int64, error)
}

// RegisterRequest is the body of POST /api/v1/federation/instances
type RegisterRequest struct {
	Name         string `json:"name"`
	BaseURL      string `json:"base_url"`
	AdminEmail   string `json:"admin_email"`
	CaptchaToken string `json:"captcha_token,omitempty"`
}

type service struct {
	repository Repository
	client     client.Client
	config     core.Config
	captcha    *recaptcha.ReCAPTCHA
}

// NewService creates a new instance service. The captcha check is skipped
// when no secret is configured.
func NewService(repository Repository, client client.Client, config core.Config) Service {
	var captcha *recaptcha.ReCAPTCHA
	if config.Federation.CaptchaSecret != "" {
		created, err := recaptcha.NewWithSecert(config.Federation.CaptchaSecret)
		if err == nil {
			captcha = created
		}
	}

	return &service{
		repository: repository,
		client:     client,
		config:     config,
		captcha:    captcha,
	}
}

// Info returns the capability descriptor served at the discovery endpoint
func (s *service) Info(ctx context.Context) core.InstanceInfo {
	return core.InstanceInfo{
		Name:            s.config.Site.Name,
		Description:     s.config.Site.Description,
		BaseURL:         s.config.Site.BaseURL,
		Version:         Version,
		ProtocolVersion: core.ProtocolVersion,
		Features:        []string{"submissions", "federation", "badges", "votes", "comments"},
		AdminEmail:      s.config.Site.AdminEmail,
	}
}

// Directories merges the configured directories with the active registered
// instances
func (s *service) Directories(ctx context.Context) []core.DirectoryDescriptor {
	ctx, span := tracer.Start(ctx, "ServiceDirectories")
	defer span.End()

	directories := make([]core.DirectoryDescriptor, 0, len(s.config.Federation.Directories))
	directories = append(directories, s.config.Federation.Directories...)

	instances, err := s.repository.ListByStatus(ctx, core.InstanceActive)
	if err != nil {
		span.RecordError(err)
		return directories
	}
	for _, instance := range instances {
		directories = append(directories, core.DirectoryDescriptor{
			ID:      instance.ID,
			Name:    instance.Name,
			BaseURL: instance.BaseURL,
		})
	}

	return directories
}

// Register validates the request, optionally checks the captcha, then probes
// the remote's discovery endpoint before storing it.
func (s *service) Register(ctx context.Context, request RegisterRequest) (core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "ServiceRegister")
	defer span.End()

	if request.Name == "" || request.BaseURL == "" || request.AdminEmail == "" {
		return core.FederationInstance{}, core.NewErrorValidation("name, base_url and admin_email are required")
	}
	parsed, err := url.Parse(request.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return core.FederationInstance{}, core.NewErrorValidation("Invalid base_url")
	}

	if s.captcha != nil {
		if err := s.captcha.Verify(request.CaptchaToken); err != nil {
			return core.FederationInstance{}, core.NewErrorValidation("captcha verification failed")
		}
	}

	if _, err := s.repository.GetByURL(ctx, request.BaseURL); err == nil {
		return core.FederationInstance{}, core.NewErrorAlreadyExists("This instance is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return core.FederationInstance{}, err
	}

	instance := core.FederationInstance{
		ID:         xid.New().String(),
		Name:       request.Name,
		BaseURL:    request.BaseURL,
		AdminEmail: request.AdminEmail,
		Status:     core.InstanceUnreachable,
		LastSeen:   time.Now().UTC(),
	}

	if err := s.Probe(ctx, instance); err == nil {
		instance.Status = core.InstanceActive
	} else {
		span.RecordError(err)
	}

	return s.repository.Upsert(ctx, instance)
}

// Probe fetches the remote's discovery descriptor and checks that it claims
// the registered base URL
func (s *service) Probe(ctx context.Context, instance core.FederationInstance) error {
	ctx, span := tracer.Start(ctx, "ServiceProbe")
	defer span.End()

	info, err := s.client.GetInfo(ctx, instance.BaseURL)
	if err != nil {
		return err
	}
	if info.BaseURL != instance.BaseURL {
		return errors.New("remote reports a different base url")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id string) (core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "ServiceGet")
	defer span.End()

	instance, err := s.repository.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.FederationInstance{}, core.NewErrorNotFound("instance not found")
		}
		return core.FederationInstance{}, err
	}
	return instance, nil
}

func (s *service) List(ctx context.Context) ([]core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "ServiceList")
	defer span.End()

	return s.repository.List(ctx)
}

func (s *service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ServiceDelete")
	defer span.End()

	if _, err := s.repository.Get(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NewErrorNotFound("instance not found")
		}
		return err
	}

	return s.repository.Delete(ctx, id)
}

func (s *service) ListStale(ctx context.Context, before time.Time) ([]core.FederationInstance, error) {
	ctx, span := tracer.Start(ctx, "ServiceListStale")
	defer span.End()

	return s.repository.ListStale(ctx, before)
}

// Refresh re-probes one instance and records the outcome
func (s *service) Refresh(ctx context.Context, instance core.FederationInstance) {
	ctx, span := tracer.Start(ctx, "ServiceRefresh")
	defer span.End()

	status := core.InstanceActive
	if err := s.Probe(ctx, instance); err != nil {
		status = core.InstanceUnreachable
	}
	s.repository.SetStatus(ctx, instance.ID, status, time.Now().UTC())
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ServiceCount")
	defer span.End()

	return s.repository.Count(ctx)
}
