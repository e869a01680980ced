// Package metadata fetches a submitted URL and extracts page metadata.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/launchpadder/launchpadder/core"
)

var tracer = otel.Tracer("metadata")

const (
	defaultTimeout  = 10 * time.Second
	defaultRetries  = 3
	defaultCacheTTL = 5 * time.Minute
	maxBodyBytes    = 4 << 20
)

// Service is the interface for the metadata fetcher
type Service interface {
	Fetch(ctx context.Context, target string) (core.PageMetadata, error)
}

type service struct {
	client   *http.Client
	mc       *memcache.Client
	retries  int
	cacheTTL time.Duration
}

// NewService creates a metadata fetcher. mc may be nil; caching is then
// disabled.
func NewService(mc *memcache.Client, config core.Config) Service {
	timeout := config.Metadata.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retries := config.Metadata.Retries
	if retries == 0 {
		retries = defaultRetries
	}
	cacheTTL := config.Metadata.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &service{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		mc:       mc,
		retries:  retries,
		cacheTTL: cacheTTL,
	}
}

// Fetch retrieves the page and extracts its metadata, retrying transient
// failures. The cache is best effort; cache errors never fail the fetch.
func (s *service) Fetch(ctx context.Context, target string) (core.PageMetadata, error) {
	ctx, span := tracer.Start(ctx, "ServiceFetch")
	defer span.End()

	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		return core.PageMetadata{}, core.NewErrorValidation("Invalid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return core.PageMetadata{}, core.NewErrorValidation("URL scheme not allowed")
	}

	if cached, ok := s.cacheGet(target); ok {
		return cached, nil
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		meta, err := s.fetchOnce(ctx, target)
		if err == nil {
			s.cachePut(target, meta)
			return meta, nil
		}
		lastErr = err
		span.RecordError(err)
		if !isTransient(err) {
			break
		}
	}

	if isTimeout(lastErr) {
		return core.PageMetadata{}, core.WrapError(core.KindUnprocessable, "metadata fetch timeout", lastErr)
	}
	return core.PageMetadata{}, core.WrapError(core.KindUnprocessable, fmt.Sprintf("failed to fetch metadata: %v", lastErr), lastErr)
}

func (s *service) fetchOnce(ctx context.Context, target string) (core.PageMetadata, error) {
	ctx, span := tracer.Start(ctx, "ServiceFetchOnce")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return core.PageMetadata{}, err
	}
	req.Header.Set("User-Agent", "LaunchPadder/1.0 (metadata fetcher)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := s.client.Do(req)
	if err != nil {
		return core.PageMetadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return core.PageMetadata{}, &transientError{fmt.Errorf("upstream returned %s", resp.Status)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return core.PageMetadata{}, fmt.Errorf("upstream returned %s", resp.Status)
	}

	meta, err := extract(http.MaxBytesReader(nil, resp.Body, maxBodyBytes), target)
	if err != nil {
		return core.PageMetadata{}, err
	}
	meta.ContentType = resp.Header.Get("Content-Type")

	return meta, nil
}

func (s *service) cacheGet(target string) (core.PageMetadata, bool) {
	if s.mc == nil {
		return core.PageMetadata{}, false
	}
	item, err := s.mc.Get(cacheKey(target))
	if err != nil {
		return core.PageMetadata{}, false
	}
	var meta core.PageMetadata
	if err := json.Unmarshal(item.Value, &meta); err != nil {
		return core.PageMetadata{}, false
	}
	return meta, true
}

func (s *service) cachePut(target string, meta core.PageMetadata) {
	if s.mc == nil {
		return
	}
	value, err := json.Marshal(meta)
	if err != nil {
		return
	}
	s.mc.Set(&memcache.Item{
		Key:        cacheKey(target),
		Value:      value,
		Expiration: int32(s.cacheTTL.Seconds()),
	})
}

func cacheKey(target string) string {
	return "meta:" + target
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline exceeded")
}
