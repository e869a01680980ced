//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=mock/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/launchpadder/launchpadder/core"
)

const (
	defaultTimeout = 10 * time.Second
	probeTimeout   = 3 * time.Second
)

var tracer = otel.Tracer("client")

// PushPayload is the body sent to a remote directory's v1 submission endpoint
type PushPayload struct {
	URL      string            `json:"url"`
	Metadata core.PageMetadata `json:"metadata"`
	Tags     []string          `json:"tags,omitempty"`
}

// Client talks to remote LaunchPadder-compatible instances
type Client interface {
	GetInfo(ctx context.Context, baseURL string) (core.InstanceInfo, error)
	ExchangeToken(ctx context.Context, baseURL string, apiKey string) (string, error)
	PushSubmission(ctx context.Context, baseURL string, token string, payload PushPayload) (core.Submission, error)
	Health(ctx context.Context, baseURL string) error
}

type client struct{}

func NewClient() Client {
	return &client{}
}

func (c *client) GetInfo(ctx context.Context, baseURL string) (core.InstanceInfo, error) {
	ctx, span := tracer.Start(ctx, "Client.GetInfo")
	defer span.End()

	req, err := http.NewRequest("GET", strings.TrimSuffix(baseURL, "/")+"/api/v1/federation/info", nil)
	if err != nil {
		span.RecordError(err)
		return core.InstanceInfo{}, err
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	client := new(http.Client)
	client.Timeout = probeTimeout
	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		return core.InstanceInfo{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var remoteInfo core.ResponseBase[core.InstanceInfo]
	err = json.Unmarshal(body, &remoteInfo)
	if err != nil {
		span.RecordError(err)
		return core.InstanceInfo{}, err
	}

	if remoteInfo.Status != "ok" {
		return core.InstanceInfo{}, fmt.Errorf("remote instance info is not available")
	}

	return remoteInfo.Content, nil
}

// PushSubmission sends a submission to the remote's partner surface. The
// token is the short-lived JWT obtained from the remote's token exchange.
func (c *client) PushSubmission(ctx context.Context, baseURL string, token string, payload PushPayload) (core.Submission, error) {
	ctx, span := tracer.Start(ctx, "Client.PushSubmission")
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return core.Submission{}, err
	}

	req, err := http.NewRequest("POST", strings.TrimSuffix(baseURL, "/")+"/api/v1/submissions", bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		return core.Submission{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	client := new(http.Client)
	client.Timeout = defaultTimeout
	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		return core.Submission{}, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return core.Submission{}, fmt.Errorf("remote rejected submission: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var remoteSubmission core.ResponseBase[core.Submission]
	err = json.Unmarshal(respBody, &remoteSubmission)
	if err != nil {
		span.RecordError(err)
		return core.Submission{}, err
	}

	if remoteSubmission.Status != "ok" {
		return core.Submission{}, fmt.Errorf("remote rejected submission: %s", remoteSubmission.Error)
	}

	return remoteSubmission.Content, nil
}

// ExchangeToken trades a partner API key for a short-lived JWT on the remote
func (c *client) ExchangeToken(ctx context.Context, baseURL string, apiKey string) (string, error) {
	ctx, span := tracer.Start(ctx, "Client.ExchangeToken")
	defer span.End()

	body, _ := json.Marshal(map[string]string{"api_key": apiKey})
	req, err := http.NewRequest("POST", strings.TrimSuffix(baseURL, "/")+"/api/v1/auth/token", bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	client := new(http.Client)
	client.Timeout = probeTimeout
	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var tokenResp core.ResponseBase[struct {
		Token string `json:"token"`
	}]
	err = json.Unmarshal(respBody, &tokenResp)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if tokenResp.Status != "ok" || tokenResp.Content.Token == "" {
		return "", fmt.Errorf("remote token exchange failed")
	}

	return tokenResp.Content.Token, nil
}

func (c *client) Health(ctx context.Context, baseURL string) error {
	ctx, span := tracer.Start(ctx, "Client.Health")
	defer span.End()

	req, err := http.NewRequest("GET", strings.TrimSuffix(baseURL, "/")+"/api/health", nil)
	if err != nil {
		span.RecordError(err)
		return err
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	client := new(http.Client)
	client.Timeout = probeTimeout
	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote health returned %s", resp.Status)
	}
	return nil
}
