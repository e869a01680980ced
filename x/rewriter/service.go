// Package rewriter enhances fetched metadata through an OpenAI-compatible
// chat-completion endpoint.
package rewriter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"

	"github.com/launchpadder/launchpadder/core"
)

var tracer = otel.Tracer("rewriter")

const (
	maxAttempts    = 3
	retryDelay     = time.Second
	requestTimeout = 30 * time.Second

	// rough character budget for the prompt, estimated at 4 chars per token
	promptTokenBudget = 3000
	charsPerToken     = 4
)

// Service is the interface for the AI rewriter
type Service interface {
	Rewrite(ctx context.Context, meta core.PageMetadata) (core.RewrittenMeta, error)
	Enabled() bool
	Ping(ctx context.Context) error
}

type service struct {
	config core.RewriterConfig
	client *http.Client
}

// NewService creates a rewriter backed by the configured endpoint
func NewService(config core.Config) Service {
	return &service{
		config: config.Rewriter,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (s *service) Enabled() bool {
	return s.config.Enabled && s.config.Endpoint != "" && s.config.APIKey != "" && s.config.Model != ""
}

// Rewrite produces an enhanced title, description and tags.
// Retries a bounded number of times on 429/5xx with a fixed delay;
// everything else fails immediately.
func (s *service) Rewrite(ctx context.Context, meta core.PageMetadata) (core.RewrittenMeta, error) {
	ctx, span := tracer.Start(ctx, "ServiceRewrite")
	defer span.End()

	if meta.Title == "" || meta.Description == "" || meta.URL == "" {
		return core.RewrittenMeta{}, core.NewErrorValidation("title, description and url are required for rewriting")
	}
	if !s.Enabled() {
		return core.RewrittenMeta{}, core.NewError(core.KindExternalService, "AI rewriter is not configured")
	}

	prompt := buildPrompt(meta)

	var lastStatus int
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return core.RewrittenMeta{}, ctx.Err()
			}
		}

		content, status, err := s.complete(ctx, prompt)
		if err != nil {
			span.RecordError(err)
			lastErr = err
			lastStatus = status
			if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError || status == 0 {
				continue
			}
			break
		}

		return parseAIResponse(content)
	}

	if lastStatus == http.StatusTooManyRequests {
		return core.RewrittenMeta{}, core.WrapError(core.KindExternalService, "Rate limit exceeded", lastErr)
	}
	return core.RewrittenMeta{}, core.WrapError(core.KindExternalService, fmt.Sprintf("AI service unavailable: %v", lastErr), lastErr)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *service) complete(ctx context.Context, prompt string) (string, int, error) {
	ctx, span := tracer.Start(ctx, "ServiceComplete")
	defer span.End()

	system := s.config.SystemPrompt
	if system == "" {
		system = "You are an expert product copywriter. Reply with a single JSON object containing \"title\", \"description\" and \"tags\" (an array of lowercase keywords). No other text."
	}

	body, err := json.Marshal(chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", resp.StatusCode, fmt.Errorf("chat endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("chat response has no choices")
	}

	return parsed.Choices[0].Message.Content, resp.StatusCode, nil
}

// Ping checks endpoint reachability for the detailed health report
func (s *service) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return fmt.Errorf("rewriter disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.config.Endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func buildPrompt(meta core.PageMetadata) string {
	budget := promptTokenBudget * charsPerToken

	title := truncate(meta.Title, 300)
	description := truncate(meta.Description, budget-len(title)-len(meta.URL)-200)

	var b strings.Builder
	b.WriteString("Rewrite the following product listing.\n")
	b.WriteString("URL: " + meta.URL + "\n")
	b.WriteString("Title: " + title + "\n")
	b.WriteString("Description: " + description + "\n")
	return b.String()
}

// truncate caps the string at max bytes without splitting a rune
func truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseAIResponse parses the model output as JSON, tolerating markdown
// code fences around the object.
func parseAIResponse(content string) (core.RewrittenMeta, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var meta core.RewrittenMeta
	if err := json.Unmarshal([]byte(trimmed), &meta); err != nil {
		return core.RewrittenMeta{}, core.WrapError(core.KindExternalService, "Failed to parse AI response", err)
	}

	if meta.Title == "" || meta.Description == "" || meta.Tags == nil {
		return core.RewrittenMeta{}, core.NewError(core.KindExternalService, "Failed to parse AI response: missing required fields")
	}

	return meta, nil
}
