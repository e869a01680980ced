package rewriter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/launchpadder/launchpadder/core"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func serviceFor(endpoint string) Service {
	return NewService(core.Config{
		Rewriter: core.RewriterConfig{
			Enabled:  true,
			Endpoint: endpoint,
			Model:    "test-model",
			APIKey:   "test-key",
		},
	})
}

func chatReply(content string) string {
	reply := chatResponse{}
	reply.Choices = append(reply.Choices, struct {
		Message chatMessage `json:"message"`
	}{Message: chatMessage{Role: "assistant", Content: content}})
	body, _ := json.Marshal(reply)
	return string(body)
}

var validMeta = core.PageMetadata{
	URL:         "https://example.com/product",
	Title:       "Example Product",
	Description: "A product that does things",
}

func TestRewriteValidResponse(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(chatReply(`{"title":"Better Product","description":"Now improved","tags":["tools","productivity"]}`)))
	})

	result, err := serviceFor(server.URL).Rewrite(context.Background(), validMeta)
	assert.NoError(t, err)
	assert.Equal(t, "Better Product", result.Title)
	assert.Equal(t, "Now improved", result.Description)
	assert.Equal(t, []string{"tools", "productivity"}, result.Tags)
}

func TestRewriteToleratesCodeFences(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("```json\n{\"title\":\"Fenced\",\"description\":\"Still parsed\",\"tags\":[\"a\"]}\n```")))
	})

	result, err := serviceFor(server.URL).Rewrite(context.Background(), validMeta)
	assert.NoError(t, err)
	assert.Equal(t, "Fenced", result.Title)
}

func TestRewriteMalformedResponse(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("sorry, I cannot help with that")))
	})

	_, err := serviceFor(server.URL).Rewrite(context.Background(), validMeta)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to parse AI response")
}

func TestRewriteMissingFields(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply(`{"title":"Only a title"}`)))
	})

	_, err := serviceFor(server.URL).Rewrite(context.Background(), validMeta)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestRewriteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(chatReply(`{"title":"Second Try","description":"Worked","tags":["retry"]}`)))
	})

	result, err := serviceFor(server.URL).Rewrite(context.Background(), validMeta)
	assert.NoError(t, err)
	assert.Equal(t, "Second Try", result.Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRewriteRateLimitExhausted(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := serviceFor(server.URL).Rewrite(context.Background(), validMeta)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit exceeded")
	assert.True(t, core.IsKind(err, core.KindExternalService))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	// a multi-byte rune at the cut point is dropped whole
	input := "abécd" // é is two bytes, starting at offset 2
	assert.Equal(t, "ab", truncate(input, 3))
	assert.True(t, utf8.ValidString(truncate(input, 3)))

	assert.Equal(t, "", truncate("abc", -1))
}

func TestRewriteRejectsIncompleteInput(t *testing.T) {
	_, err := serviceFor("http://unused.invalid").Rewrite(context.Background(), core.PageMetadata{Title: "no description"})
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}
