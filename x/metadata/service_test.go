package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchpadder/launchpadder/core"
)

const productPage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="Example Product">
<meta property="og:description" content="The best example product">
<meta property="og:image" content="/images/banner.png">
<meta property="og:image:width" content="1200">
<meta property="og:image:height" content="630">
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:image" content="https://cdn.example.com/twitter.png">
<meta name="description" content="Meta description">
<link rel="canonical" href="/product">
<link rel="icon" href="/favicon.png" type="image/png" sizes="32x32">
<script type="application/ld+json">{"@type":"Product","name":"Example"}</script>
</head>
<body><h1>hello</h1></body>
</html>`

func newService() Service {
	return NewService(nil, core.Config{})
}

func TestFetchExtractsMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	meta, err := newService().Fetch(context.Background(), server.URL)
	assert.NoError(t, err)

	assert.Equal(t, "Example Product", meta.Title)
	assert.Equal(t, "The best example product", meta.Description)
	assert.Equal(t, server.URL+"/product", meta.Canonical)
	assert.Contains(t, meta.ContentType, "text/html")

	if assert.NotEmpty(t, meta.Images) {
		assert.Equal(t, server.URL+"/images/banner.png", meta.Images[0].URL)
		assert.Equal(t, 1200, meta.Images[0].Width)
		assert.Equal(t, 630, meta.Images[0].Height)
	}

	if assert.NotEmpty(t, meta.Favicons) {
		assert.Equal(t, server.URL+"/favicon.png", meta.Favicons[0].URL)
		assert.Equal(t, "32x32", meta.Favicons[0].Sizes)
	}

	assert.Len(t, meta.StructuredData, 1)
	assert.Equal(t, "summary_large_image", meta.Twitter["twitter:card"])
}

func TestFetchTitleFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Plain Title</title></head><body></body></html>`))
	}))
	defer server.Close()

	meta, err := newService().Fetch(context.Background(), server.URL)
	assert.NoError(t, err)
	assert.Equal(t, "Plain Title", meta.Title)

	// no icons declared, the default favicon location is assumed
	if assert.NotEmpty(t, meta.Favicons) {
		assert.Equal(t, server.URL+"/favicon.ico", meta.Favicons[0].URL)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := newService().Fetch(context.Background(), "not a url")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
	assert.Contains(t, err.Error(), "Invalid URL")
}

func TestFetchSchemeNotAllowed(t *testing.T) {
	_, err := newService().Fetch(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
	assert.Contains(t, err.Error(), "scheme not allowed")
}

func TestFetchUpstreamClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newService().Fetch(context.Background(), server.URL)
	assert.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindUnprocessable))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`<html><head><title>Recovered</title></head></html>`))
	}))
	defer server.Close()

	meta, err := newService().Fetch(context.Background(), server.URL)
	assert.NoError(t, err)
	assert.Equal(t, "Recovered", meta.Title)
	assert.Equal(t, 3, attempts)
}
