package metadata

import (
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/launchpadder/launchpadder/core"
)

// extract parses the HTML document and collects title, description,
// open graph / twitter card properties, image and favicon candidates and
// raw JSON-LD blocks. Everything is best effort.
func extract(body io.Reader, base string) (core.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return core.PageMetadata{}, err
	}

	meta := core.PageMetadata{
		URL:       base,
		OpenGraph: map[string]string{},
		Twitter:   map[string]string{},
	}

	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		content, ok := sel.Attr("content")
		if !ok || content == "" {
			return
		}
		if property, ok := sel.Attr("property"); ok && strings.HasPrefix(property, "og:") {
			meta.OpenGraph[property] = content
		}
		if name, ok := sel.Attr("name"); ok {
			if strings.HasPrefix(name, "twitter:") {
				meta.Twitter[name] = content
			}
			if name == "description" && meta.Description == "" {
				meta.Description = strings.TrimSpace(content)
			}
		}
	})

	meta.Title = firstNonEmpty(
		meta.OpenGraph["og:title"],
		meta.Twitter["twitter:title"],
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	meta.Description = firstNonEmpty(
		meta.OpenGraph["og:description"],
		meta.Twitter["twitter:description"],
		meta.Description,
	)

	if canonical, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok {
		meta.Canonical = resolveURL(base, canonical)
	}

	meta.Images = collectImages(doc, meta, base)
	meta.Favicons = collectFavicons(doc, base)

	doc.Find("script[type='application/ld+json']").Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" || !json.Valid([]byte(raw)) {
			return
		}
		meta.StructuredData = append(meta.StructuredData, json.RawMessage(raw))
	})

	return meta, nil
}

func collectImages(doc *goquery.Document, meta core.PageMetadata, base string) []core.ImageCandidate {
	var images []core.ImageCandidate
	seen := map[string]struct{}{}

	add := func(candidate core.ImageCandidate) {
		if candidate.URL == "" {
			return
		}
		candidate.URL = resolveURL(base, candidate.URL)
		if _, ok := seen[candidate.URL]; ok {
			return
		}
		seen[candidate.URL] = struct{}{}
		images = append(images, candidate)
	}

	if src := meta.OpenGraph["og:image"]; src != "" {
		add(core.ImageCandidate{
			URL:    src,
			Type:   meta.OpenGraph["og:image:type"],
			Width:  atoi(meta.OpenGraph["og:image:width"]),
			Height: atoi(meta.OpenGraph["og:image:height"]),
		})
	}
	if src := meta.Twitter["twitter:image"]; src != "" {
		add(core.ImageCandidate{URL: src})
	}

	doc.Find("meta[property='og:image:url'], meta[property='og:image:secure_url']").Each(func(i int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok {
			add(core.ImageCandidate{URL: content})
		}
	})

	return images
}

func collectFavicons(doc *goquery.Document, base string) []core.ImageCandidate {
	var favicons []core.ImageCandidate

	doc.Find("link[rel='icon'], link[rel='shortcut icon'], link[rel='apple-touch-icon']").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		candidate := core.ImageCandidate{URL: resolveURL(base, href)}
		if t, ok := sel.Attr("type"); ok {
			candidate.Type = t
		}
		if sizes, ok := sel.Attr("sizes"); ok {
			candidate.Sizes = sizes
		}
		favicons = append(favicons, candidate)
	})

	if len(favicons) == 0 {
		favicons = append(favicons, core.ImageCandidate{URL: resolveURL(base, "/favicon.ico"), Type: "image/x-icon"})
	}

	return favicons
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
