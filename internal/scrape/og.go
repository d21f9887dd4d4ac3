package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cardstash/cardstash/internal/model"
)

// ogData holds the Open Graph / Twitter Card meta tags of a page.
type ogData struct {
	Title       string
	Description string
	Image       string
	SiteName    string
}

// parseOG extracts Open Graph metadata from raw HTML. Twitter Card tags and
// the <title> element serve as fallbacks for missing OG tags.
func parseOG(body []byte) (ogData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ogData{}, fmt.Errorf("parse html: %w", err)
	}

	meta := func(names ...string) string {
		for _, name := range names {
			sel := doc.Find(`meta[property="` + name + `"], meta[name="` + name + `"]`).First()
			if v, ok := sel.Attr("content"); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	og := ogData{
		Title:       meta("og:title", "twitter:title"),
		Description: meta("og:description", "twitter:description", "description"),
		Image:       meta("og:image", "og:image:url", "twitter:image"),
		SiteName:    meta("og:site_name"),
	}
	if og.Title == "" {
		og.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return og, nil
}

// OGStrategy scrapes a page's Open Graph tags with a crawler identity.
// It is the last rung of most platform chains and the second rung of the
// generic chain.
type OGStrategy struct {
	client  *http.Client
	name    string
	timeout time.Duration
}

// NewOGStrategy creates an Open Graph meta-tag strategy. The name shows up
// in ScrapedContent.Source so chains can label their own OG rung.
func NewOGStrategy(client *http.Client, name string) *OGStrategy {
	if name == "" {
		name = "og"
	}
	return &OGStrategy{client: client, name: name, timeout: 10 * time.Second}
}

func (s *OGStrategy) Name() string           { return s.name }
func (s *OGStrategy) Timeout() time.Duration { return s.timeout }

func (s *OGStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	body, err := fetch(ctx, s.client, rawURL, map[string]string{
		"User-Agent": crawlerUA,
		"Accept":     "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, err
	}

	og, err := parseOG(body)
	if err != nil {
		return nil, err
	}
	if og.Title == "" && og.Image == "" {
		return nil, fmt.Errorf("no open graph data at %s", rawURL)
	}

	return &model.ScrapedContent{
		Title:       og.Title,
		Description: og.Description,
		ImageURL:    og.Image,
		URL:         rawURL,
	}, nil
}
