// Package scrape implements the per-platform extraction strategy chains.
// Each strategy is one way of obtaining content for a URL; strategies are
// tried in order and every failure is non-fatal.
package scrape

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cardstash/cardstash/internal/model"
)

// Strategy is one specific method of obtaining content for a URL.
type Strategy interface {
	// Name identifies the strategy in logs and in ScrapedContent.Source.
	Name() string

	// Scrape attempts extraction. A nil error with empty content is
	// treated the same as a failure by the chain.
	Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error)

	// Timeout bounds a single attempt.
	Timeout() time.Duration
}

// Chain runs an ordered list of strategies and stops at the first success.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain over the given strategies.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Run tries each strategy in order. Timeouts, non-2xx responses, and parse
// failures all just advance the chain. If every strategy misses, Run returns
// a minimal ScrapedContent carrying the domain and a URL-derived title, so
// callers always get something usable.
func (c *Chain) Run(ctx context.Context, rawURL string) *model.ScrapedContent {
	for _, s := range c.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, s.Timeout())
		content, err := s.Scrape(attemptCtx, rawURL)
		cancel()

		if err != nil {
			slog.Debug("scrape strategy failed", "strategy", s.Name(), "url", rawURL, "error", err)
			continue
		}
		if content.Empty() {
			slog.Debug("scrape strategy returned nothing", "strategy", s.Name(), "url", rawURL)
			continue
		}

		content.Source = s.Name()
		if content.URL == "" {
			content.URL = rawURL
		}
		if content.Domain == "" {
			content.Domain = domainOf(rawURL)
		}
		slog.Debug("scrape strategy succeeded", "strategy", s.Name(), "url", rawURL)
		return content
	}

	return minimalContent(rawURL)
}

// minimalContent is the degraded result when every strategy misses.
func minimalContent(rawURL string) *model.ScrapedContent {
	return &model.ScrapedContent{
		Title:  TitleFromURL(rawURL),
		Domain: domainOf(rawURL),
		URL:    rawURL,
		Source: "fallback",
	}
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// TitleFromURL derives a human-ish title from the last URL path segment.
// It is the shared placeholder-title rule: the save path uses it for quick
// metadata and enrichment uses it to recognize placeholder titles.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segs[len(segs)-1]
	if last == "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	last = strings.TrimSuffix(last, ".html")
	last = strings.NewReplacer("-", " ", "_", " ").Replace(last)
	return strings.TrimSpace(last)
}
