package scrape

import (
	"context"
	"net/http"
	"time"

	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
)

// Registry holds one prebuilt strategy chain per platform. Chains are
// assembled once at construction; dispatch afterwards is a map lookup.
type Registry struct {
	chains  map[platform.Platform]*Chain
	generic *Chain
}

// NewRegistry builds the chain registry. A nil client gets a default with
// no overall timeout; individual strategies time-box themselves.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	og := func(name string) *OGStrategy { return NewOGStrategy(client, name) }
	generic := NewChain(NewGenericStrategy(client), og("og"))

	chains := map[platform.Platform]*Chain{
		platform.Instagram: NewChain(
			NewInstagramAPIStrategy(client),
			NewInstagramEmbedStrategy(client),
			og("instagram-og"),
		),
		platform.Twitter: NewChain(
			NewTwitterSyndicationStrategy(client),
			og("twitter-og"),
		),
		platform.YouTube: NewChain(
			NewYouTubeOEmbedStrategy(client),
			og("youtube-og"),
		),
		platform.TikTok: NewChain(
			NewTikTokOEmbedStrategy(client),
			og("tiktok-og"),
		),
		platform.Reddit: NewChain(
			NewRedditJSONStrategy(client),
			og("reddit-og"),
		),
		platform.GitHub: NewChain(
			NewGitHubAPIStrategy(client),
			og("github-og"),
		),
		// Review and commerce sites serve complete Open Graph data to
		// crawler identities; one rung plus the generic reader suffices.
		platform.Letterboxd: NewChain(og("letterboxd-og"), NewGenericStrategy(client)),
		platform.IMDB:       NewChain(og("imdb-og"), NewGenericStrategy(client)),
		platform.Goodreads:  NewChain(og("goodreads-og"), NewGenericStrategy(client)),
		platform.StoryGraph: NewChain(og("storygraph-og"), NewGenericStrategy(client)),
		platform.Amazon:     NewChain(og("amazon-og"), NewGenericStrategy(client)),
	}

	return &Registry{chains: chains, generic: generic}
}

// ChainFor returns the strategy chain for a platform, falling back to the
// generic chain for platforms without a dedicated one.
func (r *Registry) ChainFor(p platform.Platform) *Chain {
	if c, ok := r.chains[p]; ok {
		return c
	}
	return r.generic
}

// Scrape resolves the platform's chain and runs it.
func (r *Registry) Scrape(ctx context.Context, p platform.Platform, rawURL string) *model.ScrapedContent {
	return r.ChainFor(p).Run(ctx, rawURL)
}
