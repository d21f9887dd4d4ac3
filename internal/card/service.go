// Package card is the lifecycle orchestrator: it accepts save requests,
// persists an immediately-usable placeholder card, and schedules the
// background enrichment that upgrades it.
package card

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardstash/cardstash/internal/classify"
	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
	"github.com/cardstash/cardstash/internal/scrape"
	"github.com/cardstash/cardstash/internal/store"
)

// ErrEmptySave rejects save requests carrying no content at all.
var ErrEmptySave = errors.New("save requires at least one of url, content, or image")

// Store is the card persistence surface the orchestrator needs.
type Store interface {
	CreateCard(ctx context.Context, c *model.Card) error
	GetCard(ctx context.Context, id string) (*model.Card, error)
	UpdateCard(ctx context.Context, id string, p store.Patch) (*model.Card, error)
}

// Scraper runs the extraction strategy chain for a platform.
type Scraper interface {
	Scrape(ctx context.Context, p platform.Platform, rawURL string) *model.ScrapedContent
}

// Classifier assigns type/title/tags/summary. It never fails.
type Classifier interface {
	Classify(ctx context.Context, req classify.Request) model.Classification
}

// Options tune the orchestrator.
type Options struct {
	// Workers caps concurrent background enrichment tasks.
	Workers int

	// StuckAfter is how long a card may sit processing before reads
	// report it as stuck.
	StuckAfter time.Duration
}

// Service coordinates the save path and background enrichment.
type Service struct {
	store      Store
	scraper    Scraper
	classifier Classifier
	pool       *Pool
	stuckAfter time.Duration
}

// NewService wires the orchestrator. Zero Options fields get defaults.
func NewService(st Store, scraper Scraper, classifier Classifier, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.StuckAfter <= 0 {
		opts.StuckAfter = 2 * time.Minute
	}
	return &Service{
		store:      st,
		scraper:    scraper,
		classifier: classifier,
		pool:       NewPool(int64(opts.Workers)),
		stuckAfter: opts.StuckAfter,
	}
}

// SaveRequest is one incoming save. At least one of URL, Content, or
// ImageURL must be present.
type SaveRequest struct {
	URL      string   `json:"url,omitempty"`
	Type     string   `json:"type,omitempty"`
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// Save is the synchronous path: validate, build quick no-network metadata,
// persist, schedule background work, and return the card immediately.
// When the caller supplies tags the card is final and nothing is scheduled.
func (s *Service) Save(ctx context.Context, ownerID string, req SaveRequest) (*model.Card, error) {
	req.URL = strings.TrimSpace(req.URL)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.URL == "" && strings.TrimSpace(req.Content) == "" && req.ImageURL == "" {
		return nil, ErrEmptySave
	}

	p := platform.Resolve(req.URL)
	sig := platform.SignatureFor(p)

	c := model.NewCard(uuid.NewString(), ownerID)
	c.URL = req.URL
	c.Content = req.Content
	c.ImageURL = req.ImageURL
	c.Title = req.Title
	c.Type = quickType(req, p)
	if len(req.Tags) > 0 {
		c.Tags = req.Tags
	}
	if c.Title == "" {
		c.Title = quickTitle(req.URL, req.Content)
	}

	c.Metadata[model.MetaPlatform] = string(p)
	if req.Source != "" {
		c.Metadata["saveSource"] = req.Source
	}

	processing := len(req.Tags) == 0
	c.Metadata[model.MetaProcessing] = processing
	if processing {
		c.Metadata[model.MetaProcessingSince] = time.Now().UTC().Format(time.RFC3339)
		if sig.Carousel && c.URL != "" {
			c.Metadata[model.MetaCarouselPending] = true
		}
	}

	if err := s.store.CreateCard(ctx, c); err != nil {
		return nil, fmt.Errorf("persist card: %w", err)
	}

	if processing {
		s.submitEnrich(c.ID, lockFromRequest(req))
		if sig.Carousel && c.URL != "" {
			s.submitCarousel(c.ID, p)
		}
	}
	return c, nil
}

// Retry relaunches enrichment for an existing card. A card already
// processing is left alone unless force is set; started reports whether a
// new task was scheduled.
func (s *Service) Retry(ctx context.Context, id string, force bool) (c *model.Card, started bool, err error) {
	c, err = s.store.GetCard(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if c.Processing() && !force {
		slog.Info("retry skipped, enrichment already in flight", "card_id", id)
		return c, false, nil
	}

	c, err = s.store.UpdateCard(ctx, id, store.Patch{Metadata: model.Metadata{
		model.MetaProcessing:      true,
		model.MetaProcessingSince: time.Now().UTC().Format(time.RFC3339),
		model.MetaEnrichmentError: nil,
	}})
	if err != nil {
		return nil, false, err
	}

	// A user-triggered retry refreshes everything; stale scraped fields
	// lose to the rerun, placeholder protection still applies.
	s.submitEnrich(id, fieldLock{})
	return c, true, nil
}

// Stuck reports whether the card has been processing beyond the bound.
// Derived on read, never stored.
func (s *Service) Stuck(c *model.Card) bool {
	return c.StuckSince(time.Now(), s.stuckAfter)
}

// Wait blocks until all in-flight background tasks finish.
func (s *Service) Wait() { s.pool.Wait() }

// fieldLock marks card fields the background tasks must not overwrite
// because the user supplied them at save time.
type fieldLock struct {
	title   bool
	typ     bool
	content bool
	image   bool
}

func lockFromRequest(req SaveRequest) fieldLock {
	return fieldLock{
		title:   req.Title != "",
		typ:     req.Type != "",
		content: req.Content != "",
		image:   req.ImageURL != "",
	}
}

// noteTitleMax bounds quick note titles derived from the first text line.
const noteTitleMax = 50

// quickType is the no-network type guess used as an immediate placeholder.
func quickType(req SaveRequest, p platform.Platform) model.CardType {
	if req.Type != "" {
		return model.NormalizeType(req.Type)
	}
	if req.URL == "" {
		if req.ImageURL != "" {
			return model.TypeImage
		}
		return model.TypeNote
	}
	switch p {
	case platform.YouTube, platform.TikTok:
		return model.TypeVideo
	case platform.Instagram, platform.Twitter, platform.Reddit:
		return model.TypeSocial
	case platform.Letterboxd, platform.IMDB:
		return model.TypeMovie
	case platform.Goodreads, platform.StoryGraph:
		return model.TypeBook
	case platform.Amazon:
		return model.TypeProduct
	default:
		return model.TypeWebsite
	}
}

// quickTitle is the no-network title guess: first line of the text, else
// the last URL path segment.
func quickTitle(rawURL, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > noteTitleMax {
			return strings.TrimSpace(string(runes[:noteTitleMax]))
		}
		return line
	}
	return scrape.TitleFromURL(rawURL)
}
