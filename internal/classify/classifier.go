// Package classify assigns a type, title, tags, and summary to saved
// content. The primary path calls a multimodal model; a deterministic
// rule-based path covers every failure, so classification never errors.
package classify

import (
	"context"
	"log/slog"

	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
)

// Request carries everything the classifier may use. Every field is
// optional; at least one of URL/Text/ImageURL is expected in practice.
type Request struct {
	URL        string
	Text       string
	ImageURL   string
	ImageCount int
	Platform   platform.Platform
}

// ModelClassifier is the fallible primary path (an external model call).
type ModelClassifier interface {
	Classify(ctx context.Context, req Request) (model.Classification, error)
}

// TagBand is the configurable tag-count contract.
type TagBand struct {
	Min int
	Max int
}

// DefaultTagBand matches the product default of 3-5 tags.
var DefaultTagBand = TagBand{Min: 3, Max: 5}

// Service wraps the primary classifier with the deterministic fallback.
// Its Classify never fails.
type Service struct {
	primary  ModelClassifier // nil when AI is not configured
	fallback *Fallback
}

// NewService creates a classification service. primary may be nil, in
// which case every request takes the fallback path.
func NewService(primary ModelClassifier, band TagBand) *Service {
	if band.Min <= 0 {
		band = DefaultTagBand
	}
	return &Service{primary: primary, fallback: NewFallback(band)}
}

// Classify produces a normalized classification. Model errors, malformed
// responses, and missing structured payloads all degrade to the fallback;
// nothing propagates to the caller.
func (s *Service) Classify(ctx context.Context, req Request) model.Classification {
	if s.primary != nil {
		c, err := s.primary.Classify(ctx, req)
		if err == nil {
			c = normalize(c, s.fallback.band)
			// A model reply with fewer tags than the band minimum gets
			// topped up with the fallback's domain and filler tags.
			if len(c.Tags) < s.fallback.band.Min {
				s.fallback.padTags(&c, req)
			}
			return c
		}
		slog.Warn("model classification failed, using fallback", "url", req.URL, "error", err)
	}
	return normalize(s.fallback.Classify(req), s.fallback.band)
}

// normalize enforces the Card invariants on any classification: the type
// is always a member of the closed enum and the tag list fits the band.
func normalize(c model.Classification, band TagBand) model.Classification {
	c.Type = model.NormalizeType(string(c.Type))
	c.Tags = dedupeTags(c.Tags)
	if len(c.Tags) > band.Max {
		c.Tags = c.Tags[:band.Max]
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = normalizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
