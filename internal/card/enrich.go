package card

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cardstash/cardstash/internal/classify"
	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
	"github.com/cardstash/cardstash/internal/store"
	"github.com/cardstash/cardstash/internal/validate"
)

// submitEnrich schedules the main enrichment task. Whatever happens inside,
// the card ends with processing=false: panics are recovered and recorded as
// an enrichment error so a card is never stuck with no way to retry.
func (s *Service) submitEnrich(id string, keep fieldLock) {
	s.pool.Submit("enrich "+id, func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("enrichment panicked", "card_id", id, "panic", r)
				s.recordFailure(ctx, id, fmt.Sprintf("enrichment panic: %v", r))
			}
		}()
		s.enrich(ctx, id, keep)
	})
}

// enrich runs extract -> validate -> classify -> merge for one card.
func (s *Service) enrich(ctx context.Context, id string, keep fieldLock) {
	c, err := s.store.GetCard(ctx, id)
	if err != nil {
		slog.Error("enrichment cannot load card", "card_id", id, "error", err)
		return
	}

	p := platform.Platform(c.Metadata.String(model.MetaPlatform))
	if p == "" {
		p = platform.Resolve(c.URL)
	}
	sig := platform.SignatureFor(p)

	var scraped *model.ScrapedContent
	var contractErr string
	if c.URL != "" {
		scraped = s.scraper.Scrape(ctx, p, c.URL)

		verdict := validate.Check(scraped, sig)
		if len(verdict.Fixes) > 0 {
			scraped = validate.Apply(scraped, verdict.Fixes)
		}
		if !verdict.OK {
			var details []string
			for _, issue := range verdict.Issues {
				if issue.Severity == validate.SeverityError {
					details = append(details, issue.Detail)
				}
			}
			contractErr = strings.Join(details, "; ")
			slog.Warn("scraped content fails contract, keeping quick metadata",
				"card_id", id, "platform", p, "detail", contractErr)
		}
	}

	creq := classify.Request{URL: c.URL, Platform: p, Text: c.Content, ImageURL: c.ImageURL}
	if scraped != nil {
		if scraped.Text != "" {
			creq.Text = scraped.Text
		} else if scraped.Description != "" {
			creq.Text = scraped.Description
		}
		if scraped.ImageURL != "" {
			creq.ImageURL = scraped.ImageURL
		}
		creq.ImageCount = len(scraped.Images)
	}
	cls := s.classifier.Classify(ctx, creq)

	// Content that fails its signature contract is blocked from the card;
	// only the classification lands, and the failure is visible on read.
	merge := scraped
	if contractErr != "" {
		merge = nil
	}
	patch := s.mergePatch(c, merge, cls, sig, keep)
	if contractErr != "" {
		patch.Metadata[model.MetaContractError] = contractErr
	}
	if _, err := s.store.UpdateCard(ctx, id, patch); err != nil {
		slog.Error("enrichment result not persisted", "card_id", id, "error", err)
	}
}

// mergePatch folds scraped content and the classification into a partial
// update. User-supplied fields stay locked; empty new values never replace
// existing ones; placeholder titles give way to real ones.
func (s *Service) mergePatch(c *model.Card, scraped *model.ScrapedContent, cls model.Classification, sig platform.Signature, keep fieldLock) store.Patch {
	patch := store.Patch{Metadata: model.Metadata{
		model.MetaProcessing:      false,
		model.MetaProcessingSince: nil,
		model.MetaEnrichmentError: nil,
		model.MetaContractError:   nil,
	}}

	title := cls.Title
	if scraped != nil && scraped.Title != "" {
		title = scraped.Title
	}
	if !keep.title && title != "" && title != c.Title {
		patch.Title = &title
	}

	if !keep.typ && cls.Type != "" {
		typ := cls.Type
		patch.Type = &typ
	}

	if len(cls.Tags) > 0 {
		tags := cls.Tags
		patch.Tags = &tags
	}
	if cls.Summary != "" {
		patch.Metadata[model.MetaSummary] = cls.Summary
	}

	if scraped != nil {
		if !keep.content && scraped.Text != "" {
			text := scraped.Text
			patch.Content = &text
		}
		image := scraped.ImageURL
		if image == "" && len(scraped.Images) > 0 {
			image = scraped.Images[0]
		}
		// A scraped image only displaces an existing one on platforms
		// whose extracted images are trusted over screenshots.
		if !keep.image && image != "" && (c.ImageURL == "" || sig.TrustImages) {
			patch.ImageURL = &image
		}
		if len(scraped.Images) > 1 {
			patch.Metadata[model.MetaImages] = scraped.Images
			patch.Metadata[model.MetaIsCarousel] = true
		}
		if scraped.AuthorName != "" {
			patch.Metadata[model.MetaAuthorName] = scraped.AuthorName
		}
		if scraped.AuthorHandle != "" {
			patch.Metadata[model.MetaAuthorHandle] = scraped.AuthorHandle
		}
		if scraped.AuthorAvatar != "" {
			patch.Metadata[model.MetaAuthorAvatar] = scraped.AuthorAvatar
		}
	}
	return patch
}

// submitCarousel schedules the secondary asset-completion task for
// carousel-capable platforms. It runs once; failures are recorded on the
// card and never retried automatically.
func (s *Service) submitCarousel(id string, p platform.Platform) {
	s.pool.Submit("carousel "+id, func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("carousel task panicked", "card_id", id, "panic", r)
				s.recordCarouselFailure(ctx, id, fmt.Sprintf("carousel panic: %v", r))
			}
		}()
		s.completeCarousel(ctx, id, p)
	})
}

func (s *Service) completeCarousel(ctx context.Context, id string, p platform.Platform) {
	c, err := s.store.GetCard(ctx, id)
	if err != nil {
		slog.Error("carousel task cannot load card", "card_id", id, "error", err)
		return
	}

	sig := platform.SignatureFor(p)
	scraped := s.scraper.Scrape(ctx, p, c.URL)
	if scraped.Empty() || scraped.Source == "fallback" {
		s.recordCarouselFailure(ctx, id, "no media recovered from deep extraction")
		return
	}

	patch := store.Patch{Metadata: model.Metadata{
		model.MetaCarouselPending: nil,
		model.MetaCarouselDone:    true,
		model.MetaIsCarousel:      len(scraped.Images) > 1,
	}}
	if len(scraped.Images) > 1 {
		patch.Metadata[model.MetaImages] = scraped.Images
	}

	// Confirmed first image replaces the placeholder primary, on trusted
	// platforms or when there is no primary yet.
	if image := primaryImage(scraped); image != "" && (c.ImageURL == "" || sig.TrustImages) {
		patch.ImageURL = &image
	}

	// Title and body are filled only while they still hold placeholders;
	// the main enrichment task owns the real values.
	if scraped.Title != "" && placeholderTitle(c) {
		title := scraped.Title
		patch.Title = &title
	}
	if scraped.Text != "" && c.Content == "" {
		text := scraped.Text
		patch.Content = &text
	}

	if _, err := s.store.UpdateCard(ctx, id, patch); err != nil {
		slog.Error("carousel result not persisted", "card_id", id, "error", err)
	}
}

func primaryImage(scraped *model.ScrapedContent) string {
	if len(scraped.Images) > 0 {
		return scraped.Images[0]
	}
	return scraped.ImageURL
}

// placeholderTitle reports whether the card's title is still the quick
// save-time guess rather than real extracted or user data.
func placeholderTitle(c *model.Card) bool {
	return c.Title == "" || c.Title == quickTitle(c.URL, "")
}

// recordFailure flips processing off and stores the error on the card so
// the failure is visible on next read.
func (s *Service) recordFailure(ctx context.Context, id, msg string) {
	_, err := s.store.UpdateCard(ctx, id, store.Patch{Metadata: model.Metadata{
		model.MetaProcessing:      false,
		model.MetaProcessingSince: nil,
		model.MetaEnrichmentError: msg,
	}})
	if err != nil {
		slog.Error("failed to record enrichment failure", "card_id", id, "error", err)
	}
}

func (s *Service) recordCarouselFailure(ctx context.Context, id, msg string) {
	_, err := s.store.UpdateCard(ctx, id, store.Patch{Metadata: model.Metadata{
		model.MetaCarouselPending: nil,
		model.MetaCarouselFailed:  true,
		model.MetaCarouselError:   msg,
	}})
	if err != nil {
		slog.Error("failed to record carousel failure", "card_id", id, "error", err)
	}
}
