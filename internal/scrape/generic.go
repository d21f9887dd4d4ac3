package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/cardstash/cardstash/internal/model"
)

const (
	// maxTextLength caps extracted body text (in runes).
	maxTextLength = 15000

	// minTextLength below which extracted text is considered implausible:
	// login walls, cookie walls, and un-rendered app shells.
	minTextLength = 50
)

// GenericStrategy extracts readable article content from arbitrary pages.
// It strips boilerplate and prefers <article> then <main> then <body>, with
// go-readability doing the heavy lifting; Open Graph description serves as
// the fallback when extracted text is implausibly short or looks like
// un-rendered script content.
type GenericStrategy struct {
	client *http.Client
}

func NewGenericStrategy(client *http.Client) *GenericStrategy {
	return &GenericStrategy{client: client}
}

func (s *GenericStrategy) Name() string           { return "generic-html" }
func (s *GenericStrategy) Timeout() time.Duration { return 15 * time.Second }

// noiseSelectors are elements removed before text extraction.
var noiseSelectors = []string{
	"script", "style", "noscript", "nav", "footer", "header",
	"iframe", "form", "svg", ".sidebar", ".menu", ".ads",
}

func (s *GenericStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	body, err := fetch(ctx, s.client, rawURL, map[string]string{
		"User-Agent":      browserUA,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, err
	}

	og, _ := parseOG(body)

	text := extractText(body, rawURL)
	if implausibleText(text) {
		// Fall back to the page's own description.
		text = og.Description
	}

	content := &model.ScrapedContent{
		Title:       og.Title,
		Description: og.Description,
		ImageURL:    og.Image,
		Text:        truncateRunes(text, maxTextLength),
		URL:         rawURL,
	}
	if content.Title == "" && content.Text == "" {
		return nil, fmt.Errorf("nothing extractable at %s", rawURL)
	}
	return content, nil
}

// extractText pulls readable body text: readability first, then a manual
// article/main/body walk when readability declines the page.
func extractText(body []byte, rawURL string) string {
	parsed, _ := nurl.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err == nil {
		if text := normalizeText(article.TextContent); !implausibleText(text) {
			return text
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}
	for _, tag := range []string{"article", "main", "body"} {
		sel := doc.Find(tag)
		if sel.Length() > 0 {
			if text := normalizeText(sel.First().Text()); !implausibleText(text) {
				return text
			}
		}
	}
	return ""
}

// implausibleText reports whether extracted text is too short to be real
// content or is leftover markup/script that never rendered.
func implausibleText(s string) bool {
	if utf8.RuneCountInString(s) < minTextLength {
		return true
	}
	head := s[:min(len(s), 200)]
	return strings.Contains(head, "function(") ||
		strings.Contains(head, "window.") ||
		strings.Contains(head, "{\"") ||
		strings.HasPrefix(strings.TrimSpace(head), "<")
}

var (
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}

func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "\n... [truncated]"
}
