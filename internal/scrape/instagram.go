package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cardstash/cardstash/internal/model"
)

// igAppIDs are known public web app identifiers. The API strategy rotates
// through them because individual IDs get rate-limited independently.
var igAppIDs = []string{
	"936619743392459",
	"1217981644879628",
}

// shortcodeRe matches the post shortcode in /p/, /reel/ and /tv/ URLs.
var shortcodeRe = regexp.MustCompile(`/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)

func instagramShortcode(rawURL string) (string, error) {
	m := shortcodeRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", fmt.Errorf("no shortcode in %s", rawURL)
	}
	return m[1], nil
}

// ---------------------------------------------------------------------------
// Strategy 1: structured media API with spoofed app headers
// ---------------------------------------------------------------------------

// InstagramAPIStrategy calls the web media-info endpoint the official web
// client uses, rotating through known app IDs. HTML in the response body
// means a bot wall and counts as an ordinary failure.
type InstagramAPIStrategy struct {
	client *http.Client
	appIDs []string
}

func NewInstagramAPIStrategy(client *http.Client) *InstagramAPIStrategy {
	return &InstagramAPIStrategy{client: client, appIDs: igAppIDs}
}

func (s *InstagramAPIStrategy) Name() string           { return "instagram-api" }
func (s *InstagramAPIStrategy) Timeout() time.Duration { return 8 * time.Second }

type igMediaResponse struct {
	Items []struct {
		Caption struct {
			Text string `json:"text"`
		} `json:"caption"`
		User struct {
			Username      string `json:"username"`
			FullName      string `json:"full_name"`
			ProfilePicURL string `json:"profile_pic_url"`
		} `json:"user"`
		LikeCount     int `json:"like_count"`
		CommentCount  int `json:"comment_count"`
		ImageVersions struct {
			Candidates []struct {
				URL string `json:"url"`
			} `json:"candidates"`
		} `json:"image_versions2"`
		CarouselMedia []struct {
			ImageVersions struct {
				Candidates []struct {
					URL string `json:"url"`
				} `json:"candidates"`
			} `json:"image_versions2"`
		} `json:"carousel_media"`
	} `json:"items"`
}

func (s *InstagramAPIStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	shortcode, err := instagramShortcode(rawURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://www.instagram.com/p/%s/?__a=1&__d=dis", shortcode)

	var lastErr error
	for _, appID := range s.appIDs {
		body, err := fetch(ctx, s.client, endpoint, map[string]string{
			"User-Agent":       browserUA,
			"X-IG-App-ID":      appID,
			"X-Requested-With": "XMLHttpRequest",
			"Accept":           "application/json",
		})
		if err != nil {
			lastErr = err
			continue
		}
		if looksLikeHTML(body) {
			lastErr = fmt.Errorf("got HTML instead of JSON (app id %s)", appID)
			continue
		}

		var resp igMediaResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			lastErr = fmt.Errorf("decode media response: %w", err)
			continue
		}
		if len(resp.Items) == 0 {
			lastErr = fmt.Errorf("empty media response")
			continue
		}

		item := resp.Items[0]
		content := &model.ScrapedContent{
			Text:         item.Caption.Text,
			Title:        firstLine(item.Caption.Text, 120),
			AuthorName:   item.User.FullName,
			AuthorHandle: item.User.Username,
			AuthorAvatar: item.User.ProfilePicURL,
			Likes:        item.LikeCount,
			Comments:     item.CommentCount,
			URL:          rawURL,
		}
		if len(item.ImageVersions.Candidates) > 0 {
			content.ImageURL = item.ImageVersions.Candidates[0].URL
		}
		for _, cm := range item.CarouselMedia {
			if len(cm.ImageVersions.Candidates) > 0 {
				content.Images = append(content.Images, cm.ImageVersions.Candidates[0].URL)
			}
		}
		if len(content.Images) > 0 && content.ImageURL == "" {
			content.ImageURL = content.Images[0]
		}
		return content, nil
	}
	return nil, fmt.Errorf("all app ids exhausted: %w", lastErr)
}

// ---------------------------------------------------------------------------
// Strategy 2: public embed page parse
// ---------------------------------------------------------------------------

// embedPattern is one named way of digging image data out of the embed page.
// Patterns are tried in priority order and each succeeds or fails on its own.
type embedPattern struct {
	name  string
	parse func(html string) (*model.ScrapedContent, bool)
}

var (
	sidecarJSONRe   = regexp.MustCompile(`"edge_sidecar_to_children":\{"edges":(\[.*?\])\}`)
	displayURLRe    = regexp.MustCompile(`"display_url":"([^"]+)"`)
	srcsetRe        = regexp.MustCompile(`"display_resources":\[(.*?)\]`)
	srcRe           = regexp.MustCompile(`"src":"([^"]+)"`)
	imgTagRe        = regexp.MustCompile(`<img[^>]+class="[^"]*EmbeddedMediaImage[^"]*"[^>]+src="([^"]+)"`)
	legacyEmbedRe   = regexp.MustCompile(`<img[^>]+class="[^"]*efw[^"]*"[^>]+src="([^"]+)"`)
	embedCaptionRe  = regexp.MustCompile(`(?s)<div class="Caption"[^>]*>(.*?)</div>`)
	embedUsernameRe = regexp.MustCompile(`"username":"([^"]+)"`)
	tagStripRe      = regexp.MustCompile(`<[^>]+>`)
	unicodeEscRe    = regexp.MustCompile(`\\u0026`)
)

func unescapeJSONURL(s string) string {
	s = strings.ReplaceAll(s, `\/`, `/`)
	return unicodeEscRe.ReplaceAllString(s, "&")
}

// embedPatterns in priority order: carousel JSON first, raw <img> tags last.
var embedPatterns = []embedPattern{
	{
		name: "sidecar-json",
		parse: func(html string) (*model.ScrapedContent, bool) {
			m := sidecarJSONRe.FindStringSubmatch(html)
			if m == nil {
				return nil, false
			}
			urls := displayURLRe.FindAllStringSubmatch(m[1], -1)
			if len(urls) == 0 {
				return nil, false
			}
			c := &model.ScrapedContent{}
			for _, u := range urls {
				c.Images = append(c.Images, unescapeJSONURL(u[1]))
			}
			c.ImageURL = c.Images[0]
			return c, true
		},
	},
	{
		name: "display-url-json",
		parse: func(html string) (*model.ScrapedContent, bool) {
			m := displayURLRe.FindStringSubmatch(html)
			if m == nil {
				return nil, false
			}
			return &model.ScrapedContent{ImageURL: unescapeJSONURL(m[1])}, true
		},
	},
	{
		name: "display-resources-json",
		parse: func(html string) (*model.ScrapedContent, bool) {
			m := srcsetRe.FindStringSubmatch(html)
			if m == nil {
				return nil, false
			}
			// Last src in the resource set is the largest rendition.
			srcs := srcRe.FindAllStringSubmatch(m[1], -1)
			if len(srcs) == 0 {
				return nil, false
			}
			return &model.ScrapedContent{ImageURL: unescapeJSONURL(srcs[len(srcs)-1][1])}, true
		},
	},
	{
		name: "embedded-img-tag",
		parse: func(html string) (*model.ScrapedContent, bool) {
			m := imgTagRe.FindStringSubmatch(html)
			if m == nil {
				return nil, false
			}
			return &model.ScrapedContent{ImageURL: m[1]}, true
		},
	},
	{
		name: "legacy-embed-img",
		parse: func(html string) (*model.ScrapedContent, bool) {
			m := legacyEmbedRe.FindStringSubmatch(html)
			if m == nil {
				return nil, false
			}
			return &model.ScrapedContent{ImageURL: m[1]}, true
		},
	},
}

// InstagramEmbedStrategy parses the public captioned embed page, which is
// served without authentication and embeds post JSON in script tags.
type InstagramEmbedStrategy struct {
	client *http.Client
}

func NewInstagramEmbedStrategy(client *http.Client) *InstagramEmbedStrategy {
	return &InstagramEmbedStrategy{client: client}
}

func (s *InstagramEmbedStrategy) Name() string           { return "instagram-embed" }
func (s *InstagramEmbedStrategy) Timeout() time.Duration { return 10 * time.Second }

func (s *InstagramEmbedStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	shortcode, err := instagramShortcode(rawURL)
	if err != nil {
		return nil, err
	}

	embedURL := fmt.Sprintf("https://www.instagram.com/p/%s/embed/captioned/", shortcode)
	body, err := fetch(ctx, s.client, embedURL, map[string]string{
		"User-Agent": browserUA,
	})
	if err != nil {
		return nil, err
	}
	html := string(body)

	for _, p := range embedPatterns {
		content, ok := p.parse(html)
		if !ok {
			continue
		}
		content.Source = "instagram-embed/" + p.name
		content.URL = rawURL
		fillEmbedCaption(content, html)
		return content, nil
	}
	return nil, fmt.Errorf("no embed pattern matched for %s", shortcode)
}

// fillEmbedCaption pulls caption text and author handle out of the embed
// markup when the image pattern itself didn't carry them.
func fillEmbedCaption(c *model.ScrapedContent, html string) {
	if c.Text == "" {
		if m := embedCaptionRe.FindStringSubmatch(html); m != nil {
			text := tagStripRe.ReplaceAllString(m[1], " ")
			c.Text = strings.Join(strings.Fields(text), " ")
			c.Title = firstLine(c.Text, 120)
		}
	}
	if c.AuthorHandle == "" {
		if m := embedUsernameRe.FindStringSubmatch(html); m != nil {
			c.AuthorHandle = m[1]
		}
	}
}

// firstLine returns the first non-empty line of s, truncated to maxRunes.
func firstLine(s string, maxRunes int) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxRunes {
			return string(runes[:maxRunes])
		}
		return line
	}
	return ""
}
