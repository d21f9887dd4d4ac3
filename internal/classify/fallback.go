package classify

import (
	"net/url"
	"strings"

	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
)

// platformDefaults gives each known platform a base type and seed tags.
var platformDefaults = map[platform.Platform]struct {
	typ  model.CardType
	tags []string
}{
	platform.Instagram:  {model.TypeSocial, []string{"instagram", "social"}},
	platform.Twitter:    {model.TypeSocial, []string{"twitter", "social"}},
	platform.YouTube:    {model.TypeVideo, []string{"video", "youtube", "entertainment"}},
	platform.TikTok:     {model.TypeVideo, []string{"video", "tiktok", "entertainment"}},
	platform.Reddit:     {model.TypeSocial, []string{"reddit", "discussion"}},
	platform.Letterboxd: {model.TypeMovie, []string{"film", "letterboxd"}},
	platform.IMDB:       {model.TypeMovie, []string{"film", "imdb"}},
	platform.Goodreads:  {model.TypeBook, []string{"books", "reading"}},
	platform.StoryGraph: {model.TypeBook, []string{"books", "reading"}},
	platform.Amazon:     {model.TypeProduct, []string{"shopping", "product"}},
	platform.GitHub:     {model.TypeWebsite, []string{"github", "code", "technology"}},
}

// keywordRule appends a tag when any of its patterns appears in the
// combined URL + text.
type keywordRule struct {
	tag      string
	patterns []string
}

var keywordRules = []keywordRule{
	{"design", []string{"design", "figma", "typography", "ux ", "ui "}},
	{"technology", []string{"tech", "software", "programming", "developer", "code"}},
	{"ai", []string{" ai ", "artificial intelligence", "machine learning", "llm", "neural"}},
	{"photography", []string{"photo", "camera", "lens", "portrait"}},
	{"music", []string{"music", "album", "spotify", "song", "band"}},
	{"food", []string{"recipe", "food", "cooking", "restaurant"}},
	{"travel", []string{"travel", "trip", "flight", "destination"}},
	{"finance", []string{"finance", "invest", "stock", "crypto", "money"}},
	{"health", []string{"health", "fitness", "workout", "nutrition"}},
	{"art", []string{" art ", "artist", "painting", "gallery", "illustration"}},
	{"science", []string{"science", "research", "physics", "biology", "study"}},
	{"business", []string{"business", "startup", "entrepreneur", "marketing"}},
	{"gaming", []string{"game", "gaming", "playstation", "nintendo", "steam"}},
	{"fashion", []string{"fashion", "outfit", "style", "clothing"}},
	{"social", []string{"meme", "viral", "trending"}},
}

// fillerTags pad the tag list when everything else comes up short.
var fillerTags = []string{"saved", "explore", "inbox"}

// Fallback is the deterministic, no-network classifier.
type Fallback struct {
	band TagBand
}

func NewFallback(band TagBand) *Fallback {
	if band.Min <= 0 {
		band = DefaultTagBand
	}
	return &Fallback{band: band}
}

// Classify derives type, title, tags, and summary from the request alone.
func (f *Fallback) Classify(req Request) model.Classification {
	c := model.Classification{}

	// Base type and seed tags from the platform.
	if def, ok := platformDefaults[req.Platform]; ok {
		c.Type = def.typ
		c.Tags = append(c.Tags, def.tags...)
	} else {
		c.Type = baseTypeWithoutPlatform(req)
	}

	// Topical keywords over combined URL + text.
	haystack := " " + strings.ToLower(req.URL+" "+req.Text) + " "
	for _, rule := range keywordRules {
		if len(c.Tags) >= f.band.Max {
			break
		}
		for _, p := range rule.patterns {
			if strings.Contains(haystack, p) {
				c.Tags = append(c.Tags, rule.tag)
				break
			}
		}
	}

	c.Tags = dedupeTags(c.Tags)
	f.padTags(&c, req)
	if len(c.Tags) > f.band.Max {
		c.Tags = c.Tags[:f.band.Max]
	}

	c.Title = fallbackTitle(req)
	c.Summary = fallbackSummary(req)
	return c
}

// baseTypeWithoutPlatform guesses a type when the URL matched no platform.
func baseTypeWithoutPlatform(req Request) model.CardType {
	switch {
	case req.URL == "" && req.ImageURL != "":
		return model.TypeImage
	case req.URL == "":
		return model.TypeNote
	case len(req.Text) > 500:
		return model.TypeArticle
	default:
		return model.TypeWebsite
	}
}

// padTags appends a domain-derived tag and then generic fillers until the
// minimum band is met.
func (f *Fallback) padTags(c *model.Classification, req Request) {
	if len(c.Tags) < f.band.Min {
		if d := domainTag(req.URL); d != "" {
			c.Tags = dedupeTags(append(c.Tags, d))
		}
	}
	for _, filler := range fillerTags {
		if len(c.Tags) >= f.band.Min {
			break
		}
		c.Tags = dedupeTags(append(c.Tags, filler))
	}
}

// domainTag turns "blog.example.com" into "example".
func domainTag(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return normalizeTag(host)
	}
	return normalizeTag(parts[len(parts)-2])
}

const fallbackTitleMax = 60

func fallbackTitle(req Request) string {
	for _, line := range strings.Split(req.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > fallbackTitleMax {
			return strings.TrimSpace(string(runes[:fallbackTitleMax]))
		}
		return line
	}
	if req.URL != "" {
		return lastPathSegment(req.URL)
	}
	return ""
}

func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segs[len(segs)-1]
	if last == "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSuffix(last, ".html"))
}

const fallbackSummaryMax = 200

// cannedSummaries cover saves that carry no text at all.
var cannedSummaries = map[platform.Platform]string{
	platform.Instagram:  "An Instagram post saved for later.",
	platform.Twitter:    "A post from Twitter/X saved for later.",
	platform.YouTube:    "A video saved from YouTube.",
	platform.TikTok:     "A video saved from TikTok.",
	platform.Reddit:     "A Reddit thread saved for later.",
	platform.Letterboxd: "A film saved from Letterboxd.",
	platform.IMDB:       "A title saved from IMDb.",
	platform.Goodreads:  "A book saved from Goodreads.",
	platform.StoryGraph: "A book saved from The StoryGraph.",
	platform.Amazon:     "A product saved from Amazon.",
	platform.GitHub:     "A repository saved from GitHub.",
}

func fallbackSummary(req Request) string {
	if text := strings.TrimSpace(req.Text); text != "" {
		runes := []rune(text)
		if len(runes) > fallbackSummaryMax {
			return strings.TrimSpace(string(runes[:fallbackSummaryMax])) + "…"
		}
		return text
	}
	if s, ok := cannedSummaries[req.Platform]; ok {
		return s
	}
	if req.URL != "" {
		return "A page saved from the web."
	}
	return ""
}

// normalizeTag lowercases, trims, and hyphenates a tag.
func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.Trim(tag, "#")
	return strings.ReplaceAll(tag, " ", "-")
}
