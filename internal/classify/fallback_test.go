package classify

import (
	"strings"
	"testing"

	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
)

func TestFallbackTagBand(t *testing.T) {
	f := NewFallback(DefaultTagBand)

	tests := []Request{
		{URL: "https://www.youtube.com/watch?v=abc", Platform: platform.YouTube},
		{URL: "https://example.com/some-article", Platform: platform.Generic},
		{Text: "just a note with nothing else"},
		{Text: ""},
		{URL: "https://blog.example.com/machine-learning-in-production", Platform: platform.Generic,
			Text: "A long piece about machine learning, software design and startup finance."},
		{URL: strings.Repeat("x", 5000)},
	}
	for _, req := range tests {
		c := f.Classify(req)
		if len(c.Tags) < 3 || len(c.Tags) > 5 {
			t.Errorf("tags = %v (len %d), want 3-5 for %+v", c.Tags, len(c.Tags), req)
		}
	}
}

func TestFallbackPlatformDefaults(t *testing.T) {
	f := NewFallback(DefaultTagBand)

	c := f.Classify(Request{URL: "https://www.youtube.com/watch?v=abc", Platform: platform.YouTube})
	if c.Type != model.TypeVideo {
		t.Errorf("youtube type = %q, want video", c.Type)
	}
	hasTag := func(tags []string, want string) bool {
		for _, tag := range tags {
			if tag == want {
				return true
			}
		}
		return false
	}
	if !hasTag(c.Tags, "video") || !hasTag(c.Tags, "youtube") {
		t.Errorf("youtube tags = %v, want video and youtube seeds", c.Tags)
	}
}

func TestFallbackKeywordMatching(t *testing.T) {
	f := NewFallback(DefaultTagBand)
	c := f.Classify(Request{
		URL:      "https://example.com/posts/1",
		Text:     "We rebuilt our photography portfolio with a new design system.",
		Platform: platform.Generic,
	})

	got := map[string]bool{}
	for _, tag := range c.Tags {
		got[tag] = true
	}
	if !got["photography"] || !got["design"] {
		t.Errorf("tags = %v, want photography and design", c.Tags)
	}
}

func TestFallbackNoteClassification(t *testing.T) {
	f := NewFallback(DefaultTagBand)
	c := f.Classify(Request{Text: "My first line\nmore text after it"})

	if c.Type != model.TypeNote {
		t.Errorf("type = %q, want note", c.Type)
	}
	if c.Title != "My first line" {
		t.Errorf("title = %q, want first line", c.Title)
	}
}

func TestFallbackTitleTruncation(t *testing.T) {
	f := NewFallback(DefaultTagBand)
	long := strings.Repeat("word ", 40)
	c := f.Classify(Request{Text: long})
	if n := len([]rune(c.Title)); n > fallbackTitleMax {
		t.Errorf("title length = %d, want <= %d", n, fallbackTitleMax)
	}
}

func TestFallbackTitleFromURLSegment(t *testing.T) {
	f := NewFallback(DefaultTagBand)
	c := f.Classify(Request{URL: "https://example.com/stories/the-last-lighthouse.html"})
	if c.Title != "the last lighthouse" {
		t.Errorf("title = %q", c.Title)
	}
}

func TestFallbackCannedSummary(t *testing.T) {
	f := NewFallback(DefaultTagBand)
	c := f.Classify(Request{URL: "https://www.youtube.com/watch?v=abc", Platform: platform.YouTube})
	if c.Summary == "" {
		t.Error("expected a canned summary for a no-text video save")
	}
}

func TestFallbackImageOnly(t *testing.T) {
	f := NewFallback(DefaultTagBand)
	c := f.Classify(Request{ImageURL: "https://cdn.example.com/pic.jpg"})
	if c.Type != model.TypeImage {
		t.Errorf("type = %q, want image", c.Type)
	}
	if len(c.Tags) < 3 {
		t.Errorf("tags = %v, want at least 3", c.Tags)
	}
}

func TestDomainTag(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://blog.example.com/post", "example"},
		{"https://www.nytimes.com/2024/article", "nytimes"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := domainTag(tt.url); got != tt.want {
			t.Errorf("domainTag(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Machine Learning ", "machine-learning"},
		{"#golang", "golang"},
		{"AI", "ai"},
	}
	for _, tt := range tests {
		if got := normalizeTag(tt.in); got != tt.want {
			t.Errorf("normalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
