package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cardstash/cardstash/internal/model"
)

// fakeStrategy returns a canned result or error and counts invocations.
type fakeStrategy struct {
	name    string
	content *model.ScrapedContent
	err     error
	calls   int
}

func (f *fakeStrategy) Name() string           { return f.name }
func (f *fakeStrategy) Timeout() time.Duration { return time.Second }

func (f *fakeStrategy) Scrape(_ context.Context, _ string) (*model.ScrapedContent, error) {
	f.calls++
	return f.content, f.err
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	first := &fakeStrategy{name: "first", err: errors.New("rate limited")}
	second := &fakeStrategy{name: "second", content: &model.ScrapedContent{Title: "hit", ImageURL: "https://img.example/x.jpg"}}
	third := &fakeStrategy{name: "third", content: &model.ScrapedContent{Title: "never"}}

	chain := NewChain(first, second, third)
	got := chain.Run(context.Background(), "https://example.com/post/1")

	if got.Title != "hit" {
		t.Errorf("chain result title = %q, want %q", got.Title, "hit")
	}
	if got.Source != "second" {
		t.Errorf("chain result source = %q, want %q", got.Source, "second")
	}
	if third.calls != 0 {
		t.Errorf("third strategy invoked %d times, want 0", third.calls)
	}
}

func TestChainTreatsEmptyResultAsMiss(t *testing.T) {
	empty := &fakeStrategy{name: "empty", content: &model.ScrapedContent{}}
	hit := &fakeStrategy{name: "hit", content: &model.ScrapedContent{Text: "body"}}

	got := NewChain(empty, hit).Run(context.Background(), "https://example.com/a")
	if got.Source != "hit" {
		t.Errorf("source = %q, want %q", got.Source, "hit")
	}
}

func TestChainFallsBackToMinimalContent(t *testing.T) {
	bad := &fakeStrategy{name: "bad", err: errors.New("boom")}
	got := NewChain(bad).Run(context.Background(), "https://www.example.com/stories/my-great-article.html")

	if got.Domain != "example.com" {
		t.Errorf("fallback domain = %q, want %q", got.Domain, "example.com")
	}
	if got.Title != "my great article" {
		t.Errorf("fallback title = %q, want %q", got.Title, "my great article")
	}
	if got.Source != "fallback" {
		t.Errorf("fallback source = %q", got.Source)
	}
}

func TestChainFillsDomainAndURL(t *testing.T) {
	s := &fakeStrategy{name: "s", content: &model.ScrapedContent{Title: "t"}}
	got := NewChain(s).Run(context.Background(), "https://www.blog.example.com/x")
	if got.URL != "https://www.blog.example.com/x" {
		t.Errorf("url = %q", got.URL)
	}
	if got.Domain != "blog.example.com" {
		t.Errorf("domain = %q", got.Domain)
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/posts/hello-world", "hello world"},
		{"https://example.com/a_b_c.html", "a b c"},
		{"https://example.com/", "example.com"},
		{"https://www.example.com", "example.com"},
	}
	for _, tt := range tests {
		if got := TitleFromURL(tt.url); got != tt.want {
			t.Errorf("TitleFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
