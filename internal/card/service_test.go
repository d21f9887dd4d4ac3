package card

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cardstash/cardstash/internal/classify"
	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
	"github.com/cardstash/cardstash/internal/store"
)

// fakeStore is an in-memory Store with the same partial-merge update
// semantics as the SQLite store.
type fakeStore struct {
	mu    sync.Mutex
	cards map[string]*model.Card
}

func newFakeStore() *fakeStore {
	return &fakeStore{cards: make(map[string]*model.Card)}
}

func (f *fakeStore) CreateCard(_ context.Context, c *model.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.cards[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCard(_ context.Context, id string) (*model.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Metadata = model.Metadata{}
	for k, v := range c.Metadata {
		cp.Metadata[k] = v
	}
	return &cp, nil
}

func (f *fakeStore) UpdateCard(_ context.Context, id string, p store.Patch) (*model.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.URL != nil {
		c.URL = *p.URL
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.Tags != nil {
		c.Tags = *p.Tags
	}
	for k, v := range p.Metadata {
		if v == nil {
			delete(c.Metadata, k)
			continue
		}
		c.Metadata[k] = v
	}
	cp := *c
	return &cp, nil
}

// fakeScraper returns a canned result and counts calls.
type fakeScraper struct {
	mu      sync.Mutex
	content *model.ScrapedContent
	calls   int
}

func (f *fakeScraper) Scrape(_ context.Context, _ platform.Platform, rawURL string) *model.ScrapedContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.content == nil {
		return &model.ScrapedContent{URL: rawURL, Source: "fallback"}
	}
	cp := *f.content
	return &cp
}

func (f *fakeScraper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeClassifier returns a canned classification or panics on demand.
type fakeClassifier struct {
	result model.Classification
	panics bool
}

func (f *fakeClassifier) Classify(_ context.Context, _ classify.Request) model.Classification {
	if f.panics {
		panic("classifier blew up")
	}
	return f.result
}

func newTestService(st Store, sc Scraper, cl Classifier) *Service {
	return NewService(st, sc, cl, Options{Workers: 2})
}

func TestSaveRejectsEmptyRequest(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeScraper{}, &fakeClassifier{})

	_, err := svc.Save(context.Background(), "owner", SaveRequest{Source: "manual"})
	if !errors.Is(err, ErrEmptySave) {
		t.Errorf("err = %v, want ErrEmptySave", err)
	}

	_, err = svc.Save(context.Background(), "owner", SaveRequest{URL: "   ", Content: "\n"})
	if !errors.Is(err, ErrEmptySave) {
		t.Errorf("whitespace-only save err = %v, want ErrEmptySave", err)
	}
}

func TestSaveReturnsProcessingCard(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeScraper{}, &fakeClassifier{result: model.Classification{
		Type: model.TypeWebsite, Tags: []string{"a", "b", "c"},
	}})

	c, err := svc.Save(context.Background(), "owner", SaveRequest{URL: "https://example.com/article"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	// The returned card is usable immediately, before enrichment lands.
	if !c.Processing() {
		t.Error("returned card should be processing")
	}
	if c.Title == "" {
		t.Error("no quick title placeholder")
	}

	svc.Wait()
	got, _ := st.GetCard(context.Background(), c.ID)
	if got.Processing() {
		t.Error("card still processing after enrichment finished")
	}
}

func TestSaveWithUserTagsSkipsEnrichment(t *testing.T) {
	st := newFakeStore()
	sc := &fakeScraper{}
	svc := newTestService(st, sc, &fakeClassifier{})

	c, err := svc.Save(context.Background(), "owner", SaveRequest{
		URL:  "https://example.com/a",
		Tags: []string{"keep", "these"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if c.Processing() {
		t.Error("card with user tags should be final immediately")
	}

	svc.Wait()
	if sc.callCount() != 0 {
		t.Errorf("scraper called %d times, want 0", sc.callCount())
	}
	got, _ := st.GetCard(context.Background(), c.ID)
	if len(got.Tags) != 2 || got.Tags[0] != "keep" {
		t.Errorf("tags = %v, want user tags untouched", got.Tags)
	}
}

func TestSaveNoteQuickMetadata(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeScraper{}, &fakeClassifier{})

	c, err := svc.Save(context.Background(), "owner", SaveRequest{Content: "My first line\nmore text"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if c.Type != model.TypeNote {
		t.Errorf("type = %q, want note", c.Type)
	}
	if c.Title != "My first line" {
		t.Errorf("title = %q, want first line", c.Title)
	}
	svc.Wait()
}

func TestSaveNoteTitleTruncated(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeScraper{}, &fakeClassifier{})

	long := strings.Repeat("word ", 30)
	c, err := svc.Save(context.Background(), "owner", SaveRequest{Content: long})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n := len([]rune(c.Title)); n > noteTitleMax {
		t.Errorf("title length = %d, want <= %d", n, noteTitleMax)
	}
	svc.Wait()
}

func TestSaveImageOnly(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeScraper{}, &fakeClassifier{})

	c, err := svc.Save(context.Background(), "owner", SaveRequest{ImageURL: "https://cdn.example.com/p.jpg"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if c.Type != model.TypeImage {
		t.Errorf("type = %q, want image", c.Type)
	}
	svc.Wait()
}

func TestSaveNoAIConfigured(t *testing.T) {
	// End-to-end save with the real fallback classifier, no model configured.
	st := newFakeStore()
	svc := newTestService(st, &fakeScraper{}, classify.NewService(nil, classify.DefaultTagBand))

	c, err := svc.Save(context.Background(), "owner", SaveRequest{URL: "https://example.com/article"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	svc.Wait()

	got, _ := st.GetCard(context.Background(), c.ID)
	if got.Processing() {
		t.Error("processing should be false once background step completes")
	}
	if len(got.Tags) < 3 || len(got.Tags) > 5 {
		t.Errorf("tags = %v, want 3-5 from fallback", got.Tags)
	}
	switch got.Type {
	case model.TypeArticle, model.TypeImage, model.TypeNote, model.TypeProduct,
		model.TypeBook, model.TypeVideo, model.TypeAudio, model.TypeSocial,
		model.TypeMovie, model.TypeWebsite:
	default:
		t.Errorf("type %q outside closed enum", got.Type)
	}
}

func TestRetryIdempotencyGuard(t *testing.T) {
	st := newFakeStore()
	sc := &fakeScraper{}
	svc := newTestService(st, sc, &fakeClassifier{result: model.Classification{
		Type: model.TypeWebsite, Tags: []string{"a", "b", "c"},
	}})

	c := model.NewCard("c1", "owner")
	c.URL = "https://example.com/a"
	c.Metadata[model.MetaProcessing] = true
	if err := st.CreateCard(context.Background(), c); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	_, started, err := svc.Retry(context.Background(), "c1", false)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if started {
		t.Error("retry on a processing card without force must be a no-op")
	}
	svc.Wait()
	if sc.callCount() != 0 {
		t.Errorf("scraper called %d times, want 0", sc.callCount())
	}

	_, started, err = svc.Retry(context.Background(), "c1", true)
	if err != nil {
		t.Fatalf("forced Retry: %v", err)
	}
	if !started {
		t.Error("forced retry must bypass the idempotency guard")
	}
	svc.Wait()
	if sc.callCount() != 1 {
		t.Errorf("scraper called %d times after force, want 1", sc.callCount())
	}
}

func TestRetryNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeScraper{}, &fakeClassifier{})
	if _, _, err := svc.Retry(context.Background(), "ghost", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQuickType(t *testing.T) {
	tests := []struct {
		req  SaveRequest
		p    platform.Platform
		want model.CardType
	}{
		{SaveRequest{Type: "film", URL: "https://x.com"}, platform.Twitter, model.TypeMovie},
		{SaveRequest{URL: "https://youtube.com/watch?v=1"}, platform.YouTube, model.TypeVideo},
		{SaveRequest{URL: "https://instagram.com/p/1"}, platform.Instagram, model.TypeSocial},
		{SaveRequest{URL: "https://letterboxd.com/film/x"}, platform.Letterboxd, model.TypeMovie},
		{SaveRequest{URL: "https://goodreads.com/book/1"}, platform.Goodreads, model.TypeBook},
		{SaveRequest{URL: "https://amazon.com/dp/1"}, platform.Amazon, model.TypeProduct},
		{SaveRequest{URL: "https://example.com"}, platform.Generic, model.TypeWebsite},
		{SaveRequest{Content: "text"}, platform.Generic, model.TypeNote},
		{SaveRequest{ImageURL: "https://cdn.example.com/x.png"}, platform.Generic, model.TypeImage},
	}
	for _, tt := range tests {
		if got := quickType(tt.req, tt.p); got != tt.want {
			t.Errorf("quickType(%+v, %s) = %q, want %q", tt.req, tt.p, got, tt.want)
		}
	}
}
