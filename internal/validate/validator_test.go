package validate

import (
	"strings"
	"testing"

	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
)

func TestCheckMissingRequiredFieldIsError(t *testing.T) {
	sig := platform.SignatureFor(platform.Instagram) // requires image
	content := &model.ScrapedContent{Title: "a post", Text: "caption"}

	v := Check(content, sig)
	if v.OK {
		t.Fatal("verdict OK despite missing required image")
	}
	found := false
	for _, is := range v.Issues {
		if is.Code == CodeMissingField && is.Field == "image" && is.Severity == SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("missing_required_field error not reported: %+v", v.Issues)
	}
}

func TestCheckFullyPopulatedPasses(t *testing.T) {
	sig := platform.SignatureFor(platform.Instagram)
	content := &model.ScrapedContent{
		Title:        "short caption",
		Text:         "the caption body",
		ImageURL:     "https://cdn.example.com/full/image.jpg",
		AuthorName:   "Jess Park",
		AuthorHandle: "jesspark",
	}

	v := Check(content, sig)
	if !v.OK {
		t.Errorf("verdict not OK: %+v", v.Issues)
	}
	if len(v.Issues) != 0 {
		t.Errorf("unexpected issues for clean content: %+v", v.Issues)
	}
}

func TestCheckTitleTooLongIsWarningWithFix(t *testing.T) {
	sig := platform.SignatureFor(platform.Instagram) // max 120
	content := &model.ScrapedContent{
		Title:    strings.Repeat("x", 150),
		ImageURL: "https://cdn.example.com/a.jpg",
	}

	v := Check(content, sig)
	if !v.OK {
		t.Error("oversized title must not fail the save")
	}
	var fix *Fix
	for i := range v.Fixes {
		if v.Fixes[i].Field == "title" {
			fix = &v.Fixes[i]
		}
	}
	if fix == nil {
		t.Fatal("no title fix suggested")
	}
	if len(fix.Value) != 120 {
		t.Errorf("fixed title length = %d, want 120", len(fix.Value))
	}
}

func TestCheckAuthorLeakedIntoTitle(t *testing.T) {
	sig := platform.SignatureFor(platform.Twitter)
	content := &model.ScrapedContent{
		Title:        "jesspark: hot take about compilers",
		Text:         "hot take about compilers",
		AuthorHandle: "jesspark",
	}

	v := Check(content, sig)
	if !v.OK {
		t.Error("author leak must be a warning, not an error")
	}
	var fixed string
	for _, f := range v.Fixes {
		if f.Field == "title" {
			fixed = f.Value
		}
	}
	if fixed != "hot take about compilers" {
		t.Errorf("fixed title = %q", fixed)
	}
}

func TestCheckThumbnailSuspicion(t *testing.T) {
	sig := platform.SignatureFor(platform.Generic)
	content := &model.ScrapedContent{
		Title:    "ok title",
		ImageURL: "https://cdn.example.com/thumbs/150x150/pic.jpg",
	}

	v := Check(content, sig)
	if !v.OK {
		t.Error("thumbnail suspicion must not block")
	}
	found := false
	for _, is := range v.Issues {
		if is.Code == CodeThumbnailImage {
			found = true
		}
	}
	if !found {
		t.Errorf("thumbnail warning not raised for %q", content.ImageURL)
	}
}

func TestCheckDoesNotMutateInput(t *testing.T) {
	sig := platform.SignatureFor(platform.Instagram)
	content := &model.ScrapedContent{
		Title:    strings.Repeat("y", 200),
		ImageURL: "https://cdn.example.com/a.jpg",
	}
	Check(content, sig)
	if len(content.Title) != 200 {
		t.Error("Check mutated its input")
	}
}

func TestApply(t *testing.T) {
	content := &model.ScrapedContent{Title: "long title", ImageURL: "img"}
	out := Apply(content, []Fix{{Field: "title", Value: "short"}})
	if out.Title != "short" {
		t.Errorf("applied title = %q", out.Title)
	}
	if content.Title != "long title" {
		t.Error("Apply mutated the original")
	}
	if out.ImageURL != "img" {
		t.Error("Apply dropped untouched fields")
	}
}
