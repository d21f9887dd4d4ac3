// Package validate checks extracted content against the per-platform
// content signature and proposes field-level fixes. Validation never
// mutates its input; callers decide whether to apply the fixes.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/platform"
)

// Severity of a validation issue. Errors block; warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeMissingField   = "missing_required_field"
	CodeTitleTooLong   = "title_too_long"
	CodeAuthorInTitle  = "author_in_title"
	CodeThumbnailImage = "thumbnail_quality_image"
)

// Issue is one typed finding against a ScrapedContent.
type Issue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Detail   string   `json:"detail"`
}

// Fix is a suggested field-level correction the caller may apply.
type Fix struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Verdict is the validator's output: a pass/fail flag plus every issue
// found and the fixes that would address the warning-level ones.
type Verdict struct {
	OK     bool
	Issues []Issue
	Fixes  []Fix
}

// thumbnailRe matches URL patterns that indicate a resized thumbnail
// rather than full content: explicit WxH segments, s\d+ size hints, and
// "thumb"/"thumbnail" path parts.
var thumbnailRe = regexp.MustCompile(`(?i)(?:/|[_-])(?:thumb(?:nail)?s?)(?:/|[_.-])|(?:^|[/_-])(\d{2,3})x(\d{2,3})(?:[/_.-]|$)|[?&](?:w|width)=(?:\d{1,2}|1\d{2})(?:&|$)|/s\d{2,3}(?:-c)?/`)

// Check validates content against the platform signature.
func Check(content *model.ScrapedContent, sig platform.Signature) Verdict {
	v := Verdict{OK: true}

	checkRequired(&v, content, sig)
	checkTitleLength(&v, content, sig)
	checkAuthorLeak(&v, content, sig)
	checkThumbnail(&v, content)

	return v
}

func checkRequired(v *Verdict, c *model.ScrapedContent, sig platform.Signature) {
	present := map[string]bool{
		"title": c.Title != "",
		"text":  c.Text != "" || c.Description != "",
		"image": c.ImageURL != "" || len(c.Images) > 0,
	}
	for _, field := range sig.RequiredFields {
		if present[field] {
			continue
		}
		v.OK = false
		v.Issues = append(v.Issues, Issue{
			Code:     CodeMissingField,
			Severity: SeverityError,
			Field:    field,
			Detail:   fmt.Sprintf("%s requires %s", sig.Platform, field),
		})
	}
}

func checkTitleLength(v *Verdict, c *model.ScrapedContent, sig platform.Signature) {
	if sig.TitleMaxLen <= 0 || utf8.RuneCountInString(c.Title) <= sig.TitleMaxLen {
		return
	}
	runes := []rune(c.Title)
	truncated := strings.TrimSpace(string(runes[:sig.TitleMaxLen]))
	v.Issues = append(v.Issues, Issue{
		Code:     CodeTitleTooLong,
		Severity: SeverityWarning,
		Field:    "title",
		Detail:   fmt.Sprintf("title is %d runes, max %d", len(runes), sig.TitleMaxLen),
	})
	v.Fixes = append(v.Fixes, Fix{Field: "title", Value: truncated})
}

// checkAuthorLeak catches author names duplicated into the title on
// platforms where the author belongs in its own field.
func checkAuthorLeak(v *Verdict, c *model.ScrapedContent, sig platform.Signature) {
	if sig.AuthorPlace != platform.AuthorSeparate {
		return
	}
	for _, author := range []string{c.AuthorName, c.AuthorHandle} {
		if author == "" || !strings.HasPrefix(strings.ToLower(c.Title), strings.ToLower(author)) {
			continue
		}
		stripped := strings.TrimSpace(c.Title[len(author):])
		stripped = strings.TrimLeft(stripped, ":-–|· ")
		if stripped == "" {
			continue
		}
		v.Issues = append(v.Issues, Issue{
			Code:     CodeAuthorInTitle,
			Severity: SeverityWarning,
			Field:    "title",
			Detail:   fmt.Sprintf("title starts with author %q", author),
		})
		v.Fixes = append(v.Fixes, Fix{Field: "title", Value: stripped})
		return
	}
}

func checkThumbnail(v *Verdict, c *model.ScrapedContent) {
	if c.ImageURL == "" || !thumbnailRe.MatchString(c.ImageURL) {
		return
	}
	v.Issues = append(v.Issues, Issue{
		Code:     CodeThumbnailImage,
		Severity: SeverityWarning,
		Field:    "image",
		Detail:   "image URL matches a thumbnail-size pattern",
	})
}

// Apply folds fixes into a copy of content and returns the copy.
func Apply(content *model.ScrapedContent, fixes []Fix) *model.ScrapedContent {
	out := *content
	for _, f := range fixes {
		switch f.Field {
		case "title":
			out.Title = f.Value
		case "image":
			out.ImageURL = f.Value
		case "text":
			out.Text = f.Value
		}
	}
	return &out
}
