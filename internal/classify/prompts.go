package classify

import "fmt"

const promptTextMax = 2000

// buildPrompt assembles the classification prompt. Social platforms get a
// specialized version biased toward short, specific, non-generic tags;
// everything else gets the general version.
func buildPrompt(req Request, band TagBand) string {
	text := req.Text
	if len(text) > promptTextMax {
		text = text[:promptTextMax]
	}

	if req.Platform.Social() {
		media := ""
		if req.ImageCount > 1 {
			media = fmt.Sprintf("\nThe post is a carousel of %d images.", req.ImageCount)
		}
		return fmt.Sprintf(`You are tagging a saved %s post for a visual knowledge archive.%s

Tags enable serendipitous rediscovery across disciplines. Produce %d-%d tags mixing:
- essence tags naming the core identity (e.g. "bmw", "terence-tao", "breakdance")
- subject tags for the broader field (e.g. "automotive", "mathematics", "dance")
- one abstract mood tag (e.g. "kinetic", "minimalist", "contemplative")

Rules: lowercase, hyphenated, specific. Never use generic tags like "post",
"content", "interesting", or the platform name alone.

URL: %s
Post text:
%s`, req.Platform, media, band.Min, band.Max, req.URL, text)
	}

	return fmt.Sprintf(`Classify this saved web content for a personal knowledge archive.

Choose the single best type from: article, image, note, product, book, video,
audio, social, movie, website. Produce %d-%d lowercase hyphenated topical tags,
a short title (under 80 characters), and a one-sentence summary.

URL: %s
Content:
%s`, band.Min, band.Max, req.URL, text)
}
