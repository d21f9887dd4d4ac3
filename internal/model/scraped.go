package model

// ScrapedContent is the ephemeral output of one extraction strategy. It is
// never persisted directly; the validator inspects it and the orchestrator
// folds it into a Card.
type ScrapedContent struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Images       []string `json:"images,omitempty"`
	Text         string   `json:"text,omitempty"`
	AuthorName   string   `json:"author_name,omitempty"`
	AuthorHandle string   `json:"author_handle,omitempty"`
	AuthorAvatar string   `json:"author_avatar,omitempty"`
	Likes        int      `json:"likes,omitempty"`
	Comments     int      `json:"comments,omitempty"`
	Domain       string   `json:"domain,omitempty"`
	URL          string   `json:"url,omitempty"`

	// Source names the strategy that produced this content.
	Source string `json:"source,omitempty"`
}

// Empty reports whether the scrape produced neither text nor an image,
// which the chain treats as a miss.
func (s *ScrapedContent) Empty() bool {
	return s == nil || (s.Title == "" && s.Text == "" && s.ImageURL == "" && len(s.Images) == 0)
}

// Classification is the classifier's structured verdict for a save.
type Classification struct {
	Type    CardType `json:"type"`
	Title   string   `json:"title,omitempty"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary,omitempty"`
}
