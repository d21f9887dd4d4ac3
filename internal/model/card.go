package model

import "time"

// CardType is the closed set of card classifications.
type CardType string

const (
	TypeArticle CardType = "article"
	TypeImage   CardType = "image"
	TypeNote    CardType = "note"
	TypeProduct CardType = "product"
	TypeBook    CardType = "book"
	TypeVideo   CardType = "video"
	TypeAudio   CardType = "audio"
	TypeSocial  CardType = "social"
	TypeMovie   CardType = "movie"
	TypeWebsite CardType = "website"
)

// typeAliases maps loose type strings (model output, legacy values) onto the
// closed CardType set. Unrecognized values fall back to TypeArticle.
var typeAliases = map[string]CardType{
	"article":    TypeArticle,
	"blog":       TypeArticle,
	"post":       TypeArticle,
	"news":       TypeArticle,
	"image":      TypeImage,
	"photo":      TypeImage,
	"picture":    TypeImage,
	"note":       TypeNote,
	"text":       TypeNote,
	"product":    TypeProduct,
	"shopping":   TypeProduct,
	"book":       TypeBook,
	"video":      TypeVideo,
	"audio":      TypeAudio,
	"podcast":    TypeAudio,
	"music":      TypeAudio,
	"social":     TypeSocial,
	"tweet":      TypeSocial,
	"movie":      TypeMovie,
	"film":       TypeMovie,
	"tv":         TypeMovie,
	"website":    TypeWebsite,
	"site":       TypeWebsite,
	"link":       TypeWebsite,
	"repository": TypeWebsite,
}

// NormalizeType maps an arbitrary type string onto the closed CardType enum.
// It never fails: unknown values become TypeArticle.
func NormalizeType(s string) CardType {
	if t, ok := typeAliases[normalizeKey(s)]; ok {
		return t
	}
	return TypeArticle
}

func normalizeKey(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == ' ' || c == '\t' || c == '\n' {
			continue
		}
		b = append(b, c)
	}
	return string(b)
}

// Metadata keys used by the enrichment pipeline. The metadata bag is open;
// these are the keys the pipeline itself reads or writes.
const (
	MetaProcessing      = "processing"
	MetaPlatform        = "platform"
	MetaImages          = "images"
	MetaIsCarousel      = "isCarousel"
	MetaCarouselPending = "carouselPending"
	MetaCarouselDone    = "carouselExtracted"
	MetaCarouselFailed  = "carouselExtractionFailed"
	MetaCarouselError   = "carouselExtractionError"
	MetaEnrichmentError = "enrichmentError"
	MetaContractError   = "contractError"
	MetaAuthorName      = "authorName"
	MetaAuthorHandle    = "authorHandle"
	MetaAuthorAvatar    = "authorAvatar"
	MetaSummary         = "summary"
	MetaProcessingSince = "processingSince"
)

// Metadata is the open key/value bag carried by every card.
type Metadata map[string]any

// Bool reads a boolean metadata value; missing or mistyped keys read false.
func (m Metadata) Bool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

// String reads a string metadata value; missing or mistyped keys read "".
func (m Metadata) String(key string) string {
	v, _ := m[key].(string)
	return v
}

// Images returns the ordered carousel image list, if any.
func (m Metadata) Images() []string {
	switch v := m[MetaImages].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Card is the persisted unit representing one saved item.
type Card struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Type       CardType   `json:"type"`
	Title      string     `json:"title,omitempty"`
	Content    string     `json:"content,omitempty"`
	URL        string     `json:"url,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
	Tags       []string   `json:"tags"`
	Metadata   Metadata   `json:"metadata"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Processing reports whether background enrichment is still in flight.
func (c *Card) Processing() bool {
	return c.Metadata.Bool(MetaProcessing)
}

// StuckSince reports whether the card has been processing longer than bound.
func (c *Card) StuckSince(now time.Time, bound time.Duration) bool {
	if !c.Processing() {
		return false
	}
	since := c.Metadata.String(MetaProcessingSince)
	if since == "" {
		return false
	}
	started, err := time.Parse(time.RFC3339, since)
	if err != nil {
		return false
	}
	return now.Sub(started) > bound
}

// NewCard creates a card with the given identity and sensible zero state.
func NewCard(id, ownerID string) *Card {
	now := time.Now().UTC()
	return &Card{
		ID:        id,
		OwnerID:   ownerID,
		Type:      TypeArticle,
		Tags:      []string{},
		Metadata:  Metadata{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
