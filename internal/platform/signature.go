package platform

// AuthorPlacement describes where the author belongs relative to the title.
type AuthorPlacement string

const (
	AuthorPrefix   AuthorPlacement = "prefix"
	AuthorSuffix   AuthorPlacement = "suffix"
	AuthorSeparate AuthorPlacement = "separate"
	AuthorNone     AuthorPlacement = ""
)

// Signature is the static per-platform contract for extracted content:
// which fields are required, how long titles may be, where the author goes,
// and whether multi-image carousels are possible.
type Signature struct {
	Platform       Platform
	RequiredFields []string
	TitleMaxLen    int
	AuthorPlace    AuthorPlacement
	Carousel       bool

	// TrustImages indicates extracted image URLs are full-quality content
	// rather than thumbnails/screenshots and should win over screenshots.
	TrustImages bool
}

// Requires reports whether the signature lists field as required.
func (s Signature) Requires(field string) bool {
	for _, f := range s.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}

var genericSignature = Signature{
	Platform:       Generic,
	RequiredFields: []string{"title"},
	TitleMaxLen:    200,
	AuthorPlace:    AuthorNone,
	Carousel:       false,
	TrustImages:    false,
}

var signatures = map[Platform]Signature{
	Instagram: {
		Platform:       Instagram,
		RequiredFields: []string{"image"},
		TitleMaxLen:    120,
		AuthorPlace:    AuthorSeparate,
		Carousel:       true,
		TrustImages:    true,
	},
	Twitter: {
		Platform:       Twitter,
		RequiredFields: []string{"text"},
		TitleMaxLen:    140,
		AuthorPlace:    AuthorSeparate,
		Carousel:       true,
		TrustImages:    true,
	},
	TikTok: {
		Platform:       TikTok,
		RequiredFields: []string{"image"},
		TitleMaxLen:    120,
		AuthorPlace:    AuthorSeparate,
		Carousel:       false,
		TrustImages:    true,
	},
	YouTube: {
		Platform:       YouTube,
		RequiredFields: []string{"title", "image"},
		TitleMaxLen:    160,
		AuthorPlace:    AuthorSuffix,
		Carousel:       false,
		TrustImages:    true,
	},
	Reddit: {
		Platform:       Reddit,
		RequiredFields: []string{"title"},
		TitleMaxLen:    200,
		AuthorPlace:    AuthorSeparate,
		Carousel:       true,
		TrustImages:    true,
	},
	Letterboxd: {
		Platform:       Letterboxd,
		RequiredFields: []string{"title", "image"},
		TitleMaxLen:    120,
		AuthorPlace:    AuthorNone,
		Carousel:       false,
		TrustImages:    true,
	},
	IMDB: {
		Platform:       IMDB,
		RequiredFields: []string{"title", "image"},
		TitleMaxLen:    120,
		AuthorPlace:    AuthorNone,
		Carousel:       false,
		TrustImages:    true,
	},
	Goodreads: {
		Platform:       Goodreads,
		RequiredFields: []string{"title", "image"},
		TitleMaxLen:    160,
		AuthorPlace:    AuthorSuffix,
		Carousel:       false,
		TrustImages:    true,
	},
	StoryGraph: {
		Platform:       StoryGraph,
		RequiredFields: []string{"title"},
		TitleMaxLen:    160,
		AuthorPlace:    AuthorSuffix,
		Carousel:       false,
		TrustImages:    true,
	},
	Amazon: {
		Platform:       Amazon,
		RequiredFields: []string{"title"},
		TitleMaxLen:    200,
		AuthorPlace:    AuthorNone,
		Carousel:       false,
		TrustImages:    true,
	},
	GitHub: {
		Platform:       GitHub,
		RequiredFields: []string{"title"},
		TitleMaxLen:    160,
		AuthorPlace:    AuthorPrefix,
		Carousel:       false,
		TrustImages:    false,
	},
}

// SignatureFor returns the content signature for a platform. Platforms
// without a dedicated entry get the permissive generic signature.
func SignatureFor(p Platform) Signature {
	if sig, ok := signatures[p]; ok {
		return sig
	}
	return genericSignature
}
