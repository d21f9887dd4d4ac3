// Package platform classifies URLs into a closed set of known platforms and
// exposes the per-platform content signature contract.
package platform

import (
	"net/url"
	"strings"
)

// Platform identifies the origin site of a saved URL.
type Platform string

const (
	Instagram  Platform = "instagram"
	Twitter    Platform = "twitter"
	YouTube    Platform = "youtube"
	TikTok     Platform = "tiktok"
	Reddit     Platform = "reddit"
	Letterboxd Platform = "letterboxd"
	IMDB       Platform = "imdb"
	Goodreads  Platform = "goodreads"
	StoryGraph Platform = "storygraph"
	Amazon     Platform = "amazon"
	GitHub     Platform = "github"
	Generic    Platform = "generic"
)

// hostRule maps a hostname fragment to a platform. Rules are checked in
// order; more specific fragments come first (youtu.be before generic rules).
type hostRule struct {
	fragment string
	platform Platform
}

var hostRules = []hostRule{
	{"instagram.com", Instagram},
	{"twitter.com", Twitter},
	{"x.com", Twitter},
	{"youtu.be", YouTube},
	{"youtube.com", YouTube},
	{"tiktok.com", TikTok},
	{"reddit.com", Reddit},
	{"letterboxd.com", Letterboxd},
	{"imdb.com", IMDB},
	{"goodreads.com", Goodreads},
	{"thestorygraph.com", StoryGraph},
	{"app.thestorygraph.com", StoryGraph},
	{"amazon.", Amazon},
	{"amzn.", Amazon},
	{"github.com", GitHub},
}

// Resolve classifies a URL into a platform. It never fails: malformed or
// empty URLs resolve to Generic.
func Resolve(rawURL string) Platform {
	if rawURL == "" {
		return Generic
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		// Tolerate bare "example.com/path" inputs.
		u, err = url.Parse("https://" + rawURL)
		if err != nil || u.Host == "" {
			return Generic
		}
	}
	host := strings.ToLower(u.Hostname())
	for _, r := range hostRules {
		if strings.Contains(host, r.fragment) {
			return r.platform
		}
	}
	return Generic
}

// Social reports whether the platform is a social network whose posts get
// specialized prompts and author handling.
func (p Platform) Social() bool {
	switch p {
	case Instagram, Twitter, TikTok, Reddit:
		return true
	}
	return false
}
