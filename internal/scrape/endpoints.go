package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cardstash/cardstash/internal/model"
)

// ---------------------------------------------------------------------------
// oEmbed (YouTube, TikTok)
// ---------------------------------------------------------------------------

// OEmbedStrategy hits a platform's public oEmbed endpoint. No key, no
// browser rendering; a single JSON call.
type OEmbedStrategy struct {
	client   *http.Client
	name     string
	endpoint string // oEmbed endpoint; the target URL is appended as ?url=
}

func NewYouTubeOEmbedStrategy(client *http.Client) *OEmbedStrategy {
	return &OEmbedStrategy{client: client, name: "youtube-oembed", endpoint: "https://www.youtube.com/oembed"}
}

func NewTikTokOEmbedStrategy(client *http.Client) *OEmbedStrategy {
	return &OEmbedStrategy{client: client, name: "tiktok-oembed", endpoint: "https://www.tiktok.com/oembed"}
}

func (s *OEmbedStrategy) Name() string           { return s.name }
func (s *OEmbedStrategy) Timeout() time.Duration { return 6 * time.Second }

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *OEmbedStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	endpoint := s.endpoint + "?format=json&url=" + url.QueryEscape(rawURL)
	body, err := fetch(ctx, s.client, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(body) {
		return nil, fmt.Errorf("oembed returned HTML for %s", rawURL)
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}
	if resp.Title == "" && resp.ThumbnailURL == "" {
		return nil, fmt.Errorf("empty oembed response for %s", rawURL)
	}

	return &model.ScrapedContent{
		Title:        resp.Title,
		ImageURL:     resp.ThumbnailURL,
		AuthorName:   resp.AuthorName,
		AuthorHandle: handleFromAuthorURL(resp.AuthorURL),
		URL:          rawURL,
	}, nil
}

func handleFromAuthorURL(authorURL string) string {
	u, err := url.Parse(authorURL)
	if err != nil {
		return ""
	}
	seg := strings.Trim(u.Path, "/")
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	return strings.TrimPrefix(seg, "@")
}

// ---------------------------------------------------------------------------
// Reddit public JSON
// ---------------------------------------------------------------------------

// RedditJSONStrategy appends .json to the post URL; reddit serves the full
// listing without authentication as long as the client identifies itself.
type RedditJSONStrategy struct {
	client *http.Client
}

func NewRedditJSONStrategy(client *http.Client) *RedditJSONStrategy {
	return &RedditJSONStrategy{client: client}
}

func (s *RedditJSONStrategy) Name() string           { return "reddit-json" }
func (s *RedditJSONStrategy) Timeout() time.Duration { return 8 * time.Second }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Selftext  string `json:"selftext"`
				Author    string `json:"author"`
				Subreddit string `json:"subreddit"`
				Score     int    `json:"score"`
				Comments  int    `json:"num_comments"`
				URL       string `json:"url_overridden_by_dest"`
				Preview   struct {
					Images []struct {
						Source struct {
							URL string `json:"url"`
						} `json:"source"`
					} `json:"images"`
				} `json:"preview"`
				GalleryData struct {
					Items []struct {
						MediaID string `json:"media_id"`
					} `json:"items"`
				} `json:"gallery_data"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *RedditJSONStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	jsonURL := strings.TrimSuffix(rawURL, "/") + ".json?limit=1"
	body, err := fetch(ctx, s.client, jsonURL, map[string]string{
		"User-Agent": "cardstash/1.0 (content preview)",
		"Accept":     "application/json",
	})
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(body) {
		return nil, fmt.Errorf("reddit returned HTML for %s", rawURL)
	}

	// Post pages return an array of two listings; the post is in the first.
	var listings []redditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		var single redditListing
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return nil, fmt.Errorf("decode reddit listing: %w", err)
		}
		listings = []redditListing{single}
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, fmt.Errorf("empty reddit listing for %s", rawURL)
	}

	post := listings[0].Data.Children[0].Data
	content := &model.ScrapedContent{
		Title:        post.Title,
		Text:         post.Selftext,
		AuthorHandle: post.Author,
		AuthorName:   "u/" + post.Author,
		Likes:        post.Score,
		Comments:     post.Comments,
		URL:          rawURL,
	}
	if len(post.Preview.Images) > 0 {
		// Preview URLs come HTML-escaped inside JSON.
		content.ImageURL = strings.ReplaceAll(post.Preview.Images[0].Source.URL, "&amp;", "&")
	}
	for _, item := range post.GalleryData.Items {
		content.Images = append(content.Images, "https://i.redd.it/"+item.MediaID+".jpg")
	}
	if content.ImageURL == "" && len(content.Images) > 0 {
		content.ImageURL = content.Images[0]
	}
	if content.ImageURL == "" && looksLikeImageURL(post.URL) {
		content.ImageURL = post.URL
	}
	return content, nil
}

func looksLikeImageURL(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// GitHub repository API
// ---------------------------------------------------------------------------

// GitHubAPIStrategy reads repository metadata from the public REST API.
type GitHubAPIStrategy struct {
	client *http.Client
}

func NewGitHubAPIStrategy(client *http.Client) *GitHubAPIStrategy {
	return &GitHubAPIStrategy{client: client}
}

func (s *GitHubAPIStrategy) Name() string           { return "github-api" }
func (s *GitHubAPIStrategy) Timeout() time.Duration { return 6 * time.Second }

type githubRepo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Owner       struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
}

func (s *GitHubAPIStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	segs := strings.SplitN(strings.Trim(u.Path, "/"), "/", 3)
	if len(segs) < 2 {
		return nil, fmt.Errorf("not a repository URL: %s", rawURL)
	}
	owner, repo := segs[0], segs[1]

	endpoint := fmt.Sprintf("https://api.github.com/repos/%s/%s", owner, repo)
	body, err := fetch(ctx, s.client, endpoint, map[string]string{
		"Accept":     "application/vnd.github+json",
		"User-Agent": "cardstash/1.0",
	})
	if err != nil {
		return nil, err
	}

	var r githubRepo
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode repo: %w", err)
	}
	if r.FullName == "" {
		return nil, fmt.Errorf("empty repo response for %s", rawURL)
	}

	return &model.ScrapedContent{
		Title:        r.FullName,
		Description:  r.Description,
		Text:         r.Description,
		ImageURL:     fmt.Sprintf("https://opengraph.githubassets.com/1/%s/%s", owner, repo),
		AuthorName:   r.Owner.Login,
		AuthorHandle: r.Owner.Login,
		AuthorAvatar: r.Owner.AvatarURL,
		Likes:        r.Stars,
		URL:          rawURL,
	}, nil
}

// ---------------------------------------------------------------------------
// Twitter syndication API
// ---------------------------------------------------------------------------

// TwitterSyndicationStrategy uses the public syndication endpoint that backs
// embedded tweets. Works without credentials for most public tweets.
type TwitterSyndicationStrategy struct {
	client *http.Client
}

func NewTwitterSyndicationStrategy(client *http.Client) *TwitterSyndicationStrategy {
	return &TwitterSyndicationStrategy{client: client}
}

func (s *TwitterSyndicationStrategy) Name() string           { return "twitter-syndication" }
func (s *TwitterSyndicationStrategy) Timeout() time.Duration { return 8 * time.Second }

type tweetResult struct {
	Text string `json:"text"`
	User struct {
		Name            string `json:"name"`
		ScreenName      string `json:"screen_name"`
		ProfileImageURL string `json:"profile_image_url_https"`
	} `json:"user"`
	FavoriteCount int `json:"favorite_count"`
	Photos        []struct {
		URL string `json:"url"`
	} `json:"photos"`
}

func (s *TwitterSyndicationStrategy) Scrape(ctx context.Context, rawURL string) (*model.ScrapedContent, error) {
	id := tweetIDFromURL(rawURL)
	if id == "" {
		return nil, fmt.Errorf("no tweet id in %s", rawURL)
	}

	endpoint := "https://cdn.syndication.twimg.com/tweet-result?id=" + id + "&lang=en"
	body, err := fetch(ctx, s.client, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(body) {
		return nil, fmt.Errorf("syndication returned HTML for tweet %s", id)
	}

	var tw tweetResult
	if err := json.Unmarshal(body, &tw); err != nil {
		return nil, fmt.Errorf("decode tweet: %w", err)
	}
	if tw.Text == "" {
		return nil, fmt.Errorf("empty tweet result for %s", id)
	}

	content := &model.ScrapedContent{
		Title:        firstLine(tw.Text, 140),
		Text:         tw.Text,
		AuthorName:   tw.User.Name,
		AuthorHandle: tw.User.ScreenName,
		AuthorAvatar: tw.User.ProfileImageURL,
		Likes:        tw.FavoriteCount,
		URL:          rawURL,
	}
	for _, p := range tw.Photos {
		content.Images = append(content.Images, p.URL)
	}
	if len(content.Images) > 0 {
		content.ImageURL = content.Images[0]
	}
	return content, nil
}

var tweetIDRe = regexp.MustCompile(`/status(?:es)?/(\d+)`)

func tweetIDFromURL(rawURL string) string {
	m := tweetIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}
