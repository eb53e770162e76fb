// Package news fetches developer articles from the dev.to public API.
//
// The upstream payload is large and loosely typed (tag_list is an array on
// the list endpoint, user is a nested object, cover_image is often null).
// Rather than mirror it in structs we pull out the handful of fields the
// feed shows with gjson paths.
package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://dev.to/api"
	DefaultTag     = "javascript"

	perPage         = 10
	maxBodyBytes    = 4 << 20
	defaultTimeout  = 10 * time.Second
	defaultRate     = 2 // requests per second
	defaultBurst    = 5
	userAgentHeader = "devnode-news/1.0"
)

var (
	tagPattern   = regexp.MustCompile(`^[a-z0-9]{1,30}$`)
	tagSeparator = regexp.MustCompile(`\s*,\s*`)
)

var (
	// ErrInvalidTag is returned for tags outside [a-z0-9]{1,30}.
	ErrInvalidTag = errors.New("news: tag must be 1-30 lowercase letters or digits")
	// ErrUpstream wraps every failure of the dev.to call itself.
	ErrUpstream = errors.New("news: upstream unavailable")
)

// Article is one feed entry.
type Article struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	CoverImage  string   `json:"cover_image"`
	PublishedAt string   `json:"published_at"`
	ReadingTime int64    `json:"reading_time"`
	Reactions   int64    `json:"reactions"`
	Comments    int64    `json:"comments"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
}

// Client calls dev.to. Outbound requests share one token bucket so a burst
// of page loads cannot get the server's IP throttled upstream.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRateLimit overrides the default 2 req/s, burst 5.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cl *Client) { cl.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeTag applies the default and validates the result.
func NormalizeTag(tag string) (string, error) {
	if tag == "" {
		return DefaultTag, nil
	}
	if !tagPattern.MatchString(tag) {
		return "", ErrInvalidTag
	}
	return tag, nil
}

// Articles returns the latest articles for tag.
func (c *Client) Articles(ctx context.Context, tag string) ([]Article, error) {
	tag, err := NormalizeTag(tag)
	if err != nil {
		return nil, err
	}

	// Wait honours ctx, so a client that hangs up stops queueing here.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUpstream, err)
	}

	q := url.Values{}
	q.Set("tag", tag)
	q.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/articles?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgentHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}

	return parseArticles(body)
}

func parseArticles(body []byte) ([]Article, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrUpstream)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of articles", ErrUpstream)
	}

	articles := []Article{}
	root.ForEach(func(_, item gjson.Result) bool {
		a := Article{
			ID:          item.Get("id").Int(),
			Title:       item.Get("title").String(),
			Description: item.Get("description").String(),
			URL:         item.Get("url").String(),
			CoverImage:  item.Get("cover_image").String(),
			PublishedAt: item.Get("published_at").String(),
			ReadingTime: item.Get("reading_time_minutes").Int(),
			Reactions:   item.Get("public_reactions_count").Int(),
			Comments:    item.Get("comments_count").Int(),
			Author:      item.Get("user.name").String(),
			Tags:        tagsOf(item),
		}
		articles = append(articles, a)
		return true
	})
	return articles, nil
}

// tagsOf reads tag_list, which is an array on /articles but a comma
// separated string on some other dev.to endpoints.
func tagsOf(item gjson.Result) []string {
	tags := []string{}
	list := item.Get("tag_list")
	if list.IsArray() {
		for _, t := range list.Array() {
			tags = append(tags, t.String())
		}
		return tags
	}
	for _, t := range tagSeparator.Split(list.String(), -1) {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
