// Package crossref is a small client for the Crossref REST API: resolving a
// DOI to its metadata and searching works by bibliographic text.
package crossref

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is the polite-pool request rate per second.
	RateLimit = 10.0

	// DefaultSearchRows is the number of candidates requested per title search.
	DefaultSearchRows = 5

	// UnknownTitle is reported for a resolvable DOI whose record has no title.
	UnknownTitle = "Unknown Title"
)

// Client is a rate-limited Crossref client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a client that identifies itself with userAgent.
// Crossref asks clients to include a contact address, see UserAgent.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		userAgent:  userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserAgent builds a polite-pool User-Agent such as
// "DOI-Validator/1.0 (mailto:me@example.org)".
func UserAgent(tool, mailto string) string {
	if mailto == "" {
		return tool
	}
	return fmt.Sprintf("%s (mailto:%s)", tool, mailto)
}

// Work is the subset of a Crossref work record lit uses.
type Work struct {
	DOI   string  `json:"doi"`
	Title string  `json:"title"`
	Score float64 `json:"score,omitempty"`
}

// URL returns the resolver URL of the work.
func (w Work) URL() string {
	if w.DOI == "" {
		return ""
	}
	return "https://doi.org/" + w.DOI
}

// fetch performs a GET and returns the body of a 200 response.
func (c *Client) fetch(ctx context.Context, rb *requests.Builder) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	var body string
	status := 0
	err := rb.
		Client(c.httpClient).
		UserAgent(c.userAgent).
		Accept("application/json").
		AddValidator(nil).
		Handle(func(res *http.Response) error {
			status = res.StatusCode
			if status != http.StatusOK {
				return nil
			}
			return requests.ToString(&body)(res)
		}).
		Fetch(ctx)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	if status == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %w", ErrRateLimited, &APIError{StatusCode: status})
	}
	if status != http.StatusOK {
		return "", &APIError{StatusCode: status}
	}
	return body, nil
}

// LookupDOI resolves a bare DOI. A non-200 answer is an *APIError.
func (c *Client) LookupDOI(ctx context.Context, doi string) (*Work, error) {
	body, err := c.fetch(ctx, requests.URL(c.baseURL+"/works/"+escapeDOI(doi)))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.DOI = doi
		}
		return nil, err
	}

	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
	}
	message := gjson.Get(body, "message")
	if !message.IsObject() {
		return nil, fmt.Errorf("%w: missing message", ErrInvalidResponse)
	}

	w := &Work{DOI: doi, Title: message.Get("title.0").String()}
	if w.Title == "" {
		w.Title = UnknownTitle
	}
	return w, nil
}

// SearchTitle runs a bibliographic query and returns the candidates in
// relevance order. An empty result is ErrNotFound.
func (c *Client) SearchTitle(ctx context.Context, title string, rows int) ([]Work, error) {
	if rows <= 0 {
		rows = DefaultSearchRows
	}

	rb := requests.URL(c.baseURL+"/works").
		Param("query.bibliographic", title).
		ParamInt("rows", rows).
		Param("sort", "score").
		Param("order", "desc").
		Param("select", "DOI,title,score")

	body, err := c.fetch(ctx, rb)
	if err != nil {
		return nil, err
	}

	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
	}
	items := gjson.Get(body, "message.items")
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: missing message.items", ErrInvalidResponse)
	}

	var works []Work
	items.ForEach(func(_, value gjson.Result) bool {
		works = append(works, Work{
			DOI:   value.Get("DOI").String(),
			Title: value.Get("title.0").String(),
			Score: value.Get("score").Float(),
		})
		return true
	})
	if len(works) == 0 || works[0].DOI == "" {
		return nil, ErrNotFound
	}
	return works, nil
}

// FindDOI returns the best-scoring candidate for title. The match flag
// reports whether either title contains the other, ignoring case.
func (c *Client) FindDOI(ctx context.Context, title string) (Work, bool, error) {
	works, err := c.SearchTitle(ctx, title, DefaultSearchRows)
	if err != nil {
		return Work{}, false, err
	}
	best := works[0]
	return best, TitleMatches(title, best.Title), nil
}

// TitleMatches reports whether either title contains the other, ignoring case.
func TitleMatches(query, found string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	f := strings.ToLower(strings.TrimSpace(found))
	if q == "" || f == "" {
		return false
	}
	return strings.Contains(q, f) || strings.Contains(f, q)
}

// escapeDOI escapes each path segment of a DOI and keeps the slashes.
func escapeDOI(doi string) string {
	segments := strings.Split(doi, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
