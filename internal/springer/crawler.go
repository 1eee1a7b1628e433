// Package springer crawls the RSS search feeds of link.springer.com page by
// page and turns their items into bibliography records.
package springer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"
)

const (
	// DefaultDelay is the pause between page requests.
	DefaultDelay = 1500 * time.Millisecond

	// DefaultMaxPages bounds a crawl.
	DefaultMaxPages = 42

	// DefaultTimeout is the per-page HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// PageSize is the number of items per feed page for start= paging.
	PageSize = 20
)

var (
	// ErrNoUserAgent is returned by NewCrawler for an empty User-Agent;
	// the feed endpoint rejects unidentified clients.
	ErrNoUserAgent = errors.New("springer crawler needs a User-Agent")

	// ErrNotFeed indicates an HTML answer, usually a login or proxy page.
	ErrNotFeed = errors.New("page returned HTML instead of RSS")

	// ErrEmptyPage indicates a feed page without usable items.
	ErrEmptyPage = errors.New("no papers on page")
)

// Crawler fetches feed pages.
type Crawler struct {
	httpClient *http.Client
	userAgent  string
	delay      time.Duration
	logger     *log.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Crawler) {
		c.httpClient = hc
	}
}

// WithDelay sets the pause between pages.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = d
	}
}

// WithLogger routes progress messages to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Crawler) {
		c.logger = l
	}
}

// NewCrawler creates a crawler that identifies itself as userAgent.
func NewCrawler(userAgent string, opts ...Option) (*Crawler, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, ErrNoUserAgent
	}
	c := &Crawler{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  userAgent,
		delay:      DefaultDelay,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result is the outcome of a crawl.
type Result struct {
	Papers []Paper `json:"papers"`
	// Pages is the number of pages that contributed papers.
	Pages int `json:"pages"`
	// Stopped explains why the crawl ended before MaxPages, if it did.
	Stopped string `json:"stopped,omitempty"`
}

// Crawl fetches pages 1..maxPages of base and stops at the first page
// that yields no papers, including pages that fail to load.
func (c *Crawler) Crawl(ctx context.Context, base string, maxPages int) (*Result, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	res := &Result{}
	start := time.Now()

	for page := 1; page <= maxPages; page++ {
		pageURL, err := BuildPageURL(base, page)
		if err != nil {
			return nil, err
		}

		papers, err := c.FetchPage(ctx, pageURL)
		if err == nil && len(papers) == 0 {
			err = ErrEmptyPage
		}
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			c.logger.Warn("stopping crawl", "page", page, "err", err)
			res.Stopped = fmt.Sprintf("page %d: %v", page, err)
			break
		}

		res.Papers = append(res.Papers, papers...)
		res.Pages = page

		elapsed := time.Since(start)
		eta := time.Duration(maxPages-page) * (elapsed / time.Duration(page))
		c.logger.Info("page complete",
			"page", fmt.Sprintf("%d/%d", page, maxPages),
			"found", len(papers),
			"total", len(res.Papers),
			"eta", eta.Round(time.Second))

		if page < maxPages {
			if err := sleep(ctx, c.delay); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// FetchPage downloads and parses one feed page.
func (c *Crawler) FetchPage(ctx context.Context, pageURL string) ([]Paper, error) {
	c.logger.Debug("fetching", "url", pageURL)

	var feed *gofeed.Feed
	status := 0
	contentType := ""
	err := requests.URL(pageURL).
		Client(c.httpClient).
		UserAgent(c.userAgent).
		AddValidator(nil).
		Handle(func(res *http.Response) error {
			status = res.StatusCode
			contentType = strings.ToLower(res.Header.Get("Content-Type"))
			if status != http.StatusOK || strings.Contains(contentType, "html") {
				return nil
			}
			var perr error
			feed, perr = gofeed.NewParser().Parse(res.Body)
			return perr
		}).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetching feed: HTTP %d", status)
	}
	if feed == nil {
		return nil, fmt.Errorf("%w (content type %q)", ErrNotFeed, contentType)
	}

	var papers []Paper
	for i, item := range feed.Items {
		p, ok := PaperFromItem(item)
		if !ok {
			c.logger.Debug("skipped item", "n", i+1, "title", shorten(item.Title, 60))
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// BuildPageURL returns the URL of page (1-based). Feeds from the new search
// interface page with page=N; the others use a start= offset.
func BuildPageURL(base string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing feed URL: %w", err)
	}
	q := u.Query()

	if strings.Contains(base, "new-search=true") {
		q.Del("start")
		if page > 1 {
			q.Set("page", strconv.Itoa(page))
		} else {
			q.Del("page")
		}
	} else {
		q.Del("page")
		if page > 1 {
			q.Set("start", strconv.Itoa((page-1)*PageSize))
		} else {
			q.Del("start")
		}
	}
	q.Del("p")

	u.RawQuery = q.Encode()
	return u.String(), nil
}

const (
	kthProxyHost = "focus.lib.kth.se"
	kthSpringer  = "link-springer-com.focus.lib.kth.se"
)

// IsProxyURL reports whether raw points at the KTH library proxy.
func IsProxyURL(raw string) bool {
	return strings.Contains(raw, kthProxyHost)
}

// ConvertProxyURL turns a KTH library proxy URL into the direct Springer
// URL, either by unwrapping its qurl= parameter or by rewriting the host.
func ConvertProxyURL(raw string) string {
	if strings.Contains(raw, "qurl=") {
		u, err := url.Parse(raw)
		if err == nil {
			if target := u.Query().Get("qurl"); target != "" {
				if unescaped, err := url.PathUnescape(target); err == nil {
					return unescaped
				}
				return target
			}
		}
		return raw
	}
	return strings.ReplaceAll(raw, kthSpringer, "link.springer.com")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
