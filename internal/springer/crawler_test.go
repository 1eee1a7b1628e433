package springer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/litreview/lit/internal/export"
	"github.com/mmcdole/gofeed"
)

const firstPage = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Search results</title>
<item>
  <title>Graph &lt;i&gt;Kernels&lt;/i&gt;   for "Proteins"</title>
  <guid>10.1007/s10994-023-1</guid>
  <pubDate>Tue, 14 Mar 2023 00:00:00 GMT</pubDate>
</item>
<item>
  <title>Missing identifier</title>
</item>
<item>
  <title>Second {Paper}</title>
  <guid isPermaLink="false">https://link.springer.com/article/10.1186/abc-12?src=rss</guid>
  <pubDate>Wed, 01 Feb 2022 00:00:00 GMT</pubDate>
</item>
</channel></rss>`

const emptyPage = `<?xml version="1.0"?><rss version="2.0"><channel><title>Search results</title></channel></rss>`

func TestCrawl(t *testing.T) {
	var requested []string
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.RawQuery)
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		if r.URL.Query().Get("start") == "" {
			w.Write([]byte(firstPage))
			return
		}
		w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	c, err := NewCrawler("lit-test", WithDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Crawl(context.Background(), srv.URL+"/search.rss?query=graphs", 5)
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	if len(requested) != 2 || requested[1] != "query=graphs&start=20" {
		t.Errorf("requested = %v", requested)
	}
	if userAgent != "lit-test" {
		t.Errorf("User-Agent = %q", userAgent)
	}
	if res.Pages != 1 || res.Stopped == "" {
		t.Errorf("Pages = %d, Stopped = %q", res.Pages, res.Stopped)
	}

	want := []Paper{
		{DOI: "10.1007/s10994-023-1", Title: "Graph Kernels for 'Proteins'", Year: "2023", PubDate: "Tue, 14 Mar 2023 00:00:00 GMT"},
		{DOI: "10.1186/abc-12", Title: "Second Paper", Year: "2022", PubDate: "Wed, 01 Feb 2022 00:00:00 GMT"},
	}
	if len(res.Papers) != len(want) {
		t.Fatalf("Papers = %+v", res.Papers)
	}
	for i := range want {
		if res.Papers[i] != want[i] {
			t.Errorf("Papers[%d] = %+v, want %+v", i, res.Papers[i], want[i])
		}
	}
}

func TestFetchPage_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Please log in</body></html>"))
	}))
	defer srv.Close()

	c, err := NewCrawler("lit-test", WithDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FetchPage(context.Background(), srv.URL); !errors.Is(err, ErrNotFeed) {
		t.Errorf("FetchPage() error = %v, want ErrNotFeed", err)
	}

	res, err := c.Crawl(context.Background(), srv.URL, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Papers) != 0 || res.Pages != 0 {
		t.Errorf("Crawl() = %+v, want no papers", res)
	}
}

func TestNewCrawler_RequiresUserAgent(t *testing.T) {
	for _, ua := range []string{"", "   "} {
		if _, err := NewCrawler(ua); !errors.Is(err, ErrNoUserAgent) {
			t.Errorf("NewCrawler(%q) error = %v, want ErrNoUserAgent", ua, err)
		}
	}
}

func TestBuildPageURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		page int
		want string
	}{
		{"new search first page", "https://link.springer.com/search.rss?query=x&new-search=true&p=3&start=40", 1,
			"https://link.springer.com/search.rss?new-search=true&query=x"},
		{"new search later page", "https://link.springer.com/search.rss?query=x&new-search=true", 2,
			"https://link.springer.com/search.rss?new-search=true&page=2&query=x"},
		{"offset paging", "https://link.springer.com/search.rss?query=x&page=4", 3,
			"https://link.springer.com/search.rss?query=x&start=40"},
		{"offset first page", "https://link.springer.com/search.rss?query=x&start=60", 1,
			"https://link.springer.com/search.rss?query=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPageURL(tt.base, tt.page)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("BuildPageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertProxyURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://login.focus.lib.kth.se/login?qurl=https%3A%2F%2Flink.springer.com%2Fsearch.rss%3Fquery%3Dx",
			"https://link.springer.com/search.rss?query=x"},
		{"https://link-springer-com.focus.lib.kth.se/search.rss?query=x",
			"https://link.springer.com/search.rss?query=x"},
		{"https://link.springer.com/search.rss", "https://link.springer.com/search.rss"},
	}
	for _, tt := range tests {
		if got := ConvertProxyURL(tt.in); got != tt.want {
			t.Errorf("ConvertProxyURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if !IsProxyURL(tests[1].in) || IsProxyURL(tests[2].in) {
		t.Error("IsProxyURL() mismatch")
	}
}

func TestPaperFromItem(t *testing.T) {
	if _, ok := PaperFromItem(&gofeed.Item{Title: "  ", GUID: "10.1007/x"}); ok {
		t.Error("blank title accepted")
	}
	p, ok := PaperFromItem(&gofeed.Item{Title: "T", GUID: "urn:item:7", Published: "sometime"})
	if !ok || p.DOI != "urn:item:7" || p.Year != "" {
		t.Errorf("PaperFromItem() = %+v, %v", p, ok)
	}
}

func TestRecordsAndSummary(t *testing.T) {
	papers := []Paper{
		{DOI: "10.1007/a", Title: "A", Year: "2023"},
		{DOI: "10.1007/b", Title: "B"},
	}

	var buf bytes.Buffer
	if err := export.WriteBibTeX(&buf, Records(papers)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"@article{springer2023_001,\n  title={A},\n  year={2023},\n  doi={10.1007/a},\n  publisher={Springer},\n  note={Crawled from Springer RSS feed}\n}\n\n",
		"@article{springer2024_002,\n  title={B},\n  doi={10.1007/b},",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("BibTeX output missing %q:\n%s", want, out)
		}
	}

	s := Summarize(papers)
	if s.Total != 2 || s.WithDOI != 2 || s.DOIPercent != 100 {
		t.Errorf("Summarize() = %+v", s)
	}
	if len(s.Years) != 2 || s.Years[0].Year != "2023" || s.Years[1].Year != "Unknown" {
		t.Errorf("Years = %+v", s.Years)
	}
	if len(Summarize(nil).Sample) != 0 {
		t.Error("empty summary should have no sample")
	}
}
