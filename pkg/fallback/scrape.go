package fallback

import (
	"bytes"
	"context"
	"html"
	"net/http"
	"regexp"
	"strings"
)

// Fetcher performs HTTP GET requests for the scrape layer.
type Fetcher interface {
	// Get returns the status code and body of url. Non-2xx statuses are
	// not errors.
	Get(ctx context.Context, url string, headers map[string]string) (status int, body []byte, err error)
}

// Scraped is the outcome of scraping one URL.
type Scraped struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
}

var (
	ogTitleRe = regexp.MustCompile(`og:title.+?content=(?:"(.+?)"|'(.+?)')[ />]`)
	titleRe   = regexp.MustCompile(`<title[^>]*>(.+?)</title>`)
)

// ExtractTitle reads the title of an HTML page: the first og:title meta
// content, else the first <title>. Only the document head is inspected.
// The result is HTML-entity decoded.
func ExtractTitle(page []byte) string {
	head, _, _ := bytes.Cut(page, []byte("</head>"))
	s := strings.NewReplacer("\n", "", "\r", "").Replace(string(head))

	var title string
	if strings.Contains(s, "og:title") {
		if m := ogTitleRe.FindStringSubmatch(s); m != nil {
			title = m[1]
			if title == "" {
				title = m[2]
			}
			title = strings.Trim(title, ` />"'`)
		}
	}
	if title == "" && strings.Contains(s, "<title") {
		if m := titleRe.FindStringSubmatch(s); m != nil {
			title = strings.TrimSpace(m[1])
		}
	}
	return html.UnescapeString(title)
}

// Scrape fetches url and extracts its title. Only a 200 response is
// inspected. Failures yield an empty title, never an error. Results are
// memoized per URL in memo.
func (r *Resolver) Scrape(ctx context.Context, url string, memo *Memo) Scraped {
	if s, ok := memo.scrape(url); ok {
		return s
	}
	s := r.scrape(ctx, url)
	memo.setScrape(url, s)
	return s
}

func (r *Resolver) scrape(ctx context.Context, url string) Scraped {
	if r.Fetcher == nil || url == "" {
		return Scraped{}
	}
	if r.ScrapeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ScrapeTimeout)
		defer cancel()
	}
	status, body, err := r.Fetcher.Get(ctx, url, r.ScrapeHeaders)
	if err != nil {
		r.log().Debug("scrape failed", "url", url, "err", err)
		return Scraped{Status: status}
	}
	if status != http.StatusOK {
		r.log().Debug("scrape skipped", "url", url, "status", status)
		return Scraped{Status: status}
	}
	return Scraped{Status: status, Title: ExtractTitle(body)}
}
