// Package websearch implements the external search provider: an
// unauthenticated GET against the DuckDuckGo HTML results page, parsed
// into title/url/snippet entries, plus bounded page-body fetches.
package websearch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/metrics"
)

const (
	defaultBaseURL = "https://html.duckduckgo.com/html/"
	maxResultsPage = 10
	// maxPageBytes bounds how much of a result page is read before
	// HTML stripping; the char budget is applied to the stripped text.
	maxPageBytes = 512 * 1024
)

var (
	resultLinkRe    = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	resultSnippetRe = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	htmlTagRe       = regexp.MustCompile(`<[^>]*>`)
	multiSpaceRe    = regexp.MustCompile(`[ \t]*\n[\s]*|[ \t]{2,}`)
)

// Client is a DuckDuckGo HTML search client. No API key is required.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	logger    *zap.Logger
}

// Config holds search client settings.
type Config struct {
	BaseURL   string // defaults to the DuckDuckGo HTML endpoint
	UserAgent string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// New creates a search client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

var _ domain.WebSearcher = (*Client)(nil)

// Search runs one query against the results page and parses the hits.
func (c *Client) Search(ctx context.Context, query string) ([]domain.WebResult, error) {
	reqURL := c.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build search request: %v", domain.ErrToolExecution, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.WebSearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: search request: %v", domain.ErrToolExecution, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.WebSearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: search provider returned %d", domain.ErrToolExecution, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		metrics.WebSearchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: read search response: %v", domain.ErrToolExecution, err)
	}

	results := parseResults(string(body))
	if len(results) == 0 {
		metrics.WebSearchesTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}
	metrics.WebSearchesTotal.WithLabelValues("success").Inc()
	return results, nil
}

// FetchPage downloads one result page and returns its visible text
// truncated to maxChars.
func (c *Client) FetchPage(ctx context.Context, pageURL string, maxChars int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build page request: %v", domain.ErrToolExecution, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PageFetchesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: fetch page: %v", domain.ErrToolExecution, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.PageFetchesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: page returned %d", domain.ErrToolExecution, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		metrics.PageFetchesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: read page: %v", domain.ErrToolExecution, err)
	}

	text := stripHTML(string(body))
	if len(text) < 50 {
		metrics.PageFetchesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: page too short after stripping HTML (%d chars)", domain.ErrToolExecution, len(text))
	}
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	metrics.PageFetchesTotal.WithLabelValues("success").Inc()
	return text, nil
}

// parseResults pairs result links with snippets by document order.
func parseResults(body string) []domain.WebResult {
	links := resultLinkRe.FindAllStringSubmatch(body, maxResultsPage)
	snippets := resultSnippetRe.FindAllStringSubmatch(body, maxResultsPage)

	results := make([]domain.WebResult, 0, len(links))
	for i, m := range links {
		title := cleanFragment(m[2])
		href := resolveRedirect(html.UnescapeString(m[1]))
		if title == "" || href == "" {
			continue
		}
		r := domain.WebResult{Title: title, URL: href}
		if i < len(snippets) {
			r.Snippet = cleanFragment(snippets[i][1])
		}
		results = append(results, r)
	}
	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func cleanFragment(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// stripHTML converts a page to rough plain text.
func stripHTML(text string) string {
	for _, tag := range []string{"script", "style", "nav", "footer", "header"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		text = re.ReplaceAllString(text, " ")
	}
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = multiSpaceRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
