// Package loader provides DocumentLoader implementations: web scraping,
// markdown files, and static in-memory lists.
package loader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/minirag/log"
	"github.com/smallnest/minirag/rag"
)

const (
	defaultFetchTimeout = 10 * time.Second
	defaultWorkers      = 5
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// WebLoader scrapes a fixed list of URLs into Documents. URLs are
// fetched concurrently; a URL that fails to fetch or parse is logged and
// omitted rather than failing the batch, so Load only errors when the
// loader itself cannot run.
type WebLoader struct {
	urls      []string
	client    *http.Client
	sanitizer *bluemonday.Policy
	workers   int
	userAgent string
	logger    log.Logger
}

// WebLoaderOption configures the WebLoader.
type WebLoaderOption func(*WebLoader)

// WithHTTPClient replaces the HTTP client, useful for tests.
func WithHTTPClient(client *http.Client) WebLoaderOption {
	return func(l *WebLoader) {
		l.client = client
	}
}

// WithWorkers sets the number of concurrent fetchers.
func WithWorkers(n int) WebLoaderOption {
	return func(l *WebLoader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) WebLoaderOption {
	return func(l *WebLoader) {
		l.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) WebLoaderOption {
	return func(l *WebLoader) {
		l.logger = logger
	}
}

// NewWebLoader creates a loader for the given URLs.
func NewWebLoader(urls []string, opts ...WebLoaderOption) *WebLoader {
	l := &WebLoader{
		urls:      urls,
		client:    &http.Client{Timeout: defaultFetchTimeout},
		sanitizer: bluemonday.StrictPolicy(),
		workers:   defaultWorkers,
		userAgent: defaultUserAgent,
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches all URLs and returns the successfully scraped documents
// in the original URL order.
func (l *WebLoader) Load(ctx context.Context) ([]rag.Document, error) {
	if len(l.urls) == 0 {
		return nil, nil
	}

	type slot struct {
		doc rag.Document
		ok  bool
	}
	slots := make([]slot, len(l.urls))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := l.workers
	if workers > len(l.urls) {
		workers = len(l.urls)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				doc, err := l.scrape(ctx, l.urls[i])
				if err != nil {
					l.logger.Warn("skipping %s: %v", l.urls[i], err)
					continue
				}
				slots[i] = slot{doc: doc, ok: true}
			}
		}()
	}

	for i := range l.urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	documents := make([]rag.Document, 0, len(l.urls))
	for _, s := range slots {
		if s.ok {
			documents = append(documents, s.doc)
		}
	}
	l.logger.Info("scraped %d of %d URLs", len(documents), len(l.urls))
	return documents, nil
}

// scrape fetches one URL and extracts its title plus the text of heading
// and paragraph elements.
func (l *WebLoader) scrape(ctx context.Context, url string) (rag.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rag.Document{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return rag.Document{}, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rag.Document{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return rag.Document{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = url
	}

	var parts []string
	doc.Find("h1, h2, h3, h4, h5, h6, p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(l.sanitizer.Sanitize(sel.Text()))
		if text != "" {
			parts = append(parts, text)
		}
	})
	content := strings.Join(parts, "\n")
	if content == "" {
		return rag.Document{}, fmt.Errorf("no extractable text")
	}

	return rag.Document{
		Source:  url,
		Title:   title,
		Content: content,
		Metadata: map[string]any{
			"url":         url,
			"scrape_date": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
