package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const openLibraryUserAgent = "ReadingTracker/1.0 (https://github.com/mrlokans/readingtracker)"

// OpenLibraryClient fetches book metadata from the OpenLibrary Books
// API. It is the primary lookup provider.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates a new OpenLibrary client with rate
// limiting.
func NewOpenLibraryClient() *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     "https://openlibrary.org",
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

func (c *OpenLibraryClient) Name() string {
	return "openlibrary"
}

// LookupISBN queries the Books API for one ISBN. The response keys
// results by bibkey; an empty object means the catalog has no record.
func (c *OpenLibraryClient) LookupISBN(ctx context.Context, isbn string) (*LookupResult, error) {
	c.rateLimiter.wait()

	bibkey := "ISBN:" + isbn
	endpoint := fmt.Sprintf("%s/api/books?bibkeys=%s&format=json&jscmd=data", c.baseURL, url.QueryEscape(bibkey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", openLibraryUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ISBN data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload map[string]openLibraryRecord
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	record, ok := payload[bibkey]
	if !ok {
		return nil, ErrNotFound
	}

	return c.convert(&record, isbn), nil
}

func (c *OpenLibraryClient) convert(record *openLibraryRecord, isbn string) *LookupResult {
	result := &LookupResult{
		Title:         record.Title,
		ISBN:          isbn,
		PublishedDate: record.PublishDate,
		PageCount:     record.NumberOfPages,
	}
	if record.Subtitle != "" {
		result.Title = record.Title + ": " + record.Subtitle
	}

	for _, a := range record.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			result.Authors = append(result.Authors, name)
		}
	}
	if len(record.Publishers) > 0 {
		result.Publisher = record.Publishers[0].Name
	}

	// Prefer the largest cover on offer; fall back to the ISBN-keyed
	// covers endpoint.
	switch {
	case record.Cover.Large != "":
		result.CoverURL = record.Cover.Large
	case record.Cover.Medium != "":
		result.CoverURL = record.Cover.Medium
	case record.Cover.Small != "":
		result.CoverURL = record.Cover.Small
	default:
		result.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
	}

	if len(record.Excerpts) > 0 {
		result.Description = record.Excerpts[0].Text
	}

	return result
}

// OpenLibrary Books API response types (internal)

type openLibraryRecord struct {
	Title         string              `json:"title"`
	Subtitle      string              `json:"subtitle"`
	Authors       []openLibraryAuthor `json:"authors"`
	Publishers    []openLibraryNamed  `json:"publishers"`
	PublishDate   string              `json:"publish_date"`
	NumberOfPages int                 `json:"number_of_pages"`
	Cover         openLibraryCover    `json:"cover"`
	Excerpts      []openLibraryText   `json:"excerpts"`
}

type openLibraryAuthor struct {
	Name string `json:"name"`
}

type openLibraryNamed struct {
	Name string `json:"name"`
}

type openLibraryCover struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type openLibraryText struct {
	Text string `json:"text"`
}
