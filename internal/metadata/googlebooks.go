package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GoogleBooksClient fetches book metadata from the Google Books volumes
// API. It is the fallback provider for ISBNs OpenLibrary does not know.
type GoogleBooksClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

// NewGoogleBooksClient creates a new Google Books client with rate
// limiting.
func NewGoogleBooksClient() *GoogleBooksClient {
	return &GoogleBooksClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     "https://www.googleapis.com",
		rateLimiter: newRateLimiter(time.Second),
	}
}

func (c *GoogleBooksClient) Name() string {
	return "googlebooks"
}

// LookupISBN queries the volumes API with an isbn: term and converts
// the first hit.
func (c *GoogleBooksClient) LookupISBN(ctx context.Context, isbn string) (*LookupResult, error) {
	c.rateLimiter.wait()

	endpoint := fmt.Sprintf("%s/books/v1/volumes?q=%s", c.baseURL, url.QueryEscape("isbn:"+isbn))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

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

	var payload googleVolumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if payload.TotalItems == 0 || len(payload.Items) == 0 {
		return nil, ErrNotFound
	}

	info := payload.Items[0].VolumeInfo
	result := &LookupResult{
		Title:         info.Title,
		Authors:       info.Authors,
		ISBN:          isbn,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		PageCount:     info.PageCount,
	}
	if info.Subtitle != "" {
		result.Title = info.Title + ": " + info.Subtitle
	}

	// Thumbnails come back over plain http; upgrade so covers load in
	// https-only contexts.
	if info.ImageLinks.Thumbnail != "" {
		result.CoverURL = strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1)
	}

	return result, nil
}

// Google Books API response types (internal)

type googleVolumesResponse struct {
	TotalItems int            `json:"totalItems"`
	Items      []googleVolume `json:"items"`
}

type googleVolume struct {
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title         string           `json:"title"`
	Subtitle      string           `json:"subtitle"`
	Authors       []string         `json:"authors"`
	Publisher     string           `json:"publisher"`
	PublishedDate string           `json:"publishedDate"`
	Description   string           `json:"description"`
	PageCount     int              `json:"pageCount"`
	ImageLinks    googleImageLinks `json:"imageLinks"`
}

type googleImageLinks struct {
	Thumbnail string `json:"thumbnail"`
}
