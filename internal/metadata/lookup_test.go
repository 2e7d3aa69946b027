package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"978-0-13-468599-1", "9780134685991", false},
		{"0-13-468599-6", "0134685996", false},
		{"978 0 13 468599 1", "9780134685991", false},
		{"  9780134685991  ", "9780134685991", false},
		{"080442957x", "080442957X", false},
		{"123", "", true},
		{"12345678901234", "", true},
		{"", "", true},
		{"not-an-isbn", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cleaned, err := CleanISBN(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidISBN)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cleaned)
		})
	}
}

func testOpenLibraryClient(baseURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: time.Second},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(0),
	}
}

func testGoogleBooksClient(baseURL string) *GoogleBooksClient {
	return &GoogleBooksClient{
		httpClient:  &http.Client{Timeout: time.Second},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(0),
	}
}

func TestOpenLibraryClient_LookupISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/books", r.URL.Path)
		require.Equal(t, "ISBN:9780441172719", r.URL.Query().Get("bibkeys"))

		payload := map[string]openLibraryRecord{
			"ISBN:9780441172719": {
				Title:         "Dune",
				Authors:       []openLibraryAuthor{{Name: "Frank Herbert"}},
				Publishers:    []openLibraryNamed{{Name: "Ace Books"}},
				PublishDate:   "1990",
				NumberOfPages: 412,
				Cover:         openLibraryCover{Large: "https://covers.example/large.jpg"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := testOpenLibraryClient(server.URL)
	result, err := client.LookupISBN(context.Background(), "9780441172719")

	require.NoError(t, err)
	assert.Equal(t, "Dune", result.Title)
	assert.Equal(t, []string{"Frank Herbert"}, result.Authors)
	assert.Equal(t, "Ace Books", result.Publisher)
	assert.Equal(t, "1990", result.PublishedDate)
	assert.Equal(t, 412, result.PageCount)
	assert.Equal(t, "https://covers.example/large.jpg", result.CoverURL)
}

func TestOpenLibraryClient_EmptyResponseIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := testOpenLibraryClient(server.URL)
	_, err := client.LookupISBN(context.Background(), "9780441172719")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenLibraryClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testOpenLibraryClient(server.URL)
	_, err := client.LookupISBN(context.Background(), "9780441172719")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestOpenLibraryClient_CoverFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]openLibraryRecord{
			"ISBN:9780441172719": {Title: "Dune"},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := testOpenLibraryClient(server.URL)
	result, err := client.LookupISBN(context.Background(), "9780441172719")
	require.NoError(t, err)
	assert.Equal(t, "https://covers.openlibrary.org/b/isbn/9780441172719-L.jpg", result.CoverURL)
}

func TestGoogleBooksClient_LookupISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/books/v1/volumes", r.URL.Path)
		require.Equal(t, "isbn:9780441172719", r.URL.Query().Get("q"))

		payload := googleVolumesResponse{
			TotalItems: 1,
			Items: []googleVolume{{
				VolumeInfo: googleVolumeInfo{
					Title:         "Dune",
					Authors:       []string{"Frank Herbert"},
					Publisher:     "Ace Books",
					PublishedDate: "1990-09-01",
					PageCount:     412,
					ImageLinks:    googleImageLinks{Thumbnail: "http://books.google.com/cover.jpg"},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := testGoogleBooksClient(server.URL)
	result, err := client.LookupISBN(context.Background(), "9780441172719")

	require.NoError(t, err)
	assert.Equal(t, "Dune", result.Title)
	// Thumbnails are upgraded to https
	assert.Equal(t, "https://books.google.com/cover.jpg", result.CoverURL)
}

func TestGoogleBooksClient_NoItemsIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalItems": 0}`))
	}))
	defer server.Close()

	client := testGoogleBooksClient(server.URL)
	_, err := client.LookupISBN(context.Background(), "9780441172719")
	assert.ErrorIs(t, err, ErrNotFound)
}

// fakeProvider scripts one provider's response for service chain tests.
type fakeProvider struct {
	name   string
	result *LookupResult
	err    error
	calls  int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) LookupISBN(ctx context.Context, isbn string) (*LookupResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func TestService_FallsThroughToSecondProvider(t *testing.T) {
	primary := &fakeProvider{name: "openlibrary", err: ErrNotFound}
	fallback := &fakeProvider{name: "googlebooks", result: &LookupResult{Title: "Dune"}}
	service := NewService(nil, primary, fallback)

	result, err := service.LookupISBN(context.Background(), "9780441172719")
	require.NoError(t, err)
	assert.Equal(t, "Dune", result.Title)
	assert.Equal(t, "googlebooks", result.Source)
	assert.Equal(t, "9780441172719", result.ISBN)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestService_RateLimitStopsChain(t *testing.T) {
	primary := &fakeProvider{name: "openlibrary", err: ErrRateLimited}
	fallback := &fakeProvider{name: "googlebooks", result: &LookupResult{Title: "Dune"}}
	service := NewService(nil, primary, fallback)

	_, err := service.LookupISBN(context.Background(), "9780441172719")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Zero(t, fallback.calls)
}

func TestService_AllMissesIsNotFound(t *testing.T) {
	service := NewService(nil,
		&fakeProvider{name: "a", err: ErrNotFound},
		&fakeProvider{name: "b", err: ErrNotFound},
	)

	_, err := service.LookupISBN(context.Background(), "9780441172719")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_TransportErrorSurfaces(t *testing.T) {
	service := NewService(nil,
		&fakeProvider{name: "a", err: errors.New("connection refused")},
		&fakeProvider{name: "b", err: ErrNotFound},
	)

	_, err := service.LookupISBN(context.Background(), "9780441172719")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestService_InvalidISBNSkipsProviders(t *testing.T) {
	provider := &fakeProvider{name: "a", result: &LookupResult{Title: "Dune"}}
	service := NewService(nil, provider)

	_, err := service.LookupISBN(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidISBN)
	assert.Zero(t, provider.calls)
}

func TestService_CacheSkipsProviders(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	provider := &fakeProvider{name: "openlibrary", result: &LookupResult{Title: "Dune"}}
	service := NewService(cache, provider)

	_, err = service.LookupISBN(context.Background(), "978-0-441-17271-9")
	require.NoError(t, err)
	_, err = service.LookupISBN(context.Background(), "9780441172719")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
}

func TestCache_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := NewCache(dir)
	require.NoError(t, err)
	first.Put("9780441172719", &LookupResult{Title: "Dune", ISBN: "9780441172719"})

	// A fresh instance over the same directory sees the disk entry
	second, err := NewCache(dir)
	require.NoError(t, err)
	cached, ok := second.Get("9780441172719")
	require.True(t, ok)
	assert.Equal(t, "Dune", cached.Title)
}

func TestCache_Clear(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	cache.Put("9780441172719", &LookupResult{Title: "Dune"})
	require.NoError(t, cache.Clear())

	_, ok := cache.Get("9780441172719")
	assert.False(t, ok)
}
