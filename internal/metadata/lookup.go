// Package metadata looks up book details by ISBN from external catalogs
// and backfills them onto library books.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Lookup failure modes callers are expected to branch on. Anything else
// is a transport or decoding failure wrapped with context.
var (
	ErrInvalidISBN = errors.New("invalid ISBN")
	ErrNotFound    = errors.New("no book found for ISBN")
	ErrRateLimited = errors.New("lookup rate limited")
)

// LookupResult is the provider-neutral shape of a successful lookup.
type LookupResult struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	ISBN          string   `json:"isbn"`
	CoverURL      string   `json:"cover_url,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"` // free text, never parsed
	Description   string   `json:"description,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// Provider fetches metadata for one ISBN from a single catalog.
// Implementations return ErrNotFound when the catalog has no record and
// ErrRateLimited when it pushes back.
type Provider interface {
	Name() string
	LookupISBN(ctx context.Context, isbn string) (*LookupResult, error)
}

// Service chains providers in priority order and caches hits so a
// repeated lookup never leaves the process.
type Service struct {
	providers []Provider
	cache     *Cache
}

// NewService builds a lookup service. Cache may be nil to disable
// caching; providers are consulted in the given order.
func NewService(cache *Cache, providers ...Provider) *Service {
	return &Service{providers: providers, cache: cache}
}

// CleanISBN strips separators and validates the length. The X check
// digit is kept uppercase. Returns ErrInvalidISBN for anything that is
// not a plausible ISBN-10 or ISBN-13.
func CleanISBN(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		case r == '-' || r == ' ':
			// separator, skip
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidISBN, raw)
		}
	}
	cleaned := b.String()
	if len(cleaned) != 10 && len(cleaned) != 13 {
		return "", fmt.Errorf("%w: %q", ErrInvalidISBN, raw)
	}
	return cleaned, nil
}

// LookupISBN resolves an ISBN through the cache and then the provider
// chain. A provider miss falls through to the next provider; the walk
// stops early on rate limiting. All providers missing yields
// ErrNotFound.
func (s *Service) LookupISBN(ctx context.Context, rawISBN string) (*LookupResult, error) {
	isbn, err := CleanISBN(rawISBN)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(isbn); ok {
			return cached, nil
		}
	}

	var lastErr error
	for _, p := range s.providers {
		result, err := p.LookupISBN(ctx, isbn)
		if err == nil {
			result.Source = p.Name()
			if result.ISBN == "" {
				result.ISBN = isbn
			}
			if s.cache != nil {
				s.cache.Put(isbn, result)
			}
			return result, nil
		}
		if errors.Is(err, ErrRateLimited) {
			return nil, fmt.Errorf("%s: %w", p.Name(), err)
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		lastErr = fmt.Errorf("%s: %w", p.Name(), err)
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNotFound
}
