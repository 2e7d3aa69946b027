package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// Catalog is the slice of the book store enrichment needs.
type Catalog interface {
	ByID(id uint) (*entities.Book, error)
	UpdateMetadata(id uint, fields map[string]any) error
	MissingMetadata(limit int) ([]entities.Book, error)
}

// EnrichmentResult describes what one enrichment run changed.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
	Source        string         `json:"source,omitempty"`
}

// Enricher backfills looked-up metadata onto catalog books. Only empty
// fields are filled; values the user entered are never overwritten.
type Enricher struct {
	lookup  *Service
	catalog Catalog
}

// NewEnricher creates an enricher over the lookup service and catalog.
func NewEnricher(lookup *Service, catalog Catalog) *Enricher {
	return &Enricher{lookup: lookup, catalog: catalog}
}

// EnrichBook looks up the book's ISBN and fills its empty metadata
// fields. A book without an ISBN, or an ISBN no catalog knows, is
// skipped with no fields updated.
func (e *Enricher) EnrichBook(ctx context.Context, bookID uint) (*EnrichmentResult, error) {
	book, err := e.catalog.ByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book.ISBN == "" {
		return &EnrichmentResult{Book: book}, nil
	}

	lookedUp, err := e.lookup.LookupISBN(ctx, book.ISBN)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidISBN) {
			return &EnrichmentResult{Book: book}, nil
		}
		return nil, fmt.Errorf("lookup: %w", err)
	}

	updates, fieldsUpdated := buildUpdates(book, lookedUp)
	if len(fieldsUpdated) > 0 {
		if err := e.catalog.UpdateMetadata(bookID, updates); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}
		book, err = e.catalog.ByID(bookID)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: fieldsUpdated,
		Source:        lookedUp.Source,
	}, nil
}

// BulkEnrichmentResult summarizes an enrich-all run.
type BulkEnrichmentResult struct {
	TotalBooks int      `json:"total_books"`
	Enriched   int      `json:"enriched"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// EnrichAllMissing walks every book with an ISBN but incomplete
// metadata. Individual failures are collected, not fatal; cancellation
// stops the walk and returns what was done so far.
func (e *Enricher) EnrichAllMissing(ctx context.Context) (*BulkEnrichmentResult, error) {
	candidates, err := e.catalog.MissingMetadata(0)
	if err != nil {
		return nil, fmt.Errorf("find books missing metadata: %w", err)
	}

	result := &BulkEnrichmentResult{TotalBooks: len(candidates)}
	for _, book := range candidates {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		enriched, err := e.EnrichBook(ctx, book.ID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", book.Title, err))
			continue
		}
		if len(enriched.FieldsUpdated) > 0 {
			result.Enriched++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// buildUpdates selects the looked-up values for fields the book has
// empty, keyed by column name.
func buildUpdates(book *entities.Book, lookedUp *LookupResult) (map[string]any, []string) {
	updates := make(map[string]any)
	var fields []string

	set := func(column string, current bool, value any) {
		if current {
			return
		}
		updates[column] = value
		fields = append(fields, column)
	}

	if lookedUp.CoverURL != "" {
		set("cover_url", book.CoverURL != "", lookedUp.CoverURL)
	}
	if lookedUp.Publisher != "" {
		set("publisher", book.Publisher != "", lookedUp.Publisher)
	}
	if lookedUp.PublishedDate != "" {
		set("published_date", book.PublishedDate != "", lookedUp.PublishedDate)
	}
	if lookedUp.Description != "" {
		set("description", book.Description != "", lookedUp.Description)
	}
	if lookedUp.PageCount > 0 {
		set("page_count", book.PageCount != 0, lookedUp.PageCount)
	}

	if len(fields) == 0 {
		return nil, nil
	}
	return updates, fields
}
