package importers

import (
	"fmt"
	"io"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// Catalog is the slice of the book store imports write through.
type Catalog interface {
	Create(book *entities.Book) error
	ByISBN(isbn string) (*entities.Book, error)
	ReplaceAuthors(bookID uint, authors []entities.Author) error
	ReplaceTags(bookID uint, tagList []entities.Tag) error
}

// AuthorRegistry resolves author names to records.
type AuthorRegistry interface {
	FindOrCreate(name string) (*entities.Author, error)
}

// TagRegistry resolves tag names to canonical records.
type TagRegistry interface {
	FindOrCreate(name string) (*entities.Tag, error)
}

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// LibraryImporter loads a library CSV into the catalog, resolving
// author and tag names through their registries so imports share
// records with the rest of the library.
type LibraryImporter struct {
	catalog Catalog
	authors AuthorRegistry
	tags    TagRegistry
}

// NewLibraryImporter creates an importer over the given stores.
func NewLibraryImporter(catalog Catalog, authors AuthorRegistry, tags TagRegistry) *LibraryImporter {
	return &LibraryImporter{catalog: catalog, authors: authors, tags: tags}
}

// Import parses and loads a library CSV. Rows whose ISBN is already in
// the catalog are skipped as duplicates; row-level failures are
// collected and do not stop the run.
func (imp *LibraryImporter) Import(r io.Reader) (*ImportResult, error) {
	rows, parseErrors, err := ParseLibraryCSV(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Total:  len(rows),
		Errors: parseErrors,
	}

	for _, row := range rows {
		if row.ISBN != "" {
			existing, err := imp.catalog.ByISBN(row.ISBN)
			if err != nil {
				return result, fmt.Errorf("duplicate check for %q: %w", row.Title, err)
			}
			if existing != nil {
				result.Skipped++
				continue
			}
		}

		if err := imp.importRow(row); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.Title, err))
			continue
		}
		result.Imported++
	}

	return result, nil
}

func (imp *LibraryImporter) importRow(row LibraryCSVRow) error {
	book := row.Book()
	if err := imp.catalog.Create(&book); err != nil {
		return err
	}

	var bookAuthors []entities.Author
	for _, name := range SplitList(row.Authors) {
		author, err := imp.authors.FindOrCreate(name)
		if err != nil {
			return fmt.Errorf("author %q: %w", name, err)
		}
		if author != nil {
			bookAuthors = append(bookAuthors, *author)
		}
	}
	if len(bookAuthors) > 0 {
		if err := imp.catalog.ReplaceAuthors(book.ID, bookAuthors); err != nil {
			return err
		}
	}

	var bookTags []entities.Tag
	for _, name := range SplitList(row.Tags) {
		tag, err := imp.tags.FindOrCreate(name)
		if err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		if tag != nil {
			bookTags = append(bookTags, *tag)
		}
	}
	if len(bookTags) > 0 {
		if err := imp.catalog.ReplaceTags(book.ID, bookTags); err != nil {
			return err
		}
	}

	return nil
}
