// Package exporters writes library data to interchange formats.
package exporters

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/readingtracker/internal/entities"
	"github.com/mrlokans/readingtracker/internal/importers"
)

// ExportLibraryCSV writes the books as a library CSV, the same format
// the importer reads, so an export can be round-tripped into another
// install.
func ExportLibraryCSV(w io.Writer, books []entities.Book) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(importers.LibraryCSVColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range books {
		if err := writer.Write(bookRecord(&books[i])); err != nil {
			return fmt.Errorf("write row for %q: %w", books[i].Title, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func bookRecord(book *entities.Book) []string {
	tagNames := make([]string, 0, len(book.Tags))
	for _, t := range book.Tags {
		tagNames = append(tagNames, t.DisplayName)
	}

	authorNames := make([]string, 0, len(book.Authors))
	for _, a := range book.Authors {
		authorNames = append(authorNames, a.Name)
	}

	rating := ""
	if book.Rating > 0 {
		rating = strconv.Itoa(book.Rating)
	}
	pageCount := ""
	if book.PageCount > 0 {
		pageCount = strconv.Itoa(book.PageCount)
	}

	return []string{
		book.Title,
		strings.Join(authorNames, "; "),
		book.ISBN,
		string(book.Status),
		rating,
		strings.Join(tagNames, "; "),
		book.Publisher,
		book.PublishedDate,
		pageCount,
		formatDate(&book.DateAdded),
		formatDate(book.DateStarted),
		formatDate(book.DateFinished),
		book.Description,
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
