package importers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// LibraryCSVRow represents a single row of a library CSV file, the
// format Export writes and Import reads back.
type LibraryCSVRow struct {
	Title         string
	Authors       string // semicolon-separated
	ISBN          string
	Status        string
	Rating        string
	Tags          string // semicolon-separated display names
	Publisher     string
	PublishedDate string
	PageCount     string
	DateAdded     string
	DateStarted   string
	DateFinished  string
	Description   string
}

// LibraryCSVColumns is the canonical header order.
var LibraryCSVColumns = []string{
	"title", "authors", "isbn", "status", "rating", "tags",
	"publisher", "published_date", "page_count",
	"date_added", "date_started", "date_finished", "description",
}

// ParseLibraryCSV parses a library CSV file. Returns the parsed rows,
// per-line errors for rows that were skipped, and a fatal error if the
// file itself is unreadable.
func ParseLibraryCSV(r io.Reader) ([]LibraryCSVRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	if _, ok := headerIndex["title"]; !ok {
		return nil, nil, fmt.Errorf("missing required header: title")
	}

	var rows []LibraryCSVRow
	var parseErrors []string
	lineNum := 1 // header already read

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}

		row := LibraryCSVRow{
			Title:         getCSVValue(record, headerIndex, "title"),
			Authors:       getCSVValue(record, headerIndex, "authors"),
			ISBN:          getCSVValue(record, headerIndex, "isbn"),
			Status:        getCSVValue(record, headerIndex, "status"),
			Rating:        getCSVValue(record, headerIndex, "rating"),
			Tags:          getCSVValue(record, headerIndex, "tags"),
			Publisher:     getCSVValue(record, headerIndex, "publisher"),
			PublishedDate: getCSVValue(record, headerIndex, "published_date"),
			PageCount:     getCSVValue(record, headerIndex, "page_count"),
			DateAdded:     getCSVValue(record, headerIndex, "date_added"),
			DateStarted:   getCSVValue(record, headerIndex, "date_started"),
			DateFinished:  getCSVValue(record, headerIndex, "date_finished"),
			Description:   getCSVValue(record, headerIndex, "description"),
		}

		if row.Title == "" {
			parseErrors = append(parseErrors, fmt.Sprintf("Line %d: skipped - missing title", lineNum))
			continue
		}

		rows = append(rows, row)
	}

	return rows, parseErrors, nil
}

// Book converts the row to a catalog entity, leaving authors and tags
// for the caller to resolve. Unknown statuses fall back to "to read";
// out-of-range ratings are dropped.
func (row LibraryCSVRow) Book() entities.Book {
	book := entities.Book{
		Title:         row.Title,
		ISBN:          row.ISBN,
		Publisher:     row.Publisher,
		PublishedDate: row.PublishedDate,
		Description:   row.Description,
		Status:        entities.StatusToRead,
	}

	if status := entities.ReadingStatus(row.Status); status.Valid() {
		book.Status = status
	}
	if rating, err := strconv.Atoi(row.Rating); err == nil && rating >= 1 && rating <= 5 {
		book.Rating = rating
	}
	if pages, err := strconv.Atoi(row.PageCount); err == nil && pages > 0 {
		book.PageCount = pages
	}
	if t, ok := parseCSVDate(row.DateAdded); ok {
		book.DateAdded = t
	}
	if t, ok := parseCSVDate(row.DateStarted); ok {
		book.DateStarted = &t
	}
	if t, ok := parseCSVDate(row.DateFinished); ok {
		book.DateFinished = &t
	}

	return book
}

// SplitList splits a semicolon-separated CSV cell into trimmed,
// non-empty items.
func SplitList(cell string) []string {
	var items []string
	for _, part := range strings.Split(cell, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func parseCSVDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
