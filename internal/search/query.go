package search

import (
	"strings"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// DefaultPageSize is the browse-mode page length.
const DefaultPageSize = 10

// TagMode selects how multiple selected tags combine. With fewer than
// two selected tags the modes are equivalent.
type TagMode string

const (
	TagModeAnd TagMode = "and" // book must carry every selected tag
	TagModeOr  TagMode = "or"  // book must carry at least one selected tag
)

// SortField is one of the user-selectable orderings.
type SortField string

const (
	SortTitle     SortField = "title"
	SortDateAdded SortField = "dateAdded"
	SortRating    SortField = "rating"
	SortAuthor    SortField = "author"
)

// SortSpec pairs a sort field with a direction.
type SortSpec struct {
	Field     SortField
	Ascending bool
}

// Query is an immutable description of one library fetch. The engine
// keeps no state between calls; the caller holds the result and passes
// Loaded back to page through browse mode.
type Query struct {
	Text    string
	Status  entities.ReadingStatus // empty means all statuses
	Rating  int                    // 0 means all ratings
	TagIDs  []uint
	TagMode TagMode
	Sort    SortSpec

	PageSize int // defaults to DefaultPageSize
	Loaded   int // rows already delivered in browse mode
}

// TrimmedText returns the free-text query with surrounding whitespace
// removed; an all-whitespace query counts as no query.
func (q Query) TrimmedText() string {
	return strings.TrimSpace(q.Text)
}

// HasText reports whether a free-text search is active.
func (q Query) HasText() bool {
	return q.TrimmedText() != ""
}

// HasTagFilter reports whether at least one tag is selected.
func (q Query) HasTagFilter() bool {
	return len(q.TagIDs) > 0
}

// HasActiveFilters reports whether anything narrows the full catalog.
func (q Query) HasActiveFilters() bool {
	return q.HasText() || q.Status != "" || q.Rating != 0 || q.HasTagFilter()
}

func (q Query) pageSize() int {
	if q.PageSize > 0 {
		return q.PageSize
	}
	return DefaultPageSize
}

// ReasonKind classifies why a book matched a free-text query.
type ReasonKind string

const (
	ReasonTitle  ReasonKind = "title"
	ReasonISBN   ReasonKind = "isbn"
	ReasonAuthor ReasonKind = "author"
	ReasonTag    ReasonKind = "tag"
	ReasonNote   ReasonKind = "note"
	ReasonQuote  ReasonKind = "quote"
)

// MatchReason annotates one way a book matched the query. Author
// reasons carry the author name, tag reasons the tag display name.
type MatchReason struct {
	Kind   ReasonKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
}

// Row is one result entry: a book plus the reasons it matched a
// free-text query (empty outside search mode).
type Row struct {
	Book    entities.Book `json:"book"`
	Reasons []MatchReason `json:"match_reasons,omitempty"`
}

// Result is one engine response. In browse mode rows are a single page
// and LastPage marks exhaustion; in tag-filter and search modes the full
// result arrives at once and loading more is a no-op.
type Result struct {
	Rows      []Row `json:"rows"`
	LastPage  bool  `json:"last_page"`
	Paginated bool  `json:"paginated"`
}

// Books returns the result's books without annotations.
func (r *Result) Books() []entities.Book {
	books := make([]entities.Book, 0, len(r.Rows))
	for _, row := range r.Rows {
		books = append(books, row.Book)
	}
	return books
}
