package search

import (
	"fmt"
	"strings"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// Store is the slice of the object store the engine needs. FetchBooks
// must load authors, tags, notes and quotes on every returned book so
// predicates and match reasons can be evaluated in memory; FetchTags
// must load each tag's book memberships.
type Store interface {
	FetchBooks(p Predicate, sort SortSpec, limit, offset int) ([]entities.Book, error)
	FetchTags(ids []uint) ([]entities.Tag, error)
}

// Engine turns a Query into an ordered, de-duplicated, reason-annotated
// result. It is stateless and safe for concurrent use.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Run executes one query. Mode is decided by the query itself: plain
// browse (paginated), tag-filtered browse, or free-text search.
func (e *Engine) Run(q Query) (*Result, error) {
	switch {
	case q.HasText():
		return e.runSearch(q)
	case q.HasTagFilter():
		return e.runTagBrowse(q)
	default:
		return e.runBrowse(q)
	}
}

// runBrowse fetches one page at the store level. A short page marks the
// end of the catalog for the active filters.
func (e *Engine) runBrowse(q Query) (*Result, error) {
	size := q.pageSize()
	books, err := e.store.FetchBooks(baseFilter(q.Status, q.Rating), q.Sort, size, q.Loaded)
	if err != nil {
		return nil, fmt.Errorf("browse fetch: %w", err)
	}

	rows := make([]Row, 0, len(books))
	for _, b := range books {
		rows = append(rows, Row{Book: b})
	}
	return &Result{Rows: rows, LastPage: len(books) < size, Paginated: true}, nil
}

// runTagBrowse computes the candidate set from the selected tags' book
// memberships, filters by status/rating, and sorts in memory. The full
// result is delivered as a single page.
func (e *Engine) runTagBrowse(q Query) (*Result, error) {
	candidates, err := e.tagCandidates(q)
	if err != nil {
		return nil, err
	}

	filter := baseFilter(q.Status, q.Rating)
	rows := make([]Row, 0, len(candidates))
	for i := range candidates {
		if Matches(filter, &candidates[i]) {
			rows = append(rows, Row{Book: candidates[i]})
		}
	}

	e.sortRows(rows, q.Sort)
	return &Result{Rows: rows, LastPage: true}, nil
}

// runSearch unions candidates from every searchable field, deduplicates,
// applies the status/rating/tag filters, annotates match reasons and
// sorts in memory. The full result is delivered as a single page.
func (e *Engine) runSearch(q Query) (*Result, error) {
	text := q.TrimmedText()
	filter := baseFilter(q.Status, q.Rating)

	// Title/ISBN matches respect the status/rating filters at the store
	// level; relationship matches are filtered after the union.
	fetches := []Predicate{
		All{filter, Any{
			ContainsFold{Field: FieldTitle, Value: text},
			ContainsFold{Field: FieldISBN, Value: text},
		}},
		ContainsFold{Field: FieldAuthorName, Value: text},
		Any{
			ContainsFold{Field: FieldTagName, Value: text},
			ContainsFold{Field: FieldTagDisplayName, Value: text},
		},
		ContainsFold{Field: FieldNoteContent, Value: text},
		Any{
			ContainsFold{Field: FieldQuoteText, Value: text},
			ContainsFold{Field: FieldQuoteComment, Value: text},
		},
	}

	seen := make(map[uint]bool)
	var candidates []entities.Book
	for _, p := range fetches {
		books, err := e.store.FetchBooks(p, q.Sort, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("search fetch: %w", err)
		}
		for _, b := range books {
			if !seen[b.ID] {
				seen[b.ID] = true
				candidates = append(candidates, b)
			}
		}
	}

	allowed, err := e.tagAllowSet(q)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(candidates))
	for i := range candidates {
		b := &candidates[i]
		if !Matches(filter, b) {
			continue
		}
		if allowed != nil && !allowed[b.ID] {
			continue
		}
		reasons := annotate(b, text)
		if len(reasons) == 0 {
			continue
		}
		rows = append(rows, Row{Book: candidates[i], Reasons: reasons})
	}

	e.sortRows(rows, q.Sort)
	return &Result{Rows: rows, LastPage: true}, nil
}

// tagCandidates returns the union (OR) or intersection (AND) of the
// selected tags' book memberships. A selected tag that no longer exists
// contributes nothing to the union and empties the intersection.
func (e *Engine) tagCandidates(q Query) ([]entities.Book, error) {
	ids := dedupeIDs(q.TagIDs)
	tags, err := e.store.FetchTags(ids)
	if err != nil {
		return nil, fmt.Errorf("tag fetch: %w", err)
	}

	if q.TagMode == TagModeAnd {
		if len(tags) < len(ids) {
			return nil, nil
		}
		counts := make(map[uint]int)
		byID := make(map[uint]entities.Book)
		for _, t := range tags {
			for _, b := range t.Books {
				counts[b.ID]++
				byID[b.ID] = b
			}
		}
		var books []entities.Book
		for id, n := range counts {
			if n == len(ids) {
				books = append(books, byID[id])
			}
		}
		return books, nil
	}

	seen := make(map[uint]bool)
	var books []entities.Book
	for _, t := range tags {
		for _, b := range t.Books {
			if !seen[b.ID] {
				seen[b.ID] = true
				books = append(books, b)
			}
		}
	}
	return books, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// tagAllowSet returns the set of book IDs passing the tag filter, or nil
// when no tag filter is active.
func (e *Engine) tagAllowSet(q Query) (map[uint]bool, error) {
	if !q.HasTagFilter() {
		return nil, nil
	}
	candidates, err := e.tagCandidates(q)
	if err != nil {
		return nil, err
	}
	allowed := make(map[uint]bool, len(candidates))
	for _, b := range candidates {
		allowed[b.ID] = true
	}
	return allowed, nil
}

// annotate records every way the book matched the trimmed query: title,
// isbn, one reason per matching author, one per matching tag, and at
// most one each for notes and quotes.
func annotate(b *entities.Book, text string) []MatchReason {
	needle := strings.ToLower(text)
	containsFold := func(s string) bool {
		return s != "" && strings.Contains(strings.ToLower(s), needle)
	}

	var reasons []MatchReason
	if containsFold(b.Title) {
		reasons = append(reasons, MatchReason{Kind: ReasonTitle})
	}
	if containsFold(b.ISBN) {
		reasons = append(reasons, MatchReason{Kind: ReasonISBN})
	}
	for _, a := range b.Authors {
		if containsFold(a.Name) {
			reasons = append(reasons, MatchReason{Kind: ReasonAuthor, Detail: a.Name})
		}
	}
	for _, t := range b.Tags {
		if containsFold(t.Name) || containsFold(t.DisplayName) {
			reasons = append(reasons, MatchReason{Kind: ReasonTag, Detail: t.DisplayName})
		}
	}
	for _, n := range b.Notes {
		if containsFold(n.Content) {
			reasons = append(reasons, MatchReason{Kind: ReasonNote})
			break
		}
	}
	for _, quote := range b.Quotes {
		if containsFold(quote.Text) || containsFold(quote.Comment) {
			reasons = append(reasons, MatchReason{Kind: ReasonQuote})
			break
		}
	}
	return reasons
}
