// Package search implements the library query engine: predicate-based
// fetching, free-text relevance annotation, tag filtering, in-memory
// sorting and pagination over the book catalog.
package search

import (
	"strconv"
	"strings"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// Field names a queryable attribute of a book or one of its
// relationships. Relationship fields produce one value per related row.
type Field string

const (
	FieldTitle          Field = "title"
	FieldISBN           Field = "isbn"
	FieldStatus         Field = "status"
	FieldRating         Field = "rating"
	FieldAuthorName     Field = "author_name"
	FieldTagName        Field = "tag_name"
	FieldTagDisplayName Field = "tag_display_name"
	FieldNoteContent    Field = "note_content"
	FieldQuoteText      Field = "quote_text"
	FieldQuoteComment   Field = "quote_comment"
)

// Predicate is a closed set of boolean expressions over book fields.
// Matches evaluates a predicate in memory; stores translate the same
// variants into their native query language.
type Predicate interface {
	predicate()
}

// Equals matches books where any value of Field equals Value exactly.
type Equals struct {
	Field Field
	Value string
}

// ContainsFold matches books where any value of Field contains Value,
// case-insensitively. An empty Value matches nothing.
type ContainsFold struct {
	Field Field
	Value string
}

// InSet matches books where any value of Field equals one of Values.
type InSet struct {
	Field  Field
	Values []string
}

// All is a conjunction. An empty All matches everything.
type All []Predicate

// Any is a disjunction. An empty Any matches nothing.
type Any []Predicate

func (Equals) predicate()       {}
func (ContainsFold) predicate() {}
func (InSet) predicate()        {}
func (All) predicate()          {}
func (Any) predicate()          {}

// Matches is the in-memory predicate interpreter. Relationship fields
// require the relationships to be loaded on the book.
func Matches(p Predicate, b *entities.Book) bool {
	switch pred := p.(type) {
	case Equals:
		for _, v := range fieldValues(b, pred.Field) {
			if v == pred.Value {
				return true
			}
		}
		return false
	case ContainsFold:
		if pred.Value == "" {
			return false
		}
		needle := strings.ToLower(pred.Value)
		for _, v := range fieldValues(b, pred.Field) {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	case InSet:
		for _, v := range fieldValues(b, pred.Field) {
			for _, want := range pred.Values {
				if v == want {
					return true
				}
			}
		}
		return false
	case All:
		for _, sub := range pred {
			if !Matches(sub, b) {
				return false
			}
		}
		return true
	case Any:
		for _, sub := range pred {
			if Matches(sub, b) {
				return true
			}
		}
		return false
	}
	return false
}

func fieldValues(b *entities.Book, f Field) []string {
	switch f {
	case FieldTitle:
		return []string{b.Title}
	case FieldISBN:
		return []string{b.ISBN}
	case FieldStatus:
		return []string{string(b.Status)}
	case FieldRating:
		return []string{strconv.Itoa(b.Rating)}
	case FieldAuthorName:
		vals := make([]string, 0, len(b.Authors))
		for _, a := range b.Authors {
			vals = append(vals, a.Name)
		}
		return vals
	case FieldTagName:
		vals := make([]string, 0, len(b.Tags))
		for _, t := range b.Tags {
			vals = append(vals, t.Name)
		}
		return vals
	case FieldTagDisplayName:
		vals := make([]string, 0, len(b.Tags))
		for _, t := range b.Tags {
			vals = append(vals, t.DisplayName)
		}
		return vals
	case FieldNoteContent:
		vals := make([]string, 0, len(b.Notes))
		for _, n := range b.Notes {
			vals = append(vals, n.Content)
		}
		return vals
	case FieldQuoteText:
		vals := make([]string, 0, len(b.Quotes))
		for _, q := range b.Quotes {
			vals = append(vals, q.Text)
		}
		return vals
	case FieldQuoteComment:
		vals := make([]string, 0, len(b.Quotes))
		for _, q := range b.Quotes {
			vals = append(vals, q.Comment)
		}
		return vals
	}
	return nil
}

// baseFilter builds the conjunction of the status and rating filters;
// zero values mean "no filter".
func baseFilter(status entities.ReadingStatus, rating int) All {
	var p All
	if status != "" {
		p = append(p, Equals{Field: FieldStatus, Value: string(status)})
	}
	if rating != 0 {
		p = append(p, Equals{Field: FieldRating, Value: strconv.Itoa(rating)})
	}
	return p
}
