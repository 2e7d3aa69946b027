package books

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/readingtracker/internal/search"
)

// Relationship fields are matched through membership subqueries so the
// outer query stays one row per book.
const (
	authorWrap = "books.id IN (SELECT book_authors.book_id FROM book_authors JOIN authors ON authors.id = book_authors.author_id WHERE %s)"
	tagWrap    = "books.id IN (SELECT book_tags.book_id FROM book_tags JOIN tags ON tags.id = book_tags.tag_id WHERE %s)"
	noteWrap   = "books.id IN (SELECT notes.book_id FROM notes WHERE %s)"
	quoteWrap  = "books.id IN (SELECT quotes.book_id FROM quotes WHERE %s)"
)

// sqlForPredicate translates a search predicate into a SQLite WHERE
// fragment with bind args. The translation mirrors search.Matches:
// unknown fields and empty disjunctions match nothing, an empty
// conjunction matches everything.
func sqlForPredicate(p search.Predicate) (string, []any) {
	switch pred := p.(type) {
	case search.Equals:
		return fieldCondition(pred.Field, "%s = ?", pred.Value)
	case search.ContainsFold:
		if pred.Value == "" {
			return "1 = 0", nil
		}
		if !asciiOnly(pred.Value) {
			// sqlite's lower() folds ASCII only, so a non-ASCII needle
			// cannot be matched case-insensitively in SQL. Widen to the
			// non-empty rows; FetchBooks narrows with the interpreter.
			return fieldCondition(pred.Field, "%s <> ''")
		}
		return fieldCondition(pred.Field, "instr(lower(%s), ?) > 0", strings.ToLower(pred.Value))
	case search.InSet:
		if len(pred.Values) == 0 {
			return "1 = 0", nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(pred.Values)), ", ")
		args := make([]any, 0, len(pred.Values))
		for _, v := range pred.Values {
			args = append(args, v)
		}
		return fieldCondition(pred.Field, "%s IN ("+placeholders+")", args...)
	case search.All:
		if len(pred) == 0 {
			return "1 = 1", nil
		}
		return combine(pred, " AND ")
	case search.Any:
		if len(pred) == 0 {
			return "1 = 0", nil
		}
		return combine(pred, " OR ")
	}
	return "1 = 0", nil
}

// sqlExact reports whether sqlForPredicate selects exactly the set
// search.Matches accepts. A ContainsFold with a non-ASCII needle is
// widened to a superset and the rows need in-memory refinement.
func sqlExact(p search.Predicate) bool {
	switch pred := p.(type) {
	case search.ContainsFold:
		return asciiOnly(pred.Value)
	case search.All:
		for _, sub := range pred {
			if !sqlExact(sub) {
				return false
			}
		}
	case search.Any:
		for _, sub := range pred {
			if !sqlExact(sub) {
				return false
			}
		}
	}
	return true
}

func asciiOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func combine(preds []search.Predicate, op string) (string, []any) {
	parts := make([]string, 0, len(preds))
	var args []any
	for _, sub := range preds {
		cond, condArgs := sqlForPredicate(sub)
		parts = append(parts, "("+cond+")")
		args = append(args, condArgs...)
	}
	return strings.Join(parts, op), args
}

func fieldCondition(f search.Field, template string, args ...any) (string, []any) {
	column, wrap := columnFor(f)
	if column == "" {
		return "1 = 0", nil
	}
	cond := fmt.Sprintf(template, column)
	if wrap != "" {
		cond = fmt.Sprintf(wrap, cond)
	}
	return cond, args
}

func columnFor(f search.Field) (column, wrap string) {
	switch f {
	case search.FieldTitle:
		return "books.title", ""
	case search.FieldISBN:
		return "books.isbn", ""
	case search.FieldStatus:
		return "books.status", ""
	case search.FieldRating:
		return "books.rating", ""
	case search.FieldAuthorName:
		return "authors.name", authorWrap
	case search.FieldTagName:
		return "tags.name", tagWrap
	case search.FieldTagDisplayName:
		return "tags.display_name", tagWrap
	case search.FieldNoteContent:
		return "notes.content", noteWrap
	case search.FieldQuoteText:
		return "quotes.text", quoteWrap
	case search.FieldQuoteComment:
		return "quotes.comment", quoteWrap
	}
	return "", ""
}

// orderClause maps a sort spec onto SQL ordering that matches the
// engine's in-memory ordering, tiebreakers included. The author key is
// the name of the book's first linked author.
func orderClause(spec search.SortSpec) string {
	dir := "ASC"
	if !spec.Ascending {
		dir = "DESC"
	}
	switch spec.Field {
	case search.SortTitle:
		return fmt.Sprintf("books.title COLLATE NOCASE %s", dir)
	case search.SortRating:
		return fmt.Sprintf("books.rating %s, books.title COLLATE NOCASE %s", dir, dir)
	case search.SortAuthor:
		first := "(SELECT authors.name FROM book_authors JOIN authors ON authors.id = book_authors.author_id WHERE book_authors.book_id = books.id ORDER BY book_authors.author_id LIMIT 1)"
		return fmt.Sprintf("%s COLLATE NOCASE %s, books.title COLLATE NOCASE %s", first, dir, dir)
	default:
		return fmt.Sprintf("books.date_added %s, books.id %s", dir, dir)
	}
}
