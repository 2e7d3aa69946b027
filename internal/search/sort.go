package search

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// newCollator builds the case-insensitive, locale-aware collator used
// for title and author ordering. Collators are not safe for concurrent
// use, so one is created per sort.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// sortRows orders rows in memory by the sort spec. Title and author use
// collated comparison; an absent rating sorts as 0. The author order
// sorts by first author name with the title as tiebreaker (books without
// authors sort as an empty name).
func (e *Engine) sortRows(rows []Row, spec SortSpec) {
	col := newCollator()

	less := func(a, b *entities.Book) bool {
		switch spec.Field {
		case SortTitle:
			return col.CompareString(a.Title, b.Title) < 0
		case SortRating:
			if a.Rating != b.Rating {
				return a.Rating < b.Rating
			}
			return col.CompareString(a.Title, b.Title) < 0
		case SortAuthor:
			if cmp := col.CompareString(firstAuthor(a), firstAuthor(b)); cmp != 0 {
				return cmp < 0
			}
			return col.CompareString(a.Title, b.Title) < 0
		default: // SortDateAdded
			if !a.DateAdded.Equal(b.DateAdded) {
				return a.DateAdded.Before(b.DateAdded)
			}
			return a.ID < b.ID
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i].Book, &rows[j].Book
		if spec.Ascending {
			return less(a, b)
		}
		return less(b, a)
	})
}

func firstAuthor(b *entities.Book) string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0].Name
}
