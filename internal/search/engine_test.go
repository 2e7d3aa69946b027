package search

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// fakeStore keeps the catalog in memory and serves fetches through the
// same predicate interpreter the engine uses.
type fakeStore struct {
	books []entities.Book
	tags  []entities.Tag
	err   error
}

func (s *fakeStore) FetchBooks(p Predicate, spec SortSpec, limit, offset int) ([]entities.Book, error) {
	if s.err != nil {
		return nil, s.err
	}

	var matched []entities.Book
	for i := range s.books {
		if Matches(p, &s.books[i]) {
			matched = append(matched, s.books[i])
		}
	}

	// Store-level ordering only matters for paginated browse, which the
	// engine always runs with the dateAdded sort in these tests.
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if spec.Ascending {
			a, b = b, a
		}
		if !a.DateAdded.Equal(b.DateAdded) {
			return a.DateAdded.After(b.DateAdded)
		}
		return a.ID > b.ID
	})

	if limit <= 0 {
		return matched, nil
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *fakeStore) FetchTags(ids []uint) ([]entities.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	var found []entities.Tag
	for _, tag := range s.tags {
		for _, id := range ids {
			if tag.ID == id {
				found = append(found, tag)
			}
		}
	}
	return found, nil
}

func catalogOf(n int) []entities.Book {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	books := make([]entities.Book, 0, n)
	for i := 1; i <= n; i++ {
		books = append(books, entities.Book{
			ID:        uint(i),
			Title:     fmt.Sprintf("Book %03d", i),
			Status:    entities.StatusToRead,
			DateAdded: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return books
}

func rowIDs(rows []Row) []uint {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Book.ID)
	}
	return ids
}

func TestEngine_Browse_Pagination(t *testing.T) {
	store := &fakeStore{books: catalogOf(25)}
	engine := NewEngine(store)

	q := Query{Sort: SortSpec{Field: SortDateAdded, Ascending: false}}

	var all []Row
	pages := 0
	for {
		q.Loaded = len(all)
		res, err := engine.Run(q)
		require.NoError(t, err)
		assert.True(t, res.Paginated)
		all = append(all, res.Rows...)
		pages++
		if res.LastPage {
			assert.Less(t, len(res.Rows), DefaultPageSize)
			break
		}
		assert.Len(t, res.Rows, DefaultPageSize)
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, all, 25)

	// Every book exactly once, newest first
	seen := make(map[uint]bool)
	for _, id := range rowIDs(all) {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, uint(25), all[0].Book.ID)
	assert.Equal(t, uint(1), all[24].Book.ID)
}

func TestEngine_Browse_ExactMultipleNeedsOneMorePage(t *testing.T) {
	store := &fakeStore{books: catalogOf(20)}
	engine := NewEngine(store)

	res, err := engine.Run(Query{Loaded: 10})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 10)
	assert.False(t, res.LastPage)

	res, err = engine.Run(Query{Loaded: 20})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.True(t, res.LastPage)
}

func TestEngine_Browse_StatusAndRatingFilter(t *testing.T) {
	books := catalogOf(5)
	books[0].Status = entities.StatusRead
	books[0].Rating = 5
	books[1].Status = entities.StatusRead
	books[1].Rating = 3
	store := &fakeStore{books: books}
	engine := NewEngine(store)

	res, err := engine.Run(Query{Status: entities.StatusRead, Rating: 5})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, uint(1), res.Rows[0].Book.ID)
}

func tagFixture() *fakeStore {
	books := catalogOf(4)
	scifi := entities.Tag{ID: 1, Name: "scifi", DisplayName: "SciFi", Books: []entities.Book{books[0], books[1]}}
	classics := entities.Tag{ID: 2, Name: "classics", DisplayName: "Classics", Books: []entities.Book{books[1], books[2]}}
	return &fakeStore{books: books, tags: []entities.Tag{scifi, classics}}
}

func TestEngine_TagBrowse_AndIsSubsetOfOr(t *testing.T) {
	engine := NewEngine(tagFixture())

	orRes, err := engine.Run(Query{TagIDs: []uint{1, 2}, TagMode: TagModeOr})
	require.NoError(t, err)
	andRes, err := engine.Run(Query{TagIDs: []uint{1, 2}, TagMode: TagModeAnd})
	require.NoError(t, err)

	orIDs := make(map[uint]bool)
	for _, id := range rowIDs(orRes.Rows) {
		orIDs[id] = true
	}
	for _, id := range rowIDs(andRes.Rows) {
		assert.True(t, orIDs[id], "AND result must be a subset of OR")
	}

	assert.Len(t, orRes.Rows, 3)
	require.Len(t, andRes.Rows, 1)
	assert.Equal(t, uint(2), andRes.Rows[0].Book.ID)

	// Tag results arrive whole, not paginated
	assert.True(t, orRes.LastPage)
	assert.False(t, orRes.Paginated)
}

func TestEngine_TagBrowse_MissingTagEmptiesAnd(t *testing.T) {
	engine := NewEngine(tagFixture())

	// Tag 99 was deleted out from under the selection: the conjunction
	// can be satisfied by no book, while the union still works.
	andRes, err := engine.Run(Query{TagIDs: []uint{1, 99}, TagMode: TagModeAnd})
	require.NoError(t, err)
	assert.Empty(t, andRes.Rows)

	orRes, err := engine.Run(Query{TagIDs: []uint{1, 99}, TagMode: TagModeOr})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2}, rowIDs(orRes.Rows))
}

func TestEngine_TagBrowse_DuplicateSelectionCollapses(t *testing.T) {
	engine := NewEngine(tagFixture())

	andRes, err := engine.Run(Query{TagIDs: []uint{1, 1, 2}, TagMode: TagModeAnd})
	require.NoError(t, err)
	require.Len(t, andRes.Rows, 1)
	assert.Equal(t, uint(2), andRes.Rows[0].Book.ID)
}

func TestEngine_TagBrowse_SingleTagModesAgree(t *testing.T) {
	engine := NewEngine(tagFixture())

	orRes, err := engine.Run(Query{TagIDs: []uint{1}, TagMode: TagModeOr})
	require.NoError(t, err)
	andRes, err := engine.Run(Query{TagIDs: []uint{1}, TagMode: TagModeAnd})
	require.NoError(t, err)

	assert.ElementsMatch(t, rowIDs(orRes.Rows), rowIDs(andRes.Rows))
}

func searchFixture() *fakeStore {
	asimov := entities.Author{ID: 1, Name: "Isaac Asimov"}
	herbert := entities.Author{ID: 2, Name: "Frank Herbert"}
	scifi := entities.Tag{ID: 1, Name: "scifi", DisplayName: "SciFi"}

	foundation := entities.Book{
		ID: 1, Title: "Foundation", ISBN: "9780553293357",
		Status: entities.StatusRead, Rating: 5,
		Authors: []entities.Author{asimov},
		Tags:    []entities.Tag{scifi},
		Notes: []entities.Note{
			{ID: 1, BookID: 1, Content: "psychohistory foundation of the plot"},
			{ID: 2, BookID: 1, Content: "foundation era timeline"},
		},
	}
	dune := entities.Book{
		ID: 2, Title: "Dune", Status: entities.StatusToRead,
		Authors: []entities.Author{herbert},
		Quotes: []entities.Quote{
			{ID: 1, BookID: 2, Text: "Fear is the mind-killer", Comment: "litany"},
			{ID: 2, BookID: 2, Text: "He who controls the spice", Comment: "fear of scarcity"},
		},
	}
	walden := entities.Book{ID: 3, Title: "Walden", Status: entities.StatusToRead}

	scifi.Books = []entities.Book{foundation}
	return &fakeStore{
		books: []entities.Book{foundation, dune, walden},
		tags:  []entities.Tag{scifi},
	}
}

func TestEngine_Search_TitleAndAuthorReasons(t *testing.T) {
	engine := NewEngine(searchFixture())

	res, err := engine.Run(Query{Text: "Asimov"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, uint(1), row.Book.ID)
	require.Len(t, row.Reasons, 1)
	assert.Equal(t, ReasonAuthor, row.Reasons[0].Kind)
	assert.Equal(t, "Isaac Asimov", row.Reasons[0].Detail)
}

func TestEngine_Search_TagReasonCarriesDisplayName(t *testing.T) {
	engine := NewEngine(searchFixture())

	res, err := engine.Run(Query{Text: "scifi"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Rows[0].Reasons, 1)
	assert.Equal(t, ReasonTag, res.Rows[0].Reasons[0].Kind)
	assert.Equal(t, "SciFi", res.Rows[0].Reasons[0].Detail)
}

func TestEngine_Search_NoteReasonReportedOnce(t *testing.T) {
	engine := NewEngine(searchFixture())

	// "foundation" matches the title and both notes; the note reason
	// still appears once.
	res, err := engine.Run(Query{Text: "foundation"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	kinds := make(map[ReasonKind]int)
	for _, reason := range res.Rows[0].Reasons {
		kinds[reason.Kind]++
	}
	assert.Equal(t, 1, kinds[ReasonTitle])
	assert.Equal(t, 1, kinds[ReasonNote])
}

func TestEngine_Search_QuoteReasonReportedOnce(t *testing.T) {
	engine := NewEngine(searchFixture())

	// "fear" appears in a quote text and in another quote's comment
	res, err := engine.Run(Query{Text: "fear"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Rows[0].Reasons, 1)
	assert.Equal(t, ReasonQuote, res.Rows[0].Reasons[0].Kind)
}

func TestEngine_Search_ISBNReason(t *testing.T) {
	engine := NewEngine(searchFixture())

	res, err := engine.Run(Query{Text: "0553"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Rows[0].Reasons, 1)
	assert.Equal(t, ReasonISBN, res.Rows[0].Reasons[0].Kind)
}

func TestEngine_Search_WhitespaceOnlyIsBrowse(t *testing.T) {
	engine := NewEngine(searchFixture())

	res, err := engine.Run(Query{Text: "   "})
	require.NoError(t, err)
	assert.True(t, res.Paginated)
	assert.Len(t, res.Rows, 3)
	for _, row := range res.Rows {
		assert.Empty(t, row.Reasons)
	}
}

func TestEngine_Search_StatusFilterApplies(t *testing.T) {
	engine := NewEngine(searchFixture())

	// "dune" matches only a toRead book; the read filter excludes it
	res, err := engine.Run(Query{Text: "dune", Status: entities.StatusRead})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestEngine_Search_TagFilterRestrictsResults(t *testing.T) {
	engine := NewEngine(searchFixture())

	// Both "Foundation" and "Walden" contain "a"; the tag filter keeps
	// only the tagged one.
	res, err := engine.Run(Query{Text: "a", TagIDs: []uint{1}, TagMode: TagModeOr})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, uint(1), res.Rows[0].Book.ID)
}

func TestEngine_Search_NoMatches(t *testing.T) {
	engine := NewEngine(searchFixture())

	res, err := engine.Run(Query{Text: "zzzzz"})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.True(t, res.LastPage)
}

func TestEngine_StoreErrorSurfaces(t *testing.T) {
	engine := NewEngine(&fakeStore{err: errors.New("disk gone")})

	_, err := engine.Run(Query{})
	assert.Error(t, err)

	_, err = engine.Run(Query{Text: "dune"})
	assert.Error(t, err)

	_, err = engine.Run(Query{TagIDs: []uint{1}})
	assert.Error(t, err)
}

func TestSortRows_TitleIgnoresCase(t *testing.T) {
	engine := NewEngine(&fakeStore{})
	rows := []Row{
		{Book: entities.Book{ID: 1, Title: "banana"}},
		{Book: entities.Book{ID: 2, Title: "Apple"}},
		{Book: entities.Book{ID: 3, Title: "cherry"}},
	}

	engine.sortRows(rows, SortSpec{Field: SortTitle, Ascending: true})
	assert.Equal(t, []uint{2, 1, 3}, rowIDs(rows))

	engine.sortRows(rows, SortSpec{Field: SortTitle, Ascending: false})
	assert.Equal(t, []uint{3, 1, 2}, rowIDs(rows))
}

func TestSortRows_AuthorUsesFirstAuthorThenTitle(t *testing.T) {
	engine := NewEngine(&fakeStore{})
	asimov := entities.Author{Name: "Asimov"}
	herbert := entities.Author{Name: "Herbert"}

	rows := []Row{
		{Book: entities.Book{ID: 1, Title: "Dune", Authors: []entities.Author{herbert}}},
		{Book: entities.Book{ID: 2, Title: "Second Foundation", Authors: []entities.Author{asimov}}},
		{Book: entities.Book{ID: 3, Title: "Foundation", Authors: []entities.Author{asimov}}},
		{Book: entities.Book{ID: 4, Title: "Anonymous Work"}},
	}

	engine.sortRows(rows, SortSpec{Field: SortAuthor, Ascending: true})
	// Authorless first (empty name), then Asimov's titles, then Herbert
	assert.Equal(t, []uint{4, 3, 2, 1}, rowIDs(rows))
}

func TestSortRows_UnratedSortsAsZero(t *testing.T) {
	engine := NewEngine(&fakeStore{})
	rows := []Row{
		{Book: entities.Book{ID: 1, Title: "Rated", Rating: 3}},
		{Book: entities.Book{ID: 2, Title: "Unrated"}},
		{Book: entities.Book{ID: 3, Title: "Top", Rating: 5}},
	}

	engine.sortRows(rows, SortSpec{Field: SortRating, Ascending: true})
	assert.Equal(t, []uint{2, 1, 3}, rowIDs(rows))
}
