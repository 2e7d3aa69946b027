package importers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readingtracker/internal/entities"
)

func TestParseLibraryCSV(t *testing.T) {
	csvData := `title,authors,isbn,status,rating,tags,publisher,published_date,page_count,date_added,date_started,date_finished,description
Dune,Frank Herbert,9780441172719,read,5,SciFi; Classics,Ace Books,1990,412,2026-01-15T10:00:00Z,2026-02-01T08:00:00Z,2026-02-20T21:00:00Z,Desert planet epic
Walden,Henry David Thoreau,,toRead,,,,,,,,,
`
	rows, parseErrors, err := ParseLibraryCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Empty(t, parseErrors)
	require.Len(t, rows, 2)

	dune := rows[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, "Frank Herbert", dune.Authors)
	assert.Equal(t, "9780441172719", dune.ISBN)
	assert.Equal(t, "SciFi; Classics", dune.Tags)

	assert.Equal(t, "Walden", rows[1].Title)
}

func TestParseLibraryCSV_ColumnsInAnyOrder(t *testing.T) {
	csvData := `isbn,title,status
9780441172719,Dune,read
`
	rows, parseErrors, err := ParseLibraryCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Empty(t, parseErrors)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dune", rows[0].Title)
	assert.Equal(t, "read", rows[0].Status)
}

func TestParseLibraryCSV_MissingTitleHeader(t *testing.T) {
	csvData := `isbn,status
9780441172719,read
`
	_, _, err := ParseLibraryCSV(strings.NewReader(csvData))
	assert.Error(t, err)
}

func TestParseLibraryCSV_RowsWithoutTitleSkipped(t *testing.T) {
	csvData := `title,isbn
Dune,9780441172719
,9999999999999
`
	rows, parseErrors, err := ParseLibraryCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, parseErrors, 1)
	assert.Contains(t, parseErrors[0], "Line 3")
}

func TestLibraryCSVRow_Book(t *testing.T) {
	row := LibraryCSVRow{
		Title:        "Dune",
		ISBN:         "9780441172719",
		Status:       "read",
		Rating:       "5",
		PageCount:    "412",
		DateAdded:    "2026-01-15T10:00:00Z",
		DateStarted:  "2026-02-01",
		DateFinished: "2026-02-20 21:00:00",
	}

	book := row.Book()
	assert.Equal(t, entities.StatusRead, book.Status)
	assert.Equal(t, 5, book.Rating)
	assert.Equal(t, 412, book.PageCount)
	assert.Equal(t, time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC), book.DateAdded)
	require.NotNil(t, book.DateStarted)
	require.NotNil(t, book.DateFinished)
}

func TestLibraryCSVRow_Book_BadValuesFallBack(t *testing.T) {
	row := LibraryCSVRow{
		Title:     "Odd Row",
		Status:    "devoured", // unknown status
		Rating:    "11",       // out of range
		PageCount: "-3",
		DateAdded: "sometime in spring",
	}

	book := row.Book()
	assert.Equal(t, entities.StatusToRead, book.Status)
	assert.Zero(t, book.Rating)
	assert.Zero(t, book.PageCount)
	assert.True(t, book.DateAdded.IsZero())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"SciFi", "Classics"}, SplitList("SciFi; Classics"))
	assert.Equal(t, []string{"one"}, SplitList("one"))
	assert.Nil(t, SplitList("  ;  ; "))
	assert.Nil(t, SplitList(""))
}

// fake stores for importer tests

type fakeCatalog struct {
	created  []*entities.Book
	byISBN   map[string]*entities.Book
	authors  map[uint][]entities.Author
	tagLinks map[uint][]entities.Tag
	nextID   uint
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		byISBN:   make(map[string]*entities.Book),
		authors:  make(map[uint][]entities.Author),
		tagLinks: make(map[uint][]entities.Tag),
	}
}

func (c *fakeCatalog) Create(book *entities.Book) error {
	c.nextID++
	book.ID = c.nextID
	c.created = append(c.created, book)
	if book.ISBN != "" {
		c.byISBN[book.ISBN] = book
	}
	return nil
}

func (c *fakeCatalog) ByISBN(isbn string) (*entities.Book, error) {
	return c.byISBN[isbn], nil
}

func (c *fakeCatalog) ReplaceAuthors(bookID uint, authors []entities.Author) error {
	c.authors[bookID] = authors
	return nil
}

func (c *fakeCatalog) ReplaceTags(bookID uint, tagList []entities.Tag) error {
	c.tagLinks[bookID] = tagList
	return nil
}

type fakeRegistry struct {
	names []string
}

func (r *fakeRegistry) FindOrCreate(name string) (*entities.Author, error) {
	r.names = append(r.names, name)
	return &entities.Author{ID: uint(len(r.names)), Name: name}, nil
}

type fakeTagRegistry struct {
	names []string
}

func (r *fakeTagRegistry) FindOrCreate(name string) (*entities.Tag, error) {
	r.names = append(r.names, name)
	return &entities.Tag{ID: uint(len(r.names)), Name: strings.ToLower(name), DisplayName: name}, nil
}

func TestLibraryImporter_Import(t *testing.T) {
	catalog := newFakeCatalog()
	authorReg := &fakeRegistry{}
	tagReg := &fakeTagRegistry{}
	importer := NewLibraryImporter(catalog, authorReg, tagReg)

	csvData := `title,authors,isbn,tags
Dune,Frank Herbert,9780441172719,SciFi; Classics
Walden,Henry David Thoreau,,
`
	result, err := importer.Import(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Skipped)

	require.Len(t, catalog.created, 2)
	assert.Equal(t, []string{"Frank Herbert", "Henry David Thoreau"}, authorReg.names)
	assert.Equal(t, []string{"SciFi", "Classics"}, tagReg.names)
	assert.Len(t, catalog.tagLinks[catalog.created[0].ID], 2)
}

func TestLibraryImporter_SkipsDuplicateISBN(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.byISBN["9780441172719"] = &entities.Book{ID: 99, Title: "Dune", ISBN: "9780441172719"}
	importer := NewLibraryImporter(catalog, &fakeRegistry{}, &fakeTagRegistry{})

	csvData := `title,isbn
Dune,9780441172719
New Book,1111111111
`
	result, err := importer.Import(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, catalog.created, 1)
	assert.Equal(t, "New Book", catalog.created[0].Title)
}
