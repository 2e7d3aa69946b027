package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/entities"
	"github.com/mrlokans/readingtracker/internal/search"
)

// BookStore defines database operations for book management.
type BookStore interface {
	Create(book *entities.Book) error
	ByID(id uint) (*entities.Book, error)
	Update(book *entities.Book) error
	Delete(id uint) error
	SetStatus(id uint, status entities.ReadingStatus) (*entities.Book, error)
	CycleStatus(id uint) (*entities.Book, error)
	SetRating(id uint, rating int) error
	ReplaceAuthors(bookID uint, bookAuthors []entities.Author) error
	ReplaceTags(bookID uint, bookTags []entities.Tag) error
	AddTag(bookID uint, tag *entities.Tag) error
	RemoveTag(bookID, tagID uint) error
}

// AuthorRegistry resolves author names to records.
type AuthorRegistry interface {
	FindOrCreate(name string) (*entities.Author, error)
}

// TagRegistry resolves tag names to canonical records.
type TagRegistry interface {
	FindOrCreate(name string) (*entities.Tag, error)
}

type BooksController struct {
	store   BookStore
	engine  *search.Engine
	authors AuthorRegistry
	tags    TagRegistry
}

func NewBooksController(store BookStore, engine *search.Engine, authors AuthorRegistry, tags TagRegistry) *BooksController {
	return &BooksController{store: store, engine: engine, authors: authors, tags: tags}
}

// ListBooks runs a library query: paginated browse by default, a tag
// filter when tags are selected, a free-text search when q is set.
// GET /api/books?q=&status=&rating=&tags=1,2&tag_mode=and&sort=title&order=asc&loaded=0
func (bc *BooksController) ListBooks(c *gin.Context) {
	query, ok := bc.parseQuery(c)
	if !ok {
		return
	}

	result, err := bc.engine.Run(query)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (bc *BooksController) parseQuery(c *gin.Context) (search.Query, bool) {
	var params struct {
		Q        string `form:"q"`
		Status   string `form:"status"`
		Rating   int    `form:"rating"`
		TagMode  string `form:"tag_mode"`
		Sort     string `form:"sort"`
		Order    string `form:"order"`
		Loaded   int    `form:"loaded"`
		PageSize int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return search.Query{}, false
	}

	status := entities.ReadingStatus(params.Status)
	if params.Status != "" && !status.Valid() {
		respondBadRequest(c, "invalid status")
		return search.Query{}, false
	}
	if params.Rating < 0 || params.Rating > 5 {
		respondBadRequest(c, "rating must be between 1 and 5")
		return search.Query{}, false
	}

	mode := search.TagModeOr
	if params.TagMode == string(search.TagModeAnd) {
		mode = search.TagModeAnd
	}

	sort := search.SortSpec{Field: search.SortDateAdded, Ascending: false}
	switch search.SortField(params.Sort) {
	case search.SortTitle:
		sort.Field = search.SortTitle
		sort.Ascending = true
	case search.SortRating:
		sort.Field = search.SortRating
	case search.SortAuthor:
		sort.Field = search.SortAuthor
		sort.Ascending = true
	}
	switch params.Order {
	case "asc":
		sort.Ascending = true
	case "desc":
		sort.Ascending = false
	}

	return search.Query{
		Text:     params.Q,
		Status:   status,
		Rating:   params.Rating,
		TagIDs:   parseIDList(c, "tags"),
		TagMode:  mode,
		Sort:     sort,
		PageSize: params.PageSize,
		Loaded:   params.Loaded,
	}, true
}

type bookRequest struct {
	Title         *string  `json:"title"`
	Authors       []string `json:"authors"`
	ISBN          *string  `json:"isbn"`
	Status        *string  `json:"status"`
	Rating        *int     `json:"rating"`
	Tags          []string `json:"tags"`
	CoverURL      *string  `json:"cover_url"`
	Publisher     *string  `json:"publisher"`
	PublishedDate *string  `json:"published_date"`
	Description   *string  `json:"description"`
	PageCount     *int     `json:"page_count"`
	UserNotes     *string  `json:"user_notes"`
}

// CreateBook adds a book to the catalog. Author and tag names are
// resolved to shared records.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Title == nil || *req.Title == "" {
		respondBadRequest(c, "title is required")
		return
	}

	book := entities.Book{Title: *req.Title}
	if req.ISBN != nil {
		book.ISBN = *req.ISBN
	}
	if req.CoverURL != nil {
		book.CoverURL = *req.CoverURL
	}
	if req.Publisher != nil {
		book.Publisher = *req.Publisher
	}
	if req.PublishedDate != nil {
		book.PublishedDate = *req.PublishedDate
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.PageCount != nil {
		book.PageCount = *req.PageCount
	}
	if req.UserNotes != nil {
		book.UserNotes = *req.UserNotes
	}
	if req.Status != nil {
		status := entities.ReadingStatus(*req.Status)
		if !status.Valid() {
			respondBadRequest(c, "invalid status")
			return
		}
		book.ApplyStatus(status)
	}
	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 5 {
			respondBadRequest(c, "rating must be between 1 and 5")
			return
		}
		book.Rating = *req.Rating
	}

	if err := bc.store.Create(&book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}
	if err := bc.linkAuthorsAndTags(book.ID, req.Authors, req.Tags); err != nil {
		respondInternalError(c, err, "link book relationships")
		return
	}

	created, err := bc.store.ByID(book.ID)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	respondCreated(c, created)
}

// GetBook returns one book with all relationships.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.ByID(id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// UpdateBook applies a partial update; only fields present in the body
// change.
// PATCH /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.store.ByID(id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			respondBadRequest(c, "title cannot be empty")
			return
		}
		book.Title = *req.Title
	}
	if req.ISBN != nil {
		book.ISBN = *req.ISBN
	}
	if req.CoverURL != nil {
		book.CoverURL = *req.CoverURL
	}
	if req.Publisher != nil {
		book.Publisher = *req.Publisher
	}
	if req.PublishedDate != nil {
		book.PublishedDate = *req.PublishedDate
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.PageCount != nil {
		book.PageCount = *req.PageCount
	}
	if req.UserNotes != nil {
		book.UserNotes = *req.UserNotes
	}
	if req.Status != nil {
		status := entities.ReadingStatus(*req.Status)
		if !status.Valid() {
			respondBadRequest(c, "invalid status")
			return
		}
		book.ApplyStatus(status)
	}
	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 5 {
			respondBadRequest(c, "rating must be between 1 and 5")
			return
		}
		book.Rating = *req.Rating
	}

	if err := bc.store.Update(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	if err := bc.linkAuthorsAndTags(book.ID, req.Authors, req.Tags); err != nil {
		respondInternalError(c, err, "link book relationships")
		return
	}

	updated, err := bc.store.ByID(id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteBook removes a book and its owned notes and quotes.
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// AdvanceStatus moves the book forward in the reading cycle, or to an
// explicit status when the body names one.
// POST /api/books/:id/status
func (bc *BooksController) AdvanceStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	_ = c.ShouldBindJSON(&req)

	var book *entities.Book
	var err error
	if req.Status != "" {
		status := entities.ReadingStatus(req.Status)
		if !status.Valid() {
			respondBadRequest(c, "invalid status")
			return
		}
		book, err = bc.store.SetStatus(id, status)
	} else {
		book, err = bc.store.CycleStatus(id)
	}
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// SetRating records a 1-5 rating; 0 clears it.
// PUT /api/books/:id/rating
func (bc *BooksController) SetRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		respondBadRequest(c, "rating must be between 1 and 5")
		return
	}

	if err := bc.store.SetRating(id, req.Rating); err != nil {
		respondInternalError(c, err, "set rating")
		return
	}

	book, err := bc.store.ByID(id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// AddTagToBook links a tag by id or name, creating named tags on the
// fly through the registry.
// POST /api/books/:id/tags
func (bc *BooksController) AddTagToBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		TagID   uint   `json:"tag_id"`
		TagName string `json:"tag_name"`
	}
	_ = c.ShouldBindJSON(&req)

	var tag *entities.Tag
	switch {
	case req.TagID > 0:
		tag = &entities.Tag{ID: req.TagID}
	case req.TagName != "":
		created, err := bc.tags.FindOrCreate(req.TagName)
		if err != nil {
			respondInternalError(c, err, "find or create tag")
			return
		}
		if created == nil {
			respondBadRequest(c, "tag name cannot be blank")
			return
		}
		tag = created
	default:
		respondBadRequest(c, "tag_id or tag_name required")
		return
	}

	if err := bc.store.AddTag(bookID, tag); err != nil {
		respondInternalError(c, err, "add tag to book")
		return
	}

	book, err := bc.store.ByID(bookID)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tag added", "tags": book.Tags})
}

// RemoveTagFromBook unlinks a tag; the tag itself survives.
// DELETE /api/books/:id/tags/:tagId
func (bc *BooksController) RemoveTagFromBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tagId")
	if !ok {
		return
	}

	if err := bc.store.RemoveTag(bookID, tagID); err != nil {
		respondInternalError(c, err, "remove tag from book")
		return
	}

	book, err := bc.store.ByID(bookID)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tag removed", "tags": book.Tags})
}

// linkAuthorsAndTags replaces the book's associations for whichever of
// the two name lists is present (nil means "leave unchanged").
func (bc *BooksController) linkAuthorsAndTags(bookID uint, authorNames, tagNames []string) error {
	if authorNames != nil {
		var bookAuthors []entities.Author
		for _, name := range authorNames {
			author, err := bc.authors.FindOrCreate(name)
			if err != nil {
				return err
			}
			if author != nil {
				bookAuthors = append(bookAuthors, *author)
			}
		}
		if err := bc.store.ReplaceAuthors(bookID, bookAuthors); err != nil {
			return err
		}
	}

	if tagNames != nil {
		var bookTags []entities.Tag
		for _, name := range tagNames {
			tag, err := bc.tags.FindOrCreate(name)
			if err != nil {
				return err
			}
			if tag != nil {
				bookTags = append(bookTags, *tag)
			}
		}
		if err := bc.store.ReplaceTags(bookID, bookTags); err != nil {
			return err
		}
	}

	return nil
}
