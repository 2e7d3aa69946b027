package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// QuoteStore defines database operations for quotes.
type QuoteStore interface {
	Create(bookID uint, text, comment string, pageNumber int) (*entities.Quote, error)
	ByBook(bookID uint) ([]entities.Quote, error)
	Update(id uint, text, comment string, pageNumber int) error
	Delete(id uint) error
}

type QuotesController struct {
	store QuoteStore
}

func NewQuotesController(store QuoteStore) *QuotesController {
	return &QuotesController{store: store}
}

// ListQuotes returns a book's quotes in page order.
// GET /api/books/:id/quotes
func (qc *QuotesController) ListQuotes(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookQuotes, err := qc.store.ByBook(bookID)
	if err != nil {
		respondInternalError(c, err, "list quotes")
		return
	}
	c.JSON(http.StatusOK, bookQuotes)
}

// CreateQuote attaches a captured passage to a book.
// POST /api/books/:id/quotes
func (qc *QuotesController) CreateQuote(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Text       string `json:"text" binding:"required"`
		Comment    string `json:"comment"`
		PageNumber int    `json:"page_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "text is required")
		return
	}

	quote, err := qc.store.Create(bookID, req.Text, req.Comment, req.PageNumber)
	if err != nil {
		respondInternalError(c, err, "create quote")
		return
	}
	if quote == nil {
		respondBadRequest(c, "text cannot be blank")
		return
	}
	respondCreated(c, quote)
}

// UpdateQuote rewrites a quote's text, comment and page number.
// PATCH /api/quotes/:id
func (qc *QuotesController) UpdateQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Text       string `json:"text" binding:"required"`
		Comment    string `json:"comment"`
		PageNumber int    `json:"page_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "text is required")
		return
	}

	if err := qc.store.Update(id, req.Text, req.Comment, req.PageNumber); err != nil {
		respondInternalError(c, err, "update quote")
		return
	}
	respondSuccess(c, "quote updated")
}

// DeleteQuote removes a quote.
// DELETE /api/quotes/:id
func (qc *QuotesController) DeleteQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := qc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete quote")
		return
	}
	respondSuccess(c, "quote deleted")
}
