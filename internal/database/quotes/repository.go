// Package quotes handles captured passages attached to books.
package quotes

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/entities"
)

// Repository handles all quote database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new quotes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create attaches a quote to a book. Whitespace-only text is a no-op
// and returns nil; the comment and page number are optional.
func (r *Repository) Create(bookID uint, text, comment string, pageNumber int) (*entities.Quote, error) {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return nil, nil
	}

	quote := &entities.Quote{
		BookID:     bookID,
		Text:       trimmedText,
		Comment:    strings.TrimSpace(comment),
		PageNumber: pageNumber,
	}
	if err := r.db.Create(quote).Error; err != nil {
		return nil, database.SaveError(err)
	}
	return quote, nil
}

// ByBook returns a book's quotes in page order, then capture order.
func (r *Repository) ByBook(bookID uint) ([]entities.Quote, error) {
	var found []entities.Quote
	err := r.db.Where("book_id = ?", bookID).Order("page_number ASC, id ASC").Find(&found).Error
	if err != nil {
		return nil, database.FetchError(err)
	}
	return found, nil
}

// Update rewrites a quote's text, comment and page number.
func (r *Repository) Update(id uint, text, comment string, pageNumber int) error {
	updates := map[string]any{
		"text":        text,
		"comment":     comment,
		"page_number": pageNumber,
	}
	err := r.db.Model(&entities.Quote{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return database.SaveError(err)
	}
	return nil
}

// Delete removes a quote.
func (r *Repository) Delete(id uint) error {
	if err := r.db.Delete(&entities.Quote{}, id).Error; err != nil {
		return database.DeleteError(err)
	}
	return nil
}
