// Package notes handles free-form notes attached to books.
package notes

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/entities"
)

// Repository handles all note database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create attaches a note to a book. Whitespace-only content is a no-op
// and returns nil.
func (r *Repository) Create(bookID uint, content string) (*entities.Note, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil
	}

	note := &entities.Note{BookID: bookID, Content: trimmed}
	if err := r.db.Create(note).Error; err != nil {
		return nil, database.SaveError(err)
	}
	return note, nil
}

// ByBook returns a book's notes, newest first.
func (r *Repository) ByBook(bookID uint) ([]entities.Note, error) {
	var found []entities.Note
	err := r.db.Where("book_id = ?", bookID).Order("created_at DESC, id DESC").Find(&found).Error
	if err != nil {
		return nil, database.FetchError(err)
	}
	return found, nil
}

// UpdateContent rewrites a note's text.
func (r *Repository) UpdateContent(id uint, content string) error {
	err := r.db.Model(&entities.Note{}).Where("id = ?", id).Update("content", content).Error
	if err != nil {
		return database.SaveError(err)
	}
	return nil
}

// Delete removes a note.
func (r *Repository) Delete(id uint) error {
	if err := r.db.Delete(&entities.Note{}, id).Error; err != nil {
		return database.DeleteError(err)
	}
	return nil
}
