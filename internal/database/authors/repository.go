// Package authors handles author records shared between books.
package authors

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/entities"
)

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindOrCreate resolves a name to its author record, creating it on
// first sight. Names are matched on their trimmed form; whitespace-only
// names are a no-op and return nil.
func (r *Repository) FindOrCreate(name string) (*entities.Author, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, nil
	}

	var author entities.Author
	err := r.db.Where("name = ?", trimmed).First(&author).Error
	if err == nil {
		return &author, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, database.FetchError(err)
	}

	author = entities.Author{Name: trimmed}
	if err := r.db.Create(&author).Error; err != nil {
		return nil, database.SaveError(err)
	}
	return &author, nil
}

// All returns every author ordered by name.
func (r *Repository) All() ([]entities.Author, error) {
	var found []entities.Author
	if err := r.db.Order("name ASC").Find(&found).Error; err != nil {
		return nil, database.FetchError(err)
	}
	return found, nil
}

// PruneOrphans deletes authors no longer linked to any book and returns
// how many were removed.
func (r *Repository) PruneOrphans() (int, error) {
	result := r.db.Where("id NOT IN (SELECT author_id FROM book_authors)").Delete(&entities.Author{})
	if result.Error != nil {
		return 0, database.DeleteError(result.Error)
	}
	return int(result.RowsAffected), nil
}
