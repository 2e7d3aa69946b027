// Package tags maintains the tag registry: case-insensitive uniqueness
// of tag names, and repair of duplicates that arrive through concurrent
// or synced writes.
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tag, err := repo.FindOrCreate("SciFi")
package tags

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/entities"
)

// ErrNameTaken is returned when a create or rename collides with a
// different tag's canonical name. It is a validation error raised
// before any store write.
var ErrNameTaken = errors.New("a tag with that name already exists")

// ErrEmptyName is returned when a rename target is empty or
// whitespace-only.
var ErrEmptyName = errors.New("tag name is empty")

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindOrCreate resolves name to its canonical tag. Whitespace-only
// names are a no-op and return nil. If sync left several tags with the
// same canonical name, they are merged and the survivor returned.
func (r *Repository) FindOrCreate(name string) (*entities.Tag, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, nil
	}
	lowered := strings.ToLower(trimmed)

	var matches []entities.Tag
	if err := r.db.Where("name = ?", lowered).Order("id ASC").Find(&matches).Error; err != nil {
		return nil, database.FetchError(err)
	}

	switch len(matches) {
	case 0:
		tag := &entities.Tag{Name: lowered, DisplayName: trimmed}
		if err := r.db.Create(tag).Error; err != nil {
			return nil, database.SaveError(err)
		}
		return tag, nil
	case 1:
		return &matches[0], nil
	}

	var survivor *entities.Tag
	err := r.db.Transaction(func(tx *gorm.DB) error {
		merged, err := mergeTags(tx, matches)
		survivor = merged
		return err
	})
	if err != nil {
		return nil, database.SaveError(err)
	}
	return survivor, nil
}

// DeduplicateAll scans every tag, groups by canonical name and merges
// each group of duplicates inside a single transaction. Returns the
// number of groups merged. Intended to run at process start to repair
// state that arrived via background sync.
func (r *Repository) DeduplicateAll() (int, error) {
	var all []entities.Tag
	if err := r.db.Order("id ASC").Find(&all).Error; err != nil {
		return 0, database.FetchError(err)
	}

	groups := make(map[string][]entities.Tag)
	var names []string
	for _, tag := range all {
		if _, ok := groups[tag.Name]; !ok {
			names = append(names, tag.Name)
		}
		groups[tag.Name] = append(groups[tag.Name], tag)
	}

	merged := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			group := groups[name]
			if len(group) < 2 {
				continue
			}
			if _, err := mergeTags(tx, group); err != nil {
				return err
			}
			merged++
		}
		return nil
	})
	if err != nil {
		return 0, database.SaveError(err)
	}
	return merged, nil
}

// mergeTags collapses a group of same-named tags into the one with the
// lowest ID. Book links become the union across the group (no duplicate
// links); the survivor keeps its color, adopting a duplicate's only if
// it had none. Duplicates are detached and deleted. Runs inside the
// caller's transaction so a failed commit leaves nothing half-merged.
func mergeTags(tx *gorm.DB, duplicates []entities.Tag) (*entities.Tag, error) {
	sort.Slice(duplicates, func(i, j int) bool { return duplicates[i].ID < duplicates[j].ID })
	survivor := duplicates[0]

	var survivorBooks []entities.Book
	if err := tx.Model(&survivor).Association("Books").Find(&survivorBooks); err != nil {
		return nil, err
	}
	linked := make(map[uint]bool, len(survivorBooks))
	for _, b := range survivorBooks {
		linked[b.ID] = true
	}

	for i := range duplicates[1:] {
		dup := duplicates[1+i]

		var dupBooks []entities.Book
		if err := tx.Model(&dup).Association("Books").Find(&dupBooks); err != nil {
			return nil, err
		}
		for _, b := range dupBooks {
			if linked[b.ID] {
				continue
			}
			if err := tx.Model(&survivor).Association("Books").Append(&entities.Book{ID: b.ID}); err != nil {
				return nil, err
			}
			linked[b.ID] = true
		}

		if survivor.ColorName == "" && dup.ColorName != "" {
			survivor.ColorName = dup.ColorName
			if err := tx.Model(&survivor).Update("color_name", dup.ColorName).Error; err != nil {
				return nil, err
			}
		}

		if err := tx.Model(&dup).Association("Books").Clear(); err != nil {
			return nil, err
		}
		if err := tx.Delete(&entities.Tag{}, dup.ID).Error; err != nil {
			return nil, err
		}
	}

	return &survivor, nil
}

// Create makes a new tag, rejecting names already used by another tag.
// Whitespace-only names are a no-op and return nil.
func (r *Repository) Create(name string) (*entities.Tag, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, nil
	}
	lowered := strings.ToLower(trimmed)

	var count int64
	if err := r.db.Model(&entities.Tag{}).Where("name = ?", lowered).Count(&count).Error; err != nil {
		return nil, database.FetchError(err)
	}
	if count > 0 {
		return nil, ErrNameTaken
	}

	tag := &entities.Tag{Name: lowered, DisplayName: trimmed}
	if err := r.db.Create(tag).Error; err != nil {
		return nil, database.SaveError(err)
	}
	return tag, nil
}

// Rename changes a tag's name, keeping canonical lowercase identity and
// the typed display form. Collisions with a different tag are rejected
// before any write.
func (r *Repository) Rename(id uint, newName string) (*entities.Tag, error) {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return nil, ErrEmptyName
	}
	lowered := strings.ToLower(trimmed)

	var count int64
	err := r.db.Model(&entities.Tag{}).Where("name = ? AND id <> ?", lowered, id).Count(&count).Error
	if err != nil {
		return nil, database.FetchError(err)
	}
	if count > 0 {
		return nil, ErrNameTaken
	}

	tag, err := r.ByID(id)
	if err != nil {
		return nil, err
	}
	tag.Name = lowered
	tag.DisplayName = trimmed
	if err := r.db.Model(tag).Updates(map[string]any{"name": lowered, "display_name": trimmed}).Error; err != nil {
		return nil, database.SaveError(err)
	}
	return tag, nil
}

// SetColor assigns a palette color to the tag; an empty color clears it.
func (r *Repository) SetColor(id uint, color entities.TagColor) error {
	if err := r.db.Model(&entities.Tag{}).Where("id = ?", id).Update("color_name", color).Error; err != nil {
		return database.SaveError(err)
	}
	return nil
}

// All returns every tag ordered by canonical name.
func (r *Repository) All() ([]entities.Tag, error) {
	var tags []entities.Tag
	if err := r.db.Order("name ASC").Find(&tags).Error; err != nil {
		return nil, database.FetchError(err)
	}
	return tags, nil
}

// ByID retrieves a tag by ID.
func (r *Repository) ByID(id uint) (*entities.Tag, error) {
	var tag entities.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		return nil, database.FetchError(err)
	}
	return &tag, nil
}

// Delete detaches the tag from all its books, then removes it.
func (r *Repository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tag := entities.Tag{ID: id}
		if err := tx.Model(&tag).Association("Books").Clear(); err != nil {
			return err
		}
		return tx.Delete(&entities.Tag{}, id).Error
	})
	if err != nil {
		return database.DeleteError(err)
	}
	return nil
}
