// Package books handles the catalog: book CRUD, reading-status
// transitions, statistics, and the store interface the search engine
// fetches through.
package books

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/entities"
	"github.com/mrlokans/readingtracker/internal/search"
)

// Repository handles all book database operations. It implements
// search.Store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FetchBooks returns books matching the predicate with all
// relationships loaded, ordered per the sort spec. A limit of 0 fetches
// everything. Predicates the SQL translation can only widen (non-ASCII
// case folding) are refined here with the in-memory interpreter, so
// callers always get exactly the matching set.
func (r *Repository) FetchBooks(p search.Predicate, sort search.SortSpec, limit, offset int) ([]entities.Book, error) {
	cond, args := sqlForPredicate(p)
	exact := sqlExact(p)
	query := r.db.Model(&entities.Book{}).
		Preload("Authors").
		Preload("Tags").
		Preload("Notes").
		Preload("Quotes").
		Where(cond, args...).
		Order(orderClause(sort))
	if exact && limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var found []entities.Book
	if err := query.Find(&found).Error; err != nil {
		return nil, database.FetchError(err)
	}
	if exact {
		return found, nil
	}

	matched := make([]entities.Book, 0, len(found))
	for i := range found {
		if search.Matches(p, &found[i]) {
			matched = append(matched, found[i])
		}
	}
	if limit > 0 {
		if offset >= len(matched) {
			return nil, nil
		}
		matched = matched[offset:]
		if len(matched) > limit {
			matched = matched[:limit]
		}
	}
	return matched, nil
}

// FetchTags returns the tags with the given IDs, book memberships
// loaded. IDs without a tag are silently skipped.
func (r *Repository) FetchTags(ids []uint) ([]entities.Tag, error) {
	var found []entities.Tag
	if err := r.db.Preload("Books").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, database.FetchError(err)
	}
	return found, nil
}

// Create stores a new book together with whatever associations are set
// on it. DateAdded defaults to now, the status to "to read".
func (r *Repository) Create(book *entities.Book) error {
	if book.DateAdded.IsZero() {
		book.DateAdded = time.Now()
	}
	if book.Status == "" {
		book.Status = entities.StatusToRead
	}
	if err := r.db.Create(book).Error; err != nil {
		return database.SaveError(err)
	}
	return nil
}

// ByID retrieves a book with all relationships loaded.
func (r *Repository) ByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Authors").Preload("Tags").Preload("Notes").Preload("Quotes").
		First(&book, id).Error
	if err != nil {
		return nil, database.FetchError(err)
	}
	return &book, nil
}

// ByISBN returns the first book carrying the ISBN, or nil when none
// does.
func (r *Repository) ByISBN(isbn string) (*entities.Book, error) {
	if isbn == "" {
		return nil, nil
	}
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, database.FetchError(err)
	}
	return &book, nil
}

// Update persists changes to the book's own columns. Associations are
// managed through ReplaceAuthors and ReplaceTags.
func (r *Repository) Update(book *entities.Book) error {
	if err := r.db.Omit("Authors", "Tags", "Notes", "Quotes").Save(book).Error; err != nil {
		return database.SaveError(err)
	}
	return nil
}

// SetStatus moves the book to the given status, stamping reading dates.
func (r *Repository) SetStatus(id uint, status entities.ReadingStatus) (*entities.Book, error) {
	book, err := r.ByID(id)
	if err != nil {
		return nil, err
	}
	book.ApplyStatus(status)
	return book, r.saveStatus(book)
}

// CycleStatus advances the book through toRead -> reading -> read ->
// toRead and returns the updated book.
func (r *Repository) CycleStatus(id uint) (*entities.Book, error) {
	book, err := r.ByID(id)
	if err != nil {
		return nil, err
	}
	book.CycleStatus()
	return book, r.saveStatus(book)
}

func (r *Repository) saveStatus(book *entities.Book) error {
	updates := map[string]any{
		"status":        book.Status,
		"date_started":  book.DateStarted,
		"date_finished": book.DateFinished,
	}
	if err := r.db.Model(&entities.Book{}).Where("id = ?", book.ID).Updates(updates).Error; err != nil {
		return database.SaveError(err)
	}
	return nil
}

// SetRating records a 1-5 rating; 0 clears it.
func (r *Repository) SetRating(id uint, rating int) error {
	err := r.db.Model(&entities.Book{}).Where("id = ?", id).Update("rating", rating).Error
	if err != nil {
		return database.SaveError(err)
	}
	return nil
}

// ReplaceAuthors swaps the book's author links for the given set.
func (r *Repository) ReplaceAuthors(bookID uint, authors []entities.Author) error {
	book := entities.Book{ID: bookID}
	if err := r.db.Model(&book).Association("Authors").Replace(authors); err != nil {
		return database.SaveError(err)
	}
	return nil
}

// ReplaceTags swaps the book's tag links for the given set.
func (r *Repository) ReplaceTags(bookID uint, tagList []entities.Tag) error {
	book := entities.Book{ID: bookID}
	if err := r.db.Model(&book).Association("Tags").Replace(tagList); err != nil {
		return database.SaveError(err)
	}
	return nil
}

// AddTag links a tag to the book if not already linked.
func (r *Repository) AddTag(bookID uint, tag *entities.Tag) error {
	book := entities.Book{ID: bookID}
	if err := r.db.Model(&book).Association("Tags").Append(&entities.Tag{ID: tag.ID}); err != nil {
		return database.SaveError(err)
	}
	return nil
}

// RemoveTag unlinks a tag from the book; the tag itself survives.
func (r *Repository) RemoveTag(bookID, tagID uint) error {
	book := entities.Book{ID: bookID}
	if err := r.db.Model(&book).Association("Tags").Delete(&entities.Tag{ID: tagID}); err != nil {
		return database.SaveError(err)
	}
	return nil
}

// Delete removes the book, its notes and quotes, and its links to
// authors and tags. Authors and tags themselves survive.
func (r *Repository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		book := entities.Book{ID: id}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Note{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Quote{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&book).Association("Authors").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&book).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
	if err != nil {
		return database.DeleteError(err)
	}
	return nil
}

// TotalCount returns the number of books in the catalog.
func (r *Repository) TotalCount() (int64, error) {
	var count int64
	if err := r.db.Model(&entities.Book{}).Count(&count).Error; err != nil {
		return 0, database.FetchError(err)
	}
	return count, nil
}

// StatusCounts returns how many books sit in each reading status.
func (r *Repository) StatusCounts() (map[entities.ReadingStatus]int64, error) {
	type row struct {
		Status entities.ReadingStatus
		Total  int64
	}
	var rows []row
	err := r.db.Model(&entities.Book{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, database.FetchError(err)
	}

	counts := make(map[entities.ReadingStatus]int64, len(entities.AllStatuses))
	for _, status := range entities.AllStatuses {
		counts[status] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

// RatingCounts returns how many books carry each rating 1-5; unrated
// books are excluded.
func (r *Repository) RatingCounts() (map[int]int64, error) {
	type row struct {
		Rating int
		Total  int64
	}
	var rows []row
	err := r.db.Model(&entities.Book{}).
		Select("rating, COUNT(*) AS total").
		Where("rating > 0").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, database.FetchError(err)
	}

	counts := make(map[int]int64)
	for _, r := range rows {
		counts[r.Rating] = r.Total
	}
	return counts, nil
}

// CurrentlyReading returns the in-progress books, most recently started
// first.
func (r *Repository) CurrentlyReading() ([]entities.Book, error) {
	var found []entities.Book
	err := r.db.Preload("Authors").
		Where("status = ?", entities.StatusReading).
		Order("date_started DESC, id DESC").
		Find(&found).Error
	if err != nil {
		return nil, database.FetchError(err)
	}
	return found, nil
}

// FinishedBetween returns books finished in [from, to), oldest first.
// Feeds the yearly reading stats.
func (r *Repository) FinishedBetween(from, to time.Time) ([]entities.Book, error) {
	var found []entities.Book
	err := r.db.Preload("Authors").
		Where("status = ? AND date_finished >= ? AND date_finished < ?", entities.StatusRead, from, to).
		Order("date_finished ASC").
		Find(&found).Error
	if err != nil {
		return nil, database.FetchError(err)
	}
	return found, nil
}

// MissingMetadata returns books that have an ISBN but lack a cover,
// description or page count. Feeds the background enrichment task.
func (r *Repository) MissingMetadata(limit int) ([]entities.Book, error) {
	query := r.db.Where("isbn <> '' AND (cover_url = '' OR description = '' OR page_count = 0)").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var found []entities.Book
	if err := query.Find(&found).Error; err != nil {
		return nil, database.FetchError(err)
	}
	return found, nil
}

// UpdateMetadata persists looked-up metadata columns for a book.
func (r *Repository) UpdateMetadata(id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return database.SaveError(err)
	}
	return nil
}
