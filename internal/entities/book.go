package entities

import (
	"strings"
	"time"
)

// ReadingStatus tracks where a book sits in the reading lifecycle.
// Statuses cycle toRead -> reading -> read -> toRead, driven by explicit
// user action only.
type ReadingStatus string

const (
	StatusToRead  ReadingStatus = "toRead"
	StatusReading ReadingStatus = "reading"
	StatusRead    ReadingStatus = "read"
)

// AllStatuses lists every status in cycle order.
var AllStatuses = []ReadingStatus{StatusToRead, StatusReading, StatusRead}

// Next returns the status that follows in the cycle.
func (s ReadingStatus) Next() ReadingStatus {
	switch s {
	case StatusToRead:
		return StatusReading
	case StatusReading:
		return StatusRead
	default:
		return StatusToRead
	}
}

func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusRead:
		return true
	}
	return false
}

// DisplayName returns the human-readable form of the status.
func (s ReadingStatus) DisplayName() string {
	switch s {
	case StatusToRead:
		return "To Read"
	case StatusReading:
		return "Reading"
	case StatusRead:
		return "Read"
	}
	return string(s)
}

// Book is the central catalog entity. Authors and tags are shared
// (many-to-many); notes and quotes are owned and die with the book.
type Book struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Title         string        `gorm:"index;size:512" json:"title"`
	ISBN          string        `gorm:"index;size:20" json:"isbn,omitempty"`
	CoverURL      string        `gorm:"size:2048" json:"cover_url,omitempty"`
	CoverImage    []byte        `gorm:"type:blob" json:"-"`
	Publisher     string        `gorm:"size:256" json:"publisher,omitempty"`
	PublishedDate string        `gorm:"size:64" json:"published_date,omitempty"` // free text, never parsed
	Description   string        `gorm:"type:text" json:"description,omitempty"`
	PageCount     int           `json:"page_count,omitempty"`
	Status        ReadingStatus `gorm:"index;size:20;default:'toRead'" json:"status"`
	Rating        int           `gorm:"index" json:"rating,omitempty"` // 1-5, 0 means unrated
	UserNotes     string        `gorm:"type:text" json:"user_notes,omitempty"`
	DateAdded     time.Time     `gorm:"index" json:"date_added"`
	DateStarted   *time.Time    `json:"date_started,omitempty"`
	DateFinished  *time.Time    `json:"date_finished,omitempty"`

	Authors []Author `gorm:"many2many:book_authors;" json:"authors,omitempty"`
	Tags    []Tag    `gorm:"many2many:book_tags;" json:"tags,omitempty"`
	Notes   []Note   `gorm:"foreignKey:BookID" json:"notes,omitempty"`
	Quotes  []Quote  `gorm:"foreignKey:BookID" json:"quotes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyStatus sets the status and stamps the reading dates: entering
// "reading" sets the start date if it was never set, entering "read"
// always (re)stamps the finish date.
func (b *Book) ApplyStatus(status ReadingStatus) {
	b.Status = status
	now := time.Now()
	if status == StatusReading && b.DateStarted == nil {
		b.DateStarted = &now
	}
	if status == StatusRead {
		b.DateFinished = &now
	}
}

// CycleStatus advances the book to the next status in the cycle and
// returns the new status.
func (b *Book) CycleStatus() ReadingStatus {
	next := b.Status.Next()
	b.ApplyStatus(next)
	return next
}

// AuthorNames joins the book's author names for display.
func (b *Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Author is shared between books.
type Author struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"index;size:256" json:"name"`
	Books []Book `gorm:"many2many:book_authors;" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Note is a free-form note owned by exactly one book.
type Note struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	BookID  uint   `gorm:"index" json:"book_id"`
	Content string `gorm:"type:text" json:"content"`

	CreatedAt time.Time `json:"created_at"`
}

// Quote is a passage captured from a book, owned by exactly one book.
type Quote struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	BookID     uint   `gorm:"index" json:"book_id"`
	Text       string `gorm:"type:text" json:"text"`
	Comment    string `gorm:"type:text" json:"comment,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (Author) TableName() string {
	return "authors"
}

func (Note) TableName() string {
	return "notes"
}

func (Quote) TableName() string {
	return "quotes"
}
