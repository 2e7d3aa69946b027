package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// NoteStore defines database operations for notes.
type NoteStore interface {
	Create(bookID uint, content string) (*entities.Note, error)
	ByBook(bookID uint) ([]entities.Note, error)
	UpdateContent(id uint, content string) error
	Delete(id uint) error
}

type NotesController struct {
	store NoteStore
}

func NewNotesController(store NoteStore) *NotesController {
	return &NotesController{store: store}
}

// ListNotes returns a book's notes, newest first.
// GET /api/books/:id/notes
func (nc *NotesController) ListNotes(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookNotes, err := nc.store.ByBook(bookID)
	if err != nil {
		respondInternalError(c, err, "list notes")
		return
	}
	c.JSON(http.StatusOK, bookNotes)
}

// CreateNote attaches a note to a book.
// POST /api/books/:id/notes
func (nc *NotesController) CreateNote(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content is required")
		return
	}

	note, err := nc.store.Create(bookID, req.Content)
	if err != nil {
		respondInternalError(c, err, "create note")
		return
	}
	if note == nil {
		respondBadRequest(c, "content cannot be blank")
		return
	}
	respondCreated(c, note)
}

// UpdateNote rewrites a note's text.
// PATCH /api/notes/:id
func (nc *NotesController) UpdateNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content is required")
		return
	}

	if err := nc.store.UpdateContent(id, req.Content); err != nil {
		respondInternalError(c, err, "update note")
		return
	}
	respondSuccess(c, "note updated")
}

// DeleteNote removes a note.
// DELETE /api/notes/:id
func (nc *NotesController) DeleteNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := nc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete note")
		return
	}
	respondSuccess(c, "note deleted")
}
