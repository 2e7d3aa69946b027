package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/database/tags"
	"github.com/mrlokans/readingtracker/internal/entities"
	"github.com/mrlokans/readingtracker/internal/tasks"
)

// TagStore defines database operations for tag management.
type TagStore interface {
	All() ([]entities.Tag, error)
	ByID(id uint) (*entities.Tag, error)
	Create(name string) (*entities.Tag, error)
	Rename(id uint, newName string) (*entities.Tag, error)
	SetColor(id uint, color entities.TagColor) error
	Delete(id uint) error
	DeduplicateAll() (int, error)
}

type TagsController struct {
	store      TagStore
	taskClient *tasks.Client
}

func NewTagsController(store TagStore, taskClient *tasks.Client) *TagsController {
	return &TagsController{store: store, taskClient: taskClient}
}

// GetAllTags returns every tag ordered by name.
// GET /api/tags
func (tc *TagsController) GetAllTags(c *gin.Context) {
	allTags, err := tc.store.All()
	if err != nil {
		respondInternalError(c, err, "get all tags")
		return
	}
	c.JSON(http.StatusOK, allTags)
}

// CreateTag creates a new tag; names colliding with an existing tag are
// rejected.
// POST /api/tags
func (tc *TagsController) CreateTag(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	tag, err := tc.store.Create(req.Name)
	if err != nil {
		if errors.Is(err, tags.ErrNameTaken) {
			respondError(c, http.StatusConflict, err.Error())
			return
		}
		respondInternalError(c, err, "create tag")
		return
	}
	if tag == nil {
		respondBadRequest(c, "name cannot be blank")
		return
	}

	respondCreated(c, tag)
}

// RenameTag changes a tag's name, keeping case-insensitive uniqueness.
// PATCH /api/tags/:id
func (tc *TagsController) RenameTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	tag, err := tc.store.Rename(id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, tags.ErrNameTaken):
			respondError(c, http.StatusConflict, err.Error())
		case errors.Is(err, tags.ErrEmptyName):
			respondBadRequest(c, err.Error())
		default:
			respondStoreError(c, err, "tag")
		}
		return
	}
	c.JSON(http.StatusOK, tag)
}

// SetTagColor assigns a palette color; an empty color clears it.
// PUT /api/tags/:id/color
func (tc *TagsController) SetTagColor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	color := entities.TagColor(req.Color)
	if color != "" && !color.Valid() {
		respondBadRequest(c, "unknown color")
		return
	}

	if err := tc.store.SetColor(id, color); err != nil {
		respondInternalError(c, err, "set tag color")
		return
	}

	tag, err := tc.store.ByID(id)
	if err != nil {
		respondStoreError(c, err, "tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag, detaching it from every book first.
// DELETE /api/tags/:id
func (tc *TagsController) DeleteTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := tc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete tag")
		return
	}
	respondSuccess(c, "tag deleted")
}

// DedupeTags merges duplicate tags. With the task queue enabled the
// sweep runs in the background; otherwise it runs inline.
// POST /api/admin/tags/dedupe
func (tc *TagsController) DedupeTags(c *gin.Context) {
	if tc.taskClient == nil {
		merged, err := tc.store.DeduplicateAll()
		if err != nil {
			respondInternalError(c, err, "dedupe tags")
			return
		}
		c.JSON(http.StatusOK, gin.H{"merged": merged})
		return
	}

	ids, err := tc.taskClient.Add(tasks.DedupeTagsTask{}).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue dedupe task")
		return
	}
	log.Printf("Enqueued DedupeTagsTask with ID: %s", ids[0])
	respondAccepted(c, "dedupe task started", gin.H{"task_id": ids[0]})
}
