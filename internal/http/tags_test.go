package http

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/database/tags"
	"github.com/mrlokans/readingtracker/internal/entities"
)

func setupTagsTest(t *testing.T) (*gin.Engine, *tags.Repository, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_tags_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	tagRepo := tags.NewRepository(db.DB)
	controller := NewTagsController(tagRepo, nil)

	router := gin.New()
	router.GET("/api/tags", controller.GetAllTags)
	router.POST("/api/tags", controller.CreateTag)
	router.PATCH("/api/tags/:id", controller.RenameTag)
	router.PUT("/api/tags/:id/color", controller.SetTagColor)
	router.DELETE("/api/tags/:id", controller.DeleteTag)
	router.POST("/api/admin/tags/dedupe", controller.DedupeTags)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, tagRepo, cleanup
}

func TestTagsController_CreateAndList(t *testing.T) {
	router, _, cleanup := setupTagsTest(t)
	defer cleanup()

	w := doJSON(router, "POST", "/api/tags", `{"name": "SciFi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var tag entities.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tag))
	assert.Equal(t, "scifi", tag.Name)
	assert.Equal(t, "SciFi", tag.DisplayName)

	w = doJSON(router, "GET", "/api/tags", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []entities.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestTagsController_CreateTag_Conflict(t *testing.T) {
	router, _, cleanup := setupTagsTest(t)
	defer cleanup()

	w := doJSON(router, "POST", "/api/tags", `{"name": "SciFi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// Same canonical name in a different case collides
	w = doJSON(router, "POST", "/api/tags", `{"name": "scifi"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTagsController_RenameTag(t *testing.T) {
	router, repo, cleanup := setupTagsTest(t)
	defer cleanup()

	tag, err := repo.Create("scifi")
	require.NoError(t, err)
	other, err := repo.Create("fantasy")
	require.NoError(t, err)

	w := doJSON(router, "PATCH", "/api/tags/1", `{"name": "Science Fiction"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var renamed entities.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &renamed))
	assert.Equal(t, tag.ID, renamed.ID)
	assert.Equal(t, "science fiction", renamed.Name)

	// Renaming onto another tag's name is a conflict
	w = doJSON(router, "PATCH", "/api/tags/1", `{"name": "Fantasy"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	_ = other
}

func TestTagsController_SetTagColor(t *testing.T) {
	router, repo, cleanup := setupTagsTest(t)
	defer cleanup()

	_, err := repo.Create("scifi")
	require.NoError(t, err)

	w := doJSON(router, "PUT", "/api/tags/1/color", `{"color": "teal"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var tag entities.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tag))
	assert.Equal(t, entities.ColorTeal, tag.ColorName)

	// Empty color clears it
	w = doJSON(router, "PUT", "/api/tags/1/color", `{"color": ""}`)
	require.Equal(t, http.StatusOK, w.Code)
	tag = entities.Tag{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tag))
	assert.Empty(t, tag.ColorName)

	w = doJSON(router, "PUT", "/api/tags/1/color", `{"color": "chartreuse"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagsController_DeleteTag(t *testing.T) {
	router, repo, cleanup := setupTagsTest(t)
	defer cleanup()

	tag, err := repo.Create("scifi")
	require.NoError(t, err)

	w := doJSON(router, "DELETE", "/api/tags/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	_, err = repo.ByID(tag.ID)
	assert.Error(t, err)
}

func TestTagsController_DedupeInline(t *testing.T) {
	router, repo, cleanup := setupTagsTest(t)
	defer cleanup()

	// No task queue wired, so the sweep runs inline and reports counts
	_, err := repo.Create("scifi")
	require.NoError(t, err)

	w := doJSON(router, "POST", "/api/admin/tags/dedupe", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Merged int `json:"merged"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Merged)
}
