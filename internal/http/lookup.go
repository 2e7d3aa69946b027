package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/metadata"
	"github.com/mrlokans/readingtracker/internal/tasks"
)

type LookupController struct {
	lookup     *metadata.Service
	enricher   *metadata.Enricher
	taskClient *tasks.Client
}

func NewLookupController(lookup *metadata.Service, enricher *metadata.Enricher, taskClient *tasks.Client) *LookupController {
	return &LookupController{lookup: lookup, enricher: enricher, taskClient: taskClient}
}

// LookupISBN resolves an ISBN through the provider chain and cache.
// GET /api/lookup/:isbn
func (lc *LookupController) LookupISBN(c *gin.Context) {
	result, err := lc.lookup.LookupISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		switch {
		case errors.Is(err, metadata.ErrInvalidISBN):
			respondBadRequest(c, "invalid ISBN")
		case errors.Is(err, metadata.ErrNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, metadata.ErrRateLimited):
			respondError(c, http.StatusTooManyRequests, "lookup rate limited, try again later")
		default:
			respondInternalError(c, err, "lookup isbn")
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// EnrichBook backfills one book's metadata. With the task queue enabled
// the lookup runs in the background; otherwise it runs inline.
// POST /api/books/:id/enrich
func (lc *LookupController) EnrichBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if lc.taskClient == nil {
		result, err := lc.enricher.EnrichBook(c.Request.Context(), id)
		if err != nil {
			respondStoreError(c, err, "book")
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	ids, err := lc.taskClient.Add(tasks.EnrichBookTask{BookID: id}).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue enrich task")
		return
	}
	log.Printf("Enqueued EnrichBookTask for book %d with ID: %s", id, ids[0])
	respondAccepted(c, "enrichment started", gin.H{"task_id": ids[0]})
}

// EnrichAllMissing backfills every book with an ISBN but incomplete
// metadata.
// POST /api/books/enrich-all
func (lc *LookupController) EnrichAllMissing(c *gin.Context) {
	if lc.taskClient == nil {
		result, err := lc.enricher.EnrichAllMissing(c.Request.Context())
		if err != nil {
			respondInternalError(c, err, "enrich all books")
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	ids, err := lc.taskClient.Add(tasks.EnrichAllBooksTask{}).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue enrich-all task")
		return
	}
	log.Printf("Enqueued EnrichAllBooksTask with ID: %s", ids[0])
	respondAccepted(c, "bulk enrichment started", gin.H{"task_id": ids[0]})
}
