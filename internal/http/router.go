package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/importers"
	"github.com/mrlokans/readingtracker/internal/metadata"
	"github.com/mrlokans/readingtracker/internal/search"
	"github.com/mrlokans/readingtracker/internal/tasks"
)

// RouterConfig carries every dependency the router needs, improving
// testability and reducing parameter count.
type RouterConfig struct {
	Database *database.Database
	Version  string

	BookStore   BookStore
	BookFetcher BookFetcher
	TagStore    TagStore
	NoteStore   NoteStore
	QuoteStore  QuoteStore
	StatsStore  StatsStore
	Authors     AuthorRegistry
	Tags        TagRegistry

	Engine   *search.Engine
	Lookup   *metadata.Service
	Enricher *metadata.Enricher
	Importer *importers.LibraryImporter

	TaskClient *tasks.Client
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.BookStore, cfg.Engine, cfg.Authors, cfg.Tags)
	tagsController := NewTagsController(cfg.TagStore, cfg.TaskClient)
	notesController := NewNotesController(cfg.NoteStore)
	quotesController := NewQuotesController(cfg.QuoteStore)
	statsController := NewStatsController(cfg.StatsStore)
	csvController := NewCSVController(cfg.Importer, cfg.BookFetcher)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.POST("/api/books", booksController.CreateBook)
	router.GET("/api/books/:id", booksController.GetBook)
	router.PATCH("/api/books/:id", booksController.UpdateBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)
	router.POST("/api/books/:id/status", booksController.AdvanceStatus)
	router.PUT("/api/books/:id/rating", booksController.SetRating)
	router.POST("/api/books/:id/tags", booksController.AddTagToBook)
	router.DELETE("/api/books/:id/tags/:tagId", booksController.RemoveTagFromBook)

	// Tag management endpoints
	router.GET("/api/tags", tagsController.GetAllTags)
	router.POST("/api/tags", tagsController.CreateTag)
	router.PATCH("/api/tags/:id", tagsController.RenameTag)
	router.PUT("/api/tags/:id/color", tagsController.SetTagColor)
	router.DELETE("/api/tags/:id", tagsController.DeleteTag)
	router.POST("/api/admin/tags/dedupe", tagsController.DedupeTags)

	// Notes and quotes
	router.GET("/api/books/:id/notes", notesController.ListNotes)
	router.POST("/api/books/:id/notes", notesController.CreateNote)
	router.PATCH("/api/notes/:id", notesController.UpdateNote)
	router.DELETE("/api/notes/:id", notesController.DeleteNote)
	router.GET("/api/books/:id/quotes", quotesController.ListQuotes)
	router.POST("/api/books/:id/quotes", quotesController.CreateQuote)
	router.PATCH("/api/quotes/:id", quotesController.UpdateQuote)
	router.DELETE("/api/quotes/:id", quotesController.DeleteQuote)

	// ISBN lookup and metadata enrichment
	if cfg.Lookup != nil {
		lookupController := NewLookupController(cfg.Lookup, cfg.Enricher, cfg.TaskClient)
		router.GET("/api/lookup/:isbn", lookupController.LookupISBN)
		router.POST("/api/books/:id/enrich", lookupController.EnrichBook)
		router.POST("/api/books/enrich-all", lookupController.EnrichAllMissing)
	}

	// Stats
	router.GET("/api/stats", statsController.GetStats)

	// CSV import/export
	router.POST("/api/import/csv", csvController.ImportCSV)
	router.GET("/api/export/csv", csvController.ExportCSV)

	return router
}
