package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/config"
	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/database/authors"
	"github.com/mrlokans/readingtracker/internal/database/books"
	"github.com/mrlokans/readingtracker/internal/database/notes"
	"github.com/mrlokans/readingtracker/internal/database/quotes"
	"github.com/mrlokans/readingtracker/internal/database/tags"
	http_controllers "github.com/mrlokans/readingtracker/internal/http"
	"github.com/mrlokans/readingtracker/internal/importers"
	"github.com/mrlokans/readingtracker/internal/metadata"
	"github.com/mrlokans/readingtracker/internal/scheduler"
	"github.com/mrlokans/readingtracker/internal/search"
	"github.com/mrlokans/readingtracker/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until interrupted, then shuts down within
// the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the application together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Reading Tracker v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	authorRepo := authors.NewRepository(db.DB)
	tagRepo := tags.NewRepository(db.DB)
	noteRepo := notes.NewRepository(db.DB)
	quoteRepo := quotes.NewRepository(db.DB)

	// Repair duplicate tags left behind by interrupted writes before
	// serving any queries.
	if merged, err := tagRepo.DeduplicateAll(); err != nil {
		log.Printf("WARNING: startup tag dedupe failed: %v", err)
	} else if merged > 0 {
		log.Printf("Startup tag dedupe merged %d duplicate groups", merged)
	}

	engine := search.NewEngine(bookRepo)

	// ISBN lookup: OpenLibrary first, Google Books as fallback, results
	// cached on disk.
	var lookupCache *metadata.Cache
	if cfg.Lookup.CacheDir != "" {
		lookupCache, err = metadata.NewCache(cfg.Lookup.CacheDir)
		if err != nil {
			log.Printf("WARNING: Failed to initialize lookup cache: %v", err)
		}
	}
	lookupService := metadata.NewService(lookupCache, metadata.NewOpenLibraryClient(), metadata.NewGoogleBooksClient())
	enricher := metadata.NewEnricher(lookupService, bookRepo)

	importer := importers.NewLibraryImporter(bookRepo, authorRepo, tagRepo)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewDedupeTagsQueue(tagRepo),
			tasks.NewEnrichBookQueue(enricher),
			tasks.NewEnrichAllBooksQueue(enricher),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic dedupe sweep for duplicates created while running
	var dedupeScheduler *scheduler.DedupeScheduler
	if cfg.Dedupe.Enabled {
		dedupeScheduler = scheduler.NewDedupeScheduler(tagRepo, cfg.Dedupe.Schedule)
		if err := dedupeScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start dedupe scheduler: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:    db,
		Version:     version,
		BookStore:   bookRepo,
		BookFetcher: bookRepo,
		TagStore:    tagRepo,
		NoteStore:   noteRepo,
		QuoteStore:  quoteRepo,
		StatsStore:  bookRepo,
		Authors:     authorRepo,
		Tags:        tagRepo,
		Engine:      engine,
		Lookup:      lookupService,
		Enricher:    enricher,
		Importer:    importer,
		TaskClient:  taskClient,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if dedupeScheduler != nil {
			dedupeScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
