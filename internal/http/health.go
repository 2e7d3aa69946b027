package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/database"
)

// HealthController reports liveness plus database reachability.
type HealthController struct {
	db      *database.Database
	version string
	started time.Time
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version, started: time.Now()}
}

func (h *HealthController) Status(c *gin.Context) {
	dbState := "up"
	if err := h.pingDatabase(); err != nil {
		dbState = "down: " + err.Error()
	}

	status, code := "ok", http.StatusOK
	if dbState != "up" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"version":  h.version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"database": dbState,
	})
}

func (h *HealthController) pingDatabase() error {
	if h.db == nil {
		return errors.New("not configured")
	}
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
