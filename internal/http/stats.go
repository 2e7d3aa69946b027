package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/entities"
)

// StatsStore defines the aggregate queries behind the stats endpoint.
type StatsStore interface {
	TotalCount() (int64, error)
	StatusCounts() (map[entities.ReadingStatus]int64, error)
	RatingCounts() (map[int]int64, error)
	CurrentlyReading() ([]entities.Book, error)
	FinishedBetween(from, to time.Time) ([]entities.Book, error)
}

// StatsResponse summarizes the library.
type StatsResponse struct {
	TotalBooks       int64                            `json:"total_books"`
	StatusCounts     map[entities.ReadingStatus]int64 `json:"status_counts"`
	RatingCounts     map[int]int64                    `json:"rating_counts"`
	FinishedThisYear int                              `json:"finished_this_year"`
	CurrentlyReading []entities.Book                  `json:"currently_reading"`
}

type StatsController struct {
	store StatsStore
}

func NewStatsController(store StatsStore) *StatsController {
	return &StatsController{store: store}
}

// GetStats returns library-wide reading statistics.
// GET /api/stats
func (sc *StatsController) GetStats(c *gin.Context) {
	total, err := sc.store.TotalCount()
	if err != nil {
		respondInternalError(c, err, "count books")
		return
	}
	statusCounts, err := sc.store.StatusCounts()
	if err != nil {
		respondInternalError(c, err, "count statuses")
		return
	}
	ratingCounts, err := sc.store.RatingCounts()
	if err != nil {
		respondInternalError(c, err, "count ratings")
		return
	}
	reading, err := sc.store.CurrentlyReading()
	if err != nil {
		respondInternalError(c, err, "currently reading")
		return
	}

	now := time.Now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	finished, err := sc.store.FinishedBetween(yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		respondInternalError(c, err, "finished this year")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalBooks:       total,
		StatusCounts:     statusCounts,
		RatingCounts:     ratingCounts,
		FinishedThisYear: len(finished),
		CurrentlyReading: reading,
	})
}
