package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readingtracker/internal/entities"
	"github.com/mrlokans/readingtracker/internal/exporters"
	"github.com/mrlokans/readingtracker/internal/importers"
	"github.com/mrlokans/readingtracker/internal/search"
)

// BookFetcher is the read side the CSV export goes through.
type BookFetcher interface {
	FetchBooks(p search.Predicate, sort search.SortSpec, limit, offset int) ([]entities.Book, error)
}

type CSVController struct {
	importer *importers.LibraryImporter
	fetcher  BookFetcher
}

func NewCSVController(importer *importers.LibraryImporter, fetcher BookFetcher) *CSVController {
	return &CSVController{importer: importer, fetcher: fetcher}
}

// ImportCSV loads an uploaded library CSV into the catalog.
// POST /api/import/csv (multipart, field "file")
func (cc *CSVController) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondBadRequest(c, "could not open uploaded file")
		return
	}
	defer file.Close()

	result, err := cc.importer.Import(file)
	if err != nil {
		respondInternalError(c, err, "import csv")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportCSV streams the whole library as a CSV download, ordered by
// date added.
// GET /api/export/csv
func (cc *CSVController) ExportCSV(c *gin.Context) {
	books, err := cc.fetcher.FetchBooks(search.All{}, search.SortSpec{Field: search.SortDateAdded, Ascending: true}, 0, 0)
	if err != nil {
		respondInternalError(c, err, "fetch books for export")
		return
	}

	filename := fmt.Sprintf("library-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "text/csv")

	if err := exporters.ExportLibraryCSV(c.Writer, books); err != nil {
		respondInternalError(c, err, "export csv")
		return
	}
}
