package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/readingtracker/internal/config"
	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/database/books"
	"github.com/mrlokans/readingtracker/internal/exporters"
	"github.com/mrlokans/readingtracker/internal/search"
)

// CSVExportCommand writes the whole library to a CSV file.
type CSVExportCommand struct {
	OutputPath   string
	DatabasePath string
}

func NewCSVExportCommand() *CSVExportCommand {
	return &CSVExportCommand{}
}

func (cmd *CSVExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export-csv", flag.ExitOnError)

	fs.StringVar(&cmd.OutputPath, "output", "library.csv", "Path of the CSV file to write")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export-csv [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export the library to a CSV file that import-csv can read back.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *CSVExportCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	allBooks, err := repo.FetchBooks(search.All{}, search.SortSpec{Field: search.SortDateAdded, Ascending: true}, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch books: %w", err)
	}

	out, err := os.Create(cmd.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := exporters.ExportLibraryCSV(out, allBooks); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("Exported %d books to %s\n", len(allBooks), cmd.OutputPath)
	return nil
}
