// Package cli implements the command-line subcommands.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/readingtracker/internal/config"
	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/database/authors"
	"github.com/mrlokans/readingtracker/internal/database/books"
	"github.com/mrlokans/readingtracker/internal/database/tags"
	"github.com/mrlokans/readingtracker/internal/importers"
)

// CSVImportCommand loads a library CSV file into the database.
type CSVImportCommand struct {
	FilePath     string
	DatabasePath string
	Verbose      bool
	DryRun       bool
}

func NewCSVImportCommand() *CSVImportCommand {
	return &CSVImportCommand{}
}

func (cmd *CSVImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-csv", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the library CSV file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-csv -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import books from a library CSV export into the database.\n")
		fmt.Fprintf(os.Stderr, "Books whose ISBN is already present are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *CSVImportCommand) Run() error {
	fmt.Println("Library CSV Import")
	fmt.Println("==================")

	file, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	if cmd.DryRun {
		rows, parseErrors, err := importers.ParseLibraryCSV(file)
		if err != nil {
			return fmt.Errorf("failed to parse CSV: %w", err)
		}
		fmt.Printf("DRY RUN: %d rows would be imported\n", len(rows))
		if cmd.Verbose {
			for i, row := range rows {
				fmt.Printf("%d. %q by %s\n", i+1, row.Title, row.Authors)
			}
		}
		for _, msg := range parseErrors {
			fmt.Printf("  [SKIPPED] %s\n", msg)
		}
		return nil
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	fmt.Printf("Database: %s\n", absDBPath)

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	importer := importers.NewLibraryImporter(
		books.NewRepository(db.DB),
		authors.NewRepository(db.DB),
		tags.NewRepository(db.DB),
	)

	result, err := importer.Import(file)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Rows:     %d\n", result.Total)
	fmt.Printf("Imported: %d\n", result.Imported)
	fmt.Printf("Skipped:  %d (already in library)\n", result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Printf("\n%d rows had problems:\n", len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Printf("  [ERROR] %s\n", msg)
		}
	}

	fmt.Println("\nImport complete!")
	return nil
}
