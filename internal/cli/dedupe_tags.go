package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/readingtracker/internal/config"
	"github.com/mrlokans/readingtracker/internal/database"
	"github.com/mrlokans/readingtracker/internal/database/tags"
	"github.com/mrlokans/readingtracker/internal/entities"
)

// DedupeTagsCommand runs the tag dedupe sweep against a database file.
type DedupeTagsCommand struct {
	DatabasePath string
	DryRun       bool
}

func NewDedupeTagsCommand() *DedupeTagsCommand {
	return &DedupeTagsCommand{}
}

func (cmd *DedupeTagsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("dedupe-tags", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "List duplicate groups without merging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s dedupe-tags [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Merge tags that share a canonical (lowercased) name. The tag with\n")
		fmt.Fprintf(os.Stderr, "the lowest ID survives and inherits the merged book links.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *DedupeTagsCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cmd.DryRun {
		var all []entities.Tag
		if err := db.DB.Order("id ASC").Find(&all).Error; err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}
		groups := make(map[string][]entities.Tag)
		for _, tag := range all {
			groups[tag.Name] = append(groups[tag.Name], tag)
		}
		duplicates := 0
		for name, group := range groups {
			if len(group) < 2 {
				continue
			}
			duplicates++
			fmt.Printf("%q: %d tags would merge into #%d\n", name, len(group), group[0].ID)
		}
		if duplicates == 0 {
			fmt.Println("No duplicate tags found")
		}
		return nil
	}

	merged, err := tags.NewRepository(db.DB).DeduplicateAll()
	if err != nil {
		return fmt.Errorf("dedupe failed: %w", err)
	}
	fmt.Printf("Merged %d duplicate tag groups\n", merged)
	return nil
}
