package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mrlokans/readingtracker/internal/config"
	"github.com/mrlokans/readingtracker/internal/metadata"
)

// LookupISBNCommand resolves one ISBN against the lookup providers.
type LookupISBNCommand struct {
	ISBN     string
	CacheDir string
	NoCache  bool
}

func NewLookupISBNCommand() *LookupISBNCommand {
	return &LookupISBNCommand{}
}

func (cmd *LookupISBNCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("lookup-isbn", flag.ExitOnError)

	fs.StringVar(&cmd.CacheDir, "cache", config.DefaultLookupCacheDir, "Directory for cached lookup results")
	fs.BoolVar(&cmd.NoCache, "no-cache", false, "Skip the lookup cache")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s lookup-isbn [options] <isbn>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Look up book metadata by ISBN (OpenLibrary, then Google Books).\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("exactly one ISBN argument is required")
	}
	cmd.ISBN = fs.Arg(0)
	return nil
}

func (cmd *LookupISBNCommand) Run() error {
	var cache *metadata.Cache
	if !cmd.NoCache {
		var err error
		cache, err = metadata.NewCache(cmd.CacheDir)
		if err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
	}

	service := metadata.NewService(cache, metadata.NewOpenLibraryClient(), metadata.NewGoogleBooksClient())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := service.LookupISBN(ctx, cmd.ISBN)
	if err != nil {
		return err
	}

	fmt.Printf("Title:     %s\n", result.Title)
	if len(result.Authors) > 0 {
		fmt.Printf("Authors:   %s\n", strings.Join(result.Authors, ", "))
	}
	fmt.Printf("ISBN:      %s\n", result.ISBN)
	if result.Publisher != "" {
		fmt.Printf("Publisher: %s\n", result.Publisher)
	}
	if result.PublishedDate != "" {
		fmt.Printf("Published: %s\n", result.PublishedDate)
	}
	if result.PageCount > 0 {
		fmt.Printf("Pages:     %d\n", result.PageCount)
	}
	if result.CoverURL != "" {
		fmt.Printf("Cover:     %s\n", result.CoverURL)
	}
	fmt.Printf("Source:    %s\n", result.Source)
	return nil
}
