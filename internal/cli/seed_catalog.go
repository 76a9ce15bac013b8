package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/config"
	"github.com/svvaap/bookhive/internal/database"
	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/remote"
)

// SeedCatalogCommand loads book records into the remote catalog subtree,
// either from a JSON file or a small built-in sample set.
type SeedCatalogCommand struct {
	DatabasePath string
	File         string
	Verbose      bool
}

func NewSeedCatalogCommand() *SeedCatalogCommand {
	return &SeedCatalogCommand{}
}

func (cmd *SeedCatalogCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-catalog", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.File, "file", "", "JSON file with an array of books (optional, sample data when omitted)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print each seeded book")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-catalog [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Seed the catalog with book records for local development.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed-catalog\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed-catalog -file ./books.json -db ./bookhive.db\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *SeedCatalogCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	store, err := remote.NewSQLiteStore(db.DB)
	if err != nil {
		return fmt.Errorf("open remote store: %w", err)
	}

	books := sampleBooks()
	if cmd.File != "" {
		data, err := os.ReadFile(cmd.File)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		books = books[:0]
		if err := json.Unmarshal(data, &books); err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}
	}

	ctx := context.Background()
	for _, book := range books {
		id, err := store.Push(ctx, catalog.Path, catalog.RecordFromBook(book))
		if err != nil {
			return fmt.Errorf("seed %q: %w", book.Title, err)
		}
		if cmd.Verbose {
			fmt.Printf("Seeded %s: %q by %s (%.2f)\n", id, book.Title, book.Author, book.Price)
		}
	}

	fmt.Printf("Seeded %d books into the catalog\n", len(books))
	return nil
}

func sampleBooks() []entities.Book {
	return []entities.Book{
		{
			Title:       "The Midnight Library",
			Author:      "Matt Haig",
			Category:    "Fiction",
			Language:    "English",
			Description: "Between life and death there is a library.",
			Price:       299,
			Visibility:  "public",
			UploadDate:  "2024-01-12T09:30:00Z",
		},
		{
			Title:       "Atomic Habits",
			Author:      "James Clear",
			Category:    "Self Help",
			Language:    "English",
			Description: "Tiny changes, remarkable results.",
			Price:       349,
			Visibility:  "public",
			UploadDate:  "2024-02-03T14:00:00Z",
		},
		{
			Title:       "Deep Work",
			Author:      "Cal Newport",
			Category:    "Productivity",
			Language:    "English",
			Description: "Rules for focused success in a distracted world.",
			Price:       249,
			Visibility:  "public",
			UploadDate:  "2024-03-21T08:15:00Z",
		},
	}
}
