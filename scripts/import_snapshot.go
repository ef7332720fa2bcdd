package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"carrental/internal/database"
	"carrental/internal/models"
	"carrental/internal/snapshot"

	"github.com/rs/zerolog"
)

// Imports a JSON snapshot dump (any supported version) into the sqlite store.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		inPath = flag.String("in", "snapshot.json", "path to snapshot dump")
		dbPath = flag.String("db", "./data/carrental.db", "path to sqlite db")
		key    = flag.String("key", models.SnapshotKey, "snapshot key")
		force  = flag.Bool("force", false, "overwrite an existing snapshot")
	)
	flag.Parse()

	data, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read dump: %w", err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return fmt.Errorf("decode dump: %w", err)
	}
	encoded, err := snapshot.Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := db.SnapshotRepository(*key)
	existing, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load existing: %w", err)
	}
	if existing != nil && !*force {
		written, err := repo.UpdatedAt(ctx)
		if err != nil {
			return fmt.Errorf("read snapshot timestamp: %w", err)
		}
		return fmt.Errorf("snapshot %q in %s already exists (written %s), rerun with -force to overwrite",
			*key, db.Path(), written.UTC().Format(time.RFC3339))
	}
	if err = repo.Save(ctx, encoded); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info().
		Str("key", *key).
		Str("db_path", db.Path()).
		Int("accounts", len(snap.Accounts)).
		Int("bookings", len(snap.Bookings)).
		Int("cars", len(snap.CarQty)).
		Msg("snapshot imported")
	return nil
}
