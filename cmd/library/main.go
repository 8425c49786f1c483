package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"library_catalog/pkg/catalog"
	"library_catalog/pkg/config"
	"library_catalog/pkg/database"
	"library_catalog/pkg/lending"
)

func main() {
	cfg, err := config.Load(os.Getenv("LIBRARY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("session", uuid.NewString())
	log.Info("Starting library catalog...", "store", cfg.Store)

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Error("Failed to open catalog store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	cat := catalog.New(store, catalog.WithLogger(log))
	if cfg.Seed {
		if err := cat.SeedSampleData(); err != nil {
			log.Error("Failed to seed sample data", "error", err)
			os.Exit(1)
		}
	}
	svc := lending.NewService(cat, lending.WithLogger(log))

	if err := newMenu(cat, svc, os.Stdin, os.Stdout).run(); err != nil {
		log.Error("Menu stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Library catalog stopped")
}

func openStore(cfg config.Config, log *slog.Logger) (catalog.Store, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := database.InitCatalogDB(cfg.SQLiteDSN, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Database connection established successfully")
		return catalog.NewGormStore(db), func() {
			if err := database.Close(db); err != nil {
				log.Warn("Failed to close database", "error", err)
			}
		}, nil
	default:
		return catalog.NewMemoryStore(), func() {}, nil
	}
}
