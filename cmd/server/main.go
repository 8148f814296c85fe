package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/fr0stylo/mergelog/internal/adapters/sqlite"
	appservices "github.com/fr0stylo/mergelog/internal/app/services"
	"github.com/fr0stylo/mergelog/internal/config"
	"github.com/fr0stylo/mergelog/internal/db"
	"github.com/fr0stylo/mergelog/internal/server"
	"github.com/fr0stylo/mergelog/internal/server/routes"
	"github.com/fr0stylo/mergelog/internal/sink/notion"
	"github.com/fr0stylo/mergelog/internal/source/github"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	store := sqlite.NewHistoryStore(database, cfg.History.Limit)
	source := github.NewClient(cfg.Source.URL, cfg.Source.Token, cfg.Source.Owner, cfg.Source.Repo)
	sink := notion.NewClient(cfg.Sink.URL, cfg.Sink.Token)

	ingest := appservices.NewIngestService(source, store, cfg.MergeWindow())
	forward := appservices.NewForwardService(store, sink, cfg.History.ChunkSize)

	srv := server.New(log)
	srv.RegisterRouter(routes.NewHistoryRoutes(store, ingest, forward))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting server", "port", cfg.Server.Port)
	slog.Error("Closing server", "error", srv.Start(addr))
}
