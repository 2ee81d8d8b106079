package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/marine-conservation-ph/reef-survey-viewer/config"
	"github.com/marine-conservation-ph/reef-survey-viewer/db"
	httpserver "github.com/marine-conservation-ph/reef-survey-viewer/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL, cfg.FetchRetries, cfg.FetchTimeout)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	srv, err := httpserver.New(cfg, store)
	if err != nil {
		log.Fatalf("server setup error: %v", err)
	}
	log.Printf("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
