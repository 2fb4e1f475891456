package main

import (
	"log"
	"net/http"
	"os"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	// "load-csv <file>" seeds the knowledge base and exits.
	if len(os.Args) > 2 && os.Args[1] == "load-csv" {
		entries, err := LoadKnowledgeBaseCSV(os.Args[2])
		if err != nil {
			log.Fatalf("Failed to load CSV: %v", err)
		}
		if err := UpsertKBEntries(db, entries); err != nil {
			log.Fatalf("Failed to store knowledge base: %v", err)
		}
		log.Printf("Loaded %d knowledge base entries from %s", len(entries), os.Args[2])
		return
	}

	if err := EnsureDefaultKnowledgeBase(db); err != nil {
		log.Fatalf("Failed to seed knowledge base: %v", err)
	}

	syncer := NewSyncer(cfg, db, NewZohoClient(cfg), NewClickUpClient(cfg))
	notifier := NewSlackNotifier(cfg)

	StartSyncScheduler(cfg, syncer, notifier)
	StartCleanupScheduler(cfg, db)

	log.Printf("Starting Ticket Router on %s...", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, NewRouter(cfg, db, syncer)); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
