// cmd/tools/crust-score-cleanup/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"loan-intake-workers/internal/common/config"
	"loan-intake-workers/internal/common/database"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/scorestore"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "Maximum time for the cleanup statement")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.Error("postgres connection failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// The cache is left alone; stale entries expire on their own.
	store := scorestore.New(pg.DB, nil, cfg.Scoring.TTL(), log)
	n, err := store.ClearUnscored(ctx)
	if err != nil {
		log.Error("crust score cleanup failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	log.Info("crust score cleanup finished", map[string]interface{}{"rowsCleared": n})
}
