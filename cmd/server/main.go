package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/lib/pq"

	"github.com/gurrammuni/jithu-bank/internal/auth"
	"github.com/gurrammuni/jithu-bank/internal/config"
	"github.com/gurrammuni/jithu-bank/internal/events/kafka"
	"github.com/gurrammuni/jithu-bank/internal/interfaces"
	"github.com/gurrammuni/jithu-bank/internal/ledger"
	"github.com/gurrammuni/jithu-bank/internal/server"
	"github.com/gurrammuni/jithu-bank/internal/storage/memory"
	"github.com/gurrammuni/jithu-bank/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var store interfaces.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			slog.Error("could not open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			slog.Error("could not reach database", "error", err)
			os.Exit(1)
		}

		pgStore := postgres.NewStore(db)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			slog.Error("could not ensure schema", "error", err)
			os.Exit(1)
		}
		store = pgStore
		slog.Info("using postgres store")
	} else {
		store = memory.NewStore()
		slog.Info("using in-memory store")
	}

	var pub interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kafkaPub.Close()
		pub = kafkaPub
		slog.Info("publishing ledger events", "brokers", cfg.KafkaBrokers)
	}

	ledgerService := ledger.New(store, pub)
	authService := auth.New(cfg.JWTSecret, 0)
	srv := server.New(ledgerService, authService)

	addr := ":" + cfg.Port
	slog.Info("starting server", "addr", addr, "env", cfg.Env)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
