package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memestream/memestream-service/internal/config"
	"github.com/memestream/memestream-service/internal/storage/postgres"
)

// SessionSweeper periodically deletes sessions that have expired or been
// invalidated by logout, keeping the ledger from growing without bound.
type SessionSweeper struct {
	storage  *postgres.Postgres
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionSweeper(storage *postgres.Postgres, interval time.Duration) *SessionSweeper {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &SessionSweeper{
		storage:  storage,
		interval: interval,
		logger:   logger,
	}
}

func (sw *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("Session sweeper started",
		"interval", sw.interval.String())

	// Run once immediately on startup
	sw.sweep()

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("Session sweeper shutting down")
			return
		case <-ticker.C:
			sw.sweep()
		}
	}
}

func (sw *SessionSweeper) sweep() {
	deleted, err := sw.storage.DeleteExpiredSessions()
	if err != nil {
		sw.logger.Error("Failed to delete expired sessions",
			"error", err.Error())
		return
	}

	if deleted > 0 {
		sw.logger.Info("Deleted expired sessions",
			"count", deleted)
	}
}

func main() {
	cfg := config.MustLoad()

	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	sweeper := NewSessionSweeper(storage, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go sweeper.Start(ctx)

	<-done
	cancel()
}
