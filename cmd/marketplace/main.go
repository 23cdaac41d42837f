package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/db"
	"github.com/Skotchmaster/marketplace/internal/httpserver"
	"github.com/Skotchmaster/marketplace/internal/logging"
	loggingmw "github.com/Skotchmaster/marketplace/internal/middleware/logging"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/search"
	"github.com/Skotchmaster/marketplace/internal/store"
)

func openRepository(ctx context.Context, cfg config.Config) (repo.Repository, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		gdb, err := db.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo.NewGorm(gdb)
	case config.BackendFile:
		return repo.NewFile(cfg.StateFile)
	case config.BackendMemory:
		return repo.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not loaded: %v; using process environment", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	rp, err := openRepository(openCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("storage open: %v", err)
	}

	st, err := store.New(ctx, rp)
	if err != nil {
		log.Fatalf("store load: %v", err)
	}

	market := &httpserver.MarketHTTP{Store: st}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		mykafka.Forward(ctx, st, producer)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var indexer *search.Indexer
	if cfg.ESURL != "" {
		indexer, market.Index = startSearch(ctx, cfg, st, logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{Market: market})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "backend", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_error", "error", err)
	}

	if indexer != nil {
		indexer.Stop()
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := rp.Close(); err != nil {
		logger.Error("storage_close_error", "error", err)
	}

	logger.Info("marketplace stopped")
}

// startSearch connects to Elasticsearch. Any failure leaves search on the
// in-memory catalog filter instead of stopping the service.
func startSearch(ctx context.Context, cfg config.Config, st *store.Store, l *slog.Logger) (*search.Indexer, httpserver.Searcher) {
	client, err := search.NewClient(cfg)
	if err != nil {
		l.Error("search_disabled", "error", err)
		return nil, nil
	}
	ix := &search.Index{ES: client, Name: cfg.ESIndex}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ix.Ping(pingCtx); err != nil {
		l.Error("search_disabled", "error", err)
		return nil, nil
	}
	if err := ix.EnsureIndex(pingCtx); err != nil {
		l.Error("search_disabled", "error", err)
		return nil, nil
	}

	indexer := search.NewIndexer(ix)
	indexer.Start(ctx, st)
	l.Info("search_enabled", "url", cfg.ESURL, "index", cfg.ESIndex)
	return indexer, ix
}
