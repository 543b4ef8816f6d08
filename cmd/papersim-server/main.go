package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"papersim/internal/config"
	"papersim/internal/engine"
	"papersim/internal/httpapi"
	"papersim/internal/live"
	"papersim/internal/store"
	"papersim/internal/strategy"
	"papersim/internal/strategy/builtins"
	"papersim/internal/util"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: config/papersim.yaml if present)")
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, err = config.LoadOrDefault("config/papersim.yaml")
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	registry := strategy.NewRegistry()
	sma, err := builtins.NewSMACross(cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
	if err != nil {
		log.Fatalf("building strategy: %v", err)
	}
	registry.Register(sma)

	strat, ok := registry.Get(cfg.Strategy.Name)
	if !ok {
		log.Fatalf("unknown strategy %q (available: %v)", cfg.Strategy.Name, registry.List())
	}

	pub := live.NewPublisher()
	eng, err := engine.New(cfg, strat, pub, logger)
	if err != nil {
		log.Fatalf("building engine: %v", err)
	}

	api := httpapi.NewServer(eng, pub, logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return api.Run(ctx) })

	if cfg.Storage.SQLitePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening journal: %v", err)
		}
		defer db.Close()

		journal := store.NewJournal(db, db, logger)
		subID, events := pub.Subscribe(256)
		g.Go(func() error {
			defer pub.Unsubscribe(subID)
			return journal.Run(ctx, events)
		})
		logger.Info("trade journal enabled", "path", cfg.Storage.SQLitePath)
	}

	if cfg.Storage.DataDir != "" {
		archiver := store.NewArchiver(store.NewParquetStore(cfg.Storage.DataDir), 0, logger)
		subID, events := pub.Subscribe(256)
		g.Go(func() error {
			defer pub.Unsubscribe(subID)
			return archiver.Run(ctx, events)
		})
		logger.Info("price archive enabled", "dir", cfg.Storage.DataDir)
	}

	g.Go(func() error {
		logger.Info("http server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		return httpSrv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
