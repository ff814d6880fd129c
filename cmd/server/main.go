package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulsecheck/pulsecheck/internal/cache"
	"github.com/pulsecheck/pulsecheck/internal/config"
	httpserver "github.com/pulsecheck/pulsecheck/internal/http"
	"github.com/pulsecheck/pulsecheck/internal/panel"
	"github.com/pulsecheck/pulsecheck/internal/repository"
	"github.com/pulsecheck/pulsecheck/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[nps-api] ", log.LstdFlags|log.Lshortfile)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:        int32(cfg.DBMaxConns),
		MinConns:        int32(cfg.DBMinConns),
		MaxConnIdleTime: time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime: time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:     time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		Logger:          logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	var scores *cache.ScoreCache
	if cfg.CacheEnabled() {
		scores, err = cache.New(dbCtx, cfg.RedisAddr, time.Duration(cfg.ScoreCacheTTLSecs)*time.Second, logger)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer scores.Close()
	}

	var panelClient panel.Client
	if cfg.PanelEnabled() {
		panelClient, err = panel.NewHTTPClient(cfg.PanelURL, cfg.PanelAPIKey, time.Duration(cfg.PanelTimeoutSecs)*time.Second, logger)
		if err != nil {
			log.Fatalf("init panel client: %v", err)
		}
	}

	repo := repository.New(st)
	server := httpserver.New(cfg, st, repo, scores, panelClient, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
