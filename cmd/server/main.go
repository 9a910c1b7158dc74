package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagecontent/internal/backend"
	"pagecontent/internal/config"
	"pagecontent/internal/crawler"
	"pagecontent/internal/extractor"
	"pagecontent/internal/pipeline"
	"pagecontent/internal/server"
	"pagecontent/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("PAGECONTENT_CONFIG"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New().Errorf("config: %v", err)
		os.Exit(2)
	}
	l := logger.NewWithConfig(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	engine := extractor.New(extractor.OptionsFrom(cfg.Extract), extractor.WithLogger(l.With("component", "extract")))
	pipe := pipeline.New(crawler.FromConfig(cfg.Fetch), engine, l)
	srv := server.New(pipe, backend.FromConfig(cfg.Backend), l, server.Options{
		BatchConcurrency: cfg.Server.BatchConcurrency,
		RequestTimeout:   cfg.Server.RequestTimeout,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	l.Infof("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	l.Infof("bye")
}
