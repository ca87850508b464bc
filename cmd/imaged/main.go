package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-transform/internal/config"
	"github.com/ironsheep/image-transform/internal/imaging"
	"github.com/ironsheep/image-transform/internal/segment"
	"github.com/ironsheep/image-transform/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("imaged %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("imaged - image transformation HTTP service")
			fmt.Println()
			fmt.Println("Usage: imaged [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  PORT              Listen port (default 8080)")
			fmt.Println("  APP_ENV           development enables console logging")
			fmt.Println("  CACHE_CAPACITY    Result cache size (default 100)")
			fmt.Println("  FETCH_RETRIES     Remote fetch attempts (default 3)")
			fmt.Println("  SEGMENT_URL       Background-removal service endpoint")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Env)

	var segmenter imaging.SegmentationProvider
	if cfg.SegmentURL != "" {
		segmenter = segment.NewClient(cfg.SegmentURL, cfg.SegmentTimeout, logger)
	}

	svc := imaging.NewService(imaging.Options{
		FetchAttempts: cfg.FetchRetries,
		FetchBackoff:  cfg.FetchBackoff,
		CacheCapacity: cfg.CacheCapacity,
		Segmenter:     segmenter,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(svc, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", Version).Msg("imaged listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
