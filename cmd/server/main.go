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

	"github.com/woozymasta/clustermap/internal/config"
	"github.com/woozymasta/clustermap/internal/logger"
	"github.com/woozymasta/clustermap/internal/search"
	"github.com/woozymasta/clustermap/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE"    description:"Path to configuration file (YAML or TOML)" default:"config.yaml"`
	Addr        string `short:"a" long:"addr"        env:"LISTEN_ADDRESS" description:"Address to listen on"                      default:"0.0.0.0"`
	Port        int    `short:"p" long:"port"        env:"LISTEN_PORT"    description:"Port to listen on"                         default:"8080"`
	Concurrency int    `short:"j" long:"concurrency" env:"CONCURRENCY"    description:"Concurrent layer searches"                 default:"4"`
	Watch       bool   `short:"w" long:"watch"       env:"WATCH_CONFIG"   description:"Reload when the configuration file changes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCtx := server.NewServerContext(cfg, search.FromConfig(cfg.OpenSearch))
	if opts.Concurrency > 0 {
		srvCtx.Concurrency = opts.Concurrency
	}
	if err := srvCtx.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("Initial render finished with errors")
	}

	if opts.Watch {
		go func() {
			if err := srvCtx.WatchConfig(ctx, opts.ConfigFile); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Configuration watcher stopped")
			}
		}()
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", listenAddr).
		Int("layers_loaded", len(cfg.Layers)).
		Bool("watch", opts.Watch).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Web server stopped")
}
