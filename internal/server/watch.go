package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/clustermap/internal/config"
)

// watchDelay collapses the burst of events an editor produces on save.
const watchDelay = 250 * time.Millisecond

// WatchConfig reloads the server whenever the configuration file changes.
// An invalid file is logged and the served state is kept. It blocks until
// ctx is done.
func (s *ServerContext) WatchConfig(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace files on save, so the directory is watched instead of the file.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Clean(path)

	log.Info().Str("path", path).Msg("Watching configuration")

	timer := time.NewTimer(watchDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(watchDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Configuration watcher error")

		case <-timer.C:
			s.reloadConfig(ctx, path)
		}
	}
}

func (s *ServerContext) reloadConfig(ctx context.Context, path string) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Configuration changed but is invalid, keeping current")
		return
	}
	if err := s.Apply(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Failed to apply configuration")
		return
	}
	log.Info().Int("layers", len(cfg.Layers)).Msg("Configuration reloaded")
}
