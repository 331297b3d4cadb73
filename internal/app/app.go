// Package app wires configuration, the catalog, scripts, the playback
// manager and the HTTP server into one runnable unit.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"playbackd/internal/sweeper"
	"playbackd/pkg/banner"
	"playbackd/pkg/catalog"
	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/playback"
	"playbackd/pkg/script"
)

// App holds the assembled service.
type App struct {
	cfg     *config.Config
	addr    string
	version string

	manager *playback.Manager
	scripts *script.Set
	srv     *http.Server
}

// New assembles an App from effective config.
func New(cfg *config.Config, addr, version string) *App {
	return &App{cfg: cfg, addr: addr, version: version}
}

// Run starts everything and blocks until ctx is cancelled or the HTTP
// server fails.
func (a *App) Run(ctx context.Context) error {
	if err := catalog.Open(a.cfg.Storage.DBPath); err != nil {
		return fmt.Errorf("failed to open catalog at %s: %w", a.cfg.Storage.DBPath, err)
	}
	defer func() { _ = catalog.Close() }()

	if err := catalog.Seed(a.cfg.Storage.SeedFile); err != nil {
		return fmt.Errorf("catalog seed: %w", err)
	}

	scripts, err := script.Load(a.cfg.Scripts.Dir, a.cfg.Scripts.MaxFileSize.Int64())
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	a.scripts = scripts
	a.manager = playback.NewManager(a.cfg.Playback)
	defer a.manager.CloseAll()

	sweepCancel, err := sweeper.Start(ctx, a.cfg.Sweeper, a.manager)
	if err != nil {
		return err
	}
	defer sweepCancel()

	banner.Print(a.addr, a.cfg.Storage.DBPath, a.cfg.Scripts.Dir, a.version, scripts.Len())

	errCh := a.startHTTP()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shctx); err != nil {
		logger.Warn("http_shutdown_error", "error", err)
	}
	logger.Info("server_stopped")
	return nil
}
