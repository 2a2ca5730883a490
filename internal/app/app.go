// Package app wires configuration, logging, storage, the hub, and both
// transports into one runnable unit.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openmortal/mortalnet/internal/config"
	"github.com/openmortal/mortalnet/internal/core"
	"github.com/openmortal/mortalnet/internal/store"
	"github.com/openmortal/mortalnet/internal/store/sqlite"
	transporthttp "github.com/openmortal/mortalnet/internal/transport/http"
	transporttcp "github.com/openmortal/mortalnet/internal/transport/tcp"
)

// App owns the hub, the chat acceptor and the dashboard server.
type App struct {
	cfg     *config.Config
	log     *zerolog.Logger
	hub     *core.Hub
	chat    *transporttcp.Server
	web     *stdhttp.Server
	archive store.Archive
}

// New constructs the application from resolved configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	var archive store.Archive
	if cfg.DBPath != "" {
		a, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		logger.Info().Str("db_path", cfg.DBPath).Msg("archive database initialized")
		archive = a
	}

	hub := core.NewHub(cfg, logger, archive)

	return &App{
		cfg:     cfg,
		log:     logger,
		hub:     hub,
		chat:    transporttcp.NewServer(cfg, hub, logger),
		web:     transporthttp.NewServer(hub, cfg, logger),
		archive: archive,
	}, nil
}

// Reload schedules a re-read of the ban list and MOTD. Bound to SIGHUP.
func (a *App) Reload() {
	a.hub.Reload()
}

// Run starts everything and blocks until ctx is cancelled or the dashboard
// server fails. Shutdown order: dashboard first, then the chat listener,
// then the hub drains its clients.
func (a *App) Run(ctx context.Context) error {
	var hubWG sync.WaitGroup
	hubWG.Add(1)
	go func() {
		defer hubWG.Done()
		a.hub.Run(ctx)
	}()

	if err := a.chat.Listen(ctx); err != nil {
		return err
	}

	webErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.WebAddr).Msg("dashboard listening")
		if err := a.web.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			webErr <- err
			return
		}
		webErr <- nil
	}()

	select {
	case err := <-webErr:
		a.cleanup()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down dashboard")
	if err := a.web.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("dashboard shutdown error")
	}

	a.chat.Wait()
	hubWG.Wait()
	a.cleanup()
	return nil
}

func (a *App) cleanup() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close archive")
		}
	}
}
