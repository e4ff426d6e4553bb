package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port         *int   `short:"p" help:"HTTP port, overrides server.port (default 1313)"`
	Bind         string `help:"Bind address, overrides server.bind"`
	SkipBuild    bool   `name:"skip-build" help:"Serve the existing output tree without building first"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable live-reload SSE and script injection"`
	PollInterval string `name:"poll-interval" help:"Periodic rebuild interval such as 30s, overrides server.poll_interval"`

	BuildCmd `embed:""`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	s.applyOverrides(cfg)
	if s.Port != nil {
		cfg.Server.Port = *s.Port
	}
	if s.Bind != "" {
		cfg.Server.Bind = s.Bind
	}
	if s.PollInterval != "" {
		cfg.Server.PollInterval = s.PollInterval
	}
	if s.NoLiveReload {
		off := false
		cfg.Server.LiveReload = &off
	}

	return RunServe(cfg, s.siteRoot(root), server.Options{SkipInitialBuild: s.SkipBuild})
}

// RunServe runs the development server until a shutdown signal or a server
// failure, then tears it down gracefully.
func RunServe(cfg *config.Config, root string, opts server.Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := server.New(cfg, root, opts)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	var runErr error
	select {
	case runErr = <-errChan:
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping server")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if stopErr := srv.Stop(stopCtx); stopErr != nil {
		if runErr == nil {
			return stopErr
		}
		slog.Warn("shutdown after server failure reported errors", logfields.Error(stopErr))
	}
	return runErr
}
