// Package server is the development server: it watches the source
// directories, rebuilds the site on change, serves the output tree over
// local HTTP, and tells connected browsers to refresh after successful
// rebuilds.
//
// Concurrency model: fsnotify delivers events to a single loop; a debouncer
// coalesces each burst into one trigger on a capacity-1 channel; one worker
// consumes triggers and runs builds strictly in sequence. The capacity-1
// channel doubles as the pending slot, so a change arriving mid-build queues
// exactly one follow-up build and never more.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// Options are serve-time switches that do not belong in site.yaml.
type Options struct {
	// SkipInitialBuild serves whatever already sits in the output directory
	// instead of building on startup.
	SkipInitialBuild bool
}

// Server owns the watch subscription, the HTTP listener, and the live-reload
// hub for one serve session. Create with New, run with Start, tear down with
// Stop; the zero value is not usable.
type Server struct {
	cfg  *config.Config
	dirs config.DirsConfig
	opts Options

	builder  *build.Builder
	status   *buildStatus
	hub      *LiveReloadHub // nil when live reload is disabled
	hist     *history.Store
	registry *prom.Registry

	watcher    *fsnotify.Watcher
	debounce   *debouncer
	rebuildReq chan struct{}
	scheduler  gocron.Scheduler // nil unless poll_interval is set

	httpSrv   *http.Server
	startTime time.Time

	mu       sync.Mutex
	listener net.Listener
}

// New wires a Server for the site rooted at root. The output directory is
// created by the first build; history defaults to in-memory.
func New(cfg *config.Config, root string, opts Options) (*Server, error) {
	dirs := cfg.Dirs.Resolve(root)

	registry := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(registry)

	hist, err := history.Open(cfg.Server.HistoryDB)
	if err != nil {
		return nil, errors.InternalError("open build history", err)
	}

	s := &Server{
		cfg:        cfg,
		dirs:       dirs,
		opts:       opts,
		builder:    build.New(cfg, dirs, rec),
		status:     &buildStatus{},
		hist:       hist,
		registry:   registry,
		rebuildReq: make(chan struct{}, 1),
		startTime:  time.Now(),
	}
	if cfg.Server.LiveReloadEnabled() {
		s.hub = NewLiveReloadHub(rec)
	}
	s.debounce = newDebouncer(cfg.Server.DebounceDuration(), s.rebuildReq)
	return s, nil
}

// Start brings the server up and blocks consuming filesystem events until
// ctx is canceled. A failed initial build does not abort startup: the server
// answers with a rebuilding page until a good build lands.
func (s *Server) Start(ctx context.Context) error {
	if s.opts.SkipInitialBuild {
		if info, err := os.Stat(s.dirs.Output); err == nil && info.IsDir() {
			s.status.markPrebuilt()
			// Seed the reload baseline from the existing tree so the first real
			// rebuild still reloads connected browsers.
			if hash, hashErr := build.HashOutputTree(s.dirs.Output); hashErr == nil {
				s.seedReloadToken(hash)
			}
			slog.Info("skipping initial build, serving existing output", logfields.Dir(s.dirs.Output))
		} else {
			slog.Warn("skip-build requested but output directory is missing; waiting for first change",
				logfields.Dir(s.dirs.Output))
		}
	} else {
		res, err := s.builder.Build(ctx)
		s.recordOutcome(ctx, res, err)
		if err != nil {
			slog.Error("initial build failed; serving rebuild page until a build succeeds",
				logfields.Error(err))
		} else {
			s.seedReloadToken(res.OutputHash)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Bind, s.cfg.Server.Port)
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.ListenFailed(addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	watcher, err := newWatcher([]string{s.dirs.Pages, s.dirs.Templates, s.dirs.Assets})
	if err != nil {
		_ = ln.Close()
		return err
	}
	s.watcher = watcher

	// SSE connections are long-lived; only the header read gets a deadline.
	s.httpSrv = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}
	go func() {
		if serveErr := s.httpSrv.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("http server error", logfields.Error(serveErr))
		}
	}()
	slog.Info("development server listening",
		logfields.Addr(s.Addr()),
		logfields.URL(fmt.Sprintf("http://%s/", s.Addr())),
		logfields.Dir(s.dirs.Output))

	if err := s.startPollFallback(); err != nil {
		return err
	}

	go s.runRebuildWorker(ctx)

	return s.runWatchLoop(ctx)
}

// startPollFallback schedules periodic rebuild triggers for filesystems
// where change notification is unreliable. Disabled by default.
func (s *Server) startPollFallback() error {
	interval := s.cfg.Server.PollIntervalDuration()
	if interval <= 0 {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.InternalError("create poll scheduler", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Debug("poll interval elapsed, triggering rebuild")
			select {
			case s.rebuildReq <- struct{}{}:
			default:
			}
		}),
		gocron.WithName("poll-rebuild"),
	)
	if err != nil {
		return errors.InternalError("schedule poll rebuild", err)
	}
	scheduler.Start()
	s.scheduler = scheduler
	slog.Info("poll fallback enabled", slog.Duration("interval", interval))
	return nil
}

// runWatchLoop is the single consumer of filesystem events.
func (s *Server) runWatchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) handleEvent(ev fsnotify.Event) {
	if !relevantOp(ev) || shouldIgnoreEvent(ev.Name, s.dirs.Output) {
		return
	}
	// Directories created under a watched root need their own watch.
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = addDirsRecursive(s.watcher, ev.Name)
		}
	}
	slog.Debug("change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	s.debounce.Trigger()
}

// runRebuildWorker consumes rebuild triggers one at a time. Builds never
// overlap because this goroutine is the only builder and runs synchronously.
func (s *Server) runRebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.rebuildReq:
			s.rebuild(ctx)
		}
	}
}

func (s *Server) rebuild(ctx context.Context) {
	slog.Info("change detected, rebuilding site")
	res, err := s.builder.Build(ctx)
	s.recordOutcome(ctx, res, err)
	if err != nil {
		slog.Warn("rebuild failed, keeping previous output tree", logfields.Error(err))
		return
	}
	// The hub dedups identical hashes, so rebuilds that change no output (poll
	// fallback, re-saves of identical content) do not reload browsers.
	if s.hub != nil {
		s.hub.Broadcast(res.OutputHash)
	}
}

// seedReloadToken establishes the baseline token browsers compare against.
func (s *Server) seedReloadToken(token string) {
	if s.hub != nil && token != "" {
		s.hub.Broadcast(token)
	}
}

func (s *Server) recordOutcome(ctx context.Context, res *build.Result, buildErr error) {
	if buildErr != nil {
		s.status.setError(res, buildErr)
	} else {
		s.status.setSuccess(res)
	}
	if err := s.hist.Record(ctx, res, buildErr); err != nil {
		slog.Warn("recording build history failed", logfields.Error(err))
	}
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop tears down the watch subscription, the live-reload hub, the HTTP
// listener, and the history store. Safe to call after Start returns.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	s.debounce.Stop()

	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
	}
	if s.hub != nil {
		s.hub.Shutdown()
	}
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("watcher close: %w", err))
		}
	}
	if err := s.hist.Close(); err != nil {
		errs = append(errs, fmt.Errorf("history close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("server shutdown: %v", errs)
	}
	slog.Info("development server stopped")
	return nil
}
