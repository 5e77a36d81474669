// Package ui serves the hygiene console: server-rendered pages over the
// backend API, with datastar SSE keeping fragments live.
package ui

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/prefs"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ratelimit"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/notifier"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/resources"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/router"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// Server is the console HTTP server.
type Server struct {
	deps   common.Deps
	addr   string
	watch  bool
	traced bool
	logger *slog.Logger
}

// Config holds configuration for the console server.
type Config struct {
	APIBaseURL    string
	Addr          string
	SessionSecret string
	SecureCookies bool
	PrefsPath     string
	Watch         bool
	Dev           bool
	Traced        bool
	RateLimit     ratelimit.Config
	Logger        *slog.Logger
}

// NewServer wires the backend client, cache, sessions, preferences and
// templates into one dependency set for the route table.
func NewServer(cfg Config) (*Server, error) {
	opts := []api.Option{api.WithLogger(cfg.Logger)}
	if cfg.Traced {
		opts = append(opts, api.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		}))
	}
	client := api.New(cfg.APIBaseURL, opts...)

	notify := notifier.New()
	cache := query.NewCache(query.WithBroadcaster(notify), query.WithLogger(cfg.Logger))

	engine, err := views.NewEngine(cfg.Dev)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	var store *prefs.Store
	if cfg.PrefsPath != "" {
		store, err = prefs.Open(cfg.PrefsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open preferences store: %w", err)
		}
	}

	limiter, err := ratelimit.New(cfg.RateLimit, cfg.Logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to start rate limiter: %w", err)
	}

	return &Server{
		deps: common.Deps{
			Queries:   query.NewQueries(client, cache),
			Mutations: query.NewMutations(client, cache),
			Sessions:  session.NewManager(cfg.SessionSecret, cfg.SecureCookies),
			Notifier:  notify,
			Views:     engine,
			Prefs:     store,
			Limiter:   limiter,
			Logger:    cfg.Logger,
			Dev:       cfg.Dev,
		},
		addr:   cfg.Addr,
		watch:  cfg.Watch,
		traced: cfg.Traced,
		logger: cfg.Logger,
	}, nil
}

// Serve starts the console server and blocks until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting console", "addr", s.addr, "dev", s.deps.Dev)

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.deps); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	var handler http.Handler = r
	if s.traced {
		handler = otelhttp.NewHandler(r, "console")
	}

	srv := &http.Server{
		Addr:    s.addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down console...")
		return srv.Shutdown(shutdownCtx)
	})

	err := eg.Wait()

	if cerr := s.deps.Prefs.Close(); cerr != nil {
		s.logger.Warn("failed to close preferences store", "error", cerr)
	}
	if cerr := s.deps.Limiter.Close(); cerr != nil {
		s.logger.Warn("failed to close rate limiter", "error", cerr)
	}
	return err
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.deps.Notifier
}

// watchFiles follows template, script and style edits and pings every
// connected page so dev changes show up without a manual refresh.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range watchDirs() {
		if err := watchDirRecursive(watcher, dir); err != nil {
			s.logger.Error("failed to watch directory", "dir", dir, "error", err)
			// Don't fail - continue without watching
		}
	}

	// Debounce timer
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			ext := filepath.Ext(event.Name)
			if ext != ".tmpl" && ext != ".js" && ext != ".css" {
				continue
			}
			// The bundler writes into static/js; reacting to its own
			// output would loop forever.
			script := ext == ".js"
			if script && !strings.Contains(event.Name, filepath.Join("js", "src")) {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("file changed, refreshing", "file", event.Name)

				if script {
					if err := resources.BuildScripts(false); err != nil {
						s.logger.Error("script build failed", "error", err)
					}
				}

				// Ping every connected page
				s.deps.Notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirs lists the source directories the dev watcher follows. The
// template dir is empty outside dev builds, where templates render from
// the embedded copy anyway.
func watchDirs() []string {
	var dirs []string
	if dir := views.SourceDir(); dir != "" {
		dirs = append(dirs, filepath.Join(dir, "templates"))
	}
	root := resources.SourceDir()
	return append(dirs, filepath.Join(root, "js", "src"), filepath.Join(root, "static"))
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
