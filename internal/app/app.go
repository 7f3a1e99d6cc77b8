// Package app wires configuration into the storage, repository, service
// and presentation components shared by the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/valentine/internal/clipboard"
	"github.com/atinyakov/valentine/internal/config"
	"github.com/atinyakov/valentine/internal/db"
	"github.com/atinyakov/valentine/internal/export"
	"github.com/atinyakov/valentine/internal/metrics"
	"github.com/atinyakov/valentine/internal/repository"
	handler "github.com/atinyakov/valentine/internal/server/handler/http"
	"github.com/atinyakov/valentine/internal/service"
	"github.com/atinyakov/valentine/internal/storage"
	"github.com/atinyakov/valentine/internal/view"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App holds the wired components for one store.
type App struct {
	Options   *config.Options
	Log       *zap.Logger
	Store     *storage.RecordStore
	Greetings *repository.GreetingRepository
	Service   *service.GreetingService
	Exporter  *export.FileExporter
	Renderer  *export.Renderer
	Clipboard view.Clipboard

	db *sql.DB
}

// New opens the configured backend and builds everything on top of it.
func New(opts *config.Options, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	backend, conn, err := newBackend(opts)
	if err != nil {
		return nil, err
	}
	log.Info("storage ready", zap.String("driver", opts.StorageDriver), zap.String("namespace", opts.Namespace))

	store := storage.NewRecordStore(backend, opts.Namespace, storage.WithLogger(log))
	repo := repository.NewGreetingRepository(store,
		repository.WithIDGenerator(repository.GeneratorFor(opts.IDScheme)),
		repository.WithLogger(log),
	)

	return &App{
		Options:   opts,
		Log:       log,
		Store:     store,
		Greetings: repo,
		Service:   service.NewGreetingService(repo, log),
		Exporter:  export.NewFileExporter(opts.ExportDir, log),
		Renderer:  export.NewRenderer(),
		Clipboard: clipboard.System{},
		db:        conn,
	}, nil
}

func newBackend(opts *config.Options) (storage.Backend, *sql.DB, error) {
	switch opts.StorageDriver {
	case config.DriverFile:
		return storage.NewFileBackend(opts.StoragePath), nil, nil
	case config.DriverMemory:
		return storage.NewMemoryBackend(), nil, nil
	case config.DriverSQLite, config.DriverPostgres:
		dialect, err := db.DialectFor(opts.StorageDriver)
		if err != nil {
			return nil, nil, err
		}
		if opts.StorageDriver == config.DriverSQLite {
			if err := ensureSQLiteDir(opts.DatabaseDSN); err != nil {
				return nil, nil, err
			}
		}
		conn, err := db.Open(opts.StorageDriver, opts.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot init database: %w", err)
		}
		return storage.NewSQLBackend(conn, dialect), conn, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.StorageDriver)
	}
}

// ensureSQLiteDir creates the parent directory of a plain file DSN.
func ensureSQLiteDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	return nil
}

// NewView returns a card view over the repository. Unset collaborators in
// o are filled from the app.
func (a *App) NewView(o view.Options) *view.CardView {
	if o.BaseURL == "" {
		o.BaseURL = a.Options.BaseURL
	}
	if o.Clipboard == nil {
		o.Clipboard = a.Clipboard
	}
	if o.Exporter == nil {
		o.Exporter = a.Exporter
	}
	if o.Logger == nil {
		o.Logger = a.Log
	}
	return view.New(a.Greetings, o)
}

// Handler builds the preview server's router.
func (a *App) Handler(m *metrics.Metrics) http.Handler {
	h := &handler.GreetingHandler{
		Service:  a.Service,
		Store:    a.Greetings,
		Renderer: a.Renderer,
		BaseURL:  a.Options.BaseURL,
		Metrics:  m,
		Logger:   a.Log,
	}
	return handler.NewRouter(h, m, a.Log)
}

// Serve runs the preview server on the configured address until ctx is
// done, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Options.Port,
		Handler:           a.Handler(metrics.New()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Log.Info("stopping HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
