package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"aurahr/internal/app/sessions"
	"aurahr/internal/domain/auth"
	"aurahr/internal/domain/directory"
	"aurahr/internal/platform/config"
	"aurahr/internal/platform/crypto"
	"aurahr/internal/platform/db"
	"aurahr/internal/platform/jobs"
	"aurahr/internal/platform/metrics"
	"aurahr/internal/platform/storage"
	authhandler "aurahr/internal/transport/http/handlers/auth"
	directoryhandler "aurahr/internal/transport/http/handlers/directory"
	notificationshandler "aurahr/internal/transport/http/handlers/notifications"
	"aurahr/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	KV       storage.KV
	Registry *sessions.Registry
	Jobs     *jobs.Service
	Metrics  *metrics.Collector
	Router   http.Handler
}

// New opens storage and wires every component. The caller owns the
// returned App and must Close it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
		logger.Warn("JWT_SECRET not set; using an ephemeral secret, client cookies will not survive a restart")
	}

	creds, err := LoadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	registry := sessions.NewRegistry(kv, creds, sessions.Options{
		Latency:          cfg.LoginLatency,
		OperationTimeout: cfg.OperationTimeout,
		IdleTTL:          cfg.SessionIdleTTL,
		SweepInterval:    cfg.SessionSweepEvery,
		FeedLimit:        cfg.NotificationBuffer,
		Logger:           logger,
		Metrics:          collector,
	})
	jobService := jobs.New(logger)
	registry.Schedule(jobService)

	dirStore, err := directory.NewSeededStore(time.Now())
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("seed directory: %w", err)
	}
	dirStore.SeedRoles(directoryhandler.RoleCatalogue(creds.Roles()))

	app := &App{
		Config:   cfg,
		Logger:   logger,
		KV:       kv,
		Registry: registry,
		Jobs:     jobService,
		Metrics:  collector,
	}
	app.Router = app.routes(directory.NewService(dirStore, nil))
	return app, nil
}

// LoadCredentials returns the accounts from ACCOUNTS_FILE, or the built-in
// demo accounts when none is configured.
func LoadCredentials(cfg config.Config) (*auth.MemoryCredentials, error) {
	if cfg.AccountsFile != "" {
		return auth.LoadAccountsFile(cfg.AccountsFile)
	}
	return auth.NewDemoCredentials()
}

// OpenStorage connects the configured session backend. With
// SESSION_ENCRYPTION_KEY set, values are sealed before they are written.
func OpenStorage(ctx context.Context, cfg config.Config) (storage.KV, error) {
	var sealer *crypto.Sealer
	if cfg.SessionEncryption != "" {
		s, err := crypto.NewSealer(cfg.SessionEncryption)
		if err != nil {
			return nil, err
		}
		sealer = s
	}

	kv, err := openBackend(ctx, cfg)
	if err != nil || sealer == nil {
		return kv, err
	}
	return storage.NewSealed(kv, sealer), nil
}

func openBackend(ctx context.Context, cfg config.Config) (storage.KV, error) {
	openCtx, cancel := context.WithTimeout(ctx, cfg.StorageTimeout)
	defer cancel()

	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemory(), nil
	case config.StorageSQLite:
		return storage.OpenSQLite(openCtx, cfg.SQLitePath)
	case config.StorageRedis:
		return storage.OpenRedis(openCtx, cfg.RedisURL, cfg.StorageKeyPrefix, cfg.ClientTokenTTL)
	case config.StoragePostgres:
		pool, err := db.Connect(openCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(openCtx, pool, db.Migrations, "migrations"); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return storage.NewPostgres(pool), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) routes(dir *directory.Service) http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.TrustProxy(cfg.TrustProxy))
	router.Use(middleware.Logger(a.Logger, a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), cfg.StorageTimeout)
		defer cancel()
		if err := a.KV.Ping(ctx); err != nil {
			a.Logger.Warn("readiness check failed", "err", err)
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if a.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.ClientSession(middleware.ClientSessionConfig{
			Secret:   cfg.JWTSecret,
			TTL:      cfg.ClientTokenTTL,
			Secure:   cfg.Environment == "production",
			Registry: a.Registry,
		}))

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

			authhandler.NewHandler(a.Metrics, cfg.RateLimitPerMinute).RegisterRoutes(r)
			notificationshandler.NewHandler().RegisterRoutes(r)
			directoryhandler.NewHandler(dir, a.Metrics).RegisterRoutes(r)
		})

		spa := spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"}
		for _, dest := range auth.Destinations {
			guarded := r.With(middleware.GuardPage(dest.Required, a.Metrics))
			guarded.Get(dest.Path, spa.ServeHTTP)
			if dest.Path != middleware.HomePath {
				guarded.Get(dest.Path+"/*", spa.ServeHTTP)
			}
		}
		r.Handle("/*", spa)
	})

	return router
}

// Run serves HTTP and runs background jobs until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	streams, cancelStreams := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelStreams()

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streams },
	}
	// Open event streams never finish on their own.
	srv.RegisterOnShutdown(cancelStreams)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Jobs.Run(gctx)
	})
	g.Go(func() error {
		a.Logger.Info("AuraHR server listening", "addr", srv.Addr, "storage", a.Config.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() error {
	if a.KV == nil {
		return nil
	}
	return a.KV.Close()
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if err == nil || os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
