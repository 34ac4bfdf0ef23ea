package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"stencil/internal/adapter/repo"
	"stencil/internal/baas"
	"stencil/internal/domain"
	"stencil/internal/editor"
	"stencil/internal/filters"
	"stencil/internal/http/handlers"
	"stencil/internal/http/httpapi"
	"stencil/internal/infra"
	"stencil/internal/pending"
	"stencil/internal/poller"
	"stencil/internal/providers/bria"
	"stencil/internal/providers/supabase"
	"stencil/internal/session"
	"stencil/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if err := run(cfg, &logger); err != nil {
		logger.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg *infra.Config, logger *infra.Logger) error {
	ctx := context.Background()
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	if !cfg.GenerationEnabled() {
		logger.Warn().Msg("BRIA_API_KEY not set; generation is disabled until a session provides a key")
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	store, err := sessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}
	sessions := session.NewManager(store, cfg.BriaAPIKey, *logger)

	deps, err := backendDeps(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	backend := baas.New(deps)
	if !backend.Enabled() {
		logger.Warn().Msg("SUPABASE_URL/SUPABASE_KEY not set; running in guest-only mode")
	}

	ed := editor.New(editor.Options{
		Client: bria.NewClient(bria.Options{
			APIKey:  cfg.BriaAPIKey,
			BaseURL: cfg.BriaBaseURL,
			Logger:  logger,
		}),
		Tracker: pending.NewTracker(pending.NewHTTPProber(0, *logger), 0, *logger),
		Poller:  poller.New(cfg.PollMaxAttempts, cfg.PollInterval),
		Saver:   backend.Projects,
		Logger:  logger,
	})

	app := handlers.NewApp(handlers.Options{
		Config:   cfg,
		Logger:   logger,
		Sessions: sessions,
		Editor:   ed,
		Backend:  backend,
		Fetcher:  filters.NewFetcher(filters.DefaultFetchTimeout),
		Ping: func(ctx context.Context) error {
			if pool == nil {
				return nil
			}
			return pool.Ping(ctx)
		},
	})

	routerOpts := httpapi.Options{Config: cfg, Logger: logger}
	if cfg.StorageBackend == "fs" {
		routerOpts.StaticDir = cfg.StoragePath
	}
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, routerOpts))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("API listening")
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// sessionStore prefers Redis so several instances share sessions.
func sessionStore(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (session.Store, error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL, time.Minute), nil
	}
	return session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL, *logger)
}

// backendDeps picks a provider per concern: Postgres over Supabase tables for
// projects and preferences, and an explicit STORAGE_BACKEND over Supabase
// storage for files.
func backendDeps(ctx context.Context, cfg *infra.Config, pool *pgxpool.Pool, logger *infra.Logger) (baas.Deps, error) {
	deps := baas.Deps{Bucket: cfg.SupabaseBucket, Logger: logger}

	var sb *supabase.Client
	if cfg.SupabaseEnabled() {
		c, err := supabase.NewClient(supabase.Options{
			URL:    cfg.SupabaseURL,
			Key:    cfg.SupabaseKey,
			Bucket: cfg.SupabaseBucket,
			Logger: logger,
		})
		if err != nil {
			return deps, err
		}
		sb = c
		deps.Auth = supabase.NewAuth(sb)
		deps.Projects = supabase.NewProjects(sb)
		deps.Preferences = supabase.NewPreferences(sb)
		deps.Files = supabase.NewStorage(sb)
	}

	if pool != nil {
		runner := infra.NewSQLRunner(pool, *logger)
		if err := repo.EnsureSchema(ctx, runner); err != nil {
			return deps, err
		}
		deps.Projects = repo.NewProjectRepository(runner)
		deps.Preferences = repo.NewPreferenceRepository(runner)
	}

	files, err := fileStore(ctx, cfg)
	if err != nil {
		return deps, err
	}
	if files != nil {
		deps.Files = files
	}
	return deps, nil
}

func fileStore(ctx context.Context, cfg *infra.Config) (domain.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "":
		return nil, nil
	case "fs":
		return storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	case "s3":
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3PublicBaseURL)
	default:
		return nil, errors.New("unknown STORAGE_BACKEND " + cfg.StorageBackend + " (want fs or s3)")
	}
}
