package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/leca/dt-serving-urls/internal/cache"
	"github.com/leca/dt-serving-urls/internal/config"
	"github.com/leca/dt-serving-urls/internal/database"
	"github.com/leca/dt-serving-urls/internal/media"
	"github.com/leca/dt-serving-urls/internal/provider"
	"github.com/leca/dt-serving-urls/internal/resolver"
	"github.com/leca/dt-serving-urls/internal/storage"
	"github.com/leca/dt-serving-urls/internal/variant"
	"github.com/spf13/cobra"
)

// loadConfig loads the configuration for cmd. flags maps config keys to the
// names of cmd flags that override them when set.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	v := config.New(cfgFile)
	for key, name := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return config.Load(v)
}

// openCache returns the cache selected by DT_CACHE_BACKEND. The returned
// closer is nil for caches that live in db.
func openCache(ctx context.Context, cfg *config.Config, db database.Database) (cache.Cache, io.Closer, error) {
	switch cfg.CacheBackend {
	case "", "sqlite":
		return cache.NewMeta(db), nil, nil
	case "redis":
		c, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case "memory":
		c, err := cache.NewMemory(ctx, cfg.MemoryCacheLife)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q: must be sqlite, redis or memory", cfg.CacheBackend)
	}
}

// localProvider returns the filesystem-backed provider.
func localProvider(cfg *config.Config, db database.Database) *provider.Local {
	return provider.NewLocal(db, storage.NewFileSystem(cfg.StoragePath), cfg.PublicBaseURL)
}

// newBuilder returns the variant builder configured by DT_CROP_TOKEN and DT_QUALITY.
func newBuilder(cfg *config.Config) (variant.Builder, error) {
	crop, err := variant.ParseCropToken(cfg.CropToken)
	if err != nil {
		return variant.Builder{}, err
	}
	if cfg.Quality < 0 || cfg.Quality > 100 {
		return variant.Builder{}, fmt.Errorf("DT_QUALITY %d out of range 0-100", cfg.Quality)
	}
	return variant.Builder{CropToken: crop, Quality: cfg.Quality}, nil
}

// newPipeline wires the resolver backends, cache and size registry.
func newPipeline(c cache.Cache, cfg *config.Config, db database.Database) (*media.Pipeline, error) {
	b, err := newBuilder(cfg)
	if err != nil {
		return nil, err
	}
	sizes, err := media.LoadSizes(cfg.SizesFile)
	if err != nil {
		return nil, err
	}

	opts := resolver.Options{
		ServiceURL:  cfg.LookupServiceURL,
		StripPrefix: cfg.StripPrefix,
		Timeout:     cfg.LookupTimeout,
	}
	if cfg.DirectProvider {
		opts.Provider = localProvider(cfg, db)
	}
	backends := resolver.Select(opts)
	if len(backends) == 0 {
		slog.Warn("no serving url backend configured; every request falls back to the native pipeline")
	}

	res := resolver.New(c, resolver.FailurePolicy{
		CacheFailures: cfg.CacheFailures,
		TTL:           cfg.FailureTTL,
	}, backends...)
	return media.NewPipeline(res, b, sizes, slog.Default()), nil
}

// listen serves handler on addr until SIGINT or SIGTERM, then shuts down.
func listen(ctx context.Context, name, addr string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "server", name, "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server", "server", name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
