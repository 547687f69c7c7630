package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ArifBabayev05/backlify-client/internal/api"
	"github.com/ArifBabayev05/backlify-client/internal/cache"
	"github.com/ArifBabayev05/backlify-client/internal/config"
	"github.com/ArifBabayev05/backlify-client/internal/crud"
	"github.com/ArifBabayev05/backlify-client/internal/relation"
	"github.com/ArifBabayev05/backlify-client/internal/schema"
	"github.com/ArifBabayev05/backlify-client/internal/session"
	"github.com/ArifBabayev05/backlify-client/internal/store"
	"github.com/ArifBabayev05/backlify-client/internal/tracing"
	"github.com/ArifBabayev05/backlify-client/internal/vault"
	"github.com/ArifBabayev05/backlify-client/internal/version"
)

// app wires the subsystems together for one CLI invocation.
type app struct {
	cfg       *config.Config
	store     *store.Store
	session   *session.Manager
	cache     *cache.Cache
	client    *api.Client
	schemas   *schema.Resolver
	relations *relation.Resolver
	exec      *crud.Executor

	stopPurger      context.CancelFunc
	purgerDone      <-chan struct{}
	shutdownTracing func(context.Context) error
}

// newApp loads config, opens the store, restores the session and
// builds the pipeline stack.
func newApp() (*app, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.Client.LogLevel))
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Str("service", "backlify").Logger()

	dataDir := cfg.Client.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	a := &app{cfg: cfg}

	st, err := store.Open(filepath.Join(dataDir, "backlify.db"))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.store = st

	if days := cfg.Cache.RetentionDays; days > 0 {
		if n, err := st.Prune(days); err != nil {
			log.Warn().Err(err).Msg("pruning old cache rows failed")
		} else if n > 0 {
			log.Debug().Int64("rows", n).Int("retention_days", days).Msg("pruned old cache rows")
		}
	}

	a.session = session.New(pickPersister(st))
	a.session.Init()

	if cfg.Cache.Enabled {
		var backing cache.Store
		if cfg.Cache.Persist {
			backing = store.NewCacheAdapter(st)
		}
		c, err := cache.New(backing, cfg.Cache.TTL(), cfg.Cache.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("creating cache: %w", err)
		}
		a.cache = c

		purgeCtx, cancel := context.WithCancel(context.Background())
		a.stopPurger = cancel
		a.purgerDone = c.StartPurger(purgeCtx)
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(context.Background(), tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Version:     version.Version,
			Exporter:    cfg.Tracing.Exporter,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			log.Warn().Err(err).Msg("tracing init failed; continuing without tracing")
		} else {
			a.shutdownTracing = shutdown
		}
	}

	client, err := api.New(api.Options{
		BaseURL:  cfg.Client.BaseURL,
		Session:  a.session,
		Cache:    a.cache,
		Timeout:  cfg.Client.TimeoutDuration(),
		Logger:   log.Logger,
		SkipAuth: cfg.Client.SkipAuth,
	})
	if err != nil {
		return nil, err
	}
	a.client = client

	a.schemas = schema.NewResolver(client, log.Logger)
	a.relations = relation.NewResolver(client, log.Logger, cfg.Relations.PageLimit)
	a.exec = crud.New(client, a.schemas, log.Logger)

	return a, nil
}

// Close tears the app down in reverse order of construction.
func (a *app) Close() {
	if a.stopPurger != nil {
		a.stopPurger()
		<-a.purgerDone
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}
	if a.session != nil {
		a.session.Dispose()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}
}

// mustApp exits the process on bootstrap failure.
func mustApp() *app {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return a
}

// pickPersister prefers the OS keychain and falls back to the store's
// KV table on headless systems without one.
func pickPersister(st *store.Store) session.Persister {
	v := vault.New()
	if err := v.Set("probe", "1"); err != nil {
		log.Debug().Err(err).Msg("keychain unavailable, using store for credentials")
		return store.NewKVAdapter(st)
	}
	_ = v.Delete("probe")
	return v
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
