// Package cli wires configuration into a ready Service for the commands in cmd/spokesperson.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tyler-Pritchard/Spokesperson"
	"github.com/Tyler-Pritchard/Spokesperson/internal/config"
	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/Tyler-Pritchard/Spokesperson/internal/metrics"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/file"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/memory"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/openai"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/redis"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/sqlite"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/catalog"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/persistence/middleware"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/ports"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/summary"
)

// App is a wired Service plus the resources the commands manage.
type App struct {
	Service *spokesperson.Service
	Metrics *metrics.Metrics

	// Memory is set when states live in process memory; the janitor prunes it.
	Memory *memory.Store
	// AnswerLog is set when the SQLite audit trail is open.
	AnswerLog *sqlite.Store
	States    ports.StateStore

	closers []func() error
}

// Close releases stores in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildOptions tunes Build for a command.
type BuildOptions struct {
	// WithMetrics registers prometheus hooks.
	WithMetrics bool
	// DisableAnswerLog skips opening the SQLite database.
	DisableAnswerLog bool
}

// Build wires the Service from cfg: catalog, state store, answer log, completion service and metrics.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{}
	svcOpts := []spokesperson.Option{spokesperson.WithLogger(logger)}

	cat, tmpl, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	svcOpts = append(svcOpts, spokesperson.WithCatalog(cat))

	store, locker, closeStore, err := openStateStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}
	if m, ok := store.(*memory.Store); ok {
		app.Memory = m
	}
	if cfg.StateKey != "" {
		if store, err = encryptStates(store, cfg); err != nil {
			_ = app.Close()
			return nil, err
		}
		logger.Info("state encryption enabled", "fallback_keys", len(cfg.StateFallbackKeys))
	}
	app.States = store
	svcOpts = append(svcOpts, spokesperson.WithStateStore(store))
	if locker != nil {
		svcOpts = append(svcOpts, spokesperson.WithLocker(locker))
	}

	var history ports.AnswerLog
	if !opts.DisableAnswerLog && cfg.DatabasePath != "" {
		db, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("open answer log: %w", err)
		}
		app.AnswerLog = db
		app.closers = append(app.closers, db.Close)
		history = db
		svcOpts = append(svcOpts, spokesperson.WithAnswerLog(db))
	}

	fallback := summary.NewTemplateBuilder(summary.WithTemplate(tmpl))
	if cfg.CompletionEnabled() {
		client, err := openai.New(cfg.OpenAIAPIKey,
			openai.WithModel(cfg.OpenAIModel),
			openai.WithBaseURL(cfg.OpenAIBaseURL),
		)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		builderOpts := []summary.CompletionOption{
			summary.WithFallback(fallback),
			summary.WithTimeout(cfg.ProviderTimeout),
			summary.WithMaxTokens(cfg.SummaryMaxTokens),
			summary.WithCompletionLogger(logger),
		}
		if cfg.SystemPrompt != "" {
			builderOpts = append(builderOpts, summary.WithSystemPrompt(cfg.SystemPrompt))
		}
		if history != nil {
			builderOpts = append(builderOpts, summary.WithHistory(history))
		}
		svcOpts = append(svcOpts, spokesperson.WithSummaryBuilder(summary.NewCompletionBuilder(client, builderOpts...)))
		if cfg.FollowUps {
			svcOpts = append(svcOpts, spokesperson.WithPhraser(
				summary.NewFollowUpWriter(client, cfg.ProviderTimeout, summary.DefaultFollowUpMaxTokens, logger)))
		}
		logger.Info("completion service enabled", "model", client.Model(), "follow_ups", cfg.FollowUps)
	} else {
		svcOpts = append(svcOpts, spokesperson.WithSummaryBuilder(fallback))
		logger.Info("completion service disabled, using template summaries")
	}

	if opts.WithMetrics {
		app.Metrics = metrics.New()
		svcOpts = append(svcOpts, spokesperson.WithLifecycleHooks(app.Metrics.Hooks(logger)))
	}

	svc, err := spokesperson.New(svcOpts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Service = svc
	return app, nil
}

// LoadCatalog reads the catalog file at path, or returns the default catalog when path is empty.
func LoadCatalog(path string) (*domain.Catalog, string, error) {
	if path == "" {
		return domain.DefaultCatalog(), summary.DefaultTemplate, nil
	}
	loaded, err := catalog.LoadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("load catalog %s: %w", path, err)
	}
	tmpl := summary.DefaultTemplate
	if loaded.SummaryTemplate != "" {
		if err := summary.ParseTemplate(loaded.SummaryTemplate); err != nil {
			return nil, "", fmt.Errorf("catalog %s: summary template: %w", path, err)
		}
		tmpl = loaded.SummaryTemplate
	}
	return loaded.Catalog, tmpl, nil
}

func openStateStore(ctx context.Context, cfg *config.Config) (ports.StateStore, ports.DistributedLocker, func() error, error) {
	switch cfg.StateBackend {
	case config.StateFile:
		return file.New(cfg.StateDir), nil, nil, nil
	case config.StateRedis:
		store := redis.New(cfg.RedisAddr, "", 0,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.SessionTTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return store, redis.NewLocker(store.Client(), cfg.RedisPrefix), store.Close, nil
	default:
		return memory.NewStore(), nil, nil, nil
	}
}

func encryptStates(store ports.StateStore, cfg *config.Config) (ports.StateStore, error) {
	active, err := middleware.DecodeKey(cfg.StateKey)
	if err != nil {
		return nil, fmt.Errorf("state key: %w", err)
	}
	encCfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, raw := range cfg.StateFallbackKeys {
		key, err := middleware.DecodeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("fallback state key %d: %w", i, err)
		}
		encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(encCfg)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}
