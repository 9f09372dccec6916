package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/internal/config"
	"github.com/aretw0/cartwise/internal/logging"
	"github.com/aretw0/cartwise/pkg/adapters/cart"
	"github.com/aretw0/cartwise/pkg/adapters/file"
	"github.com/aretw0/cartwise/pkg/adapters/gemini"
	"github.com/aretw0/cartwise/pkg/adapters/memory"
	"github.com/aretw0/cartwise/pkg/adapters/redis"
	"github.com/aretw0/cartwise/pkg/adapters/tavily"
	"github.com/aretw0/cartwise/pkg/observability"
	"github.com/aretw0/cartwise/pkg/persistence/middleware"
	"github.com/aretw0/cartwise/pkg/ports"
)

// App bundles an engine with the infrastructure built for it.
type App struct {
	Config  config.Config
	Engine  *cartwise.Engine
	Metrics *observability.Metrics
	Logger  *slog.Logger

	closers []func() error
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewApp validates cfg and wires the engine with standard CLI conventions.
// Debug raises the log level regardless of cfg.Log.Level.
func NewApp(cfg config.Config, debug bool) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	logger, err := createLogger(cfg.Log, debug)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	store, locker, closeStore, err := createStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	reviews, err := cfg.Reviews()
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	engineOpts := []cartwise.Option{
		cartwise.WithLogger(logger),
		cartwise.WithStore(store),
		cartwise.WithReviews(reviews),
		cartwise.WithDiscovery(cartwise.DiscoveryOptions{
			QueryTemplate: cfg.Search.QueryTemplate,
			MaxResults:    cfg.Search.MaxResults,
			MaxOptions:    cfg.Discovery.MaxOptions,
			Concurrency:   cfg.Discovery.Concurrency,
		}),
		cartwise.WithLifecycleHooks(observability.LogHooks(logger)),
		cartwise.WithLifecycleHooks(app.Metrics.Hooks()),
	}
	if locker != nil {
		engineOpts = append(engineOpts, cartwise.WithLocker(locker, 0))
	}

	gen, search := createCollaborators(cfg)
	engine, err := cartwise.New(gen, search, cart.NewURLBuilder(cfg.Cart.BaseURL), engineOpts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine
	return app, nil
}

// OpenStore builds only the configured checkpoint store, for commands that
// manage sessions without running them. Call the returned func when done.
func OpenStore(cfg config.Config) (ports.CheckpointStore, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	store, _, closeStore, err := createStore(cfg, logging.NewNop())
	return store, closeStore, err
}

// createStore builds the configured checkpoint store, sealing it when a key is set.
func createStore(cfg config.Config, logger *slog.Logger) (ports.CheckpointStore, ports.DistributedLocker, func() error, error) {
	s := cfg.Store
	var (
		store      ports.CheckpointStore
		locker     ports.DistributedLocker
		closeStore = func() error { return nil }
	)
	switch s.Driver {
	case config.StoreMemory:
		store = memory.NewStore(memory.WithTTL(s.TTL))
	case config.StoreFile:
		fs := file.New(s.Path)
		fs.TTL = s.TTL
		store = fs
	case config.StoreRedis:
		prefix := s.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		rs := redis.New(s.Redis.Addr, s.Redis.Password, s.Redis.DB, redis.WithTTL(s.TTL), redis.WithPrefix(prefix))
		closeStore = rs.Close
		store = rs
		if s.Lock {
			locker = redis.NewLocker(rs.Client(), prefix)
		}
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", s.Driver)
	}

	active, fallback, err := cfg.StoreKeys()
	if err != nil {
		_ = closeStore()
		return nil, nil, nil, err
	}
	if active != nil {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})(store)
	}

	logger.Debug("Store Ready", "driver", s.Driver, "encrypted", active != nil, "locked", locker != nil)
	return store, locker, closeStore, nil
}

func createCollaborators(cfg config.Config) (*gemini.Client, *tavily.Client) {
	genOpts := []gemini.Option{gemini.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout})}
	if cfg.LLM.Model != "" {
		genOpts = append(genOpts, gemini.WithModel(cfg.LLM.Model))
	}
	if cfg.LLM.BaseURL != "" {
		genOpts = append(genOpts, gemini.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Temperature != nil {
		genOpts = append(genOpts, gemini.WithTemperature(*cfg.LLM.Temperature))
	}

	searchOpts := []tavily.Option{tavily.WithHTTPClient(&http.Client{Timeout: cfg.Search.Timeout})}
	if cfg.Search.BaseURL != "" {
		searchOpts = append(searchOpts, tavily.WithBaseURL(cfg.Search.BaseURL))
	}
	if cfg.Search.Depth != "" {
		searchOpts = append(searchOpts, tavily.WithSearchDepth(cfg.Search.Depth))
	}
	if len(cfg.Search.IncludeDomains) > 0 {
		searchOpts = append(searchOpts, tavily.WithIncludeDomains(cfg.Search.IncludeDomains...))
	}

	return gemini.New(cfg.LLM.APIKey, genOpts...), tavily.New(cfg.Search.APIKey, searchOpts...)
}

// createLogger configures the application logger from cfg.
// Logs go to Stderr so they never interleave with the review prompts on Stdout.
func createLogger(cfg config.Log, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(cfg.Format, level)
}
