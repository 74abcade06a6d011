package app

import (
	"context"
	"errors"
	"time"

	"github.com/raysh454/webscrape/internal/agent"
	"github.com/raysh454/webscrape/internal/cache"
	"github.com/raysh454/webscrape/internal/llm"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
	"github.com/raysh454/webscrape/internal/webclient"
)

// Application is the global runtime state container. It owns the shared
// services; pass it into the transports rather than using package-level
// variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	WebClient    webclient.WebClient
	Cache        cache.Store // nil when caching is disabled
	Scraper      *scraper.Scraper
	Orchestrator *Orchestrator
	Agent        *agent.Handler
	LLM          *llm.Client // nil when no API key is configured

	// internal context for background work
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes New.
type Option func(*options)

type options struct {
	webClient webclient.WebClient
	cache     cache.Store
}

// WithWebClient injects the fetch backend instead of building one from config.
func WithWebClient(wc webclient.WebClient) Option {
	return func(o *options) { o.webClient = wc }
}

// WithCache injects the cache store instead of opening one from config.
func WithCache(s cache.Store) Option {
	return func(o *options) { o.cache = s }
}

// New builds every service from cfg.
func New(cfg *Config, logger logging.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &Application{Config: cfg, Logger: logger}

	a.WebClient = o.webClient
	if a.WebClient == nil {
		wc, err := webclient.NewWebClient(cfg.WebClient, logger)
		if err != nil {
			return nil, err
		}
		a.WebClient = wc
	}

	a.Cache = o.cache
	if a.Cache == nil && cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache, logger)
		if err != nil {
			_ = a.closeOwned(o)
			return nil, err
		}
		a.Cache = store
	}

	a.Scraper = scraper.New(a.WebClient, a.Cache, cfg.Scraper, logger)
	a.Orchestrator = NewOrchestrator(cfg.Jobs, a.Scraper, logger)

	h, err := agent.NewHandler(a.Scraper, cfg.Scraper.MaxResponseBytes, logger)
	if err != nil {
		a.Orchestrator.Close()
		_ = a.closeOwned(o)
		return nil, err
	}
	a.Agent = h

	client, err := llm.New(cfg.LLM, logger)
	switch {
	case err == nil:
		a.LLM = client
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Info("inference disabled: no api key configured")
	default:
		a.Orchestrator.Close()
		_ = a.closeOwned(o)
		return nil, err
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())
	return a, nil
}

// closeOwned releases what New opened itself.
func (a *Application) closeOwned(o options) error {
	var errs []error
	if a.Cache != nil && o.cache == nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.WebClient != nil && o.webClient == nil {
		errs = append(errs, a.WebClient.Close())
	}
	return errors.Join(errs...)
}

// Start begins background maintenance. It does not block.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application starting",
		logging.Field{Key: "webclient", Value: string(a.Config.WebClient.Client)},
		logging.Field{Key: "cache", Value: a.Cache != nil},
		logging.Field{Key: "inference", Value: a.LLM != nil})

	p, ok := a.Cache.(cache.Purger)
	if !ok || a.Config.Cache.PurgeInterval <= 0 {
		return nil
	}
	a.done = make(chan struct{})
	go a.purgeLoop(p, a.Config.Cache.PurgeInterval, a.Config.Cache.TTL)
	return nil
}

func (a *Application) purgeLoop(p cache.Purger, every, grace time.Duration) {
	defer close(a.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-t.C:
			n, err := p.PurgeExpired(a.ctx, grace)
			if err != nil {
				a.Logger.Warn("cache purge failed", logging.Err(err))
				continue
			}
			if n > 0 {
				a.Logger.Info("cache purged", logging.Field{Key: "entries", Value: n})
			}
		}
	}
}

// Shutdown stops running jobs and releases the cache and web client.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	// Bound the wait for background work.
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	a.Orchestrator.Close()
	// jobs may still be writing to the cache
	if err := a.Orchestrator.Wait(shutdownCtx); err != nil {
		a.Logger.Warn("scrape jobs did not stop in time", logging.Err(err))
	}
	a.cancel()
	if a.done != nil {
		select {
		case <-a.done:
		case <-shutdownCtx.Done():
			a.Logger.Warn("cache purge did not stop in time")
		}
	}

	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.WebClient != nil {
		errs = append(errs, a.WebClient.Close())
	}
	return errors.Join(errs...)
}
