// Package app assembles the service from configuration: credential pool,
// providers, extraction cascade, engagement analyzer, orchestrator,
// stores and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"time"

	gcstorage "cloud.google.com/go/storage"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/api"
	"github.com/insightbr/socialharvest/internal/browser"
	"github.com/insightbr/socialharvest/internal/clock"
	"github.com/insightbr/socialharvest/internal/config"
	"github.com/insightbr/socialharvest/internal/credential"
	"github.com/insightbr/socialharvest/internal/engagement"
	"github.com/insightbr/socialharvest/internal/extract"
	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/insights"
	"github.com/insightbr/socialharvest/internal/logging"
	"github.com/insightbr/socialharvest/internal/orchestrator"
	"github.com/insightbr/socialharvest/internal/progress"
	"github.com/insightbr/socialharvest/internal/provider"
	"github.com/insightbr/socialharvest/internal/publisher"
	"github.com/insightbr/socialharvest/internal/relevance"
	"github.com/insightbr/socialharvest/internal/report"
	"github.com/insightbr/socialharvest/internal/runner"
	"github.com/insightbr/socialharvest/internal/storage"
	"github.com/insightbr/socialharvest/internal/store"
)

// App holds every assembled component plus the handles needed to shut
// them down.
type App struct {
	Config       config.Config
	Logger       *zap.Logger
	Orchestrator *orchestrator.Orchestrator
	Runner       *runner.Runner
	Server       *api.Server

	browserSession *browser.Session
	pgStore        *store.PostgresStore
	pubsubClient   *pubsub.Client
	pub            *publisher.PubSub
	gcsClient      *gcstorage.Client
}

// New builds the application from a config file path.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}
	clk := clock.System{}
	pool := credential.NewPool(cfg.Credentials.PoolCredentials(), logger)
	filter := relevance.NewFilter()

	providers := a.buildProviders(cfg, pool, filter, clk, logger)
	analyzer, err := a.buildAnalyzer(cfg, pool, logger)
	if err != nil {
		return nil, err
	}

	extractTimeout := time.Duration(cfg.Extraction.TimeoutSeconds) * time.Second
	strategies := extract.DefaultStrategies(extractTimeout, cfg.Extraction.JinaBase)
	newExtractor := func(qctx harvest.QueryContext) harvest.Extractor {
		return extract.NewCascade(strategies, qctx, clk, logger)
	}

	orch, err := orchestrator.New(
		orchestrator.Config{
			ResultsPerProvider: cfg.Search.ResultsPerProvider,
			ProviderTimeout:    time.Duration(cfg.Search.ProviderTimeoutSeconds) * time.Second,
			PipelineWorkers:    cfg.Search.PipelineWorkers,
		},
		orchestrator.Deps{
			Providers:    providers,
			NewExtractor: newExtractor,
			Analyzer:     analyzer,
			Annotator:    insights.New(),
			Filter:       filter,
			Credentials:  pool,
			Clock:        clk,
			Broker:       progress.NewBroker(progress.LogSink{Logger: logger}, progress.MetricsSink{}),
			Logger:       logger,
		},
	)
	if err != nil {
		return nil, err
	}
	a.Orchestrator = orch

	runStore, err := a.buildRunStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	artifacts, err := a.buildArtifactStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pub, err := a.buildPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var runnerOpts []runner.Option
	if a.browserSession != nil {
		runnerOpts = append(runnerOpts, runner.WithScreenshots(a.browserSession, report.TopPerformerCount))
	}
	a.Runner = runner.New(orch, runStore, artifacts, pub, cfg.PubSub.TopicName, clk, logger, runnerOpts...)
	a.Server = api.NewServer(a.Runner, runStore, logger)
	return a, nil
}

// Close shuts down background resources. Safe on a partially built app.
func (a *App) Close() {
	if a.browserSession != nil {
		_ = a.browserSession.Close()
	}
	if a.pub != nil {
		a.pub.Close()
	}
	if a.pubsubClient != nil {
		_ = a.pubsubClient.Close()
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.gcsClient != nil {
		_ = a.gcsClient.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

// buildProviders wires the fixed provider order: API providers that have
// credentials first, then the keyless scrapers. The order is fixed so
// merged results are deterministic.
func (a *App) buildProviders(cfg config.Config, pool *credential.Pool, filter *relevance.Filter, clk clock.System, logger *zap.Logger) []harvest.Provider {
	timeout := time.Duration(cfg.Search.ProviderTimeoutSeconds) * time.Second

	var providers []harvest.Provider
	if len(cfg.Credentials.Serper) > 0 {
		providers = append(providers, provider.NewSerper("", timeout, pool, filter, clk, logger))
	}
	if len(cfg.Credentials.GoogleCSE) > 0 {
		providers = append(providers, provider.NewGoogleCSE("", timeout, pool, filter, clk, logger))
	}
	if len(cfg.Credentials.YouTube) > 0 {
		providers = append(providers, provider.NewYouTube("", timeout, pool, filter, clk, logger))
	}
	providers = append(providers,
		provider.NewBing("", timeout, cfg.Search.ScraperQPS, filter, clk, logger),
		provider.NewDuckDuckGo("", timeout, cfg.Search.ScraperQPS, filter, clk, logger),
	)
	return providers
}

// buildAnalyzer wires the engagement source cascade, cheapest first.
func (a *App) buildAnalyzer(cfg config.Config, pool *credential.Pool, logger *zap.Logger) (*engagement.Analyzer, error) {
	timeout := time.Duration(cfg.Search.ProviderTimeoutSeconds) * time.Second

	var sources []engagement.Source
	if len(cfg.Credentials.Apify) > 0 {
		sources = append(sources, engagement.NewApifySource("", timeout, pool))
	}
	sources = append(sources,
		engagement.NewOEmbedSource(timeout, nil),
		engagement.NewMetaTagsSource(timeout),
	)

	if cfg.Browser.Enabled {
		session, err := browser.NewSession(browser.Config{
			MaxConcurrency: cfg.Browser.MaxParallel,
			Timeout:        time.Duration(cfg.Browser.NavTimeoutSec) * time.Second,
			DomainQPS:      cfg.Browser.DomainQPS,
			UserAgent:      cfg.Browser.UserAgent,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("start browser: %w", err)
		}
		a.browserSession = session
		sources = append(sources, engagement.NewBrowserSource(session))
	}

	return engagement.NewAnalyzer(sources, logger), nil
}

func (a *App) buildRunStore(ctx context.Context, cfg config.Config) (harvest.RunStore, error) {
	if cfg.DB.DSN == "" {
		a.Logger.Info("no database configured, using in-memory run store")
		return store.NewMemoryStore(), nil
	}
	pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, err
	}
	a.pgStore = pg
	return pg, nil
}

func (a *App) buildArtifactStore(ctx context.Context, cfg config.Config) (harvest.ArtifactStore, error) {
	if cfg.Storage.GCSBucket == "" {
		return storage.NewLocalStore(cfg.Storage.LocalRoot)
	}
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	a.gcsClient = client
	return storage.NewGCSStore(client, cfg.Storage.GCSBucket)
}

func (a *App) buildPublisher(ctx context.Context, cfg config.Config) (harvest.Publisher, error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	a.pubsubClient = client
	pub, err := publisher.NewPubSub(client)
	if err != nil {
		return nil, err
	}
	a.pub = pub
	return pub, nil
}
