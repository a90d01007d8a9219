package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockpick/internal/brain"
	"github.com/wonny/stockpick/internal/chart"
	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/external/inference"
	"github.com/wonny/stockpick/internal/external/naver"
	"github.com/wonny/stockpick/internal/external/telegram"
	"github.com/wonny/stockpick/internal/metrics"
	"github.com/wonny/stockpick/internal/report"
	"github.com/wonny/stockpick/internal/s1_universe"
	"github.com/wonny/stockpick/internal/s2_signals"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/internal/strategyconfig"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/database"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
	"github.com/wonny/stockpick/pkg/redis"
)

// Naver pacing: 프로세스당 초당 요청 수 + Redis 공유 한도
const (
	naverRPS         = 5.0
	naverBurst       = 2
	naverSharedLimit = 20
	inferenceTimeout = 60 * time.Second
)

// deps holds everything a command needs, built once from env + strategy file
type deps struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	hash     string
	loc      *time.Location
	log      *logger.Logger
	metrics  *metrics.Metrics

	redis *redis.Client
	db    *database.DB // nil unless the database surface is used

	naver      *naver.Client
	httpClient *httputil.Client
	sourcer    *s1_universe.Builder
	scorer     *s2_signals.Builder
	ranker     *selection.Ranker
	renderer   *chart.Renderer
}

// initDeps loads config and wires the pipeline components.
// requireDelivery fails fast (before any network call) when Telegram credentials are missing.
func initDeps(ctx context.Context, requireDelivery bool) (*deps, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if requireDelivery {
		if err := cfg.RequireDelivery(); err != nil {
			return nil, err
		}
	}

	// 2. Load strategy
	path := strategyFile
	if path == "" {
		path = cfg.StrategyFile
	}
	strategy, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}
	loc, err := time.LoadLocation(strategy.Meta.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", config.ErrConfiguration, strategy.Meta.Timezone, err)
	}

	// 3. Initialize logger
	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"strategy":    strategy.Meta.StrategyID,
		"version":     strategy.Meta.Version,
		"config_hash": hash[:12],
	}).Info("Strategy loaded")
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	d := &deps{
		cfg:      cfg,
		strategy: strategy,
		hash:     hash,
		loc:      loc,
		log:      log,
		metrics:  metrics.New(),
	}

	// 4. Redis (optional cache + shared rate limit)
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		rc = redis.Disabled()
	}
	d.redis = rc

	// 5. HTTP client + Naver client
	d.httpClient = httputil.New(cfg, log).
		WithPacing(naverRPS, naverBurst).
		WithRateLimiter(redis.NewRateLimiter(rc, "stockpick"), redis.RateLimitConfig{
			Key:    "naver",
			Limit:  naverSharedLimit,
			Window: time.Second,
		})
	d.naver = naver.NewClient(d.httpClient, cfg.Naver, redis.NewCache(rc, "stockpick"), log).
		WithMaxTitles(strategy.Signals.Text.MaxTitles)

	// 6. S1: discovery surfaces
	surfaces, err := d.surfaces(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.sourcer = s1_universe.NewBuilder(surfaces, naver.NewAttributeResolver(d.naver), strategy.UniverseConfig(), log).
		WithObserver(d.metrics)

	// 7. S2: technical + text engines
	summarizer, classifier := d.textCapabilities()
	textEngine := s2_signals.NewTextEngine(summarizer, classifier, strategy.TextConfig(), log).
		WithFailureObserver(d.metrics.CapabilityFailed)
	technical := s2_signals.NewTechnicalEngine(strategy.Signals.Technical, log)
	d.scorer = s2_signals.NewBuilder(d.naver, d.naver, technical, textEngine, strategy.ScoreConfig(), log).
		WithObserver(d.metrics)

	// 8. S3: screener + ranker
	d.ranker = selection.NewRanker(strategy.RankMode(), selection.NewScreener(strategy.ScreenerConfig(), log), log)

	// 9. S4: chart renderer
	d.renderer = chart.NewRenderer(strategy.Report.ChartWidth, strategy.Report.ChartHeight)

	return d, nil
}

// surfaces builds the discovery surfaces in strategy order
func (d *deps) surfaces(ctx context.Context) ([]contracts.DiscoverySurface, error) {
	src := d.strategy.Sources
	resolver := naver.NewNameResolver(d.naver)

	surfaces := make([]contracts.DiscoverySurface, 0, len(src.Order))
	for _, name := range src.Order {
		switch name {
		case s1_universe.SurfaceTheme:
			surfaces = append(surfaces, s1_universe.NewThemeSurface(
				d.naver, d.naver, resolver, src.Theme.KeywordLimit, src.Theme.NamesPerTheme, d.log))
		case s1_universe.SurfaceRanking:
			surfaces = append(surfaces, s1_universe.NewRankingSurface(
				d.naver, d.strategy.RankingCategories(), src.Ranking.Market, src.Ranking.PageSize, d.log))
		case s1_universe.SurfaceWatchlist:
			surfaces = append(surfaces, s1_universe.NewWatchlistSurface(src.Watchlist, resolver, d.log))
		case s1_universe.SurfaceDatabase:
			if !d.cfg.Database.Enabled() {
				d.log.Warn("Database surface listed but DATABASE_URL is empty, skipping")
				continue
			}
			db, err := database.New(ctx, d.cfg)
			if err != nil {
				return nil, fmt.Errorf("connect to database: %w", err)
			}
			d.db = db
			surfaces = append(surfaces, s1_universe.NewRepository(db.Pool, src.Database.Limit))
		}
	}
	return surfaces, nil
}

// textCapabilities returns the inference client when configured, else the keyword engine
func (d *deps) textCapabilities() (contracts.Summarizer, contracts.Classifier) {
	if d.cfg.Inference.Enabled() {
		client := inference.NewClient(httputil.NewWithTimeout(d.cfg, d.log, inferenceTimeout), d.cfg.Inference, d.log)
		d.log.WithField("model", d.cfg.Inference.Model).Info("Using inference endpoint for text signals")
		return client, client
	}
	kw := s2_signals.NewKeywordEngine()
	d.log.Info("No inference endpoint, using keyword engine for text signals")
	return kw, kw
}

// telegramSink returns the live delivery sink.
// 재시도 금지: 5xx 뒤에 실제로는 전송된 메시지가 중복될 수 있음
func (d *deps) telegramSink() *telegram.Sink {
	return telegram.NewSink(httputil.New(d.cfg, d.log).DisableRetry(), d.cfg.Telegram, d.log)
}

// orchestrator builds a run orchestrator delivering to sink.
// Each orchestrator owns its artifact pipeline.
func (d *deps) orchestrator(sink contracts.DeliverySink) *brain.Orchestrator {
	artifacts := report.NewPipeline(d.renderer, d.strategy.ReportConfig(), d.log).
		OnRenderFailure(d.metrics.RenderFailed)
	return brain.NewOrchestrator(d.sourcer, d.scorer, d.ranker, artifacts, sink, d.metrics, d.log)
}

// baseRunConfig returns the run config shared by all runs of this process
func (d *deps) baseRunConfig() brain.RunConfig {
	return brain.RunConfig{
		ConfigHash: d.hash,
		K:          d.strategy.Ranking.K,
		RunTimeout: d.strategy.Execution.RunTimeout,
	}
}

// Close releases connections
func (d *deps) Close() {
	if d.db != nil {
		d.db.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}
