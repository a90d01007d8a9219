package s2_signals

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Scoring defaults
const (
	DefaultLookbackDays = 120
	DefaultConcurrency  = 4
	DefaultQuerySuffix  = " 재료"
)

// ScoreConfig holds the fan-out options of one scoring pass
type ScoreConfig struct {
	LookbackDays int
	Interval     contracts.Interval
	QuerySuffix  string // appended to the candidate name for the text search
	Concurrency  int

	// Early exit: stop after the batch in which K candidates reached MinTechnicalScore
	EarlyExit         bool
	K                 int
	MinTechnicalScore int
}

// DefaultScoreConfig returns the default scoring options
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		LookbackDays: DefaultLookbackDays,
		Interval:     contracts.IntervalDay,
		QuerySuffix:  DefaultQuerySuffix,
		Concurrency:  DefaultConcurrency,
	}
}

// ScoreObserver receives per-candidate scoring events (metrics)
type ScoreObserver interface {
	CandidateScored(technical int, elapsed time.Duration)
	CapabilityFailed(kind string)
}

// Builder scores every candidate with the technical and text engines
// ⭐ SSOT: 후보별 점수 계산 오케스트레이션은 여기서만
type Builder struct {
	bars       contracts.TimeSeriesSource
	news       contracts.TextSource
	technical  *TechnicalEngine
	textEngine *TextEngine
	cfg        ScoreConfig
	observer   ScoreObserver
	logger     *logger.Logger
}

// NewBuilder creates a new candidate scorer
func NewBuilder(
	bars contracts.TimeSeriesSource,
	news contracts.TextSource,
	technical *TechnicalEngine,
	textEngine *TextEngine,
	cfg ScoreConfig,
	logger *logger.Logger,
) *Builder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Interval == "" {
		cfg.Interval = contracts.IntervalDay
	}
	return &Builder{
		bars:       bars,
		news:       news,
		technical:  technical,
		textEngine: textEngine,
		cfg:        cfg,
		logger:     logger,
	}
}

// WithObserver attaches a metrics observer to the builder and its text engine
func (b *Builder) WithObserver(o ScoreObserver) *Builder {
	b.observer = o
	if o != nil {
		b.textEngine.WithFailureObserver(o.CapabilityFailed)
	}
	return b
}

// Build scores candidates and returns one entry per input, in input order.
// Entries the run never reached (deadline, early exit) have Scored=false.
func (b *Builder) Build(ctx context.Context, candidates []contracts.Candidate) []contracts.RankedCandidate {
	b.logger.WithFields(map[string]interface{}{
		"candidates":  len(candidates),
		"concurrency": b.cfg.Concurrency,
		"early_exit":  b.cfg.EarlyExit,
	}).Info("Starting candidate scoring")

	results := make([]contracts.RankedCandidate, len(candidates))
	for i, c := range candidates {
		results[i] = contracts.Unscored(c, i)
	}

	// early exit가 꺼져 있으면 한 배치로 전부 처리
	batch := len(candidates)
	if b.cfg.EarlyExit {
		batch = b.cfg.Concurrency
	}

	strong := 0
	for start := 0; start < len(candidates); start += batch {
		if ctx.Err() != nil {
			break
		}

		end := start + batch
		if end > len(candidates) {
			end = len(candidates)
		}

		var g errgroup.Group
		g.SetLimit(b.cfg.Concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				scored := b.scoreCandidate(ctx, candidates[i], i)
				// 데드라인 이후 완료된 결과는 불완전하므로 버림
				if ctx.Err() != nil {
					return nil
				}
				results[i] = scored
				return nil
			})
		}
		_ = g.Wait()

		if b.cfg.EarlyExit {
			for i := start; i < end; i++ {
				if results[i].Scored && results[i].Technical.Score >= b.cfg.MinTechnicalScore {
					strong++
				}
			}
			if b.cfg.K > 0 && strong >= b.cfg.K {
				b.logger.WithFields(map[string]interface{}{
					"scored": end,
					"strong": strong,
				}).Info("Early exit: enough candidates above threshold")
				break
			}
		}
	}

	scored := 0
	for _, r := range results {
		if r.Scored {
			scored++
		}
	}

	fields := map[string]interface{}{
		"total":   len(candidates),
		"scored":  scored,
		"skipped": len(candidates) - scored,
	}
	if ctx.Err() != nil {
		b.logger.WithFields(fields).Warn("Run deadline reached, ranking with scored candidates only")
	} else {
		b.logger.WithFields(fields).Info("Candidate scoring completed")
	}

	return results
}

// scoreCandidate absorbs every candidate-local failure; it never returns an error
func (b *Builder) scoreCandidate(ctx context.Context, c contracts.Candidate, seq int) contracts.RankedCandidate {
	started := time.Now()
	rc := contracts.Unscored(c, seq)

	bars, err := b.bars.FetchBars(ctx, c.Code, b.cfg.LookbackDays, b.cfg.Interval)
	if err != nil {
		b.logger.WithError(err).WithField("code", c.Code).Warn("Failed to fetch bars, technical score 0")
		b.failed("bars")
		bars = nil
	}
	rc.Bars = bars
	rc.Technical = b.technical.Score(bars)

	snippets, err := b.news.Search(ctx, b.query(c))
	if err != nil {
		b.logger.WithError(err).WithField("code", c.Code).Warn("Failed to search text, using default signal")
		b.failed("text")
		snippets = nil
	}
	rc.Text = b.textEngine.Summarize(ctx, snippets)
	rc.Scored = true

	if b.observer != nil {
		b.observer.CandidateScored(rc.Technical.Score, time.Since(started))
	}

	b.logger.WithFields(map[string]interface{}{
		"code":           c.Code,
		"technical":      rc.Technical.Score,
		"attractiveness": rc.Text.Attractiveness,
		"bars":           len(bars),
		"snippets":       len(snippets),
	}).Debug("Candidate scored")

	return rc
}

func (b *Builder) query(c contracts.Candidate) string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = c.Code
	}
	return name + b.cfg.QuerySuffix
}

func (b *Builder) failed(kind string) {
	if b.observer != nil {
		b.observer.CapabilityFailed(kind)
	}
}

// ScoredOnly keeps the entries that finished scoring, preserving order
func ScoredOnly(results []contracts.RankedCandidate) []contracts.RankedCandidate {
	out := make([]contracts.RankedCandidate, 0, len(results))
	for _, r := range results {
		if r.Scored {
			out = append(out, r)
		}
	}
	return out
}
