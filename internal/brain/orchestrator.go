package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/report"
	"github.com/wonny/stockpick/internal/s2_signals"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/pkg/logger"
)

// Run status labels (logs + metrics)
const (
	StatusOK             = "ok"
	StatusNoCandidates   = "no_candidates"
	StatusDeliveryFailed = "delivery_failed"
	StatusError          = "error"
)

// Sourcer is S1 (s1_universe.Builder)
type Sourcer interface {
	Source(ctx context.Context) ([]contracts.Candidate, error)
}

// Scorer is S2 (s2_signals.Builder)
type Scorer interface {
	Build(ctx context.Context, candidates []contracts.Candidate) []contracts.RankedCandidate
}

// ArtifactRenderer is S4 (report.Pipeline)
type ArtifactRenderer interface {
	Render(ctx context.Context, rc contracts.RankedCandidate) report.Artifact
}

// RunRecorder receives the final status of a run (metrics)
type RunRecorder interface {
	RunFinished(status string, elapsed time.Duration, shortlist int, deliveryFailures int)
}

// Orchestrator coordinates the 5-stage pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	sourcer   Sourcer
	scorer    Scorer
	ranker    *selection.Ranker
	artifacts ArtifactRenderer
	sink      contracts.DeliverySink
	recorder  RunRecorder
	logger    *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Date       time.Time
	RunID      string
	ConfigHash string
	K          int
	RunTimeout time.Duration // S1+S2 deadline; 0 = none
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	Date            time.Time
	ConfigHash      string
	Success         bool
	Error           error
	Stages          []contracts.PipelineResult
	Candidates      int
	Scored          int
	Shortlist       []contracts.RankedCandidate
	Artifacts       []report.Artifact
	DeliveryErrors  []error
	DeadlineReached bool
	Duration        time.Duration
}

// Status returns the run status label
func (r *RunResult) Status() string {
	switch {
	case r.Success:
		return StatusOK
	case errors.Is(r.Error, contracts.ErrNoCandidates):
		return StatusNoCandidates
	case len(r.DeliveryErrors) > 0:
		return StatusDeliveryFailed
	default:
		return StatusError
	}
}

// NewOrchestrator creates a new orchestrator. recorder may be nil.
func NewOrchestrator(
	sourcer Sourcer,
	scorer Scorer,
	ranker *selection.Ranker,
	artifacts ArtifactRenderer,
	sink contracts.DeliverySink,
	recorder RunRecorder,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		sourcer:   sourcer,
		scorer:    scorer,
		ranker:    ranker,
		artifacts: artifacts,
		sink:      sink,
		recorder:  recorder,
		logger:    logger,
	}
}

// Run executes the complete pipeline
// S1 → S2 → S3 → S4 → S5
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	if config.Date.IsZero() {
		config.Date = startTime
	}

	result := &RunResult{
		RunID:      config.RunID,
		Date:       config.Date,
		ConfigHash: config.ConfigHash,
	}
	log := o.logger.WithRun(config.RunID)

	defer func() {
		result.Duration = time.Since(startTime)
		if o.recorder != nil {
			o.recorder.RunFinished(result.Status(), result.Duration, len(result.Shortlist), len(result.DeliveryErrors))
		}
	}()

	if o.sink == nil {
		result.Error = fmt.Errorf("%w: no delivery sink configured", contracts.ErrConfiguration)
		return result, result.Error
	}
	if config.K < 1 {
		result.Error = fmt.Errorf("%w: k must be >= 1", contracts.ErrConfiguration)
		return result, result.Error
	}

	log.WithFields(map[string]interface{}{
		"date":        config.Date.Format("2006-01-02"),
		"config_hash": config.ConfigHash,
		"k":           config.K,
		"run_timeout": config.RunTimeout.String(),
	}).Info("Starting pipeline run")

	// S1+S2 에만 run deadline 적용 (전송은 점수 결과를 살리기 위해 제외)
	scoreCtx, cancel := ctx, context.CancelFunc(func() {})
	if config.RunTimeout > 0 {
		scoreCtx, cancel = context.WithTimeout(ctx, config.RunTimeout)
	}
	defer cancel()

	// S1: Candidate Sourcing
	candidates, err := o.runS1(scoreCtx, result)
	if err != nil {
		if errors.Is(err, contracts.ErrNoCandidates) {
			o.deliverEmpty(ctx, log, result)
		}
		result.Error = fmt.Errorf("S1 failed: %w", err)
		return result, result.Error
	}

	// S2: Scoring
	scored := o.runS2(scoreCtx, result, candidates)
	result.DeadlineReached = scoreCtx.Err() != nil && ctx.Err() == nil

	// S3: Ranking
	result.Shortlist = o.runS3(result, scored, config.K)

	// S4: Render
	result.Artifacts = o.runS4(ctx, result)

	// S5: Deliver
	o.runS5(ctx, result)
	if len(result.DeliveryErrors) > 0 {
		result.Error = fmt.Errorf("S5 failed: %d of %d payloads: %w",
			len(result.DeliveryErrors), 1+countImages(result.Artifacts), contracts.ErrDeliveryFailure)
		log.WithError(result.Error).Error("Pipeline run finished with delivery failures")
		return result, result.Error
	}

	result.Success = true

	log.WithFields(map[string]interface{}{
		"duration":  time.Since(startTime).Seconds(),
		"stages":    len(result.Stages),
		"shortlist": len(result.Shortlist),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// runS1 executes S1: Candidate Sourcing
func (o *Orchestrator) runS1(ctx context.Context, result *RunResult) ([]contracts.Candidate, error) {
	started := time.Now()
	candidates, err := o.sourcer.Source(ctx)
	o.record(result, contracts.StageSource, 0, len(candidates), started, err)
	if err != nil {
		return nil, fmt.Errorf("candidate sourcing: %w", err)
	}
	result.Candidates = len(candidates)
	return candidates, nil
}

// runS2 executes S2: Scoring; unscored candidates are dropped
func (o *Orchestrator) runS2(ctx context.Context, result *RunResult, candidates []contracts.Candidate) []contracts.RankedCandidate {
	started := time.Now()
	scored := s2_signals.ScoredOnly(o.scorer.Build(ctx, candidates))
	result.Scored = len(scored)
	o.record(result, contracts.StageScore, len(candidates), len(scored), started, nil)
	return scored
}

// runS3 executes S3: Ranking
func (o *Orchestrator) runS3(result *RunResult, scored []contracts.RankedCandidate, k int) []contracts.RankedCandidate {
	started := time.Now()
	shortlist := o.ranker.Rank(scored, k)
	o.record(result, contracts.StageRank, len(scored), len(shortlist), started, nil)
	return shortlist
}

// runS4 executes S4: Render
func (o *Orchestrator) runS4(ctx context.Context, result *RunResult) []report.Artifact {
	started := time.Now()
	artifacts := make([]report.Artifact, 0, len(result.Shortlist))
	for _, rc := range result.Shortlist {
		artifacts = append(artifacts, o.artifacts.Render(ctx, rc))
	}
	o.record(result, contracts.StageRender, len(result.Shortlist), len(artifacts), started, nil)
	return artifacts
}

// runS5 executes S5: Deliver. No retry; every failure is collected.
func (o *Orchestrator) runS5(ctx context.Context, result *RunResult) {
	started := time.Now()

	text := report.Compose(result.Date, result.Artifacts)
	if len(result.Artifacts) == 0 {
		text = report.ComposeEmpty(result.Date)
	}

	sent := 0
	if err := o.sink.SendText(ctx, text); err != nil {
		result.DeliveryErrors = append(result.DeliveryErrors, fmt.Errorf("report text: %w", err))
	} else {
		sent++
	}

	for _, a := range result.Artifacts {
		if a.Image == nil {
			continue
		}
		if err := o.sink.SendImage(ctx, a.Image, a.Caption()); err != nil {
			result.DeliveryErrors = append(result.DeliveryErrors, fmt.Errorf("chart %s: %w", a.Code, err))
			continue
		}
		sent++
	}

	var err error
	if len(result.DeliveryErrors) > 0 {
		err = errors.Join(result.DeliveryErrors...)
	}
	o.record(result, contracts.StageDeliver, 1+countImages(result.Artifacts), sent, started, err)
}

// deliverEmpty sends the "no candidates found" message; a failure is collected
func (o *Orchestrator) deliverEmpty(ctx context.Context, log *logger.Logger, result *RunResult) {
	if err := o.sink.SendText(ctx, report.ComposeEmpty(result.Date)); err != nil {
		result.DeliveryErrors = append(result.DeliveryErrors, fmt.Errorf("empty report: %w", err))
		log.WithError(err).Warn("Failed to deliver no-candidates message")
	}
}

func (o *Orchestrator) record(result *RunResult, stage contracts.Stage, in, out int, started time.Time, err error) {
	pr := contracts.PipelineResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    time.Since(started).Milliseconds(),
	}
	if err != nil {
		pr.Error = err.Error()
	}
	result.Stages = append(result.Stages, pr)

	entry := o.logger.WithRun(result.RunID).WithFields(map[string]interface{}{
		"stage":       stage.ShortName(),
		"description": stage.Description(),
		"input":       in,
		"output":      out,
		"duration_ms": pr.Duration,
	})
	if err != nil {
		entry.WithError(err).Warn(fmt.Sprintf("%s failed", stage))
		return
	}
	entry.Info(fmt.Sprintf("%s completed", stage))
}

func countImages(artifacts []report.Artifact) int {
	n := 0
	for _, a := range artifacts {
		if a.Image != nil {
			n++
		}
	}
	return n
}
