package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/stockpick/internal/brain"
	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// PipelineJobName is the scheduler key of the pipeline job
const PipelineJobName = "shortlist_pipeline"

// Runner runs one pipeline pass (brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// PipelineJob runs the shortlist pipeline on a cron schedule
// ⭐ SSOT: 파이프라인 반복 실행은 이 Job에서만
type PipelineJob struct {
	runner   Runner
	base     brain.RunConfig
	schedule string
	loc      *time.Location
	logger   *logger.Logger
}

// NewPipelineJob creates a new pipeline job. base.Date and base.RunID are filled per run.
func NewPipelineJob(runner Runner, base brain.RunConfig, schedule string, loc *time.Location, log *logger.Logger) *PipelineJob {
	if loc == nil {
		loc = time.Local
	}
	return &PipelineJob{
		runner:   runner,
		base:     base,
		schedule: schedule,
		loc:      loc,
		logger:   log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return PipelineJobName
}

// Schedule returns the cron schedule
func (j *PipelineJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline pass.
// "no candidates" is a normal outcome for a scheduled run, not a job failure.
func (j *PipelineJob) Run(ctx context.Context) (string, error) {
	cfg := j.base
	cfg.Date = time.Now().In(j.loc)
	cfg.RunID = ""

	j.logger.Info("Starting scheduled pipeline run")

	result, err := j.runner.Run(ctx, cfg)
	if result == nil {
		return brain.StatusError, err
	}

	status := result.Status()
	if errors.Is(err, contracts.ErrNoCandidates) {
		return status, nil
	}
	return status, err
}
