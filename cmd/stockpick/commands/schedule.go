package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/internal/scheduler/jobs"
)

// scheduleCmd runs the pipeline on the strategy cron
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "cron 스케줄로 반복 실행",
	Long: `strategy schedule.cron (5필드, strategy timezone) 에 맞춰 파이프라인을 반복 실행합니다.

Flags:
  --cron       cron 표현식 override (예: "30 8 * * 1-5")
  --run-now    시작 직후 1회 실행

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
	RunE: runSchedule,
}

var (
	scheduleCron   string
	scheduleRunNow bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron 표현식 (기본: strategy schedule.cron)")
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "시작 직후 1회 실행")
}

// newPipelineScheduler registers the pipeline job on a new scheduler
func newPipelineScheduler(d *deps, runner jobs.Runner, cron string) (*scheduler.Scheduler, error) {
	if cron == "" {
		cron = d.strategy.Schedule.Cron
	}

	sched := scheduler.New(d.log, d.loc)
	job := jobs.NewPipelineJob(runner, d.baseRunConfig(), cron, d.loc, d.log)
	if err := sched.AddJob(job); err != nil {
		return nil, fmt.Errorf("add pipeline job: %w", err)
	}
	return sched, nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := initDeps(ctx, true)
	if err != nil {
		return err
	}
	defer d.Close()

	sched, err := newPipelineScheduler(d, d.orchestrator(d.telegramSink()), scheduleCron)
	if err != nil {
		return err
	}

	sched.Start()

	lines := []string{}
	for name, stat := range sched.GetJobStats() {
		line := fmt.Sprintf("%s  [%s]", name, stat.Schedule)
		if next, ok := sched.NextRun(name); ok {
			line += "  next: " + next.Format("2006-01-02 15:04 MST")
		}
		lines = append(lines, line)
	}
	PrintHeader("stockpick scheduler", lines...)
	fmt.Println("\nPress Ctrl+C to stop")

	if scheduleRunNow {
		go func() { _ = sched.RunJob(jobs.PipelineJobName) }()
	}

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}
