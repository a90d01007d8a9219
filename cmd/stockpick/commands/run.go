package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/report"
	"github.com/wonny/stockpick/internal/s2_signals"
)

// runCmd runs the pipeline once
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "파이프라인 1회 실행",
	Long: `후보 발굴부터 전송까지 파이프라인을 한 번 실행합니다.

S1 → S2 → S3 → S4 → S5

Flags:
  --date       리포트 날짜 (기본: 오늘)
  --dry-run    Telegram 대신 표준출력으로 전송
  --k          숏리스트 크기 (기본: strategy ranking.k)

Example:
  go run ./cmd/stockpick run --dry-run
  go run ./cmd/stockpick run --k 5`,
	RunE: runPipeline,
}

var (
	runDate   string
	runDryRun bool
	runK      int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "리포트 날짜 (YYYY-MM-DD, 기본: 오늘)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "표준출력으로 전송 (Telegram X)")
	runCmd.Flags().IntVar(&runK, "k", 0, "숏리스트 크기 (0 = strategy 값)")
}

// progressObserver forwards score events to metrics and advances the bar
type progressObserver struct {
	next s2_signals.ScoreObserver
	bar  *progressbar.ProgressBar
}

func (p *progressObserver) CandidateScored(technical int, elapsed time.Duration) {
	p.next.CandidateScored(technical, elapsed)
	_ = p.bar.Add(1)
}

func (p *progressObserver) CapabilityFailed(kind string) {
	p.next.CapabilityFailed(kind)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := initDeps(ctx, !runDryRun)
	if err != nil {
		return err
	}
	defer d.Close()

	cfg := d.baseRunConfig()
	cfg.Date = time.Now().In(d.loc)
	if runDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", runDate, d.loc)
		if err != nil {
			return fmt.Errorf("%w: invalid date format: %v", contracts.ErrConfiguration, err)
		}
		cfg.Date = parsed
	}
	if runK > 0 {
		cfg.K = runK
	}

	var sink contracts.DeliverySink = d.telegramSink()
	if runDryRun {
		sink = report.NewWriterSink(os.Stdout)
	}

	PrintHeader("stockpick run",
		fmt.Sprintf("📅 Date     : %s", cfg.Date.Format("2006-01-02")),
		fmt.Sprintf("🔧 Strategy : %s (%s)", d.strategy.Meta.StrategyID, d.hash[:12]),
		fmt.Sprintf("🎯 K        : %d", cfg.K),
		fmt.Sprintf("🧪 Dry Run  : %v", runDryRun),
	)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetDescription("Scoring"),
	)
	d.scorer.WithObserver(&progressObserver{next: d.metrics, bar: bar})

	result, runErr := d.orchestrator(sink).Run(ctx, cfg)
	_ = bar.Finish()
	fmt.Println()

	if result != nil {
		PrintRunResult(result)
	}

	switch {
	case runErr == nil:
		PrintSuccess("Run completed")
		return nil
	case errors.Is(runErr, contracts.ErrNoCandidates):
		PrintInfo("후보 없음: 빈 리포트 전송")
		return nil
	default:
		return fmt.Errorf("pipeline run failed: %w", runErr)
	}
}
