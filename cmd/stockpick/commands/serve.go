package commands

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/api"
	"github.com/wonny/stockpick/internal/api/handlers"
	"github.com/wonny/stockpick/internal/brain"
	"github.com/wonny/stockpick/internal/report"
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `HTTP API 서버를 시작합니다. 실행 결과는 저장하지 않습니다.

Endpoints:
  GET /health                      - Health check
  GET /api/v1/shortlist?dry_run=1  - 온디맨드 실행 (dry_run=0 이면 Telegram 전송)
  GET /api/v1/jobs                 - 스케줄 작업 통계 (--schedule)
  GET /metrics                     - Prometheus metrics

Example:
  go run ./cmd/stockpick serve
  go run ./cmd/stockpick serve --port 8089 --schedule`,
	RunE: runServe,
}

var (
	servePort     string
	serveSchedule bool
)

// renderAndDeliverBudget is added to the run timeout for the HTTP write timeout
const renderAndDeliverBudget = 2 * time.Minute

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: API_PORT)")
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", false, "strategy cron 스케줄러도 함께 실행")
}

// serialRunner lets one run at a time through a shared orchestrator
type serialRunner struct {
	mu     sync.Mutex
	runner *brain.Orchestrator
}

func (s *serialRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Run(ctx, cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := initDeps(ctx, serveSchedule)
	if err != nil {
		return err
	}
	defer d.Close()

	if servePort != "" {
		d.cfg.APIPort = servePort
	}

	// dry-run 결과는 응답 JSON 으로만 돌려줌
	dry := &serialRunner{runner: d.orchestrator(report.NewWriterSink(io.Discard))}

	var live handlers.Runner
	var liveRunner *serialRunner
	if err := d.cfg.RequireDelivery(); err != nil {
		d.log.WithError(err).Warn("Delivery not configured, only dry_run=1 is served")
	} else {
		liveRunner = &serialRunner{runner: d.orchestrator(d.telegramSink())}
		live = liveRunner
	}

	h := api.Handlers{
		Shortlist: handlers.NewShortlistHandler(live, dry, d.baseRunConfig(), d.loc, d.log),
	}
	if d.cfg.MetricsEnabled {
		h.Metrics = d.metrics.Handler()
	}

	if serveSchedule {
		sched, err := newPipelineScheduler(d, liveRunner, "")
		if err != nil {
			return err
		}
		h.Jobs = handlers.NewJobsHandler(sched)
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(d.cfg, d.log, api.NewRouter(h, d.log), d.strategy.Execution.RunTimeout+renderAndDeliverBudget)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintHeader("stockpick API server",
		fmt.Sprintf("Port     : %s", d.cfg.APIPort),
		fmt.Sprintf("Strategy : %s (%s)", d.strategy.Meta.StrategyID, d.hash[:12]),
		fmt.Sprintf("Schedule : %v", serveSchedule),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	PrintSuccess("Server stopped")
	return nil
}
