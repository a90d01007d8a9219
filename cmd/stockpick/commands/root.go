package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/contracts"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// Exit codes
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitDelivery      = 3
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockpick",
	Short: "stockpick - 오늘의 단타 유망주 숏리스트",
	Long: `stockpick Unified CLI

후보 발굴 → 점수 산출 → 순위 → 리포트 → 전송 5단계 파이프라인.
시세/뉴스는 Naver Finance, 전송은 Telegram.

Usage:
  go run ./cmd/stockpick [command]

Examples:
  go run ./cmd/stockpick run --dry-run
  go run ./cmd/stockpick run --strategy config/strategy/stockpick_default.yaml
  go run ./cmd/stockpick schedule
  go run ./cmd/stockpick serve --port 8089
  go run ./cmd/stockpick review --date 2024-05-02 005930 000660`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, contracts.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, contracts.ErrDeliveryFailure):
		return exitDelivery
	default:
		return exitFailure
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
}
