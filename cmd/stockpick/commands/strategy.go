package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/stockpick/internal/strategyconfig"
)

// strategyCmd inspects a strategy file without touching the network
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "strategy 파일 검증/출력",
	Long: `strategy YAML 을 기본값 위에 읽어 검증하고, 최종 설정과 해시를 출력합니다.

Example:
  go run ./cmd/stockpick strategy --strategy config/strategy/stockpick_default.yaml`,
	RunE: runStrategy,
}

func init() {
	rootCmd.AddCommand(strategyCmd)
}

func runStrategy(cmd *cobra.Command, args []string) error {
	cfg, _, err := strategyconfig.Load(strategyFile)
	if err != nil {
		return err
	}
	if err := strategyconfig.Validate(cfg); err != nil {
		return err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}

	PrintHeader("stockpick strategy",
		fmt.Sprintf("ID   : %s v%s", cfg.Meta.StrategyID, cfg.Meta.Version),
		fmt.Sprintf("Hash : %s", hash),
	)
	fmt.Println(string(out))

	for _, w := range strategyconfig.Warn(cfg) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	PrintSuccess("Strategy is valid")
	return nil
}
