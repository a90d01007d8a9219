package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/review"
)

// reviewCmd checks the next-bar return of past picks
var reviewCmd = &cobra.Command{
	Use:   "review [codes...]",
	Short: "다음 봉 수익률 점검",
	Long: `결정일 종가 대비 다음 거래일 종가 수익률을 종목별로 계산합니다.

Example:
  go run ./cmd/stockpick review --date 2024-05-02 005930 000660`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

var reviewDate string

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&reviewDate, "date", "", "결정일 (YYYY-MM-DD, 필수)")
	_ = reviewCmd.MarkFlagRequired("date")
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := initDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.Close()

	date, err := time.ParseInLocation("2006-01-02", reviewDate, d.loc)
	if err != nil {
		return fmt.Errorf("%w: invalid date format: %v", contracts.ErrConfiguration, err)
	}

	checker := review.NewChecker(d.naver, d.strategy.Execution.Concurrency, d.log)
	result, err := checker.Check(ctx, date, args)
	if err != nil {
		return err
	}

	PrintHeader("stockpick review", fmt.Sprintf("📅 Decision date: %s", date.Format("2006-01-02")))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Code", "Decision", "Close", "Next", "Close", "Return"}),
	)
	for _, r := range result.Returns {
		if !r.OK {
			table.Append([]string{r.Code, "-", "-", "-", "-", r.Reason})
			continue
		}
		table.Append([]string{
			r.Code,
			r.DecisionDate.Format("01-02"),
			fmt.Sprintf("%d", r.DecisionClose),
			r.NextDate.Format("01-02"),
			fmt.Sprintf("%d", r.NextClose),
			fmt.Sprintf("%+.2f%%", r.Return*100),
		})
	}
	table.Render()

	fmt.Println()
	fmt.Printf("  Evaluated  : %d / %d\n", result.Evaluated, len(result.Returns))
	fmt.Printf("  Hit rate   : %.1f%%\n", result.HitRate*100)
	fmt.Printf("  Mean       : %+.2f%%\n", result.MeanReturn*100)
	fmt.Printf("  Volatility : %.2f%%\n", result.Volatility*100)
	return nil
}
