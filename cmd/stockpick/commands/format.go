package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/wonny/stockpick/internal/brain"
	"github.com/wonny/stockpick/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		PrintSeparator()
		for _, l := range lines {
			fmt.Printf("  %s\n", l)
		}
	}
	PrintDoubleSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// truncate shortens s to n runes with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// shortlistRows converts the shortlist into table rows
func shortlistRows(shortlist []contracts.RankedCandidate) [][]string {
	rows := make([][]string, 0, len(shortlist))
	for _, rc := range shortlist {
		name := rc.Name
		if name == "" {
			name = rc.Code
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", rc.Rank),
			rc.Code,
			truncate(name, 12),
			fmt.Sprintf("%d", rc.Technical.Score),
			fmt.Sprintf("%.1f", rc.Technical.RSI),
			fmt.Sprintf("%d", rc.Text.Attractiveness),
			rc.Text.Theme,
			truncate(rc.Source, 10),
		})
	}
	return rows
}

// PrintShortlist renders the shortlist as a table
func PrintShortlist(shortlist []contracts.RankedCandidate) {
	if len(shortlist) == 0 {
		PrintWarning("숏리스트가 비어 있습니다")
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Rank", "Code", "Name", "Tech", "RSI", "Attr", "Theme", "Source"}),
	)
	for _, row := range shortlistRows(shortlist) {
		table.Append(row)
	}
	table.Render()
}

// PrintStages renders per-stage results as a table
func PrintStages(stages []contracts.PipelineResult) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Stage", "In", "Out", "ms", "Status"}),
	)
	for _, s := range stages {
		status := "ok"
		if !s.Success {
			status = truncate(s.Error, 40)
		}
		table.Append([]string{
			s.Stage.ShortName(),
			fmt.Sprintf("%d", s.InputCount),
			fmt.Sprintf("%d", s.OutputCount),
			fmt.Sprintf("%d", s.Duration),
			status,
		})
	}
	table.Render()
}

// PrintRunResult prints the summary of one run
func PrintRunResult(result *brain.RunResult) {
	fmt.Println()
	PrintStages(result.Stages)
	fmt.Println()
	PrintShortlist(result.Shortlist)
	fmt.Println()

	fmt.Printf("  Run ID     : %s\n", result.RunID)
	fmt.Printf("  Status     : %s\n", result.Status())
	fmt.Printf("  Candidates : %d (scored %d)\n", result.Candidates, result.Scored)
	fmt.Printf("  Duration   : %s\n", result.Duration.Round(time.Millisecond))
	if result.DeadlineReached {
		PrintWarning("run deadline reached: 일부 후보 미채점")
	}
	for _, e := range result.DeliveryErrors {
		PrintError(e.Error())
	}
}
