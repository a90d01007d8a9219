package commands

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"configuration", fmt.Errorf("load: %w", contracts.ErrConfiguration), exitConfiguration},
		{"delivery", fmt.Errorf("S5 failed: %w", contracts.ErrDeliveryFailure), exitDelivery},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "삼성전자", truncate("삼성전자", 4))
	assert.Equal(t, "삼성...", truncate("삼성전자", 2))
	assert.Equal(t, "", truncate("", 3))
}

func TestShortlistRows(t *testing.T) {
	rows := shortlistRows([]contracts.RankedCandidate{
		{
			Candidate: contracts.Candidate{Code: "005930", Name: "삼성전자", Source: "theme"},
			Technical: contracts.TechnicalScore{Score: 4, RSI: 28.46},
			Text:      contracts.TextSignal{Attractiveness: 5, Theme: "반도체"},
			Rank:      1,
		},
		{
			Candidate: contracts.Candidate{Code: "000660"},
			Rank:      2,
		},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "005930", "삼성전자", "4", "28.5", "5", "반도체", "theme"}, rows[0])
	assert.Equal(t, "000660", rows[1][2], "name falls back to code")
}

type countingScoreObserver struct {
	scored, failed int
}

func (c *countingScoreObserver) CandidateScored(int, time.Duration) { c.scored++ }
func (c *countingScoreObserver) CapabilityFailed(string)            { c.failed++ }

func TestProgressObserver(t *testing.T) {
	next := &countingScoreObserver{}
	bar := progressbar.NewOptions(-1, progressbar.OptionSetVisibility(false))
	p := &progressObserver{next: next, bar: bar}

	p.CandidateScored(3, time.Millisecond)
	p.CandidateScored(1, time.Millisecond)
	p.CapabilityFailed("text")

	assert.Equal(t, 2, next.scored)
	assert.Equal(t, 1, next.failed)
	assert.Equal(t, 2, int(bar.State().CurrentNum))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "schedule", "serve", "review", "strategy"} {
		assert.True(t, names[want], want)
	}
}
