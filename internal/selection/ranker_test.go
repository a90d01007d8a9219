package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

func rc(code string, technical, attractiveness, seq int) contracts.RankedCandidate {
	return contracts.RankedCandidate{
		Candidate: contracts.Candidate{Code: code, Name: code},
		Technical: contracts.TechnicalScore{Score: technical},
		Text:      contracts.TextSignal{Summary: contracts.NoInfoSummary, Attractiveness: attractiveness, Theme: contracts.SectorOther},
		Seq:       seq,
		Scored:    true,
	}
}

func codes(ranked []contracts.RankedCandidate) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Code
	}
	return out
}

func TestRank_TechnicalScoresNoText(t *testing.T) {
	input := []contracts.RankedCandidate{rc("A", 3, 0, 0), rc("B", 1, 0, 1), rc("C", 2, 0, 2)}

	got := NewRanker(RankTechnicalText, nil, logger.Nop()).Rank(input, 2)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"A", "C"}, codes(got))
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)

	// input untouched
	assert.Equal(t, []string{"A", "B", "C"}, codes(input))
	assert.Zero(t, input[0].Rank)
}

func TestRank_Length(t *testing.T) {
	input := []contracts.RankedCandidate{rc("A", 1, 0, 0), rc("B", 2, 0, 1), rc("C", 0, 0, 2)}
	ranker := NewRanker(RankTechnicalText, nil, logger.Nop())

	tests := []struct {
		k    int
		want int
	}{
		{0, 0},
		{1, 1},
		{3, 3},
		{10, 3},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Len(t, ranker.Rank(input, tt.k), tt.want, "k=%d", tt.k)
	}

	assert.Empty(t, ranker.Rank(nil, 3))
}

func TestRank_StableOnTies(t *testing.T) {
	input := []contracts.RankedCandidate{
		rc("A", 1, 3, 0), rc("B", 2, 1, 1), rc("C", 1, 3, 2), rc("D", 2, 1, 3), rc("E", 1, 3, 4),
	}

	got := NewRanker(RankTechnicalText, nil, logger.Nop()).Rank(input, 5)
	assert.Equal(t, []string{"B", "D", "A", "C", "E"}, codes(got))
}

func TestRank_TiesFollowSeqNotInputOrder(t *testing.T) {
	// S2 가 완료 순서대로 돌려주는 경우
	input := []contracts.RankedCandidate{
		rc("C", 2, 3, 2), rc("A", 2, 3, 0), rc("D", 1, 0, 3), rc("B", 2, 3, 1),
	}

	tests := []struct {
		mode RankMode
		want []string
	}{
		{RankTechnicalText, []string{"A", "B", "C", "D"}},
		{RankTechnical, []string{"A", "B", "C", "D"}},
		{RankText, []string{"A", "B", "C", "D"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := NewRanker(tt.mode, nil, logger.Nop()).Rank(input, 4)
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestRank_Modes(t *testing.T) {
	input := []contracts.RankedCandidate{
		rc("A", 1, 5, 0), rc("B", 3, 1, 1), rc("C", 3, 4, 2), rc("D", 0, 5, 3),
	}

	tests := []struct {
		mode RankMode
		want []string
	}{
		{RankTechnicalText, []string{"C", "B", "A", "D"}},
		{RankTechnical, []string{"B", "C", "A", "D"}},
		{RankText, []string{"A", "D", "C", "B"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := NewRanker(tt.mode, nil, logger.Nop()).Rank(input, 4)
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestRank_InsufficientHistoryRankedLast(t *testing.T) {
	short := rc("SHORT", 0, 0, 1)
	short.Technical.Insufficient = true
	input := []contracts.RankedCandidate{rc("A", 0, 0, 0), short, rc("B", 2, 0, 2)}

	t.Run("threshold off", func(t *testing.T) {
		got := NewRanker(RankTechnicalText, NewScreener(ScreenerConfig{MinTechnicalScore: 1}, logger.Nop()), logger.Nop()).
			Rank(input, 3)
		assert.Equal(t, []string{"B", "A", "SHORT"}, codes(got))
	})

	t.Run("threshold on", func(t *testing.T) {
		screener := NewScreener(ScreenerConfig{FilterBelowThreshold: true, MinTechnicalScore: 1}, logger.Nop())
		got := NewRanker(RankTechnicalText, screener, logger.Nop()).Rank(input, 3)
		assert.Equal(t, []string{"B"}, codes(got))
	})
}

func TestScreener_ExcludeInsufficient(t *testing.T) {
	short := rc("SHORT", 0, 0, 1)
	short.Technical.Insufficient = true

	got := NewScreener(ScreenerConfig{ExcludeInsufficient: true}, logger.Nop()).
		Screen([]contracts.RankedCandidate{rc("A", 0, 0, 0), short})
	assert.Equal(t, []string{"A"}, codes(got))
}

func TestParseRankMode(t *testing.T) {
	m, err := ParseRankMode("")
	require.NoError(t, err)
	assert.Equal(t, RankTechnicalText, m)

	m, err = ParseRankMode("text")
	require.NoError(t, err)
	assert.Equal(t, RankText, m)

	_, err = ParseRankMode("momentum")
	assert.Error(t, err)
}
