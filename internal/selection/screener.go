package selection

import (
	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Exclusion reasons reported by the screener
const (
	ReasonBelowThreshold = "below_threshold"
	ReasonInsufficient   = "insufficient_history"
)

// Screener applies the optional hard cuts before ranking
// ⭐ SSOT: 랭킹 전 필터는 여기서만
type Screener struct {
	config ScreenerConfig
	logger *logger.Logger
}

// ScreenerConfig defines hard cut conditions
type ScreenerConfig struct {
	// Technical filter
	FilterBelowThreshold bool // 켜져 있을 때만 MinTechnicalScore 적용
	MinTechnicalScore    int

	// 히스토리 부족 종목 제외 (기본: 꺼짐, 0점으로 랭킹에 남김)
	ExcludeInsufficient bool
}

// NewScreener creates a new screener
func NewScreener(config ScreenerConfig, logger *logger.Logger) *Screener {
	return &Screener{
		config: config,
		logger: logger,
	}
}

// Screen keeps the candidates passing every enabled cut, preserving input order
func (s *Screener) Screen(candidates []contracts.RankedCandidate) []contracts.RankedCandidate {
	passed := make([]contracts.RankedCandidate, 0, len(candidates))
	filtered := make(map[string]int) // Filter name -> count

	for _, c := range candidates {
		if reason := s.checkConditions(c); reason != "" {
			filtered[reason]++
			continue
		}
		passed = append(passed, c)
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(candidates),
		"passed":       len(passed),
		"filtered_out": len(candidates) - len(passed),
		"filters":      filtered,
	}).Debug("Screening completed")

	return passed
}

// checkConditions returns the first failing cut, or "" when the candidate passes
func (s *Screener) checkConditions(c contracts.RankedCandidate) string {
	if s.config.ExcludeInsufficient && c.Technical.Insufficient {
		return ReasonInsufficient
	}
	if s.config.FilterBelowThreshold && c.Technical.Score < s.config.MinTechnicalScore {
		return ReasonBelowThreshold
	}
	return ""
}
