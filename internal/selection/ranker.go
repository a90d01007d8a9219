package selection

import (
	"fmt"
	"sort"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// RankMode selects the ordering key
type RankMode string

const (
	RankTechnicalText RankMode = "technical_text" // technical desc → attractiveness desc
	RankTechnical     RankMode = "technical"      // technical desc
	RankText          RankMode = "text"           // attractiveness desc
)

// ParseRankMode validates a configured mode
func ParseRankMode(s string) (RankMode, error) {
	switch m := RankMode(s); m {
	case RankTechnicalText, RankTechnical, RankText:
		return m, nil
	case "":
		return RankTechnicalText, nil
	default:
		return "", fmt.Errorf("unknown rank mode %q", s)
	}
}

// Ranker implements S3: ordering and top-k selection
// ⭐ SSOT: S3 랭킹 로직은 여기서만
type Ranker struct {
	mode     RankMode
	screener *Screener
	logger   *logger.Logger
}

// NewRanker creates a new ranker. screener may be nil (no cuts).
func NewRanker(mode RankMode, screener *Screener, logger *logger.Logger) *Ranker {
	if mode == "" {
		mode = RankTechnicalText
	}
	return &Ranker{
		mode:     mode,
		screener: screener,
		logger:   logger,
	}
}

// Rank returns min(k, eligible) candidates with 1-based ranks.
// Ties on the mode's keys are broken by Seq. The input slice is not modified.
func (r *Ranker) Rank(candidates []contracts.RankedCandidate, k int) []contracts.RankedCandidate {
	eligible := candidates
	if r.screener != nil {
		eligible = r.screener.Screen(candidates)
	}

	ranked := make([]contracts.RankedCandidate, len(eligible))
	copy(ranked, eligible)

	// Sort by mode keys (descending), then source order
	sort.SliceStable(ranked, func(i, j int) bool {
		return r.less(ranked[i].Key(), ranked[j].Key())
	})

	if k < 0 {
		k = 0
	}
	if k < len(ranked) {
		ranked = ranked[:k]
	}

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	fields := map[string]interface{}{
		"mode":     string(r.mode),
		"input":    len(candidates),
		"eligible": len(eligible),
		"k":        k,
		"selected": len(ranked),
	}
	if len(ranked) > 0 {
		fields["top_code"] = ranked[0].Code
		fields["top_score"] = ranked[0].Technical.Score
	}
	r.logger.WithFields(fields).Info("Ranking completed")

	return ranked
}

// less reports whether a ranks strictly ahead of b.
// Equal mode keys fall back to Seq (source order, lower first).
func (r *Ranker) less(a, b contracts.RankKey) bool {
	switch r.mode {
	case RankTechnical:
		if a.Technical != b.Technical {
			return a.Technical > b.Technical
		}
	case RankText:
		if a.Attractiveness != b.Attractiveness {
			return a.Attractiveness > b.Attractiveness
		}
	default:
		if a.Technical != b.Technical {
			return a.Technical > b.Technical
		}
		// Tie-breaker: attractiveness
		if a.Attractiveness != b.Attractiveness {
			return a.Attractiveness > b.Attractiveness
		}
	}
	return a.Seq < b.Seq
}
