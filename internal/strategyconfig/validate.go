package strategyconfig

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/stockpick/internal/external/naver"
	"github.com/wonny/stockpick/internal/s1_universe"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/pkg/config"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, config.ErrConfiguration) match
func (e ValidationError) Unwrap() error {
	return config.ErrConfiguration
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

const maxConcurrency = 64

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}

	// === Sources ===
	if len(cfg.Sources.Order) == 0 {
		return ValidationError{"sources.order", "must not be empty"}
	}
	seen := make(map[string]bool)
	for i, name := range cfg.Sources.Order {
		switch name {
		case s1_universe.SurfaceTheme, s1_universe.SurfaceRanking, s1_universe.SurfaceWatchlist, s1_universe.SurfaceDatabase:
		default:
			return ValidationError{fmt.Sprintf("sources.order[%d]", i), fmt.Sprintf("unknown source %q", name)}
		}
		if seen[name] {
			return ValidationError{fmt.Sprintf("sources.order[%d]", i), fmt.Sprintf("duplicate source %q", name)}
		}
		seen[name] = true
	}
	for i, c := range cfg.Sources.Ranking.Categories {
		if _, err := naver.ParseRankingCategory(c); err != nil {
			return ValidationError{fmt.Sprintf("sources.ranking.categories[%d]", i), err.Error()}
		}
	}
	if seen[s1_universe.SurfaceRanking] && len(cfg.Sources.Ranking.Categories) == 0 {
		return ValidationError{"sources.ranking.categories", "required when the ranking source is enabled"}
	}

	// === Universe ===
	if cfg.Universe.MaxCandidates < 1 {
		return ValidationError{"universe.max_candidates", "must be >= 1"}
	}
	band := cfg.Universe.CapBand
	if band.MinKRW < 0 || band.MaxKRW < 0 {
		return ValidationError{"universe.cap_band", "bounds must be >= 0"}
	}
	if band.MaxKRW > 0 && band.MinKRW > band.MaxKRW {
		return ValidationError{"universe.cap_band", "min_krw must be <= max_krw"}
	}

	// === Signals ===
	tech := cfg.Signals.Technical
	if tech.MinHistory < 1 {
		return ValidationError{"signals.technical.min_history", "must be >= 1"}
	}
	if cfg.Signals.LookbackDays < tech.MinHistory {
		return ValidationError{"signals.lookback_days", fmt.Sprintf("must be >= min_history (%d)", tech.MinHistory)}
	}
	if cfg.Signals.Interval != "day" && cfg.Signals.Interval != "week" {
		return ValidationError{"signals.interval", "must be day or week"}
	}
	if tech.RSIPeriod < 1 || tech.VolumeWindow < 1 || tech.MAWindow < 1 {
		return ValidationError{"signals.technical", "windows must be >= 1"}
	}
	if tech.RSIOversold < 0 || tech.RSIOverbought > 100 || tech.RSIOversold >= tech.RSIOverbought {
		return ValidationError{"signals.technical", "require 0 <= rsi_oversold < rsi_overbought <= 100"}
	}
	if tech.MACDFast < 1 || tech.MACDFast >= tech.MACDSlow || tech.MACDSignal < 1 {
		return ValidationError{"signals.technical", "require 1 <= macd_fast < macd_slow and macd_signal >= 1"}
	}
	if tech.VolumeMultiplier <= 0 {
		return ValidationError{"signals.technical.volume_multiplier", "must be > 0"}
	}
	if cfg.Signals.Text.MaxSnippetLength < 1 {
		return ValidationError{"signals.text.max_snippet_length", "must be >= 1"}
	}
	if cfg.Signals.Text.PerCallTimeout <= 0 {
		return ValidationError{"signals.text.per_call_timeout", "must be > 0"}
	}
	if cfg.Signals.Text.MaxTitles < 1 {
		return ValidationError{"signals.text.max_titles", "must be >= 1"}
	}

	// === Ranking ===
	if _, err := selection.ParseRankMode(cfg.Ranking.Mode); err != nil {
		return ValidationError{"ranking.mode", err.Error()}
	}
	if cfg.Ranking.K < 1 {
		return ValidationError{"ranking.k", "must be >= 1"}
	}

	// === Report ===
	if cfg.Report.ChartBars < 2 {
		return ValidationError{"report.chart_bars", "must be >= 2"}
	}

	// === Execution ===
	if cfg.Execution.Concurrency < 1 || cfg.Execution.Concurrency > maxConcurrency {
		return ValidationError{"execution.concurrency", fmt.Sprintf("must be in [1, %d]", maxConcurrency)}
	}
	if cfg.Execution.RunTimeout <= 0 {
		return ValidationError{"execution.run_timeout", "must be > 0"}
	}
	if cfg.Execution.RunTimeout < cfg.Signals.Text.PerCallTimeout {
		return ValidationError{"execution.run_timeout", "must be >= signals.text.per_call_timeout"}
	}

	// === Schedule ===
	if cfg.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return ValidationError{"schedule.cron", err.Error()}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// k > max_candidates: shortlist 가 항상 모자람
	if cfg.Ranking.K > cfg.Universe.MaxCandidates {
		warnings = append(warnings, Warning{
			Code:    "K_EXCEEDS_CANDIDATES",
			Message: "ranking.k > universe.max_candidates: 숏리스트가 k개보다 짧아짐",
		})
	}

	// 임계값이 달성 불가
	_, hi := cfg.Signals.Technical.Bounds()
	if cfg.Ranking.FilterBelowThreshold && cfg.Ranking.MinTechnicalScore > hi {
		warnings = append(warnings, Warning{
			Code:    "UNREACHABLE_THRESHOLD",
			Message: fmt.Sprintf("min_technical_score %d > 최대 점수 %d: 모든 후보 제외", cfg.Ranking.MinTechnicalScore, hi),
		})
	}

	// early exit 는 임계값 없이는 의미가 약함
	if cfg.Execution.EarlyExit && cfg.Ranking.MinTechnicalScore <= 0 {
		warnings = append(warnings, Warning{
			Code:    "WEAK_EARLY_EXIT",
			Message: "early_exit 와 min_technical_score <= 0: 첫 배치에서 바로 종료될 수 있음",
		})
	}

	// 캡 밴드 + 속성 조회 실패 시 전부 제외될 수 있음
	if cfg.Universe.CapBand.Enabled && cfg.Universe.CapBand.MinKRW == 0 && cfg.Universe.CapBand.MaxKRW == 0 {
		warnings = append(warnings, Warning{
			Code:    "EMPTY_CAP_BAND",
			Message: "cap_band 활성화, 범위 미지정: 시총 미확인 종목만 제외됨",
		})
	}

	return warnings
}
