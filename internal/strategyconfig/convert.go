package strategyconfig

import (
	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/external/naver"
	"github.com/wonny/stockpick/internal/report"
	"github.com/wonny/stockpick/internal/s1_universe"
	"github.com/wonny/stockpick/internal/s2_signals"
	"github.com/wonny/stockpick/internal/selection"
)

// Component configs derived from a validated Config

func (c *Config) UniverseConfig() s1_universe.Config {
	return s1_universe.Config{
		MaxCandidates:  c.Universe.MaxCandidates,
		CapBandEnabled: c.Universe.CapBand.Enabled,
		MinMarketCap:   c.Universe.CapBand.MinKRW,
		MaxMarketCap:   c.Universe.CapBand.MaxKRW,
		ExcludeSPAC:    c.Universe.ExcludeSPAC,
		ExcludeAdmin:   c.Universe.ExcludeAdmin,
	}
}

func (c *Config) ScoreConfig() s2_signals.ScoreConfig {
	return s2_signals.ScoreConfig{
		LookbackDays:      c.Signals.LookbackDays,
		Interval:          contracts.Interval(c.Signals.Interval),
		QuerySuffix:       c.Signals.Text.QuerySuffix,
		Concurrency:       c.Execution.Concurrency,
		EarlyExit:         c.Execution.EarlyExit,
		K:                 c.Ranking.K,
		MinTechnicalScore: c.Ranking.MinTechnicalScore,
	}
}

func (c *Config) TextConfig() s2_signals.TextConfig {
	return s2_signals.TextConfig{
		MaxSnippetLength: c.Signals.Text.MaxSnippetLength,
		PerCallTimeout:   c.Signals.Text.PerCallTimeout,
	}
}

func (c *Config) ScreenerConfig() selection.ScreenerConfig {
	return selection.ScreenerConfig{
		FilterBelowThreshold: c.Ranking.FilterBelowThreshold,
		MinTechnicalScore:    c.Ranking.MinTechnicalScore,
		ExcludeInsufficient:  c.Ranking.ExcludeInsufficient,
	}
}

// RankMode returns the parsed mode; Validate has already rejected unknown values
func (c *Config) RankMode() selection.RankMode {
	mode, err := selection.ParseRankMode(c.Ranking.Mode)
	if err != nil {
		return selection.RankTechnicalText
	}
	return mode
}

func (c *Config) ReportConfig() report.Config {
	return report.Config{ChartBars: c.Report.ChartBars}
}

// RankingCategories returns the parsed categories, skipping invalid ones
func (c *Config) RankingCategories() []naver.RankingCategory {
	out := make([]naver.RankingCategory, 0, len(c.Sources.Ranking.Categories))
	for _, s := range c.Sources.Ranking.Categories {
		if cat, err := naver.ParseRankingCategory(s); err == nil {
			out = append(out, cat)
		}
	}
	return out
}
