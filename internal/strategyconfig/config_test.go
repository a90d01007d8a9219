package strategyconfig

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wonny/stockpick/pkg/config"
)

func TestLoad(t *testing.T) {
	path := "../../config/strategy/stockpick_default.yaml"

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Meta.StrategyID != "stockpick_default" {
		t.Errorf("expected strategy_id=stockpick_default, got %s", cfg.Meta.StrategyID)
	}
	if cfg.Signals.Text.PerCallTimeout != 20*time.Second {
		t.Errorf("expected per_call_timeout=20s, got %s", cfg.Signals.Text.PerCallTimeout)
	}
	if cfg.Signals.Text.QuerySuffix != " 재료" {
		t.Errorf("expected query suffix with leading space, got %q", cfg.Signals.Text.QuerySuffix)
	}
	if len(cfg.Sources.Watchlist) != 2 {
		t.Errorf("expected 2 watchlist entries, got %d", len(cfg.Sources.Watchlist))
	}

	// 파일 = 기본값 → 동일 해시
	def := Default()
	h1, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	def.Sources.Watchlist = cfg.Sources.Watchlist
	def.Universe.CapBand = cfg.Universe.CapBand
	h2, _ := Hash(&def)
	if h1 != h2 {
		t.Error("default file should hash like Default() with the same watchlist and band")
	}

	t.Logf("config hash: %s", h1)
	t.Logf("yaml size: %d bytes", len(yamlData))
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, data, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if data != nil {
		t.Error("expected no raw bytes for defaults")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default() must validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load("does/not/exist.yaml")
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestParse_PartialOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("ranking:\n  k: 5\n  mode: text\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Ranking.K != 5 || cfg.Ranking.Mode != "text" {
		t.Errorf("override not applied: %+v", cfg.Ranking)
	}
	if cfg.Signals.Technical.RSIPeriod != 14 {
		t.Errorf("default lost: rsi_period=%d", cfg.Signals.Technical.RSIPeriod)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) failed: %v", err)
	}
	if cfg.Meta.StrategyID != "stockpick_default" {
		t.Errorf("expected defaults, got %s", cfg.Meta.StrategyID)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("ranking:\n  top_k: 5\n"))
	if err == nil {
		t.Fatal("expected unknown field error")
	}
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"bad timezone", func(c *Config) { c.Meta.Timezone = "Mars/Base" }, "meta.timezone"},
		{"no sources", func(c *Config) { c.Sources.Order = nil }, "sources.order"},
		{"unknown source", func(c *Config) { c.Sources.Order = []string{"twitter"} }, "sources.order[0]"},
		{"duplicate source", func(c *Config) { c.Sources.Order = []string{"theme", "theme"} }, "sources.order[1]"},
		{"bad category", func(c *Config) { c.Sources.Ranking.Categories = []string{"nope"} }, "sources.ranking.categories[0]"},
		{"zero candidates", func(c *Config) { c.Universe.MaxCandidates = 0 }, "universe.max_candidates"},
		{"inverted band", func(c *Config) {
			c.Universe.CapBand = CapBand{Enabled: true, MinKRW: 10, MaxKRW: 5}
		}, "universe.cap_band"},
		{"short lookback", func(c *Config) { c.Signals.LookbackDays = 10 }, "signals.lookback_days"},
		{"bad interval", func(c *Config) { c.Signals.Interval = "hour" }, "signals.interval"},
		{"rsi inverted", func(c *Config) { c.Signals.Technical.RSIOversold = 80 }, "signals.technical"},
		{"macd inverted", func(c *Config) { c.Signals.Technical.MACDFast = 30 }, "signals.technical"},
		{"zero snippet", func(c *Config) { c.Signals.Text.MaxSnippetLength = 0 }, "signals.text.max_snippet_length"},
		{"zero timeout", func(c *Config) { c.Signals.Text.PerCallTimeout = 0 }, "signals.text.per_call_timeout"},
		{"bad mode", func(c *Config) { c.Ranking.Mode = "momentum" }, "ranking.mode"},
		{"zero k", func(c *Config) { c.Ranking.K = 0 }, "ranking.k"},
		{"chart bars", func(c *Config) { c.Report.ChartBars = 1 }, "report.chart_bars"},
		{"concurrency", func(c *Config) { c.Execution.Concurrency = 0 }, "execution.concurrency"},
		{"run timeout short", func(c *Config) { c.Execution.RunTimeout = time.Second }, "execution.run_timeout"},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "every day" }, "schedule.cron"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := Validate(&cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %s, got %s (%s)", tc.field, verr.Field, verr.Message)
			}
			if !errors.Is(err, config.ErrConfiguration) {
				t.Error("ValidationError must match ErrConfiguration")
			}
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Ranking.K = 50
	cfg.Ranking.FilterBelowThreshold = true
	cfg.Ranking.MinTechnicalScore = 99

	warnings := Warn(&cfg)
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	joined := strings.Join(codes, ",")
	if !strings.Contains(joined, "K_EXCEEDS_CANDIDATES") || !strings.Contains(joined, "UNREACHABLE_THRESHOLD") {
		t.Errorf("unexpected warnings: %s", joined)
	}

	def := Default()
	if w := Warn(&def); len(w) != 0 {
		t.Errorf("expected no warnings for defaults, got %v", w)
	}
}

func TestComponentConfigs(t *testing.T) {
	cfg := Default()
	cfg.Universe.CapBand = CapBand{Enabled: true, MinKRW: 1, MaxKRW: 2}
	cfg.Execution.EarlyExit = true

	u := cfg.UniverseConfig()
	if !u.CapBandEnabled || u.MinMarketCap != 1 || u.MaxMarketCap != 2 {
		t.Errorf("universe config not mapped: %+v", u)
	}

	s := cfg.ScoreConfig()
	if !s.EarlyExit || s.K != cfg.Ranking.K || s.Concurrency != cfg.Execution.Concurrency {
		t.Errorf("score config not mapped: %+v", s)
	}

	if got := len(cfg.RankingCategories()); got != 3 {
		t.Errorf("expected 3 ranking categories, got %d", got)
	}
}
