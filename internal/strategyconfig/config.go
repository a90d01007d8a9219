package strategyconfig

import (
	"time"

	"github.com/wonny/stockpick/internal/s1_universe"
	"github.com/wonny/stockpick/internal/s2_signals"
)

// Config는 후보 선정 파이프라인 변형(variant)의 전체 설정
// ⭐ SSOT: 파이프라인 옵션은 이 구조체로만 전달
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Sources   Sources   `yaml:"sources" json:"sources"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Report    Report    `yaml:"report" json:"report"`
	Execution Execution `yaml:"execution" json:"execution"`
	Schedule  Schedule  `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Sources S1: 후보 발굴 소스 (order 순서대로 조회)
type Sources struct {
	Order     []string                     `yaml:"order" json:"order"`
	Theme     ThemeSource                  `yaml:"theme" json:"theme"`
	Ranking   RankingSource                `yaml:"ranking" json:"ranking"`
	Watchlist []s1_universe.WatchlistEntry `yaml:"watchlist" json:"watchlist"`
	Database  DatabaseSource               `yaml:"database" json:"database"`
}

type ThemeSource struct {
	KeywordLimit  int `yaml:"keyword_limit" json:"keyword_limit"`
	NamesPerTheme int `yaml:"names_per_theme" json:"names_per_theme"`
}

type RankingSource struct {
	Categories []string `yaml:"categories" json:"categories"`
	Market     string   `yaml:"market" json:"market"` // KOSPI, KOSDAQ
	PageSize   int      `yaml:"page_size" json:"page_size"`
}

type DatabaseSource struct {
	Limit int `yaml:"limit" json:"limit"`
}

// Universe S1: 후보 필터
type Universe struct {
	MaxCandidates int     `yaml:"max_candidates" json:"max_candidates"`
	CapBand       CapBand `yaml:"cap_band" json:"cap_band"`
	ExcludeSPAC   bool    `yaml:"exclude_spac" json:"exclude_spac"`
	ExcludeAdmin  bool    `yaml:"exclude_admin" json:"exclude_admin"`
}

// CapBand 시가총액 밴드 (원, 양끝 포함)
type CapBand struct {
	Enabled bool  `yaml:"enabled" json:"enabled"`
	MinKRW  int64 `yaml:"min_krw" json:"min_krw"`
	MaxKRW  int64 `yaml:"max_krw" json:"max_krw"` // 0 = 상한 없음
}

// Signals S2: 기술적 + 텍스트 점수
type Signals struct {
	LookbackDays int                        `yaml:"lookback_days" json:"lookback_days"`
	Interval     string                     `yaml:"interval" json:"interval"` // day, week
	Technical    s2_signals.TechnicalConfig `yaml:"technical" json:"technical"`
	Text         Text                       `yaml:"text" json:"text"`
}

type Text struct {
	MaxSnippetLength int           `yaml:"max_snippet_length" json:"max_snippet_length"` // runes
	PerCallTimeout   time.Duration `yaml:"per_call_timeout" json:"per_call_timeout"`
	QuerySuffix      string        `yaml:"query_suffix" json:"query_suffix"`
	MaxTitles        int           `yaml:"max_titles" json:"max_titles"`
}

// Ranking S3: 정렬/선택
type Ranking struct {
	Mode                 string `yaml:"mode" json:"mode"` // technical_text, technical, text
	K                    int    `yaml:"k" json:"k"`
	MinTechnicalScore    int    `yaml:"min_technical_score" json:"min_technical_score"`
	FilterBelowThreshold bool   `yaml:"filter_below_threshold" json:"filter_below_threshold"`
	ExcludeInsufficient  bool   `yaml:"exclude_insufficient" json:"exclude_insufficient"`
}

// Report S4: 리포트/차트
type Report struct {
	ChartBars   int `yaml:"chart_bars" json:"chart_bars"`
	ChartWidth  int `yaml:"chart_width" json:"chart_width"`
	ChartHeight int `yaml:"chart_height" json:"chart_height"`
}

// Execution 실행 자원
type Execution struct {
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	RunTimeout  time.Duration `yaml:"run_timeout" json:"run_timeout"`
	EarlyExit   bool          `yaml:"early_exit" json:"early_exit"`
}

// Schedule 반복 실행 (cron 표현식, 5필드)
type Schedule struct {
	Cron string `yaml:"cron" json:"cron"`
}

// Default returns the built-in pipeline variant
func Default() Config {
	return Config{
		Meta: Meta{
			StrategyID: "stockpick_default",
			Version:    "1.0.0",
			Timezone:   "Asia/Seoul",
		},
		Sources: Sources{
			Order: []string{s1_universe.SurfaceTheme, s1_universe.SurfaceRanking, s1_universe.SurfaceWatchlist},
			Theme: ThemeSource{
				KeywordLimit:  s1_universe.DefaultKeywordLimit,
				NamesPerTheme: s1_universe.DefaultNamesPerTheme,
			},
			Ranking: RankingSource{
				Categories: []string{"quantHigh", "tradingValue", "upper"},
				Market:     "KOSPI",
				PageSize:   s1_universe.DefaultRankingPerPage,
			},
			Database: DatabaseSource{Limit: s1_universe.DefaultMaxCandidates},
		},
		Universe: Universe{
			MaxCandidates: s1_universe.DefaultMaxCandidates,
			ExcludeSPAC:   true,
			ExcludeAdmin:  true,
		},
		Signals: Signals{
			LookbackDays: s2_signals.DefaultLookbackDays,
			Interval:     "day",
			Technical:    s2_signals.DefaultTechnicalConfig(),
			Text: Text{
				MaxSnippetLength: s2_signals.DefaultMaxSnippetLength,
				PerCallTimeout:   s2_signals.DefaultPerCallTimeout,
				QuerySuffix:      s2_signals.DefaultQuerySuffix,
				MaxTitles:        3,
			},
		},
		Ranking: Ranking{
			Mode:              "technical_text",
			K:                 3,
			MinTechnicalScore: 1,
		},
		Report: Report{
			ChartBars:   20,
			ChartWidth:  800,
			ChartHeight: 480,
		},
		Execution: Execution{
			Concurrency: s2_signals.DefaultConcurrency,
			RunTimeout:  5 * time.Minute,
		},
		Schedule: Schedule{
			Cron: "30 8 * * 1-5", // 평일 08:30 (장 시작 전)
		},
	}
}
