package contracts

import "time"

// SectorOther is the sector/theme label used when nothing better is known
const SectorOther = "other"

// Candidate is a single instrument under consideration in one run
// ⭐ SSOT: 종목 식별은 Code (6자리)로만 함
type Candidate struct {
	Code      string `json:"code"`       // 종목코드 (e.g. "005930")
	Name      string `json:"name"`       // 종목명
	Sector    string `json:"sector"`     // 업종, 모르면 "other"
	MarketCap int64  `json:"market_cap"` // 시가총액 (원), 모르면 0
	Source    string `json:"source"`     // discovery surface that produced it
}

// Bar is one OHLCV bar, ascending by Date, no gap filling
type Bar struct {
	Date   time.Time `json:"date"`
	Open   int64     `json:"open"`
	High   int64     `json:"high"`
	Low    int64     `json:"low"`
	Close  int64     `json:"close"`
	Volume int64     `json:"volume"`
}

// Interval is the bar granularity requested from a TimeSeriesSource
type Interval string

const (
	IntervalDay  Interval = "day"
	IntervalWeek Interval = "week"
)

// TechnicalScore is the integer indicator score plus the values behind it
type TechnicalScore struct {
	Score        int      `json:"score"`
	Insufficient bool     `json:"insufficient"` // fewer bars than the minimum history
	Bars         int      `json:"bars"`
	RSI          float64  `json:"rsi,omitempty"`
	MACDHist     float64  `json:"macd_hist,omitempty"`
	VolumeSpike  bool     `json:"volume_spike"`
	AboveMA      bool     `json:"above_ma"`
	Conditions   []string `json:"conditions,omitempty"` // conditions that contributed weight
}

// NoInfoSummary is the summary used when a candidate has no text or summarization failed
const NoInfoSummary = "관련 정보 없음"

// TextSignal is the summary + attractiveness + theme derived from snippets
type TextSignal struct {
	Summary        string `json:"summary"`
	Attractiveness int    `json:"attractiveness"` // 1-5 when classified, 0 otherwise
	Theme          string `json:"theme"`
}

// DefaultTextSignal returns the empty-input / failure value
func DefaultTextSignal() TextSignal {
	return TextSignal{
		Summary:        NoInfoSummary,
		Attractiveness: 0,
		Theme:          SectorOther,
	}
}

// HasText reports whether any text information was found
func (t TextSignal) HasText() bool {
	return t.Summary != NoInfoSummary || t.Attractiveness > 0
}

// Classification is the structured result of a Classifier call
type Classification struct {
	Attractiveness int    `json:"attractiveness"`
	Theme          string `json:"theme"`
}

// Attributes are the optional per-candidate attributes resolved by an AttributeResolver
type Attributes struct {
	Sector    string `json:"sector"`
	MarketCap int64  `json:"market_cap"`
}

// RankKey is the composite ordering key
type RankKey struct {
	Technical      int
	Attractiveness int
	Seq            int // source order; lower wins ties
}

// RankedCandidate is a scored candidate, transient within one run
// ⭐ SSOT: 점수 → 랭커 → 리포트 전달
type RankedCandidate struct {
	Candidate
	Technical TechnicalScore `json:"technical"`
	Text      TextSignal     `json:"text"`
	Seq       int            `json:"seq"`
	Rank      int            `json:"rank,omitempty"` // 1-based, set by the ranker
	Scored    bool           `json:"scored"`         // false when the run deadline hit first
	Bars      []Bar          `json:"-"`
}

// Key returns the composite ordering key
func (r *RankedCandidate) Key() RankKey {
	return RankKey{
		Technical:      r.Technical.Score,
		Attractiveness: r.Text.Attractiveness,
		Seq:            r.Seq,
	}
}

// Unscored builds the zero-valued entry for a candidate the run never reached
func Unscored(c Candidate, seq int) RankedCandidate {
	return RankedCandidate{
		Candidate: c,
		Text:      DefaultTextSignal(),
		Seq:       seq,
	}
}
