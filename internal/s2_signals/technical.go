package s2_signals

import (
	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Indicator defaults. Overridable through TechnicalConfig.
const (
	DefaultMinHistory = 20

	DefaultRSIPeriod     = 14
	DefaultRSIOversold   = 30.0
	DefaultRSIOverbought = 70.0

	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9

	DefaultVolumeWindow     = 5
	DefaultVolumeMultiplier = 2.0

	DefaultMAWindow = 20
)

// Score weights. 과매도 보상과 과매수 패널티는 비대칭
const (
	DefaultWeightOversold    = 2
	DefaultWeightOverbought  = -1
	DefaultWeightMACD        = 2
	DefaultWeightVolumeSpike = 1
	DefaultWeightAboveMA     = 1
)

// Condition names reported in TechnicalScore.Conditions
const (
	CondRSIOversold   = "rsi_oversold"
	CondRSIOverbought = "rsi_overbought"
	CondMACDPositive  = "macd_positive"
	CondVolumeSpike   = "volume_spike"
	CondAboveMA       = "above_ma"
)

// TechnicalWeights holds the integer weight per boolean condition
type TechnicalWeights struct {
	Oversold    int `yaml:"oversold" json:"oversold"`
	Overbought  int `yaml:"overbought" json:"overbought"`
	MACD        int `yaml:"macd" json:"macd"`
	VolumeSpike int `yaml:"volume_spike" json:"volume_spike"`
	AboveMA     int `yaml:"above_ma" json:"above_ma"`
}

// IndicatorToggles turns individual indicators on/off per pipeline variant
type IndicatorToggles struct {
	RSI    bool `yaml:"rsi" json:"rsi"`
	MACD   bool `yaml:"macd" json:"macd"`
	Volume bool `yaml:"volume" json:"volume"`
	MA     bool `yaml:"ma" json:"ma"`
}

// TechnicalConfig holds windows, thresholds and weights
type TechnicalConfig struct {
	MinHistory int `yaml:"min_history" json:"min_history"`

	RSIPeriod     int     `yaml:"rsi_period" json:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsi_overbought"`

	MACDFast   int `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal int `yaml:"macd_signal" json:"macd_signal"`

	VolumeWindow     int     `yaml:"volume_window" json:"volume_window"`
	VolumeMultiplier float64 `yaml:"volume_multiplier" json:"volume_multiplier"`

	MAWindow int `yaml:"ma_window" json:"ma_window"`

	Weights    TechnicalWeights `yaml:"weights" json:"weights"`
	Indicators IndicatorToggles `yaml:"indicators" json:"indicators"`
}

// DefaultTechnicalConfig returns the default indicator set (all enabled)
func DefaultTechnicalConfig() TechnicalConfig {
	return TechnicalConfig{
		MinHistory:       DefaultMinHistory,
		RSIPeriod:        DefaultRSIPeriod,
		RSIOversold:      DefaultRSIOversold,
		RSIOverbought:    DefaultRSIOverbought,
		MACDFast:         DefaultMACDFast,
		MACDSlow:         DefaultMACDSlow,
		MACDSignal:       DefaultMACDSignal,
		VolumeWindow:     DefaultVolumeWindow,
		VolumeMultiplier: DefaultVolumeMultiplier,
		MAWindow:         DefaultMAWindow,
		Weights: TechnicalWeights{
			Oversold:    DefaultWeightOversold,
			Overbought:  DefaultWeightOverbought,
			MACD:        DefaultWeightMACD,
			VolumeSpike: DefaultWeightVolumeSpike,
			AboveMA:     DefaultWeightAboveMA,
		},
		Indicators: IndicatorToggles{RSI: true, MACD: true, Volume: true, MA: true},
	}
}

// Bounds returns the score range implied by the enabled weights.
// Oversold and overbought are mutually exclusive, so only one of them counts per side.
func (c TechnicalConfig) Bounds() (lo, hi int) {
	add := func(w int) {
		if w > 0 {
			hi += w
		} else {
			lo += w
		}
	}
	if c.Indicators.RSI {
		a, b := c.Weights.Oversold, c.Weights.Overbought
		if a > b {
			a, b = b, a
		}
		if b > 0 {
			hi += b
		}
		if a < 0 {
			lo += a
		}
	}
	if c.Indicators.MACD {
		add(c.Weights.MACD)
	}
	if c.Indicators.Volume {
		add(c.Weights.VolumeSpike)
	}
	if c.Indicators.MA {
		add(c.Weights.AboveMA)
	}
	return lo, hi
}

// TechnicalEngine turns a bar series into an integer score
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type TechnicalEngine struct {
	cfg    TechnicalConfig
	logger *logger.Logger
}

// NewTechnicalEngine creates a new engine
func NewTechnicalEngine(cfg TechnicalConfig, log *logger.Logger) *TechnicalEngine {
	return &TechnicalEngine{
		cfg:    cfg,
		logger: log,
	}
}

// Config returns the engine configuration
func (e *TechnicalEngine) Config() TechnicalConfig {
	return e.cfg
}

// Score is a pure function of bars. Fewer than MinHistory bars → 0 with Insufficient set.
// Each indicator with fewer bars than its own window is skipped.
func (e *TechnicalEngine) Score(bars []contracts.Bar) contracts.TechnicalScore {
	result := contracts.TechnicalScore{Bars: len(bars)}

	if len(bars) < e.cfg.MinHistory || len(bars) == 0 {
		result.Insufficient = true
		return result
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = float64(b.Close)
		volumes[i] = float64(b.Volume)
	}

	hit := func(cond string, weight int) {
		result.Score += weight
		result.Conditions = append(result.Conditions, cond)
	}

	if e.cfg.Indicators.RSI {
		if rsi, ok := calculateRSI(closes, e.cfg.RSIPeriod); ok {
			result.RSI = rsi
			switch {
			case rsi < e.cfg.RSIOversold:
				hit(CondRSIOversold, e.cfg.Weights.Oversold)
			case rsi > e.cfg.RSIOverbought:
				hit(CondRSIOverbought, e.cfg.Weights.Overbought)
			}
		}
	}

	if e.cfg.Indicators.MACD {
		if hist, ok := calculateMACDHist(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal); ok {
			result.MACDHist = hist
			if hist > 0 {
				hit(CondMACDPositive, e.cfg.Weights.MACD)
			}
		}
	}

	if e.cfg.Indicators.Volume {
		if avg, ok := trailingSMA(volumes, e.cfg.VolumeWindow); ok {
			if volumes[len(volumes)-1] > avg*e.cfg.VolumeMultiplier {
				result.VolumeSpike = true
				hit(CondVolumeSpike, e.cfg.Weights.VolumeSpike)
			}
		}
	}

	if e.cfg.Indicators.MA {
		if ma, ok := trailingSMA(closes, e.cfg.MAWindow); ok {
			if closes[len(closes)-1] > ma {
				result.AboveMA = true
				hit(CondAboveMA, e.cfg.Weights.AboveMA)
			}
		}
	}

	return result
}

// trailingSMA is the mean of the last window values, the latest included
func trailingSMA(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window), true
}

// calculateRSI computes Wilder-smoothed RSI on the last value.
// Needs period+1 values.
func calculateRSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) <= period {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, true // 변동 없음
		}
		return 100, true
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}

// emaSeries returns the EMA of values seeded with the SMA of the first period values.
// out[i] is valid for i >= period-1.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)

	k := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// calculateMACDHist returns MACD line minus signal line on the last bar.
// Needs slow+signal values.
func calculateMACDHist(closes []float64, fast, slow, signal int) (float64, bool) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return 0, false
	}

	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)

	// MACD line is defined from index slow-1
	macd := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		macd = append(macd, emaFast[i]-emaSlow[i])
	}

	sig := emaSeries(macd, signal)
	last := len(macd) - 1
	return macd[last] - sig[last], true
}
