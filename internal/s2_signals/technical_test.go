package s2_signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// seriesBars builds ascending daily bars with the given closes and a constant volume
func seriesBars(closes []int64, volume int64) []contracts.Bar {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

func linear(n int, start, step int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = start + int64(i)*step
	}
	return out
}

func flat(n int, v int64) []int64 {
	return linear(n, v, 0)
}

func newEngine(mutate func(*TechnicalConfig)) *TechnicalEngine {
	cfg := DefaultTechnicalConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewTechnicalEngine(cfg, logger.Nop())
}

func TestScore_InsufficientHistory(t *testing.T) {
	engine := newEngine(nil)

	tests := []struct {
		name string
		bars []contracts.Bar
	}{
		{"nil", nil},
		{"empty", []contracts.Bar{}},
		{"ten bars", seriesBars(linear(10, 50000, -500), 1000)},
		{"nineteen bars", seriesBars(linear(19, 50000, -500), 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Score(tt.bars)
			assert.Equal(t, 0, got.Score)
			assert.True(t, got.Insufficient)
			assert.Empty(t, got.Conditions)
		})
	}
}

func TestScore_Uptrend20(t *testing.T) {
	// RSI 100 → overbought(-1), MACD skipped (<35 bars), flat volume, close above MA20 (+1)
	got := newEngine(nil).Score(seriesBars(linear(20, 10000, 100), 1000))

	assert.False(t, got.Insufficient)
	assert.Equal(t, 100.0, got.RSI)
	assert.Zero(t, got.MACDHist)
	assert.False(t, got.VolumeSpike)
	assert.True(t, got.AboveMA)
	assert.Equal(t, []string{CondRSIOverbought, CondAboveMA}, got.Conditions)
	assert.Equal(t, 0, got.Score)
}

func TestScore_Downtrend(t *testing.T) {
	// RSI 0 → oversold(+2); close below MA20
	got := newEngine(func(c *TechnicalConfig) { c.Indicators.MACD = false }).
		Score(seriesBars(linear(30, 50000, -500), 1000))

	assert.Equal(t, 0.0, got.RSI)
	assert.False(t, got.AboveMA)
	assert.Equal(t, []string{CondRSIOversold}, got.Conditions)
	assert.Equal(t, DefaultWeightOversold, got.Score)
}

func TestScore_FlatIsNeutral(t *testing.T) {
	got := newEngine(nil).Score(seriesBars(flat(40, 10000), 1000))

	assert.Equal(t, 50.0, got.RSI)
	assert.Zero(t, got.MACDHist)
	assert.False(t, got.AboveMA)
	assert.Equal(t, 0, got.Score)
}

func TestScore_VolumeSpike(t *testing.T) {
	tests := []struct {
		name       string
		lastVolume int64
		want       bool
	}{
		// window includes the latest bar: avg = (4*1000 + last)/5
		{"clear spike", 10000, true},  // avg 2800, 10000 > 5600
		{"borderline", 2000, false},   // avg 1200, 2000 > 2400 false
		{"just above", 3000, true},    // avg 1400, 3000 > 2800
		{"equal to threshold", 1000, false},
	}

	engine := newEngine(func(c *TechnicalConfig) {
		c.Indicators = IndicatorToggles{Volume: true}
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := seriesBars(flat(25, 10000), 1000)
			bars[len(bars)-1].Volume = tt.lastVolume

			got := engine.Score(bars)
			assert.Equal(t, tt.want, got.VolumeSpike)
			if tt.want {
				assert.Equal(t, DefaultWeightVolumeSpike, got.Score)
			} else {
				assert.Equal(t, 0, got.Score)
			}
		})
	}
}

func TestScore_MACDSign(t *testing.T) {
	engine := newEngine(func(c *TechnicalConfig) {
		c.Indicators = IndicatorToggles{MACD: true}
	})

	up := flat(40, 10000)
	up[len(up)-1] = 12000
	got := engine.Score(seriesBars(up, 1000))
	assert.Greater(t, got.MACDHist, 0.0)
	assert.Equal(t, DefaultWeightMACD, got.Score)

	down := flat(40, 10000)
	down[len(down)-1] = 8000
	got = engine.Score(seriesBars(down, 1000))
	assert.Less(t, got.MACDHist, 0.0)
	assert.Equal(t, 0, got.Score)
}

func TestScore_MACDSkippedBelowWindow(t *testing.T) {
	closes := flat(34, 10000)
	closes[33] = 12000

	got := newEngine(func(c *TechnicalConfig) {
		c.Indicators = IndicatorToggles{MACD: true}
	}).Score(seriesBars(closes, 1000))

	assert.False(t, got.Insufficient)
	assert.Zero(t, got.MACDHist)
	assert.Equal(t, 0, got.Score)
}

func TestScore_Idempotent(t *testing.T) {
	engine := newEngine(nil)
	closes := []int64{
		100, 102, 101, 99, 97, 98, 96, 94, 95, 93,
		92, 90, 91, 89, 88, 87, 89, 86, 85, 84,
		83, 85, 82, 81, 80, 79, 81, 78, 77, 76,
		75, 77, 74, 73, 72, 74, 71, 70, 72, 69,
	}
	bars := seriesBars(closes, 1000)
	bars[len(bars)-1].Volume = 5000

	first := engine.Score(bars)
	second := engine.Score(bars)
	assert.Equal(t, first, second)
}

func TestScore_WithinBounds(t *testing.T) {
	engine := newEngine(nil)
	lo, hi := engine.Config().Bounds()
	assert.Equal(t, -1, lo)
	assert.Equal(t, 6, hi)

	for _, closes := range [][]int64{
		linear(60, 10000, 50),
		linear(60, 50000, -300),
		flat(60, 777),
	} {
		got := engine.Score(seriesBars(closes, 1000))
		assert.GreaterOrEqual(t, got.Score, lo)
		assert.LessOrEqual(t, got.Score, hi)
	}
}

func TestBounds_Toggles(t *testing.T) {
	cfg := DefaultTechnicalConfig()
	cfg.Indicators = IndicatorToggles{RSI: true}
	lo, hi := cfg.Bounds()
	assert.Equal(t, -1, lo)
	assert.Equal(t, 2, hi)

	cfg.Indicators = IndicatorToggles{}
	lo, hi = cfg.Bounds()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestCalculateRSI_Guards(t *testing.T) {
	_, ok := calculateRSI([]float64{1, 2, 3}, 14)
	assert.False(t, ok)

	_, ok = calculateRSI(make([]float64, 20), 0)
	assert.False(t, ok)

	rsi, ok := calculateRSI(linear64(15, 1, 1), 14)
	require.True(t, ok)
	assert.Equal(t, 100.0, rsi)
}

func TestTrailingSMA(t *testing.T) {
	avg, ok := trailingSMA([]float64{1, 2, 3, 4, 5, 6}, 5)
	require.True(t, ok)
	assert.Equal(t, 4.0, avg)

	_, ok = trailingSMA([]float64{1, 2}, 5)
	assert.False(t, ok)
}

func linear64(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
