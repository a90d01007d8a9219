package chart

import (
	"bytes"
	"fmt"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/wonny/stockpick/internal/contracts"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 480

	// 5일 이동평균 오버레이
	overlayPeriod = 5
)

// Renderer draws a close-price line chart as PNG
// ⭐ SSOT: 차트 이미지 생성은 여기서만
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer; non-positive sizes fall back to defaults
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height}
}

// Render returns PNG bytes, or ErrRenderFailure for empty/malformed series
func (r *Renderer) Render(bars []contracts.Bar, title string) (png []byte, err error) {
	xs, ys, err := closeSeries(bars)
	if err != nil {
		return nil, err
	}

	series := []gochart.Series{
		gochart.TimeSeries{
			Name:    "Close",
			XValues: xs,
			YValues: ys,
		},
	}
	if len(ys) >= overlayPeriod {
		series = append(series, gochart.SMASeries{
			Name:        fmt.Sprintf("SMA%d", overlayPeriod),
			InnerSeries: series[0].(gochart.TimeSeries),
			Period:      overlayPeriod,
			Style: gochart.Style{
				StrokeDashArray: []float64{5.0, 5.0},
			},
		})
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		Series: series,
	}

	defer func() {
		if p := recover(); p != nil {
			png, err = nil, fmt.Errorf("chart panic: %v: %w", p, contracts.ErrRenderFailure)
		}
	}()

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %v: %w", title, err, contracts.ErrRenderFailure)
	}
	return buf.Bytes(), nil
}

// closeSeries validates bars and splits them into x/y slices
func closeSeries(bars []contracts.Bar) ([]time.Time, []float64, error) {
	if len(bars) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 bars, got %d: %w", len(bars), contracts.ErrRenderFailure)
	}

	xs := make([]time.Time, len(bars))
	ys := make([]float64, len(bars))
	for i, b := range bars {
		if b.Close <= 0 {
			return nil, nil, fmt.Errorf("non-positive close at %s: %w", b.Date.Format("2006-01-02"), contracts.ErrRenderFailure)
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return nil, nil, fmt.Errorf("bars not ascending at %s: %w", b.Date.Format("2006-01-02"), contracts.ErrRenderFailure)
		}
		xs[i] = b.Date
		ys[i] = float64(b.Close)
	}
	return xs, ys, nil
}
