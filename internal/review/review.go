package review

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Reasons a code has no step return
const (
	ReasonFetchFailed   = "fetch_failed"
	ReasonNoDecisionBar = "no_bar_on_or_before_date"
	ReasonNoNextBar     = "no_bar_after_date"
)

// lookbackMargin covers holidays between the decision date and today
const lookbackMargin = 10

// Checker measures the next-bar return after a decision date
// ⭐ SSOT: 사후 수익률 점검은 여기서만
type Checker struct {
	bars        contracts.TimeSeriesSource
	concurrency int
	now         func() time.Time
	logger      *logger.Logger
}

// NewChecker creates a new review checker
func NewChecker(bars contracts.TimeSeriesSource, concurrency int, log *logger.Logger) *Checker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Checker{
		bars:        bars,
		concurrency: concurrency,
		now:         time.Now,
		logger:      log,
	}
}

// StepReturn is the close-to-close return of one code over one bar
type StepReturn struct {
	Code          string    `json:"code"`
	DecisionDate  time.Time `json:"decision_date"`
	DecisionClose int64     `json:"decision_close"`
	NextDate      time.Time `json:"next_date"`
	NextClose     int64     `json:"next_close"`
	Return        float64   `json:"return"` // (next - decision) / decision
	OK            bool      `json:"ok"`
	Reason        string    `json:"reason,omitempty"`
}

// Result holds the review of one decision date
type Result struct {
	Date       time.Time    `json:"date"`
	Returns    []StepReturn `json:"returns"` // input order
	Evaluated  int          `json:"evaluated"`
	Winners    int          `json:"winners"`
	HitRate    float64      `json:"hit_rate"`
	MeanReturn float64      `json:"mean_return"`
	Volatility float64      `json:"volatility"`
}

// Check computes the next-bar return for each code.
// Failures are per-code; the call itself only fails on a cancelled context.
func (c *Checker) Check(ctx context.Context, date time.Time, codes []string) (*Result, error) {
	lookback := int(c.now().Sub(date).Hours()/24) + lookbackMargin
	if lookback < lookbackMargin {
		lookback = lookbackMargin
	}

	c.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"codes":    len(codes),
		"lookback": lookback,
	}).Info("Starting step return review")

	returns := make([]StepReturn, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, code := range codes {
		g.Go(func() error {
			bars, err := c.bars.FetchBars(gctx, code, lookback, contracts.IntervalDay)
			if err != nil {
				c.logger.WithError(err).WithField("code", code).Warn("Failed to fetch bars for review")
				returns[i] = StepReturn{Code: code, Reason: ReasonFetchFailed}
				return nil
			}
			returns[i] = stepReturn(code, date, bars)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("review cancelled: %w", err)
	}

	result := &Result{Date: date, Returns: returns}
	summarize(result)
	return result, nil
}

// stepReturn finds the last bar on or before date and the bar right after it.
// Bars are ascending; dates compare by calendar day.
func stepReturn(code string, date time.Time, bars []contracts.Bar) StepReturn {
	sr := StepReturn{Code: code}
	day := dayKey(date)

	decision := -1
	for i, b := range bars {
		if dayKey(b.Date) > day {
			break
		}
		decision = i
	}

	if decision < 0 || bars[decision].Close <= 0 {
		sr.Reason = ReasonNoDecisionBar
		return sr
	}
	sr.DecisionDate = bars[decision].Date
	sr.DecisionClose = bars[decision].Close

	if decision+1 >= len(bars) {
		sr.Reason = ReasonNoNextBar
		return sr
	}
	next := bars[decision+1]
	sr.NextDate = next.Date
	sr.NextClose = next.Close
	sr.Return = float64(next.Close-sr.DecisionClose) / float64(sr.DecisionClose)
	sr.OK = true
	return sr
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// summarize fills hit rate, mean and volatility over evaluated codes
func summarize(result *Result) {
	values := make([]float64, 0, len(result.Returns))
	for _, r := range result.Returns {
		if !r.OK {
			continue
		}
		values = append(values, r.Return)
		if r.Return > 0 {
			result.Winners++
		}
	}

	result.Evaluated = len(values)
	if len(values) == 0 {
		return
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	result.MeanReturn = sum / float64(len(values))
	result.HitRate = float64(result.Winners) / float64(len(values))

	// population standard deviation
	variance := 0.0
	for _, v := range values {
		diff := v - result.MeanReturn
		variance += diff * diff
	}
	result.Volatility = math.Sqrt(variance / float64(len(values)))
}
