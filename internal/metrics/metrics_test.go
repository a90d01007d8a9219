package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recording(t *testing.T) {
	m := New()

	m.CandidateScored(3, 120*time.Millisecond)
	m.CandidateScored(-1, 80*time.Millisecond)
	m.CapabilityFailed("bars")
	m.RenderFailed()
	m.SurfaceDiscovered("theme", 4, nil)
	m.SurfaceDiscovered("ranking", 0, errors.New("down"))
	m.RunFinished("delivery_failed", 3*time.Second, 3, 2)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["stockpick_candidates_scored_total"])
	assert.Equal(t, 2.0, values["stockpick_capability_failures_total"])
	assert.Equal(t, 4.0, values["stockpick_surface_candidates_total"])
	assert.Equal(t, 1.0, values["stockpick_surface_failures_total"])
	assert.Equal(t, 1.0, values["stockpick_runs_total"])
	assert.Equal(t, 2.0, values["stockpick_delivery_failures_total"])
	assert.Equal(t, 3.0, values["stockpick_shortlist_size"])
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RunFinished("ok", time.Second, 3, 0)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `stockpick_runs_total{status="ok"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// 기본 레지스트리를 쓰지 않으므로 중복 등록 패닉 없음
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
