package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/brain"
	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/pkg/logger"
)

type stubRunner struct {
	result *brain.RunResult
	err    error
	calls  int
	got    brain.RunConfig
	block  chan struct{}
}

func (s *stubRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	s.calls++
	s.got = cfg
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func okResult() *brain.RunResult {
	return &brain.RunResult{
		RunID:      "run-1",
		Date:       time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
		ConfigHash: "h",
		Success:    true,
		Candidates: 5,
		Scored:     4,
		Shortlist: []contracts.RankedCandidate{
			{
				Candidate: contracts.Candidate{Code: "005930", Name: "삼성전자", Sector: "반도체"},
				Technical: contracts.TechnicalScore{Score: 4, RSI: 28.5},
				Text:      contracts.TextSignal{Summary: "✔️ 수주", Attractiveness: 4, Theme: "반도체"},
				Rank:      1,
				Scored:    true,
			},
		},
	}
}

func get(t *testing.T, h *ShortlistHandler, target string) (*httptest.ResponseRecorder, ShortlistResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.GetShortlist(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var resp ShortlistResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestGetShortlist_DryRun(t *testing.T) {
	live := &stubRunner{result: okResult()}
	dry := &stubRunner{result: okResult()}
	h := NewShortlistHandler(live, dry, brain.RunConfig{K: 3}, time.UTC, logger.Nop())

	rec, resp := get(t, h, "/api/v1/shortlist?dry_run=1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, live.calls)
	assert.Equal(t, 1, dry.calls)
	assert.True(t, resp.DryRun)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2024-05-02", resp.Date)
	require.Len(t, resp.Shortlist, 1)
	assert.Equal(t, "005930", resp.Shortlist[0].Code)
	assert.Equal(t, 4, resp.Shortlist[0].TechnicalScore)
	assert.Equal(t, 4, resp.Shortlist[0].Attractiveness)
}

func TestGetShortlist_Live(t *testing.T) {
	live := &stubRunner{result: okResult()}
	h := NewShortlistHandler(live, &stubRunner{}, brain.RunConfig{K: 3}, time.UTC, logger.Nop())

	rec, _ := get(t, h, "/api/v1/shortlist?k=2")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, live.calls)
	assert.Equal(t, 2, live.got.K)
}

func TestGetShortlist_BadParams(t *testing.T) {
	h := NewShortlistHandler(&stubRunner{}, &stubRunner{}, brain.RunConfig{K: 3}, time.UTC, logger.Nop())

	tests := []string{
		"/api/v1/shortlist?dry_run=maybe",
		"/api/v1/shortlist?k=0",
		"/api/v1/shortlist?k=abc",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec, _ := get(t, h, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetShortlist_NoLiveSink(t *testing.T) {
	h := NewShortlistHandler(nil, &stubRunner{result: okResult()}, brain.RunConfig{K: 3}, time.UTC, logger.Nop())

	rec, _ := get(t, h, "/api/v1/shortlist")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetShortlist_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		result *brain.RunResult
		err    error
		want   int
	}{
		{
			name:   "no candidates",
			result: &brain.RunResult{Error: contracts.ErrNoCandidates},
			err:    fmt.Errorf("S1 failed: %w", contracts.ErrNoCandidates),
			want:   http.StatusOK,
		},
		{
			name:   "delivery failure",
			result: &brain.RunResult{DeliveryErrors: []error{errors.New("x")}},
			err:    fmt.Errorf("S5 failed: %w", contracts.ErrDeliveryFailure),
			want:   http.StatusBadGateway,
		},
		{
			name:   "configuration",
			result: &brain.RunResult{},
			err:    contracts.ErrConfiguration,
			want:   http.StatusBadRequest,
		},
		{
			name: "no result",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubRunner{result: tt.result, err: tt.err}
			h := NewShortlistHandler(r, r, brain.RunConfig{K: 3}, time.UTC, logger.Nop())

			rec, _ := get(t, h, "/api/v1/shortlist")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetShortlist_ConcurrentRunRejected(t *testing.T) {
	r := &stubRunner{result: okResult(), block: make(chan struct{})}
	h := NewShortlistHandler(r, r, brain.RunConfig{K: 3}, time.UTC, logger.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec, _ := get(t, h, "/api/v1/shortlist")
		assert.Equal(t, http.StatusOK, rec.Code)
	}()

	// 첫 요청이 락을 잡을 때까지 대기
	require.Eventually(t, func() bool {
		if h.running.TryLock() {
			h.running.Unlock()
			return false
		}
		return true
	}, time.Second, time.Millisecond)

	rec, _ := get(t, h, "/api/v1/shortlist")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(r.block)
	wg.Wait()
}

type stubStats map[string]scheduler.JobStats

func (s stubStats) GetJobStats() map[string]scheduler.JobStats { return s }

func TestGetJobs(t *testing.T) {
	h := NewJobsHandler(stubStats{"shortlist_pipeline": {JobName: "shortlist_pipeline", TotalRuns: 2}})

	rec := httptest.NewRecorder()
	h.GetJobs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]scheduler.JobStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got["shortlist_pipeline"].TotalRuns)
}
