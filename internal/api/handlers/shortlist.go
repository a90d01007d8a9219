package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/wonny/stockpick/internal/brain"
	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Runner runs one pipeline pass (brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// ShortlistHandler runs the pipeline on demand
// ⭐ SSOT: 온디맨드 실행 API는 여기서만
type ShortlistHandler struct {
	live   Runner // delivers to the configured sink; nil = dry-run only
	dry    Runner // delivers to a writer sink
	base   brain.RunConfig
	loc    *time.Location
	logger *logger.Logger

	// 동시 실행 방지 (한 번에 한 run)
	running sync.Mutex
}

// NewShortlistHandler creates a new shortlist handler
func NewShortlistHandler(live, dry Runner, base brain.RunConfig, loc *time.Location, log *logger.Logger) *ShortlistHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ShortlistHandler{
		live:   live,
		dry:    dry,
		base:   base,
		loc:    loc,
		logger: log,
	}
}

// ShortlistItem is one ranked candidate in the response
type ShortlistItem struct {
	Rank           int      `json:"rank"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Sector         string   `json:"sector"`
	Source         string   `json:"source"`
	TechnicalScore int      `json:"technicalScore"`
	RSI            float64  `json:"rsi"`
	Conditions     []string `json:"conditions"`
	Attractiveness int      `json:"attractiveness"`
	Theme          string   `json:"theme"`
	Summary        string   `json:"summary"`
}

// ShortlistResponse is the response of GET /api/v1/shortlist
type ShortlistResponse struct {
	RunID           string                     `json:"runId"`
	Date            string                     `json:"date"`
	Status          string                     `json:"status"`
	ConfigHash      string                     `json:"configHash"`
	DryRun          bool                       `json:"dryRun"`
	Candidates      int                        `json:"candidates"`
	Scored          int                        `json:"scored"`
	DeadlineReached bool                       `json:"deadlineReached"`
	Stages          []contracts.PipelineResult `json:"stages"`
	Shortlist       []ShortlistItem            `json:"shortlist"`
	DeliveryErrors  []string                   `json:"deliveryErrors,omitempty"`
	Error           string                     `json:"error,omitempty"`
	DurationMs      int64                      `json:"durationMs"`
}

// GetShortlist runs the pipeline and returns the shortlist
// GET /api/v1/shortlist?dry_run=1&k=3
func (h *ShortlistHandler) GetShortlist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dryRun := false
	if v := q.Get("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid dry_run")
			return
		}
		dryRun = b
	}

	cfg := h.base
	cfg.Date = time.Now().In(h.loc)
	if v := q.Get("k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 1 {
			respondError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		cfg.K = k
	}

	runner := h.live
	if dryRun {
		runner = h.dry
	}
	if runner == nil {
		respondError(w, http.StatusServiceUnavailable, "delivery is not configured; use dry_run=1")
		return
	}

	if !h.running.TryLock() {
		respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	defer h.running.Unlock()

	result, err := runner.Run(r.Context(), cfg)
	if result == nil {
		h.logger.WithError(err).Error("On-demand run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := toResponse(result, dryRun)

	status := http.StatusOK
	switch {
	case err == nil, errors.Is(err, contracts.ErrNoCandidates):
	case errors.Is(err, contracts.ErrConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, contracts.ErrDeliveryFailure):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	respondJSON(w, status, resp)
}

func toResponse(result *brain.RunResult, dryRun bool) ShortlistResponse {
	resp := ShortlistResponse{
		RunID:           result.RunID,
		Date:            result.Date.Format("2006-01-02"),
		Status:          result.Status(),
		ConfigHash:      result.ConfigHash,
		DryRun:          dryRun,
		Candidates:      result.Candidates,
		Scored:          result.Scored,
		DeadlineReached: result.DeadlineReached,
		Stages:          result.Stages,
		Shortlist:       make([]ShortlistItem, 0, len(result.Shortlist)),
		DurationMs:      result.Duration.Milliseconds(),
	}
	if result.Error != nil {
		resp.Error = result.Error.Error()
	}
	for _, e := range result.DeliveryErrors {
		resp.DeliveryErrors = append(resp.DeliveryErrors, e.Error())
	}

	for _, rc := range result.Shortlist {
		resp.Shortlist = append(resp.Shortlist, ShortlistItem{
			Rank:           rc.Rank,
			Code:           rc.Code,
			Name:           rc.Name,
			Sector:         rc.Sector,
			Source:         rc.Source,
			TechnicalScore: rc.Technical.Score,
			RSI:            rc.Technical.RSI,
			Conditions:     rc.Technical.Conditions,
			Attractiveness: rc.Text.Attractiveness,
			Theme:          rc.Text.Theme,
			Summary:        rc.Text.Summary,
		})
	}
	return resp
}
