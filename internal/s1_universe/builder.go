package s1_universe

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// DefaultMaxCandidates bounds the number of candidates handed to scoring
const DefaultMaxCandidates = 30

// SPAC 판별을 위한 정규식 패턴
var spacPattern = regexp.MustCompile(`(?i)(스팩|SPAC|스펙|\d+호$|제\d+호)`)

// Config holds candidate filter criteria
type Config struct {
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates"`

	// 시가총액 밴드 (원, 양끝 포함). 켜져 있으면 시총 미확인(0)도 제외
	CapBandEnabled bool  `yaml:"cap_band_enabled" json:"cap_band_enabled"`
	MinMarketCap   int64 `yaml:"min_market_cap" json:"min_market_cap"`
	MaxMarketCap   int64 `yaml:"max_market_cap" json:"max_market_cap"`

	ExcludeSPAC  bool `yaml:"exclude_spac" json:"exclude_spac"`   // SPAC 제외
	ExcludeAdmin bool `yaml:"exclude_admin" json:"exclude_admin"` // 관리종목 제외
}

// DefaultConfig returns the default filter criteria
func DefaultConfig() Config {
	return Config{
		MaxCandidates: DefaultMaxCandidates,
		ExcludeSPAC:   true,
		ExcludeAdmin:  true,
	}
}

// SurfaceObserver receives per-surface discovery results (metrics)
type SurfaceObserver interface {
	SurfaceDiscovered(surface string, count int, err error)
}

// Builder constructs the candidate list from the configured discovery surfaces
// ⭐ SSOT: S1 → S2 후보 생성
type Builder struct {
	surfaces   []contracts.DiscoverySurface
	attributes contracts.AttributeResolver
	config     Config
	observer   SurfaceObserver
	logger     *logger.Logger
}

// NewBuilder creates a new candidate builder. attributes may be nil.
func NewBuilder(surfaces []contracts.DiscoverySurface, attributes contracts.AttributeResolver, config Config, log *logger.Logger) *Builder {
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = DefaultMaxCandidates
	}
	return &Builder{
		surfaces:   surfaces,
		attributes: attributes,
		config:     config,
		logger:     log,
	}
}

// WithObserver attaches a metrics observer
func (b *Builder) WithObserver(o SurfaceObserver) *Builder {
	b.observer = o
	return b
}

// Source queries every surface in order, deduplicates by code (first seen wins),
// applies the filters and returns at most MaxCandidates in source order.
// A done ctx stops attribute resolution and keeps what was collected so far.
// No surviving candidate → contracts.ErrNoCandidates.
func (b *Builder) Source(ctx context.Context) ([]contracts.Candidate, error) {
	raw := make([]contracts.Candidate, 0)

	for _, surface := range b.surfaces {
		found, err := surface.Discover(ctx)
		if b.observer != nil {
			b.observer.SurfaceDiscovered(surface.Name(), len(found), err)
		}
		if err != nil {
			// 한 소스 실패는 전체 실패가 아님
			b.logger.WithError(err).WithField("surface", surface.Name()).Warn("Discovery surface failed, skipping")
			continue
		}

		b.logger.WithFields(map[string]interface{}{
			"surface": surface.Name(),
			"count":   len(found),
		}).Info("Discovery surface returned candidates")

		for _, c := range found {
			if c.Source == "" {
				c.Source = surface.Name()
			}
			raw = append(raw, c)
		}
	}

	unique := Dedupe(raw)

	candidates := make([]contracts.Candidate, 0, min(len(unique), b.config.MaxCandidates))
	excluded := make(map[string]string)

	// 필요한 만큼만 속성 조회 (lazy)
	for _, c := range unique {
		if len(candidates) >= b.config.MaxCandidates {
			break
		}
		if err := ctx.Err(); err != nil {
			// 마감 도달: 지금까지 모은 후보만 사용
			b.logger.WithError(err).WithField("selected", len(candidates)).Warn("Sourcing deadline reached, keeping partial candidates")
			break
		}

		c = b.resolveAttributes(ctx, c)
		if reason := b.checkExclusion(c); reason != "" {
			excluded[c.Code] = reason
			continue
		}
		candidates = append(candidates, c)
	}

	b.logger.WithFields(map[string]interface{}{
		"raw":      len(raw),
		"unique":   len(unique),
		"excluded": len(excluded),
		"selected": len(candidates),
		"max":      b.config.MaxCandidates,
	}).Info("Candidate sourcing completed")

	if len(candidates) == 0 {
		return nil, fmt.Errorf("sourcing from %d surfaces: %w", len(b.surfaces), contracts.ErrNoCandidates)
	}
	return candidates, nil
}

// resolveAttributes fills sector/market cap; failure degrades to "other" / 0
func (b *Builder) resolveAttributes(ctx context.Context, c contracts.Candidate) contracts.Candidate {
	if c.Sector == "" {
		c.Sector = contracts.SectorOther
	}
	if b.attributes == nil {
		return c
	}
	if c.MarketCap > 0 && c.Sector != contracts.SectorOther {
		return c
	}

	attrs, err := b.attributes.Resolve(ctx, c.Code)
	if err != nil {
		b.logger.WithError(err).WithField("code", c.Code).Debug("Attribute resolution failed")
		return c
	}
	if attrs.Sector != "" && c.Sector == contracts.SectorOther {
		c.Sector = attrs.Sector
	}
	if attrs.MarketCap > 0 && c.MarketCap == 0 {
		c.MarketCap = attrs.MarketCap
	}
	return c
}

// checkExclusion checks if a candidate should be excluded and returns the reason
func (b *Builder) checkExclusion(c contracts.Candidate) string {
	// 1. SPAC
	if b.config.ExcludeSPAC && isSPAC(c.Name) {
		return "SPAC"
	}

	// 2. 관리종목
	if b.config.ExcludeAdmin && isAdminStock(c.Name) {
		return "관리종목"
	}

	// 3. 시가총액 밴드
	if b.config.CapBandEnabled {
		if c.MarketCap <= 0 {
			return "시가총액 미확인"
		}
		if c.MarketCap < b.config.MinMarketCap {
			return fmt.Sprintf("시가총액 미달 (%d억)", c.MarketCap/100_000_000)
		}
		if b.config.MaxMarketCap > 0 && c.MarketCap > b.config.MaxMarketCap {
			return fmt.Sprintf("시가총액 초과 (%d억)", c.MarketCap/100_000_000)
		}
	}

	return "" // 통과
}

// Dedupe drops later duplicates by code, keeping the first occurrence and its order.
// Entries without a code are dropped.
func Dedupe(candidates []contracts.Candidate) []contracts.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]contracts.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Code = strings.TrimSpace(c.Code)
		if c.Code == "" || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	return out
}

// isSPAC checks if a stock is a SPAC based on name pattern
func isSPAC(name string) bool {
	return spacPattern.MatchString(name)
}

// isAdminStock checks if a stock is under administrative supervision.
// 관리종목 표시: 이름 앞의 "*" 또는 "관리종목" 토큰 ("관리" 가 들어간 회사명은 해당 없음)
func isAdminStock(name string) bool {
	name = strings.TrimSpace(name)
	return strings.HasPrefix(name, "*") || strings.Contains(name, "관리종목")
}
