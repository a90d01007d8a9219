package s1_universe

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/external/naver"
	"github.com/wonny/stockpick/pkg/logger"
)

// Surface names (also the strategy YAML `sources` values)
const (
	SurfaceTheme     = "theme"
	SurfaceRanking   = "ranking"
	SurfaceWatchlist = "watchlist"
	SurfaceDatabase  = "database"
)

// Theme discovery defaults
const (
	DefaultKeywordLimit   = 5
	DefaultNamesPerTheme  = 3
	DefaultThemeSuffix    = " 주식"
	DefaultRankingPerPage = 20
)

// KeywordSource returns trending theme keywords
type KeywordSource interface {
	TrendingKeywords(ctx context.Context, limit int) ([]string, error)
}

// RankingSource returns one ranking list
type RankingSource interface {
	GetRanking(ctx context.Context, category naver.RankingCategory, market string, pageSize int) ([]naver.RankingItem, error)
}

// ============================================================
// Theme: 테마 키워드 → 관련 뉴스 → 종목명 후보 → 코드 변환
// ============================================================

// ThemeSurface discovers candidates from trending theme keywords
type ThemeSurface struct {
	keywords      KeywordSource
	news          contracts.TextSource
	resolver      contracts.IdentifierResolver
	keywordLimit  int
	namesPerTheme int
	logger        *logger.Logger
}

// NewThemeSurface creates a theme surface
func NewThemeSurface(keywords KeywordSource, news contracts.TextSource, resolver contracts.IdentifierResolver, keywordLimit, namesPerTheme int, log *logger.Logger) *ThemeSurface {
	if keywordLimit <= 0 {
		keywordLimit = DefaultKeywordLimit
	}
	if namesPerTheme <= 0 {
		namesPerTheme = DefaultNamesPerTheme
	}
	return &ThemeSurface{
		keywords:      keywords,
		news:          news,
		resolver:      resolver,
		keywordLimit:  keywordLimit,
		namesPerTheme: namesPerTheme,
		logger:        log,
	}
}

// Name implements contracts.DiscoverySurface
func (s *ThemeSurface) Name() string { return SurfaceTheme }

// Discover implements contracts.DiscoverySurface.
// Only a keyword fetch failure fails the surface; per-keyword failures are skipped.
func (s *ThemeSurface) Discover(ctx context.Context) ([]contracts.Candidate, error) {
	keywords, err := s.keywords.TrendingKeywords(ctx, s.keywordLimit)
	if err != nil {
		return nil, fmt.Errorf("trending keywords: %w", err)
	}

	out := make([]contracts.Candidate, 0)
	for _, kw := range keywords {
		titles, err := s.news.Search(ctx, kw+DefaultThemeSuffix)
		if err != nil {
			s.logger.WithError(err).WithField("keyword", kw).Warn("Theme news search failed")
			continue
		}

		for _, name := range ExtractNames(titles, s.namesPerTheme) {
			code, ok, err := s.resolver.Resolve(ctx, name)
			if err != nil {
				s.logger.WithError(err).WithField("name", name).Debug("Name resolution failed")
				continue
			}
			if !ok {
				continue
			}
			out = append(out, contracts.Candidate{
				Code:   code,
				Name:   name,
				Sector: contracts.SectorOther,
				Source: SurfaceTheme,
			})
		}
	}
	return out, nil
}

// ExtractNames picks name-like words from titles: words ending in "주" or at least
// three characters long, distinct, in title order, at most limit.
func ExtractNames(titles []string, limit int) []string {
	names := make([]string, 0, limit)
	seen := make(map[string]bool)

	for _, title := range titles {
		for _, word := range strings.Fields(title) {
			word = strings.TrimFunc(word, func(r rune) bool {
				return unicode.IsPunct(r) || unicode.IsSymbol(r)
			})
			if word == "" || seen[word] {
				continue
			}
			if !strings.HasSuffix(word, "주") && utf8.RuneCountInString(word) < 3 {
				continue
			}
			seen[word] = true
			names = append(names, word)
			if len(names) >= limit {
				return names
			}
		}
	}
	return names
}

// ============================================================
// Ranking: 네이버 순위 API
// ============================================================

// RankingSurface discovers candidates from Naver ranking lists
type RankingSurface struct {
	source     RankingSource
	categories []naver.RankingCategory
	market     string
	pageSize   int
	logger     *logger.Logger
}

// NewRankingSurface creates a ranking surface
func NewRankingSurface(source RankingSource, categories []naver.RankingCategory, market string, pageSize int, log *logger.Logger) *RankingSurface {
	if pageSize <= 0 {
		pageSize = DefaultRankingPerPage
	}
	if market == "" {
		market = "KOSPI"
	}
	return &RankingSurface{
		source:     source,
		categories: categories,
		market:     market,
		pageSize:   pageSize,
		logger:     log,
	}
}

// Name implements contracts.DiscoverySurface
func (s *RankingSurface) Name() string { return SurfaceRanking }

// Discover implements contracts.DiscoverySurface. Fails only when every category fails.
func (s *RankingSurface) Discover(ctx context.Context) ([]contracts.Candidate, error) {
	out := make([]contracts.Candidate, 0)
	var lastErr error
	failed := 0

	for _, category := range s.categories {
		items, err := s.source.GetRanking(ctx, category, s.market, s.pageSize)
		if err != nil {
			s.logger.WithError(err).WithField("category", string(category)).Warn("Ranking fetch failed")
			lastErr = err
			failed++
			continue
		}
		for _, item := range items {
			out = append(out, contracts.Candidate{
				Code:   item.StockCode,
				Name:   item.StockName,
				Sector: contracts.SectorOther,
				Source: SurfaceRanking,
			})
		}
	}

	if len(s.categories) > 0 && failed == len(s.categories) {
		return nil, fmt.Errorf("all %d ranking categories failed: %w", failed, lastErr)
	}
	return out, nil
}

// ============================================================
// Watchlist: 설정 파일 고정 목록
// ============================================================

// WatchlistEntry is one configured watchlist item
type WatchlistEntry struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// WatchlistSurface returns a fixed list. Entries with only a name are resolved.
type WatchlistSurface struct {
	entries  []WatchlistEntry
	resolver contracts.IdentifierResolver
	logger   *logger.Logger
}

// NewWatchlistSurface creates a watchlist surface. resolver may be nil.
func NewWatchlistSurface(entries []WatchlistEntry, resolver contracts.IdentifierResolver, log *logger.Logger) *WatchlistSurface {
	return &WatchlistSurface{
		entries:  entries,
		resolver: resolver,
		logger:   log,
	}
}

// Name implements contracts.DiscoverySurface
func (s *WatchlistSurface) Name() string { return SurfaceWatchlist }

// Discover implements contracts.DiscoverySurface
func (s *WatchlistSurface) Discover(ctx context.Context) ([]contracts.Candidate, error) {
	out := make([]contracts.Candidate, 0, len(s.entries))
	for _, e := range s.entries {
		code := strings.TrimSpace(e.Code)
		if code == "" && s.resolver != nil && e.Name != "" {
			resolved, ok, err := s.resolver.Resolve(ctx, e.Name)
			if err != nil || !ok {
				s.logger.WithField("name", e.Name).Warn("Watchlist name could not be resolved")
				continue
			}
			code = resolved
		}
		if code == "" {
			continue
		}
		out = append(out, contracts.Candidate{
			Code:   code,
			Name:   e.Name,
			Sector: contracts.SectorOther,
			Source: SurfaceWatchlist,
		})
	}
	return out, nil
}
