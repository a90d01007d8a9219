package s1_universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/stockpick/internal/contracts"
)

// Querier is the read-only subset of pgxpool.Pool used here
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads the optional watchlist table (read-only, no run persistence)
type Repository struct {
	db    Querier
	limit int
}

// NewRepository creates a new Repository instance
func NewRepository(db Querier, limit int) *Repository {
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	return &Repository{db: db, limit: limit}
}

// Name implements contracts.DiscoverySurface
func (r *Repository) Name() string { return SurfaceDatabase }

// Discover implements contracts.DiscoverySurface
func (r *Repository) Discover(ctx context.Context) ([]contracts.Candidate, error) {
	// Note: market_cap 은 가장 최근 것을 사용
	query := `
		SELECT
			s.code,
			s.name,
			COALESCE(s.sector, ''),
			COALESCE(mc.market_cap, 0)
		FROM data.stocks s
		LEFT JOIN LATERAL (
			SELECT market_cap FROM data.market_cap
			WHERE stock_code = s.code
			ORDER BY trade_date DESC LIMIT 1
		) mc ON TRUE
		WHERE s.status = 'active'
		ORDER BY s.code
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, r.limit)
	if err != nil {
		return nil, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	candidates := make([]contracts.Candidate, 0)
	for rows.Next() {
		var c contracts.Candidate
		if err := rows.Scan(&c.Code, &c.Name, &c.Sector, &c.MarketCap); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		if c.Sector == "" {
			c.Sector = contracts.SectorOther
		}
		c.Source = SurfaceDatabase
		candidates = append(candidates, c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate stocks: %w", rows.Err())
	}

	return candidates, nil
}
