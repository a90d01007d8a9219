package contracts

import "context"

// TimeSeriesSource returns bars ascending by date.
// An empty slice with a nil error means "no data", not a failure.
// ⭐ SSOT: 시세 조회 인터페이스
type TimeSeriesSource interface {
	FetchBars(ctx context.Context, code string, lookbackDays int, interval Interval) ([]Bar, error)
}

// TextSource returns a bounded list of short snippets (news titles) for a query
type TextSource interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Summarizer turns a text blob into a short summary
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Classifier turns a text blob into attractiveness + theme
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// ChartRenderer renders a bar series into PNG bytes
type ChartRenderer interface {
	Render(bars []Bar, title string) ([]byte, error)
}

// DeliverySink sends the final payload. No retry within a run.
// ⭐ SSOT: 결과 전달 인터페이스
type DeliverySink interface {
	SendText(ctx context.Context, text string) error
	SendImage(ctx context.Context, png []byte, caption string) error
}

// IdentifierResolver maps a display name to a six-digit code.
// ok=false with a nil error means the name is unknown.
type IdentifierResolver interface {
	Resolve(ctx context.Context, name string) (code string, ok bool, err error)
}

// AttributeResolver resolves the optional sector / market cap of a code
type AttributeResolver interface {
	Resolve(ctx context.Context, code string) (Attributes, error)
}

// DiscoverySurface is one source of raw candidates (theme, ranking, watchlist, database)
type DiscoverySurface interface {
	Name() string
	Discover(ctx context.Context) ([]Candidate, error)
}
