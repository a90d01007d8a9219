package s2_signals

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Text defaults
const (
	DefaultMaxSnippetLength = 500
	DefaultPerCallTimeout   = 20 * time.Second

	MinAttractiveness = 1
	MaxAttractiveness = 5
)

// TextConfig holds the per-candidate text scoring options
type TextConfig struct {
	MaxSnippetLength int           `yaml:"max_snippet_length" json:"max_snippet_length"` // runes
	PerCallTimeout   time.Duration `yaml:"per_call_timeout" json:"per_call_timeout"`
}

// DefaultTextConfig returns the default text options
func DefaultTextConfig() TextConfig {
	return TextConfig{
		MaxSnippetLength: DefaultMaxSnippetLength,
		PerCallTimeout:   DefaultPerCallTimeout,
	}
}

// TextEngine turns snippets into a TextSignal through a Summarizer and a Classifier
// ⭐ SSOT: 텍스트 시그널 계산은 여기서만
type TextEngine struct {
	summarizer contracts.Summarizer
	classifier contracts.Classifier
	cfg        TextConfig
	logger     *logger.Logger
	observer   FailureObserver
}

// FailureObserver is notified once per absorbed capability failure (metrics hook)
type FailureObserver func(kind string)

// NewTextEngine creates a new text engine
func NewTextEngine(summarizer contracts.Summarizer, classifier contracts.Classifier, cfg TextConfig, log *logger.Logger) *TextEngine {
	if cfg.MaxSnippetLength <= 0 {
		cfg.MaxSnippetLength = DefaultMaxSnippetLength
	}
	if cfg.PerCallTimeout <= 0 {
		cfg.PerCallTimeout = DefaultPerCallTimeout
	}
	return &TextEngine{
		summarizer: summarizer,
		classifier: classifier,
		cfg:        cfg,
		logger:     log,
	}
}

// WithFailureObserver sets the failure hook
func (e *TextEngine) WithFailureObserver(fn FailureObserver) *TextEngine {
	e.observer = fn
	return e
}

// Summarize never fails: every capability error degrades to the default field values.
// Empty input returns the default signal without calling any capability.
func (e *TextEngine) Summarize(ctx context.Context, snippets []string) contracts.TextSignal {
	signal := contracts.DefaultTextSignal()

	blob := BuildBlob(snippets, e.cfg.MaxSnippetLength)
	if blob == "" {
		return signal
	}

	// 요약과 분류는 서로 독립 (한쪽 실패가 다른 쪽에 영향 없음)
	var g errgroup.Group

	g.Go(func() error {
		summary, err := callWithin(ctx, e.cfg.PerCallTimeout, func(callCtx context.Context) (string, error) {
			return e.summarizer.Summarize(callCtx, blob)
		})
		if err != nil {
			e.absorb("summarize", err)
			return nil
		}
		if summary = strings.TrimSpace(summary); summary != "" {
			signal.Summary = summary
		}
		return nil
	})

	g.Go(func() error {
		cls, err := callWithin(ctx, e.cfg.PerCallTimeout, func(callCtx context.Context) (contracts.Classification, error) {
			return e.classifier.Classify(callCtx, blob)
		})
		if err != nil {
			e.absorb("classify", err)
			return nil
		}
		signal.Attractiveness = clampAttractiveness(cls.Attractiveness)
		if theme := strings.TrimSpace(cls.Theme); theme != "" {
			signal.Theme = theme
		}
		return nil
	})

	_ = g.Wait()
	return signal
}

// callWithin returns when fn does or when timeout elapses, whichever comes first.
// A capability that ignores its context is left to finish on its own; its result is dropped.
func callWithin[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1) // 버퍼 1: 늦게 끝난 호출이 블록되지 않도록
	go func() {
		v, err := fn(callCtx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	}
}

func (e *TextEngine) absorb(kind string, err error) {
	e.logger.WithError(err).WithField("call", kind).Warn("Text capability failed, using default")
	if e.observer != nil {
		e.observer(kind)
	}
}

// BuildBlob joins non-empty snippets with newlines and cuts the result at maxRunes
func BuildBlob(snippets []string, maxRunes int) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	blob := strings.Join(parts, "\n")
	if maxRunes <= 0 || utf8.RuneCountInString(blob) <= maxRunes {
		return blob
	}

	n := 0
	for i := range blob {
		if n == maxRunes {
			return blob[:i]
		}
		n++
	}
	return blob
}

func clampAttractiveness(v int) int {
	if v < MinAttractiveness {
		return MinAttractiveness
	}
	if v > MaxAttractiveness {
		return MaxAttractiveness
	}
	return v
}
