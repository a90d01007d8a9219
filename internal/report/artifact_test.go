package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

type fakeRenderer struct {
	err      error
	lastBars int
}

func (f *fakeRenderer) Render(bars []contracts.Bar, title string) ([]byte, error) {
	f.lastBars = len(bars)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG" + title), nil
}

func makeBars(n int) []contracts.Bar {
	bars := make([]contracts.Bar, n)
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Close: int64(1000 + i), Volume: 10}
	}
	return bars
}

func sample() contracts.RankedCandidate {
	return contracts.RankedCandidate{
		Candidate: contracts.Candidate{Code: "005930", Name: "삼성전자"},
		Technical: contracts.TechnicalScore{Score: 3},
		Text:      contracts.TextSignal{Summary: "✔️ 실적 증가\n- 장 마감", Attractiveness: 4, Theme: "반도체"},
		Rank:      1,
		Scored:    true,
		Bars:      makeBars(60),
	}
}

func TestFormatCandidate_SectionOrder(t *testing.T) {
	text := FormatCandidate(sample())

	markers := []string{"1. 삼성전자 (005930)", "기술점수: 3", "매력도: 4/5", "테마: 반도체", "요약:", "✔️ 실적 증가", "- 장 마감"}
	last := -1
	for _, m := range markers {
		idx := strings.Index(text, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q", m)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
}

func TestFormatCandidate_Defaults(t *testing.T) {
	rc := contracts.RankedCandidate{
		Candidate: contracts.Candidate{Code: "000660"},
		Text:      contracts.DefaultTextSignal(),
		Rank:      2,
	}
	text := FormatCandidate(rc)

	assert.Contains(t, text, "2. 000660 (000660)")
	assert.Contains(t, text, "매력도: -")
	assert.Contains(t, text, "테마: other")
	assert.Contains(t, text, contracts.NoInfoSummary)
}

func TestCompose_SingleDisclaimer(t *testing.T) {
	date := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	arts := []Artifact{{Text: "1. A (000001)"}, {Text: "2. B (000002)"}}

	msg := Compose(date, arts)

	assert.True(t, strings.HasPrefix(msg, "📈 오늘의 단타 유망주 보고서 (2026-10-15)"))
	assert.Equal(t, 1, strings.Count(msg, Disclaimer))
	assert.True(t, strings.HasSuffix(msg, Disclaimer))
	assert.Less(t, strings.Index(msg, "1. A"), strings.Index(msg, "2. B"))

	empty := ComposeEmpty(date)
	assert.Contains(t, empty, "no candidates found")
	assert.Equal(t, 1, strings.Count(empty, Disclaimer))
}

func TestPipeline_Render(t *testing.T) {
	renderer := &fakeRenderer{}
	p := NewPipeline(renderer, Config{}, logger.Nop())

	art := p.Render(context.Background(), sample())

	assert.Equal(t, DefaultChartBars, renderer.lastBars)
	require.NotNil(t, art.Image)
	assert.True(t, bytes.HasPrefix(art.Image, []byte("\x89PNG")))
	assert.Equal(t, "1. 삼성전자 (005930)", art.Caption())
}

func TestPipeline_RenderFailure(t *testing.T) {
	var failures int
	p := NewPipeline(&fakeRenderer{err: errors.New("no font")}, Config{}, logger.Nop()).
		OnRenderFailure(func() { failures++ })

	art := p.Render(context.Background(), sample())

	assert.Nil(t, art.Image)
	assert.NotEmpty(t, art.Text)
	assert.Equal(t, 1, failures)
}

func TestPipeline_NothingWrittenToDisk(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	p := NewPipeline(&fakeRenderer{}, Config{ChartBars: 5}, logger.Nop())
	art := p.Render(context.Background(), sample())
	require.NotNil(t, art.Image)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	require.NoError(t, sink.SendText(context.Background(), "hello"))
	require.NoError(t, sink.SendImage(context.Background(), []byte{1, 2, 3}, "1. A (000001)"))

	assert.Equal(t, "hello\n[chart] 1. A (000001) (3 bytes)\n", buf.String())
	assert.Equal(t, 1, sink.Texts)
	assert.Equal(t, 1, sink.Images)
}

var _ contracts.DeliverySink = (*WriterSink)(nil)
