package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Report text
const (
	HeaderFormat = "📈 오늘의 단타 유망주 보고서 (%s)"
	Disclaimer   = "※ 본 정보는 투자 권유가 아닙니다."
	NoCandidates = "⚠️ 조건에 맞는 후보 종목이 없습니다 (no candidates found)"

	DefaultChartBars = 20
)

// Config holds the artifact options
type Config struct {
	ChartBars int // 차트에 그릴 최근 봉 개수
}

// Artifact is the per-candidate deliverable
type Artifact struct {
	Rank  int
	Code  string
	Name  string
	Text  string
	Image []byte // PNG held in memory only; nil when rendering failed
}

// Caption is the image caption used on delivery
func (a Artifact) Caption() string {
	return fmt.Sprintf("%d. %s (%s)", a.Rank, a.Name, a.Code)
}

// Pipeline renders shortlisted candidates into artifacts
// ⭐ SSOT: S4 리포트 생성은 여기서만
type Pipeline struct {
	renderer contracts.ChartRenderer
	cfg      Config
	logger   *logger.Logger
	onFail   func()
}

// NewPipeline creates an artifact pipeline
func NewPipeline(renderer contracts.ChartRenderer, cfg Config, log *logger.Logger) *Pipeline {
	if cfg.ChartBars <= 0 {
		cfg.ChartBars = DefaultChartBars
	}
	return &Pipeline{
		renderer: renderer,
		cfg:      cfg,
		logger:   log,
	}
}

// OnRenderFailure sets a hook called once per failed chart (metrics)
func (p *Pipeline) OnRenderFailure(fn func()) *Pipeline {
	p.onFail = fn
	return p
}

// Render builds the text block and the chart image of one candidate.
// A chart failure leaves Image nil; the text is always produced.
func (p *Pipeline) Render(ctx context.Context, rc contracts.RankedCandidate) Artifact {
	art := Artifact{
		Rank: rc.Rank,
		Code: rc.Code,
		Name: displayName(rc.Candidate),
		Text: FormatCandidate(rc),
	}

	if ctx.Err() != nil {
		return art
	}

	bars := tail(rc.Bars, p.cfg.ChartBars)
	img, err := p.renderer.Render(bars, fmt.Sprintf("%s (%s)", art.Name, rc.Code))
	if err != nil {
		if !errors.Is(err, contracts.ErrRenderFailure) {
			err = fmt.Errorf("%w: %v", contracts.ErrRenderFailure, err)
		}
		p.logger.WithError(err).WithField("code", rc.Code).Warn("Chart render failed, sending text only")
		if p.onFail != nil {
			p.onFail()
		}
		return art
	}
	art.Image = img
	return art
}

// FormatCandidate renders the fixed section order:
// rank/name/code, technical score, attractiveness, theme, summary
func FormatCandidate(rc contracts.RankedCandidate) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%d. %s (%s)\n", rc.Rank, displayName(rc.Candidate), rc.Code)
	fmt.Fprintf(&sb, "   기술점수: %d\n", rc.Technical.Score)

	if rc.Text.Attractiveness > 0 {
		fmt.Fprintf(&sb, "   매력도: %d/5\n", rc.Text.Attractiveness)
	} else {
		sb.WriteString("   매력도: -\n")
	}

	theme := rc.Text.Theme
	if theme == "" {
		theme = contracts.SectorOther
	}
	fmt.Fprintf(&sb, "   테마: %s\n", theme)

	summary := strings.TrimSpace(rc.Text.Summary)
	if summary == "" {
		summary = contracts.NoInfoSummary
	}
	sb.WriteString("   📰 요약:\n")
	for _, line := range strings.Split(summary, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(&sb, "   %s\n", line)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Compose joins the header, the candidate blocks and exactly one trailing disclaimer
func Compose(date time.Time, artifacts []Artifact) string {
	parts := make([]string, 0, len(artifacts)+2)
	parts = append(parts, Header(date))
	for _, a := range artifacts {
		parts = append(parts, a.Text)
	}
	parts = append(parts, Disclaimer)
	return strings.Join(parts, "\n\n")
}

// ComposeEmpty is the message delivered when sourcing found nothing
func ComposeEmpty(date time.Time) string {
	return strings.Join([]string{Header(date), NoCandidates, Disclaimer}, "\n\n")
}

// Header returns the report header line for a run date
func Header(date time.Time) string {
	return fmt.Sprintf(HeaderFormat, date.Format("2006-01-02"))
}

func displayName(c contracts.Candidate) string {
	if strings.TrimSpace(c.Name) == "" {
		return c.Code
	}
	return c.Name
}

func tail(bars []contracts.Bar, n int) []contracts.Bar {
	if n <= 0 || len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
