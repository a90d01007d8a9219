package s2_signals

import (
	"context"
	"strings"

	"github.com/wonny/stockpick/internal/contracts"
)

// Line markers used by the keyword summary
const (
	MarkPositive = "✔️"
	MarkNegative = "⚠️"
	MarkNeutral  = "-"
)

var (
	positiveWords = []string{"실적", "증가", "호재", "수주", "신규", "급등", "흑자", "상승", "계약", "최대"}
	negativeWords = []string{"하락", "급락", "적자", "리스크", "감소", "우려", "소송", "악재"}

	// themeWords: theme → keywords. 순서대로 검사, 먼저 맞은 테마 사용
	themeWords = []struct {
		theme    string
		keywords []string
	}{
		{"반도체", []string{"반도체", "HBM", "메모리", "파운드리", "D램", "낸드"}},
		{"2차전지", []string{"2차전지", "이차전지", "배터리", "양극재", "음극재", "리튬"}},
		{"바이오", []string{"바이오", "제약", "신약", "임상", "치료제", "백신"}},
		{"AI", []string{"AI", "인공지능", "챗봇", "GPU", "데이터센터"}},
		{"방산", []string{"방산", "방위", "K9", "미사일", "전투기"}},
		{"조선", []string{"조선", "선박", "LNG선", "해운"}},
		{"자동차", []string{"자동차", "전기차", "완성차", "자율주행"}},
		{"원전", []string{"원전", "원자력", "SMR", "우라늄"}},
		{"게임", []string{"게임", "신작", "퍼블리싱"}},
		{"엔터", []string{"엔터", "아이돌", "콘서트", "K팝"}},
	}
)

// KeywordEngine is the rule-based Summarizer and Classifier.
// Deterministic and offline; used when no inference endpoint is configured.
type KeywordEngine struct{}

// NewKeywordEngine creates a new keyword engine
func NewKeywordEngine() *KeywordEngine {
	return &KeywordEngine{}
}

// Summarize marks every line as positive, negative or neutral
func (k *KeywordEngine) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, line := range splitLines(text) {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(markLine(line))
		sb.WriteString(" ")
		sb.WriteString(line)
	}
	return sb.String(), nil
}

// Classify scores attractiveness as 3 + positive lines - negative lines (1..5)
func (k *KeywordEngine) Classify(ctx context.Context, text string) (contracts.Classification, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Classification{}, err
	}

	score := 3
	for _, line := range splitLines(text) {
		switch markLine(line) {
		case MarkPositive:
			score++
		case MarkNegative:
			score--
		}
	}

	return contracts.Classification{
		Attractiveness: clampAttractiveness(score),
		Theme:          detectTheme(text),
	}, nil
}

// markLine: 긍정 단어 우선 (원본 리포트와 동일)
func markLine(line string) string {
	if containsAny(line, positiveWords) {
		return MarkPositive
	}
	if containsAny(line, negativeWords) {
		return MarkNegative
	}
	return MarkNeutral
}

func detectTheme(text string) string {
	for _, t := range themeWords {
		if containsAny(text, t.keywords) {
			return t.theme
		}
	}
	return contracts.SectorOther
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
