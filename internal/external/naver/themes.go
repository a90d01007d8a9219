package naver

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TrendingKeywords scrapes the theme keywords shown on the finance main page,
// first-seen order, at most limit entries.
func (c *Client) TrendingKeywords(ctx context.Context, limit int) ([]string, error) {
	doc, err := c.fetchDocument(ctx, c.urls.FinanceURL+"/")
	if err != nil {
		return nil, fmt.Errorf("trending keywords: %w", err)
	}

	keywords := extractKeywords(doc, limit)

	c.logger.WithField("count", len(keywords)).Debug("Fetched trending keywords")
	return keywords, nil
}

func extractKeywords(doc *goquery.Document, limit int) []string {
	var keywords []string
	seen := make(map[string]bool)

	doc.Find(".section_stock_market .tit a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		kw := strings.TrimSpace(s.Text())
		if kw == "" || seen[kw] {
			return true
		}
		seen[kw] = true
		keywords = append(keywords, kw)
		return limit <= 0 || len(keywords) < limit
	})
	return keywords
}
