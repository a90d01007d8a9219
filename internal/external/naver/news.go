package naver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 뉴스 검색 결과 제목 셀렉터 (구/신 마크업 순서대로 시도)
var newsTitleSelectors = []string{
	".list_news .news_tit",
	"a.news_tit",
}

// Search returns up to maxTitles news titles for a query.
// No results is an empty slice with a nil error.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	fullURL := fmt.Sprintf("%s/search.naver?where=news&query=%s", c.urls.SearchURL, url.QueryEscape(query))

	doc, err := c.fetchDocument(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("news search %q: %w", query, err)
	}

	titles := extractNewsTitles(doc, c.maxTitles)

	c.logger.WithFields(map[string]interface{}{
		"query": query,
		"count": len(titles),
	}).Debug("Fetched news titles")
	return titles, nil
}

// extractNewsTitles collects distinct non-empty titles in page order
func extractNewsTitles(doc *goquery.Document, limit int) []string {
	titles := make([]string, 0, limit)
	seen := make(map[string]bool)

	for _, sel := range newsTitleSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			title := strings.TrimSpace(s.Text())
			if title == "" || seen[title] {
				return true
			}
			seen[title] = true
			titles = append(titles, title)
			return len(titles) < limit
		})
		if len(titles) > 0 {
			break
		}
	}
	return titles
}
