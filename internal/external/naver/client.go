package naver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
	"github.com/wonny/stockpick/pkg/redis"
)

// DefaultMaxTitles bounds the number of news titles returned per search
const DefaultMaxTitles = 3

// Client handles communication with Naver Finance and Naver Search
// ⭐ SSOT: Naver 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	urls       config.NaverConfig
	cache      *redis.Cache
	maxTitles  int
}

// NewClient creates a new Naver client. cache may be nil.
func NewClient(httpClient *httputil.Client, urls config.NaverConfig, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		urls:       urls,
		cache:      cache,
		maxTitles:  DefaultMaxTitles,
	}
}

// WithMaxTitles sets the per-search title bound
func (c *Client) WithMaxTitles(n int) *Client {
	if n > 0 {
		c.maxTitles = n
	}
	return c
}

// fetchDocument GETs an HTML page and parses it.
// Finance pages are EUC-KR, search pages UTF-8; charset.NewReader handles both.
func (c *Client) fetchDocument(ctx context.Context, fullURL string) (*goquery.Document, error) {
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	doc.Url = resp.Request.URL

	return doc, nil
}

// parseNum parses "72,500" / "+1,200" style numbers; blanks and "-" are 0
func parseNum(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// toInt64 converts various types to int64
func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case int64:
		return val
	case int:
		return int64(val)
	case string:
		return parseNum(val)
	default:
		return 0
	}
}
