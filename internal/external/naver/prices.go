package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/redis"
)

var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)`)

// FetchBars fetches OHLCV bars from the fchart siseJson endpoint.
// An empty result is returned as an empty slice with a nil error.
// ⭐ SSOT: Naver 시세 API 호출은 이 함수에서만
func (c *Client) FetchBars(ctx context.Context, code string, lookbackDays int, interval contracts.Interval) ([]contracts.Bar, error) {
	if interval == "" {
		interval = contracts.IntervalDay
	}

	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)

	cacheKey := redis.BarsKey(code, lookbackDays, string(interval), to.Format("2006-01-02"))
	var cached []contracts.Bar
	if found, err := c.cache.Get(ctx, cacheKey, &cached); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Debug("Bar cache read failed")
	} else if found {
		return cached, nil
	}

	fullURL := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=%s",
		c.urls.ChartURL, code, from.Format("20060102"), to.Format("20060102"), interval,
	)

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", code, err)
	}

	bars := parsePriceResponse(string(body))

	if err := c.cache.Set(ctx, cacheKey, bars, redis.TTLMedium); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Debug("Bar cache write failed")
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"count":      len(bars),
	}).Debug("Fetched bars")
	return bars, nil
}

// parsePriceResponse parses the siseJson body (single-quoted JSON-ish array).
// Rows are returned ascending by date with negative or zero-close rows dropped.
func parsePriceResponse(body string) []contracts.Bar {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var bars []contracts.Bar
	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		bars = parsePriceJSON(rawData)
	} else {
		bars = parsePriceRegex(body)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars
}

// parsePriceJSON parses JSON array format
func parsePriceJSON(rawData [][]interface{}) []contracts.Bar {
	bars := make([]contracts.Bar, 0, len(rawData))
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // Skip header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(strings.Trim(dateStr, "\"")))
		if err != nil {
			continue
		}

		bar := contracts.Bar{
			Date:   tradeDate,
			Open:   toInt64(row[1]),
			High:   toInt64(row[2]),
			Low:    toInt64(row[3]),
			Close:  toInt64(row[4]),
			Volume: toInt64(row[5]),
		}
		if validBar(bar) {
			bars = append(bars, bar)
		}
	}
	return bars
}

// parsePriceRegex parses using regex (fallback)
func parsePriceRegex(body string) []contracts.Bar {
	matches := priceRowRe.FindAllStringSubmatch(body, -1)

	bars := make([]contracts.Bar, 0, len(matches))
	for _, match := range matches {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		openPrice, _ := strconv.ParseInt(match[2], 10, 64)
		highPrice, _ := strconv.ParseInt(match[3], 10, 64)
		lowPrice, _ := strconv.ParseInt(match[4], 10, 64)
		closePrice, _ := strconv.ParseInt(match[5], 10, 64)
		volume, _ := strconv.ParseInt(match[6], 10, 64)

		bar := contracts.Bar{
			Date:   tradeDate,
			Open:   openPrice,
			High:   highPrice,
			Low:    lowPrice,
			Close:  closePrice,
			Volume: volume,
		}
		if validBar(bar) {
			bars = append(bars, bar)
		}
	}
	return bars
}

func validBar(b contracts.Bar) bool {
	return b.Close > 0 && b.Open >= 0 && b.High >= 0 && b.Low >= 0 && b.Volume >= 0
}
