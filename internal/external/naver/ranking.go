package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RankingItem represents a single ranking item
type RankingItem struct {
	Rank      int
	StockCode string
	StockName string
}

// RankingCategory represents the type of ranking
type RankingCategory string

const (
	RankingHigh52Week  RankingCategory = "high52week"   // 52주 신고가
	RankingUpper       RankingCategory = "upper"        // 상승률
	RankingVolume      RankingCategory = "trading"      // 거래량상위
	RankingValue       RankingCategory = "tradingValue" // 거래대금상위
	RankingVolumeSurge RankingCategory = "quantHigh"    // 거래량급증
	RankingMarketCap   RankingCategory = "top"          // 시가총액 (검색상위 대용)
)

// ParseRankingCategory validates a configured category name
func ParseRankingCategory(s string) (RankingCategory, error) {
	cat := RankingCategory(s)
	if _, ok := mobileAPIEndpoints[cat]; ok {
		return cat, nil
	}
	if _, ok := stockAPIEndpoints[cat]; ok {
		return cat, nil
	}
	return "", fmt.Errorf("unknown ranking category: %s", s)
}

// API 타입 1: m.stock.naver.com (52주, 상승/하락)
var mobileAPIEndpoints = map[RankingCategory]string{
	RankingHigh52Week: "high52week",
	RankingUpper:      "up",
	RankingMarketCap:  "marketValue",
}

// API 타입 2: api.stock.naver.com (거래량, 거래대금, 거래량급증)
type stockAPIConfig struct {
	Type     string
	SortType string
}

var stockAPIEndpoints = map[RankingCategory]stockAPIConfig{
	RankingVolume:      {Type: "ALL", SortType: "ACC_TRADING_VOLUME"},
	RankingValue:       {Type: "ALL", SortType: "ACC_TRADING_VALUE"},
	RankingVolumeSurge: {Type: "ALL", SortType: "TRADING_VOLUME_INCREASE"},
}

// Mobile API response (m.stock.naver.com)
type mobileAPIResponse struct {
	StockListSortType     string            `json:"stockListSortType"`
	StockListCategoryType string            `json:"stockListCategoryType"`
	Stocks                []mobileStockItem `json:"stocks"`
}

type mobileStockItem struct {
	ItemCode  string `json:"itemCode"`
	StockName string `json:"stockName"`
}

// Stock API response (api.stock.naver.com)
type stockAPIResponse struct {
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalCount int            `json:"totalCount"`
	Stocks     []stockAPIItem `json:"stocks"`
}

type stockAPIItem struct {
	ItemCode  string `json:"itemCode"`
	StockName string `json:"stockName"`
}

// GetRanking fetches ranking data from Naver API
// Returns items in ranking order, at most pageSize
// market: "KOSPI" or "KOSDAQ"
func (c *Client) GetRanking(ctx context.Context, category RankingCategory, market string, pageSize int) ([]RankingItem, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}

	// Check mobile API first
	if endpoint, ok := mobileAPIEndpoints[category]; ok {
		return c.getRankingFromMobileAPI(ctx, endpoint, market, category, pageSize)
	}

	// Check stock API
	if config, ok := stockAPIEndpoints[category]; ok {
		return c.getRankingFromStockAPI(ctx, config, market, category, pageSize)
	}

	return nil, fmt.Errorf("unknown ranking category: %s", category)
}

// getRankingFromMobileAPI fetches from m.stock.naver.com
func (c *Client) getRankingFromMobileAPI(ctx context.Context, endpoint, market string, category RankingCategory, pageSize int) ([]RankingItem, error) {
	apiURL := fmt.Sprintf("%s/api/stocks/%s/%s?page=1&pageSize=%d", c.urls.MobileURL, endpoint, market, pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Referer", c.urls.MobileURL+"/")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var apiResp mobileAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]RankingItem, 0, len(apiResp.Stocks))
	for i, stock := range apiResp.Stocks {
		items = append(items, RankingItem{
			Rank:      i + 1,
			StockCode: stock.ItemCode,
			StockName: stock.StockName,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"category": category,
		"market":   market,
		"count":    len(items),
		"source":   "m.stock.naver.com",
	}).Debug("Fetched ranking from Naver Mobile API")

	return items, nil
}

// getRankingFromStockAPI fetches from api.stock.naver.com
func (c *Client) getRankingFromStockAPI(ctx context.Context, config stockAPIConfig, market string, category RankingCategory, pageSize int) ([]RankingItem, error) {
	apiURL := fmt.Sprintf(
		"%s/stock/exchange/%s?type=%s&sortType=%s&page=1&pageSize=%d",
		c.urls.StockAPI, market, config.Type, config.SortType, pageSize,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var apiResp stockAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]RankingItem, 0, len(apiResp.Stocks))
	for i, stock := range apiResp.Stocks {
		items = append(items, RankingItem{
			Rank:      i + 1,
			StockCode: stock.ItemCode,
			StockName: stock.StockName,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"category": category,
		"market":   market,
		"count":    len(items),
		"source":   "api.stock.naver.com",
	}).Debug("Fetched ranking from Naver Stock API")

	return items, nil
}
