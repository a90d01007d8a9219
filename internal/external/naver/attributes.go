package naver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/redis"
)

const eok = int64(100_000_000) // 억

var marketSumRe = regexp.MustCompile(`(?:([\d,]+)\s*조)?\s*([\d,]+)?`)

// AttributeResolver reads sector and market cap from the item main page
type AttributeResolver struct {
	client *Client
}

// NewAttributeResolver creates a resolver on top of the client
func NewAttributeResolver(client *Client) *AttributeResolver {
	return &AttributeResolver{client: client}
}

// Resolve returns the candidate attributes. Missing fields come back as "other" / 0.
func (r *AttributeResolver) Resolve(ctx context.Context, code string) (contracts.Attributes, error) {
	c := r.client
	cacheKey := redis.MarketCapKey(code)

	var attrs contracts.Attributes
	if found, _ := c.cache.Get(ctx, cacheKey, &attrs); found {
		return attrs, nil
	}

	doc, err := c.fetchDocument(ctx, fmt.Sprintf("%s/item/main.naver?code=%s", c.urls.FinanceURL, code))
	if err != nil {
		return contracts.Attributes{Sector: contracts.SectorOther}, fmt.Errorf("attributes %s: %w", code, err)
	}

	attrs = parseItemMain(doc)
	if attrs.MarketCap == 0 {
		return attrs, fmt.Errorf("attributes %s: market cap not found: %w", code, contracts.ErrDataUnavailable)
	}

	if err := c.cache.Set(ctx, cacheKey, attrs, redis.TTLLong); err != nil {
		c.logger.WithError(err).Debug("Attribute cache write failed")
	}
	return attrs, nil
}

// parseItemMain extracts 업종 and 시가총액 from item/main.naver
func parseItemMain(doc *goquery.Document) contracts.Attributes {
	attrs := contracts.Attributes{Sector: contracts.SectorOther}

	if sector := strings.TrimSpace(doc.Find(".trade_compare h4 em a").First().Text()); sector != "" {
		attrs.Sector = sector
	}

	attrs.MarketCap = parseMarketSum(doc.Find("#_market_sum").First().Text())
	return attrs
}

// parseMarketSum converts "1,234조 5,678" (억 단위) into won
func parseMarketSum(text string) int64 {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return 0
	}

	m := marketSumRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	jo := parseNum(m[1])
	rest := parseNum(m[2])
	return (jo*10_000 + rest) * eok
}
