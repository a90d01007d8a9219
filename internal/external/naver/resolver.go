package naver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"

	"github.com/wonny/stockpick/pkg/redis"
)

var (
	codeParamRe = regexp.MustCompile(`code=(\d{6})`)
	sixDigitRe  = regexp.MustCompile(`^\d{6}$`)
)

// NameResolver maps a display name to a six-digit code via the finance search list.
// Best effort: the first listed match wins, no fuzzy matching.
type NameResolver struct {
	client *Client
}

// NewNameResolver creates a resolver on top of the client
func NewNameResolver(client *Client) *NameResolver {
	return &NameResolver{client: client}
}

// Resolve returns (code, true, nil) on a match and ("", false, nil) for an unknown name
func (r *NameResolver) Resolve(ctx context.Context, name string) (string, bool, error) {
	if sixDigitRe.MatchString(name) {
		return name, true, nil
	}

	c := r.client
	cacheKey := redis.ResolveKey(name)
	var code string
	if found, _ := c.cache.Get(ctx, cacheKey, &code); found {
		return code, true, nil
	}

	// searchList.naver 는 EUC-KR 쿼리를 기대함
	query := name
	if encoded, err := korean.EUCKR.NewEncoder().String(name); err == nil {
		query = encoded
	}

	fullURL := fmt.Sprintf("%s/search/searchList.naver?query=%s", c.urls.FinanceURL, url.QueryEscape(query))
	doc, err := c.fetchDocument(ctx, fullURL)
	if err != nil {
		return "", false, fmt.Errorf("resolve %q: %w", name, err)
	}

	code, ok := extractCode(doc)
	if !ok {
		c.logger.WithField("name", name).Debug("Name not resolved")
		return "", false, nil
	}

	if err := c.cache.Set(ctx, cacheKey, code, redis.TTLDaily); err != nil {
		c.logger.WithError(err).Debug("Resolve cache write failed")
	}
	return code, true, nil
}

// extractCode reads the code from an exact-match redirect or the first result row
func extractCode(doc *goquery.Document) (string, bool) {
	if doc.Url != nil {
		if m := codeParamRe.FindStringSubmatch(doc.Url.RawQuery); m != nil {
			return m[1], true
		}
	}

	href, ok := doc.Find("table tr td.tit a").First().Attr("href")
	if !ok {
		return "", false
	}
	m := codeParamRe.FindStringSubmatch(href)
	if m == nil {
		return "", false
	}
	return m[1], true
}
