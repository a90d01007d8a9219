package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
)

func TestNameResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/searchList.naver":
			if strings.Contains(r.URL.RawQuery, "query=%") {
				w.Write([]byte(`<table><tr><td class="tit"><a href="/item/main.naver?code=086520">에코프로</a></td></tr></table>`))
				return
			}
			w.Write([]byte(`<table></table>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	r := NewNameResolver(newTestClient(server.URL))
	ctx := context.Background()

	code, ok, err := r.Resolve(ctx, "에코프로")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "086520", code)

	// ascii name → empty table → unknown, not an error
	code, ok, err = r.Resolve(ctx, "nothing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, code)
}

func TestNameResolver_CodePassthrough(t *testing.T) {
	r := NewNameResolver(newTestClient("http://127.0.0.1:0"))

	code, ok, err := r.Resolve(context.Background(), "005930")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "005930", code)
}

func TestNameResolver_Redirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search/searchList.naver" {
			http.Redirect(w, r, "/item/main.naver?code=000660", http.StatusFound)
			return
		}
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	code, ok, err := NewNameResolver(newTestClient(server.URL)).Resolve(context.Background(), "SK하이닉스")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "000660", code)
}

func TestParseMarketSum(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"1,234조 5,678", (1234*10_000 + 5678) * eok},
		{"\n\t 437조\n 2,514 ", (437*10_000 + 2514) * eok},
		{"5,678", 5678 * eok},
		{"", 0},
		{"N/A", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMarketSum(tt.text))
		})
	}
}

func TestAttributeResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("code") {
		case "005930":
			w.Write([]byte(`<html><body>
<em id="_market_sum">437조 2,514</em>
<div class="section trade_compare"><h4 class="h_sub sub_tit7"><em><a href="#">반도체와반도체장비</a></em></h4></div>
</body></html>`))
		default:
			w.Write([]byte(`<html><body></body></html>`))
		}
	}))
	defer server.Close()

	r := NewAttributeResolver(newTestClient(server.URL))
	ctx := context.Background()

	attrs, err := r.Resolve(ctx, "005930")
	require.NoError(t, err)
	assert.Equal(t, "반도체와반도체장비", attrs.Sector)
	assert.Equal(t, (437*10_000+2514)*eok, attrs.MarketCap)

	attrs, err = r.Resolve(ctx, "999999")
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
	assert.Equal(t, contracts.SectorOther, attrs.Sector)
	assert.Zero(t, attrs.MarketCap)
}

func TestExtractCode_NoMatch(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<table><tr><td class="tit"><a href="/item/main.naver">x</a></td></tr></table>`))
	require.NoError(t, err)

	_, ok := extractCode(doc)
	assert.False(t, ok)
}
