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
)

const newsHTML = `<html><body>
<ul class="list_news">
  <li><div class="news_area"><a class="news_tit" href="#">삼성전자, 3분기 실적 증가 </a></div></li>
  <li><div class="news_area"><a class="news_tit" href="#">삼성전자 신규 수주</a></div></li>
  <li><div class="news_area"><a class="news_tit" href="#">삼성전자, 3분기 실적 증가</a></div></li>
  <li><div class="news_area"><a class="news_tit" href="#"> </a></div></li>
  <li><div class="news_area"><a class="news_tit" href="#">반도체 업황 리스크</a></div></li>
  <li><div class="news_area"><a class="news_tit" href="#">네번째 제목</a></div></li>
</ul>
</body></html>`

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.naver", r.URL.Path)
		assert.Equal(t, "news", r.URL.Query().Get("where"))
		assert.Equal(t, "삼성전자 재료", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(newsHTML))
	}))
	defer server.Close()

	titles, err := newTestClient(server.URL).Search(context.Background(), "삼성전자 재료")
	require.NoError(t, err)

	// distinct, trimmed, bounded by DefaultMaxTitles
	assert.Equal(t, []string{
		"삼성전자, 3분기 실적 증가",
		"삼성전자 신규 수주",
		"반도체 업황 리스크",
	}, titles)
}

func TestSearch_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="not_found">검색결과가 없습니다</div></body></html>`))
	}))
	defer server.Close()

	titles, err := newTestClient(server.URL).Search(context.Background(), "없는종목")
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestSearch_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "삼성전자")
	assert.Error(t, err)
}

func TestExtractNewsTitles_FallbackSelector(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><a class="news_tit">제목1</a><a class="news_tit">제목2</a></div>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"제목1"}, extractNewsTitles(doc, 1))
}

func TestExtractKeywords(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
<div class="section_stock_market">
  <h3 class="tit"><a>2차전지</a></h3>
  <h3 class="tit"><a>반도체</a></h3>
  <h3 class="tit"><a>2차전지</a></h3>
  <h3 class="tit"><a>조선</a></h3>
</div>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"2차전지", "반도체"}, extractKeywords(doc, 2))
	assert.Equal(t, []string{"2차전지", "반도체", "조선"}, extractKeywords(doc, 0))
}
