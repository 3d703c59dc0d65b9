package scraper_test

import (
	"testing"

	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/scraper"
	"github.com/UnknownOlympus/landscout/internal/scraper/scrapertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResultPage(t *testing.T) {
	t.Run("rows with one cell or less are dropped", func(t *testing.T) {
		html := `<table><tbody id="resultList_pc">
			<tr><th>연번</th><th>주소</th></tr>
			<tr><td>1</td><td>  강남구   삼성동 159 </td><td>대</td></tr>
			<tr><td colspan="3">구분선</td></tr>
			<tr></tr>
			<tr><td>2</td><td>강남구 대치동 1</td><td>전</td></tr>
		</tbody></table>`

		page, err := scraper.ParseResultPage(html)

		require.NoError(t, err)
		assert.True(t, page.TableFound)
		assert.False(t, page.NoResults)
		assert.Equal(t, []models.Row{
			{"1", "강남구 삼성동 159", "대"},
			{"2", "강남구 대치동 1", "전"},
		}, page.Rows)
	})

	t.Run("no results marker", func(t *testing.T) {
		page, err := scraper.ParseResultPage(scrapertest.NoResultsHTML())

		require.NoError(t, err)
		assert.True(t, page.TableFound)
		assert.True(t, page.NoResults)
		assert.Empty(t, page.Rows)
	})

	t.Run("empty table", func(t *testing.T) {
		page, err := scraper.ParseResultPage(`<table><tbody id="resultList_pc"></tbody></table>`)

		require.NoError(t, err)
		assert.True(t, page.NoResults)
	})

	t.Run("missing table", func(t *testing.T) {
		page, err := scraper.ParseResultPage(`<html><body><p>점검 중</p></body></html>`)

		require.NoError(t, err)
		assert.False(t, page.TableFound)
	})

	t.Run("decomposed hangul is normalized", func(t *testing.T) {
		decomposed := "\u1100\u1161\u11bc\u1102\u1161\u11b7" // 강남 as jamo
		page, err := scraper.ParseResultPage(scrapertest.ResultsHTML([][]string{{"1", decomposed}}, nil, nil))

		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "강남", page.Rows[0][1])
	})
}

func TestResultPage_NextPageSelector(t *testing.T) {
	rows := [][]string{{"1", "a"}}

	t.Run("onclick handler wins", func(t *testing.T) {
		page, err := scraper.ParseResultPage(scrapertest.ResultsHTML(rows, []int{2}, []int{2}))
		require.NoError(t, err)

		sel, ok := page.NextPageSelector(2)

		assert.True(t, ok)
		assert.Equal(t, "a[onclick*='fn_link_page(2)']", sel)
	})

	t.Run("link text fallback", func(t *testing.T) {
		page, err := scraper.ParseResultPage(scrapertest.ResultsHTML(rows, nil, []int{3}))
		require.NoError(t, err)

		sel, ok := page.NextPageSelector(3)

		assert.True(t, ok)
		assert.Equal(t, `xpath=//a[normalize-space()="3"][not(ancestor::*[@id="resultList_pc"])]`, sel)
	})

	t.Run("text must match exactly", func(t *testing.T) {
		page, err := scraper.ParseResultPage(scrapertest.ResultsHTML(rows, nil, []int{12}))
		require.NoError(t, err)

		_, ok := page.NextPageSelector(2)

		assert.False(t, ok)
	})

	t.Run("links inside the results table are not page links", func(t *testing.T) {
		html := `<html><body><table><tbody id="resultList_pc">
			<tr><td><a href="/detail/1">1</a></td><td>a</td></tr>
			<tr><td><a href="/detail/2">2</a></td><td>b</td></tr>
		</tbody></table></body></html>`
		page, err := scraper.ParseResultPage(html)
		require.NoError(t, err)

		_, ok := page.NextPageSelector(2)

		assert.False(t, ok)
	})

	t.Run("page link found after a linked serial number", func(t *testing.T) {
		html := `<html><body><table><tbody id="resultList_pc">
			<tr><td><a href="/detail/2">2</a></td><td>b</td></tr>
		</tbody></table><div class="paging"><a href="?pageIndex=2">2</a></div></body></html>`
		page, err := scraper.ParseResultPage(html)
		require.NoError(t, err)

		sel, ok := page.NextPageSelector(2)

		assert.True(t, ok)
		assert.Contains(t, sel, `not(ancestor::*[@id="resultList_pc"])`)
	})

	t.Run("no link", func(t *testing.T) {
		page, err := scraper.ParseResultPage(scrapertest.ResultsHTML(rows, nil, nil))
		require.NoError(t, err)

		_, ok := page.NextPageSelector(2)

		assert.False(t, ok)
	})
}

func TestParseDistricts(t *testing.T) {
	districts := []models.District{{Code: "11680", Name: "강남구"}, {Code: "11650", Name: "서초구"}}

	got, err := scraper.ParseDistricts(scrapertest.LandingHTML(districts))

	require.NoError(t, err)
	assert.Equal(t, districts, got)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", scraper.CleanText("\n\t a   b\n\nc  "))
	assert.Empty(t, scraper.CleanText("   "))
}
