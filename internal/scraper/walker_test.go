package scraper_test

import (
	"context"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/scraper"
	"github.com/UnknownOlympus/landscout/internal/scraper/scrapertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gangnam = models.District{Code: "11680", Name: "강남구"}

func searched(t *testing.T, pages ...string) *scrapertest.Portal {
	t.Helper()
	portal := scrapertest.NewPortal([]models.District{gangnam}, map[string][]string{gangnam.Code: pages})
	require.NoError(t, portal.Goto(t.Context(), "portal"))
	require.NoError(t, portal.Select(t.Context(), scraper.DistrictSelect, gangnam.Code))
	require.NoError(t, portal.Click(t.Context(), scraper.SearchButton))

	return portal
}

func TestWalker_Pages(t *testing.T) {
	logger := slog.Default()

	t.Run("stops after one page without next link", func(t *testing.T) {
		portal := searched(t,
			scrapertest.ResultsHTML([][]string{{"1", "a"}, {"2", "b"}}, nil, []int{1}),
			scrapertest.ResultsHTML([][]string{{"3", "c"}}, nil, nil),
		)
		walker := scraper.NewWalker(portal, time.Second, 0, logger)

		batches := slices.Collect(walker.Pages(t.Context()))

		require.Len(t, batches, 1)
		assert.Equal(t, 1, batches[0].Page)
		assert.Len(t, batches[0].Rows, 2)
	})

	t.Run("follows onclick then text links", func(t *testing.T) {
		portal := searched(t,
			scrapertest.ResultsHTML([][]string{{"1", "a"}}, []int{2}, nil),
			scrapertest.ResultsHTML([][]string{{"2", "b"}}, nil, []int{3}),
			scrapertest.ResultsHTML([][]string{{"3", "c"}}, nil, nil),
		)
		walker := scraper.NewWalker(portal, time.Second, 1500*time.Millisecond, logger)

		var rows []models.Row
		for batch := range walker.Pages(t.Context()) {
			rows = append(rows, batch.Rows...)
		}

		assert.Equal(t, []models.Row{{"1", "a"}, {"2", "b"}, {"3", "c"}}, rows)
		calls := portal.Calls()
		assert.Contains(t, calls, "click a[onclick*='fn_link_page(2)']")
		assert.Contains(t, calls, `click xpath=//a[normalize-space()="3"][not(ancestor::*[@id="resultList_pc"])]`)
		assert.Contains(t, calls, "pause 1.5s")
	})

	t.Run("no results ends the walk", func(t *testing.T) {
		portal := searched(t, scrapertest.NoResultsHTML())
		walker := scraper.NewWalker(portal, time.Second, 0, logger)

		assert.Empty(t, slices.Collect(walker.Pages(t.Context())))
	})

	t.Run("missing table ends the walk", func(t *testing.T) {
		portal := searched(t)
		walker := scraper.NewWalker(portal, time.Second, 0, logger)

		assert.Empty(t, slices.Collect(walker.Pages(t.Context())))
	})

	t.Run("cancelled context yields nothing", func(t *testing.T) {
		portal := searched(t, scrapertest.ResultsHTML([][]string{{"1", "a"}}, []int{2}, nil))
		walker := scraper.NewWalker(portal, time.Second, 0, logger)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		assert.Empty(t, slices.Collect(walker.Pages(ctx)))
	})

	t.Run("cancellation between pages", func(t *testing.T) {
		portal := searched(t,
			scrapertest.ResultsHTML([][]string{{"1", "a"}}, []int{2}, nil),
			scrapertest.ResultsHTML([][]string{{"2", "b"}}, nil, nil),
		)
		walker := scraper.NewWalker(portal, time.Second, 0, logger)
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		var pages []int
		for batch := range walker.Pages(ctx) {
			pages = append(pages, batch.Page)
			cancel()
		}

		assert.Equal(t, []int{1}, pages)
		assert.NotContains(t, portal.Calls(), "click a[onclick*='fn_link_page(2)']")
	})
}
