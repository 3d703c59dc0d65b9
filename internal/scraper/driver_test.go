package scraper_test

import (
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/UnknownOlympus/landscout/internal/daterange"
	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/scraper"
	"github.com/UnknownOlympus/landscout/internal/scraper/scrapertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_Districts(t *testing.T) {
	logger := slog.Default()
	cfg := scraper.DriverConfig{URL: "https://portal.test/contractStatus.do"}

	t.Run("options from the form without citywide", func(t *testing.T) {
		districts := []models.District{gangnam, {Code: "11650", Name: "서초구"}}
		driver := scraper.NewDriver(scrapertest.NewPortal(districts, nil), cfg, logger)

		got, err := driver.Districts(t.Context(), nil)

		require.NoError(t, err)
		assert.Equal(t, districts, got)
	})

	t.Run("literal list when the form has none", func(t *testing.T) {
		driver := scraper.NewDriver(scrapertest.NewPortal(nil, nil), cfg, logger)

		got, err := driver.Districts(t.Context(), nil)

		require.NoError(t, err)
		assert.Equal(t, models.SeoulDistricts, got)
	})

	t.Run("filter by code", func(t *testing.T) {
		driver := scraper.NewDriver(scrapertest.NewPortal(nil, nil), cfg, logger)

		got, err := driver.Districts(t.Context(), []string{"11680", "11110"})

		require.NoError(t, err)
		assert.Equal(t, []string{"11110", "11680"}, codes(got))
	})

	t.Run("form never loads", func(t *testing.T) {
		portal := scrapertest.NewPortal(nil, nil)
		portal.Landing = "<html></html>"
		driver := scraper.NewDriver(portal, cfg, logger)

		_, err := driver.Districts(t.Context(), nil)

		require.ErrorIs(t, err, scrapertest.ErrNotVisible)
	})
}

func TestDriver_Search(t *testing.T) {
	rng, err := daterange.Parse("2025-11-01", "2025-11-05", daterange.DefaultMaxSpanDays)
	require.NoError(t, err)

	portal := scrapertest.NewPortal([]models.District{gangnam}, map[string][]string{
		gangnam.Code: {scrapertest.ResultsHTML([][]string{{"1", "강남구 삼성동 159"}}, nil, nil)},
	})
	driver := scraper.NewDriver(portal, scraper.DriverConfig{
		URL:         "https://portal.test/contractStatus.do",
		DateLayout:  daterange.CompactLayout,
		SearchPause: 2 * time.Second,
	}, slog.Default())

	require.NoError(t, driver.Search(t.Context(), gangnam, rng))
	batches := slices.Collect(driver.Pages(t.Context()))

	assert.Equal(t, "20251101", portal.Filled(scraper.StartDateInput))
	assert.Equal(t, "20251105", portal.Filled(scraper.EndDateInput))
	assert.Equal(t, []string{
		"goto https://portal.test/contractStatus.do",
		"select #selectSigungu=11680",
		"fill #changeBgnde=20251101",
		"fill #changeEndde=20251105",
		"click #search",
		"pause 2s",
	}, portal.Calls())
	require.Len(t, batches, 1)
	assert.Equal(t, models.Row{"1", "강남구 삼성동 159"}, batches[0].Rows[0])
}

func codes(districts []models.District) []string {
	out := make([]string, 0, len(districts))
	for _, d := range districts {
		out = append(out, d.Code)
	}

	return out
}
