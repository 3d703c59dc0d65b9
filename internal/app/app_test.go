package app

import (
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/landscout/internal/config"
	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Keys:      config.APIKeys{Juso: "juso", Kakao: "kakao", OpenAPI: "open", Google: "google"},
		OutputDir: "/exports",
		Portal:    config.PortalConfig{Districts: []string{"11680"}},
		Geocoder:  config.GeocoderConfig{Type: "kakao", RateLimit: 10, RequestTimeout: time.Second},
		Apartment: config.ApartmentConfig{BatchSize: 500},
	}
}

func newTestRunner(cfg *config.Config) *Runner {
	return NewRunner(cfg, slog.Default(), metrics.NewMetrics(prometheus.NewRegistry()), nil)
}

func TestRunner_LandDefaults(t *testing.T) {
	runner := newTestRunner(testConfig())

	t.Run("empty options take the configuration", func(t *testing.T) {
		opts := runner.landDefaults(LandOptions{})

		assert.Equal(t, "juso", opts.JusoKey)
		assert.Equal(t, "kakao", opts.KakaoKey)
		assert.Equal(t, "/exports", opts.OutputDir)
		assert.Equal(t, []string{"11680"}, opts.Districts)
	})

	t.Run("request values win", func(t *testing.T) {
		opts := runner.landDefaults(LandOptions{JusoKey: "j2", KakaoKey: "k2", OutputDir: "/tmp", Districts: []string{"11650"}})

		assert.Equal(t, "j2", opts.JusoKey)
		assert.Equal(t, "k2", opts.KakaoKey)
		assert.Equal(t, "/tmp", opts.OutputDir)
		assert.Equal(t, []string{"11650"}, opts.Districts)
	})
}

func TestRunner_ApartmentDefaults(t *testing.T) {
	opts := newTestRunner(testConfig()).apartmentDefaults(ApartmentOptions{KakaoKey: "k2"})

	assert.Equal(t, "open", opts.APIKey)
	assert.Equal(t, "k2", opts.KakaoKey)
	assert.Equal(t, "/exports", opts.OutputDir)
	assert.Equal(t, 500, opts.BatchSize)
}

func TestRunner_RunApartmentsWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.Keys.OpenAPI = ""

	_, err := newTestRunner(cfg).RunApartments(t.Context(), ApartmentOptions{}, service.Discard)

	require.ErrorIs(t, err, ErrMissingKey)
}

func TestRunner_EnricherWithoutSources(t *testing.T) {
	cfg := testConfig()
	cfg.Geocoder.Type = "mapbox"
	runner := newTestRunner(cfg)

	enricher := runner.enricher(LandOptions{})
	got := enricher.Enrich(t.Context(), models.Row{"1", "강남구 삼성동 1"})

	assert.Equal(t, models.Row{"1", "강남구 삼성동 1", "", "", ""}, got)
}
