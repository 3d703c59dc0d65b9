package geocoding_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/landscout/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

type mockGoogleClient struct {
	mock.Mock
}

func (m *mockGoogleClient) Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	args := m.Called(ctx, r)
	results, _ := args.Get(0).([]maps.GeocodingResult)

	return results, args.Error(1)
}

func googleResult(lat, lng float64, name string) maps.GeocodingResult {
	return maps.GeocodingResult{
		FormattedAddress: name,
		Geometry:         maps.AddressGeometry{Location: maps.LatLng{Lat: lat, Lng: lng}},
	}
}

func TestGoogleRequest(t *testing.T) {
	req := geocoding.GoogleRequest("강남구 삼성동 1")

	assert.Equal(t, "강남구 삼성동 1", req.Address)
	assert.Equal(t, "kr", req.Region)
	assert.Equal(t, "ko", req.Language)
	assert.Equal(t, "KR", req.Components[maps.ComponentCountry])
	require.NotNil(t, req.Bounds)
	assert.Less(t, req.Bounds.SouthWest.Lat, req.Bounds.NorthEast.Lat)
}

func TestGoogleProvider_Geocode(t *testing.T) {
	ctx := t.Context()

	tests := []struct {
		name     string
		address  string
		results  []maps.GeocodingResult
		apiErr   error
		wantLat  float64
		wantLng  float64
		wantErr  error
		noCalled bool
	}{
		{
			name:    "first match inside Seoul",
			address: "서울 중구 세종대로 110",
			results: []maps.GeocodingResult{googleResult(37.5663, 126.9779, "서울특별시 중구 세종대로 110")},
			wantLat: 37.5663,
			wantLng: 126.9779,
		},
		{
			name:    "matches outside Seoul are skipped",
			address: "중구 세종대로 110",
			results: []maps.GeocodingResult{
				googleResult(35.1028, 129.0324, "부산광역시 중구"),
				googleResult(37.5663, 126.9779, "서울특별시 중구 세종대로 110"),
			},
			wantLat: 37.5663,
			wantLng: 126.9779,
		},
		{
			name:    "only matches outside Seoul",
			address: "중구 중앙대로 100",
			results: []maps.GeocodingResult{googleResult(35.1028, 129.0324, "부산광역시 중구")},
			wantErr: geocoding.ErrOutsideSeoul,
		},
		{name: "no results", address: "없는 주소", wantErr: geocoding.ErrEmptyResponse},
		{name: "api error", address: "강남구", apiErr: assert.AnError, wantErr: assert.AnError},
		{name: "empty address", wantErr: geocoding.ErrGoogleEmptyAddress, noCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockGoogleClient{}
			if !tt.noCalled {
				client.On("Geocode", ctx, geocoding.GoogleRequest(tt.address)).Return(tt.results, tt.apiErr).Once()
			}
			provider := geocoding.NewGoogleProvider(client, slog.Default())

			coords, err := provider.Geocode(ctx, tt.address)

			client.AssertExpectations(t)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, coords)
				return
			}
			require.NoError(t, err)
			assert.InEpsilon(t, tt.wantLat, coords.Latitude, 0.0001)
			assert.InEpsilon(t, tt.wantLng, coords.Longitude, 0.0001)
		})
	}
}
