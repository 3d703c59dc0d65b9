package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/openapi"
	"github.com/UnknownOlympus/landscout/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeRegistry serves a fixed number of records in batches.
type fakeRegistry struct {
	total   int
	calls   [][2]int
	failAt  int // failAt is the 1-based call that returns an error; zero never fails.
	message string
}

func (f *fakeRegistry) Fetch(_ context.Context, start, end int) (*openapi.Batch, error) {
	f.calls = append(f.calls, [2]int{start, end})
	if f.failAt == len(f.calls) {
		return nil, assert.AnError
	}
	if start > f.total {
		return &openapi.Batch{Code: "INFO-200", Message: f.message}, nil
	}

	var records []openapi.Record
	for i := start; i <= min(end, f.total); i++ {
		records = append(records, openapi.Record{
			"SN":           fmt.Sprint(i),
			"APT_NM":       fmt.Sprintf("아파트%d", i),
			"APT_RDN_ADDR": fmt.Sprintf("서울특별시 강남구 테헤란로 %d", i),
		})
	}

	return &openapi.Batch{Found: true, Code: "INFO-000", Total: f.total, Records: records}, nil
}

type mockJibun struct {
	mock.Mock
}

func (m *mockJibun) JibunAddress(ctx context.Context, road string) (string, error) {
	args := m.Called(ctx, road)
	return args.String(0), args.Error(1)
}

func newApartmentJob(fetcher service.Fetcher, jibun service.JibunLookup, writer service.Writer) *service.ApartmentJob {
	return service.NewApartmentJob(fetcher, jibun, writer, nil,
		metrics.NewMetrics(prometheus.NewRegistry()), slog.Default()).WithBatchPause(0)
}

func TestApartmentJob_Batches(t *testing.T) {
	t.Run("short batch ends the collection", func(t *testing.T) {
		registry := &fakeRegistry{total: 5}
		writer := &mockWriter{}
		var written []models.Row
		writer.On("Write", mock.Anything, models.ApartmentDataset, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { written = args.Get(3).([]models.Row) }).
			Return("/out/apt.csv", nil).Once()

		res, err := newApartmentJob(registry, nil, writer).
			Run(t.Context(), service.ApartmentConfig{BatchSize: 2}, service.Discard)

		require.NoError(t, err)
		assert.Equal(t, service.Result{Rows: 5, OutputPath: "/out/apt.csv"}, res)
		assert.Equal(t, [][2]int{{1, 2}, {3, 4}, {5, 6}}, registry.calls)
		require.Len(t, written, 5)
		assert.Equal(t, "5", written[4][0])
	})

	t.Run("missing dataset section ends the collection", func(t *testing.T) {
		registry := &fakeRegistry{total: 4, message: "해당하는 데이터가 없습니다."}
		writer := &mockWriter{}
		writer.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("/out/apt.csv", nil).Once()

		res, err := newApartmentJob(registry, nil, writer).
			Run(t.Context(), service.ApartmentConfig{BatchSize: 2}, service.Discard)

		require.NoError(t, err)
		assert.Equal(t, 4, res.Rows)
		assert.Equal(t, [][2]int{{1, 2}, {3, 4}, {5, 6}}, registry.calls)
	})

	t.Run("request failure keeps what was collected", func(t *testing.T) {
		registry := &fakeRegistry{total: 10, failAt: 2}
		writer := &mockWriter{}
		writer.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("/out/apt.csv", nil).Once()

		res, err := newApartmentJob(registry, nil, writer).
			Run(t.Context(), service.ApartmentConfig{BatchSize: 3}, service.Discard)

		require.NoError(t, err)
		assert.Equal(t, 3, res.Rows)
		assert.Len(t, registry.calls, 2)
	})

	t.Run("empty registry writes no file", func(t *testing.T) {
		writer := &mockWriter{}

		res, err := newApartmentJob(&fakeRegistry{}, nil, writer).
			Run(t.Context(), service.ApartmentConfig{}, service.Discard)

		require.NoError(t, err)
		assert.Zero(t, res)
		writer.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled run writes nothing", func(t *testing.T) {
		writer := &mockWriter{}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := newApartmentJob(&fakeRegistry{total: 5}, nil, writer).
			Run(ctx, service.ApartmentConfig{}, service.Discard)

		require.ErrorIs(t, err, context.Canceled)
		writer.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApartmentJob_Header(t *testing.T) {
	registry := &fakeRegistry{total: 1}
	writer := &mockWriter{}
	var header []string
	var rows []models.Row
	writer.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			header = args.Get(2).([]string)
			rows = args.Get(3).([]models.Row)
		}).
		Return("/out/apt.csv", nil).Once()

	extra := &extraFieldRegistry{fakeRegistry: registry}
	_, err := newApartmentJob(extra, nil, writer).Run(t.Context(), service.ApartmentConfig{BatchSize: 5}, service.Discard)

	require.NoError(t, err)
	require.Len(t, header, len(models.ApartmentColumns)+2)
	assert.Equal(t, "번호", header[0])
	assert.Equal(t, "도로명주소", header[5])
	assert.Equal(t, []string{"A_NEW", "Z_NEW"}, header[len(header)-2:])
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(header))
	assert.Equal(t, "서울특별시 강남구 테헤란로 1", rows[0][5])
	assert.Equal(t, []string{"a", "z"}, []string(rows[0][len(header)-2:]))
	assert.Empty(t, rows[0][1], "missing fields are blank")
}

// extraFieldRegistry adds fields the column mapping does not know.
type extraFieldRegistry struct {
	*fakeRegistry
}

func (e *extraFieldRegistry) Fetch(ctx context.Context, start, end int) (*openapi.Batch, error) {
	batch, err := e.fakeRegistry.Fetch(ctx, start, end)
	if err != nil || !batch.Found {
		return batch, err
	}
	for _, rec := range batch.Records {
		rec["Z_NEW"] = "z"
		rec["A_NEW"] = "a"
	}

	return batch, nil
}

func TestApartmentJob_Jibun(t *testing.T) {
	registry := &fakeRegistry{total: 2}
	jibun := &mockJibun{}
	jibun.On("JibunAddress", mock.Anything, "서울특별시 강남구 테헤란로 1").Return("서울 강남구 역삼동 1", nil).Once()
	jibun.On("JibunAddress", mock.Anything, "서울특별시 강남구 테헤란로 2").Return("", assert.AnError).Once()

	writer := &mockWriter{}
	var header []string
	var rows []models.Row
	writer.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			header = args.Get(2).([]string)
			rows = args.Get(3).([]models.Row)
		}).
		Return("/out/apt.csv", nil).Once()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	job := service.NewApartmentJob(registry, jibun, writer, nil, m, slog.Default()).WithBatchPause(0)

	res, err := job.Run(t.Context(), service.ApartmentConfig{BatchSize: 10}, service.Discard)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, models.ApartmentJibunColumn, header[len(header)-1])
	assert.Equal(t, "서울 강남구 역삼동 1", rows[0][len(header)-1])
	assert.Empty(t, rows[1][len(header)-1], "failed lookups leave the cell blank")
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues("kakao_jibun", "success")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues("kakao_jibun", "failure")), 0)
	jibun.AssertExpectations(t)
}
