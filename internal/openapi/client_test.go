package openapi_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UnknownOlympus/landscout/internal/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}, nil
}

func newClient(doFunc func(req *http.Request) (*http.Response, error)) *openapi.Client {
	return openapi.NewClientWithHTTP(&mockHTTPClient{doFunc: doFunc}, "sample key", slog.Default()).
		WithRetry(2, time.Millisecond)
}

func TestClient_Fetch(t *testing.T) {
	ctx := t.Context()

	t.Run("batch with records", func(t *testing.T) {
		client := newClient(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/sample%20key/json/OpenAptInfo/1/1000/", req.URL.EscapedPath())
			assert.Equal(t, "openapi.seoul.go.kr:8088", req.URL.Host)

			return respond(http.StatusOK, `{"OpenAptInfo":{"list_total_count":2,
				"RESULT":{"CODE":"INFO-000","MESSAGE":"정상 처리되었습니다"},
				"row":[{"SN":1,"APT_NM":"래미안","XCRD":127.05,"HMPG":null},{"SN":2,"APT_NM":"자이"}]}}`)
		})

		batch, err := client.Fetch(ctx, 1, 1000)

		require.NoError(t, err)
		assert.True(t, batch.Found)
		assert.Equal(t, 2, batch.Total)
		assert.Equal(t, "INFO-000", batch.Code)
		require.Len(t, batch.Records, 2)
		assert.Equal(t, openapi.Record{"SN": "1", "APT_NM": "래미안", "XCRD": "127.05", "HMPG": ""}, batch.Records[0])
	})

	t.Run("no dataset section", func(t *testing.T) {
		client := newClient(func(_ *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, `{"RESULT":{"CODE":"INFO-200","MESSAGE":"해당하는 데이터가 없습니다."}}`)
		})

		batch, err := client.Fetch(ctx, 2001, 3000)

		require.NoError(t, err)
		assert.False(t, batch.Found)
		assert.Equal(t, "INFO-200", batch.Code)
		assert.Equal(t, "해당하는 데이터가 없습니다.", batch.Message)
	})

	t.Run("transport errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newClient(func(_ *http.Request) (*http.Response, error) {
			if calls.Add(1) < 3 {
				return nil, assert.AnError
			}
			return respond(http.StatusOK, `{"OpenAptInfo":{"row":[]}}`)
		})

		batch, err := client.Fetch(ctx, 1, 10)

		require.NoError(t, err)
		assert.True(t, batch.Found)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		client := newClient(func(_ *http.Request) (*http.Response, error) {
			calls.Add(1)
			return respond(http.StatusServiceUnavailable, `busy`)
		})

		_, err := client.Fetch(ctx, 1, 10)

		require.ErrorIs(t, err, openapi.ErrUnexpectedStatus)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newClient(func(_ *http.Request) (*http.Response, error) {
			calls.Add(1)
			return respond(http.StatusBadRequest, `bad`)
		})

		_, err := client.Fetch(ctx, 1, 10)

		require.ErrorIs(t, err, openapi.ErrUnexpectedStatus)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("malformed json is not retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newClient(func(_ *http.Request) (*http.Response, error) {
			calls.Add(1)
			return respond(http.StatusOK, `<RESULT>`)
		})

		_, err := client.Fetch(ctx, 1, 10)

		assert.ErrorContains(t, err, "failed to decode registry response")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		client := newClient(func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		})

		_, err := client.Fetch(cctx, 1, 10)

		require.ErrorIs(t, err, context.Canceled)
	})
}
