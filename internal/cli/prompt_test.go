package cli_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/UnknownOlympus/landscout/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptRange(t *testing.T) {
	t.Run("valid range is echoed", func(t *testing.T) {
		var out bytes.Buffer

		rng, err := cli.PromptRange(strings.NewReader("2025-11-01\n2025-11-05\n"), &out, 60)

		require.NoError(t, err)
		assert.Equal(t, "2025-11-01 ~ 2025-11-05 (5 days)", rng.String())
		assert.Contains(t, out.String(), "Search period: 2025-11-01 ~ 2025-11-05 (5 days)")
	})

	t.Run("re-prompts until valid", func(t *testing.T) {
		var out bytes.Buffer
		input := strings.Join([]string{
			"2025-11-05", "2025-11-01", // start after end
			"2025-01-01", "2025-11-05", // too long
			"11/01/2025", "2025-11-05", // bad format
			" 20251101 ", "20251105",
		}, "\n") + "\n"

		rng, err := cli.PromptRange(strings.NewReader(input), &out, 60)

		require.NoError(t, err)
		assert.Equal(t, 4, rng.SpanDays())
		assert.Equal(t, 4, strings.Count(out.String(), "Start date: "))
		assert.Contains(t, out.String(), "the start date is after the end date")
		assert.Contains(t, out.String(), "date range exceeds the maximum span")
		assert.Contains(t, out.String(), "dates must be in YYYY-MM-DD format")
	})

	t.Run("input ends", func(t *testing.T) {
		_, err := cli.PromptRange(strings.NewReader("2025-11-01\n"), io.Discard, 60)

		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}
