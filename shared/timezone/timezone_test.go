package timezone_test

import (
	"roombook/shared/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimezoneInit(t *testing.T) {
	assert.False(t, timezone.Now().IsZero())
	assert.NotNil(t, timezone.GetLocation())
}

func TestFormatAndParse(t *testing.T) {
	parsed, err := timezone.Parse(timezone.LayoutDate, "2026-01-05")
	require.NoError(t, err)

	assert.Equal(t, timezone.GetLocation(), parsed.Location())
	assert.Equal(t, "2026-01-05", timezone.Format(parsed, timezone.LayoutDate))
}

func TestCombine(t *testing.T) {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	clock := time.Date(0, 1, 1, 9, 30, 15, 0, time.UTC)

	got := timezone.Combine(date, clock)

	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 5, got.Day())
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 15, got.Second())
	assert.Equal(t, timezone.GetLocation(), got.Location())
}

func TestSQLTimestamp(t *testing.T) {
	instant := time.Date(2026, 1, 5, 10, 1, 0, 0, timezone.GetLocation())

	assert.Equal(t, "2026-01-05 10:01:00", timezone.SQLTimestamp(instant))
}
