package clock_test

import (
	"roombook/shared/clock"
	"roombook/shared/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClock(t *testing.T) {
	now := clock.New().Now()

	assert.False(t, now.IsZero())
	assert.Equal(t, timezone.GetLocation(), now.Location())
}

func TestFixed(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	fixed := clock.NewFixed(start)

	assert.Equal(t, start, fixed.Now())

	fixed.Advance(61 * time.Minute)
	assert.Equal(t, start.Add(61*time.Minute), fixed.Now())

	later := start.Add(24 * time.Hour)
	fixed.Set(later)
	assert.Equal(t, later, fixed.Now())
}
