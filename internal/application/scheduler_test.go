package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerRejectsInvalidSpec(t *testing.T) {
	_, err := NewScheduler("every day at ten", nil)
	require.Error(t, err)

	_, err = NewScheduler("0 10 * * * *", nil)
	assert.Error(t, err, "six fields is not a standard cron expression")
}

func TestNextActivationDailyAtTenUTC(t *testing.T) {
	s, err := NewScheduler("0 10 * * *", nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			"before ten fires same day",
			time.Date(2026, time.August, 25, 9, 59, 0, 0, time.UTC),
			time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC),
		},
		{
			"at ten fires next day",
			time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC),
			time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC),
		},
		{
			"after ten fires next day",
			time.Date(2026, time.August, 25, 18, 30, 0, 0, time.UTC),
			time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC),
		},
		{
			"month rollover",
			time.Date(2026, time.August, 31, 11, 0, 0, 0, time.UTC),
			time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.NextActivation(tt.from))
		})
	}
}

func TestNextActivationExactlyOncePerDay(t *testing.T) {
	s, err := NewScheduler("0 10 * * *", nil)
	require.NoError(t, err)

	// Walking activations forward always advances by exactly 24 hours.
	at := s.NextActivation(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 60; i++ {
		next := s.NextActivation(at)
		assert.Equal(t, 24*time.Hour, next.Sub(at))
		at = next
	}
}

func TestNextActivationNonUTCInput(t *testing.T) {
	s, err := NewScheduler("0 10 * * *", nil)
	require.NoError(t, err)

	est := time.FixedZone("EST", -5*3600)
	// 06:00 EST is 11:00 UTC, past today's activation.
	from := time.Date(2026, time.August, 25, 6, 0, 0, 0, est)

	got := s.NextActivation(from)
	assert.Equal(t, time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC), got)
}
