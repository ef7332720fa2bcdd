package service

import (
	"testing"
	"time"

	"carrental/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentalDays(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"OneMinute", start.Add(time.Minute), 1},
		{"ExactlyOneDay", start.Add(24 * time.Hour), 1},
		{"JustOverOneDay", start.Add(24*time.Hour + time.Millisecond), 2},
		{"TwoDays", start.AddDate(0, 0, 2), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RentalDays(start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := RentalDays(start, start)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestPricing_Quote(t *testing.T) {
	q, err := NewPricing(0.09).Quote(120, "2025-01-01", "2025-01-03")
	require.NoError(t, err)
	assert.Equal(t, 2, q.Days)
	assert.InDelta(t, 261.6, q.Total, 1e-9)

	q, err = NewPricing(0).Quote(100, "2025-01-01T00:00:00Z", "2025-01-04T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 3, q.Days)
	assert.InDelta(t, 300.0, q.Total, 1e-9)
	assert.Zero(t, q.GST)
}
