package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_NormalizesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	checkIn := time.Date(2026, 3, 10, 15, 30, 0, 0, loc)
	checkOut := time.Date(2026, 3, 12, 9, 0, 0, 0, loc)

	dr, err := New(checkIn, checkOut)
	require.NoError(t, err)
	assert.Equal(t, day(2026, 3, 10), dr.CheckIn)
	assert.Equal(t, day(2026, 3, 12), dr.CheckOut)
}

func TestNew_RejectsInvertedAndZeroLengthRanges(t *testing.T) {
	_, err := New(day(2026, 3, 12), day(2026, 3, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	// Same calendar day after truncation, even with different clock times.
	_, err = New(
		time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC),
	)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNights(t *testing.T) {
	dr, err := New(day(2026, 6, 1), day(2026, 6, 8))
	require.NoError(t, err)
	assert.Equal(t, 7, dr.Nights())

	one, err := New(day(2026, 6, 1), day(2026, 6, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, one.Nights())
}

func TestOverlaps(t *testing.T) {
	base, err := New(day(2026, 6, 10), day(2026, 6, 15))
	require.NoError(t, err)

	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     bool
	}{
		{"identical", day(2026, 6, 10), day(2026, 6, 15), true},
		{"contained", day(2026, 6, 11), day(2026, 6, 13), true},
		{"overlaps start", day(2026, 6, 8), day(2026, 6, 11), true},
		{"overlaps end", day(2026, 6, 14), day(2026, 6, 20), true},
		{"surrounds", day(2026, 6, 1), day(2026, 6, 30), true},
		{"touches at check-out", day(2026, 6, 15), day(2026, 6, 18), false},
		{"touches at check-in", day(2026, 6, 5), day(2026, 6, 10), false},
		{"fully before", day(2026, 6, 1), day(2026, 6, 5), false},
		{"fully after", day(2026, 6, 20), day(2026, 6, 25), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			other, err := New(tc.checkIn, tc.checkOut)
			require.NoError(t, err)
			assert.Equal(t, tc.want, base.Overlaps(other))
			assert.Equal(t, tc.want, other.Overlaps(base))
		})
	}
}

func TestDays_ExcludesCheckOut(t *testing.T) {
	dr, err := New(day(2026, 6, 1), day(2026, 6, 4))
	require.NoError(t, err)

	days := dr.Days()
	require.Len(t, days, 3)
	assert.Equal(t, day(2026, 6, 1), days[0])
	assert.Equal(t, day(2026, 6, 3), days[2])
}
