package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, in, out time.Time) DateRange {
	t.Helper()
	dr, err := New(in, out)
	require.NoError(t, err)
	return dr
}

func TestNewNormalizesToUTCDate(t *testing.T) {
	kyiv := time.FixedZone("EEST", 3*60*60)
	in := time.Date(2024, 6, 1, 15, 30, 0, 0, kyiv)
	out := time.Date(2024, 6, 5, 9, 0, 0, 0, kyiv)

	dr, err := New(in, out)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 6, 1), dr.CheckIn)
	assert.Equal(t, date(2024, 6, 5), dr.CheckOut)
	assert.Equal(t, 4, dr.Nights())
}

func TestNewRejectsInvertedOrEmptyRange(t *testing.T) {
	_, err := New(date(2024, 6, 5), date(2024, 6, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(date(2024, 6, 5), date(2024, 6, 5))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, date(2024, 6, 5))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	stay := mustRange(t, date(2024, 6, 1), date(2024, 6, 5))

	// Shares the night of 06-04.
	assert.True(t, stay.Overlaps(mustRange(t, date(2024, 6, 4), date(2024, 6, 8))))
	// Starts on the check-out date: no shared night.
	assert.False(t, stay.Overlaps(mustRange(t, date(2024, 6, 5), date(2024, 6, 8))))
	// Ends on the check-in date.
	assert.False(t, stay.Overlaps(mustRange(t, date(2024, 5, 28), date(2024, 6, 1))))
	// Fully contained.
	assert.True(t, stay.Overlaps(mustRange(t, date(2024, 6, 2), date(2024, 6, 3))))
	// Fully containing.
	assert.True(t, stay.Overlaps(mustRange(t, date(2024, 5, 1), date(2024, 7, 1))))
	// Identical.
	assert.True(t, stay.Overlaps(stay))
	// Disjoint.
	assert.False(t, stay.Overlaps(mustRange(t, date(2024, 7, 1), date(2024, 7, 5))))
}

func TestContainsDate(t *testing.T) {
	stay := mustRange(t, date(2024, 6, 1), date(2024, 6, 5))

	assert.True(t, stay.ContainsDate(date(2024, 6, 1)))
	assert.True(t, stay.ContainsDate(date(2024, 6, 4)))
	assert.False(t, stay.ContainsDate(date(2024, 6, 5)))
	assert.False(t, stay.ContainsDate(date(2024, 5, 31)))
}

func TestAdjacent(t *testing.T) {
	stay := mustRange(t, date(2024, 6, 1), date(2024, 6, 5))

	assert.True(t, stay.Adjacent(mustRange(t, date(2024, 6, 5), date(2024, 6, 8))))
	assert.True(t, stay.Adjacent(mustRange(t, date(2024, 5, 28), date(2024, 6, 1))))
	assert.False(t, stay.Adjacent(mustRange(t, date(2024, 6, 6), date(2024, 6, 8))))
}

func TestString(t *testing.T) {
	stay := mustRange(t, date(2024, 6, 1), date(2024, 6, 5))
	assert.Equal(t, "2024-06-01..2024-06-05", stay.String())
}
