package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 9, 1, h, m, 0, 0, time.UTC)
}

func TestNewIntervalRejectsNonPositiveRange(t *testing.T) {
	_, err := NewInterval(at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(at(11, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	iv, err := NewInterval(at(10, 0), at(11, 0))
	assert.NoError(t, err)
	assert.Equal(t, at(10, 0), iv.Start)
}

func TestOverlapsHalfOpen(t *testing.T) {
	a := Interval{Start: at(10, 0), End: at(11, 0)}

	// Touching at the boundary is not a conflict.
	assert.False(t, a.Overlaps(Interval{Start: at(11, 0), End: at(12, 0)}))
	assert.False(t, a.Overlaps(Interval{Start: at(9, 0), End: at(10, 0)}))

	// Partial overlap from either side.
	assert.True(t, a.Overlaps(Interval{Start: at(10, 30), End: at(11, 30)}))
	assert.True(t, a.Overlaps(Interval{Start: at(9, 30), End: at(10, 30)}))

	// Containment both ways.
	assert.True(t, a.Overlaps(Interval{Start: at(9, 0), End: at(12, 0)}))
	assert.True(t, a.Overlaps(Interval{Start: at(10, 15), End: at(10, 45)}))

	// Symmetry.
	b := Interval{Start: at(10, 30), End: at(11, 30)}
	assert.Equal(t, a.Overlaps(b), b.Overlaps(a))
}

func TestHoursTruncates(t *testing.T) {
	assert.Equal(t, int64(3), Interval{Start: at(10, 0), End: at(13, 0)}.Hours())
	assert.Equal(t, int64(2), Interval{Start: at(10, 0), End: at(12, 59)}.Hours())
	assert.Equal(t, int64(1), Interval{Start: at(10, 0), End: at(11, 30)}.Hours())
	assert.Equal(t, int64(0), Interval{Start: at(10, 0), End: at(10, 59)}.Hours())
}
