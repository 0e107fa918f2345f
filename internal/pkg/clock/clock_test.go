package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	c := NewFake(start)

	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	later := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestReal_UsesLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	c := NewReal(loc)
	assert.Equal(t, loc, c.Now().Location())

	var zero Real
	assert.Equal(t, time.UTC, zero.Now().Location())
}
