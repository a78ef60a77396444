package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeLevel(t *testing.T) {
	// doubling curve from base 100: level 2 at 100, level 3 at 300, level 4 at 700
	cases := []struct {
		totalXP int
		level   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{699, 3},
		{700, 4},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, RecomputeLevel(tc.totalXP, 100, 30), "totalXP=%d", tc.totalXP)
	}
}

func TestRecomputeLevelCap(t *testing.T) {
	assert.Equal(t, 3, RecomputeLevel(1_000_000, 100, 3))
	assert.Equal(t, 1, RecomputeLevel(1_000_000, 100, 1))
}

func TestRecomputeLevelDegenerateCurve(t *testing.T) {
	assert.Equal(t, 1, RecomputeLevel(500, 0, 30))
	assert.Equal(t, 1, RecomputeLevel(500, -10, 30))
	assert.Equal(t, 1, RecomputeLevel(500, 100, 0))
}

func TestRecomputeLevelMonotonic(t *testing.T) {
	previous := 0
	for xp := 0; xp <= 10_000; xp += 50 {
		level := RecomputeLevel(xp, 100, 30)
		assert.GreaterOrEqual(t, level, previous, "level dropped at xp=%d", xp)
		previous = level
	}
}
