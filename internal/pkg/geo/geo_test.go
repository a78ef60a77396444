package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSamePoint(t *testing.T) {
	d := DistanceM(3.1390, 101.6869, 3.1390, 101.6869)
	assert.InDelta(t, 0, d, 0.001)
}

func TestDistanceKnownOffset(t *testing.T) {
	// ~200m due north: one degree of latitude is ~111,195m on a 6371km sphere
	d := DistanceM(3.1390, 101.6869, 3.1390+200.0/111195.0, 101.6869)
	assert.InDelta(t, 200, d, 2) // ±1%
}

func TestDistanceLongRange(t *testing.T) {
	// KL to Singapore, roughly 296km
	d := DistanceM(3.1390, 101.6869, 1.3521, 103.8198)
	assert.InDelta(t, 296000, d, 10000)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(3.1390, 101.6869))
	assert.False(t, ValidCoordinates(math.NaN(), 101.6869))
	assert.False(t, ValidCoordinates(3.1390, math.NaN()))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, 181))
}
