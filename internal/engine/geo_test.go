package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKmZeroDistance(t *testing.T) {
	for _, p := range []Point{{0, 0}, {28.4636, -16.2518}, {-45.0, 170.5}} {
		assert.Zero(t, HaversineKm(p.Lat, p.Lon, p.Lat, p.Lon))
	}
}

func TestHaversineKmKnownDistance(t *testing.T) {
	// Santa Cruz de Tenerife to Guía de Isora, roughly 41.6 km
	d := HaversineKm(28.4636, -16.2518, 28.2916, -16.6291)
	assert.InDelta(t, 41.6, d, 0.4)
}

func TestHaversineKmSymmetry(t *testing.T) {
	a := HaversineKm(28.4636, -16.2518, 28.2916, -16.6291)
	b := HaversineKm(28.2916, -16.6291, 28.4636, -16.2518)
	assert.InDelta(t, a, b, 1e-9)
}
