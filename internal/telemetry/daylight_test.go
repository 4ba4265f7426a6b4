package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	helsinkiLat = 60.1695
	helsinkiLon = 24.9354
)

func TestComputeDaylight_SummerNoon(t *testing.T) {
	noon := time.Date(2025, 6, 21, 12, 0, 0, 0, time.FixedZone("EEST", 3*3600))

	snapshot := ComputeDaylight(helsinkiLat, helsinkiLon, noon)

	assert.True(t, snapshot.IsDaytime)
	assert.Greater(t, snapshot.SunAltitudeDeg, 40.0)
	assert.Greater(t, snapshot.TheoreticalOutdoorLux, 0.0)
}

func TestComputeDaylight_WinterMidnight(t *testing.T) {
	midnight := time.Date(2025, 12, 21, 0, 0, 0, 0, time.FixedZone("EET", 2*3600))

	snapshot := ComputeDaylight(helsinkiLat, helsinkiLon, midnight)

	assert.False(t, snapshot.IsDaytime)
	assert.Less(t, snapshot.SunAltitudeDeg, 0.0)
	assert.Equal(t, 0.0, snapshot.TheoreticalOutdoorLux)
}

func TestComputeDaylight_AltitudeBounds(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		at := time.Date(2025, 3, 20, hour, 0, 0, 0, time.UTC)
		snapshot := ComputeDaylight(helsinkiLat, helsinkiLon, at)

		assert.GreaterOrEqual(t, snapshot.SunAltitudeDeg, -90.0)
		assert.LessOrEqual(t, snapshot.SunAltitudeDeg, 90.0)
		assert.GreaterOrEqual(t, snapshot.TheoreticalOutdoorLux, 0.0)
	}
}
