package telemetry

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// DaylightSnapshot describes sun conditions at a moment, attached to context
// events so downstream consumers can separate natural from artificial light.
type DaylightSnapshot struct {
	SunAltitudeDeg        float64 `json:"sun_altitude_deg"`
	TheoreticalOutdoorLux float64 `json:"theoretical_outdoor_lux"`
	IsDaytime             bool    `json:"is_daytime"`
}

// ComputeDaylight calculates the sun position for the given coordinates and
// a rough theoretical outdoor lux. At 90° altitude the clear-sky maximum is
// taken as ~120,000 lux; this is a simplified model, not a radiometric one.
func ComputeDaylight(lat, lon float64, t time.Time) DaylightSnapshot {
	position := suncalc.GetPosition(t, lat, lon)

	altitudeDegrees := position.Altitude * (180.0 / math.Pi)

	var theoreticalLux float64
	if altitudeDegrees > 0 {
		theoreticalLux = 120000.0 * math.Sin(position.Altitude)
		if theoreticalLux < 0 {
			theoreticalLux = 0
		}
	}

	return DaylightSnapshot{
		SunAltitudeDeg:        altitudeDegrees,
		TheoreticalOutdoorLux: theoreticalLux,
		IsDaytime:             altitudeDegrees > 0,
	}
}
