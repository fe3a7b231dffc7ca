package cugnssgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEcef2Pos_Pos2EcefRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		latDeg := rapid.Float64Range(-89, 89).Draw(rt, "lat")
		lonDeg := rapid.Float64Range(-180, 180).Draw(rt, "lon")
		h := rapid.Float64Range(-1000, 20000).Draw(rt, "h")

		lat := latDeg * PI / 180
		lon := lonDeg * PI / 180

		x, y, z := Pos2Ecef(lat, lon, h)
		lat2, lon2, h2, err := Ecef2Pos(x, y, z)
		require.NoError(t, err)

		assert.InDelta(t, lat, lat2, 1e-7*PI/180)
		assert.InDelta(t, lon, lon2, 1e-7*PI/180)
		assert.InDelta(t, h, h2, 1e-3)
	})
}

func TestTopocentricAzEl_DirectlyOverheadIsNinety(t *testing.T) {
	lat, lon := 0.0, 0.0
	// At lat=0, lon=0 local "up" is the ECEF +x axis.
	_, el := TopocentricAzEl(lat, lon, [3]float64{1000, 0, 0})
	assert.InDelta(t, PI/2, el, 1e-9)
}

func TestTopocentricAzEl_AzimuthInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lat := rapid.Float64Range(-1.4, 1.4).Draw(rt, "lat")
		lon := rapid.Float64Range(-PI, PI).Draw(rt, "lon")
		e := rapid.Float64Range(-1000, 1000).Draw(rt, "e")
		n := rapid.Float64Range(-1000, 1000).Draw(rt, "n")
		u := rapid.Float64Range(1, 1000).Draw(rt, "u")

		// Build an ECEF los vector whose ENU projection is (e,n,u) at
		// (lat,lon), by inverting the rotation Ecef2Enu applies.
		m := xyz2enuMatrix(lat, lon)
		// m is orthonormal, so its transpose is its inverse.
		los := [3]float64{
			m[0][0]*e + m[1][0]*n + m[2][0]*u,
			m[0][1]*e + m[1][1]*n + m[2][1]*u,
			m[0][2]*e + m[1][2]*n + m[2][2]*u,
		}
		az, elOut := TopocentricAzEl(lat, lon, los)
		assert.GreaterOrEqual(t, az, 0.0)
		assert.Less(t, az, TwoPI)
		assert.InDelta(t, math.Asin(u/math.Sqrt(e*e+n*n+u*u)), elOut, 1e-6)
	})
}

func TestEcef2UTM_NorthernHemisphereNoFalseNorthingOffset(t *testing.T) {
	lat := 45.0 * PI / 180
	lon := 9.0 * PI / 180
	_, northing, zone := Ecef2UTM(lat, lon)
	assert.Less(t, northing, 1.0e7)
	assert.NotEmpty(t, zone)
}

func TestEcef2UTM_SouthernHemisphereHasFalseNorthing(t *testing.T) {
	lat := -33.0 * PI / 180
	lon := 151.0 * PI / 180
	_, northing, _ := Ecef2UTM(lat, lon)
	assert.Greater(t, northing, 1.0e7)
}
