/*------------------------------------------------------------------------------
* coords.go : ECEF/geodetic/UTM/topocentric coordinate transforms
* (spec component K)
 */
package cugnssgo

import (
	"fmt"
	"math"

	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
)

// Ecef2Pos converts ECEF x,y,z (m) to geodetic lat,lon (rad) and
// ellipsoidal height (m), WGS-84, via Bowring's iteration (grounded on
// common.go's Ecef2Pos, generalized to the spec's explicit convergence
// and iteration-budget contract: converge when |h_{i}-h_{i-1}| < 1e-12,
// give up after 100 iterations and return the last estimate together
// with ErrNumericNonConvergence).
func Ecef2Pos(x, y, z float64) (lat, lon, h float64, err error) {
	e2 := WGS84F * (2.0 - WGS84F)
	r2 := x*x + y*y

	lat = math.Atan2(z, math.Sqrt(r2)*(1-e2))
	var v, hPrev float64
	converged := false
	for i := 0; i < 100; i++ {
		sinp := math.Sin(lat)
		v = WGS84A / math.Sqrt(1-e2*sinp*sinp)
		h = math.Sqrt(r2)/math.Cos(lat) - v
		lat = math.Atan2(z, math.Sqrt(r2)*(1-e2*v/(v+h)))
		if i > 0 && math.Abs(h-hPrev) < 1e-12 {
			converged = true
			break
		}
		hPrev = h
	}
	if r2 > 1e-12 {
		lon = math.Atan2(y, x)
	} else {
		lon = 0
	}
	if !converged {
		return lat, lon, h, fmt.Errorf("%w: Ecef2Pos did not converge", gnsserr.ErrNumericNonConvergence)
	}
	return lat, lon, h, nil
}

// Pos2Ecef converts geodetic lat,lon (rad), height h (m) to ECEF x,y,z
// (m), WGS-84 (grounded on common.go's Pos2Ecef).
func Pos2Ecef(lat, lon, h float64) (x, y, z float64) {
	sinp, cosp := math.Sin(lat), math.Cos(lat)
	sinl, cosl := math.Sin(lon), math.Cos(lon)
	e2 := WGS84F * (2.0 - WGS84F)
	v := WGS84A / math.Sqrt(1-e2*sinp*sinp)

	x = (v + h) * cosp * cosl
	y = (v + h) * cosp * sinl
	z = (v*(1-e2) + h) * sinp
	return x, y, z
}

// xyz2enuMatrix builds the 3x3 ECEF->ENU rotation at geodetic lat,lon
// (grounded on common.go's XYZ2Enu, row-major here instead of RTKLIB's
// column-major Fortran convention).
func xyz2enuMatrix(lat, lon float64) [3][3]float64 {
	sinp, cosp := math.Sin(lat), math.Cos(lat)
	sinl, cosl := math.Sin(lon), math.Cos(lon)
	return [3][3]float64{
		{-sinl, cosl, 0},
		{-sinp * cosl, -sinp * sinl, cosp},
		{cosp * cosl, cosp * sinl, sinp},
	}
}

// Ecef2Enu rotates an ECEF vector r (relative to a local origin) into
// the local east/north/up frame at geodetic lat,lon (grounded on
// common.go's Ecef2Enu).
func Ecef2Enu(lat, lon float64, r [3]float64) (e, n, u float64) {
	m := xyz2enuMatrix(lat, lon)
	e = m[0][0]*r[0] + m[0][1]*r[1] + m[0][2]*r[2]
	n = m[1][0]*r[0] + m[1][1]*r[1] + m[1][2]*r[2]
	u = m[2][0]*r[0] + m[2][1]*r[1] + m[2][2]*r[2]
	return e, n, u
}

// TopocentricAzEl computes azimuth and elevation (rad) of the receiver
// -> satellite line-of-sight vector los (any length), given the
// receiver's geodetic position (spec §4.K, grounded on common.go's
// SatAzel). Azimuth is in [0, 2*pi); elevation in [-pi/2, pi/2].
func TopocentricAzEl(lat, lon float64, los [3]float64) (az, el float64) {
	e, n, u := Ecef2Enu(lat, lon, los)
	if e*e+n*n < 1e-12 {
		az = 0
	} else {
		az = math.Atan2(e, n)
	}
	if az < 0 {
		az += TwoPI
	}
	el = math.Atan2(u, math.Hypot(e, n))
	return az, el
}

// utmZoneLetter returns the UTM latitude band letter for lat (deg).
func utmZoneLetter(latDeg float64) byte {
	bands := "CDEFGHJKLMNPQRSTUVWX"
	if latDeg < -80 || latDeg > 84 {
		return 'Z'
	}
	idx := int((latDeg+80)/8)
	if idx >= len(bands) {
		idx = len(bands) - 1
	}
	return bands[idx]
}

// Ecef2UTM converts geodetic lat,lon (rad) into UTM easting/northing (m)
// and a zone designator string, via the Koenig & Weise series expansion
// (spec §4.K). Southern-hemisphere northings get the conventional
// +1e7 m false-northing offset.
func Ecef2UTM(lat, lon float64) (easting, northing float64, zone string) {
	const k0 = 0.9996
	a := WGS84A
	f := WGS84F

	latDeg := lat * 180 / PI
	lonDeg := lon * 180 / PI
	zoneNum := int((lonDeg+180)/6) + 1
	if zoneNum > 60 {
		zoneNum = 60
	}
	if zoneNum < 1 {
		zoneNum = 1
	}
	lon0 := float64(zoneNum)*6 - 183
	lon0Rad := lon0 * PI / 180

	n := f / (2 - f)
	aBar := a / (1 + n) * (1 + n*n/4 + n*n*n*n/64)

	sinLat := math.Sin(lat)

	t := math.Sinh(math.Atanh(sinLat) - 2*math.Sqrt(n)/(1+n)*math.Atanh(2*math.Sqrt(n)/(1+n)*sinLat))
	xiPrime := math.Atan2(t, math.Cos(lon-lon0Rad))
	etaPrime := math.Asinh(math.Sin(lon-lon0Rad) / math.Sqrt(t*t+math.Cos(lon-lon0Rad)*math.Cos(lon-lon0Rad)))

	alpha := [3]float64{
		n/2 - 2*n*n/3 + 5*n*n*n/16,
		13*n*n/48 - 3*n*n*n/5,
		61 * n * n * n / 240,
	}

	xi := xiPrime
	eta := etaPrime
	for j, a_j := range alpha {
		k := float64(j + 1)
		xi += a_j * math.Sin(2*k*xiPrime) * math.Cosh(2*k*etaPrime)
		eta += a_j * math.Cos(2*k*xiPrime) * math.Sinh(2*k*etaPrime)
	}

	easting = k0*aBar*eta + 500000.0
	northing = k0 * aBar * xi
	if lat < 0 {
		northing += 1.0e7
	}

	zone = fmt.Sprintf("%d%c", zoneNum, utmZoneLetter(latDeg))
	return easting, northing, zone
}
