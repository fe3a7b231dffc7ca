/*------------------------------------------------------------------------------
* tropo.go : Saastamoinen tropospheric delay model (spec §4.J, optional)
 */
package cugnssgo

import "math"

const relHumiSaas = 0.7 // fixed relative humidity the Saastamoinen model uses

// SaastamoinenDelay computes the tropospheric slant delay (m) at
// geodetic latitude lat (rad), height h (m) and elevation el (rad), via
// the standard atmosphere + Saastamoinen model (grounded on common.go's
// TropModel, with time and a configurable humidity dropped since this
// receiver has no meteorological input stream).
func SaastamoinenDelay(lat, h, el float64) float64 {
	if h < -100 || h > 1e4 || el <= 0 {
		return 0
	}
	hgt := h
	if hgt < 0 {
		hgt = 0
	}
	const temp0 = 15.0
	pres := 1013.25 * math.Pow(1.0-2.2557e-5*hgt, 5.2568)
	temp := temp0 - 6.5e-3*hgt + 273.16
	e := 6.108 * relHumiSaas * math.Exp((17.15*temp-4684.0)/(temp-38.45))

	z := PI/2.0 - el
	trph := 0.0022768 * pres / (1.0 - 0.00266*math.Cos(2.0*lat) - 0.00028*hgt/1e3) / math.Cos(z)
	trpw := 0.002277 * (1255.0/temp + 0.05) * e / math.Cos(z)
	return trph + trpw
}
