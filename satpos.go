/*------------------------------------------------------------------------------
* satpos.go : satellite clock and ECEF position from broadcast ephemeris
* (spec component I)
 */
package cugnssgo

import "math"

// SatClockBias computes the SV clock correction (s) at transmit time t
// (GPS TOW, s), per IS-GPS-200 §20.3.3.3.3.1, with the half-week wrap
// of (t - Toc). It is the polynomial-only piece: the relativistic term
// and T_GD are not included (SatPosition adds both).
func SatClockBias(eph *Ephemeris, t float64) float64 {
	dt := t - eph.Toc.Val()
	dt = correctWeekCrossover(dt)
	return eph.Af0.Val() + eph.Af1.Val()*dt + eph.Af2.Val()*dt*dt
}

// correctWeekCrossover folds dt into [-302400, 302400] seconds (half a
// week), the standard GPS time-difference wrap.
func correctWeekCrossover(dt float64) float64 {
	const half = 302400.0
	for dt > half {
		dt -= 2 * half
	}
	for dt < -half {
		dt += 2 * half
	}
	return dt
}

// SatPosition propagates the Keplerian orbit plus perturbation
// corrections to compute the SV's ECEF position at transmit time t (GPS
// TOW, s), along with its clock correction in seconds including the
// relativistic term (spec §4.I). eph must be Usable().
func SatPosition(eph *Ephemeris, t float64) (x, y, z, clkCorr float64) {
	a := eph.SqrtA.Val() * eph.SqrtA.Val()
	n0 := math.Sqrt(GM / (a * a * a))
	tk := correctWeekCrossover(t - eph.Toe.Val())
	n := n0 + eph.DeltaN.Val()
	mk := eph.M0.Val() + n*tk

	// Kepler's equation for eccentric anomaly, fixed-point iteration
	// (spec §4.I: <=10 iterations, tolerance 1e-12).
	e := eph.E.Val()
	ek := mk
	for i := 0; i < 10; i++ {
		prev := ek
		ek = mk + e*math.Sin(ek)
		if math.Abs(ek-prev) < 1e-12 {
			break
		}
	}

	sinEk, cosEk := math.Sin(ek), math.Cos(ek)
	vk := math.Atan2(math.Sqrt(1-e*e)*sinEk, cosEk-e)
	phik := vk + eph.Omega.Val()

	sin2p, cos2p := math.Sin(2*phik), math.Cos(2*phik)
	duk := eph.Cus.Val()*sin2p + eph.Cuc.Val()*cos2p
	drk := eph.Crs.Val()*sin2p + eph.Crc.Val()*cos2p
	dik := eph.Cis.Val()*sin2p + eph.Cic.Val()*cos2p

	uk := phik + duk
	rk := a*(1-e*cosEk) + drk
	ik := eph.I0.Val() + dik + eph.IDot.Val()*tk

	xkp := rk * math.Cos(uk)
	ykp := rk * math.Sin(uk)

	omegak := eph.Omega0.Val() + (eph.OmegaDot.Val()-OmegaEarth)*tk - OmegaEarth*eph.Toe.Val()

	sinOmegak, cosOmegak := math.Sin(omegak), math.Cos(omegak)
	sinIk, cosIk := math.Sin(ik), math.Cos(ik)

	x = xkp*cosOmegak - ykp*cosIk*sinOmegak
	y = xkp*sinOmegak + ykp*cosIk*cosOmegak
	z = ykp * sinIk

	relCorr := RelCorrF * e * eph.SqrtA.Val() * sinEk
	clkCorr = SatClockBias(eph, t) + relCorr - eph.TGD.Val()
	return x, y, z, clkCorr
}
