/*------------------------------------------------------------------------------
* pvt.go : iterative least-squares position/velocity/time solver
* (spec component J)
 */
package cugnssgo

import (
	"fmt"
	"math"

	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
	"gonum.org/v1/gonum/mat"
)

// maxPVTIter bounds the Gauss-Newton iteration (grounded on pntpos.go's
// MAXITR convention).
const maxPVTIter = 10

// SatelliteObs is one channel's contribution to a PVT epoch: a raw
// pseudorange plus the ephemeris needed to propagate its satellite
// position and clock (spec §4.J input contract). SolvePVT applies the
// SV clock correction itself.
type SatelliteObs struct {
	PRN        int
	Pseudorange float64 // raw, before SV clock correction (m)
	Eph        *Ephemeris
	TransmitT  float64 // GPS TOW at transmission (s)
}

// SolvePVT runs the iterative least-squares position fix (spec §4.J):
// at each iteration, satellite positions are Earth-rotation corrected
// for signal transit time, a linearized design matrix is built around
// the current estimate, and the normal equations are solved via
// gonum/mat. Returns gnsserr.ErrRankDeficient (with DOP left at +Inf)
// if fewer than 4 usable observations remain.
func SolvePVT(obs []SatelliteObs, s Settings, initial [3]float64) (*NavSolution, error) {
	sol := &NavSolution{Dop: DOP{G: math.Inf(1), P: math.Inf(1), H: math.Inf(1), V: math.Inf(1), T: math.Inf(1)}}

	usable := make([]SatelliteObs, 0, len(obs))
	for _, o := range obs {
		if o.Eph != nil && o.Eph.Usable() {
			usable = append(usable, o)
		}
	}
	if len(usable) < 4 {
		return sol, fmt.Errorf("%w: only %d usable observations", gnsserr.ErrRankDeficient, len(usable))
	}

	x := []float64{initial[0], initial[1], initial[2], 0}

	n := len(usable)
	var satX, satY, satZ, satClk []float64
	satX = make([]float64, n)
	satY = make([]float64, n)
	satZ = make([]float64, n)
	satClk = make([]float64, n)

	var dx []float64
	var Hrows []float64
	var vrow []float64
	var converged bool

	for iter := 0; iter < maxPVTIter; iter++ {
		Hrows = make([]float64, 0, n*4)
		vrow = make([]float64, 0, n)
		valid := 0

		var curLat, curLon, curH float64
		var haveCurPos bool
		if iter > 0 {
			if lat, lon, h, perr := Ecef2Pos(x[0], x[1], x[2]); perr == nil {
				curLat, curLon, curH, haveCurPos = lat, lon, h, true
			}
		}

		for i, o := range usable {
			sx, sy, sz, clk := SatPosition(o.Eph, o.TransmitT)

			// Earth-rotation correction for signal transit time
			// (grounded on GeoDist's sagnac term, applied here as an
			// explicit rotation instead since we don't yet have a
			// receiver clock to form the sagnac cross term cleanly).
			rangeEst := math.Sqrt((sx-x[0])*(sx-x[0]) + (sy-x[1])*(sy-x[1]) + (sz-x[2])*(sz-x[2]))
			tau := rangeEst / s.SpeedOfLight()
			theta := OmegaEarth * tau
			sinT, cosT := math.Sin(theta), math.Cos(theta)
			rx := cosT*sx + sinT*sy
			ry := -sinT*sx + cosT*sy
			rz := sz

			satX[i], satY[i], satZ[i], satClk[i] = rx, ry, rz, clk

			dxv := rx - x[0]
			dyv := ry - x[1]
			dzv := rz - x[2]
			r := math.Sqrt(dxv*dxv + dyv*dyv + dzv*dzv)
			if r < 1 {
				continue
			}

			var trop float64
			if s.UseTropCorr && haveCurPos {
				_, el := TopocentricAzEl(curLat, curLon, [3]float64{dxv, dyv, dzv})
				trop = SaastamoinenDelay(curLat, curH, el)
			}

			resid := o.Pseudorange - (r + x[3] - s.SpeedOfLight()*clk + trop)
			Hrows = append(Hrows, -dxv/r, -dyv/r, -dzv/r, 1.0)
			vrow = append(vrow, resid)
			valid++
		}

		if valid < 4 {
			return sol, fmt.Errorf("%w: only %d valid rows at iter %d", gnsserr.ErrRankDeficient, valid, iter)
		}

		H := mat.NewDense(valid, 4, Hrows)
		v := mat.NewVecDense(valid, vrow)

		var HT mat.Dense
		HT.CloneFrom(H.T())
		var HTH mat.Dense
		HTH.Mul(&HT, H)
		var HTv mat.VecDense
		HTv.MulVec(&HT, v)

		var HTHInv mat.Dense
		if err := HTHInv.Inverse(&HTH); err != nil {
			return sol, fmt.Errorf("%w: normal matrix singular: %v", gnsserr.ErrRankDeficient, err)
		}

		var dxVec mat.VecDense
		dxVec.MulVec(&HTHInv, &HTv)
		dx = []float64{dxVec.AtVec(0), dxVec.AtVec(1), dxVec.AtVec(2), dxVec.AtVec(3)}

		for j := range x {
			x[j] += dx[j]
		}

		norm := math.Sqrt(dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2] + dx[3]*dx[3])
		if norm < 1e-4 {
			converged = true
			sol.Dop = dopFromNormalMatrix(&HTHInv)
			break
		}
	}

	if !converged {
		return sol, fmt.Errorf("%w: PVT did not converge within %d iterations", gnsserr.ErrNumericNonConvergence, maxPVTIter)
	}

	sol.X, sol.Y, sol.Z, sol.Dt = x[0], x[1], x[2], x[3]/s.SpeedOfLight()

	lat, lon, h, perr := Ecef2Pos(x[0], x[1], x[2])
	if perr == nil {
		sol.Latitude, sol.Longitude, sol.Height = lat, lon, h
		e, n2, zone := Ecef2UTM(lat, lon)
		sol.UTMZone = zone
		sol.E, sol.N = e, n2
		sol.U = h
	}

	for i, o := range usable {
		dxv := satX[i] - x[0]
		dyv := satY[i] - x[1]
		dzv := satZ[i] - x[2]
		az, el := TopocentricAzEl(lat, lon, [3]float64{dxv, dyv, dzv})
		sol.PRN = append(sol.PRN, o.PRN)
		sol.Azimuth = append(sol.Azimuth, az)
		sol.Elevation = append(sol.Elevation, el)
		sol.TransmitTime = append(sol.TransmitTime, o.TransmitT)
		sol.SatClkCorr = append(sol.SatClkCorr, satClk[i])
		sol.RawP = append(sol.RawP, o.Pseudorange)
		sol.CorrectedP = append(sol.CorrectedP, o.Pseudorange+s.SpeedOfLight()*satClk[i])
	}

	sol.Valid = true
	return sol, nil
}

// dopFromNormalMatrix extracts GDOP/PDOP/HDOP/VDOP/TDOP from (H^T H)^-1
// in the ECEF frame (grounded on common.go's DOPs, which reads the same
// diagonal terms off the inverted normal matrix). HDOP and VDOP use the
// ECEF x/y and z terms; they are not rotated into local ENU.
func dopFromNormalMatrix(inv *mat.Dense) DOP {
	xx, yy, zz, tt := inv.At(0, 0), inv.At(1, 1), inv.At(2, 2), inv.At(3, 3)
	return DOP{
		G: math.Sqrt(xx + yy + zz + tt),
		P: math.Sqrt(xx + yy + zz),
		H: math.Sqrt(xx + yy), // ECEF x/y, an approximation of local HDOP
		V: math.Sqrt(zz),
		T: math.Sqrt(tt),
	}
}
