/*------------------------------------------------------------------------------
* cno.go : Variance Summing Method C/N0 estimator (spec component E step 9)
 */
package cugnssgo

import "math"

// CNoVSM computes the C/N0 (dB-Hz) of a VSM interval of prompt
// correlator outputs (spec §4.E step 9): with Z=I^2+Q^2,
//   Pav = sqrt(E[Z]^2 - Var[Z])
//   Nv  = (E[Z] - Pav) / 2
//   C/N0 = 10*log10(Pav / (2*Nv*T))
// Returns NaN when E[Z]^2 <= Var[Z] or Nv <= 0 (spec: "not yet
// reliable", never a lock-loss indicator — spec §9 design note).
func CNoVSM(ip, qp []float64, integrationTime float64) float64 {
	n := len(ip)
	if n == 0 || n != len(qp) {
		return math.NaN()
	}
	z := make([]float64, n)
	var meanZ float64
	for i := range ip {
		z[i] = ip[i]*ip[i] + qp[i]*qp[i]
		meanZ += z[i]
	}
	meanZ /= float64(n)

	var varZ float64
	for _, v := range z {
		d := v - meanZ
		varZ += d * d
	}
	varZ /= float64(n)

	if meanZ*meanZ <= varZ {
		return math.NaN()
	}
	pav := math.Sqrt(meanZ*meanZ - varZ)
	nv := (meanZ - pav) / 2
	if nv <= 0 {
		return math.NaN()
	}
	return 10 * math.Log10(pav/(2*nv*integrationTime))
}
