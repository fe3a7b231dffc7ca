package cugnssgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func circularEquatorialEph() *Ephemeris {
	eph := &Ephemeris{PRN: 1}
	eph.SqrtA = setF(5153.65)
	eph.E = setF(0)
	eph.I0 = setF(0)
	eph.Omega0 = setF(0)
	eph.Omega = setF(0)
	eph.M0 = setF(0)
	eph.DeltaN = setF(0)
	eph.IDot = setF(0)
	eph.OmegaDot = setF(0)
	eph.Toe = setF(244800)
	eph.Toc = setF(244800)
	eph.Cuc, eph.Cus = setF(0), setF(0)
	eph.Crc, eph.Crs = setF(0), setF(0)
	eph.Cic, eph.Cis = setF(0), setF(0)
	eph.Af0, eph.Af1, eph.Af2 = setF(1e-5), setF(1e-12), setF(0)
	eph.TGD = setF(0)
	eph.IODC, eph.IODESF2, eph.IODESF3 = setI(1), setI(1), setI(1)
	eph.Health = setI(0)
	return eph
}

func TestSatPosition_CircularOrbitRadiusMatchesSemiMajorAxis(t *testing.T) {
	eph := circularEquatorialEph()
	a := eph.SqrtA.Val() * eph.SqrtA.Val()

	for _, dt := range []float64{0, 600, 3600, -1800} {
		x, y, z, _ := SatPosition(eph, eph.Toe.Val()+dt)
		r := math.Sqrt(x*x + y*y + z*z)
		assert.InDelta(t, a, r, 1e-3, "orbital radius should equal semi-major axis for e=0 at dt=%v", dt)
	}
}

func TestSatPosition_EquatorialOrbitStaysNearEquatorialPlaneModuloEarthRotation(t *testing.T) {
	eph := circularEquatorialEph()
	x, y, z, _ := SatPosition(eph, eph.Toe.Val())
	// i0=0 means the orbital plane itself never leaves z=0 before the
	// Earth-rotation correction; the correction only rotates about the
	// z-axis, so z must remain exactly zero.
	assert.InDelta(t, 0, z, 1e-6)
	assert.Greater(t, math.Hypot(x, y), 0.0)
}

func TestSatClockBias_LinearTrendAtToc(t *testing.T) {
	eph := circularEquatorialEph()
	eph.Af0 = setF(1e-4)
	eph.Af1 = setF(2e-11)
	eph.Af2 = setF(0)

	atToc := SatClockBias(eph, eph.Toc.Val())
	assert.InDelta(t, 1e-4, atToc, 1e-15)

	later := SatClockBias(eph, eph.Toc.Val()+1000)
	assert.InDelta(t, 1e-4+2e-11*1000, later, 1e-15)
}

func TestCorrectWeekCrossover_WrapsToHalfWeek(t *testing.T) {
	const half = 302400.0
	assert.InDelta(t, 0, correctWeekCrossover(0), 1e-9)
	assert.InDelta(t, -100, correctWeekCrossover(half*2-100), 1e-9)
	assert.InDelta(t, 100, correctWeekCrossover(-half*2+100), 1e-9)
}

func TestSatPosition_RelativisticCorrectionZeroForCircularOrbit(t *testing.T) {
	// RelCorrF*e*sqrtA*sin(Ek) vanishes identically when e=0.
	eph := circularEquatorialEph()
	_, _, _, clk := SatPosition(eph, eph.Toe.Val()+500)
	expectedPoly := SatClockBias(eph, eph.Toe.Val()+500)
	assert.InDelta(t, expectedPoly, clk, 1e-15)
}
