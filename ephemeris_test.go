package cugnssgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeBit maps a binary digit (0 or 1) to chip polarity, the inverse
// of bit().
func encodeBit(b int) float64 {
	if b == 1 {
		return 1
	}
	return -1
}

// encodeUint writes x's low n bits (MSB first) as chips.
func encodeUint(x uint64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		shift := uint(n - 1 - i)
		out[i] = encodeBit(int((x >> shift) & 1))
	}
	return out
}

// encodeTwosComp writes x as an n-bit two's-complement chip pattern.
func encodeTwosComp(x int64, n int) []float64 {
	mask := uint64(1)<<uint(n) - 1
	return encodeUint(uint64(x)&mask, n)
}

// setSpan writes chips into sub at [lo,hi).
func setSpan(sub []float64, lo, hi int, chips []float64) {
	copy(sub[lo:hi], chips)
}

// setSplitSpan writes chips across two spans, matching concatBits'
// join order (span1 first, then span2).
func setSplitSpan(sub []float64, lo1, hi1, lo2, hi2 int, chips []float64) {
	n1 := hi1 - lo1
	copy(sub[lo1:hi1], chips[:n1])
	copy(sub[lo2:hi2], chips[n1:])
}

func buildTestSubframes(t *testing.T) [1500]float64 {
	t.Helper()
	var bits [1500]float64
	for i := range bits {
		bits[i] = -1 // default bit 0
	}

	sf1 := bits[0:300]
	setSpan(sf1, 49, 52, encodeUint(1, 3)) // subframe ID 1
	setSpan(sf1, 60, 70, encodeUint(1500-1024, 10)) // weekNumber raw (eph.WeekNumber = raw+1024)
	setSpan(sf1, 76, 82, encodeUint(0, 6))          // health = 0
	setSpan(sf1, 82, 84, encodeUint(0b10, 2))
	setSpan(sf1, 196, 204, encodeUint(0b01011010, 8))
	// IODC = concat(sf1[82:84], sf1[196:204]) = 0b10_01011010 = 0x25A = 602
	setSpan(sf1, 218, 234, encodeUint(244800/16, 16)) // t_oc = 244800

	sf2 := bits[300:600]
	setSpan(sf2, 49, 52, encodeUint(2, 3)) // subframe ID 2
	setSpan(sf2, 60, 68, encodeUint(0x5A, 8)) // IODE_sf2 = 0x5A = 90
	eRaw := uint64(0.0048 / p2(-33))
	setSplitSpan(sf2, 166, 174, 180, 204, encodeUint(eRaw, 32))
	sqrtARaw := uint64(5153.65 / p2(-19))
	setSplitSpan(sf2, 226, 234, 240, 264, encodeUint(sqrtARaw, 32))
	setSpan(sf2, 270, 286, encodeUint(244800/16, 16)) // t_oe = 244800

	sf3 := bits[600:900]
	setSpan(sf3, 49, 52, encodeUint(3, 3)) // subframe ID 3
	setSpan(sf3, 270, 278, encodeUint(0x5A, 8)) // IODE_sf3 = 0x5A = 90, matches IODC low byte

	sf4 := bits[900:1200]
	setSpan(sf4, 49, 52, encodeUint(4, 3))
	sf5 := bits[1200:1500]
	setSpan(sf5, 49, 52, encodeUint(5, 3))

	// TOW field of the LAST parsed subframe (subframe 5) HOW word.
	setSpan(sf5, 30, 47, encodeUint(100, 17))

	return bits
}

func TestDecodeEphemeris_RoundTripsKnownValues(t *testing.T) {
	bits := buildTestSubframes(t)
	eph, err := DecodeEphemeris(bits, -1, 5)
	require.NoError(t, err)

	assert.InDelta(t, 0.0048, eph.E.Val(), 2*p2(-33))
	assert.InDelta(t, 5153.65, eph.SqrtA.Val(), 2*p2(-19))
	assert.InDelta(t, 244800.0, eph.Toe.Val(), 16)
	assert.Equal(t, 0, eph.Health.Value)
	assert.Equal(t, 90, eph.IODESF2.Value)
	assert.Equal(t, 90, eph.IODESF3.Value)
	assert.Equal(t, 0x25A, eph.IODC.Value)
	assert.True(t, eph.IODEConsistent())
	assert.True(t, eph.Usable())
}

func TestDecodeEphemeris_UnhealthyIsNotUsable(t *testing.T) {
	bits := buildTestSubframes(t)
	setSpan(bits[0:300], 76, 82, encodeUint(1, 6)) // health != 0
	eph, err := DecodeEphemeris(bits, -1, 5)
	require.NoError(t, err)
	assert.False(t, eph.Usable())
}

func TestCheckPhase_ThreadedD30StarInvertsWhenSetTo1(t *testing.T) {
	plain := buildTestSubframes(t)
	flipped := buildTestSubframes(t)
	// Set D30 of subframe 1's HOW word (bit 59) to 1. The decoder threads
	// it as D30* into the next word, whose d1..d24 (week number, accuracy
	// and health) are then inverted, so health no longer decodes as 0.
	flipped[59] = 1
	ephInverted, err := DecodeEphemeris(flipped, -1, 5)
	require.NoError(t, err)
	ephPlain, err := DecodeEphemeris(plain, -1, 5)
	require.NoError(t, err)
	assert.NotEqual(t, ephPlain.Health, ephInverted.Health)
}
