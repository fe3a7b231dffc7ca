/*------------------------------------------------------------------------------
* framesync.go : bit/frame synchronization and GPS parity (spec component F)
 */
package cugnssgo

import "github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"

// preambleBits is the 8-bit GPS TLM preamble, +-1 encoded (IS-GPS-200).
var preambleBits = [8]float64{1, -1, -1, -1, 1, -1, 1, 1}

const (
	bitDurationMs   = 20 // one nav bit spans 20 ms (50 bps)
	subframeBits    = 300
	subframeMs      = subframeBits * bitDurationMs // 6000ms
	wordBits        = 30
)

// preambleSamples upsamples preambleBits by repeating each chip
// bitDurationMs times, giving the 160-sample correlation template
// (spec §4.F).
func preambleSamples() []float64 {
	out := make([]float64, 0, 8*bitDurationMs)
	for _, b := range preambleBits {
		for i := 0; i < bitDurationMs; i++ {
			out = append(out, b)
		}
	}
	return out
}

// thresholdSign maps v to +1/-1 (spec: "thresholded to ±1"); ties (v<=0)
// go to -1, matching the original implementation.
func thresholdSign(v float64) float64 {
	if v > 0 {
		return 1
	}
	return -1
}

// xcorrPreamble returns the (unnormalized) cross-correlation of the
// thresholded bit stream with the preamble pattern at every lag n where
// a full 160-sample window fits.
func xcorrPreamble(ipThresholded []float64) []float64 {
	pat := preambleSamples()
	plen := len(pat)
	if len(ipThresholded) < plen {
		return nil
	}
	out := make([]float64, len(ipThresholded)-plen+1)
	for n := range out {
		var sum float64
		for i := 0; i < plen; i++ {
			sum += ipThresholded[n+i] * pat[i]
		}
		out[n] = sum
	}
	return out
}

// hardBitSum sums n consecutive raw I_P samples starting at idx and
// returns the thresholded hard bit (spec §4.F: "sum the 20 chips/bit
// ... to form hard bits").
func hardBitSum(ip []float64, idx, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		sum += ip[idx+i]
	}
	return thresholdSign(sum)
}

// GPSParity implements the IS-GPS-200 Table 20-XIV parity check. ndat
// must have exactly 32 elements, +-1 encoded: ndat[0]=D29*, ndat[1]=D30*
// (context from the previous word), ndat[2:26]=d1..d24, ndat[26:32]=the
// received D25..D30 parity bits.
//
// Returns 0 if parity fails. On success returns -D30* (ndat[1]): the
// sign indicates whether d1..d24 must be inverted to recover the
// original data polarity.
func GPSParity(ndat [32]float64) int {
	d := ndat
	if d[1] != 1 {
		for i := 2; i < 26; i++ {
			d[i] = -d[i]
		}
	}
	var parity [6]float64
	parity[0] = d[0] * d[2] * d[3] * d[4] * d[6] * d[7] * d[11] * d[12] * d[13] * d[14] * d[15] * d[18] * d[19] * d[21] * d[24]
	parity[1] = d[1] * d[3] * d[4] * d[5] * d[7] * d[8] * d[12] * d[13] * d[14] * d[15] * d[16] * d[19] * d[20] * d[22] * d[25]
	parity[2] = d[0] * d[2] * d[4] * d[5] * d[6] * d[8] * d[9] * d[13] * d[14] * d[15] * d[16] * d[17] * d[20] * d[21] * d[23]
	parity[3] = d[1] * d[3] * d[5] * d[6] * d[7] * d[9] * d[10] * d[14] * d[15] * d[16] * d[17] * d[18] * d[21] * d[22] * d[24]
	parity[4] = d[1] * d[2] * d[4] * d[6] * d[7] * d[8] * d[10] * d[11] * d[15] * d[16] * d[17] * d[18] * d[19] * d[22] * d[23] * d[25]
	parity[5] = d[0] * d[4] * d[6] * d[7] * d[9] * d[10] * d[11] * d[12] * d[14] * d[16] * d[20] * d[23] * d[24] * d[25]

	match := 0
	for i := 0; i < 6; i++ {
		if parity[i] == ndat[26+i] {
			match++
		}
	}
	if match == 6 {
		if ndat[1] != 1 {
			return 1
		}
		return -1
	}
	return 0
}

// CheckPhase corrects the polarity of a 30-bit word's data bits (d1-d24)
// given D30* (the last bit of the previous word). When D30* == -1 this
// is a no-op, so applying it twice is idempotent; when D30* == 1 it
// inverts d1-d24, so a second application inverts back to the original
// rather than leaving it fixed (spec §8 round-trip law: idempotent only
// when D30* is the "0" / -1 case).
func CheckPhase(word [30]float64, d30star float64) [30]float64 {
	out := word
	if d30star == 1 {
		for i := 0; i < 24; i++ {
			out[i] = -out[i]
		}
	}
	return out
}

// FindPreamble searches ipPrompt (per-millisecond prompt correlator
// output, one sample per ms) for a parity-valid TLM preamble (spec
// §4.F). It returns the ms index of the start of the TLM word of the
// first subframe whose first two words both pass parity.
func FindPreamble(ipPrompt []float64, msToProcess int) (subFrameStart int, err error) {
	thresholded := make([]float64, len(ipPrompt))
	for i, v := range ipPrompt {
		thresholded[i] = thresholdSign(v)
	}
	xc := xcorrPreamble(thresholded)

	var candidates []int
	lowerBound := 40
	upperBound := msToProcess - (bitDurationMs*60 - 1)
	for n, v := range xc {
		if v > 153 || v < -153 {
			if n > lowerBound && n < upperBound {
				candidates = append(candidates, n)
			}
		}
	}

	set := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		set[c] = true
	}

	for _, c := range candidates {
		if !set[c+subframeMs] {
			continue
		}
		// Build the 62-bit window: 2 context bits (D29*,D30* of the
		// previous word) + 60 bits of TLM+HOW.
		if c-40 < 0 || c+60*bitDurationMs > len(ipPrompt) {
			continue
		}
		bits := make([]float64, 62)
		for i := 0; i < 62; i++ {
			bits[i] = hardBitSum(ipPrompt, c-40+i*bitDurationMs, bitDurationMs)
		}
		var word1, word2 [32]float64
		copy(word1[:], bits[0:32])
		copy(word2[:], bits[30:62])
		if GPSParity(word1) != 0 && GPSParity(word2) != 0 {
			return c, nil
		}
	}
	return 0, gnsserr.ErrPreambleNotFound
}

// ExtractNavBits returns the 1500 hard bits of 5 subframes starting at
// subFrameStart, plus the D30* context bit of the word preceding the
// first subframe (spec §4.G input contract).
func ExtractNavBits(ipPrompt []float64, subFrameStart int) (bits [1500]float64, d30star float64, err error) {
	if subFrameStart-bitDurationMs < 0 || subFrameStart+1500*bitDurationMs > len(ipPrompt) {
		return bits, 0, gnsserr.ErrInsufficientData
	}
	d30star = hardBitSum(ipPrompt, subFrameStart-bitDurationMs, bitDurationMs)
	for i := 0; i < 1500; i++ {
		bits[i] = hardBitSum(ipPrompt, subFrameStart+i*bitDurationMs, bitDurationMs)
	}
	return bits, d30star, nil
}
