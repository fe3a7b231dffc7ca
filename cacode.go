/*------------------------------------------------------------------------------
* cacode.go : GPS C/A (Gold) code generator (spec component B)
 */
package cugnssgo

// caTaps gives the two-tap G2 feedback positions (1-based shift
// register stages, per IS-GPS-200 Annex) for PRN 1..32. Index 0 is
// unused so the table can be indexed directly by PRN.
var caTaps = [MaxPRN + 1][2]int{
	{}, // unused
	{2, 6}, {3, 7}, {4, 8}, {5, 9}, {1, 9}, {2, 10}, {1, 8}, {2, 9}, {3, 10}, {2, 3},
	{3, 4}, {5, 6}, {6, 7}, {7, 8}, {8, 9}, {9, 10}, {1, 4}, {2, 5}, {3, 6}, {4, 7},
	{5, 8}, {6, 9}, {1, 3}, {4, 6}, {5, 7}, {6, 8}, {7, 9}, {8, 10}, {1, 6}, {2, 7},
	{3, 8}, {4, 9},
}

// GenerateCACode produces the 1023-chip +-1 Gold sequence for prn
// (1..32), via two 10-stage LFSRs per IS-GPS-200.
func GenerateCACode(prn int) []float64 {
	g1 := make([]int, CodeLength)
	g2 := make([]int, CodeLength)

	r1 := [10]int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	r2 := [10]int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	taps := caTaps[prn]
	s1, s2 := taps[0]-1, taps[1]-1

	for i := 0; i < CodeLength; i++ {
		g1[i] = r1[9]
		g2[i] = r2[s1] ^ r2[s2]

		// G1 feedback taps: stages 3 and 10 (fixed for every PRN).
		fb1 := r1[2] ^ r1[9]
		for j := 9; j > 0; j-- {
			r1[j] = r1[j-1]
		}
		r1[0] = fb1

		// G2 feedback taps: stages 2,3,6,8,9,10 (fixed for every PRN).
		fb2 := r2[1] ^ r2[2] ^ r2[5] ^ r2[7] ^ r2[8] ^ r2[9]
		for j := 9; j > 0; j-- {
			r2[j] = r2[j-1]
		}
		r2[0] = fb2
	}

	code := make([]float64, CodeLength)
	for i := 0; i < CodeLength; i++ {
		chip := g1[i] ^ g2[i]
		if chip == 0 {
			code[i] = 1
		} else {
			code[i] = -1
		}
	}
	return code
}

// UpsampleCACode maps a receiver sample block of length n to chip
// values of the length-1023 code at sampling rate fs with chip rate fc
// (spec §4.B): sample k maps to chip ceil(k*fc/fs) mod 1023, the final
// sample clamped to chip 1022 to absorb right-edge rounding.
func UpsampleCACode(code []float64, n int, fc, fs float64) []float64 {
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		idx := int(ceilDiv(float64(k)*fc, fs))
		idx = idx % CodeLength
		if k == n-1 {
			idx = CodeLength - 1
		}
		out[k] = code[idx]
	}
	return out
}

func ceilDiv(num, den float64) float64 {
	q := num / den
	fl := float64(int64(q))
	if q > fl {
		return fl + 1
	}
	return fl
}

// canonicalFirstTenOctal is the IS-GPS-200 Annex published first-ten-chip
// octal value for each PRN 1..37 (the invariant spec §8 tests against).
// Only PRN 1..32 are populated here; entries beyond MaxPRN are absent.
var canonicalFirstTenOctal = map[int]int{
	1: 1440, 2: 1620, 3: 1710, 4: 1744, 5: 1133, 6: 1455, 7: 1131, 8: 1454,
	9: 1626, 10: 1504, 11: 1642, 12: 1750, 13: 1764, 14: 1772, 15: 1775, 16: 1776,
	17: 1156, 18: 1467, 19: 1633, 20: 1715, 21: 1746, 22: 1763, 23: 1063, 24: 1706,
	25: 1743, 26: 1761, 27: 1770, 28: 1774, 29: 1127, 30: 1453, 31: 1625, 32: 1712,
}
