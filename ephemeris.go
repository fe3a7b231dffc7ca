/*------------------------------------------------------------------------------
* ephemeris.go : GPS LNAV subframe 1-3 ephemeris decoder (spec component G)
 */
package cugnssgo

import "github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"

const gpsPi = 3.1415926535898 // GPS ICD's own value of pi, distinct from math.Pi at this precision

// bit converts a +-1 encoded hard bit to 0/1.
func bit(v float64) uint32 {
	if v > 0 {
		return 1
	}
	return 0
}

// bitsUint assembles consecutive +-1 bits (MSB first) into an unsigned
// integer.
func bitsUint(bits []float64) uint32 {
	var v uint32
	for _, b := range bits {
		v = (v << 1) | bit(b)
	}
	return v
}

// concatBits joins several non-contiguous bit spans (for split fields
// like M_0, e, sqrtA which straddle a parity-bit gap) into one slice.
func concatBits(word []float64, spans ...[2]int) []float64 {
	var out []float64
	for _, sp := range spans {
		out = append(out, word[sp[0]:sp[1]]...)
	}
	return out
}

// twosComp interprets bits (MSB first) as a two's-complement integer.
func twosComp(bits []float64) int64 {
	n := len(bits)
	v := int64(bitsUint(bits))
	if bit(bits[0]) == 1 {
		v -= int64(1) << uint(n)
	}
	return v
}

// DecodeEphemeris decodes the 1500 hard bits of 5 subframes (spec
// §4.G), given d30star, the last bit of the word preceding the first
// subframe (for polarity correction of word 1). Bit offsets and scale
// factors are the IS-GPS-200 layout the receiver's own reference
// decoder (original_source/Include/ephemeris.py) uses; subframes 4 and
// 5 are not decoded (almanac/iono/UTC, out of scope).
func DecodeEphemeris(navBits [1500]float64, d30star float64, prn int) (*Ephemeris, error) {
	eph := &Ephemeris{PRN: prn}
	d30 := d30star
	var lastSubframe [300]float64
	var lastSubframeSet bool

	for i := 0; i < 5; i++ {
		var sub [300]float64
		copy(sub[:], navBits[300*i:300*(i+1)])

		for w := 0; w < 10; w++ {
			word := CheckPhase([30]float64(sub[30*w : 30*w+30]), d30)
			copy(sub[30*w:30*w+30], word[:])
			d30 = word[29]
		}
		lastSubframe = sub
		lastSubframeSet = true

		subframeID := bitsUint(sub[49:52])
		switch subframeID {
		case 1:
			eph.WeekNumber = setI(int(bitsUint(sub[60:70])) + 1024)
			eph.Accuracy = setF(float64(bitsUint(sub[72:76])))
			eph.Health = setI(int(bitsUint(sub[76:82])))
			eph.TGD = setF(float64(twosComp(sub[196:204])) * p2(-31))
			eph.IODC = setI(int(bitsUint(concatBits(sub[:], [2]int{82, 84}, [2]int{196, 204}))))
			eph.Toc = setF(float64(bitsUint(sub[218:234])) * 16.0)
			eph.Af2 = setF(float64(twosComp(sub[240:248])) * p2(-55))
			eph.Af1 = setF(float64(twosComp(sub[248:264])) * p2(-43))
			eph.Af0 = setF(float64(twosComp(sub[270:292])) * p2(-31))
		case 2:
			eph.IODESF2 = setI(int(bitsUint(sub[60:68])))
			eph.Crs = setF(float64(twosComp(sub[68:84])) * p2(-5))
			eph.DeltaN = setF(float64(twosComp(sub[90:106])) * p2(-43) * gpsPi)
			eph.M0 = setF(float64(twosComp(concatBits(sub[:], [2]int{106, 114}, [2]int{120, 144}))) * p2(-31) * gpsPi)
			eph.Cuc = setF(float64(twosComp(sub[150:166])) * p2(-29))
			eph.E = setF(float64(bitsUint(concatBits(sub[:], [2]int{166, 174}, [2]int{180, 204}))) * p2(-33))
			eph.Cus = setF(float64(twosComp(sub[210:226])) * p2(-29))
			eph.SqrtA = setF(float64(bitsUint(concatBits(sub[:], [2]int{226, 234}, [2]int{240, 264}))) * p2(-19))
			eph.Toe = setF(float64(bitsUint(sub[270:286])) * 16.0)
		case 3:
			eph.Cic = setF(float64(twosComp(sub[60:76])) * p2(-29))
			eph.Omega0 = setF(float64(twosComp(concatBits(sub[:], [2]int{76, 84}, [2]int{90, 114}))) * p2(-31) * gpsPi)
			eph.Cis = setF(float64(twosComp(sub[120:136])) * p2(-29))
			eph.I0 = setF(float64(twosComp(concatBits(sub[:], [2]int{136, 144}, [2]int{150, 174}))) * p2(-31) * gpsPi)
			eph.Crc = setF(float64(twosComp(sub[180:196])) * p2(-5))
			eph.Omega = setF(float64(twosComp(concatBits(sub[:], [2]int{196, 204}, [2]int{210, 234}))) * p2(-31) * gpsPi)
			eph.OmegaDot = setF(float64(twosComp(sub[240:264])) * p2(-43) * gpsPi)
			eph.IODESF3 = setI(int(bitsUint(sub[270:278])))
			eph.IDot = setF(float64(twosComp(sub[278:292])) * p2(-43) * gpsPi)
		default:
			// subframes 4 and 5: almanac/iono/UTC, out of scope.
		}
	}

	if !lastSubframeSet {
		return nil, gnsserr.ErrEphemerisIncomplete
	}
	tow := float64(bitsUint(lastSubframe[30:47]))*6 - 30
	eph.TOW = setF(tow)
	return eph, nil
}

// p2 returns 2^n for integer n, including negative n (scale factors).
func p2(n int) float64 {
	if n >= 0 {
		return float64(uint64(1) << uint(n))
	}
	v := 1.0
	for i := 0; i < -n; i++ {
		v /= 2
	}
	return v
}
