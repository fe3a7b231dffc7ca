/*------------------------------------------------------------------------------
* pseudorange.go : transmit-time and pseudorange formation (spec component H)
 */
package cugnssgo

import (
	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
)

// TransmitTime computes the satellite transmit time at absolute sample
// s, given the channel's TrackLog, the subframe-start index within that
// log (as returned by FindPreamble, in ms -> log-index terms handled by
// the caller), and the TOW of that subframe (spec §4.H).
//
//   codePhase_samples = remCodePhase[i] + (codeFreq[i]/fs) * (s - absoluteSample[i])
//   transmitTime = ((codePhase/L) + (i - subFrameStartIdx)) * L/fc + TOW
func TransmitTime(log *TrackLog, s Settings, measSample int64, subFrameStartIdx int, tow float64) (float64, error) {
	i := log.IndexAtOrBefore(measSample)
	if i < 0 {
		return 0, gnsserr.ErrInsufficientData
	}
	codePhase := log.RemCodePhase[i] + (log.CodeFreq[i]/s.Fs)*float64(measSample-log.AbsoluteSample[i])
	l := float64(s.CodeLength)
	transmit := (codePhase/l + float64(i-subFrameStartIdx)) * l / s.CodeFreqBasis + tow
	return transmit, nil
}

// ReceiverTimeInit computes the initial local receiver time at the
// first fix: max(transmit_time over channels) + startOffset (spec
// §4.H).
func ReceiverTimeInit(transmitTimes []float64, s Settings) float64 {
	var maxT float64
	for _, t := range transmitTimes {
		if t > maxT {
			maxT = t
		}
	}
	return maxT + s.StartOffsetMs*1e-3
}

// Pseudorange computes rho = (localTime - transmitTime) * c (spec §4.H).
func Pseudorange(localTime, transmitTime float64, s Settings) float64 {
	return (localTime - transmitTime) * s.SpeedOfLight()
}
