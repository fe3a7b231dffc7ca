/*------------------------------------------------------------------------------
* channelmanager.go : rank acquired signals, seed tracking channels (spec component D)
 */
package cugnssgo

import "sort"

// BuildChannels filters results to PRN in [1,32], sorts descending by
// PeakMetric, and seeds up to nch Tracking channels, padding any
// remaining slots with Off (spec §4.D; the filtered/[1,32]-restricted,
// zero-padded variant per spec §9's resolved open question).
func BuildChannels(results []AcquisitionResult, nch int) []Channel {
	filtered := make([]AcquisitionResult, 0, len(results))
	for _, r := range results {
		if r.PRN < MinPRN || r.PRN > MaxPRN {
			continue
		}
		if !r.Acquired() {
			continue
		}
		filtered = append(filtered, r)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PeakMetric > filtered[j].PeakMetric
	})

	channels := make([]Channel, nch)
	for i := 0; i < nch; i++ {
		if i < len(filtered) {
			r := filtered[i]
			channels[i] = Channel{
				PRN:          r.PRN,
				AcquiredFreq: r.CarrierFreqHz,
				CodePhase:    r.CodePhaseSamps,
				Status:       ChannelTracking,
			}
		} else {
			channels[i] = Channel{Status: ChannelOff}
		}
	}
	return channels
}
