/*------------------------------------------------------------------------------
* channelstatus.go : human-readable channel status table (spec §6)
 */
package cugnssgo

import (
	"fmt"
	"strings"
)

// FormatChannelStatus renders the per-channel acquisition/tracking
// state as a fixed-width table, the receiver's equivalent of RTKLIB's
// rtkrcv console status view.
func FormatChannelStatus(channels []Channel, results []AcquisitionResult) string {
	byPRN := make(map[int]AcquisitionResult, len(results))
	for _, r := range results {
		byPRN[r.PRN] = r
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-3s %-3s %-9s %12s %10s %10s\n", "Ch", "PRN", "Status", "Freq(Hz)", "CodePh", "Metric")
	for i, ch := range channels {
		metric := 0.0
		if r, ok := byPRN[ch.PRN]; ok {
			metric = r.PeakMetric
		}
		prn := "--"
		if ch.PRN > 0 {
			prn = fmt.Sprintf("%d", ch.PRN)
		}
		fmt.Fprintf(&b, "%-3d %-3s %-9s %12.2f %10.2f %10.3f\n",
			i, prn, ch.Status, ch.AcquiredFreq, ch.CodePhase, metric)
	}
	return b.String()
}
