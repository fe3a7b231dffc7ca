package cugnssgo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatChannelStatus_HeaderAndRowsPresent(t *testing.T) {
	channels := []Channel{
		{PRN: 5, AcquiredFreq: 2500, CodePhase: 17000, Status: ChannelTracking},
		{PRN: 0, AcquiredFreq: 0, CodePhase: 0, Status: ChannelOff},
	}
	results := []AcquisitionResult{
		{PRN: 5, CarrierFreqHz: 2500, CodePhaseSamps: 17000, PeakMetric: 4.2},
	}

	out := FormatChannelStatus(channels, results)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header row plus one row per channel, got %d lines", len(lines))
	}

	assert.Contains(t, lines[0], "PRN")
	assert.Contains(t, lines[1], "5")
	assert.Contains(t, lines[1], "4.2")
	assert.Contains(t, lines[2], "--")
}

func TestFormatChannelStatus_EmptyChannelsStillEmitsHeader(t *testing.T) {
	out := FormatChannelStatus(nil, nil)
	assert.Contains(t, out, "Ch")
	assert.Contains(t, out, "Metric")
}
