package cugnssgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChannels_RanksByPeakMetricDescending(t *testing.T) {
	results := []AcquisitionResult{
		{PRN: 3, CarrierFreqHz: 100, PeakMetric: 5.0},
		{PRN: 5, CarrierFreqHz: 200, PeakMetric: 9.0},
		{PRN: 9, CarrierFreqHz: 300, PeakMetric: 7.0},
	}
	channels := BuildChannels(results, 2)
	require.Len(t, channels, 2)
	assert.Equal(t, 5, channels[0].PRN)
	assert.Equal(t, 9, channels[1].PRN)
}

func TestBuildChannels_PadsWithOff(t *testing.T) {
	results := []AcquisitionResult{{PRN: 1, CarrierFreqHz: 50, PeakMetric: 4.0}}
	channels := BuildChannels(results, 3)
	require.Len(t, channels, 3)
	assert.Equal(t, ChannelTracking, channels[0].Status)
	assert.Equal(t, ChannelOff, channels[1].Status)
	assert.Equal(t, ChannelOff, channels[2].Status)
}

func TestBuildChannels_FiltersOutOfRangePRNAndUnacquired(t *testing.T) {
	results := []AcquisitionResult{
		{PRN: 0, CarrierFreqHz: 50, PeakMetric: 9.0},
		{PRN: 33, CarrierFreqHz: 50, PeakMetric: 9.0},
		{PRN: 4, CarrierFreqHz: 0, PeakMetric: 9.0}, // not Acquired(): freq==0
		{PRN: 8, CarrierFreqHz: 10, PeakMetric: 1.0},
	}
	channels := BuildChannels(results, 1)
	require.Len(t, channels, 1)
	assert.Equal(t, 8, channels[0].PRN)
}
