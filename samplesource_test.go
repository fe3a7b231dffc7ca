package cugnssgo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSource_ReadInt16IQ(t *testing.T) {
	var buf bytes.Buffer
	vals := []int16{10, -10, 20, -20, 30, -30}
	for _, v := range vals {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	src := NewSampleSource(bytes.NewReader(buf.Bytes()), 0, SampleInt16, FileIQ)
	samples, err := src.Read(3)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, Sample{I: 10, Q: -10}, samples[0])
	assert.Equal(t, Sample{I: 20, Q: -20}, samples[1])
	assert.Equal(t, Sample{I: 30, Q: -30}, samples[2])
	assert.Equal(t, int64(3), src.Tell())
}

func TestSampleSource_ReadRealInt8(t *testing.T) {
	raw := []byte{1, 2, 0xFF, 0x80} // 1,2,-1,-128
	src := NewSampleSource(bytes.NewReader(raw), 0, SampleInt8, FileReal)
	samples, err := src.Read(4)
	require.NoError(t, err)
	assert.Equal(t, []Sample{{I: 1}, {I: 2}, {I: -1}, {I: -128}}, samples)
}

func TestSampleSource_InsufficientData(t *testing.T) {
	raw := []byte{1, 2}
	src := NewSampleSource(bytes.NewReader(raw), 0, SampleInt8, FileReal)
	_, err := src.Read(10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gnsserr.ErrInsufficientData))
}

func TestSampleSource_SkipBytesOffsetsFirstSample(t *testing.T) {
	raw := []byte{0xAA, 5, 6}
	src := NewSampleSource(bytes.NewReader(raw), 1, SampleInt8, FileReal)
	samples, err := src.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []Sample{{I: 5}, {I: 6}}, samples)
}

func TestSampleSource_SeekThenRead(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	src := NewSampleSource(bytes.NewReader(raw), 0, SampleInt8, FileReal)
	src.Seek(3)
	samples, err := src.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []Sample{{I: 4}, {I: 5}}, samples)
}

func TestSampleSource_ProbeStatsDoesNotConsumeCursor(t *testing.T) {
	raw := []byte{100, 100, 100, 100}
	src := NewSampleSource(bytes.NewReader(raw), 0, SampleInt8, FileReal)
	stats, err := src.ProbeStats(4, 127)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, stats.MeanI, 1e-9)
	assert.Equal(t, int64(0), src.Tell())
}
