/*------------------------------------------------------------------------------
* samplesource.go : seekable typed IQ sample source (spec component A)
 */
package cugnssgo

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
)

// Sample is one receiver sample: real streams carry I only (Q==0), IQ
// streams carry both.
type Sample struct {
	I, Q float64
}

// SampleSource exposes Seek(sample index)/Read(n) over a finite,
// byte-addressed sample stream (spec §4.A). Seek takes a sample index
// counted after skipBytes, not a byte offset; the byte offset of each
// sample is derived internally. When the backing file is complex,
// interleaved I/Q pairs are combined into a Sample before delivery.
type SampleSource struct {
	r          io.ReaderAt
	skipBytes  int64
	dataType   SampleType
	fileType   FileType
	bytesPerSample int64 // per raw element, not per combined Sample

	mu  sync.Mutex
	pos int64 // current sample index from skipBytes, 0-based
}

func elementSize(t SampleType) int64 {
	switch t {
	case SampleInt8:
		return 1
	case SampleInt16:
		return 2
	case SampleFloat32:
		return 4
	default:
		return 1
	}
}

// NewSampleSource builds a source over r, skipping skipBytes before the
// first sample.
func NewSampleSource(r io.ReaderAt, skipBytes int64, dataType SampleType, fileType FileType) *SampleSource {
	return &SampleSource{
		r:              r,
		skipBytes:      skipBytes,
		dataType:       dataType,
		fileType:       fileType,
		bytesPerSample: elementSize(dataType),
	}
}

// Seek moves the read cursor to sample index idx (0-based, counted from
// the first sample after skipBytes).
func (s *SampleSource) Seek(idx int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = idx
}

// Tell reports the current sample index.
func (s *SampleSource) Tell() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// byteOffset returns the absolute byte offset of sample index idx.
func (s *SampleSource) byteOffset(idx int64) int64 {
	elemsPerSample := int64(1)
	if s.fileType == FileIQ {
		elemsPerSample = 2
	}
	return s.skipBytes + idx*elemsPerSample*s.bytesPerSample
}

// Read returns the next n samples and advances the cursor. It fails
// with gnsserr.ErrInsufficientData when fewer than n samples remain.
func (s *SampleSource) Read(n int) ([]Sample, error) {
	s.mu.Lock()
	start := s.pos
	s.mu.Unlock()

	elemsPerSample := int64(1)
	if s.fileType == FileIQ {
		elemsPerSample = 2
	}
	raw := make([]byte, int64(n)*elemsPerSample*s.bytesPerSample)
	off := s.byteOffset(start)
	nread, err := s.r.ReadAt(raw, off)
	if nread < len(raw) {
		if err == io.EOF || err == nil {
			return nil, fmt.Errorf("%w: requested %d samples at offset %d, got %d bytes of %d",
				gnsserr.ErrInsufficientData, n, off, nread, len(raw))
		}
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		if s.fileType == FileIQ {
			iVal := decodeElement(raw, (int64(i)*2)*s.bytesPerSample, s.dataType)
			qVal := decodeElement(raw, (int64(i)*2+1)*s.bytesPerSample, s.dataType)
			out[i] = Sample{I: iVal, Q: qVal}
		} else {
			iVal := decodeElement(raw, int64(i)*s.bytesPerSample, s.dataType)
			out[i] = Sample{I: iVal, Q: 0}
		}
	}

	s.mu.Lock()
	s.pos = start + int64(n)
	s.mu.Unlock()
	return out, nil
}

func decodeElement(buf []byte, byteOff int64, t SampleType) float64 {
	switch t {
	case SampleInt8:
		return float64(int8(buf[byteOff]))
	case SampleInt16:
		v := int16(buf[byteOff]) | int16(buf[byteOff+1])<<8
		return float64(v)
	case SampleFloat32:
		bits := uint32(buf[byteOff]) | uint32(buf[byteOff+1])<<8 |
			uint32(buf[byteOff+2])<<16 | uint32(buf[byteOff+3])<<24
		return float64(math.Float32frombits(bits))
	default:
		return 0
	}
}

// Stats summarizes DC offset and clipping of a sample window
// (supplemented per SPEC_FULL §5 in place of the teacher's out-of-scope
// file-sniffing CLI). The Acquisition Engine's DC-removal/normalization
// step (spec §4.C step 1) computes its own means and does not use it.
type Stats struct {
	MeanI, MeanQ       float64
	ClippedFraction    float64
}

// ProbeStats computes Stats over n samples starting at the current
// cursor, without consuming the cursor (it seeks back afterward).
func (s *SampleSource) ProbeStats(n int, fullScale float64) (Stats, error) {
	start := s.Tell()
	defer s.Seek(start)

	samples, err := s.Read(n)
	if err != nil {
		return Stats{}, err
	}
	var sumI, sumQ float64
	var clipped int
	for _, sm := range samples {
		sumI += sm.I
		sumQ += sm.Q
		if math.Abs(sm.I) >= fullScale || math.Abs(sm.Q) >= fullScale {
			clipped++
		}
	}
	return Stats{
		MeanI:           sumI / float64(n),
		MeanQ:           sumQ / float64(n),
		ClippedFraction: float64(clipped) / float64(n),
	}, nil
}
