/*------------------------------------------------------------------------------
* tracking.go : per-channel DLL/PLL tracker (spec component E)
 */
package cugnssgo

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
	"github.com/rockiemtnjoe/cugnssgo/internal/gnsslog"
	"github.com/sirupsen/logrus"
)

// Tracker owns the closed-loop state for one channel (spec §4.E).
// Tracking is independent across channels (spec §5); callers give each
// Tracker its own io.ReaderAt-backed SampleSource so channels can run
// concurrently without a shared file-position race.
type Tracker struct {
	prn int

	codeFreqBasis float64
	carrFreqBasis float64

	codeFreq float64
	carrFreq float64

	remCodePhase float64 // in [0, L)
	remCarrPhase float64 // in [0, 2*pi)

	code []float64 // the 1023-chip +-1 PRN sequence

	codeLoop  loopIntegrator
	carrLoop  loopIntegrator
	codeCoef  LoopCoef
	carrCoef  LoopCoef

	delta float64 // dllCorrelatorSpacing, chips

	log *logrus.Logger
}

// NewTracker builds a tracker seeded from a just-acquired Channel.
func NewTracker(ch Channel, s Settings, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = gnsslog.Discard()
	}
	return &Tracker{
		prn:           ch.PRN,
		codeFreqBasis: s.CodeFreqBasis,
		carrFreqBasis: ch.AcquiredFreq,
		codeFreq:      s.CodeFreqBasis,
		carrFreq:      ch.AcquiredFreq,
		remCodePhase:  0,
		remCarrPhase:  0,
		code:          GenerateCACode(ch.PRN),
		codeCoef:      CalcLoopCoef(s.DLLNoiseBandwidth, s.DLLDampingRatio, 1.0),
		carrCoef:      CalcLoopCoef(s.PLLNoiseBandwidth, s.PLLDampingRatio, 0.25),
		delta:         s.DLLCorrelatorSpacing,
		log:           logger,
	}
}

// codeAt returns the chip value of the PRN sequence at fractional chip
// position pos, using ceil-indexing mod L (spec §4.E step 3 uses the
// same ceil convention as the C/A upsampler).
func (t *Tracker) codeAt(pos float64) float64 {
	idx := mod(int(math.Ceil(pos)), CodeLength)
	return t.code[idx]
}

// replica generates n samples of a code replica offset by shift chips
// from the current residual code phase, advancing at codeFreq/fs chips
// per sample (spec §4.E step 3).
func (t *Tracker) replica(n int, shift, chipsPerSample float64) []float64 {
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		pos := t.remCodePhase + shift + float64(j)*chipsPerSample
		out[j] = t.codeAt(pos)
	}
	return out
}

// Track runs the closed loop for up to msToProcess iterations, reading
// from source (which must already be seeked to the channel's acquired
// code-phase offset). progress, if non-nil, is called after each
// completed iteration. cancel, if non-nil, halts tracking at the next
// iteration boundary and returns the truncated log (spec §5
// cancellation model) instead of an error.
func (t *Tracker) Track(source *SampleSource, s Settings, msToProcess int, cancel <-chan struct{}, progress func(k int)) (*TrackLog, error) {
	log := NewTrackLog(t.prn, msToProcess)
	fs := s.Fs

	vsmInterval := s.CNoVSMInterval
	if vsmInterval <= 0 {
		vsmInterval = 50
	}
	ipHist := make([]float64, 0, vsmInterval)
	qpHist := make([]float64, 0, vsmInterval)

	for k := 0; k < msToProcess; k++ {
		if cancel != nil {
			select {
			case <-cancel:
				return log, nil
			default:
			}
		}

		chipsPerSample := t.codeFreq / fs
		nk := int(math.Ceil((float64(CodeLength) - t.remCodePhase) / chipsPerSample))
		if nk <= 0 {
			nk = 1
		}

		startSample := source.Tell()
		samples, err := source.Read(nk)
		if err != nil {
			t.log.WithFields(logrus.Fields{"prn": t.prn, "k": k}).Warn("tracking: stream exhausted, truncating log")
			return log, fmt.Errorf("%w: PRN %d at k=%d", gnsserr.ErrInsufficientData, t.prn, k)
		}

		early := t.replica(nk, -t.delta, chipsPerSample)
		prompt := t.replica(nk, 0, chipsPerSample)
		late := t.replica(nk, t.delta, chipsPerSample)

		dt := 1.0 / fs
		var acc CorrAccum
		var lastPhase float64
		for j := 0; j < nk; j++ {
			tt := float64(j) * dt
			phase := TwoPI*t.carrFreq*tt + t.remCarrPhase
			lastPhase = TwoPI*t.carrFreq*float64(nk)*dt + t.remCarrPhase
			carrier := cmplx.Exp(complex(0, -phase))
			bb := complex(samples[j].I, samples[j].Q) * carrier

			acc.IE += real(bb) * early[j]
			acc.QE += imag(bb) * early[j]
			acc.IP += real(bb) * prompt[j]
			acc.QP += imag(bb) * prompt[j]
			acc.IL += real(bb) * late[j]
			acc.QL += imag(bb) * late[j]
		}

		pllErr := costasDiscriminator(acc.IP, acc.QP)
		carrNco := t.carrLoop.step(t.carrCoef, pllErr, s.IntTime)
		t.carrFreq = t.carrFreqBasis + carrNco

		dllErr := emlDiscriminator(acc.IE, acc.QE, acc.IL, acc.QL)
		codeNco := t.codeLoop.step(t.codeCoef, dllErr, s.IntTime)
		t.codeFreq = t.codeFreqBasis - codeNco

		t.remCodePhase = t.remCodePhase + float64(nk)*chipsPerSample - float64(CodeLength)
		t.remCarrPhase = math.Mod(lastPhase, TwoPI)
		if t.remCarrPhase < 0 {
			t.remCarrPhase += TwoPI
		}

		log.append(startSample, t.codeFreq, t.carrFreq, acc,
			dllErr, t.codeLoop.oldNco, pllErr, t.carrLoop.oldNco,
			t.remCodePhase, t.remCarrPhase)

		ipHist = append(ipHist, acc.IP)
		qpHist = append(qpHist, acc.QP)
		if len(ipHist) == vsmInterval {
			cno := CNoVSM(ipHist, qpHist, s.CNoAccTime)
			log.CNo = append(log.CNo, CNoSample{AtSample: startSample + int64(nk), ValueDBHz: cno})
			ipHist = ipHist[:0]
			qpHist = qpHist[:0]
		}

		if progress != nil {
			progress(k)
		}
	}
	return log, nil
}
