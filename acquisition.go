/*------------------------------------------------------------------------------
* acquisition.go : FFT circular-correlation acquisition engine (spec component C)
 */
package cugnssgo

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
	"github.com/rockiemtnjoe/cugnssgo/internal/gnsslog"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/dsp/fourier"
)

// DopplerBinExecutor evaluates the inner (Doppler bin, lag) accumulation
// loop. The default implementation runs it sequentially; an accelerated
// backend can implement the same interface on different hardware, as
// long as its detector matrix is bit-approximately equal (spec §4.C,
// "An optional accelerator backend").
type DopplerBinExecutor interface {
	// Run accumulates |ifft(spectrum * rollShift(tmplSpectrum, shift))|^2
	// into detector[bin] for every bin, given the already-FFT'd input
	// block spectrum and the template spectrum.
	Run(fft *fourier.CmplxFFT, inputSpectrum, tmplSpectrum []complex128, bins []int, initialShift, n int, detector [][]float64)
}

type sequentialExecutor struct{}

func (sequentialExecutor) Run(fft *fourier.CmplxFFT, inputSpectrum, tmplSpectrum []complex128, bins []int, initialShift, n int, detector [][]float64) {
	scratch := make([]complex128, n)
	rolled := make([]complex128, n)
	for bi, i := range bins {
		shift := mod(initialShift-i, n)
		rollInto(rolled, tmplSpectrum, shift)
		for k := 0; k < n; k++ {
			scratch[k] = inputSpectrum[k] * rolled[k]
		}
		corr := fft.Sequence(nil, scratch)
		row := detector[bi]
		for lag := 0; lag < n; lag++ {
			m := cmplx.Abs(corr[lag])
			row[lag] += m * m
		}
	}
}

func rollInto(dst, src []complex128, shift int) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[mod(i-shift, n)]
	}
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// AcquisitionEngine holds FFT plans and search parameters that are
// reused across PRNs (spec §9 "FFT plan reuse" design note: plan
// objects are part of engine state, not per-call constructions).
type AcquisitionEngine struct {
	settings Settings
	log      *logrus.Logger

	m       int // coherent integration count (code periods)
	ns      int // samples per 1ms code period
	n       int // transform length = 2*m*ns
	fft     *fourier.CmplxFFT
	bins    []int
	binFreqHz []float64
	initialShift int
	executor DopplerBinExecutor
}

// NewAcquisitionEngine builds an engine for the given settings. m is
// the coherent integration count in code periods (spec default: 1).
func NewAcquisitionEngine(s Settings, m int, logger *logrus.Logger) *AcquisitionEngine {
	if logger == nil {
		logger = gnsslog.Discard()
	}
	if m <= 0 {
		m = 1
	}
	ns := int(math.Round(s.Fs * CodePeriodSec))
	n := 2 * m * ns
	df := s.Fs / float64(n)
	nBins := int(math.Round(2*s.AcqSearchBand/df)) + 1
	if nBins < 1 {
		nBins = 1
	}
	center := nBins / 2
	bins := make([]int, nBins)
	binFreq := make([]float64, nBins)
	for i := range bins {
		bins[i] = i
		// Bin i rolls the conjugate template spectrum by center-i, which
		// matches an input carrier at (center-i)*df.
		binFreq[i] = float64(center-i) * df
	}
	return &AcquisitionEngine{
		settings:     s,
		log:          logger,
		m:            m,
		ns:           ns,
		n:            n,
		fft:          fourier.NewCmplxFFT(n),
		bins:         bins,
		binFreqHz:    binFreq,
		initialShift: center,
		executor:     sequentialExecutor{},
	}
}

// SetExecutor installs an alternate DopplerBinExecutor (e.g. a
// hardware-accelerated one). The default is a sequential executor.
func (e *AcquisitionEngine) SetExecutor(ex DopplerBinExecutor) { e.executor = ex }

// precondition removes per-channel DC, normalizes to ~0.5 peak, and
// mixes to baseband if IF != 0 (spec §4.C step 1).
func (e *AcquisitionEngine) precondition(samples []Sample) []complex128 {
	n := len(samples)
	var sumI, sumQ, peak float64
	for _, s := range samples {
		sumI += s.I
		sumQ += s.Q
	}
	meanI, meanQ := sumI/float64(n), sumQ/float64(n)
	out := make([]complex128, n)
	for i, s := range samples {
		ci, cq := s.I-meanI, s.Q-meanQ
		if math.Abs(ci) > peak {
			peak = math.Abs(ci)
		}
		if math.Abs(cq) > peak {
			peak = math.Abs(cq)
		}
		out[i] = complex(ci, cq)
	}
	if peak > 0 {
		scale := 0.5 / peak
		for i := range out {
			out[i] *= complex(scale, 0)
		}
	}
	if e.settings.IF != 0 {
		dt := 1.0 / e.settings.Fs
		for i := range out {
			t := float64(i) * dt
			out[i] *= cmplx.Exp(complex(0, -TwoPI*e.settings.IF*t))
		}
	}
	return out
}

// template builds the length 2*m*ns correlation template: the PRN code
// repeated m times, upsampled, concatenated with m code periods of
// zeros (spec §4.C step 2, zero-padding for linear correlation via
// circular FFT).
func (e *AcquisitionEngine) template(prn int) []complex128 {
	code := GenerateCACode(prn)
	up := UpsampleCACode(code, e.ns, e.settings.CodeFreqBasis, e.settings.Fs)
	t := make([]complex128, e.n)
	for rep := 0; rep < e.m; rep++ {
		for i := 0; i < e.ns; i++ {
			t[rep*e.ns+i] = complex(up[i], 0)
		}
	}
	return t
}

// Acquire runs the 2-D (code phase x Doppler) search for one PRN over
// source, using acqNonCohTime non-coherent intervals of the current
// read cursor (spec §4.C steps 1-7). It does not perform fine Doppler
// refinement; call AcquireFine for the full pipeline including step 8.
func (e *AcquisitionEngine) Acquire(source *SampleSource, prn int) (AcquisitionResult, error) {
	nnc := e.settings.AcqNonCohTime
	if nnc <= 0 {
		nnc = 1
	}
	needed := nnc * e.n
	samples, err := source.Read(needed)
	if err != nil {
		return AcquisitionResult{}, fmt.Errorf("acquisition PRN %d: %w", prn, err)
	}

	tmpl := e.template(prn)
	tmplSpec := e.fft.Coefficients(nil, tmpl)
	for i := range tmplSpec {
		tmplSpec[i] = cmplx.Conj(tmplSpec[i])
	}

	detector := make([][]float64, len(e.bins))
	for i := range detector {
		detector[i] = make([]float64, e.n)
	}

	pre := e.precondition(samples)
	for interval := 0; interval < nnc; interval++ {
		block := pre[interval*e.n : (interval+1)*e.n]
		inSpec := e.fft.Coefficients(nil, block)
		e.executor.Run(e.fft, inSpec, tmplSpec, e.bins, e.initialShift, e.n, detector)
	}

	normFactor := float64(nnc) * float64(e.ns)
	var maxVal float64
	var maxBin, maxLag int
	for bi := range detector {
		for lag := 0; lag < e.n; lag++ {
			v := detector[bi][lag] / normFactor
			detector[bi][lag] = v
			if v > maxVal {
				maxVal, maxBin, maxLag = v, bi, lag
			}
		}
	}

	sigma := noiseScale(pre, e.ns)
	metric := 0.0
	if sigma > 0 {
		metric = maxVal / (sigma * float64(nnc))
	}

	res := AcquisitionResult{PRN: prn, CodePhaseSamps: float64(maxLag), PeakMetric: metric}
	if metric > e.settings.AcqThreshold {
		freq := e.binFreqHz[maxBin]
		if freq == 0 {
			freq = 1 // spec §4.C: coerce a detected zero-Doppler peak to 1Hz
		}
		res.CarrierFreqHz = freq
	}
	if !res.Acquired() {
		e.log.WithFields(logrus.Fields{"prn": prn, "metric": metric}).Debug("acquisition: PRN below threshold")
		return res, fmt.Errorf("PRN %d: %w", prn, gnsserr.ErrAcquisitionFailed)
	}
	e.log.WithFields(logrus.Fields{"prn": prn, "metric": metric, "freq": res.CarrierFreqHz, "codePhase": res.CodePhaseSamps}).
		Info("acquisition: PRN acquired (coarse)")
	return res, nil
}

// noiseScale computes sigma = sqrt(var(first code period) * Ns) over
// the first ns samples of the preconditioned input (spec §4.C step 7).
func noiseScale(pre []complex128, ns int) float64 {
	if len(pre) < ns {
		ns = len(pre)
	}
	if ns == 0 {
		return 0
	}
	var mean float64
	mags := make([]float64, ns)
	for i := 0; i < ns; i++ {
		m := cmplx.Abs(pre[i])
		mags[i] = m * m
		mean += mags[i]
	}
	mean /= float64(ns)
	var variance float64
	for _, v := range mags {
		d := v - mean
		variance += d * d
	}
	variance /= float64(ns)
	return math.Sqrt(variance * float64(ns))
}

// AcquireFine performs coarse acquisition (Acquire) followed by the
// fine-Doppler refinement of spec §4.C step 8: 40ms of signal wiped by
// the PRN code at the coarse phase is scanned on a fine grid (default
// 25Hz) around the coarse Doppler bin; for each candidate frequency the
// 20 possible navigation-bit-edge alignments are tried and the maximum
// 20ms coherent magnitude retained.
func (e *AcquisitionEngine) AcquireFine(source *SampleSource, prn int, fineStepHz float64) (AcquisitionResult, error) {
	startPos := source.Tell()
	coarse, err := e.Acquire(source, prn)
	if err != nil {
		return coarse, err
	}
	if fineStepHz <= 0 {
		fineStepHz = 25
	}

	code := GenerateCACode(prn)
	up := UpsampleCACode(code, e.ns, e.settings.CodeFreqBasis, e.settings.Fs)

	source.Seek(startPos + int64(coarse.CodePhaseSamps))
	raw, err := source.Read(40 * e.ns)
	if err != nil {
		return coarse, fmt.Errorf("fine doppler PRN %d: %w", prn, err)
	}
	pre := e.precondition(raw)

	dt := 1.0 / e.settings.Fs
	searchHalf := e.settings.AcqSearchStep // scan across the coarse step, per spec
	var best struct {
		freq float64
		mag  float64
	}
	for f := coarse.CarrierFreqHz - searchHalf; f <= coarse.CarrierFreqHz+searchHalf; f += fineStepHz {
		sums := make([]complex128, 40)
		for ms := 0; ms < 40; ms++ {
			var acc complex128
			base := ms * e.ns
			for i := 0; i < e.ns; i++ {
				t := float64(base+i) * dt
				carrier := cmplx.Exp(complex(0, -TwoPI*f*t))
				acc += pre[base+i] * complex(up[i], 0) * carrier
			}
			sums[ms] = acc
		}
		for align := 0; align < 20; align++ {
			var coherent complex128
			for j := 0; j < 20; j++ {
				coherent += sums[align+j]
			}
			mag := cmplx.Abs(coherent)
			if mag > best.mag {
				best.mag = mag
				best.freq = f
			}
		}
	}

	fine := coarse
	fine.CarrierFreqHz = best.freq
	if fine.CarrierFreqHz == 0 {
		fine.CarrierFreqHz = 1
	}
	e.log.WithFields(logrus.Fields{"prn": prn, "fineFreq": fine.CarrierFreqHz}).Info("acquisition: fine Doppler resolved")
	return fine, nil
}
