/*------------------------------------------------------------------------------
* pipeline.go : end-to-end receiver orchestration (spec §5)
 */
package cugnssgo

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rockiemtnjoe/cugnssgo/internal/gnsserr"
	"github.com/rockiemtnjoe/cugnssgo/internal/gnsslog"
	"github.com/sirupsen/logrus"
)

// Pipeline runs the full cold-start -> track -> navigate sequence
// (spec §5): acquisition and channel selection happen once, tracking
// runs one goroutine per channel against its own SampleSource (backed
// by a shared io.ReaderAt, since ReadAt is inherently concurrency-safe
// across offsets), and the post-navigation stage runs once tracking
// completes or is cancelled.
type Pipeline struct {
	Settings Settings
	RunID    uuid.UUID
	log      *logrus.Logger
}

// NewPipeline builds a pipeline tagged with a fresh run ID, the way the
// receiver's log lines are correlated across a cold-start run.
func NewPipeline(s Settings, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = gnsslog.Discard()
	}
	return &Pipeline{Settings: s, RunID: uuid.New(), log: logger}
}

// ColdStart acquires every PRN named in Settings.AcqSatelliteList (or
// all of PRN 1..32 if empty), re-seeking r to the same starting offset
// before each attempt so every PRN is searched over the same window of
// samples (spec §3 "cold start").
func (p *Pipeline) ColdStart(r io.ReaderAt) ([]AcquisitionResult, []Channel, error) {
	prns := p.Settings.AcqSatelliteList
	if len(prns) == 0 {
		prns = make([]int, 0, MaxPRN)
		for prn := MinPRN; prn <= MaxPRN; prn++ {
			prns = append(prns, prn)
		}
	}

	engine := NewAcquisitionEngine(p.Settings, 1, p.log)
	results := make([]AcquisitionResult, 0, len(prns))
	for _, prn := range prns {
		source := NewSampleSource(r, p.Settings.SkipNumberOfBytes, p.Settings.DataType, p.Settings.FileType)
		res, err := engine.AcquireFine(source, prn, 25)
		if err != nil {
			p.log.WithFields(logrus.Fields{"run": p.RunID, "prn": prn}).Debug("cold start: PRN not acquired")
			continue
		}
		results = append(results, res)
	}

	channels := BuildChannels(results, p.Settings.NumberOfChannels)
	p.log.WithFields(logrus.Fields{"run": p.RunID, "acquired": len(results), "channels": p.Settings.NumberOfChannels}).
		Info("cold start complete")
	return results, channels, nil
}

// TrackAll runs one Tracker per active channel concurrently, each
// against its own SampleSource seeked to that channel's acquired code
// phase (spec §5: "tracking is independent across channels"). Off
// channels produce a nil log at their index.
func (p *Pipeline) TrackAll(r io.ReaderAt, channels []Channel, cancel <-chan struct{}) ([]*TrackLog, error) {
	logs := make([]*TrackLog, len(channels))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, ch := range channels {
		if ch.Status != ChannelTracking {
			continue
		}
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			source := NewSampleSource(r, p.Settings.SkipNumberOfBytes, p.Settings.DataType, p.Settings.FileType)
			source.Seek(int64(ch.CodePhase))
			tracker := NewTracker(ch, p.Settings, p.log)
			log, err := tracker.Track(source, p.Settings, p.Settings.MsToProcess, cancel, nil)
			logs[i] = log
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i, ch)
	}
	wg.Wait()
	return logs, firstErr
}

// ChannelNav is the decoded navigation-layer state for one tracked
// channel: its parsed ephemeris and the sample index of its first
// decoded subframe, needed to convert TrackLog indices into transmit
// times (spec §4.F/G/H).
type ChannelNav struct {
	PRN             int
	Eph             *Ephemeris
	SubFrameStartMs int
}

// DecodeNav runs bit/frame sync and ephemeris decoding against one
// channel's prompt correlator history (spec §4.F, §4.G).
func DecodeNav(log *TrackLog) (*ChannelNav, error) {
	if log == nil || log.Len() == 0 {
		return nil, gnsserr.ErrInsufficientData
	}
	ip := make([]float64, log.Len())
	for i, c := range log.Corr {
		ip[i] = c.IP
	}
	subFrameStart, err := FindPreamble(ip, log.Len())
	if err != nil {
		return nil, fmt.Errorf("PRN %d: %w", log.PRN, err)
	}
	navBits, d30star, err := ExtractNavBits(ip, subFrameStart)
	if err != nil {
		return nil, fmt.Errorf("PRN %d: %w", log.PRN, err)
	}
	eph, err := DecodeEphemeris(navBits, d30star, log.PRN)
	if err != nil {
		return nil, fmt.Errorf("PRN %d: %w", log.PRN, err)
	}
	return &ChannelNav{PRN: log.PRN, Eph: eph, SubFrameStartMs: subFrameStart}, nil
}

// buildObs forms one channel's contribution to a single navigation fix:
// the pseudorange formed at a chosen measurement sample, ready to hand
// to SolvePVT.
func buildObs(log *TrackLog, nav *ChannelNav, s Settings, measSample int64, localTime float64) (SatelliteObs, error) {
	transmit, err := TransmitTime(log, s, measSample, nav.SubFrameStartMs, nav.Eph.TOW.Val())
	if err != nil {
		return SatelliteObs{}, err
	}
	rho := Pseudorange(localTime, transmit, s)
	return SatelliteObs{PRN: nav.PRN, Pseudorange: rho, Eph: nav.Eph, TransmitT: transmit}, nil
}

// RunNavigation decodes ephemeris for every tracked channel, then forms
// a sequence of PVT fixes spaced NavSolPeriod ms apart (spec §4.H, §5).
// Channels that never resolve a preamble or a usable ephemeris are
// dropped from every epoch; an epoch with fewer than 4 remaining
// channels is skipped.
func (p *Pipeline) RunNavigation(logs []*TrackLog) ([]*NavSolution, error) {
	navs := make([]*ChannelNav, 0, len(logs))
	for _, log := range logs {
		if log == nil {
			continue
		}
		nav, err := DecodeNav(log)
		if err != nil {
			p.log.WithFields(logrus.Fields{"run": p.RunID}).WithError(err).Debug("navigation: channel dropped")
			continue
		}
		if !nav.Eph.Usable() {
			continue
		}
		navs = append(navs, nav)
	}
	if len(navs) < 4 {
		return nil, fmt.Errorf("%w: only %d channels with usable ephemeris", gnsserr.ErrRankDeficient, len(navs))
	}

	logByPRN := make(map[int]*TrackLog, len(logs))
	for _, log := range logs {
		if log != nil {
			logByPRN[log.PRN] = log
		}
	}

	step := p.Settings.NavSolPeriod
	if step <= 0 {
		step = 500
	}
	maxK := logByPRN[navs[0].PRN].Len()
	for _, n := range navs {
		if l := logByPRN[n.PRN].Len(); l < maxK {
			maxK = l
		}
	}

	var solutions []*NavSolution
	var localTime float64
	var initialPos [3]float64
	firstFix := true

	for k := 0; k < maxK; k += step {
		obsSet := make([]SatelliteObs, 0, len(navs))
		var transmitTimes []float64
		for _, n := range navs {
			log := logByPRN[n.PRN]
			measSample := log.AbsoluteSample[k]
			t, err := TransmitTime(log, p.Settings, measSample, n.SubFrameStartMs, n.Eph.TOW.Val())
			if err != nil {
				continue
			}
			transmitTimes = append(transmitTimes, t)
		}
		if len(transmitTimes) < 4 {
			continue
		}
		if firstFix {
			localTime = ReceiverTimeInit(transmitTimes, p.Settings)
			firstFix = false
		}

		for _, n := range navs {
			log := logByPRN[n.PRN]
			measSample := log.AbsoluteSample[k]
			o, err := buildObs(log, n, p.Settings, measSample, localTime)
			if err != nil {
				continue
			}
			obsSet = append(obsSet, o)
		}
		if len(obsSet) < 4 {
			continue
		}

		sol, err := SolvePVT(obsSet, p.Settings, initialPos)
		if err != nil {
			p.log.WithFields(logrus.Fields{"run": p.RunID, "k": k}).WithError(err).Debug("navigation: fix failed")
			continue
		}
		sol.LocalTime = localTime
		sol.CurrMeasSample = logByPRN[navs[0].PRN].AbsoluteSample[k]
		solutions = append(solutions, sol)
		initialPos = [3]float64{sol.X, sol.Y, sol.Z}
		localTime += float64(step) * 1e-3
	}
	return solutions, nil
}
