// Package gnsserr collects the receiver's error taxonomy (spec §7).
// Every condition here is non-fatal to the overall pipeline: callers
// degrade the result set (drop a PRN, truncate a log, flag a solution
// invalid) rather than aborting, except InsufficientData which ends
// the affected stage.
package gnsserr

import "errors"

var (
	// ErrInsufficientData: the sample stream ended before the window a
	// caller asked for was fully read.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrAcquisitionFailed: peak metric did not exceed acqThreshold.
	ErrAcquisitionFailed = errors.New("acquisition failed")

	// ErrPreambleNotFound: no parity-valid TLM preamble located within
	// msToProcess on a channel.
	ErrPreambleNotFound = errors.New("preamble not found")

	// ErrEphemerisIncomplete: subframes missing or health != 0.
	ErrEphemerisIncomplete = errors.New("ephemeris incomplete")

	// ErrRankDeficient: fewer than 4 usable satellites, or a degenerate
	// geometry matrix, in a PVT epoch.
	ErrRankDeficient = errors.New("rank deficient")

	// ErrNumericNonConvergence: an iterative solve (geodetic, Kepler)
	// exceeded its iteration budget. The caller still gets the last
	// iterate; this is a warning-grade condition.
	ErrNumericNonConvergence = errors.New("numeric non-convergence")
)
