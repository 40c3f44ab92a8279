package sdrgnss

import "math"

// SignalType identifies a tracked signal by constellation and carrier.
type SignalType int

const (
	SignalGPSL1CA SignalType = iota
	SignalGalE1B
)

func (s SignalType) String() string {
	switch s {
	case SignalGPSL1CA:
		return "1C"
	case SignalGalE1B:
		return "1B"
	default:
		return "??"
	}
}

// System returns the SYS_* constant (types.go) for this signal's constellation.
func (s SignalType) System() int {
	switch s {
	case SignalGPSL1CA:
		return SYS_GPS
	case SignalGalE1B:
		return SYS_GAL
	default:
		return SYS_NONE
	}
}

// Sample is a single complex baseband IQ value at the configured f_IF/f_s.
type Sample complex128

// ChannelState is one of the per-channel FSM states of spec.md §4.H.
type ChannelState int

const (
	StateIdle ChannelState = iota
	StateAcquiring
	StateAcquired
	StateTracking
	StateTelemetrySync
	StateDelivering
	StateLost
)

func (s ChannelState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAcquiring:
		return "ACQUIRING"
	case StateAcquired:
		return "ACQUIRED"
	case StateTracking:
		return "TRACKING"
	case StateTelemetrySync:
		return "TELEMETRY_SYNC"
	case StateDelivering:
		return "DELIVERING"
	case StateLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}

// GnssSynchro is the per-sample, per-channel exchange record of spec.md §3.
// Downstream stages see read-only snapshots; the producing stage owns the
// live value.
type GnssSynchro struct {
	ChannelID int
	PRN       int
	Signal    SignalType

	AcqDopplerHz       float64
	AcqCodePhaseSamp   float64
	AcqSamplestamp     uint64

	PromptI float64
	PromptQ float64

	CodePhaseSamples float64
	CarrierPhaseCyc  float64
	CarrierDopplerHz float64
	CN0dBHz          float64

	PseudorangeM           float64
	FlagValidPseudorange   bool
	TOWAtCurrentSymbol     float64 // seconds into week
	TOWHybridAtCurrentSymbol float64

	Week int
}

// Valid reports whether the pseudorange invariant of spec.md §3 holds:
// Flag_valid_pseudorange ⇒ Pseudorange_m finite and TOW in [0, one week).
func (g *GnssSynchro) Valid() bool {
	if !g.FlagValidPseudorange {
		return true
	}
	const secondsPerWeek = 604800.0
	return !math.IsNaN(g.PseudorangeM) && !math.IsInf(g.PseudorangeM, 0) &&
		g.TOWHybridAtCurrentSymbol >= 0 && g.TOWHybridAtCurrentSymbol < secondsPerWeek
}

// Clone returns a read-only snapshot suitable for handing to a downstream
// stage; the pipeline stage that produced g retains ownership of g itself.
func (g *GnssSynchro) Clone() GnssSynchro {
	return *g
}

// PVTSolution is the output of Module G, spec.md §3.
type PVTSolution struct {
	Time Gtime

	X, Y, Z    float64 // ECEF position (m)
	ClockBiasM float64 // receiver clock bias expressed in metres (c*dt)

	LatDeg, LonDeg, HeightM float64

	GDOP, HDOP, VDOP, TDOP float64

	NSats int
	Fix   bool // false ⇒ NO_FIX
}

// ECEF returns the position as a 3-vector, for passing into common.go's
// Ecef2Pos/XYZ2Enu style helpers.
func (s *PVTSolution) ECEF() [3]float64 {
	return [3]float64{s.X, s.Y, s.Z}
}

// IonoGPS is the GPS broadcast Klobuchar ionospheric model (subframe 4/5).
type IonoGPS struct {
	Alpha [4]float64
	Beta  [4]float64
}

// IonoGalileo is the Galileo NeQuick-light broadcast model.
type IonoGalileo struct {
	Ai0, Ai1, Ai2 float64
	Flags         uint8
}

// UTCModel is the broadcast GPST<->UTC conversion polynomial, shared shape
// across constellations (A0, A1, leap seconds, reference time).
type UTCModel struct {
	A0, A1  float64
	Tot     float64
	WeekT   int
	LeapSec int
	WNlsf   int
	DN      int
	DeltaTlsf int
}

// AlmanacEntry is one satellite's reduced-precision orbital element set,
// broadcast in GPS subframes 4/5 or Galileo almanac pages.
type AlmanacEntry struct {
	PRN  int
	Week int
	Toa  float64
	Eph  Eph
}
