package sdrgnss

import (
	"math"
)

/* acquisition.go : Module B — Acquisition Engine
*
* Decides present/absent for a configured PRN and, on detection, reports
* (code_phase_samples, Doppler_Hz). Three algorithm variants share one
* state machine and one threshold formula: PCPS (grid search), Tong
* (sequential counter), QuickSync (folded sparse FFT).
 */

type AcqVariant int

const (
	AcqPCPS AcqVariant = iota
	AcqTong
	AcqQuickSync
)

type AcqState int

const (
	AcqStandby AcqState = iota
	AcqSearching
	AcqPositive
	AcqNegative
)

func (s AcqState) String() string {
	switch s {
	case AcqStandby:
		return "STANDBY"
	case AcqSearching:
		return "SEARCHING"
	case AcqPositive:
		return "POSITIVE"
	case AcqNegative:
		return "NEGATIVE"
	default:
		return "UNKNOWN"
	}
}

// AcqConfig carries the configuration keys of spec.md §6 scoped to one
// channel's acquisition engine.
type AcqConfig struct {
	Variant AcqVariant

	FsHz               float64
	DopplerMaxHz       float64
	DopplerStepHz      float64
	Threshold          float64 // ignored if Pfa > 0
	Pfa                float64
	MaxDwells          int
	BitTransitionFlag  bool
	SampledMs          int
	CBOCFlag           bool

	TongInitVal int
	TongMaxVal  int

	FoldingFactor int // QuickSync only; >=1

	DumpEnabled  bool
	DumpFilename string
}

// AcqResult is published on POSITIVE detection.
type AcqResult struct {
	CodePhaseSamples float64
	DopplerHz        float64
	SamplestampSamp  uint64
	PeakToNoise      float64
}

// Acquirer is the capability set of Design Note "Polymorphic acquisition
// / tracking / decoder interfaces": configure, start, feed_samples,
// poll_event, reset, common to every algorithm variant.
type Acquirer interface {
	Configure(cfg AcqConfig)
	Start(prn int, sig SignalType)
	FeedSamples(samples []complex128, samplestamp uint64)
	PollEvent() (AcqState, *AcqResult)
	Reset()
}

// Engine implements Acquirer by dispatching on cfg.Variant — the sum
// type of algorithmic variants named in the Design Notes, rather than an
// inheritance hierarchy.
type Engine struct {
	cfg    AcqConfig
	prn    int
	sig    SignalType
	state  AcqState
	dwells int

	tongCounters []int // per code-phase cell, only used by AcqTong

	lastResult *AcqResult

	dumper *acqDumper
}

func NewEngine() *Engine {
	return &Engine{state: AcqStandby}
}

func (e *Engine) Configure(cfg AcqConfig) {
	if cfg.FoldingFactor < 1 {
		cfg.FoldingFactor = 1
	}
	if cfg.Variant == AcqQuickSync {
		need := 4 * cfg.FoldingFactor
		if cfg.SampledMs%need != 0 {
			// ConfigurationInvalid: round up and proceed rather than abort.
			cfg.SampledMs = ((cfg.SampledMs / need) + 1) * need
		}
	}
	e.cfg = cfg

	if e.dumper != nil {
		e.dumper.Close()
		e.dumper = nil
	}
	if cfg.DumpEnabled && cfg.DumpFilename != "" {
		if d, err := newAcqDumper(cfg.DumpFilename); err == nil {
			e.dumper = d
		} else {
			Trace(2, "acquisition: dump open failed filename=%s err=%v\n", cfg.DumpFilename, err)
		}
	}
}

// Close releases the debug-dump file, if one is open. Safe to call on
// an Engine that was never configured with DumpEnabled.
func (e *Engine) Close() error {
	return e.dumper.Close()
}

func (e *Engine) Start(prn int, sig SignalType) {
	e.prn = prn
	e.sig = sig
	e.state = AcqSearching
	e.dwells = 0
	e.tongCounters = nil
	e.lastResult = nil
}

func (e *Engine) Reset() {
	e.state = AcqStandby
	e.lastResult = nil
	e.dwells = 0
	e.tongCounters = nil
}

// FeedSamples runs one dwell's worth of samples through the configured
// variant. samples must have length e.cfg.SampledMs*FsHz/1000.
func (e *Engine) FeedSamples(samples []complex128, samplestamp uint64) {
	if e.state != AcqSearching {
		return
	}
	requiredDwells := 1
	if e.cfg.BitTransitionFlag {
		requiredDwells = 2
	}

	var peak, noise float64
	var codePhase, dopplerHz float64
	var detected bool

	switch e.cfg.Variant {
	case AcqPCPS:
		peak, noise, codePhase, dopplerHz = e.dwellPCPS(samples, 1)
		detected = peak/noise >= e.threshold(len(samples), e.numFreqBins())
	case AcqQuickSync:
		p := e.cfg.FoldingFactor
		peak, noise, codePhase, dopplerHz = e.dwellPCPS(samples, p)
		detected = peak/noise >= e.threshold(len(samples)/p, e.numFreqBins())
	case AcqTong:
		peak, noise, codePhase, dopplerHz = e.dwellPCPS(samples, 1)
		ratio := peak / noise
		detected = e.tongUpdate(codePhase, ratio >= e.threshold(len(samples), e.numFreqBins()))
	}

	e.dwells++
	e.dumper.writeDwell(e.prn, samplestamp, peak, noise, codePhase, dopplerHz)

	if detected {
		e.dwellsPositive(peak, noise, codePhase, dopplerHz, samplestamp, requiredDwells)
		return
	}

	if e.cfg.BitTransitionFlag && e.dwells < requiredDwells {
		return // keep SEARCHING until both dwells have been seen
	}

	if e.dwells >= e.cfg.MaxDwells {
		e.state = AcqNegative
		e.lastResult = nil
	}
}

// dwellsPositive handles the bit_transition_flag dual-dwell acceptance
// rule: a detection is accepted only from the second dwell onward. The
// outcome of the first dwell is not recorded, so a detection on the second
// dwell is accepted whether or not the first dwell exceeded threshold.
func (e *Engine) dwellsPositive(peak, noise, codePhase, dopplerHz float64, samplestamp uint64, requiredDwells int) {
	if e.cfg.BitTransitionFlag && e.dwells < requiredDwells {
		return
	}
	e.state = AcqPositive
	e.lastResult = &AcqResult{
		CodePhaseSamples: codePhase,
		DopplerHz:        dopplerHz,
		SamplestampSamp:  samplestamp,
		PeakToNoise:      peak / noise,
	}
}

func (e *Engine) tongUpdate(cellPhase float64, above bool) bool {
	idx := int(math.Round(cellPhase))
	if e.tongCounters == nil {
		e.tongCounters = make([]int, int(e.cfg.FsHz*1e-3)+1)
	}
	if idx < 0 || idx >= len(e.tongCounters) {
		return false
	}
	if above {
		e.tongCounters[idx]++
	} else if e.tongCounters[idx] > e.cfg.TongInitVal {
		e.tongCounters[idx]--
	}
	return e.tongCounters[idx] >= e.cfg.TongMaxVal
}

func (e *Engine) PollEvent() (AcqState, *AcqResult) {
	st, r := e.state, e.lastResult
	if st == AcqPositive || st == AcqNegative {
		e.state = AcqStandby // consumer ack resets to STANDBY per the state machine
	}
	return st, r
}

func (e *Engine) numFreqBins() int {
	if e.cfg.DopplerStepHz <= 0 {
		return 1
	}
	return int(2*e.cfg.DopplerMaxHz/e.cfg.DopplerStepHz) + 1
}

// threshold implements the false-alarm threshold of spec.md §4.B: the
// per-cell magnitude under H0 is exponential with rate lambda = ncells'
// underlying cell count, and the grid maximum's CDF is F(x)^N_cells.
func (e *Engine) threshold(lambdaCells int, freqBins int) float64 {
	if e.cfg.Pfa <= 0 {
		return e.cfg.Threshold
	}
	nCells := float64(lambdaCells * freqBins)
	lambda := float64(lambdaCells)
	p := math.Pow(1-e.cfg.Pfa, 1.0/nCells)
	// Quantile of Exp(lambda): x = -ln(1-p)/lambda.
	return -math.Log(1-p) / lambda
}

// dwellPCPS runs the PCPS Doppler-bin grid search (fold=1) or the
// QuickSync folded variant (fold=p>1) over one dwell, returning the grid
// maximum, a guard-banded noise floor estimate, the winning code-phase
// cell (in samples, already disambiguated for QuickSync) and Doppler.
func (e *Engine) dwellPCPS(samples []complex128, fold int) (peak, noise, codePhaseSamp, dopplerHz float64) {
	fs := e.cfg.FsHz
	n := len(samples) / fold
	folded := foldSignal(samples, fold)

	replica := GenerateReplica(e.sig, e.prn, fs, 0, e.cfg.CBOCFlag)
	if len(replica) > n {
		replica = replica[:n]
	} else if len(replica) < n {
		padded := make([]complex128, n)
		copy(padded, replica)
		replica = padded
	}
	foldedReplica := foldSignal(replica, fold)

	bestPeak := -1.0
	bestCell := 0
	bestDoppler := 0.0

	for d := -e.cfg.DopplerMaxHz; d <= e.cfg.DopplerMaxHz; d += e.cfg.DopplerStepHz {
		wiped := wipeCarrier(folded, d, fs/float64(fold))
		corr := CircularCorrelate(wiped, foldedReplica)
		for cell, c := range corr {
			mag := real(c)*real(c) + imag(c)*imag(c)
			if mag > bestPeak {
				bestPeak = mag
				bestCell = cell
				bestDoppler = d
			}
		}
	}

	// Guard band of ±2 chips, converted to correlation cells (samples).
	guardCells := int(math.Ceil(2 * fs / GPSL1CAChipRateHz))
	noiseFloor := noiseFloorExcludingGuard(folded, foldedReplica, bestCell, guardCells)

	codePhase := float64(bestCell)
	if fold > 1 {
		codePhase = disambiguateQuickSync(samples, replica, bestCell, fold, fs, bestDoppler)
	}
	return bestPeak, noiseFloor, codePhase, bestDoppler
}

func foldSignal(x []complex128, fold int) []complex128 {
	if fold <= 1 {
		return x
	}
	n := len(x) / fold
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		var sum complex128
		for k := 0; k < fold; k++ {
			sum += x[i+k*n]
		}
		out[i] = sum
	}
	return out
}

func wipeCarrier(x []complex128, dopplerHz, fs float64) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		t := float64(i) / fs
		phase := -2 * math.Pi * dopplerHz * t
		lo := complex(math.Cos(phase), math.Sin(phase))
		out[i] = v * lo
	}
	return out
}

// noiseFloorExcludingGuard estimates the noise floor as the mean
// correlation magnitude excluding a guard band of ±guardCells correlation
// cells (samples) around the detected peak, per mfkiwl-GPS-JAMMING's
// CheckAcquisition.
func noiseFloorExcludingGuard(signal, replica []complex128, peakCell, guardCells int) float64 {
	corr := CircularCorrelate(signal, replica)
	var sum float64
	var count int
	for i, c := range corr {
		d := i - peakCell
		if d < 0 {
			d = -d
		}
		if d <= guardCells {
			continue
		}
		sum += real(c)*real(c) + imag(c)*imag(c)
		count++
	}
	if count == 0 {
		return 1
	}
	return sum / float64(count)
}

// disambiguateQuickSync resolves the p candidate delays left ambiguous
// by folding, by direct correlation at each candidate over the full
// (unfolded) samples.
func disambiguateQuickSync(samples, replica []complex128, foldedCell, fold int, fs, dopplerHz float64) float64 {
	n := len(samples) / fold
	best := -1.0
	bestPhase := float64(foldedCell)
	for k := 0; k < fold; k++ {
		candidate := float64(foldedCell + k*n)
		var sum complex128
		wiped := wipeCarrier(samples, dopplerHz, fs)
		for i := 0; i < len(samples); i++ {
			ri := (i + int(candidate)) % len(replica)
			sum += wiped[i] * cmplxConj(replica[ri])
		}
		mag := real(sum)*real(sum) + imag(sum)*imag(sum)
		if mag > best {
			best = mag
			bestPhase = candidate
		}
	}
	return bestPhase
}
