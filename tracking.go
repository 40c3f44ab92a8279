package sdrgnss

import "math"

/* tracking.go : Module C — Tracking Engine
*
* Consumes the continuous sample stream plus the coarse (code_phase,
* Doppler) estimate from Acquisition and produces, once per integration
* period, prompt correlator I/Q and updated code-phase/carrier-phase/
* Doppler estimates. No pseudorange is computed here: the returned
* GnssSynchro leaves PseudorangeM at zero. Code loop (DLL, second order) and carrier loop
* (PLL/Costas, third order) each run their own loop filter; lock
* detection applies hysteresis over a smoothed C/N0 estimate.
 */

// LoopFilterCoeffs are the standard bandwidth-derived gains for an
// Nth-order loop filter, natural frequency from bandwidth and damping
// ratio 0.707 (generalizing sdrtrk.go's hard-coded constants).
type LoopFilterCoeffs struct {
	Order int
	W0    float64 // natural frequency, rad/s
	G1    float64
	G2    float64
	G3    float64
}

// NewLoopFilter derives loop-filter gains from the requested noise
// bandwidth, per the standard second/third-order digital PLL/DLL design
// tables (damping ratio zeta=0.707).
func NewLoopFilter(order int, bandwidthHz float64) LoopFilterCoeffs {
	const zeta = 0.707
	wn := bandwidthHz * 8 * zeta / (4*zeta*zeta + 1)
	c := LoopFilterCoeffs{Order: order, W0: wn}
	switch order {
	case 2:
		c.G1 = 1.414 * wn
		c.G2 = wn * wn
	case 3:
		c.G1 = 1.1 * wn
		c.G2 = 2.4 * wn * wn
		c.G3 = wn * wn * wn
	}
	return c
}

// TrackConfig is the per-channel tracking configuration.
type TrackConfig struct {
	FsHz       float64
	EarlyLateChips float64 // chip spacing Delta
	BDLLHz     float64
	BPLLHz     float64
	CBOCFlag   bool

	LLoDbHz float64 // PESSIMISTIC_LOCK threshold
	LHiDbHz float64 // OPTIMISTIC_LOCK threshold
	TLoss   int     // symbols below L_lo before LOSS
}

type LockState int

const (
	LockOptimistic LockState = iota
	LockPessimistic
	LockLost
)

// Tracker is the tracking stage: NewTracker configures it, Start seeds
// it, FeedIntegrationPeriod feeds samples, Lock reports the lock state
// and Reset returns the lock detector to its initial state. It has no
// configure method and no event queue to poll.
type Tracker struct {
	cfg TrackConfig
	sig SignalType
	prn int

	codePhaseSamples float64
	carrierPhaseCyc  float64
	carrierDopplerHz float64

	codeFilter    LoopFilterCoeffs
	carrierFilter LoopFilterCoeffs
	codeIntErr    float64
	carrierIntErr float64
	carrierIntErr2 float64

	cn0Avg     float64
	lock       LockState
	belowCount int

	lastOut GnssSynchro
}

func NewTracker(cfg TrackConfig) *Tracker {
	return &Tracker{
		cfg:           cfg,
		codeFilter:    NewLoopFilter(2, cfg.BDLLHz),
		carrierFilter: NewLoopFilter(3, cfg.BPLLHz),
		lock:          LockOptimistic,
	}
}

// Start seeds the loops from the coarse acquisition estimate.
func (t *Tracker) Start(prn int, sig SignalType, acq AcqResult) {
	t.prn = prn
	t.sig = sig
	t.codePhaseSamples = acq.CodePhaseSamples
	t.carrierDopplerHz = acq.DopplerHz
	t.carrierPhaseCyc = 0
	t.codeIntErr = 0
	t.carrierIntErr = 0
	t.carrierIntErr2 = 0
	t.cn0Avg = 0
	t.lock = LockOptimistic
	t.belowCount = 0
}

// FeedIntegrationPeriod processes one code-period's worth of samples
// (already carrier/code-wiped by the caller's correlator bank would be
// typical in a production front end; here the three correlator taps are
// computed directly against the sampled replica for each arm).
func (t *Tracker) FeedIntegrationPeriod(samples []complex128, codePeriod float64) GnssSynchro {
	fs := t.cfg.FsHz
	delta := t.cfg.EarlyLateChips

	early := correlate(samples, t.sig, t.prn, fs, t.codePhaseSamples-delta, t.carrierDopplerHz, t.cfg.CBOCFlag)
	prompt := correlate(samples, t.sig, t.prn, fs, t.codePhaseSamples, t.carrierDopplerHz, t.cfg.CBOCFlag)
	late := correlate(samples, t.sig, t.prn, fs, t.codePhaseSamples+delta, t.carrierDopplerHz, t.cfg.CBOCFlag)

	eMag, lMag := cmplxAbs(early), cmplxAbs(late)
	codeErr := 0.0
	if eMag+lMag > 0 {
		codeErr = (eMag - lMag) / (eMag + lMag)
	}
	t.codeIntErr += codeErr
	codeCorrection := t.codeFilter.G1*codeErr + t.codeFilter.G2*t.codeIntErr
	t.codePhaseSamples += codeCorrection * codePeriod

	phaseErr := math.Atan2(imag(prompt), real(prompt))
	t.carrierIntErr += phaseErr
	t.carrierIntErr2 += t.carrierIntErr
	carrierCorrection := t.carrierFilter.G1*phaseErr + t.carrierFilter.G2*t.carrierIntErr + t.carrierFilter.G3*t.carrierIntErr2
	t.carrierDopplerHz += carrierCorrection
	t.carrierPhaseCyc += t.carrierDopplerHz * codePeriod

	promptPower := real(prompt)*real(prompt) + imag(prompt)*imag(prompt)
	noisePower := eMag*eMag + lMag*lMag
	cn0 := 0.0
	if noisePower > 0 {
		cn0 = 10 * math.Log10(promptPower/noisePower/codePeriod)
	}
	t.cn0Avg = 0.9*t.cn0Avg + 0.1*cn0
	t.updateLock()

	out := GnssSynchro{
		PRN:              t.prn,
		Signal:           t.sig,
		PromptI:          real(prompt),
		PromptQ:          imag(prompt),
		CodePhaseSamples: t.codePhaseSamples,
		CarrierPhaseCyc:  t.carrierPhaseCyc,
		CarrierDopplerHz: t.carrierDopplerHz,
		CN0dBHz:          t.cn0Avg,
	}
	t.lastOut = out
	return out
}

func (t *Tracker) updateLock() {
	switch t.lock {
	case LockOptimistic:
		if t.cn0Avg < t.cfg.LLoDbHz {
			t.lock = LockPessimistic
			t.belowCount = 1
		}
	case LockPessimistic:
		if t.cn0Avg >= t.cfg.LHiDbHz {
			t.lock = LockOptimistic
			t.belowCount = 0
		} else if t.cn0Avg < t.cfg.LLoDbHz {
			t.belowCount++
			if t.belowCount > t.cfg.TLoss {
				t.lock = LockLost
			}
		}
	}
}

func (t *Tracker) Lock() LockState { return t.lock }

func (t *Tracker) Reset() {
	t.lock = LockOptimistic
	t.belowCount = 0
}

func correlate(samples []complex128, sig SignalType, prn int, fs, codePhaseShift, dopplerHz float64, cboc bool) complex128 {
	replica := GenerateReplica(sig, prn, fs, codePhaseShift, cboc)
	n := len(samples)
	if len(replica) < n {
		n = len(replica)
	}
	var sum complex128
	for i := 0; i < n; i++ {
		t := float64(i) / fs
		phase := -2 * math.Pi * dopplerHz * t
		lo := complex(math.Cos(phase), math.Sin(phase))
		sum += samples[i] * lo * cmplxConj(replica[i])
	}
	return sum
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
