package sdrgnss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoopFilterOrder2PositiveGains(t *testing.T) {
	c := NewLoopFilter(2, 2.0)
	assert.Equal(t, 2, c.Order)
	assert.Greater(t, c.G1, 0.0)
	assert.Greater(t, c.G2, 0.0)
	assert.Equal(t, 0.0, c.G3)
}

func TestNewLoopFilterOrder3PositiveGains(t *testing.T) {
	c := NewLoopFilter(3, 20.0)
	assert.Equal(t, 3, c.Order)
	assert.Greater(t, c.G1, 0.0)
	assert.Greater(t, c.G2, 0.0)
	assert.Greater(t, c.G3, 0.0)
}

func TestTrackerLockHysteresis(t *testing.T) {
	cfg := TrackConfig{LLoDbHz: 25, LHiDbHz: 30, TLoss: 3}
	tr := NewTracker(cfg)
	assert.Equal(t, LockOptimistic, tr.Lock())

	tr.cn0Avg = 20
	tr.updateLock()
	assert.Equal(t, LockPessimistic, tr.Lock())

	for i := 0; i < cfg.TLoss+1; i++ {
		tr.cn0Avg = 20
		tr.updateLock()
	}
	assert.Equal(t, LockLost, tr.Lock())
}

func TestTrackerLockRecoversAboveHiThreshold(t *testing.T) {
	cfg := TrackConfig{LLoDbHz: 25, LHiDbHz: 30, TLoss: 5}
	tr := NewTracker(cfg)
	tr.cn0Avg = 20
	tr.updateLock()
	assert.Equal(t, LockPessimistic, tr.Lock())

	tr.cn0Avg = 35
	tr.updateLock()
	assert.Equal(t, LockOptimistic, tr.Lock())
}

func TestCorrelatePeaksAtMatchingCodePhase(t *testing.T) {
	fs := 4.092e6
	prn := 5
	samples := GenerateReplica(SignalGPSL1CA, prn, fs, 0, false)

	onPhase := correlate(samples, SignalGPSL1CA, prn, fs, 0, 0, false)
	offPhase := correlate(samples, SignalGPSL1CA, prn, fs, 200, 0, false)

	onMag := cmplxAbs(onPhase)
	offMag := cmplxAbs(offPhase)
	assert.Greater(t, onMag, offMag)
}

func TestCmplxAbs(t *testing.T) {
	assert.InDelta(t, 5.0, cmplxAbs(complex(3, 4)), 1e-9)
	assert.InDelta(t, 0.0, cmplxAbs(complex(0, 0)), 1e-9)
	assert.InDelta(t, math.Sqrt(2), cmplxAbs(complex(1, 1)), 1e-9)
}
