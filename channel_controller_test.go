package sdrgnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestController(retryCap int) *Controller {
	acq := NewEngine()
	track := NewTracker(TrackConfig{LLoDbHz: 25, LHiDbHz: 30, TLoss: 3})
	repo := NewRepository()
	aligner := NewAligner(20)
	cfg := ChannelConfig{RetryCap: retryCap, PRNCandidates: []int{1, 2, 3}, Signal: SignalGPSL1CA}
	return NewController(1, cfg, acq, track, repo, aligner)
}

func TestControllerIdleToAcquiring(t *testing.T) {
	c := newTestController(2)
	c.handle(ChannelEvent{Kind: EventStart})
	assert.Equal(t, StateAcquiring, c.State())
}

func TestControllerAcquiringPositiveToAcquired(t *testing.T) {
	c := newTestController(2)
	c.handle(ChannelEvent{Kind: EventStart})
	c.handle(ChannelEvent{Kind: EventAcqPositive, Acq: AcqResult{CodePhaseSamples: 10, DopplerHz: 500}})
	assert.Equal(t, StateAcquired, c.State())
}

func TestControllerAcquiringRetriesThenLost(t *testing.T) {
	c := newTestController(1)
	c.handle(ChannelEvent{Kind: EventStart})
	c.handle(ChannelEvent{Kind: EventAcqNegative})
	assert.Equal(t, StateAcquiring, c.State(), "first negative should retry, not give up")

	c.handle(ChannelEvent{Kind: EventAcqNegative})
	assert.Equal(t, StateLost, c.State(), "retries exhausted should move to LOST")
}

func TestControllerFullHappyPath(t *testing.T) {
	c := newTestController(2)
	c.handle(ChannelEvent{Kind: EventStart})
	c.handle(ChannelEvent{Kind: EventAcqPositive, Acq: AcqResult{}})
	c.handle(ChannelEvent{Kind: EventTrackingLocked})
	assert.Equal(t, StateTracking, c.State())

	c.handle(ChannelEvent{Kind: EventSubframeSynced})
	assert.Equal(t, StateTelemetrySync, c.State())

	c.handle(ChannelEvent{Kind: EventEphemerisComplete})
	assert.Equal(t, StateDelivering, c.State())
}

func TestControllerLossOfLockFromAnyTrackingState(t *testing.T) {
	c := newTestController(2)
	c.handle(ChannelEvent{Kind: EventStart})
	c.handle(ChannelEvent{Kind: EventAcqPositive, Acq: AcqResult{}})
	c.handle(ChannelEvent{Kind: EventTrackingLocked})
	c.handle(ChannelEvent{Kind: EventLossOfLock})
	assert.Equal(t, StateLost, c.State())
}

func TestControllerFlagsValidPseudorangeOnEnteringDelivering(t *testing.T) {
	c := newTestController(2)
	c.handle(ChannelEvent{Kind: EventStart})
	c.handle(ChannelEvent{Kind: EventAcqPositive, Acq: AcqResult{}})
	c.handle(ChannelEvent{Kind: EventTrackingLocked})

	c.UpdateObservable(GnssSynchro{PRN: 1})
	assert.False(t, c.current.FlagValidPseudorange, "observables before DELIVERING must not be flagged valid")
	pre := <-c.aligner.ChannelInputs
	assert.False(t, pre.synchro.FlagValidPseudorange, "the update published before DELIVERING must not carry the flag")

	c.handle(ChannelEvent{Kind: EventSubframeSynced})
	c.handle(ChannelEvent{Kind: EventEphemerisComplete})
	assert.True(t, c.current.FlagValidPseudorange, "entering DELIVERING must flag the current observable valid")

	update := <-c.aligner.ChannelInputs
	assert.True(t, update.synchro.FlagValidPseudorange, "the re-publish on entering DELIVERING must carry the flag to the Aligner")
}

func TestControllerUpdateObservableFlagsValidOnlyWhileDelivering(t *testing.T) {
	c := newTestController(2)
	c.handle(ChannelEvent{Kind: EventStart})
	c.handle(ChannelEvent{Kind: EventAcqPositive, Acq: AcqResult{}})
	c.handle(ChannelEvent{Kind: EventTrackingLocked})
	c.handle(ChannelEvent{Kind: EventSubframeSynced})
	c.handle(ChannelEvent{Kind: EventEphemerisComplete})

	c.UpdateObservable(GnssSynchro{PRN: 1})
	assert.True(t, c.current.FlagValidPseudorange)

	c.handle(ChannelEvent{Kind: EventLossOfLock})
	c.UpdateObservable(GnssSynchro{PRN: 1})
	assert.False(t, c.current.FlagValidPseudorange, "a LOST channel must not flag observables valid")
}

func TestControllerLostReturnsToIdle(t *testing.T) {
	c := newTestController(0)
	c.handle(ChannelEvent{Kind: EventStart})
	c.handle(ChannelEvent{Kind: EventAcqNegative})
	assert.Equal(t, StateLost, c.State())

	c.handle(ChannelEvent{Kind: EventAck})
	assert.Equal(t, StateIdle, c.State())
}
