package sdrgnss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterFilenameConvention(t *testing.T) {
	e := NewEmitter(RinexConfig{StationID: "ABMF"})
	name := e.filename(45, 2026, 'a', true)
	assert.Equal(t, "ABMF045a.26o", name)

	name = e.filename(45, 2026, 'a', false)
	assert.Equal(t, "ABMF045a.26n", name)
}

func TestEmitterOpenCreatesFiles(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(RinexConfig{StationID: "ABMF", Version: 211, GPSEnabled: true, OutDir: dir})
	require.NoError(t, e.Open(time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)))
	defer e.Close()

	assert.NotNil(t, e.obsFile)
	assert.NotNil(t, e.navFile)
	assert.Equal(t, int64(SYS_GPS), int64(e.opt.NavSys))
}

func TestEmitterHeaderGatesOnAndAcrossConstellations(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(RinexConfig{StationID: "ABMF", Version: 211, GPSEnabled: true, GalEnabled: true, OutDir: dir})
	require.NoError(t, e.Open(time.Now()))
	defer e.Close()

	// Only GPS ephemeris present: header must stay withheld because
	// Galileo is also configured and still empty.
	snap := RepositorySnapshot{Eph: map[RepoConstellation]map[int]Eph{
		RepoGPS: {1: {Sat: 1}},
	}}
	e.maybeWriteHeader(snap)
	assert.False(t, e.headerWritten, "header must not fire until every configured constellation has ephemeris")

	snap.Eph[RepoGalileo] = map[int]Eph{1: {Sat: 1}}
	e.maybeWriteHeader(snap)
	assert.True(t, e.headerWritten)
}

func TestEmitterBuildObsDSetsLLIOnNewArc(t *testing.T) {
	e := NewEmitter(RinexConfig{})
	o := e.buildObsD(GnssSynchro{PRN: 7}, 100.0, true)
	assert.Equal(t, uint8(1), o.LLI[0])

	o = e.buildObsD(GnssSynchro{PRN: 7}, 101.0, false)
	assert.Equal(t, uint8(0), o.LLI[0])
}

func TestEmitterBuildObsDPopulatesPseudorangeAndCarrierPhase(t *testing.T) {
	e := NewEmitter(RinexConfig{})
	g := GnssSynchro{PRN: 7, Signal: SignalGPSL1CA, PseudorangeM: 22345678.9, CarrierPhaseCyc: 117432.5, CN0dBHz: 42.0}
	o := e.buildObsD(g, 100.0, false)

	assert.InDelta(t, g.PseudorangeM, o.P[0], 1e-6)
	assert.InDelta(t, g.CarrierPhaseCyc, o.L[0], 1e-6)
	assert.Equal(t, uint8(CODE_L1C), o.Code[0])
	assert.Equal(t, uint16(42000), o.SNR[0])
}

func TestEmitterBuildObsDUsesGalileoCodeIndicator(t *testing.T) {
	e := NewEmitter(RinexConfig{})
	g := GnssSynchro{PRN: 11, Signal: SignalGalE1B, PseudorangeM: 23456789.0, CarrierPhaseCyc: 98765.4}
	o := e.buildObsD(g, 100.0, false)

	assert.Equal(t, uint8(CODE_L1B), o.Code[0])
	assert.InDelta(t, g.PseudorangeM, o.P[0], 1e-6)
}

func TestEmitterTracksDeliveringTransitionsAcrossEpochs(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(RinexConfig{StationID: "ABMF", Version: 211, GPSEnabled: true, OutDir: dir})
	require.NoError(t, e.Open(time.Now()))
	defer e.Close()
	e.headerWritten = true // bypass ephemeris gating for this behavioral check

	repo := NewRepository()
	epoch := Epoch{TRxSec: 10, Observables: map[int]GnssSynchro{
		3: {PRN: 3, FlagValidPseudorange: true},
	}}
	states := map[int]ChannelState{3: StateDelivering}

	e.EmitEpoch(epoch, states, repo)
	assert.True(t, e.wasDelivering[3])

	// Channel drops out of DELIVERING: next re-entry must be a new arc.
	states[3] = StateLost
	epoch.TRxSec = 11
	e.EmitEpoch(epoch, states, repo)
	assert.False(t, e.wasDelivering[3])
}
