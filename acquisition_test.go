package sdrgnss

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdFormulaMatchesExponentialQuantile(t *testing.T) {
	e := &Engine{cfg: AcqConfig{Pfa: 0.01}}
	nCells := 1000
	x := e.threshold(nCells, 1)

	// x = quantile(Exp(lambda), (1-Pfa)^{1/N}); verify by reconstructing
	// the target probability from x via the exponential CDF.
	lambda := float64(nCells)
	p := 1 - math.Exp(-lambda*x)
	target := math.Pow(1-e.cfg.Pfa, 1.0/float64(nCells))
	assert.InDelta(t, target, p, 1e-9)
}

func TestThresholdFallsBackToExplicitValue(t *testing.T) {
	e := &Engine{cfg: AcqConfig{Threshold: 2.5}}
	assert.Equal(t, 2.5, e.threshold(1000, 1))
}

func TestEngineStateMachineStandbyToSearching(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, AcqStandby, e.state)
	e.Configure(AcqConfig{
		FsHz: 4.092e6, DopplerMaxHz: 5000, DopplerStepHz: 500,
		Threshold: 0, Pfa: 0.001, MaxDwells: 1, SampledMs: 1,
	})
	e.Start(1, SignalGPSL1CA)
	assert.Equal(t, AcqSearching, e.state)
}

func TestEngineDetectsCleanReplicaAtZeroDoppler(t *testing.T) {
	fs := 4.092e6
	e := NewEngine()
	e.Configure(AcqConfig{
		FsHz: fs, DopplerMaxHz: 1000, DopplerStepHz: 500,
		Pfa: 0.5, MaxDwells: 1, SampledMs: 1,
	})
	e.Start(3, SignalGPSL1CA)

	samples := GenerateReplica(SignalGPSL1CA, 3, fs, 0, false)
	e.FeedSamples(samples, 0)

	state, result := e.PollEvent()
	require.Equal(t, AcqPositive, state)
	require.NotNil(t, result)
	assert.InDelta(t, 0, result.DopplerHz, 500)
}

func TestEngineNegativeAfterMaxDwells(t *testing.T) {
	fs := 4.092e6
	e := NewEngine()
	e.Configure(AcqConfig{
		FsHz: fs, DopplerMaxHz: 500, DopplerStepHz: 500,
		Pfa: 1e-9, MaxDwells: 2, SampledMs: 1,
	})
	e.Start(9, SignalGPSL1CA)

	noise := make([]complex128, int(fs*1e-3))
	e.FeedSamples(noise, 0)
	e.FeedSamples(noise, 1)

	state, result := e.PollEvent()
	assert.Equal(t, AcqNegative, state)
	assert.Nil(t, result)
}

func TestConfigureRoundsQuickSyncSampledMs(t *testing.T) {
	e := NewEngine()
	e.Configure(AcqConfig{Variant: AcqQuickSync, FoldingFactor: 2, SampledMs: 5})
	assert.Equal(t, 8, e.cfg.SampledMs) // rounded up to next multiple of 4*2=8
}

func TestConfigureOpensDumpFileAndFeedSamplesWritesARow(t *testing.T) {
	fs := 4.092e6
	dir := t.TempDir()
	dumpPath := dir + "/acq_prn9.csv"

	e := NewEngine()
	e.Configure(AcqConfig{
		FsHz: fs, DopplerMaxHz: 500, DopplerStepHz: 500,
		Pfa: 1e-9, MaxDwells: 2, SampledMs: 1,
		DumpEnabled: true, DumpFilename: dumpPath,
	})
	require.NotNil(t, e.dumper)
	e.Start(9, SignalGPSL1CA)

	noise := make([]complex128, int(fs*1e-3))
	e.FeedSamples(noise, 0)
	require.NoError(t, e.Close())

	contents, err := os.ReadFile(dumpPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), ",9,0,")
}

func TestConfigureWithoutDumpEnabledLeavesDumperNil(t *testing.T) {
	e := NewEngine()
	e.Configure(AcqConfig{FsHz: 4.092e6, SampledMs: 1})
	assert.Nil(t, e.dumper)
	assert.NoError(t, e.Close())
}
