package sdrgnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPSL1CAChipsLength(t *testing.T) {
	for prn := 1; prn <= 32; prn++ {
		chips := GPSL1CAChips(prn)
		require.Len(t, chips, GPSL1CACodeLength, "prn %d", prn)
		for _, c := range chips {
			assert.True(t, c == 1 || c == -1)
		}
	}
}

func TestGPSL1CAChipsDeterministic(t *testing.T) {
	a := GPSL1CAChips(7)
	b := GPSL1CAChips(7)
	assert.Equal(t, a, b)
}

func TestGPSL1CAChipsDistinctAcrossPRNs(t *testing.T) {
	seen := map[int]bool{}
	for prn := 1; prn <= 32; prn++ {
		chips := GPSL1CAChips(prn)
		var acc int
		for i, c := range chips {
			acc += i * int(c)
		}
		assert.False(t, seen[acc], "prn %d collided with another PRN's code fingerprint", prn)
		seen[acc] = true
	}
}

func TestGPSL1CAChipsUnknownPRN(t *testing.T) {
	assert.Nil(t, GPSL1CAChips(33))
	assert.Nil(t, GPSL1CAChips(0))
}

func TestSampledReplicaLength(t *testing.T) {
	fs := 4.092e6
	chips := GPSL1CAChips(1)
	out := SampledReplica(chips, GPSL1CAChipRateHz, fs, 0, GPSL1CACodePeriod)
	assert.InDelta(t, fs*GPSL1CACodePeriod, float64(len(out)), 1)
}

func TestGenerateReplicaDeterministicAcrossCalls(t *testing.T) {
	fs := 4.092e6
	a := GenerateReplica(SignalGPSL1CA, 12, fs, 2.5, false)
	b := GenerateReplica(SignalGPSL1CA, 12, fs, 2.5, false)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestGalileoE1ChipsLength(t *testing.T) {
	chips := GalileoE1Chips(11, true)
	assert.Len(t, chips, GalE1CodeLength)
}

func TestGalileoE1CBOCDiffersFromBOC(t *testing.T) {
	plain := GalileoE1Chips(3, false)
	cboc := GalileoE1Chips(3, true)
	var differs bool
	for i := range plain {
		if plain[i] != cboc[i] {
			differs = true
			break
		}
	}
	assert.True(t, differs, "CBOC weighting should perturb amplitude relative to the plain primary code")
}

func TestGalileoE1WeilSequenceIsBalanced(t *testing.T) {
	// A Legendre/Weil sequence is balanced to within one chip (the single
	// zero-crossing pinned to +1 tips the count by exactly one).
	w := galileoE1WeilSequence(1)
	require.Len(t, w, GalE1CodeLength)
	var ones, minusOnes int
	for _, c := range w {
		switch c {
		case 1:
			ones++
		case -1:
			minusOnes++
		default:
			t.Fatalf("unexpected chip value %d", c)
		}
	}
	assert.InDelta(t, ones, minusOnes, 2)
}

func TestGalileoE1WeilSequenceDeterministic(t *testing.T) {
	a := galileoE1WeilSequence(5)
	b := galileoE1WeilSequence(5)
	assert.Equal(t, a, b)
}

func TestGalileoE1WeilSequenceDistinctAcrossPRNs(t *testing.T) {
	seen := map[string]int{}
	for prn := 1; prn <= 50; prn++ {
		w := galileoE1WeilSequence(prn)
		b := make([]byte, len(w))
		for i, c := range w {
			b[i] = byte(c)
		}
		key := string(b)
		assert.Equal(t, 0, seen[key], "prn %d produced the same Weil sequence as prn %d", prn, seen[key])
		seen[key] = prn
	}
}

func TestGalileoE1WeilSequenceLowAutocorrelationOffPeak(t *testing.T) {
	w := galileoE1WeilSequence(9)
	n := len(w)
	peak := 0
	for _, c := range w {
		peak += int(c) * int(c)
	}
	maxOffPeak := 0
	for lag := 1; lag < n; lag += 97 { // sample lags; a full scan is unnecessary to bound the property
		var corr int
		for i := 0; i < n; i++ {
			corr += int(w[i]) * int(w[(i+lag)%n])
		}
		if corr < 0 {
			corr = -corr
		}
		if corr > maxOffPeak {
			maxOffPeak = corr
		}
	}
	assert.Less(t, maxOffPeak, peak, "off-peak autocorrelation should be far below the zero-lag peak for a Weil sequence")
}
