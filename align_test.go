package sdrgnss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlignerExcludesInvalidPseudorange(t *testing.T) {
	a := NewAligner(20)
	a.latest[1] = GnssSynchro{PRN: 1, FlagValidPseudorange: true}
	a.latest[2] = GnssSynchro{PRN: 2, FlagValidPseudorange: false}

	a.emit(123.0)
	select {
	case epoch := <-a.Epochs:
		_, has1 := epoch.Observables[1]
		_, has2 := epoch.Observables[2]
		assert.True(t, has1)
		assert.False(t, has2)
	default:
		t.Fatal("expected an epoch to be published")
	}
}

func TestAlignerEpochSharesCommonTRx(t *testing.T) {
	a := NewAligner(20)
	a.latest[1] = GnssSynchro{PRN: 1, FlagValidPseudorange: true}
	a.latest[2] = GnssSynchro{PRN: 2, FlagValidPseudorange: true}

	a.emit(99.5)
	epoch := <-a.Epochs
	for _, s := range epoch.Observables {
		assert.Equal(t, 99.5, s.TOWHybridAtCurrentSymbol)
	}
}

func TestAlignerPublishFeedsLatest(t *testing.T) {
	a := NewAligner(20)
	go a.Run(func() float64 { return 0 })
	defer a.Stop()

	a.Publish(1, 7, GnssSynchro{PRN: 7, FlagValidPseudorange: true})
	time.Sleep(5 * time.Millisecond)

	a.mu.Lock()
	_, ok := a.latest[1]
	a.mu.Unlock()
	assert.True(t, ok)
}
