package sdrgnss

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForwardInverseFFTRoundTrip(t *testing.T) {
	n := 64
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Sin(2*math.Pi*float64(i)/float64(n)), 0)
	}
	X := ForwardFFT(x)
	back := InverseFFT(X)
	for i := range x {
		assert.InDelta(t, real(x[i]), real(back[i]), 1e-9)
		assert.InDelta(t, imag(x[i]), imag(back[i]), 1e-9)
	}
}

func TestCircularCorrelatePeakAtZeroShift(t *testing.T) {
	n := 32
	signal := make([]complex128, n)
	for i := range signal {
		if i%3 == 0 {
			signal[i] = complex(1, 0)
		} else {
			signal[i] = complex(-1, 0)
		}
	}
	corr := CircularCorrelate(signal, signal)
	require := assert.New(t)
	peakIdx := 0
	peakMag := -1.0
	for i, c := range corr {
		mag := real(c)*real(c) + imag(c)*imag(c)
		if mag > peakMag {
			peakMag = mag
			peakIdx = i
		}
	}
	require.Equal(0, peakIdx, "autocorrelation of a signal with itself should peak at zero lag")
}

func TestCircularCorrelateMismatchedLengthReturnsNil(t *testing.T) {
	assert.Nil(t, CircularCorrelate(make([]complex128, 4), make([]complex128, 8)))
}

// TestPlanForConcurrentAccessIsSafe exercises the scenario spec.md §5
// guarantees will occur in production: many channel goroutines requesting
// the same transform length at once. Without fftPlanCache's mutex this
// races on the map; without each plan's own mutex it races inside
// gonum's shared CmplxFFT workspace.
func TestPlanForConcurrentAccessIsSafe(t *testing.T) {
	const n = 128
	const goroutines = 32

	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Cos(2*math.Pi*float64(i)/float64(n)), 0)
	}

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			X := ForwardFFT(x)
			back := InverseFFT(X)
			for i := range x {
				assert.InDelta(t, real(x[i]), real(back[i]), 1e-6)
			}
		}()
	}
	wg.Wait()
}
