package sdrgnss

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

/* fft.go : FFT helpers for the acquisition and tracking correlators
*
* Wraps gonum.org/v1/gonum/dsp/fourier so the acquisition engine's
* circular-correlation-via-FFT step (and the tracking engine's batch
* correlator) share one FFT plan cache instead of allocating a new
* fourier.CmplxFFT per call.
*
* Every channel (spec.md §5) runs its own goroutine and the acquisition
* and tracking paths of different channels commonly request the same
* transform length, so both the cache map and any individual plan can be
* reached concurrently. fftPlanMu guards the map; each plan's own mutex
* serializes the two calls (Coefficients/Sequence) that reuse the
* fourier.CmplxFFT's internal workspace, since gonum gives no guarantee
* those are safe to call concurrently on one instance.
 */

type fftPlan struct {
	n   int
	fft *fourier.CmplxFFT
	mu  sync.Mutex
}

var (
	fftPlanMu    sync.Mutex
	fftPlanCache = map[int]*fftPlan{}
)

func planFor(n int) *fftPlan {
	fftPlanMu.Lock()
	defer fftPlanMu.Unlock()
	if p, ok := fftPlanCache[n]; ok {
		return p
	}
	p := &fftPlan{n: n, fft: fourier.NewCmplxFFT(n)}
	fftPlanCache[n] = p
	return p
}

// ForwardFFT returns the DFT of x, zero-padded or truncated to exactly
// len(x) points (callers choose the transform length by slice length).
func ForwardFFT(x []complex128) []complex128 {
	plan := planFor(len(x))
	plan.mu.Lock()
	defer plan.mu.Unlock()
	return plan.fft.Coefficients(nil, x)
}

// InverseFFT returns the inverse DFT of X, normalized by len(X).
func InverseFFT(X []complex128) []complex128 {
	plan := planFor(len(X))
	plan.mu.Lock()
	defer plan.mu.Unlock()
	x := plan.fft.Sequence(nil, X)
	scale := complex(1/float64(len(X)), 0)
	for i := range x {
		x[i] *= scale
	}
	return x
}

// CircularCorrelate computes the circular cross-correlation of signal
// and replica (both length n) via the FFT: IFFT(FFT(signal) .*
// conj(FFT(replica))). This is the core primitive of PCPS acquisition's
// per-Doppler-bin code-phase search.
func CircularCorrelate(signal, replica []complex128) []complex128 {
	n := len(signal)
	if len(replica) != n {
		return nil
	}
	S := ForwardFFT(signal)
	R := ForwardFFT(replica)
	prod := make([]complex128, n)
	for i := range prod {
		prod[i] = S[i] * cmplxConj(R[i])
	}
	return InverseFFT(prod)
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
