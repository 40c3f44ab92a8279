package sdrgnss

import (
	"sync"
	"time"
)

/* align.go : Module F — Observables Aligner
*
* Fan-in across channels, grounded on rtksvr.go's buffered ObsChannel
* pattern, generalized to one channel per active receiver channel
* feeding a single aligner goroutine. Publishes the per-channel
* GnssSynchro set at the PVT sample counter's output_rate_ms cadence;
* channels without Flag_valid_pseudorange at an epoch are excluded.
 */

// Epoch is one aligned publication: every entry shares the identical
// d_TOW_hybrid_at_current_symbol, the invariant Module F exists to
// enforce.
type Epoch struct {
	TRxSec     float64
	Observables map[int]GnssSynchro // keyed by PRN
}

// Aligner receives per-channel GnssSynchro updates over ChannelInputs and
// republishes aligned epochs on Epochs at output_rate_ms cadence.
type Aligner struct {
	mu       sync.Mutex
	latest   map[int]GnssSynchro // keyed by channel ID, most recent update

	ChannelInputs chan channelUpdate
	Epochs        chan Epoch

	outputRateMs int
	stop         chan struct{}
}

type channelUpdate struct {
	channelID int
	prn       int
	synchro   GnssSynchro
}

func NewAligner(outputRateMs int) *Aligner {
	return &Aligner{
		latest:        map[int]GnssSynchro{},
		ChannelInputs: make(chan channelUpdate, 64),
		Epochs:        make(chan Epoch, 8),
		outputRateMs:  outputRateMs,
		stop:          make(chan struct{}),
	}
}

// Publish is called by a channel's tracking/telemetry stage on every new
// GnssSynchro; it does not block the aligner's publication cadence.
func (a *Aligner) Publish(channelID, prn int, s GnssSynchro) {
	a.ChannelInputs <- channelUpdate{channelID: channelID, prn: prn, synchro: s}
}

// Run is the aligner's goroutine body: drains ChannelInputs into the
// latest-per-channel table and, on the ticker, emits one aligned Epoch
// containing only channels currently flagging a valid pseudorange.
func (a *Aligner) Run(tRxSec func() float64) {
	ticker := time.NewTicker(time.Duration(a.outputRateMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			close(a.Epochs)
			return
		case u := <-a.ChannelInputs:
			a.mu.Lock()
			a.latest[u.channelID] = u.synchro
			a.mu.Unlock()
		case <-ticker.C:
			a.emit(tRxSec())
		}
	}
}

func (a *Aligner) emit(tRx float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	epoch := Epoch{TRxSec: tRx, Observables: map[int]GnssSynchro{}}
	for _, s := range a.latest {
		if !s.FlagValidPseudorange {
			continue
		}
		s.TOWHybridAtCurrentSymbol = tRx
		epoch.Observables[s.PRN] = s
	}
	select {
	case a.Epochs <- epoch:
	default:
		// PVT hasn't drained the previous epoch yet; drop rather than block
		// the aligner loop, matching the epoch-barrier suspension policy
		// (the PVT thread, not the aligner, owns backpressure here).
	}
}

func (a *Aligner) Stop() {
	close(a.stop)
}
