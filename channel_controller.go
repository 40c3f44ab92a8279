package sdrgnss

/* channel_controller.go : Module H — Channel Controller
*
* Explicit per-channel FSM, one goroutine per channel (grounded on
* rtksvr.go's "go rtksvrthread(svr)" — one thread per managed unit).
* Events are delivered over a small buffered channel rather than a
* shared mutex-guarded struct, per the Design Note "callback-driven
* channel state machine": each channel owns its own state.
 */

type ChannelEventKind int

const (
	EventStart ChannelEventKind = iota
	EventAcqPositive
	EventAcqNegative
	EventTrackingLocked
	EventSubframeSynced
	EventEphemerisComplete
	EventLossOfLock
	EventAck
)

type ChannelEvent struct {
	Kind   ChannelEventKind
	Acq    AcqResult
	PRN    int
}

// ChannelConfig is configuration local to one controller instance: the
// retry cap R and the PRN candidate list, per spec.md §4.H.
type ChannelConfig struct {
	RetryCap      int
	PRNCandidates []int
	Signal        SignalType
}

// Controller runs one channel's lifecycle FSM. It owns an Engine
// (acquisition), a Tracker, and publishes into the shared Aligner/
// Repository — the only state crossing a channel boundary.
type Controller struct {
	id      int
	cfg     ChannelConfig
	state   ChannelState
	retries int
	candIdx int

	acq     *Engine
	track   *Tracker
	repo    *Repository
	aligner *Aligner

	current    GnssSynchro
	hasCurrent bool

	Events chan ChannelEvent
	stop   chan struct{}
}

func NewController(id int, cfg ChannelConfig, acq *Engine, track *Tracker, repo *Repository, aligner *Aligner) *Controller {
	return &Controller{
		id:      id,
		cfg:     cfg,
		state:   StateIdle,
		acq:     acq,
		track:   track,
		repo:    repo,
		aligner: aligner,
		Events:  make(chan ChannelEvent, 16),
		stop:    make(chan struct{}),
	}
}

func (c *Controller) State() ChannelState { return c.state }

// UpdateObservable is called once per integration period with the
// GnssSynchro the channel's Tracker just produced. FlagValidPseudorange
// is stamped here rather than by the tracker itself: whether an
// observable is fit to feed the PVT solver depends on the channel's
// lifecycle state (only DELIVERING channels ever contribute), not on
// anything the correlator loop alone can determine. The result is
// published to the Aligner so the epoch fan-in of spec.md §4.F actually
// receives DELIVERING channels' observables.
func (c *Controller) UpdateObservable(g GnssSynchro) {
	g.FlagValidPseudorange = c.state == StateDelivering
	c.current = g
	c.hasCurrent = true
	if c.aligner != nil {
		c.aligner.Publish(c.id, g.PRN, g)
	}
}

// Run is the channel's goroutine body, consuming events and applying the
// transition table of spec.md §4.H.
func (c *Controller) Run() {
	for {
		select {
		case <-c.stop:
			return
		case ev := <-c.Events:
			c.handle(ev)
		}
	}
}

func (c *Controller) Stop() { close(c.stop) }

func (c *Controller) handle(ev ChannelEvent) {
	switch c.state {
	case StateIdle:
		if ev.Kind == EventStart {
			c.retries = 0
			c.candIdx = 0
			if len(c.cfg.PRNCandidates) > 0 {
				c.acq.Start(c.cfg.PRNCandidates[c.candIdx], c.cfg.Signal)
			}
			c.state = StateAcquiring
		}

	case StateAcquiring:
		switch ev.Kind {
		case EventAcqPositive:
			c.track.Start(c.acq.prn, c.cfg.Signal, ev.Acq)
			c.state = StateAcquired
		case EventAcqNegative:
			if c.retries < c.cfg.RetryCap {
				c.retries++
				c.candIdx = (c.candIdx + 1) % len(c.cfg.PRNCandidates)
				c.acq.Start(c.cfg.PRNCandidates[c.candIdx], c.cfg.Signal)
				// stays ACQUIRING
			} else {
				c.state = StateLost
			}
		}

	case StateAcquired:
		if ev.Kind == EventTrackingLocked {
			c.state = StateTracking
		}

	case StateTracking:
		switch ev.Kind {
		case EventSubframeSynced:
			c.state = StateTelemetrySync
		case EventLossOfLock:
			c.releaseTracking()
		}

	case StateTelemetrySync:
		switch ev.Kind {
		case EventEphemerisComplete:
			c.state = StateDelivering
			if c.hasCurrent {
				// spec.md §4.H's TELEMETRY_SYNC->DELIVERING action: flag
				// the channel's most recent observable valid immediately,
				// rather than waiting for the next integration period.
				c.current.FlagValidPseudorange = true
				c.aligner.Publish(c.id, c.current.PRN, c.current)
			}
		case EventLossOfLock:
			c.releaseTracking()
		}

	case StateDelivering:
		if ev.Kind == EventLossOfLock {
			c.releaseTracking()
		}

	case StateLost:
		c.state = StateIdle // free channel; next start() re-enters ACQUIRING
	}
}

func (c *Controller) releaseTracking() {
	c.track.Reset()
	c.state = StateLost
}
