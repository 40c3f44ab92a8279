package sdrgnss

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

/* rinex_emitter.go : Module I — RINEX Emitter
*
* Wraps renix.go's OutRnx* writers, which already implement the FORTRAN
* D-exponent numeric formatting and the versioned (2.11/3.01) column
* layouts; this file builds the RnxOpt/Nav/ObsD/Eph values those writers
* expect from this repo's Repository/GnssSynchro/Epoch types, and fixes
* the header-gating bug named in spec.md's Open Questions at the call
* site: gate on AND across configured constellations, never OR.
 */

const navEmitMinIntervalSec = 6.0

// RinexConfig names the filename/version/station inputs spec.md §4.I
// requires; it does not duplicate renix.go's RnxOpt, it builds one.
type RinexConfig struct {
	StationID   string // 4-char IGS station id
	Version     int    // 211 or 301 (RnxOpt.RnxVer convention, x100)
	GPSEnabled  bool
	GalEnabled  bool
	OutDir      string
}

// Emitter is Module I: owns the observation/navigation file handles for
// one receiver session and enforces the once-per-session header gate
// and the 6 s navigation-record minimum cadence.
type Emitter struct {
	cfg RinexConfig
	runID string

	obsFile *os.File
	navFile *os.File

	headerWritten   bool
	lastNavEmitSec  float64
	haveNavEmit     bool

	wasDelivering map[int]bool // per-PRN, previous epoch's DELIVERING membership

	opt RnxOpt
	nav Nav
}

func NewEmitter(cfg RinexConfig) *Emitter {
	return &Emitter{
		cfg:           cfg,
		runID:         uuid.NewString(),
		wasDelivering: map[int]bool{},
	}
}

// filename implements the IGS convention ssssDDDf.yyT (station, day of
// year, session letter, year, file type).
func (e *Emitter) filename(doy int, year int, sessionLetter byte, obs bool) string {
	ext := "o"
	if !obs {
		ext = "n"
	}
	return fmt.Sprintf("%s%03d%c.%02d%s", e.cfg.StationID, doy, sessionLetter, year%100, ext)
}

// Open creates the observation and navigation files for this session
// under cfg.OutDir, named per the IGS convention for t.
func (e *Emitter) Open(t time.Time) error {
	doy := t.YearDay()
	obsName := e.filename(doy, t.Year(), 'a', true)
	navName := e.filename(doy, t.Year(), 'a', false)

	var err error
	e.obsFile, err = os.Create(e.cfg.OutDir + "/" + obsName)
	if err != nil {
		return err // IoFailure: caller logs at WARNING and continues without RINEX
	}
	e.navFile, err = os.Create(e.cfg.OutDir + "/" + navName)
	if err != nil {
		return err
	}

	e.opt = RnxOpt{
		RnxVer: e.cfg.Version,
		Staid:  e.cfg.StationID,
		RunBy:  "sdrgnss " + e.runID,
		Prog:   "sdrgnss",
	}
	if e.cfg.GPSEnabled {
		e.opt.NavSys |= SYS_GPS
	}
	if e.cfg.GalEnabled {
		e.opt.NavSys |= SYS_GAL
	}
	return nil
}

func (e *Emitter) Close() {
	if e.obsFile != nil {
		e.obsFile.Close()
	}
	if e.navFile != nil {
		e.navFile.Close()
	}
}

// maybeWriteHeader emits the observation header exactly once per
// session, gated on first ephemeris availability AND across every
// configured constellation (spec.md's fixed Open Question: never OR).
func (e *Emitter) maybeWriteHeader(snap RepositorySnapshot) {
	if e.headerWritten {
		return
	}
	if e.cfg.GPSEnabled && len(snap.Eph[RepoGPS]) == 0 {
		return
	}
	if e.cfg.GalEnabled && len(snap.Eph[RepoGalileo]) == 0 {
		return
	}
	if OutRnxObsHeader(e.obsFile, &e.opt, &e.nav) == 0 {
		return // IoFailure: logged by caller, continue processing
	}
	if OutRnxNavHeader(e.navFile, &e.opt, &e.nav) == 0 {
		return
	}
	e.headerWritten = true
}

// EmitEpoch appends one observation record for every channel currently
// DELIVERING, and (no faster than once every 6 s) the latest navigation
// records for satellites whose ephemeris has changed since the last
// emission.
func (e *Emitter) EmitEpoch(epoch Epoch, states map[int]ChannelState, repo *Repository) {
	snap := repo.Snapshot()
	e.maybeWriteHeader(snap)
	if !e.headerWritten {
		return
	}

	var obsList []ObsD
	for prn, g := range epoch.Observables {
		if states[prn] != StateDelivering {
			e.wasDelivering[prn] = false
			continue
		}
		newArc := !e.wasDelivering[prn]
		e.wasDelivering[prn] = true
		obsList = append(obsList, e.buildObsD(g, epoch.TRxSec, newArc))
	}
	if len(obsList) > 0 {
		OutRnxObsBody(e.obsFile, &e.opt, obsList, len(obsList), 0)
	}

	if !e.haveNavEmit || epoch.TRxSec-e.lastNavEmitSec >= navEmitMinIntervalSec {
		for c, table := range snap.Eph {
			if c == RepoGPS && !e.cfg.GPSEnabled {
				continue
			}
			if c == RepoGalileo && !e.cfg.GalEnabled {
				continue
			}
			for _, eph := range table {
				OutRnxNavBody(e.navFile, &e.opt, &eph)
			}
		}
		e.lastNavEmitSec = epoch.TRxSec
		e.haveNavEmit = true
	}
}

// buildObsD implements the supplemented RINEX LLI semantics of
// SPEC_FULL.md §4: bit 0 (loss-of-lock/cycle-slip) is set on the first
// observation of a new DELIVERING arc after any LOST cycle. Per spec.md
// §4.I, the record carries the pseudorange and carrier phase of the
// DELIVERING channel that produced g, not just identity/LLI metadata.
func (e *Emitter) buildObsD(g GnssSynchro, tRxSec float64, newArc bool) ObsD {
	var o ObsD
	o.Time = Gtime{Time: uint64(tRxSec)}
	o.Sat = SatNo(g.Signal.System(), g.PRN)
	if newArc {
		o.LLI[0] = 1
	}
	o.P[0] = g.PseudorangeM
	o.L[0] = g.CarrierPhaseCyc
	o.SNR[0] = uint16(g.CN0dBHz * 1000)
	if g.Signal == SignalGalE1B {
		o.Code[0] = CODE_L1B
	} else {
		o.Code[0] = CODE_L1C
	}
	return o
}
