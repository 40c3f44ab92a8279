package sdrgnss

import "math"

/* pvt_solver.go : Module G — PVT Solver
*
* Weighted least-squares position/clock solve over one aligned Epoch.
* Satellite position/clock comes directly from ephemeris.go's Eph2Pos
* (the Kepler-iteration/relativity/clock-polynomial steps spec §4.G
* names); the normal-equation solve and DOP computation reuse
* common.go's matrix primitives (MatInv, LSQ, Dot, Norm) and geodesy
* helpers (Ecef2Pos, SatAzel, DOPs), substituting the spec's sin^2(el)
* elevation weighting after gnssgo's default equal-weight bootstrap pass.
* GPS ionospheric/tropospheric correction calls pntpos.go's IonoCorr
* (Klobuchar, via nav.Ion_gps) and TropCorr (Saastamoinen) directly;
* Galileo has no NeQuick implementation anywhere in the tree, so its
* ionospheric term uses ionoNeQuickLight, a single-layer approximation
* of the NeQuick-G effective-ionisation-level formula from the Galileo
* ICD evaluated against nav.Ion_gal, mapped to slant delay through a
* thin-shell obliquity factor (not IonModel's Klobuchar slant factor).
 */

const (
	pvtMaxIter      = 7
	pvtConvergeM    = 0.01
	pvtMinObs       = 4
	speedOfLightMps = 2.99792458e8

	ionoShellHeightM = 350e3 // single-layer thin-shell height used by ionoNeQuickLight's mapping function
	earthRadiusM     = RE_WGS84
)

// PVTConfig carries the averaging behaviour named in spec §4.G.
type PVTConfig struct {
	FlagAveraging  bool
	AveragingDepth int
}

// Solver is Module G: stateful only in its averaging history.
type Solver struct {
	cfg     PVTConfig
	history []PVTSolution
}

func NewSolver(cfg PVTConfig) *Solver {
	return &Solver{cfg: cfg}
}

// obsView is one satellite's contribution to the linearized observation
// equation: transmit-time ECEF position, clock correction, pseudorange,
// and elevation (filled in after the bootstrap pass).
type obsView struct {
	prn    int
	sys    RepoConstellation
	rs     [3]float64
	dts    float64
	pr     float64
	elev   float64
	weight float64
}

// Solve runs one PVT epoch. Returns NO_FIX (Fix=false) when fewer than 4
// valid observations are available, or when the WLS iteration fails to
// converge within pvtMaxIter.
func (s *Solver) Solve(epoch Epoch, repo *Repository) PVTSolution {
	views := s.buildViews(epoch, repo)
	if len(views) < pvtMinObs {
		return PVTSolution{Time: Gtime{}, Fix: false, NSats: len(views)}
	}

	nav := &Nav{}
	if entry, ok := repo.ReadIono(RepoGPS); ok {
		nav.Ion_gps = [8]float64{
			entry.GPS.Alpha[0], entry.GPS.Alpha[1], entry.GPS.Alpha[2], entry.GPS.Alpha[3],
			entry.GPS.Beta[0], entry.GPS.Beta[1], entry.GPS.Beta[2], entry.GPS.Beta[3],
		}
	}
	if entry, ok := repo.ReadIono(RepoGalileo); ok {
		nav.Ion_gal = [4]float64{entry.Galileo.Ai0, entry.Galileo.Ai1, entry.Galileo.Ai2, 0}
	}

	x := [4]float64{} // x,y,z,clock-bias(m)
	converged := false
	for iter := 0; iter < pvtMaxIter; iter++ {
		weighted := iter > 0 // bootstrap pass (iter 0) is equal-weight
		dx, ok := s.iterate(views, x, weighted, nav)
		if !ok {
			break
		}
		x[0] += dx[0]
		x[1] += dx[1]
		x[2] += dx[2]
		x[3] += dx[3]
		if math.Sqrt(dx[0]*dx[0]+dx[1]*dx[1]+dx[2]*dx[2]) < pvtConvergeM {
			converged = true
			break
		}
	}
	if !converged {
		return PVTSolution{Fix: false, NSats: len(views)}
	}

	pos := make([]float64, 3)
	Ecef2Pos(x[:3], pos)

	gdop, hdop, vdop, tdop := s.computeDOPs(views, x)

	sol := PVTSolution{
		X: x[0], Y: x[1], Z: x[2],
		ClockBiasM: x[3],
		LatDeg:     pos[0] * 180 / math.Pi,
		LonDeg:     pos[1] * 180 / math.Pi,
		HeightM:    pos[2],
		GDOP:       gdop, HDOP: hdop, VDOP: vdop, TDOP: tdop,
		NSats: len(views),
		Fix:   true,
	}

	if s.cfg.FlagAveraging {
		return s.average(sol)
	}
	return sol
}

func (s *Solver) average(sol PVTSolution) PVTSolution {
	s.history = append(s.history, sol)
	if len(s.history) > s.cfg.AveragingDepth {
		s.history = s.history[len(s.history)-s.cfg.AveragingDepth:]
	}
	var mean PVTSolution
	n := float64(len(s.history))
	for _, h := range s.history {
		mean.X += h.X / n
		mean.Y += h.Y / n
		mean.Z += h.Z / n
		mean.ClockBiasM += h.ClockBiasM / n
	}
	pos := make([]float64, 3)
	Ecef2Pos([]float64{mean.X, mean.Y, mean.Z}, pos)
	mean.LatDeg = pos[0] * 180 / math.Pi
	mean.LonDeg = pos[1] * 180 / math.Pi
	mean.HeightM = pos[2]
	mean.GDOP, mean.HDOP, mean.VDOP, mean.TDOP = sol.GDOP, sol.HDOP, sol.VDOP, sol.TDOP
	mean.NSats = sol.NSats
	mean.Fix = true
	return mean
}

// buildViews computes each observed SV's transmit-time ECEF position and
// clock correction via Eph2Pos (steps 1-2 of spec §4.G),
// excluding SVs whose ephemeris is not yet in the repository
// (EphemerisUnavailable: PVT excludes silently, not a failure). The raw
// pseudorange is carried through unmodified; ionospheric/tropospheric
// correction (step 3) is applied per-iteration in iterate, once an
// a-priori position/elevation estimate exists to evaluate them against.
func (s *Solver) buildViews(epoch Epoch, repo *Repository) []obsView {
	var views []obsView
	for prn, g := range epoch.Observables {
		c := RepoGPS
		if g.Signal == SignalGalE1B {
			c = RepoGalileo
		}
		eph, ok := repo.ReadEphemeris(c, prn)
		if !ok {
			continue
		}
		txTime := Gtime{Time: uint64(g.TOWHybridAtCurrentSymbol - g.PseudorangeM/speedOfLightMps)}
		rs := make([]float64, 6)
		var dts, vari float64
		Eph2Pos(txTime, &eph, rs, &dts, &vari)
		views = append(views, obsView{
			prn: prn,
			sys: c,
			rs:  [3]float64{rs[0], rs[1], rs[2]},
			dts: dts,
			pr:  g.PseudorangeM,
		})
	}
	return views
}

// ionoNeQuickLightDelayM is a single-layer approximation of Galileo's
// NeQuick-G broadcast correction: the ICD's effective-ionisation-level
// polynomial (Az = ai0 + ai1*mu + ai2*mu^2, mu the modified dip latitude,
// approximated here by geodetic latitude in the absence of a geomagnetic
// field model) drives an equivalent vertical TEC, mapped to slant delay
// through the standard thin-shell obliquity factor rather than NeQuick's
// full electron-density integration.
func ionoNeQuickLightDelayM(ionGal [4]float64, pos, azel []float64) float64 {
	if azel[1] <= 0 {
		return 0
	}
	muDeg := pos[0] * R2D
	az := ionGal[0] + ionGal[1]*muDeg + ionGal[2]*muDeg*muDeg
	if az < 0 {
		az = 0
	} else if az > 400 {
		az = 400
	}
	vtecTECU := az / 10.0

	sinz := earthRadiusM * math.Cos(azel[1]) / (earthRadiusM + ionoShellHeightM)
	obliquity := 1.0 / math.Sqrt(1.0-sinz*sinz)

	return 40.3e16 * vtecTECU / (FREQ1 * FREQ1) * obliquity
}

// iterate forms and solves one linearized normal equation. When weighted
// is false it applies gnssgo's default equal-weighting; when true it
// applies the spec's w_i = sin^2(elevation_i) scheme. When nav is
// non-nil, the ionospheric (Klobuchar for GPS, ionoNeQuickLightDelayM
// for Galileo) and tropospheric (Saastamoinen, via pntpos.go's TropCorr)
// corrections are evaluated against the current position estimate and
// folded into the predicted range; nil skips correction entirely (used
// by tests that exercise the pure geometric solve).
func (s *Solver) iterate(views []obsView, x [4]float64, weighted bool, nav *Nav) ([4]float64, bool) {
	n := len(views)
	A := Mat(4, n)
	y := Mat(1, n)
	W := make([]float64, n)

	rxPos := make([]float64, 3)
	Ecef2Pos(x[:3], rxPos)

	for i, v := range views {
		dx := v.rs[0] - x[0]
		dy := v.rs[1] - x[1]
		dz := v.rs[2] - x[2]
		r := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if r == 0 {
			return [4]float64{}, false
		}
		A[0+i*4] = -dx / r
		A[1+i*4] = -dy / r
		A[2+i*4] = -dz / r
		A[3+i*4] = 1
		predicted := r - speedOfLightMps*v.dts + x[3]

		var el float64
		haveAzel := false
		azel := make([]float64, 2)
		if weighted || nav != nil {
			e := make([]float64, 3)
			GeoDist(v.rs[:], x[:3], e)
			el = SatAzel(rxPos, e, azel)
			haveAzel = true
		}

		if nav != nil && haveAzel && azel[1] > 0 {
			var dion, dionVar, dtrp, dtrpVar float64
			if v.sys == RepoGalileo {
				dion = ionoNeQuickLightDelayM(nav.Ion_gal, rxPos, azel)
			} else {
				nav.IonoCorr(Gtime{}, SatNo(SYS_GPS, v.prn), rxPos, azel, IONOOPT_BRDC, &dion, &dionVar)
			}
			nav.TropCorr(Gtime{}, rxPos, azel, TROPOPT_SAAS, &dtrp, &dtrpVar)
			predicted += dion + dtrp
		}

		y[i] = v.pr - predicted

		if weighted {
			w := math.Sin(el)
			W[i] = w * w
			if W[i] < 1e-6 {
				W[i] = 1e-6
			}
		} else {
			W[i] = 1
		}
	}

	// Apply weights by scaling rows (equivalent to W^{1/2}·A, W^{1/2}·y).
	for i := 0; i < n; i++ {
		sw := math.Sqrt(W[i])
		for k := 0; k < 4; k++ {
			A[k+i*4] *= sw
		}
		y[i] *= sw
	}

	dxv := make([]float64, 4)
	Q := make([]float64, 16)
	if LSQ(A, y, 4, n, dxv, Q) != 0 {
		return [4]float64{}, false
	}
	return [4]float64{dxv[0], dxv[1], dxv[2], dxv[3]}, true
}

func (s *Solver) computeDOPs(views []obsView, x [4]float64) (gdop, hdop, vdop, tdop float64) {
	n := len(views)
	pos := make([]float64, 3)
	Ecef2Pos(x[:3], pos)
	azel := make([]float64, 2*n)
	for i, v := range views {
		e := make([]float64, 3)
		GeoDist(v.rs[:], x[:3], e)
		one := make([]float64, 2)
		SatAzel(pos, e, one)
		azel[2*i] = one[0]
		azel[2*i+1] = one[1]
	}
	dop := make([]float64, 4) // {GDOP,PDOP,HDOP,VDOP}
	DOPs(n, azel, 0, dop)
	gdop, pdop := dop[0], dop[1]
	hdop, vdop = dop[2], dop[3]
	if gdop > pdop {
		tdop = math.Sqrt(gdop*gdop - pdop*pdop)
	}
	return gdop, hdop, vdop, tdop
}
