/*------------------------------------------------------------------------------
* ephemeris.c : satellite ephemeris and clock functions
*
*          Copyright (C) 2010-2020 by T.TAKASU, All rights reserved.
*
* references :
*     [1] IS-GPS-200K, Navstar GPS Space Segment/Navigation User Interfaces,
*         May 6, 2019
*     [7] European GNSS (Galileo) Open Service Signal In Space Interface Control
*         Document, Issue 1.3, December, 2016
*     [9] BeiDou navigation satellite system signal in space interface control
*         document open service signal B1I (version 3.0), China Satellite
*         Navigation office, February, 2019
*
* version : $Revision:$ $Date:$
* history : 2010/07/28 1.1  moved from rtkcmn.c
*           2013/01/10 1.5  support beidou (compass)
*                           use newton's method to solve kepler eq.
*           2020/11/30 1.14 update references [1],[7],[9]
*		    2022/05/31 1.0  rewrite ephemeris.c with golang by fxb
*-----------------------------------------------------------------------------*/

package sdrgnss

import (
	"math"
)

/* pvt_solver.go's buildViews() is this file's only caller: step 1 of
 * spec.md §4.G (satellite position/clock from broadcast ephemeris) needs
 * exactly Eph2Pos's Kepler-iteration/relativity computation. The
 * teacher's ephemeris.c also covered GLONASS numerical-integration
 * orbits, SBAS/SSR-corrected positions, almanac propagation and the
 * multi-ephemeris satpos()/satposs() dispatch built on PrcOpt/ObsD
 * batches — none of those systems or dispatch paths are reachable from
 * this receiver's GPS L1 C/A + Galileo E1 domain, so they were trimmed
 * rather than kept unreachable.
 */

const (
	MU_GPS          = 3.9860050e14        /* gravitational constant         ref [1] */
	MU_GAL          = 3.986004418e14      /* earth gravitational constant   ref [7] */
	MU_CMP          = 3.986004418e14      /* earth gravitational constant   ref [9] */
	OMGE_GAL        = 7.2921151467e-5     /* earth angular velocity (rad/s) ref [7] */
	OMGE_CMP        = 7.292115e-5         /* earth angular velocity (rad/s) ref [9] */
	SIN_5           = -0.0871557427476582 /* sin(-5.0 deg) */
	COS_5           = 0.9961946980917456  /* cos(-5.0 deg) */
	Aref_MEO        = 27906100            /* support BDS-3 by cjb ref [2] */
	Aref_IGSO_GEO   = 42162200            /* support BDS-3 by cjb ref [2] */
	RTOL_KEPLER     = 1e-13               /* relative tolerance for Kepler equation */
	STD_GAL_NAPA    = 500.0               /* error of galileo ephemeris for NAPA (m) */
	MAX_ITER_KEPLER = 30                  /* max number of iteration of Kelpler */
)

/* variance by ura ephemeris -------------------------------------------------*/
func var_uraeph(sys, ura int) float64 {
	var ura_value []float64 = []float64{
		2.4, 3.4, 4.85, 6.85, 9.65, 13.65, 24.0, 48.0, 96.0, 192.0, 384.0, 768.0, 1536.0,
		3072.0, 6144.0}
	if sys == SYS_GAL { /* galileo sisa (ref [7] 5.1.11) */
		if ura <= 49 {
			return SQR(float64(ura) * 0.01)
		}
		if ura <= 74 {
			return SQR(0.5 + float64(ura-50)*0.02)
		}
		if ura <= 99 {
			return SQR(1.0 + float64(ura-75)*0.04)
		}
		if ura <= 125 {
			return SQR(2.0 + float64(ura-100)*0.16)
		}
		return SQR(STD_GAL_NAPA)
	} else { /* gps ura (ref [1] 20.3.3.3.1.1) */
		if ura < 0 || 14 < ura {
			return SQR(6144.0)
		}
		return SQR(ura_value[ura])
	}
}

/* broadcast ephemeris to satellite position and clock bias --------------------
* compute satellite position and clock bias with broadcast ephemeris (gps,
* galileo, qzss)
* args   : gtime_t time     I   time (gpst)
*          eph_t *eph       I   broadcast ephemeris
*          double *rs       O   satellite position (ecef) {x,y,z} (m)
*          double *dts      O   satellite clock bias (s)
*          double *var      O   satellite position and clock variance (m^2)
* return : none
* notes  : see ref [1],[7],[8]
*          satellite clock includes relativity correction without code bias
*          (tgd or bgd)
*-----------------------------------------------------------------------------*/
func Eph2Pos(time Gtime, eph *Eph, rs []float64, dts, vari *float64) {
	var (
		tk, M, E, Ek, sinE, cosE, u, r, i, O           float64
		sin2u, cos2u, x, y, sinO, cosO, cosi, mu, omge float64
		xg, yg, zg, sino, coso                         float64
		n, sys, prn                                    int
		A, A0, deltNa, Na, N0                          float64
	)

	Trace(4, "eph2pos : time=%s sat=%2d\n", TimeStr(time, 3), eph.Sat)

	tk = TimeDiff(time, eph.Toe)

	switch sys = SatSys(eph.Sat, &prn); sys {
	case SYS_GAL:
		mu = MU_GAL
		omge = OMGE_GAL

	case SYS_CMP:
		mu = MU_CMP
		omge = OMGE_CMP

	default:
		mu = MU_GPS
		omge = OMGE

	}

	if sys == SYS_CMP && (eph.Code == CODE_L1P || eph.Code == CODE_L8X) { //CODE_L1P B1C  CODE_L8X B2a support BDS-3 by cjb

		if eph.Flag == 1 { /*1:IGSO/MEO ????*/

			A0 = Aref_MEO + eph.A
		} else if eph.Flag == 2 { /*2:GEO*/

			A0 = Aref_IGSO_GEO + eph.A
		}
		A = math.Sqrt(A0 + eph.Adot*tk)

		N0 = math.Sqrt(mu / (A0 * A0 * A0))
		deltNa = eph.Deln + 1.0/2.0*eph.Ndot*tk
		Na = N0 + deltNa
		M = eph.M0 + Na*tk
	} else {
		A = eph.A
		M = eph.M0 + (math.Sqrt(mu/(eph.A*eph.A*eph.A))+eph.Deln)*tk
	}

	E = M
	Ek = 0.0
	for n = 0; math.Abs(E-Ek) > RTOL_KEPLER && n < MAX_ITER_KEPLER; n++ {
		Ek = E
		E -= (E - eph.E*math.Sin(E) - M) / (1.0 - eph.E*math.Cos(E))
	}
	if n >= MAX_ITER_KEPLER {
		Trace(2, "eph2pos: kepler iteration overflow sat=%2d\n", eph.Sat)
		return
	}
	sinE = math.Sin(E)
	cosE = math.Cos(E)

	Trace(5, "kepler: sat=%2d e=%8.5f n=%2d del=%10.3e\n", eph.Sat, eph.E, n, E-Ek)

	u = math.Atan2(math.Sqrt(1.0-eph.E*eph.E)*sinE, cosE-eph.E) + eph.Omg
	r = A * (1.0 - eph.E*cosE)
	i = eph.I0 + eph.Idot*tk
	sin2u = math.Sin(2.0 * u)
	cos2u = math.Cos(2.0 * u)
	u += eph.Cus*sin2u + eph.Cuc*cos2u
	r += eph.Crs*sin2u + eph.Crc*cos2u
	i += eph.Cis*sin2u + eph.Cic*cos2u
	x = r * math.Cos(u)
	y = r * math.Sin(u)
	cosi = math.Cos(i)

	/* beidou geo satellite */
	if sys == SYS_CMP && (prn <= 5 || prn >= 59) { /* ref [9] table 4-1 */
		O = eph.OMG0 + eph.OMGd*tk - omge*eph.Toes
		sinO = math.Sin(O)
		cosO = math.Cos(O)
		xg = x*cosO - y*cosi*sinO
		yg = x*sinO + y*cosi*cosO
		zg = y * math.Sin(i)
		sino = math.Sin(omge * tk)
		coso = math.Cos(omge * tk)
		rs[0] = xg*coso + yg*sino*COS_5 + zg*sino*SIN_5
		rs[1] = -xg*sino + yg*coso*COS_5 + zg*coso*SIN_5
		rs[2] = -yg*SIN_5 + zg*COS_5
	} else {
		O = eph.OMG0 + (eph.OMGd-omge)*tk - omge*eph.Toes
		sinO = math.Sin(O)
		cosO = math.Cos(O)
		rs[0] = x*cosO - y*cosi*sinO
		rs[1] = x*sinO + y*cosi*cosO
		rs[2] = y * math.Sin(i)
	}
	tk = TimeDiff(time, eph.Toc)
	*dts = eph.F0 + eph.F1*tk + eph.F2*tk*tk

	/* relativity correction */
	*dts -= 2.0 * math.Sqrt(mu*eph.A) * eph.E * sinE / SQR(CLIGHT)

	/* position and clock error variance */
	*vari = var_uraeph(sys, eph.Sva)
}
