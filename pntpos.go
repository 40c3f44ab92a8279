/*------------------------------------------------------------------------------
* pntpos.c : standard positioning
*
*          Copyright (C) 2007-2020 by T.TAKASU, All rights reserved.
*
* version : $Revision:$ $Date:$
* history : 2010/07/28 1.0  moved from rtkcmn.c
*                           changed api:
*                               pntpos()
*                           deleted api:
*                               pntvel()
*           2011/01/12 1.1  add option to include unhealthy satellite
*                           reject duplicated observation data
*                           changed api: ionocorr()
*           2011/11/08 1.2  enable snr mask for single-mode (rtklib_2.4.1_p3)
*           2012/12/25 1.3  add variable snr mask
*           2014/05/26 1.4  support galileo and beidou
*           2015/03/19 1.5  fix bug on ionosphere correction for GLO and BDS
*           2018/10/10 1.6  support api change of satexclude()
*           2020/11/30 1.7  support NavIC/IRNSS in pntpos()
*                           no support IONOOPT_LEX option in ioncorr()
*                           improve handling of TGD correction for each system
*                           use E1-E5b for Galileo dual-freq iono-correction
*                           use API sat2freq() to get carrier frequency
*                           add output of velocity estimation error in estvel()
*		    2022/05/31 1.0  rewrite pntpos.c with golang by fxb
*-----------------------------------------------------------------------------*/

package sdrgnss

import "math"

/* pvt_solver.go is this file's only caller (GPS/Galileo iono and
 * tropospheric correction for pseudorange observables, spec.md §4.G
 * step 3). The teacher's full pntpos.c also covered SBAS/IONEX/QZSS
 * ionosphere models, RAIM FDE, Doppler velocity estimation and the
 * complete weighted-least-squares PntPos() entry point built on
 * PrcOpt/Sol/SSat — none of those models or types exist in this repo's
 * domain (this receiver tracks GPS L1 C/A and Galileo E1 only, and
 * pvt_solver.go owns its own WLS loop), so that machinery was trimmed
 * rather than kept as unreachable dead code alongside the two
 * functions actually wired in.
 */

const (
	ERR_ION   = 5.0       /* ionospheric delay Std (m) */
	ERR_TROP  = 3.0       /* tropspheric delay Std (m) */
	ERR_SAAS  = 0.3       /* Saastamoinen model error Std (m) */
	ERR_BRDCI = 0.5       /* broadcast ionosphere model error factor */
	REL_HUMI  = 0.7       /* relative humidity for Saastamoinen model */
)

/* ionospheric correction ------------------------------------------------------
* compute ionospheric correction
* args   : gtime_t time     I   time
*          nav_t  *nav      I   navigation data
*          int    sat       I   satellite number
*          double *pos      I   receiver position {lat,lon,h} (rad|m)
*          double *azel     I   azimuth/elevation angle {az,el} (rad)
*          int    ionoopt   I   ionospheric correction option (IONOOPT_???)
*          double *ion      O   ionospheric delay (L1) (m)
*          double *var      O   ionospheric delay (L1) variance (m^2)
* return : status(1:ok,0:error)
*-----------------------------------------------------------------------------*/
func (nav *Nav) IonoCorr(time Gtime, sat int, pos, azel []float64, ionoopt int, ion, vari *float64) int {
	Trace(4, "ionocorr: time=%s opt=%d sat=%2d pos=%.3f %.3f azel=%.3f %.3f\n",
		TimeStr(time, 3), ionoopt, sat, pos[0]*R2D, pos[1]*R2D, azel[0]*R2D,
		azel[1]*R2D)

	/* GPS broadcast (Klobuchar) ionosphere model */
	if ionoopt == IONOOPT_BRDC {
		*ion = IonModel(time, nav.Ion_gps[:], pos, azel)
		*vari = SQR(*ion * ERR_BRDCI)
		return 1
	}
	*ion = 0.0
	*vari = 0.0
	if ionoopt == IONOOPT_OFF {
		*vari = SQR(ERR_ION)
	}

	return 1
}

/* tropospheric correction -----------------------------------------------------
* compute tropospheric correction
* args   : gtime_t time     I   time
*          nav_t  *nav      I   navigation data
*          double *pos      I   receiver position {lat,lon,h} (rad|m)
*          double *azel     I   azimuth/elevation angle {az,el} (rad)
*          int    tropopt   I   tropospheric correction option (TROPOPT_???)
*          double *trp      O   tropospheric delay (m)
*          double *var      O   tropospheric delay variance (m^2)
* return : status(1:ok,0:error)
*-----------------------------------------------------------------------------*/
func (nav *Nav) TropCorr(time Gtime, pos, azel []float64, tropopt int, trp, vari *float64) int {
	Trace(4, "tropcorr: time=%s opt=%d pos=%.3f %.3f azel=%.3f %.3f\n",
		TimeStr(time, 3), tropopt, pos[0]*R2D, pos[1]*R2D, azel[0]*R2D,
		azel[1]*R2D)

	/* Saastamoinen model */
	if tropopt == TROPOPT_SAAS || tropopt == TROPOPT_EST || tropopt == TROPOPT_ESTG {
		*trp = TropModel(time, pos, azel, REL_HUMI)
		*vari = SQR(ERR_SAAS / (math.Sin(azel[1]) + 0.1))
		return 1
	}
	/* no correction */
	*trp = 0.0
	*vari = 0.0
	if tropopt == TROPOPT_OFF {
		*vari = SQR(ERR_TROP)
	}

	return 1
}
