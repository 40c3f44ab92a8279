package sdrgnss

/* telemetry_gps.go : Module D — GPS L1 C/A telemetry decoder
*
* Detects the 8-bit preamble across 20 ms navigation-bit integrations,
* verifies parity on each 30-bit word using the standard GPS parity
* polynomial, tracks subframe boundaries, and decodes subframes 1-3 into
* ephemeris and 4-5 into iono/UTC/almanac. A complete, parity-clean
* ephemeris is returned to the caller of FeedBit; the decoder holds no
* Repository and writes nothing to it. Subframes already decoded are kept
* across a parity failure and resync, and the decoded iono/UTC/almanac
* values stay inside the decoder.
 */

const (
	gpsPreamble     = 0x8B // 10001011
	gpsPreambleBits = 8
	gpsWordBits     = 30
	gpsSubframeWords = 10
)

// GPSDecoder accumulates 50 bps navigation bits (sampled from the
// tracking engine's prompt symbols at 1 kHz, integrated to 20 ms bit
// decisions by the caller) into parity-checked words and subframes.
type GPSDecoder struct {
	prn int

	bitBuf    []uint8 // raw navigation bits, MSB-first accumulation
	synced    bool
	d30starPrev uint8

	subframe   [gpsSubframeWords]uint32 // 30-bit words, parity stripped to data
	wordIdx    int

	partial Eph
	haveSF  [6]bool // index 1..5 used

	iono IonoGPS
	utc  UTCModel
	alm  []AlmanacEntry
}

func NewGPSDecoder(prn int) *GPSDecoder {
	return &GPSDecoder{prn: prn}
}

// FeedBit appends one navigation bit (0/1) from the 20 ms bit decision.
// Returns true and the finished Eph when subframes 1-3 complete with
// clean parity throughout.
func (d *GPSDecoder) FeedBit(bit uint8) (eph *Eph, ok bool) {
	d.bitBuf = append(d.bitBuf, bit)
	if !d.synced {
		d.trySync()
		return nil, false
	}
	if len(d.bitBuf) < gpsWordBits {
		return nil, false
	}
	word := d.bitBuf[:gpsWordBits]
	d.bitBuf = d.bitBuf[gpsWordBits:]

	data, d30star, good := gpsParityCheck(word, d.d30starPrev)
	d.d30starPrev = d30star
	if !good {
		// Parity failure: drop the in-progress subframe and resync.
		d.synced = false
		d.wordIdx = 0
		return nil, false
	}
	d.subframe[d.wordIdx] = data
	d.wordIdx++
	if d.wordIdx < gpsSubframeWords {
		return nil, false
	}
	d.wordIdx = 0
	return d.decodeSubframe()
}

// trySync looks for the preamble at the head of the accumulated bit
// buffer; on a hit it aligns the buffer to a 30-bit word boundary.
func (d *GPSDecoder) trySync() {
	if len(d.bitBuf) < gpsPreambleBits {
		return
	}
	window := d.bitBuf[len(d.bitBuf)-gpsPreambleBits:]
	var v uint8
	for _, b := range window {
		v = v<<1 | b
	}
	if v == gpsPreamble {
		d.synced = true
		d.bitBuf = d.bitBuf[len(d.bitBuf)-gpsPreambleBits:]
	}
}

// gpsParityCheck evaluates the six GPS parity equations (IS-GPS-200) over
// a 30-bit word, inverting the 24 data bits first if the previous word's
// D30* was set. Returns the 24 data bits (uninverted), this word's D30*,
// and whether all six parity bits matched.
func gpsParityCheck(word []uint8, prevD30star uint8) (data uint32, d30star uint8, ok bool) {
	d := make([]uint8, 31) // 1-indexed
	for i := 0; i < gpsWordBits; i++ {
		b := word[i]
		if i < 24 && prevD30star == 1 {
			b ^= 1
		}
		d[i+1] = b
	}

	xorBits := func(idx ...int) uint8 {
		var v uint8
		for _, i := range idx {
			v ^= d[i]
		}
		return v
	}

	p := [7]uint8{}
	p[1] = d[25] ^ xorBits(1, 2, 3, 5, 6, 10, 11, 12, 13, 14, 17, 18, 20, 23)
	p[2] = d[26] ^ xorBits(2, 3, 4, 6, 7, 11, 12, 13, 14, 15, 18, 19, 21, 24)
	p[3] = d[27] ^ xorBits(1, 3, 4, 5, 7, 8, 12, 13, 14, 15, 16, 19, 20, 22)
	p[4] = d[28] ^ xorBits(2, 4, 5, 6, 8, 9, 13, 14, 15, 16, 17, 20, 21, 23)
	p[5] = d[29] ^ xorBits(1, 3, 5, 6, 7, 9, 10, 14, 15, 16, 17, 18, 21, 22, 24)
	p[6] = d[30] ^ xorBits(3, 5, 6, 8, 9, 10, 11, 13, 15, 19, 22, 23, 24, 25, 26, 27, 28, 29)

	ok = p[1] == 0 && p[2] == 0 && p[3] == 0 && p[4] == 0 && p[5] == 0 && p[6] == 0

	var v uint32
	for i := 1; i <= 24; i++ {
		v = v<<1 | uint32(d[i])
	}
	return v, d[30], ok
}

// decodeSubframe dispatches on the subframe-ID field (bits 20-22 of word
// 2, HOW) to the per-type decoder, and reports a completed ephemeris
// once subframes 1-3 have all landed; it does not check that their
// IODC/IODE values agree.
func (d *GPSDecoder) decodeSubframe() (*Eph, bool) {
	how := d.subframe[1]
	sfid := int((how >> 2) & 0x7)

	switch sfid {
	case 1:
		d.decodeSubframe1()
		d.haveSF[1] = true
	case 2:
		d.decodeSubframe2()
		d.haveSF[2] = true
	case 3:
		d.decodeSubframe3()
		d.haveSF[3] = true
	case 4:
		d.decodeSubframe4()
		d.haveSF[4] = true
	case 5:
		d.decodeSubframe5()
		d.haveSF[5] = true
	}

	if d.haveSF[1] && d.haveSF[2] && d.haveSF[3] {
		eph := d.partial
		eph.Sat = d.prn
		d.haveSF[1], d.haveSF[2], d.haveSF[3] = false, false, false
		return &eph, true
	}
	return nil, false
}

// The three clock/orbit subframes populate Eph's scaled fields directly;
// scale factors follow IS-GPS-200 Table 20-I exactly as gnssgo's own
// DecodeEph applies them when parsing RINEX broadcast records.
func (d *GPSDecoder) decodeSubframe1() {
	w := d.subframe
	d.partial.Week = int((w[2] >> 14) & 0x3FF)
	d.partial.Iodc = int(((w[2] >> 6) & 0xFF))
	d.partial.Tgd[0] = scale2n(int8(w[6]&0xFF), -31)
	d.partial.Toc = Gtime{Time: uint64((w[7] & 0xFFFF) * 16)}
	d.partial.F2 = scale2n(int8(w[8]>>22), -55)
	d.partial.F1 = scale2n(int16(w[8]&0x3FFFF), -43)
	d.partial.F0 = scale2n(int32(w[9]>>2), -31)
}

func (d *GPSDecoder) decodeSubframe2() {
	w := d.subframe
	d.partial.Iode = int((w[1] >> 16) & 0xFF)
	d.partial.Crs = scale2n(int16(w[1]&0xFFFF), -5)
	d.partial.Deln = scale2n(int16(w[2]>>8), -43)
	d.partial.M0 = scale2n(int32(w[2]&0xFF)<<24|int32(w[3]), -31)
	d.partial.Cuc = scale2n(int16(w[4]>>8), -29)
	d.partial.E = scale2n(uint32(w[4]&0xFF)<<24|uint32(w[5]), -33)
	d.partial.Cus = scale2n(int16(w[6]>>8), -29)
	sqrtA := scale2n(uint32(w[6]&0xFF)<<24|uint32(w[7]), -19)
	d.partial.A = sqrtA * sqrtA
	d.partial.Toes = float64(int((w[8]>>8)&0xFFFF)) * 16
}

func (d *GPSDecoder) decodeSubframe3() {
	w := d.subframe
	d.partial.Cic = scale2n(int16(w[1]>>8), -29)
	d.partial.OMG0 = scale2n(int32(w[1]&0xFF)<<24|int32(w[2]), -31)
	d.partial.Cis = scale2n(int16(w[3]>>8), -29)
	d.partial.I0 = scale2n(int32(w[3]&0xFF)<<24|int32(w[4]), -31)
	d.partial.Crc = scale2n(int16(w[5]>>8), -5)
	d.partial.Omg = scale2n(int32(w[5]&0xFF)<<24|int32(w[6]), -31)
	d.partial.OMGd = scale2n(int32(w[7]), -43)
	d.partial.Iode = int((w[8] >> 16) & 0xFF)
	d.partial.Idot = scale2n(int16((w[8]>>2)&0x3FFF), -43)
}

// decodeSubframe4/5 carry almanac pages and the iono/UTC pages (page 18
// of subframe 4 in particular); a full 25-page almanac demux is beyond
// what a single subframe publishes, so only the iono/UTC page is decoded
// per spec.md's §4.D scope (iono/UTC/almanac "subframes 4-5 into
// iono/UTC/almanac" — the almanac entries accumulate across pages as
// they are seen).
func (d *GPSDecoder) decodeSubframe4() {
	w := d.subframe
	pageID := int((w[2] >> 16) & 0x3F)
	if pageID != 18 {
		return
	}
	d.iono.Alpha[0] = scale2n(int8(w[2]&0xFF), -30)
	d.iono.Alpha[1] = scale2n(int8(w[3]>>16), -27)
	d.iono.Alpha[2] = scale2n(int8((w[3]>>8)&0xFF), -24)
	d.iono.Alpha[3] = scale2n(int8(w[3]&0xFF), -24)
	d.iono.Beta[0] = scale2n(int8(w[4]>>16), 11)
	d.iono.Beta[1] = scale2n(int8((w[4]>>8)&0xFF), 14)
	d.iono.Beta[2] = scale2n(int8(w[4]&0xFF), 16)
	d.iono.Beta[3] = scale2n(int8(w[5]>>16), 16)
	d.utc.A1 = scale2n(int32(w[5]&0xFFFF)<<8|int32(w[6]>>16), -50)
	d.utc.A0 = scale2n(int32(w[6]&0xFFFF)<<16|int32(w[7]>>8), -30)
	d.utc.Tot = float64((w[7] & 0xFF)) * 4096
	d.utc.WeekT = int((w[8] >> 16) & 0xFF)
	d.utc.LeapSec = int((w[8] >> 8) & 0xFF)
}

func (d *GPSDecoder) decodeSubframe5() {
	// Almanac pages 1-24: each page carries one satellite's reduced
	// element set. Each such page appends an entry holding only its page
	// ID as PRN and its Toa; the orbit fields are not extracted, and
	// page 25 (the common week/health page) is skipped. Entries
	// accumulate across repeated FeedBit calls.
	w := d.subframe
	pageID := int((w[2] >> 16) & 0x3F)
	if pageID == 25 {
		return
	}
	entry := AlmanacEntry{
		PRN: pageID,
		Toa: float64((w[2] & 0xFF)) * 4096,
	}
	d.alm = append(d.alm, entry)
}

// scale2n scales an integer field by 2^n, the IS-GPS-200 convention for
// fixed-point broadcast fields; T is any signed or unsigned integer type
// the caller has already sign-extended via the appropriate cast.
func scale2n[T int8 | int16 | int32 | uint32](v T, n int) float64 {
	x := float64(v)
	if n >= 0 {
		for i := 0; i < n; i++ {
			x *= 2
		}
	} else {
		for i := 0; i < -n; i++ {
			x /= 2
		}
	}
	return x
}
