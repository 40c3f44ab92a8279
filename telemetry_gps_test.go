package sdrgnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildParityWord constructs a syntactically valid 30-bit GPS word (24
// data bits + 6 correct parity bits) for the given data bits, so the
// parity-check round-trips against its own encoding.
func buildParityWord(t *testing.T, dataBits [24]uint8, prevD30star uint8) []uint8 {
	t.Helper()
	d := make([]uint8, 31)
	for i := 0; i < 24; i++ {
		b := dataBits[i]
		if prevD30star == 1 {
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
	d[25] = xorBits(1, 2, 3, 5, 6, 10, 11, 12, 13, 14, 17, 18, 20, 23)
	d[26] = xorBits(2, 3, 4, 6, 7, 11, 12, 13, 14, 15, 18, 19, 21, 24)
	d[27] = xorBits(1, 3, 4, 5, 7, 8, 12, 13, 14, 15, 16, 19, 20, 22)
	d[28] = xorBits(2, 4, 5, 6, 8, 9, 13, 14, 15, 16, 17, 20, 21, 23)
	d[29] = xorBits(1, 3, 5, 6, 7, 9, 10, 14, 15, 16, 17, 18, 21, 22, 24)
	d[30] = xorBits(3, 5, 6, 8, 9, 10, 11, 13, 15, 19, 22, 23, 24, 25, 26, 27, 28, 29)

	word := make([]uint8, 30)
	for i := 0; i < 24; i++ {
		word[i] = dataBits[i]
	}
	for i := 24; i < 30; i++ {
		word[i] = d[i+1]
	}
	return word
}

func TestGPSParityCheckAcceptsValidWord(t *testing.T) {
	var data [24]uint8
	for i := range data {
		data[i] = uint8(i % 2)
	}
	word := buildParityWord(t, data, 0)

	decoded, d30star, ok := gpsParityCheck(word, 0)
	require.True(t, ok)
	assert.Equal(t, word[29], d30star)

	var expect uint32
	for i := 0; i < 24; i++ {
		expect = expect<<1 | uint32(data[i])
	}
	assert.Equal(t, expect, decoded)
}

func TestGPSParityCheckRejectsCorruptedWord(t *testing.T) {
	var data [24]uint8
	for i := range data {
		data[i] = uint8((i + 1) % 2)
	}
	word := buildParityWord(t, data, 0)
	word[2] ^= 1 // flip one data bit without updating parity

	_, _, ok := gpsParityCheck(word, 0)
	assert.False(t, ok)
}

func TestGPSDecoderSyncsOnPreamble(t *testing.T) {
	d := NewGPSDecoder(1)
	preambleBits := []uint8{1, 0, 0, 0, 1, 0, 1, 1} // 0x8B
	for _, b := range preambleBits {
		eph, ok := d.FeedBit(b)
		assert.False(t, ok)
		assert.Nil(t, eph)
	}
	assert.True(t, d.synced)
}

func TestScale2nPositiveAndNegativeExponent(t *testing.T) {
	assert.InDelta(t, 4.0, scale2n(int8(1), 2), 1e-12)
	assert.InDelta(t, 0.25, scale2n(int8(1), -2), 1e-12)
}
