package sdrgnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryWriteReadRoundTrip(t *testing.T) {
	r := NewRepository()
	e := Eph{Sat: 5, Iode: 10}
	r.WriteEphemeris(RepoGPS, 5, e)

	got, ok := r.ReadEphemeris(RepoGPS, 5)
	require.True(t, ok)
	assert.Equal(t, 10, got.Iode)
}

func TestRepositoryReadMissingKey(t *testing.T) {
	r := NewRepository()
	_, ok := r.ReadEphemeris(RepoGPS, 99)
	assert.False(t, ok)
}

func TestRepositoryIODMonotonicity(t *testing.T) {
	r := NewRepository()
	r.WriteEphemeris(RepoGPS, 1, Eph{Sat: 1, Iode: 20})
	r.WriteEphemeris(RepoGPS, 1, Eph{Sat: 1, Iode: 5}) // lower IODE, must not overwrite

	got, ok := r.ReadEphemeris(RepoGPS, 1)
	require.True(t, ok)
	assert.Equal(t, 20, got.Iode, "lower IOD must never overwrite a higher one")

	r.WriteEphemeris(RepoGPS, 1, Eph{Sat: 1, Iode: 21}) // higher IODE, must overwrite
	got, ok = r.ReadEphemeris(RepoGPS, 1)
	require.True(t, ok)
	assert.Equal(t, 21, got.Iode)
}

func TestRepositorySingletonIonoUTC(t *testing.T) {
	r := NewRepository()
	r.WriteIonoGPS(IonoGPS{Alpha: [4]float64{1, 2, 3, 4}})
	r.WriteUTC(RepoGPS, UTCModel{A0: 1.5})

	iono, ok := r.ReadIono(RepoGPS)
	require.True(t, ok)
	assert.Equal(t, 1.0, iono.GPS.Alpha[0])

	utc, ok := r.ReadUTC(RepoGPS)
	require.True(t, ok)
	assert.Equal(t, 1.5, utc.A0)
}

func TestRepositorySnapshotIsolation(t *testing.T) {
	r := NewRepository()
	r.WriteEphemeris(RepoGPS, 1, Eph{Sat: 1, Iode: 1})

	snap := r.Snapshot()
	r.WriteEphemeris(RepoGPS, 1, Eph{Sat: 1, Iode: 2})

	assert.Equal(t, 1, snap.Eph[RepoGPS][1].Iode, "snapshot must not observe writes made after it was taken")

	got, _ := r.ReadEphemeris(RepoGPS, 1)
	assert.Equal(t, 2, got.Iode)
}

func TestRepositoryAlmanacRoundTrip(t *testing.T) {
	r := NewRepository()
	r.WriteAlmanac(RepoGalileo, AlmanacEntry{PRN: 3, Week: 100, Toa: 60})

	a, ok := r.ReadAlmanac(RepoGalileo, 3)
	require.True(t, ok)
	assert.Equal(t, 100, a.Week)
}
