package sdrgnss

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/google/uuid"
)

/* dump.go : ambient — per-channel debug dump
*
* spec.md §6 names a <Role>.dump / <Role>.dump_filename toggle per
* acquisition role. acqDumper implements it in the teacher's stream.go
* FileType/SaveOutBuf idiom: one append-only sink opened for the run's
* lifetime rather than a file reopened per record. acquisition.go's
* Engine owns one and writes a row per dwell when cfg.DumpEnabled is
* set.
 */

type acqDumper struct {
	f     *os.File
	w     *csv.Writer
	runID string
}

func newAcqDumper(filename string) (*acqDumper, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err // IoFailure: caller logs at WARNING and continues without the dump
	}
	return &acqDumper{f: f, w: csv.NewWriter(f), runID: uuid.NewString()}, nil
}

// writeDwell appends one dwell's grid-search result. Safe to call on a
// nil receiver so callers don't need to guard every call site on
// whether dumping is enabled.
func (d *acqDumper) writeDwell(prn int, samplestamp uint64, peak, noise, codePhaseSamp, dopplerHz float64) {
	if d == nil {
		return
	}
	_ = d.w.Write([]string{
		d.runID,
		strconv.Itoa(prn),
		strconv.FormatUint(samplestamp, 10),
		strconv.FormatFloat(peak, 'g', -1, 64),
		strconv.FormatFloat(noise, 'g', -1, 64),
		strconv.FormatFloat(codePhaseSamp, 'g', -1, 64),
		strconv.FormatFloat(dopplerHz, 'g', -1, 64),
	})
	d.w.Flush()
}

func (d *acqDumper) Close() error {
	if d == nil {
		return nil
	}
	d.w.Flush()
	return d.f.Close()
}
