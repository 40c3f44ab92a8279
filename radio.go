package sdrgnss

import (
	"io"

	serial "github.com/tarm/goserial"
)

/* radio.go : sample-source collaborator interface (out of scope per
* spec.md, referenced only by interface)
*
* Sample input adapters — file, network, serial-attached front ends —
* are an explicit Non-goal collaborator: this repo consumes an ordered
* IQ stream but never owns how that stream is produced. SerialRadio is
* the minimal adapter a serial-attached front end would implement
* against, keeping the go.mod goserial dependency exercised by a real
* (if thin) caller rather than orphaned.
 */

// SampleSource is the capability a channel pipeline needs from whatever
// produces its interleaved (I,Q) byte stream.
type SampleSource interface {
	io.Reader
	io.Closer
}

// SerialRadio opens a serial-attached front end as a SampleSource, via
// the same github.com/tarm/goserial port gnssgo's stream.go uses for its
// STR_SERIAL stream type.
type SerialRadio struct {
	port io.ReadWriteCloser
}

// OpenSerialRadio opens portName at baud and returns it as a
// SampleSource; portName/baud are the <Role>.ifreq-adjacent hardware
// configuration this repo's Config intentionally does not enumerate,
// since wiring a physical radio is the surrounding driver's concern.
func OpenSerialRadio(portName string, baud int) (*SerialRadio, error) {
	cfg := &serial.Config{Name: portName, Baud: baud}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return &SerialRadio{port: p}, nil
}

func (r *SerialRadio) Read(p []byte) (int, error) { return r.port.Read(p) }
func (r *SerialRadio) Close() error               { return r.port.Close() }
