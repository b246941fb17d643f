// Package device defines the hardware collaborators a venue consumes: an
// audio I/O device delivering one block at a time, and a scanner for live
// MIDI input ports. Vendor-specific enumeration lives behind these
// interfaces; the portaudio and gomidi implementations are the defaults.
package device

import "errors"

var (
	// ErrNoBackend means no usable audio backend could be initialized.
	// Recoverable by the caller; never an abort.
	ErrNoBackend = errors.New("device: no usable audio backend")

	// ErrPermissionDenied means audio input capture was refused by the OS.
	ErrPermissionDenied = errors.New("device: audio input permission denied")
)

// Config requests a hardware configuration. A zero sample rate or block size
// means "let the device choose".
type Config struct {
	InputChannels  int
	OutputChannels int
	SampleRate     float64
	BlockSize      int
}

// BlockCallback is invoked once per hardware block on the device's real-time
// thread, with discrete (non-interleaved) channel slices. The callback owns
// the output buffers for the duration of the call.
type BlockCallback func(input, output [][]float32)

// Device is an opened hardware audio device.
type Device interface {
	Open(cfg Config) error
	Start(cb BlockCallback) error
	Stop() error
	Close() error

	Name() string
	SampleRate() float64
	BlockSize() int
	InputChannels() int
	OutputChannels() int

	// XRunCount reports device-side over/underruns, negative when the
	// backend cannot report them.
	XRunCount() int
}

// MIDIPort is one hardware MIDI input port.
type MIDIPort interface {
	Name() string

	// Listen starts delivering raw message bytes to onMessage from the
	// port's own thread. The returned stop function closes the port.
	Listen(onMessage func(data []byte)) (stop func(), err error)
}

// MIDIScanner enumerates the currently present MIDI input ports.
type MIDIScanner interface {
	Scan() ([]MIDIPort, error)
}
