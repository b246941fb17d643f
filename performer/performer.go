// Package performer defines the contract a compiled DSP program must satisfy
// to be hosted by a venue. Implementations live behind this interface; the
// venue only loads, links, connects and advances them.
package performer

import (
	"github.com/glasshall/venue/endpoint"
)

// Program is a compiled DSP program produced by an external compiler.
type Program interface {
	Name() string
}

// Severity classifies a diagnostic message.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "note"
	}
}

// Diagnostic is one message produced while loading or linking a program.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Diagnostics accumulates messages from a load or link attempt. Failed
// attempts return their messages here; they are never silently dropped.
type Diagnostics []Diagnostic

func (d *Diagnostics) Add(sev Severity, msg string) {
	*d = append(*d, Diagnostic{Severity: sev, Message: msg})
}

// HasErrors reports whether any message is error severity.
func (d Diagnostics) HasErrors() bool {
	for _, m := range d {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// LinkOptions tune how a loaded program is linked into an executable graph.
type LinkOptions struct {
	OptimisationLevel int
	MaxStateSize      int
}

// StreamSource supplies the next numFrames frames of interleaved samples when
// a performer pulls on a connected stream input. ok is false once the current
// hardware block is exhausted; the performer must not pull further until the
// next block.
type StreamSource func(numFrames int) (samples endpoint.Samples, ok bool)

// StreamSink consumes frames a performer pushes to a connected stream output
// and returns the number of frames actually accepted, which may be fewer than
// offered when the hardware block boundary is reached.
type StreamSink func(samples endpoint.Samples) (framesAccepted int)

// EventSource drains the events queued for a performer's event input, in
// order, calling emit once per event with its intra-block frame offset.
type EventSource func(emit func(frameOffset int, event int32))

// InputSource is a performer's handle for one of its inputs. The venue
// attaches a stream or event source to it when a connection is made.
type InputSource interface {
	SetStreamSource(StreamSource)
	SetEventSource(EventSource)
	RemoveSource()
}

// OutputSink is a performer's handle for one of its outputs.
type OutputSink interface {
	SetStreamSink(StreamSink)
	RemoveSink()
}

// Performer executes one DSP program, one block at a time.
type Performer interface {
	// Load compiles-in the given program, appending any messages to diags.
	Load(p Program, diags *Diagnostics) error

	// Link resolves a loaded program into an executable graph.
	Link(opts LinkOptions, diags *Diagnostics) error

	IsLinked() bool

	// Prepare readies the performer for a block of numFrames frames.
	Prepare(numFrames int)

	// Advance runs the graph for the prepared block, pulling connected
	// inputs and pushing connected outputs.
	Advance()

	InputEndpoints() []endpoint.Details
	OutputEndpoints() []endpoint.Details

	InputSource(id endpoint.ID) (InputSource, bool)
	OutputSink(id endpoint.ID) (OutputSink, bool)

	// XRuns reports the number of missed deadlines the performer observed.
	XRuns() int

	Unload()
}

// Factory creates one fresh Performer per session.
type Factory func() Performer
