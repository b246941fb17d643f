package venue

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/glasshall/venue/endpoint"
	"github.com/glasshall/venue/midi"
	"github.com/glasshall/venue/performer"
)

// State is a session's position in its lifecycle.
type State int32

const (
	StateEmpty State = iota
	StateLoaded
	StateLinked
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateLinked:
		return "linked"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// StateChangeCallback is invoked synchronously, on the calling thread, once
// per actual state transition. No-op calls never fire it.
type StateChangeCallback func(State)

// Status is a point-in-time snapshot of a session. The numeric counters are
// eventually-consistent with respect to concurrent processing; they are not
// transactionally coherent with State.
type Status struct {
	State      State
	CPULoad    float64
	XRuns      int
	SampleRate float64
	BlockSize  int
}

// Session binds one performer's lifecycle and I/O connections to a venue.
// The control API (Load, Link, Start, Stop, Unload, connections) belongs to
// one control goroutine; Status and IsRunning may be called from anywhere.
type Session struct {
	id    uuid.UUID
	venue *Venue
	perf  performer.Performer

	state   atomic.Int32
	stateCb StateChangeCallback

	// Adapters exist exactly while the corresponding endpoint is connected.
	input  *inputStream
	output *outputStream
	events *midiEventQueue

	// Last-observed hardware configuration, refreshed on device (re)start.
	propMu     sync.Mutex
	sampleRate float64
	blockSize  int
}

// ID returns the session's unique identity.
func (s *Session) ID() uuid.UUID { return s.id }

// InputEndpoints lists the loaded program's inputs.
func (s *Session) InputEndpoints() []endpoint.Details { return s.perf.InputEndpoints() }

// OutputEndpoints lists the loaded program's outputs.
func (s *Session) OutputEndpoints() []endpoint.Details { return s.perf.OutputEndpoints() }

// InputSource resolves one of the program's inputs by ID.
func (s *Session) InputSource(id endpoint.ID) (performer.InputSource, bool) {
	return s.perf.InputSource(id)
}

// OutputSink resolves one of the program's outputs by ID.
func (s *Session) OutputSink(id endpoint.ID) (performer.OutputSink, bool) {
	return s.perf.OutputSink(id)
}

// Load replaces whatever the session held with the given program. Valid in
// any state; an implicit Unload always runs first. On failure the session is
// left empty and the collected diagnostics are returned with the error.
func (s *Session) Load(p performer.Program) (performer.Diagnostics, error) {
	s.Unload()

	var diags performer.Diagnostics
	if err := s.perf.Load(p, &diags); err != nil {
		return diags, fmt.Errorf("load program: %w", err)
	}
	s.setState(StateLoaded)
	s.venue.log.Info("program loaded", "session", s.id, "program", p.Name())
	return diags, nil
}

// Link resolves the loaded program into an executable graph. Valid only when
// loaded; on failure the state is unchanged.
func (s *Session) Link(opts performer.LinkOptions) (performer.Diagnostics, error) {
	if s.State() != StateLoaded {
		return nil, ErrNotLoaded
	}
	var diags performer.Diagnostics
	if err := s.perf.Link(opts, &diags); err != nil {
		return diags, fmt.Errorf("link program: %w", err)
	}
	s.setState(StateLinked)
	return diags, nil
}

// Start registers the session with the venue's real-time dispatch list.
// Calling Start while already running is a no-op.
func (s *Session) Start() error {
	if s.State() == StateRunning {
		return nil
	}
	if s.State() != StateLinked {
		return ErrNotLinked
	}
	s.venue.startSession(s)
	s.setState(StateRunning)
	return nil
}

// Stop deregisters the session from real-time dispatch. No-op when not
// running.
func (s *Session) Stop() {
	if s.State() != StateRunning {
		return
	}
	s.venue.stopSession(s)
	s.setState(StateLinked)
}

// Unload stops the session, detaches its endpoint connections, unloads the
// performer and returns to empty. Idempotent from any state.
func (s *Session) Unload() {
	s.Stop()
	s.disconnectAll()
	s.perf.Unload()
	s.setState(StateEmpty)
}

// Close tears the session down. It must not be used afterwards.
func (s *Session) Close() error {
	s.Unload()
	return nil
}

// IsRunning reports whether the session is in the real-time dispatch list.
func (s *Session) IsRunning() bool { return s.State() == StateRunning }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// SetStateChangeCallback registers the transition callback. Pass nil to
// remove it.
func (s *Session) SetStateChangeCallback(cb StateChangeCallback) {
	s.stateCb = cb
}

// Status snapshots the session. Valid in any state; never mutates it.
func (s *Session) Status() Status {
	s.propMu.Lock()
	rate, block := s.sampleRate, s.blockSize
	s.propMu.Unlock()

	st := Status{
		State:      s.State(),
		CPULoad:    s.venue.load.currentLoad(),
		XRuns:      s.perf.XRuns(),
		SampleRate: rate,
		BlockSize:  block,
	}
	if deviceXRuns := s.venue.deviceXRuns(); deviceXRuns > 0 {
		st.XRuns += deviceXRuns
	}
	return st
}

func (s *Session) setState(next State) {
	if State(s.state.Swap(int32(next))) == next {
		return
	}
	if s.stateCb != nil {
		s.stateCb(next)
	}
}

// connectInput wires one of the program's inputs to a venue source endpoint
// already resolved to its channel offset and medium. Mismatches leave the
// session untouched.
func (s *Session) connectInput(channelIndex int, isMIDI bool, inputID endpoint.ID) error {
	src, ok := s.perf.InputSource(inputID)
	if !ok {
		return fmt.Errorf("%w: input %q", ErrUnknownEndpoint, inputID)
	}
	details, ok := endpoint.FindDetails(s.perf.InputEndpoints(), inputID)
	if !ok {
		return fmt.Errorf("%w: input %q", ErrUnknownEndpoint, inputID)
	}

	switch details.Kind {
	case endpoint.KindStream:
		if isMIDI {
			return fmt.Errorf("%w: stream input %q to MIDI source", ErrEndpointMismatch, inputID)
		}
		s.input = newInputStream(details, src, channelIndex, s.currentBlockSize())
		return nil

	case endpoint.KindEvent:
		if !isMIDI {
			return fmt.Errorf("%w: event input %q to audio source", ErrEndpointMismatch, inputID)
		}
		s.events = newMIDIEventQueue(src)
		return nil
	}
	return fmt.Errorf("%w: input %q", ErrEndpointMismatch, inputID)
}

// connectOutput is the symmetric path for the program's outputs. Event-kind
// outputs have no venue-side MIDI sink and are rejected.
func (s *Session) connectOutput(channelIndex int, isMIDI bool, outputID endpoint.ID) error {
	sink, ok := s.perf.OutputSink(outputID)
	if !ok {
		return fmt.Errorf("%w: output %q", ErrUnknownEndpoint, outputID)
	}
	details, ok := endpoint.FindDetails(s.perf.OutputEndpoints(), outputID)
	if !ok {
		return fmt.Errorf("%w: output %q", ErrUnknownEndpoint, outputID)
	}

	if details.Kind != endpoint.KindStream || isMIDI {
		return fmt.Errorf("%w: output %q", ErrEndpointMismatch, outputID)
	}
	s.output = newOutputStream(details, sink, channelIndex)
	return nil
}

func (s *Session) disconnectAll() {
	if s.input != nil {
		s.input.detach()
		s.input = nil
	}
	if s.output != nil {
		s.output.detach()
		s.output = nil
	}
	if s.events != nil {
		s.events.detach()
		s.events = nil
	}
}

// processBlock drives the performer for one hardware block. Runs on the
// audio thread, under the venue's registry lock.
func (s *Session) processBlock(input, output [][]float32, events []midi.Event, numFrames int) {
	if s.events != nil {
		for _, e := range events {
			s.events.enqueue(e)
		}
	}
	if s.input != nil {
		s.input.setInputBuffer(input, numFrames)
	}
	if s.output != nil {
		s.output.setOutputBuffer(output, numFrames)
	}
	s.perf.Prepare(numFrames)
	s.perf.Advance()
}

// prepareToPlay records the active hardware configuration when the device
// (re)starts.
func (s *Session) prepareToPlay(sampleRate float64, blockSize int) {
	s.propMu.Lock()
	s.sampleRate = sampleRate
	s.blockSize = blockSize
	s.propMu.Unlock()
}

// deviceStopped clears the observed configuration.
func (s *Session) deviceStopped() {
	s.prepareToPlay(0, 0)
}

func (s *Session) currentBlockSize() int {
	s.propMu.Lock()
	defer s.propMu.Unlock()
	return s.blockSize
}

// midiEventQueue feeds packed MIDI events into a performer's event input
// through a bounded single-producer/single-consumer ring. The audio callback
// is the producer; the performer drains during Advance, within the same
// block.
type midiEventQueue struct {
	source performer.InputSource
	fifo   *midi.FIFO[midi.Event]
}

// midiQueueCapacity bounds the events deliverable in one block. Overflow
// drops the newest events so earlier ones keep their timing.
const midiQueueCapacity = 1024

func newMIDIEventQueue(src performer.InputSource) *midiEventQueue {
	q := &midiEventQueue{
		source: src,
		fifo:   midi.NewFIFO[midi.Event](midiQueueCapacity),
	}
	src.SetEventSource(q.drain)
	return q
}

func (q *midiEventQueue) enqueue(e midi.Event) { q.fifo.Push(e) }

func (q *midiEventQueue) drain(emit func(frameOffset int, event int32)) {
	for {
		e, ok := q.fifo.Pop()
		if !ok {
			return
		}
		emit(int(e.FrameOffset), e.Packed)
	}
}

func (q *midiEventQueue) detach() { q.source.RemoveSource() }
