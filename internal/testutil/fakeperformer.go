package testutil

import (
	"errors"

	"github.com/glasshall/venue/endpoint"
	"github.com/glasshall/venue/performer"
)

// FakeProgram is a named stand-in for a compiled program.
type FakeProgram struct {
	ProgramName string
}

func (p FakeProgram) Name() string { return p.ProgramName }

// FakeInputSource records whatever the venue attaches to it.
type FakeInputSource struct {
	Stream  performer.StreamSource
	Events  performer.EventSource
	Removed int
}

func (s *FakeInputSource) SetStreamSource(src performer.StreamSource) { s.Stream = src }
func (s *FakeInputSource) SetEventSource(src performer.EventSource)   { s.Events = src }
func (s *FakeInputSource) RemoveSource() {
	s.Stream = nil
	s.Events = nil
	s.Removed++
}

// FakeOutputSink records the attached stream sink.
type FakeOutputSink struct {
	Sink    performer.StreamSink
	Removed int
}

func (s *FakeOutputSink) SetStreamSink(sink performer.StreamSink) { s.Sink = sink }
func (s *FakeOutputSink) RemoveSink() {
	s.Sink = nil
	s.Removed++
}

// FakePerformer is a scriptable performer.Performer. Configure endpoints and
// failure injection, then inspect call counts. OnAdvance, when set, runs in
// place of the default no-op processing.
type FakePerformer struct {
	Inputs  []endpoint.Details
	Outputs []endpoint.Details

	LoadErr   error
	LinkErr   error
	LoadDiags performer.Diagnostics
	LinkDiags performer.Diagnostics

	Loaded  bool
	Linked  bool
	Unloads int

	PrepareCalls int
	AdvanceCalls int
	LastFrames   int

	Sources map[endpoint.ID]*FakeInputSource
	Sinks   map[endpoint.ID]*FakeOutputSink

	OnAdvance func(p *FakePerformer)

	XRunCount int
}

// NewFakePerformer creates a performer with one stereo float32 stream input
// "audioIn", one stereo float32 stream output "audioOut" and one event input
// "midiIn".
func NewFakePerformer() *FakePerformer {
	p := &FakePerformer{
		Sources: map[endpoint.ID]*FakeInputSource{},
		Sinks:   map[endpoint.ID]*FakeOutputSink{},
	}
	p.AddStreamInput("audioIn", endpoint.Float32, 2)
	p.AddStreamOutput("audioOut", endpoint.Float32, 2)
	p.AddEventInput("midiIn")
	return p
}

func (p *FakePerformer) AddStreamInput(id string, t endpoint.SampleType, channels int) {
	p.Inputs = append(p.Inputs, endpoint.Details{
		ID: endpoint.ID(id), Name: id, Kind: endpoint.KindStream,
		SampleTypes: []endpoint.SampleType{t}, NumChannels: channels,
	})
	p.Sources[endpoint.ID(id)] = &FakeInputSource{}
}

func (p *FakePerformer) AddStreamOutput(id string, t endpoint.SampleType, channels int) {
	p.Outputs = append(p.Outputs, endpoint.Details{
		ID: endpoint.ID(id), Name: id, Kind: endpoint.KindStream,
		SampleTypes: []endpoint.SampleType{t}, NumChannels: channels,
	})
	p.Sinks[endpoint.ID(id)] = &FakeOutputSink{}
}

func (p *FakePerformer) AddEventInput(id string) {
	p.Inputs = append(p.Inputs, endpoint.Details{
		ID: endpoint.ID(id), Name: id, Kind: endpoint.KindEvent,
		SampleTypes: []endpoint.SampleType{endpoint.Int32}, NumChannels: 1,
	})
	p.Sources[endpoint.ID(id)] = &FakeInputSource{}
}

func (p *FakePerformer) AddEventOutput(id string) {
	p.Outputs = append(p.Outputs, endpoint.Details{
		ID: endpoint.ID(id), Name: id, Kind: endpoint.KindEvent,
		SampleTypes: []endpoint.SampleType{endpoint.Int32}, NumChannels: 1,
	})
	p.Sinks[endpoint.ID(id)] = &FakeOutputSink{}
}

func (p *FakePerformer) Load(prog performer.Program, diags *performer.Diagnostics) error {
	*diags = append(*diags, p.LoadDiags...)
	if p.LoadErr != nil {
		return p.LoadErr
	}
	if prog == nil {
		return errors.New("nil program")
	}
	p.Loaded = true
	return nil
}

func (p *FakePerformer) Link(opts performer.LinkOptions, diags *performer.Diagnostics) error {
	*diags = append(*diags, p.LinkDiags...)
	if p.LinkErr != nil {
		return p.LinkErr
	}
	p.Linked = true
	return nil
}

func (p *FakePerformer) IsLinked() bool { return p.Linked }

func (p *FakePerformer) Prepare(numFrames int) {
	p.PrepareCalls++
	p.LastFrames = numFrames
}

func (p *FakePerformer) Advance() {
	p.AdvanceCalls++
	if p.OnAdvance != nil {
		p.OnAdvance(p)
	}
}

func (p *FakePerformer) InputEndpoints() []endpoint.Details  { return p.Inputs }
func (p *FakePerformer) OutputEndpoints() []endpoint.Details { return p.Outputs }

func (p *FakePerformer) InputSource(id endpoint.ID) (performer.InputSource, bool) {
	s, ok := p.Sources[id]
	return s, ok
}

func (p *FakePerformer) OutputSink(id endpoint.ID) (performer.OutputSink, bool) {
	s, ok := p.Sinks[id]
	return s, ok
}

func (p *FakePerformer) XRuns() int { return p.XRunCount }

func (p *FakePerformer) Unload() {
	p.Loaded = false
	p.Linked = false
	p.Unloads++
}

// Factory returns a performer.Factory handing out this same fake, so tests
// keep a handle on the instance a session uses.
func (p *FakePerformer) Factory() performer.Factory {
	return func() performer.Performer { return p }
}
