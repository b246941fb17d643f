package main

import (
	"math"

	"github.com/glasshall/venue/endpoint"
	"github.com/glasshall/venue/performer"
)

// sinePerformer is a built-in stand-in for a compiled program: a stereo sine
// voice with a MIDI event input. Note-on picks the pitch and level, note-off
// releases it. It exists so the host can be exercised end to end without a
// compiler toolchain.
type sinePerformer struct {
	sampleRate float64
	linked     bool
	numFrames  int

	midiIn   attachableInput
	audioOut attachableOutput

	phase     float64
	increment float64
	level     float32
	target    float32

	scratch []float32
}

type attachableInput struct {
	stream performer.StreamSource
	events performer.EventSource
}

func (a *attachableInput) SetStreamSource(src performer.StreamSource) { a.stream = src }
func (a *attachableInput) SetEventSource(src performer.EventSource)   { a.events = src }
func (a *attachableInput) RemoveSource()                              { a.stream, a.events = nil, nil }

type attachableOutput struct {
	sink performer.StreamSink
}

func (a *attachableOutput) SetStreamSink(sink performer.StreamSink) { a.sink = sink }
func (a *attachableOutput) RemoveSink()                             { a.sink = nil }

func newSinePerformer(sampleRate float64) *sinePerformer {
	return &sinePerformer{sampleRate: sampleRate}
}

func (p *sinePerformer) Load(prog performer.Program, diags *performer.Diagnostics) error {
	diags.Add(performer.SeverityNote, "built-in sine voice, program body ignored")
	return nil
}

func (p *sinePerformer) Link(opts performer.LinkOptions, diags *performer.Diagnostics) error {
	p.linked = true
	return nil
}

func (p *sinePerformer) IsLinked() bool { return p.linked }

func (p *sinePerformer) Prepare(numFrames int) {
	p.numFrames = numFrames
	if need := numFrames * 2; need > len(p.scratch) {
		p.scratch = make([]float32, need)
	}
}

func (p *sinePerformer) Advance() {
	if p.midiIn.events != nil {
		p.midiIn.events(p.handleEvent)
	}
	if p.audioOut.sink == nil || p.numFrames == 0 {
		return
	}

	frames := p.scratch[:p.numFrames*2]
	for f := 0; f < p.numFrames; f++ {
		// Linear level ramp avoids clicks on note transitions.
		p.level += (p.target - p.level) * 0.002
		v := float32(math.Sin(p.phase)) * p.level
		p.phase += p.increment
		frames[f*2] = v
		frames[f*2+1] = v
	}
	if p.phase > 2*math.Pi {
		p.phase = math.Mod(p.phase, 2*math.Pi)
	}

	// The sink may accept fewer frames than offered at the block boundary.
	offered := frames
	for len(offered) > 0 {
		n := p.audioOut.sink(endpoint.Samples{Type: endpoint.Float32, Float32: offered})
		if n <= 0 {
			break
		}
		offered = offered[n*2:]
	}
}

func (p *sinePerformer) handleEvent(frameOffset int, event int32) {
	status := byte(event>>16) & 0xF0
	note := byte(event >> 8)
	velocity := byte(event)

	switch {
	case status == 0x90 && velocity > 0:
		freq := 440 * math.Pow(2, (float64(note)-69)/12)
		p.increment = 2 * math.Pi * freq / p.sampleRate
		p.target = float32(velocity) / 127 * 0.5
	case status == 0x80, status == 0x90 && velocity == 0:
		p.target = 0
	}
}

func (p *sinePerformer) InputEndpoints() []endpoint.Details {
	return []endpoint.Details{{
		ID: "midiIn", Name: "midiIn", Kind: endpoint.KindEvent,
		SampleTypes: []endpoint.SampleType{endpoint.Int32}, NumChannels: 1,
	}}
}

func (p *sinePerformer) OutputEndpoints() []endpoint.Details {
	return []endpoint.Details{{
		ID: "audioOut", Name: "audioOut", Kind: endpoint.KindStream,
		SampleTypes: []endpoint.SampleType{endpoint.Float32}, NumChannels: 2,
	}}
}

func (p *sinePerformer) InputSource(id endpoint.ID) (performer.InputSource, bool) {
	if id == "midiIn" {
		return &p.midiIn, true
	}
	return nil, false
}

func (p *sinePerformer) OutputSink(id endpoint.ID) (performer.OutputSink, bool) {
	if id == "audioOut" {
		return &p.audioOut, true
	}
	return nil, false
}

func (p *sinePerformer) XRuns() int { return 0 }

func (p *sinePerformer) Unload() {
	p.linked = false
	p.target = 0
	p.level = 0
}
