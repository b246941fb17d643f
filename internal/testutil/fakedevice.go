package testutil

import (
	"github.com/glasshall/venue/device"
)

// FakeDevice implements device.Device with caller-driven blocks: tests call
// RunBlock to invoke the registered callback synchronously.
type FakeDevice struct {
	Rate    float64
	Block   int
	In, Out int
	XRuns   int

	cb      device.BlockCallback
	Opened  bool
	Started bool
	Closed  bool
	Blocks  int
}

// NewFakeDevice reports no xrun support by default (XRuns = -1).
func NewFakeDevice(rate float64, block, in, out int) *FakeDevice {
	return &FakeDevice{Rate: rate, Block: block, In: in, Out: out, XRuns: -1}
}

func (d *FakeDevice) Open(cfg device.Config) error {
	if cfg.SampleRate > 0 {
		d.Rate = cfg.SampleRate
	}
	if cfg.BlockSize > 0 {
		d.Block = cfg.BlockSize
	}
	if cfg.InputChannels < d.In {
		d.In = cfg.InputChannels
	}
	if cfg.OutputChannels < d.Out {
		d.Out = cfg.OutputChannels
	}
	d.Opened = true
	return nil
}

func (d *FakeDevice) Start(cb device.BlockCallback) error {
	d.cb = cb
	d.Started = true
	return nil
}

func (d *FakeDevice) Stop() error {
	d.Started = false
	return nil
}

func (d *FakeDevice) Close() error {
	d.Closed = true
	return nil
}

func (d *FakeDevice) Name() string        { return "fake" }
func (d *FakeDevice) SampleRate() float64 { return d.Rate }
func (d *FakeDevice) BlockSize() int      { return d.Block }
func (d *FakeDevice) InputChannels() int  { return d.In }
func (d *FakeDevice) OutputChannels() int { return d.Out }
func (d *FakeDevice) XRunCount() int      { return d.XRuns }

// RunBlock invokes the callback once with the given input (nil means silent
// input channels) and freshly zeroed outputs, returning the output channels.
func (d *FakeDevice) RunBlock(input [][]float32) [][]float32 {
	if input == nil {
		input = MakeChannels(d.In, d.Block, nil)
	}
	output := MakeChannels(d.Out, d.Block, nil)
	d.Blocks++
	if d.cb != nil {
		d.cb(input, output)
	}
	return output
}

// RunBlocks runs n silent blocks.
func (d *FakeDevice) RunBlocks(n int) {
	for i := 0; i < n; i++ {
		d.RunBlock(nil)
	}
}

// FakeMIDIPort is a scriptable MIDI input port.
type FakeMIDIPort struct {
	PortName  string
	ListenErr error

	onMessage func([]byte)
	Listening bool
	Stops     int
}

func (p *FakeMIDIPort) Name() string { return p.PortName }

func (p *FakeMIDIPort) Listen(onMessage func(data []byte)) (func(), error) {
	if p.ListenErr != nil {
		return nil, p.ListenErr
	}
	p.onMessage = onMessage
	p.Listening = true
	return func() {
		p.Listening = false
		p.Stops++
	}, nil
}

// Deliver pushes a raw message to the listener, if any.
func (p *FakeMIDIPort) Deliver(data []byte) {
	if p.Listening && p.onMessage != nil {
		p.onMessage(data)
	}
}

// FakeMIDIScanner returns a mutable set of ports.
type FakeMIDIScanner struct {
	Ports   []*FakeMIDIPort
	ScanErr error
	Scans   int
}

func (s *FakeMIDIScanner) Scan() ([]device.MIDIPort, error) {
	s.Scans++
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	out := make([]device.MIDIPort, len(s.Ports))
	for i, p := range s.Ports {
		out[i] = p
	}
	return out, nil
}
