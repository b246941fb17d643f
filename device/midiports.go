package device

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// GoMIDIScanner enumerates MIDI input ports through the rtmidi driver. Scan
// re-reads the port list on every call, which is what a hot-plug poller
// needs.
type GoMIDIScanner struct {
	drv *rtmididrv.Driver
}

// NewGoMIDIScanner opens the rtmidi driver.
func NewGoMIDIScanner() (*GoMIDIScanner, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open MIDI driver: %w", err)
	}
	return &GoMIDIScanner{drv: drv}, nil
}

func (s *GoMIDIScanner) Scan() ([]MIDIPort, error) {
	ins, err := s.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	ports := make([]MIDIPort, 0, len(ins))
	for _, in := range ins {
		ports = append(ports, &goMIDIPort{in: in})
	}
	return ports, nil
}

// Close shuts the driver down. Any listening ports stop delivering.
func (s *GoMIDIScanner) Close() error {
	return s.drv.Close()
}

type goMIDIPort struct {
	in drivers.In
}

func (p *goMIDIPort) Name() string { return p.in.String() }

func (p *goMIDIPort) Listen(onMessage func(data []byte)) (func(), error) {
	if err := p.in.Open(); err != nil {
		return nil, fmt.Errorf("open MIDI port %q: %w", p.in.String(), err)
	}
	stop, err := gomidi.ListenTo(p.in, func(msg gomidi.Message, timestampms int32) {
		onMessage(msg.Bytes())
	})
	if err != nil {
		_ = p.in.Close()
		return nil, fmt.Errorf("listen on MIDI port %q: %w", p.in.String(), err)
	}
	return func() {
		stop()
		_ = p.in.Close()
	}, nil
}
