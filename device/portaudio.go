package device

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice drives the host's default audio device through portaudio.
// One instance owns the portaudio runtime from NewPortAudio to Close.
type PortAudioDevice struct {
	stream *portaudio.Stream
	name   string

	sampleRate float64
	inCh       int
	outCh      int

	// Updated by the first real callback when the requested block size was
	// "device default". Read from control threads.
	blockSize atomic.Int64

	// Set before Start; read only on the portaudio thread afterwards.
	cb BlockCallback

	started bool
}

// NewPortAudio initializes the portaudio runtime. A failure here means no
// usable audio backend exists on this host.
func NewPortAudio() (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
	}
	return &PortAudioDevice{}, nil
}

func (d *PortAudioDevice) Open(cfg Config) error {
	rate := cfg.SampleRate
	name := "default"

	if cfg.OutputChannels > 0 {
		info, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoBackend, err)
		}
		name = info.Name
		if rate == 0 {
			rate = info.DefaultSampleRate
		}
		if cfg.OutputChannels > info.MaxOutputChannels {
			cfg.OutputChannels = info.MaxOutputChannels
		}
	}
	if cfg.InputChannels > 0 {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return classifyInputError(err)
		}
		if rate == 0 {
			rate = info.DefaultSampleRate
		}
		if cfg.InputChannels > info.MaxInputChannels {
			cfg.InputChannels = info.MaxInputChannels
		}
	}

	frames := cfg.BlockSize
	if frames <= 0 {
		frames = portaudio.FramesPerBufferUnspecified
	}

	stream, err := portaudio.OpenDefaultStream(cfg.InputChannels, cfg.OutputChannels,
		rate, frames, d.dispatch)
	if err != nil {
		if cfg.InputChannels > 0 {
			return classifyInputError(err)
		}
		return fmt.Errorf("%w: %v", ErrNoBackend, err)
	}

	d.stream = stream
	d.name = name
	d.inCh = cfg.InputChannels
	d.outCh = cfg.OutputChannels
	d.sampleRate = rate
	d.blockSize.Store(int64(cfg.BlockSize))
	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		d.sampleRate = info.SampleRate
	}
	return nil
}

func (d *PortAudioDevice) dispatch(input, output [][]float32) {
	if len(output) > 0 {
		d.blockSize.Store(int64(len(output[0])))
	} else if len(input) > 0 {
		d.blockSize.Store(int64(len(input[0])))
	}
	if d.cb != nil {
		d.cb(input, output)
	}
}

func (d *PortAudioDevice) Start(cb BlockCallback) error {
	if d.stream == nil {
		return ErrNoBackend
	}
	if d.started {
		return nil
	}
	d.cb = cb
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("start audio stream: %w", err)
	}
	d.started = true
	return nil
}

func (d *PortAudioDevice) Stop() error {
	if d.stream == nil || !d.started {
		return nil
	}
	d.started = false
	return d.stream.Stop()
}

func (d *PortAudioDevice) Close() error {
	if d.stream != nil {
		_ = d.stream.Close()
		d.stream = nil
	}
	return portaudio.Terminate()
}

func (d *PortAudioDevice) Name() string        { return d.name }
func (d *PortAudioDevice) SampleRate() float64 { return d.sampleRate }
func (d *PortAudioDevice) InputChannels() int  { return d.inCh }
func (d *PortAudioDevice) OutputChannels() int { return d.outCh }

func (d *PortAudioDevice) BlockSize() int {
	return int(d.blockSize.Load())
}

// XRunCount is unknown under portaudio's default-stream API.
func (d *PortAudioDevice) XRunCount() int { return -1 }

// classifyInputError maps OS capture refusals onto ErrPermissionDenied so
// callers can tell "ask the user" apart from "no hardware".
func classifyInputError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "denied") ||
		strings.Contains(msg, "not authorized") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrNoBackend, err)
}
