package venue

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Hardware configuration limits. Requests outside these ranges are
// normalized to "let the device choose" rather than rejected.
const (
	minSampleRate = 1000.0
	maxSampleRate = 48000.0 * 8
	maxBlockSize  = 2048
)

// Requirements describes the hardware configuration a venue should request
// when it opens its device. Immutable after the venue is constructed.
type Requirements struct {
	// SampleRate is the requested rate in Hz; zero or out-of-range values
	// mean the device default.
	SampleRate float64 `yaml:"sampleRate"`

	// BlockSize is the requested frames per hardware block; zero or
	// out-of-range values mean the device default.
	BlockSize int `yaml:"blockSize"`

	NumInputChannels  int `yaml:"numInputChannels"`
	NumOutputChannels int `yaml:"numOutputChannels"`

	// Logger receives the venue's log output; nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultRequirements is a stereo in/out configuration suitable for most
// hosts.
var DefaultRequirements = Requirements{
	SampleRate:        48000,
	BlockSize:         512,
	NumInputChannels:  2,
	NumOutputChannels: 2,
}

// normalized clamps out-of-range requests to the device-default sentinel.
func (r Requirements) normalized() Requirements {
	if r.SampleRate <= minSampleRate || r.SampleRate > maxSampleRate {
		r.SampleRate = 0
	}
	if r.BlockSize < 1 || r.BlockSize > maxBlockSize {
		r.BlockSize = 0
	}
	if r.NumInputChannels < 0 {
		r.NumInputChannels = 0
	}
	if r.NumOutputChannels < 0 {
		r.NumOutputChannels = 0
	}
	return r
}

func (r Requirements) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// LoadRequirements reads a YAML requirements file.
func LoadRequirements(path string) (Requirements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Requirements{}, fmt.Errorf("read requirements file: %w", err)
	}
	var r Requirements
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Requirements{}, fmt.Errorf("parse requirements file: %w", err)
	}
	return r, nil
}
