package venue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementsNormalization(t *testing.T) {
	cases := []struct {
		name     string
		in       Requirements
		wantRate float64
		wantSize int
	}{
		{"in range", Requirements{SampleRate: 44100, BlockSize: 256}, 44100, 256},
		{"rate too low", Requirements{SampleRate: 999, BlockSize: 256}, 0, 256},
		{"rate at lower bound", Requirements{SampleRate: 1000, BlockSize: 256}, 0, 256},
		{"rate at upper bound", Requirements{SampleRate: 384000, BlockSize: 256}, 384000, 256},
		{"rate too high", Requirements{SampleRate: 384001, BlockSize: 256}, 0, 256},
		{"block too small", Requirements{SampleRate: 48000, BlockSize: 0}, 48000, 0},
		{"block at upper bound", Requirements{SampleRate: 48000, BlockSize: 2048}, 48000, 2048},
		{"block too large", Requirements{SampleRate: 48000, BlockSize: 2049}, 48000, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.in.normalized()
			assert.Equal(t, c.wantRate, got.SampleRate)
			assert.Equal(t, c.wantSize, got.BlockSize)
		})
	}
}

func TestRequirementsNegativeChannelsNormalized(t *testing.T) {
	got := Requirements{NumInputChannels: -2, NumOutputChannels: -1}.normalized()
	assert.Equal(t, 0, got.NumInputChannels)
	assert.Equal(t, 0, got.NumOutputChannels)
}

func TestLoadRequirements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.yaml")
	data := []byte("sampleRate: 44100\nblockSize: 128\nnumInputChannels: 1\nnumOutputChannels: 2\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := LoadRequirements(path)
	require.NoError(t, err)
	assert.Equal(t, 44100.0, r.SampleRate)
	assert.Equal(t, 128, r.BlockSize)
	assert.Equal(t, 1, r.NumInputChannels)
	assert.Equal(t, 2, r.NumOutputChannels)
}

func TestLoadRequirementsErrors(t *testing.T) {
	_, err := LoadRequirements(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampleRate: [nope"), 0o644))
	_, err = LoadRequirements(path)
	assert.Error(t, err)
}
