// Package testutil provides fakes and helpers for exercising the venue
// without hardware: a caller-driven audio device, a scriptable performer and
// a manual clock.
package testutil

import (
	"os"
	"testing"
	"time"
)

// SkipUnlessEnv skips the test unless the given env var equals the wanted value.
func SkipUnlessEnv(t *testing.T, key, want string) {
	t.Helper()
	if os.Getenv(key) != want {
		t.Skipf("skipped: set %s=%s to run", key, want)
	}
}

// IsCI reports whether running under common CI environments.
func IsCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}

// ManualClock is a deterministic time source.
type ManualClock struct {
	t time.Time
}

// NewManualClock starts at an arbitrary fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *ManualClock) Now() time.Time { return c.t }

// Advance moves the clock forward and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

// MakeChannels builds discrete channel buffers filled by fn(channel, frame);
// nil fn leaves them zeroed.
func MakeChannels(numChannels, numFrames int, fn func(ch, frame int) float32) [][]float32 {
	out := make([][]float32, numChannels)
	for ch := range out {
		out[ch] = make([]float32, numFrames)
		if fn != nil {
			for f := range out[ch] {
				out[ch][f] = fn(ch, f)
			}
		}
	}
	return out
}
