package venue

import (
	"math"
	"sync/atomic"
	"time"
)

// loadFilterCoefficient smooths per-block load readings into a stable figure.
const loadFilterCoefficient = 0.2

// loadMeasurer tracks what fraction of each block period the audio callback
// consumes. startMeasurement/stopMeasurement run on the audio thread only;
// currentLoad may be read from any thread as an eventually-consistent
// snapshot.
type loadMeasurer struct {
	sampleRate float64
	blockStart time.Time

	// math.Float64bits of the smoothed load fraction.
	filtered atomic.Uint64

	now func() time.Time
}

func newLoadMeasurer() *loadMeasurer {
	return &loadMeasurer{now: time.Now}
}

// reset clears the measurement state for a (re)started device.
func (m *loadMeasurer) reset(sampleRate float64) {
	m.sampleRate = sampleRate
	m.filtered.Store(0)
}

func (m *loadMeasurer) startMeasurement() {
	m.blockStart = m.now()
}

func (m *loadMeasurer) stopMeasurement(numFrames int) {
	if m.sampleRate <= 0 || numFrames <= 0 {
		return
	}
	period := float64(numFrames) / m.sampleRate
	load := m.now().Sub(m.blockStart).Seconds() / period
	prev := math.Float64frombits(m.filtered.Load())
	m.filtered.Store(math.Float64bits(prev + loadFilterCoefficient*(load-prev)))
}

// currentLoad returns the smoothed fraction of the block period consumed.
func (m *loadMeasurer) currentLoad() float64 {
	return math.Float64frombits(m.filtered.Load())
}
