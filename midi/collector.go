package midi

import (
	"sync"
	"time"
)

// Collector gathers short MIDI messages arriving asynchronously from port
// listener threads and republishes them once per hardware block with
// sample-accurate frame offsets. The producer side takes a short mutex; the
// audio callback drains with the same mutex, held for the copy only.
type Collector struct {
	mu         sync.Mutex
	sampleRate float64
	windowOpen time.Time
	pending    []stamped

	now func() time.Time
}

type stamped struct {
	packed int32
	at     time.Time
}

// NewCollector returns a collector stamping against the wall clock.
func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// NewCollectorWithClock injects the time source. For tests.
func NewCollectorWithClock(now func() time.Time) *Collector {
	return &Collector{now: now}
}

// Reset clears pending messages and sets the sample rate used to convert
// arrival times into frame offsets. Call whenever the device (re)starts.
func (c *Collector) Reset(sampleRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleRate = sampleRate
	c.pending = c.pending[:0]
	c.windowOpen = c.now()
}

// Add packs and queues a raw message stamped with its arrival time. Messages
// that cannot be packed (empty or 4+ bytes) are discarded and reported false.
func (c *Collector) Add(raw []byte) bool {
	packed, ok := Pack(raw)
	if !ok {
		return false
	}
	at := c.now()
	c.mu.Lock()
	c.pending = append(c.pending, stamped{packed: packed, at: at})
	c.mu.Unlock()
	return true
}

// AddPacked queues an already-packed message. Used on platforms where MIDI
// delivery is already serialized with audio; such messages land at offset 0.
func (c *Collector) AddPacked(packed int32) {
	c.mu.Lock()
	c.pending = append(c.pending, stamped{packed: packed, at: c.windowOpen})
	c.mu.Unlock()
}

// RemoveNextBlock appends every pending message to dst with an offset in
// [0, numFrames), computed from its arrival time relative to the current
// window, then opens the next window. Offsets are monotonically
// nondecreasing in queue order.
func (c *Collector) RemoveNextBlock(dst []Event, numFrames int) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if numFrames <= 0 {
		c.pending = c.pending[:0]
		return dst
	}

	lastOffset := uint32(0)
	for _, m := range c.pending {
		offset := 0
		if c.sampleRate > 0 {
			offset = int(m.at.Sub(c.windowOpen).Seconds() * c.sampleRate)
		}
		if offset < 0 {
			offset = 0
		}
		if offset >= numFrames {
			offset = numFrames - 1
		}
		o := uint32(offset)
		if o < lastOffset {
			o = lastOffset
		}
		lastOffset = o
		dst = append(dst, Event{FrameOffset: o, Packed: m.packed})
	}

	c.pending = c.pending[:0]
	c.windowOpen = c.now()
	return dst
}
