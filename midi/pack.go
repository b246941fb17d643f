// Package midi bridges short MIDI messages between hardware ports and a
// performer's event endpoints: packing into the 32-bit wire form, a
// timestamp-correcting collector on the producer side, and a bounded
// lock-free queue on the real-time side.
package midi

// Event is one packed short MIDI message paired with its sample-accurate
// offset inside the current hardware block.
type Event struct {
	FrameOffset uint32
	Packed      int32
}

// Pack encodes a 1-3 byte MIDI message as b0<<16 | b1<<8 | b2, with missing
// bytes treated as zero. Empty and 4+ byte messages are not representable;
// they return ok == false and must be dropped at ingestion.
func Pack(data []byte) (packed int32, ok bool) {
	if len(data) == 0 || len(data) > 3 {
		return 0, false
	}
	m := uint32(data[0]) << 16
	if len(data) > 1 {
		m |= uint32(data[1]) << 8
		if len(data) > 2 {
			m |= uint32(data[2])
		}
	}
	return int32(m), true
}

// Unpack returns the three raw bytes of a packed message. Trailing zero
// bytes may or may not have been present in the original message; short
// messages are indistinguishable from zero-padded ones by design.
func Unpack(packed int32) [3]byte {
	m := uint32(packed)
	return [3]byte{byte(m >> 16), byte(m >> 8), byte(m)}
}
