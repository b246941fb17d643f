package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPack(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want int32
		ok   bool
	}{
		{"note on", []byte{0x90, 0x3C, 0x64}, 0x903C64, true},
		{"note off", []byte{0x80, 0x3C, 0x00}, 0x803C00, true},
		{"two bytes", []byte{0xC0, 0x05}, 0xC00500, true},
		{"one byte", []byte{0xF8}, 0xF80000, true},
		{"empty", nil, 0, false},
		{"four bytes", []byte{0xF0, 0x01, 0x02, 0xF7}, 0, false},
		{"long sysex", make([]byte, 32), 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := Pack(c.data)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestUnpack(t *testing.T) {
	packed, ok := Pack([]byte{0x90, 0x3C, 0x64})
	if !ok {
		t.Fatal("pack failed")
	}
	assert.Equal(t, [3]byte{0x90, 0x3C, 0x64}, Unpack(packed))

	// Missing bytes come back as zeros.
	packed, _ = Pack([]byte{0xC0, 0x05})
	assert.Equal(t, [3]byte{0xC0, 0x05, 0x00}, Unpack(packed))
}
