// Package endpoint describes the named, typed ports through which audio and
// event data enters and leaves a performer or a venue.
package endpoint

// ID is an opaque identifier for a single endpoint.
type ID string

// Kind distinguishes continuous sample streams from discrete timestamped
// event messages.
type Kind int

const (
	KindStream Kind = iota
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// SampleType enumerates the element representations a stream endpoint may
// declare for its frames.
type SampleType int

const (
	Float32 SampleType = iota
	Float64
	Int32
)

func (t SampleType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// Stride returns the size of one element in bytes.
func (t SampleType) Stride() int {
	if t == Float64 {
		return 8
	}
	return 4
}

// Details describes one endpoint: identity, kind, the admissible element
// types, and the channel width of each frame.
type Details struct {
	ID          ID
	Name        string
	Kind        Kind
	SampleTypes []SampleType
	NumChannels int
	StrideBytes int
}

// SampleType returns the endpoint's primary element representation.
func (d Details) SampleType() SampleType {
	if len(d.SampleTypes) == 0 {
		return Float32
	}
	return d.SampleTypes[0]
}

// FindDetails locates an endpoint by ID in a list.
func FindDetails(list []Details, id ID) (Details, bool) {
	for _, d := range list {
		if d.ID == id {
			return d, true
		}
	}
	return Details{}, false
}

// Samples is a tagged variant over the element representations a stream can
// carry. Exactly one slice is non-nil, holding interleaved frames. The tag is
// resolved once when a connection is made, never per sample.
type Samples struct {
	Type    SampleType
	Float32 []float32
	Float64 []float64
	Int32   []int32
}

// Len returns the number of elements (frames x channels).
func (s Samples) Len() int {
	switch s.Type {
	case Float64:
		return len(s.Float64)
	case Int32:
		return len(s.Int32)
	default:
		return len(s.Float32)
	}
}

// NumFrames returns the frame count for the given channel width.
func (s Samples) NumFrames(numChannels int) int {
	if numChannels <= 0 {
		return 0
	}
	return s.Len() / numChannels
}
