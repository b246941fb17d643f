package venue

import (
	"github.com/glasshall/venue/endpoint"
	"github.com/glasshall/venue/performer"
)

// sampleValue are the element representations a stream connection can be
// specialized to. The specialization happens once at connect time; the copy
// loops below are monomorphic and branch-free on type.
type sampleValue interface {
	~float32 | ~float64 | ~int32
}

// inputStream bridges a sub-range of the hardware input block to one
// performer stream input, converting the device's discrete float32 channels
// into the endpoint's interleaved representation. The venue sets a fresh
// block once per callback; the performer pulls frames from it through the
// attached stream source.
type inputStream struct {
	source       performer.InputSource
	startChannel int
	numChannels  int

	block     [][]float32
	numFrames int
	cursor    int
	available bool
}

func newInputStream(details endpoint.Details, src performer.InputSource, startChannel, blockSize int) *inputStream {
	s := &inputStream{
		source:       src,
		startChannel: startChannel,
		numChannels:  max(details.NumChannels, 1),
	}
	switch details.SampleType() {
	case endpoint.Float64:
		src.SetStreamSource(inputReader[float64](s, blockSize))
	case endpoint.Int32:
		src.SetStreamSource(inputReader[int32](s, blockSize))
	default:
		src.SetStreamSource(inputReader[float32](s, blockSize))
	}
	return s
}

// inputReader builds the typed pull path with a preallocated scratch buffer,
// so the steady state never allocates.
func inputReader[T sampleValue](s *inputStream, blockSize int) performer.StreamSource {
	scratch := make([]T, max(blockSize, 1)*s.numChannels)
	return func(numFrames int) (endpoint.Samples, bool) {
		if !s.available || numFrames <= 0 {
			return endpoint.Samples{}, false
		}
		need := numFrames * s.numChannels
		if need > len(scratch) {
			scratch = make([]T, need)
		}
		dst := scratch[:need]
		interleave(dst, s.block, s.cursor, numFrames, s.numChannels)
		s.cursor += numFrames
		s.available = s.cursor < s.numFrames
		return samplesOf(dst), true
	}
}

// setInputBuffer points the adapter at the current hardware block and rewinds
// its cursor. Called once per callback, before the performer advances.
func (s *inputStream) setInputBuffer(block [][]float32, numFrames int) {
	s.block = channelRange(block, s.startChannel, s.numChannels)
	s.numFrames = numFrames
	s.cursor = 0
	s.available = numFrames > 0
}

func (s *inputStream) channelOffset() int { return s.startChannel }

func (s *inputStream) detach() { s.source.RemoveSource() }

// outputStream bridges one performer stream output to a sub-range of the
// hardware output block, converting the endpoint's interleaved frames back
// to discrete float32 channels.
type outputStream struct {
	sink         performer.OutputSink
	startChannel int
	numChannels  int

	block     [][]float32
	numFrames int
	cursor    int
	available bool
}

func newOutputStream(details endpoint.Details, sink performer.OutputSink, startChannel int) *outputStream {
	o := &outputStream{
		sink:         sink,
		startChannel: startChannel,
		numChannels:  max(details.NumChannels, 1),
	}
	switch details.SampleType() {
	case endpoint.Float64:
		sink.SetStreamSink(outputWriter[float64](o))
	case endpoint.Int32:
		sink.SetStreamSink(outputWriter[int32](o))
	default:
		sink.SetStreamSink(outputWriter[float32](o))
	}
	return o
}

// outputWriter builds the typed push path. It accepts as many frames as fit
// in the remaining block space and reports the count actually written.
func outputWriter[T sampleValue](o *outputStream) performer.StreamSink {
	return func(s endpoint.Samples) int {
		src := samplesAs[T](s)
		if src == nil || !o.available {
			return 0
		}
		numFrames := len(src) / o.numChannels
		remaining := o.numFrames - o.cursor
		if numFrames > remaining {
			numFrames = remaining
		}
		deinterleave(o.block, src, o.cursor, numFrames, o.numChannels)
		o.cursor += numFrames
		o.available = o.cursor < o.numFrames
		return numFrames
	}
}

// setOutputBuffer points the adapter at the current hardware block. The
// venue has already zeroed every output channel.
func (o *outputStream) setOutputBuffer(block [][]float32, numFrames int) {
	o.block = channelRange(block, o.startChannel, o.numChannels)
	o.numFrames = numFrames
	o.cursor = 0
	o.available = numFrames > 0
}

func (o *outputStream) channelOffset() int { return o.startChannel }

func (o *outputStream) detach() { o.sink.RemoveSink() }

// channelRange returns the adapter's bound channel sub-range; channels the
// hardware does not provide are simply absent from the result.
func channelRange(block [][]float32, start, count int) [][]float32 {
	if start >= len(block) {
		return nil
	}
	end := start + count
	if end > len(block) {
		end = len(block)
	}
	return block[start:end]
}

// interleave copies numFrames frames starting at offset from discrete
// channels into an interleaved buffer, zero-filling frames past the end of
// the block and channels the hardware does not provide.
func interleave[T sampleValue](dst []T, src [][]float32, offset, numFrames, numChannels int) {
	for ch := 0; ch < numChannels; ch++ {
		if ch >= len(src) {
			for f := 0; f < numFrames; f++ {
				dst[f*numChannels+ch] = 0
			}
			continue
		}
		data := src[ch]
		for f := 0; f < numFrames; f++ {
			i := offset + f
			var v float32
			if i < len(data) {
				v = data[i]
			}
			dst[f*numChannels+ch] = T(v)
		}
	}
}

// deinterleave copies numFrames interleaved frames into discrete channels
// starting at offset. Channels beyond what the hardware provides are
// discarded.
func deinterleave[T sampleValue](dst [][]float32, src []T, offset, numFrames, numChannels int) {
	for ch := 0; ch < numChannels && ch < len(dst); ch++ {
		data := dst[ch]
		for f := 0; f < numFrames; f++ {
			i := offset + f
			if i >= len(data) {
				break
			}
			data[i] = float32(src[f*numChannels+ch])
		}
	}
}

// samplesOf wraps a typed slice in the tagged variant.
func samplesOf[T sampleValue](v []T) endpoint.Samples {
	switch v := any(v).(type) {
	case []float32:
		return endpoint.Samples{Type: endpoint.Float32, Float32: v}
	case []float64:
		return endpoint.Samples{Type: endpoint.Float64, Float64: v}
	case []int32:
		return endpoint.Samples{Type: endpoint.Int32, Int32: v}
	default:
		return endpoint.Samples{}
	}
}

// samplesAs extracts the typed slice, nil when the variant holds a different
// representation than the connection was specialized to.
func samplesAs[T sampleValue](s endpoint.Samples) []T {
	switch s.Type {
	case endpoint.Float32:
		if v, ok := any(s.Float32).([]T); ok {
			return v
		}
	case endpoint.Float64:
		if v, ok := any(s.Float64).([]T); ok {
			return v
		}
	case endpoint.Int32:
		if v, ok := any(s.Int32).([]T); ok {
			return v
		}
	}
	return nil
}
