package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasshall/venue/endpoint"
	"github.com/glasshall/venue/internal/testutil"
)

func streamDetails(t endpoint.SampleType, channels int) endpoint.Details {
	return endpoint.Details{
		ID: "in", Name: "in", Kind: endpoint.KindStream,
		SampleTypes: []endpoint.SampleType{t}, NumChannels: channels,
	}
}

func TestInputStreamInterleavesSubRange(t *testing.T) {
	src := &testutil.FakeInputSource{}
	s := newInputStream(streamDetails(endpoint.Float32, 2), src, 1, 16)
	require.NotNil(t, src.Stream)

	// 4 hardware channels; the adapter is bound to channels 1 and 2.
	block := testutil.MakeChannels(4, 16, func(ch, f int) float32 {
		return float32(ch*100 + f)
	})
	s.setInputBuffer(block, 16)

	samples, ok := src.Stream(4)
	require.True(t, ok)
	require.Equal(t, endpoint.Float32, samples.Type)
	require.Len(t, samples.Float32, 8)
	for f := 0; f < 4; f++ {
		assert.Equal(t, float32(100+f), samples.Float32[f*2])
		assert.Equal(t, float32(200+f), samples.Float32[f*2+1])
	}
}

func TestInputStreamConvertsToFloat64AndInt32(t *testing.T) {
	block := testutil.MakeChannels(1, 8, func(_, f int) float32 { return float32(f) })

	src64 := &testutil.FakeInputSource{}
	s64 := newInputStream(streamDetails(endpoint.Float64, 1), src64, 0, 8)
	s64.setInputBuffer(block, 8)
	samples, ok := src64.Stream(8)
	require.True(t, ok)
	require.Equal(t, endpoint.Float64, samples.Type)
	assert.Equal(t, 3.0, samples.Float64[3])

	src32 := &testutil.FakeInputSource{}
	s32 := newInputStream(streamDetails(endpoint.Int32, 1), src32, 0, 8)
	s32.setInputBuffer(block, 8)
	samples, ok = src32.Stream(8)
	require.True(t, ok)
	require.Equal(t, endpoint.Int32, samples.Type)
	assert.Equal(t, int32(5), samples.Int32[5])
}

func TestInputStreamExhaustsAtBlockEnd(t *testing.T) {
	src := &testutil.FakeInputSource{}
	s := newInputStream(streamDetails(endpoint.Float32, 1), src, 0, 16)
	s.setInputBuffer(testutil.MakeChannels(1, 16, nil), 16)

	_, ok := src.Stream(12)
	require.True(t, ok)
	_, ok = src.Stream(4)
	require.True(t, ok)

	// Cursor reached the block end; further pulls report unavailability.
	_, ok = src.Stream(1)
	assert.False(t, ok)

	// A fresh block rewinds the cursor.
	s.setInputBuffer(testutil.MakeChannels(1, 16, nil), 16)
	_, ok = src.Stream(16)
	assert.True(t, ok)
}

func TestInputStreamZeroFillsMissingChannels(t *testing.T) {
	src := &testutil.FakeInputSource{}
	s := newInputStream(streamDetails(endpoint.Float32, 2), src, 3, 8)

	// Hardware has 4 channels, so the endpoint's second channel is absent.
	block := testutil.MakeChannels(4, 8, func(ch, f int) float32 { return float32(ch + 1) })
	s.setInputBuffer(block, 8)

	samples, ok := src.Stream(8)
	require.True(t, ok)
	for f := 0; f < 8; f++ {
		assert.Equal(t, float32(4), samples.Float32[f*2])
		assert.Zero(t, samples.Float32[f*2+1])
	}
}

func TestOutputStreamAcceptsUpToBlockBoundary(t *testing.T) {
	sink := &testutil.FakeOutputSink{}
	o := newOutputStream(streamDetails(endpoint.Float32, 2), sink, 0)
	require.NotNil(t, sink.Sink)

	block := testutil.MakeChannels(2, 8, nil)
	o.setOutputBuffer(block, 8)

	push := func(numFrames int, base float32) int {
		data := make([]float32, numFrames*2)
		for f := 0; f < numFrames; f++ {
			data[f*2] = base + float32(f)
			data[f*2+1] = -(base + float32(f))
		}
		return sink.Sink(endpoint.Samples{Type: endpoint.Float32, Float32: data})
	}

	assert.Equal(t, 6, push(6, 10))
	// Only 2 frames remain in the block.
	assert.Equal(t, 2, push(4, 20))
	assert.Equal(t, 0, push(1, 30))

	assert.Equal(t, float32(10), block[0][0])
	assert.Equal(t, float32(-15), block[1][5])
	assert.Equal(t, float32(20), block[0][6])
	assert.Equal(t, float32(21), block[0][7])
}

func TestOutputStreamWritesOnlyItsSubRange(t *testing.T) {
	sink := &testutil.FakeOutputSink{}
	o := newOutputStream(streamDetails(endpoint.Float32, 1), sink, 1)

	block := testutil.MakeChannels(3, 4, nil)
	o.setOutputBuffer(block, 4)

	sink.Sink(endpoint.Samples{Type: endpoint.Float32, Float32: []float32{1, 2, 3, 4}})

	assert.Equal(t, []float32{0, 0, 0, 0}, block[0])
	assert.Equal(t, []float32{1, 2, 3, 4}, block[1])
	assert.Equal(t, []float32{0, 0, 0, 0}, block[2])
}

func TestOutputStreamConvertsFromInt32(t *testing.T) {
	sink := &testutil.FakeOutputSink{}
	o := newOutputStream(streamDetails(endpoint.Int32, 1), sink, 0)

	block := testutil.MakeChannels(1, 4, nil)
	o.setOutputBuffer(block, 4)

	n := sink.Sink(endpoint.Samples{Type: endpoint.Int32, Int32: []int32{1, -2, 3, -4}})
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{1, -2, 3, -4}, block[0])
}

func TestOutputStreamRejectsMismatchedVariant(t *testing.T) {
	sink := &testutil.FakeOutputSink{}
	o := newOutputStream(streamDetails(endpoint.Float32, 1), sink, 0)
	o.setOutputBuffer(testutil.MakeChannels(1, 4, nil), 4)

	n := sink.Sink(endpoint.Samples{Type: endpoint.Float64, Float64: []float64{1, 2}})
	assert.Zero(t, n)
}

func TestInputStreamDetachRemovesSource(t *testing.T) {
	src := &testutil.FakeInputSource{}
	s := newInputStream(streamDetails(endpoint.Float32, 1), src, 0, 8)
	s.detach()
	assert.Equal(t, 1, src.Removed)
	assert.Nil(t, src.Stream)
}
