package serializer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRoundTripScalars implements §8's round-trip property: writing then
// reading any supported primitive yields the original value back.
func TestRoundTripScalars(t *testing.T) {
	w := NewWriter()
	w.WriteU32(0xdeadbeef)
	w.WriteU64(0x0123456789abcdef)
	w.WriteI32(-12345)
	w.WriteF32(3.14159265)
	w.WriteF32(float32(math.Inf(-1)))

	r := NewReader(w.Bytes())

	u32, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := r.ReadU64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0123456789abcdef), u64)

	i32, err := r.ReadI32()
	require.NoError(t, err)
	require.Equal(t, int32(-12345), i32)

	f32, err := r.ReadF32()
	require.NoError(t, err)
	require.Equal(t, float32(3.14159265), f32)

	neg, err := r.ReadF32()
	require.NoError(t, err)
	require.True(t, math.IsInf(float64(neg), -1))
}

// TestRoundTripVec3 mirrors the 3-f32 vec3 layout engine/loader writes
// inline (no dedicated vec3 writer exists; callers write three WriteF32
// calls back to back, e.g. engine/loader/shapes.go's position writes).
func TestRoundTripVec3(t *testing.T) {
	x, y, z := float32(1.5), float32(-2.25), float32(100.0)

	w := NewWriter()
	w.WriteF32(x)
	w.WriteF32(y)
	w.WriteF32(z)

	r := NewReader(w.Bytes())
	gx, err := r.ReadF32()
	require.NoError(t, err)
	gy, err := r.ReadF32()
	require.NoError(t, err)
	gz, err := r.ReadF32()
	require.NoError(t, err)

	require.Equal(t, []float32{x, y, z}, []float32{gx, gy, gz})
}

// TestRoundTripMat3x4 exercises the 12-f32 layout engine/loader/entities.go's
// writeMat3x4 emits (four columns of three components, column-major).
func TestRoundTripMat3x4(t *testing.T) {
	var want [12]float32
	for i := range want {
		want[i] = float32(i + 1)
	}

	w := NewWriter()
	for _, v := range want {
		w.WriteF32(v)
	}

	r := NewReader(w.Bytes())
	var got [12]float32
	for i := range got {
		v, err := r.ReadF32()
		require.NoError(t, err)
		got[i] = v
	}
	require.Equal(t, want, got)
}

func TestEnsureAlignmentPadsWriterToMultiple(t *testing.T) {
	w := NewWriter()
	w.WriteRaw([]byte{1, 2, 3})
	w.EnsureAlignment(DefaultAlignment)
	require.Zero(t, w.Len()%DefaultAlignment)
	require.Equal(t, DefaultAlignment, w.Len(), "one alignment block for 3 bytes")
}

func TestWriteAlignedRoundTrip(t *testing.T) {
	payload := []byte{9, 8, 7, 6, 5}

	w := NewWriter()
	w.WriteAligned(payload, DefaultAlignment)
	w.WriteU32(42) // a following write must start on the next aligned boundary

	r := NewReader(w.Bytes())
	got, err := r.ReadRaw(len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, got)

	r.EnsureAlignment(DefaultAlignment)
	v, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(42), v)
}

func TestReadRawShortReadReturnsError(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadRaw(4)
	require.Error(t, err)
}
