// Package serializer implements the byte-oriented append/read cursor used by
// the scene database tables (§4.1). It is the Go counterpart of the
// teacher's `engine/assets/loaders/binary.go` byte packing, generalized from
// "decode one SPIR-V blob" to "append/read many differently-typed, aligned
// records" the way Ignis's VectorSerializer does.
package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaghettifunk/anima/engine/core"
)

// DefaultAlignment is the alignment every table entry is padded to (§3).
const DefaultAlignment = 16

// Serializer is a growable byte buffer with a write or read cursor.
// Invariant (§4.1): in write mode the cursor always equals len(data); in
// read mode the cursor is strictly less than len(data) while valid.
type Serializer struct {
	data     []byte
	cursor   int
	readMode bool
}

func NewWriter() *Serializer {
	return &Serializer{data: make([]byte, 0, 256)}
}

func NewReader(data []byte) *Serializer {
	return &Serializer{data: data, readMode: true}
}

func (s *Serializer) IsReadMode() bool { return s.readMode }

func (s *Serializer) IsValid() bool {
	if s.readMode {
		return s.cursor < len(s.data)
	}
	return s.cursor == len(s.data)
}

func (s *Serializer) Bytes() []byte { return s.data }

func (s *Serializer) Cursor() int { return s.cursor }

func (s *Serializer) Len() int { return len(s.data) }

func (s *Serializer) WriteRaw(b []byte) (int, error) {
	if s.readMode {
		return 0, fmt.Errorf("serializer: writeRaw called on a read-mode serializer")
	}
	s.data = append(s.data, b...)
	s.cursor += len(b)
	return len(b), nil
}

func (s *Serializer) ReadRaw(n int) ([]byte, error) {
	if !s.readMode {
		return nil, fmt.Errorf("serializer: readRaw called on a write-mode serializer")
	}
	end := s.cursor + n
	if end > len(s.data) {
		end = len(s.data)
	}
	out := s.data[s.cursor:end]
	s.cursor = end
	if len(out) != n {
		return out, fmt.Errorf("serializer: short read, wanted %d got %d", n, len(out))
	}
	return out, nil
}

// EnsureAlignment pads with zero bytes so the next write starts at a
// multiple of alignment (§4.1).
func (s *Serializer) EnsureAlignment(alignment int) {
	if alignment <= 0 {
		core.LogWarn("serializer: EnsureAlignment called with non-positive alignment %d, ignoring", alignment)
		return
	}
	if s.readMode {
		rem := s.cursor % alignment
		if rem != 0 {
			s.cursor += alignment - rem
		}
		return
	}
	rem := len(s.data) % alignment
	if rem != 0 {
		pad := alignment - rem
		s.data = append(s.data, make([]byte, pad)...)
		s.cursor = len(s.data)
	}
}

func (s *Serializer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.WriteRaw(b[:])
}

func (s *Serializer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.WriteRaw(b[:])
}

func (s *Serializer) WriteI32(v int32) { s.WriteU32(uint32(v)) }

func (s *Serializer) WriteF32(v float32) {
	s.WriteU32(math.Float32bits(v))
}

func (s *Serializer) WriteF32Slice(values []float32) {
	for _, v := range values {
		s.WriteF32(v)
	}
}

func (s *Serializer) ReadU32() (uint32, error) {
	b, err := s.ReadRaw(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *Serializer) ReadU64() (uint64, error) {
	b, err := s.ReadRaw(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (s *Serializer) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

func (s *Serializer) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// WriteAligned writes raw bytes then pads to alignment, for variable-size
// per-entry blobs in the dynamic tables (§3, §4.2).
func (s *Serializer) WriteAligned(b []byte, alignment int) {
	s.WriteRaw(b)
	s.EnsureAlignment(alignment)
}
