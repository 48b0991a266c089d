package device

import (
	"fmt"
	"sync"
)

// SoftwareHandle is a minimal in-memory reference implementation of Handle,
// used by the loader's own tests so that shader "launches" are observable
// without a real JIT compiler or GPU/CPU kernel (both out of scope, §1).
// It keeps just enough state to assert launch ordering and parameter
// plumbing invariants (§8).
type SoftwareHandle struct {
	mu sync.Mutex

	target      Target
	deviceIndex int

	buffers    map[string]uint32
	bufferData map[uint32][]byte
	nextBuffer uint32

	images    map[string]uint32
	nextImage uint32

	bvhTags map[string]bool

	rays []byte

	framebuffer []float32
	fbWidth     int
	fbHeight    int
	aovs        map[string][]float32

	params *ParameterSet

	// LaunchLog records every handle_* call in order, for assertions.
	LaunchLog []string
}

func NewSoftwareHandle() *SoftwareHandle {
	return &SoftwareHandle{
		buffers:    make(map[string]uint32),
		bufferData: make(map[uint32][]byte),
		images:     make(map[string]uint32),
		bvhTags:    make(map[string]bool),
		aovs:       make(map[string][]float32),
		params:     NewParameterSet(),
	}
}

func (s *SoftwareHandle) Initialize(target Target, deviceIndex int) error {
	s.target = target
	s.deviceIndex = deviceIndex
	return nil
}

func (s *SoftwareHandle) Shutdown() error { return nil }

func (s *SoftwareHandle) BufferAllocate(name string, sizeBytes uint64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextBuffer
	s.nextBuffer++
	s.buffers[name] = id
	s.bufferData[id] = make([]byte, sizeBytes)
	return id, nil
}

func (s *SoftwareHandle) BufferLookup(name string) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.buffers[name]
	return id, ok
}

func (s *SoftwareHandle) BufferWrite(bufferID uint32, offset uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.bufferData[bufferID]
	if !ok {
		return fmt.Errorf("device: unknown buffer id %d", bufferID)
	}
	end := offset + uint64(len(data))
	if end > uint64(len(buf)) {
		grown := make([]byte, end)
		copy(grown, buf)
		buf = grown
		s.bufferData[bufferID] = buf
	}
	copy(buf[offset:end], data)
	return nil
}

func (s *SoftwareHandle) ImageLoad(path string, channelHint int) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.images[path]; ok {
		return id, nil
	}
	id := s.nextImage
	s.nextImage++
	s.images[path] = id
	return id, nil
}

func (s *SoftwareHandle) BVHLoad(tag string, flatNodes []byte, leaves []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bvhTags[tag] = true
	return nil
}

func (s *SoftwareHandle) RayTableSet(rays []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rays = rays
	return nil
}

func (s *SoftwareHandle) RayTableGet() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rays, nil
}

func (s *SoftwareHandle) AOVImage(name string) ([]float32, int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pixels, ok := s.aovs[name]
	if !ok {
		return nil, 0, 0, fmt.Errorf("device: unknown AOV %q", name)
	}
	return pixels, s.fbWidth, s.fbHeight, nil
}

func (s *SoftwareHandle) FramebufferUpdate(pixels []float32, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framebuffer = pixels
	s.fbWidth, s.fbHeight = width, height
	return nil
}

func (s *SoftwareHandle) Parameters() *ParameterSet { return s.params }

func (s *SoftwareHandle) log(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LaunchLog = append(s.LaunchLog, call)
}

func (s *SoftwareHandle) HandleMissShader(source CompiledShader, width, height, spp int) error {
	s.log(fmt.Sprintf("miss(%s,%dx%d,spp=%d)", source.EntryName, width, height, spp))
	return nil
}

func (s *SoftwareHandle) HandleHitShader(source CompiledShader, materialID uint32, width, height, spp int) error {
	s.log(fmt.Sprintf("hit(%s,mat=%d,%dx%d,spp=%d)", source.EntryName, materialID, width, height, spp))
	return nil
}

func (s *SoftwareHandle) HandleAdvancedShadowShader(source CompiledShader, width, height, spp int) error {
	s.log(fmt.Sprintf("shadow(%s,%dx%d,spp=%d)", source.EntryName, width, height, spp))
	return nil
}

func (s *SoftwareHandle) HandleTraversalPrimaryShader(width, height, spp int) error {
	s.log(fmt.Sprintf("traversal_primary(%dx%d,spp=%d)", width, height, spp))
	return nil
}

func (s *SoftwareHandle) HandleTraversalSecondaryShader(width, height, spp int) error {
	s.log(fmt.Sprintf("traversal_secondary(%dx%d,spp=%d)", width, height, spp))
	return nil
}

func (s *SoftwareHandle) GenerateRays(source CompiledShader, width, height, spp int) error {
	s.log(fmt.Sprintf("generate_rays(%s,%dx%d,spp=%d)", source.EntryName, width, height, spp))
	return nil
}

func (s *SoftwareHandle) Tonemap(source CompiledShader) error {
	s.log(fmt.Sprintf("tonemap(%s)", source.EntryName))
	return nil
}

func (s *SoftwareHandle) Glare(source CompiledShader) error {
	s.log(fmt.Sprintf("glare(%s)", source.EntryName))
	return nil
}

func (s *SoftwareHandle) ImageInfo(source CompiledShader) (ImageInfoResult, error) {
	s.log(fmt.Sprintf("imageinfo(%s)", source.EntryName))
	return ImageInfoResult{}, nil
}

// SoftwareCompiler is a pass-through Compiler for tests: prepare is the
// identity function and compile just wraps the source string.
type SoftwareCompiler struct{}

func (SoftwareCompiler) Prepare(source string) (string, error) { return source, nil }

func (SoftwareCompiler) Compile(prepared string, entryName string) (CompiledShader, error) {
	return NewCompiledShader(entryName, prepared), nil
}
