package core

import "sync"

// Statistics holds per-shader timings, per-section timings and quantity
// counters (§2 Statistics). It is filled thread-locally (one instance per
// worker) during load/render and merged serially at iteration boundaries
// via Add, the same accumulate-then-merge shape as the teacher's
// MetricsState frame-average accumulator in engine/core/metrics.go.
type Statistics struct {
	mu sync.Mutex

	// ShaderTimingsMS maps a shader role name (e.g. "ig_path_hit_shader")
	// to accumulated milliseconds spent compiling/launching it.
	ShaderTimingsMS map[string]float64

	// SectionTimingsMS maps a named pipeline section ("shape_load",
	// "bvh_build", "light_setup", ...) to accumulated milliseconds.
	SectionTimingsMS map[string]float64

	// Quantities maps a named counter ("shapes_loaded", "materials",
	// "entities", "embedded_lights") to its accumulated value.
	Quantities map[string]uint64
}

func NewStatistics() *Statistics {
	return &Statistics{
		ShaderTimingsMS:  make(map[string]float64),
		SectionTimingsMS: make(map[string]float64),
		Quantities:       make(map[string]uint64),
	}
}

func (s *Statistics) AddShaderTime(name string, ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ShaderTimingsMS[name] += ms
}

func (s *Statistics) AddSectionTime(name string, ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SectionTimingsMS[name] += ms
}

func (s *Statistics) IncQuantity(name string, delta uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Quantities[name] += delta
}

// Add merges other's component-wise accumulated values into s, the
// `add(other)` contract from §5 ("Statistics ... add(other) is defined as
// component-wise accumulation").
func (s *Statistics) Add(other *Statistics) {
	if other == nil {
		return
	}
	other.mu.Lock()
	shaderTimings := make(map[string]float64, len(other.ShaderTimingsMS))
	for k, v := range other.ShaderTimingsMS {
		shaderTimings[k] = v
	}
	sectionTimings := make(map[string]float64, len(other.SectionTimingsMS))
	for k, v := range other.SectionTimingsMS {
		sectionTimings[k] = v
	}
	quantities := make(map[string]uint64, len(other.Quantities))
	for k, v := range other.Quantities {
		quantities[k] = v
	}
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range shaderTimings {
		s.ShaderTimingsMS[k] += v
	}
	for k, v := range sectionTimings {
		s.SectionTimingsMS[k] += v
	}
	for k, v := range quantities {
		s.Quantities[k] += v
	}
}
