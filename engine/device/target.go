// Package device models the stable C-like device handle interface (§6.2)
// the loader generates shader-launch call sites against. It is the direct
// generalization of the teacher's `engine/renderer/backend.go`
// `RendererBackend` interface: same "opaque handle, typed
// buffer/image/parameter accessors, launch entry points" shape, moved from
// "draw a frame with a compiled pipeline" to "launch a generated DSL
// shader". The real JIT compiler and CPU/GPU kernels are out of scope
// (§1); Software is a reference implementation used by the loader's own
// tests.
package device

import "fmt"

// Target selects the device backend a variant's shaders are generated for
// (§4.8 step 2, §6.5 "target platform").
type Target int

const (
	TargetGeneric Target = iota
	TargetSSE42
	TargetAVX
	TargetAVX2
	TargetAVX512
	TargetASIMD
	TargetNVVM
	TargetAMDGPU
)

func ParseTarget(s string) (Target, error) {
	switch s {
	case "generic":
		return TargetGeneric, nil
	case "sse42":
		return TargetSSE42, nil
	case "avx":
		return TargetAVX, nil
	case "avx2":
		return TargetAVX2, nil
	case "avx512":
		return TargetAVX512, nil
	case "asimd":
		return TargetASIMD, nil
	case "nvvm":
		return TargetNVVM, nil
	case "amdgpu":
		return TargetAMDGPU, nil
	default:
		return 0, fmt.Errorf("device: unknown target platform %q", s)
	}
}

func (t Target) String() string {
	switch t {
	case TargetGeneric:
		return "generic"
	case TargetSSE42:
		return "sse42"
	case TargetAVX:
		return "avx"
	case TargetAVX2:
		return "avx2"
	case TargetAVX512:
		return "avx512"
	case TargetASIMD:
		return "asimd"
	case TargetNVVM:
		return "nvvm"
	case TargetAMDGPU:
		return "amdgpu"
	default:
		return "unknown"
	}
}

// IsCPU reports whether the target executes on the host CPU (§4.8 step 2:
// "let device = make_<target>_device(...)" is chosen by
// Target.isCPU()/gpuVendor()/vectorWidth()).
func (t Target) IsCPU() bool {
	return t != TargetNVVM && t != TargetAMDGPU
}

// GPUVendor returns "nvidia", "amd" or "" for CPU targets.
func (t Target) GPUVendor() string {
	switch t {
	case TargetNVVM:
		return "nvidia"
	case TargetAMDGPU:
		return "amd"
	default:
		return ""
	}
}

// VectorWidth returns the SIMD lane width used to decide the scene-BVH
// branching factor (§4.6: N=2 for GPU, N=4 for CPU width<8, N=8 otherwise).
func (t Target) VectorWidth() int {
	switch t {
	case TargetGeneric:
		return 1
	case TargetSSE42:
		return 4
	case TargetAVX, TargetAVX2:
		return 8
	case TargetAVX512:
		return 16
	case TargetASIMD:
		return 4
	default:
		return 1
	}
}

// DeviceExpr returns the Artic DSL constructor call for this target, used
// verbatim by shadergen's signature emission (§4.8 step 2).
func (t Target) DeviceExpr(deviceIndex int) string {
	if !t.IsCPU() {
		return fmt.Sprintf("make_%s_device(%d)", t.GPUVendor(), deviceIndex)
	}
	return fmt.Sprintf("make_cpu_device(%d, %d)", deviceIndex, t.VectorWidth())
}

// BVHBranchingFactor implements §4.6's N ∈ {2, 4, 8} rule.
func (t Target) BVHBranchingFactor() int {
	if !t.IsCPU() {
		return 2
	}
	if t.VectorWidth() < 8 {
		return 4
	}
	return 8
}
