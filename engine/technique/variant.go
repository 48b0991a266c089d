// Package technique implements the technique registry and per-technique
// variant model (§4.7): each technique name registers a get_info callback
// producing a TechniqueInfo and a body_loader callback emitting the DSL
// body defining a local `technique` value.
package technique

import "github.com/spaghettifunk/anima/engine/scene"

// ShadowHandlingMode controls how advanced-shadow shaders are emitted
// (§4.8): Simple needs no dedicated shadow shader, Advanced emits one
// shader with a black BSDF placeholder, AdvancedWithMaterials emits a
// per-material specialization shaped like a hit shader.
type ShadowHandlingMode int

const (
	ShadowSimple ShadowHandlingMode = iota
	ShadowAdvanced
	ShadowAdvancedWithMaterials
)

// BeforeIterationFunc runs once per iteration before a variant's shaders
// launch (§4.7: PPM's "rebuild the photon query structure").
type BeforeIterationFunc func(iteration int)

// Variant is one of a technique's scheduled passes (§4.7).
type Variant struct {
	Name string

	UsesLights            bool
	PrimaryPayloadCount   int
	SecondaryPayloadCount int
	AOVs                  []string
	ShadowMode            ShadowHandlingMode

	// OverrideCameraGenerator, when true, means ray-generation is sourced
	// from this variant's own emitter (e.g. a light-tracer's
	// list-of-rays-from-lights source) rather than the scene camera.
	OverrideCameraGenerator bool
	// OverrideWidth/OverrideHeight/OverrideSPI replace the film
	// width/height/samples-per-iteration for this variant when non-zero
	// (§4.7 ppm variant 0: "override_width = photons, override_height =
	// 1, override_spi = 1").
	OverrideWidth  int
	OverrideHeight int
	OverrideSPI    int

	// LockFramebuffer, when true, means this variant's launch must not
	// update the framebuffer (§4.9 step 2e).
	LockFramebuffer bool

	BeforeIteration BeforeIterationFunc
}

// VariantSelector chooses which variant indices run on a given iteration
// (§4.7, §4.9 step 1). A nil selector means "sweep all variants in order".
type VariantSelector func(iteration int) []int

// TechniqueInfo is the get_info(...) result (§4.7).
type TechniqueInfo struct {
	Name     string
	Variants []Variant
	Selector VariantSelector
}

// VariantsForIteration resolves which variant indices run on iteration,
// honoring Selector when set, otherwise sweeping every variant in order
// (§4.9 step 1).
func (info *TechniqueInfo) VariantsForIteration(iteration int) []int {
	if info.Selector != nil {
		return info.Selector(iteration)
	}
	all := make([]int, len(info.Variants))
	for i := range all {
		all[i] = i
	}
	return all
}

// GetInfoFunc builds a TechniqueInfo from the technique's scene object and
// a narrow context collaborator (§4.7 get_info(props, ctx)).
type GetInfoFunc func(props *scene.Object, ctx Context) (*TechniqueInfo, error)

// BodyLoaderFunc emits the DSL fragment defining a local `technique` value
// given the ambient shader context (§4.7 body_loader(stream, props, ctx)).
// variantIndex selects which of the technique's Variants the body is being
// emitted for — techniques whose variants share one body (most of them)
// ignore it.
type BodyLoaderFunc func(props *scene.Object, ctx Context, variantIndex int) (string, error)

// Context is the narrow collaborator a technique needs from the loader
// (kept as an interface so this package never imports engine/loader).
type Context interface {
	SceneDiameterValue() float32
	LightCount() int
	EntityCount() int
}
