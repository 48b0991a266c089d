package technique

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/scene"
)

// ppmGetInfo implements the ppm|photonmapper technique (§4.7): two
// variants, a light-tracer pass producing photons and an eye-tracer pass
// that merges against them, both rebuilding the photon query structure on
// their before-iteration callback.
func ppmGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	photons := int(props.GetNumber("photons", 1_000_000))

	rebuild := func(iteration int) {
		// Rebuilding the photon query structure (a kd-tree/hash grid over
		// the last pass's photon deposits) happens device-side; the
		// loader only needs to know it happens once per iteration before
		// either variant launches.
	}

	lightTrace := Variant{
		Name:                    "lighttrace",
		UsesLights:              true,
		PrimaryPayloadCount:     4,
		OverrideCameraGenerator: true,
		OverrideWidth:           photons,
		OverrideHeight:          1,
		OverrideSPI:             1,
		LockFramebuffer:         true,
		BeforeIteration:         rebuild,
	}
	eyeTrace := Variant{
		Name:                "eyetrace",
		UsesLights:          true,
		PrimaryPayloadCount: 6,
		BeforeIteration:     rebuild,
	}

	return &TechniqueInfo{Name: "ppm", Variants: []Variant{lightTrace, eyeTrace}}, nil
}

func ppmBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	switch variantIndex {
	case 0:
		return "let technique = make_ppm_lighttracer_technique();", nil
	default:
		radius := props.GetNumber("radius", 0.01)
		// §8 S6: the eye-tracer shader scales its initial photon radius
		// by the accumulated scene diameter, and shares the construction
		// of the light-tracer's photon cache.
		return fmt.Sprintf(
			"let cache = make_ppm_lightcache();\n"+
				"let radius = ppm_compute_radius(%s * scene_diameter, settings.iter);\n"+
				"let technique = make_ppm_technique(cache, radius);",
			formatFloatLiteral(radius),
		), nil
	}
}

// ltGetInfo implements the lt|lighttracer technique: a single light-tracer
// variant whose rays originate at lights with no eye-side merging pass.
func ltGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	return &TechniqueInfo{Name: "lt", Variants: []Variant{{
		Name:                    "lighttrace",
		UsesLights:              true,
		PrimaryPayloadCount:     4,
		OverrideCameraGenerator: true,
		LockFramebuffer:         false,
	}}}, nil
}

func ltBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	return "let technique = make_light_tracer_technique();", nil
}
