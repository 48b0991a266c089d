// Package shadergen assembles the generated DSL shader strings (§4.8):
// one self-contained, single-`#[export]`-entry-point string per shader
// role per variant. It never touches the external PExpr/Artic compiler
// (§6.3's prepare/compile pair is out of scope); it only emits source text
// that calls into the device handle interface (§6.2).
package shadergen

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/technique"
)

// Role is a shader's dispatch entry point name (§4.8, §6.2
// "handle_{miss,hit,advanced_shadow,traversal_primary,traversal_secondary}_shader").
type Role string

const (
	RoleDevice         Role = "device"
	RoleRayGeneration  Role = "raygeneration"
	RoleMiss           Role = "miss"
	RoleHit            Role = "hit"
	RoleAdvancedShadow Role = "advanced_shadow"
	RoleTonemap        Role = "tonemap"
	RoleImageInfo      Role = "imageinfo"
)

// PixelSamplerKind selects the ray-generation sampling strategy (§4.8).
type PixelSamplerKind string

const (
	SamplerUniform       PixelSamplerKind = "uniform"
	SamplerMultiJittered PixelSamplerKind = "mj4x4"
	SamplerHalton        PixelSamplerKind = "halton"
)

// Request is everything GenerateShader needs to assemble one role's shader
// source for one variant (§4.8's numbered composition steps).
type Request struct {
	Role         Role
	Target       device.Target
	DeviceIndex  int
	Variant      technique.Variant
	HeaderLines  string // pulled from a shading.Tree.PullHeader(), may be "".
	Fragments    []string // component-specific generated fragments (lights, media, camera).
	TechniqueBody string  // the technique's body_loader output, defines `technique`.
}

// GenerateShader composes one shader string following §4.8's fixed step
// order: signature, device construction, optional payload literal,
// header lines, component fragments, technique body, final dispatcher call.
func GenerateShader(req Request) (string, error) {
	if req.Role == "" {
		return "", fmt.Errorf("shadergen: role is required")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "#[export]\nfn ig_%s_shader(settings: &Settings, ctx: &ShaderContext) -> i32 {\n", req.Role)
	fmt.Fprintf(&b, "    let device = %s;\n", req.Target.DeviceExpr(req.DeviceIndex))

	if req.Variant.PrimaryPayloadCount > 0 || req.Variant.SecondaryPayloadCount > 0 {
		fmt.Fprintf(&b, "    let payload = PayloadInfo { primary_count = %d, secondary_count = %d };\n",
			req.Variant.PrimaryPayloadCount, req.Variant.SecondaryPayloadCount)
	}

	if req.HeaderLines != "" {
		for _, line := range strings.Split(strings.TrimRight(req.HeaderLines, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	for _, frag := range req.Fragments {
		fmt.Fprintf(&b, "    %s\n", frag)
	}

	if req.TechniqueBody != "" {
		fmt.Fprintf(&b, "    %s\n", req.TechniqueBody)
	}

	fmt.Fprintf(&b, "    device.handle_%s_shader(settings, ctx);\n", req.Role)
	b.WriteString("    0\n}\n")

	return b.String(), nil
}

// GenerateMaterialShader emits one hit shader specialized to a single
// material id (§4.8: "Material shaders are emitted per material id").
// isAreaLight selects make_emissive_material over make_material, matching
// the current variant's light-availability check.
func GenerateMaterialShader(req Request, materialID int, bsdfInline string, isAreaLight bool) (string, error) {
	ctor := "make_material"
	if isAreaLight {
		ctor = "make_emissive_material"
	}
	req.Role = RoleHit
	req.Fragments = append(append([]string(nil), req.Fragments...),
		fmt.Sprintf("let bsdf_%d = %s;", materialID, bsdfInline),
		fmt.Sprintf("let shader: MaterialShader = %s(bsdf_%d);", ctor, materialID),
	)
	return GenerateShader(req)
}

// GenerateAdvancedShadowShader emits the advanced-shadow shader(s) a
// variant's ShadowHandlingMode requires (§4.8): Advanced is a single
// shader with a black BSDF placeholder; AdvancedWithMaterials is a
// per-material specialization identical in shape to a hit shader.
func GenerateAdvancedShadowShader(req Request, mode technique.ShadowHandlingMode, materialID int, bsdfInline string) (string, error) {
	req.Role = RoleAdvancedShadow
	switch mode {
	case technique.ShadowAdvanced:
		req.Fragments = append(append([]string(nil), req.Fragments...),
			"let shader: MaterialShader = make_material(make_black_bsdf());",
		)
		return GenerateShader(req)
	case technique.ShadowAdvancedWithMaterials:
		req.Fragments = append(append([]string(nil), req.Fragments...),
			fmt.Sprintf("let bsdf_%d = %s;", materialID, bsdfInline),
			fmt.Sprintf("let shader: MaterialShader = make_material(bsdf_%d);", materialID),
		)
		return GenerateShader(req)
	default:
		return "", nil // ShadowSimple needs no dedicated shader.
	}
}

// GenerateRayGenerationShader emits the ray-generation shader (§4.8):
// either a list-of-rays emitter (when the variant overrides the camera
// generator — the light-tracer/PPM-photon-pass case) or a camera emitter
// using the requested pixel sampler.
func GenerateRayGenerationShader(req Request, sampler PixelSamplerKind) (string, error) {
	req.Role = RoleRayGeneration
	if req.Variant.OverrideCameraGenerator {
		req.Fragments = append(append([]string(nil), req.Fragments...),
			"let emitter = make_list_ray_generator(device.get_ray_table());",
		)
	} else {
		req.Fragments = append(append([]string(nil), req.Fragments...),
			fmt.Sprintf("let emitter = make_camera_ray_generator(camera, make_%s_pixel_sampler());", sampler),
		)
	}
	return GenerateShader(req)
}

// GenerateTonemapShader and GenerateImageInfoShader wrap the two
// fixed-shape service shaders (§6.2 "service shaders tonemap, glare,
// imageinfo"): neither takes a technique body or payload, both just
// dispatch straight through to the device.
func GenerateTonemapShader(target device.Target, deviceIndex int) (string, error) {
	return GenerateShader(Request{Role: RoleTonemap, Target: target, DeviceIndex: deviceIndex})
}

func GenerateImageInfoShader(target device.Target, deviceIndex int) (string, error) {
	return GenerateShader(Request{Role: RoleImageInfo, Target: target, DeviceIndex: deviceIndex})
}
