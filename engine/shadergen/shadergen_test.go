package shadergen

import (
	"strings"
	"testing"

	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/technique"
)

func TestGenerateShaderComposesInOrder(t *testing.T) {
	req := Request{
		Role:          RoleHit,
		Target:        device.TargetAVX2,
		Variant:       technique.Variant{PrimaryPayloadCount: 6},
		HeaderLines:   "let tex_wood = load_texture(\"wood\", ctx);\n",
		Fragments:     []string{"let light0 = make_point_light(...);"},
		TechniqueBody: "let technique = make_path_tracer_technique(64, 0:f32);",
	}
	src, err := GenerateShader(req)
	if err != nil {
		t.Fatalf("GenerateShader: %v", err)
	}

	sig := strings.Index(src, "#[export]")
	dev := strings.Index(src, "make_cpu_device")
	payload := strings.Index(src, "PayloadInfo")
	header := strings.Index(src, "tex_wood")
	frag := strings.Index(src, "make_point_light")
	body := strings.Index(src, "make_path_tracer_technique")
	dispatch := strings.Index(src, "device.handle_hit_shader")

	for name, idx := range map[string]int{"sig": sig, "dev": dev, "payload": payload, "header": header, "frag": frag, "body": body, "dispatch": dispatch} {
		if idx < 0 {
			t.Fatalf("expected %s to appear in generated shader, got:\n%s", name, src)
		}
	}
	if !(sig < dev && dev < payload && payload < header && header < frag && frag < body && body < dispatch) {
		t.Fatalf("shader sections out of §4.8 order:\n%s", src)
	}
}

func TestGenerateShaderOmitsPayloadWhenZero(t *testing.T) {
	src, err := GenerateShader(Request{Role: RoleMiss, Target: device.TargetGeneric})
	if err != nil {
		t.Fatalf("GenerateShader: %v", err)
	}
	if strings.Contains(src, "PayloadInfo") {
		t.Fatalf("expected no PayloadInfo literal when both payload counts are zero:\n%s", src)
	}
}

func TestMaterialShaderSelectsEmissiveConstructor(t *testing.T) {
	req := Request{Target: device.TargetGeneric}
	src, err := GenerateMaterialShader(req, 3, "make_diffuse_bsdf(color)", true)
	if err != nil {
		t.Fatalf("GenerateMaterialShader: %v", err)
	}
	if !strings.Contains(src, "make_emissive_material") {
		t.Fatalf("expected make_emissive_material for an area-light material, got:\n%s", src)
	}

	src2, err := GenerateMaterialShader(req, 3, "make_diffuse_bsdf(color)", false)
	if err != nil {
		t.Fatalf("GenerateMaterialShader: %v", err)
	}
	if strings.Contains(src2, "make_emissive_material") || !strings.Contains(src2, "make_material(bsdf_3)") {
		t.Fatalf("expected plain make_material for a non-emissive material, got:\n%s", src2)
	}
}

func TestAdvancedShadowShapes(t *testing.T) {
	req := Request{Target: device.TargetGeneric}

	simple, err := GenerateAdvancedShadowShader(req, technique.ShadowSimple, 0, "")
	if err != nil {
		t.Fatalf("GenerateAdvancedShadowShader(Simple): %v", err)
	}
	if simple != "" {
		t.Fatalf("expected ShadowSimple to emit no shader, got:\n%s", simple)
	}

	advanced, err := GenerateAdvancedShadowShader(req, technique.ShadowAdvanced, 0, "")
	if err != nil {
		t.Fatalf("GenerateAdvancedShadowShader(Advanced): %v", err)
	}
	if !strings.Contains(advanced, "make_black_bsdf()") {
		t.Fatalf("expected a black-bsdf placeholder, got:\n%s", advanced)
	}

	withMat, err := GenerateAdvancedShadowShader(req, technique.ShadowAdvancedWithMaterials, 2, "make_diffuse_bsdf(color)")
	if err != nil {
		t.Fatalf("GenerateAdvancedShadowShader(AdvancedWithMaterials): %v", err)
	}
	if !strings.Contains(withMat, "bsdf_2") || strings.Contains(withMat, "black_bsdf") {
		t.Fatalf("expected a per-material specialization, got:\n%s", withMat)
	}
}

func TestRayGenerationSwitchesOnOverrideCameraGenerator(t *testing.T) {
	req := Request{Target: device.TargetGeneric, Variant: technique.Variant{OverrideCameraGenerator: true}}
	src, err := GenerateRayGenerationShader(req, SamplerHalton)
	if err != nil {
		t.Fatalf("GenerateRayGenerationShader: %v", err)
	}
	if !strings.Contains(src, "make_list_ray_generator") {
		t.Fatalf("expected a list-of-rays emitter when OverrideCameraGenerator is set, got:\n%s", src)
	}

	req2 := Request{Target: device.TargetGeneric, Variant: technique.Variant{}}
	src2, err := GenerateRayGenerationShader(req2, SamplerHalton)
	if err != nil {
		t.Fatalf("GenerateRayGenerationShader: %v", err)
	}
	if !strings.Contains(src2, "make_halton_pixel_sampler") {
		t.Fatalf("expected a camera emitter using the requested sampler, got:\n%s", src2)
	}
}
