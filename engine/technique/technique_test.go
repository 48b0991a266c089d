package technique

import (
	"reflect"
	"testing"

	"github.com/spaghettifunk/anima/engine/scene"
)

type fakeContext struct{}

func (fakeContext) SceneDiameterValue() float32 { return 10 }
func (fakeContext) LightCount() int             { return 0 }
func (fakeContext) EntityCount() int            { return 0 }

func TestResolveAliases(t *testing.T) {
	if _, _, err := Resolve("photonmapper"); err != nil {
		t.Fatalf("Resolve(photonmapper): %v", err)
	}
	if _, _, err := Resolve("lighttracer"); err != nil {
		t.Fatalf("Resolve(lighttracer): %v", err)
	}
	if _, _, err := Resolve("does_not_exist"); err == nil {
		t.Fatalf("expected an error for an unknown technique name")
	}
}

// S5 (denoiser variant scheduling): path technique with denoiser enabled,
// onlyFirstIteration=true. Variants.size() == 2. VariantSelector(0) =
// [0, 1]. VariantSelector(k > 0) = [0].
func TestDenoiserVariantScheduling(t *testing.T) {
	getInfo, _, err := Resolve("path")
	if err != nil {
		t.Fatalf("Resolve(path): %v", err)
	}
	props := scene.NewObject(scene.KindTechnique, "tech", "path")
	info, err := getInfo(props, fakeContext{})
	if err != nil {
		t.Fatalf("getInfo: %v", err)
	}

	ComposeDenoiserSelector(info, true)

	if len(info.Variants) != 2 {
		t.Fatalf("expected 2 variants after composing the denoiser pass, got %d", len(info.Variants))
	}
	if got := info.VariantsForIteration(0); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("VariantsForIteration(0) = %v, want [0 1]", got)
	}
	if got := info.VariantsForIteration(1); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("VariantsForIteration(1) = %v, want [0]", got)
	}
	if got := info.VariantsForIteration(5); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("VariantsForIteration(5) = %v, want [0]", got)
	}
}

func TestDenoiserVariantSchedulingEveryIteration(t *testing.T) {
	getInfo, _, err := Resolve("path")
	if err != nil {
		t.Fatalf("Resolve(path): %v", err)
	}
	info, err := getInfo(scene.NewObject(scene.KindTechnique, "tech", "path"), fakeContext{})
	if err != nil {
		t.Fatalf("getInfo: %v", err)
	}
	ComposeDenoiserSelector(info, false)

	if got := info.VariantsForIteration(3); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("VariantsForIteration(3) with onlyFirstIteration=false = %v, want [0 1]", got)
	}
}

// S6 (PPM variant sizing): ppm with photons=1_000_000. Variant 0 has
// OverrideWidth=1_000_000, OverrideHeight=1, OverrideSPI=1,
// LockFramebuffer=true. Variant 1 renders at film size with merging; its
// shader contains ppm_compute_radius(radius * scene_diameter, ...) and the
// shared make_ppm_lightcache construction.
func TestPPMVariantSizing(t *testing.T) {
	getInfo, bodyLoader, err := Resolve("ppm")
	if err != nil {
		t.Fatalf("Resolve(ppm): %v", err)
	}
	props := scene.NewObject(scene.KindTechnique, "tech", "ppm")
	props.Properties["photons"] = scene.NewNumberProperty(1_000_000)

	info, err := getInfo(props, fakeContext{})
	if err != nil {
		t.Fatalf("getInfo: %v", err)
	}
	if len(info.Variants) != 2 {
		t.Fatalf("expected 2 ppm variants, got %d", len(info.Variants))
	}
	v0 := info.Variants[0]
	if v0.OverrideWidth != 1_000_000 || v0.OverrideHeight != 1 || v0.OverrideSPI != 1 || !v0.LockFramebuffer {
		t.Fatalf("unexpected variant 0 sizing: %+v", v0)
	}
	if info.Variants[1].LockFramebuffer {
		t.Fatalf("variant 1 (eye-tracer) must not lock the framebuffer")
	}

	body, err := bodyLoader(props, fakeContext{}, 1)
	if err != nil {
		t.Fatalf("bodyLoader(variant 1): %v", err)
	}
	if !contains(body, "ppm_compute_radius(") || !contains(body, "make_ppm_lightcache(") {
		t.Fatalf("expected variant 1 body to reference ppm_compute_radius and make_ppm_lightcache, got %q", body)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func TestPathMISAOVsEnableAdvancedShadow(t *testing.T) {
	getInfo, _, err := Resolve("path")
	if err != nil {
		t.Fatalf("Resolve(path): %v", err)
	}
	props := scene.NewObject(scene.KindTechnique, "tech", "path")
	props.Properties["enable_mis_aovs"] = scene.NewIntegerProperty(1)

	info, err := getInfo(props, fakeContext{})
	if err != nil {
		t.Fatalf("getInfo: %v", err)
	}
	v := info.Variants[0]
	if v.ShadowMode != ShadowAdvanced {
		t.Fatalf("expected advanced shadow mode when MIS AOVs are enabled, got %v", v.ShadowMode)
	}
	if len(v.AOVs) != 2 {
		t.Fatalf("expected 2 MIS AOVs, got %v", v.AOVs)
	}
}
