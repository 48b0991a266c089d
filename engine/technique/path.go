package technique

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/scene"
)

// pathGetInfo implements the path technique (§4.7): single variant, uses
// lights, 6-entry primary payload; optional MIS AOV outputs ("Direct
// Weights", "NEE Weights") toggle advanced shadow handling.
func pathGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	misAOVs := props.GetBool("enable_mis_aovs", false)
	variant := Variant{
		Name:                "path",
		UsesLights:          true,
		PrimaryPayloadCount: 6,
	}
	if misAOVs {
		variant.AOVs = []string{"Direct Weights", "NEE Weights"}
		variant.ShadowMode = ShadowAdvanced
	}
	return &TechniqueInfo{Name: "path", Variants: []Variant{variant}}, nil
}

func pathBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	maxDepth := int(props.GetNumber("max_depth", 64))
	clamp := props.GetNumber("clamp", 0)
	return fmt.Sprintf("let technique = make_path_tracer_technique(%d, %s);", maxDepth, formatFloatLiteral(clamp)), nil
}

// volpathGetInfo is path's volumetric sibling: same payload shape plus
// media interaction, so it shares the single-variant/6-entry-payload
// model and only differs in its body_loader's emitted call.
func volpathGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	info, err := pathGetInfo(props, ctx)
	if err != nil {
		return nil, err
	}
	info.Name = "volpath"
	info.Variants[0].Name = "volpath"
	return info, nil
}

func volpathBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	maxDepth := int(props.GetNumber("max_depth", 64))
	return fmt.Sprintf("let technique = make_volume_path_tracer_technique(%d);", maxDepth), nil
}

// aoGetInfo implements the ambient-occlusion technique: single variant,
// no lights, no secondary payload beyond the occlusion test itself.
func aoGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	return &TechniqueInfo{Name: "ao", Variants: []Variant{{
		Name:                "ao",
		UsesLights:          false,
		PrimaryPayloadCount: 1,
	}}}, nil
}

func aoBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	radius := props.GetNumber("radius", 1)
	return fmt.Sprintf("let technique = make_ao_technique(%s);", formatFloatLiteral(radius)), nil
}

// debugGetInfo implements the debug-view technique: a single, cheap
// variant that visualizes one surface quantity per launch.
func debugGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	return &TechniqueInfo{Name: "debug", Variants: []Variant{{
		Name:                "debug",
		PrimaryPayloadCount: 1,
	}}}, nil
}

func debugBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	mode := props.GetString("mode", "normal")
	return fmt.Sprintf("let technique = make_debug_technique(DebugMode::%s);", debugModeIdent(mode)), nil
}

func debugModeIdent(mode string) string {
	out := make([]byte, len(mode))
	for i := 0; i < len(mode); i++ {
		if i == 0 {
			out[i] = upper(mode[i])
		} else {
			out[i] = mode[i]
		}
	}
	return string(out)
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// wireframeGetInfo implements the wireframe technique: a single cheap
// variant rendering triangle edges, no lights.
func wireframeGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	return &TechniqueInfo{Name: "wireframe", Variants: []Variant{{
		Name:                "wireframe",
		PrimaryPayloadCount: 1,
	}}}, nil
}

func wireframeBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	return "let technique = make_wireframe_technique();", nil
}

// lightVisibilityGetInfo implements a diagnostic technique that reports
// which lights are directly visible per pixel.
func lightVisibilityGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	return &TechniqueInfo{Name: "lightvisibility", Variants: []Variant{{
		Name:                "lightvisibility",
		UsesLights:          true,
		PrimaryPayloadCount: 1,
	}}}, nil
}

func lightVisibilityBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	return "let technique = make_light_visibility_technique();", nil
}

// cameraCheckGetInfo implements a diagnostic technique that validates
// camera ray generation without touching the scene's BSDFs or lights.
func cameraCheckGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	return &TechniqueInfo{Name: "camera_check", Variants: []Variant{{
		Name:                "camera_check",
		PrimaryPayloadCount: 1,
	}}}, nil
}

func cameraCheckBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	return "let technique = make_camera_check_technique();", nil
}

func formatFloatLiteral(v float64) string {
	return fmt.Sprintf("%g:f32", v)
}
