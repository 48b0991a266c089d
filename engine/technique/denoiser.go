package technique

import "github.com/spaghettifunk/anima/engine/scene"

// infobufferGetInfo implements the standalone infobuffer technique: a
// single last variant producing the "Normals", "Albedo", "Depth" AOVs a
// denoiser consumes (§4.7).
func infobufferGetInfo(props *scene.Object, ctx Context) (*TechniqueInfo, error) {
	return &TechniqueInfo{Name: "infobuffer", Variants: []Variant{{
		Name:                "infobuffer",
		PrimaryPayloadCount: 1,
		AOVs:                []string{"Normals", "Albedo", "Depth"},
	}}}, nil
}

func infobufferBodyLoader(props *scene.Object, ctx Context, variantIndex int) (string, error) {
	return "let technique = make_infobuffer_technique();", nil
}

// infobufferVariant is the variant ComposeDenoiserSelector appends to a
// host technique's info when the denoiser auxiliary pass is enabled
// (§4.7): same AOV set as the standalone technique, scheduled last.
func infobufferVariant() Variant {
	return Variant{
		Name:                "infobuffer",
		PrimaryPayloadCount: 1,
		AOVs:                []string{"Normals", "Albedo", "Depth"},
	}
}

// ComposeDenoiserSelector implements the denoiser auxiliary pass
// composition (§4.7 "enable_ib"): appends an infobuffer variant to info
// and wraps any previous VariantSelector so the new variant is scheduled
// according to onlyFirstIteration — only on iteration 0 when true, every
// iteration when false. Composition is append-only: whatever the previous
// selector already returned is preserved verbatim and the infobuffer
// variant's index is added on top, even if the previous selector had
// already filtered variants down for that iteration (a faithfully
// reproduced quirk of the original, not a deliberate design choice — see
// DESIGN.md Open Question (b)).
func ComposeDenoiserSelector(info *TechniqueInfo, onlyFirstIteration bool) {
	ibIndex := len(info.Variants)
	info.Variants = append(info.Variants, infobufferVariant())

	previous := info.Selector
	info.Selector = func(iteration int) []int {
		var base []int
		if previous != nil {
			base = previous(iteration)
		} else {
			base = make([]int, ibIndex)
			for i := range base {
				base[i] = i
			}
		}
		if onlyFirstIteration && iteration > 0 {
			return base
		}
		return append(append([]int(nil), base...), ibIndex)
	}
}
