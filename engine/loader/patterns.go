package loader

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/scene"
)

// PatternKind is a texture plugin-type registered by the pattern loader
// (§2 "Pattern (texture) loader: Build pattern DAG (image, checker, brick,
// noise family, transform, expression)"), grounded on the original's
// `_generators` table in LoaderTexture.cpp.
type PatternKind string

const (
	PatternImage       PatternKind = "image"
	PatternCheckerBoard PatternKind = "checkerboard"
	PatternBrick       PatternKind = "brick"
	PatternNoise       PatternKind = "noise"
	PatternCellNoise   PatternKind = "cellnoise"
	PatternPNoise      PatternKind = "pnoise"
	PatternPerlin      PatternKind = "perlin"
	PatternVoronoi     PatternKind = "voronoi"
	PatternFBM         PatternKind = "fbm"
	PatternExpr        PatternKind = "expr"
	PatternTransform   PatternKind = "transform"
)

var patternKinds = map[string]PatternKind{
	"image": PatternImage, "bitmap": PatternImage,
	"checkerboard": PatternCheckerBoard,
	"brick":        PatternBrick,
	"noise":        PatternNoise,
	"cellnoise":    PatternCellNoise,
	"pnoise":       PatternPNoise,
	"perlin":       PatternPerlin,
	"voronoi":      PatternVoronoi,
	"fbm":          PatternFBM,
	"expr":         PatternExpr,
	"transform":    PatternTransform,
}

// Pattern is one node of the texture DAG (§2, §4.5): a kind, its backing
// scene object, and (for "transform") the single child pattern it wraps.
type Pattern struct {
	Name   string
	Kind   PatternKind
	Object *scene.Object
	Child  *Pattern // only set for PatternTransform
}

// PatternDatabase holds every available pattern, keyed by name, resolved
// eagerly during prepare (§4.4-adjacent "prepare phase").
type PatternDatabase struct {
	Patterns map[string]*Pattern
}

// LoadPatterns resolves every declared texture object into a Pattern node,
// wiring "transform" patterns to their referenced child texture by name
// (§2 Pattern loader). Unknown plugin-types are Structural errors and
// dangling transform references are Referential (missing-reference) errors
// (§7).
func LoadPatterns(ctx *Context, sc *scene.Scene) (*PatternDatabase, error) {
	db := &PatternDatabase{Patterns: make(map[string]*Pattern, len(sc.Textures))}

	for _, name := range sortedKeys(sc.Textures) {
		obj := sc.Textures[name]
		kind, ok := patternKinds[obj.PluginType]
		if !ok {
			ctx.SignalError(fmt.Errorf("%w: texture %q has unknown plugin-type %q", errStructuralShape, name, obj.PluginType))
			continue
		}
		db.Patterns[name] = &Pattern{Name: name, Kind: kind, Object: obj}
	}

	for _, p := range db.Patterns {
		if p.Kind != PatternTransform {
			continue
		}
		childName := p.Object.GetString("texture", "")
		child, ok := db.Patterns[childName]
		if !ok {
			ctx.SignalError(fmt.Errorf("%w: transform pattern %q references unknown texture %q", core.ErrMissingReference, p.Name, childName))
			continue
		}
		p.Child = child
	}

	return db, nil
}

func sortedKeys(m map[string]*scene.Object) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
