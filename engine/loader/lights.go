package loader

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/scene"
	"github.com/spaghettifunk/anima/engine/serializer"
)

// finiteLightKinds are plugin-types with a definite position in the scene
// (§3 Light: "finite vs infinite partition is disjoint").
var finiteLightKinds = map[string]bool{
	"point": true, "spot": true, "area": true,
}

// infiniteLightKinds always fall through to the miss shader (§3).
var infiniteLightKinds = map[string]bool{
	"directional": true, "sun": true, "sky": true,
	"cie_uniform": true, "cie_cloudy": true, "cie_clear": true, "cie_intermediate": true,
	"perez": true, "environment": true,
}

// embedClassFor returns the fixed-table class name a finite light's
// plugin-type embeds into, or "" if the kind never embeds (§4.4: "each
// class's fixed-size blob is appended to a fixed table named after the
// class (e.g. SimplePlaneLight, SimplePointLight, SimpleSpotLight,
// SimpleSphereLight, SimpleAreaLight)").
func embedClassFor(kind string) string {
	switch kind {
	case "point":
		return "SimplePointLight"
	case "spot":
		return "SimpleSpotLight"
	case "area":
		return "SimpleAreaLight"
	default:
		return ""
	}
}

// Light is one instantiated light object (§3 Light).
type Light struct {
	Name       string
	Kind       string
	IsDelta    bool
	Finite     bool
	EmbedClass string // "" if this light never embeds
	Entity     string // area-light target entity name
	Position   math.Vec3
	Direction  math.Vec3
	Intensity  math.Vec3
	Flux       float32

	ID int
}

// LightDatabase is the accumulated light-classification output (§4.4).
type LightDatabase struct {
	Lights []*Light
	ByName map[string]*Light

	InfiniteCount int
	FiniteCount   int

	EmbeddingEnabled bool
	// EmbedClassOrder is insertion order of first-encountered embed
	// classes, the ordering §4.4's "partition order follows the
	// embed-class iteration order" and §8 invariant 3 is defined against.
	EmbedClassOrder  []string
	EmbedClassCounts map[string]int

	// FixedTables holds one binary blob per embed class, emitted only
	// when embedding is enabled (§4.4).
	FixedTables map[string][]byte
}

// PrepareLights implements §4.4's prepare step: scan area lights and tag
// their target entity as emissive, ahead of entity loading (§4.3 step 6
// depends on this having already run).
func PrepareLights(sc *scene.Scene, ctx *Context) {
	for _, name := range sc.SortedLightNames() {
		obj := sc.Lights[name]
		if obj.PluginType != "area" {
			continue
		}
		entity := obj.GetString("entity", "")
		if entity != "" {
			ctx.MarkEmissiveEntity(entity)
		}
	}
}

// LoadLights classifies, partitions and numbers every declared light
// (§4.4 Setup). It must run after entity loading so getAreaLightID can be
// cross-checked against EntityToMaterial (§8 property 2).
func LoadLights(ctx *Context, sc *scene.Scene) (*LightDatabase, error) {
	names := sc.SortedLightNames()

	var finite, infinite []*Light
	for _, name := range names {
		obj := sc.Lights[name]
		l, err := instantiateLight(name, obj)
		if err != nil {
			ctx.SignalError(fmt.Errorf("%w: light %q: %v", errStructuralShape, name, err))
			continue
		}
		if l.Finite {
			finite = append(finite, l)
		} else {
			infinite = append(infinite, l)
		}
	}

	// Stable-sort finite lights so lights sharing an embed-class are
	// contiguous, in first-seen embed-class order (§4.4 Setup).
	order := []string{}
	seen := map[string]bool{}
	for _, l := range finite {
		if l.EmbedClass != "" && !seen[l.EmbedClass] {
			seen[l.EmbedClass] = true
			order = append(order, l.EmbedClass)
		}
	}
	classRank := make(map[string]int, len(order))
	for i, c := range order {
		classRank[c] = i
	}
	nonEmbedRank := len(order)
	sort.SliceStable(finite, func(i, j int) bool {
		ri, rj := nonEmbedRank, nonEmbedRank
		if finite[i].EmbedClass != "" {
			ri = classRank[finite[i].EmbedClass]
		}
		if finite[j].EmbedClass != "" {
			rj = classRank[finite[j].EmbedClass]
		}
		return ri < rj
	})

	embeddableCount := 0
	counts := make(map[string]int, len(order))
	for _, l := range finite {
		if l.EmbedClass != "" {
			embeddableCount++
			counts[l.EmbedClass]++
		}
	}
	// Embedding decision (§4.4: "enabled iff the total count of
	// embeddable finite lights >= 10").
	embeddingEnabled := embeddableCount >= 10

	db := &LightDatabase{
		ByName:           make(map[string]*Light, len(names)),
		EmbedClassOrder:  order,
		EmbedClassCounts: counts,
		EmbeddingEnabled: embeddingEnabled,
		FixedTables:      make(map[string][]byte),
	}

	nextID := 0
	if embeddingEnabled {
		for _, class := range order {
			for _, l := range finite {
				if l.EmbedClass == class {
					l.ID = nextID
					nextID++
				}
			}
		}
		for _, l := range finite {
			if l.EmbedClass == "" {
				l.ID = nextID
				nextID++
			}
		}
	} else {
		for _, l := range finite {
			l.ID = nextID
			nextID++
		}
	}
	// Infinite lights get their own dense numbering, independent of the
	// finite id space (§4.4: "infinite lights get a dense numbering").
	infID := 0
	for _, l := range infinite {
		l.ID = infID
		infID++
	}

	db.Lights = append(append(db.Lights, finite...), infinite...)
	for _, l := range db.Lights {
		db.ByName[l.Name] = l
	}
	db.FiniteCount = len(finite)
	db.InfiniteCount = len(infinite)

	if embeddingEnabled {
		for _, class := range order {
			db.FixedTables[class] = buildEmbedClassBlob(class, finite, counts[class])
		}
	}

	return db, nil
}

func instantiateLight(name string, obj *scene.Object) (*Light, error) {
	kind := obj.PluginType
	l := &Light{Name: name, Kind: kind}

	switch {
	case finiteLightKinds[kind]:
		l.Finite = true
	case infiniteLightKinds[kind]:
		l.Finite = false
	default:
		return nil, fmt.Errorf("unknown light plugin-type %q", kind)
	}

	l.IsDelta = kind == "point" || kind == "spot" || kind == "directional"
	l.EmbedClass = embedClassFor(kind)

	if p, ok := obj.Get("position"); ok && p.Kind == scene.PropertyVector3 {
		l.Position = p.Vector3
	}
	if p, ok := obj.Get("direction"); ok && p.Kind == scene.PropertyVector3 {
		l.Direction = p.Vector3
	}
	l.Intensity = vec3Prop(obj, "intensity", math.Vec3{X: 1, Y: 1, Z: 1})
	l.Flux = estimateFlux(l)

	if kind == "area" {
		l.Entity = obj.GetString("entity", "")
		if l.Entity == "" {
			return nil, fmt.Errorf("area light has no entity reference")
		}
	}

	return l, nil
}

// estimateFlux is a coarse power estimate (4π·average-intensity for
// isotropic point/spot/area lights), good enough to order the simple CDF
// selector (§4.4 "simple" selector) without a full radiometric model.
func estimateFlux(l *Light) float32 {
	avg := (l.Intensity.X + l.Intensity.Y + l.Intensity.Z) / 3
	return 4 * 3.14159265 * avg
}

// buildEmbedClassBlob writes one fixed-size record per light of the named
// class: 8 f32 entries (3 position + 1 pad + 3 intensity + 1 pad), the
// exact layout §8's S3 scenario checks ("the fixed table SimplePointLight
// contains 10*8 f32 entries").
func buildEmbedClassBlob(class string, finite []*Light, count int) []byte {
	w := serializer.NewWriter()
	for _, l := range finite {
		if l.EmbedClass != class {
			continue
		}
		w.WriteF32(l.Position.X)
		w.WriteF32(l.Position.Y)
		w.WriteF32(l.Position.Z)
		w.WriteF32(0) // pad
		w.WriteF32(l.Intensity.X)
		w.WriteF32(l.Intensity.Y)
		w.WriteF32(l.Intensity.Z)
		w.WriteF32(0) // pad
	}
	return w.Bytes()
}

// GetAreaLightID returns the light id of the area light targeting the
// given entity name, used by §8 S2 ("getAreaLightID("e1") returns L1's
// id").
func (db *LightDatabase) GetAreaLightID(entityName string) (int, bool) {
	for _, l := range db.Lights {
		if l.Kind == "area" && l.Entity == entityName {
			return l.ID, true
		}
	}
	return 0, false
}

// SelectorKind is the light-selection strategy requested by options
// (§4.4 Light selector).
type SelectorKind string

const (
	SelectorUniform   SelectorKind = "uniform"
	SelectorSimple    SelectorKind = "simple"
	SelectorHierarchy SelectorKind = "hierarchy"
)

// ResolveSelector collapses to uniform when there are <=1 total lights
// (§4.4: "with <= 1 total lights the selector always collapses to
// uniform"), otherwise honors the requested kind.
func (db *LightDatabase) ResolveSelector(requested SelectorKind) SelectorKind {
	if len(db.Lights) <= 1 {
		return SelectorUniform
	}
	return requested
}

// BuildSimpleCDF writes the 1-D flux CDF blob the "simple" selector
// persists to cache (§4.4: "write a 1-D CDF blob to cache").
func (db *LightDatabase) BuildSimpleCDF() []float32 {
	cdf := make([]float32, len(db.Lights))
	var total float32
	for i, l := range db.Lights {
		total += l.Flux
		cdf[i] = total
	}
	if total <= 0 {
		return cdf
	}
	for i := range cdf {
		cdf[i] /= total
	}
	return cdf
}
