package shading

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/scene"
)

// ErrorSignaler is the narrow collaborator a ShadingTree needs from the
// loader context (§4.5's ShadingTree is built against a LoaderContext, but
// only ever calls its error-signaling path) — kept as an interface so this
// package never imports engine/loader.
type ErrorSignaler interface {
	SignalError(err error)
}

// Tree is a shading-tree instance for one material/light's property
// acquisition pass (§4.5, grounded on the original's ShadingTree class). It
// walks a stack of named Closures, acquiring number/color/vector/texture
// properties into inline DSL expressions, and accumulates the header lines
// (`let` bindings, texture declarations) a generated shader body needs
// emitted ahead of it.
type Tree struct {
	signaler ErrorSignaler
	params   *device.ParameterSet

	// IsPattern reports whether name refers to a declared texture/pattern
	// object, distinguishing "texture reference by name" from "PExpr
	// expression" when a string property is encountered (§4.5). Nil means
	// no patterns are known, so every string is treated as an expression.
	IsPattern func(name string) bool

	closures []*Closure
	alloc    *closureIDAllocator

	// salt disambiguates this tree's dynamic parameter-registry names from
	// every other tree sharing the same device.ParameterSet: several
	// trees (one per material, built concurrently during shader
	// generation) can otherwise mint the same "p1_num"-style name and
	// silently collide in ParameterSet.Local.
	salt string

	headerLines     []string
	headerPulled    bool
	loadedTextures  map[string]bool
	registryCounter int

	transpiler          *Transpiler
	forceSpecialization bool
}

// NewTree constructs an empty shading tree bound to signaler for error
// reporting and params for dynamic-property registration.
func NewTree(signaler ErrorSignaler, params *device.ParameterSet) *Tree {
	return &Tree{
		signaler:       signaler,
		params:         params,
		alloc:          newClosureIDAllocator(),
		salt:           uuid.NewString()[:8],
		loadedTextures: make(map[string]bool),
		transpiler:     NewTranspiler(),
	}
}

// ForceSpecialization sets whether EmbedDefault options should always embed
// regardless of their Specialize* predicates (§4.5 forceSpecialization).
func (t *Tree) ForceSpecialization(b bool) { t.forceSpecialization = b }
func (t *Tree) IsSpecializationForced() bool { return t.forceSpecialization }

// BeginClosure pushes a new named closure frame (§4.5 beginClosure). Its id
// is allocated once per distinct name for the lifetime of the tree (§8
// property 4).
func (t *Tree) BeginClosure(name string) {
	t.closures = append(t.closures, newClosure(name, t.alloc.idFor(name)))
}

// EndClosure pops the current closure frame (§4.5 endClosure).
func (t *Tree) EndClosure() {
	if len(t.closures) == 0 {
		return
	}
	t.closures = t.closures[:len(t.closures)-1]
}

func (t *Tree) current() *Closure {
	if len(t.closures) == 0 {
		// A property acquired with no open closure lives in an implicit
		// root frame so the tree remains usable standalone (e.g. in tests
		// that only exercise one addX call).
		t.closures = append(t.closures, newClosure("", t.alloc.idFor("")))
	}
	return t.closures[len(t.closures)-1]
}

// CurrentClosureID returns the id of the innermost open closure (§4.5
// currentClosureID).
func (t *Tree) CurrentClosureID() int { return t.current().ID }

// GetClosureID returns the id name would receive (allocating one if name
// has never been seen), without pushing a frame (§4.5 getClosureID).
func (t *Tree) GetClosureID(name string) int { return t.alloc.idFor(name) }

// HasParameter reports whether name was already acquired in the current
// closure (§4.5 hasParameter).
func (t *Tree) HasParameter(name string) bool {
	_, ok := t.current().Parameters[name]
	return ok
}

// GetInline returns the inline DSL expression previously stored for name in
// the current closure, or "" if none was acquired (§4.5 getInline).
func (t *Tree) GetInline(name string) string {
	return t.current().Parameters[name]
}

func (t *Tree) setParameter(name, inline string) error {
	c := t.current()
	if _, exists := c.Parameters[name]; exists {
		// §8 property 5: a second addX for the same name in the same
		// closure is a contract violation, not a silent overwrite.
		err := fmt.Errorf("%w: parameter %q already acquired in closure %q", core.ErrContract, name, c.Name)
		t.signaler.SignalError(err)
		return err
	}
	c.Parameters[name] = inline
	return nil
}

// PullHeader returns the accumulated header lines (`let` bindings and
// texture declarations) joined for emission ahead of the shader body that
// used this tree, and marks them pulled (§4.5 pullHeader). Any second call
// on the same tree is a contract violation: a generated shader body must
// only pull its tree's header once.
func (t *Tree) PullHeader() (string, error) {
	if t.headerPulled {
		return "", fmt.Errorf("%w: header already pulled", core.ErrContract)
	}
	t.headerPulled = true
	lines := append(append([]string(nil), t.headerLines...), t.transpiler.Header()...)
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out, nil
}

// RegisterTextureUsage records that a texture named name is referenced by
// the current shader, emitting its `let tex_<name> = ...;` declaration at
// most once (§4.5, §8 property 6: "every referenced texture is emitted
// exactly once").
func (t *Tree) RegisterTextureUsage(name string) {
	if t.loadedTextures[name] {
		return
	}
	t.loadedTextures[name] = true
	t.headerLines = append(t.headerLines, fmt.Sprintf("let tex_%s = load_texture(%q, ctx);", sanitizeIdent(name), name))
}

func sanitizeIdent(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		if isIdentRune(b) {
			out[i] = b
		} else {
			out[i] = '_'
		}
	}
	return string(out)
}

// nextRegistryName returns a fresh, collision-free name for a dynamic
// parameter-registry entry (§6.2 local/global registries).
func (t *Tree) nextRegistryName(property string) string {
	t.registryCounter++
	return fmt.Sprintf("p%s_%d_%s", t.salt, t.registryCounter, property)
}

// --- Number ---------------------------------------------------------------

func (t *Tree) AddNumber(name string, obj *scene.Object, def float64, opts NumberOptions) error {
	inline, err := t.handleNumberProperty(name, obj, def, opts)
	if err != nil {
		return err
	}
	return t.setParameter(name, inline)
}

func (t *Tree) handleNumberProperty(name string, obj *scene.Object, def float64, opts NumberOptions) (string, error) {
	prop, ok := obj.Get(name)
	if !ok {
		return t.acquireNumber(def, opts), nil
	}
	switch prop.Kind {
	case scene.PropertyNumber, scene.PropertyInteger:
		v, _ := prop.AsNumber()
		return t.acquireNumber(v, opts), nil
	case scene.PropertyString:
		res, err := t.transpiler.TranspileNumber(prop.String)
		if err != nil {
			t.signaler.SignalError(err)
			return "false", nil // §7 Parse: degrade to false, continue.
		}
		return res.Text, nil
	default:
		// §7 Structural: mismatched option types (e.g. vector3 where a
		// number was requested) degrades to a neutral literal.
		t.signaler.SignalError(fmt.Errorf("%w: property %q is a %s, number requested", core.ErrStructural, name, prop.Kind))
		return "0", nil
	}
}

func (t *Tree) acquireNumber(v float64, opts NumberOptions) string {
	if t.checkEmbed(opts.Type, opts.SpecializeZero && v == 0 || opts.SpecializeOne && v == 1) {
		return formatFloat(v)
	}
	reg := t.nextRegistryName("num")
	t.params.SetLocal(reg, device.ParameterValue{Kind: device.ParamF32, F32: float32(v)})
	return fmt.Sprintf("device_get_f32_parameter(%q, ctx)", reg)
}

// --- Color -----------------------------------------------------------------

func (t *Tree) AddColor(name string, obj *scene.Object, def [3]float64, opts ColorOptions) error {
	inline, err := t.handleColorProperty(name, obj, def, opts)
	if err != nil {
		return err
	}
	return t.setParameter(name, inline)
}

func (t *Tree) handleColorProperty(name string, obj *scene.Object, def [3]float64, opts ColorOptions) (string, error) {
	prop, ok := obj.Get(name)
	if !ok {
		return t.acquireColor(def[0], def[1], def[2], opts), nil
	}
	switch prop.Kind {
	case scene.PropertyVector3:
		return t.acquireColor(float64(prop.Vector3.X), float64(prop.Vector3.Y), float64(prop.Vector3.Z), opts), nil
	case scene.PropertyNumber, scene.PropertyInteger:
		v, _ := prop.AsNumber()
		return t.acquireColor(v, v, v, opts), nil
	case scene.PropertyString:
		res, err := t.transpiler.TranspileColor(prop.String)
		if err != nil {
			t.signaler.SignalError(err)
			return "make_color(1, 0, 1, 1)", nil // §7 Parse: degrade to magenta.
		}
		return res.Text, nil
	default:
		t.signaler.SignalError(fmt.Errorf("%w: property %q is a %s, color requested", core.ErrStructural, name, prop.Kind))
		return "make_color(1, 0, 1, 1)", nil
	}
}

func (t *Tree) acquireColor(r, g, b float64, opts ColorOptions) string {
	isBlack := r == 0 && g == 0 && b == 0
	isWhite := r == 1 && g == 1 && b == 1
	if t.checkEmbed(opts.Type, opts.SpecializeBlack && isBlack || opts.SpecializeWhite && isWhite) {
		return fmt.Sprintf("make_color(%s, %s, %s, 1)", formatFloat(r), formatFloat(g), formatFloat(b))
	}
	reg := t.nextRegistryName("col")
	t.params.SetLocal(reg, device.ParameterValue{Kind: device.ParamColor, Color: device.Color{R: float32(r), G: float32(g), B: float32(b), A: 1}})
	return fmt.Sprintf("device_get_color_parameter(%q, ctx)", reg)
}

// --- Vector ------------------------------------------------------------------

func (t *Tree) AddVector(name string, obj *scene.Object, def [3]float64, opts VectorOptions) error {
	inline, err := t.handleVectorProperty(name, obj, def, opts)
	if err != nil {
		return err
	}
	return t.setParameter(name, inline)
}

func (t *Tree) handleVectorProperty(name string, obj *scene.Object, def [3]float64, opts VectorOptions) (string, error) {
	prop, ok := obj.Get(name)
	if !ok {
		return t.acquireVector(def[0], def[1], def[2], opts), nil
	}
	switch prop.Kind {
	case scene.PropertyVector3:
		return t.acquireVector(float64(prop.Vector3.X), float64(prop.Vector3.Y), float64(prop.Vector3.Z), opts), nil
	case scene.PropertyString:
		res, err := t.transpiler.TranspileVector(prop.String)
		if err != nil {
			t.signaler.SignalError(err)
			return "make_vec3(0, 0, 0)", nil
		}
		return res.Text, nil
	default:
		t.signaler.SignalError(fmt.Errorf("%w: property %q is a %s, vector requested", core.ErrStructural, name, prop.Kind))
		return "make_vec3(0, 0, 0)", nil
	}
}

func (t *Tree) acquireVector(x, y, z float64, opts VectorOptions) string {
	isZero := x == 0 && y == 0 && z == 0
	isOne := x == 1 && y == 1 && z == 1
	if t.checkEmbed(opts.Type, opts.SpecializeZero && isZero || opts.SpecializeOne && isOne) {
		return fmt.Sprintf("make_vec3(%s, %s, %s)", formatFloat(x), formatFloat(y), formatFloat(z))
	}
	reg := t.nextRegistryName("vec")
	t.params.SetLocal(reg, device.ParameterValue{Kind: device.ParamVec3, Vec3: device.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}})
	return fmt.Sprintf("device_get_vec3_parameter(%q, ctx)", reg)
}

// --- Texture -----------------------------------------------------------------

func (t *Tree) AddTexture(name string, obj *scene.Object, def [3]float64, opts TextureOptions) error {
	inline, err := t.handleTextureProperty(name, obj, def)
	if err != nil {
		return err
	}
	return t.setParameter(name, inline)
}

func (t *Tree) handleTextureProperty(name string, obj *scene.Object, def [3]float64) (string, error) {
	prop, ok := obj.Get(name)
	if !ok {
		return fmt.Sprintf("make_color(%s, %s, %s, 1)", formatFloat(def[0]), formatFloat(def[1]), formatFloat(def[2])), nil
	}
	if prop.Kind == scene.PropertyString {
		if t.IsPattern != nil && t.IsPattern(prop.String) {
			t.RegisterTextureUsage(prop.String)
			return fmt.Sprintf("tex_%s(ctx)", sanitizeIdent(prop.String)), nil
		}
		res, err := t.transpiler.TranspileColor(prop.String)
		if err != nil {
			t.signaler.SignalError(err)
			return "make_color(1, 0, 1, 1)", nil
		}
		return res.Text, nil
	}
	return t.handleColorProperty(name, obj, def, ColorOptionsNone())
}

// checkEmbed decides whether a value should be baked into the shader as a
// literal (§4.5 EmbedType semantics):
//   - EmbedDynamic: never.
//   - EmbedStructural: always.
//   - EmbedDefault: only if a Specialize* predicate matched, or
//     forceSpecialization overrides it.
func (t *Tree) checkEmbed(embedType EmbedType, specializeMatched bool) bool {
	switch embedType {
	case EmbedStructural:
		return true
	case EmbedDynamic:
		return false
	default:
		return specializeMatched || t.forceSpecialization
	}
}

// ComputeNumber returns a literal number property's value outside of
// closure bookkeeping (§4.5 computeNumber); a string (expression) property
// is not evaluated and yields def, as does a missing one — used by callers (e.g.
// technique option resolution) that need a value now rather than an inline
// shader expression.
func (t *Tree) ComputeNumber(obj *scene.Object, name string, def float64) float64 {
	return obj.GetNumber(name, def)
}

// ComputeColor is ComputeNumber's color counterpart (§4.5 computeColor).
func (t *Tree) ComputeColor(obj *scene.Object, name string, def [3]float64) [3]float64 {
	prop, ok := obj.Get(name)
	if !ok || prop.Kind != scene.PropertyVector3 {
		return def
	}
	return [3]float64{float64(prop.Vector3.X), float64(prop.Vector3.Y), float64(prop.Vector3.Z)}
}
