package shading

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima/engine/core"
)

// ValueKind is the inferred type of a transpiled expression (§4.5: the
// transpiler "wraps a PExpr environment" of number/color/vector/bool
// values).
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindColor
	KindVector
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindColor:
		return "color"
	case KindVector:
		return "vector"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Expr is the small expression AST the transpiler visits. The real PExpr
// grammar (literals, operators, swizzles, function calls, let-bindings) and
// its parser are out of scope (§1 "PExpr (the expression parser) itself");
// Expr stands in for the AST that parser would hand the transpiler, and
// ParseExpr below is a narrow internal-grammar subset (numbers, identifiers,
// dotted swizzles, binary +-*/ and call syntax) sufficient to exercise the
// transpiler's emission, collapse and specialization responsibilities
// end-to-end without reimplementing PExpr itself.
type Expr interface{ isExpr() }

type NumberExpr struct{ Value float64 }
type IdentExpr struct{ Name string }
type SwizzleExpr struct {
	Base    Expr
	Pattern string
}
type CallExpr struct {
	Name string
	Args []Expr
}
type BinOpExpr struct {
	Op          byte // '+','-','*','/'
	Left, Right Expr
}

func (NumberExpr) isExpr()  {}
func (IdentExpr) isExpr()   {}
func (SwizzleExpr) isExpr() {}
func (CallExpr) isExpr()    {}
func (BinOpExpr) isExpr()   {}

// Result is the transpiled emission for one Expr: its DSL text and the kind
// the transpiler inferred it to be.
type Result struct {
	Text string
	Kind ValueKind
}

// internalVariable is one entry of the transpiler's internal-variable table
// (§4.5: "uv, P, V, N, Ng, Nx, Ny, frontside, entity_id, Ix, Iy, t, frame,
// plus the constants Pi, E, Eps, Inf").
type internalVariable struct {
	dsl  string
	kind ValueKind
}

var internalVariables = map[string]internalVariable{
	"uv":         {"ctx.uv", KindVector},
	"P":          {"ctx.ray.org", KindVector},
	"V":          {"ctx.ray.dir", KindVector},
	"N":          {"ctx.surf.local.n", KindVector},
	"Ng":         {"ctx.surf.local.gn", KindVector},
	"Nx":         {"ctx.surf.local.tx", KindVector},
	"Ny":         {"ctx.surf.local.ty", KindVector},
	"frontside":  {"ctx.surf.is_entering", KindBool},
	"entity_id":  {"ctx.entity_id", KindNumber},
	"Ix":         {"ctx.pixel.x", KindNumber},
	"Iy":         {"ctx.pixel.y", KindNumber},
	"t":          {"ctx.ray.tmax", KindNumber},
	"frame":      {"ctx.frame", KindNumber},
	"Pi":         {"flt_pi", KindNumber},
	"E":          {"flt_e", KindNumber},
	"Eps":        {"flt_eps", KindNumber},
	"Inf":        {"flt_inf", KindNumber},
}

// internalFunction is one overload of the transpiler's internal-function
// table (§4.5: "arithmetic, transcendental, color conversions, blackbody,
// noise family, transform helpers, ray-flag checks, select/lookup/
// constructors, bump, ensure_valid_reflection"), keyed by name+arity since
// PExpr allows overloading on argument count.
type internalFunction struct {
	arity int
	kind  ValueKind
	emit  func(args []string) string
}

func fn(name string, arity int, kind ValueKind, emit func(args []string) string) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

var internalFunctions = map[string]internalFunction{
	"sin/1":  {1, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::sin(%s)", a[0]) }},
	"cos/1":  {1, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::cos(%s)", a[0]) }},
	"tan/1":  {1, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::tan(%s)", a[0]) }},
	"sqrt/1": {1, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::sqrt(%s)", a[0]) }},
	"abs/1":  {1, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::fabs(%s)", a[0]) }},
	"exp/1":  {1, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::exp(%s)", a[0]) }},
	"log/1":  {1, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::log(%s)", a[0]) }},
	"pow/2":  {2, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::pow(%s, %s)", a[0], a[1]) }},
	"min/2":  {2, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::fmin(%s, %s)", a[0], a[1]) }},
	"max/2":  {2, KindNumber, func(a []string) string { return fmt.Sprintf("math_builtins::fmax(%s, %s)", a[0], a[1]) }},
	"clamp/3": {3, KindNumber, func(a []string) string { return fmt.Sprintf("clampf(%s, %s, %s)", a[0], a[1], a[2]) }},
	"lerp/3":  {3, KindNumber, func(a []string) string { return fmt.Sprintf("lerp(%s, %s, %s)", a[0], a[1], a[2]) }},
	"select/3": {3, KindNumber, func(a []string) string { return fmt.Sprintf("select(%s, %s, %s)", a[0], a[1], a[2]) }},

	"vec2/2": {2, KindVector, func(a []string) string { return fmt.Sprintf("make_vec2(%s, %s)", a[0], a[1]) }},
	"vec3/3": {3, KindVector, func(a []string) string { return fmt.Sprintf("make_vec3(%s, %s, %s)", a[0], a[1], a[2]) }},
	"color/3": {3, KindColor, func(a []string) string { return fmt.Sprintf("make_color(%s, %s, %s, 1)", a[0], a[1], a[2]) }},
	"color/4": {4, KindColor, func(a []string) string { return fmt.Sprintf("make_color(%s, %s, %s, %s)", a[0], a[1], a[2], a[3]) }},
	"make_gray_color/1": {1, KindColor, func(a []string) string { return fmt.Sprintf("make_gray_color(%s)", a[0]) }},
	"color_average/1":   {1, KindNumber, func(a []string) string { return fmt.Sprintf("color_average(%s)", a[0]) }},

	"srgb_to_xyz/1": {1, KindColor, func(a []string) string { return fmt.Sprintf("srgb_to_xyz(%s)", a[0]) }},
	"xyz_to_srgb/1": {1, KindColor, func(a []string) string { return fmt.Sprintf("xyz_to_srgb(%s)", a[0]) }},
	"blackbody/1":   {1, KindColor, func(a []string) string { return fmt.Sprintf("blackbody_srgb(%s)", a[0]) }},

	"noise/1":     {1, KindNumber, func(a []string) string { return fmt.Sprintf("noise(%s)", a[0]) }},
	"snoise/1":    {1, KindNumber, func(a []string) string { return fmt.Sprintf("snoise(%s)", a[0]) }},
	"cellnoise/1": {1, KindNumber, func(a []string) string { return fmt.Sprintf("cellnoise(%s)", a[0]) }},
	"pnoise/1":    {1, KindNumber, func(a []string) string { return fmt.Sprintf("pnoise(%s)", a[0]) }},
	"perlin/1":    {1, KindNumber, func(a []string) string { return fmt.Sprintf("perlin(%s)", a[0]) }},
	"voronoi/1":   {1, KindNumber, func(a []string) string { return fmt.Sprintf("voronoi(%s)", a[0]) }},
	"fbm/1":       {1, KindNumber, func(a []string) string { return fmt.Sprintf("fbm(%s)", a[0]) }},

	"transform_point/2":     {2, KindVector, func(a []string) string { return fmt.Sprintf("transform_point(%s, %s)", a[0], a[1]) }},
	"transform_direction/2": {2, KindVector, func(a []string) string { return fmt.Sprintf("transform_direction(%s, %s)", a[0], a[1]) }},
	"transform_normal/2":    {2, KindVector, func(a []string) string { return fmt.Sprintf("transform_normal(%s, %s)", a[0], a[1]) }},

	"check_ray_flag/1": {1, KindBool, func(a []string) string { return fmt.Sprintf("check_ray_flag(ctx.ray, %s)", a[0]) }},
	"lookup/2":         {2, KindNumber, func(a []string) string { return fmt.Sprintf("lookup(%s, %s)", a[0], a[1]) }},

	"bump/2":                     {2, KindVector, func(a []string) string { return fmt.Sprintf("bump_shading_normal(%s, %s)", a[0], a[1]) }},
	"ensure_valid_reflection/2":  {2, KindVector, func(a []string) string { return fmt.Sprintf("ensure_valid_reflection(%s, %s)", a[0], a[1]) }},
}

// collapseMinLength is the argument-length threshold at or above which a
// repeated argument is hoisted into a `let` closure instead of re-emitted
// inline (§4.5 "collapse heuristic for repeated arguments").
const collapseMinLength = 16

// Transpiler walks an Expr AST and emits Artic DSL text, tracking which
// internal variables were referenced (so the caller can decide which
// context fields a generated shader actually needs) and applying the
// repeated-argument collapse heuristic via monotonic a0, a1, ... names.
type Transpiler struct {
	usedVariables map[string]bool
	collapseNames map[string]string // arg text -> hoisted name, once seen >= 2 times by this Transpiler
	collapseSeen  map[string]int
	nextCollapse  int
	header        []string
}

func NewTranspiler() *Transpiler {
	return &Transpiler{
		usedVariables: make(map[string]bool),
		collapseNames: make(map[string]string),
		collapseSeen:  make(map[string]int),
	}
}

// UsedVariables returns the set of internal-variable names referenced since
// construction; the order of first use is not recorded.
func (t *Transpiler) UsedVariables() map[string]bool { return t.usedVariables }

// Header returns any `let` bindings the collapse heuristic hoisted, in the
// order they were introduced.
func (t *Transpiler) Header() []string { return t.header }

func (t *Transpiler) TranspileNumber(src string) (Result, error) {
	return t.transpile(src, KindNumber)
}

func (t *Transpiler) TranspileColor(src string) (Result, error) {
	return t.transpile(src, KindColor)
}

func (t *Transpiler) TranspileVector(src string) (Result, error) {
	return t.transpile(src, KindVector)
}

func (t *Transpiler) transpile(src string, want ValueKind) (Result, error) {
	expr, err := ParseExpr(src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	res, err := t.emit(expr)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	if want == KindColor && res.Kind == KindNumber {
		res = Result{Text: fmt.Sprintf("make_gray_color(%s)", res.Text), Kind: KindColor}
	} else if want == KindNumber && res.Kind == KindColor {
		res = Result{Text: fmt.Sprintf("color_average(%s)", res.Text), Kind: KindNumber}
	}
	return res, nil
}

func (t *Transpiler) emit(e Expr) (Result, error) {
	switch n := e.(type) {
	case NumberExpr:
		return Result{Text: formatFloat(n.Value), Kind: KindNumber}, nil

	case IdentExpr:
		v, ok := internalVariables[n.Name]
		if !ok {
			return Result{}, fmt.Errorf("unknown identifier %q", n.Name)
		}
		t.usedVariables[n.Name] = true
		return Result{Text: v.dsl, Kind: v.kind}, nil

	case SwizzleExpr:
		base, err := t.emit(n.Base)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: fmt.Sprintf("%s.%s", t.maybeCollapse(base.Text), n.Pattern), Kind: KindVector}, nil

	case BinOpExpr:
		left, err := t.emit(n.Left)
		if err != nil {
			return Result{}, err
		}
		right, err := t.emit(n.Right)
		if err != nil {
			return Result{}, err
		}
		if left.Text == right.Text && (n.Op == '-' || n.Op == '/') {
			// constant-fold a-a => 0, a/a => 1 (§4.5 "literal folding").
			if n.Op == '-' {
				return Result{Text: "0", Kind: KindNumber}, nil
			}
			return Result{Text: "1", Kind: KindNumber}, nil
		}
		kind := left.Kind
		if right.Kind == KindColor || left.Kind == KindColor {
			kind = KindColor
		} else if right.Kind == KindVector || left.Kind == KindVector {
			kind = KindVector
		}
		opName := map[byte]string{'+': "add", '-': "sub", '*': "mul", '/': "div"}[n.Op]
		return Result{Text: fmt.Sprintf("%s(%s, %s)", opName, t.maybeCollapse(left.Text), t.maybeCollapse(right.Text)), Kind: kind}, nil

	case CallExpr:
		args := make([]string, len(n.Args))
		var kinds []ValueKind
		for i, a := range n.Args {
			r, err := t.emit(a)
			if err != nil {
				return Result{}, err
			}
			args[i] = t.maybeCollapse(r.Text)
			kinds = append(kinds, r.Kind)
		}
		key := fn(n.Name, len(args), 0, nil)
		sig, ok := internalFunctions[key]
		if !ok {
			return Result{}, fmt.Errorf("unknown function %s/%d", n.Name, len(args))
		}
		return Result{Text: sig.emit(args), Kind: sig.kind}, nil

	default:
		return Result{}, fmt.Errorf("unhandled expression node %T", e)
	}
}

// maybeCollapse hoists text into a `let` binding the second time it is seen
// within this Transpiler's lifetime, provided it is long enough to be worth
// the indirection (§4.5 collapse heuristic).
func (t *Transpiler) maybeCollapse(text string) string {
	if len(text) < collapseMinLength {
		return text
	}
	if name, ok := t.collapseNames[text]; ok {
		return name
	}
	t.collapseSeen[text]++
	if t.collapseSeen[text] < 2 {
		return text
	}
	name := fmt.Sprintf("a%d", t.nextCollapse)
	t.nextCollapse++
	t.collapseNames[text] = name
	t.header = append(t.header, fmt.Sprintf("let %s = %s;", name, text))
	return name
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ":f32"
	}
	return s
}
