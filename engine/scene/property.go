// Package scene models the declarative scene description (§6.1): a bag of
// named objects grouped by kind, each with a plugin-type and a
// string-keyed property map. The on-disk format is TOML
// (github.com/pelletier/go-toml/v2, a teacher dependency) — its tables map
// directly onto "kind, name, plugin-type, property map" (§3), the same way
// the teacher's `.amt` material files map onto `MaterialConfig` fields in
// `engine/assets/loaders/material.go`.
package scene

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/math"
)

// PropertyKind is the tag of a Property's active field (§3, §6.1).
type PropertyKind int

const (
	PropertyInteger PropertyKind = iota
	PropertyNumber
	PropertyVector3
	PropertyString
	PropertyTransform
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyInteger:
		return "integer"
	case PropertyNumber:
		return "number"
	case PropertyVector3:
		return "vector3"
	case PropertyString:
		return "string"
	case PropertyTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// Property is one entry of an Object's property map. Exactly one of the
// typed fields is meaningful, selected by Kind. String properties may
// themselves be PExpr source (§4.5) rather than a plain literal; callers
// that need a literal string use IsExpression to decide whether to
// transpile first.
type Property struct {
	Kind      PropertyKind
	Integer   int64
	Number    float64
	Vector3   math.Vec3
	String    string
	Transform math.Mat4
}

func NewIntegerProperty(v int64) Property    { return Property{Kind: PropertyInteger, Integer: v} }
func NewNumberProperty(v float64) Property   { return Property{Kind: PropertyNumber, Number: v} }
func NewVector3Property(v math.Vec3) Property { return Property{Kind: PropertyVector3, Vector3: v} }
func NewStringProperty(v string) Property    { return Property{Kind: PropertyString, String: v} }
func NewTransformProperty(v math.Mat4) Property {
	return Property{Kind: PropertyTransform, Transform: v}
}

// AsNumber coerces an Integer or Number property to float64; used by
// property acquisition in the shading tree (§4.5) where int/number are
// interchangeable.
func (p Property) AsNumber() (float64, error) {
	switch p.Kind {
	case PropertyNumber:
		return p.Number, nil
	case PropertyInteger:
		return float64(p.Integer), nil
	default:
		return 0, fmt.Errorf("scene: property is a %s, not a number", p.Kind)
	}
}

func (p Property) AsBool() (bool, error) {
	switch p.Kind {
	case PropertyInteger:
		return p.Integer != 0, nil
	case PropertyString:
		switch p.String {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("scene: property string %q is not a boolean literal", p.String)
	default:
		return false, fmt.Errorf("scene: property is a %s, not a boolean", p.Kind)
	}
}

// IsExpression reports whether a string property should be treated as
// PExpr source rather than a plain literal (§4.5): by convention, any
// string property value is potentially PExpr — the transpiler decides
// whether it parses as a bare literal or a full expression.
func (p Property) IsExpression() bool {
	return p.Kind == PropertyString
}
