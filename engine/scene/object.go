package scene

import "sort"

// Kind is the reserved object-kind tag (§6.1).
type Kind string

const (
	KindShape     Kind = "shape"
	KindBSDF      Kind = "bsdf"
	KindMedium    Kind = "medium"
	KindTexture   Kind = "texture"
	KindLight     Kind = "light"
	KindEntity    Kind = "entity"
	KindCamera    Kind = "camera"
	KindTechnique Kind = "technique"
)

// Object is one declared scene object: a kind, a name, a plugin-type, and
// a string-keyed property map (§3, §6.1).
type Object struct {
	Kind       Kind
	Name       string
	PluginType string
	Properties map[string]Property
}

func NewObject(kind Kind, name, pluginType string) *Object {
	return &Object{
		Kind:       kind,
		Name:       name,
		PluginType: pluginType,
		Properties: make(map[string]Property),
	}
}

func (o *Object) Get(name string) (Property, bool) {
	p, ok := o.Properties[name]
	return p, ok
}

// GetNumber reads a number/integer property, or returns def if absent.
func (o *Object) GetNumber(name string, def float64) float64 {
	p, ok := o.Properties[name]
	if !ok {
		return def
	}
	v, err := p.AsNumber()
	if err != nil {
		return def
	}
	return v
}

func (o *Object) GetString(name string, def string) string {
	p, ok := o.Properties[name]
	if !ok || p.Kind != PropertyString {
		return def
	}
	return p.String
}

// GetBool implements the "camera_visible|light_visible|bounce_visible|
// shadow_visible booleans (default true)" rule from §4.3 step 4: properties
// are stored as Integer 0/1 by the TOML parser (TOML has no bare bool
// Property kind here — booleans decode to Integer, see parse.go).
func (o *Object) GetBool(name string, def bool) bool {
	p, ok := o.Properties[name]
	if !ok {
		return def
	}
	if p.Kind == PropertyInteger {
		return p.Integer != 0
	}
	b, err := p.AsBool()
	if err != nil {
		return def
	}
	return b
}

// Scene is the full bag of declared objects (§3): grouped by kind for
// cheap name resolution during loading, plus the single camera and
// technique objects every scene must declare exactly one of.
type Scene struct {
	Shapes    map[string]*Object
	BSDFs     map[string]*Object
	Media     map[string]*Object
	Textures  map[string]*Object
	Lights    map[string]*Object
	Entities  map[string]*Object
	Camera    *Object
	Technique *Object
}

func NewScene() *Scene {
	return &Scene{
		Shapes:   make(map[string]*Object),
		BSDFs:    make(map[string]*Object),
		Media:    make(map[string]*Object),
		Textures: make(map[string]*Object),
		Lights:   make(map[string]*Object),
		Entities: make(map[string]*Object),
	}
}

// SortedEntityNames returns entity names in deterministic sorted order, the
// "deterministic by sorting on input name" rule §8 requires for
// idempotent prepare() across provider maps.
func (s *Scene) SortedEntityNames() []string {
	names := make([]string, 0, len(s.Entities))
	for n := range s.Entities {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

func (s *Scene) SortedLightNames() []string {
	names := make([]string, 0, len(s.Lights))
	for n := range s.Lights {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

func (s *Scene) SortedShapeNames() []string {
	names := make([]string, 0, len(s.Shapes))
	for n := range s.Shapes {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	sort.Strings(s)
}
