package shading

// EmbedType controls whether a property value is baked into the generated
// DSL as a literal or left as a dynamic parameter-registry lookup (§4.5,
// grounded on ShadingTree.h's EmbedType enum).
type EmbedType int

const (
	// EmbedDynamic never embeds: the value always goes through the
	// parameter registry, so it can change between frames without a
	// shader recompile.
	EmbedDynamic EmbedType = iota
	// EmbedStructural always embeds: the value is baked in because it
	// changes the shader's structure (e.g. a texture's resolution).
	EmbedStructural
	// EmbedDefault embeds only when one of the options' Specialize*
	// predicates matches the actual value, or ForceSpecialization is set.
	EmbedDefault
)

// NumberOptions configures scalar property acquisition (§4.5).
type NumberOptions struct {
	Type           EmbedType
	SpecializeZero bool
	SpecializeOne  bool
}

func NumberOptionsDynamic() NumberOptions    { return NumberOptions{Type: EmbedDynamic} }
func NumberOptionsStructural() NumberOptions { return NumberOptions{Type: EmbedStructural} }
func NumberOptionsFull() NumberOptions {
	return NumberOptions{Type: EmbedDefault, SpecializeZero: true, SpecializeOne: true}
}
func NumberOptionsZero() NumberOptions { return NumberOptions{Type: EmbedDefault, SpecializeZero: true} }
func NumberOptionsOne() NumberOptions   { return NumberOptions{Type: EmbedDefault, SpecializeOne: true} }
func NumberOptionsNone() NumberOptions  { return NumberOptions{Type: EmbedDefault} }

// ColorOptions configures color property acquisition (§4.5).
type ColorOptions struct {
	Type            EmbedType
	SpecializeBlack bool
	SpecializeWhite bool
}

func ColorOptionsDynamic() ColorOptions    { return ColorOptions{Type: EmbedDynamic} }
func ColorOptionsStructural() ColorOptions { return ColorOptions{Type: EmbedStructural} }
func ColorOptionsFull() ColorOptions {
	return ColorOptions{Type: EmbedDefault, SpecializeBlack: true, SpecializeWhite: true}
}
func ColorOptionsBlack() ColorOptions { return ColorOptions{Type: EmbedDefault, SpecializeBlack: true} }
func ColorOptionsWhite() ColorOptions { return ColorOptions{Type: EmbedDefault, SpecializeWhite: true} }
func ColorOptionsNone() ColorOptions  { return ColorOptions{Type: EmbedDefault} }

// VectorOptions configures vector property acquisition (§4.5).
type VectorOptions struct {
	Type            EmbedType
	SpecializeZero  bool
	SpecializeOne   bool
	SpecializeUnitX bool
	SpecializeUnitY bool
	SpecializeUnitZ bool
}

func VectorOptionsDynamic() VectorOptions    { return VectorOptions{Type: EmbedDynamic} }
func VectorOptionsStructural() VectorOptions { return VectorOptions{Type: EmbedStructural} }
func VectorOptionsFull() VectorOptions {
	return VectorOptions{Type: EmbedDefault, SpecializeZero: true, SpecializeOne: true}
}
func VectorOptionsNone() VectorOptions { return VectorOptions{Type: EmbedDefault} }

// TextureOptions configures texture property acquisition (§4.5).
type TextureOptions struct {
	Type EmbedType
}

func TextureOptionsDynamic() TextureOptions    { return TextureOptions{Type: EmbedDynamic} }
func TextureOptionsStructural() TextureOptions { return TextureOptions{Type: EmbedStructural} }

// TextureBakeOptions configures the rasterization grid bakeTexture uses
// when a texture must be flattened to a 2-D image ahead of time (§4.5).
type TextureBakeOptions struct {
	Width, Height int
	SkipConstant  bool
}

func TextureBakeOptionsDefault() TextureBakeOptions {
	return TextureBakeOptions{Width: 1024, Height: 1024, SkipConstant: false}
}
