package device

// Handle is the stable C-like device surface (§6.2) the loader generates
// shader source against and (at runtime) calls into to launch a shader and
// read back results. It is an opaque handle from the loader's point of
// view — the loader never introspects device-side state beyond what these
// methods report — directly modeled on the teacher's `RendererBackend`
// interface (engine/renderer/backend.go), generalized from "submit a
// compiled graphics pipeline" to "compile+launch a generated DSL shader".
type Handle interface {
	Initialize(target Target, deviceIndex int) error
	Shutdown() error

	// Buffer allocation and name-based lookup.
	BufferAllocate(name string, sizeBytes uint64) (bufferID uint32, err error)
	BufferLookup(name string) (bufferID uint32, ok bool)
	BufferWrite(bufferID uint32, offset uint64, data []byte) error

	// Image loading with channel-count hints (textures, baked images).
	ImageLoad(path string, channelHint int) (imageID uint32, err error)

	// BVH loading by tag (one scene BVH per shape-provider identifier, §4.6).
	BVHLoad(tag string, flatNodes []byte, leaves []byte) error

	// Ray-table access, used when operating as a tracer (light tracer, PPM
	// photon pass) rather than through the camera pixel sampler.
	RayTableSet(rays []byte) error
	RayTableGet() ([]byte, error)

	// AOV image access / framebuffer update (§4.9 step 2e).
	AOVImage(name string) (pixels []float32, width, height int, err error)
	FramebufferUpdate(pixels []float32, width, height int) error

	// Typed parameter registries (§6.2).
	Parameters() *ParameterSet

	// Shader launch entry points (§4.8, §4.9 step 2c/2d). width/height/spp
	// address a single variant's launch dimensions (possibly overridden,
	// §4.7 Variant.OverrideWidth/Height/SPI).
	HandleMissShader(source CompiledShader, width, height, spp int) error
	HandleHitShader(source CompiledShader, materialID uint32, width, height, spp int) error
	HandleAdvancedShadowShader(source CompiledShader, width, height, spp int) error
	HandleTraversalPrimaryShader(width, height, spp int) error
	HandleTraversalSecondaryShader(width, height, spp int) error
	GenerateRays(source CompiledShader, width, height, spp int) error

	// Service shaders (§6.2).
	Tonemap(source CompiledShader) error
	Glare(source CompiledShader) error
	ImageInfo(source CompiledShader) (ImageInfoResult, error)
}

// ImageInfoResult is the summary statistics the imageinfo service shader
// reports back (min/max/avg luminance and similar), consumed by the
// runtime's per-iteration statistics aggregation.
type ImageInfoResult struct {
	Min, Max, Avg float32
}

// Compiler is the external just-in-time shader compiler (§6.3): prepare
// resolves includes/macros in generated source, compile produces an opaque
// shader handle. Neither is implemented here — it is consumed through this
// narrow interface only.
type Compiler interface {
	Prepare(source string) (string, error)
	Compile(prepared string, entryName string) (CompiledShader, error)
}

// CompiledShader is an opaque handle returned by Compiler.Compile. The
// loader does not introspect it (§6.3).
type CompiledShader struct {
	EntryName string
	handle    interface{}
}

func NewCompiledShader(entryName string, handle interface{}) CompiledShader {
	return CompiledShader{EntryName: entryName, handle: handle}
}
