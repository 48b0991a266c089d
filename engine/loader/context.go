// Package loader orchestrates the load-time pipeline (§2, §4.2-§4.6): shape
// loading, entity/material deduplication, light classification, scene BVH
// construction. LoaderContext is the single mutable aggregate every stage
// writes into, directly modeled on the teacher's subsystem-registry
// pattern in engine/systems/manager.go generalized to own the scene
// database instead of renderer subsystems, and on the original's
// LoaderContext (src/runtime/loader/LoaderContext.h) for field shape.
package loader

import (
	"sync"

	"github.com/spaghettifunk/anima/engine/config"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/math"
)

// Material is the deduplication key for hit-shader generation (§3, §4.3):
// (bsdf, inner medium, outer medium, emitter entity). Count tracks how many
// entities share the material but is excluded from Equal, matching the
// original's `operator==` which "ignores Count".
type Material struct {
	BSDF          string
	MediumInner   int // -1 if absent
	MediumOuter   int // -1 if absent
	EmitterEntity string // empty if not emissive
	Count         int
}

func (m Material) HasEmission() bool { return m.EmitterEntity != "" }
func (m Material) HasMediumInterface() bool {
	return m.MediumInner >= 0 || m.MediumOuter >= 0
}

// Equal compares the dedup tuple only, ignoring Count (§4.3 step 6).
func (m Material) Equal(other Material) bool {
	return m.BSDF == other.BSDF &&
		m.MediumInner == other.MediumInner &&
		m.MediumOuter == other.MediumOuter &&
		m.EmitterEntity == other.EmitterEntity
}

// Context is the single owner of the scene database, dedup maps,
// resource-interning map and exported-data cache (§3 "Ownership summary").
type Context struct {
	mu sync.Mutex

	Options *config.Options
	Target  device.Target
	Stats   *core.Statistics

	// SceneBBox/SceneDiameter accumulate across every loaded entity (§4.3
	// step 5, a Supplemented feature carried from the original's
	// `SceneBBox`/`SceneDiameter` fields).
	SceneBBox     math.BoundingBox
	SceneDiameter float32

	Materials        []Material
	EntityToMaterial map[string]int

	// EmissiveEntities is populated during light-prepare (§4.4 prepare
	// step) before entity loading runs, so entity dedup can tag the
	// right material as emissive (§4.3 step 6).
	EmissiveEntities map[string]bool

	// RegisteredResources interns external resource paths to dense ids
	// (§3 LoaderContext field, original `registerExternalResource`).
	RegisteredResources map[string]int

	// ExportedData caches persisted auxiliary files by key (§6.4):
	// "reruns reuse the file iff ExportedData already contains the key".
	ExportedData map[string]bool

	LocalRegistry *device.ParameterSet

	HasError bool
	Errors   []error
}

func NewContext(opts *config.Options, target device.Target) *Context {
	return &Context{
		Options:             opts,
		Target:              target,
		Stats:               core.NewStatistics(),
		SceneBBox:           math.NewEmptyBoundingBox(),
		EntityToMaterial:    make(map[string]int),
		EmissiveEntities:    make(map[string]bool),
		RegisteredResources: make(map[string]int),
		ExportedData:        make(map[string]bool),
		LocalRegistry:       device.NewParameterSet(),
	}
}

// SignalError marks the context as errored and accumulates err (§7: "all
// non-fatal errors accumulate into HasError"). Safe for concurrent callers.
func (c *Context) SignalError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.HasError = true
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

// ResetRegistry clears the per-shader local parameter registry (§3
// LoaderContext.resetRegistry, consumed once per shader emission).
func (c *Context) ResetRegistry() {
	c.LocalRegistry = device.NewParameterSet()
}

// RegisterResource interns path to a dense id, returning the existing id if
// already registered (§3 registerExternalResource).
func (c *Context) RegisterResource(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.RegisteredResources[path]; ok {
		return id
	}
	id := len(c.RegisteredResources)
	c.RegisteredResources[path] = id
	return id
}

// ResourceMap inverts RegisteredResources back into path-by-id order
// (§3 generateResourceMap).
func (c *Context) ResourceMap() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.RegisteredResources))
	for path, id := range c.RegisteredResources {
		out[id] = path
	}
	return out
}

// ExtendSceneBBox folds box into the running scene bounding box and
// refreshes SceneDiameter (§4.3 step 5).
func (c *Context) ExtendSceneBBox(box math.BoundingBox) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SceneBBox = c.SceneBBox.Union(box)
	c.SceneDiameter = c.SceneBBox.Diameter()
}

// addMaterial finds or appends m (ignoring Count), bumps the matched
// material's Count, and returns its id (§4.3 step 6). addMaterial takes
// c.mu itself, so callers must not already hold it.
func (c *Context) addMaterial(m Material) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.Materials {
		if c.Materials[i].Equal(m) {
			c.Materials[i].Count++
			return i
		}
	}
	m.Count = 1
	c.Materials = append(c.Materials, m)
	return len(c.Materials) - 1
}

// IsEmissiveEntity reports whether entity name was tagged during light
// prepare (§4.4 prepare step, §4.3 step 6).
func (c *Context) IsEmissiveEntity(name string) bool {
	return c.EmissiveEntities[name]
}

// MarkEmissiveEntity tags an entity name as hosting an area light.
func (c *Context) MarkEmissiveEntity(name string) {
	c.EmissiveEntities[name] = true
}
