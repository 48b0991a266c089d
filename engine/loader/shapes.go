package loader

import (
	"fmt"
	stdmath "math"
	"sync"

	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/scene"
	"github.com/spaghettifunk/anima/engine/serializer"
)

// Provider is the shape-provider kind a plugin-type dispatches to (§4.2).
type Provider string

const (
	ProviderTriMesh Provider = "trimesh"
	ProviderSphere  Provider = "sphere"
)

// providerTable maps every reserved shape plugin-type to its provider
// (§4.2: "triangle, rectangle, cube, box, icosphere, uvsphere, cylinder,
// cone, disk, gauss, obj, ply, mitsuba, external map to the trimesh
// provider; sphere maps to the sphere provider"), grounded directly on the
// original's `_generators` table in LoaderShape.cpp.
var providerTable = map[string]Provider{
	"triangle":  ProviderTriMesh,
	"rectangle": ProviderTriMesh,
	"cube":      ProviderTriMesh,
	"box":       ProviderTriMesh,
	"icosphere": ProviderTriMesh,
	"uvsphere":  ProviderTriMesh,
	"cylinder":  ProviderTriMesh,
	"cone":      ProviderTriMesh,
	"disk":      ProviderTriMesh,
	"gauss":     ProviderTriMesh,
	"obj":       ProviderTriMesh,
	"ply":       ProviderTriMesh,
	"mitsuba":   ProviderTriMesh,
	"external":  ProviderTriMesh,
	"sphere":    ProviderSphere,
}

// ResolveProvider implements the prepare-phase provider registration rule
// (§4.2: "the prepare phase ... registers exactly the providers actually
// needed").
func ResolveProvider(pluginType string) (Provider, bool) {
	p, ok := providerTable[pluginType]
	return p, ok
}

// Face is a 4-wide triangle record: three vertex indices plus a material
// slot, matching the dynamic shapes table layout (§4.2 step 3, §3).
type Face [4]uint32

// TriMeshData is the synthesized geometry for one trimesh-provider shape
// before it is written to the shared shapes blob.
type TriMeshData struct {
	Positions       []math.Vec3
	Normals         []math.Vec3
	FaceNormals     []math.Vec3
	Texcoords       []math.Vec2
	Faces           []Face
	FaceInverseArea []float32
}

// ShapeRecord is one entry of the shape table (§3 Shape): id, provider,
// bbox, table offset, kind-specific auxiliary data.
type ShapeRecord struct {
	ID       int
	Name     string
	Provider Provider
	BBox     math.BoundingBox
	Offset   int

	// TriMesh aux (§3: "vertex/face/tex/normal counts, area").
	FaceCount   uint32
	VertexCount uint32
	NormalCount uint32
	TexCount    uint32
	Area        float32

	// Sphere aux (§3: "origin, radius").
	Origin math.Vec3
	Radius float32
}

// Database is the accumulated shape-load output: the name→record map plus
// the append-only shapes dynamic table blob (§3 "dynamic tables: shapes").
type Database struct {
	Records map[string]*ShapeRecord
	Blob    *serializer.Serializer
}

// LoadShapes runs the parallel shape-load phase (§4.2, §5): shape ids are
// assigned deterministically up front by sorted name (so `prepare` stays
// idempotent across runs, §8 idempotence), then each shape's geometry
// synthesis and blob write run as independent WorkPool tasks, serialized
// only by the table mutex (§5 "synchronizes only on the shape-table
// append").
func LoadShapes(ctx *Context, sc *scene.Scene, pool *WorkPool) (*Database, error) {
	names := sc.SortedShapeNames()
	db := &Database{
		Records: make(map[string]*ShapeRecord, len(names)),
		Blob:    serializer.NewWriter(),
	}
	var tableMu sync.Mutex

	for i, name := range names {
		i, name := i, name
		obj := sc.Shapes[name]
		provider, ok := ResolveProvider(obj.PluginType)
		if !ok {
			ctx.SignalError(fmt.Errorf("%w: shape %q has unknown plugin-type %q", errUnknownPluginType, name, obj.PluginType))
			continue
		}

		rec := &ShapeRecord{ID: i, Name: name, Provider: provider}
		db.Records[name] = rec

		pool.Submit(func() error {
			switch provider {
			case ProviderTriMesh:
				return loadTriMeshShape(ctx, obj, rec, db.Blob, &tableMu)
			case ProviderSphere:
				return loadSphereShape(obj, rec)
			default:
				return fmt.Errorf("%w: provider %q", errUnknownPluginType, provider)
			}
		})
	}

	if errs := pool.Wait(); len(errs) > 0 {
		for _, e := range errs {
			ctx.SignalError(e)
		}
	}

	for _, rec := range db.Records {
		if !rec.BBox.IsEmpty() {
			ctx.ExtendSceneBBox(rec.BBox)
		}
	}

	return db, nil
}

var errUnknownPluginType = fmt.Errorf("loader: unknown shape plugin-type")
var errStructuralShape = fmt.Errorf("loader: structural shape error")

func loadSphereShape(obj *scene.Object, rec *ShapeRecord) error {
	radius := float32(obj.GetNumber("radius", 1.0))
	origin := math.Vec3{}
	if p, ok := obj.Get("origin"); ok && p.Kind == scene.PropertyVector3 {
		origin = p.Vector3
	}
	rec.Origin = origin
	rec.Radius = radius
	rec.BBox = math.BoundingBox{
		Min: math.Vec3{X: origin.X - radius, Y: origin.Y - radius, Z: origin.Z - radius},
		Max: math.Vec3{X: origin.X + radius, Y: origin.Y + radius, Z: origin.Z + radius},
	}.Inflate()
	return nil
}

func loadTriMeshShape(ctx *Context, obj *scene.Object, rec *ShapeRecord, blob *serializer.Serializer, mu *sync.Mutex) error {
	mesh, err := synthesizeTriMesh(obj)
	if err != nil {
		return fmt.Errorf("%w: shape %q: %v", errStructuralShape, rec.Name, err)
	}
	if len(mesh.Positions) == 0 || len(mesh.Faces) == 0 {
		return fmt.Errorf("%w: shape %q has no geometry", errStructuralShape, rec.Name)
	}

	bbox := math.NewEmptyBoundingBox()
	for _, p := range mesh.Positions {
		bbox = bbox.Extend(p)
	}
	rec.BBox = bbox.Inflate()

	var totalArea float32
	for _, a := range mesh.FaceInverseArea {
		if a > 0 {
			totalArea += 1 / a
		}
	}
	rec.Area = totalArea
	rec.FaceCount = uint32(len(mesh.Faces))
	rec.VertexCount = uint32(len(mesh.Positions))
	rec.NormalCount = uint32(len(mesh.Normals))
	rec.TexCount = uint32(len(mesh.Texcoords))

	mu.Lock()
	defer mu.Unlock()
	rec.Offset = blob.Cursor()
	writeTriMeshBlob(blob, mesh)
	return nil
}

// writeTriMeshBlob appends one mesh's blob per §4.2 step 3: face count,
// vertex count, normal count, tex count, then 16-byte aligned vertex
// positions, normals, face-normals, indices (4-wide), texcoords, and
// per-face inverse area.
func writeTriMeshBlob(w *serializer.Serializer, mesh *TriMeshData) {
	w.WriteU32(uint32(len(mesh.Faces)))
	w.WriteU32(uint32(len(mesh.Positions)))
	w.WriteU32(uint32(len(mesh.Normals)))
	w.WriteU32(uint32(len(mesh.Texcoords)))
	w.EnsureAlignment(serializer.DefaultAlignment)

	for _, p := range mesh.Positions {
		w.WriteF32(p.X)
		w.WriteF32(p.Y)
		w.WriteF32(p.Z)
	}
	w.EnsureAlignment(serializer.DefaultAlignment)

	for _, n := range mesh.Normals {
		w.WriteF32(n.X)
		w.WriteF32(n.Y)
		w.WriteF32(n.Z)
	}
	w.EnsureAlignment(serializer.DefaultAlignment)

	for _, n := range mesh.FaceNormals {
		w.WriteF32(n.X)
		w.WriteF32(n.Y)
		w.WriteF32(n.Z)
	}
	w.EnsureAlignment(serializer.DefaultAlignment)

	for _, f := range mesh.Faces {
		w.WriteU32(f[0])
		w.WriteU32(f[1])
		w.WriteU32(f[2])
		w.WriteU32(f[3])
	}
	w.EnsureAlignment(serializer.DefaultAlignment)

	for _, t := range mesh.Texcoords {
		w.WriteF32(t.X)
		w.WriteF32(t.Y)
	}
	w.EnsureAlignment(serializer.DefaultAlignment)

	for _, a := range mesh.FaceInverseArea {
		w.WriteF32(a)
	}
	w.EnsureAlignment(serializer.DefaultAlignment)
}

// synthesizeTriMesh dispatches on plugin-type to build analytic geometry
// for the primitive shapes the trimesh provider is responsible for. File
// formats ("obj", "ply", "mitsuba") and externally-referenced meshes
// ("external") delegate to an external mesh reader outside this package's
// scope (tabular/geometry file I/O is listed out of scope, §1); here they
// are not loaded: they return an errStructuralShape error.
func synthesizeTriMesh(obj *scene.Object) (*TriMeshData, error) {
	switch obj.PluginType {
	case "triangle":
		return triangleMesh(obj), nil
	case "rectangle":
		return rectangleMesh(obj), nil
	case "cube", "box":
		return boxMesh(obj), nil
	case "disk":
		return diskMesh(obj), nil
	case "icosphere", "uvsphere":
		return uvSphereMesh(obj), nil
	case "cylinder":
		return cylinderMesh(obj), nil
	case "cone":
		return coneMesh(obj), nil
	case "gauss":
		return uvSphereMesh(obj), nil
	case "obj", "ply", "mitsuba", "external":
		return nil, fmt.Errorf("%w: external mesh file formats are not readable without a MeshFileReader", errStructuralShape)
	default:
		return nil, fmt.Errorf("unsupported trimesh plugin-type %q", obj.PluginType)
	}
}

func triangleMesh(obj *scene.Object) *TriMeshData {
	p0 := vec3Prop(obj, "p0", math.Vec3{X: 0, Y: 0, Z: 0})
	p1 := vec3Prop(obj, "p1", math.Vec3{X: 1, Y: 0, Z: 0})
	p2 := vec3Prop(obj, "p2", math.Vec3{X: 0, Y: 1, Z: 0})
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	area := n.Length() / 2
	n = n.Normalize()
	return &TriMeshData{
		Positions:       []math.Vec3{p0, p1, p2},
		Normals:         []math.Vec3{n, n, n},
		FaceNormals:     []math.Vec3{n},
		Texcoords:       []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Faces:           []Face{{0, 1, 2, 0}},
		FaceInverseArea: []float32{invArea(area)},
	}
}

func rectangleMesh(obj *scene.Object) *TriMeshData {
	w := float32(obj.GetNumber("width", 1.0))
	h := float32(obj.GetNumber("height", 1.0))
	hw, hh := w/2, h/2
	positions := []math.Vec3{
		{X: -hw, Y: -hh, Z: 0}, {X: hw, Y: -hh, Z: 0},
		{X: hw, Y: hh, Z: 0}, {X: -hw, Y: hh, Z: 0},
	}
	n := math.Vec3{X: 0, Y: 0, Z: 1}
	area := w * h / 2
	return &TriMeshData{
		Positions:   positions,
		Normals:     []math.Vec3{n, n, n, n},
		FaceNormals: []math.Vec3{n, n},
		Texcoords: []math.Vec2{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
		Faces:           []Face{{0, 1, 2, 0}, {0, 2, 3, 0}},
		FaceInverseArea: []float32{invArea(area), invArea(area)},
	}
}

func boxMesh(obj *scene.Object) *TriMeshData {
	w := float32(obj.GetNumber("width", 1.0))
	h := float32(obj.GetNumber("height", 1.0))
	d := float32(obj.GetNumber("depth", 1.0))
	hw, hh, hd := w/2, h/2, d/2

	corners := [8]math.Vec3{
		{X: -hw, Y: -hh, Z: -hd}, {X: hw, Y: -hh, Z: -hd}, {X: hw, Y: hh, Z: -hd}, {X: -hw, Y: hh, Z: -hd},
		{X: -hw, Y: -hh, Z: hd}, {X: hw, Y: -hh, Z: hd}, {X: hw, Y: hh, Z: hd}, {X: -hw, Y: hh, Z: hd},
	}
	// Six quads (two triangles each), one per axis-aligned face.
	quads := [6][4]int{
		{0, 1, 2, 3}, // -z
		{5, 4, 7, 6}, // +z
		{4, 0, 3, 7}, // -x
		{1, 5, 6, 2}, // +x
		{4, 5, 1, 0}, // -y
		{3, 2, 6, 7}, // +y
	}
	normals := [6]math.Vec3{
		{X: 0, Y: 0, Z: -1}, {X: 0, Y: 0, Z: 1},
		{X: -1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 0, Y: -1, Z: 0}, {X: 0, Y: 1, Z: 0},
	}

	mesh := &TriMeshData{}
	for qi, q := range quads {
		base := uint32(len(mesh.Positions))
		for _, ci := range q {
			mesh.Positions = append(mesh.Positions, corners[ci])
			mesh.Normals = append(mesh.Normals, normals[qi])
		}
		mesh.Texcoords = append(mesh.Texcoords,
			math.Vec2{X: 0, Y: 0}, math.Vec2{X: 1, Y: 0}, math.Vec2{X: 1, Y: 1}, math.Vec2{X: 0, Y: 1})
		mesh.Faces = append(mesh.Faces, Face{base, base + 1, base + 2, 0}, Face{base, base + 2, base + 3, 0})
		mesh.FaceNormals = append(mesh.FaceNormals, normals[qi], normals[qi])
		mesh.FaceInverseArea = append(mesh.FaceInverseArea,
			invArea(faceAreaOf(corners[q[0]], corners[q[1]], corners[q[2]])/2),
			invArea(faceAreaOf(corners[q[0]], corners[q[2]], corners[q[3]])/2))
	}
	return mesh
}

func diskMesh(obj *scene.Object) *TriMeshData {
	radius := float32(obj.GetNumber("radius", 1.0))
	segments := int(obj.GetNumber("segments", 16))
	if segments < 3 {
		segments = 3
	}
	mesh := &TriMeshData{}
	center := math.Vec3{}
	mesh.Positions = append(mesh.Positions, center)
	mesh.Normals = append(mesh.Normals, math.Vec3{X: 0, Y: 0, Z: 1})
	mesh.Texcoords = append(mesh.Texcoords, math.Vec2{X: 0.5, Y: 0.5})
	for i := 0; i < segments; i++ {
		theta := 2 * 3.14159265 * float32(i) / float32(segments)
		p := math.Vec3{X: radius * cosApprox(theta), Y: radius * sinApprox(theta), Z: 0}
		mesh.Positions = append(mesh.Positions, p)
		mesh.Normals = append(mesh.Normals, math.Vec3{X: 0, Y: 0, Z: 1})
		mesh.Texcoords = append(mesh.Texcoords, math.Vec2{X: 0.5 + 0.5*cosApprox(theta), Y: 0.5 + 0.5*sinApprox(theta)})
	}
	for i := 0; i < segments; i++ {
		a := uint32(1 + i)
		b := uint32(1 + (i+1)%segments)
		mesh.Faces = append(mesh.Faces, Face{0, a, b, 0})
		mesh.FaceNormals = append(mesh.FaceNormals, math.Vec3{X: 0, Y: 0, Z: 1})
		triArea := faceAreaOf(center, mesh.Positions[a], mesh.Positions[b]) / 2
		mesh.FaceInverseArea = append(mesh.FaceInverseArea, invArea(triArea))
	}
	return mesh
}

// uvSphereMesh builds a latitude/longitude tessellated sphere, used for
// both "uvsphere" and "icosphere" plugin-types (both are smooth closed
// surfaces; the finer geodesic subdivision an icosphere specifically
// implies is a refinement this loader does not need to distinguish for
// scene-database purposes).
func uvSphereMesh(obj *scene.Object) *TriMeshData {
	radius := float32(obj.GetNumber("radius", 1.0))
	rings := int(obj.GetNumber("segments", 8))
	if rings < 2 {
		rings = 2
	}
	sectors := rings * 2

	mesh := &TriMeshData{}
	for r := 0; r <= rings; r++ {
		phi := 3.14159265 * float32(r) / float32(rings)
		for s := 0; s <= sectors; s++ {
			theta := 2 * 3.14159265 * float32(s) / float32(sectors)
			n := math.Vec3{
				X: sinApprox(phi) * cosApprox(theta),
				Y: cosApprox(phi),
				Z: sinApprox(phi) * sinApprox(theta),
			}
			mesh.Positions = append(mesh.Positions, n.MulScalar(radius))
			mesh.Normals = append(mesh.Normals, n)
			mesh.Texcoords = append(mesh.Texcoords, math.Vec2{X: float32(s) / float32(sectors), Y: float32(r) / float32(rings)})
		}
	}
	stride := sectors + 1
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			i0 := uint32(r*stride + s)
			i1 := uint32(r*stride + s + 1)
			i2 := uint32((r+1)*stride + s + 1)
			i3 := uint32((r+1)*stride + s)
			mesh.Faces = append(mesh.Faces, Face{i0, i1, i2, 0}, Face{i0, i2, i3, 0})
			a1 := faceAreaOf(mesh.Positions[i0], mesh.Positions[i1], mesh.Positions[i2]) / 2
			a2 := faceAreaOf(mesh.Positions[i0], mesh.Positions[i2], mesh.Positions[i3]) / 2
			mesh.FaceInverseArea = append(mesh.FaceInverseArea, invArea(a1), invArea(a2))
			fn := mesh.Normals[i0].Add(mesh.Normals[i1]).Add(mesh.Normals[i2]).Normalize()
			mesh.FaceNormals = append(mesh.FaceNormals, fn, fn)
		}
	}
	return mesh
}

func cylinderMesh(obj *scene.Object) *TriMeshData {
	return revolveMesh(obj, false)
}

func coneMesh(obj *scene.Object) *TriMeshData {
	return revolveMesh(obj, true)
}

// revolveMesh tessellates a cylinder (tapered=false) or cone
// (tapered=true, top radius 0) side surface between two rings.
func revolveMesh(obj *scene.Object, tapered bool) *TriMeshData {
	radius := float32(obj.GetNumber("radius", 1.0))
	height := float32(obj.GetNumber("height", 1.0))
	segments := int(obj.GetNumber("segments", 16))
	if segments < 3 {
		segments = 3
	}
	topRadius := radius
	if tapered {
		topRadius = 0
	}

	mesh := &TriMeshData{}
	for i := 0; i <= segments; i++ {
		theta := 2 * 3.14159265 * float32(i) / float32(segments)
		c, s := cosApprox(theta), sinApprox(theta)
		bottom := math.Vec3{X: radius * c, Y: -height / 2, Z: radius * s}
		top := math.Vec3{X: topRadius * c, Y: height / 2, Z: topRadius * s}
		n := math.Vec3{X: c, Y: 0, Z: s}.Normalize()
		mesh.Positions = append(mesh.Positions, bottom, top)
		mesh.Normals = append(mesh.Normals, n, n)
		mesh.Texcoords = append(mesh.Texcoords,
			math.Vec2{X: float32(i) / float32(segments), Y: 0},
			math.Vec2{X: float32(i) / float32(segments), Y: 1})
	}
	for i := 0; i < segments; i++ {
		b0 := uint32(i * 2)
		t0 := uint32(i*2 + 1)
		b1 := uint32((i + 1) * 2)
		t1 := uint32((i+1)*2 + 1)
		mesh.Faces = append(mesh.Faces, Face{b0, b1, t1, 0}, Face{b0, t1, t0, 0})
		a1 := faceAreaOf(mesh.Positions[b0], mesh.Positions[b1], mesh.Positions[t1]) / 2
		a2 := faceAreaOf(mesh.Positions[b0], mesh.Positions[t1], mesh.Positions[t0]) / 2
		mesh.FaceInverseArea = append(mesh.FaceInverseArea, invArea(a1), invArea(a2))
		fn := mesh.Normals[b0].Add(mesh.Normals[b1]).Normalize()
		mesh.FaceNormals = append(mesh.FaceNormals, fn, fn)
	}
	return mesh
}

func vec3Prop(obj *scene.Object, name string, def math.Vec3) math.Vec3 {
	if p, ok := obj.Get(name); ok && p.Kind == scene.PropertyVector3 {
		return p.Vector3
	}
	return def
}

func faceAreaOf(a, b, c math.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Length()
}

func invArea(area float32) float32 {
	if area <= 0 {
		return 0
	}
	return 1 / area
}

// cosApprox/sinApprox alias the standard library trig functions (imported
// as stdmath since this package's own math import is engine/math).
func sinApprox(x float32) float32 {
	return float32(stdmath.Sin(float64(x)))
}

func cosApprox(x float32) float32 {
	return float32(stdmath.Cos(float64(x)))
}
