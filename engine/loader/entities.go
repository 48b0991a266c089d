package loader

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/scene"
	"github.com/spaghettifunk/anima/engine/serializer"
)

// EntityRecord is one loaded entity (§3 Entity): index, affine transform,
// shape id, material id, visibility flags.
type EntityRecord struct {
	Index      int
	Name       string
	ShapeID    int
	MaterialID int
	Affine     math.AffineTransform
	BBox       math.BoundingBox

	VisibleToCamera bool
	VisibleToLight  bool
	VisibleToBounce bool
	VisibleToShadow bool
}

// EntityDatabase is the accumulated entity-load output (§3 fixed "entities"
// table plus the EntityToMaterial map).
type EntityDatabase struct {
	Records []*EntityRecord
	ByName  map[string]*EntityRecord
	Blob    *serializer.Serializer
}

// mediumIndex resolves a medium object's name to its insertion-ordered
// index within media (§4.3 step 3: "-1 if empty").
func mediumIndex(media map[string]*scene.Object, order []string, name string) (int, bool) {
	if name == "" {
		return -1, true
	}
	for i, n := range order {
		if n == name {
			return i, true
		}
	}
	_, ok := media[name]
	return -1, ok
}

// LoadEntities runs the entity/material dedup pass (§4.3). shapeDB must
// already be populated (§2 "parallel shape load" precedes "entity build").
// mediaOrder is the insertion-ordered list of declared medium names, the
// key §4.3 step 3 resolves inner/outer medium references against.
func LoadEntities(ctx *Context, sc *scene.Scene, shapeDB *Database, mediaOrder []string) (*EntityDatabase, error) {
	names := sc.SortedEntityNames()
	edb := &EntityDatabase{
		ByName: make(map[string]*EntityRecord, len(names)),
		Blob:   serializer.NewWriter(),
	}

	for i, name := range names {
		obj := sc.Entities[name]

		shapeName := obj.GetString("shape", "")
		shapeRec, ok := shapeDB.Records[shapeName]
		if !ok {
			ctx.SignalError(fmt.Errorf("%w: entity %q references unknown shape %q", core.ErrMissingReference, name, shapeName))
			continue
		}

		bsdfName := obj.GetString("bsdf", "")
		if bsdfName == "" {
			ctx.SignalError(fmt.Errorf("%w: entity %q has no bsdf", core.ErrMissingReference, name))
			continue
		}

		innerName := obj.GetString("inner_medium", "")
		outerName := obj.GetString("outer_medium", "")
		innerIdx, ok := mediumIndex(sc.Media, mediaOrder, innerName)
		if !ok {
			ctx.SignalError(fmt.Errorf("%w: entity %q references unknown inner_medium %q", core.ErrMissingReference, name, innerName))
			continue
		}
		outerIdx, ok := mediumIndex(sc.Media, mediaOrder, outerName)
		if !ok {
			ctx.SignalError(fmt.Errorf("%w: entity %q references unknown outer_medium %q", core.ErrMissingReference, name, outerName))
			continue
		}

		transform := math.NewMat4Identity()
		if p, ok := obj.Get("transform"); ok && p.Kind == scene.PropertyTransform {
			transform = p.Transform
		}
		affine := math.NewAffineTransform(transform)

		worldBBox := shapeRec.BBox.Transformed(affine.Matrix)
		ctx.ExtendSceneBBox(worldBBox)

		emitterEntity := ""
		if ctx.IsEmissiveEntity(name) {
			emitterEntity = name
		}

		materialID := ctx.addMaterial(Material{
			BSDF:          bsdfName,
			MediumInner:   innerIdx,
			MediumOuter:   outerIdx,
			EmitterEntity: emitterEntity,
		})

		rec := &EntityRecord{
			Index:           i,
			Name:            name,
			ShapeID:         shapeRec.ID,
			MaterialID:      materialID,
			Affine:          affine,
			BBox:            worldBBox,
			VisibleToCamera: obj.GetBool("camera_visible", true),
			VisibleToLight:  obj.GetBool("light_visible", true),
			VisibleToBounce: obj.GetBool("bounce_visible", true),
			VisibleToShadow: obj.GetBool("shadow_visible", true),
		}
		edb.Records = append(edb.Records, rec)
		edb.ByName[name] = rec
		ctx.EntityToMaterial[name] = materialID

		writeEntityBlob(edb.Blob, rec)
	}

	return edb, nil
}

// writeEntityBlob appends one entity's 140-byte record (§3: "3x4 local
// matrix, 3x4 global matrix, 3x3 normal matrix, shape id, scale factor",
// 35 four-byte values), padded to the default 16-byte alignment (144 bytes).
func writeEntityBlob(w *serializer.Serializer, rec *EntityRecord) {
	local := math.Mat3x4FromMat4(rec.Affine.Matrix)
	global := local // no parent hierarchy in this model; global == local.
	normal := math.NormalMatrix(rec.Affine.Matrix)

	writeMat3x4(w, local)
	writeMat3x4(w, global)
	writeMat3(w, normal)
	w.WriteU32(uint32(rec.ShapeID))
	w.WriteF32(scaleFactor(rec.Affine.Matrix))
	w.EnsureAlignment(serializer.DefaultAlignment)
}

func writeMat3x4(w *serializer.Serializer, m math.Mat3x4) {
	for _, col := range []math.Vec3{m.C0, m.C1, m.C2, m.C3} {
		w.WriteF32(col.X)
		w.WriteF32(col.Y)
		w.WriteF32(col.Z)
	}
}

func writeMat3(w *serializer.Serializer, m math.Mat3) {
	for _, col := range []math.Vec3{m.C0, m.C1, m.C2} {
		w.WriteF32(col.X)
		w.WriteF32(col.Y)
		w.WriteF32(col.Z)
	}
}

// scaleFactor approximates the entity's uniform scale from its transform's
// determinant cube root, used by the device-side PDF correction for
// non-uniformly scaled shapes.
func scaleFactor(m math.Mat4) float32 {
	upper := math.Mat3FromMat4Upper(m)
	det := upper.Determinant()
	if det < 0 {
		det = -det
	}
	return cubeRoot(det)
}

func cubeRoot(v float32) float32 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 16; i++ {
		x = x - (x*x*x-v)/(3*x*x)
	}
	return x
}
