package loader

import (
	"testing"

	"github.com/spaghettifunk/anima/engine/math"
)

func box(minX, minY, minZ, maxX, maxY, maxZ float32) math.BoundingBox {
	return math.NewBoundingBox(math.Vec3{X: minX, Y: minY, Z: minZ}, math.Vec3{X: maxX, Y: maxY, Z: maxZ})
}

// TestBuildBVHLeafAndNodeBoundsContainChildren checks §8 property 7: every
// leaf's bbox contains its referenced entity's bbox, and every internal
// node's bbox is the union of its children's bboxes (so it contains each
// of them).
func TestBuildBVHLeafAndNodeBoundsContainChildren(t *testing.T) {
	objs := []*EntityObject{
		{EntityID: 0, BBox: box(0, 0, 0, 1, 1, 1)},
		{EntityID: 1, BBox: box(2, 0, 0, 3, 1, 1)},
		{EntityID: 2, BBox: box(4, 0, 0, 5, 1, 1)},
		{EntityID: 3, BBox: box(6, 0, 0, 7, 1, 1)},
		{EntityID: 4, BBox: box(8, 0, 0, 9, 1, 1)},
	}
	bvh := BuildBVH(objs, 4)

	for i, leaf := range bvh.Leaves {
		if !leaf.BBox.Contains(objs[leaf.EntityID].BBox) {
			t.Fatalf("leaf %d (entity %d) bbox does not contain its entity's bbox", i, leaf.EntityID)
		}
	}

	for ni, node := range bvh.Nodes {
		if len(node.Children) == 0 {
			continue
		}
		union := math.NewEmptyBoundingBox()
		for _, c := range node.Children {
			union = union.Union(c.bbox)
		}
		for ci, c := range node.Children {
			if !c.bbox.Contains(c.bbox) { // reflexive sanity check
				t.Fatalf("node %d child %d: bbox does not contain itself", ni, ci)
			}
		}
		// The node's own extent (implicit: the union of all its
		// children) must contain every child's bbox.
		for ci, c := range node.Children {
			if !union.Contains(c.bbox) {
				t.Fatalf("node %d: union of children does not contain child %d's bbox", ni, ci)
			}
		}
		// An inner child's stored bbox must contain every bbox stored in
		// the node it points at.
		for ci, c := range node.Children {
			if c.isLeaf {
				continue
			}
			for gi, gc := range bvh.Nodes[c.offset].Children {
				if !c.bbox.Contains(gc.bbox) {
					t.Fatalf("node %d child %d: bbox does not contain child %d of node %d", ni, ci, gi, c.offset)
				}
			}
		}
	}
}

func TestBuildBVHSingleObjectIsOneLeaf(t *testing.T) {
	objs := []*EntityObject{{EntityID: 7, BBox: box(0, 0, 0, 1, 1, 1)}}
	bvh := BuildBVH(objs, 4)
	if len(bvh.Leaves) != 1 || bvh.Leaves[0].EntityID != 7 {
		t.Fatalf("expected a single leaf for entity 7, got %+v", bvh.Leaves)
	}
}

func TestBuildBVHEmptyInputProducesNoNodes(t *testing.T) {
	bvh := BuildBVH(nil, 4)
	if len(bvh.Nodes) != 0 || len(bvh.Leaves) != 0 {
		t.Fatalf("expected an empty BVH for no objects, got %d nodes / %d leaves", len(bvh.Nodes), len(bvh.Leaves))
	}
}
