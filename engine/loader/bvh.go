package loader

import (
	"sort"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/math"
)

// Visibility bit flags (§4.3 step 4).
const (
	VisibleCamera uint32 = 1 << iota
	VisibleLight
	VisibleBounce
	VisibleShadow
)

func visibilityFlags(r *EntityRecord) uint32 {
	var f uint32
	if r.VisibleToCamera {
		f |= VisibleCamera
	}
	if r.VisibleToLight {
		f |= VisibleLight
	}
	if r.VisibleToBounce {
		f |= VisibleBounce
	}
	if r.VisibleToShadow {
		f |= VisibleShadow
	}
	return f
}

// EntityObject is one BVH build input: enough per-entity data to compute
// ray-instance transforms without secondary lookups (§4.2, §4.6).
type EntityObject struct {
	EntityID         int
	ShapeID          int
	BBox             math.BoundingBox
	InverseTransform math.Mat4
	VisibilityFlags  uint32
	UserScalars      [3]float32
}

// EntityLeaf1 is a BVH leaf record (§3 Scene BVH).
type EntityLeaf1 struct {
	BBox             math.BoundingBox
	InverseTransform math.Mat4
	EntityID         int
	ShapeID          int
	VisibilityFlags  uint32
	UserScalars      [3]float32
}

// bvhChild is one of a node's up to-N children, tagged leaf or internal.
type bvhChild struct {
	bbox   math.BoundingBox
	offset int // index into the BVH's Nodes or Leaves array, by IsLeaf
	isLeaf bool
	used   bool
}

// BVHNode is one flattened N-wide node (§3, §4.6: "N children x {bbox min
// x3, bbox max x3, child offset, leaf flag}").
type BVHNode struct {
	Children []bvhChild
}

// BVH is one provider's flattened scene BVH (§3 "one per shape-provider
// identifier").
type BVH struct {
	Branching int
	Nodes     []BVHNode
	Leaves    []EntityLeaf1
}

// buildTreeNode is the in-memory (pre-flatten) recursive tree shape.
type buildTreeNode struct {
	bbox     math.BoundingBox
	children []*buildTreeNode // internal node: len <= N
	leaf     *EntityObject    // non-nil iff this is a leaf
}

// BuildBVH constructs an N-wide object BVH over objs via top-down median
// splitting on the largest axis, with stable tie-breaking on the lower
// axis index (§4.6). N is the branching factor from the target device
// (§4.6: 2 for GPU, 4 for CPU width<8, 8 for CPU width>=8).
func BuildBVH(objs []*EntityObject, branching int) *BVH {
	if branching < 2 {
		branching = 2
	}
	if len(objs) == 0 {
		return &BVH{Branching: branching}
	}

	root := buildRecursive(objs, branching)
	bvh := &BVH{Branching: branching}
	flattenBVH(bvh, root)
	return bvh
}

func buildRecursive(objs []*EntityObject, branching int) *buildTreeNode {
	if len(objs) == 1 {
		return &buildTreeNode{bbox: objs[0].BBox, leaf: objs[0]}
	}

	groups := splitIntoGroups(objs, branching)
	node := &buildTreeNode{bbox: math.NewEmptyBoundingBox()}
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		var child *buildTreeNode
		if len(g) == 1 {
			child = &buildTreeNode{bbox: g[0].BBox, leaf: g[0]}
		} else {
			child = buildRecursive(g, branching)
		}
		node.bbox = node.bbox.Union(child.bbox)
		node.children = append(node.children, child)
	}
	return node
}

// splitIntoGroups recursively bisects objs on its bbox's largest axis
// (median split, stable tie-break on the lower axis index) until it has
// `branching` groups, the same recursive-halving approach used to turn a
// binary median split into an N-wide partition.
func splitIntoGroups(objs []*EntityObject, branching int) [][]*EntityObject {
	if branching <= 1 || len(objs) <= 1 {
		return [][]*EntityObject{objs}
	}
	left, right := medianSplit(objs)
	leftGroups := splitIntoGroups(left, branching/2)
	rightN := branching - len(leftGroups)
	if rightN < 1 {
		rightN = 1
	}
	rightGroups := splitIntoGroups(right, rightN)
	return append(leftGroups, rightGroups...)
}

func medianSplit(objs []*EntityObject) ([]*EntityObject, []*EntityObject) {
	bounds := math.NewEmptyBoundingBox()
	for _, o := range objs {
		bounds = bounds.Union(math.NewBoundingBox(o.BBox.Center(), o.BBox.Center()))
	}
	axis := bounds.LargestAxis()

	sorted := append([]*EntityObject(nil), objs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := centroidAxis(sorted[i], axis), centroidAxis(sorted[j], axis)
		if ci != cj {
			return ci < cj
		}
		// Stable tie-break on the lower axis index (§4.6).
		for a := 0; a < 3; a++ {
			if a == axis {
				continue
			}
			vi, vj := centroidAxis(sorted[i], a), centroidAxis(sorted[j], a)
			if vi != vj {
				return vi < vj
			}
		}
		return false
	})
	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}

func centroidAxis(o *EntityObject, axis int) float32 {
	c := o.BBox.Center()
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// flattenBVH performs a breadth-first flatten of the build tree into
// bvh.Nodes/bvh.Leaves, using a RingQueue for the node frontier the way
// the teacher's containers package models a bounded FIFO.
func flattenBVH(bvh *BVH, root *buildTreeNode) {
	if root.leaf != nil {
		bvh.Leaves = append(bvh.Leaves, toLeaf(root.leaf))
		bvh.Nodes = append(bvh.Nodes, BVHNode{Children: []bvhChild{{
			bbox: root.bbox, offset: 0, isLeaf: true, used: true,
		}}})
		return
	}

	frontier := containers.NewRingQueue(estimateNodeCount(root))
	_ = frontier.Enqueue(root)
	bvh.Nodes = append(bvh.Nodes, BVHNode{}) // reserve slot 0 for root

	nodeIndex := map[*buildTreeNode]int{root: 0}

	for !frontier.IsEmpty() {
		raw, _ := frontier.Dequeue()
		n := raw.(*buildTreeNode)
		idx := nodeIndex[n]

		var children []bvhChild
		for _, c := range n.children {
			if c.leaf != nil {
				leafIdx := len(bvh.Leaves)
				bvh.Leaves = append(bvh.Leaves, toLeaf(c.leaf))
				children = append(children, bvhChild{bbox: c.bbox, offset: leafIdx, isLeaf: true, used: true})
			} else {
				childIdx := len(bvh.Nodes)
				bvh.Nodes = append(bvh.Nodes, BVHNode{})
				nodeIndex[c] = childIdx
				children = append(children, bvhChild{bbox: c.bbox, offset: childIdx, isLeaf: false, used: true})
				_ = frontier.Enqueue(c)
			}
		}
		bvh.Nodes[idx] = BVHNode{Children: children}
	}
}

func toLeaf(o *EntityObject) EntityLeaf1 {
	return EntityLeaf1{
		BBox:             o.BBox,
		InverseTransform: o.InverseTransform,
		EntityID:         o.EntityID,
		ShapeID:          o.ShapeID,
		VisibilityFlags:  o.VisibilityFlags,
		UserScalars:      o.UserScalars,
	}
}

func estimateNodeCount(root *buildTreeNode) int {
	count := 1
	var walk func(*buildTreeNode)
	walk = func(n *buildTreeNode) {
		for _, c := range n.children {
			if c.leaf == nil {
				count++
				walk(c)
			}
		}
	}
	walk(root)
	return count
}

// BuildProviderBVHs groups loaded entities by their shape's provider and
// builds one BVH per provider (§3 "one per shape-provider identifier",
// §4.2 "per-provider BVH build runs in parallel").
func BuildProviderBVHs(entityDB *EntityDatabase, shapeDB *Database, target device.Target) map[Provider]*BVH {
	branching := target.BVHBranchingFactor()
	byProvider := make(map[Provider][]*EntityObject)

	for _, rec := range entityDB.Records {
		shapeRec := shapeByID(shapeDB, rec.ShapeID)
		if shapeRec == nil {
			continue
		}
		byProvider[shapeRec.Provider] = append(byProvider[shapeRec.Provider], &EntityObject{
			EntityID:         rec.Index,
			ShapeID:          rec.ShapeID,
			BBox:             rec.BBox,
			InverseTransform: rec.Affine.Inverse,
			VisibilityFlags:  visibilityFlags(rec),
		})
	}

	out := make(map[Provider]*BVH, len(byProvider))
	for provider, objs := range byProvider {
		out[provider] = BuildBVH(objs, branching)
	}
	return out
}

func shapeByID(shapeDB *Database, id int) *ShapeRecord {
	for _, rec := range shapeDB.Records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}
