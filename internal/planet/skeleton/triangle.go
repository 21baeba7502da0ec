package skeleton

import "github.com/stellarforge/spacesim/internal/simcore"

// TriangleId is a dense handle for one triangle within a group of four.
// Encoded as group_id*4 + sibling_index (spec.md §3), so it never needs
// its own registry.
type TriangleId uint32

// NullTriangle is the sentinel "no triangle" value.
const NullTriangle TriangleId = TriangleId(simcore.NullID)

// TriangleGroupId is a dense handle for a group of four triangles
// produced together by one subdivision.
type TriangleGroupId uint32

// NullTriangleGroup is the sentinel "no group" value.
const NullTriangleGroup TriangleGroupId = TriangleGroupId(simcore.NullID)

// Sibling indices within a group: 0 top, 1 left, 2 right, 3 center
// (inverted).
const (
	SiblingTop    = 0
	SiblingLeft   = 1
	SiblingRight  = 2
	SiblingCenter = 3
)

// TriGroupID returns the group a triangle belongs to.
func TriGroupID(t TriangleId) TriangleGroupId { return TriangleGroupId(uint32(t) / 4) }

// TriSiblingIndex returns t's position (0-3) within its group.
func TriSiblingIndex(t TriangleId) uint8 { return uint8(uint32(t) % 4) }

// TriID composes a TriangleId from a group and sibling index.
func TriID(group TriangleGroupId, sibling uint8) TriangleId {
	return TriangleId(uint32(group)*4 + uint32(sibling))
}

// Triangle holds the three CCW vertices of one triangle (0: top, 1:
// left, 2: right, for the standard orientation) and, once subdivided,
// the group of its four children.
type Triangle struct {
	Vertices [3]VertexId
	Children TriangleGroupId
}

// Group is four triangles produced together by one subdivision: three
// corner siblings plus an inverted center.
type Group struct {
	Triangles [4]Triangle
	Parent    TriangleId // the triangle that was subdivided to produce this group
	Depth     uint8
}

// TriangleSkeleton is a Skeleton (vertex DAG) plus reference-counted
// triangle groups: the full subdividable triangle mesh topology, with no
// spatial data attached.
type TriangleSkeleton struct {
	*Skeleton

	groups      *simcore.Registry
	groupData   []Group
	triRefCount []uint8
}

// NewTriangleSkeleton constructs an empty triangle skeleton.
func NewTriangleSkeleton(noAutoResize bool) *TriangleSkeleton {
	return &TriangleSkeleton{
		Skeleton: NewSkeleton(noAutoResize),
		groups:   simcore.NewRegistry(noAutoResize),
	}
}

func (ts *TriangleSkeleton) growGroups() {
	n := int(ts.groups.SizeRequired())
	for len(ts.groupData) < n {
		ts.groupData = append(ts.groupData, Group{
			Triangles: [4]Triangle{{Children: NullTriangleGroup}, {Children: NullTriangleGroup}, {Children: NullTriangleGroup}, {Children: NullTriangleGroup}},
		})
	}
	need := n * 4
	for len(ts.triRefCount) < need {
		ts.triRefCount = append(ts.triRefCount, 0)
	}
}

// VertexCreateMiddles returns the three edge-midpoint vertices for a
// triangle given in canonical (v0, v1, v2) order: (m01, m12, m20).
func (ts *TriangleSkeleton) VertexCreateMiddles(v [3]VertexId) ([3]VertexId, error) {
	m01, err := ts.VertexCreateOrGetChild(v[0], v[1])
	if err != nil {
		return [3]VertexId{}, err
	}
	m12, err := ts.VertexCreateOrGetChild(v[1], v[2])
	if err != nil {
		return [3]VertexId{}, err
	}
	m20, err := ts.VertexCreateOrGetChild(v[2], v[0])
	if err != nil {
		return [3]VertexId{}, err
	}
	return [3]VertexId{m01, m12, m20}, nil
}

// VertexCreateChunkEdgeRecurse fills out (length 2^level-1) with the
// midpoint subdivision sequence between a and b: binary subdivision by
// repeated midpoint, with the midpoint placed at the middle index and
// recursion refining inward on both halves.
func (ts *TriangleSkeleton) VertexCreateChunkEdgeRecurse(level int, a, b VertexId, out []VertexId) error {
	want := (1 << uint(level)) - 1
	if level == 0 {
		want = 0
	}
	if len(out) != want {
		return simcore.New(simcore.GeometryShapeMismatch, "chunk edge buffer has %d slots, want %d for level %d", len(out), want, level)
	}
	return ts.edgeRecurse(level, a, b, out)
}

func (ts *TriangleSkeleton) edgeRecurse(level int, a, b VertexId, out []VertexId) error {
	if level == 0 {
		return nil
	}
	mid, err := ts.VertexCreateOrGetChild(a, b)
	if err != nil {
		return err
	}
	half := len(out) / 2
	out[half] = mid
	if err := ts.edgeRecurse(level-1, a, mid, out[:half]); err != nil {
		return err
	}
	return ts.edgeRecurse(level-1, mid, b, out[half+1:])
}

// TriGroupCreate allocates a group at the given depth, under parent (use
// NullTriangle for a root group), with the four triangles' vertices as
// given. All twelve vertex references are reference-added; duplicates
// across the array are counted independently, per spec.md §4.4.
func (ts *TriangleSkeleton) TriGroupCreate(depth uint8, parent TriangleId, vertices [4][3]VertexId) (TriangleGroupId, error) {
	id, err := ts.groups.Create()
	if err != nil {
		return NullTriangleGroup, err
	}
	ts.growGroups()

	group := &ts.groupData[id]
	group.Parent = parent
	group.Depth = depth

	for i := 0; i < 4; i++ {
		group.Triangles[i] = Triangle{Vertices: vertices[i], Children: NullTriangleGroup}
		for _, v := range vertices[i] {
			if err := ts.VertexRefCountAdd(v); err != nil {
				return NullTriangleGroup, err
			}
		}
	}
	return TriangleGroupId(id), nil
}

// GroupExists reports whether g is a live group.
func (ts *TriangleSkeleton) GroupExists(g TriangleGroupId) bool {
	return ts.groups.Exists(uint32(g))
}

// TriAt returns the triangle data for t.
func (ts *TriangleSkeleton) TriAt(t TriangleId) (Triangle, error) {
	group := TriGroupID(t)
	if !ts.GroupExists(group) {
		return Triangle{}, simcore.New(simcore.InvariantViolation, "triangle %d: group %d does not exist", t, group)
	}
	return ts.groupData[group].Triangles[TriSiblingIndex(t)], nil
}

// TriSubdiv builds a child group from triangle t's corners and the three
// supplied midpoint vertices (as returned by VertexCreateMiddles),
// following the fixed corner/midpoint pattern: child 0 = {v0,m01,m20},
// child 1 = {m01,v1,m12}, child 2 = {m20,m12,v2}, child 3 (center,
// inverted) = {m12,m20,m01}. Subdividing an already-subdivided triangle,
// a triangle with a dead vertex, or one whose depth+1 would overflow u8
// is an InvariantViolation.
func (ts *TriangleSkeleton) TriSubdiv(t TriangleId, mids [3]VertexId) (TriangleGroupId, error) {
	tri, err := ts.TriAt(t)
	if err != nil {
		return NullTriangleGroup, err
	}
	if tri.Children != NullTriangleGroup {
		return NullTriangleGroup, simcore.New(simcore.InvariantViolation, "triangle %d is already subdivided", t)
	}
	for _, v := range tri.Vertices {
		if !ts.VertexExists(v) {
			return NullTriangleGroup, simcore.New(simcore.InvariantViolation, "triangle %d has a dead corner vertex", t)
		}
	}
	for _, v := range mids {
		if !ts.VertexExists(v) {
			return NullTriangleGroup, simcore.New(simcore.InvariantViolation, "triangle %d: a midpoint vertex is dead", t)
		}
	}

	parentGroup := TriGroupID(t)
	parentDepth := ts.groupData[parentGroup].Depth
	if parentDepth == 255 {
		return NullTriangleGroup, simcore.New(simcore.InvariantViolation, "triangle %d: subdivision depth would overflow", t)
	}

	v0, v1, v2 := tri.Vertices[0], tri.Vertices[1], tri.Vertices[2]
	m01, m12, m20 := mids[0], mids[1], mids[2]

	childVerts := [4][3]VertexId{
		{v0, m01, m20},
		{m01, v1, m12},
		{m20, m12, v2},
		{m12, m20, m01},
	}

	groupID, err := ts.TriGroupCreate(parentDepth+1, t, childVerts)
	if err != nil {
		return NullTriangleGroup, err
	}

	ts.groupData[parentGroup].Triangles[TriSiblingIndex(t)].Children = groupID
	return groupID, nil
}

// TriRefCountAdd increments t's reference count.
func (ts *TriangleSkeleton) TriRefCountAdd(t TriangleId) error {
	if ts.triRefCount[t] == 255 {
		return simcore.New(simcore.RefCountOverflow, "triangle %d refcount overflow", t)
	}
	ts.triRefCount[t]++
	return nil
}

// TriRefCountRemove decrements t's reference count.
func (ts *TriangleSkeleton) TriRefCountRemove(t TriangleId) error {
	if ts.triRefCount[t] == 0 {
		return simcore.New(simcore.RefCountUnderflow, "triangle %d refcount underflow", t)
	}
	ts.triRefCount[t]--
	return nil
}

// TriRefCount returns t's current reference count. Triangle reference
// counts govern external pinning (e.g. a chunk holds the triangle it
// covers) but never themselves trigger deletion; see Sweep.
func (ts *TriangleSkeleton) TriRefCount(t TriangleId) uint8 {
	return ts.triRefCount[t]
}

// Sweep reclaims leaf groups (no children) whose four triangles are all
// unreferenced, except those for which keep returns true. It is the
// "separate sweep invoked by the owner" spec.md §4.4 describes: reclaimed
// groups release their vertex references and detach from their parent
// triangle, returning the ids actually removed.
func (ts *TriangleSkeleton) Sweep(keep func(TriangleGroupId) bool) ([]TriangleGroupId, error) {
	var removed []TriangleGroupId
	for _, raw := range ts.groups.Live() {
		gid := TriangleGroupId(raw)
		if keep != nil && keep(gid) {
			continue
		}

		group := ts.groupData[gid]
		reclaimable := true
		for i := range group.Triangles {
			if group.Triangles[i].Children != NullTriangleGroup || ts.TriRefCount(TriID(gid, uint8(i))) != 0 {
				reclaimable = false
				break
			}
		}
		if !reclaimable {
			continue
		}

		for i := range group.Triangles {
			for _, v := range group.Triangles[i].Vertices {
				if err := ts.VertexRefCountRemove(v); err != nil {
					return removed, err
				}
			}
		}
		if group.Parent != NullTriangle {
			ts.groupData[TriGroupID(group.Parent)].Triangles[TriSiblingIndex(group.Parent)].Children = NullTriangleGroup
		}
		if err := ts.groups.Remove(raw); err != nil {
			return removed, err
		}
		removed = append(removed, gid)
	}
	return removed, nil
}

// GroupCount returns the number of currently-live triangle groups.
func (ts *TriangleSkeleton) GroupCount() int {
	return len(ts.groups.Live())
}
