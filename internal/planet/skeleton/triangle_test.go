package skeleton

import (
	"errors"
	"testing"

	"github.com/stellarforge/spacesim/internal/simcore"
)

func newRootTriangle(t *testing.T, ts *TriangleSkeleton) (TriangleId, [3]VertexId) {
	t.Helper()
	v0, _ := ts.VertexCreateRoot()
	v1, _ := ts.VertexCreateRoot()
	v2, _ := ts.VertexCreateRoot()

	verts := [3]VertexId{v0, v1, v2}
	groupID, err := ts.TriGroupCreate(0, NullTriangle, [4][3]VertexId{verts, verts, verts, verts})
	if err != nil {
		t.Fatalf("tri group create: %v", err)
	}
	return TriID(groupID, SiblingTop), verts
}

func TestTriangleId_Encoding(t *testing.T) {
	id := TriID(TriangleGroupId(5), SiblingCenter)
	if TriGroupID(id) != 5 {
		t.Errorf("expected group 5, got %d", TriGroupID(id))
	}
	if TriSiblingIndex(id) != SiblingCenter {
		t.Errorf("expected sibling %d, got %d", SiblingCenter, TriSiblingIndex(id))
	}
}

// Scenario 5 (spec §8): edge recursion at level 2.
func TestVertexCreateChunkEdgeRecurse_Level2(t *testing.T) {
	ts := NewTriangleSkeleton(false)
	a, _ := ts.VertexCreateRoot()
	b, _ := ts.VertexCreateRoot()

	out := make([]VertexId, 3)
	if err := ts.VertexCreateChunkEdgeRecurse(2, a, b, out); err != nil {
		t.Fatalf("edge recurse: %v", err)
	}

	m, err := ts.VertexCreateOrGetChild(a, b)
	if err != nil {
		t.Fatalf("midpoint: %v", err)
	}
	if out[1] != m {
		t.Errorf("out[1] should be midpoint(a,b) = %d, got %d", m, out[1])
	}

	mLeft, _ := ts.VertexCreateOrGetChild(a, m)
	if out[0] != mLeft {
		t.Errorf("out[0] should be midpoint(a,m) = %d, got %d", mLeft, out[0])
	}

	mRight, _ := ts.VertexCreateOrGetChild(m, b)
	if out[2] != mRight {
		t.Errorf("out[2] should be midpoint(m,b) = %d, got %d", mRight, out[2])
	}
}

func TestVertexCreateChunkEdgeRecurse_WrongLengthIsShapeMismatch(t *testing.T) {
	ts := NewTriangleSkeleton(false)
	a, _ := ts.VertexCreateRoot()
	b, _ := ts.VertexCreateRoot()

	err := ts.VertexCreateChunkEdgeRecurse(2, a, b, make([]VertexId, 2))
	if !errors.Is(err, simcore.ErrGeometryShapeMismatch) {
		t.Errorf("expected GeometryShapeMismatch, got %v", err)
	}
}

func TestTriSubdiv_ChildrenValidAndMidpointsMatch(t *testing.T) {
	ts := NewTriangleSkeleton(false)
	triID, verts := newRootTriangle(t, ts)

	mids, err := ts.VertexCreateMiddles(verts)
	if err != nil {
		t.Fatalf("create middles: %v", err)
	}

	groupID, err := ts.TriSubdiv(triID, mids)
	if err != nil {
		t.Fatalf("subdiv: %v", err)
	}

	wantChildren := [4]Triangle{
		{Vertices: [3]VertexId{verts[0], mids[0], mids[2]}, Children: NullTriangleGroup},
		{Vertices: [3]VertexId{mids[0], verts[1], mids[1]}, Children: NullTriangleGroup},
		{Vertices: [3]VertexId{mids[2], mids[1], verts[2]}, Children: NullTriangleGroup},
		{Vertices: [3]VertexId{mids[1], mids[2], mids[0]}, Children: NullTriangleGroup},
	}

	for i := 0; i < 4; i++ {
		child, err := ts.TriAt(TriID(groupID, uint8(i)))
		if err != nil {
			t.Fatalf("tri at %d: %v", i, err)
		}
		if child != wantChildren[i] {
			t.Errorf("child %d = %+v, want %+v", i, child, wantChildren[i])
		}
	}

	parent, err := ts.TriAt(triID)
	if err != nil {
		t.Fatalf("tri at parent: %v", err)
	}
	if parent.Children != groupID {
		t.Errorf("expected parent.Children = %d, got %d", groupID, parent.Children)
	}
}

func TestTriSubdiv_TwiceIsInvariantViolation(t *testing.T) {
	ts := NewTriangleSkeleton(false)
	triID, verts := newRootTriangle(t, ts)
	mids, _ := ts.VertexCreateMiddles(verts)

	if _, err := ts.TriSubdiv(triID, mids); err != nil {
		t.Fatalf("first subdiv: %v", err)
	}
	_, err := ts.TriSubdiv(triID, mids)
	if !errors.Is(err, simcore.ErrInvariantViolation) {
		t.Errorf("expected InvariantViolation on second subdiv, got %v", err)
	}
}

func TestTriSubdiv_IsIdempotentViaMidpointReuse(t *testing.T) {
	ts := NewTriangleSkeleton(false)
	_, verts := newRootTriangle(t, ts)

	mids1, _ := ts.VertexCreateMiddles(verts)
	mids2, _ := ts.VertexCreateMiddles(verts)
	if mids1 != mids2 {
		t.Errorf("expected repeated VertexCreateMiddles to reuse the same midpoints, got %v and %v", mids1, mids2)
	}
}

func TestTriGroupCreate_VertexRefCounts(t *testing.T) {
	ts := NewTriangleSkeleton(false)
	v0, _ := ts.VertexCreateRoot()
	v1, _ := ts.VertexCreateRoot()
	v2, _ := ts.VertexCreateRoot()
	verts := [3]VertexId{v0, v1, v2}

	// v0 appears in all four triangles of the group: duplicates count
	// independently.
	groupID, err := ts.TriGroupCreate(0, NullTriangle, [4][3]VertexId{verts, verts, verts, verts})
	if err != nil {
		t.Fatalf("tri group create: %v", err)
	}
	_ = groupID

	if got := ts.VertexRefCount(v0); got != 4 {
		t.Errorf("expected v0 refcount 4, got %d", got)
	}
}
