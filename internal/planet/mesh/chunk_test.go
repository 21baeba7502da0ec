package mesh

import (
	"testing"

	"github.com/stellarforge/spacesim/internal/planet/skeleton"
)

func makeRootTri(t *testing.T, ts *skeleton.TriangleSkeleton, verts [3]skeleton.VertexId) skeleton.TriangleId {
	t.Helper()
	group, err := ts.TriGroupCreate(0, skeleton.NullTriangle, [4][3]skeleton.VertexId{verts, verts, verts, verts})
	if err != nil {
		t.Fatalf("tri group create: %v", err)
	}
	return skeleton.TriID(group, skeleton.SiblingTop)
}

func edgeOf(t *testing.T, ts *skeleton.TriangleSkeleton, level int, a, b skeleton.VertexId) []skeleton.VertexId {
	t.Helper()
	e := (1 << uint(level)) - 1
	out := make([]skeleton.VertexId, e)
	if err := ts.VertexCreateChunkEdgeRecurse(level, a, b, out); err != nil {
		t.Fatalf("edge recurse: %v", err)
	}
	return out
}

// Scenario 6 (spec §8): two chunks sharing an edge dedup their shared
// vertices, each ending up with refcount 2.
func TestChunkCreate_SharedEdgeDedup(t *testing.T) {
	const level = 2
	ts := skeleton.NewTriangleSkeleton(false)

	v0, _ := ts.VertexCreateRoot()
	v1, _ := ts.VertexCreateRoot()
	v2, _ := ts.VertexCreateRoot()
	v3, _ := ts.VertexCreateRoot()

	triA := makeRootTri(t, ts, [3]skeleton.VertexId{v0, v1, v2})
	triB := makeRootTri(t, ts, [3]skeleton.VertexId{v1, v0, v3})

	edgeA01 := edgeOf(t, ts, level, v0, v1)
	edgeA12 := edgeOf(t, ts, level, v1, v2)
	edgeA20 := edgeOf(t, ts, level, v2, v0)

	edgeB10 := edgeOf(t, ts, level, v1, v0) // same physical edge as edgeA01, opposite direction
	edgeB03 := edgeOf(t, ts, level, v0, v3)
	edgeB31 := edgeOf(t, ts, level, v3, v1)

	mesh := NewChunkedMesh(level, 12, 4, 0)

	chunkA, err := mesh.ChunkCreate(ts, triA, edgeA01, edgeA12, edgeA20)
	if err != nil {
		t.Fatalf("chunk create A: %v", err)
	}
	chunkB, err := mesh.ChunkCreate(ts, triB, edgeB10, edgeB03, edgeB31)
	if err != nil {
		t.Fatalf("chunk create B: %v", err)
	}

	sharedA := mesh.ChunkShared(chunkA)
	sharedB := mesh.ChunkShared(chunkB)

	// sharedA layout: corner(v0)=0, edgeA01[0..2]=1..3, corner(v1)=4,
	// edgeA12[0..2]=5..7, corner(v2)=8, edgeA20[0..2]=9..11.
	// sharedB layout: corner(v1)=0, edgeB10[0..2]=1..3, corner(v0)=4,
	// edgeB03[0..2]=5..7, corner(v3)=8, edgeB31[0..2]=9..11.
	overlap := [][2]int{
		{0, 4}, // corner v0
		{4, 0}, // corner v1
		{1, 3}, // edge interior, reversed direction
		{2, 2},
		{3, 1},
	}
	for _, pair := range overlap {
		if sharedA[pair[0]] != sharedB[pair[1]] {
			t.Errorf("expected sharedA[%d] == sharedB[%d] (same skeleton vertex), got %d != %d", pair[0], pair[1], sharedA[pair[0]], sharedB[pair[1]])
		}
	}

	for _, pair := range overlap {
		id := sharedA[pair[0]]
		if got := mesh.SharedRefCount(id); got != 2 {
			t.Errorf("expected shared vertex %d (boundary) to have refcount 2, got %d", id, got)
		}
	}

	// Corner v2 (only in chunk A) and corner v3 (only in chunk B) are
	// each touched by exactly one chunk.
	if got := mesh.SharedRefCount(sharedA[8]); got != 1 {
		t.Errorf("expected corner v2 refcount 1, got %d", got)
	}
	if got := mesh.SharedRefCount(sharedB[8]); got != 1 {
		t.Errorf("expected corner v3 refcount 1, got %d", got)
	}

	// The reverse map has exactly one entry per distinct skeleton vertex
	// touched: 5 shared boundary vertices + corner v2 + corner v3 + each
	// chunk's 2 non-shared edges (3 interior vertices each) = 5+1+1+6+6.
	wantUnique := 5 + 1 + 1 + 2*3 + 2*3
	seen := make(map[skeleton.VertexId]bool)
	for _, id := range sharedA {
		seen[mesh.SharedToSkeleton(id)] = true
	}
	for _, id := range sharedB {
		seen[mesh.SharedToSkeleton(id)] = true
	}
	if len(seen) != wantUnique {
		t.Errorf("expected %d distinct skeleton vertices referenced, got %d", wantUnique, len(seen))
	}
}

func TestChunkCreate_WrongEdgeLengthIsShapeMismatch(t *testing.T) {
	ts := skeleton.NewTriangleSkeleton(false)
	v0, _ := ts.VertexCreateRoot()
	v1, _ := ts.VertexCreateRoot()
	v2, _ := ts.VertexCreateRoot()
	tri := makeRootTri(t, ts, [3]skeleton.VertexId{v0, v1, v2})

	mesh := NewChunkedMesh(2, 12, 4, 0)
	_, err := mesh.ChunkCreate(ts, tri, make([]skeleton.VertexId, 2), make([]skeleton.VertexId, 3), make([]skeleton.VertexId, 3))
	if err == nil {
		t.Fatal("expected an error for a wrong-length edge")
	}
}

func TestChunkDestroy_ReleasesSharedAndTriangleRefs(t *testing.T) {
	const level = 1
	ts := skeleton.NewTriangleSkeleton(false)
	v0, _ := ts.VertexCreateRoot()
	v1, _ := ts.VertexCreateRoot()
	v2, _ := ts.VertexCreateRoot()
	tri := makeRootTri(t, ts, [3]skeleton.VertexId{v0, v1, v2})

	edge01 := edgeOf(t, ts, level, v0, v1)
	edge12 := edgeOf(t, ts, level, v1, v2)
	edge20 := edgeOf(t, ts, level, v2, v0)

	mesh := NewChunkedMesh(level, 12, 4, 0)
	chunk, err := mesh.ChunkCreate(ts, tri, edge01, edge12, edge20)
	if err != nil {
		t.Fatalf("chunk create: %v", err)
	}
	if got := ts.TriRefCount(tri); got != 1 {
		t.Fatalf("expected triangle refcount 1 after chunk create, got %d", got)
	}

	if err := mesh.ChunkDestroy(ts, chunk); err != nil {
		t.Fatalf("chunk destroy: %v", err)
	}
	if got := ts.TriRefCount(tri); got != 0 {
		t.Errorf("expected triangle refcount 0 after chunk destroy, got %d", got)
	}
	if mesh.ChunkCount() != 0 {
		t.Errorf("expected 0 resident chunks after destroy, got %d", mesh.ChunkCount())
	}
}
