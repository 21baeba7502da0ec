// Package mesh implements the Chunked Mesh: a vertex buffer divided into
// a shared region (deduplicated across neighboring chunks) and a
// per-chunk fill region, built on top of a planet/skeleton
// TriangleSkeleton. Translated in spirit from
// original_source/src/planet-a/Active/SysPlanetA.cpp's usage of
// ChunkedTriangleMesh and ChunkVrtxSubdivLUT; the LUT and mesh types
// themselves were not present in the retrieval pack, so this package
// builds them directly from spec.md §4.5's description.
package mesh

// refKind distinguishes where a chunk-local vertex address resolves: a
// shared (boundary) vertex held in common with neighboring chunks, or a
// fill (interior) vertex owned exclusively by one chunk.
type refKind uint8

const (
	refShared refKind = iota
	refFill
)

// VertexRef is a LUT-local address, resolved against a specific chunk's
// shared-vertex slice or fill-vertex buffer by ChunkVrtxSubdivLUT.Get.
type VertexRef struct {
	kind  refKind
	Index uint16
}

func sharedRef(i int) VertexRef { return VertexRef{kind: refShared, Index: uint16(i)} }
func fillRef(i int) VertexRef   { return VertexRef{kind: refFill, Index: uint16(i)} }

// refKey canonicalizes the unordered pair (a, b) into a lookup key, the
// same packing idiom planet/skeleton.canonicalKey uses: larger packed
// value low, smaller high.
func refKey(a, b VertexRef) uint64 {
	pack := func(r VertexRef) uint32 { return uint32(r.kind)<<16 | uint32(r.Index) }
	pa, pb := pack(a), pack(b)
	hi, lo := pa, pb
	if pb > pa {
		hi, lo = pb, pa
	}
	return uint64(hi) | uint64(lo)<<32
}

// ToSubdiv is one record of a Chunk Vertex Subdivision LUT: FillOut is
// the midpoint of AncestorA and AncestorB. Records are ordered so that a
// fill slot is always produced before any later record references it as
// an ancestor.
type ToSubdiv struct {
	AncestorA VertexRef
	AncestorB VertexRef
	FillOut   uint16
}

// ChunkVrtxSubdivLUT is the precomputed, immutable fill order for chunks
// at a given subdivision level L: the combinatorial structure is
// identical for every chunk at that level (only the concrete shared
// vertex ids differ), so it is built once and shared by every chunk.
type ChunkVrtxSubdivLUT struct {
	level     int
	edgeCount int // E = 2^L - 1, interior points per chunk edge
	fillCount int
	records   []ToSubdiv
}

// NewChunkVrtxSubdivLUT builds the LUT for subdivision level L.
func NewChunkVrtxSubdivLUT(level int) *ChunkVrtxSubdivLUT {
	e := 0
	if level > 0 {
		e = (1 << uint(level)) - 1
	}
	lut := &ChunkVrtxSubdivLUT{level: level, edgeCount: e}
	if level == 0 {
		return lut
	}

	// Corners and edge-interior points are addressed exactly as
	// chunk_create assembles a chunk's shared-vertex slice: corner0,
	// edgeA, corner1, edgeB, corner2, edgeC.
	corner0 := sharedRef(0)
	corner1 := sharedRef(e + 1)
	corner2 := sharedRef(2 * (e + 1))

	edgeA := make([]VertexRef, e)
	edgeB := make([]VertexRef, e)
	edgeC := make([]VertexRef, e)
	for i := 0; i < e; i++ {
		edgeA[i] = sharedRef(1 + i)
		edgeB[i] = sharedRef(e + 2 + i)
		edgeC[i] = sharedRef(2*e + 3 + i)
	}

	memo := make(map[uint64]VertexRef)
	seedEdge(level, corner0, corner1, edgeA, memo)
	seedEdge(level, corner1, corner2, edgeB, memo)
	seedEdge(level, corner2, corner0, edgeC, memo)

	nextFill := 0
	midpoint := func(a, b VertexRef) VertexRef {
		key := refKey(a, b)
		if r, ok := memo[key]; ok {
			return r
		}
		r := fillRef(nextFill)
		nextFill++
		memo[key] = r
		lut.records = append(lut.records, ToSubdiv{AncestorA: a, AncestorB: b, FillOut: r.Index})
		return r
	}

	subdivTri(level, corner0, corner1, corner2, midpoint)
	lut.fillCount = nextFill
	return lut
}

// seedEdge pre-populates memo with the binary subdivision tree of an
// already-known boundary edge (a, b) whose E interior points are given
// in pts, so that subdivTri finds and reuses them instead of minting
// fresh fill vertices along the chunk's three original edges. The
// recursive split mirrors
// planet/skeleton.TriangleSkeleton.VertexCreateChunkEdgeRecurse exactly,
// so the indices line up with how that function actually populated pts.
func seedEdge(level int, a, b VertexRef, pts []VertexRef, memo map[uint64]VertexRef) {
	if level == 0 {
		return
	}
	half := len(pts) / 2
	mid := pts[half]
	memo[refKey(a, b)] = mid
	seedEdge(level-1, a, mid, pts[:half], memo)
	seedEdge(level-1, mid, b, pts[half+1:], memo)
}

// subdivTri recursively quarters the triangular patch (v0, v1, v2),
// mirroring planet/skeleton's corner/midpoint subdivision pattern:
// computing the three edge midpoints before descending into the three
// corner children and the inverted center child.
func subdivTri(level int, v0, v1, v2 VertexRef, midpoint func(a, b VertexRef) VertexRef) {
	if level == 0 {
		return
	}
	m01 := midpoint(v0, v1)
	m12 := midpoint(v1, v2)
	m20 := midpoint(v2, v0)

	subdivTri(level-1, v0, m01, m20, midpoint)
	subdivTri(level-1, m01, v1, m12, midpoint)
	subdivTri(level-1, m20, m12, v2, midpoint)
	subdivTri(level-1, m12, m20, m01, midpoint)
}

// Level reports the subdivision level this LUT was built for.
func (lut *ChunkVrtxSubdivLUT) Level() int { return lut.level }

// FillCount reports F, the number of interior (fill) vertices per chunk.
func (lut *ChunkVrtxSubdivLUT) FillCount() int { return lut.fillCount }

// SharedCount reports the number of shared (corner + edge) vertices per
// chunk: 3E + 3.
func (lut *ChunkVrtxSubdivLUT) SharedCount() int { return 3*lut.edgeCount + 3 }

// Data returns the LUT's records in production order.
func (lut *ChunkVrtxSubdivLUT) Data() []ToSubdiv { return lut.records }

// Get resolves ref against a chunk's shared-vertex slice and its
// fill/shared byte buffers, returning the vertexSize-byte slice backing
// that vertex's attributes.
func (lut *ChunkVrtxSubdivLUT) Get(ref VertexRef, chunkShared []SharedVertexId, fillBuf, sharedBuf []byte, vertexSize int) []byte {
	if ref.kind == refFill {
		off := int(ref.Index) * vertexSize
		return fillBuf[off : off+vertexSize]
	}
	sharedID := chunkShared[ref.Index]
	off := int(sharedID) * vertexSize
	return sharedBuf[off : off+vertexSize]
}
