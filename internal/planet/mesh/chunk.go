package mesh

import (
	"github.com/stellarforge/spacesim/internal/planet/skeleton"
	"github.com/stellarforge/spacesim/internal/simcore"
)

// ChunkId is a dense handle for one resident chunk of renderable
// geometry, covering one triangle at the mesh's fixed subdivision level.
type ChunkId uint32

// NullChunk is the sentinel "no chunk" value.
const NullChunk ChunkId = ChunkId(simcore.NullID)

// SharedVertexId is a dense handle for a vertex on a chunk boundary,
// deduplicated across neighboring chunks.
type SharedVertexId uint32

// NullSharedVertex is the sentinel "no shared vertex" value.
const NullSharedVertex SharedVertexId = SharedVertexId(simcore.NullID)

// ChunkedMesh owns a vertex byte buffer partitioned into a chunk-fill
// region and a shared region, and maps chunks to the shared-vertex
// sequences their boundary touches. Configuration (level, vertex size,
// chunk capacity, coordinate scale) is fixed at construction, per
// spec.md §4.5.
type ChunkedMesh struct {
	level       int
	edgeCount   int // E = 2^level - 1
	vertexSize  int // V, bytes
	chunkCap    int // C
	scaleExp    int // coordinate scale exponent (negative power of two)
	fillPerChunk int // F

	lut *ChunkVrtxSubdivLUT

	buffer []byte

	chunks       *simcore.Registry
	chunkShared  [][]SharedVertexId // per chunk: corner0, edgeA..., corner1, edgeB..., corner2, edgeC...
	chunkCenter  []skeleton.TriangleId

	sharedIds    *simcore.Registry
	sharedToSkel []skeleton.VertexId
	skelToShared map[skeleton.VertexId]SharedVertexId
	sharedRefs   []uint8

	pendingShared []SharedVertexId
}

// NewChunkedMesh constructs an empty mesh. chunkCap bounds the number of
// simultaneously resident chunks; the shared-vertex region is sized to
// the maximum every resident chunk could possibly reference (chunkCap *
// SharedCount), since shared vertices are deduplicated but never
// preemptively bounded tighter than that.
func NewChunkedMesh(level, vertexSize, chunkCap, scaleExp int) *ChunkedMesh {
	lut := NewChunkVrtxSubdivLUT(level)
	edgeCount := 0
	if level > 0 {
		edgeCount = (1 << uint(level)) - 1
	}
	sharedCap := chunkCap * lut.SharedCount()

	m := &ChunkedMesh{
		level:        level,
		edgeCount:    edgeCount,
		vertexSize:   vertexSize,
		chunkCap:     chunkCap,
		scaleExp:     scaleExp,
		fillPerChunk: lut.FillCount(),
		lut:          lut,
		chunks:       simcore.NewRegistry(true),
		sharedIds:    simcore.NewRegistry(false),
		skelToShared: make(map[skeleton.VertexId]SharedVertexId),
	}
	m.chunks.Reserve(uint32(chunkCap))

	bufLen := (chunkCap*m.fillPerChunk + sharedCap) * vertexSize
	m.buffer = make([]byte, bufLen)
	return m
}

// LUT returns the mesh's Chunk Vertex Subdivision LUT.
func (m *ChunkedMesh) LUT() *ChunkVrtxSubdivLUT { return m.lut }

// SharedOffset is the byte offset where the shared region begins: every
// chunk's fill region precedes it, at a stable, construction-fixed
// location.
func (m *ChunkedMesh) SharedOffset() int {
	return m.chunkCap * m.fillPerChunk * m.vertexSize
}

// Buffer returns the mesh's raw vertex byte buffer.
func (m *ChunkedMesh) Buffer() []byte { return m.buffer }

func (m *ChunkedMesh) growShared() {
	n := int(m.sharedIds.SizeRequired())
	for len(m.sharedToSkel) < n {
		m.sharedToSkel = append(m.sharedToSkel, skeleton.NullVertex)
		m.sharedRefs = append(m.sharedRefs, 0)
	}
}

func (m *ChunkedMesh) getOrCreateShared(skel skeleton.VertexId) (id SharedVertexId, fresh bool, err error) {
	if existing, ok := m.skelToShared[skel]; ok {
		if m.sharedRefs[existing] == 255 {
			return NullSharedVertex, false, simcore.New(simcore.RefCountOverflow, "shared vertex for skeleton vertex %d refcount overflow", skel)
		}
		m.sharedRefs[existing]++
		return existing, false, nil
	}

	raw, err := m.sharedIds.Create()
	if err != nil {
		return NullSharedVertex, false, err
	}
	m.growShared()

	id = SharedVertexId(raw)
	m.sharedToSkel[id] = skel
	m.skelToShared[skel] = id
	m.sharedRefs[id] = 1
	return id, true, nil
}

// ChunkCreate turns the three chunk-boundary edges (each of length E, in
// the orientation VertexCreateChunkEdgeRecurse establishes) plus
// centerTri's own three corners into a new chunk: every corner and
// edge-interior vertex becomes a SharedVertexId (create-if-absent; a
// newly created one starts at refcount 1, a reused one is incremented).
// centerTri is reference-held for the chunk's lifetime, tying mesh
// residency to the triangle skeleton per spec.md §4.4.
func (m *ChunkedMesh) ChunkCreate(sk *skeleton.TriangleSkeleton, centerTri skeleton.TriangleId, edgeA, edgeB, edgeC []skeleton.VertexId) (ChunkId, error) {
	if len(edgeA) != m.edgeCount || len(edgeB) != m.edgeCount || len(edgeC) != m.edgeCount {
		return NullChunk, simcore.New(simcore.GeometryShapeMismatch, "chunk edges have lengths %d/%d/%d, want %d", len(edgeA), len(edgeB), len(edgeC), m.edgeCount)
	}

	tri, err := sk.TriAt(centerTri)
	if err != nil {
		return NullChunk, err
	}

	// Reserve the chunk slot before minting any shared vertices, so a
	// CapacityExceeded here (chunks was reserved to exactly chunkCap with
	// auto-resize off) never leaves an orphaned shared-vertex refcount
	// behind.
	raw, err := m.chunks.Create()
	if err != nil {
		return NullChunk, err
	}
	chunkID := ChunkId(raw)

	ordered := make([]skeleton.VertexId, 0, m.lut.SharedCount())
	ordered = append(ordered, tri.Vertices[0])
	ordered = append(ordered, edgeA...)
	ordered = append(ordered, tri.Vertices[1])
	ordered = append(ordered, edgeB...)
	ordered = append(ordered, tri.Vertices[2])
	ordered = append(ordered, edgeC...)

	shared := make([]SharedVertexId, len(ordered))
	for i, v := range ordered {
		id, fresh, err := m.getOrCreateShared(v)
		if err != nil {
			return NullChunk, err
		}
		shared[i] = id
		if fresh {
			m.pendingShared = append(m.pendingShared, id)
		}
	}

	for len(m.chunkShared) <= int(chunkID) {
		m.chunkShared = append(m.chunkShared, nil)
		m.chunkCenter = append(m.chunkCenter, skeleton.NullTriangle)
	}
	m.chunkShared[chunkID] = shared
	m.chunkCenter[chunkID] = centerTri

	if err := sk.TriRefCountAdd(centerTri); err != nil {
		return NullChunk, err
	}
	return chunkID, nil
}

// ChunkDestroy releases chunkID: its shared vertices are
// reference-removed (freeing any that drop to zero) and centerTri's
// pinning reference is released.
func (m *ChunkedMesh) ChunkDestroy(sk *skeleton.TriangleSkeleton, chunkID ChunkId) error {
	shared := m.chunkShared[chunkID]
	for _, id := range shared {
		if m.sharedRefs[id] == 0 {
			return simcore.New(simcore.RefCountUnderflow, "shared vertex %d refcount underflow", id)
		}
		m.sharedRefs[id]--
		if m.sharedRefs[id] == 0 {
			skel := m.sharedToSkel[id]
			delete(m.skelToShared, skel)
			if err := m.sharedIds.Remove(uint32(id)); err != nil {
				return err
			}
		}
	}
	centerTri := m.chunkCenter[chunkID]
	m.chunkShared[chunkID] = nil
	m.chunkCenter[chunkID] = skeleton.NullTriangle

	if err := m.chunks.Remove(uint32(chunkID)); err != nil {
		return err
	}
	return sk.TriRefCountRemove(centerTri)
}

// ChunkShared returns chunkID's shared-vertex slice, in the canonical
// boundary order chunk_create assembled it.
func (m *ChunkedMesh) ChunkShared(chunkID ChunkId) []SharedVertexId {
	return m.chunkShared[chunkID]
}

// SharedToSkeleton returns the skeleton vertex a SharedVertexId refers
// to.
func (m *ChunkedMesh) SharedToSkeleton(id SharedVertexId) skeleton.VertexId {
	return m.sharedToSkel[id]
}

// SharedRefCount returns how many resident chunks currently touch a
// shared vertex.
func (m *ChunkedMesh) SharedRefCount(id SharedVertexId) uint8 {
	return m.sharedRefs[id]
}

// ChunkCount returns the number of currently resident chunks.
func (m *ChunkedMesh) ChunkCount() int { return len(m.chunks.Live()) }

// SharedUpdateCallback receives the SharedVertexIds created since the
// last call to SharedUpdate, the SharedVertexId→skeleton VertexId map,
// the shared region's byte offset, and the raw buffer. It is the only
// code path that writes to shared entries, per spec.md §4.5: this is
// where positions/normals/attributes for newly shared vertices get
// filled in from skeleton data.
type SharedUpdateCallback func(newlyAdded []SharedVertexId, sharedToSkel []skeleton.VertexId, sharedOffset int, buffer []byte)

// SharedUpdate invokes fn with every SharedVertexId created since the
// last SharedUpdate call, then clears the pending list.
func (m *ChunkedMesh) SharedUpdate(fn SharedUpdateCallback) {
	fn(m.pendingShared, m.sharedToSkel, m.SharedOffset(), m.buffer)
	m.pendingShared = nil
}

// ChunkVrtxFillCallback receives the chunk's shared-vertex slice, the
// per-chunk fill count, the shared region's byte offset, and the raw
// buffer. The callback walks LUT().Data() itself (mirroring the
// original's closure-captured LUT) to compute each fill vertex, by
// convention as the midpoint of its two ancestors resolved via
// LUT().Get, per spec.md §4.5 and §9.
type ChunkVrtxFillCallback func(chunkID ChunkId, chunkShared []SharedVertexId, fillCount int, sharedOffset int, buffer []byte)

// ChunkCalcVrtxFill invokes fn to compute chunkID's interior (fill)
// vertices.
func (m *ChunkedMesh) ChunkCalcVrtxFill(chunkID ChunkId, fn ChunkVrtxFillCallback) {
	fn(chunkID, m.chunkShared[chunkID], m.fillPerChunk, m.SharedOffset(), m.buffer)
}

// ChunkFillSlice returns the byte range of chunkID's fill region within
// the shared buffer, for callbacks that want to index it directly.
func (m *ChunkedMesh) ChunkFillSlice(chunkID ChunkId) []byte {
	start := int(chunkID) * m.fillPerChunk * m.vertexSize
	return m.buffer[start : start+m.fillPerChunk*m.vertexSize]
}

// ScaleExponent returns the negative power-of-two exponent used to
// convert fixed-point skeleton positions to floating-point world units.
func (m *ChunkedMesh) ScaleExponent() int { return m.scaleExp }
