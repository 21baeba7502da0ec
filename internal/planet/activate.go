package planet

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stellarforge/spacesim/internal/config"
	"github.com/stellarforge/spacesim/internal/planet/mesh"
	"github.com/stellarforge/spacesim/internal/planet/skeleton"
)

// Activation is one seeded, chunked planet: the triangle skeleton, the
// chunked mesh built over it, and the fixed-point position of every
// skeleton vertex minted so far. Mirrors the locals SysPlanetA::activate
// builds up before handing the chunked mesh to the renderer.
type Activation struct {
	Skeleton  *skeleton.TriangleSkeleton
	Mesh      *mesh.ChunkedMesh
	Chunks    []mesh.ChunkId
	Positions map[skeleton.VertexId]FixedVec3
	ScaleExp  int
}

// Activate seeds an icosahedron base mesh and chunks every one of its 20
// faces at cfg.ChunkLevel, exactly as SysPlanetA::activate does for a
// freshly-loaded planet (minus the ECS entity/transform bookkeeping,
// which stays outside this module's scope).
func Activate(cfg config.PlanetConfig, log *zap.Logger) (*Activation, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sk := skeleton.NewTriangleSkeleton(false)
	m := mesh.NewChunkedMesh(cfg.ChunkLevel, cfg.VertexSize, cfg.ChunkCapacity, cfg.ScaleExponent)

	a := &Activation{Skeleton: sk, Mesh: m, Positions: make(map[skeleton.VertexId]FixedVec3), ScaleExp: cfg.ScaleExponent}

	icoUnit := icosahedronVertices()
	faces := icosahedronFaces()

	var icoVerts [12]skeleton.VertexId
	for i, u := range icoUnit {
		v, err := sk.VertexCreateRoot()
		if err != nil {
			return nil, errors.Wrapf(err, "seeding icosahedron corner %d", i)
		}
		icoVerts[i] = v
		a.Positions[v] = fixedFromUnit(u, cfg.RadiusMeters, cfg.ScaleExponent)
	}

	var icoTris [20]skeleton.TriangleId
	for g := 0; g < 5; g++ {
		var quad [4][3]skeleton.VertexId
		for s := 0; s < 4; s++ {
			f := faces[g*4+s]
			quad[s] = [3]skeleton.VertexId{icoVerts[f[0]], icoVerts[f[1]], icoVerts[f[2]]}
		}
		group, err := sk.TriGroupCreate(0, skeleton.NullTriangle, quad)
		if err != nil {
			return nil, errors.Wrapf(err, "seeding icosahedron face group %d", g)
		}
		for s := 0; s < 4; s++ {
			icoTris[g*4+s] = skeleton.TriID(group, uint8(s))
		}
	}

	log.Info("icosahedron seeded", zap.Int("vertices", 12), zap.Int("faces", 20))

	var errs error
	for fi, tri := range icoTris {
		f := faces[fi]
		chunkID, err := a.chunkFace(sk, m, cfg, tri, icoUnit[f[0]], icoUnit[f[1]], icoUnit[f[2]])
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "chunking face %d", fi))
			continue
		}
		a.Chunks = append(a.Chunks, chunkID)
	}
	if errs != nil {
		return nil, errs
	}

	log.Info("planet activated", zap.Int("chunks", len(a.Chunks)), zap.Int("skeleton_vertices", sk.VertexCount()))
	return a, nil
}

// chunkFace builds the three chunk-edge vertex arrays for one icosahedron
// face, records their fixed-point positions (by fractional placement
// along the slerp'd great-circle edge, independent of subdivision
// order), pins the face's triangle, and hands the edges to ChunkCreate.
func (a *Activation) chunkFace(sk *skeleton.TriangleSkeleton, m *mesh.ChunkedMesh, cfg config.PlanetConfig, tri skeleton.TriangleId, u0, u1, u2 [3]float64) (mesh.ChunkId, error) {
	level := cfg.ChunkLevel
	e := 0
	if level > 0 {
		e = (1 << uint(level)) - 1
	}

	triData, err := sk.TriAt(tri)
	if err != nil {
		return mesh.NullChunk, err
	}
	v0, v1, v2 := triData.Vertices[0], triData.Vertices[1], triData.Vertices[2]

	edgeA := make([]skeleton.VertexId, e)
	edgeB := make([]skeleton.VertexId, e)
	edgeC := make([]skeleton.VertexId, e)

	if err := sk.VertexCreateChunkEdgeRecurse(level, v0, v1, edgeA); err != nil {
		return mesh.NullChunk, err
	}
	if err := sk.VertexCreateChunkEdgeRecurse(level, v1, v2, edgeB); err != nil {
		return mesh.NullChunk, err
	}
	if err := sk.VertexCreateChunkEdgeRecurse(level, v2, v0, edgeC); err != nil {
		return mesh.NullChunk, err
	}

	a.recordEdgePositions(u0, u1, edgeA, cfg)
	a.recordEdgePositions(u1, u2, edgeB, cfg)
	a.recordEdgePositions(u2, u0, edgeC, cfg)

	return m.ChunkCreate(sk, tri, edgeA, edgeB, edgeC)
}

func (a *Activation) recordEdgePositions(u0, u1 [3]float64, edge []skeleton.VertexId, cfg config.PlanetConfig) {
	n := len(edge) + 1
	for i, v := range edge {
		if _, ok := a.Positions[v]; ok {
			continue // already placed by the neighboring face sharing this edge
		}
		t := float64(i+1) / float64(n)
		a.Positions[v] = fixedFromUnit(slerpUnit(u0, u1, t), cfg.RadiusMeters, cfg.ScaleExponent)
	}
}
