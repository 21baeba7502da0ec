// Package planet ties the triangle skeleton and chunked mesh together
// into a seeded planet: the icosahedron base mesh, fixed-point vertex
// positions, and the chunk activation step an external driver performs
// once per loaded planet. Grounded in
// original_source/src/planet-a/Active/SysPlanetA.cpp's activate(), which
// builds a SubdivTriangleSkeleton from an icosahedron (via the pack's
// missing icosahedron.h) and chunk_creates one chunk per face.
package planet

import "math"

// FixedVec3 is a fixed-point position, the Go equivalent of the
// original's Vector3l: plain int64 components scaled by 2^-scaleExp
// meters. original_source carries these as Magnum Vector3l; this module
// has no reason to depend on a scenegraph math library for three
// integers, so it is a small local type rather than a borrowed one.
type FixedVec3 struct {
	X, Y, Z int64
}

// ToFloat32 converts back to meters given the scale exponent used to
// produce it.
func (v FixedVec3) ToFloat32(scaleExp int) [3]float32 {
	scale := math.Pow(2, -float64(scaleExp))
	return [3]float32{
		float32(float64(v.X) * scale),
		float32(float64(v.Y) * scale),
		float32(float64(v.Z) * scale),
	}
}

func fixedFromUnit(u [3]float64, radius float64, scaleExp int) FixedVec3 {
	scale := math.Pow(2, float64(scaleExp))
	return FixedVec3{
		X: int64(math.Round(u[0] * radius * scale)),
		Y: int64(math.Round(u[1] * radius * scale)),
		Z: int64(math.Round(u[2] * radius * scale)),
	}
}

func normalize(v [3]float64) [3]float64 {
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}
}

// slerpUnit spherically interpolates between two unit vectors at
// fraction t in [0, 1]. Used to place chunk-edge interior vertices
// exactly on the sphere regardless of how the skeleton's binary
// subdivision tree happened to build up to them: a vertex's final
// position is a pure function of its fractional placement along the
// original root edge, not of subdivision order.
func slerpUnit(a, b [3]float64, t float64) [3]float64 {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	omega := math.Acos(dot)
	if omega < 1e-9 {
		return normalize([3]float64{
			a[0] + (b[0]-a[0])*t,
			a[1] + (b[1]-a[1])*t,
			a[2] + (b[2]-a[2])*t,
		})
	}
	sinOmega := math.Sin(omega)
	wa := math.Sin((1-t)*omega) / sinOmega
	wb := math.Sin(t*omega) / sinOmega
	return [3]float64{
		a[0]*wa + b[0]*wb,
		a[1]*wa + b[1]*wb,
		a[2]*wa + b[2]*wb,
	}
}

// icosahedronVertices are the 12 standard icosahedron corners (unit
// sphere, golden-ratio construction), normalized.
func icosahedronVertices() [12][3]float64 {
	t := (1 + math.Sqrt(5)) / 2
	raw := [12][3]float64{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range raw {
		raw[i] = normalize(raw[i])
	}
	return raw
}

// icosahedronFaces are the 20 standard icosahedron faces, each a triple
// of indices into icosahedronVertices, wound CCW as seen from outside.
func icosahedronFaces() [20][3]int {
	return [20][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
}
