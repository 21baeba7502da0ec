package demo

import (
	"encoding/binary"
	"math"
)

// vertexSize is the byte layout this demo writes into the chunked
// mesh's buffer: position (3x float32) then normal (3x float32), the
// same 24-byte PlanetVertex layout SysPlanetA.cpp's PlanetVertex struct
// uses.
const vertexSize = 24

func putVertex(buf []byte, pos, normal [3]float32) {
	for i, v := range pos {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range normal {
		binary.LittleEndian.PutUint32(buf[12+i*4:], math.Float32bits(v))
	}
}

func getVertexPos(buf []byte) [3]float32 {
	var p [3]float32
	for i := range p {
		p[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return p
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func midpointNormalized(a, b [3]float32) ([3]float32, [3]float32) {
	mid := [3]float32{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2, (a[2] + b[2]) / 2}
	l := float32(math.Sqrt(float64(mid[0]*mid[0] + mid[1]*mid[1] + mid[2]*mid[2])))
	if l == 0 {
		return mid, [3]float32{0, 0, 0}
	}
	normal := [3]float32{mid[0] / l, mid[1] / l, mid[2] / l}
	return mid, normal
}
