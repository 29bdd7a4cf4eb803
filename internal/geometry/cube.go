// Package geometry holds the static cube mesh: eight corner positions and
// the thirty-six indices that stitch them into twelve triangles.
package geometry

import (
	"encoding/binary"
	"math"
)

const (
	VertexCount = 8
	IndexCount  = 36
	FaceCount   = 6

	// VertexStride is the size in bytes of one position (3 float32).
	VertexStride = 12
	// IndexSize is the size in bytes of one index.
	IndexSize = 2
)

// Vertex is a position in model space.
type Vertex struct {
	X, Y, Z float32
}

// Face is one side of the cube as two triangles of three indices each.
type Face [2][3]uint16

var vertices = [VertexCount]Vertex{
	{-1, -1, -1},
	{-1, +1, -1},
	{+1, +1, -1},
	{+1, -1, -1},
	{-1, -1, +1},
	{-1, +1, +1},
	{+1, +1, +1},
	{+1, -1, +1},
}

var indices = [IndexCount]uint16{
	// front (z = -1)
	0, 1, 2,
	0, 2, 3,
	// back (z = +1)
	4, 6, 5,
	4, 7, 6,
	// left (x = -1)
	4, 5, 1,
	4, 1, 0,
	// right (x = +1)
	3, 2, 6,
	3, 6, 7,
	// top (y = +1)
	1, 5, 6,
	1, 6, 2,
	// bottom (y = -1)
	4, 0, 3,
	4, 3, 7,
}

// Vertices returns a copy of the cube corners.
func Vertices() []Vertex {
	v := make([]Vertex, VertexCount)
	copy(v, vertices[:])
	return v
}

// Indices returns a copy of the triangle list.
func Indices() []uint16 {
	i := make([]uint16, IndexCount)
	copy(i, indices[:])
	return i
}

// Faces groups the triangle list by cube side, in the order the
// index list stores them.
func Faces() []Face {
	faces := make([]Face, FaceCount)
	for f := range faces {
		for t := 0; t < 2; t++ {
			base := f*6 + t*3
			copy(faces[f][t][:], indices[base:base+3])
		}
	}
	return faces
}

// VertexBytes encodes the vertices the way the vertex input binding
// reads them: three little-endian float32 per vertex, no padding.
func VertexBytes() []byte {
	b := make([]byte, 0, VertexCount*VertexStride)
	for _, v := range vertices {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.X))
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Y))
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Z))
	}
	return b
}

// IndexBytes encodes the indices as little-endian uint16.
func IndexBytes() []byte {
	b := make([]byte, 0, IndexCount*IndexSize)
	for _, i := range indices {
		b = binary.LittleEndian.AppendUint16(b, i)
	}
	return b
}
