package geometry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicesInRange(t *testing.T) {
	idx := Indices()
	require.Len(t, idx, IndexCount)
	for k, i := range idx {
		assert.Less(t, int(i), VertexCount, "index %d", k)
	}
}

func TestEveryVertexUsed(t *testing.T) {
	seen := make(map[uint16]bool)
	for _, i := range Indices() {
		seen[i] = true
	}
	assert.Len(t, seen, VertexCount)
}

func TestVerticesAreUnitCubeCorners(t *testing.T) {
	verts := Vertices()
	require.Len(t, verts, VertexCount)
	seen := make(map[Vertex]bool)
	for _, v := range verts {
		for _, c := range []float32{v.X, v.Y, v.Z} {
			assert.Equal(t, float32(1), float32(math.Abs(float64(c))))
		}
		seen[v] = true
	}
	assert.Len(t, seen, VertexCount, "corners must be distinct")
}

type edge [2]uint16

func mkEdge(a, b uint16) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

func triEdges(tri [3]uint16) []edge {
	return []edge{
		mkEdge(tri[0], tri[1]),
		mkEdge(tri[1], tri[2]),
		mkEdge(tri[2], tri[0]),
	}
}

func TestFacesShareOneEdge(t *testing.T) {
	faces := Faces()
	require.Len(t, faces, FaceCount)
	for f, face := range faces {
		a := triEdges(face[0])
		b := triEdges(face[1])
		shared := 0
		for _, ea := range a {
			for _, eb := range b {
				if ea == eb {
					shared++
				}
			}
		}
		assert.Equal(t, 1, shared, "face %d", f)
	}
}

func TestFacesArePlanar(t *testing.T) {
	verts := Vertices()
	for f, face := range Faces() {
		// Exactly one axis is constant across all six corners of a face.
		constant := 0
		for axis := 0; axis < 3; axis++ {
			get := func(v Vertex) float32 { return [3]float32{v.X, v.Y, v.Z}[axis] }
			first := get(verts[face[0][0]])
			same := true
			for _, tri := range face {
				for _, i := range tri {
					if get(verts[i]) != first {
						same = false
					}
				}
			}
			if same {
				constant++
			}
		}
		assert.Equal(t, 1, constant, "face %d", f)
	}
}

// The outward normal of every triangle, computed from its winding, must
// point away from the cube centre. This pins the winding to be the same
// for every face.
func TestWindingConsistent(t *testing.T) {
	verts := Vertices()
	sub := func(a, b Vertex) Vertex { return Vertex{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
	cross := func(a, b Vertex) Vertex {
		return Vertex{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
	}
	dot := func(a, b Vertex) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

	var sign float32
	for f, face := range Faces() {
		for _, tri := range face {
			p0, p1, p2 := verts[tri[0]], verts[tri[1]], verts[tri[2]]
			n := cross(sub(p1, p0), sub(p2, p0))
			centroid := Vertex{(p0.X + p1.X + p2.X) / 3, (p0.Y + p1.Y + p2.Y) / 3, (p0.Z + p1.Z + p2.Z) / 3}
			d := dot(n, centroid)
			require.NotZero(t, d, "face %d degenerate", f)
			if sign == 0 {
				sign = d
			}
			assert.True(t, (d > 0) == (sign > 0), "face %d winding differs", f)
		}
	}
}

func TestVertexBytes(t *testing.T) {
	b := VertexBytes()
	require.Len(t, b, VertexCount*VertexStride)
	verts := Vertices()
	for k, v := range verts {
		off := k * VertexStride
		assert.Equal(t, v.X, math.Float32frombits(binary.LittleEndian.Uint32(b[off:])))
		assert.Equal(t, v.Y, math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:])))
		assert.Equal(t, v.Z, math.Float32frombits(binary.LittleEndian.Uint32(b[off+8:])))
	}
}

func TestIndexBytes(t *testing.T) {
	b := IndexBytes()
	require.Len(t, b, IndexCount*IndexSize)
	for k, i := range Indices() {
		assert.Equal(t, i, binary.LittleEndian.Uint16(b[k*IndexSize:]))
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	v := Vertices()
	v[0].X = 42
	assert.NotEqual(t, float32(42), Vertices()[0].X)

	i := Indices()
	i[0] = 7
	assert.Equal(t, uint16(0), Indices()[0])
}
