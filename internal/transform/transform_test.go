package transform

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-5

func assertMatEqual(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, tol), "want\n%v\ngot\n%v", want, got)
}

func TestAngleIsFrameProportional(t *testing.T) {
	s := NewSpinner(800, 600, DefaultIncrement)
	assert.Equal(t, DefaultIncrement, s.Increment)
	assert.Zero(t, s.Angle)
	for n := 1; n <= 500; n++ {
		s.Step()
		assert.InDelta(t, float64(n)*float64(DefaultIncrement), float64(s.Angle), 1e-4, "frame %d", n)
	}
}

func TestHundredSteps(t *testing.T) {
	s := NewSpinner(800, 600, DefaultIncrement)
	for i := 0; i < 100; i++ {
		s.Step()
	}
	assert.InDelta(t, 1.0, float64(s.Angle), 1e-4)
}

func TestCustomIncrement(t *testing.T) {
	s := NewSpinner(800, 600, 0.5)
	s.Step()
	s.Step()
	assert.InDelta(t, 1.0, float64(s.Angle), 1e-6)
}

func TestZeroIncrementHoldsStill(t *testing.T) {
	s := NewSpinner(800, 600, 0)
	assert.Zero(t, s.Increment)
	for i := 0; i < 10; i++ {
		s.Step()
	}
	assert.Zero(t, s.Angle)
	assertMatEqual(t, mgl32.Ident4(), s.World())
}

func TestWorldRoundTrip(t *testing.T) {
	for _, a := range []float32{0, 0.01, 1, math.Pi, 7.5, -3} {
		assertMatEqual(t, mgl32.Ident4(), World(a).Mul4(World(-a)))
	}
}

func TestWorldAtZeroIsIdentity(t *testing.T) {
	s := NewSpinner(800, 600, 0)
	assertMatEqual(t, mgl32.Ident4(), s.World())
}

func TestWorldRotatesAboutY(t *testing.T) {
	w := World(math.Pi / 2)
	// +X goes to -Z for a right-handed quarter turn about +Y.
	got := w.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec4{0, 0, -1, 1}, tol), "%v", got)
	// Y is invariant.
	got = w.Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec4{0, 1, 0, 1}, tol), "%v", got)
}

func TestCombinedOrder(t *testing.T) {
	s := NewSpinner(800, 600, DefaultIncrement)
	for i := 0; i < 10; i++ {
		s.Step()
		want := s.Projection().Mul4(s.View()).Mul4(World(s.Angle))
		assertMatEqual(t, want, s.Combined())
	}
}

func TestViewAndProjectionFixed(t *testing.T) {
	s := NewSpinner(800, 600, DefaultIncrement)
	v, p := s.View(), s.Projection()
	for i := 0; i < 50; i++ {
		s.Step()
	}
	assert.Equal(t, v, s.View())
	assert.Equal(t, p, s.Projection())
	assertMatEqual(t, View(), v)
	assertMatEqual(t, Projection(800, 600), p)
}

func TestViewLooksAtOrigin(t *testing.T) {
	// The origin sits 5 units straight ahead of the camera.
	got := View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec4{0, 0, -5, 1}, tol), "%v", got)
	got = View().Mul4x1(Eye.Vec4(1))
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec4{0, 0, 0, 1}, tol), "%v", got)
}

func TestProjectionDepthRange(t *testing.T) {
	p := Projection(800, 600)
	ndcZ := func(viewZ float32) float32 {
		c := p.Mul4x1(mgl32.Vec4{0, 0, viewZ, 1})
		return c.Z() / c.W()
	}
	assert.InDelta(t, 0, float64(ndcZ(-Near)), tol)
	assert.InDelta(t, 1, float64(ndcZ(-Far)), 1e-4)
}

func TestProjectionFlipsY(t *testing.T) {
	p := Projection(800, 600)
	c := p.Mul4x1(mgl32.Vec4{0, 1, -5, 1})
	assert.Less(t, c.Y()/c.W(), float32(0))
}

func TestAspect(t *testing.T) {
	s := NewSpinner(800, 600, 0)
	assert.InDelta(t, 800.0/600.0, float64(s.Aspect()), tol)
}

func TestCubeInsideClipVolume(t *testing.T) {
	s := NewSpinner(800, 600, 0)
	for frame := 0; frame < 700; frame += 37 {
		s.Angle = float32(frame) * DefaultIncrement
		m := s.Combined()
		for _, x := range []float32{-1, 1} {
			for _, y := range []float32{-1, 1} {
				for _, z := range []float32{-1, 1} {
					c := m.Mul4x1(mgl32.Vec4{x, y, z, 1})
					ndc := c.Vec3().Mul(1 / c.W())
					assert.True(t, ndc.X() > -1 && ndc.X() < 1, "x %v", ndc)
					assert.True(t, ndc.Y() > -1 && ndc.Y() < 1, "y %v", ndc)
					assert.True(t, ndc.Z() > 0 && ndc.Z() < 1, "z %v", ndc)
				}
			}
		}
	}
}
