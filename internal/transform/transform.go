// Package transform computes the per-frame world-view-projection matrix
// for the spinning cube.
//
// Matrices are mgl32 column-major with column vectors, so the
// world × view × projection concatenation of a row-vector convention is
// evaluated here as Projection · View · World.
package transform

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultIncrement is the rotation added per rendered frame, in radians.
	DefaultIncrement float32 = 0.01

	FieldOfView float32 = 45 // degrees, vertical
	Near        float32 = 0.1
	Far         float32 = 100
)

var (
	Eye    = mgl32.Vec3{0, 0, -5}
	Target = mgl32.Vec3{0, 0, 0}
	Up     = mgl32.Vec3{0, 1, 0}
)

// ClipCorrection maps OpenGL-style clip space, which mgl32 produces, to
// Vulkan's: Y points down and depth runs from 0 to 1.
var ClipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// View returns the fixed camera matrix.
func View() mgl32.Mat4 {
	return mgl32.LookAtV(Eye, Target, Up)
}

// Projection returns the fixed perspective for a surface of the given size.
func Projection(width, height int) mgl32.Mat4 {
	aspect := float32(width) / float32(height)
	return ClipCorrection.Mul4(
		mgl32.Perspective(mgl32.DegToRad(FieldOfView), aspect, Near, Far),
	)
}

// World returns the rotation about +Y by angle radians.
func World(angle float32) mgl32.Mat4 {
	return mgl32.HomogRotate3DY(angle)
}

// Spinner accumulates the rotation angle and produces the combined
// transform. View and projection are computed once; only the angle
// changes after construction.
type Spinner struct {
	Angle     float32
	Increment float32

	width, height int
	view          mgl32.Mat4
	projection    mgl32.Mat4
}

// NewSpinner builds a spinner for a width×height surface starting at
// angle zero. The angle grows by increment per Step; zero holds it still.
func NewSpinner(width, height int, increment float32) *Spinner {
	return &Spinner{
		Increment:  increment,
		width:      width,
		height:     height,
		view:       View(),
		projection: Projection(width, height),
	}
}

// Step advances the angle by one increment. The angle is never wrapped.
func (s *Spinner) Step() {
	s.Angle += s.Increment
}

func (s *Spinner) World() mgl32.Mat4      { return World(s.Angle) }
func (s *Spinner) View() mgl32.Mat4       { return s.view }
func (s *Spinner) Projection() mgl32.Mat4 { return s.projection }

// Aspect is the width/height ratio the projection was built with.
func (s *Spinner) Aspect() float32 {
	return float32(s.width) / float32(s.height)
}

// Combined returns world × view × projection for the current angle.
func (s *Spinner) Combined() mgl32.Mat4 {
	return s.projection.Mul4(s.view).Mul4(s.World())
}
