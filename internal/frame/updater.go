// Package frame drives one rendered frame: advance the rotation, upload
// the transform, clear, draw, present.
package frame

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/geometry"
	"github.com/ibd1279/vks-examples/rotating-cube/internal/transform"
)

// Device is the part of the GPU the per-frame update talks to.
type Device interface {
	// WriteTransform overwrites the whole constant buffer with m.
	WriteTransform(m mgl32.Mat4) error
	// BeginFrame acquires the next target and clears it to clear. It
	// returns ErrSkipFrame when there is no target to draw to this time.
	BeginFrame(clear mgl32.Vec4) error
	// DrawIndexed draws indexCount indices of the cube starting at firstIndex.
	DrawIndexed(indexCount, firstIndex uint32) error
	// Present shows the frame, blocking until the next vertical blank.
	Present() error
}

// State is where the updater is in its cycle.
type State int

const (
	Idle State = iota
	Updating
	Presented
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Updating:
		return "Updating"
	case Presented:
		return "Presented"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrSkipFrame drops the current frame without failing the loop.
var ErrSkipFrame = errors.New("frame skipped")

// ClearColor is opaque black.
var ClearColor = mgl32.Vec4{0, 0, 0, 1}

// Updater owns the animation state and runs one frame per Tick.
type Updater struct {
	Spinner *transform.Spinner
	// Observe, when set, is called on every state change.
	Observe func(State)

	state   State
	frames  uint64
	skipped uint64
	resizes int
}

// NewUpdater starts at angle zero for a width×height target.
func NewUpdater(width, height int, increment float32) *Updater {
	return &Updater{Spinner: transform.NewSpinner(width, height, increment)}
}

func (u *Updater) State() State    { return u.state }
func (u *Updater) Frames() uint64  { return u.frames }
func (u *Updater) Skipped() uint64 { return u.skipped }
func (u *Updater) Resizes() int    { return u.resizes }

// Prime writes the transform for the current angle without advancing it.
func (u *Updater) Prime(dev Device) error {
	return dev.WriteTransform(u.Spinner.Combined())
}

// Tick advances the angle by one increment and renders a frame with it.
// The updater is back in Idle when Tick returns, whether or not the frame
// made it to the screen. A skipped frame is not an error.
func (u *Updater) Tick(dev Device) error {
	u.enter(Updating)
	presented := false
	defer func() {
		if presented {
			u.frames++
			u.enter(Presented)
		}
		u.enter(Idle)
	}()

	u.Spinner.Step()
	if err := dev.WriteTransform(u.Spinner.Combined()); err != nil {
		return err
	}
	if err := dev.BeginFrame(ClearColor); err != nil {
		if errors.Is(err, ErrSkipFrame) {
			u.skipped++
			return nil
		}
		return err
	}
	if err := dev.DrawIndexed(geometry.IndexCount, 0); err != nil {
		return err
	}
	if err := dev.Present(); err != nil {
		return err
	}
	presented = true
	return nil
}

func (u *Updater) enter(s State) {
	u.state = s
	if u.Observe != nil {
		u.Observe(s)
	}
}

// Resize notes a change in window size. The projection keeps the aspect
// it was created with; the device stretches the image to the new size.
func (u *Updater) Resize(width, height int) {
	u.resizes++
	log.Printf("resize to %dx%d, projection stays at aspect %.4f",
		width, height, u.Spinner.Aspect())
}
