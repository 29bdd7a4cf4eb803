package main

import (
	"log"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/loov/hrtime"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/frame"
	"github.com/ibd1279/vks-examples/rotating-cube/internal/render"
)

var _ frame.Device = (*render.Device)(nil)

// CubeApplication owns the window, the GPU device and the animation state.
type CubeApplication struct {
	Title       string
	Width       int
	Height      int
	Increment   float32
	FPSInterval time.Duration
	Render      render.Config

	window  *glfw.Window
	device  *render.Device
	updater *frame.Updater
	rate    frame.Rate
}

func (app *CubeApplication) glfwSetup() error {
	// Initialize GLFW
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "init glfw")
	}

	// Tell GLFW we aren't using OpenGL.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	// Create the window object.
	window, err := glfw.CreateWindow(app.Width, app.Height, app.Title, nil, nil)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	app.window = window

	app.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if app.updater != nil {
			app.updater.Resize(width, height)
		}
	})
	return nil
}

func (app *CubeApplication) vulkanSetup() error {
	cfg := app.Render
	cfg.Width, cfg.Height = app.Width, app.Height

	device, err := render.New(app.window, cfg)
	if err != nil {
		return err
	}
	app.device = device

	width, height := device.Extent()
	app.updater = frame.NewUpdater(width, height, app.Increment)
	return errors.Wrap(app.updater.Prime(app.device), "initial transform")
}

// mainLoop drains pending window events, then renders one frame, until the
// window is asked to close.
func (app *CubeApplication) mainLoop() error {
	app.rate = frame.Rate{Interval: app.FPSInterval}
	for !app.window.ShouldClose() {
		glfw.PollEvents()
		if err := app.updater.Tick(app.device); err != nil {
			return errors.Wrapf(err, "frame %d", app.updater.Frames())
		}
		if fps, ok := app.rate.Observe(hrtime.Now()); ok {
			log.Printf("%.1f fps, angle %.2f rad", fps, app.updater.Spinner.Angle)
		}
	}
	log.Printf("window closed after %d frames, %d skipped", app.updater.Frames(), app.updater.Skipped())
	return nil
}

func (app *CubeApplication) cleanup() {
	if app.device != nil {
		app.device.Close()
		app.device = nil
	}
	if app.window != nil {
		app.window.Destroy()
		app.window = nil
	}
	glfw.Terminate()
}

// Run opens the window, brings up the device and renders until the window
// closes. Everything created is released before Run returns, on success or
// failure.
func (app *CubeApplication) Run() error {
	defer app.cleanup()
	if err := app.glfwSetup(); err != nil {
		return err
	}
	if err := app.vulkanSetup(); err != nil {
		return err
	}
	return app.mainLoop()
}
