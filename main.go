package main

import (
	"log"
	"runtime"
	"time"

	"github.com/ibd1279/vks"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/render"
	"github.com/ibd1279/vks-examples/rotating-cube/internal/transform"
)

func init() {
	runtime.LockOSThread()
}

const (
	WindowTitle  = "Rotating 3D Cube"
	WindowWidth  = render.DefaultWidth
	WindowHeight = render.DefaultHeight
)

// Main function.
func main() {
	vks.Init().OrPanic()
	defer vks.Destroy()

	var version uint32
	if result := vks.EnumerateInstanceVersion(&version); result.IsSuccess() {
		log.Printf("%v - API version", vks.ApiVersion(version))
		log.Printf("%v - vk.xml version", vks.VK_HEADER_VERSION_COMPLETE)
	}

	app := CubeApplication{
		Title:       WindowTitle,
		Width:       WindowWidth,
		Height:      WindowHeight,
		Increment:   transform.DefaultIncrement,
		FPSInterval: 5 * time.Second,
		Render:      render.DefaultConfig(),
	}
	if err := app.Run(); err != nil {
		log.Fatalf("%+v", err)
	}
}
