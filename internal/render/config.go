package render

import (
	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/rotating-cube/shaders"
)

// Config describes the device to bring up. Optional layers and extensions
// are enabled only when the loader or driver reports them; required ones
// fail startup when missing.
type Config struct {
	AppName string
	Width   int
	Height  int

	OptionalInstanceLayers     []string
	OptionalInstanceExtensions []string
	RequiredDeviceExtensions   []string
	OptionalDeviceExtensions   []string

	// SPIR-V for each stage. A non-empty path replaces the embedded code
	// with the file's contents.
	VertexShader       []byte
	FragmentShader     []byte
	VertexShaderPath   string
	FragmentShaderPath string
	ShaderEntry        string
}

const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// DefaultConfig returns the settings the cube runs with.
func DefaultConfig() Config {
	return Config{
		AppName: "rotating-cube",
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		OptionalInstanceLayers: []string{
			"VK_LAYER_KHRONOS_validation",
		},
		OptionalInstanceExtensions: []string{
			vks.VK_KHR_PORTABILITY_ENUMERATION_EXTENSION_NAME,
			vks.VK_KHR_GET_PHYSICAL_DEVICE_PROPERTIES_2_EXTENSION_NAME,
		},
		RequiredDeviceExtensions: []string{
			vks.VK_KHR_SWAPCHAIN_EXTENSION_NAME,
		},
		OptionalDeviceExtensions: []string{
			vks.VK_KHR_PORTABILITY_SUBSET_EXTENSION_NAME,
		},
		VertexShader:   shaders.Vertex,
		FragmentShader: shaders.Fragment,
		ShaderEntry:    shaders.Entry,
	}
}

// Validate rejects settings New cannot work with.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if len(c.VertexShader) == 0 && c.VertexShaderPath == "" {
		return errors.New("no vertex shader")
	}
	if len(c.FragmentShader) == 0 && c.FragmentShaderPath == "" {
		return errors.New("no fragment shader")
	}
	if c.ShaderEntry == "" {
		return errors.New("shader entry point must be set")
	}
	return nil
}
