package render

import (
	"math"
	"testing"

	"github.com/ibd1279/vks"
	"github.com/stretchr/testify/assert"
)

func TestSelectAvailable(t *testing.T) {
	tests := []struct {
		name      string
		want      []string
		available []string
		have      []string
		missing   []string
	}{
		{"none wanted", nil, []string{"a"}, nil, nil},
		{"all present", []string{"a", "b"}, []string{"b", "a", "c"}, []string{"a", "b"}, nil},
		{"some missing", []string{"a", "x", "b"}, []string{"a", "b"}, []string{"a", "b"}, []string{"x"}},
		{"nothing available", []string{"a"}, nil, nil, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			have, missing := selectAvailable(tt.want, tt.available)
			assert.Equal(t, tt.have, have)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestPickQueueFamilies(t *testing.T) {
	graphics := vks.QueueFlags(vks.VK_QUEUE_GRAPHICS_BIT)
	compute := vks.QueueFlags(vks.VK_QUEUE_COMPUTE_BIT)

	tests := []struct {
		name       string
		flags      []vks.QueueFlags
		canPresent []bool
		graphics   Option[uint32]
		present    Option[uint32]
	}{
		{
			name:       "one family does both",
			flags:      []vks.QueueFlags{graphics | compute},
			canPresent: []bool{true},
			graphics:   Some[uint32](0),
			present:    Some[uint32](0),
		},
		{
			name:       "shared family preferred",
			flags:      []vks.QueueFlags{graphics, compute, graphics},
			canPresent: []bool{false, true, true},
			graphics:   Some[uint32](2),
			present:    Some[uint32](2),
		},
		{
			name:       "split families",
			flags:      []vks.QueueFlags{compute, graphics},
			canPresent: []bool{true, false},
			graphics:   Some[uint32](1),
			present:    Some[uint32](0),
		},
		{
			name:       "no present",
			flags:      []vks.QueueFlags{graphics},
			canPresent: []bool{false},
			graphics:   Some[uint32](0),
			present:    None[uint32](),
		},
		{
			name:       "no graphics",
			flags:      []vks.QueueFlags{compute},
			canPresent: []bool{true},
			graphics:   None[uint32](),
			present:    Some[uint32](0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, p := pickQueueFamilies(tt.flags, tt.canPresent)
			assert.Equal(t, tt.graphics, g)
			assert.Equal(t, tt.present, p)
		})
	}
}

func TestPickMemoryType(t *testing.T) {
	local := vks.MemoryPropertyFlags(vks.VK_MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	visible := vks.MemoryPropertyFlags(vks.VK_MEMORY_PROPERTY_HOST_VISIBLE_BIT)
	coherent := vks.MemoryPropertyFlags(vks.VK_MEMORY_PROPERTY_HOST_COHERENT_BIT)
	types := []vks.MemoryPropertyFlags{local, visible, visible | coherent, local | visible | coherent}

	assert.Equal(t, Some[uint32](0), pickMemoryType(types, 0xf, local))
	assert.Equal(t, Some[uint32](2), pickMemoryType(types, 0xf, visible|coherent))
	assert.Equal(t, Some[uint32](3), pickMemoryType(types, 0x9, visible|coherent))
	assert.Equal(t, Some[uint32](3), pickMemoryType(types, 0x8, local))
	assert.False(t, pickMemoryType(types, 0x1, visible).IsSet())
	assert.False(t, pickMemoryType(nil, 0xffffffff, local).IsSet())
}

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := vks.SurfaceFormatKHR{}.
		WithFormat(vks.VK_FORMAT_B8G8R8A8_UNORM).
		WithColorSpace(vks.VK_COLOR_SPACE_SRGB_NONLINEAR_KHR)
	srgb := vks.SurfaceFormatKHR{}.
		WithFormat(vks.VK_FORMAT_B8G8R8A8_SRGB).
		WithColorSpace(vks.VK_COLOR_SPACE_SRGB_NONLINEAR_KHR)

	assert.Equal(t, vks.VK_FORMAT_B8G8R8A8_SRGB, chooseSurfaceFormat([]vks.SurfaceFormatKHR{unorm, srgb}).Format())
	assert.Equal(t, vks.VK_FORMAT_B8G8R8A8_UNORM, chooseSurfaceFormat([]vks.SurfaceFormatKHR{unorm}).Format())
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(2), chooseImageCount(1, 0))
	assert.Equal(t, uint32(2), chooseImageCount(2, 8))
	assert.Equal(t, uint32(3), chooseImageCount(3, 0))
	assert.Equal(t, uint32(1), chooseImageCount(1, 1))
}

func TestChooseExtent(t *testing.T) {
	lo := [2]uint32{1, 1}
	hi := [2]uint32{4096, 4096}

	assert.Equal(t, [2]uint32{800, 600}, chooseExtent([2]uint32{800, 600}, lo, hi, 1024, 768))

	undefined := [2]uint32{math.MaxUint32, math.MaxUint32}
	assert.Equal(t, [2]uint32{800, 600}, chooseExtent(undefined, lo, hi, 800, 600))
	assert.Equal(t, [2]uint32{4096, 1}, chooseExtent(undefined, lo, hi, 5000, 0))
}

func TestOption(t *testing.T) {
	assert.True(t, Some(3).IsSet())
	assert.Equal(t, 3, Some(3).Some())
	assert.False(t, None[int]().IsSet())
	assert.Equal(t, 7, None[int]().SomeOr(func() int { return 7 }))
	assert.Panics(t, func() { None[int]().Some() })
}

func TestHasArea(t *testing.T) {
	assert.True(t, hasArea(800, 600))
	assert.True(t, hasArea(1, 1))
	assert.False(t, hasArea(0, 0), "minimized")
	assert.False(t, hasArea(800, 0))
	assert.False(t, hasArea(0, 600))
}

func TestFrameActions(t *testing.T) {
	// Drivers return the negative code; vks declares the positive one.
	outOfDate := -vks.VK_ERROR_OUT_OF_DATE_KHR

	tests := []struct {
		name    string
		result  vks.Result
		acquire frameAction
		present frameAction
	}{
		{"success", vks.VK_SUCCESS, frameDraw, frameDraw},
		{"suboptimal", vks.VK_SUBOPTIMAL_KHR, frameDraw, frameRecreate},
		{"out of date", outOfDate, frameRecreate, frameRecreate},
		{"out of date as declared", vks.VK_ERROR_OUT_OF_DATE_KHR, frameRecreate, frameRecreate},
		{"device lost", vks.VK_ERROR_DEVICE_LOST, frameFail, frameFail},
		{"timeout", vks.VK_TIMEOUT, frameFail, frameFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.acquire, acquireAction(tt.result), "acquire")
			assert.Equal(t, tt.present, presentAction(tt.result), "present")
		})
	}
}

func TestFrameActionString(t *testing.T) {
	assert.Equal(t, "draw", frameDraw.String())
	assert.Equal(t, "recreate", frameRecreate.String())
	assert.Equal(t, "fail", frameFail.String())
}
