package render

import (
	"math"

	"github.com/ibd1279/vks"
)

// selectAvailable splits want into the names present in available and
// the names that are not. Order follows want.
func selectAvailable(want, available []string) (have, missing []string) {
	index := make(map[string]bool, len(available))
	for _, a := range available {
		index[a] = true
	}
	for _, w := range want {
		if index[w] {
			have = append(have, w)
		} else {
			missing = append(missing, w)
		}
	}
	return have, missing
}

// pickQueueFamilies returns the first family with graphics support and the
// first family that can present, preferring a single family for both.
func pickQueueFamilies(flags []vks.QueueFlags, canPresent []bool) (graphics, present Option[uint32]) {
	for k := range flags {
		index := uint32(k)
		isGraphics := flags[k]&vks.QueueFlags(vks.VK_QUEUE_GRAPHICS_BIT) != 0
		if isGraphics && k < len(canPresent) && canPresent[k] {
			return Some(index), Some(index)
		}
		if isGraphics && !graphics.IsSet() {
			graphics = Some(index)
		}
		if k < len(canPresent) && canPresent[k] && !present.IsSet() {
			present = Some(index)
		}
	}
	return graphics, present
}

// pickMemoryType returns the first memory type allowed by typeBits whose
// properties include want.
func pickMemoryType(types []vks.MemoryPropertyFlags, typeBits uint32, want vks.MemoryPropertyFlags) Option[uint32] {
	for k, flags := range types {
		if typeBits&(1<<uint(k)) == 0 {
			continue
		}
		if flags&want == want {
			return Some(uint32(k))
		}
	}
	return None[uint32]()
}

// chooseSurfaceFormat prefers 8-bit sRGB BGRA and falls back to the first
// format the surface offers.
func chooseSurfaceFormat(formats []vks.SurfaceFormatKHR) vks.SurfaceFormatKHR {
	for _, v := range formats {
		if v.Format() == vks.VK_FORMAT_B8G8R8A8_SRGB &&
			v.ColorSpace() == vks.VK_COLOR_SPACE_SRGB_NONLINEAR_KHR {
			return v
		}
	}
	return formats[0]
}

// chooseImageCount asks for double buffering within the surface's limits.
// A max of zero means there is no upper limit.
func chooseImageCount(minCount, maxCount uint32) uint32 {
	count := uint32(2)
	if count < minCount {
		count = minCount
	}
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	return count
}

// chooseExtent uses the surface's current extent unless the surface leaves
// it to the application, in which case the window size is clamped to the
// allowed range.
func chooseExtent(current, minExtent, maxExtent [2]uint32, width, height int) [2]uint32 {
	if current[0] != math.MaxUint32 {
		return current
	}
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return [2]uint32{
		clamp(uint32(width), minExtent[0], maxExtent[0]),
		clamp(uint32(height), minExtent[1], maxExtent[1]),
	}
}

// hasArea reports whether a framebuffer of this size can back a
// swapchain. A minimized window reports zero in both dimensions.
func hasArea(width, height int) bool {
	return width > 0 && height > 0
}

// frameAction is what the frame loop does after an acquire or present.
type frameAction int

const (
	frameDraw frameAction = iota
	frameRecreate
	frameFail
)

func (a frameAction) String() string {
	switch a {
	case frameDraw:
		return "draw"
	case frameRecreate:
		return "recreate"
	default:
		return "fail"
	}
}

// vks declares VK_ERROR_OUT_OF_DATE_KHR without the sign vk.xml gives
// extension error codes, while drivers return the negative value. Both are
// matched below.

// acquireAction maps the result of acquiring an image. A suboptimal image
// is still drawn; presenting it reports the same state and triggers the
// rebuild then.
func acquireAction(result vks.Result) frameAction {
	switch result {
	case vks.VK_SUCCESS, vks.VK_SUBOPTIMAL_KHR:
		return frameDraw
	case vks.VK_ERROR_OUT_OF_DATE_KHR, -vks.VK_ERROR_OUT_OF_DATE_KHR:
		return frameRecreate
	default:
		return frameFail
	}
}

// presentAction maps the result of presenting an image.
func presentAction(result vks.Result) frameAction {
	switch result {
	case vks.VK_SUCCESS:
		return frameDraw
	case vks.VK_SUBOPTIMAL_KHR, vks.VK_ERROR_OUT_OF_DATE_KHR, -vks.VK_ERROR_OUT_OF_DATE_KHR:
		return frameRecreate
	default:
		return frameFail
	}
}
