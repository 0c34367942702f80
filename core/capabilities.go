// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	vk "github.com/devblok/vulkan"
)

// undefinedExtent is reported by surfaces whose size is decided by the swapchain.
const undefinedExtent = 0xFFFFFFFF

// desiredImageCount asks for one image more than the minimum,
// clamped to the maximum when the surface has one.
func desiredImageCount(min, max uint32) uint32 {
	count := min + 1
	if max > 0 && count > max {
		count = max
	}
	return count
}

// surfaceResolution uses the window size when the surface leaves
// the extent undefined.
func surfaceResolution(current vk.Extent2D, width, height uint32) vk.Extent2D {
	if current.Width == undefinedExtent {
		return vk.Extent2D{
			Width:  width,
			Height: height,
		}
	}
	return vk.Extent2D{
		Width:  current.Width,
		Height: current.Height,
	}
}

func preTransform(supported vk.SurfaceTransformFlags, current vk.SurfaceTransformFlagBits) vk.SurfaceTransformFlagBits {
	if supported&vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit) != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return current
}

// choosePresentMode prefers mailbox and falls back to FIFO,
// which every implementation must support.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

var compositeAlphaFlags = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, flag := range compositeAlphaFlags {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func firstSurfaceFormat(first vk.SurfaceFormat) vk.SurfaceFormat {
	if first.Format == vk.FormatUndefined {
		first.Format = vk.FormatB8g8r8a8Unorm
	}
	return first
}

// queueCandidate lists the queue family flags of one adapter.
type queueCandidate struct {
	families []vk.QueueFlags
}

// findQueue returns the first adapter and queue family that can run
// graphics work and present to the surface.
func findQueue(adapters []queueCandidate, supportsPresent func(adapter int, family uint32) bool) (int, uint32, bool) {
	for a, adapter := range adapters {
		for f, flags := range adapter.families {
			if flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
				continue
			}
			if supportsPresent(a, uint32(f)) {
				return a, uint32(f), true
			}
		}
	}
	return 0, 0, false
}
