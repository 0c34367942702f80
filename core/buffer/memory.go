// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package buffer

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// FindMemoryType returns the first memory type allowed by filter whose
// properties include every requested flag.
func FindMemoryType(props vk.PhysicalDeviceMemoryProperties, filter uint32, flags vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < props.MemoryTypeCount; idx++ {
		if filter&(1<<idx) != 0 && props.MemoryTypes[idx].PropertyFlags&flags == flags {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("filter %#x flags %#x: %w", filter, flags, ErrNoMemoryType)
}

// usageAlignment returns the minimum offset alignment the device
// requires for the usage class of the buffer.
func usageAlignment(limits vk.PhysicalDeviceLimits, usage vk.BufferUsageFlagBits) uint64 {
	var align uint64 = 1
	if usage&(vk.BufferUsageUniformBufferBit) != 0 {
		align = maxUint64(align, uint64(limits.MinUniformBufferOffsetAlignment))
	}
	if usage&(vk.BufferUsageStorageBufferBit) != 0 {
		align = maxUint64(align, uint64(limits.MinStorageBufferOffsetAlignment))
	}
	if usage&(vk.BufferUsageUniformTexelBufferBit|vk.BufferUsageStorageTexelBufferBit) != 0 {
		align = maxUint64(align, uint64(limits.MinTexelBufferOffsetAlignment))
	}
	return align
}

// alignedEntrySize rounds the element size up to both its own
// alignment and the device minimum.
func alignedEntrySize(size, align, minAlign uint64) uint64 {
	entry := roundUp(maxUint64(size, align), align)
	return roundUp(entry, minAlign)
}

func roundUp(size, align uint64) uint64 {
	if align <= 1 {
		return size
	}
	if rem := size % align; rem != 0 {
		return size + align - rem
	}
	return size
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
