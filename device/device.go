// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device describes the adapters visible to an instance.
package device

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	APIVersion    string
	Name          string
	Type          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        vk.DeviceSize
	QueueFamilies []QueueFamily
	Features      vk.PhysicalDeviceFeatures
}

// QueueFamily describes one queue family of a device.
type QueueFamily struct {
	Index    uint32
	Count    uint32
	Graphics bool
	Compute  bool
	Transfer bool
	Present  bool
}

// Query describes every adapter. When surface is not nil, queue
// families report whether they can present to it.
func Query(devices []vk.PhysicalDevice, surface vk.Surface) []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(devices))
	for i, pd := range devices {
		pdi[i] = describe(pd, surface)
	}
	return pdi
}

func describe(pd vk.PhysicalDevice, surface vk.Surface) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	// Get extension info
	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, nil)); err != nil {
		info.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, deviceExt)); err != nil {
		info.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	// Get layers info
	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	heaps := make([]vk.MemoryHeap, memoryProperties.MemoryHeapCount)
	for idx := range heaps {
		heaps[idx] = memoryProperties.MemoryHeaps[idx]
		heaps[idx].Deref()
	}
	info.Memory = totalMemory(heaps)

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, families)
	for idx := range families {
		families[idx].Deref()
		family := queueFamily(uint32(idx), families[idx])
		if surface != nil {
			var supported vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(idx), surface, &supported)
			family.Present = supported.B()
		}
		info.QueueFamilies = append(info.QueueFamilies, family)
	}

	vk.GetPhysicalDeviceFeatures(pd, &info.Features)
	info.Features.Deref()

	// Get general device info
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	info.ID = int(props.DeviceID)
	info.VendorID = int(props.VendorID)
	info.DriverVersion = int(props.DriverVersion)
	info.APIVersion = versionString(props.ApiVersion)
	info.Name = vk.ToString(props.DeviceName[:])
	info.Type = typeName(props.DeviceType)
	return info
}

func totalMemory(heaps []vk.MemoryHeap) vk.DeviceSize {
	var total vk.DeviceSize
	for _, h := range heaps {
		total += h.Size
	}
	return total
}

func queueFamily(idx uint32, props vk.QueueFamilyProperties) QueueFamily {
	flags := props.QueueFlags
	return QueueFamily{
		Index:    idx,
		Count:    props.QueueCount,
		Graphics: flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
		Compute:  flags&vk.QueueFlags(vk.QueueComputeBit) != 0,
		Transfer: flags&vk.QueueFlags(vk.QueueTransferBit) != 0,
	}
}

func versionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>22, (v>>12)&0x3ff, v&0xfff)
}

func typeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "other"
	}
}
