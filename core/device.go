// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// DeviceProperties are the adapter properties buffers are sized from.
type DeviceProperties struct {
	Name   string
	Memory vk.PhysicalDeviceMemoryProperties
	Limits vk.PhysicalDeviceLimits
}

func newDeviceProperties(physical vk.PhysicalDevice) DeviceProperties {
	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(physical, &memory)
	memory.Deref()
	for idx := uint32(0); idx < memory.MemoryTypeCount; idx++ {
		memory.MemoryTypes[idx].Deref()
	}
	for idx := uint32(0); idx < memory.MemoryHeapCount; idx++ {
		memory.MemoryHeaps[idx].Deref()
	}

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(physical, &props)
	props.Deref()
	props.Limits.Deref()

	return DeviceProperties{
		Name:   vk.ToString(props.DeviceName[:]),
		Memory: memory,
		Limits: props.Limits,
	}
}

// Device is a logical device created for one surface, with the queue
// and command pool used for graphics and present.
type Device struct {
	physical    vk.PhysicalDevice
	device      vk.Device
	queue       vk.Queue
	queueFamily uint32
	commandPool vk.CommandPool
	properties  DeviceProperties

	surface   *SurfaceHandle
	instance  *InstanceHandle
	vkSurface vk.Surface
	window    Window
}

// Inner returns the logical vk.Device.
func (d *Device) Inner() vk.Device {
	return d.device
}

// Physical returns the adapter the device was created on.
func (d *Device) Physical() vk.PhysicalDevice {
	return d.physical
}

// Queue returns the graphics and present queue.
func (d *Device) Queue() vk.Queue {
	return d.queue
}

// QueueFamily returns the index of the queue family in use.
func (d *Device) QueueFamily() uint32 {
	return d.queueFamily
}

// CommandPool returns the pool command buffers are allocated from.
func (d *Device) CommandPool() vk.CommandPool {
	return d.commandPool
}

// Properties returns memory properties and limits of the adapter.
func (d *Device) Properties() DeviceProperties {
	return d.properties
}

// Surface returns the handle of the surface the device presents to.
func (d *Device) Surface() *SurfaceHandle {
	return d.surface
}

// Instance returns the handle of the owning instance.
func (d *Device) Instance() *InstanceHandle {
	return d.instance
}

// SurfaceFormat returns the first format the surface reports. A lone
// undefined format leaves the choice to the caller and is reported as
// B8G8R8A8_UNORM.
func (d *Device) SurfaceFormat() (vk.SurfaceFormat, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.vkSurface, &count, nil)); err != nil {
		return vk.SurfaceFormat{}, fmt.Errorf("vk.GetPhysicalDeviceSurfaceFormats(): %w", err)
	}
	if count == 0 {
		return vk.SurfaceFormat{}, ErrNoSurfaceFormats
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.vkSurface, &count, formats)); err != nil {
		return vk.SurfaceFormat{}, fmt.Errorf("vk.GetPhysicalDeviceSurfaceFormats(): %w", err)
	}
	formats[0].Deref()
	return firstSurfaceFormat(formats[0]), nil
}

// SurfaceCapabilities queries the current surface capabilities.
func (d *Device) SurfaceCapabilities() (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, d.vkSurface, &caps)); err != nil {
		return caps, fmt.Errorf("vk.GetPhysicalDeviceSurfaceCapabilities(): %w", err)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

// DesiredImageCount is one image above the surface minimum,
// within the surface maximum.
func (d *Device) DesiredImageCount() (uint32, error) {
	caps, err := d.SurfaceCapabilities()
	if err != nil {
		return 0, err
	}
	return desiredImageCount(caps.MinImageCount, caps.MaxImageCount), nil
}

// SurfaceResolution returns the extent the swapchain images must have.
func (d *Device) SurfaceResolution() (vk.Extent2D, error) {
	caps, err := d.SurfaceCapabilities()
	if err != nil {
		return vk.Extent2D{}, err
	}
	width, height := d.window.Size()
	return surfaceResolution(caps.CurrentExtent, width, height), nil
}

// PreTransform returns the identity transform when supported,
// otherwise the current transform of the surface.
func (d *Device) PreTransform() (vk.SurfaceTransformFlagBits, error) {
	caps, err := d.SurfaceCapabilities()
	if err != nil {
		return 0, err
	}
	return preTransform(caps.SupportedTransforms, caps.CurrentTransform), nil
}

// CompositeAlpha returns the first supported of opaque, pre-multiplied,
// post-multiplied and inherit.
func (d *Device) CompositeAlpha() (vk.CompositeAlphaFlagBits, error) {
	caps, err := d.SurfaceCapabilities()
	if err != nil {
		return 0, err
	}
	return chooseCompositeAlpha(caps.SupportedCompositeAlpha), nil
}

// PresentMode returns mailbox when available, FIFO otherwise.
func (d *Device) PresentMode() (vk.PresentMode, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.vkSurface, &count, nil)); err != nil {
		return vk.PresentModeFifo, fmt.Errorf("vk.GetPhysicalDeviceSurfacePresentModes(): %w", err)
	}
	modes := make([]vk.PresentMode, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.vkSurface, &count, modes)); err != nil {
		return vk.PresentModeFifo, fmt.Errorf("vk.GetPhysicalDeviceSurfacePresentModes(): %w", err)
	}
	return choosePresentMode(modes), nil
}

// SwapchainInfo describes how a swapchain was built.
type SwapchainInfo struct {
	Format       vk.SurfaceFormat
	Extent       vk.Extent2D
	ImageCount   uint32
	PresentMode  vk.PresentMode
	PreTransform vk.SurfaceTransformFlagBits
	Alpha        vk.CompositeAlphaFlagBits
}

// Swapchain creates a swapchain from live surface queries. Pass the
// previous swapchain when rebuilding, or nil.
func (d *Device) Swapchain(old vk.Swapchain) (vk.Swapchain, SwapchainInfo, error) {
	var info SwapchainInfo

	format, err := d.SurfaceFormat()
	if err != nil {
		return nil, info, err
	}
	caps, err := d.SurfaceCapabilities()
	if err != nil {
		return nil, info, err
	}
	mode, err := d.PresentMode()
	if err != nil {
		return nil, info, err
	}

	width, height := d.window.Size()
	info = SwapchainInfo{
		Format:       format,
		Extent:       surfaceResolution(caps.CurrentExtent, width, height),
		ImageCount:   desiredImageCount(caps.MinImageCount, caps.MaxImageCount),
		PresentMode:  mode,
		PreTransform: preTransform(caps.SupportedTransforms, caps.CurrentTransform),
		Alpha:        chooseCompositeAlpha(caps.SupportedCompositeAlpha),
	}

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.vkSurface,
		MinImageCount:    info.ImageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      info.Extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     info.PreTransform,
		CompositeAlpha:   info.Alpha,
		PresentMode:      mode,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		OldSwapchain:     old,
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return nil, info, fmt.Errorf("vk.CreateSwapchain(): %w", err)
	}
	return swapchain, info, nil
}

// ShaderModule wraps compiled SPIR-V code.
func (d *Device) ShaderModule(code []byte) (vk.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &module)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(): %w", err)
	}
	return module, nil
}

// WaitIdle blocks until the device finished all submitted work.
func (d *Device) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(d.device)); err != nil {
		return fmt.Errorf("vk.DeviceWaitIdle(): %w", err)
	}
	return nil
}

func (d *Device) destroy() error {
	vk.DeviceWaitIdle(d.device)
	vk.DestroyCommandPool(d.device, d.commandPool, nil)
	vk.DestroyDevice(d.device, nil)
	return nil
}

// queueCandidates reads queue family flags of every adapter.
func queueCandidates(devices []vk.PhysicalDevice) []queueCandidate {
	candidates := make([]queueCandidate, len(devices))
	for idx, pd := range devices {
		var count uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
		families := make([]vk.QueueFamilyProperties, count)
		vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, families)
		for f := range families {
			families[f].Deref()
			candidates[idx].families = append(candidates[idx].families, families[f].QueueFlags)
		}
	}
	return candidates
}

func createDevice(physical vk.PhysicalDevice, family uint32, extensions []string) (vk.Device, error) {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	var supported vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(physical, &supported)
	supported.Deref()
	features := vk.PhysicalDeviceFeatures{
		ShaderClipDistance: supported.ShaderClipDistance,
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(physical, &dci, nil, &device)); err != nil {
		return nil, fmt.Errorf("vk.CreateDevice(): %w", err)
	}
	return device, nil
}

func createCommandPool(device vk.Device, family uint32) (vk.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device, &cpci, nil, &commandPool)); err != nil {
		return nil, fmt.Errorf("vk.CreateCommandPool(): %w", err)
	}
	return commandPool, nil
}
