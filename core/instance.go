// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"runtime"

	vk "github.com/devblok/vulkan"
)

// DefaultApplicationInfo describes the renderer to the driver.
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "vkframe\x00",
	PEngineName:        "vkframe\x00",
}

const (
	portabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	physicalDeviceProperties2       = "VK_KHR_get_physical_device_properties2"
	portabilityEnumerationBit       = 0x00000001
)

// Instance describes a Vulkan API Instance bound to one window.
type Instance struct {
	instance      vk.Instance
	window        Window
	extensions    []string
	layers        []string
	debugCallback vk.DebugReportCallback
	devices       []vk.PhysicalDevice
}

// Inner returns the vk.Instance.
func (i *Instance) Inner() vk.Instance {
	return i.instance
}

// Window returns the window the instance renders to.
func (i *Instance) Window() Window {
	return i.window
}

// Extensions returns enabled instance extensions.
func (i *Instance) Extensions() []string {
	return i.extensions
}

// Layers returns enabled instance layers.
func (i *Instance) Layers() []string {
	return i.layers
}

// PhysicalDevices returns the adapters visible to the instance.
func (i *Instance) PhysicalDevices() []vk.PhysicalDevice {
	return i.devices
}

func (i *Instance) destroy() error {
	if i.debugCallback != nil {
		vk.DestroyDebugReportCallback(i.instance, i.debugCallback, nil)
	}
	i.devices = nil
	vk.DestroyInstance(i.instance, nil)
	return nil
}

// instanceExtensions merges the loader's own requirements
// with the window's, without duplicates.
func instanceExtensions(cfg InstanceConfiguration, window []string, goos string) []string {
	var loader []string
	if cfg.DebugMode {
		loader = append(loader, debugReportExtension)
	}
	if goos == "darwin" {
		loader = append(loader, portabilityEnumerationExtension, physicalDeviceProperties2)
	}
	return dedupStrings(loader, cfg.Extensions, window)
}

func instanceLayers(cfg InstanceConfiguration) []string {
	var layers []string
	if cfg.DebugMode {
		layers = append(layers, validationLayer)
	}
	return dedupStrings(layers, cfg.Layers)
}

func createInstance(app *vk.ApplicationInfo, cfg InstanceConfiguration, window Window) (*Instance, error) {
	if procAddr := window.ProcAddr(); procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, fmt.Errorf("vk.SetDefaultGetInstanceProcAddr(): %w", err)
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vk.Init(): %w", err)
	}

	extensions := instanceExtensions(cfg, window.RequiredExtensions(), runtime.GOOS)
	layers := instanceLayers(cfg)

	ici := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        app,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}
	if runtime.GOOS == "darwin" {
		ici.Flags = vk.InstanceCreateFlags(portabilityEnumerationBit)
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&ici, nil, &instance)); err != nil {
		return nil, fmt.Errorf("vk.CreateInstance(): %w", err)
	}
	vk.InitInstance(instance)

	devices, err := enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}

	inst := &Instance{
		instance:   instance,
		window:     window,
		extensions: extensions,
		layers:     layers,
		devices:    devices,
	}

	if cfg.DebugMode {
		callback, err := createDebugCallback(instance)
		if err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, err
		}
		inst.debugCallback = callback
	}
	return inst, nil
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vk.EnumeratePhysicalDevices(): %w", err)
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)); err != nil {
		return nil, fmt.Errorf("vk.EnumeratePhysicalDevices(): %w", err)
	}
	return devices, nil
}
