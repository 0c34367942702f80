// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core turns a window into a usable Vulkan device. It owns the
// loader, instances, surfaces and logical devices, and the capability
// queries that the swapchain is built from.
package core

import (
	"errors"
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkframe/core/handle"
)

// package errors
var (
	ErrNoSuitableDevice = errors.New("no physical device supports graphics and present for the surface")
	ErrNoSurfaceFormats = errors.New("surface reports no formats")
	ErrNoWindow         = errors.New("instance has no window")
)

// Window is the windowing collaborator that a System renders into.
type Window interface {
	// RequiredExtensions returns the instance extensions the
	// window system needs to present.
	RequiredExtensions() []string

	// ProcAddr returns the vkGetInstanceProcAddr pointer supplied by the
	// window system, or nil to use the default loader.
	ProcAddr() unsafe.Pointer

	// CreateSurface binds the window's drawable to the instance.
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// Size returns the logical size of the drawable area.
	Size() (width, height uint32)
}

// Handles issued by the System.
type (
	InstanceHandle = handle.Handle[Instance]
	SurfaceHandle  = handle.Handle[Surface]
	DeviceHandle   = handle.Handle[Device]
)

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

// Stage returns the pipeline stage the shader type runs in.
func (s ShaderType) Stage() vk.ShaderStageFlagBits {
	switch s {
	case VertexShaderType:
		return vk.ShaderStageVertexBit
	case FragmentShaderType:
		return vk.ShaderStageFragmentBit
	default:
		return 0
	}
}
