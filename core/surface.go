// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	vk "github.com/devblok/vulkan"
)

// Surface binds a window's drawable to an Instance.
// A Surface never outlives its Instance.
type Surface struct {
	surface    vk.Surface
	instance   *InstanceHandle
	vkInstance vk.Instance
	window     Window
}

// Inner returns the vk.Surface.
func (s *Surface) Inner() vk.Surface {
	return s.surface
}

// Instance returns the handle of the owning instance.
func (s *Surface) Instance() *InstanceHandle {
	return s.instance
}

// Window returns the window the surface was created from.
func (s *Surface) Window() Window {
	return s.window
}

func (s *Surface) destroy() error {
	vk.DestroySurface(s.vkInstance, s.surface, nil)
	return nil
}
