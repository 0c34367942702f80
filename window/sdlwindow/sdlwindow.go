// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sdlwindow provides an SDL2 window that a core.System can
// render into.
package sdlwindow

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkframe/core"
	"github.com/devblok/vkframe/input"
)

var _ core.Window = (*Window)(nil)

// Init initialises SDL video and the Vulkan loader. The returned
// function undoes it and must run after every window is destroyed.
func Init() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, err
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, err
	}
	return func() {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
	}, nil
}

// New creates a resizable Vulkan capable window.
func New(title string, width, height uint32) (*Window, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, err
	}
	return &Window{window: window}, nil
}

// Window implements core.Window with SDL2.
type Window struct {
	window *sdl.Window
}

// RequiredExtensions implements core.Window.
func (w *Window) RequiredExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// ProcAddr implements core.Window.
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface implements core.Window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	srf, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, err
	}
	return vk.SurfaceFromPointer(uintptr(srf)), nil
}

// Size implements core.Window.
func (w *Window) Size() (width, height uint32) {
	x, y := w.window.VulkanGetDrawableSize()
	return uint32(x), uint32(y)
}

// Poll moves every pending SDL event into q. Must be called
// from the thread that created the window.
func (w *Window) Poll(q *input.Queue) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if e, ok := translate(event); ok {
			q.Push(e)
		}
	}
}

// Destroy destroys the window.
func (w *Window) Destroy() error {
	return w.window.Destroy()
}

var keys = map[sdl.Keycode]input.Key{
	sdl.K_w:      input.KeyW,
	sdl.K_a:      input.KeyA,
	sdl.K_s:      input.KeyS,
	sdl.K_d:      input.KeyD,
	sdl.K_1:      input.Key1,
	sdl.K_2:      input.Key2,
	sdl.K_3:      input.Key3,
	sdl.K_LSHIFT: input.KeyShift,
	sdl.K_RSHIFT: input.KeyShift,
	sdl.K_ESCAPE: input.KeyEscape,
}

func translate(event sdl.Event) (input.Event, bool) {
	switch et := event.(type) {
	case *sdl.QuitEvent:
		return input.Event{Kind: input.Quit}, true
	case *sdl.KeyboardEvent:
		key, ok := keys[et.Keysym.Sym]
		if !ok {
			return input.Event{}, false
		}
		kind := input.KeyPressed
		if et.Type == sdl.KEYUP {
			kind = input.KeyReleased
		}
		return input.Event{Kind: kind, Key: key}, true
	case *sdl.WindowEvent:
		if et.Event != sdl.WINDOWEVENT_SIZE_CHANGED {
			return input.Event{}, false
		}
		return input.Event{
			Kind:   input.Resized,
			Width:  uint32(et.Data1),
			Height: uint32(et.Data2),
		}, true
	}
	return input.Event{}, false
}
