// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package engine drives a swapchain on top of a core.Device: it owns
// the render pass, depth buffer, framebuffers and per frame sync objects,
// and tears them down before the device they were created on.
package engine

import (
	"errors"
	"fmt"
	"time"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"

	"github.com/devblok/vkframe/core"
	"github.com/devblok/vkframe/core/handle"
)

// package errors
var (
	ErrOutOfDate       = errors.New("surface out of date")
	ErrFrameStalled    = errors.New("frame stalled")
	ErrFrameState      = errors.New("frame used out of order")
	ErrFormatChanged   = errors.New("surface format changed")
	ErrNotInitialised  = errors.New("engine not initialised")
	ErrImageOutOfRange = errors.New("image index out of range")
)

// New builds the swapchain, present views, depth buffer, render pass,
// framebuffers and the setup fence on the device. Everything is
// registered as a child of the device.
func New(sys *core.System, dev *core.DeviceHandle, cfg core.EngineConfiguration) (*Engine, error) {
	e := &Engine{
		sys: sys,
		dev: dev,
		cfg: cfg,
		log: sys.Logger(),
	}

	if err := dev.With(func(d *core.Device) error {
		e.device = d.Inner()
		e.queue = d.Queue()
		e.pool = d.CommandPool()
		e.props = d.Properties()

		sc, err := buildSwapchain(d, nil, nil)
		if err != nil {
			return err
		}
		renderPass, err := createRenderPass(e.device, sc.info.Format.Format)
		if err != nil {
			sc.destroy(e.device, nil)
			return err
		}
		sc.framebuffers, err = createFramebuffers(e.device, renderPass, sc.views, sc.depth.view, sc.info.Extent)
		if err != nil {
			sc.destroy(e.device, renderPass)
			return err
		}
		e.swapchain = sc
		e.renderPass = renderPass
		return nil
	}); err != nil {
		return nil, err
	}

	key, err := sys.Registry().Register(handle.KindSwapchain, dev.Key(), e.destroySwapchain)
	if err != nil {
		e.destroySwapchain()
		return nil, err
	}
	e.key = key
	e.logSwapchain("swapchain created")

	if e.setupFence, err = e.CreateFence(); err != nil {
		return nil, err
	}
	cmds, err := e.CreateCommandBuffers(1)
	if err != nil {
		return nil, err
	}
	e.setupCmd = cmds[0]

	return e, nil
}

// Engine wraps exactly one device and the swapchain presenting to its surface.
type Engine struct {
	sys *core.System
	dev *core.DeviceHandle
	cfg core.EngineConfiguration
	log logrus.FieldLogger
	key handle.Key

	device vk.Device
	queue  vk.Queue
	pool   vk.CommandPool
	props  core.DeviceProperties

	swapchain  *swapchain
	renderPass vk.RenderPass
	setupFence vk.Fence
	setupCmd   vk.CommandBuffer
}

// Device returns the handle of the device the engine runs on.
func (e *Engine) Device() *core.DeviceHandle {
	return e.dev
}

// Inner returns the native logical device.
func (e *Engine) Inner() vk.Device {
	return e.device
}

// Queue returns the graphics and present queue.
func (e *Engine) Queue() vk.Queue {
	return e.queue
}

// Properties returns the adapter properties buffers are sized from.
func (e *Engine) Properties() core.DeviceProperties {
	return e.props
}

// Key returns the registry key resources created by the engine live under.
func (e *Engine) Key() handle.Key {
	return e.key
}

// RenderPass returns the render pass every framebuffer is compatible with.
func (e *Engine) RenderPass() vk.RenderPass {
	return e.renderPass
}

// Extent returns the current swapchain extent.
func (e *Engine) Extent() vk.Extent2D {
	return e.swapchain.info.Extent
}

// Format returns the surface format of the swapchain images.
func (e *Engine) Format() vk.SurfaceFormat {
	return e.swapchain.info.Format
}

// ImageCount returns the number of swapchain images.
func (e *Engine) ImageCount() int {
	return len(e.swapchain.images)
}

// Framebuffer returns the framebuffer of swapchain image idx.
func (e *Engine) Framebuffer(idx uint32) (vk.Framebuffer, error) {
	if int(idx) >= len(e.swapchain.framebuffers) {
		return nil, fmt.Errorf("image %d of %d: %w", idx, len(e.swapchain.framebuffers), ErrImageOutOfRange)
	}
	return e.swapchain.framebuffers[idx], nil
}

func (e *Engine) logSwapchain(msg string) {
	info := e.swapchain.info
	e.log.WithFields(logrus.Fields{
		"width":       info.Extent.Width,
		"height":      info.Extent.Height,
		"images":      len(e.swapchain.images),
		"format":      info.Format.Format,
		"presentMode": info.PresentMode,
	}).Info(msg)
}

// Setup transitions the depth image to its attachment layout. It must
// complete before the first frame, and again after Rebuild.
func (e *Engine) Setup() error {
	if e.setupCmd == nil {
		return ErrNotInitialised
	}
	if err := waitFence(e.device, e.setupFence, e.cfg.FenceTimeout); err != nil {
		return err
	}
	if err := vk.Error(vk.ResetFences(e.device, 1, []vk.Fence{e.setupFence})); err != nil {
		return fmt.Errorf("vk.ResetFences(): %w", err)
	}

	if err := e.RecordCommandBuffer(e.setupCmd, func(cmd vk.CommandBuffer) error {
		barrier := depthBarrier(e.swapchain.depth.image)
		vk.CmdPipelineBarrier(cmd,
			vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
		return nil
	}); err != nil {
		return err
	}

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{e.setupCmd},
	}}
	if err := vk.Error(vk.QueueSubmit(e.queue, 1, submit, e.setupFence)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(setup): %w", err)
	}
	return nil
}

func depthBarrier(image vk.Image) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       0,
		DstAccessMask:       vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		OldLayout:           vk.ImageLayoutUndefined,
		NewLayout:           vk.ImageLayoutDepthStencilAttachmentOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
}

// PresentIdx acquires the next presentable image and signals signal
// once it is ready. Returns ErrOutOfDate when the swapchain has to be
// rebuilt and ErrFrameStalled when no image arrived in time.
func (e *Engine) PresentIdx(signal vk.Semaphore) (uint32, error) {
	var idx uint32
	res := vk.AcquireNextImage(e.device, e.swapchain.swapchain, timeout(e.cfg.AcquireTimeout), signal, nil, &idx)
	if err := acquireResult(res); err != nil {
		return 0, err
	}
	return idx, nil
}

// RecordCommandBuffer resets buf, records f into it for a single
// submission and ends recording. f must not submit or reset buf.
func (e *Engine) RecordCommandBuffer(buf vk.CommandBuffer, f func(vk.CommandBuffer) error) error {
	if err := vk.Error(vk.ResetCommandBuffer(buf, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit))); err != nil {
		return fmt.Errorf("vk.ResetCommandBuffer(): %w", err)
	}
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(buf, &cbbi)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer(): %w", err)
	}

	ferr := f(buf)
	if err := vk.Error(vk.EndCommandBuffer(buf)); err != nil && ferr == nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %w", err)
	}
	return ferr
}

// BeginRenderPass starts the render pass on the framebuffer of image
// idx, clearing color to clear and depth to 1.
func (e *Engine) BeginRenderPass(cmd vk.CommandBuffer, idx uint32, clear [4]float32) error {
	framebuffer, err := e.Framebuffer(idx)
	if err != nil {
		return err
	}

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clear[:])
	clearValues[1].SetDepthStencil(1, 0)

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  e.renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: e.Extent(),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cmd, &rpbi, vk.SubpassContentsInline)
	return nil
}

// WaitIdle blocks until the device finished all submitted work.
func (e *Engine) WaitIdle() error {
	return e.dev.With(func(d *core.Device) error {
		return d.WaitIdle()
	})
}

// Rebuild recreates the swapchain and everything sized after it, then
// runs Setup again. Call it after ErrOutOfDate or a resize.
func (e *Engine) Rebuild() error {
	if err := e.WaitIdle(); err != nil {
		return err
	}

	old := e.swapchain
	if err := e.dev.With(func(d *core.Device) error {
		sc, err := buildSwapchain(d, e.renderPass, old.swapchain)
		if err != nil {
			return err
		}
		if sc.info.Format.Format != old.info.Format.Format {
			sc.destroy(e.device, nil)
			return fmt.Errorf("%v to %v: %w", old.info.Format.Format, sc.info.Format.Format, ErrFormatChanged)
		}
		e.swapchain = sc
		return nil
	}); err != nil {
		return err
	}
	old.destroy(e.device, nil)

	e.logSwapchain("swapchain rebuilt")
	return e.Setup()
}

// Cleanup waits for the device, then destroys, in order: sync objects
// and command buffers, pipelines and other tracked resources, buffers,
// framebuffers, render pass, depth image, present views and the
// swapchain. Finally devices, surfaces and instances of the system.
func (e *Engine) Cleanup() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if e.dev.Live() {
		keep(e.WaitIdle())
	}

	reg := e.sys.Registry()
	for _, kind := range []handle.Kind{handle.KindSync, handle.KindOther, handle.KindBuffer, handle.KindSwapchain} {
		keep(reg.ReleaseKind(kind))
	}
	keep(e.sys.Cleanup())
	return first
}

func (e *Engine) destroySwapchain() error {
	if e.swapchain == nil {
		return nil
	}
	e.swapchain.destroy(e.device, e.renderPass)
	e.swapchain = nil
	e.renderPass = nil
	return nil
}

// timeout converts milliseconds to the nanoseconds native waits take.
// Non positive values fall back to one second.
func timeout(ms int) uint {
	if ms <= 0 {
		ms = 1000
	}
	return uint(time.Duration(ms) * time.Millisecond)
}

func acquireResult(res vk.Result) error {
	switch res {
	case vk.Success, vk.Suboptimal:
		return nil
	case vk.ErrorOutOfDate:
		return ErrOutOfDate
	case vk.Timeout, vk.NotReady:
		return fmt.Errorf("vk.AcquireNextImage(): %w", ErrFrameStalled)
	}
	return fmt.Errorf("vk.AcquireNextImage(): %w", vk.Error(res))
}

func presentResult(res vk.Result) error {
	switch res {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return ErrOutOfDate
	}
	return fmt.Errorf("vk.QueuePresent(): %w", vk.Error(res))
}

func waitResult(res vk.Result) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Timeout:
		return fmt.Errorf("vk.WaitForFences(): %w", ErrFrameStalled)
	}
	return fmt.Errorf("vk.WaitForFences(): %w", vk.Error(res))
}

func waitFence(device vk.Device, fence vk.Fence, ms int) error {
	return waitResult(vk.WaitForFences(device, 1, []vk.Fence{fence}, vk.True, timeout(ms)))
}
