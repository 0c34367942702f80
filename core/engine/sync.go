// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package engine

import (
	"fmt"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkframe/core"
	"github.com/devblok/vkframe/core/handle"
)

// Track registers a resource created on the engine's device so that
// Cleanup releases it with the other resources of its kind.
func (e *Engine) Track(kind handle.Kind, release func(vk.Device)) (handle.Key, error) {
	device := e.device
	return e.sys.Registry().Register(kind, e.key, func() error {
		release(device)
		return nil
	})
}

// CreateSemaphore creates a semaphore released by Cleanup.
func (e *Engine) CreateSemaphore() (vk.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(e.device, &sci, nil, &semaphore)); err != nil {
		return nil, fmt.Errorf("vk.CreateSemaphore(): %w", err)
	}
	if _, err := e.Track(handle.KindSync, func(device vk.Device) {
		vk.DestroySemaphore(device, semaphore, nil)
	}); err != nil {
		vk.DestroySemaphore(e.device, semaphore, nil)
		return nil, err
	}
	return semaphore, nil
}

// CreateFence creates a fence in the signaled state, released by Cleanup.
func (e *Engine) CreateFence() (vk.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(e.device, &fci, nil, &fence)); err != nil {
		return nil, fmt.Errorf("vk.CreateFence(): %w", err)
	}
	if _, err := e.Track(handle.KindSync, func(device vk.Device) {
		vk.DestroyFence(device, fence, nil)
	}); err != nil {
		vk.DestroyFence(e.device, fence, nil)
		return nil, err
	}
	return fence, nil
}

// CreateCommandBuffers allocates n primary command buffers from the
// device's pool.
func (e *Engine) CreateCommandBuffers(n int) ([]vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        e.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(n),
	}
	buffers := make([]vk.CommandBuffer, n)
	if err := vk.Error(vk.AllocateCommandBuffers(e.device, &cbai, buffers)); err != nil {
		return nil, fmt.Errorf("vk.AllocateCommandBuffers(): %w", err)
	}
	pool := e.pool
	if _, err := e.Track(handle.KindSync, func(device vk.Device) {
		vk.FreeCommandBuffers(device, pool, uint32(len(buffers)), buffers)
	}); err != nil {
		vk.FreeCommandBuffers(e.device, pool, uint32(len(buffers)), buffers)
		return nil, err
	}
	return buffers, nil
}

// CreatePipelineLayout creates a layout over descriptor set layouts and
// push constant ranges, released by Cleanup.
func (e *Engine) CreatePipelineLayout(sets []vk.DescriptorSetLayout, push []vk.PushConstantRange) (vk.PipelineLayout, error) {
	layout, err := core.NewPipelineLayout(e.device, sets, push)
	if err != nil {
		return nil, err
	}
	if _, err := e.Track(handle.KindOther, func(device vk.Device) {
		vk.DestroyPipelineLayout(device, layout, nil)
	}); err != nil {
		vk.DestroyPipelineLayout(e.device, layout, nil)
		return nil, err
	}
	return layout, nil
}

// CreateGraphicsPipeline creates a pipeline for the engine's render
// pass, released by Cleanup.
func (e *Engine) CreateGraphicsPipeline(desc core.PipelineDescription) (vk.Pipeline, error) {
	desc.RenderPass = e.renderPass
	pipeline, err := core.NewGraphicsPipeline(e.device, desc)
	if err != nil {
		return nil, err
	}
	if _, err := e.Track(handle.KindOther, func(device vk.Device) {
		vk.DestroyPipeline(device, pipeline, nil)
	}); err != nil {
		vk.DestroyPipeline(e.device, pipeline, nil)
		return nil, err
	}
	return pipeline, nil
}
