// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package engine

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// FrameState is the position of a Frame in its cycle.
type FrameState int

// Frame states, in the order a frame moves through them.
const (
	Idle FrameState = iota
	CommandsRecorded
	Submitted
	Presented
)

func (s FrameState) String() string {
	switch s {
	case Idle:
		return "idle"
	case CommandsRecorded:
		return "commands recorded"
	case Submitted:
		return "submitted"
	case Presented:
		return "presented"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// next is the only state s may move to.
func (s FrameState) next() FrameState {
	return (s + 1) % (Presented + 1)
}

// NewFrame creates the command buffer, fence and semaphores one frame
// in flight needs.
func (e *Engine) NewFrame() (*Frame, error) {
	cmds, err := e.CreateCommandBuffers(1)
	if err != nil {
		return nil, err
	}
	fence, err := e.CreateFence()
	if err != nil {
		return nil, err
	}
	available, err := e.CreateSemaphore()
	if err != nil {
		return nil, err
	}
	finished, err := e.CreateSemaphore()
	if err != nil {
		return nil, err
	}
	return &Frame{
		engine:         e,
		command:        cmds[0],
		fence:          fence,
		imageAvailable: available,
		renderFinished: finished,
	}, nil
}

// Frame is one frame in flight. Its methods must be called in the order
// Begin, Record, Submit, Present.
type Frame struct {
	engine         *Engine
	command        vk.CommandBuffer
	fence          vk.Fence
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore

	state    FrameState
	acquired bool
	index    uint32
}

// State returns the current state of the frame.
func (f *Frame) State() FrameState {
	return f.state
}

// Index returns the swapchain image acquired by Begin.
func (f *Frame) Index() uint32 {
	return f.index
}

// Command returns the command buffer of the frame.
func (f *Frame) Command() vk.CommandBuffer {
	return f.command
}

func (f *Frame) advance(from, to FrameState) error {
	if f.state != from || from.next() != to {
		return fmt.Errorf("%s to %s from %s: %w", from, to, f.state, ErrFrameState)
	}
	f.state = to
	return nil
}

// Begin waits until the previous use of the frame completed and
// acquires the next swapchain image. The fence is reset only once an
// image was acquired, so a failed Begin can be retried after Rebuild.
func (f *Frame) Begin() error {
	switch {
	case f.state == Presented:
		f.state = Idle
	case f.state != Idle || f.acquired:
		return fmt.Errorf("begin from %s: %w", f.state, ErrFrameState)
	}

	e := f.engine
	if err := waitFence(e.device, f.fence, e.cfg.FenceTimeout); err != nil {
		return err
	}
	idx, err := e.PresentIdx(f.imageAvailable)
	if err != nil {
		return err
	}
	if err := vk.Error(vk.ResetFences(e.device, 1, []vk.Fence{f.fence})); err != nil {
		return fmt.Errorf("vk.ResetFences(): %w", err)
	}
	f.index = idx
	f.acquired = true
	return nil
}

// Record records draw commands for the acquired image.
func (f *Frame) Record(draw func(cmd vk.CommandBuffer, idx uint32) error) error {
	if !f.acquired {
		return fmt.Errorf("record before begin: %w", ErrFrameState)
	}
	if err := f.advance(Idle, CommandsRecorded); err != nil {
		return err
	}
	if err := f.engine.RecordCommandBuffer(f.command, func(cmd vk.CommandBuffer) error {
		return draw(cmd, f.index)
	}); err != nil {
		f.state = Idle
		return err
	}
	return nil
}

// Submit queues the recorded commands. They wait for the image to be
// available before writing color, and signal the frame's fence and
// the semaphore Present waits on.
func (f *Frame) Submit() error {
	if err := f.advance(CommandsRecorded, Submitted); err != nil {
		return err
	}
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.imageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.command},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.renderFinished},
	}}
	if err := vk.Error(vk.QueueSubmit(f.engine.queue, 1, submit, f.fence)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %w", err)
	}
	return nil
}

// Present hands the image to the presentation engine once rendering
// finished. ErrOutOfDate means the engine must be rebuilt; the frame
// can still Begin again afterwards.
func (f *Frame) Present() error {
	if err := f.advance(Submitted, Presented); err != nil {
		return err
	}
	f.acquired = false

	e := f.engine
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{e.swapchain.swapchain},
		PImageIndices:      []uint32{f.index},
	}
	return presentResult(vk.QueuePresent(e.queue, &presentInfo))
}
