// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package buffer implements typed GPU buffers and the descriptor sets
// that expose them to shaders.
package buffer

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkframe/core"
)

// package errors
var (
	ErrNotAllocated     = errors.New("buffer used before allocate")
	ErrNoMemoryType     = errors.New("suitable memory type not found")
	ErrCapacity         = errors.New("data exceeds buffer capacity")
	ErrDuplicateBinding = errors.New("binding already used in set")
	ErrSetNotAllocated  = errors.New("descriptor set used before allocate")
	ErrOutOfRange       = errors.New("index out of range")
	ErrSetAllocated     = errors.New("descriptor set already allocated")
	ErrEmptySet         = errors.New("descriptor set has no buffers")
)

// Config is the policy a Buffer is created with.
type Config struct {
	Binding        uint32
	Usage          vk.BufferUsageFlagBits
	DescriptorType vk.DescriptorType
	Stages         vk.ShaderStageFlagBits
	SharingMode    vk.SharingMode
	MemoryFlags    vk.MemoryPropertyFlagBits
	InputRate      vk.VertexInputRate
	Attributes     []vk.VertexInputAttributeDescription
}

// DefaultConfig is an exclusive, device local uniform buffer at binding 0.
func DefaultConfig() Config {
	return Config{
		Binding:        0,
		Usage:          vk.BufferUsageUniformBufferBit,
		DescriptorType: vk.DescriptorTypeUniformBuffer,
		Stages:         vk.ShaderStageVertexBit,
		SharingMode:    vk.SharingModeExclusive,
		MemoryFlags:    vk.MemoryPropertyDeviceLocalBit,
		InputRate:      vk.VertexInputRateVertex,
	}
}

// HostVisible is the memory policy for buffers written from the CPU.
const HostVisible = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit

// New creates an unbound buffer holding up to count elements of T.
func New[T any](props core.DeviceProperties, count int, cfg Config) *Buffer[T] {
	var zero T
	return &Buffer[T]{
		cfg:       cfg,
		count:     count,
		memory:    props.Memory,
		minAlign:  usageAlignment(props.Limits, cfg.Usage),
		elemSize:  uint64(unsafe.Sizeof(zero)),
		elemAlign: uint64(unsafe.Alignof(zero)),
	}
}

// Buffer is a native buffer holding elements of T, with the memory
// backing it. T must be plain data without Go pointers.
type Buffer[T any] struct {
	cfg       Config
	count     int
	memory    vk.PhysicalDeviceMemoryProperties
	minAlign  uint64
	elemSize  uint64
	elemAlign uint64

	allocated    bool
	buffer       vk.Buffer
	deviceMemory vk.DeviceMemory
	requirements vk.MemoryRequirements
}

// Config returns the policy of the buffer.
func (b *Buffer[T]) Config() Config {
	return b.cfg
}

// Len returns the number of elements the buffer holds.
func (b *Buffer[T]) Len() int {
	return b.count
}

// EntrySize is the distance between two elements in the buffer.
func (b *Buffer[T]) EntrySize() uint64 {
	return alignedEntrySize(b.elemSize, b.elemAlign, b.minAlign)
}

// Size is the number of bytes requested from the device.
func (b *Buffer[T]) Size() uint64 {
	return b.EntrySize() * uint64(b.count)
}

// Allocated reports whether the buffer is bound to memory.
func (b *Buffer[T]) Allocated() bool {
	return b.allocated
}

// Inner returns the vk.Buffer, nil until allocated.
func (b *Buffer[T]) Inner() vk.Buffer {
	return b.buffer
}

// Allocate creates the native buffer and binds memory to it.
// Calling it on an allocated buffer does nothing.
func (b *Buffer[T]) Allocate(device vk.Device) error {
	if b.allocated {
		return nil
	}

	bci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(b.Size()),
		Usage:       vk.BufferUsageFlags(b.cfg.Usage),
		SharingMode: b.cfg.SharingMode,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(device, &bci, nil, &buffer)); err != nil {
		return fmt.Errorf("vk.CreateBuffer(): %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &req)
	req.Deref()

	memType, err := FindMemoryType(b.memory, req.MemoryTypeBits, vk.MemoryPropertyFlags(b.cfg.MemoryFlags))
	if err != nil {
		vk.DestroyBuffer(device, buffer, nil)
		return err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}
	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(device, &mai, nil, &memory)); err != nil {
		vk.DestroyBuffer(device, buffer, nil)
		return fmt.Errorf("vk.AllocateMemory(): %w", err)
	}

	if err := vk.Error(vk.BindBufferMemory(device, buffer, memory, 0)); err != nil {
		vk.FreeMemory(device, memory, nil)
		vk.DestroyBuffer(device, buffer, nil)
		return fmt.Errorf("vk.BindBufferMemory(): %w", err)
	}

	b.buffer = buffer
	b.deviceMemory = memory
	b.requirements = req
	b.allocated = true
	return nil
}

// Copy uploads data to the start of the buffer, one element every
// EntrySize bytes. The buffer memory must be host visible.
func (b *Buffer[T]) Copy(device vk.Device, data []T) error {
	if !b.allocated {
		return ErrNotAllocated
	}
	staged, err := b.stage(data)
	if err != nil {
		return err
	}

	var mapped unsafe.Pointer
	if err := vk.Error(vk.MapMemory(device, b.deviceMemory, 0, b.requirements.Size, 0, &mapped)); err != nil {
		return fmt.Errorf("vk.MapMemory(): %w", err)
	}
	vk.Memcopy(mapped, staged)
	vk.UnmapMemory(device, b.deviceMemory)
	return nil
}

// stage lays data out the way Copy writes it to device memory.
func (b *Buffer[T]) stage(data []T) ([]byte, error) {
	if len(data) > b.count {
		return nil, fmt.Errorf("%d elements into %d: %w", len(data), b.count, ErrCapacity)
	}
	staged := make([]byte, b.EntrySize()*uint64(len(data)))
	packAligned(staged, data, b.EntrySize())
	return staged, nil
}

// Load allocates the buffer if needed and copies data into it.
func (b *Buffer[T]) Load(device vk.Device, data []T) error {
	if err := b.Allocate(device); err != nil {
		return err
	}
	return b.Copy(device, data)
}

// Cleanup frees the memory and destroys the buffer. Nothing
// happens when the buffer was never allocated.
func (b *Buffer[T]) Cleanup(device vk.Device) {
	if !b.allocated {
		return
	}
	vk.FreeMemory(device, b.deviceMemory, nil)
	vk.DestroyBuffer(device, b.buffer, nil)
	b.buffer = nil
	b.deviceMemory = nil
	b.allocated = false
}

// Description describes the buffer as a vertex input binding.
func (b *Buffer[T]) Description() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   b.cfg.Binding,
		Stride:    uint32(b.elemSize),
		InputRate: b.cfg.InputRate,
	}
}

// Attributes returns the vertex attributes at the buffer's binding.
func (b *Buffer[T]) Attributes() []vk.VertexInputAttributeDescription {
	attrs := make([]vk.VertexInputAttributeDescription, len(b.cfg.Attributes))
	for idx, attr := range b.cfg.Attributes {
		attr.Binding = b.cfg.Binding
		attrs[idx] = attr
	}
	return attrs
}

// DescriptorInfo covers one element for dynamic descriptors,
// and the whole buffer otherwise.
func (b *Buffer[T]) DescriptorInfo() vk.DescriptorBufferInfo {
	rng := b.Size()
	if isDynamic(b.cfg.DescriptorType) {
		rng = b.elemSize
	}
	return vk.DescriptorBufferInfo{
		Buffer: b.buffer,
		Offset: 0,
		Range:  vk.DeviceSize(rng),
	}
}

// Descriptor describes the buffer to a Set.
func (b *Buffer[T]) Descriptor() Descriptor {
	return Descriptor{
		Binding:   b.cfg.Binding,
		Type:      b.cfg.DescriptorType,
		Stages:    b.cfg.Stages,
		Info:      b.DescriptorInfo(),
		EntrySize: b.EntrySize(),
		Count:     b.count,
	}
}

// packAligned writes element i of data at i*stride in dst.
func packAligned[T any](dst []byte, data []T, stride uint64) {
	if len(data) == 0 {
		return
	}
	size := int(unsafe.Sizeof(data[0]))
	for idx := range data {
		src := unsafe.Slice((*byte)(unsafe.Pointer(&data[idx])), size)
		copy(dst[uint64(idx)*stride:], src)
	}
}

func isDynamic(t vk.DescriptorType) bool {
	return t == vk.DescriptorTypeUniformBufferDynamic || t == vk.DescriptorTypeStorageBufferDynamic
}
