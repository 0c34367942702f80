// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package buffer

import (
	"testing"
	"unsafe"

	vk "github.com/devblok/vulkan"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkframe/core"
)

type transform struct {
	X, Y, Z, W float32
}

type material struct {
	ID uint32
}

type odd struct {
	A uint8
	B uint16
}

func testProperties() core.DeviceProperties {
	var props core.DeviceProperties
	props.Memory.MemoryTypeCount = 3
	props.Memory.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	props.Memory.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	props.Memory.MemoryTypes[2].PropertyFlags = vk.MemoryPropertyFlags(HostVisible)
	props.Limits.MinUniformBufferOffsetAlignment = 256
	props.Limits.MinStorageBufferOffsetAlignment = 64
	props.Limits.MinTexelBufferOffsetAlignment = 16
	return props
}

func uniformConfig(binding uint32, dynamic bool) Config {
	cfg := DefaultConfig()
	cfg.Binding = binding
	cfg.MemoryFlags = HostVisible
	if dynamic {
		cfg.DescriptorType = vk.DescriptorTypeUniformBufferDynamic
	}
	return cfg
}

func TestFindMemoryTypeFirstFit(t *testing.T) {
	c := qt.New(t)
	props := testProperties().Memory
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)

	idx, err := FindMemoryType(props, 0b111, hostVisible)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(1))

	idx, err = FindMemoryType(props, 0b101, hostVisible)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(2))

	idx, err = FindMemoryType(props, 0b111, vk.MemoryPropertyFlags(HostVisible))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(2))

	_, err = FindMemoryType(props, 0b001, hostVisible)
	c.Assert(err, qt.ErrorIs, ErrNoMemoryType)

	_, err = FindMemoryType(props, 0b1000, 0)
	c.Assert(err, qt.ErrorIs, ErrNoMemoryType)
}

func TestUsageAlignment(t *testing.T) {
	c := qt.New(t)
	limits := testProperties().Limits
	c.Assert(usageAlignment(limits, vk.BufferUsageUniformBufferBit), qt.Equals, uint64(256))
	c.Assert(usageAlignment(limits, vk.BufferUsageStorageBufferBit), qt.Equals, uint64(64))
	c.Assert(usageAlignment(limits, vk.BufferUsageUniformTexelBufferBit), qt.Equals, uint64(16))
	c.Assert(usageAlignment(limits, vk.BufferUsageVertexBufferBit), qt.Equals, uint64(1))
	c.Assert(usageAlignment(limits, vk.BufferUsageUniformBufferBit|vk.BufferUsageStorageBufferBit), qt.Equals, uint64(256))
}

func TestAlignedEntrySize(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		size, align, min, want uint64
	}{
		{size: 16, align: 4, min: 256, want: 256},
		{size: 4, align: 4, min: 1, want: 4},
		{size: 6, align: 4, min: 1, want: 8},
		{size: 300, align: 4, min: 256, want: 512},
		{size: 0, align: 1, min: 64, want: 64},
	}
	for _, test := range tests {
		got := alignedEntrySize(test.size, test.align, test.min)
		c.Check(got, qt.Equals, test.want, qt.Commentf("size %d align %d min %d", test.size, test.align, test.min))
		c.Check(got >= test.size, qt.IsTrue)
		c.Check(got%test.min, qt.Equals, uint64(0))
		c.Check(got%test.align, qt.Equals, uint64(0))
	}
}

func TestBufferEntrySize(t *testing.T) {
	c := qt.New(t)
	props := testProperties()

	uniform := New[transform](props, 3, uniformConfig(0, true))
	c.Assert(uniform.EntrySize(), qt.Equals, uint64(256))
	c.Assert(uniform.Size(), qt.Equals, uint64(768))

	vcfg := DefaultConfig()
	vcfg.Usage = vk.BufferUsageVertexBufferBit
	vertex := New[odd](props, 10, vcfg)
	c.Assert(vertex.EntrySize(), qt.Equals, uint64(4))
	c.Assert(vertex.Size(), qt.Equals, uint64(40))
	c.Assert(vertex.Description().Stride, qt.Equals, uint32(4))
}

func TestDynamicOffsetsDoNotOverlap(t *testing.T) {
	c := qt.New(t)
	b := New[transform](testProperties(), 4, uniformConfig(0, true))
	desc := b.Descriptor()

	var prev uint32
	for idx := 0; idx < b.Len(); idx++ {
		off, err := desc.Offset(idx)
		c.Assert(err, qt.IsNil)
		c.Assert(uint64(off), qt.Equals, b.EntrySize()*uint64(idx))
		if idx > 0 {
			c.Assert(uint64(off-prev) >= uint64(desc.Info.Range), qt.IsTrue)
		}
		c.Assert(uint64(off)+b.EntrySize() <= b.Size(), qt.IsTrue)
		prev = off
	}

	_, err := desc.Offset(4)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)
	_, err = desc.Offset(-1)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)
}

func TestDescriptorInfoRange(t *testing.T) {
	c := qt.New(t)
	props := testProperties()
	c.Assert(New[transform](props, 3, uniformConfig(0, true)).DescriptorInfo().Range, qt.Equals, vk.DeviceSize(16))
	c.Assert(New[transform](props, 3, uniformConfig(0, false)).DescriptorInfo().Range, qt.Equals, vk.DeviceSize(768))
}

func TestCopyBeforeAllocate(t *testing.T) {
	c := qt.New(t)
	b := New[transform](testProperties(), 1, uniformConfig(0, false))
	c.Assert(b.Copy(nil, []transform{{}}), qt.Equals, ErrNotAllocated)
}

func TestAllocateTwiceIsNoop(t *testing.T) {
	c := qt.New(t)
	b := New[transform](testProperties(), 1, uniformConfig(0, false))
	b.allocated = true
	b.requirements.Size = 256

	c.Assert(b.Allocate(nil), qt.IsNil)
	c.Assert(b.Allocated(), qt.IsTrue)
	c.Assert(b.requirements.Size, qt.Equals, vk.DeviceSize(256))
}

func TestCleanupUnallocated(t *testing.T) {
	c := qt.New(t)
	b := New[transform](testProperties(), 1, uniformConfig(0, false))
	b.Cleanup(nil)
	c.Assert(b.Allocated(), qt.IsFalse)
}

func TestStageRoundTrip(t *testing.T) {
	c := qt.New(t)
	b := New[transform](testProperties(), 3, uniformConfig(0, true))
	data := []transform{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{-1, -2, -3, -4},
	}

	staged, err := b.stage(data)
	c.Assert(err, qt.IsNil)
	c.Assert(uint64(len(staged)), qt.Equals, b.Size())
	c.Assert(unpackAligned[transform](staged, len(data), b.EntrySize()), qt.DeepEquals, data)

	staged, err = b.stage(data[:1])
	c.Assert(err, qt.IsNil)
	c.Assert(unpackAligned[transform](staged, 1, b.EntrySize()), qt.DeepEquals, data[:1])

	_, err = b.stage(make([]transform, 4))
	c.Assert(err, qt.ErrorIs, ErrCapacity)
}

func TestPackAlignedTight(t *testing.T) {
	c := qt.New(t)
	data := []material{{1}, {2}, {3}}
	dst := make([]byte, 12)
	packAligned(dst, data, 4)
	c.Assert(unpackAligned[material](dst, 3, 4), qt.DeepEquals, data)
	packAligned(dst, []material{}, 4)
}

func TestAttributesUseBinding(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfig()
	cfg.Binding = 2
	cfg.Usage = vk.BufferUsageVertexBufferBit
	cfg.Attributes = []vk.VertexInputAttributeDescription{
		{Location: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
	}
	attrs := New[transform](testProperties(), 1, cfg).Attributes()
	c.Assert(attrs, qt.HasLen, 1)
	c.Assert(attrs[0].Binding, qt.Equals, uint32(2))
	c.Assert(cfg.Attributes[0].Binding, qt.Equals, uint32(0))
}

// unpackAligned reads elements written by packAligned.
func unpackAligned[T any](src []byte, count int, stride uint64) []T {
	out := make([]T, count)
	if count == 0 {
		return out
	}
	size := int(unsafe.Sizeof(out[0]))
	for idx := range out {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(&out[idx])), size)
		copy(dst, src[uint64(idx)*stride:])
	}
	return out
}
