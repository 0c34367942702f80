// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package buffer

import (
	"testing"

	vk "github.com/devblok/vulkan"
	qt "github.com/frankban/quicktest"
)

type fakeBindable struct {
	allocated bool
	desc      Descriptor
}

func (f fakeBindable) Allocated() bool        { return f.allocated }
func (f fakeBindable) Descriptor() Descriptor { return f.desc }

func allocatedBuffer[T any](count int, cfg Config) *Buffer[T] {
	b := New[T](testProperties(), count, cfg)
	b.allocated = true
	return b
}

func TestSetPoolSizesPerType(t *testing.T) {
	c := qt.New(t)
	transforms := allocatedBuffer[transform](3, uniformConfig(0, true))
	materials := allocatedBuffer[material](1, uniformConfig(1, false))

	set := NewSet()
	c.Assert(set.Add(transforms), qt.IsNil)
	c.Assert(set.Add(materials), qt.IsNil)

	sizes := set.PoolSizes()
	c.Assert(sizes, qt.HasLen, 2)
	c.Assert(sizes[0].Type, qt.Equals, vk.DescriptorTypeUniformBufferDynamic)
	c.Assert(sizes[0].DescriptorCount, qt.Equals, uint32(1))
	c.Assert(sizes[1].Type, qt.Equals, vk.DescriptorTypeUniformBuffer)
	c.Assert(sizes[1].DescriptorCount, qt.Equals, uint32(1))

	bindings := set.LayoutBindings()
	c.Assert(bindings, qt.HasLen, 2)
	c.Assert(bindings[0].Binding, qt.Equals, uint32(0))
	c.Assert(bindings[0].DescriptorType, qt.Equals, vk.DescriptorTypeUniformBufferDynamic)
	c.Assert(bindings[1].Binding, qt.Equals, uint32(1))
	c.Assert(bindings[1].DescriptorType, qt.Equals, vk.DescriptorTypeUniformBuffer)

	c.Assert(poolInfo(set.PoolSizes()).MaxSets, qt.Equals, uint32(1))
	c.Assert(allocateInfo(nil, nil).DescriptorSetCount, qt.Equals, uint32(1))
}

func TestSetPoolSizesGroupsSameType(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	for binding := uint32(0); binding < 3; binding++ {
		c.Assert(set.Add(allocatedBuffer[transform](1, uniformConfig(binding, true))), qt.IsNil)
	}
	sizes := set.PoolSizes()
	c.Assert(sizes, qt.HasLen, 1)
	c.Assert(sizes[0].Type, qt.Equals, vk.DescriptorTypeUniformBufferDynamic)
	c.Assert(sizes[0].DescriptorCount, qt.Equals, uint32(3))
}

func TestSetRejectsAddAfterAllocate(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	c.Assert(set.Add(allocatedBuffer[transform](3, uniformConfig(0, true))), qt.IsNil)
	set.allocated = true

	err := set.Add(allocatedBuffer[material](1, uniformConfig(1, false)))
	c.Assert(err, qt.Equals, ErrSetAllocated)
	c.Assert(set.Descriptors(), qt.HasLen, 1)
	c.Assert(set.LayoutBindings(), qt.HasLen, 1)

	writes, err := set.Writes()
	c.Assert(err, qt.IsNil)
	c.Assert(writes, qt.HasLen, 1)
}

func TestSetAllocateEmpty(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	c.Assert(set.Allocate(nil), qt.Equals, ErrEmptySet)
	c.Assert(set.Allocated(), qt.IsFalse)
}

func TestSetRejectsUnallocated(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	b := New[transform](testProperties(), 1, uniformConfig(0, false))
	c.Assert(set.Add(b), qt.Equals, ErrNotAllocated)
	c.Assert(set.Descriptors(), qt.HasLen, 0)
}

func TestSetRejectsDuplicateBinding(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	c.Assert(set.Add(fakeBindable{allocated: true, desc: Descriptor{Binding: 1}}), qt.IsNil)
	err := set.Add(fakeBindable{allocated: true, desc: Descriptor{Binding: 1}})
	c.Assert(err, qt.ErrorIs, ErrDuplicateBinding)
	c.Assert(set.Descriptors(), qt.HasLen, 1)
}

func TestSetDynamicOffsets(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	c.Assert(set.Add(allocatedBuffer[material](2, uniformConfig(1, true))), qt.IsNil)
	c.Assert(set.Add(allocatedBuffer[transform](2, uniformConfig(0, true))), qt.IsNil)
	c.Assert(set.Add(allocatedBuffer[transform](1, uniformConfig(2, false))), qt.IsNil)

	off, err := set.DynamicOffset(0, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(off, qt.Equals, uint32(256))

	_, err = set.DynamicOffset(3, 0)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)

	offsets, err := set.DynamicOffsets(1)
	c.Assert(err, qt.IsNil)
	c.Assert(offsets, qt.DeepEquals, []uint32{256, 256})

	offsets, err = set.DynamicOffsets(0)
	c.Assert(err, qt.IsNil)
	c.Assert(offsets, qt.DeepEquals, []uint32{0, 0})

	_, err = set.DynamicOffsets(2)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)
}

func TestSetWritesBeforeAllocate(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	_, err := set.Writes()
	c.Assert(err, qt.Equals, ErrSetNotAllocated)
	c.Assert(WriteDescriptorSets(nil, set), qt.Equals, ErrSetNotAllocated)
	c.Assert(set.Bind(nil, nil, 0, 0), qt.Equals, ErrSetNotAllocated)
	set.Cleanup(nil)
}

func TestSetWrites(t *testing.T) {
	c := qt.New(t)
	set := NewSet()
	c.Assert(set.Add(allocatedBuffer[transform](3, uniformConfig(0, true))), qt.IsNil)
	c.Assert(set.Add(allocatedBuffer[material](1, uniformConfig(1, false))), qt.IsNil)
	set.allocated = true

	writes, err := set.Writes()
	c.Assert(err, qt.IsNil)
	c.Assert(writes, qt.HasLen, 2)
	c.Assert(writes[0].DstBinding, qt.Equals, uint32(0))
	c.Assert(writes[0].PBufferInfo[0].Range, qt.Equals, vk.DeviceSize(16))
	c.Assert(writes[1].DstBinding, qt.Equals, uint32(1))
	c.Assert(writes[1].PBufferInfo[0].Range, qt.Equals, vk.DeviceSize(256))
}
