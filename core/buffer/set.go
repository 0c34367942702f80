// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package buffer

import (
	"fmt"
	"sort"

	vk "github.com/devblok/vulkan"
)

// Descriptor is what a Set needs to know about a bound buffer.
type Descriptor struct {
	Binding   uint32
	Type      vk.DescriptorType
	Stages    vk.ShaderStageFlagBits
	Info      vk.DescriptorBufferInfo
	EntrySize uint64
	Count     int
}

// Offset is the dynamic offset of element idx.
func (d Descriptor) Offset(idx int) (uint32, error) {
	if idx < 0 || idx >= d.Count {
		return 0, fmt.Errorf("element %d of %d at binding %d: %w", idx, d.Count, d.Binding, ErrOutOfRange)
	}
	return uint32(d.EntrySize * uint64(idx)), nil
}

// Bindable is a buffer that can be exposed through a Set.
type Bindable interface {
	Allocated() bool
	Descriptor() Descriptor
}

// NewSet returns an empty descriptor set.
func NewSet() *Set {
	return &Set{}
}

// Set is one descriptor set with its layout and pool, built from
// allocated buffers with distinct bindings.
type Set struct {
	descriptors []Descriptor

	allocated bool
	layout    vk.DescriptorSetLayout
	pool      vk.DescriptorPool
	set       vk.DescriptorSet
}

// Add appends an allocated buffer to the set. The set must not be
// allocated yet.
func (s *Set) Add(b Bindable) error {
	if s.allocated {
		return ErrSetAllocated
	}
	if !b.Allocated() {
		return ErrNotAllocated
	}
	desc := b.Descriptor()
	for _, d := range s.descriptors {
		if d.Binding == desc.Binding {
			return fmt.Errorf("binding %d: %w", desc.Binding, ErrDuplicateBinding)
		}
	}
	s.descriptors = append(s.descriptors, desc)
	return nil
}

// Descriptors returns the descriptors in the order they were added.
func (s *Set) Descriptors() []Descriptor {
	return s.descriptors
}

// Layout returns the descriptor set layout, nil until allocated.
func (s *Set) Layout() vk.DescriptorSetLayout {
	return s.layout
}

// Inner returns the descriptor set, nil until allocated.
func (s *Set) Inner() vk.DescriptorSet {
	return s.set
}

// Allocated reports whether the layout, pool and set exist.
func (s *Set) Allocated() bool {
	return s.allocated
}

// PoolSizes counts descriptors per type, in order of first use.
func (s *Set) PoolSizes() []vk.DescriptorPoolSize {
	var sizes []vk.DescriptorPoolSize
	index := make(map[vk.DescriptorType]int)
	for _, d := range s.descriptors {
		if idx, ok := index[d.Type]; ok {
			sizes[idx].DescriptorCount++
			continue
		}
		index[d.Type] = len(sizes)
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            d.Type,
			DescriptorCount: 1,
		})
	}
	return sizes
}

// LayoutBindings describes every descriptor of the set.
func (s *Set) LayoutBindings() []vk.DescriptorSetLayoutBinding {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(s.descriptors))
	for idx, d := range s.descriptors {
		bindings[idx] = vk.DescriptorSetLayoutBinding{
			Binding:         d.Binding,
			DescriptorType:  d.Type,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(d.Stages),
		}
	}
	return bindings
}

// Allocate creates the layout and pool, and allocates exactly one
// descriptor set from them. Contents are written by WriteDescriptorSets.
func (s *Set) Allocate(device vk.Device) error {
	if s.allocated {
		return nil
	}
	if len(s.descriptors) == 0 {
		return ErrEmptySet
	}

	bindings := s.LayoutBindings()
	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(device, &dslci, nil, &layout)); err != nil {
		return fmt.Errorf("vk.CreateDescriptorSetLayout(): %w", err)
	}

	dpci := poolInfo(s.PoolSizes())
	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(device, &dpci, nil, &pool)); err != nil {
		vk.DestroyDescriptorSetLayout(device, layout, nil)
		return fmt.Errorf("vk.CreateDescriptorPool(): %w", err)
	}

	dsai := allocateInfo(pool, layout)
	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(device, &dsai, &set)); err != nil {
		vk.DestroyDescriptorPool(device, pool, nil)
		vk.DestroyDescriptorSetLayout(device, layout, nil)
		return fmt.Errorf("vk.AllocateDescriptorSets(): %w", err)
	}

	s.layout = layout
	s.pool = pool
	s.set = set
	s.allocated = true
	return nil
}

func poolInfo(sizes []vk.DescriptorPoolSize) vk.DescriptorPoolCreateInfo {
	return vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
}

func allocateInfo(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) vk.DescriptorSetAllocateInfo {
	return vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
}

// Writes returns one descriptor write per buffer in the set.
func (s *Set) Writes() ([]vk.WriteDescriptorSet, error) {
	if !s.allocated {
		return nil, ErrSetNotAllocated
	}
	writes := make([]vk.WriteDescriptorSet, len(s.descriptors))
	for idx, d := range s.descriptors {
		writes[idx] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          s.set,
			DstBinding:      d.Binding,
			DescriptorCount: 1,
			DescriptorType:  d.Type,
			PBufferInfo:     []vk.DescriptorBufferInfo{d.Info},
		}
	}
	return writes, nil
}

// WriteDescriptorSets issues one batched update for every given set.
func WriteDescriptorSets(device vk.Device, sets ...*Set) error {
	var writes []vk.WriteDescriptorSet
	for _, s := range sets {
		w, err := s.Writes()
		if err != nil {
			return err
		}
		writes = append(writes, w...)
	}
	if len(writes) == 0 {
		return nil
	}
	vk.UpdateDescriptorSets(device, uint32(len(writes)), writes, 0, nil)
	return nil
}

// DynamicOffset is the byte offset of element idx in the buffer
// added at position buffer.
func (s *Set) DynamicOffset(buffer, idx int) (uint32, error) {
	if buffer < 0 || buffer >= len(s.descriptors) {
		return 0, fmt.Errorf("buffer %d of %d: %w", buffer, len(s.descriptors), ErrOutOfRange)
	}
	return s.descriptors[buffer].Offset(idx)
}

// DynamicOffsets returns the offsets of element idx for every dynamic
// descriptor, ordered by binding as binding a set requires.
func (s *Set) DynamicOffsets(idx int) ([]uint32, error) {
	dynamic := make([]Descriptor, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		if isDynamic(d.Type) {
			dynamic = append(dynamic, d)
		}
	}
	sort.Slice(dynamic, func(i, j int) bool {
		return dynamic[i].Binding < dynamic[j].Binding
	})

	offsets := make([]uint32, len(dynamic))
	for i, d := range dynamic {
		off, err := d.Offset(idx)
		if err != nil {
			return nil, err
		}
		offsets[i] = off
	}
	return offsets, nil
}

// Bind binds the set at index first of layout.
func (s *Set) Bind(cmd vk.CommandBuffer, layout vk.PipelineLayout, first uint32, idx int) error {
	if !s.allocated {
		return ErrSetNotAllocated
	}
	offsets, err := s.DynamicOffsets(idx)
	if err != nil {
		return err
	}
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, layout, first, 1,
		[]vk.DescriptorSet{s.set}, uint32(len(offsets)), offsets)
	return nil
}

// Cleanup destroys the pool, which frees the set, and the layout.
// Buffers stay owned by the caller.
func (s *Set) Cleanup(device vk.Device) {
	if !s.allocated {
		return
	}
	vk.DestroyDescriptorPool(device, s.pool, nil)
	vk.DestroyDescriptorSetLayout(device, s.layout, nil)
	s.pool = nil
	s.layout = nil
	s.set = nil
	s.allocated = false
}
