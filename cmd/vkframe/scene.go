// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packd"

	"github.com/devblok/vkframe/core"
	"github.com/devblok/vkframe/core/buffer"
	"github.com/devblok/vkframe/core/engine"
	"github.com/devblok/vkframe/core/handle"
	"github.com/devblok/vkframe/model"
)

const pushStages = vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit

var (
	clearColor  = [4]float32{0, 0, 0, 1}
	shaderFiles = []string{"shader.vert.spv", "shader.frag.spv"}
)

// newGroup places a triangle and two rectangles in front of the camera.
// A non nil mesh takes the place of the last rectangle.
func newGroup(mesh *model.Mesh) *model.Group {
	group := model.NewGroup()
	group.Add(model.Triangle())
	group.Add(model.Rectangle())
	if mesh != nil {
		group.Add(*mesh)
	} else {
		group.Add(model.Rectangle())
	}

	placements := []glm.Vec3{
		{0.8, 0.8, -2.0},
		{-1.0, -1.5, -2.3},
		{0.0, 0.0, -2.5},
	}
	for idx, t := range placements {
		m := model.DefaultModelMatrix()
		m.Translation = t
		group.SetModelMatrix(idx, m)
		group.SetMaterial(idx, model.Material{ID: uint32(idx + 1)})
	}
	return group
}

// uniformConfig is a host visible dynamic uniform buffer, one element
// bound per draw.
func uniformConfig(binding uint32, stages vk.ShaderStageFlagBits) buffer.Config {
	cfg := buffer.DefaultConfig()
	cfg.Binding = binding
	cfg.DescriptorType = vk.DescriptorTypeUniformBufferDynamic
	cfg.Stages = stages
	cfg.MemoryFlags = buffer.HostVisible
	return cfg
}

type scene struct {
	engine *engine.Engine
	group  *model.Group

	transforms *buffer.Buffer[model.Transformation]
	materials  *buffer.Buffer[model.Material]
	vertices   *buffer.Buffer[model.Vertex]
	indices    *buffer.Buffer[uint32]
	set        *buffer.Set

	layout   vk.PipelineLayout
	pipeline vk.Pipeline
}

// track loads data into b and hands it to the engine for cleanup.
func track[T any](e *engine.Engine, b *buffer.Buffer[T], data []T) error {
	if err := b.Load(e.Inner(), data); err != nil {
		b.Cleanup(e.Inner())
		return err
	}
	if _, err := e.Track(handle.KindBuffer, b.Cleanup); err != nil {
		b.Cleanup(e.Inner())
		return err
	}
	return nil
}

func newScene(e *engine.Engine, group *model.Group, shaders packd.Finder) (*scene, error) {
	props := e.Properties()
	s := &scene{
		engine:     e,
		group:      group,
		transforms: buffer.New[model.Transformation](props, group.Len(), uniformConfig(0, vk.ShaderStageVertexBit)),
		materials:  buffer.New[model.Material](props, group.Len(), uniformConfig(1, vk.ShaderStageFragmentBit)),
	}

	vertices := group.Vertices()
	vcfg := buffer.DefaultConfig()
	vcfg.Usage = vk.BufferUsageVertexBufferBit
	vcfg.MemoryFlags = buffer.HostVisible
	vcfg.Attributes = model.VertexAttributeDescriptions()
	s.vertices = buffer.New[model.Vertex](props, len(vertices), vcfg)

	indices := group.Indices()
	icfg := buffer.DefaultConfig()
	icfg.Usage = vk.BufferUsageIndexBufferBit
	icfg.MemoryFlags = buffer.HostVisible
	s.indices = buffer.New[uint32](props, len(indices), icfg)

	group.TakeDirty()
	if err := track(e, s.transforms, group.Transforms()); err != nil {
		return nil, err
	}
	if err := track(e, s.materials, group.Materials()); err != nil {
		return nil, err
	}
	if err := track(e, s.vertices, vertices); err != nil {
		return nil, err
	}
	if err := track(e, s.indices, indices); err != nil {
		return nil, err
	}

	s.set = buffer.NewSet()
	if err := s.set.Add(s.transforms); err != nil {
		return nil, err
	}
	if err := s.set.Add(s.materials); err != nil {
		return nil, err
	}
	if err := s.set.Allocate(e.Inner()); err != nil {
		return nil, err
	}
	if _, err := e.Track(handle.KindBuffer, s.set.Cleanup); err != nil {
		s.set.Cleanup(e.Inner())
		return nil, err
	}
	if err := buffer.WriteDescriptorSets(e.Inner(), s.set); err != nil {
		return nil, err
	}

	var err error
	s.layout, err = e.CreatePipelineLayout(
		[]vk.DescriptorSetLayout{s.set.Layout()},
		[]vk.PushConstantRange{core.PushConstantRange[model.PushConstants](0, pushStages)},
	)
	if err != nil {
		return nil, err
	}

	var stages core.Stages
	if err := e.Device().With(func(d *core.Device) error {
		stages, err = core.LoadStages(d, shaders, shaderFiles...)
		return err
	}); err != nil {
		return nil, err
	}
	defer stages.Destroy(e.Inner())

	s.pipeline, err = e.CreateGraphicsPipeline(core.PipelineDescription{
		Stages:     stages,
		Bindings:   []vk.VertexInputBindingDescription{s.vertices.Description()},
		Attributes: s.vertices.Attributes(),
		Viewport:   core.NewViewport(e.Extent()),
		Layout:     s.layout,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// frame renders and presents one frame.
func (s *scene) frame(f *engine.Frame, elapsed uint32) error {
	if err := f.Begin(); err != nil {
		return err
	}
	if s.group.TakeDirty() {
		if err := s.transforms.Copy(s.engine.Inner(), s.group.Transforms()); err != nil {
			return err
		}
	}
	if err := f.Record(func(cmd vk.CommandBuffer, idx uint32) error {
		return s.draw(cmd, idx, elapsed)
	}); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	return f.Present()
}

func (s *scene) draw(cmd vk.CommandBuffer, idx uint32, elapsed uint32) error {
	if err := s.engine.BeginRenderPass(cmd, idx, clearColor); err != nil {
		return err
	}
	defer vk.CmdEndRenderPass(cmd)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, s.pipeline)
	core.NewViewport(s.engine.Extent()).Record(cmd)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{s.vertices.Inner()}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, s.indices.Inner(), 0, vk.IndexTypeUint32)

	push := model.PushConstants{Elapsed: elapsed}
	vk.CmdPushConstants(cmd, s.layout, vk.ShaderStageFlags(pushStages), 0,
		uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))

	for i, d := range s.group.Draws() {
		if err := s.set.Bind(cmd, s.layout, 0, i); err != nil {
			return err
		}
		vk.CmdDrawIndexed(cmd, d.IndexCount, 1, d.FirstIndex, d.VertexOffset, 0)
	}
	return nil
}
