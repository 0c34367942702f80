// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"testing"

	vk "github.com/devblok/vulkan"
	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vkframe/core/buffer"
	"github.com/devblok/vkframe/core/engine"
	"github.com/devblok/vkframe/model"
)

func TestNewGroup(t *testing.T) {
	c := qt.New(t)
	group := newGroup(nil)
	c.Assert(group.Len(), qt.Equals, 3)
	c.Assert(group.Materials(), qt.DeepEquals, []model.Material{{ID: 1}, {ID: 2}, {ID: 3}})

	m, err := group.ModelMatrix(1)
	c.Assert(err, qt.IsNil)
	c.Assert(m.Translation, qt.Equals, glm.Vec3{-1.0, -1.5, -2.3})
	c.Assert(m.Scale, qt.Equals, glm.Vec3{1, 1, 1})
	c.Assert(group.Draws()[2], qt.Equals, model.Draw{IndexCount: 6, FirstIndex: 9, VertexOffset: 7})
}

func TestNewGroupWithMesh(t *testing.T) {
	c := qt.New(t)
	cube := model.Cube()
	group := newGroup(&cube)
	c.Assert(group.Len(), qt.Equals, 3)
	c.Assert(group.Draws()[2].IndexCount, qt.Equals, uint32(36))

	m, err := group.ModelMatrix(2)
	c.Assert(err, qt.IsNil)
	c.Assert(m.Translation, qt.Equals, glm.Vec3{0, 0, -2.5})
}

func TestUniformConfig(t *testing.T) {
	c := qt.New(t)
	cfg := uniformConfig(1, vk.ShaderStageFragmentBit)
	c.Assert(cfg.Binding, qt.Equals, uint32(1))
	c.Assert(cfg.DescriptorType, qt.Equals, vk.DescriptorTypeUniformBufferDynamic)
	c.Assert(cfg.Usage, qt.Equals, vk.BufferUsageUniformBufferBit)
	c.Assert(cfg.MemoryFlags, qt.Equals, buffer.HostVisible)
}

func TestLoadMeshNone(t *testing.T) {
	c := qt.New(t)
	mesh, err := loadMesh("")
	c.Assert(err, qt.IsNil)
	c.Assert(mesh, qt.IsNil)
}

type fakeWindow struct {
	width, height uint32
}

func (w fakeWindow) Size() (uint32, uint32) { return w.width, w.height }

type fakeEngine struct {
	rebuilds int
	err      error
}

func (e *fakeEngine) Rebuild() error {
	e.rebuilds++
	return e.err
}

func TestRebuildSwapchainMinimised(t *testing.T) {
	c := qt.New(t)
	e := &fakeEngine{}
	for _, w := range []fakeWindow{{0, 0}, {800, 0}, {0, 600}} {
		pending, err := rebuildSwapchain(w, e)
		c.Assert(err, qt.IsNil)
		c.Assert(pending, qt.IsTrue)
	}
	c.Assert(e.rebuilds, qt.Equals, 0)

	pending, err := rebuildSwapchain(fakeWindow{800, 600}, e)
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.IsFalse)
	c.Assert(e.rebuilds, qt.Equals, 1)
}

func TestRebuildSwapchainError(t *testing.T) {
	c := qt.New(t)
	e := &fakeEngine{err: engine.ErrFormatChanged}
	_, err := rebuildSwapchain(fakeWindow{800, 600}, e)
	c.Assert(err, qt.ErrorIs, engine.ErrFormatChanged)
}
