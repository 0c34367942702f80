// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoModel is returned for an index outside the group.
var ErrNoModel = errors.New("no such model")

// Draw locates one model in the group's shared buffers.
type Draw struct {
	IndexCount   uint32
	FirstIndex   uint32
	VertexOffset int32
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{}
}

// Group packs several meshes into one vertex and one index array,
// with a placement and material per mesh. It is safe for concurrent use.
type Group struct {
	mutex     sync.RWMutex
	meshes    []Mesh
	matrices  []ModelMatrix
	materials []Material
	dirty     bool
}

// Add appends an object with the identity placement and material 1.
// Returns the index of the object in the group.
func (g *Group) Add(o Object) int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.meshes = append(g.meshes, o.Mesh())
	g.matrices = append(g.matrices, DefaultModelMatrix())
	g.materials = append(g.materials, Material{ID: 1})
	g.dirty = true
	return len(g.meshes) - 1
}

// Len returns the number of objects in the group.
func (g *Group) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.meshes)
}

func (g *Group) check(idx int) error {
	if idx < 0 || idx >= len(g.meshes) {
		return fmt.Errorf("model %d of %d: %w", idx, len(g.meshes), ErrNoModel)
	}
	return nil
}

// ModelMatrix returns the placement of object idx.
func (g *Group) ModelMatrix(idx int) (ModelMatrix, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	if err := g.check(idx); err != nil {
		return ModelMatrix{}, err
	}
	return g.matrices[idx], nil
}

// SetModelMatrix places object idx and marks the transforms dirty.
func (g *Group) SetModelMatrix(idx int, m ModelMatrix) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.check(idx); err != nil {
		return err
	}
	g.matrices[idx] = m
	g.dirty = true
	return nil
}

// SetMaterial changes the material of object idx.
func (g *Group) SetMaterial(idx int, m Material) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.check(idx); err != nil {
		return err
	}
	g.materials[idx] = m
	return nil
}

// Vertices returns the vertices of every object, in order.
func (g *Group) Vertices() []Vertex {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	var vertices []Vertex
	for _, m := range g.meshes {
		vertices = append(vertices, m.Vertices...)
	}
	return vertices
}

// Indices returns the indices of every object, in order. Each object's
// indices stay relative to its own vertices; Draws gives the offsets.
func (g *Group) Indices() []uint32 {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	var indices []uint32
	for _, m := range g.meshes {
		indices = append(indices, m.Indices...)
	}
	return indices
}

// Draws returns the indexed draw parameters of every object.
func (g *Group) Draws() []Draw {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	draws := make([]Draw, len(g.meshes))
	var index, vertex int
	for idx, m := range g.meshes {
		draws[idx] = Draw{
			IndexCount:   uint32(len(m.Indices)),
			FirstIndex:   uint32(index),
			VertexOffset: int32(vertex),
		}
		index += len(m.Indices)
		vertex += len(m.Vertices)
	}
	return draws
}

// Transforms returns the model matrix of every object.
func (g *Group) Transforms() []Transformation {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	transforms := make([]Transformation, len(g.matrices))
	for idx, m := range g.matrices {
		transforms[idx] = m.Transformation()
	}
	return transforms
}

// Materials returns the material of every object.
func (g *Group) Materials() []Material {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]Material(nil), g.materials...)
}

// TakeDirty reports whether transforms changed since the last call.
func (g *Group) TakeDirty() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	dirty := g.dirty
	g.dirty = false
	return dirty
}
