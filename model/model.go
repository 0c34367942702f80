// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the geometry and per object data uploaded
// to the GPU.
package model

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Object is anything that can be drawn as an indexed mesh.
type Object interface {
	Mesh() Mesh
}

// Vertex is a model vertex
type Vertex struct {
	Pos    glm.Vec3
	Normal glm.Vec3
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Mesh implements Object.
func (m Mesh) Mesh() Mesh {
	return m
}

// Transform returns a copy of the mesh with every vertex transformed
// by m. Normals are rotated by the upper 3x3 part of m.
func (m Mesh) Transform(mat glm.Mat4) Mesh {
	normal := mat.Mat3()
	out := Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	for idx, v := range m.Vertices {
		out.Vertices[idx] = Vertex{
			Pos:    mat.Mul4x1(v.Pos.Vec4(1)).Vec3(),
			Normal: normal.Mul3x1(v.Normal).Normalize(),
		}
	}
	return out
}

// Transformation is the per object model matrix, laid out as a
// column major mat4 the way shaders read it.
type Transformation struct {
	Matrix glm.Mat4
}

// Material selects how an object is shaded.
type Material struct {
	ID uint32
}

// PushConstants are pushed once per frame.
type PushConstants struct {
	Elapsed uint32
}

// ModelMatrix is an object's placement, composed as
// translation * rotation * scale. Rotation is in radians.
type ModelMatrix struct {
	Scale       glm.Vec3
	Rotation    glm.Vec3
	Translation glm.Vec3
}

// DefaultModelMatrix is the identity placement.
func DefaultModelMatrix() ModelMatrix {
	return ModelMatrix{Scale: glm.Vec3{1, 1, 1}}
}

// Matrix composes the placement into a single matrix.
func (m ModelMatrix) Matrix() glm.Mat4 {
	translation := glm.Translate3D(m.Translation.X(), m.Translation.Y(), m.Translation.Z())
	rotation := glm.HomogRotate3DZ(m.Rotation.Z()).
		Mul4(glm.HomogRotate3DY(m.Rotation.Y())).
		Mul4(glm.HomogRotate3DX(m.Rotation.X()))
	scale := glm.Scale3D(m.Scale.X(), m.Scale.Y(), m.Scale.Z())
	return translation.Mul4(rotation).Mul4(scale)
}

// Transformation returns the matrix in the layout uploaded to the GPU.
func (m ModelMatrix) Transformation() Transformation {
	return Transformation{Matrix: m.Matrix()}
}

// Moved returns the placement moved by the given deltas.
func (m ModelMatrix) Moved(translation, rotation, scale glm.Vec3) ModelMatrix {
	return ModelMatrix{
		Scale:       m.Scale.Add(scale),
		Rotation:    m.Rotation.Add(rotation),
		Translation: m.Translation.Add(translation),
	}
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Normal)),
		},
	}
}
