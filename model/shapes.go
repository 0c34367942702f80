// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

var facing = glm.Vec3{0, 0, -1}

// Triangle is a unit triangle in the XY plane, facing -Z.
func Triangle() Mesh {
	return Mesh{
		Vertices: []Vertex{
			{Pos: glm.Vec3{-0.5, 0.5, 0}, Normal: facing},
			{Pos: glm.Vec3{0, -0.5, 0}, Normal: facing},
			{Pos: glm.Vec3{0.5, 0.5, 0}, Normal: facing},
		},
		Indices: []uint32{0, 1, 2},
	}
}

// Rectangle is a unit square in the XY plane, facing -Z.
func Rectangle() Mesh {
	return Mesh{
		Vertices: []Vertex{
			{Pos: glm.Vec3{-0.5, -0.5, 0}, Normal: facing},
			{Pos: glm.Vec3{-0.5, 0.5, 0}, Normal: facing},
			{Pos: glm.Vec3{0.5, -0.5, 0}, Normal: facing},
			{Pos: glm.Vec3{0.5, 0.5, 0}, Normal: facing},
		},
		Indices: []uint32{0, 1, 2, 1, 2, 3},
	}
}

// Cube is a unit cube centered at the origin, built from six rectangles.
func Cube() Mesh {
	faces := []ModelMatrix{
		{Rotation: glm.Vec3{0, glm.DegToRad(-90), 0}, Translation: glm.Vec3{-0.5, 0, 0}},
		{Rotation: glm.Vec3{0, glm.DegToRad(90), 0}, Translation: glm.Vec3{0.5, 0, 0}},
		{Rotation: glm.Vec3{glm.DegToRad(-90), 0, 0}, Translation: glm.Vec3{0, -0.5, 0}},
		{Rotation: glm.Vec3{glm.DegToRad(90), 0, 0}, Translation: glm.Vec3{0, 0.5, 0}},
		{Translation: glm.Vec3{0, 0, 0.5}},
		{Rotation: glm.Vec3{0, glm.DegToRad(180), 0}, Translation: glm.Vec3{0, 0, -0.5}},
	}

	var cube Mesh
	for _, face := range faces {
		face.Scale = glm.Vec3{1, 1, 1}
		cube = Merge(cube, Rectangle().Transform(face.Matrix()))
	}
	return cube
}

// Merge appends b to a, offsetting b's indices past a's vertices.
func Merge(a, b Mesh) Mesh {
	out := Mesh{
		Vertices: make([]Vertex, 0, len(a.Vertices)+len(b.Vertices)),
		Indices:  make([]uint32, 0, len(a.Indices)+len(b.Indices)),
	}
	out.Vertices = append(append(out.Vertices, a.Vertices...), b.Vertices...)
	out.Indices = append(out.Indices, a.Indices...)
	base := uint32(len(a.Vertices))
	for _, idx := range b.Indices {
		out.Indices = append(out.Indices, idx+base)
	}
	return out
}
