// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"encoding/xml"
	"errors"
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vkframe/util/collada"
)

// Collada import errors
var (
	ErrNoGeometry    = errors.New("document has no geometry")
	ErrSourceMissing = errors.New("source type not found")
	ErrIndexRange    = errors.New("index out of source range")
)

// ImportCollada converts the first geometry of a Collada document
// into a mesh. Every referenced vertex becomes its own vertex.
func ImportCollada(fileContents []byte) (Mesh, error) {
	var doc collada.Collada
	if err := xml.Unmarshal(fileContents, &doc); err != nil {
		return Mesh{}, err
	}
	if len(doc.Geometries) == 0 {
		return Mesh{}, ErrNoGeometry
	}
	return colladaMesh(doc.Geometries[0].Mesh)
}

func colladaMesh(mesh collada.Mesh) (Mesh, error) {
	positions, ok := mesh.Positions()
	if !ok {
		return Mesh{}, fmt.Errorf("positions: %w", ErrSourceMissing)
	}
	vertex, _ := mesh.Triangles.Input("VERTEX")

	var (
		normals      collada.Source
		normalOffset uint
		hasNormals   bool
	)
	if in, ok := mesh.Triangles.Input("NORMAL"); ok {
		if normals, hasNormals = mesh.FindSource(in.Source); !hasNormals {
			return Mesh{}, fmt.Errorf("normals %s: %w", in.Source, ErrSourceMissing)
		}
		normalOffset = in.Offset
	}

	stride := mesh.Triangles.Stride()
	count := len(mesh.Triangles.Index) / stride
	out := Mesh{
		Vertices: make([]Vertex, 0, count),
		Indices:  make([]uint32, 0, count),
	}
	for idx := 0; idx < count; idx++ {
		refs := mesh.Triangles.Index[stride*idx : stride*idx+stride]

		pos, ok := positions.Vec3(refs[vertex.Offset])
		if !ok {
			return Mesh{}, fmt.Errorf("position %d: %w", refs[vertex.Offset], ErrIndexRange)
		}
		v := Vertex{Pos: glm.Vec3(pos), Normal: facing}
		if hasNormals {
			n, ok := normals.Vec3(refs[normalOffset])
			if !ok {
				return Mesh{}, fmt.Errorf("normal %d: %w", refs[normalOffset], ErrIndexRange)
			}
			v.Normal = glm.Vec3(n)
		}
		out.Vertices = append(out.Vertices, v)
		out.Indices = append(out.Indices, uint32(idx))
	}
	return out, nil
}
