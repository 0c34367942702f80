// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package collada_test

import (
	"encoding/xml"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkframe/util/collada"
)

const triangleDocument = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_geometries>
    <geometry id="Tri-mesh" name="Tri">
      <mesh>
        <source id="Tri-mesh-positions">
          <float_array id="Tri-mesh-positions-array" count="9">-0.5 0.5 0
            0 -0.5 0
            0.5 0.5 0</float_array>
        </source>
        <source id="Tri-mesh-normals">
          <float_array id="Tri-mesh-normals-array" count="3">0 0 -1</float_array>
        </source>
        <vertices id="Tri-mesh-vertices">
          <input semantic="POSITION" source="#Tri-mesh-positions"/>
        </vertices>
        <triangles material="Material-material" count="1">
          <input semantic="VERTEX" source="#Tri-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Tri-mesh-normals" offset="1"/>
          <p>0 0 1 0 2 0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestTrianglesDecode(t *testing.T) {
	c := qt.New(t)
	data := `
		<triangles material="Material-material" count="12">
		<input semantic="VERTEX" source="#Cube-mesh-vertices" offset="0"/>
		<input semantic="NORMAL" source="#Cube-mesh-normals" offset="1"/>
		<p>0 0 2 0 3 0 7 1 5 1 4 1 4 2 1 2 0 2 5 3 2 3 1 3 2 4 7 4 3 4 0 5 7 5 4 5 0 6 1 6 2 6 7 7 6 7 5 7 4 8 5 8 1 8 5 9 6 9 2 9 2 10 6 10 7 10 0 11 3 11 7 11</p>
		</triangles>
	`
	var triangles collada.Triangles
	c.Assert(xml.Unmarshal([]byte(data), &triangles), qt.IsNil)
	c.Assert(triangles.Material, qt.Equals, "Material-material")
	c.Assert(triangles.Count, qt.Equals, 12)
	c.Assert(triangles.Inputs, qt.HasLen, 2)
	c.Assert(triangles.Index, qt.HasLen, 12*6)
	c.Assert(triangles.Stride(), qt.Equals, 2)

	normal, ok := triangles.Input("NORMAL")
	c.Assert(ok, qt.IsTrue)
	c.Assert(normal.Offset, qt.Equals, uint(1))
	_, ok = triangles.Input("TEXCOORD")
	c.Assert(ok, qt.IsFalse)
}

func TestInputDecode(t *testing.T) {
	c := qt.New(t)
	data := `
	<object>
		<input semantic="VERTEX" source="#Cube-mesh-vertices" offset="0" />
		<input semantic="NORMAL" source="#Cube-mesh-normals" offset="1" />
		<input semantic="TEXTUR" source="#Cube-mesh-textures" offset="2" />
	</object>
	`

	type Object struct {
		XMLNname xml.Name        `xml:"object"`
		Inputs   []collada.Input `xml:"input"`
	}

	var obj Object
	c.Assert(xml.Unmarshal([]byte(data), &obj), qt.IsNil)
	c.Assert(obj.Inputs, qt.DeepEquals, []collada.Input{
		{Semantic: "VERTEX", Source: "#Cube-mesh-vertices", Offset: 0},
		{Semantic: "NORMAL", Source: "#Cube-mesh-normals", Offset: 1},
		{Semantic: "TEXTUR", Source: "#Cube-mesh-textures", Offset: 2},
	})
}

func TestFloatsDecode(t *testing.T) {
	c := qt.New(t)
	data := `<float_array id="Cube-mesh-normals-array" count="36">0 0 -1 0 0 1 1 0 -2.38419e-7 0 -1 -4.76837e-7 -1 2.38419e-7 -1.49012e-7 2.68221e-7 1 2.38419e-7 0 0 -1 0 0 1 1 -5.96046e-7 3.27825e-7 -4.76837e-7 -1 0 -1 2.38419e-7 -1.19209e-7 2.08616e-7 1 0</float_array>`

	var floats collada.Floats
	c.Assert(xml.Unmarshal([]byte(data), &floats), qt.IsNil)
	c.Assert(floats.Data, qt.HasLen, 36)
	c.Assert(floats.ID, qt.Equals, "Cube-mesh-normals-array")
}

func TestFloatsDecodeInvalid(t *testing.T) {
	c := qt.New(t)
	var floats collada.Floats
	err := xml.Unmarshal([]byte(`<float_array id="x">0 one 2</float_array>`), &floats)
	c.Assert(err, qt.ErrorMatches, `.*invalid syntax`)
}

func TestDocumentPositions(t *testing.T) {
	c := qt.New(t)
	var doc collada.Collada
	c.Assert(xml.Unmarshal([]byte(triangleDocument), &doc), qt.IsNil)
	c.Assert(doc.Geometries, qt.HasLen, 1)

	mesh := doc.Geometries[0].Mesh
	positions, ok := mesh.Positions()
	c.Assert(ok, qt.IsTrue)
	c.Assert(positions.ID, qt.Equals, "Tri-mesh-positions")
	c.Assert(positions.Floats.Data, qt.HasLen, 9)

	v, ok := positions.Vec3(1)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, [3]float32{0, -0.5, 0})
	_, ok = positions.Vec3(3)
	c.Assert(ok, qt.IsFalse)

	normals, ok := mesh.FindSource("#Tri-mesh-normals")
	c.Assert(ok, qt.IsTrue)
	c.Assert(normals.Floats.Data, qt.DeepEquals, []float32{0, 0, -1})
}
