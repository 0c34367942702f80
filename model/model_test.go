// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
)

func TestModelMatrixIdentity(t *testing.T) {
	c := qt.New(t)
	c.Assert(DefaultModelMatrix().Matrix().ApproxEqual(glm.Ident4()), qt.IsTrue)
}

func TestModelMatrixTranslation(t *testing.T) {
	c := qt.New(t)
	m := DefaultModelMatrix()
	m.Translation = glm.Vec3{0.8, 0.8, -2}
	p := m.Matrix().Mul4x1(glm.Vec4{0, 0, 0, 1})
	c.Assert(p.Vec3().ApproxEqual(glm.Vec3{0.8, 0.8, -2}), qt.IsTrue)
}

func TestModelMatrixOrder(t *testing.T) {
	c := qt.New(t)
	m := ModelMatrix{
		Scale:       glm.Vec3{2, 2, 2},
		Rotation:    glm.Vec3{0, glm.DegToRad(90), 0},
		Translation: glm.Vec3{1, 0, 0},
	}
	// Scaled to (2,0,0), rotated around Y to (0,0,-2), then moved.
	p := m.Matrix().Mul4x1(glm.Vec4{1, 0, 0, 1}).Vec3()
	c.Assert(p.ApproxEqualThreshold(glm.Vec3{1, 0, -2}, 1e-5), qt.IsTrue, qt.Commentf("%v", p))
}

func TestModelMatrixMoved(t *testing.T) {
	c := qt.New(t)
	m := DefaultModelMatrix().Moved(glm.Vec3{0, -0.1, 0}, glm.Vec3{0, 0.3, 0}, glm.Vec3{})
	c.Assert(m.Translation, qt.Equals, glm.Vec3{0, -0.1, 0})
	c.Assert(m.Rotation, qt.Equals, glm.Vec3{0, 0.3, 0})
	c.Assert(m.Scale, qt.Equals, glm.Vec3{1, 1, 1})
}

func TestTransformationLayout(t *testing.T) {
	c := qt.New(t)
	c.Assert(unsafe.Sizeof(Transformation{}), qt.Equals, uintptr(64))
	c.Assert(unsafe.Sizeof(Material{}), qt.Equals, uintptr(4))
	c.Assert(unsafe.Sizeof(Vertex{}), qt.Equals, uintptr(24))

	m := DefaultModelMatrix()
	m.Translation = glm.Vec3{1, 2, 3}
	tr := m.Transformation()
	c.Assert(tr.Matrix[12:15], qt.DeepEquals, []float32{1, 2, 3})
}

func TestVertexDescriptions(t *testing.T) {
	c := qt.New(t)
	c.Assert(VertexBindingDescriptions()[0].Stride, qt.Equals, uint32(24))
	attrs := VertexAttributeDescriptions()
	c.Assert(attrs, qt.HasLen, 2)
	c.Assert(attrs[0].Offset, qt.Equals, uint32(0))
	c.Assert(attrs[1].Offset, qt.Equals, uint32(12))
	c.Assert(attrs[1].Location, qt.Equals, uint32(1))
}

func TestShapes(t *testing.T) {
	c := qt.New(t)
	tri := Triangle()
	c.Assert(tri.Vertices, qt.HasLen, 3)
	c.Assert(tri.Indices, qt.DeepEquals, []uint32{0, 1, 2})

	rect := Rectangle()
	c.Assert(rect.Vertices, qt.HasLen, 4)
	c.Assert(rect.Indices, qt.DeepEquals, []uint32{0, 1, 2, 1, 2, 3})

	cube := Cube()
	c.Assert(cube.Vertices, qt.HasLen, 24)
	c.Assert(cube.Indices, qt.HasLen, 36)
	for _, idx := range cube.Indices {
		c.Assert(int(idx) < len(cube.Vertices), qt.IsTrue)
	}
	for _, v := range cube.Vertices {
		for axis := 0; axis < 3; axis++ {
			c.Assert(v.Pos[axis] >= -0.5-1e-5 && v.Pos[axis] <= 0.5+1e-5, qt.IsTrue, qt.Commentf("%v", v.Pos))
		}
		c.Assert(float64(v.Normal.Len()), qt.Not(qt.Equals), 0.0)
	}
}

func TestMerge(t *testing.T) {
	c := qt.New(t)
	m := Merge(Triangle(), Rectangle())
	c.Assert(m.Vertices, qt.HasLen, 7)
	c.Assert(m.Indices, qt.DeepEquals, []uint32{0, 1, 2, 3, 4, 5, 4, 5, 6})
}

func TestGroup(t *testing.T) {
	c := qt.New(t)
	g := NewGroup()
	c.Assert(g.Add(Triangle()), qt.Equals, 0)
	c.Assert(g.Add(Rectangle()), qt.Equals, 1)
	c.Assert(g.Add(Rectangle()), qt.Equals, 2)
	c.Assert(g.Len(), qt.Equals, 3)

	c.Assert(g.Vertices(), qt.HasLen, 11)
	c.Assert(g.Indices(), qt.HasLen, 15)
	c.Assert(g.Draws(), qt.DeepEquals, []Draw{
		{IndexCount: 3, FirstIndex: 0, VertexOffset: 0},
		{IndexCount: 6, FirstIndex: 3, VertexOffset: 3},
		{IndexCount: 6, FirstIndex: 9, VertexOffset: 7},
	})

	c.Assert(g.Materials(), qt.DeepEquals, []Material{{1}, {1}, {1}})
	c.Assert(g.SetMaterial(1, Material{ID: 2}), qt.IsNil)
	c.Assert(g.Materials()[1], qt.Equals, Material{ID: 2})
	c.Assert(g.SetMaterial(3, Material{ID: 2}), qt.ErrorIs, ErrNoModel)
}

func TestGroupDirty(t *testing.T) {
	c := qt.New(t)
	g := NewGroup()
	g.Add(Triangle())
	c.Assert(g.TakeDirty(), qt.IsTrue)
	c.Assert(g.TakeDirty(), qt.IsFalse)

	m, err := g.ModelMatrix(0)
	c.Assert(err, qt.IsNil)
	m.Translation = glm.Vec3{0, 0, -2.5}
	c.Assert(g.SetModelMatrix(0, m), qt.IsNil)
	c.Assert(g.TakeDirty(), qt.IsTrue)
	c.Assert(g.Transforms()[0], qt.Equals, m.Transformation())

	_, err = g.ModelMatrix(-1)
	c.Assert(err, qt.ErrorIs, ErrNoModel)
	c.Assert(g.SetModelMatrix(1, m), qt.ErrorIs, ErrNoModel)
	c.Assert(g.TakeDirty(), qt.IsFalse)
}

const triangleDocument = `<COLLADA>
  <library_geometries>
    <geometry id="Tri-mesh" name="Tri">
      <mesh>
        <source id="Tri-mesh-positions">
          <float_array id="Tri-mesh-positions-array" count="9">-0.5 0.5 0 0 -0.5 0 0.5 0.5 0</float_array>
        </source>
        <source id="Tri-mesh-normals">
          <float_array id="Tri-mesh-normals-array" count="3">0 0 1</float_array>
        </source>
        <vertices id="Tri-mesh-vertices">
          <input semantic="POSITION" source="#Tri-mesh-positions"/>
        </vertices>
        <triangles count="1">
          <input semantic="VERTEX" source="#Tri-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Tri-mesh-normals" offset="1"/>
          <p>0 0 1 0 2 0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestImportCollada(t *testing.T) {
	c := qt.New(t)
	mesh, err := ImportCollada([]byte(triangleDocument))
	c.Assert(err, qt.IsNil)
	c.Assert(mesh.Indices, qt.DeepEquals, []uint32{0, 1, 2})
	c.Assert(mesh.Vertices, qt.DeepEquals, []Vertex{
		{Pos: glm.Vec3{-0.5, 0.5, 0}, Normal: glm.Vec3{0, 0, 1}},
		{Pos: glm.Vec3{0, -0.5, 0}, Normal: glm.Vec3{0, 0, 1}},
		{Pos: glm.Vec3{0.5, 0.5, 0}, Normal: glm.Vec3{0, 0, 1}},
	})
}

func TestImportColladaErrors(t *testing.T) {
	c := qt.New(t)
	_, err := ImportCollada([]byte(`<COLLADA></COLLADA>`))
	c.Assert(err, qt.Equals, ErrNoGeometry)

	_, err = ImportCollada([]byte(`<COLLADA><library_geometries><geometry><mesh></mesh></geometry></library_geometries></COLLADA>`))
	c.Assert(err, qt.ErrorIs, ErrSourceMissing)

	_, err = ImportCollada([]byte(`not xml`))
	c.Assert(err, qt.Not(qt.IsNil))
}
