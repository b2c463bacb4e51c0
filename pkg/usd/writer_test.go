package usd

import (
	"bytes"
	"math"
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

func TestWriteTo_Mesh(t *testing.T) {
	s := New()
	s.SetMetadata("defaultPrim", "root")
	s.SetMetadata("metersPerUnit", 0.01)
	if _, err := DefineXform(s, "/root"); err != nil {
		t.Fatal(err)
	}
	mesh, err := DefineMesh(s, "/root/Box")
	if err != nil {
		t.Fatal(err)
	}
	mesh.SetFaceVertexCounts([]int32{3})
	mesh.SetFaceVertexIndices([]int32{0, 1, 2})
	mesh.SetNormals([]vec3.T{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}}, InterpolationFaceVarying)
	mesh.SetPoints([]vec3.T{{0, 0, 0}, {1.5, 0, 0}, {0, 0, -2}})
	mesh.SetTexCoords("st", []vec2.T{{0, 0}, {1, 0}, {0, 0.25}}, InterpolationFaceVarying)
	mesh.SetSubdivisionScheme("none")

	want := `#usda 1.0
(
    defaultPrim = "root"
    metersPerUnit = 0.01
)

def Xform "root"
{
    def Mesh "Box"
    {
        int[] faceVertexCounts = [3]
        int[] faceVertexIndices = [0, 1, 2]
        normal3f[] normals = [(0, 1, 0), (0, 1, 0), (0, 1, 0)] (
            interpolation = "faceVarying"
        )
        point3f[] points = [(0, 0, 0), (1.5, 0, 0), (0, 0, -2)]
        texCoord2f[] primvars:st = [(0, 0), (1, 0), (0, 0.25)] (
            interpolation = "faceVarying"
        )
        uniform token subdivisionScheme = "none"
    }
}
`
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if buf.String() != want {
		t.Errorf("unexpected layer:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteTo_MaterialNetwork(t *testing.T) {
	s := New()
	DefineXform(s, "/root")
	mesh, _ := DefineMesh(s, "/root/Box")
	DefineScope(s, "/root/looks")
	mat, _ := DefineMaterial(s, "/root/looks/Red")

	sub, err := DefineGeomSubset(mesh.Prim, "Red", FamilyMaterialBind, []int32{0, 2})
	if err != nil {
		t.Fatalf("DefineGeomSubset: %v", err)
	}
	BindMaterial(sub, mat.Path())

	display, _ := mat.CreateInput("displayColor", TypeColor3f)
	display.Set(vec3.T{1, 0, 0})
	sh, _ := DefineShader(s, "/root/looks/Red/Red_lambert")
	sh.SetShaderID("PxrDiffuse")
	diffuse, _ := sh.CreateInput("diffuseColor", TypeColor3f)
	diffuse.ConnectToSource(display)

	want := `#usda 1.0

def Xform "root"
{
    def Mesh "Box"
    {
        def GeomSubset "Red" (
            prepend apiSchemas = ["MaterialBindingAPI"]
        )
        {
            uniform token elementType = "face"
            uniform token familyName = "materialBind"
            int[] indices = [0, 2]
            rel material:binding = </root/looks/Red>
        }
    }

    def Scope "looks"
    {
        def Material "Red"
        {
            color3f inputs:displayColor = (1, 0, 0)

            def Shader "Red_lambert"
            {
                uniform token info:id = "PxrDiffuse"
                color3f inputs:diffuseColor.connect = </root/looks/Red.inputs:displayColor>
            }
        }
    }
}
`
	var buf bytes.Buffer
	s.WriteTo(&buf)
	if buf.String() != want {
		t.Errorf("unexpected layer:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{int32(7), "7"},
		{float32(0.5), "0.5"},
		{float64(39.3701), "39.3701"},
		{"face", `"face"`},
		{AssetPath("PxrDiffuse"), "@PxrDiffuse@"},
		{true, "1"},
		{[]int32{}, "[]"},
		{vec3.T{1, 2, 3}, "(1, 2, 3)"},
		{float32(math.NaN()), "nan"},
		{float32(math.Inf(1)), "inf"},
		{math.Inf(-1), "-inf"},
		{vec3.T{float32(math.Inf(-1)), 0, float32(math.NaN())}, "(-inf, 0, nan)"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.v); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
