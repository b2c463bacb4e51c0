package export

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/pkg/usd"
)

func quad(name string, xf scene.Transform, material string) *scene.MemoryMesh {
	return &scene.MemoryMesh{
		MeshName:  name,
		Transform: xf,
		Points: []scene.Point{
			{ID: 100, Position: dvec3.T{0, 0, 0}},
			{ID: 101, Position: dvec3.T{1, 0, 0}},
			{ID: 102, Position: dvec3.T{1, 0, 1}},
			{ID: 103, Position: dvec3.T{0, 0, 1}},
		},
		Faces: []*scene.MemoryFace{{
			Corners:  []scene.PointID{100, 101, 102, 103},
			Material: material,
		}},
	}
}

func validateScene(t *testing.T, sc scene.Scene, opts Options) (*Report, *usd.Stage) {
	t.Helper()
	opts.ValidateOnly = true
	e := New(opts)
	rep, err := e.Export(sc, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	return rep, e.Stage()
}

func get[T any](t *testing.T, s *usd.Stage, path usd.Path, attr string) T {
	t.Helper()
	p := s.GetPrim(path)
	if p == nil {
		t.Fatalf("missing prim %s", path)
	}
	a := p.Attribute(attr)
	if a == nil {
		t.Fatalf("missing attribute %s.%s", path, attr)
	}
	v, _ := a.Get()
	out, ok := v.(T)
	if !ok {
		t.Fatalf("%s.%s has type %T", path, attr, v)
	}
	return out
}

func TestExport_SingleQuad(t *testing.T) {
	out := filepath.Join(t.TempDir(), "box.usda")
	sc := &scene.MemoryScene{Meshes: []*scene.MemoryMesh{quad("Box (A)", scene.Identity(), "")}}

	rep, err := New(Options{}).Export(sc, out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !rep.OK() {
		t.Errorf("unexpected issues: %v", rep.Issues)
	}
	if len(rep.Meshes) != 1 || rep.Meshes[0].Path != "/root/Box_A" {
		t.Fatalf("unexpected meshes %+v", rep.Meshes)
	}
	if len(rep.Materials) != 0 {
		t.Errorf("expected no materials, got %v", rep.Materials)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := `#usda 1.0
(
    defaultPrim = "root"
    upAxis = "Y"
    metersPerUnit = 1
)

def Xform "root"
{
    def Mesh "Box_A"
    {
        point3f[] points = [(0, 0, 0), (1, 0, 0), (1, 0, 1), (0, 0, 1)]
        int[] faceVertexCounts = [4]
        int[] faceVertexIndices = [0, 1, 2, 3]
        normal3f[] normals = [(0, 1, 0), (0, 1, 0), (0, 1, 0), (0, 1, 0)] (
            interpolation = "faceVarying"
        )
        uniform token subdivisionScheme = "none"
    }

    def Scope "looks"
    {
    }
}
`
	if string(data) != want {
		t.Errorf("unexpected layer:\n%s\nwant:\n%s", data, want)
	}
}

func TestExport_SharedMaterial(t *testing.T) {
	sc := &scene.MemoryScene{
		Meshes: []*scene.MemoryMesh{
			quad("A", scene.Identity(), "Red"),
			quad("B", scene.Translation(2, 0, 0), "Red"),
		},
		Materials: map[string][]scene.Layer{
			"Red": {{
				Type:          scene.LayerAdvancedMaterial,
				Enabled:       true,
				DiffuseColor:  [3]float64{1, 0.5, 0},
				DiffuseAmount: 1,
			}},
		},
	}
	rep, s := validateScene(t, sc, Options{})
	if !rep.OK() {
		t.Fatalf("unexpected issues: %v", rep.Issues)
	}
	if !reflect.DeepEqual(rep.Materials, []usd.Path{"/root/looks/Red"}) {
		t.Fatalf("Materials = %v", rep.Materials)
	}

	for _, mesh := range []usd.Path{"/root/A", "/root/B"} {
		subset := mesh + "/Red"
		if got := get[[]int32](t, s, subset, "indices"); !reflect.DeepEqual(got, []int32{0}) {
			t.Errorf("%s indices = %v", subset, got)
		}
		rel := s.GetPrim(subset).Relationship("material:binding")
		if rel == nil || !reflect.DeepEqual(rel.Targets(), []usd.Path{"/root/looks/Red"}) {
			t.Errorf("%s not bound to Red", subset)
		}
		if got := get[string](t, s, mesh, "subsetFamily:materialBind:familyType"); got != "nonOverlapping" {
			t.Errorf("%s family type = %q", mesh, got)
		}
	}

	color := get[vec3.T](t, s, "/root/looks/Red", "inputs:displayColor")
	want := vec3.T{1, float32(math.Pow(0.5, 2.2)), 0}
	if color != want {
		t.Errorf("displayColor = %v, want %v", color, want)
	}
	if id := get[string](t, s, "/root/looks/Red/Red_lambert", "info:id"); id != DiffuseShaderID {
		t.Errorf("info:id = %q", id)
	}
	diffuse := s.GetPrim("/root/looks/Red/Red_lambert").Attribute("inputs:diffuseColor")
	if !reflect.DeepEqual(diffuse.Connections(), []usd.Path{"/root/looks/Red.inputs:displayColor"}) {
		t.Errorf("diffuseColor connections = %v", diffuse.Connections())
	}
	surface := s.GetPrim("/root/looks/Red").Attribute("outputs:ri:surface")
	if !reflect.DeepEqual(surface.Connections(), []usd.Path{"/root/looks/Red/Red_lambert.outputs:out"}) {
		t.Errorf("ri:surface connections = %v", surface.Connections())
	}
}

func TestExport_MaterialWithoutShading(t *testing.T) {
	sc := &scene.MemoryScene{
		Meshes: []*scene.MemoryMesh{quad("A", scene.Identity(), "Plain")},
		Materials: map[string][]scene.Layer{
			"Plain": {{Type: scene.LayerAdvancedMaterial, Enabled: false}},
		},
	}
	rep, s := validateScene(t, sc, Options{})
	if !rep.OK() {
		t.Fatalf("unexpected issues: %v", rep.Issues)
	}
	mat := s.GetPrim("/root/looks/Plain")
	if mat == nil {
		t.Fatal("material should still be written")
	}
	if mat.Attribute("inputs:displayColor") != nil || len(mat.Children()) != 0 {
		t.Error("disabled layer should not produce a shading network")
	}
	if s.GetPrim("/root/A/Plain") == nil {
		t.Error("face subset should still be bound")
	}
}

func TestExport_Winding(t *testing.T) {
	tests := []struct {
		name        string
		xf          scene.Transform
		units       Units
		normals     []*dvec3.T
		want        []int32
		wantNormals []vec3.T
	}{
		{name: "identity", xf: scene.Identity(), want: []int32{0, 1, 2, 3}},
		{name: "rotated", xf: scene.AxisAngle(dvec3.T{0, 1, 0}, 1.2), want: []int32{0, 1, 2, 3}},
		{name: "mirrored", xf: scene.Scaling(-1, 1, 1), want: []int32{3, 2, 1, 0}},
		{name: "flattened", xf: scene.Scaling(1, 0, 1), want: []int32{3, 2, 1, 0}},
		{
			// Normals follow the reversed corners through the linear part
			// only; unit scale and renormalization are not applied.
			name:        "mirrored normals",
			xf:          scene.Scaling(-1, 2, 1),
			units:       UnitsCentimeters,
			normals:     []*dvec3.T{{1, 0, 0}, {0, 1, 0}, nil, {0, 0, 1}},
			want:        []int32{3, 2, 1, 0},
			wantNormals: []vec3.T{{0, 0, 1}, {0, 2, 0}, {0, 2, 0}, {-1, 0, 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quad("Q", tt.xf, "")
			m.Faces[0].Normals = tt.normals
			sc := &scene.MemoryScene{Meshes: []*scene.MemoryMesh{m}}
			rep, s := validateScene(t, sc, Options{Units: int(tt.units)})
			if got := get[[]int32](t, s, "/root/Q", "faceVertexIndices"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("indices = %v, want %v", got, tt.want)
			}
			if tt.wantNormals != nil {
				if got := get[[]vec3.T](t, s, "/root/Q", "normals"); !reflect.DeepEqual(got, tt.wantNormals) {
					t.Errorf("normals = %v, want %v", got, tt.wantNormals)
				}
			}
			if rep.Meshes[0].Mirrored != (tt.xf.Determinant() <= 0) {
				t.Errorf("Mirrored = %v", rep.Meshes[0].Mirrored)
			}
		})
	}
}

func TestExport_UnitScaleAndTransform(t *testing.T) {
	m := quad("Q", scene.Translation(1, 2, 3), "")
	m.Faces[0].Normals = []*dvec3.T{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}}
	sc := &scene.MemoryScene{Meshes: []*scene.MemoryMesh{m}}

	rep, s := validateScene(t, sc, Options{Units: int(UnitsCentimeters)})
	if rep.UnitScale != 100 {
		t.Errorf("UnitScale = %v", rep.UnitScale)
	}
	points := get[[]vec3.T](t, s, "/root/Q", "points")
	if points[2] != (vec3.T{200, 200, 400}) {
		t.Errorf("points[2] = %v, want (200,200,400)", points[2])
	}
	normals := get[[]vec3.T](t, s, "/root/Q", "normals")
	if normals[0] != (vec3.T{1, 0, 0}) {
		t.Errorf("normals must not be translated or scaled, got %v", normals[0])
	}
	if mpu, _ := s.Metadata("metersPerUnit"); mpu != 0.01 {
		t.Errorf("metersPerUnit = %v", mpu)
	}
}

func TestExport_SkipsForeignPoints(t *testing.T) {
	m := &scene.MemoryMesh{
		MeshName:  "Tri",
		Transform: scene.Identity(),
		Points: []scene.Point{
			{ID: 1, Position: dvec3.T{0, 0, 0}},
			{ID: 99, Item: scene.ItemOther, Position: dvec3.T{5, 5, 5}},
			{ID: 2, Position: dvec3.T{1, 0, 0}},
			{ID: 3, Position: dvec3.T{0, 1, 0}},
		},
		Faces: []*scene.MemoryFace{{Corners: []scene.PointID{3, 2, 1}}},
	}
	rep, s := validateScene(t, &scene.MemoryScene{Meshes: []*scene.MemoryMesh{m}}, Options{})
	if !rep.OK() {
		t.Fatalf("unexpected issues: %v", rep.Issues)
	}
	if got := get[[]vec3.T](t, s, "/root/Tri", "points"); len(got) != 3 {
		t.Errorf("expected 3 points, got %v", got)
	}
	if got := get[[]int32](t, s, "/root/Tri", "faceVertexIndices"); !reflect.DeepEqual(got, []int32{2, 1, 0}) {
		t.Errorf("indices = %v", got)
	}
}

func TestExport_PointDiagnostics(t *testing.T) {
	m := quad("Q", scene.Identity(), "")
	m.Points = append(m.Points, scene.Point{ID: 100, Position: dvec3.T{9, 9, 9}})
	m.Faces = append(m.Faces, &scene.MemoryFace{Corners: []scene.PointID{100, 101, 555}})

	rep, s := validateScene(t, &scene.MemoryScene{Meshes: []*scene.MemoryMesh{m}}, Options{})
	if len(rep.Issues) != 2 {
		t.Fatalf("expected duplicate and unmapped issues, got %v", rep.Issues)
	}
	if got := get[[]vec3.T](t, s, "/root/Q", "points"); len(got) != 4 {
		t.Errorf("duplicate id should not add a point, got %d", len(got))
	}
	idx := get[[]int32](t, s, "/root/Q", "faceVertexIndices")
	if len(idx) != 7 || idx[6] != 0 {
		t.Errorf("unmapped corner should map to 0, got %v", idx)
	}
}

func TestExport_UVSelection(t *testing.T) {
	uv := func(u, v float32) *vec2.T { return &vec2.T{u, v} }
	newMesh := func() *scene.MemoryMesh {
		m := quad("Q", scene.Identity(), "")
		m.UVMaps = []string{"first", "second"}
		m.Faces[0].UVs = map[string][]*vec2.T{
			"first":  {uv(0, 0), uv(1, 0), uv(1, 1), uv(0, 1)},
			"second": {uv(0.5, 0.5), nil, uv(0.5, 0.5), uv(0.5, 0.5)},
		}
		return m
	}

	tests := []struct {
		name  string
		uvMap string
		want  []vec2.T
	}{
		{"configured", "second", []vec2.T{{0.5, 0.5}, {0, 0}, {0.5, 0.5}, {0.5, 0.5}}},
		{"fallback to first", "missing", []vec2.T{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &scene.MemoryScene{Meshes: []*scene.MemoryMesh{newMesh()}}
			rep, s := validateScene(t, sc, Options{UVMap: tt.uvMap})
			if !rep.OK() {
				t.Fatalf("unexpected issues: %v", rep.Issues)
			}
			if got := get[[]vec2.T](t, s, "/root/Q", "primvars:st"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("st = %v, want %v", got, tt.want)
			}
			if !rep.Meshes[0].HasUVs {
				t.Error("HasUVs should be set")
			}
		})
	}

	sc := &scene.MemoryScene{Meshes: []*scene.MemoryMesh{quad("NoUV", scene.Identity(), "")}}
	_, s := validateScene(t, sc, Options{UVMap: "first"})
	if s.GetPrim("/root/NoUV").Attribute("primvars:st") != nil {
		t.Error("mesh without UV maps should not get primvars:st")
	}
}

func TestExport_NameCollisionsAndInvalidNames(t *testing.T) {
	sc := &scene.MemoryScene{
		Meshes: []*scene.MemoryMesh{
			quad("Box", scene.Identity(), "Red Paint"),
			quad("Box", scene.Identity(), "Red:Paint"),
			quad("looks", scene.Identity(), ""),
			quad("(1)", scene.Identity(), ""),
			quad("", scene.Identity(), ""),
			quad("1@tower", scene.Identity(), "brick-wall"),
			quad("prt-in", scene.Identity(), "1floor"),
		},
	}
	rep, s := validateScene(t, sc, Options{})

	var paths []usd.Path
	for _, m := range rep.Meshes {
		paths = append(paths, m.Path)
	}
	wantMeshes := []usd.Path{
		"/root/Box", "/root/Box_1", "/root/looks_1",
		"/root/_1", "/root/_", "/root/_1_tower", "/root/prt_in",
	}
	if !reflect.DeepEqual(paths, wantMeshes) {
		t.Errorf("mesh paths = %v, want %v", paths, wantMeshes)
	}
	wantMats := []usd.Path{
		"/root/looks/_1floor", "/root/looks/Red_Paint",
		"/root/looks/Red_Paint_1", "/root/looks/brick_wall",
	}
	if !reflect.DeepEqual(rep.Materials, wantMats) {
		t.Errorf("material paths = %v, want %v", rep.Materials, wantMats)
	}
	// (1), "", 1@tower, prt-in, brick-wall and 1floor are repaired.
	if len(rep.Issues) != 6 {
		t.Errorf("expected 6 invalid-name issues, got %v", rep.Issues)
	}
	for _, bound := range []usd.Path{
		"/root/Box_1/Red_Paint_1",
		"/root/_1_tower/brick_wall",
		"/root/prt_in/_1floor",
	} {
		if s.GetPrim(bound) == nil {
			t.Errorf("missing face subset %s", bound)
		}
	}
}

func TestRepairName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Box", "Box"},
		{"1", "_1"},
		{"1@tower", "_1_tower"},
		{"prt-in", "prt_in"},
		{"brick-wall", "brick_wall"},
		{"ñandú.2", "ñandú_2"},
		{"", "_"},
	}
	for _, tt := range tests {
		got := repairName(tt.in)
		if got != tt.want {
			t.Errorf("repairName(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !usd.ValidPrimName(got) {
			t.Errorf("repairName(%q) = %q is not a valid prim name", tt.in, got)
		}
	}
}

func TestExport_FacesWithoutMaterial(t *testing.T) {
	m := quad("Q", scene.Identity(), "")
	m.Faces = append(m.Faces,
		&scene.MemoryFace{Corners: []scene.PointID{100, 101, 102}, Material: "Red"},
		&scene.MemoryFace{Corners: []scene.PointID{100, 102, 103}},
		&scene.MemoryFace{Corners: []scene.PointID{101, 102, 103}, Material: "Red"},
	)
	rep, s := validateScene(t, &scene.MemoryScene{Meshes: []*scene.MemoryMesh{m}}, Options{})
	if !rep.OK() {
		t.Fatalf("unexpected issues: %v", rep.Issues)
	}
	if got := get[[]int32](t, s, "/root/Q", "faceVertexCounts"); !reflect.DeepEqual(got, []int32{4, 3, 3, 3}) {
		t.Errorf("counts = %v", got)
	}
	if got := get[[]int32](t, s, "/root/Q/Red", "indices"); !reflect.DeepEqual(got, []int32{1, 3}) {
		t.Errorf("Red faces = %v", got)
	}
	if n := len(get[[]vec3.T](t, s, "/root/Q", "normals")); n != 13 {
		t.Errorf("normals = %d, want 13", n)
	}
}

func TestExport_SetupFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "out.usda")
	_, err := New(Options{}).Export(&scene.MemoryScene{}, out)
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("nothing should be written on setup failure")
	}

	if _, err := New(Options{}).Export(&scene.MemoryScene{}, ""); !errors.Is(err, ErrNoOutput) {
		t.Errorf("expected ErrNoOutput, got %v", err)
	}
}

func TestExport_ValidateOnlyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "v.usda")
	e := New(Options{ValidateOnly: true})
	rep, err := e.Export(&scene.MemoryScene{Meshes: []*scene.MemoryMesh{quad("Q", scene.Identity(), "")}}, out)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Path != "" || !rep.ValidateOnly {
		t.Errorf("unexpected report %+v", rep)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("validate-only export must not create a file")
	}
	if !e.Stage().Closed() {
		t.Error("stage should be closed after export")
	}
}

func TestExport_CloseIsIdempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "q.usda")
	e := New(Options{})
	if _, err := e.Export(&scene.MemoryScene{Meshes: []*scene.MemoryMesh{quad("Q", scene.Identity(), "")}}, out); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(out)
	if err := e.Stage().Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	second, _ := os.ReadFile(out)
	if string(first) != string(second) || !strings.Contains(string(first), `def Mesh "Q"`) {
		t.Error("second close changed the file")
	}
}

func TestCheckMesh(t *testing.T) {
	s := usd.New()
	mesh, err := usd.DefineMesh(s, "/root/Bad")
	if err != nil {
		t.Fatal(err)
	}
	mesh.SetPoints([]vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	mesh.SetFaceVertexCounts([]int32{3, 3})
	mesh.SetFaceVertexIndices([]int32{0, 1, 2, 0, 1, 7})
	mesh.SetNormals([]vec3.T{{0, 1, 0}}, usd.InterpolationFaceVarying)
	mesh.SetTexCoords(UVPrimvar, []vec2.T{{0, 0}}, usd.InterpolationFaceVarying)
	usd.DefineGeomSubset(mesh.Prim, "A", usd.FamilyMaterialBind, []int32{0, 5})
	usd.DefineGeomSubset(mesh.Prim, "B", usd.FamilyMaterialBind, []int32{0})

	problems := CheckMesh(mesh.Prim)
	if len(problems) != 5 {
		t.Errorf("expected 5 problems, got %d: %v", len(problems), problems)
	}
}
