package scene

import (
	"math"
	"testing"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
)

func approxVec(a, b dvec3.T) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestTransform_Determinant(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		want float64
	}{
		{"identity", Identity(), 1},
		{"scale", Scaling(2, 3, 4), 24},
		{"mirror", Scaling(1, -1, 1), -1},
		{"rotation", AxisAngle(dvec3.T{0, 1, 0}, math.Pi/3), 1},
		{"translation only", Translation(5, 6, 7), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Determinant(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Determinant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransform_ApplyAndMul(t *testing.T) {
	rot := AxisAngle(dvec3.T{0, 0, 1}, math.Pi/2)
	got := rot.ApplyLinear(dvec3.T{1, 0, 0})
	if !approxVec(got, dvec3.T{0, 1, 0}) {
		t.Errorf("90deg about Z: got %v, want (0,1,0)", got)
	}

	// Translate after scaling: (1,1,1) -> (2,2,2) -> (12,2,2)
	tr := Translation(10, 0, 0).Mul(Scaling(2, 2, 2))
	if got := tr.Apply(dvec3.T{1, 1, 1}); !approxVec(got, dvec3.T{12, 2, 2}) {
		t.Errorf("Apply() = %v, want (12,2,2)", got)
	}
	if got := tr.ApplyLinear(dvec3.T{1, 1, 1}); !approxVec(got, dvec3.T{2, 2, 2}) {
		t.Errorf("ApplyLinear() = %v, want (2,2,2)", got)
	}
}

func TestQuaternionMatchesAxisAngle(t *testing.T) {
	angle := 0.7
	q := [4]float64{0, math.Sin(angle / 2), 0, math.Cos(angle / 2)}
	a := Quaternion(q)
	b := AxisAngle(dvec3.T{0, 1, 0}, angle)
	v := dvec3.T{1, 2, 3}
	if !approxVec(a.ApplyLinear(v), b.ApplyLinear(v)) {
		t.Errorf("quaternion %v != axis-angle %v", a.ApplyLinear(v), b.ApplyLinear(v))
	}
}

func TestFromColumns(t *testing.T) {
	tr := FromColumns([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if tr.Determinant() != 1 {
		t.Errorf("identity columns: determinant %v", tr.Determinant())
	}
	// Column 0 is the image of +X.
	tr = FromColumns([9]float32{0, 1, 0, -1, 0, 0, 0, 0, 1})
	if got := tr.ApplyLinear(dvec3.T{1, 0, 0}); !approxVec(got, dvec3.T{0, 1, 0}) {
		t.Errorf("got %v, want (0,1,0)", got)
	}
}

func TestMemoryScene_Iteration(t *testing.T) {
	n := dvec3.T{0, 0, 1}
	uv := vec2.T{0.5, 0.25}
	mesh := &MemoryMesh{
		MeshName:  "Tri",
		Transform: Identity(),
		Points: []Point{
			{ID: 10, Position: dvec3.T{0, 0, 0}},
			{ID: 20, Position: dvec3.T{1, 0, 0}},
			{ID: 30, Position: dvec3.T{0, 1, 0}},
		},
		Faces: []*MemoryFace{{
			Corners:  []PointID{10, 20, 30},
			Normals:  []*dvec3.T{&n, nil},
			UVs:      map[string][]*vec2.T{"uv2": {&uv, &uv, &uv}},
			Material: "Red",
		}},
		UVMaps:        []string{"uv1", "uv2"},
		SelectedUVMap: "uv2",
	}
	sc := &MemoryScene{
		Meshes:    []*MemoryMesh{mesh},
		Materials: map[string][]Layer{"Red": {{Type: LayerAdvancedMaterial, Enabled: true}}},
	}

	m, ok := sc.NextMesh()
	if !ok {
		t.Fatal("expected a mesh")
	}
	if _, ok := sc.NextMesh(); ok {
		t.Error("expected end of meshes")
	}

	count := 0
	for _, ok := m.NextPoint(); ok; _, ok = m.NextPoint() {
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 points, got %d", count)
	}

	if !m.SelectUVMap("") {
		t.Fatal("selected map should resolve")
	}
	f, ok := m.NextFace()
	if !ok {
		t.Fatal("expected a face")
	}
	if f.NumCorners() != 3 || f.Corner(1) != 20 || f.MaterialTag() != "Red" {
		t.Errorf("unexpected face data")
	}
	if _, ok := f.Normal(0); !ok {
		t.Error("corner 0 normal should resolve")
	}
	if _, ok := f.Normal(1); ok {
		t.Error("corner 1 normal should not resolve")
	}
	if _, ok := f.Normal(2); ok {
		t.Error("corner 2 normal should not resolve")
	}
	if got, ok := f.UV(2); !ok || got != uv {
		t.Errorf("UV(2) = %v, %v", got, ok)
	}

	if m.SelectUVMap("missing") {
		t.Error("unknown map should not resolve")
	}

	if _, ok := sc.Material("Blue"); ok {
		t.Error("unknown material should not resolve")
	}
	st, ok := sc.Material("Red")
	if !ok {
		t.Fatal("material Red should resolve")
	}
	if l, ok := st.NextLayer(); !ok || l.Type != LayerAdvancedMaterial {
		t.Errorf("unexpected first layer %+v", l)
	}
	if _, ok := st.NextLayer(); ok {
		t.Error("expected end of layers")
	}

	sc.Rewind()
	m, _ = sc.NextMesh()
	if _, ok := m.NextPoint(); !ok {
		t.Error("rewound mesh should yield points again")
	}
}
