package usd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

func TestStage_DefinePrimCreatesAncestors(t *testing.T) {
	s := New()
	p, err := s.DefinePrim("/root/looks/Red", SchemaMaterial)
	if err != nil {
		t.Fatalf("DefinePrim: %v", err)
	}
	if p.TypeName() != SchemaMaterial {
		t.Errorf("expected type Material, got %q", p.TypeName())
	}

	looks := s.GetPrim("/root/looks")
	if looks == nil {
		t.Fatal("ancestor /root/looks was not created")
	}
	if looks.TypeName() != "" || looks.Specifier() != SpecifierDef {
		t.Errorf("ancestor should be a typeless def, got %s %q", looks.Specifier(), looks.TypeName())
	}

	// Redefining with a type fills in the typeless ancestor.
	if _, err := DefineScope(s, "/root/looks"); err != nil {
		t.Fatalf("DefineScope: %v", err)
	}
	if looks.TypeName() != SchemaScope {
		t.Errorf("expected Scope, got %q", looks.TypeName())
	}

	if _, err := s.DefinePrim("/root/looks", SchemaMesh); !errors.Is(err, ErrPrimExists) {
		t.Errorf("expected ErrPrimExists, got %v", err)
	}
}

func TestStage_OverridePrim(t *testing.T) {
	s := New()
	mesh, err := DefineMesh(s, "/root/Box")
	if err != nil {
		t.Fatalf("DefineMesh: %v", err)
	}

	p, err := s.OverridePrim("/root/Box")
	if err != nil {
		t.Fatalf("OverridePrim: %v", err)
	}
	if p != mesh.Prim {
		t.Error("OverridePrim should return the existing prim")
	}
	if p.Specifier() != SpecifierDef {
		t.Error("overriding an existing def must not change its specifier")
	}

	q, err := s.OverridePrim("/other/Thing")
	if err != nil {
		t.Fatalf("OverridePrim: %v", err)
	}
	if q.Specifier() != SpecifierOver {
		t.Errorf("expected over, got %s", q.Specifier())
	}
}

func TestStage_InvalidPaths(t *testing.T) {
	s := New()
	for _, p := range []Path{"", "/", "root", "/root/bad name", "/root.attr"} {
		if _, err := s.DefinePrim(p, SchemaXform); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("DefinePrim(%q): expected ErrInvalidPath, got %v", p, err)
		}
	}
}

func TestAttribute_TypedSet(t *testing.T) {
	s := New()
	mesh, _ := DefineMesh(s, "/root/Box")

	a, err := mesh.CreateAttribute("points", TypePoint3fArray, false)
	if err != nil {
		t.Fatalf("CreateAttribute: %v", err)
	}
	if err := a.Set([]int32{1, 2, 3}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if err := a.Set([]vec3.T{{1, 2, 3}}); err != nil {
		t.Errorf("Set: %v", err)
	}
	if _, ok := a.Get(); !ok {
		t.Error("value should be authored")
	}

	if _, err := mesh.CreateAttribute("points", TypeIntArray, false); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch on redeclaration, got %v", err)
	}
	if err := mesh.SetTexCoords("st", []vec2.T{{0, 1}}, InterpolationFaceVarying); err != nil {
		t.Errorf("SetTexCoords: %v", err)
	}
}

func TestAttribute_ConnectToSource(t *testing.T) {
	s := New()
	mat, _ := DefineMaterial(s, "/root/looks/Red")
	sh, _ := DefineShader(s, "/root/looks/Red/Red_lambert")

	display, _ := mat.CreateInput("displayColor", TypeColor3f)
	diffuse, _ := sh.CreateInput("diffuseColor", TypeColor3f)
	if err := diffuse.ConnectToSource(display); err != nil {
		t.Fatalf("ConnectToSource: %v", err)
	}
	conns := diffuse.Connections()
	if len(conns) != 1 || conns[0] != "/root/looks/Red.inputs:displayColor" {
		t.Errorf("unexpected connections %v", conns)
	}

	out, _ := sh.CreateOutput("out", TypeToken)
	if err := diffuse.ConnectToSource(out); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestStage_CreateNewFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.usda")
	if _, err := CreateNew(path); err == nil {
		t.Error("expected error creating stage in missing directory")
	}
}

func TestStage_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.usda")
	s, err := CreateNew(path)
	if err != nil {
		t.Fatalf("CreateNew: %v", err)
	}
	s.SetMetadata("defaultPrim", "root")
	if _, err := DefineXform(s, "/root"); err != nil {
		t.Fatalf("DefineXform: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("second Close changed the persisted content")
	}
	if !strings.Contains(string(first), `def Xform "root"`) {
		t.Errorf("saved layer missing root prim:\n%s", first)
	}
	if _, err := s.DefinePrim("/root/late", ""); !errors.Is(err, ErrStageClosed) {
		t.Errorf("expected ErrStageClosed after Close, got %v", err)
	}
	if err := s.Save(); !errors.Is(err, ErrStageClosed) {
		t.Errorf("expected ErrStageClosed from Save, got %v", err)
	}
}

func TestStage_SaveReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.usda")
	s, err := CreateNew(path)
	if err != nil {
		t.Fatalf("CreateNew: %v", err)
	}
	defer s.Close()

	DefineXform(s, "/aVeryLongPrimNameThatWillBeRemoved")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2 := New()
	DefineXform(s2, "/x")
	var want bytes.Buffer
	s2.WriteTo(&want)

	s.root.children = nil
	delete(s.prims, "/aVeryLongPrimNameThatWillBeRemoved")
	DefineXform(s, "/x")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != want.String() {
		t.Errorf("stale bytes after re-save:\ngot  %q\nwant %q", got, want.String())
	}
}

func TestStage_Traverse(t *testing.T) {
	s := New()
	DefineXform(s, "/root")
	DefineMesh(s, "/root/A")
	DefineScope(s, "/root/looks")
	DefineMaterial(s, "/root/looks/M")

	var got []string
	s.Traverse(func(p *Prim) { got = append(got, string(p.Path())) })
	want := []string{"/root", "/root/A", "/root/looks", "/root/looks/M"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Traverse order = %v, want %v", got, want)
	}
}
