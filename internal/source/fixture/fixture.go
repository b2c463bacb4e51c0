// Package fixture loads hand-written YAML scenes into in-memory export
// scenes.
//
// A fixture lists meshes and materials:
//
//	meshes:
//	  - name: Box
//	    transform: {translate: [0, 1, 0], scale: [2, 2, 2]}
//	    uv_maps: [uv1]
//	    points:
//	      - {id: 1, position: [0, 0, 0]}
//	      - {id: 9, position: [5, 5, 5], item: other}
//	    faces:
//	      - corners: [1, 2, 3, 4]
//	        normals: [[0, 1, 0], ~, [0, 1, 0], [0, 1, 0]]
//	        uvs: {uv1: [[0, 0], [1, 0], [1, 1], [0, 1]]}
//	        material: Red
//	materials:
//	  Red:
//	    - {type: advanced_material, diffuse_color: [1, 0, 0], diffuse_amount: 1}
//	    - {type: image_map, effect: diffColor, image: red.png}
//
// Null normals and UVs are unresolved. Layers are enabled unless they say
// otherwise.
package fixture

import (
	"errors"
	"fmt"
	"math"
	"os"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-usd/internal/scene"
)

// ErrInvalidFixture is returned for fixtures that decode but do not
// describe a usable scene.
var ErrInvalidFixture = errors.New("invalid fixture")

// File is the YAML document layout.
type File struct {
	Meshes    []Mesh             `yaml:"meshes"`
	Materials map[string][]Layer `yaml:"materials"`
}

// Mesh is one mesh entry.
type Mesh struct {
	Name          string    `yaml:"name"`
	Transform     Transform `yaml:"transform"`
	UVMaps        []string  `yaml:"uv_maps"`
	SelectedUVMap string    `yaml:"selected_uv_map"`
	Points        []Point   `yaml:"points"`
	Faces         []Face    `yaml:"faces"`
}

// Transform composes translate * rotate * scale, or uses an explicit
// column-major matrix when one is given.
type Transform struct {
	Translate []float64 `yaml:"translate"`
	Rotate    *Rotation `yaml:"rotate"`
	Scale     []float64 `yaml:"scale"`
	Columns   []float64 `yaml:"columns"`
	Offset    []float64 `yaml:"offset"`
}

// Rotation is an axis-angle rotation in degrees.
type Rotation struct {
	Axis    []float64 `yaml:"axis"`
	Degrees float64   `yaml:"degrees"`
}

// Point is one point entry. Item is "mesh" (default) or "other".
type Point struct {
	ID       uint64    `yaml:"id"`
	Position []float64 `yaml:"position"`
	Item     string    `yaml:"item"`
}

// Face is one polygon entry.
type Face struct {
	Corners  []uint64               `yaml:"corners"`
	Normals  [][]float64            `yaml:"normals"`
	UVs      map[string][][]float64 `yaml:"uvs"`
	Material string                 `yaml:"material"`
}

// Layer is one material layer entry.
type Layer struct {
	Name          string    `yaml:"name"`
	Type          string    `yaml:"type"`
	Enabled       *bool     `yaml:"enabled"`
	Effect        string    `yaml:"effect"`
	DiffuseColor  []float64 `yaml:"diffuse_color"`
	DiffuseAmount *float64  `yaml:"diffuse_amount"`
	Image         string    `yaml:"image"`
}

// LoadFile reads and converts a fixture file.
func LoadFile(path string) (*scene.MemoryScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Load(data)
}

// Load decodes and converts a fixture.
func Load(data []byte) (*scene.MemoryScene, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return f.Scene()
}

// Scene converts the decoded document.
func (f *File) Scene() (*scene.MemoryScene, error) {
	sc := &scene.MemoryScene{Materials: make(map[string][]scene.Layer, len(f.Materials))}
	for i := range f.Meshes {
		m, err := f.Meshes[i].convert()
		if err != nil {
			return nil, fmt.Errorf("mesh %d (%s): %w", i, f.Meshes[i].Name, err)
		}
		sc.Meshes = append(sc.Meshes, m)
	}
	for name, layers := range f.Materials {
		stack := make([]scene.Layer, 0, len(layers))
		for i, l := range layers {
			layer, err := l.convert()
			if err != nil {
				return nil, fmt.Errorf("material %s layer %d: %w", name, i, err)
			}
			stack = append(stack, layer)
		}
		sc.Materials[name] = stack
	}
	return sc, nil
}

func (m *Mesh) convert() (*scene.MemoryMesh, error) {
	xf, err := m.Transform.convert()
	if err != nil {
		return nil, err
	}
	out := &scene.MemoryMesh{
		MeshName:      m.Name,
		Transform:     xf,
		UVMaps:        m.UVMaps,
		SelectedUVMap: m.SelectedUVMap,
	}
	for _, p := range m.Points {
		pos, err := vector3(p.Position, "point position")
		if err != nil {
			return nil, err
		}
		item := scene.ItemMesh
		switch p.Item {
		case "", "mesh":
		case "other":
			item = scene.ItemOther
		default:
			return nil, fmt.Errorf("%w: unknown item %q", ErrInvalidFixture, p.Item)
		}
		out.Points = append(out.Points, scene.Point{ID: scene.PointID(p.ID), Item: item, Position: pos})
	}
	for _, f := range m.Faces {
		face, err := f.convert()
		if err != nil {
			return nil, err
		}
		out.Faces = append(out.Faces, face)
	}
	return out, nil
}

func (t *Transform) convert() (scene.Transform, error) {
	if len(t.Columns) > 0 {
		if len(t.Columns) != 9 {
			return scene.Transform{}, fmt.Errorf("%w: columns needs 9 values, got %d", ErrInvalidFixture, len(t.Columns))
		}
		var cols [9]float32
		for i, v := range t.Columns {
			cols[i] = float32(v)
		}
		xf := scene.FromColumns(cols)
		if len(t.Offset) > 0 {
			off, err := vector3(t.Offset, "offset")
			if err != nil {
				return scene.Transform{}, err
			}
			xf.Offset = off
		}
		return xf, nil
	}

	xf := scene.Identity()
	if len(t.Translate) > 0 {
		v, err := vector3(t.Translate, "translate")
		if err != nil {
			return scene.Transform{}, err
		}
		xf = scene.Translation(v[0], v[1], v[2])
	}
	if t.Rotate != nil {
		axis, err := vector3(t.Rotate.Axis, "rotation axis")
		if err != nil {
			return scene.Transform{}, err
		}
		xf = xf.Mul(scene.AxisAngle(axis, t.Rotate.Degrees*math.Pi/180))
	}
	if len(t.Scale) > 0 {
		v, err := vector3(t.Scale, "scale")
		if err != nil {
			return scene.Transform{}, err
		}
		xf = xf.Mul(scene.Scaling(v[0], v[1], v[2]))
	}
	return xf, nil
}

func (f *Face) convert() (*scene.MemoryFace, error) {
	out := &scene.MemoryFace{
		Corners:  make([]scene.PointID, len(f.Corners)),
		Material: f.Material,
	}
	for i, c := range f.Corners {
		out.Corners[i] = scene.PointID(c)
	}
	for _, n := range f.Normals {
		if n == nil {
			out.Normals = append(out.Normals, nil)
			continue
		}
		v, err := vector3(n, "normal")
		if err != nil {
			return nil, err
		}
		out.Normals = append(out.Normals, &v)
	}
	if len(f.UVs) > 0 {
		out.UVs = make(map[string][]*vec2.T, len(f.UVs))
	}
	for name, uvs := range f.UVs {
		list := make([]*vec2.T, len(uvs))
		for i, uv := range uvs {
			if uv == nil {
				continue
			}
			if len(uv) != 2 {
				return nil, fmt.Errorf("%w: uv needs 2 values, got %d", ErrInvalidFixture, len(uv))
			}
			list[i] = &vec2.T{float32(uv[0]), float32(uv[1])}
		}
		out.UVs[name] = list
	}
	return out, nil
}

func (l *Layer) convert() (scene.Layer, error) {
	out := scene.Layer{
		Name:    l.Name,
		Enabled: l.Enabled == nil || *l.Enabled,
		Effect:  l.Effect,
		Image:   l.Image,
	}
	switch l.Type {
	case "advanced_material":
		out.Type = scene.LayerAdvancedMaterial
	case "image_map":
		out.Type = scene.LayerImageMap
	case "", "other":
		out.Type = scene.LayerOther
	default:
		return scene.Layer{}, fmt.Errorf("%w: unknown layer type %q", ErrInvalidFixture, l.Type)
	}
	if len(l.DiffuseColor) > 0 {
		c, err := vector3(l.DiffuseColor, "diffuse color")
		if err != nil {
			return scene.Layer{}, err
		}
		out.DiffuseColor = [3]float64(c)
	}
	out.DiffuseAmount = 1
	if l.DiffuseAmount != nil {
		out.DiffuseAmount = *l.DiffuseAmount
	}
	return out, nil
}

func vector3(v []float64, what string) (dvec3.T, error) {
	if len(v) != 3 {
		return dvec3.T{}, fmt.Errorf("%w: %s needs 3 values, got %d", ErrInvalidFixture, what, len(v))
	}
	return dvec3.T{v[0], v[1], v[2]}, nil
}
