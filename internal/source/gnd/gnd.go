// Package gnd turns GND ground meshes into in-memory export scenes.
package gnd

import (
	"fmt"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/internal/source/material"
	"github.com/Faultbox/midgard-usd/pkg/formats"
)

// UVMap is the name of the ground mesh's UV map.
const UVMap = "Texture"

// Tile corners in point order. Surface UVs are stored bottom-left,
// bottom-right, top-left, top-right; cornerUV maps each corner to its
// surface UV slot.
var cornerUV = [4]int{2, 3, 0, 1}

// Load parses a GND file and converts it.
func Load(name string, data []byte, textures material.Reader, log *zap.Logger) (*scene.MemoryScene, error) {
	ground, err := formats.ParseGND(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return Convert(name, ground, textures, log), nil
}

// Convert builds a single-mesh scene with one quad per tile top surface.
// Each quad owns four points so tiles keep their own UVs. Altitudes are
// negated so up is positive Y.
func Convert(name string, ground *formats.GND, textures material.Reader, log *zap.Logger) *scene.MemoryScene {
	if log == nil {
		log = zap.NewNop()
	}
	mats := material.NewBuilder(textures, log)
	tags := make([]string, len(ground.Textures))
	for i, tex := range ground.Textures {
		tags[i] = mats.Add(tex)
	}

	m := &scene.MemoryMesh{
		MeshName:      name,
		Transform:     scene.Identity(),
		UVMaps:        []string{UVMap},
		SelectedUVMap: UVMap,
	}
	zoom := float64(ground.Zoom)
	var skipped int
	for y := 0; y < int(ground.Height); y++ {
		for x := 0; x < int(ground.Width); x++ {
			tile := ground.Tile(x, y)
			surface := ground.TopSurface(tile)
			if surface == nil {
				skipped++
				continue
			}
			baseX, baseZ := float64(x)*zoom, float64(y)*zoom
			alt := tile.Altitude
			corners := [4]dvec3.T{
				{baseX, -float64(alt[0]), baseZ + zoom},
				{baseX + zoom, -float64(alt[1]), baseZ + zoom},
				{baseX, -float64(alt[2]), baseZ},
				{baseX + zoom, -float64(alt[3]), baseZ},
			}
			m.Faces = append(m.Faces, addQuad(m, corners, surface, tags))
		}
	}
	log.Debug("gnd converted",
		zap.String("name", name),
		zap.Uint32("width", ground.Width),
		zap.Uint32("height", ground.Height),
		zap.Int("faces", len(m.Faces)),
		zap.Int("empty_tiles", skipped))

	return &scene.MemoryScene{
		Meshes:    []*scene.MemoryMesh{m},
		Materials: mats.Materials(),
	}
}

// addQuad appends the tile's points and returns its face. The polygon runs
// bottom-left, bottom-right, top-right, top-left so it faces up.
func addQuad(m *scene.MemoryMesh, corners [4]dvec3.T, surface *formats.GNDSurface, tags []string) *scene.MemoryFace {
	base := scene.PointID(len(m.Points))
	for i, c := range corners {
		m.Points = append(m.Points, scene.Point{ID: base + scene.PointID(i), Position: c})
	}

	order := [4]int{0, 1, 3, 2}
	face := &scene.MemoryFace{
		Corners: make([]scene.PointID, 4),
		Normals: make([]*dvec3.T, 4),
		UVs:     map[string][]*vec2.T{UVMap: make([]*vec2.T, 4)},
	}
	normal, ok := quadNormal(corners)
	uvs := face.UVs[UVMap]
	for i, c := range order {
		face.Corners[i] = base + scene.PointID(c)
		if ok {
			face.Normals[i] = &normal
		}
		slot := cornerUV[c]
		uvs[i] = &vec2.T{surface.U[slot], surface.V[slot]}
	}
	if id := int(surface.TextureID); id >= 0 && id < len(tags) {
		face.Material = tags[id]
	}
	return face
}

// quadNormal returns the unit normal from the quad's diagonals, which
// stays stable when the tile is not planar.
func quadNormal(c [4]dvec3.T) (dvec3.T, bool) {
	d1 := dvec3.Sub(&c[1], &c[2])
	d2 := dvec3.Sub(&c[3], &c[0])
	n := dvec3.Cross(&d1, &d2)
	if n.Length() < 1e-9 {
		return dvec3.T{}, false
	}
	return n.Normalized(), true
}
