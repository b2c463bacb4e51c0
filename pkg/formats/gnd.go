package formats

import (
	"errors"
	"fmt"
	"os"
)

// GND format errors.
var (
	ErrInvalidGNDMagic       = errors.New("invalid GND magic: expected 'GRGN'")
	ErrUnsupportedGNDVersion = errors.New("unsupported GND version")
	ErrTruncatedGNDData      = errors.New("truncated GND data")
	ErrInvalidGNDDimensions  = errors.New("invalid GND dimensions")
)

const (
	maxGNDSide     = 1024
	maxGNDTextures = 4096
	maxGNDSurfaces = maxGNDSide * maxGNDSide * 3
)

// GNDVersion is the GND file version.
type GNDVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GNDVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GNDSurface is a textured tile face.
type GNDSurface struct {
	// Corner UVs in bottom-left, bottom-right, top-left, top-right order.
	U          [4]float32
	V          [4]float32
	TextureID  int16 // -1 means untextured
	LightmapID int16
	Color      [4]uint8 // BGRA
}

// GNDTile is one ground cell.
type GNDTile struct {
	// Corner heights in bottom-left, bottom-right, top-left, top-right
	// order. Positive values point down.
	Altitude     [4]float32
	TopSurface   int32 // -1 = none
	FrontSurface int32
	RightSurface int32
}

// GND is a parsed ground mesh. Lightmap pixels are skipped.
type GND struct {
	Version        GNDVersion
	Width          uint32
	Height         uint32
	Zoom           float32 // tile edge length in world units
	Textures       []string
	LightmapCount  uint32
	LightmapWidth  uint32
	LightmapHeight uint32
	Surfaces       []GNDSurface
	Tiles          []GNDTile
}

// Tile returns the tile at x, y or nil when out of bounds.
func (g *GND) Tile(x, y int) *GNDTile {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Tiles[y*int(g.Width)+x]
}

// TopSurface returns the top surface of a tile, or nil.
func (g *GND) TopSurface(t *GNDTile) *GNDSurface {
	if t.TopSurface < 0 || int(t.TopSurface) >= len(g.Surfaces) {
		return nil
	}
	return &g.Surfaces[t.TopSurface]
}

// AltitudeRange returns the lowest and highest stored altitude.
func (g *GND) AltitudeRange() (lo, hi float32) {
	if len(g.Tiles) == 0 {
		return 0, 0
	}
	lo, hi = g.Tiles[0].Altitude[0], g.Tiles[0].Altitude[0]
	for _, tile := range g.Tiles {
		for _, h := range tile.Altitude {
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	return lo, hi
}

// ParseGND parses a GND 1.5 to 1.9 ground mesh.
func ParseGND(data []byte) (*GND, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedGNDData
	}
	if string(data[:4]) != "GRGN" {
		return nil, ErrInvalidGNDMagic
	}
	g := &GND{Version: GNDVersion{Major: data[4], Minor: data[5]}}
	if g.Version.Major != 1 || g.Version.Minor < 5 || g.Version.Minor > 9 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGNDVersion, g.Version)
	}

	r := newBinReader(data[6:], ErrTruncatedGNDData)
	g.Width = r.u32()
	g.Height = r.u32()
	g.Zoom = r.f32()
	if r.err != nil {
		return nil, r.err
	}
	if g.Width == 0 || g.Height == 0 || g.Width > maxGNDSide || g.Height > maxGNDSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGNDDimensions, g.Width, g.Height)
	}

	g.Textures = make([]string, r.count("textures", maxGNDTextures))
	nameLen := int(r.u32())
	for i := range g.Textures {
		g.Textures[i] = r.name(nameLen)
	}

	g.LightmapCount = r.u32()
	g.LightmapWidth = r.u32()
	g.LightmapHeight = r.u32()
	cells := r.u32()
	// Each lightmap stores a brightness byte and an RGB triple per pixel.
	perLightmap := uint64(g.LightmapWidth) * uint64(g.LightmapHeight) * uint64(cells) * 4
	if total := perLightmap * uint64(g.LightmapCount); total > uint64(len(data)) {
		r.fail(fmt.Errorf("%w: lightmaps", ErrTruncatedGNDData))
	} else {
		r.skip(int(total))
	}

	g.Surfaces = make([]GNDSurface, r.count("surfaces", maxGNDSurfaces))
	for i := range g.Surfaces {
		s := &g.Surfaces[i]
		r.read(&s.U)
		r.read(&s.V)
		s.TextureID = r.i16()
		s.LightmapID = r.i16()
		r.read(&s.Color)
	}
	if r.err != nil {
		return nil, r.err
	}

	g.Tiles = make([]GNDTile, g.Width*g.Height)
	for i := range g.Tiles {
		t := &g.Tiles[i]
		r.read(&t.Altitude)
		t.TopSurface = r.i32()
		t.FrontSurface = r.i32()
		t.RightSurface = r.i32()
		if r.err != nil {
			return nil, fmt.Errorf("parsing tile %d: %w", i, r.err)
		}
	}
	return g, nil
}

// ParseGNDFile parses a GND file from disk.
func ParseGNDFile(path string) (*GND, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GND file: %w", err)
	}
	return ParseGND(data)
}

// SurfacesByTexture counts the surfaces using each texture.
func (g *GND) SurfacesByTexture() map[int]int {
	counts := make(map[int]int)
	for _, s := range g.Surfaces {
		if s.TextureID >= 0 {
			counts[int(s.TextureID)]++
		}
	}
	return counts
}
