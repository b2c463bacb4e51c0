package export

import (
	"sort"

	"github.com/Faultbox/midgard-usd/pkg/usd"
)

// FaceGroups collects, per material, the faces of every mesh that use it.
// Entries are created on first use and appended to afterwards.
type FaceGroups struct {
	groups map[string]*faceGroup
}

type faceGroup struct {
	meshes []usd.Path
	faces  map[usd.Path][]int32
}

// NewFaceGroups returns an empty accumulator.
func NewFaceGroups() *FaceGroups {
	return &FaceGroups{groups: make(map[string]*faceGroup)}
}

// Add records face of mesh under material. An empty material is ignored.
func (g *FaceGroups) Add(material string, mesh usd.Path, face int32) {
	if material == "" {
		return
	}
	fg := g.groups[material]
	if fg == nil {
		fg = &faceGroup{faces: make(map[usd.Path][]int32)}
		g.groups[material] = fg
	}
	if _, ok := fg.faces[mesh]; !ok {
		fg.meshes = append(fg.meshes, mesh)
	}
	fg.faces[mesh] = append(fg.faces[mesh], face)
}

// Materials returns the names of materials with at least one face, sorted.
func (g *FaceGroups) Materials() []string {
	names := make([]string, 0, len(g.groups))
	for name, fg := range g.groups {
		if len(fg.meshes) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Meshes returns the meshes using material, in the order they were first
// recorded.
func (g *FaceGroups) Meshes(material string) []usd.Path {
	if fg := g.groups[material]; fg != nil {
		return fg.meshes
	}
	return nil
}

// Faces returns the faces of mesh using material, in emission order.
func (g *FaceGroups) Faces(material string, mesh usd.Path) []int32 {
	if fg := g.groups[material]; fg != nil {
		return fg.faces[mesh]
	}
	return nil
}

// Len returns the number of materials recorded.
func (g *FaceGroups) Len() int { return len(g.groups) }
