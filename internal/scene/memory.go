package scene

import (
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
)

// MemoryScene is a scene held entirely in memory. Adapters that decode a
// whole file up front build one of these instead of writing iterators.
type MemoryScene struct {
	Meshes    []*MemoryMesh
	Materials map[string][]Layer

	next int
}

// NextMesh returns the next mesh with its iterators rewound.
func (s *MemoryScene) NextMesh() (Mesh, bool) {
	if s.next >= len(s.Meshes) {
		return nil, false
	}
	m := s.Meshes[s.next]
	s.next++
	m.rewind()
	return m, true
}

// Material returns the layer stack of the named material.
func (s *MemoryScene) Material(name string) (LayerStack, bool) {
	layers, ok := s.Materials[name]
	if !ok {
		return nil, false
	}
	return &sliceStack{layers: layers}, true
}

// Rewind restarts mesh iteration.
func (s *MemoryScene) Rewind() {
	s.next = 0
}

type sliceStack struct {
	layers []Layer
	next   int
}

func (st *sliceStack) NextLayer() (Layer, bool) {
	if st.next >= len(st.layers) {
		return Layer{}, false
	}
	l := st.layers[st.next]
	st.next++
	return l, true
}

// MemoryMesh is an in-memory mesh item.
type MemoryMesh struct {
	MeshName  string
	Transform Transform
	Points    []Point
	Faces     []*MemoryFace
	// UVMaps lists the UV map names in host order.
	UVMaps []string
	// SelectedUVMap is the map the host has selected, used when
	// SelectUVMap is asked for the selection rather than a name.
	SelectedUVMap string

	nextPoint int
	nextFace  int
	activeUV  string
}

func (m *MemoryMesh) rewind() {
	m.nextPoint = 0
	m.nextFace = 0
	m.activeUV = ""
}

// Name returns the mesh item name.
func (m *MemoryMesh) Name() string { return m.MeshName }

// WorldTransform returns the mesh transform.
func (m *MemoryMesh) WorldTransform() Transform { return m.Transform }

// NextPoint returns the next point.
func (m *MemoryMesh) NextPoint() (Point, bool) {
	if m.nextPoint >= len(m.Points) {
		return Point{}, false
	}
	p := m.Points[m.nextPoint]
	m.nextPoint++
	return p, true
}

// NextFace returns the next face, reading UVs from the active map.
func (m *MemoryMesh) NextFace() (Face, bool) {
	if m.nextFace >= len(m.Faces) {
		return nil, false
	}
	f := m.Faces[m.nextFace]
	m.nextFace++
	return memoryFaceView{face: f, uvMap: m.activeUV}, true
}

// SelectUVMap activates the named map. An empty name activates the
// host-selected map, if any.
func (m *MemoryMesh) SelectUVMap(name string) bool {
	if name == "" {
		name = m.SelectedUVMap
	}
	if name == "" {
		return false
	}
	for _, n := range m.UVMaps {
		if n == name {
			m.activeUV = n
			return true
		}
	}
	return false
}

// SelectFirstUVMap activates the first map.
func (m *MemoryMesh) SelectFirstUVMap() bool {
	if len(m.UVMaps) == 0 {
		return false
	}
	m.activeUV = m.UVMaps[0]
	return true
}

// MemoryFace is an in-memory polygon. A nil normal or UV entry, or a
// missing one, is unresolvable.
type MemoryFace struct {
	Corners  []PointID
	Normals  []*dvec3.T
	UVs      map[string][]*vec2.T
	Material string
}

type memoryFaceView struct {
	face  *MemoryFace
	uvMap string
}

func (v memoryFaceView) NumCorners() int { return len(v.face.Corners) }

func (v memoryFaceView) Corner(i int) PointID { return v.face.Corners[i] }

func (v memoryFaceView) Normal(i int) (dvec3.T, bool) {
	if i >= len(v.face.Normals) || v.face.Normals[i] == nil {
		return dvec3.T{}, false
	}
	return *v.face.Normals[i], true
}

func (v memoryFaceView) UV(i int) (vec2.T, bool) {
	if v.uvMap == "" {
		return vec2.T{}, false
	}
	uvs := v.face.UVs[v.uvMap]
	if i >= len(uvs) || uvs[i] == nil {
		return vec2.T{}, false
	}
	return *uvs[i], true
}

func (v memoryFaceView) MaterialTag() string { return v.face.Material }
