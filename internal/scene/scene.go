// Package scene defines the pull-based host scene the exporter consumes.
//
// A host walks its own data model and hands out meshes, points, faces and
// material layer stacks one at a time. The exporter never calls back into
// the host beyond these iterators.
package scene

import (
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
)

// PointID is a host point identifier. IDs are only unique within a mesh and
// need not be dense.
type PointID uint64

// ItemType identifies the kind of item a traversed point belongs to.
type ItemType int

const (
	ItemMesh  ItemType = iota // Polygon mesh geometry
	ItemOther                 // Any other item sharing the traversal
)

// String returns the item type name.
func (t ItemType) String() string {
	if t == ItemMesh {
		return "mesh"
	}
	return "other"
}

// Point is one vertex visited during point traversal.
type Point struct {
	ID       PointID
	Item     ItemType
	Position dvec3.T // Local space
}

// Face is one polygon visited during face traversal. Corner indices are in
// host order.
type Face interface {
	// NumCorners returns the number of corners.
	NumCorners() int
	// Corner returns the point id of corner i.
	Corner(i int) PointID
	// Normal returns the local-space normal at corner i.
	Normal(i int) (dvec3.T, bool)
	// UV returns the texture coordinate at corner i from the active UV map.
	UV(i int) (vec2.T, bool)
	// MaterialTag returns the assigned material name, empty if none.
	MaterialTag() string
}

// Mesh is one mesh item. Points and faces are pulled once each, in order.
type Mesh interface {
	Name() string
	// WorldTransform maps local positions to world space.
	WorldTransform() Transform
	NextPoint() (Point, bool)
	NextFace() (Face, bool)
	// SelectUVMap activates the named UV map for Face.UV.
	SelectUVMap(name string) bool
	// SelectFirstUVMap activates the first UV map the mesh carries.
	SelectFirstUVMap() bool
}

// Scene is a host scene: a sequence of meshes plus material lookup.
type Scene interface {
	NextMesh() (Mesh, bool)
	// Material returns the shading layer stack of the named material.
	Material(name string) (LayerStack, bool)
}

// LayerStack yields a material's shading layers in evaluation order.
type LayerStack interface {
	NextLayer() (Layer, bool)
}

// LayerType identifies the kind of a shading layer.
type LayerType int

const (
	LayerOther            LayerType = iota
	LayerAdvancedMaterial           // Carries the base material channels
	LayerImageMap                   // Texture bound to an effect channel
)

// String returns the layer type name.
func (t LayerType) String() string {
	switch t {
	case LayerAdvancedMaterial:
		return "advancedMaterial"
	case LayerImageMap:
		return "imageMap"
	default:
		return "other"
	}
}

// Layer is one entry of a material layer stack.
type Layer struct {
	Name    string
	Type    LayerType
	Enabled bool
	// Effect is the host effect tag the layer drives (image maps only).
	Effect string
	// DiffuseColor and DiffuseAmount are read from advanced materials.
	DiffuseColor  [3]float64
	DiffuseAmount float64
	// Image is the texture path of an image map.
	Image string
}
