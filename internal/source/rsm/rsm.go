// Package rsm turns RSM models into in-memory export scenes: one mesh per
// node, one material per texture.
package rsm

import (
	"fmt"
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/internal/source/material"
	"github.com/Faultbox/midgard-usd/pkg/formats"
)

// UVMap is the name of the single UV map each node mesh carries.
const UVMap = "Texture"

// Load parses an RSM model and converts it.
func Load(name string, data []byte, textures material.Reader, log *zap.Logger) (*scene.MemoryScene, error) {
	model, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return Convert(name, model, textures, log), nil
}

// Convert builds a scene from a parsed model. Nodes without a name are
// called after the model.
func Convert(name string, model *formats.RSM, textures material.Reader, log *zap.Logger) *scene.MemoryScene {
	if log == nil {
		log = zap.NewNop()
	}
	mats := material.NewBuilder(textures, log)
	tags := make([]string, len(model.Textures))
	for i, tex := range model.Textures {
		tags[i] = mats.Add(tex)
	}

	sc := &scene.MemoryScene{}
	for i := range model.Nodes {
		node := &model.Nodes[i]
		meshName := node.Name
		if meshName == "" {
			meshName = fmt.Sprintf("%s_node%d", name, i)
		}
		m := &scene.MemoryMesh{
			MeshName:      meshName,
			Transform:     NodeTransform(node, model),
			UVMaps:        []string{UVMap},
			SelectedUVMap: UVMap,
		}
		for id, v := range node.Vertices {
			m.Points = append(m.Points, scene.Point{
				ID:       scene.PointID(id),
				Position: dvec3.T{float64(v[0]), float64(v[1]), float64(v[2])},
			})
		}
		for _, f := range node.Faces {
			face := convertFace(node, f, tags)
			m.Faces = append(m.Faces, face)
			if f.TwoSide != 0 {
				m.Faces = append(m.Faces, backFace(face))
			}
		}
		log.Debug("rsm node",
			zap.String("node", meshName),
			zap.Int("vertices", len(node.Vertices)),
			zap.Int("faces", len(m.Faces)))
		sc.Meshes = append(sc.Meshes, m)
	}
	sc.Materials = mats.Materials()
	return sc
}

// NodeTransform returns the node's vertex transform at frame zero, with Y
// flipped into the up-is-positive convention. Offset and Matrix apply to
// the node's own vertices only; children inherit the rest.
func NodeTransform(node *formats.RSMNode, model *formats.RSM) scene.Transform {
	offset := scene.Translation(float64(node.Offset[0]), float64(node.Offset[1]), float64(node.Offset[2]))
	local := hierarchy(node, model, make(map[string]bool)).
		Mul(offset).
		Mul(scene.FromColumns(node.Matrix))
	return scene.Scaling(1, -1, 1).Mul(local)
}

func hierarchy(node *formats.RSMNode, model *formats.RSM, visited map[string]bool) scene.Transform {
	if visited[node.Name] {
		return scene.Identity()
	}
	visited[node.Name] = true

	local := scene.Translation(float64(node.Position[0]), float64(node.Position[1]), float64(node.Position[2]))
	switch {
	case len(node.RotKeys) > 0:
		q := node.RotKeys[0].Quaternion
		local = local.Mul(scene.Quaternion([4]float64{float64(q[0]), float64(q[1]), float64(q[2]), float64(q[3])}))
	case node.RotAngle != 0:
		axis := dvec3.T{float64(node.RotAxis[0]), float64(node.RotAxis[1]), float64(node.RotAxis[2])}
		local = local.Mul(scene.AxisAngle(axis, float64(node.RotAngle)))
	}
	local = local.Mul(scene.Scaling(float64(node.Scale[0]), float64(node.Scale[1]), float64(node.Scale[2])))
	if len(node.ScaleKeys) > 0 {
		s := node.ScaleKeys[0].Scale
		local = local.Mul(scene.Scaling(float64(s[0]), float64(s[1]), float64(s[2])))
	}

	if node.Parent != "" && node.Parent != node.Name {
		if parent := model.NodeByName(node.Parent); parent != nil {
			return hierarchy(parent, model, visited).Mul(local)
		}
	}
	return local
}

func convertFace(node *formats.RSMNode, f formats.RSMFace, tags []string) *scene.MemoryFace {
	face := &scene.MemoryFace{
		Corners: make([]scene.PointID, 3),
		Normals: make([]*dvec3.T, 3),
		UVs:     map[string][]*vec2.T{UVMap: make([]*vec2.T, 3)},
	}
	for i, id := range f.VertexIDs {
		face.Corners[i] = scene.PointID(id)
	}

	if n, ok := triangleNormal(node, f.VertexIDs); ok {
		for i := range face.Normals {
			face.Normals[i] = &n
		}
	}

	uvs := face.UVs[UVMap]
	for i, id := range f.TexCoordIDs {
		if int(id) >= len(node.TexCoords) {
			continue
		}
		tc := node.TexCoords[id]
		uvs[i] = &vec2.T{tc.U, 1 - tc.V}
	}

	if int(f.TextureID) < len(node.TextureIDs) {
		if tex := node.TextureIDs[f.TextureID]; tex >= 0 && int(tex) < len(tags) {
			face.Material = tags[tex]
		}
	}
	return face
}

// triangleNormal returns the unit normal of a triangle in node space.
// Degenerate or out-of-range triangles have none.
func triangleNormal(node *formats.RSMNode, ids [3]uint16) (dvec3.T, bool) {
	var p [3]dvec3.T
	for i, id := range ids {
		if int(id) >= len(node.Vertices) {
			return dvec3.T{}, false
		}
		v := node.Vertices[id]
		p[i] = dvec3.T{float64(v[0]), float64(v[1]), float64(v[2])}
	}
	e1 := dvec3.Sub(&p[1], &p[0])
	e2 := dvec3.Sub(&p[2], &p[0])
	n := dvec3.Cross(&e1, &e2)
	if l := n.Length(); l < 1e-9 || math.IsNaN(l) {
		return dvec3.T{}, false
	}
	return n.Normalized(), true
}

// backFace mirrors a two-sided face: corners reversed, normals negated.
func backFace(f *scene.MemoryFace) *scene.MemoryFace {
	n := len(f.Corners)
	back := &scene.MemoryFace{
		Corners:  make([]scene.PointID, n),
		Normals:  make([]*dvec3.T, n),
		UVs:      make(map[string][]*vec2.T, len(f.UVs)),
		Material: f.Material,
	}
	for i := 0; i < n; i++ {
		j := n - 1 - i
		back.Corners[i] = f.Corners[j]
		if j < len(f.Normals) && f.Normals[j] != nil {
			neg := f.Normals[j].Inverted()
			back.Normals[i] = &neg
		}
	}
	for name, uvs := range f.UVs {
		rev := make([]*vec2.T, len(uvs))
		for i := range uvs {
			rev[i] = uvs[len(uvs)-1-i]
		}
		back.UVs[name] = rev
	}
	return back
}
