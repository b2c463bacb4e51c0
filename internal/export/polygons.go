package export

import (
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/pkg/usd"
)

// defaultNormal is written for corners whose normal cannot be resolved.
func defaultNormal() dvec3.T { return dvec3.T{0, 1, 0} }

// faceBuffers holds the flattened topology of one mesh.
type faceBuffers struct {
	counts   []int32
	indices  []int32
	normals  []vec3.T
	uvs      []vec2.T
	unmapped []scene.PointID
}

// flattener turns the face stream of one mesh into per-corner buffers and
// records material membership in groups.
type flattener struct {
	xf       scene.Transform
	index    PointIndexMap
	withUVs  bool
	meshPath usd.Path
	groups   *FaceGroups
}

func (f *flattener) run(m scene.Mesh) *faceBuffers {
	buf := &faceBuffers{}
	reverse := f.xf.Determinant() <= 0

	for face, ok := m.NextFace(); ok; face, ok = m.NextFace() {
		n := face.NumCorners()
		for i := 0; i < n; i++ {
			c := i
			if reverse {
				c = n - 1 - i
			}
			f.corner(buf, face, c)
		}
		buf.counts = append(buf.counts, int32(n))
		f.groups.Add(face.MaterialTag(), f.meshPath, int32(len(buf.counts)-1))
	}
	return buf
}

func (f *flattener) corner(buf *faceBuffers, face scene.Face, c int) {
	id := face.Corner(c)
	idx, ok := f.index[id]
	if !ok {
		buf.unmapped = append(buf.unmapped, id)
	}
	buf.indices = append(buf.indices, idx)

	normal, ok := face.Normal(c)
	if !ok {
		normal = defaultNormal()
	}
	normal = f.xf.ApplyLinear(normal)
	buf.normals = append(buf.normals, vec3.T{float32(normal[0]), float32(normal[1]), float32(normal[2])})

	if f.withUVs {
		uv, ok := face.UV(c)
		if !ok {
			uv = vec2.T{}
		}
		buf.uvs = append(buf.uvs, uv)
	}
}
