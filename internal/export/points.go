package export

import (
	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/midgard-usd/internal/scene"
)

// PointIndexMap maps host point ids to dense zero-based indices.
type PointIndexMap map[scene.PointID]int32

// pointBuffer holds the collected positions of one mesh.
type pointBuffer struct {
	positions  []vec3.T
	index      PointIndexMap
	duplicates []scene.PointID
	skipped    int
}

// collectPoints pulls every point of m. Points of other item types are
// skipped without consuming an index. A repeated id keeps its first index.
func collectPoints(m scene.Mesh, xf scene.Transform, scale float64) *pointBuffer {
	buf := &pointBuffer{index: make(PointIndexMap)}
	for p, ok := m.NextPoint(); ok; p, ok = m.NextPoint() {
		if p.Item != scene.ItemMesh {
			buf.skipped++
			continue
		}
		if _, dup := buf.index[p.ID]; dup {
			buf.duplicates = append(buf.duplicates, p.ID)
			continue
		}
		buf.index[p.ID] = int32(len(buf.positions))

		w := xf.Apply(p.Position)
		buf.positions = append(buf.positions, vec3.T{
			float32(w[0] * scale),
			float32(w[1] * scale),
			float32(w[2] * scale),
		})
	}
	return buf
}
