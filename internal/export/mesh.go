package export

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/pkg/usd"
)

// UVPrimvar is the primvar UVs are written to.
const UVPrimvar = "st"

func (e *Exporter) emitMesh(m scene.Mesh) (MeshStats, error) {
	name := m.Name()
	path, err := e.childPath(RootPath, name)
	if err != nil {
		return MeshStats{}, fmt.Errorf("naming mesh %q: %w", name, err)
	}
	mesh, err := usd.DefineMesh(e.stage, path)
	if err != nil {
		return MeshStats{}, fmt.Errorf("defining mesh %s: %w", path, err)
	}

	withUVs := e.selectUVs(m)
	xf := m.WorldTransform()

	points := collectPoints(m, xf, e.scale)
	for _, id := range points.duplicates {
		e.issue(name, "duplicate point id", zap.Uint64("id", uint64(id)))
	}

	fl := &flattener{
		xf:       xf,
		index:    points.index,
		withUVs:  withUVs,
		meshPath: path,
		groups:   e.groups,
	}
	faces := fl.run(m)
	for _, id := range faces.unmapped {
		e.issue(name, "face references unknown point", zap.Uint64("id", uint64(id)))
	}

	if err := writeMesh(mesh, points, faces, withUVs); err != nil {
		return MeshStats{}, fmt.Errorf("writing mesh %s: %w", path, err)
	}

	stats := MeshStats{
		Name:     name,
		Path:     path,
		Points:   len(points.positions),
		Faces:    len(faces.counts),
		Corners:  len(faces.indices),
		HasUVs:   withUVs,
		Mirrored: xf.Determinant() <= 0,
	}
	e.log.Debug("mesh written",
		zap.String("path", path.String()),
		zap.Int("points", stats.Points),
		zap.Int("faces", stats.Faces),
		zap.Int("skippedPoints", points.skipped),
		zap.Bool("uvs", withUVs),
		zap.Bool("mirrored", stats.Mirrored))
	return stats, nil
}

// selectUVs activates the configured UV map, then the mesh's first one.
func (e *Exporter) selectUVs(m scene.Mesh) bool {
	if m.SelectUVMap(e.opts.UVMap) {
		return true
	}
	return m.SelectFirstUVMap()
}

func writeMesh(mesh usd.Mesh, points *pointBuffer, faces *faceBuffers, withUVs bool) error {
	if err := mesh.SetPoints(points.positions); err != nil {
		return err
	}
	if err := mesh.SetFaceVertexCounts(faces.counts); err != nil {
		return err
	}
	if err := mesh.SetFaceVertexIndices(faces.indices); err != nil {
		return err
	}
	if err := mesh.SetNormals(faces.normals, usd.InterpolationFaceVarying); err != nil {
		return err
	}
	if withUVs {
		if err := mesh.SetTexCoords(UVPrimvar, faces.uvs, usd.InterpolationFaceVarying); err != nil {
			return err
		}
	}
	return mesh.SetSubdivisionScheme("none")
}
