package export

import (
	"fmt"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/midgard-usd/pkg/usd"
)

// validate checks the buffer invariants of every mesh on the stage and
// that each subset binds an existing material.
func (e *Exporter) validate() {
	e.stage.Traverse(func(p *usd.Prim) {
		switch p.TypeName() {
		case usd.SchemaMesh:
			for _, msg := range CheckMesh(p) {
				e.issue(p.Path().String(), msg)
			}
		case usd.SchemaGeomSubset:
			rel := p.Relationship("material:binding")
			if rel == nil {
				return
			}
			for _, t := range rel.Targets() {
				if mp := e.stage.GetPrim(t); mp == nil || mp.TypeName() != usd.SchemaMaterial {
					e.issue(p.Path().String(), fmt.Sprintf("binding target %s is not a material", t))
				}
			}
		}
	})
}

// CheckMesh returns the violated buffer invariants of a mesh prim:
// sum(counts) == len(indices) == len(normals) == len(uvs), indices within
// the point buffer, and subset indices within the face count.
func CheckMesh(p *usd.Prim) []string {
	var problems []string
	points := attrValue[[]vec3.T](p, "points")
	counts := attrValue[[]int32](p, "faceVertexCounts")
	indices := attrValue[[]int32](p, "faceVertexIndices")
	normals := attrValue[[]vec3.T](p, "normals")

	corners := 0
	for _, c := range counts {
		corners += int(c)
	}
	if corners != len(indices) {
		problems = append(problems, fmt.Sprintf("face vertex counts sum to %d, have %d indices", corners, len(indices)))
	}
	if len(normals) != len(indices) {
		problems = append(problems, fmt.Sprintf("%d normals for %d corners", len(normals), len(indices)))
	}
	if a := p.Attribute("primvars:" + UVPrimvar); a != nil {
		if uvs := attrValue[[]vec2.T](p, a.Name()); len(uvs) != len(indices) {
			problems = append(problems, fmt.Sprintf("%d uvs for %d corners", len(uvs), len(indices)))
		}
	}
	for i, idx := range indices {
		if idx < 0 || int(idx) >= len(points) {
			problems = append(problems, fmt.Sprintf("index %d at corner %d out of range", idx, i))
			break
		}
	}

	seen := make(map[int32]string)
	for _, c := range p.Children() {
		if c.TypeName() != usd.SchemaGeomSubset {
			continue
		}
		for _, f := range attrValue[[]int32](c, "indices") {
			if f < 0 || int(f) >= len(counts) {
				problems = append(problems, fmt.Sprintf("subset %s face %d out of range", c.Name(), f))
				continue
			}
			if other, dup := seen[f]; dup {
				problems = append(problems, fmt.Sprintf("face %d in subsets %s and %s", f, other, c.Name()))
			}
			seen[f] = c.Name()
		}
	}
	return problems
}

func attrValue[T any](p *usd.Prim, name string) T {
	var zero T
	a := p.Attribute(name)
	if a == nil {
		return zero
	}
	v, ok := a.Get()
	if !ok {
		return zero
	}
	t, _ := v.(T)
	return t
}
