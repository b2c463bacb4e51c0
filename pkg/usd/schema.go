package usd

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Schema type names.
const (
	SchemaXform      = "Xform"
	SchemaScope      = "Scope"
	SchemaMesh       = "Mesh"
	SchemaGeomSubset = "GeomSubset"
	SchemaMaterial   = "Material"
	SchemaShader     = "Shader"
)

// MaterialBindingAPI is the applied schema carrying material:binding.
const MaterialBindingAPI = "MaterialBindingAPI"

// FamilyMaterialBind is the GeomSubset family used for per-face materials.
const FamilyMaterialBind = "materialBind"

// DefineXform defines a transformable grouping prim.
func DefineXform(s *Stage, path Path) (*Prim, error) {
	return s.DefinePrim(path, SchemaXform)
}

// DefineScope defines a non-transformable grouping prim.
func DefineScope(s *Stage, path Path) (*Prim, error) {
	return s.DefinePrim(path, SchemaScope)
}

// Mesh is a polygonal mesh prim.
type Mesh struct {
	*Prim
}

// DefineMesh defines a mesh prim at path.
func DefineMesh(s *Stage, path Path) (Mesh, error) {
	p, err := s.DefinePrim(path, SchemaMesh)
	if err != nil {
		return Mesh{}, err
	}
	return Mesh{p}, nil
}

func setAttr(p *Prim, name string, typ ValueType, uniform bool, v any) (*Attribute, error) {
	a, err := p.CreateAttribute(name, typ, uniform)
	if err != nil {
		return nil, err
	}
	return a, a.Set(v)
}

// SetPoints authors point positions (one per point).
func (m Mesh) SetPoints(points []vec3.T) error {
	_, err := setAttr(m.Prim, "points", TypePoint3fArray, false, points)
	return err
}

// SetFaceVertexCounts authors the corner count of every face.
func (m Mesh) SetFaceVertexCounts(counts []int32) error {
	_, err := setAttr(m.Prim, "faceVertexCounts", TypeIntArray, false, counts)
	return err
}

// SetFaceVertexIndices authors the point index of every face corner.
func (m Mesh) SetFaceVertexIndices(indices []int32) error {
	_, err := setAttr(m.Prim, "faceVertexIndices", TypeIntArray, false, indices)
	return err
}

// SetNormals authors normals with the given interpolation.
func (m Mesh) SetNormals(normals []vec3.T, interp Interpolation) error {
	a, err := setAttr(m.Prim, "normals", TypeNormal3fArray, false, normals)
	if err != nil {
		return err
	}
	a.SetInterpolation(interp)
	return nil
}

// SetSubdivisionScheme authors the subdivision scheme ("none" keeps the
// authored normals).
func (m Mesh) SetSubdivisionScheme(scheme string) error {
	_, err := setAttr(m.Prim, "subdivisionScheme", TypeToken, true, scheme)
	return err
}

// SetSubsetFamilyType authors the family type of a GeomSubset family.
func (m Mesh) SetSubsetFamilyType(family, familyType string) error {
	_, err := setAttr(m.Prim, "subsetFamily:"+family+":familyType", TypeToken, true, familyType)
	return err
}

// SetTexCoords authors a texCoord2f primvar.
func (m Mesh) SetTexCoords(name string, uvs []vec2.T, interp Interpolation) error {
	a, err := m.CreatePrimvar(name, TypeTexCoord2fArray, interp)
	if err != nil {
		return err
	}
	return a.Set(uvs)
}

// CreatePrimvar creates a "primvars:" attribute with the given interpolation.
func (m Mesh) CreatePrimvar(name string, typ ValueType, interp Interpolation) (*Attribute, error) {
	a, err := m.CreateAttribute("primvars:"+name, typ, false)
	if err != nil {
		return nil, err
	}
	a.SetInterpolation(interp)
	return a, nil
}

// DefineGeomSubset defines a face subset named name under the mesh.
func DefineGeomSubset(mesh *Prim, name, family string, indices []int32) (*Prim, error) {
	path, err := mesh.Path().AppendChild(name)
	if err != nil {
		return nil, err
	}
	p, err := mesh.Stage().DefinePrim(path, SchemaGeomSubset)
	if err != nil {
		return nil, err
	}
	if _, err := setAttr(p, "elementType", TypeToken, true, "face"); err != nil {
		return nil, err
	}
	if _, err := setAttr(p, "familyName", TypeToken, true, family); err != nil {
		return nil, err
	}
	if _, err := setAttr(p, "indices", TypeIntArray, false, indices); err != nil {
		return nil, err
	}
	return p, nil
}

// BindMaterial binds the material at path to the prim.
func BindMaterial(p *Prim, material Path) {
	p.ApplyAPI(MaterialBindingAPI)
	p.CreateRelationship("material:binding").AddTarget(material)
}

// Material is a shading network container.
type Material struct {
	*Prim
}

// DefineMaterial defines a material prim at path.
func DefineMaterial(s *Stage, path Path) (Material, error) {
	p, err := s.DefinePrim(path, SchemaMaterial)
	if err != nil {
		return Material{}, err
	}
	return Material{p}, nil
}

// CreateInput creates an interface input ("inputs:name").
func (m Material) CreateInput(name string, typ ValueType) (*Attribute, error) {
	return m.CreateAttribute("inputs:"+name, typ, false)
}

// CreateOutput creates an output ("outputs:name").
func (m Material) CreateOutput(name string, typ ValueType) (*Attribute, error) {
	return m.CreateAttribute("outputs:"+name, typ, false)
}

// Shader is a shading node.
type Shader struct {
	*Prim
}

// DefineShader defines a shader prim at path.
func DefineShader(s *Stage, path Path) (Shader, error) {
	p, err := s.DefinePrim(path, SchemaShader)
	if err != nil {
		return Shader{}, err
	}
	return Shader{p}, nil
}

// SetShaderID authors info:id, the shader's registry identifier.
func (sh Shader) SetShaderID(id string) error {
	a, err := sh.CreateAttribute("info:id", TypeToken, true)
	if err != nil {
		return err
	}
	return a.Set(id)
}

// CreateInput creates a shader input ("inputs:name").
func (sh Shader) CreateInput(name string, typ ValueType) (*Attribute, error) {
	return sh.CreateAttribute("inputs:"+name, typ, false)
}

// CreateOutput creates a shader output ("outputs:name").
func (sh Shader) CreateOutput(name string, typ ValueType) (*Attribute, error) {
	return sh.CreateAttribute("outputs:"+name, typ, false)
}
