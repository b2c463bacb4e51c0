package export

import (
	"fmt"

	"github.com/flywave/go3d/vec3"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/internal/shading"
	"github.com/Faultbox/midgard-usd/pkg/usd"
)

// Shading network constants.
const (
	DiffuseShaderID     = "PxrDiffuse"
	DiffuseShaderSuffix = "_lambert"
	SubsetFamilyType    = "nonOverlapping"
)

// emitMaterials writes the looks scope, one material per recorded face
// group, the face subsets binding it, and its shading network.
func (e *Exporter) emitMaterials(sc scene.Scene) {
	if _, err := usd.DefineScope(e.stage, LooksPath); err != nil {
		e.issue(LooksPath.String(), err.Error())
		return
	}

	for _, name := range e.groups.Materials() {
		path, err := e.childPath(LooksPath, name)
		if err != nil {
			e.issue(name, err.Error())
			continue
		}
		mat, err := usd.DefineMaterial(e.stage, path)
		if err != nil {
			e.issue(name, err.Error())
			continue
		}
		e.report.Materials = append(e.report.Materials, path)

		for _, meshPath := range e.groups.Meshes(name) {
			if err := e.bindFaces(meshPath, path, e.groups.Faces(name, meshPath)); err != nil {
				e.issue(name, err.Error(), zap.String("mesh", meshPath.String()))
			}
		}

		stack, ok := sc.Material(name)
		if !ok {
			e.log.Debug("no host material", zap.String("material", name))
			continue
		}
		if err := e.buildShading(mat, name, shading.Collect(stack)); err != nil {
			e.issue(name, err.Error())
		}
	}
}

// bindFaces adds a face subset of meshPath bound to material.
func (e *Exporter) bindFaces(meshPath, material usd.Path, faces []int32) error {
	meshPrim, err := e.stage.OverridePrim(meshPath)
	if err != nil {
		return fmt.Errorf("binding %s: %w", material, err)
	}
	subset, err := usd.DefineGeomSubset(meshPrim, material.Name(), usd.FamilyMaterialBind, faces)
	if err != nil {
		return fmt.Errorf("binding %s: %w", material, err)
	}
	usd.BindMaterial(subset, material)
	return usd.Mesh{Prim: meshPrim}.SetSubsetFamilyType(usd.FamilyMaterialBind, SubsetFamilyType)
}

func (e *Exporter) buildShading(mat usd.Material, name string, layers shading.Layers) error {
	for eff := shading.EffectSpecularColor; eff <= shading.EffectBump; eff++ {
		if l := layers.Map(eff); l != nil {
			e.log.Debug("unused image map",
				zap.String("material", name),
				zap.Stringer("effect", eff),
				zap.String("image", l.Image))
		}
	}
	if l := layers.Map(shading.EffectDiffuseColor); l != nil {
		e.log.Debug("diffuse image map",
			zap.String("material", name),
			zap.String("image", l.Image))
	}
	if layers.Material == nil {
		return nil
	}

	c := shading.DiffuseColor(layers.Material)
	display, err := mat.CreateInput("displayColor", usd.TypeColor3f)
	if err != nil {
		return err
	}
	if err := display.Set(vec3.T{float32(c[0]), float32(c[1]), float32(c[2])}); err != nil {
		return err
	}

	shaderPath, err := mat.Path().AppendChild(mat.Name() + DiffuseShaderSuffix)
	if err != nil {
		return err
	}
	shader, err := usd.DefineShader(e.stage, shaderPath)
	if err != nil {
		return err
	}
	if err := shader.SetShaderID(DiffuseShaderID); err != nil {
		return err
	}
	diffuse, err := shader.CreateInput("diffuseColor", usd.TypeColor3f)
	if err != nil {
		return err
	}
	if err := diffuse.ConnectToSource(display); err != nil {
		return err
	}
	out, err := shader.CreateOutput("out", usd.TypeToken)
	if err != nil {
		return err
	}
	surface, err := mat.CreateOutput("ri:surface", usd.TypeToken)
	if err != nil {
		return err
	}
	return surface.ConnectToSource(out)
}
