// Package material builds host layer stacks for textured Ragnarok Online
// resources, where every texture acts as one material.
package material

import (
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/internal/shading"
	"github.com/Faultbox/midgard-usd/internal/texture"
)

// TextureDir is the resource directory texture names are relative to.
const TextureDir = "data/texture/"

// Reader reads resources by name.
type Reader interface {
	Read(name string) ([]byte, error)
}

// Tag returns the material tag of a texture: its base name without
// extension. Both slash styles are accepted.
func Tag(texturePath string) string {
	base := path.Base(strings.ReplaceAll(texturePath, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// Builder accumulates the layer stacks of the textures a resource uses.
type Builder struct {
	reader    Reader
	log       *zap.Logger
	materials map[string][]scene.Layer
}

// NewBuilder creates a builder. A nil reader gives every material a white
// diffuse color.
func NewBuilder(reader Reader, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{reader: reader, log: log, materials: make(map[string][]scene.Layer)}
}

// Add registers the texture and returns its tag. A texture whose tag is
// already known keeps its first layer stack.
func (b *Builder) Add(texturePath string) string {
	tag := Tag(texturePath)
	if tag == "" {
		return ""
	}
	image := TextureDir + strings.ReplaceAll(texturePath, "\\", "/")
	if layers, ok := b.materials[tag]; ok {
		if first := layers[0].Image; first != image {
			b.log.Debug("texture tag reused",
				zap.String("tag", tag),
				zap.String("texture", image),
				zap.String("first", first),
			)
		}
		return tag
	}

	b.materials[tag] = []scene.Layer{
		{
			Name:    tag + " diffuse map",
			Type:    scene.LayerImageMap,
			Enabled: true,
			Effect:  shading.TagDiffuseColor,
			Image:   image,
		},
		{
			Name:          tag,
			Type:          scene.LayerAdvancedMaterial,
			Enabled:       true,
			DiffuseColor:  b.diffuse(image),
			DiffuseAmount: 1,
		},
	}
	return tag
}

// Materials returns the layer stacks by tag.
func (b *Builder) Materials() map[string][]scene.Layer {
	return b.materials
}

// diffuse returns the texture's average color, white when it cannot be
// loaded.
func (b *Builder) diffuse(image string) [3]float64 {
	white := [3]float64{1, 1, 1}
	if b.reader == nil {
		return white
	}
	data, err := b.reader.Read(image)
	if err != nil {
		b.log.Debug("texture not found", zap.String("texture", image), zap.Error(err))
		return white
	}
	img, err := texture.Decode(image, data)
	if err != nil {
		b.log.Warn("texture decode failed", zap.String("texture", image), zap.Error(err))
		return white
	}
	c, ok := texture.AverageColor(img)
	if !ok {
		return white
	}
	return c
}
