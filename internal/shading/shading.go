// Package shading resolves host material layer stacks into the channels
// the exporter writes.
package shading

import (
	"math"

	"github.com/Faultbox/midgard-usd/internal/scene"
)

// Effect is a shading channel an image map can drive.
type Effect int

const (
	EffectNone Effect = iota
	EffectDiffuseColor
	EffectSpecularColor
	EffectTransparencyColor
	EffectLuminanceColor
	EffectBump

	effectCount
)

// Host effect tags.
const (
	TagDiffuseColor      = "diffColor"
	TagSpecularColor     = "specColor"
	TagTransparencyColor = "tranColor"
	TagLuminanceColor    = "lumiColor"
	TagBump              = "bump"
)

var effectByTag = map[string]Effect{
	TagDiffuseColor:      EffectDiffuseColor,
	TagSpecularColor:     EffectSpecularColor,
	TagTransparencyColor: EffectTransparencyColor,
	TagLuminanceColor:    EffectLuminanceColor,
	TagBump:              EffectBump,
}

var effectNames = [...]string{
	EffectNone:              "none",
	EffectDiffuseColor:      "diffuseColor",
	EffectSpecularColor:     "specularColor",
	EffectTransparencyColor: "transparencyColor",
	EffectLuminanceColor:    "luminanceColor",
	EffectBump:              "bump",
}

// EffectFromTag maps a host effect tag to an Effect, EffectNone if unknown.
func EffectFromTag(tag string) Effect {
	return effectByTag[tag]
}

// String returns the effect name.
func (e Effect) String() string {
	if e >= 0 && e < effectCount {
		return effectNames[e]
	}
	return "unknown"
}

// Layers is the result of scanning a material's layer stack.
type Layers struct {
	// Material is the first enabled advanced-material layer.
	Material *scene.Layer
	maps     [effectCount]*scene.Layer
}

// Map returns the first enabled image map bound to e, or nil.
func (l *Layers) Map(e Effect) *scene.Layer {
	if e <= EffectNone || e >= effectCount {
		return nil
	}
	return l.maps[e]
}

// Collect walks a layer stack and keeps, among enabled layers, the first
// advanced material and the first image map per effect.
func Collect(stack scene.LayerStack) Layers {
	var out Layers
	for layer, ok := stack.NextLayer(); ok; layer, ok = stack.NextLayer() {
		if !layer.Enabled {
			continue
		}
		switch layer.Type {
		case scene.LayerAdvancedMaterial:
			if out.Material == nil {
				l := layer
				out.Material = &l
			}
		case scene.LayerImageMap:
			e := EffectFromTag(layer.Effect)
			if e != EffectNone && out.maps[e] == nil {
				l := layer
				out.maps[e] = &l
			}
		}
	}
	return out
}

// DisplayGamma is the gamma of display-referred colors.
const DisplayGamma = 2.2

// DisplayToLinear converts a display-referred color to linear light.
// Negative components clamp to zero.
func DisplayToLinear(c [3]float64) [3]float64 {
	var out [3]float64
	for i, v := range c {
		if v <= 0 {
			continue
		}
		out[i] = math.Pow(v, DisplayGamma)
	}
	return out
}

// DiffuseColor returns the linear diffuse color of an advanced material:
// color scaled by amount, then converted from display to linear.
func DiffuseColor(material *scene.Layer) [3]float64 {
	a := material.DiffuseAmount
	return DisplayToLinear([3]float64{
		material.DiffuseColor[0] * a,
		material.DiffuseColor[1] * a,
		material.DiffuseColor[2] * a,
	})
}
