package usd

import (
	"errors"
	"fmt"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// ErrTypeMismatch is returned when a value does not match an attribute's type.
var ErrTypeMismatch = errors.New("value type mismatch")

// ValueType is the scene-description type of an attribute.
type ValueType int

// Supported value types.
const (
	TypeBool ValueType = iota
	TypeInt
	TypeFloat
	TypeDouble
	TypeToken
	TypeString
	TypeAsset
	TypeColor3f
	TypeIntArray
	TypePoint3fArray
	TypeNormal3fArray
	TypeTexCoord2fArray
	TypeFloat2Array
	TypeColor3fArray
)

var valueTypeNames = [...]string{
	TypeBool:            "bool",
	TypeInt:             "int",
	TypeFloat:           "float",
	TypeDouble:          "double",
	TypeToken:           "token",
	TypeString:          "string",
	TypeAsset:           "asset",
	TypeColor3f:         "color3f",
	TypeIntArray:        "int[]",
	TypePoint3fArray:    "point3f[]",
	TypeNormal3fArray:   "normal3f[]",
	TypeTexCoord2fArray: "texCoord2f[]",
	TypeFloat2Array:     "float2[]",
	TypeColor3fArray:    "color3f[]",
}

// String returns the type name as written in .usda files.
func (t ValueType) String() string {
	if t >= 0 && int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// AssetPath is an external asset reference, written as @path@.
type AssetPath string

// Interpolation describes how a primvar is distributed over a surface.
type Interpolation string

// Interpolation modes.
const (
	InterpolationConstant    Interpolation = "constant"
	InterpolationUniform     Interpolation = "uniform"
	InterpolationVarying     Interpolation = "varying"
	InterpolationVertex      Interpolation = "vertex"
	InterpolationFaceVarying Interpolation = "faceVarying"
)

// check verifies that v is the Go representation of t.
func (t ValueType) check(v any) error {
	ok := false
	switch t {
	case TypeBool:
		_, ok = v.(bool)
	case TypeInt:
		_, ok = v.(int32)
	case TypeFloat:
		_, ok = v.(float32)
	case TypeDouble:
		_, ok = v.(float64)
	case TypeToken, TypeString:
		_, ok = v.(string)
	case TypeAsset:
		_, ok = v.(AssetPath)
	case TypeColor3f:
		_, ok = v.(vec3.T)
	case TypeIntArray:
		_, ok = v.([]int32)
	case TypePoint3fArray, TypeNormal3fArray, TypeColor3fArray:
		_, ok = v.([]vec3.T)
	case TypeTexCoord2fArray, TypeFloat2Array:
		_, ok = v.([]vec2.T)
	}
	if !ok {
		return fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, t)
	}
	return nil
}
