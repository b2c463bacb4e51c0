// Package source picks the host adapter for an input file.
package source

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/internal/source/fixture"
	"github.com/Faultbox/midgard-usd/internal/source/gnd"
	"github.com/Faultbox/midgard-usd/internal/source/material"
	"github.com/Faultbox/midgard-usd/internal/source/rsm"
)

// ErrUnsupportedInput is returned for inputs no adapter handles.
var ErrUnsupportedInput = errors.New("unsupported input")

// Kind is an input format.
type Kind int

const (
	KindUnknown Kind = iota
	KindRSM
	KindGND
	KindFixture
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRSM:
		return "rsm"
	case KindGND:
		return "gnd"
	case KindFixture:
		return "fixture"
	default:
		return "unknown"
	}
}

// KindOf returns the input kind by file extension.
func KindOf(name string) Kind {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/"))) {
	case ".rsm":
		return KindRSM
	case ".gnd":
		return KindGND
	case ".yaml", ".yml":
		return KindFixture
	default:
		return KindUnknown
	}
}

// BaseName returns the file name without directory or extension.
func BaseName(name string) string {
	return material.Tag(name)
}

// Load converts an input file into a scene. Textures are resolved through
// textures, which may be nil.
func Load(name string, data []byte, textures material.Reader, log *zap.Logger) (*scene.MemoryScene, error) {
	switch KindOf(name) {
	case KindRSM:
		return rsm.Load(BaseName(name), data, textures, log)
	case KindGND:
		return gnd.Load(BaseName(name), data, textures, log)
	case KindFixture:
		return fixture.Load(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, name)
	}
}
