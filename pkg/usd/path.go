// Package usd provides an in-process USD stage that serializes to the
// .usda text layer format.
package usd

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Path errors.
var (
	ErrInvalidPath = errors.New("invalid path")
	ErrInvalidName = errors.New("invalid prim name")
)

// Path addresses a prim ("/root/looks/Red") or a property
// ("/root/looks/Red.inputs:displayColor").
type Path string

// AbsoluteRoot is the path of the pseudo-root.
const AbsoluteRoot Path = "/"

// String returns the path text.
func (p Path) String() string {
	return string(p)
}

// IsEmpty returns true for the zero path.
func (p Path) IsEmpty() bool {
	return p == ""
}

// IsAbsoluteRoot returns true for "/".
func (p Path) IsAbsoluteRoot() bool {
	return p == AbsoluteRoot
}

// IsPropertyPath returns true if the path names a property.
func (p Path) IsPropertyPath() bool {
	return strings.Contains(string(p), ".")
}

// PrimPath strips the property part, if any.
func (p Path) PrimPath() Path {
	if i := strings.IndexByte(string(p), '.'); i >= 0 {
		return p[:i]
	}
	return p
}

// Name returns the last path element (the property name for property paths).
func (p Path) Name() string {
	if i := strings.IndexByte(string(p), '.'); i >= 0 {
		return string(p[i+1:])
	}
	if p.IsAbsoluteRoot() {
		return ""
	}
	return string(p[strings.LastIndexByte(string(p), '/')+1:])
}

// Parent returns the parent prim path. The parent of a property path is
// its prim; the parent of a top-level prim is the absolute root.
func (p Path) Parent() Path {
	if p.IsPropertyPath() {
		return p.PrimPath()
	}
	i := strings.LastIndexByte(string(p), '/')
	if i <= 0 {
		return AbsoluteRoot
	}
	return p[:i]
}

// AppendChild returns the path of a child prim named name.
func (p Path) AppendChild(name string) (Path, error) {
	if p.IsEmpty() || p.IsPropertyPath() {
		return "", fmt.Errorf("%w: cannot append child to %q", ErrInvalidPath, p)
	}
	if !ValidPrimName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if p.IsAbsoluteRoot() {
		return Path("/" + name), nil
	}
	return Path(string(p) + "/" + name), nil
}

// AppendProperty returns the path of the named property on this prim.
func (p Path) AppendProperty(name string) Path {
	return Path(string(p.PrimPath()) + "." + name)
}

// ValidPrimName reports whether name can be used as a prim name: a letter
// or underscore followed by letters, digits or underscores.
func ValidPrimName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// validPrimPath checks an absolute prim path element by element.
func validPrimPath(p Path) bool {
	if p.IsAbsoluteRoot() {
		return true
	}
	if !strings.HasPrefix(string(p), "/") || p.IsPropertyPath() {
		return false
	}
	for _, elem := range strings.Split(string(p[1:]), "/") {
		if !ValidPrimName(elem) {
			return false
		}
	}
	return true
}
