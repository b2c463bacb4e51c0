package usd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Stage errors.
var (
	ErrStageClosed = errors.New("stage is closed")
	ErrPrimExists  = errors.New("prim already defined with another type")
)

type metadataEntry struct {
	key   string
	value any
}

// Stage is a scene-description layer being authored.
type Stage struct {
	path     string
	file     *os.File
	root     *Prim
	prims    map[Path]*Prim
	metadata []metadataEntry
	closed   bool
}

// New returns an in-memory stage. Save is a no-op; use WriteTo to
// serialize it.
func New() *Stage {
	s := &Stage{prims: make(map[Path]*Prim)}
	s.root = &Prim{stage: s, path: AbsoluteRoot}
	s.prims[AbsoluteRoot] = s.root
	return s
}

// CreateNew creates a stage backed by a new file at path. The file is
// created immediately so an unwritable location fails here rather than
// at Save.
func CreateNew(path string) (*Stage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating stage %s: %w", path, err)
	}
	s := New()
	s.path = path
	s.file = f
	return s, nil
}

// Path returns the backing file path, empty for in-memory stages.
func (s *Stage) Path() string { return s.path }

// PseudoRoot returns the prim at "/".
func (s *Stage) PseudoRoot() *Prim { return s.root }

// SetMetadata authors a layer metadata field. Setting a key again
// replaces its value.
func (s *Stage) SetMetadata(key string, value any) {
	for i := range s.metadata {
		if s.metadata[i].key == key {
			s.metadata[i].value = value
			return
		}
	}
	s.metadata = append(s.metadata, metadataEntry{key: key, value: value})
}

// Metadata returns a layer metadata field.
func (s *Stage) Metadata(key string) (any, bool) {
	for _, m := range s.metadata {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

// GetPrim returns the prim at path, or nil.
func (s *Stage) GetPrim(path Path) *Prim {
	return s.prims[path]
}

// DefinePrim defines a prim of the given type at path, creating typeless
// ancestors as needed. Defining an existing prim turns it into a def and
// sets its type unless typeName is empty.
func (s *Stage) DefinePrim(path Path, typeName string) (*Prim, error) {
	p, err := s.ensurePrim(path, SpecifierDef)
	if err != nil {
		return nil, err
	}
	p.specifier = SpecifierDef
	if typeName != "" {
		if p.typeName != "" && p.typeName != typeName {
			return nil, fmt.Errorf("%w: %s is %s, not %s", ErrPrimExists, path, p.typeName, typeName)
		}
		p.typeName = typeName
	}
	return p, nil
}

// OverridePrim returns the prim at path, authoring an over (and over
// ancestors) if it does not exist.
func (s *Stage) OverridePrim(path Path) (*Prim, error) {
	return s.ensurePrim(path, SpecifierOver)
}

func (s *Stage) ensurePrim(path Path, spec Specifier) (*Prim, error) {
	if s.closed {
		return nil, ErrStageClosed
	}
	if path.IsAbsoluteRoot() || !validPrimPath(path) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if p := s.prims[path]; p != nil {
		return p, nil
	}
	parent := s.prims[path.Parent()]
	if parent == nil {
		var err error
		parent, err = s.ensurePrim(path.Parent(), spec)
		if err != nil {
			return nil, err
		}
	}
	p := &Prim{stage: s, path: path, specifier: spec}
	parent.children = append(parent.children, p)
	s.prims[path] = p
	return p, nil
}

// Save writes the layer to its backing file, replacing previous content.
func (s *Stage) Save() error {
	if s.closed {
		return ErrStageClosed
	}
	if s.file == nil {
		return nil
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	bw := bufio.NewWriter(s.file)
	if _, err := s.WriteTo(bw); err != nil {
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	return nil
}

// Close saves the layer and releases the backing file. Calling Close
// again is a no-op and returns nil.
func (s *Stage) Close() error {
	if s.closed {
		return nil
	}
	err := s.Save()
	s.closed = true
	if s.file != nil {
		if cerr := s.file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", s.path, cerr)
		}
		s.file = nil
	}
	return err
}

// Closed reports whether Close has been called.
func (s *Stage) Closed() bool { return s.closed }

// Traverse visits every prim below the pseudo-root depth-first in
// creation order.
func (s *Stage) Traverse(fn func(*Prim)) {
	var walk func(*Prim)
	walk = func(p *Prim) {
		for _, c := range p.children {
			fn(c)
			walk(c)
		}
	}
	walk(s.root)
}
