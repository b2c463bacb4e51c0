// Package grf reads Ragnarok Online GRF 0x200 archives.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/midgard-usd/pkg/encoding"
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
	version200 = 0x200

	entryFile      = 0x01
	entryEncrypted = 0x06
)

// Archive errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrCorruptTable       = errors.New("corrupt GRF file table")
	ErrNotFound           = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted GRF entries are not supported")
)

// Header is the fixed GRF file header.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry describes one stored file.
type Entry struct {
	Name             string // normalized lookup path
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Archive is an opened GRF archive. Reads use ReadAt and are safe for
// concurrent use.
type Archive struct {
	path    string
	file    *os.File
	header  Header
	entries map[string]*Entry
}

// Open opens a GRF archive and loads its file table.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	a := &Archive{path: path, file: f, entries: make(map[string]*Entry)}
	if err := a.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	if err := a.readTable(); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s file table: %w", path, err)
	}
	return a, nil
}

// Path returns the archive file path.
func (a *Archive) Path() string { return a.path }

// Close releases the archive file. Closing twice is a no-op.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

func (a *Archive) readHeader() error {
	sr := io.NewSectionReader(a.file, 0, headerSize)
	if err := binary.Read(sr, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != version200 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readTable() error {
	off := int64(a.header.TableOffset) + headerSize
	var sizes [2]uint32
	if err := binary.Read(io.NewSectionReader(a.file, off, 8), binary.LittleEndian, &sizes); err != nil {
		return err
	}
	compressed := make([]byte, sizes[0])
	if _, err := a.file.ReadAt(compressed, off+8); err != nil {
		return err
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	defer zr.Close()
	table := make([]byte, sizes[1])
	if _, err := io.ReadFull(zr, table); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	count := int64(a.header.FileCount) - int64(a.header.Seed) - 7
	pos := 0
	for i := int64(0); i < count; i++ {
		end := bytes.IndexByte(table[pos:], 0)
		if end < 0 || pos+end+1+17 > len(table) {
			return fmt.Errorf("%w: entry %d", ErrCorruptTable, i)
		}
		name := encoding.DecodeEUCKR(table[pos : pos+end])
		pos += end + 1

		e := &Entry{
			Name:             encoding.NormalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(table[pos:]),
			AlignedSize:      binary.LittleEndian.Uint32(table[pos+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[pos+8:]),
			Flags:            table[pos+12],
			Offset:           binary.LittleEndian.Uint32(table[pos+13:]),
		}
		pos += 17
		if e.Flags&entryFile != 0 {
			a.entries[e.Name] = e
		}
	}
	return nil
}

// List returns every stored file path, sorted.
func (a *Archive) List() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored files.
func (a *Archive) Len() int { return len(a.entries) }

// Stat returns the entry for a path.
func (a *Archive) Stat(path string) (Entry, bool) {
	e, ok := a.entries[encoding.NormalizePath(path)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Contains reports whether the archive stores path.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.NormalizePath(path)]
	return ok
}

// Read returns the decompressed content of path.
func (a *Archive) Read(path string) ([]byte, error) {
	e, ok := a.entries[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if e.Flags&entryEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	raw := make([]byte, e.CompressedSize)
	if _, err := a.file.ReadAt(raw, int64(e.Offset)+headerSize); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if e.CompressedSize == e.UncompressedSize {
		return raw, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer zr.Close()
	out := make([]byte, e.UncompressedSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return out, nil
}
