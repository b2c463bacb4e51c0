// Package grftest writes small GRF 0x200 archives for tests.
package grftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"sort"
	"strings"

	"github.com/Faultbox/midgard-usd/pkg/encoding"
)

// File is one archive member. Names use '/' or '\' and may contain
// Korean characters; they are stored EUC-KR encoded with backslashes.
type File struct {
	Name    string
	Content []byte
	// Stored skips compression.
	Stored bool
}

// Write creates a GRF archive at path holding files.
func Write(path string, files []File) error {
	var body, table bytes.Buffer
	for _, f := range files {
		data := f.Content
		if !f.Stored {
			var z bytes.Buffer
			zw := zlib.NewWriter(&z)
			zw.Write(f.Content)
			zw.Close()
			data = z.Bytes()
		}
		aligned := (len(data) + 7) &^ 7
		offset := body.Len()
		body.Write(data)
		body.Write(make([]byte, aligned-len(data)))

		table.Write(encoding.EncodeEUCKR(strings.ReplaceAll(f.Name, "/", "\\")))
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(data)))
		binary.Write(&table, binary.LittleEndian, uint32(aligned))
		binary.Write(&table, binary.LittleEndian, uint32(len(f.Content)))
		table.WriteByte(0x01)
		binary.Write(&table, binary.LittleEndian, uint32(offset))
	}

	var zt bytes.Buffer
	zw := zlib.NewWriter(&zt)
	zw.Write(table.Bytes())
	zw.Close()

	var out bytes.Buffer
	header := make([]byte, 46)
	copy(header, "Master of Magic")
	binary.LittleEndian.PutUint32(header[30:], uint32(body.Len()))
	binary.LittleEndian.PutUint32(header[34:], 0)
	binary.LittleEndian.PutUint32(header[38:], uint32(len(files)+7))
	binary.LittleEndian.PutUint32(header[42:], 0x200)
	out.Write(header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(zt.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(zt.Bytes())
	return os.WriteFile(path, out.Bytes(), 0644)
}

// FromMap builds a file list from name -> content, sorted by name.
func FromMap(m map[string][]byte) []File {
	files := make([]File, 0, len(m))
	for name, content := range m {
		files = append(files, File{Name: name, Content: content})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}
