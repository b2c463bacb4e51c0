// Package formats parses the Ragnarok Online resources the exporter reads:
// RSM models and GND ground meshes.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/midgard-usd/pkg/encoding"
)

// ErrInvalidCount is returned when a stored element count is negative or
// implausibly large.
var ErrInvalidCount = errors.New("invalid element count")

// binReader reads little-endian fields and keeps the first error. Once an
// error is recorded every later read is a no-op returning zero values.
type binReader struct {
	r         *bytes.Reader
	truncated error
	err       error
}

func newBinReader(data []byte, truncated error) *binReader {
	return &binReader{r: bytes.NewReader(data), truncated: truncated}
}

func (b *binReader) offset() int64 {
	return b.r.Size() - int64(b.r.Len())
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}
	off := b.offset()
	if err := binary.Read(b.r, binary.LittleEndian, v); err != nil {
		b.err = fmt.Errorf("%w at offset %d", b.truncated, off)
	}
}

func (b *binReader) bytes(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || n > b.r.Len() {
		b.err = fmt.Errorf("%w at offset %d", b.truncated, b.offset())
		return nil
	}
	buf := make([]byte, n)
	io.ReadFull(b.r, buf)
	return buf
}

func (b *binReader) skip(n int) { b.bytes(n) }

func (b *binReader) u8() (v uint8)    { b.read(&v); return }
func (b *binReader) i16() (v int16)   { b.read(&v); return }
func (b *binReader) i32() (v int32)   { b.read(&v); return }
func (b *binReader) u32() (v uint32)  { b.read(&v); return }
func (b *binReader) f32() (v float32) { b.read(&v); return }

func (b *binReader) vec3() (v [3]float32) { b.read(&v); return }

// name reads a fixed-size NUL-padded EUC-KR string.
func (b *binReader) name(size int) string {
	field := b.bytes(size)
	if field == nil {
		return ""
	}
	return encoding.FixedName(field)
}

// count reads an int32 element count and checks it against limit.
func (b *binReader) count(what string, limit int) int {
	n := b.i32()
	if b.err != nil {
		return 0
	}
	if n < 0 || int(n) > limit {
		b.err = fmt.Errorf("%w: %d %s", ErrInvalidCount, n, what)
		return 0
	}
	return int(n)
}

// fail records err unless an error is already set.
func (b *binReader) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
