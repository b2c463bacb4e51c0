// Package encoding decodes the EUC-KR names stored in Ragnarok Online
// resources.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// DecodeEUCKR converts EUC-KR bytes to UTF-8. Pure ASCII input is returned
// unchanged; undecodable input is returned as-is.
func DecodeEUCKR(data []byte) string {
	if isASCII(data) {
		return string(data)
	}
	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil || !utf8.Valid(out) {
		return string(data)
	}
	return string(out)
}

// EncodeEUCKR converts a UTF-8 string to EUC-KR. Strings that cannot be
// encoded are returned as their UTF-8 bytes.
func EncodeEUCKR(s string) []byte {
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// FixedName decodes a fixed-size, NUL-padded EUC-KR field.
func FixedName(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return DecodeEUCKR(field)
}

// PutFixedName encodes s into a NUL-padded field of size bytes, truncating
// if needed.
func PutFixedName(s string, size int) []byte {
	field := make([]byte, size)
	copy(field, EncodeEUCKR(s))
	return field
}

// NormalizePath converts a resource path to the lookup form used by
// archives: forward slashes, lower case.
func NormalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
