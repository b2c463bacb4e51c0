package export

import (
	"strings"
	"unicode"
)

var nameReplacer = strings.NewReplacer(
	" ", "_",
	":", "_",
	";", "_",
	"(", "",
	")", "",
)

// Sanitize maps a host object name to a prim name segment. Spaces, colons
// and semicolons become underscores; parentheses are dropped.
func Sanitize(name string) string {
	return nameReplacer.Replace(name)
}

// repairName turns a sanitized name into a valid prim name. Runes other than
// letters, digits and underscores become underscores and a leading digit gets
// an underscore prefix. An empty name becomes "_".
func repairName(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
		default:
			r = '_'
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
