package util

import (
	"strings"
	"unicode"
)

// Exported turns a snake_case or lowerCamel identifier into an exported Go identifier,
// so that bool_false becomes BoolFalse
func Exported(ident string) string {
	sb := strings.Builder{}
	upper := true
	for _, r := range ident {
		if r == '_' {
			if sb.Len() == 0 {
				continue
			}
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "X"
	}
	if first := []rune(sb.String())[0]; unicode.IsDigit(first) {
		return "X" + sb.String()
	}
	return sb.String()
}
