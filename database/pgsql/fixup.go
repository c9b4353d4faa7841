package pgsql

import (
	"strconv"
	"strings"
)

// FixupParameters rewrites `?` and `:name` placeholders in sql to `$n`
// in first-appearance order, preserving quoted string contents
// verbatim (spec.md §4.6 prepare(); this is the driver-level rewrite,
// distinct from the preprocessor's compile-time rewrite in
// esql/parser.go).
func FixupParameters(sql string) string {
	var out strings.Builder
	n := 0
	inSingle := false
	inDouble := false

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if inSingle {
			out.WriteRune(c)
			if c == '\'' {
				inSingle = false
			}
			continue
		}
		if inDouble {
			out.WriteRune(c)
			if c == '"' {
				inDouble = false
			}
			continue
		}
		switch {
		case c == '\'':
			inSingle = true
			out.WriteRune(c)
		case c == '"':
			inDouble = true
			out.WriteRune(c)
		case c == '?':
			n++
			out.WriteString("$")
			out.WriteString(strconv.Itoa(n))
		case c == ':' && i+1 < len(runes) && isNameStart(runes[i+1]):
			j := i + 1
			for j < len(runes) && isNameChar(runes[j]) {
				j++
			}
			n++
			out.WriteString("$")
			out.WriteString(strconv.Itoa(n))
			i = j - 1
		default:
			out.WriteRune(c)
		}
	}
	return out.String()
}

func isNameStart(c rune) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isNameChar(c rune) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-'
}

