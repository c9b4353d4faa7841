package mysqlgix

import "strings"

// rewriteNamedToQuestion replaces :name host-variable markers with `?`,
// preserving quoted string contents and any already-present `?`
// markers unchanged (spec.md §9: the mysql backend keeps `?` as its
// native placeholder, unlike pgsql's `$n`).
func rewriteNamedToQuestion(sql string) string {
	var out strings.Builder
	inSingle, inDouble := false, false

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
		case c == ':' && i+1 < len(runes) && isNameStart(runes[i+1]):
			j := i + 1
			for j < len(runes) && isNameChar(runes[j]) {
				j++
			}
			out.WriteString("?")
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
