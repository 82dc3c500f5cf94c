package transform

import (
	"sort"
	"strings"
)

// span is a half-open byte range [start, end).
type span struct {
	start, end int
}

// keywords after which a slash starts a regular expression.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// literalSpans returns the ranges of code covered by string, template,
// regular expression and comment text. Expressions inside template
// substitutions are code and are not covered.
func literalSpans(code string) []span {
	var (
		spans     []span
		templates []int // brace depth at each open "${"
		depth     int
		prev      byte
		word      string
	)

	// template scans template text from i and records it; it reports the
	// index after the chunk and whether a substitution was opened.
	template := func(start, i int) (int, bool) {
		for i < len(code) {
			switch code[i] {
			case '\\':
				i += 2
				continue
			case '`':
				spans = append(spans, span{start, i + 1})
				return i + 1, false
			case '$':
				if i+1 < len(code) && code[i+1] == '{' {
					spans = append(spans, span{start, i + 2})
					return i + 2, true
				}
			}
			i++
		}
		spans = append(spans, span{start, len(code)})
		return len(code), false
	}

	i := 0
	for i < len(code) {
		c := code[i]
		switch {
		case c == '"' || c == '\'':
			end := i + 1
			for end < len(code) && code[end] != c && code[end] != '\n' {
				if code[end] == '\\' {
					end++
				}
				end++
			}
			end = min(end+1, len(code))
			spans = append(spans, span{i, end})
			i, prev, word = end, c, ""
			continue

		case c == '`':
			end, open := template(i, i+1)
			if open {
				templates = append(templates, depth)
				depth++
			}
			i, prev, word = end, '`', ""
			continue

		case c == '{':
			depth++

		case c == '}':
			depth--
			if n := len(templates); n > 0 && templates[n-1] == depth {
				templates = templates[:n-1]
				end, open := template(i, i+1)
				if open {
					templates = append(templates, depth)
					depth++
				}
				i, prev, word = end, '`', ""
				continue
			}

		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			end := strings.IndexByte(code[i:], '\n')
			if end < 0 {
				end = len(code) - i
			}
			spans = append(spans, span{i, i + end})
			i += end
			continue

		case c == '/' && i+1 < len(code) && code[i+1] == '*':
			end := strings.Index(code[i+2:], "*/")
			if end < 0 {
				end = len(code)
			} else {
				end = i + 2 + end + 2
			}
			spans = append(spans, span{i, end})
			i = end
			continue

		case c == '/' && regexAllowed(prev, word):
			end := i + 1
			class := false
			for end < len(code) && code[end] != '\n' {
				ch := code[end]
				if ch == '\\' {
					end += 2
					continue
				}
				if ch == '[' {
					class = true
				} else if ch == ']' {
					class = false
				} else if ch == '/' && !class {
					break
				}
				end++
			}
			end = min(end+1, len(code))
			for end < len(code) && isIdentByte(code[end]) {
				end++
			}
			spans = append(spans, span{i, end})
			i, prev, word = end, '/', ""
			continue

		case isIdentByte(c):
			start := i
			for i < len(code) && isIdentByte(code[i]) {
				i++
			}
			word = code[start:i]
			prev = code[i-1]
			continue

		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		}

		prev, word = c, ""
		i++
	}
	return spans
}

func regexAllowed(prev byte, word string) bool {
	if word != "" {
		return regexKeywords[word]
	}
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}

// inLiteral reports whether pos falls inside one of spans, which must be
// sorted by start.
func inLiteral(spans []span, pos int) bool {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].end > pos })
	return i < len(spans) && spans[i].start <= pos
}
