package djot

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
)

// parseInlines scans a line of djot text. Djot's inline markers are
// unambiguous: _emphasis_, *strong*, {-deleted-}, `verbatim`,
// $`math`$, [text](url), ![alt](url), [^ref].
func parseInlines(text string) []ast.Inline {
	var out []ast.Inline
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			out = append(out, &ast.Text{Content: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text):
			// Escaped punctuation is literal.
			plain.WriteByte(text[i+1])
			i += 2
			continue

		case strings.HasPrefix(text[i:], "$`"):
			if end := strings.Index(text[i+2:], "`$"); end >= 0 {
				flush()
				out = append(out, &ast.Math{Content: text[i+2 : i+2+end]})
				i += end + 4
				continue
			}

		case c == '`':
			if end := strings.IndexByte(text[i+1:], '`'); end > 0 {
				flush()
				out = append(out, &ast.Code{Content: text[i+1 : i+1+end]})
				i += end + 2
				continue
			}

		case strings.HasPrefix(text[i:], "{-"):
			if end := strings.Index(text[i+2:], "-}"); end >= 0 {
				flush()
				out = append(out, &ast.Strikethrough{Content: parseInlines(text[i+2 : i+2+end])})
				i += end + 4
				continue
			}

		case c == '_':
			if body, next, ok := spanBody(text, i, '_'); ok {
				flush()
				out = append(out, &ast.Emphasis{Content: parseInlines(body)})
				i = next
				continue
			}

		case c == '*':
			if body, next, ok := spanBody(text, i, '*'); ok {
				flush()
				out = append(out, &ast.Strong{Content: parseInlines(body)})
				i = next
				continue
			}

		case strings.HasPrefix(text[i:], "!["):
			if label, url, next, ok := linkParts(text, i+1); ok {
				flush()
				out = append(out, &ast.Image{URL: url, Alt: label})
				i = next
				continue
			}

		case c == '[' && !strings.HasPrefix(text[i:], "[^"):
			if label, url, next, ok := linkParts(text, i); ok {
				flush()
				out = append(out, &ast.Link{URL: url, Content: parseInlines(label)})
				i = next
				continue
			}
		}

		plain.WriteByte(c)
		i++
	}
	flush()
	return out
}

// spanBody extracts the body of a _..._ or *...* span. Djot forbids
// whitespace directly inside the markers.
func spanBody(text string, start int, delim byte) (body string, next int, ok bool) {
	end := strings.IndexByte(text[start+1:], delim)
	if end <= 0 {
		return "", 0, false
	}
	end += start + 1
	body = text[start+1 : end]
	if strings.HasPrefix(body, " ") || strings.HasSuffix(body, " ") {
		return "", 0, false
	}
	return body, end + 1, true
}

// linkParts extracts "[label](url)" starting at the opening bracket.
func linkParts(text string, start int) (label, url string, next int, ok bool) {
	close := strings.IndexByte(text[start:], ']')
	if close < 0 {
		return "", "", 0, false
	}
	close += start
	if close+1 >= len(text) || text[close+1] != '(' {
		return "", "", 0, false
	}
	end := strings.IndexByte(text[close+2:], ')')
	if end < 0 {
		return "", "", 0, false
	}
	end += close + 2
	return text[start+1 : close], text[close+2 : end], end + 1, true
}
