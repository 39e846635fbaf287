package asciidoc

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
)

// parseInlines scans a single line of AsciiDoc text into inline nodes.
// Constrained formatting pairs only open at a word boundary and close
// before one, matching how the common cases are written in practice.
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
		case c == '`':
			if end := findDelim(text, i+1, '`'); end > 0 {
				flush()
				out = append(out, &ast.Code{Content: text[i+1 : end]})
				i = end + 1
				continue
			}

		case c == '*' && atWordStart(text, i):
			if end := findDelim(text, i+1, '*'); end > 0 && atWordEnd(text, end) {
				flush()
				out = append(out, &ast.Strong{Content: parseInlines(text[i+1 : end])})
				i = end + 1
				continue
			}

		case c == '_' && atWordStart(text, i):
			if end := findDelim(text, i+1, '_'); end > 0 && atWordEnd(text, end) {
				flush()
				out = append(out, &ast.Emphasis{Content: parseInlines(text[i+1 : end])})
				i = end + 1
				continue
			}

		case strings.HasPrefix(text[i:], "[line-through]#"):
			body := i + len("[line-through]#")
			if end := findDelim(text, body, '#'); end > 0 {
				flush()
				out = append(out, &ast.Strikethrough{Content: parseInlines(text[body:end])})
				i = end + 1
				continue
			}

		case strings.HasPrefix(text[i:], "link:"):
			if node, next := parseMacro(text, i+len("link:")); node != nil {
				flush()
				url, label := node[0], node[1]
				link := &ast.Link{URL: url}
				if label != "" {
					link.Content = parseInlines(label)
				} else {
					link.Content = []ast.Inline{&ast.Text{Content: url}}
				}
				out = append(out, link)
				i = next
				continue
			}

		case strings.HasPrefix(text[i:], "image:") && !strings.HasPrefix(text[i:], "image::"):
			if node, next := parseMacro(text, i+len("image:")); node != nil {
				flush()
				out = append(out, &ast.Image{URL: node[0], Alt: node[1]})
				i = next
				continue
			}

		case strings.HasPrefix(text[i:], "stem:["):
			body := i + len("stem:[")
			if end := strings.IndexByte(text[body:], ']'); end >= 0 {
				flush()
				out = append(out, &ast.Math{Content: text[body : body+end]})
				i = body + end + 1
				continue
			}

		case strings.HasPrefix(text[i:], "footnote:["):
			body := i + len("footnote:[")
			if end := strings.IndexByte(text[body:], ']'); end >= 0 {
				// No footnote node in the tree; keep the note text
				// inline in parentheses.
				flush()
				plain.WriteString(" (" + text[body:body+end] + ")")
				i = body + end + 1
				continue
			}

		case strings.HasPrefix(text[i:], "<<"):
			if end := strings.Index(text[i:], ">>"); end > 2 {
				flush()
				ref := text[i+2 : i+end]
				target, label := ref, ref
				if comma := strings.Index(ref, ","); comma >= 0 {
					target = strings.TrimSpace(ref[:comma])
					label = strings.TrimSpace(ref[comma+1:])
				}
				out = append(out, &ast.Link{
					URL:     "#" + target,
					Content: []ast.Inline{&ast.Text{Content: label}},
				})
				i += end + 2
				continue
			}

		case strings.HasPrefix(text[i:], "http://") || strings.HasPrefix(text[i:], "https://"):
			end := i
			for end < len(text) && !strings.ContainsRune(" \t[]", rune(text[end])) {
				end++
			}
			url := strings.TrimRight(text[i:end], ".,;:")
			// A bracketed label directly after the URL names the link.
			rest := i + len(url)
			label := url
			next := rest
			if rest < len(text) && text[rest] == '[' {
				if close := strings.IndexByte(text[rest:], ']'); close > 0 {
					label = text[rest+1 : rest+close]
					next = rest + close + 1
				}
			}
			flush()
			out = append(out, &ast.Link{
				URL:     url,
				Content: []ast.Inline{&ast.Text{Content: label}},
			})
			i = next
			continue
		}

		plain.WriteByte(c)
		i++
	}
	flush()
	return out
}

// parseMacro reads "target[label]" after a macro prefix, returning the
// target and first positional attribute.
func parseMacro(text string, start int) (parts *[2]string, next int) {
	open := strings.IndexByte(text[start:], '[')
	if open < 0 {
		return nil, start
	}
	open += start
	close := strings.IndexByte(text[open:], ']')
	if close < 0 {
		return nil, start
	}
	close += open
	target := text[start:open]
	if target == "" || strings.ContainsAny(target, " \t") {
		return nil, start
	}
	label := text[open+1 : close]
	if comma := strings.Index(label, ","); comma >= 0 {
		label = label[:comma]
	}
	return &[2]string{target, strings.TrimSpace(label)}, close + 1
}

// findDelim locates the next unescaped delimiter with content before it.
func findDelim(text string, start int, delim byte) int {
	for i := start; i < len(text); i++ {
		if text[i] == delim {
			if i == start {
				return -1
			}
			return i
		}
	}
	return -1
}

func atWordStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	prev := text[i-1]
	return prev == ' ' || prev == '\t' || prev == '(' || prev == '"'
}

func atWordEnd(text string, i int) bool {
	if i+1 >= len(text) {
		return true
	}
	next := text[i+1]
	return !(next >= 'a' && next <= 'z' || next >= 'A' && next <= 'Z' || next >= '0' && next <= '9')
}
