package typst

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
)

// parseInlines scans Typst markup-mode text into inline nodes.
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
			plain.WriteByte(text[i+1])
			i += 2
			continue

		case c == '`':
			if end := strings.IndexByte(text[i+1:], '`'); end > 0 {
				flush()
				out = append(out, &ast.Code{Content: text[i+1 : i+1+end]})
				i += end + 2
				continue
			}

		case c == '$':
			if end := strings.IndexByte(text[i+1:], '$'); end > 0 {
				flush()
				out = append(out, &ast.Math{Content: strings.TrimSpace(text[i+1 : i+1+end])})
				i += end + 2
				continue
			}

		case c == '*':
			if body, next, ok := spanBody(text, i, '*'); ok {
				flush()
				out = append(out, &ast.Strong{Content: parseInlines(body)})
				i = next
				continue
			}

		case c == '_':
			if body, next, ok := spanBody(text, i, '_'); ok {
				flush()
				out = append(out, &ast.Emphasis{Content: parseInlines(body)})
				i = next
				continue
			}

		case strings.HasPrefix(text[i:], "#strike["):
			if body, next, ok := bracketBody(text, i+len("#strike")); ok {
				flush()
				out = append(out, &ast.Strikethrough{Content: parseInlines(body)})
				i = next
				continue
			}

		case strings.HasPrefix(text[i:], "#link("):
			if node, next, ok := parseLink(text, i); ok {
				flush()
				out = append(out, node)
				i = next
				continue
			}

		case strings.HasPrefix(text[i:], "#image("):
			if end := matchParen(text, i+len("#image")); end > 0 {
				flush()
				out = append(out, parseImage(text[i:end]))
				i = end
				continue
			}

		case strings.HasPrefix(text[i:], "http://") || strings.HasPrefix(text[i:], "https://"):
			end := i
			for end < len(text) && !strings.ContainsRune(" \t[]()", rune(text[end])) {
				end++
			}
			url := strings.TrimRight(text[i:end], ".,;:")
			flush()
			out = append(out, &ast.Link{
				URL:     url,
				Content: []ast.Inline{&ast.Text{Content: url}},
			})
			i += len(url)
			continue
		}

		plain.WriteByte(c)
		i++
	}
	flush()
	return out
}

// parseLink handles #link("url")[label] and #link("url").
func parseLink(text string, start int) (ast.Inline, int, bool) {
	end := matchParen(text, start+len("#link"))
	if end < 0 {
		return nil, 0, false
	}
	url := strings.Trim(text[start+len("#link(") : end-1], `"`)

	link := &ast.Link{URL: url}
	next := end
	if next < len(text) && text[next] == '[' {
		if body, after, ok := bracketBody(text, next); ok {
			link.Content = parseInlines(body)
			next = after
		}
	}
	if len(link.Content) == 0 {
		link.Content = []ast.Inline{&ast.Text{Content: url}}
	}
	return link, next, true
}

// bracketBody extracts the balanced [..] body starting at open.
func bracketBody(text string, open int) (string, int, bool) {
	if open >= len(text) || text[open] != '[' {
		return "", 0, false
	}
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[open+1 : i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// spanBody extracts a *strong* or _emphasis_ span body.
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
