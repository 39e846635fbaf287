package orgmode

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
)

// imageSuffixes marks link targets that org displays inline.
var imageSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// parseInlines scans a line of org text. Emphasis markers only open at
// a word boundary, matching org's regexp-based fontification rules.
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
		case strings.HasPrefix(text[i:], "[["):
			if node, next, ok := parseBracketLink(text, i); ok {
				flush()
				out = append(out, node)
				i = next
				continue
			}

		case c == '~' || c == '=':
			if body, next, ok := spanBody(text, i, c); ok {
				flush()
				out = append(out, &ast.Code{Content: body})
				i = next
				continue
			}

		case c == '*' && atBoundary(text, i):
			if body, next, ok := spanBody(text, i, '*'); ok {
				flush()
				out = append(out, &ast.Strong{Content: parseInlines(body)})
				i = next
				continue
			}

		case c == '/' && atBoundary(text, i):
			if body, next, ok := spanBody(text, i, '/'); ok {
				flush()
				out = append(out, &ast.Emphasis{Content: parseInlines(body)})
				i = next
				continue
			}

		case c == '+' && atBoundary(text, i):
			if body, next, ok := spanBody(text, i, '+'); ok {
				flush()
				out = append(out, &ast.Strikethrough{Content: parseInlines(body)})
				i = next
				continue
			}

		case c == '$':
			if end := strings.IndexByte(text[i+1:], '$'); end > 0 {
				flush()
				out = append(out, &ast.Math{Content: text[i+1 : i+1+end]})
				i += end + 2
				continue
			}

		case strings.HasPrefix(text[i:], "http://") || strings.HasPrefix(text[i:], "https://"):
			end := i
			for end < len(text) && !strings.ContainsRune(" \t[]", rune(text[end])) {
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

// parseBracketLink handles [[target][description]] and [[target]].
// File targets with image extensions become images.
func parseBracketLink(text string, start int) (ast.Inline, int, bool) {
	end := strings.Index(text[start:], "]]")
	if end < 0 {
		return nil, 0, false
	}
	end += start
	inner := text[start+2 : end]

	target := inner
	desc := ""
	if sep := strings.Index(inner, "]["); sep >= 0 {
		target = inner[:sep]
		desc = inner[sep+2:]
	}

	url := strings.TrimPrefix(target, "file:")
	if isImagePath(url) {
		return &ast.Image{URL: url, Alt: desc}, end + 2, true
	}

	label := desc
	if label == "" {
		label = url
	}
	return &ast.Link{
		URL:     url,
		Content: []ast.Inline{&ast.Text{Content: label}},
	}, end + 2, true
}

func isImagePath(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// spanBody extracts the body of an emphasis span. Org forbids
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
	if end+1 < len(text) && isWordByte(text[end+1]) {
		return "", 0, false
	}
	return body, end + 1, true
}

func atBoundary(text string, i int) bool {
	if i == 0 {
		return true
	}
	return !isWordByte(text[i-1])
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
