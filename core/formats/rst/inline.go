package rst

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
)

// parseInlines scans reStructuredText inline markup: **strong**,
// *emphasis*, ``literal``, interpreted roles, and `label <url>`_
// references.
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
		switch {
		case strings.HasPrefix(text[i:], "``"):
			if end := strings.Index(text[i+2:], "``"); end >= 0 {
				flush()
				out = append(out, &ast.Code{Content: text[i+2 : i+2+end]})
				i += end + 4
				continue
			}

		case strings.HasPrefix(text[i:], "**"):
			if end := strings.Index(text[i+2:], "**"); end > 0 {
				flush()
				out = append(out, &ast.Strong{Content: parseInlines(text[i+2 : i+2+end])})
				i += end + 4
				continue
			}

		case strings.HasPrefix(text[i:], ":math:`"):
			body := i + len(":math:`")
			if end := strings.IndexByte(text[body:], '`'); end >= 0 {
				flush()
				out = append(out, &ast.Math{Content: text[body : body+end]})
				i = body + end + 1
				continue
			}

		case strings.HasPrefix(text[i:], ":ref:`"):
			body := i + len(":ref:`")
			if end := strings.IndexByte(text[body:], '`'); end >= 0 {
				flush()
				out = append(out, refLink(text[body:body+end]))
				i = body + end + 1
				continue
			}

		case strings.HasPrefix(text[i:], "[STRIKEOUT:"):
			body := i + len("[STRIKEOUT:")
			if end := strings.IndexByte(text[body:], ']'); end >= 0 {
				flush()
				out = append(out, &ast.Strikethrough{Content: parseInlines(text[body : body+end])})
				i = body + end + 1
				continue
			}

		case text[i] == '`':
			if node, next, ok := parseReference(text, i); ok {
				flush()
				out = append(out, node)
				i = next
				continue
			}

		case text[i] == '*':
			if end := strings.IndexByte(text[i+1:], '*'); end > 0 {
				body := text[i+1 : i+1+end]
				if !strings.HasPrefix(body, " ") && !strings.HasSuffix(body, " ") {
					flush()
					out = append(out, &ast.Emphasis{Content: parseInlines(body)})
					i += end + 2
					continue
				}
			}

		case strings.HasPrefix(text[i:], "http://") || strings.HasPrefix(text[i:], "https://"):
			end := i
			for end < len(text) && !strings.ContainsRune(" \t<>`", rune(text[end])) {
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

		plain.WriteByte(text[i])
		i++
	}
	flush()
	return out
}

func refLink(body string) ast.Inline {
	label := body
	target := body
	if open := strings.LastIndex(body, "<"); open >= 0 && strings.HasSuffix(body, ">") {
		label = strings.TrimSpace(body[:open])
		target = body[open+1 : len(body)-1]
	}
	if label == "" {
		label = target
	}
	return &ast.Link{
		URL:     "#" + target,
		Content: []ast.Inline{&ast.Text{Content: label}},
	}
}

// parseReference handles `label <url>`_ external references and plain
// `target`_ links.
func parseReference(text string, start int) (ast.Inline, int, bool) {
	end := strings.IndexByte(text[start+1:], '`')
	if end < 0 {
		return nil, 0, false
	}
	end += start + 1
	if end+1 >= len(text) || text[end+1] != '_' {
		return nil, 0, false
	}
	next := end + 2
	// Anonymous references use a double underscore.
	if next < len(text) && text[next] == '_' {
		next++
	}

	body := text[start+1 : end]
	label := body
	url := body
	if open := strings.LastIndex(body, "<"); open >= 0 && strings.HasSuffix(body, ">") {
		label = strings.TrimSpace(body[:open])
		url = body[open+1 : len(body)-1]
	}
	if label == "" {
		label = url
	}
	return &ast.Link{
		URL:     url,
		Content: []ast.Inline{&ast.Text{Content: label}},
	}, next, true
}
