package orgmode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Render serializes a canonical Document to Org.
func (h *Handler) Render(doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	var parts []string

	if header := renderKeywords(doc.Meta); header != "" {
		parts = append(parts, header)
	}
	for _, block := range doc.Content {
		parts = append(parts, renderBlock(block))
	}

	out := strings.Join(parts, "\n\n")
	if out == "" {
		return "", nil
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func renderKeywords(meta ast.Meta) string {
	var sb strings.Builder
	if meta.Title != "" {
		sb.WriteString("#+TITLE: " + meta.Title + "\n")
	}
	for _, author := range meta.Authors {
		sb.WriteString("#+AUTHOR: " + author + "\n")
	}
	if meta.Date != "" {
		sb.WriteString("#+DATE: " + meta.Date + "\n")
	}
	keys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString("#+" + strings.ToUpper(k) + ": " + fmt.Sprintf("%v", meta.Extra[k]) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderBlock(block ast.Block) string {
	switch n := block.(type) {
	case *ast.Paragraph:
		return renderInlines(n.Content)

	case *ast.Heading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		return strings.Repeat("*", level) + " " + renderInlines(n.Content)

	case *ast.CodeBlock:
		open := "#+BEGIN_SRC"
		if n.Language != "" {
			open += " " + n.Language
		}
		if n.LineNumbers {
			open += " -n"
		}
		return open + "\n" + indentBody(n.Content) + "#+END_SRC"

	case *ast.BlockQuote:
		return renderQuote(n)

	case *ast.List:
		return renderList(n, "")

	case *ast.ThematicBreak:
		return "-----"

	case *ast.Raw:
		if n.Format == ast.OrgMode {
			return strings.TrimRight(n.Content, "\n")
		}
		return "#+BEGIN_EXPORT " + n.Format.String() + "\n" + indentBody(n.Content) + "#+END_EXPORT"

	case *ast.Container:
		return renderContainer(n)

	case *ast.Table:
		return renderTable(n)

	case *ast.MathBlock:
		return "$$" + strings.TrimSpace(n.Content) + "$$"

	default:
		return ""
	}
}

func renderQuote(n *ast.BlockQuote) string {
	name := "QUOTE"
	if n.Admonition != "" {
		name = strings.ToUpper(n.Admonition)
	}

	var inner []string
	for _, b := range n.Content {
		inner = append(inner, renderBlock(b))
	}
	if len(n.Attribution) > 0 {
		inner = append(inner, "-- "+renderInlines(n.Attribution))
	}
	return "#+BEGIN_" + name + "\n" + indentBody(strings.Join(inner, "\n\n")+"\n") + "#+END_" + name
}

func renderContainer(n *ast.Container) string {
	name := "CENTER"
	if len(n.Classes) > 0 {
		name = strings.ToUpper(n.Classes[0])
	}
	var inner []string
	for _, b := range n.Content {
		inner = append(inner, renderBlock(b))
	}
	return "#+BEGIN_" + name + "\n" + indentBody(strings.Join(inner, "\n\n")+"\n") + "#+END_" + name
}

func indentBody(s string) string {
	if s == "" {
		return ""
	}
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if line == "" {
			sb.WriteString("\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}

func renderList(n *ast.List, indent string) string {
	var sb strings.Builder
	for i, item := range n.Items {
		marker := "- "
		if n.Kind == ast.ListOrdered {
			num := i + 1
			if n.Start > 0 {
				num = n.Start + i
			}
			marker = fmt.Sprintf("%d. ", num)
		}
		if n.Kind == ast.ListTask {
			if item.Checked != nil && *item.Checked {
				marker = "- [X] "
			} else {
				marker = "- [ ] "
			}
		}

		first := true
		for _, b := range item.Content {
			switch c := b.(type) {
			case *ast.List:
				sb.WriteString(renderList(c, indent+"  ") + "\n")
			default:
				text := renderBlock(b)
				if first {
					sb.WriteString(indent + marker + text + "\n")
					first = false
				} else {
					pad := indent + strings.Repeat(" ", len(marker))
					for _, line := range strings.Split(text, "\n") {
						sb.WriteString(pad + line + "\n")
					}
				}
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderTable(n *ast.Table) string {
	var sb strings.Builder
	if n.Header != nil {
		sb.WriteString(renderRow(*n.Header) + "\n")
		sb.WriteString(separatorRow(len(n.Header.Cells)) + "\n")
	}
	for _, row := range n.Body {
		sb.WriteString(renderRow(row) + "\n")
	}
	if len(n.Caption) > 0 {
		// Org places captions before the table; emitted after here the
		// round trip would misparse, so the keyword leads.
		return "#+CAPTION: " + renderInlines(n.Caption) + "\n" + strings.TrimRight(sb.String(), "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func separatorRow(cells int) string {
	parts := make([]string, cells)
	for i := range parts {
		parts[i] = "---"
	}
	return "|" + strings.Join(parts, "+") + "|"
}

func renderRow(row ast.TableRow) string {
	var sb strings.Builder
	sb.WriteString("|")
	for _, cell := range row.Cells {
		sb.WriteString(" " + cellText(cell) + " |")
	}
	return sb.String()
}

func cellText(cell ast.TableCell) string {
	var parts []string
	for _, b := range cell.Content {
		if p, ok := b.(*ast.Paragraph); ok {
			parts = append(parts, renderInlines(p.Content))
		} else {
			parts = append(parts, strings.Join(strings.Fields(renderBlock(b)), " "))
		}
	}
	return strings.ReplaceAll(strings.Join(parts, " "), "|", `\vert{}`)
}

func renderInlines(inlines []ast.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		switch n := in.(type) {
		case *ast.Text:
			sb.WriteString(n.Content)
		case *ast.Emphasis:
			sb.WriteString("/" + renderInlines(n.Content) + "/")
		case *ast.Strong:
			sb.WriteString("*" + renderInlines(n.Content) + "*")
		case *ast.Strikethrough:
			sb.WriteString("+" + renderInlines(n.Content) + "+")
		case *ast.Code:
			sb.WriteString("~" + n.Content + "~")
		case *ast.Link:
			label := renderInlines(n.Content)
			if label == n.URL || label == "" {
				sb.WriteString("[[" + n.URL + "]]")
			} else {
				sb.WriteString("[[" + n.URL + "][" + label + "]]")
			}
		case *ast.Image:
			if n.Alt != "" {
				sb.WriteString("[[" + n.URL + "][" + n.Alt + "]]")
			} else {
				sb.WriteString("[[" + n.URL + "]]")
			}
		case *ast.Math:
			sb.WriteString("$" + n.Content + "$")
		case *ast.LineBreak:
			sb.WriteString(`\\` + "\n")
		case *ast.SoftBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
