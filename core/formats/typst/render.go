package typst

import (
	"fmt"
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Render serializes a canonical Document to Typst markup. Title and
// author metadata become a #set document(...) line so the information
// survives even though scripting lines are dropped on re-parse.
func (h *Handler) Render(doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	var parts []string

	if meta := renderMeta(doc.Meta); meta != "" {
		parts = append(parts, meta)
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

func renderMeta(meta ast.Meta) string {
	var args []string
	if meta.Title != "" {
		args = append(args, fmt.Sprintf("title: %q", meta.Title))
	}
	if len(meta.Authors) > 0 {
		quoted := make([]string, len(meta.Authors))
		for i, a := range meta.Authors {
			quoted[i] = fmt.Sprintf("%q", a)
		}
		args = append(args, "author: ("+strings.Join(quoted, ", ")+")")
	}
	if len(args) == 0 {
		return ""
	}
	return "#set document(" + strings.Join(args, ", ") + ")"
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
		if level > 6 {
			level = 6
		}
		return strings.Repeat("=", level) + " " + renderInlines(n.Content)

	case *ast.CodeBlock:
		return "```" + n.Language + "\n" + ensureNewline(n.Content) + "```"

	case *ast.BlockQuote:
		return renderQuote(n)

	case *ast.List:
		return renderList(n, "")

	case *ast.ThematicBreak:
		return "#line(length: 100%)"

	case *ast.Raw:
		if n.Format == ast.Typst {
			return strings.TrimRight(n.Content, "\n")
		}
		return "```" + n.Format.String() + "\n" + ensureNewline(n.Content) + "```"

	case *ast.Container:
		var sb strings.Builder
		sb.WriteString("#block[\n")
		for i, b := range n.Content {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(renderBlock(b))
		}
		sb.WriteString("\n]")
		return sb.String()

	case *ast.Table:
		return renderTable(n)

	case *ast.MathBlock:
		return "$ " + strings.TrimSpace(n.Content) + " $"

	default:
		return ""
	}
}

func renderQuote(n *ast.BlockQuote) string {
	var sb strings.Builder
	sb.WriteString("#quote(block: true")
	if len(n.Attribution) > 0 {
		sb.WriteString(", attribution: [" + renderInlines(n.Attribution) + "]")
	}
	sb.WriteString(")[\n")

	content := n.Content
	if n.Admonition != "" {
		// No admonition construct in Typst; a leading bold label keeps
		// the intent visible.
		sb.WriteString("*" + strings.ToUpper(n.Admonition) + ":*\n")
	}
	for i, b := range content {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(renderBlock(b))
	}
	sb.WriteString("\n]")
	return sb.String()
}

func renderList(n *ast.List, indent string) string {
	var sb strings.Builder
	for i, item := range n.Items {
		marker := "- "
		switch n.Kind {
		case ast.ListOrdered:
			if n.Start > 0 && n.Start != 1 {
				marker = fmt.Sprintf("%d. ", n.Start+i)
			} else {
				marker = "+ "
			}
		case ast.ListTask:
			// Checkboxes have no markup form; the state rides as text.
			if item.Checked != nil && *item.Checked {
				marker = "- [x] "
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
	columns := 0
	if n.Header != nil {
		columns = len(n.Header.Cells)
	} else if len(n.Body) > 0 {
		columns = len(n.Body[0].Cells)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#table(\n  columns: %d,\n", columns))
	if n.Header != nil {
		sb.WriteString("  table.header(" + renderCells(n.Header.Cells) + "),\n")
	}
	for _, row := range n.Body {
		sb.WriteString("  " + renderCells(row.Cells) + ",\n")
	}
	sb.WriteString(")")
	return sb.String()
}

func renderCells(cells []ast.TableCell) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = "[" + cellText(cell) + "]"
	}
	return strings.Join(parts, ", ")
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
	return strings.Join(parts, " ")
}

func renderInlines(inlines []ast.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		switch n := in.(type) {
		case *ast.Text:
			sb.WriteString(n.Content)
		case *ast.Emphasis:
			sb.WriteString("_" + renderInlines(n.Content) + "_")
		case *ast.Strong:
			sb.WriteString("*" + renderInlines(n.Content) + "*")
		case *ast.Strikethrough:
			sb.WriteString("#strike[" + renderInlines(n.Content) + "]")
		case *ast.Code:
			sb.WriteString("`" + n.Content + "`")
		case *ast.Link:
			label := renderInlines(n.Content)
			if label == n.URL {
				sb.WriteString(fmt.Sprintf("#link(%q)", n.URL))
			} else {
				sb.WriteString(fmt.Sprintf("#link(%q)[%s]", n.URL, label))
			}
		case *ast.Image:
			sb.WriteString(renderImage(n))
		case *ast.Math:
			sb.WriteString("$" + n.Content + "$")
		case *ast.LineBreak:
			sb.WriteString(" \\\n")
		case *ast.SoftBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderImage(n *ast.Image) string {
	args := []string{fmt.Sprintf("%q", n.URL)}
	if n.Alt != "" {
		args = append(args, fmt.Sprintf("alt: %q", n.Alt))
	}
	if n.Width != "" {
		args = append(args, "width: "+n.Width)
	}
	return "#image(" + strings.Join(args, ", ") + ")"
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
