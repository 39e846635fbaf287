package djot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Render serializes a canonical Document to djot.
func (h *Handler) Render(doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	var parts []string
	for _, block := range doc.Content {
		parts = append(parts, renderBlock(block))
	}
	out := strings.Join(parts, "\n\n")
	if out == "" {
		return "", nil
	}
	return strings.TrimRight(out, "\n") + "\n", nil
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
		var sb strings.Builder
		if n.ID != "" {
			sb.WriteString("{#" + n.ID + "}\n")
		}
		sb.WriteString(strings.Repeat("#", level) + " " + renderInlines(n.Content))
		return sb.String()

	case *ast.CodeBlock:
		return "```" + n.Language + "\n" + ensureNewline(n.Content) + "```"

	case *ast.BlockQuote:
		return renderQuote(n)

	case *ast.List:
		return renderList(n, "")

	case *ast.ThematicBreak:
		return "***"

	case *ast.Raw:
		return "```=" + n.Format.String() + "\n" + ensureNewline(n.Content) + "```"

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
	if n.Admonition != "" {
		var sb strings.Builder
		sb.WriteString("::: " + n.Admonition + "\n")
		for i, b := range n.Content {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(renderBlock(b))
		}
		sb.WriteString("\n:::")
		return sb.String()
	}

	var inner []string
	for _, b := range n.Content {
		inner = append(inner, renderBlock(b))
	}
	if len(n.Attribution) > 0 {
		inner = append(inner, "-- "+renderInlines(n.Attribution))
	}
	body := strings.Join(inner, "\n\n")

	var sb strings.Builder
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			sb.WriteString(">\n")
		} else {
			sb.WriteString("> " + line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderContainer(n *ast.Container) string {
	var sb strings.Builder

	// Extra attributes ride on a standalone attribute line.
	if n.ID != "" || len(n.Attributes) > 0 || len(n.Classes) > 1 {
		sb.WriteString(attributeLine(n) + "\n")
	}

	class := ""
	if len(n.Classes) > 0 {
		class = " " + n.Classes[0]
	}
	sb.WriteString(":::" + class + "\n")
	for i, b := range n.Content {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(renderBlock(b))
	}
	sb.WriteString("\n:::")
	return sb.String()
}

func attributeLine(n *ast.Container) string {
	var parts []string
	if n.ID != "" {
		parts = append(parts, "#"+n.ID)
	}
	for _, c := range n.Classes[min(1, len(n.Classes)):] {
		parts = append(parts, "."+c)
	}
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, n.Attributes[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func renderList(n *ast.List, indent string) string {
	var sb strings.Builder
	for i, item := range n.Items {
		marker := "- "
		switch n.Kind {
		case ast.ListOrdered:
			num := i + 1
			if n.Start > 0 {
				num = n.Start + i
			}
			marker = fmt.Sprintf("%d. ", num)
		case ast.ListTask:
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
	var sb strings.Builder
	if n.Header != nil {
		sb.WriteString(renderRow(*n.Header) + "\n")
		sb.WriteString("|" + strings.Repeat("---|", len(n.Header.Cells)) + "\n")
	}
	for _, row := range n.Body {
		sb.WriteString(renderRow(row) + "\n")
	}
	if len(n.Caption) > 0 {
		sb.WriteString("^ " + renderInlines(n.Caption) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
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
	return strings.ReplaceAll(strings.Join(parts, " "), "|", "\\|")
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
			sb.WriteString("{-" + renderInlines(n.Content) + "-}")
		case *ast.Code:
			sb.WriteString("`" + n.Content + "`")
		case *ast.Link:
			sb.WriteString("[" + renderInlines(n.Content) + "](" + n.URL + ")")
		case *ast.Image:
			sb.WriteString("![" + n.Alt + "](" + n.URL + ")")
		case *ast.Math:
			sb.WriteString("$`" + n.Content + "`$")
		case *ast.LineBreak:
			sb.WriteString("\\\n")
		case *ast.SoftBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
