package asciidoc

import (
	"sort"
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Render serializes a canonical Document to AsciiDoc.
func (h *Handler) Render(doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	var sb strings.Builder

	renderHeader(&sb, doc.Meta)

	for _, block := range doc.Content {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		renderBlock(&sb, block)
	}
	out := strings.TrimRight(sb.String(), "\n")
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

func renderHeader(sb *strings.Builder, meta ast.Meta) {
	if meta.Title == "" && len(meta.Authors) == 0 && meta.Date == "" && len(meta.Extra) == 0 {
		return
	}
	if meta.Title != "" {
		sb.WriteString("= " + meta.Title + "\n")
	}
	for _, author := range meta.Authors {
		sb.WriteString(":author: " + author + "\n")
	}
	if meta.Date != "" {
		sb.WriteString(":revdate: " + meta.Date + "\n")
	}
	for _, key := range sortedKeys(meta.Extra) {
		sb.WriteString(":" + key + ": " + meta.Extra[key] + "\n")
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderBlock(sb *strings.Builder, block ast.Block) {
	switch n := block.(type) {
	case *ast.Paragraph:
		sb.WriteString(renderInlines(n.Content) + "\n")

	case *ast.Heading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		if level > 5 {
			level = 5
		}
		if n.ID != "" {
			sb.WriteString("[[" + n.ID + "]]\n")
		}
		// Document titles use a single '='; section levels shift by one.
		sb.WriteString(strings.Repeat("=", level+1) + " " + renderInlines(n.Content) + "\n")

	case *ast.CodeBlock:
		if n.Language != "" {
			sb.WriteString("[source," + n.Language)
			if n.LineNumbers {
				sb.WriteString(",linenums")
			}
			sb.WriteString("]\n")
		} else if n.LineNumbers {
			sb.WriteString("[source,,linenums]\n")
		}
		sb.WriteString("----\n")
		sb.WriteString(ensureNewline(n.Content))
		sb.WriteString("----\n")

	case *ast.BlockQuote:
		renderQuote(sb, n)

	case *ast.List:
		renderList(sb, n, 1)

	case *ast.ThematicBreak:
		sb.WriteString("'''\n")

	case *ast.Raw:
		if n.Format == ast.AsciiDoc {
			sb.WriteString("++++\n" + ensureNewline(n.Content) + "++++\n")
		} else {
			sb.WriteString("[source," + n.Format.String() + "]\n----\n" + ensureNewline(n.Content) + "----\n")
		}

	case *ast.Container:
		renderContainer(sb, n)

	case *ast.Table:
		renderTable(sb, n)

	case *ast.MathBlock:
		sb.WriteString("[stem]\n++++\n" + ensureNewline(n.Content) + "++++\n")

	default:
		// Unknown block kinds degrade to their flattened text.
	}
}

func renderQuote(sb *strings.Builder, n *ast.BlockQuote) {
	if n.Admonition != "" {
		label := strings.ToUpper(n.Admonition)
		// Single-paragraph admonitions use the compact form.
		if len(n.Content) == 1 {
			if p, ok := n.Content[0].(*ast.Paragraph); ok {
				sb.WriteString(label + ": " + renderInlines(p.Content) + "\n")
				return
			}
		}
		sb.WriteString("[" + label + "]\n====\n")
		writeBlocks(sb, n.Content)
		sb.WriteString("====\n")
		return
	}

	if len(n.Attribution) > 0 {
		sb.WriteString("[quote, " + renderInlines(n.Attribution) + "]\n")
	}
	sb.WriteString("____\n")
	writeBlocks(sb, n.Content)
	sb.WriteString("____\n")
}

func renderContainer(sb *strings.Builder, n *ast.Container) {
	if n.ID != "" {
		sb.WriteString("[[" + n.ID + "]]\n")
	}
	delim := "====" // example block
	if n.HasClass("sidebar") {
		delim = "****"
	}
	sb.WriteString(delim + "\n")
	writeBlocks(sb, n.Content)
	sb.WriteString(delim + "\n")
}

func writeBlocks(sb *strings.Builder, blocks []ast.Block) {
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		renderBlock(sb, b)
	}
}

func renderList(sb *strings.Builder, n *ast.List, depth int) {
	marker := strings.Repeat("*", depth) + " "
	if n.Kind == ast.ListOrdered {
		marker = strings.Repeat(".", depth) + " "
	}
	for _, item := range n.Items {
		prefix := marker
		if n.Kind == ast.ListTask {
			if item.Checked != nil && *item.Checked {
				prefix += "[x] "
			} else {
				prefix += "[ ] "
			}
		}
		wrote := false
		for _, b := range item.Content {
			switch c := b.(type) {
			case *ast.Paragraph:
				sb.WriteString(prefix + renderInlines(c.Content) + "\n")
				wrote = true
			case *ast.List:
				if !wrote {
					sb.WriteString(strings.TrimRight(prefix, " ") + "\n")
					wrote = true
				}
				renderList(sb, c, depth+1)
			default:
				var inner strings.Builder
				renderBlock(&inner, b)
				sb.WriteString(prefix + strings.TrimSpace(inner.String()) + "\n")
				wrote = true
			}
		}
		if !wrote {
			sb.WriteString(strings.TrimRight(prefix, " ") + "\n")
		}
	}
}

func renderTable(sb *strings.Builder, n *ast.Table) {
	if len(n.Caption) > 0 {
		sb.WriteString("." + renderInlines(n.Caption) + "\n")
	}
	sb.WriteString("|===\n")
	if n.Header != nil {
		sb.WriteString(renderRow(*n.Header) + "\n\n")
	}
	for _, row := range n.Body {
		sb.WriteString(renderRow(row) + "\n")
	}
	sb.WriteString("|===\n")
}

func renderRow(row ast.TableRow) string {
	var parts []string
	for _, cell := range row.Cells {
		parts = append(parts, "|"+cellText(cell))
	}
	return strings.Join(parts, " ")
}

// cellText flattens a cell to single-line inline AsciiDoc.
func cellText(cell ast.TableCell) string {
	var parts []string
	for _, b := range cell.Content {
		switch c := b.(type) {
		case *ast.Paragraph:
			parts = append(parts, renderInlines(c.Content))
		case *ast.Heading:
			parts = append(parts, renderInlines(c.Content))
		default:
			var inner strings.Builder
			renderBlock(&inner, b)
			parts = append(parts, strings.Join(strings.Fields(inner.String()), " "))
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
			sb.WriteString("[line-through]#" + renderInlines(n.Content) + "#")
		case *ast.Code:
			sb.WriteString("`" + n.Content + "`")
		case *ast.Link:
			label := renderInlines(n.Content)
			if strings.HasPrefix(n.URL, "#") {
				sb.WriteString("<<" + strings.TrimPrefix(n.URL, "#") + "," + label + ">>")
			} else if label == n.URL {
				sb.WriteString(n.URL)
			} else {
				sb.WriteString("link:" + n.URL + "[" + label + "]")
			}
		case *ast.Image:
			sb.WriteString("image:" + n.URL + "[" + n.Alt + "]")
		case *ast.Math:
			sb.WriteString("stem:[" + n.Content + "]")
		case *ast.LineBreak:
			sb.WriteString(" +\n")
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
