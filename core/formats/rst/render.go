package rst

import (
	"fmt"
	"sort"
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// headingAdornments maps canonical levels to underline characters.
var headingAdornments = []byte{'=', '-', '~', '^'}

// Render serializes a canonical Document to reStructuredText.
func (h *Handler) Render(doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	var parts []string

	if docinfo := renderDocinfo(doc.Meta); docinfo != "" {
		parts = append(parts, docinfo)
	}
	for _, block := range doc.Content {
		if text := renderBlock(block); text != "" {
			parts = append(parts, text)
		}
	}

	out := strings.Join(parts, "\n\n")
	if out == "" {
		return "", nil
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func renderDocinfo(meta ast.Meta) string {
	var sb strings.Builder
	if meta.Title != "" {
		sb.WriteString(":Title: " + meta.Title + "\n")
	}
	for _, author := range meta.Authors {
		sb.WriteString(":Author: " + author + "\n")
	}
	if meta.Date != "" {
		sb.WriteString(":Date: " + meta.Date + "\n")
	}
	keys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(":" + k + ": " + fmt.Sprintf("%v", meta.Extra[k]) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderBlock(block ast.Block) string {
	switch n := block.(type) {
	case *ast.Paragraph:
		// A paragraph holding a single image becomes the directive.
		if len(n.Content) == 1 {
			if img, ok := n.Content[0].(*ast.Image); ok {
				return renderImageDirective(img)
			}
		}
		return renderInlines(n.Content)

	case *ast.Heading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		if level > len(headingAdornments) {
			level = len(headingAdornments)
		}
		text := renderInlines(n.Content)
		width := len(text)
		if width < 4 {
			width = 4
		}
		return text + "\n" + strings.Repeat(string(headingAdornments[level-1]), width)

	case *ast.CodeBlock:
		var sb strings.Builder
		sb.WriteString(".. code-block:: " + n.Language + "\n")
		if n.LineNumbers {
			sb.WriteString("   :linenos:\n")
		}
		if len(n.HighlightLines) > 0 {
			nums := make([]string, len(n.HighlightLines))
			for i, ln := range n.HighlightLines {
				nums[i] = fmt.Sprintf("%d", ln)
			}
			sb.WriteString("   :emphasize-lines: " + strings.Join(nums, ",") + "\n")
		}
		sb.WriteString("\n" + indent(n.Content))
		return strings.TrimRight(sb.String(), "\n")

	case *ast.BlockQuote:
		return renderQuote(n)

	case *ast.List:
		return renderList(n, "")

	case *ast.ThematicBreak:
		return "----"

	case *ast.Raw:
		if n.Format == ast.ReStructuredText {
			return strings.TrimRight(n.Content, "\n")
		}
		return ".. raw:: " + n.Format.String() + "\n\n" + strings.TrimRight(indent(n.Content), "\n")

	case *ast.Container:
		var sb strings.Builder
		sb.WriteString(".. container::")
		if len(n.Classes) > 0 {
			sb.WriteString(" " + strings.Join(n.Classes, " "))
		}
		sb.WriteString("\n")
		if n.ID != "" {
			sb.WriteString("   :name: " + n.ID + "\n")
		}
		sb.WriteString("\n" + indentBlocks(n.Content))
		return strings.TrimRight(sb.String(), "\n")

	case *ast.Table:
		return renderTable(n)

	case *ast.MathBlock:
		return ".. math::\n\n" + strings.TrimRight(indent(n.Content), "\n")

	default:
		return ""
	}
}

func renderImageDirective(img *ast.Image) string {
	var sb strings.Builder
	sb.WriteString(".. image:: " + img.URL)
	if img.Alt != "" {
		sb.WriteString("\n   :alt: " + img.Alt)
	}
	if img.Width != "" {
		sb.WriteString("\n   :width: " + img.Width)
	}
	return sb.String()
}

func renderQuote(n *ast.BlockQuote) string {
	if n.Admonition != "" {
		return ".. " + n.Admonition + "::\n\n" + strings.TrimRight(indentBlocks(n.Content), "\n")
	}

	body := indentBlocks(n.Content)
	if len(n.Attribution) > 0 {
		body = strings.TrimRight(body, "\n") + "\n\n   -- " + renderInlines(n.Attribution) + "\n"
	}
	return strings.TrimRight(body, "\n")
}

func indent(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if line == "" {
			sb.WriteString("\n")
		} else {
			sb.WriteString("   " + line + "\n")
		}
	}
	return sb.String()
}

func indentBlocks(blocks []ast.Block) string {
	var parts []string
	for _, b := range blocks {
		parts = append(parts, renderBlock(b))
	}
	return indent(strings.Join(parts, "\n\n") + "\n")
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

		prefix := marker
		if n.Kind == ast.ListTask {
			// No checkbox syntax; the state stays readable as text.
			if item.Checked != nil && *item.Checked {
				prefix += "[x] "
			} else {
				prefix += "[ ] "
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
					sb.WriteString(indent + prefix + text + "\n")
					first = false
				} else {
					pad := indent + strings.Repeat(" ", len(prefix))
					for _, line := range strings.Split(text, "\n") {
						sb.WriteString(pad + line + "\n")
					}
				}
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderTable emits the simple table form with = borders.
func renderTable(n *ast.Table) string {
	var rows [][]string
	if n.Header != nil {
		rows = append(rows, rowText(*n.Header))
	}
	for _, row := range n.Body {
		rows = append(rows, rowText(row))
	}
	if len(rows) == 0 {
		return ""
	}

	columns := 0
	for _, r := range rows {
		if len(r) > columns {
			columns = len(r)
		}
	}
	widths := make([]int, columns)
	for _, r := range rows {
		for c, cell := range r {
			if len(cell) > widths[c] {
				widths[c] = len(cell)
			}
		}
	}
	for c := range widths {
		if widths[c] < 4 {
			widths[c] = 4
		}
	}

	border := make([]string, columns)
	for c, w := range widths {
		border[c] = strings.Repeat("=", w)
	}
	borderLine := strings.Join(border, "  ")

	var sb strings.Builder
	sb.WriteString(borderLine + "\n")
	for idx, r := range rows {
		cells := make([]string, columns)
		for c := 0; c < columns; c++ {
			text := ""
			if c < len(r) {
				text = r[c]
			}
			cells[c] = text + strings.Repeat(" ", widths[c]-len(text))
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
		if idx == 0 && n.Header != nil {
			sb.WriteString(borderLine + "\n")
		}
	}
	sb.WriteString(borderLine)
	return sb.String()
}

func rowText(row ast.TableRow) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		var parts []string
		for _, b := range cell.Content {
			if p, ok := b.(*ast.Paragraph); ok {
				parts = append(parts, renderInlines(p.Content))
			} else {
				parts = append(parts, strings.Join(strings.Fields(renderBlock(b)), " "))
			}
		}
		out[i] = strings.Join(parts, " ")
	}
	return out
}

func renderInlines(inlines []ast.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		switch n := in.(type) {
		case *ast.Text:
			sb.WriteString(n.Content)
		case *ast.Emphasis:
			sb.WriteString("*" + renderInlines(n.Content) + "*")
		case *ast.Strong:
			sb.WriteString("**" + renderInlines(n.Content) + "**")
		case *ast.Strikethrough:
			// No native strikethrough role.
			sb.WriteString("[STRIKEOUT:" + renderInlines(n.Content) + "]")
		case *ast.Code:
			sb.WriteString("``" + n.Content + "``")
		case *ast.Link:
			label := renderInlines(n.Content)
			switch {
			case strings.HasPrefix(n.URL, "#"):
				sb.WriteString(":ref:`" + label + " <" + strings.TrimPrefix(n.URL, "#") + ">`")
			case label == n.URL:
				sb.WriteString(n.URL)
			default:
				sb.WriteString("`" + label + " <" + n.URL + ">`_")
			}
		case *ast.Image:
			// Inline images have no markup form; the alt text links to
			// the file instead.
			alt := n.Alt
			if alt == "" {
				alt = "image"
			}
			sb.WriteString("`" + alt + " <" + n.URL + ">`_")
		case *ast.Math:
			sb.WriteString(":math:`" + n.Content + "`")
		case *ast.LineBreak, *ast.SoftBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
