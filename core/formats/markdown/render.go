package markdown

import (
	"fmt"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Render converts a canonical Document to GFM Markdown. Every variant
// renders; constructs GFM cannot express natively degrade through raw
// HTML or fenced passthrough blocks. The "front_matter" render option
// set to "none" suppresses metadata re-emission.
func (h *Handler) Render(doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	var sb strings.Builder

	if cfg.Option("front_matter") != "none" {
		renderFrontMatter(&sb, doc.Meta)
	}

	for i, block := range doc.Content {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		renderBlock(&sb, block)
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

// renderFrontMatter re-emits document metadata as a YAML front matter
// block, mirroring what Parse consumes.
func renderFrontMatter(sb *strings.Builder, meta ast.Meta) {
	if meta.Title == "" && len(meta.Authors) == 0 && meta.Date == "" && len(meta.Extra) == 0 {
		return
	}

	var fields yaml.MapSlice
	if meta.Title != "" {
		fields = append(fields, yaml.MapItem{Key: "title", Value: meta.Title})
	}
	if len(meta.Authors) == 1 {
		fields = append(fields, yaml.MapItem{Key: "author", Value: meta.Authors[0]})
	} else if len(meta.Authors) > 1 {
		fields = append(fields, yaml.MapItem{Key: "authors", Value: meta.Authors})
	}
	if meta.Date != "" {
		fields = append(fields, yaml.MapItem{Key: "date", Value: meta.Date})
	}
	keys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, yaml.MapItem{Key: k, Value: meta.Extra[k]})
	}

	encoded, err := yaml.Marshal(fields)
	if err != nil {
		return
	}
	sb.WriteString("---\n")
	sb.Write(encoded)
	sb.WriteString("---\n\n")
}

func renderBlock(sb *strings.Builder, block ast.Block) {
	switch n := block.(type) {
	case *ast.Paragraph:
		sb.WriteString(renderInlines(n.Content))

	case *ast.Heading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		// Markdown has no heading id syntax; the id degrades.
		sb.WriteString(strings.Repeat("#", level)+" "+renderInlines(n.Content))

	case *ast.CodeBlock:
		fence := "```"
		if strings.Contains(n.Content, "```") {
			fence = "~~~"
		}
		body := fence + n.Language + "\n" + ensureNewline(n.Content) + fence
		sb.WriteString(body)

	case *ast.BlockQuote:
		var inner strings.Builder
		if n.Admonition != "" {
			// GFM alert syntax.
			inner.WriteString("[!" + strings.ToUpper(n.Admonition) + "]\n")
		}
		for i, b := range n.Content {
			if i > 0 {
				inner.WriteString("\n\n")
			}
			renderBlock(&inner, b)
		}
		if len(n.Attribution) > 0 {
			inner.WriteString("\n\n— " + renderInlines(n.Attribution))
		}
		sb.WriteString(quoteLines(inner.String()))

	case *ast.List:
		var inner strings.Builder
		for i, item := range n.Items {
			if i > 0 {
				inner.WriteString("\n")
			}
			marker := listMarker(n, item, i)
			var body strings.Builder
			for j, b := range item.Content {
				if j > 0 {
					body.WriteString("\n\n")
				}
				renderBlock(&body, b)
			}
			indent := strings.Repeat(" ", len(marker))
			lines := strings.Split(body.String(), "\n")
			for k, line := range lines {
				if k == 0 {
					inner.WriteString(marker + line)
				} else if line == "" {
					inner.WriteString("\n")
				} else {
					inner.WriteString("\n" + indent + line)
				}
			}
		}
		sb.WriteString(inner.String())

	case *ast.ThematicBreak:
		sb.WriteString("---")

	case *ast.Raw:
		if n.Format == ast.Markdown {
			sb.WriteString(strings.TrimRight(n.Content, "\n"))
			return
		}
		// Passthrough for another dialect: keep the text visible inside
		// a fence tagged with its origin.
		body := "```" + string(n.Format) + "\n" + ensureNewline(n.Content) + "```"
		sb.WriteString(body)

	case *ast.Container:
		var inner strings.Builder
		inner.WriteString("<div")
		if n.ID != "" {
			fmt.Fprintf(&inner, " id=%q", n.ID)
		}
		if len(n.Classes) > 0 {
			fmt.Fprintf(&inner, " class=%q", strings.Join(n.Classes, " "))
		}
		attrKeys := make([]string, 0, len(n.Attributes))
		for k := range n.Attributes {
			attrKeys = append(attrKeys, k)
		}
		sort.Strings(attrKeys)
		for _, k := range attrKeys {
			fmt.Fprintf(&inner, " %s=%q", k, n.Attributes[k])
		}
		inner.WriteString(">\n\n")
		for i, b := range n.Content {
			if i > 0 {
				inner.WriteString("\n\n")
			}
			renderBlock(&inner, b)
		}
		inner.WriteString("\n\n</div>")
		sb.WriteString(inner.String())

	case *ast.Table:
		sb.WriteString(renderTable(n))

	case *ast.MathBlock:
		sb.WriteString("$$\n"+ensureNewline(n.Content)+"$$")
	}
}

func listMarker(list *ast.List, item ast.ListItem, index int) string {
	switch list.Kind {
	case ast.ListOrdered:
		start := list.Start
		if start == 0 {
			start = 1
		}
		return fmt.Sprintf("%d. ", start+index)
	case ast.ListTask:
		if item.Checked != nil && *item.Checked {
			return "- [x] "
		}
		return "- [ ] "
	default:
		return "- "
	}
}

func renderTable(n *ast.Table) string {
	width := 0
	if n.Header != nil && len(n.Header.Cells) > width {
		width = len(n.Header.Cells)
	}
	for _, row := range n.Body {
		if len(row.Cells) > width {
			width = len(row.Cells)
		}
	}
	if width == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(row *ast.TableRow) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if row != nil && i < len(row.Cells) {
				cell = cellText(row.Cells[i])
			}
			sb.WriteString(" " + cell + " |")
		}
		sb.WriteString("\n")
	}

	// GFM requires a header row; an absent header degrades to empty
	// header cells.
	writeRow(n.Header)
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for i := range n.Body {
		writeRow(&n.Body[i])
	}

	out := strings.TrimRight(sb.String(), "\n")
	if len(n.Caption) > 0 {
		out += "\n\n*" + renderInlines(n.Caption) + "*"
	}
	return out
}

// cellText flattens a table cell to single-line inline Markdown. Block
// structure inside cells cannot survive a pipe table; nested blocks are
// rendered inline and joined with spaces.
func cellText(cell ast.TableCell) string {
	var parts []string
	for _, b := range cell.Content {
		var sb strings.Builder
		renderBlock(&sb, b)
		parts = append(parts, strings.Join(strings.Fields(sb.String()), " "))
	}
	text := strings.Join(parts, " ")
	return strings.ReplaceAll(text, "|", "\\|")
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
			sb.WriteString("~~" + renderInlines(n.Content) + "~~")
		case *ast.Code:
			sb.WriteString(codeSpan(n.Content))
		case *ast.Link:
			sb.WriteString("[" + renderInlines(n.Content) + "](" + n.URL)
			if n.Title != "" {
				sb.WriteString(fmt.Sprintf(" %q", n.Title))
			}
			sb.WriteString(")")
		case *ast.Image:
			sb.WriteString("![" + n.Alt + "](" + n.URL)
			if n.Title != "" {
				sb.WriteString(fmt.Sprintf(" %q", n.Title))
			}
			sb.WriteString(")")
		case *ast.Math:
			// No native inline math in GFM; dollar-delimited source is
			// the conventional passthrough.
			sb.WriteString("$" + n.Content + "$")
		case *ast.LineBreak:
			sb.WriteString("\\\n")
		case *ast.SoftBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// codeSpan picks a backtick run longer than any run in the content.
func codeSpan(content string) string {
	delim := "`"
	for strings.Contains(content, delim) {
		delim += "`"
	}
	if delim == "`" {
		return delim + content + delim
	}
	return delim + " " + content + " " + delim
}

func quoteLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
