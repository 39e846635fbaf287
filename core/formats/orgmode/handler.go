// Package orgmode implements the format handler for Org, Emacs's
// outline markup. Keyword lines feed document metadata; the block
// grammar covers the structural subset shared with the canonical tree.
package orgmode

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Handler implements formats.FormatHandler for Org.
type Handler struct{}

// New returns an Org handler.
func New() *Handler {
	return &Handler{}
}

// Format returns ast.OrgMode.
func (h *Handler) Format() ast.SourceFormat {
	return ast.OrgMode
}

// specialBlocks maps org special block names to admonition kinds.
var specialBlocks = map[string]string{
	"note":      "note",
	"tip":       "tip",
	"important": "important",
	"warning":   "warning",
	"caution":   "caution",
}

// Parse converts Org text into a canonical Document. #+KEYWORD: lines
// before any content populate Meta and never appear in Content.
func (h *Handler) Parse(input string, cfg formats.ParseConfig) (*ast.Document, error) {
	doc := ast.New(ast.OrgMode)
	if cfg.PreserveRawSource {
		doc.RawSource = input
	}
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	doc.Content = parseBlocks(lines, doc)
	return doc, nil
}

func parseBlocks(lines []string, doc *ast.Document) []ast.Block {
	var blocks []ast.Block
	caption := ""

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		switch {
		case trimmed == "":
			caption = ""
			i++

		case strings.HasPrefix(lower, "#+caption:"):
			caption = strings.TrimSpace(trimmed[len("#+caption:"):])
			i++

		case strings.HasPrefix(trimmed, "#+") && !strings.HasPrefix(lower, "#+begin_"):
			if doc != nil {
				applyKeyword(doc, trimmed)
			}
			i++

		case strings.HasPrefix(lower, "#+begin_src"):
			block, next := parseSrcBlock(lines, i, trimmed)
			blocks = append(blocks, block)
			i = next

		case strings.HasPrefix(lower, "#+begin_quote"):
			inner, next := collectBlock(lines, i, "quote")
			blocks = append(blocks, &ast.BlockQuote{Content: parseBlocks(inner, nil)})
			i = next

		case strings.HasPrefix(lower, "#+begin_example"):
			inner, next := collectBlock(lines, i, "example")
			blocks = append(blocks, &ast.CodeBlock{Content: joinBody(inner)})
			i = next

		case strings.HasPrefix(lower, "#+begin_export"):
			format := exportFormat(trimmed)
			inner, next := collectBlock(lines, i, "export")
			blocks = append(blocks, &ast.Raw{Format: format, Content: joinBody(inner)})
			i = next

		case strings.HasPrefix(lower, "#+begin_center") || strings.HasPrefix(lower, "#+begin_verse"):
			name := blockName(lower)
			inner, next := collectBlock(lines, i, name)
			blocks = append(blocks, &ast.Container{
				Classes: []string{name},
				Content: parseBlocks(inner, nil),
			})
			i = next

		case strings.HasPrefix(lower, "#+begin_"):
			name := blockName(lower)
			inner, next := collectBlock(lines, i, name)
			if kind, ok := specialBlocks[name]; ok {
				blocks = append(blocks, &ast.BlockQuote{
					Content:    parseBlocks(inner, nil),
					Admonition: kind,
				})
			} else {
				blocks = append(blocks, &ast.Container{
					Classes: []string{name},
					Content: parseBlocks(inner, nil),
				})
			}
			i = next

		case isHeadline(trimmed):
			level := 0
			for level < len(trimmed) && trimmed[level] == '*' {
				level++
			}
			blocks = append(blocks, &ast.Heading{
				Level:   level,
				Content: parseInlines(strings.TrimSpace(trimmed[level:])),
			})
			i++

		case isRule(trimmed):
			blocks = append(blocks, &ast.ThematicBreak{})
			i++

		case strings.HasPrefix(trimmed, "|"):
			table, next := parseTable(lines, i)
			if caption != "" {
				if t, ok := table.(*ast.Table); ok {
					t.Caption = parseInlines(caption)
				}
				caption = ""
			}
			blocks = append(blocks, table)
			i = next

		case strings.HasPrefix(trimmed, "$$") && strings.HasSuffix(trimmed, "$$") && len(trimmed) > 4:
			blocks = append(blocks, &ast.MathBlock{Content: strings.TrimSpace(trimmed[2 : len(trimmed)-2])})
			i++

		case strings.HasPrefix(lower, `\begin{`):
			block, next := parseLatexEnvironment(lines, i)
			blocks = append(blocks, block)
			i = next

		case isListLine(trimmed):
			list, next := parseList(lines, i)
			blocks = append(blocks, list)
			i = next

		default:
			para, next := parseParagraph(lines, i)
			blocks = append(blocks, para)
			i = next
		}
	}
	return blocks
}

// applyKeyword folds a "#+KEY: value" line into document metadata.
func applyKeyword(doc *ast.Document, line string) {
	rest := strings.TrimPrefix(line, "#+")
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return
	}
	key := strings.ToLower(strings.TrimSpace(rest[:colon]))
	value := strings.TrimSpace(rest[colon+1:])

	switch key {
	case "title":
		doc.Meta.Title = value
	case "author":
		doc.Meta.Authors = append(doc.Meta.Authors, value)
	case "date":
		doc.Meta.Date = value
	default:
		if key != "" && value != "" {
			doc.Meta.SetExtra(key, value)
		}
	}
}

func isHeadline(line string) bool {
	stars := 0
	for stars < len(line) && line[stars] == '*' {
		stars++
	}
	return stars > 0 && stars < len(line) && line[stars] == ' '
}

func isRule(line string) bool {
	if len(line) < 5 {
		return false
	}
	for _, r := range line {
		if r != '-' {
			return false
		}
	}
	return true
}

// parseSrcBlock handles #+BEGIN_SRC lang [-n] bodies.
func parseSrcBlock(lines []string, start int, open string) (ast.Block, int) {
	fields := strings.Fields(open)
	cb := &ast.CodeBlock{}
	for _, f := range fields[1:] {
		switch {
		case f == "-n" || f == "+n":
			cb.LineNumbers = true
		case cb.Language == "" && !strings.HasPrefix(f, "-") && !strings.HasPrefix(f, ":"):
			cb.Language = f
		}
	}
	inner, next := collectBlock(lines, start, "src")
	cb.Content = joinBody(inner)
	return cb, next
}

func exportFormat(open string) ast.SourceFormat {
	fields := strings.Fields(open)
	if len(fields) > 1 {
		format := ast.SourceFormat(strings.ToLower(fields[1]))
		if format.IsValid() {
			return format
		}
	}
	return ast.OrgMode
}

func blockName(lower string) string {
	name := strings.TrimPrefix(lower, "#+begin_")
	if sp := strings.IndexByte(name, ' '); sp >= 0 {
		name = name[:sp]
	}
	return name
}

// collectBlock gathers lines until the matching #+END_ marker.
func collectBlock(lines []string, start int, name string) ([]string, int) {
	end := "#+end_" + name
	var inner []string
	i := start + 1
	for ; i < len(lines); i++ {
		if strings.ToLower(strings.TrimSpace(lines[i])) == end {
			i++
			break
		}
		inner = append(inner, lines[i])
	}
	return inner, i
}

func joinBody(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	// Org convention indents block bodies; strip the common two-space
	// indent when every line carries it.
	allIndented := true
	for _, l := range lines {
		if l != "" && !strings.HasPrefix(l, "  ") {
			allIndented = false
			break
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if allIndented {
			out[i] = strings.TrimPrefix(l, "  ")
		} else {
			out[i] = l
		}
	}
	return strings.Join(out, "\n") + "\n"
}

func parseLatexEnvironment(lines []string, start int) (ast.Block, int) {
	var body []string
	i := start + 1
	for ; i < len(lines); i++ {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lines[i])), `\end{`) {
			i++
			break
		}
		body = append(body, strings.TrimSpace(lines[i]))
	}
	return &ast.MathBlock{Content: strings.Join(body, "\n")}, i
}

func isListLine(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "+ ") {
		return true
	}
	return orderedMarkerLen(line) > 0
}

func orderedMarkerLen(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) {
		return 0
	}
	if (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return i + 2
	}
	return 0
}

func parseList(lines []string, start int) (ast.Block, int) {
	list := &ast.List{Kind: ast.ListBullet}
	if orderedMarkerLen(strings.TrimSpace(lines[start])) > 0 {
		list.Kind = ast.ListOrdered
	}

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		var text string
		if n := orderedMarkerLen(trimmed); n > 0 && list.Kind == ast.ListOrdered {
			text = trimmed[n:]
		} else if isListLine(trimmed) && list.Kind != ast.ListOrdered {
			text = trimmed[2:]
		} else {
			if len(list.Items) == 0 {
				break
			}
			last := &list.Items[len(list.Items)-1]
			if p, ok := last.Content[len(last.Content)-1].(*ast.Paragraph); ok {
				p.Content = append(p.Content, &ast.SoftBreak{})
				p.Content = append(p.Content, parseInlines(trimmed)...)
			}
			continue
		}

		item := ast.ListItem{}
		if strings.HasPrefix(text, "[X] ") || strings.HasPrefix(text, "[x] ") {
			checked := true
			item.Checked = &checked
			text = text[4:]
			list.Kind = ast.ListTask
		} else if strings.HasPrefix(text, "[ ] ") {
			checked := false
			item.Checked = &checked
			text = text[4:]
			list.Kind = ast.ListTask
		}
		item.Content = []ast.Block{&ast.Paragraph{Content: parseInlines(text)}}
		list.Items = append(list.Items, item)
	}
	return list, i
}

func parseTable(lines []string, start int) (ast.Block, int) {
	table := &ast.Table{}
	var rows []ast.TableRow
	separatorAfter := -1

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "|") {
			break
		}
		if strings.HasPrefix(trimmed, "|-") {
			if separatorAfter < 0 {
				separatorAfter = len(rows)
			}
			continue
		}
		cells := strings.Split(strings.Trim(trimmed, "|"), "|")
		row := ast.TableRow{}
		for _, c := range cells {
			row.Cells = append(row.Cells, ast.TableCell{Content: []ast.Block{
				&ast.Paragraph{Content: parseInlines(strings.TrimSpace(c))},
			}})
		}
		rows = append(rows, row)
	}

	if separatorAfter == 1 && len(rows) > 1 {
		table.Header = &rows[0]
		table.Body = rows[1:]
	} else {
		table.Body = rows
	}
	return table, i
}

func parseParagraph(lines []string, start int) (ast.Block, int) {
	var inlines []ast.Inline
	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || isStructuralLine(trimmed) {
			break
		}
		if len(inlines) > 0 {
			inlines = append(inlines, &ast.SoftBreak{})
		}
		if strings.HasSuffix(trimmed, `\\`) {
			inlines = append(inlines, parseInlines(strings.TrimSuffix(trimmed, `\\`))...)
			inlines = append(inlines, &ast.LineBreak{})
		} else {
			inlines = append(inlines, parseInlines(trimmed)...)
		}
	}
	inlines = trimBreaks(inlines)
	return &ast.Paragraph{Content: inlines}, i
}

func trimBreaks(inlines []ast.Inline) []ast.Inline {
	var out []ast.Inline
	for _, in := range inlines {
		if _, soft := in.(*ast.SoftBreak); soft && len(out) > 0 {
			if _, hard := out[len(out)-1].(*ast.LineBreak); hard {
				continue
			}
		}
		out = append(out, in)
	}
	for len(out) > 0 {
		switch out[len(out)-1].(type) {
		case *ast.SoftBreak, *ast.LineBreak:
			out = out[:len(out)-1]
		default:
			return out
		}
	}
	return out
}

func isStructuralLine(line string) bool {
	if isHeadline(line) || isRule(line) || isListLine(line) {
		return true
	}
	return strings.HasPrefix(line, "#+") || strings.HasPrefix(line, "|")
}
