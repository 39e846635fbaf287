// Package djot implements the format handler for djot, a light markup
// language in the commonmark family with a stricter inline grammar and
// first-class attribute lists.
package djot

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Handler implements formats.FormatHandler for djot.
type Handler struct{}

// New returns a djot handler.
func New() *Handler {
	return &Handler{}
}

// Format returns ast.Djot.
func (h *Handler) Format() ast.SourceFormat {
	return ast.Djot
}

// Parse converts djot text into a canonical Document.
func (h *Handler) Parse(input string, cfg formats.ParseConfig) (*ast.Document, error) {
	doc := ast.New(ast.Djot)
	if cfg.PreserveRawSource {
		doc.RawSource = input
	}
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	doc.Content = parseBlocks(lines)
	return doc, nil
}

func parseBlocks(lines []string) []ast.Block {
	var blocks []ast.Block
	var pending *Attributes

	attach := func(b ast.Block) {
		if pending != nil {
			b = applyAttributes(b, pending)
			pending = nil
		}
		blocks = append(blocks, b)
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			pending = nil
			i++

		case isAttributeLine(trimmed):
			attrs, err := ParseAttributes(trimmed)
			if err == nil {
				pending = attrs
			}
			i++

		case strings.HasPrefix(trimmed, "#"):
			if level, text, ok := headingParts(trimmed); ok {
				attach(&ast.Heading{Level: level, Content: parseInlines(text)})
				i++
				continue
			}
			para, next := parseParagraph(lines, i)
			attach(para)
			i = next

		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			block, next := parseFence(lines, i)
			attach(block)
			i = next

		case strings.HasPrefix(trimmed, ">"):
			quote, next := parseQuote(lines, i)
			attach(quote)
			i = next

		case strings.HasPrefix(trimmed, ":::"):
			div, next := parseDiv(lines, i, pending)
			pending = nil
			blocks = append(blocks, div)
			i = next

		case isThematicBreak(trimmed):
			attach(&ast.ThematicBreak{})
			i++

		case isListLine(trimmed):
			list, next := parseList(lines, i)
			attach(list)
			i = next

		case strings.HasPrefix(trimmed, "|"):
			table, next := parseTable(lines, i)
			attach(table)
			i = next

		case strings.HasPrefix(trimmed, "$$") && strings.HasSuffix(trimmed, "$$") && len(trimmed) > 4:
			attach(&ast.MathBlock{Content: strings.TrimSpace(trimmed[2 : len(trimmed)-2])})
			i++

		default:
			para, next := parseParagraph(lines, i)
			attach(para)
			i = next
		}
	}
	return blocks
}

// applyAttributes attaches a standalone attribute line to the block it
// precedes. Headings take the ID directly; anything else is wrapped in
// a container so classes and pairs survive.
func applyAttributes(b ast.Block, attrs *Attributes) ast.Block {
	if h, ok := b.(*ast.Heading); ok && len(attrs.Classes) == 0 && len(attrs.Pairs) == 0 {
		h.ID = attrs.ID
		return h
	}
	return &ast.Container{
		ID:         attrs.ID,
		Classes:    attrs.Classes,
		Attributes: attrs.Pairs,
		Content:    []ast.Block{b},
	}
}

func headingParts(line string) (level int, text string, ok bool) {
	level = 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level < 1 || level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}

// parseFence handles code fences. A "=format" info string marks a raw
// block for that output format.
func parseFence(lines []string, start int) (ast.Block, int) {
	open := strings.TrimSpace(lines[start])
	delim := open[:3]
	info := strings.TrimSpace(open[3:])

	var body []string
	i := start + 1
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delim {
			i++
			break
		}
		body = append(body, lines[i])
	}
	content := ""
	if len(body) > 0 {
		content = strings.Join(body, "\n") + "\n"
	}

	if strings.HasPrefix(info, "=") {
		format := ast.SourceFormat(strings.TrimPrefix(info, "="))
		if format.IsValid() {
			return &ast.Raw{Format: format, Content: content}, i
		}
	}
	return &ast.CodeBlock{Language: info, Content: content}, i
}

func parseQuote(lines []string, start int) (ast.Block, int) {
	var inner []string
	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, ">") {
			break
		}
		inner = append(inner, strings.TrimPrefix(strings.TrimPrefix(trimmed, ">"), " "))
	}
	return &ast.BlockQuote{Content: parseBlocks(inner)}, i
}

// parseDiv handles ::: fenced divs. The class may follow the opening
// fence; a preceding attribute line contributes the rest.
func parseDiv(lines []string, start int, attrs *Attributes) (ast.Block, int) {
	class := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[start]), ":::"))

	var inner []string
	depth := 1
	i := start + 1
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, ":::") {
			if strings.TrimSpace(strings.TrimPrefix(trimmed, ":::")) == "" {
				depth--
				if depth == 0 {
					i++
					break
				}
			} else {
				depth++
			}
		}
		inner = append(inner, lines[i])
	}

	c := &ast.Container{Content: parseBlocks(inner)}
	if class != "" {
		c.Classes = append(c.Classes, class)
	}
	if attrs != nil {
		c.ID = attrs.ID
		c.Classes = append(c.Classes, attrs.Classes...)
		c.Attributes = attrs.Pairs
	}

	// Admonition divs map to the canonical admonition quote.
	for _, kind := range []string{"note", "tip", "important", "warning", "caution"} {
		if c.HasClass(kind) && c.ID == "" && len(c.Attributes) == 0 {
			return &ast.BlockQuote{Content: c.Content, Admonition: kind}, i
		}
	}
	return c, i
}

func isThematicBreak(line string) bool {
	if len(line) < 3 {
		return false
	}
	stars, dashes := 0, 0
	for _, r := range line {
		switch r {
		case '*':
			stars++
		case '-':
			dashes++
		case ' ':
		default:
			return false
		}
	}
	return (stars >= 3 && dashes == 0) || (dashes >= 3 && stars == 0)
}

func isListLine(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ") {
		return true
	}
	return orderedMarkerLen(line) > 0
}

// orderedMarkerLen returns the length of an "N. " or "N) " marker.
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
	first := strings.TrimSpace(lines[start])
	if n := orderedMarkerLen(first); n > 0 {
		list.Kind = ast.ListOrdered
		list.Start = parseInt(first[:n-2])
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
			// Continuation line of the previous item.
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
		if strings.HasPrefix(text, "[x] ") || strings.HasPrefix(text, "[X] ") {
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

func parseInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
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
		if isSeparatorRow(trimmed) {
			if separatorAfter < 0 {
				separatorAfter = len(rows)
			}
			continue
		}
		cells := splitRow(trimmed)
		row := ast.TableRow{}
		for _, c := range cells {
			row.Cells = append(row.Cells, ast.TableCell{Content: []ast.Block{
				&ast.Paragraph{Content: parseInlines(c)},
			}})
		}
		rows = append(rows, row)
	}

	// A "^ caption" line directly after the table names it.
	if i < len(lines) {
		if caption, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), "^ "); ok {
			table.Caption = parseInlines(strings.TrimSpace(caption))
			i++
		}
	}

	if separatorAfter == 1 && len(rows) > 1 {
		table.Header = &rows[0]
		table.Body = rows[1:]
	} else {
		table.Body = rows
	}
	return table, i
}

func isSeparatorRow(line string) bool {
	inner := strings.Trim(line, "|")
	if inner == "" {
		return false
	}
	for _, r := range inner {
		if !strings.ContainsRune("-:| ", r) {
			return false
		}
	}
	return strings.ContainsRune(inner, '-')
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
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
		if strings.HasSuffix(trimmed, "\\") {
			inlines = append(inlines, parseInlines(strings.TrimSuffix(trimmed, "\\"))...)
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
	if _, _, ok := headingParts(line); ok {
		return true
	}
	if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") ||
		strings.HasPrefix(line, ">") || strings.HasPrefix(line, ":::") ||
		strings.HasPrefix(line, "|") {
		return true
	}
	return isThematicBreak(line) || isListLine(line) || isAttributeLine(line)
}
