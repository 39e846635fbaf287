// Package asciidoc implements the format handler for AsciiDoc. The
// parser is a hand-rolled line scanner covering the common block set;
// the full AsciiDoc grammar is out of scope.
package asciidoc

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Handler implements formats.FormatHandler for AsciiDoc.
type Handler struct{}

// New returns an AsciiDoc handler.
func New() *Handler {
	return &Handler{}
}

// Format returns ast.AsciiDoc.
func (h *Handler) Format() ast.SourceFormat {
	return ast.AsciiDoc
}

// admonitionLabels maps AsciiDoc admonition labels to canonical kinds.
var admonitionLabels = map[string]string{
	"NOTE":      "note",
	"TIP":       "tip",
	"IMPORTANT": "important",
	"WARNING":   "warning",
	"CAUTION":   "caution",
}

// Parse converts AsciiDoc text into a canonical Document. The document
// header (title and :name: value attribute lines) is consumed into
// Meta; attributes never appear in Content.
func (h *Handler) Parse(input string, cfg formats.ParseConfig) (*ast.Document, error) {
	doc := ast.New(ast.AsciiDoc)
	if cfg.PreserveRawSource {
		doc.RawSource = input
	}

	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	lines = parseHeader(lines, doc)
	doc.Content = parseBlocks(lines)
	return doc, nil
}

// parseHeader consumes the document title and header attribute lines,
// returning the remaining lines.
func parseHeader(lines []string, doc *ast.Document) []string {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || !strings.HasPrefix(lines[i], "= ") {
		return lines
	}

	doc.Meta.Title = strings.TrimSpace(lines[i][2:])
	i++

	// Header continues until the first blank line: an optional author
	// line followed by attribute entries.
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			break
		}
		if name, value, ok := parseAttributeLine(line); ok {
			switch name {
			case "author":
				doc.Meta.Authors = append(doc.Meta.Authors, value)
			case "revdate", "date":
				doc.Meta.Date = value
			default:
				doc.Meta.SetExtra(name, value)
			}
		} else if len(doc.Meta.Authors) == 0 && !strings.HasPrefix(line, "=") {
			doc.Meta.Authors = append(doc.Meta.Authors, line)
		} else {
			break
		}
		i++
	}
	return lines[i:]
}

// parseAttributeLine recognizes ":name: value" header attributes.
func parseAttributeLine(line string) (name, value string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	end := strings.Index(line[1:], ":")
	if end < 0 {
		return "", "", false
	}
	name = strings.ToLower(line[1 : 1+end])
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	value = strings.TrimSpace(line[2+end:])
	return name, value, true
}

// blockAttrs carries the bracket and title lines preceding a block.
type blockAttrs struct {
	style   string   // first positional attribute, e.g. "source", "quote", "NOTE"
	args    []string // remaining positional attributes
	id      string   // [[id]] anchor
	title   string   // .Title line
	present bool
}

func (a *blockAttrs) reset() {
	*a = blockAttrs{}
}

func parseBlocks(lines []string) []ast.Block {
	var blocks []ast.Block
	var attrs blockAttrs

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			attrs.reset()
			i++

		case strings.HasPrefix(trimmed, "////"):
			// Block comment: skip to the closing delimiter.
			i = skipDelimited(lines, i, "////")

		case strings.HasPrefix(trimmed, "//"):
			i++

		case strings.HasPrefix(trimmed, "[[") && strings.HasSuffix(trimmed, "]]"):
			attrs.id = strings.TrimSuffix(strings.TrimPrefix(trimmed, "[["), "]]")
			attrs.present = true
			i++

		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			parts := strings.Split(trimmed[1:len(trimmed)-1], ",")
			attrs.style = strings.TrimSpace(parts[0])
			attrs.args = nil
			for _, p := range parts[1:] {
				attrs.args = append(attrs.args, strings.TrimSpace(p))
			}
			attrs.present = true
			i++

		case strings.HasPrefix(trimmed, ".") && len(trimmed) > 1 && !strings.HasPrefix(trimmed, ".."):
			attrs.title = trimmed[1:]
			attrs.present = true
			i++

		case isHeadingLine(trimmed):
			marker := headingLevel(trimmed)
			text := strings.TrimSpace(trimmed[marker:])
			// Section markers shift by one: "==" is the first section
			// level since a single "=" is the document title.
			blocks = append(blocks, &ast.Heading{
				Level:   marker - 1,
				Content: parseInlines(text),
				ID:      attrs.id,
			})
			attrs.reset()
			i++

		case trimmed == "----":
			body, next := collectDelimited(lines, i, "----")
			blocks = append(blocks, codeBlockFromAttrs(body, attrs))
			attrs.reset()
			i = next

		case trimmed == "....":
			body, next := collectDelimited(lines, i, "....")
			blocks = append(blocks, &ast.Raw{Format: ast.AsciiDoc, Content: body})
			attrs.reset()
			i = next

		case trimmed == "++++":
			body, next := collectDelimited(lines, i, "++++")
			if attrs.style == "stem" || attrs.style == "latexmath" || attrs.style == "asciimath" {
				blocks = append(blocks, &ast.MathBlock{Content: strings.TrimRight(body, "\n")})
			} else {
				blocks = append(blocks, &ast.Raw{Format: ast.AsciiDoc, Content: body})
			}
			attrs.reset()
			i = next

		case trimmed == "____":
			inner, next := collectDelimitedLines(lines, i, "____")
			quote := &ast.BlockQuote{Content: parseBlocks(inner)}
			if attrs.style == "quote" || attrs.style == "verse" {
				if len(attrs.args) > 0 && attrs.args[0] != "" {
					quote.Attribution = parseInlines(strings.Join(attrs.args, ", "))
				}
			}
			blocks = append(blocks, quote)
			attrs.reset()
			i = next

		case trimmed == "****":
			inner, next := collectDelimitedLines(lines, i, "****")
			blocks = append(blocks, &ast.Container{
				ID:      attrs.id,
				Classes: []string{"sidebar"},
				Content: parseBlocks(inner),
			})
			attrs.reset()
			i = next

		case trimmed == "====":
			inner, next := collectDelimitedLines(lines, i, "====")
			if kind, ok := admonitionLabels[attrs.style]; ok {
				blocks = append(blocks, &ast.BlockQuote{
					Content:    parseBlocks(inner),
					Admonition: kind,
				})
			} else {
				blocks = append(blocks, &ast.Container{
					ID:      attrs.id,
					Classes: []string{"example"},
					Content: parseBlocks(inner),
				})
			}
			attrs.reset()
			i = next

		case trimmed == "|===":
			table, next := parseTable(lines, i, attrs.title)
			blocks = append(blocks, table)
			attrs.reset()
			i = next

		case trimmed == "'''":
			blocks = append(blocks, &ast.ThematicBreak{})
			attrs.reset()
			i++

		case strings.HasPrefix(trimmed, "image::"):
			blocks = append(blocks, imageBlock(trimmed))
			attrs.reset()
			i++

		case isListLine(trimmed):
			list, next := parseList(lines, i)
			blocks = append(blocks, list)
			attrs.reset()
			i = next

		default:
			if block, consumed := admonitionParagraph(lines, i); block != nil {
				blocks = append(blocks, block)
				attrs.reset()
				i = consumed
				continue
			}
			para, next := parseParagraph(lines, i)
			blocks = append(blocks, para)
			attrs.reset()
			i = next
		}
	}
	return blocks
}

func isHeadingLine(line string) bool {
	if !strings.HasPrefix(line, "==") {
		return false
	}
	level := headingLevel(line)
	return level >= 2 && level <= 6 && len(line) > level && line[level] == ' '
}

func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '=' {
		level++
	}
	return level
}

func codeBlockFromAttrs(body string, attrs blockAttrs) ast.Block {
	cb := &ast.CodeBlock{Content: body}
	if attrs.style == "source" && len(attrs.args) > 0 {
		cb.Language = attrs.args[0]
		for _, arg := range attrs.args[1:] {
			if arg == "linenums" {
				cb.LineNumbers = true
			}
		}
	}
	return cb
}

// skipDelimited returns the index just past the closing delimiter.
func skipDelimited(lines []string, start int, delim string) int {
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delim {
			return i + 1
		}
	}
	return len(lines)
}

// collectDelimited gathers the verbatim body of a delimited block.
func collectDelimited(lines []string, start int, delim string) (string, int) {
	var body []string
	i := start + 1
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delim {
			i++
			break
		}
		body = append(body, lines[i])
	}
	if len(body) == 0 {
		return "", i
	}
	return strings.Join(body, "\n") + "\n", i
}

// collectDelimitedLines gathers the body lines of a delimited block for
// recursive block parsing.
func collectDelimitedLines(lines []string, start int, delim string) ([]string, int) {
	var body []string
	i := start + 1
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delim {
			i++
			break
		}
		body = append(body, lines[i])
	}
	return body, i
}

func parseTable(lines []string, start int, caption string) (ast.Block, int) {
	table := &ast.Table{}
	if caption != "" {
		table.Caption = parseInlines(caption)
	}

	var rows []ast.TableRow
	headerBreak := -1
	i := start + 1
	rowIndex := 0
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "|===" {
			i++
			break
		}
		if trimmed == "" {
			if rowIndex == 1 {
				headerBreak = rowIndex
			}
			continue
		}
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		var cells []ast.TableCell
		for _, cell := range strings.Split(trimmed, "|")[1:] {
			cells = append(cells, ast.TableCell{Content: []ast.Block{
				&ast.Paragraph{Content: parseInlines(strings.TrimSpace(cell))},
			}})
		}
		rows = append(rows, ast.TableRow{Cells: cells})
		rowIndex++
	}

	if headerBreak == 1 && len(rows) > 1 {
		table.Header = &rows[0]
		table.Body = rows[1:]
	} else {
		table.Body = rows
	}
	return table, i
}

func imageBlock(line string) ast.Block {
	rest := strings.TrimPrefix(line, "image::")
	url := rest
	alt := ""
	if open := strings.Index(rest, "["); open >= 0 {
		url = rest[:open]
		if close := strings.LastIndex(rest, "]"); close > open {
			alt = strings.Split(rest[open+1:close], ",")[0]
		}
	}
	return &ast.Paragraph{Content: []ast.Inline{
		&ast.Image{URL: url, Alt: alt},
	}}
}

func isListLine(line string) bool {
	return listMarkerLen(line) > 0
}

// listMarkerLen returns the length of a list marker at the start of the
// line ("* ", "** ", ". ", ".. ", "- "), or 0.
func listMarkerLen(line string) int {
	if strings.HasPrefix(line, "- ") {
		return 2
	}
	for _, marker := range []byte{'*', '.'} {
		depth := 0
		for depth < len(line) && line[depth] == marker {
			depth++
		}
		if depth > 0 && depth < len(line) && line[depth] == ' ' {
			// A ". Title" line is a block title, not a list; require
			// the dot form to repeat or follow list context.
			if marker == '.' && depth == 1 {
				return 0
			}
			return depth + 1
		}
	}
	return 0
}

type listEntry struct {
	depth   int
	ordered bool
	checked *bool
	text    string
}

func parseList(lines []string, start int) (ast.Block, int) {
	var entries []listEntry
	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		mlen := listMarkerLen(trimmed)
		if mlen == 0 {
			// Continuation of the previous item.
			if len(entries) > 0 {
				entries[len(entries)-1].text += " " + trimmed
				continue
			}
			break
		}
		marker := trimmed[:mlen-1]
		text := strings.TrimSpace(trimmed[mlen:])
		entry := listEntry{
			depth:   len(marker),
			ordered: marker[0] == '.',
		}
		if strings.HasPrefix(text, "[x] ") || strings.HasPrefix(text, "[X] ") {
			checked := true
			entry.checked = &checked
			text = text[4:]
		} else if strings.HasPrefix(text, "[ ] ") {
			checked := false
			entry.checked = &checked
			text = text[4:]
		}
		entry.text = text
		entries = append(entries, entry)
	}

	list, _ := buildList(entries, 0)
	return list, i
}

// buildList assembles a (possibly nested) list from flat entries.
func buildList(entries []listEntry, pos int) (*ast.List, int) {
	depth := entries[pos].depth
	list := &ast.List{Kind: ast.ListBullet}
	if entries[pos].ordered {
		list.Kind = ast.ListOrdered
	}

	for pos < len(entries) {
		e := entries[pos]
		if e.depth < depth {
			break
		}
		if e.depth > depth {
			nested, next := buildList(entries, pos)
			if len(list.Items) == 0 {
				list.Items = append(list.Items, ast.ListItem{})
			}
			last := &list.Items[len(list.Items)-1]
			last.Content = append(last.Content, nested)
			pos = next
			continue
		}
		item := ast.ListItem{
			Content: []ast.Block{&ast.Paragraph{Content: parseInlines(e.text)}},
			Checked: e.checked,
		}
		if e.checked != nil {
			list.Kind = ast.ListTask
		}
		list.Items = append(list.Items, item)
		pos++
	}
	return list, pos
}

// admonitionParagraph recognizes "NOTE: text" style paragraphs.
func admonitionParagraph(lines []string, start int) (ast.Block, int) {
	trimmed := strings.TrimSpace(lines[start])
	for label, kind := range admonitionLabels {
		prefix := label + ": "
		if strings.HasPrefix(trimmed, prefix) {
			para, next := parseParagraph(lines, start)
			p := para.(*ast.Paragraph)
			// Strip the label from the first text run.
			if first, ok := p.Content[0].(*ast.Text); ok {
				first.Content = strings.TrimPrefix(first.Content, prefix)
			}
			return &ast.BlockQuote{
				Content:    []ast.Block{p},
				Admonition: kind,
			}, next
		}
	}
	return nil, start
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
		if strings.HasSuffix(trimmed, " +") {
			inlines = append(inlines, parseInlines(strings.TrimSuffix(trimmed, " +"))...)
			inlines = append(inlines, &ast.LineBreak{})
		} else {
			inlines = append(inlines, parseInlines(trimmed)...)
		}
	}
	// A hard break absorbs the soft break of the next line join, and
	// trailing breaks are dropped.
	inlines = trimBreaks(inlines)
	return &ast.Paragraph{Content: inlines}, i
}

// trimBreaks removes soft breaks that directly follow hard breaks and
// any trailing break.
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
	switch line {
	case "----", "....", "++++", "____", "****", "====", "|===", "'''":
		return true
	}
	if isHeadingLine(line) || isListLine(line) {
		return true
	}
	if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "image::") {
		return true
	}
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return true
	}
	return false
}
