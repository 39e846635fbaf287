// Package typst implements the format handler for Typst markup. The
// parser covers Typst's markup mode; scripting lines (#let, #set,
// #show) configure layout and are dropped rather than carried through
// the canonical tree.
package typst

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Handler implements formats.FormatHandler for Typst.
type Handler struct{}

// New returns a Typst handler.
func New() *Handler {
	return &Handler{}
}

// Format returns ast.Typst.
func (h *Handler) Format() ast.SourceFormat {
	return ast.Typst
}

// Parse converts Typst markup into a canonical Document.
func (h *Handler) Parse(input string, cfg formats.ParseConfig) (*ast.Document, error) {
	doc := ast.New(ast.Typst)
	if cfg.PreserveRawSource {
		doc.RawSource = input
	}
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	doc.Content = parseBlocks(lines)
	return doc, nil
}

func parseBlocks(lines []string) []ast.Block {
	var blocks []ast.Block

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == "":
			i++

		case strings.HasPrefix(trimmed, "//"):
			i++

		case strings.HasPrefix(trimmed, "#let ") ||
			strings.HasPrefix(trimmed, "#set ") ||
			strings.HasPrefix(trimmed, "#show ") ||
			strings.HasPrefix(trimmed, "#import "):
			// Scripting statements configure rendering; they have no
			// place in the content tree.
			i++

		case isHeadingLine(trimmed):
			level := 0
			for level < len(trimmed) && trimmed[level] == '=' {
				level++
			}
			blocks = append(blocks, &ast.Heading{
				Level:   level,
				Content: parseInlines(strings.TrimSpace(trimmed[level:])),
			})
			i++

		case strings.HasPrefix(trimmed, "```"):
			block, next := parseFence(lines, i)
			blocks = append(blocks, block)
			i = next

		case isDisplayMath(trimmed):
			blocks = append(blocks, &ast.MathBlock{Content: strings.TrimSpace(trimmed[1 : len(trimmed)-1])})
			i++

		case strings.HasPrefix(trimmed, "#quote"):
			quote, next := parseQuote(lines, i)
			blocks = append(blocks, quote)
			i = next

		case strings.HasPrefix(trimmed, "#table("):
			table, next := parseTable(lines, i)
			blocks = append(blocks, table)
			i = next

		case strings.HasPrefix(trimmed, "#block["):
			container, next := parseBlockFunc(lines, i)
			blocks = append(blocks, container)
			i = next

		case strings.HasPrefix(trimmed, "#image("):
			blocks = append(blocks, &ast.Paragraph{Content: []ast.Inline{parseImage(trimmed)}})
			i++

		case strings.HasPrefix(trimmed, "#line("):
			blocks = append(blocks, &ast.ThematicBreak{})
			i++

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

func isHeadingLine(line string) bool {
	level := 0
	for level < len(line) && line[level] == '=' {
		level++
	}
	return level >= 1 && level <= 6 && level < len(line) && line[level] == ' '
}

// isDisplayMath recognizes "$ expr $" with the spaces that put Typst
// math in display mode.
func isDisplayMath(line string) bool {
	return len(line) > 3 &&
		strings.HasPrefix(line, "$ ") &&
		strings.HasSuffix(line, " $")
}

func parseFence(lines []string, start int) (ast.Block, int) {
	open := strings.TrimSpace(lines[start])
	info := strings.TrimSpace(strings.TrimPrefix(open, "```"))

	var body []string
	i := start + 1
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "```" {
			i++
			break
		}
		body = append(body, lines[i])
	}
	content := ""
	if len(body) > 0 {
		content = strings.Join(body, "\n") + "\n"
	}

	if format := ast.SourceFormat(info); format.IsValid() && format != ast.Typst {
		return &ast.Raw{Format: format, Content: content}, i
	}
	return &ast.CodeBlock{Language: info, Content: content}, i
}

// parseQuote handles #quote(...)[...] in both single and multi line
// form.
func parseQuote(lines []string, start int) (ast.Block, int) {
	quote := &ast.BlockQuote{}
	head := strings.TrimSpace(lines[start])

	if attr, ok := extractArg(head, "attribution:"); ok {
		quote.Attribution = parseInlines(strings.Trim(attr, "[]\""))
	}

	open := strings.IndexByte(head, '[')
	// Arguments end before the body bracket; find the bracket that
	// follows the closing paren.
	if paren := strings.Index(head, ")["); paren >= 0 {
		open = paren + 1
	}
	if open < 0 {
		return quote, start + 1
	}

	body := head[open+1:]
	if strings.HasSuffix(body, "]") && bracketsBalanced(body[:len(body)-1]) {
		quote.Content = []ast.Block{&ast.Paragraph{Content: parseInlines(body[:len(body)-1])}}
		return quote, start + 1
	}

	var inner []string
	if body != "" {
		inner = append(inner, body)
	}
	i := start + 1
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "]" {
			i++
			break
		}
		inner = append(inner, lines[i])
	}
	quote.Content = parseBlocks(inner)
	return quote, i
}

func parseBlockFunc(lines []string, start int) (ast.Block, int) {
	head := strings.TrimSpace(lines[start])
	body := strings.TrimPrefix(head, "#block[")

	if strings.HasSuffix(body, "]") && bracketsBalanced(body[:len(body)-1]) {
		return &ast.Container{
			Content: []ast.Block{&ast.Paragraph{Content: parseInlines(body[:len(body)-1])}},
		}, start + 1
	}

	var inner []string
	if body != "" {
		inner = append(inner, body)
	}
	i := start + 1
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "]" {
			i++
			break
		}
		inner = append(inner, lines[i])
	}
	return &ast.Container{Content: parseBlocks(inner)}, i
}

// parseTable handles #table(columns: N, ...) with bracketed cells.
func parseTable(lines []string, start int) (ast.Block, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for ; i < len(lines); i++ {
		sb.WriteString(lines[i] + "\n")
		depth += strings.Count(lines[i], "(") - strings.Count(lines[i], ")")
		if depth <= 0 {
			i++
			break
		}
	}
	src := sb.String()

	table := &ast.Table{}
	columns := 0
	if arg, ok := extractArg(src, "columns:"); ok {
		columns = parseInt(strings.TrimSpace(arg))
	}

	var headerCells []ast.TableCell
	if h := strings.Index(src, "table.header("); h >= 0 {
		headEnd := matchParen(src, h+len("table.header(")-1)
		if headEnd > 0 {
			for _, cell := range bracketItems(src[h:headEnd]) {
				headerCells = append(headerCells, makeCell(cell))
			}
			src = src[:h] + src[headEnd:]
		}
	}

	var cells []ast.TableCell
	bodyStart := strings.IndexByte(src, '(')
	for _, cell := range bracketItems(src[bodyStart+1:]) {
		cells = append(cells, makeCell(cell))
	}

	if columns <= 0 {
		columns = len(cells)
	}
	if len(headerCells) > 0 {
		table.Header = &ast.TableRow{Cells: headerCells}
	}
	for len(cells) > 0 {
		n := columns
		if n > len(cells) {
			n = len(cells)
		}
		table.Body = append(table.Body, ast.TableRow{Cells: cells[:n]})
		cells = cells[n:]
	}
	return table, i
}

func makeCell(text string) ast.TableCell {
	return ast.TableCell{Content: []ast.Block{
		&ast.Paragraph{Content: parseInlines(strings.TrimSpace(text))},
	}}
}

// bracketItems collects the top-level [..] items of a Typst argument
// list.
func bracketItems(src string) []string {
	var items []string
	depth := 0
	begin := -1
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '[':
			if depth == 0 {
				begin = i + 1
			}
			depth++
		case ']':
			depth--
			if depth == 0 && begin >= 0 {
				items = append(items, src[begin:i])
				begin = -1
			}
		}
	}
	return items
}

// extractArg pulls "name: value" out of a Typst argument list, with
// the value ending at a top-level comma or closing paren.
func extractArg(src, name string) (string, bool) {
	idx := strings.Index(src, name)
	if idx < 0 {
		return "", false
	}
	rest := src[idx+len(name):]
	depth := 0
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '[', '(':
			depth++
		case ']':
			depth--
		case ')':
			if depth == 0 {
				return strings.TrimSpace(rest[:i]), true
			}
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(rest[:i]), true
			}
		}
	}
	return strings.TrimSpace(rest), true
}

// matchParen returns the index just past the paren that closes the one
// at open.
func matchParen(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func parseImage(line string) ast.Inline {
	img := &ast.Image{}
	if open := strings.Index(line, `("`); open >= 0 {
		if end := strings.Index(line[open+2:], `"`); end >= 0 {
			img.URL = line[open+2 : open+2+end]
		}
	}
	if alt, ok := extractArg(line, "alt:"); ok {
		img.Alt = strings.Trim(alt, `"`)
	}
	if w, ok := extractArg(line, "width:"); ok {
		img.Width = strings.Trim(w, `"`)
	}
	return img
}

func bracketsBalanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func parseInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
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
	if line[i] == '.' && line[i+1] == ' ' {
		return i + 2
	}
	return 0
}

func parseList(lines []string, start int) (ast.Block, int) {
	first := strings.TrimSpace(lines[start])
	list := &ast.List{Kind: ast.ListBullet}
	if strings.HasPrefix(first, "+ ") || orderedMarkerLen(first) > 0 {
		list.Kind = ast.ListOrdered
	}
	if n := orderedMarkerLen(first); n > 0 {
		list.Start = parseInt(first[:n-2])
	}

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		var text string
		switch {
		case strings.HasPrefix(trimmed, "- ") && list.Kind == ast.ListBullet:
			text = trimmed[2:]
		case strings.HasPrefix(trimmed, "+ ") && list.Kind == ast.ListOrdered:
			text = trimmed[2:]
		case orderedMarkerLen(trimmed) > 0 && list.Kind == ast.ListOrdered:
			text = trimmed[orderedMarkerLen(trimmed):]
		default:
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
		list.Items = append(list.Items, ast.ListItem{
			Content: []ast.Block{&ast.Paragraph{Content: parseInlines(text)}},
		})
	}
	return list, i
}

func parseParagraph(lines []string, start int) (ast.Block, int) {
	var inlines []ast.Inline
	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		// The first line always belongs to the paragraph even when it
		// opens with an inline function call like #strike[..].
		if i > start && isStructuralLine(trimmed) {
			break
		}
		if len(inlines) > 0 {
			inlines = append(inlines, &ast.SoftBreak{})
		}
		if strings.HasSuffix(trimmed, " \\") {
			inlines = append(inlines, parseInlines(strings.TrimSuffix(trimmed, " \\"))...)
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
	if isHeadingLine(line) || isListLine(line) || isDisplayMath(line) {
		return true
	}
	return strings.HasPrefix(line, "```") || strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "//")
}
