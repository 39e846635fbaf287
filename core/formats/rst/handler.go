// Package rst implements the format handler for reStructuredText.
// Section structure comes from underline adornments with a fixed
// character-to-level mapping; directives cover the block constructs.
package rst

import (
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Handler implements formats.FormatHandler for reStructuredText.
type Handler struct{}

// New returns a reStructuredText handler.
func New() *Handler {
	return &Handler{}
}

// Format returns ast.ReStructuredText.
func (h *Handler) Format() ast.SourceFormat {
	return ast.ReStructuredText
}

// underlineLevels fixes the adornment hierarchy. Documents that deviate
// still parse; their levels follow this table rather than order of
// first use.
var underlineLevels = map[byte]int{
	'=': 1,
	'-': 2,
	'~': 3,
	'^': 4,
}

var admonitionNames = map[string]string{
	"note":      "note",
	"tip":       "tip",
	"important": "important",
	"warning":   "warning",
	"caution":   "caution",
}

// Parse converts reStructuredText into a canonical Document. A leading
// field list (:Author:, :Date:) feeds Meta.
func (h *Handler) Parse(input string, cfg formats.ParseConfig) (*ast.Document, error) {
	doc := ast.New(ast.ReStructuredText)
	if cfg.PreserveRawSource {
		doc.RawSource = input
	}
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	lines = parseDocinfo(lines, doc)
	doc.Content = parseBlocks(lines)
	return doc, nil
}

// parseDocinfo consumes a leading field list into metadata.
func parseDocinfo(lines []string, doc *ast.Document) []string {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	seen := false
	for i < len(lines) {
		name, value, ok := fieldLine(strings.TrimSpace(lines[i]))
		if !ok {
			break
		}
		switch strings.ToLower(name) {
		case "title":
			doc.Meta.Title = value
		case "author":
			doc.Meta.Authors = append(doc.Meta.Authors, value)
		case "authors":
			for _, a := range strings.Split(value, ";") {
				if a = strings.TrimSpace(a); a != "" {
					doc.Meta.Authors = append(doc.Meta.Authors, a)
				}
			}
		case "date":
			doc.Meta.Date = value
		default:
			doc.Meta.SetExtra(strings.ToLower(name), value)
		}
		seen = true
		i++
	}
	if !seen {
		return lines
	}
	return lines[i:]
}

// fieldLine recognizes ":Name: value" field list entries.
func fieldLine(line string) (name, value string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	end := strings.Index(line[1:], ":")
	if end <= 0 {
		return "", "", false
	}
	name = line[1 : 1+end]
	if strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	return name, strings.TrimSpace(line[2+end:]), true
}

func parseBlocks(lines []string) []ast.Block {
	var blocks []ast.Block

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == "":
			i++

		case strings.HasPrefix(trimmed, ".. ") || trimmed == "..":
			block, next := parseDirective(lines, i)
			if block != nil {
				blocks = append(blocks, block)
			}
			i = next

		case isHeadingAt(lines, i):
			underline := strings.TrimSpace(lines[i+1])
			blocks = append(blocks, &ast.Heading{
				Level:   underlineLevels[underline[0]],
				Content: parseInlines(trimmed),
			})
			i += 2

		case isTransition(trimmed) && !isHeadingAt(lines, i):
			blocks = append(blocks, &ast.ThematicBreak{})
			i++

		case isTableBorder(trimmed):
			table, next, ok := parseSimpleTable(lines, i)
			if ok {
				blocks = append(blocks, table)
				i = next
			} else {
				blocks = append(blocks, &ast.ThematicBreak{})
				i++
			}

		case isListLine(trimmed):
			list, next := parseList(lines, i)
			blocks = append(blocks, list)
			i = next

		case strings.HasPrefix(lines[i], " ") || strings.HasPrefix(lines[i], "\t"):
			// Indented block outside a directive is a block quote.
			inner, next := collectIndented(lines, i)
			blocks = append(blocks, parseQuoteBody(inner))
			i = next

		default:
			parsed, next := parseParagraph(lines, i)
			blocks = append(blocks, parsed...)
			i = next
		}
	}
	return blocks
}

func isHeadingAt(lines []string, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	text := strings.TrimSpace(lines[i])
	underline := strings.TrimSpace(lines[i+1])
	if text == "" || underline == "" || isAdornment(text) {
		return false
	}
	return isAdornment(underline) && len(underline) >= len(text)
}

// isAdornment reports whether the line is a run of one heading
// adornment character, length at least 4.
func isAdornment(line string) bool {
	if len(line) < 4 {
		return false
	}
	c := line[0]
	if _, ok := underlineLevels[c]; !ok {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != c {
			return false
		}
	}
	return true
}

func isTransition(line string) bool {
	return isAdornment(line) && line[0] == '-'
}

func isTableBorder(line string) bool {
	if len(line) < 4 || line[0] != '=' {
		return false
	}
	seenSpace := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '=':
		case ' ':
			seenSpace = true
		default:
			return false
		}
	}
	return seenSpace
}

// parseDirective handles ".. name:: argument" plus options and an
// indented body. Unknown directives and comments are dropped.
func parseDirective(lines []string, start int) (ast.Block, int) {
	head := strings.TrimSpace(lines[start])
	rest := strings.TrimPrefix(head, "..")
	rest = strings.TrimSpace(rest)

	sep := strings.Index(rest, "::")
	if sep < 0 {
		// A comment; its indented body is skipped with it.
		_, next := collectIndented(lines, start+1)
		return nil, next
	}
	name := strings.ToLower(strings.TrimSpace(rest[:sep]))
	arg := strings.TrimSpace(rest[sep+2:])

	body, next := collectIndented(lines, start+1)
	options, content := splitOptions(body)

	switch {
	case name == "code-block" || name == "code" || name == "sourcecode":
		cb := &ast.CodeBlock{Language: arg, Content: joinLines(content)}
		if _, ok := options["linenos"]; ok {
			cb.LineNumbers = true
		}
		if lns, ok := options["emphasize-lines"]; ok {
			cb.HighlightLines = parseLineList(lns)
		}
		return cb, next

	case name == "image" || name == "figure":
		img := &ast.Image{URL: arg, Alt: options["alt"], Width: options["width"]}
		return &ast.Paragraph{Content: []ast.Inline{img}}, next

	case name == "math":
		content := joinLines(content)
		if arg != "" {
			content = arg
		}
		return &ast.MathBlock{Content: strings.TrimRight(content, "\n")}, next

	case name == "raw":
		format := ast.SourceFormat(strings.ToLower(arg))
		if arg == "html" || !format.IsValid() {
			format = ast.ReStructuredText
		}
		return &ast.Raw{Format: format, Content: joinLines(content)}, next

	case name == "container":
		c := &ast.Container{Content: parseBlocks(content)}
		if arg != "" {
			c.Classes = strings.Fields(arg)
		}
		if id, ok := options["name"]; ok {
			c.ID = id
		}
		return c, next

	case name == "admonition":
		return &ast.BlockQuote{Content: parseBlocks(content), Admonition: "note"}, next

	case name == "epigraph" || name == "highlights" || name == "pull-quote":
		return parseQuoteBody(content), next

	case name == "include":
		// No file resolution at parse time; the reference is kept as a
		// raw directive so rendering back to rst is lossless.
		return &ast.Raw{Format: ast.ReStructuredText, Content: head + "\n"}, next
	}

	if kind, ok := admonitionNames[name]; ok {
		inner := content
		if arg != "" {
			inner = append([]string{arg, ""}, content...)
		}
		return &ast.BlockQuote{Content: parseBlocks(inner), Admonition: kind}, next
	}

	// Unknown directive: keep the raw text so nothing is silently lost.
	var sb strings.Builder
	sb.WriteString(lines[start] + "\n")
	for _, l := range body {
		sb.WriteString("   " + l + "\n")
	}
	return &ast.Raw{Format: ast.ReStructuredText, Content: sb.String()}, next
}

// splitOptions separates leading ":opt: value" lines from the body.
func splitOptions(body []string) (map[string]string, []string) {
	options := make(map[string]string)
	i := 0
	for ; i < len(body); i++ {
		trimmed := strings.TrimSpace(body[i])
		if trimmed == "" {
			if len(options) > 0 || i == 0 {
				continue
			}
			break
		}
		name, value, ok := fieldLine(trimmed)
		if !ok {
			break
		}
		options[strings.ToLower(name)] = value
	}
	for i < len(body) && strings.TrimSpace(body[i]) == "" {
		i++
	}
	return options, body[i:]
}

func parseLineList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n := 0
		for _, r := range strings.TrimSpace(part) {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// collectIndented gathers the indented block starting at start,
// dedented by the indent of its first non-blank line.
func collectIndented(lines []string, start int) ([]string, int) {
	var body []string
	indent := -1
	i := start
	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// Blank lines inside the block are kept; trailing ones are
			// trimmed after the loop.
			body = append(body, "")
			continue
		}
		lead := len(line) - len(strings.TrimLeft(line, " \t"))
		if lead == 0 {
			break
		}
		if indent < 0 {
			indent = lead
		}
		if lead < indent {
			break
		}
		body = append(body, dedent(line, indent))
	}
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	if indent < 0 {
		return nil, start
	}
	return body, i
}

func dedent(line string, indent int) string {
	removed := 0
	i := 0
	for i < len(line) && removed < indent {
		if line[i] == ' ' {
			removed++
		} else if line[i] == '\t' {
			removed += 4
		} else {
			break
		}
		i++
	}
	return line[i:]
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// parseQuoteBody builds a block quote, pulling a trailing "-- name"
// line into the attribution.
func parseQuoteBody(lines []string) ast.Block {
	quote := &ast.BlockQuote{}
	if len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		for _, prefix := range []string{"-- ", "— "} {
			if strings.HasPrefix(last, prefix) {
				quote.Attribution = parseInlines(strings.TrimPrefix(last, prefix))
				lines = lines[:len(lines)-1]
				break
			}
		}
	}
	quote.Content = parseBlocks(lines)
	return quote
}

func isListLine(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "#. ") {
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

// listMarkerStyle distinguishes the three marker families. Bullet and
// numbered markers must not merge across a blank line, and neither may
// auto-enumerated "#." items merge with explicit numbers.
func listMarkerStyle(line string) string {
	switch {
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		return "bullet"
	case strings.HasPrefix(line, "#. "):
		return "auto"
	case orderedMarkerLen(line) > 0:
		return "numbered"
	default:
		return ""
	}
}

func parseList(lines []string, start int) (ast.Block, int) {
	first := strings.TrimSpace(lines[start])
	style := listMarkerStyle(first)
	list := &ast.List{Kind: ast.ListBullet}
	if style == "auto" || style == "numbered" {
		list.Kind = ast.ListOrdered
	}
	if n := orderedMarkerLen(first); n > 0 {
		list.Start = parseLineListFirst(first[:n-2])
	}

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			// A blank line ends the list unless another item with the
			// same marker style follows directly.
			if i+1 < len(lines) && listMarkerStyle(strings.TrimSpace(lines[i+1])) == style {
				continue
			}
			break
		}
		var text string
		switch {
		case strings.HasPrefix(trimmed, "#. ") && list.Kind == ast.ListOrdered:
			text = trimmed[3:]
		case orderedMarkerLen(trimmed) > 0 && list.Kind == ast.ListOrdered:
			text = trimmed[orderedMarkerLen(trimmed):]
		case (strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ")) && list.Kind == ast.ListBullet:
			text = trimmed[2:]
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

func parseLineListFirst(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// parseSimpleTable handles the ===-bordered simple table form. Columns
// follow the spans of the border line.
func parseSimpleTable(lines []string, start int) (ast.Block, int, bool) {
	border := lines[start]
	spans := columnSpans(border)
	if len(spans) < 2 {
		return nil, start, false
	}

	var rows []ast.TableRow
	borders := 1
	headerRows := 0
	i := start + 1
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		if isTableBorder(trimmed) || isAdornment(trimmed) {
			borders++
			if borders == 2 {
				headerRows = len(rows)
			}
			if borders == 3 || (borders == 2 && headerRows == len(rows) && allRowsDone(lines, i+1)) {
				i++
				break
			}
			continue
		}
		rows = append(rows, splitBySpans(lines[i], spans))
	}
	if borders < 2 || len(rows) == 0 {
		return nil, start, false
	}

	table := &ast.Table{}
	if borders >= 3 && headerRows == 1 && len(rows) > 1 {
		table.Header = &rows[0]
		table.Body = rows[1:]
	} else {
		table.Body = rows
	}
	return table, i, true
}

func allRowsDone(lines []string, i int) bool {
	return i >= len(lines) || strings.TrimSpace(lines[i]) == ""
}

// columnSpans returns the [start, end) ranges of = runs in a border.
func columnSpans(border string) [][2]int {
	var spans [][2]int
	begin := -1
	for i := 0; i <= len(border); i++ {
		if i < len(border) && border[i] == '=' {
			if begin < 0 {
				begin = i
			}
		} else if begin >= 0 {
			spans = append(spans, [2]int{begin, i})
			begin = -1
		}
	}
	return spans
}

func splitBySpans(line string, spans [][2]int) ast.TableRow {
	row := ast.TableRow{}
	for idx, span := range spans {
		from := span[0]
		to := span[1]
		if idx == len(spans)-1 {
			to = len(line)
		}
		if from > len(line) {
			from = len(line)
		}
		if to > len(line) {
			to = len(line)
		}
		cell := strings.TrimSpace(line[from:to])
		row.Cells = append(row.Cells, ast.TableCell{Content: []ast.Block{
			&ast.Paragraph{Content: parseInlines(cell)},
		}})
	}
	return row
}

// parseParagraph also handles the "::" literal block lead-in, so it
// may yield both the introducing paragraph and the code block.
func parseParagraph(lines []string, start int) ([]ast.Block, int) {
	var text []string
	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		if i > start && (isStructural(lines, i) || strings.HasPrefix(lines[i], " ")) {
			break
		}
		// The underline of a heading belongs to the heading case.
		if isHeadingAt(lines, i) {
			break
		}
		text = append(text, trimmed)
	}

	joined := strings.Join(text, "\n")
	if strings.HasSuffix(joined, "::") {
		// Literal block: the indented lines that follow are verbatim.
		lead := strings.TrimSpace(strings.TrimSuffix(joined, "::"))
		body, next := collectIndentedAfterBlank(lines, i)
		if len(body) > 0 {
			cb := &ast.CodeBlock{Content: joinLines(body)}
			if lead == "" {
				return []ast.Block{cb}, next
			}
			para := &ast.Paragraph{Content: parseInlines(lead + ":")}
			return []ast.Block{para, cb}, next
		}
	}

	if joined == "" {
		return nil, i + 1
	}
	return []ast.Block{&ast.Paragraph{Content: parseMultiline(text)}}, i
}

func collectIndentedAfterBlank(lines []string, i int) ([]string, int) {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || (!strings.HasPrefix(lines[i], " ") && !strings.HasPrefix(lines[i], "\t")) {
		return nil, i
	}
	return collectIndented(lines, i)
}

func parseMultiline(text []string) []ast.Inline {
	var inlines []ast.Inline
	for idx, line := range text {
		if idx > 0 {
			inlines = append(inlines, &ast.SoftBreak{})
		}
		inlines = append(inlines, parseInlines(line)...)
	}
	return inlines
}

func isStructural(lines []string, i int) bool {
	trimmed := strings.TrimSpace(lines[i])
	return strings.HasPrefix(trimmed, ".. ") || isListLine(trimmed) ||
		isTableBorder(trimmed) || isTransition(trimmed)
}
