// Package markdown implements the format handler for Markdown (GFM).
// Parsing is delegated to the goldmark engine and its AST is mapped
// into the canonical tree; rendering is hand-written so delimiters can
// track nesting depth.
package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/errors"
	"github.com/formatrix/formatrix/core/formats"
)

// Handler implements formats.FormatHandler for Markdown.
type Handler struct {
	engine goldmark.Markdown
}

// New returns a Markdown handler. The goldmark engine is stateless and
// safe for reuse across calls.
func New() *Handler {
	return &Handler{
		engine: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Format returns ast.Markdown.
func (h *Handler) Format() ast.SourceFormat {
	return ast.Markdown
}

// Parse converts Markdown text into a canonical Document. A YAML or
// TOML front matter block, when present, is consumed into Meta and
// never appears in Content.
func (h *Handler) Parse(input string, cfg formats.ParseConfig) (*ast.Document, error) {
	doc := ast.New(ast.Markdown)
	if cfg.PreserveRawSource {
		doc.RawSource = input
	}

	body := h.extractFrontMatter(input, doc)

	src := []byte(body)
	root := h.engine.Parser().Parse(text.NewReader(src))
	if root == nil {
		return nil, errors.NewParse("markdown", "parser returned no document")
	}

	doc.Content = convertBlocks(root, src)
	return doc, nil
}

// extractFrontMatter strips a leading front matter block into doc.Meta
// and returns the remaining body. Malformed front matter is left in the
// body untouched rather than failing the parse.
func (h *Handler) extractFrontMatter(input string, doc *ast.Document) string {
	if !strings.HasPrefix(input, "---\n") && !strings.HasPrefix(input, "+++\n") {
		return input
	}

	var matter map[string]interface{}
	rest, err := frontmatter.Parse(strings.NewReader(input), &matter)
	if err != nil || matter == nil {
		return input
	}

	keys := make([]string, 0, len(matter))
	for k := range matter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := matter[key]
		switch strings.ToLower(key) {
		case "title":
			doc.Meta.Title = fmt.Sprint(value)
		case "date":
			doc.Meta.Date = fmt.Sprint(value)
		case "author":
			doc.Meta.Authors = append(doc.Meta.Authors, fmt.Sprint(value))
		case "authors":
			if list, ok := value.([]interface{}); ok {
				for _, entry := range list {
					doc.Meta.Authors = append(doc.Meta.Authors, fmt.Sprint(entry))
				}
			} else {
				doc.Meta.Authors = append(doc.Meta.Authors, fmt.Sprint(value))
			}
		default:
			doc.Meta.SetExtra(key, fmt.Sprint(value))
		}
	}
	return string(rest)
}

// convertBlocks maps the children of a goldmark node into canonical
// blocks.
func convertBlocks(parent gast.Node, src []byte) []ast.Block {
	var blocks []ast.Block
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if converted := convertBlock(child, src); converted != nil {
			blocks = append(blocks, converted)
		}
	}
	return blocks
}

func convertBlock(node gast.Node, src []byte) ast.Block {
	switch n := node.(type) {
	case *gast.Heading:
		return &ast.Heading{
			Level:   n.Level,
			Content: convertInlines(n, src),
		}

	case *gast.Paragraph:
		return &ast.Paragraph{Content: convertInlines(n, src)}

	case *gast.TextBlock:
		return &ast.Paragraph{Content: convertInlines(n, src)}

	case *gast.Blockquote:
		return &ast.BlockQuote{Content: convertBlocks(n, src)}

	case *gast.FencedCodeBlock:
		return &ast.CodeBlock{
			Language: string(n.Language(src)),
			Content:  linesText(n, src),
		}

	case *gast.CodeBlock:
		return &ast.CodeBlock{Content: linesText(n, src)}

	case *gast.List:
		return convertList(n, src)

	case *gast.ThematicBreak:
		return &ast.ThematicBreak{}

	case *gast.HTMLBlock:
		content := linesText(n, src)
		if n.HasClosure() {
			content += string(n.ClosureLine.Value(src))
		}
		return &ast.Raw{Format: ast.Markdown, Content: content}

	case *east.Table:
		return convertTable(n, src)
	}
	return nil
}

func convertList(n *gast.List, src []byte) ast.Block {
	list := &ast.List{Kind: ast.ListBullet}
	if n.IsOrdered() {
		list.Kind = ast.ListOrdered
		if n.Start != 1 {
			list.Start = n.Start
		}
	}

	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		li := ast.ListItem{Content: convertBlocks(item, src)}
		if checked, isTask := taskState(item, src); isTask {
			list.Kind = ast.ListTask
			li.Checked = &checked
		}
		list.Items = append(list.Items, li)
	}
	return list
}

// taskState inspects a goldmark list item for a GFM task checkbox.
func taskState(item gast.Node, src []byte) (checked, isTask bool) {
	first := item.FirstChild()
	if first == nil {
		return false, false
	}
	if box, ok := first.FirstChild().(*east.TaskCheckBox); ok {
		return box.IsChecked, true
	}
	return false, false
}

func convertTable(n *east.Table, src []byte) ast.Block {
	table := &ast.Table{}
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []ast.TableCell
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, ast.TableCell{
				Content: []ast.Block{
					&ast.Paragraph{Content: convertInlines(cell, src)},
				},
			})
		}
		converted := ast.TableRow{Cells: cells}
		if _, ok := row.(*east.TableHeader); ok {
			table.Header = &converted
		} else {
			table.Body = append(table.Body, converted)
		}
	}
	return table
}

func convertInlines(parent gast.Node, src []byte) []ast.Inline {
	var inlines []ast.Inline
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		inlines = append(inlines, convertInline(child, src)...)
	}
	return inlines
}

func convertInline(node gast.Node, src []byte) []ast.Inline {
	switch n := node.(type) {
	case *gast.Text:
		var out []ast.Inline
		if content := string(n.Segment.Value(src)); content != "" {
			out = append(out, &ast.Text{Content: content})
		}
		if n.HardLineBreak() {
			out = append(out, &ast.LineBreak{})
		} else if n.SoftLineBreak() {
			out = append(out, &ast.SoftBreak{})
		}
		return out

	case *gast.String:
		return []ast.Inline{&ast.Text{Content: string(n.Value)}}

	case *gast.CodeSpan:
		return []ast.Inline{&ast.Code{Content: nodeText(n, src)}}

	case *gast.Emphasis:
		if n.Level >= 2 {
			return []ast.Inline{&ast.Strong{Content: convertInlines(n, src)}}
		}
		return []ast.Inline{&ast.Emphasis{Content: convertInlines(n, src)}}

	case *east.Strikethrough:
		return []ast.Inline{&ast.Strikethrough{Content: convertInlines(n, src)}}

	case *gast.Link:
		return []ast.Inline{&ast.Link{
			URL:     string(n.Destination),
			Title:   string(n.Title),
			Content: convertInlines(n, src),
		}}

	case *gast.Image:
		return []ast.Inline{&ast.Image{
			URL:   string(n.Destination),
			Title: string(n.Title),
			Alt:   nodeText(n, src),
		}}

	case *gast.AutoLink:
		url := string(n.URL(src))
		label := string(n.Label(src))
		return []ast.Inline{&ast.Link{
			URL:     url,
			Content: []ast.Inline{&ast.Text{Content: label}},
		}}

	case *gast.RawHTML:
		var sb strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(src))
		}
		return []ast.Inline{&ast.Text{Content: sb.String()}}

	case *east.TaskCheckBox:
		// Consumed at the list level.
		return nil
	}

	// Unknown inline containers still contribute their children.
	if node.ChildCount() > 0 {
		return convertInlines(node, src)
	}
	return nil
}

// nodeText gathers the literal text beneath a node.
func nodeText(node gast.Node, src []byte) string {
	var sb strings.Builder
	gatherText(node, src, &sb)
	return sb.String()
}

func gatherText(node gast.Node, src []byte, sb *strings.Builder) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *gast.Text:
			sb.Write(n.Segment.Value(src))
		case *gast.String:
			sb.Write(n.Value)
		default:
			gatherText(child, src, sb)
		}
	}
}

// linesText gathers the raw source lines owned by a block node.
func linesText(node gast.Node, src []byte) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

// SupportsFeature reports Markdown's native feature set (GFM).
func (h *Handler) SupportsFeature(name string) bool {
	for _, f := range h.SupportedFeatures() {
		if f == name {
			return true
		}
	}
	return false
}

// SupportedFeatures lists the features GFM expresses natively. Math,
// footnotes, and the AsciiDoc-style macro features are absent: they
// degrade on render.
func (h *Handler) SupportedFeatures() []string {
	return []string{
		formats.FeatureHeading,
		formats.FeatureBold,
		formats.FeatureItalic,
		formats.FeatureStrikethrough,
		formats.FeatureCode,
		formats.FeatureCodeBlock,
		formats.FeatureLink,
		formats.FeatureImage,
		formats.FeatureList,
		formats.FeatureTable,
	}
}
