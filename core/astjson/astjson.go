// Package astjson serializes the canonical document tree to and from
// JSON. Block and Inline are sealed interfaces, so each node is written
// as an object with a "type" discriminator and decoded back through an
// exhaustive switch.
package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/formatrix/formatrix/core/ast"
)

// Marshal encodes a document as indented JSON.
func Marshal(doc *ast.Document) ([]byte, error) {
	return json.MarshalIndent(encodeDocument(doc), "", "  ")
}

// Unmarshal decodes a document previously produced by Marshal.
func Unmarshal(data []byte) (*ast.Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if !raw.SourceFormat.IsValid() {
		return nil, fmt.Errorf("invalid source format %q", raw.SourceFormat)
	}
	content, err := decodeBlocks(raw.Content)
	if err != nil {
		return nil, err
	}
	return &ast.Document{
		SourceFormat: raw.SourceFormat,
		Meta:         raw.Meta,
		Content:      content,
		RawSource:    raw.RawSource,
	}, nil
}

// Encoding

type jsonDocument struct {
	SourceFormat ast.SourceFormat `json:"source_format"`
	Meta         ast.Meta         `json:"meta"`
	Content      []any            `json:"content"`
	RawSource    string           `json:"raw_source,omitempty"`
}

type jsonInlineRun struct {
	Type    string `json:"type"`
	Content []any  `json:"content"`
}

type jsonTextNode struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type jsonHeading struct {
	Type    string `json:"type"`
	Level   int    `json:"level"`
	Content []any  `json:"content"`
	ID      string `json:"id,omitempty"`
}

type jsonCodeBlock struct {
	Type           string `json:"type"`
	Language       string `json:"language,omitempty"`
	Content        string `json:"content"`
	LineNumbers    bool   `json:"line_numbers,omitempty"`
	HighlightLines []int  `json:"highlight_lines,omitempty"`
}

type jsonBlockQuote struct {
	Type        string `json:"type"`
	Content     []any  `json:"content"`
	Attribution []any  `json:"attribution,omitempty"`
	Admonition  string `json:"admonition,omitempty"`
}

type jsonList struct {
	Type  string         `json:"type"`
	Kind  ast.ListKind   `json:"kind"`
	Items []jsonListItem `json:"items"`
	Start int            `json:"start,omitempty"`
}

type jsonListItem struct {
	Content []any `json:"content"`
	Checked *bool `json:"checked,omitempty"`
}

type jsonMarker struct {
	Type string `json:"type"`
}

type jsonRaw struct {
	Type    string           `json:"type"`
	Format  ast.SourceFormat `json:"format"`
	Content string           `json:"content"`
}

type jsonContainer struct {
	Type       string            `json:"type"`
	ID         string            `json:"id,omitempty"`
	Classes    []string          `json:"classes,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Content    []any             `json:"content"`
}

type jsonRow struct {
	Cells []jsonCell `json:"cells"`
}

type jsonCell struct {
	Content []any `json:"content"`
}

type jsonTable struct {
	Type    string    `json:"type"`
	Header  *jsonRow  `json:"header,omitempty"`
	Body    []jsonRow `json:"body"`
	Caption []any     `json:"caption,omitempty"`
}

type jsonLink struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Content []any  `json:"content"`
	Title   string `json:"title,omitempty"`
}

type jsonImage struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Title  string `json:"title,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

func encodeDocument(doc *ast.Document) jsonDocument {
	return jsonDocument{
		SourceFormat: doc.SourceFormat,
		Meta:         doc.Meta,
		Content:      encodeBlocks(doc.Content),
		RawSource:    doc.RawSource,
	}
}

func encodeBlocks(blocks []ast.Block) []any {
	out := make([]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, encodeBlock(b))
	}
	return out
}

func encodeBlock(b ast.Block) any {
	switch n := b.(type) {
	case *ast.Paragraph:
		return jsonInlineRun{"paragraph", encodeInlines(n.Content)}
	case *ast.Heading:
		return jsonHeading{"heading", n.Level, encodeInlines(n.Content), n.ID}
	case *ast.CodeBlock:
		return jsonCodeBlock{"code_block", n.Language, n.Content, n.LineNumbers, n.HighlightLines}
	case *ast.BlockQuote:
		return jsonBlockQuote{"block_quote", encodeBlocks(n.Content), encodeInlines(n.Attribution), n.Admonition}
	case *ast.List:
		items := make([]jsonListItem, 0, len(n.Items))
		for _, item := range n.Items {
			items = append(items, jsonListItem{encodeBlocks(item.Content), item.Checked})
		}
		return jsonList{"list", n.Kind, items, n.Start}
	case *ast.ThematicBreak:
		return jsonMarker{"thematic_break"}
	case *ast.Raw:
		return jsonRaw{"raw", n.Format, n.Content}
	case *ast.Container:
		return jsonContainer{"container", n.ID, n.Classes, n.Attributes, encodeBlocks(n.Content)}
	case *ast.Table:
		t := jsonTable{Type: "table", Body: encodeRows(n.Body), Caption: encodeInlines(n.Caption)}
		if n.Header != nil {
			h := encodeRow(*n.Header)
			t.Header = &h
		}
		return t
	case *ast.MathBlock:
		return jsonTextNode{"math_block", n.Content}
	default:
		return jsonMarker{"unknown"}
	}
}

func encodeRows(rows []ast.TableRow) []jsonRow {
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, encodeRow(r))
	}
	return out
}

func encodeRow(row ast.TableRow) jsonRow {
	cells := make([]jsonCell, 0, len(row.Cells))
	for _, c := range row.Cells {
		cells = append(cells, jsonCell{encodeBlocks(c.Content)})
	}
	return jsonRow{cells}
}

func encodeInlines(inlines []ast.Inline) []any {
	if inlines == nil {
		return nil
	}
	out := make([]any, 0, len(inlines))
	for _, in := range inlines {
		out = append(out, encodeInline(in))
	}
	return out
}

func encodeInline(in ast.Inline) any {
	switch n := in.(type) {
	case *ast.Text:
		return jsonTextNode{"text", n.Content}
	case *ast.Emphasis:
		return jsonInlineRun{"emphasis", encodeInlines(n.Content)}
	case *ast.Strong:
		return jsonInlineRun{"strong", encodeInlines(n.Content)}
	case *ast.Strikethrough:
		return jsonInlineRun{"strikethrough", encodeInlines(n.Content)}
	case *ast.Code:
		return jsonTextNode{"code", n.Content}
	case *ast.Link:
		return jsonLink{"link", n.URL, encodeInlines(n.Content), n.Title}
	case *ast.Image:
		return jsonImage{"image", n.URL, n.Alt, n.Title, n.Width, n.Height}
	case *ast.Math:
		return jsonTextNode{"math", n.Content}
	case *ast.LineBreak:
		return jsonMarker{"line_break"}
	case *ast.SoftBreak:
		return jsonMarker{"soft_break"}
	default:
		return jsonMarker{"unknown"}
	}
}

// Decoding

type rawDocument struct {
	SourceFormat ast.SourceFormat  `json:"source_format"`
	Meta         ast.Meta          `json:"meta"`
	Content      []json.RawMessage `json:"content"`
	RawSource    string            `json:"raw_source"`
}

// rawNode is the union of every node's fields. Content is left raw
// because its JSON type depends on the node: a string for literal
// nodes, an array for nested sequences.
type rawNode struct {
	Type           string            `json:"type"`
	Content        json.RawMessage   `json:"content"`
	Level          int               `json:"level"`
	ID             string            `json:"id"`
	Language       string            `json:"language"`
	LineNumbers    bool              `json:"line_numbers"`
	HighlightLines []int             `json:"highlight_lines"`
	Attribution    []json.RawMessage `json:"attribution"`
	Admonition     string            `json:"admonition"`
	Kind           ast.ListKind      `json:"kind"`
	Items          []rawListItem     `json:"items"`
	Start          int               `json:"start"`
	Format         ast.SourceFormat  `json:"format"`
	Classes        []string          `json:"classes"`
	Attributes     map[string]string `json:"attributes"`
	Header         *rawRow           `json:"header"`
	Body           []rawRow          `json:"body"`
	Caption        []json.RawMessage `json:"caption"`
	URL            string            `json:"url"`
	Title          string            `json:"title"`
	Alt            string            `json:"alt"`
	Width          string            `json:"width"`
	Height         string            `json:"height"`
}

type rawListItem struct {
	Content []json.RawMessage `json:"content"`
	Checked *bool             `json:"checked"`
}

type rawRow struct {
	Cells []rawCell `json:"cells"`
}

type rawCell struct {
	Content []json.RawMessage `json:"content"`
}

func decodeBlocks(raws []json.RawMessage) ([]ast.Block, error) {
	if raws == nil {
		return nil, nil
	}
	out := make([]ast.Block, 0, len(raws))
	for _, raw := range raws {
		b, err := decodeBlock(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeBlock(raw json.RawMessage) (ast.Block, error) {
	var node rawNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}

	switch node.Type {
	case "paragraph":
		content, err := decodeInlineList(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Paragraph{Content: content}, nil
	case "heading":
		content, err := decodeInlineList(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Heading{Level: node.Level, Content: content, ID: node.ID}, nil
	case "code_block":
		content, err := decodeString(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.CodeBlock{
			Language:       node.Language,
			Content:        content,
			LineNumbers:    node.LineNumbers,
			HighlightLines: node.HighlightLines,
		}, nil
	case "block_quote":
		content, err := decodeBlockList(node.Content)
		if err != nil {
			return nil, err
		}
		attribution, err := decodeInlines(node.Attribution)
		if err != nil {
			return nil, err
		}
		return &ast.BlockQuote{Content: content, Attribution: attribution, Admonition: node.Admonition}, nil
	case "list":
		items := make([]ast.ListItem, 0, len(node.Items))
		for _, item := range node.Items {
			content, err := decodeBlocks(item.Content)
			if err != nil {
				return nil, err
			}
			items = append(items, ast.ListItem{Content: content, Checked: item.Checked})
		}
		return &ast.List{Kind: node.Kind, Items: items, Start: node.Start}, nil
	case "thematic_break":
		return &ast.ThematicBreak{}, nil
	case "raw":
		content, err := decodeString(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Raw{Format: node.Format, Content: content}, nil
	case "container":
		content, err := decodeBlockList(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Container{
			ID:         node.ID,
			Classes:    node.Classes,
			Attributes: node.Attributes,
			Content:    content,
		}, nil
	case "table":
		t := &ast.Table{}
		if node.Header != nil {
			row, err := decodeRow(*node.Header)
			if err != nil {
				return nil, err
			}
			t.Header = &row
		}
		for _, r := range node.Body {
			row, err := decodeRow(r)
			if err != nil {
				return nil, err
			}
			t.Body = append(t.Body, row)
		}
		caption, err := decodeInlines(node.Caption)
		if err != nil {
			return nil, err
		}
		t.Caption = caption
		return t, nil
	case "math_block":
		content, err := decodeString(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.MathBlock{Content: content}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", node.Type)
	}
}

func decodeRow(raw rawRow) (ast.TableRow, error) {
	row := ast.TableRow{}
	for _, c := range raw.Cells {
		content, err := decodeBlocks(c.Content)
		if err != nil {
			return ast.TableRow{}, err
		}
		row.Cells = append(row.Cells, ast.TableCell{Content: content})
	}
	return row, nil
}

func decodeInlines(raws []json.RawMessage) ([]ast.Inline, error) {
	if raws == nil {
		return nil, nil
	}
	out := make([]ast.Inline, 0, len(raws))
	for _, raw := range raws {
		in, err := decodeInline(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func decodeInline(raw json.RawMessage) (ast.Inline, error) {
	var node rawNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode inline: %w", err)
	}

	switch node.Type {
	case "text":
		content, err := decodeString(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Text{Content: content}, nil
	case "emphasis":
		content, err := decodeInlineList(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Emphasis{Content: content}, nil
	case "strong":
		content, err := decodeInlineList(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Strong{Content: content}, nil
	case "strikethrough":
		content, err := decodeInlineList(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Strikethrough{Content: content}, nil
	case "code":
		content, err := decodeString(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Code{Content: content}, nil
	case "link":
		content, err := decodeInlineList(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Link{URL: node.URL, Content: content, Title: node.Title}, nil
	case "image":
		return &ast.Image{
			URL:    node.URL,
			Alt:    node.Alt,
			Title:  node.Title,
			Width:  node.Width,
			Height: node.Height,
		}, nil
	case "math":
		content, err := decodeString(node.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Math{Content: content}, nil
	case "line_break":
		return &ast.LineBreak{}, nil
	case "soft_break":
		return &ast.SoftBreak{}, nil
	default:
		return nil, fmt.Errorf("unknown inline type %q", node.Type)
	}
}

// decodeBlockList decodes a Content field holding a block array.
func decodeBlockList(raw json.RawMessage) ([]ast.Block, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode block list: %w", err)
	}
	return decodeBlocks(list)
}

// decodeInlineList decodes a Content field holding an inline array.
func decodeInlineList(raw json.RawMessage) ([]ast.Inline, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode inline list: %w", err)
	}
	return decodeInlines(list)
}

func decodeString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decode content string: %w", err)
	}
	return s, nil
}
