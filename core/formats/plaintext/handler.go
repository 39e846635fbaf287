// Package plaintext implements the format handler for plain text.
// Parsing produces paragraphs split on blank lines; rendering flattens
// every construct to its bare text content.
package plaintext

import (
	"fmt"
	"strings"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

// Handler implements formats.FormatHandler for plain text.
type Handler struct{}

// New returns a plain text handler.
func New() *Handler {
	return &Handler{}
}

// Format returns ast.PlainText.
func (h *Handler) Format() ast.SourceFormat {
	return ast.PlainText
}

// Parse splits the input into paragraphs on blank lines. Lines within a
// paragraph become text runs joined by soft breaks.
func (h *Handler) Parse(input string, cfg formats.ParseConfig) (*ast.Document, error) {
	doc := ast.New(ast.PlainText)
	if cfg.PreserveRawSource {
		doc.RawSource = input
	}

	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	var para []ast.Inline
	flush := func() {
		if len(para) > 0 {
			doc.Content = append(doc.Content, &ast.Paragraph{Content: para})
			para = nil
		}
	}

	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if len(para) > 0 {
			para = append(para, &ast.SoftBreak{})
		}
		para = append(para, &ast.Text{Content: line})
	}
	flush()

	return doc, nil
}

// Render flattens the document to plain text. Any output is valid plain
// text, so every variant degrades to its literal content.
func (h *Handler) Render(doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	var sb strings.Builder

	if doc.Meta.Title != "" {
		sb.WriteString(doc.Meta.Title)
		sb.WriteString("\n\n")
	}

	for i, block := range doc.Content {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		renderBlock(&sb, block)
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

func renderBlock(sb *strings.Builder, block ast.Block) {
	switch n := block.(type) {
	case *ast.Paragraph:
		renderInlines(sb, n.Content)

	case *ast.Heading:
		renderInlines(sb, n.Content)

	case *ast.CodeBlock:
		sb.WriteString(strings.TrimRight(n.Content, "\n"))

	case *ast.BlockQuote:
		for i, inner := range n.Content {
			if i > 0 {
				sb.WriteString("\n")
			}
			renderBlock(sb, inner)
		}
		if len(n.Attribution) > 0 {
			sb.WriteString("\n-- ")
			renderInlines(sb, n.Attribution)
		}

	case *ast.List:
		for i, item := range n.Items {
			if i > 0 {
				sb.WriteString("\n")
			}
			switch {
			case n.Kind == ast.ListOrdered:
				start := n.Start
				if start == 0 {
					start = 1
				}
				fmt.Fprintf(sb, "%d. ", start+i)
			case n.Kind == ast.ListTask && item.Checked != nil:
				if *item.Checked {
					sb.WriteString("[x] ")
				} else {
					sb.WriteString("[ ] ")
				}
			default:
				sb.WriteString("- ")
			}
			for j, inner := range item.Content {
				if j > 0 {
					sb.WriteString("\n  ")
				}
				renderBlock(sb, inner)
			}
		}

	case *ast.ThematicBreak:
		sb.WriteString("---")

	case *ast.Raw:
		sb.WriteString(strings.TrimRight(n.Content, "\n"))

	case *ast.Container:
		for i, inner := range n.Content {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			renderBlock(sb, inner)
		}

	case *ast.Table:
		rows := n.Body
		if n.Header != nil {
			rows = append([]ast.TableRow{*n.Header}, rows...)
		}
		for i, row := range rows {
			if i > 0 {
				sb.WriteString("\n")
			}
			for j, cell := range row.Cells {
				if j > 0 {
					sb.WriteString(" | ")
				}
				for k, inner := range cell.Content {
					if k > 0 {
						sb.WriteString(" ")
					}
					renderBlock(sb, inner)
				}
			}
		}
		if len(n.Caption) > 0 {
			sb.WriteString("\n")
			renderInlines(sb, n.Caption)
		}

	case *ast.MathBlock:
		sb.WriteString(strings.TrimRight(n.Content, "\n"))
	}
}

func renderInlines(sb *strings.Builder, inlines []ast.Inline) {
	for _, in := range inlines {
		switch n := in.(type) {
		case *ast.Text:
			sb.WriteString(n.Content)
		case *ast.Emphasis:
			renderInlines(sb, n.Content)
		case *ast.Strong:
			renderInlines(sb, n.Content)
		case *ast.Strikethrough:
			renderInlines(sb, n.Content)
		case *ast.Code:
			sb.WriteString(n.Content)
		case *ast.Link:
			renderInlines(sb, n.Content)
			if n.URL != "" && n.URL != ast.Flatten(n.Content) {
				fmt.Fprintf(sb, " (%s)", n.URL)
			}
		case *ast.Image:
			if n.Alt != "" {
				sb.WriteString(n.Alt)
			} else {
				sb.WriteString(n.URL)
			}
		case *ast.Math:
			sb.WriteString(n.Content)
		case *ast.LineBreak:
			sb.WriteString("\n")
		case *ast.SoftBreak:
			sb.WriteString("\n")
		}
	}
}

// SupportsFeature always reports false: plain text expresses no markup
// features natively.
func (h *Handler) SupportsFeature(name string) bool {
	return false
}

// SupportedFeatures returns the empty set.
func (h *Handler) SupportedFeatures() []string {
	return nil
}
