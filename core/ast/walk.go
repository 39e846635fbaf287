package ast

// Visitor receives every node of a document tree in narrative order.
// Either callback may be nil.
type Visitor struct {
	Block  func(Block)
	Inline func(Inline)
}

// Walk performs a depth-first traversal of the document's content.
func Walk(doc *Document, v Visitor) {
	WalkBlocks(doc.Content, v)
}

// WalkBlocks traverses a block sequence depth-first.
func WalkBlocks(blocks []Block, v Visitor) {
	for _, b := range blocks {
		if v.Block != nil {
			v.Block(b)
		}
		switch n := b.(type) {
		case *Paragraph:
			WalkInlines(n.Content, v)
		case *Heading:
			WalkInlines(n.Content, v)
		case *BlockQuote:
			WalkBlocks(n.Content, v)
			WalkInlines(n.Attribution, v)
		case *List:
			for _, item := range n.Items {
				WalkBlocks(item.Content, v)
			}
		case *Container:
			WalkBlocks(n.Content, v)
		case *Table:
			if n.Header != nil {
				for _, cell := range n.Header.Cells {
					WalkBlocks(cell.Content, v)
				}
			}
			for _, row := range n.Body {
				for _, cell := range row.Cells {
					WalkBlocks(cell.Content, v)
				}
			}
			WalkInlines(n.Caption, v)
		}
	}
}

// WalkInlines traverses an inline sequence depth-first.
func WalkInlines(inlines []Inline, v Visitor) {
	for _, in := range inlines {
		if v.Inline != nil {
			v.Inline(in)
		}
		switch n := in.(type) {
		case *Emphasis:
			WalkInlines(n.Content, v)
		case *Strong:
			WalkInlines(n.Content, v)
		case *Strikethrough:
			WalkInlines(n.Content, v)
		case *Link:
			WalkInlines(n.Content, v)
		}
	}
}
