package ast

import (
	"reflect"
	"testing"
)

func TestWalkVisitsEveryNodeInOrder(t *testing.T) {
	doc := fixtureDocument()

	var blocks []string
	var inlines []string
	Walk(doc, Visitor{
		Block:  func(b Block) { blocks = append(blocks, reflect.TypeOf(b).Elem().Name()) },
		Inline: func(in Inline) { inlines = append(inlines, reflect.TypeOf(in).Elem().Name()) },
	})

	wantBlocks := []string{
		"Heading", "Paragraph", "CodeBlock",
		"List", "Paragraph", "Paragraph",
		"Table", "Paragraph", "Paragraph",
		"BlockQuote", "Paragraph",
		"ThematicBreak", "Raw", "MathBlock",
	}
	if !reflect.DeepEqual(blocks, wantBlocks) {
		t.Errorf("block order = %v, want %v", blocks, wantBlocks)
	}

	wantInlines := []string{
		"Text",                           // heading
		"Text", "Strong", "Text", "Link", "Text", // paragraph, nested
		"Text", "Text", // list item paragraphs
		"Text", "Text", "Text", // table header, body, caption
		"Text", "Text", // quote content and attribution
	}
	if !reflect.DeepEqual(inlines, wantInlines) {
		t.Errorf("inline order = %v, want %v", inlines, wantInlines)
	}
}

func TestWalkNilCallbacks(t *testing.T) {
	// Either callback may be omitted.
	doc := fixtureDocument()
	Walk(doc, Visitor{})

	count := 0
	Walk(doc, Visitor{Block: func(Block) { count++ }})
	if count == 0 {
		t.Error("block-only visitor saw nothing")
	}
}

func TestWalkInlinesRecursesNesting(t *testing.T) {
	seq := []Inline{
		&Emphasis{Content: []Inline{
			&Strong{Content: []Inline{
				&Strikethrough{Content: []Inline{&Text{Content: "deep"}}},
			}},
		}},
	}
	var got string
	WalkInlines(seq, Visitor{Inline: func(in Inline) {
		if n, ok := in.(*Text); ok {
			got = n.Content
		}
	}})
	if got != "deep" {
		t.Errorf("nested text not reached, got %q", got)
	}
}
