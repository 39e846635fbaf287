package ast

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/zeebo/blake3"
)

// Fingerprint computes a stable BLAKE3 hash of a document's canonical
// content. Two documents with identical metadata and trees produce the
// same fingerprint regardless of the source text they were parsed from.
// RawSource is deliberately excluded.
func Fingerprint(doc *Document) string {
	h := blake3.New()
	fmt.Fprintf(h, "format %s\n", doc.SourceFormat)
	fmt.Fprintf(h, "title %s\n", doc.Meta.Title)
	fmt.Fprintf(h, "date %s\n", doc.Meta.Date)
	for _, a := range doc.Meta.Authors {
		fmt.Fprintf(h, "author %s\n", a)
	}
	writeSortedMap(h, doc.Meta.Extra)
	hashBlocks(h, doc.Content)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// HashBytes computes the BLAKE3 hash of raw bytes as a hex string.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeSortedMap(w io.Writer, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "attr %s=%s\n", k, m[k])
	}
}

func hashBlocks(w io.Writer, blocks []Block) {
	for _, b := range blocks {
		switch n := b.(type) {
		case *Paragraph:
			io.WriteString(w, "para{")
			hashInlines(w, n.Content)
			io.WriteString(w, "}")
		case *Heading:
			fmt.Fprintf(w, "heading%d#%s{", n.Level, n.ID)
			hashInlines(w, n.Content)
			io.WriteString(w, "}")
		case *CodeBlock:
			fmt.Fprintf(w, "code[%s,ln=%t,hl=%v]{%s}", n.Language, n.LineNumbers, n.HighlightLines, n.Content)
		case *BlockQuote:
			fmt.Fprintf(w, "quote[%s]{", n.Admonition)
			hashBlocks(w, n.Content)
			io.WriteString(w, "|")
			hashInlines(w, n.Attribution)
			io.WriteString(w, "}")
		case *List:
			fmt.Fprintf(w, "list[%s,start=%d]{", n.Kind, n.Start)
			for _, item := range n.Items {
				checked := "-"
				if item.Checked != nil {
					checked = fmt.Sprintf("%t", *item.Checked)
				}
				fmt.Fprintf(w, "item[%s]{", checked)
				hashBlocks(w, item.Content)
				io.WriteString(w, "}")
			}
			io.WriteString(w, "}")
		case *ThematicBreak:
			io.WriteString(w, "break")
		case *Raw:
			fmt.Fprintf(w, "raw[%s]{%s}", n.Format, n.Content)
		case *Container:
			fmt.Fprintf(w, "container[%s,%v]{", n.ID, n.Classes)
			writeSortedMap(w, n.Attributes)
			hashBlocks(w, n.Content)
			io.WriteString(w, "}")
		case *Table:
			io.WriteString(w, "table{")
			if n.Header != nil {
				io.WriteString(w, "header{")
				hashRow(w, *n.Header)
				io.WriteString(w, "}")
			}
			for _, row := range n.Body {
				io.WriteString(w, "row{")
				hashRow(w, row)
				io.WriteString(w, "}")
			}
			io.WriteString(w, "caption{")
			hashInlines(w, n.Caption)
			io.WriteString(w, "}}")
		case *MathBlock:
			fmt.Fprintf(w, "math{%s}", n.Content)
		}
	}
}

func hashRow(w io.Writer, row TableRow) {
	for _, cell := range row.Cells {
		io.WriteString(w, "cell{")
		hashBlocks(w, cell.Content)
		io.WriteString(w, "}")
	}
}

func hashInlines(w io.Writer, inlines []Inline) {
	for _, in := range inlines {
		switch n := in.(type) {
		case *Text:
			fmt.Fprintf(w, "t(%s)", n.Content)
		case *Emphasis:
			io.WriteString(w, "em(")
			hashInlines(w, n.Content)
			io.WriteString(w, ")")
		case *Strong:
			io.WriteString(w, "strong(")
			hashInlines(w, n.Content)
			io.WriteString(w, ")")
		case *Strikethrough:
			io.WriteString(w, "strike(")
			hashInlines(w, n.Content)
			io.WriteString(w, ")")
		case *Code:
			fmt.Fprintf(w, "code(%s)", n.Content)
		case *Link:
			fmt.Fprintf(w, "link[%s,%s](", n.URL, n.Title)
			hashInlines(w, n.Content)
			io.WriteString(w, ")")
		case *Image:
			fmt.Fprintf(w, "image[%s,%s,%s,%sx%s]", n.URL, n.Alt, n.Title, n.Width, n.Height)
		case *Math:
			fmt.Fprintf(w, "math(%s)", n.Content)
		case *LineBreak:
			io.WriteString(w, "br")
		case *SoftBreak:
			io.WriteString(w, "sb")
		}
	}
}
