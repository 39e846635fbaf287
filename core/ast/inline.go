package ast

// Inline is the closed set of text-level nodes. Nesting is structural:
// renderers recurse into nested sequences instead of pre-flattening,
// because dialect delimiters differ per nesting depth.
type Inline interface {
	inlineNode()
}

// Text is a literal run of characters.
type Text struct {
	Content string `json:"content"`
}

// Emphasis is emphasized (italic) content.
type Emphasis struct {
	Content []Inline `json:"content"`
}

// Strong is strongly emphasized (bold) content.
type Strong struct {
	Content []Inline `json:"content"`
}

// Strikethrough is struck-out content.
type Strikethrough struct {
	Content []Inline `json:"content"`
}

// Code is literal inline code.
type Code struct {
	Content string `json:"content"`
}

// Link is a hyperlink whose text is a nested inline sequence.
type Link struct {
	URL     string   `json:"url"`
	Content []Inline `json:"content"`
	Title   string   `json:"title,omitempty"`
}

// Image is an inline image reference. Width and Height keep the
// dialect's dimension text verbatim ("400px", "50%", "120pt"); units
// differ per dialect so no numeric normalization is attempted.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Title  string `json:"title,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// Math is inline math carrying raw math source.
type Math struct {
	Content string `json:"content"`
}

// LineBreak is a hard line break.
type LineBreak struct{}

// SoftBreak is a soft wrap point.
type SoftBreak struct{}

func (*Text) inlineNode()          {}
func (*Emphasis) inlineNode()      {}
func (*Strong) inlineNode()        {}
func (*Strikethrough) inlineNode() {}
func (*Code) inlineNode()          {}
func (*Link) inlineNode()          {}
func (*Image) inlineNode()         {}
func (*Math) inlineNode()          {}
func (*LineBreak) inlineNode()     {}
func (*SoftBreak) inlineNode()     {}

// Flatten reduces an inline sequence to its literal text content,
// dropping all markup. Used for alt text and degraded render paths.
func Flatten(inlines []Inline) string {
	var out []byte
	var walk func(seq []Inline)
	walk = func(seq []Inline) {
		for _, in := range seq {
			switch n := in.(type) {
			case *Text:
				out = append(out, n.Content...)
			case *Emphasis:
				walk(n.Content)
			case *Strong:
				walk(n.Content)
			case *Strikethrough:
				walk(n.Content)
			case *Code:
				out = append(out, n.Content...)
			case *Link:
				walk(n.Content)
			case *Image:
				out = append(out, n.Alt...)
			case *Math:
				out = append(out, n.Content...)
			case *LineBreak:
				out = append(out, '\n')
			case *SoftBreak:
				out = append(out, ' ')
			}
		}
	}
	walk(inlines)
	return string(out)
}
