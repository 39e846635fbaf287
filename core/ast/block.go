package ast

// Block is the closed set of structural units a document is built from.
// The marker method seals the set: every renderer switches exhaustively
// over the concrete types below, so adding a variant forces every
// dialect to be revisited.
type Block interface {
	blockNode()
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Content []Inline `json:"content"`
}

// Heading is a section heading with a level from 1 (outermost) to 6.
type Heading struct {
	Level   int      `json:"level"`
	Content []Inline `json:"content"`

	// ID is an optional stable identifier for cross-references.
	ID string `json:"id,omitempty"`
}

// CodeBlock is verbatim preformatted text with an optional language tag.
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`

	// LineNumbers requests numbered lines where the dialect supports it.
	LineNumbers bool `json:"line_numbers,omitempty"`

	// HighlightLines lists 1-indexed lines to emphasize.
	HighlightLines []int `json:"highlight_lines,omitempty"`
}

// BlockQuote is a nested block sequence quoted from elsewhere.
type BlockQuote struct {
	Content []Block `json:"content"`

	// Attribution names the quote source.
	Attribution []Inline `json:"attribution,omitempty"`

	// Admonition marks the quote as a callout of the given kind
	// (e.g. "note", "warning") instead of an ordinary quotation.
	Admonition string `json:"admonition,omitempty"`
}

// ListKind distinguishes the three list flavors.
type ListKind string

// List kinds.
const (
	ListBullet  ListKind = "bullet"
	ListOrdered ListKind = "ordered"
	ListTask    ListKind = "task"
)

// List is an ordered sequence of items.
type List struct {
	Kind  ListKind   `json:"kind"`
	Items []ListItem `json:"items"`

	// Start is the first number of an ordered list; 0 means the
	// dialect default of 1.
	Start int `json:"start,omitempty"`
}

// ListItem is one list entry. Checked is set only for task lists:
// nil means the item is not a task.
type ListItem struct {
	Content []Block `json:"content"`
	Checked *bool   `json:"checked,omitempty"`
}

// ThematicBreak is a section divider with no payload.
type ThematicBreak struct{}

// Raw is verbatim passthrough content targeted at one dialect. A
// renderer for the matching format emits it as-is; every other
// renderer routes it through its generic passthrough mechanism.
type Raw struct {
	Format  SourceFormat `json:"format"`
	Content string       `json:"content"`
}

// Container is the generic block wrapper: a div, sidebar, or other
// compound construct with no more specific counterpart.
type Container struct {
	ID         string            `json:"id,omitempty"`
	Classes    []string          `json:"classes,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Content    []Block           `json:"content"`
}

// HasClass reports whether the container carries the given class tag.
func (c *Container) HasClass(name string) bool {
	for _, cl := range c.Classes {
		if cl == name {
			return true
		}
	}
	return false
}

// TableCell holds a nested block sequence.
type TableCell struct {
	Content []Block `json:"content"`
}

// TableRow is an ordered sequence of cells.
type TableRow struct {
	Cells []TableCell `json:"cells"`
}

// Table has an optional header row, ordered body rows, and an optional
// caption.
type Table struct {
	Header  *TableRow  `json:"header,omitempty"`
	Body    []TableRow `json:"body"`
	Caption []Inline   `json:"caption,omitempty"`
}

// MathBlock is display math carrying raw math source.
type MathBlock struct {
	Content string `json:"content"`
}

func (*Paragraph) blockNode()     {}
func (*Heading) blockNode()       {}
func (*CodeBlock) blockNode()     {}
func (*BlockQuote) blockNode()    {}
func (*List) blockNode()          {}
func (*ThematicBreak) blockNode() {}
func (*Raw) blockNode()           {}
func (*Container) blockNode()     {}
func (*Table) blockNode()         {}
func (*MathBlock) blockNode()     {}
