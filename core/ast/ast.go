// Package ast defines the canonical, format-agnostic document tree that
// every dialect converts through. All format handlers import these types
// rather than defining their own.
package ast

// SourceFormat identifies one of the supported markup dialects. It is
// used both as a parse/render selector and as a tag on every Document.
type SourceFormat string

// Supported dialects.
const (
	PlainText        SourceFormat = "plaintext"
	Markdown         SourceFormat = "markdown"
	AsciiDoc         SourceFormat = "asciidoc"
	Djot             SourceFormat = "djot"
	OrgMode          SourceFormat = "org"
	ReStructuredText SourceFormat = "rst"
	Typst            SourceFormat = "typst"
)

// validFormats is the set of valid source formats.
var validFormats = map[SourceFormat]bool{
	PlainText:        true,
	Markdown:         true,
	AsciiDoc:         true,
	Djot:             true,
	OrgMode:          true,
	ReStructuredText: true,
	Typst:            true,
}

// Formats returns all supported formats in a stable order.
func Formats() []SourceFormat {
	return []SourceFormat{
		PlainText, Markdown, AsciiDoc, Djot, OrgMode, ReStructuredText, Typst,
	}
}

// IsValid returns true if the format is one of the supported dialects.
func (f SourceFormat) IsValid() bool {
	return validFormats[f]
}

// String returns the canonical lowercase name of the format.
func (f SourceFormat) String() string {
	return string(f)
}

// Extension returns the default file extension for the format, without
// the leading dot.
func (f SourceFormat) Extension() string {
	switch f {
	case PlainText:
		return "txt"
	case Markdown:
		return "md"
	case AsciiDoc:
		return "adoc"
	case Djot:
		return "dj"
	case OrgMode:
		return "org"
	case ReStructuredText:
		return "rst"
	case Typst:
		return "typ"
	default:
		return ""
	}
}

// Meta holds document-level metadata. Document attributes are parse-only:
// they live here and never appear in Document.Content.
type Meta struct {
	// Title is the document title, if the source declared one.
	Title string `json:"title,omitempty"`

	// Authors lists the document authors.
	Authors []string `json:"authors,omitempty"`

	// Date is the document date as written in the source.
	Date string `json:"date,omitempty"`

	// Extra holds additional document attributes as key-value pairs.
	Extra map[string]string `json:"extra,omitempty"`
}

// SetExtra records an additional metadata attribute.
func (m *Meta) SetExtra(key, value string) {
	if m.Extra == nil {
		m.Extra = make(map[string]string)
	}
	m.Extra[key] = value
}

// Document is the root of the canonical tree. It is produced by exactly
// one parse call (or built directly) and is never mutated by renderers.
type Document struct {
	// SourceFormat is the dialect the document was parsed from, or the
	// tag last set when the document was constructed programmatically.
	SourceFormat SourceFormat `json:"source_format"`

	// Meta holds document-level metadata.
	Meta Meta `json:"meta"`

	// Content is the ordered block sequence. Order is the document's
	// narrative order and is load-bearing.
	Content []Block `json:"content"`

	// RawSource is the original text, retained only when the caller
	// opted in via ParseConfig. It is diagnostic data; renderers never
	// consult it.
	RawSource string `json:"raw_source,omitempty"`
}

// New returns an empty document tagged with the given format.
func New(format SourceFormat) *Document {
	return &Document{SourceFormat: format}
}
