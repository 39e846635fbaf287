// Package formats defines the capability contracts every dialect module
// implements against the canonical tree: Parser, Renderer, and
// FormatHandler. Dispatch from a SourceFormat to its handler lives in
// core/convert so the supported set stays closed and statically checked.
package formats

import (
	"github.com/formatrix/formatrix/core/ast"
)

// ParseConfig configures a parse call.
type ParseConfig struct {
	// PreserveRawSource stores an exact copy of the input on the
	// returned Document. Default false.
	PreserveRawSource bool
}

// RenderConfig configures a render call. There are no universally
// recognized options; a dialect module may define its own keys.
type RenderConfig struct {
	Options map[string]string
}

// Option returns a dialect-specific render option, or "" if unset.
func (c RenderConfig) Option(key string) string {
	if c.Options == nil {
		return ""
	}
	return c.Options[key]
}

// Parser turns dialect text into a canonical Document. Implementations
// must accept any UTF-8 text; syntactically invalid input yields a
// structured error, never a silent empty document unless the input
// itself is empty.
type Parser interface {
	// Format returns the dialect this parser reads.
	Format() ast.SourceFormat

	// Parse converts input text into a Document.
	Parse(input string, cfg ParseConfig) (*ast.Document, error)
}

// Renderer turns a canonical Document into dialect text. Render is a
// pure function of its arguments: no hidden state, no dependence on
// doc.RawSource, no mutation of doc. It must produce syntactically
// valid output for any Document built from the canonical model,
// including one with empty content.
type Renderer interface {
	// Format returns the dialect this renderer writes.
	Format() ast.SourceFormat

	// Render converts a Document into dialect text.
	Render(doc *ast.Document, cfg RenderConfig) (string, error)
}

// FormatHandler is the full capability set of one dialect module.
// The feature queries are advisory metadata for degradation decisions:
// a renderer may still be handed content outside its declared set and
// must degrade gracefully rather than fail.
type FormatHandler interface {
	Parser
	Renderer

	// SupportsFeature reports whether the dialect can natively express
	// the named feature from the shared vocabulary.
	SupportsFeature(name string) bool

	// SupportedFeatures returns the dialect's declared feature set.
	SupportedFeatures() []string
}
