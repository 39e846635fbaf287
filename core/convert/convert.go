// Package convert is the high-level entry point: it dispatches to the
// per-format handlers and runs the parse/render pipeline between any
// two supported formats.
package convert

import (
	"unicode/utf8"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/errors"
	"github.com/formatrix/formatrix/core/formats"
	"github.com/formatrix/formatrix/core/formats/asciidoc"
	"github.com/formatrix/formatrix/core/formats/djot"
	"github.com/formatrix/formatrix/core/formats/markdown"
	"github.com/formatrix/formatrix/core/formats/orgmode"
	"github.com/formatrix/formatrix/core/formats/plaintext"
	"github.com/formatrix/formatrix/core/formats/rst"
	"github.com/formatrix/formatrix/core/formats/typst"
)

// HandlerFor returns the handler for a format. The switch is
// exhaustive over ast.Formats(); an invalid format yields an
// UnsupportedFormatError.
func HandlerFor(format ast.SourceFormat) (formats.FormatHandler, error) {
	switch format {
	case ast.PlainText:
		return plaintext.New(), nil
	case ast.Markdown:
		return markdown.New(), nil
	case ast.AsciiDoc:
		return asciidoc.New(), nil
	case ast.Djot:
		return djot.New(), nil
	case ast.OrgMode:
		return orgmode.New(), nil
	case ast.ReStructuredText:
		return rst.New(), nil
	case ast.Typst:
		return typst.New(), nil
	default:
		return nil, errors.NewUnsupportedFormat(format.String(), "handler lookup")
	}
}

// Parse validates the input encoding and parses it as the given
// format.
func Parse(format ast.SourceFormat, input string, cfg formats.ParseConfig) (*ast.Document, error) {
	if !utf8.ValidString(input) {
		return nil, &errors.EncodingError{Offset: invalidOffset(input)}
	}
	handler, err := HandlerFor(format)
	if err != nil {
		return nil, err
	}
	doc, err := handler.Parse(input, cfg)
	if err != nil {
		return nil, &errors.ParseError{Format: format.String(), Message: "parse failed", Err: err}
	}
	return doc, nil
}

// Render serializes a document to the given format.
func Render(format ast.SourceFormat, doc *ast.Document, cfg formats.RenderConfig) (string, error) {
	handler, err := HandlerFor(format)
	if err != nil {
		return "", err
	}
	out, err := handler.Render(doc, cfg)
	if err != nil {
		return "", &errors.RenderError{Format: format.String(), Message: "render failed", Err: err}
	}
	return out, nil
}

// Convert parses input in the source format and renders it in the
// target, threading the parse and render configs through to the two
// handlers. The returned report records what the target could not
// express.
func Convert(source, target ast.SourceFormat, input string, pcfg formats.ParseConfig, rcfg formats.RenderConfig) (string, *ast.LossReport, error) {
	doc, err := Parse(source, input, pcfg)
	if err != nil {
		return "", nil, err
	}
	report, err := Preflight(doc, target)
	if err != nil {
		return "", nil, err
	}
	out, err := Render(target, doc, rcfg)
	if err != nil {
		return "", nil, err
	}
	return out, report, nil
}

// Preflight compares the features a document uses against what the
// target format can express, without rendering anything.
func Preflight(doc *ast.Document, target ast.SourceFormat) (*ast.LossReport, error) {
	handler, err := HandlerFor(target)
	if err != nil {
		return nil, err
	}

	report := &ast.LossReport{
		SourceFormat: doc.SourceFormat,
		TargetFormat: target,
		LossClass:    ast.LossL0,
	}
	for _, feature := range formats.FeaturesUsed(doc) {
		if !handler.SupportsFeature(feature) {
			report.AddLostElement(feature, "not expressible in "+target.String())
		}
	}
	report.LossClass = classify(doc, target, report)
	return report, nil
}

// classify grades the expected degradation. Plain text keeps only raw
// text (L4); a same-format round trip is semantically lossless (L1);
// lost constructs degrade to analogues (L3); formats that express
// everything the document uses differ only in surface syntax (L2).
func classify(doc *ast.Document, target ast.SourceFormat, report *ast.LossReport) ast.LossClass {
	switch {
	case target == ast.PlainText && len(doc.Content) > 0:
		return ast.LossL4
	case doc.SourceFormat == target:
		return ast.LossL1
	case len(report.LostElements) > 0:
		return ast.LossL3
	case len(doc.Content) == 0:
		return ast.LossL0
	default:
		return ast.LossL2
	}
}

func invalidOffset(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
