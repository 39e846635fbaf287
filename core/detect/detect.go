// Package detect resolves which dialect a file path or blob of text
// represents. Extension lookup is authoritative when it matches; the
// content-heuristic cascade is the fallback and always yields a format,
// defaulting to plain text.
package detect

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/formatrix/formatrix/core/ast"
)

// extensionMap maps known lowercase extensions (without dot), including
// aliases, to their format.
var extensionMap = map[string]ast.SourceFormat{
	"txt":              ast.PlainText,
	"text":             ast.PlainText,
	"md":               ast.Markdown,
	"markdown":         ast.Markdown,
	"mdown":            ast.Markdown,
	"mkd":              ast.Markdown,
	"adoc":             ast.AsciiDoc,
	"asciidoc":         ast.AsciiDoc,
	"asc":              ast.AsciiDoc,
	"dj":               ast.Djot,
	"djot":             ast.Djot,
	"org":              ast.OrgMode,
	"rst":              ast.ReStructuredText,
	"rest":             ast.ReStructuredText,
	"restructuredtext": ast.ReStructuredText,
	"typ":              ast.Typst,
	"typst":            ast.Typst,
}

// FromPath resolves a format from a file path's extension. Lookup is
// case-insensitive. The boolean is false when the extension is missing
// or unrecognized; callers then fall back to FromContent.
func FromPath(path string) (ast.SourceFormat, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", false
	}
	f, ok := extensionMap[ext]
	return f, ok
}

// FromExtension resolves a format from a bare extension, with or
// without the leading dot. Case-insensitive.
func FromExtension(ext string) (ast.SourceFormat, bool) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	f, ok := extensionMap[ext]
	return f, ok
}

// IsSupportedExtension reports whether the extension maps to a dialect.
func IsSupportedExtension(ext string) bool {
	_, ok := FromExtension(ext)
	return ok
}

// SupportedExtensions returns every recognized extension, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionMap))
	for ext := range extensionMap {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ExtensionForFormat returns the default extension for a format,
// without the leading dot.
func ExtensionForFormat(f ast.SourceFormat) string {
	return f.Extension()
}

// FromContent resolves a format from text using an ordered marker
// cascade. The cascade short-circuits on the first match; the order is
// a contract because the marker sets overlap. It always succeeds,
// defaulting to plain text.
//
// Leading and trailing whitespace is stripped before the begins-with
// rules run, so a document whose first marker is preceded by blank
// lines still resolves. The rules read from the first non-blank text.
func FromContent(content string) ast.SourceFormat {
	text := strings.TrimSpace(content)

	// Org-mode: #+ keyword lines.
	if strings.HasPrefix(text, "#+") || strings.Contains(text, "\n#+") {
		return ast.OrgMode
	}

	// AsciiDoc: document title or :toc: attribute. "= {" is excluded
	// because it indicates a Typst-style binding, not a title.
	if strings.HasPrefix(text, "= ") && !strings.HasPrefix(text, "= {") {
		return ast.AsciiDoc
	}
	if strings.HasPrefix(text, ":toc:") || strings.Contains(text, "\n:toc:") {
		return ast.AsciiDoc
	}

	// Typst: scripting directives or content block openers.
	if strings.Contains(text, "#let ") || strings.Contains(text, "#set ") ||
		strings.Contains(text, "#show ") {
		return ast.Typst
	}
	if strings.HasPrefix(text, "#[") || strings.Contains(text, "\n#[") {
		return ast.Typst
	}

	// reStructuredText: directives or title underlines.
	if strings.Contains(text, ".. ") && strings.Contains(text, "::") {
		return ast.ReStructuredText
	}
	for _, line := range strings.Split(text, "\n") {
		if isRSTUnderline(line) {
			return ast.ReStructuredText
		}
	}

	// Djot: attribute or footnote syntax.
	if strings.Contains(text, "{.") || strings.Contains(text, "[^") {
		return ast.Djot
	}

	// Markdown: ATX headings, fences, or inline link/image markers.
	// Checked last because its markers are the most common.
	if strings.HasPrefix(text, "# ") || strings.Contains(text, "\n# ") {
		return ast.Markdown
	}
	if strings.Contains(text, "```") || strings.Contains(text, "~~~") {
		return ast.Markdown
	}
	if strings.Contains(text, "](") {
		return ast.Markdown
	}

	return ast.PlainText
}

// isRSTUnderline reports whether the line consists entirely of one
// repeated underline character from the RST adornment set and is long
// enough to be a plausible title underline.
func isRSTUnderline(line string) bool {
	if len(line) <= 3 {
		return false
	}
	ch := line[0]
	if ch != '=' && ch != '-' && ch != '~' && ch != '^' {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != ch {
			return false
		}
	}
	return true
}
