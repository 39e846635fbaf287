package detect

import (
	"strings"
	"testing"

	"github.com/formatrix/formatrix/core/ast"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format ast.SourceFormat
		ok     bool
	}{
		{"notes.md", ast.Markdown, true},
		{"notes.markdown", ast.Markdown, true},
		{"NOTES.MD", ast.Markdown, true},
		{"/tmp/deep/dir/readme.adoc", ast.AsciiDoc, true},
		{"spec.asciidoc", ast.AsciiDoc, true},
		{"journal.org", ast.OrgMode, true},
		{"doc.rst", ast.ReStructuredText, true},
		{"doc.rest", ast.ReStructuredText, true},
		{"paper.typ", ast.Typst, true},
		{"paper.typst", ast.Typst, true},
		{"post.dj", ast.Djot, true},
		{"post.djot", ast.Djot, true},
		{"plain.txt", ast.PlainText, true},
		{"plain.text", ast.PlainText, true},
		{"archive.tar.md", ast.Markdown, true},
		{"report.docx", "", false},
		{"Makefile", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := FromPath(tt.path)
		if ok != tt.ok || got != tt.format {
			t.Errorf("FromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.format, tt.ok)
		}
	}
}

func TestFromExtension(t *testing.T) {
	tests := []struct {
		ext    string
		format ast.SourceFormat
		ok     bool
	}{
		{"md", ast.Markdown, true},
		{".md", ast.Markdown, true},
		{".MD", ast.Markdown, true},
		{"Adoc", ast.AsciiDoc, true},
		{"org", ast.OrgMode, true},
		{"rst", ast.ReStructuredText, true},
		{"typ", ast.Typst, true},
		{"dj", ast.Djot, true},
		{"txt", ast.PlainText, true},
		{"pdf", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := FromExtension(tt.ext)
		if ok != tt.ok || got != tt.format {
			t.Errorf("FromExtension(%q) = %q, %v; want %q, %v", tt.ext, got, ok, tt.format, tt.ok)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension(".md") {
		t.Error("expected .md to be supported")
	}
	if IsSupportedExtension(".exe") {
		t.Error("expected .exe to be unsupported")
	}
}

func TestSupportedExtensionsSortedAndComplete(t *testing.T) {
	exts := SupportedExtensions()
	if len(exts) == 0 {
		t.Fatal("no supported extensions")
	}
	for i := 1; i < len(exts); i++ {
		if exts[i-1] >= exts[i] {
			t.Fatalf("extensions not sorted: %q before %q", exts[i-1], exts[i])
		}
	}
	// Every format's default extension must resolve back to it.
	for _, f := range ast.Formats() {
		ext := ExtensionForFormat(f)
		got, ok := FromExtension(ext)
		if !ok || got != f {
			t.Errorf("ExtensionForFormat(%q) = %q does not resolve back, got %q, %v", f, ext, got, ok)
		}
	}
}

func TestFromContentCascade(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ast.SourceFormat
	}{
		{"org keyword first line", "#+TITLE: Notes\nBody text.", ast.OrgMode},
		{"org keyword mid document", "Intro paragraph.\n#+BEGIN_SRC go\n#+END_SRC", ast.OrgMode},
		{"org beats markdown heading", "#+TITLE: x\n# heading", ast.OrgMode},
		{"asciidoc title", "= Document Title\n\nFirst paragraph.", ast.AsciiDoc},
		{"asciidoc toc attribute", "My Doc\n:toc: left\n\nBody.", ast.AsciiDoc},
		{"typst binding not asciidoc title", "= {foo}", ast.PlainText},
		{"typst let directive", "#let title = \"Hi\"\nBody.", ast.Typst},
		{"typst set rule", "Some text.\n#set page(width: 10cm)", ast.Typst},
		{"typst show rule", "#show heading: set text(blue)", ast.Typst},
		{"typst content block", "#[*bold* content]", ast.Typst},
		{"rst directive", ".. note::\n\n   Watch out.", ast.ReStructuredText},
		{"rst title underline", "Document Title\n==============\n\nBody.", ast.ReStructuredText},
		{"rst dash underline", "Section\n---------\n\nBody.", ast.ReStructuredText},
		{"djot attribute", "A paragraph.\n\n{.note}\nAnnotated text.", ast.Djot},
		{"djot footnote", "A claim.[^1]\n\n[^1]: The source.", ast.Djot},
		{"markdown atx heading", "# Heading\n\nBody.", ast.Markdown},
		{"markdown heading mid document", "Intro.\n# Later Heading", ast.Markdown},
		{"markdown fence", "Some code:\n```go\nfunc main() {}\n```", ast.Markdown},
		{"markdown inline link", "See [the docs](https://example.com) for more.", ast.Markdown},
		{"leading blank lines before title", "\n\n= Document Title\n\nBody.", ast.AsciiDoc},
		{"plain prose", "Just two plain sentences. Nothing special here.", ast.PlainText},
		{"empty input", "", ast.PlainText},
		{"whitespace only", "   \n\t\n", ast.PlainText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromContent(tt.content); got != tt.want {
				t.Errorf("FromContent(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestIsRSTUnderline(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"====", true},
		{"--------", true},
		{"~~~~~", true},
		{"^^^^^^", true},
		{"===", false},
		{"==-=", false},
		{"****", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isRSTUnderline(tt.line); got != tt.want {
			t.Errorf("isRSTUnderline(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestFromContentShortCircuitOrder(t *testing.T) {
	// A document carrying markers of several dialects resolves to the
	// earliest rule in the cascade.
	mixed := "#+OPTIONS: toc:nil\n= Title\n# Heading\n```\ncode\n```"
	if got := FromContent(mixed); got != ast.OrgMode {
		t.Errorf("mixed markers = %q, want %q", got, ast.OrgMode)
	}
	// Without org keywords the asciidoc title wins over markdown.
	mixed = strings.TrimPrefix(mixed, "#+OPTIONS: toc:nil\n")
	if got := FromContent(mixed); got != ast.AsciiDoc {
		t.Errorf("without org markers = %q, want %q", got, ast.AsciiDoc)
	}
}
