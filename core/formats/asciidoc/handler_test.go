package asciidoc

import (
	"strings"
	"testing"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/formats"
)

func mustParse(t *testing.T, input string) *ast.Document {
	t.Helper()
	doc, err := New().Parse(input, formats.ParseConfig{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func mustRender(t *testing.T, doc *ast.Document) string {
	t.Helper()
	out, err := New().Render(doc, formats.RenderConfig{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func TestParseHeader(t *testing.T) {
	doc := mustParse(t, "= My Document\nJane Writer\n:toc: left\n:revdate: 2024-01-01\n\nBody text.\n")
	if doc.Meta.Title != "My Document" {
		t.Errorf("title = %q", doc.Meta.Title)
	}
	if len(doc.Meta.Authors) != 1 || doc.Meta.Authors[0] != "Jane Writer" {
		t.Errorf("authors = %v", doc.Meta.Authors)
	}
	if doc.Meta.Date != "2024-01-01" {
		t.Errorf("date = %q", doc.Meta.Date)
	}
	if doc.Meta.Extra["toc"] != "left" {
		t.Errorf("extra = %v", doc.Meta.Extra)
	}
	if len(doc.Content) != 1 {
		t.Fatalf("content blocks = %d", len(doc.Content))
	}
}

func TestRenderHeaderAttributes(t *testing.T) {
	doc := ast.New(ast.AsciiDoc)
	doc.Meta.Title = "My Document"
	doc.Meta.Authors = []string{"Jane Writer"}
	doc.Meta.Date = "2024-01-01"
	doc.Meta.SetExtra("toc", "left")
	doc.Meta.SetExtra("icons", "font")
	doc.Content = []ast.Block{
		&ast.Paragraph{Content: []ast.Inline{&ast.Text{Content: "Body text."}}},
	}

	out := mustRender(t, doc)
	want := "= My Document\n:author: Jane Writer\n:revdate: 2024-01-01\n:icons: font\n:toc: left\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("header = %q, want prefix %q", out, want)
	}
}

func TestParseSectionLevels(t *testing.T) {
	doc := mustParse(t, "== First\n\n=== Second\n")
	if len(doc.Content) != 2 {
		t.Fatalf("blocks = %d", len(doc.Content))
	}
	h1 := doc.Content[0].(*ast.Heading)
	h2 := doc.Content[1].(*ast.Heading)
	if h1.Level != 1 || h2.Level != 2 {
		t.Errorf("levels = %d, %d", h1.Level, h2.Level)
	}
}

func TestSourceBlockRoundTrip(t *testing.T) {
	input := "[source,rust]\n----\nfn main() {\n    println!(\"hi\");\n}\n----\n"
	doc := mustParse(t, input)

	cb, ok := doc.Content[0].(*ast.CodeBlock)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if cb.Language != "rust" {
		t.Errorf("language = %q", cb.Language)
	}
	if !strings.Contains(cb.Content, "fn main()") {
		t.Errorf("content = %q", cb.Content)
	}

	out := mustRender(t, doc)
	if !strings.Contains(out, "[source,rust]") {
		t.Errorf("render missing source attribute:\n%s", out)
	}
	if !strings.Contains(out, "fn main()") {
		t.Errorf("render missing body:\n%s", out)
	}
}

func TestQuoteWithAttribution(t *testing.T) {
	input := "[quote, Ada Lovelace]\n____\nThe engine weaves patterns.\n____\n"
	doc := mustParse(t, input)

	q, ok := doc.Content[0].(*ast.BlockQuote)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if ast.Flatten(q.Attribution) != "Ada Lovelace" {
		t.Errorf("attribution = %q", ast.Flatten(q.Attribution))
	}

	out := mustRender(t, doc)
	if !strings.Contains(out, "[quote, Ada Lovelace]") {
		t.Errorf("render:\n%s", out)
	}
}

func TestAdmonitions(t *testing.T) {
	doc := mustParse(t, "NOTE: Mind the gap.\n")
	q, ok := doc.Content[0].(*ast.BlockQuote)
	if !ok || q.Admonition != "note" {
		t.Fatalf("block = %#v", doc.Content[0])
	}
	p := q.Content[0].(*ast.Paragraph)
	if ast.Flatten(p.Content) != "Mind the gap." {
		t.Errorf("text = %q", ast.Flatten(p.Content))
	}

	out := mustRender(t, doc)
	if !strings.HasPrefix(out, "NOTE: Mind the gap.") {
		t.Errorf("render = %q", out)
	}
}

func TestAdmonitionBlockForm(t *testing.T) {
	input := "[WARNING]\n====\nFirst paragraph.\n\nSecond paragraph.\n====\n"
	doc := mustParse(t, input)
	q, ok := doc.Content[0].(*ast.BlockQuote)
	if !ok || q.Admonition != "warning" {
		t.Fatalf("block = %#v", doc.Content[0])
	}
	if len(q.Content) != 2 {
		t.Errorf("inner blocks = %d", len(q.Content))
	}
}

func TestSidebar(t *testing.T) {
	doc := mustParse(t, "****\nAside text.\n****\n")
	c, ok := doc.Content[0].(*ast.Container)
	if !ok || !c.HasClass("sidebar") {
		t.Fatalf("block = %#v", doc.Content[0])
	}
	out := mustRender(t, doc)
	if !strings.HasPrefix(out, "****\n") {
		t.Errorf("render = %q", out)
	}
}

func TestLists(t *testing.T) {
	doc := mustParse(t, "* one\n* two\n** nested\n")
	list, ok := doc.Content[0].(*ast.List)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if list.Kind != ast.ListBullet || len(list.Items) != 2 {
		t.Fatalf("list = %#v", list)
	}
	// Second item carries the nested list.
	if len(list.Items[1].Content) != 2 {
		t.Fatalf("nested item blocks = %d", len(list.Items[1].Content))
	}
	nested, ok := list.Items[1].Content[1].(*ast.List)
	if !ok || len(nested.Items) != 1 {
		t.Errorf("nested = %#v", list.Items[1].Content[1])
	}
}

func TestOrderedAndTaskLists(t *testing.T) {
	doc := mustParse(t, ".. first\n.. second\n")
	ordered := doc.Content[0].(*ast.List)
	if ordered.Kind != ast.ListOrdered || len(ordered.Items) != 2 {
		t.Fatalf("ordered = %#v", ordered)
	}

	doc = mustParse(t, "* [x] done\n* [ ] open\n")
	list := doc.Content[0].(*ast.List)
	if list.Kind != ast.ListTask {
		t.Fatalf("kind = %v", list.Kind)
	}
	if list.Items[0].Checked == nil || !*list.Items[0].Checked {
		t.Errorf("first item not checked")
	}
	if list.Items[1].Checked == nil || *list.Items[1].Checked {
		t.Errorf("second item checked")
	}
}

func TestTable(t *testing.T) {
	input := ".Results\n|===\n| Name | Score\n\n| alpha | 10\n| beta | 20\n|===\n"
	doc := mustParse(t, input)

	table, ok := doc.Content[0].(*ast.Table)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if table.Header == nil || len(table.Header.Cells) != 2 {
		t.Fatalf("header = %#v", table.Header)
	}
	if len(table.Body) != 2 {
		t.Fatalf("body rows = %d", len(table.Body))
	}
	if ast.Flatten(table.Caption) != "Results" {
		t.Errorf("caption = %q", ast.Flatten(table.Caption))
	}

	out := mustRender(t, doc)
	if !strings.Contains(out, ".Results\n|===") {
		t.Errorf("render:\n%s", out)
	}
}

func TestMathBlock(t *testing.T) {
	doc := mustParse(t, "[stem]\n++++\nE = mc^2\n++++\n")
	mb, ok := doc.Content[0].(*ast.MathBlock)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if mb.Content != "E = mc^2" {
		t.Errorf("content = %q", mb.Content)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "[stem]\n++++\nE = mc^2\n++++") {
		t.Errorf("render:\n%s", out)
	}
}

func TestInlineFormatting(t *testing.T) {
	doc := mustParse(t, "Some *bold* and _italic_ and `code` and [line-through]#gone#.\n")
	p := doc.Content[0].(*ast.Paragraph)

	var kinds []string
	for _, in := range p.Content {
		switch in.(type) {
		case *ast.Strong:
			kinds = append(kinds, "strong")
		case *ast.Emphasis:
			kinds = append(kinds, "em")
		case *ast.Code:
			kinds = append(kinds, "code")
		case *ast.Strikethrough:
			kinds = append(kinds, "strike")
		}
	}
	want := []string{"strong", "em", "code", "strike"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestInlineMacros(t *testing.T) {
	doc := mustParse(t, "See link:https://example.com[the site] and image:logo.png[Logo] and stem:[x^2].\n")
	p := doc.Content[0].(*ast.Paragraph)

	var link *ast.Link
	var img *ast.Image
	var math *ast.Math
	for _, in := range p.Content {
		switch n := in.(type) {
		case *ast.Link:
			link = n
		case *ast.Image:
			img = n
		case *ast.Math:
			math = n
		}
	}
	if link == nil || link.URL != "https://example.com" || ast.Flatten(link.Content) != "the site" {
		t.Errorf("link = %#v", link)
	}
	if img == nil || img.URL != "logo.png" || img.Alt != "Logo" {
		t.Errorf("image = %#v", img)
	}
	if math == nil || math.Content != "x^2" {
		t.Errorf("math = %#v", math)
	}
}

func TestCrossReference(t *testing.T) {
	doc := mustParse(t, "See <<intro,the introduction>>.\n")
	p := doc.Content[0].(*ast.Paragraph)
	var link *ast.Link
	for _, in := range p.Content {
		if n, ok := in.(*ast.Link); ok {
			link = n
		}
	}
	if link == nil || link.URL != "#intro" || ast.Flatten(link.Content) != "the introduction" {
		t.Fatalf("link = %#v", link)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "<<intro,the introduction>>") {
		t.Errorf("render = %q", out)
	}
}

func TestBareURL(t *testing.T) {
	doc := mustParse(t, "Visit https://example.com/docs today.\n")
	p := doc.Content[0].(*ast.Paragraph)
	var link *ast.Link
	for _, in := range p.Content {
		if n, ok := in.(*ast.Link); ok {
			link = n
		}
	}
	if link == nil || link.URL != "https://example.com/docs" {
		t.Fatalf("link = %#v", link)
	}
}

func TestHardBreak(t *testing.T) {
	doc := mustParse(t, "first line +\nsecond line\n")
	p := doc.Content[0].(*ast.Paragraph)
	found := false
	for _, in := range p.Content {
		if _, ok := in.(*ast.LineBreak); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("no hard break in %#v", p.Content)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, " +\n") {
		t.Errorf("render = %q", out)
	}
}

func TestThematicBreak(t *testing.T) {
	doc := mustParse(t, "before\n\n'''\n\nafter\n")
	if len(doc.Content) != 3 {
		t.Fatalf("blocks = %d", len(doc.Content))
	}
	if _, ok := doc.Content[1].(*ast.ThematicBreak); !ok {
		t.Errorf("middle block = %T", doc.Content[1])
	}
}

func TestCommentsSkipped(t *testing.T) {
	doc := mustParse(t, "// line comment\n\n////\nblock comment\n////\n\nvisible\n")
	if len(doc.Content) != 1 {
		t.Fatalf("blocks = %d: %#v", len(doc.Content), doc.Content)
	}
}

func TestHeadingAnchor(t *testing.T) {
	doc := mustParse(t, "[[intro]]\n== Introduction\n")
	h := doc.Content[0].(*ast.Heading)
	if h.ID != "intro" {
		t.Fatalf("id = %q", h.ID)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "[[intro]]\n== Introduction") {
		t.Errorf("render = %q", out)
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	out := mustRender(t, ast.New(ast.AsciiDoc))
	if out != "" {
		t.Errorf("out = %q", out)
	}
}

func TestRawPassthrough(t *testing.T) {
	doc := mustParse(t, "++++\n<video src=\"x.mp4\"/>\n++++\n")
	raw, ok := doc.Content[0].(*ast.Raw)
	if !ok || raw.Format != ast.AsciiDoc {
		t.Fatalf("block = %#v", doc.Content[0])
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "<video src=\"x.mp4\"/>") {
		t.Errorf("render = %q", out)
	}
}

func TestSupportedFeatures(t *testing.T) {
	h := New()
	if !h.SupportsFeature(formats.FeatureMath) {
		t.Error("math should be supported")
	}
	if !h.SupportsFeature(formats.FeatureAdmonition) {
		t.Error("admonition should be supported")
	}
	if h.SupportsFeature("teleportation") {
		t.Error("unknown feature reported as supported")
	}
	if len(h.SupportedFeatures()) != len(formats.AllFeatures()) {
		t.Errorf("feature count = %d", len(h.SupportedFeatures()))
	}
}
