package djot

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

func TestParseAttributes(t *testing.T) {
	attrs, err := ParseAttributes(`{#intro .note .wide key="some value" plain=bare}`)
	if err != nil {
		t.Fatalf("ParseAttributes: %v", err)
	}
	if attrs.ID != "intro" {
		t.Errorf("id = %q", attrs.ID)
	}
	if len(attrs.Classes) != 2 || attrs.Classes[0] != "note" || attrs.Classes[1] != "wide" {
		t.Errorf("classes = %v", attrs.Classes)
	}
	if attrs.Pairs["key"] != "some value" || attrs.Pairs["plain"] != "bare" {
		t.Errorf("pairs = %v", attrs.Pairs)
	}
}

func TestParseAttributesRejectsProse(t *testing.T) {
	if _, err := ParseAttributes("{not an attribute list!}"); err == nil {
		t.Error("expected error for prose in braces")
	}
	if isAttributeLine("plain text") {
		t.Error("plain text accepted as attribute line")
	}
}

func TestAttributeLineAttachesToHeading(t *testing.T) {
	doc := mustParse(t, "{#setup}\n## Setup\n")
	h, ok := doc.Content[0].(*ast.Heading)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if h.ID != "setup" || h.Level != 2 {
		t.Errorf("heading = %#v", h)
	}

	out := mustRender(t, doc)
	if !strings.Contains(out, "{#setup}\n## Setup") {
		t.Errorf("render = %q", out)
	}
}

func TestAttributeLineWrapsParagraph(t *testing.T) {
	doc := mustParse(t, "{.warning #w1}\nCareful now.\n")
	c, ok := doc.Content[0].(*ast.Container)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if c.ID != "w1" || !c.HasClass("warning") {
		t.Errorf("container = %#v", c)
	}
	if len(c.Content) != 1 {
		t.Errorf("inner blocks = %d", len(c.Content))
	}
}

func TestDivBecomesContainer(t *testing.T) {
	doc := mustParse(t, "::: aside\nSide note.\n:::\n")
	c, ok := doc.Content[0].(*ast.Container)
	if !ok || !c.HasClass("aside") {
		t.Fatalf("block = %#v", doc.Content[0])
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "::: aside\nSide note.\n:::") {
		t.Errorf("render = %q", out)
	}
}

func TestAdmonitionDiv(t *testing.T) {
	doc := mustParse(t, "::: warning\nDo not cross.\n:::\n")
	q, ok := doc.Content[0].(*ast.BlockQuote)
	if !ok || q.Admonition != "warning" {
		t.Fatalf("block = %#v", doc.Content[0])
	}
	out := mustRender(t, doc)
	if !strings.HasPrefix(out, "::: warning\n") {
		t.Errorf("render = %q", out)
	}
}

func TestNestedDiv(t *testing.T) {
	doc := mustParse(t, "::: outer\nbefore\n\n::: inner\ndeep\n:::\n\nafter\n:::\n")
	c := doc.Content[0].(*ast.Container)
	if !c.HasClass("outer") || len(c.Content) != 3 {
		t.Fatalf("outer = %#v", c)
	}
	inner, ok := c.Content[1].(*ast.Container)
	if !ok || !inner.HasClass("inner") {
		t.Errorf("inner = %#v", c.Content[1])
	}
}

func TestCodeFenceAndRawBlock(t *testing.T) {
	doc := mustParse(t, "```go\nfunc main() {}\n```\n\n```=markdown\n# raw heading\n```\n")
	cb, ok := doc.Content[0].(*ast.CodeBlock)
	if !ok || cb.Language != "go" {
		t.Fatalf("first block = %#v", doc.Content[0])
	}
	raw, ok := doc.Content[1].(*ast.Raw)
	if !ok || raw.Format != ast.Markdown {
		t.Fatalf("second block = %#v", doc.Content[1])
	}
	if raw.Content != "# raw heading\n" {
		t.Errorf("raw content = %q", raw.Content)
	}

	out := mustRender(t, doc)
	if !strings.Contains(out, "```go\n") || !strings.Contains(out, "```=markdown\n") {
		t.Errorf("render = %q", out)
	}
}

func TestInlineSpans(t *testing.T) {
	doc := mustParse(t, "has _emphasis_ and *strong* and {-struck-} and `code` and $`x^2`$ here\n")
	p := doc.Content[0].(*ast.Paragraph)

	var kinds []string
	for _, in := range p.Content {
		switch in.(type) {
		case *ast.Emphasis:
			kinds = append(kinds, "em")
		case *ast.Strong:
			kinds = append(kinds, "strong")
		case *ast.Strikethrough:
			kinds = append(kinds, "strike")
		case *ast.Code:
			kinds = append(kinds, "code")
		case *ast.Math:
			kinds = append(kinds, "math")
		}
	}
	if strings.Join(kinds, ",") != "em,strong,strike,code,math" {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestSpanRejectsInnerWhitespace(t *testing.T) {
	doc := mustParse(t, "2 _ 3 _ 4 is not emphasis\n")
	p := doc.Content[0].(*ast.Paragraph)
	for _, in := range p.Content {
		if _, ok := in.(*ast.Emphasis); ok {
			t.Fatalf("spurious emphasis in %#v", p.Content)
		}
	}
}

func TestLinksAndImages(t *testing.T) {
	doc := mustParse(t, "see [docs](https://example.com) and ![chart](img.png)\n")
	p := doc.Content[0].(*ast.Paragraph)

	var link *ast.Link
	var img *ast.Image
	for _, in := range p.Content {
		switch n := in.(type) {
		case *ast.Link:
			link = n
		case *ast.Image:
			img = n
		}
	}
	if link == nil || link.URL != "https://example.com" || ast.Flatten(link.Content) != "docs" {
		t.Errorf("link = %#v", link)
	}
	if img == nil || img.URL != "img.png" || img.Alt != "chart" {
		t.Errorf("image = %#v", img)
	}
}

func TestBlockQuote(t *testing.T) {
	doc := mustParse(t, "> quoted text\n> more\n")
	q, ok := doc.Content[0].(*ast.BlockQuote)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if len(q.Content) != 1 {
		t.Fatalf("inner = %#v", q.Content)
	}
	out := mustRender(t, doc)
	if !strings.HasPrefix(out, "> quoted text") {
		t.Errorf("render = %q", out)
	}
}

func TestLists(t *testing.T) {
	doc := mustParse(t, "- one\n- two\n\n3. third\n4. fourth\n")
	bullets := doc.Content[0].(*ast.List)
	if bullets.Kind != ast.ListBullet || len(bullets.Items) != 2 {
		t.Fatalf("bullets = %#v", bullets)
	}
	ordered := doc.Content[1].(*ast.List)
	if ordered.Kind != ast.ListOrdered || ordered.Start != 3 {
		t.Fatalf("ordered = %#v", ordered)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "3. third\n4. fourth") {
		t.Errorf("render = %q", out)
	}
}

func TestTaskList(t *testing.T) {
	doc := mustParse(t, "- [x] done\n- [ ] open\n")
	list := doc.Content[0].(*ast.List)
	if list.Kind != ast.ListTask {
		t.Fatalf("kind = %v", list.Kind)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "- [x] done") || !strings.Contains(out, "- [ ] open") {
		t.Errorf("render = %q", out)
	}
}

func TestPipeTableWithCaption(t *testing.T) {
	input := "| Name | Score |\n|---|---|\n| alpha | 10 |\n^ Benchmark results\n"
	doc := mustParse(t, input)

	table, ok := doc.Content[0].(*ast.Table)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if table.Header == nil || len(table.Header.Cells) != 2 {
		t.Fatalf("header = %#v", table.Header)
	}
	if len(table.Body) != 1 {
		t.Fatalf("body = %#v", table.Body)
	}
	if ast.Flatten(table.Caption) != "Benchmark results" {
		t.Errorf("caption = %q", ast.Flatten(table.Caption))
	}

	out := mustRender(t, doc)
	if !strings.Contains(out, "^ Benchmark results") {
		t.Errorf("render = %q", out)
	}
}

func TestMathBlock(t *testing.T) {
	doc := mustParse(t, "$$e^{i\\pi} = -1$$\n")
	mb, ok := doc.Content[0].(*ast.MathBlock)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if mb.Content != "e^{i\\pi} = -1" {
		t.Errorf("content = %q", mb.Content)
	}
}

func TestHardBreak(t *testing.T) {
	doc := mustParse(t, "first\\\nsecond\n")
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
}

func TestThematicBreakForms(t *testing.T) {
	doc := mustParse(t, "a\n\n***\n\nb\n\n- - -\n\nc\n")
	breaks := 0
	for _, b := range doc.Content {
		if _, ok := b.(*ast.ThematicBreak); ok {
			breaks++
		}
	}
	if breaks != 2 {
		t.Errorf("breaks = %d in %#v", breaks, doc.Content)
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	out := mustRender(t, ast.New(ast.Djot))
	if out != "" {
		t.Errorf("out = %q", out)
	}
}

func TestContainerAttributesRoundTrip(t *testing.T) {
	doc := &ast.Document{
		SourceFormat: ast.Djot,
		Content: []ast.Block{
			&ast.Container{
				ID:         "box1",
				Classes:    []string{"aside", "wide"},
				Attributes: map[string]string{"role": "note"},
				Content: []ast.Block{
					&ast.Paragraph{Content: []ast.Inline{&ast.Text{Content: "body"}}},
				},
			},
		},
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, `{#box1 .wide role="note"}`) {
		t.Errorf("attribute line missing:\n%s", out)
	}
	if !strings.Contains(out, "::: aside") {
		t.Errorf("div fence missing:\n%s", out)
	}
}

func TestSupportedFeatures(t *testing.T) {
	h := New()
	if !h.SupportsFeature(formats.FeatureMath) {
		t.Error("math should be supported")
	}
	if h.SupportsFeature(formats.FeatureInclude) {
		t.Error("include should not be supported")
	}
}
