package typst

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

func TestHeadings(t *testing.T) {
	doc := mustParse(t, "= Top\n\n== Section\n\n=== Sub\n")
	levels := []int{}
	for _, b := range doc.Content {
		levels = append(levels, b.(*ast.Heading).Level)
	}
	if len(levels) != 3 || levels[0] != 1 || levels[1] != 2 || levels[2] != 3 {
		t.Errorf("levels = %v", levels)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "= Top") || !strings.Contains(out, "== Section") {
		t.Errorf("render = %q", out)
	}
}

func TestScriptingLinesDropped(t *testing.T) {
	doc := mustParse(t, "#let x = 4\n#set page(margin: 2cm)\n#show heading: set text(blue)\n#import \"lib.typ\"\n\nActual content.\n")
	if len(doc.Content) != 1 {
		t.Fatalf("blocks = %#v", doc.Content)
	}
	p := doc.Content[0].(*ast.Paragraph)
	if ast.Flatten(p.Content) != "Actual content." {
		t.Errorf("text = %q", ast.Flatten(p.Content))
	}
}

func TestCodeFence(t *testing.T) {
	doc := mustParse(t, "```go\nfunc main() {}\n```\n")
	cb, ok := doc.Content[0].(*ast.CodeBlock)
	if !ok || cb.Language != "go" {
		t.Fatalf("block = %#v", doc.Content[0])
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "```go\nfunc main() {}\n```") {
		t.Errorf("render = %q", out)
	}
}

func TestRawBlockFence(t *testing.T) {
	doc := mustParse(t, "```markdown\n# heading\n```\n")
	raw, ok := doc.Content[0].(*ast.Raw)
	if !ok || raw.Format != ast.Markdown {
		t.Fatalf("block = %#v", doc.Content[0])
	}
}

func TestDisplayMath(t *testing.T) {
	doc := mustParse(t, "$ sum_(k=1)^n k = (n(n+1))/2 $\n")
	mb, ok := doc.Content[0].(*ast.MathBlock)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if !strings.Contains(mb.Content, "sum_(k=1)^n") {
		t.Errorf("content = %q", mb.Content)
	}
	out := mustRender(t, doc)
	if !strings.HasPrefix(out, "$ sum_") || !strings.Contains(out, " $") {
		t.Errorf("render = %q", out)
	}
}

func TestInlineMath(t *testing.T) {
	doc := mustParse(t, "area is $pi r^2$ exactly\n")
	p := doc.Content[0].(*ast.Paragraph)
	var math *ast.Math
	for _, in := range p.Content {
		if n, ok := in.(*ast.Math); ok {
			math = n
		}
	}
	if math == nil || math.Content != "pi r^2" {
		t.Errorf("math = %#v", math)
	}
}

func TestQuoteWithAttribution(t *testing.T) {
	input := "#quote(block: true, attribution: [Ada Lovelace])[\nThe engine weaves.\n]\n"
	doc := mustParse(t, input)

	q, ok := doc.Content[0].(*ast.BlockQuote)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if ast.Flatten(q.Attribution) != "Ada Lovelace" {
		t.Errorf("attribution = %q", ast.Flatten(q.Attribution))
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "attribution: [Ada Lovelace]") {
		t.Errorf("render = %q", out)
	}
}

func TestSingleLineQuote(t *testing.T) {
	doc := mustParse(t, "#quote(block: true)[Better late.]\n")
	q, ok := doc.Content[0].(*ast.BlockQuote)
	if !ok || len(q.Content) != 1 {
		t.Fatalf("block = %#v", doc.Content[0])
	}
}

func TestTable(t *testing.T) {
	input := "#table(\n  columns: 2,\n  table.header([Name], [Score]),\n  [alpha], [10],\n  [beta], [20],\n)\n"
	doc := mustParse(t, input)

	table, ok := doc.Content[0].(*ast.Table)
	if !ok {
		t.Fatalf("block = %T", doc.Content[0])
	}
	if table.Header == nil || len(table.Header.Cells) != 2 {
		t.Fatalf("header = %#v", table.Header)
	}
	if len(table.Body) != 2 || len(table.Body[0].Cells) != 2 {
		t.Fatalf("body = %#v", table.Body)
	}

	out := mustRender(t, doc)
	if !strings.Contains(out, "columns: 2") || !strings.Contains(out, "table.header([Name], [Score])") {
		t.Errorf("render:\n%s", out)
	}
}

func TestLists(t *testing.T) {
	doc := mustParse(t, "- alpha\n- beta\n\n+ one\n+ two\n")
	bullets := doc.Content[0].(*ast.List)
	if bullets.Kind != ast.ListBullet || len(bullets.Items) != 2 {
		t.Fatalf("bullets = %#v", bullets)
	}
	ordered := doc.Content[1].(*ast.List)
	if ordered.Kind != ast.ListOrdered || len(ordered.Items) != 2 {
		t.Fatalf("ordered = %#v", ordered)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "- alpha") || !strings.Contains(out, "+ one") {
		t.Errorf("render = %q", out)
	}
}

func TestInlineMarkup(t *testing.T) {
	doc := mustParse(t, "mix of *bold* and _italic_ and `code` and #strike[gone] here\n")
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
	if strings.Join(kinds, ",") != "strong,em,code,strike" {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestLinkForms(t *testing.T) {
	doc := mustParse(t, "see #link(\"https://example.com\")[the docs] or #link(\"https://plain.example\")\n")
	p := doc.Content[0].(*ast.Paragraph)

	var links []*ast.Link
	for _, in := range p.Content {
		if n, ok := in.(*ast.Link); ok {
			links = append(links, n)
		}
	}
	if len(links) != 2 {
		t.Fatalf("links = %d: %#v", len(links), p.Content)
	}
	if links[0].URL != "https://example.com" || ast.Flatten(links[0].Content) != "the docs" {
		t.Errorf("first = %#v", links[0])
	}
	if links[1].URL != "https://plain.example" {
		t.Errorf("second = %#v", links[1])
	}
}

func TestImageBlock(t *testing.T) {
	doc := mustParse(t, "#image(\"chart.png\", alt: \"Quarterly chart\")\n")
	p := doc.Content[0].(*ast.Paragraph)
	img, ok := p.Content[0].(*ast.Image)
	if !ok {
		t.Fatalf("inline = %#v", p.Content[0])
	}
	if img.URL != "chart.png" || img.Alt != "Quarterly chart" {
		t.Errorf("image = %#v", img)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, `#image("chart.png", alt: "Quarterly chart")`) {
		t.Errorf("render = %q", out)
	}
}

func TestImageDimensionText(t *testing.T) {
	// Dimensions stay verbatim: Typst widths carry units or
	// percentages that have no numeric normal form.
	doc := mustParse(t, "#image(\"chart.png\", width: 50%)\n")
	p := doc.Content[0].(*ast.Paragraph)
	img := p.Content[0].(*ast.Image)
	if img.Width != "50%" {
		t.Errorf("width = %q, want 50%%", img.Width)
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "width: 50%") {
		t.Errorf("render = %q", out)
	}
}

func TestThematicBreak(t *testing.T) {
	doc := mustParse(t, "before\n\n#line(length: 100%)\n\nafter\n")
	if _, ok := doc.Content[1].(*ast.ThematicBreak); !ok {
		t.Fatalf("blocks = %#v", doc.Content)
	}
}

func TestMetaRendersAsSetDocument(t *testing.T) {
	doc := ast.New(ast.Typst)
	doc.Meta.Title = "Annual Report"
	doc.Meta.Authors = []string{"Y. Chen"}
	doc.Content = []ast.Block{
		&ast.Paragraph{Content: []ast.Inline{&ast.Text{Content: "Body."}}},
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, `#set document(title: "Annual Report", author: ("Y. Chen"))`) {
		t.Errorf("render = %q", out)
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	out := mustRender(t, ast.New(ast.Typst))
	if out != "" {
		t.Errorf("out = %q", out)
	}
}

func TestAdmonitionDegradesToLabeledQuote(t *testing.T) {
	doc := ast.New(ast.Typst)
	doc.Content = []ast.Block{
		&ast.BlockQuote{
			Content: []ast.Block{
				&ast.Paragraph{Content: []ast.Inline{&ast.Text{Content: "Check twice."}}},
			},
			Admonition: "warning",
		},
	}
	out := mustRender(t, doc)
	if !strings.Contains(out, "*WARNING:*") {
		t.Errorf("render = %q", out)
	}
}

func TestSupportedFeatures(t *testing.T) {
	h := New()
	if !h.SupportsFeature(formats.FeatureMath) {
		t.Error("math should be supported")
	}
	if h.SupportsFeature(formats.FeatureAdmonition) {
		t.Error("admonition should not be supported")
	}
}
