package formats

import (
	"reflect"
	"testing"

	"github.com/formatrix/formatrix/core/ast"
)

func TestFeaturesUsed(t *testing.T) {
	doc := &ast.Document{
		SourceFormat: ast.Markdown,
		Content: []ast.Block{
			&ast.Heading{Level: 2, Content: []ast.Inline{&ast.Text{Content: "Title"}}},
			&ast.Paragraph{Content: []ast.Inline{
				&ast.Strong{Content: []ast.Inline{&ast.Text{Content: "b"}}},
				&ast.Strikethrough{Content: []ast.Inline{&ast.Text{Content: "s"}}},
				&ast.Link{URL: "https://example.com", Content: []ast.Inline{&ast.Text{Content: "l"}}},
			}},
			&ast.CodeBlock{Language: "go", Content: "x"},
			&ast.Table{Body: []ast.TableRow{{Cells: []ast.TableCell{
				{Content: []ast.Block{&ast.Paragraph{Content: []ast.Inline{&ast.Math{Content: "e^x"}}}}},
			}}}},
		},
	}

	want := []string{
		FeatureBold, FeatureCodeBlock, FeatureHeading, FeatureLink,
		FeatureMath, FeatureStrikethrough, FeatureTable,
	}
	if got := FeaturesUsed(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("FeaturesUsed = %v, want %v", got, want)
	}
}

func TestFeaturesUsedAdmonitionRequiresKind(t *testing.T) {
	quoted := &ast.Document{Content: []ast.Block{
		&ast.BlockQuote{Content: []ast.Block{&ast.Paragraph{Content: []ast.Inline{&ast.Text{Content: "q"}}}}},
	}}
	if got := FeaturesUsed(quoted); len(got) != 0 {
		t.Errorf("plain block quote should use no features, got %v", got)
	}

	callout := &ast.Document{Content: []ast.Block{
		&ast.BlockQuote{Admonition: "warning", Content: []ast.Block{
			&ast.Paragraph{Content: []ast.Inline{&ast.Text{Content: "q"}}},
		}},
	}}
	if got := FeaturesUsed(callout); !reflect.DeepEqual(got, []string{FeatureAdmonition}) {
		t.Errorf("admonition quote = %v, want [admonition]", got)
	}
}

func TestFeaturesUsedEmptyDocument(t *testing.T) {
	if got := FeaturesUsed(ast.New(ast.PlainText)); len(got) != 0 {
		t.Errorf("empty document = %v, want none", got)
	}
}

func TestAllFeaturesDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range AllFeatures() {
		if seen[f] {
			t.Errorf("duplicate feature %q", f)
		}
		seen[f] = true
	}
}

func TestRenderConfigOption(t *testing.T) {
	var zero RenderConfig
	if zero.Option("wrap") != "" {
		t.Error("zero config should return empty option")
	}
	cfg := RenderConfig{Options: map[string]string{"wrap": "80"}}
	if cfg.Option("wrap") != "80" {
		t.Errorf("Option(wrap) = %q, want 80", cfg.Option("wrap"))
	}
	if cfg.Option("missing") != "" {
		t.Error("unset key should return empty string")
	}
}
