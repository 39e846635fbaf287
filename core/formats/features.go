package formats

import (
	"sort"

	"github.com/formatrix/formatrix/core/ast"
)

// Shared feature vocabulary. FormatHandler queries and FeaturesUsed
// both draw from this set.
const (
	FeatureHeading        = "heading"
	FeatureBold           = "bold"
	FeatureItalic         = "italic"
	FeatureStrikethrough  = "strikethrough"
	FeatureCode           = "code"
	FeatureCodeBlock      = "code_block"
	FeatureLink           = "link"
	FeatureImage          = "image"
	FeatureList           = "list"
	FeatureTable          = "table"
	FeatureMath           = "math"
	FeatureAdmonition     = "admonition"
	FeatureFootnote       = "footnote"
	FeatureCrossReference = "cross_reference"
	FeatureInclude        = "include"
	FeatureMacro          = "macro"
)

// AllFeatures returns the complete vocabulary in a stable order.
func AllFeatures() []string {
	return []string{
		FeatureHeading, FeatureBold, FeatureItalic, FeatureStrikethrough,
		FeatureCode, FeatureCodeBlock, FeatureLink, FeatureImage,
		FeatureList, FeatureTable, FeatureMath, FeatureAdmonition,
		FeatureFootnote, FeatureCrossReference, FeatureInclude, FeatureMacro,
	}
}

// FeaturesUsed walks a document and returns the sorted set of feature
// names its content exercises. Callers compare the result against a
// target handler's declared set to preflight degradation.
func FeaturesUsed(doc *ast.Document) []string {
	used := make(map[string]bool)
	ast.Walk(doc, ast.Visitor{
		Block: func(b ast.Block) {
			switch n := b.(type) {
			case *ast.Heading:
				used[FeatureHeading] = true
			case *ast.CodeBlock:
				used[FeatureCodeBlock] = true
			case *ast.List:
				used[FeatureList] = true
			case *ast.Table:
				used[FeatureTable] = true
			case *ast.MathBlock:
				used[FeatureMath] = true
			case *ast.BlockQuote:
				if n.Admonition != "" {
					used[FeatureAdmonition] = true
				}
			}
		},
		Inline: func(in ast.Inline) {
			switch in.(type) {
			case *ast.Strong:
				used[FeatureBold] = true
			case *ast.Emphasis:
				used[FeatureItalic] = true
			case *ast.Strikethrough:
				used[FeatureStrikethrough] = true
			case *ast.Code:
				used[FeatureCode] = true
			case *ast.Link:
				used[FeatureLink] = true
			case *ast.Image:
				used[FeatureImage] = true
			case *ast.Math:
				used[FeatureMath] = true
			}
		},
	})

	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
