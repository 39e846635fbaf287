package asciidoc

import "github.com/formatrix/formatrix/core/formats"

var supported = []string{
	formats.FeatureHeading,
	formats.FeatureBold,
	formats.FeatureItalic,
	formats.FeatureStrikethrough,
	formats.FeatureCode,
	formats.FeatureCodeBlock,
	formats.FeatureLink,
	formats.FeatureImage,
	formats.FeatureList,
	formats.FeatureTable,
	formats.FeatureMath,
	formats.FeatureAdmonition,
	formats.FeatureFootnote,
	formats.FeatureCrossReference,
	formats.FeatureInclude,
	formats.FeatureMacro,
}

// SupportsFeature reports whether AsciiDoc can express the feature.
func (h *Handler) SupportsFeature(name string) bool {
	for _, f := range supported {
		if f == name {
			return true
		}
	}
	return false
}

// SupportedFeatures lists every feature AsciiDoc can express.
func (h *Handler) SupportedFeatures() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}
