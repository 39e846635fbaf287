package djot

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Attributes is a parsed djot attribute list such as
// {#intro .note .wide key="value"}.
type Attributes struct {
	ID      string
	Classes []string
	Pairs   map[string]string
}

// attrGrammar is the participle grammar for djot attribute lists.
type attrGrammar struct {
	Entries []attrEntry `parser:"\"{\" @@* \"}\""`
}

type attrEntry struct {
	ID    *string   `parser:"  \"#\" @Name"`
	Class *string   `parser:"| \".\" @Name"`
	Pair  *attrPair `parser:"| @@"`
}

type attrPair struct {
	Key   string `parser:"@Name \"=\""`
	Value string `parser:"( @String | @Name )"`
}

var attrLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Name", Pattern: `[A-Za-z0-9_][A-Za-z0-9_:-]*`},
	{Name: "Punct", Pattern: `[#.={}]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var attrParser = participle.MustBuild[attrGrammar](
	participle.Lexer(attrLexer),
	participle.Elide("Whitespace"),
)

// ParseAttributes parses a braced djot attribute list. The input must
// be the complete list including braces.
func ParseAttributes(s string) (*Attributes, error) {
	g, err := attrParser.ParseString("", s)
	if err != nil {
		return nil, err
	}

	attrs := &Attributes{}
	for _, e := range g.Entries {
		switch {
		case e.ID != nil:
			attrs.ID = *e.ID
		case e.Class != nil:
			attrs.Classes = append(attrs.Classes, *e.Class)
		case e.Pair != nil:
			if attrs.Pairs == nil {
				attrs.Pairs = make(map[string]string)
			}
			attrs.Pairs[e.Pair.Key] = unquote(e.Pair.Value)
		}
	}
	return attrs, nil
}

// isAttributeLine reports whether a full line is a standalone djot
// attribute list that applies to the following block.
func isAttributeLine(line string) bool {
	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		return false
	}
	_, err := ParseAttributes(line)
	return err == nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
	}
	return s
}
