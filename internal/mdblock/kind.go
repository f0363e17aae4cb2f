package mdblock

import "fmt"

// Kind is the semantic type of a block.
type Kind uint8

const (
	// KindNone marks the absence of a block, e.g. the missing side of a
	// length mismatch.
	KindNone Kind = iota
	KindHeader
	KindLink
	KindFormula
	KindCodeBlock
	KindYAML
	KindTable
	KindMarkdownTable
	KindParagraph
	KindEmptyLine
)

var kindNames = [...]string{
	KindNone:          "none",
	KindHeader:        "header",
	KindLink:          "link",
	KindFormula:       "formula",
	KindCodeBlock:     "code_block",
	KindYAML:          "yaml",
	KindTable:         "table",
	KindMarkdownTable: "markdown_table",
	KindParagraph:     "paragraph",
	KindEmptyLine:     "empty_line",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("unknown block kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Multiline reports whether blocks of this kind are accumulated across
// several lines by the scanner.
func (k Kind) Multiline() bool {
	switch k {
	case KindCodeBlock, KindFormula, KindYAML, KindMarkdownTable:
		return true
	}
	return false
}
