package mdblock

import (
	"strings"
	"unicode"
)

// Block is a classified, contiguous span of source lines. Content is the
// exact concatenation of those lines, terminators included.
type Block struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
}

// Level returns the heading depth of a header block, 0 for any other kind.
func (b Block) Level() int {
	if b.Kind != KindHeader {
		return 0
	}
	return HeadingLevel(b.Content)
}

// Words returns the word count of the block content.
func (b Block) Words() int {
	return CountWords(b.Content)
}

// FirstLine returns the first line of the block, terminator included.
func (b Block) FirstLine() string {
	if i := strings.IndexByte(b.Content, '\n'); i >= 0 {
		return b.Content[:i+1]
	}
	return b.Content
}

// HeadingLevel counts the leading '#' characters of a trimmed header line.
// Content that does not start with '#', or has nothing after its markers,
// has level 0.
func HeadingLevel(content string) int {
	s := strings.TrimSpace(content)
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == len(s) {
		return 0
	}
	return n
}

// CountWords counts maximal runs of letters, digits and underscores.
func CountWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		if isWordRune(r) {
			if !inWord {
				n++
				inWord = true
			}
			continue
		}
		inWord = false
	}
	return n
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Concat joins block contents in order. With empty lines retained this
// reproduces the tokenized input.
func Concat(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Content)
	}
	return sb.String()
}

// Kinds returns the kind sequence of blocks.
func Kinds(blocks []Block) []Kind {
	out := make([]Kind, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind
	}
	return out
}

// CountKind returns how many blocks have kind k.
func CountKind(blocks []Block, k Kind) int {
	n := 0
	for _, b := range blocks {
		if b.Kind == k {
			n++
		}
	}
	return n
}
