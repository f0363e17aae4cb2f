package mdblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_SameStructureDifferentContent(t *testing.T) {
	refLines := SplitLines("# Intro\nHello world.\n$$\nx\n$$\n")
	candLines := SplitLines("# Einleitung\nHallo Welt.\n$$\ny\n$$\n")
	rep := Check(Tokenize(refLines, Options{}), Tokenize(candLines, Options{}), refLines, candLines, CheckOptions{})
	assert.True(t, rep.OK)
	assert.Nil(t, rep.Mismatch)
	assert.Equal(t, 3, rep.ReferenceBlocks)
}

func TestCheck_KindMismatch(t *testing.T) {
	refLines := SplitLines("# A\np1\np2\n## B\np3\n")
	candLines := SplitLines("# A2\n\nq1\nq2\nq3\nq4\n")
	ref := Tokenize(refLines, Options{})
	cand := Tokenize(candLines, Options{})

	rep := Check(ref, cand, refLines, candLines, CheckOptions{})
	require.False(t, rep.OK)
	require.NotNil(t, rep.Mismatch)
	assert.Equal(t, Mismatch{
		Index:         3,
		ReferenceLine: 4,
		CandidateLine: 5,
		ReferenceKind: KindHeader,
		CandidateKind: KindParagraph,
	}, *rep.Mismatch)
	assert.Contains(t, rep.Mismatch.String(), "block 3")
}

func TestCheck_LengthMismatch(t *testing.T) {
	refLines := SplitLines("# A\np1\np2\n")
	candLines := SplitLines("# A\np1\n")

	rep := Check(Tokenize(refLines, Options{}), Tokenize(candLines, Options{}), refLines, candLines, CheckOptions{})
	require.False(t, rep.OK)
	assert.Equal(t, 2, rep.Mismatch.Index)
	assert.Equal(t, KindParagraph, rep.Mismatch.ReferenceKind)
	assert.Equal(t, 3, rep.Mismatch.ReferenceLine)
	assert.Equal(t, KindNone, rep.Mismatch.CandidateKind)
	assert.Equal(t, 0, rep.Mismatch.CandidateLine)
}

func TestCheck_SkipYAML(t *testing.T) {
	refLines := SplitLines("---\ntitle: x\n---\n# A\ntext\n")
	candLines := SplitLines("# A\ntext\n")
	ref := Tokenize(refLines, Options{})
	cand := Tokenize(candLines, Options{})

	assert.False(t, Check(ref, cand, refLines, candLines, CheckOptions{}).OK)

	rep := Check(ref, cand, refLines, candLines, CheckOptions{SkipYAML: true})
	assert.True(t, rep.OK)
	assert.Equal(t, 2, rep.ReferenceBlocks)
}

func TestLocateLines_RepeatedLines(t *testing.T) {
	lines := SplitLines("same\n\nsame\n$$\nx\n$$\n")
	blocks := Tokenize(lines, Options{})
	require.Len(t, blocks, 3)
	assert.Equal(t, []int{1, 3, 4}, LocateLines(lines, blocks))
}

func TestLocateLines_SkipsBlockBodies(t *testing.T) {
	tests := []struct {
		text string
		want []int
	}{
		{"$$\na\n$$\n\n$$\nb\n$$\n# H\n", []int{1, 5, 8}},
		{"```\nfoo\n```\nfoo\n", []int{1, 4}},
		{"---\ntitle: x\n---\n---\ntitle: y\n---\n", []int{1, 4}},
		{"$$\nx\n$$\n$$\nx", []int{1, 4}},
	}
	for _, tt := range tests {
		lines := SplitLines(tt.text)
		assert.Equal(t, tt.want, LocateLines(lines, Tokenize(lines, Options{})), "input %q", tt.text)
	}
}

func TestCheck_MismatchLineAfterFormulas(t *testing.T) {
	refLines := SplitLines("$$\na\n$$\n$$\nb\n$$\nText.\n")
	candLines := SplitLines("$$\na\n$$\n$$\nb\n$$\n# Head\n")
	rep := Check(Tokenize(refLines, Options{}), Tokenize(candLines, Options{}), refLines, candLines, CheckOptions{})
	require.False(t, rep.OK)
	assert.Equal(t, 2, rep.Mismatch.Index)
	assert.Equal(t, 7, rep.Mismatch.ReferenceLine)
	assert.Equal(t, 7, rep.Mismatch.CandidateLine)
}

func TestLocateLines_Missing(t *testing.T) {
	blocks := []Block{{Kind: KindParagraph, Content: "absent\n"}}
	assert.Equal(t, []int{0}, LocateLines([]string{"present\n"}, blocks))
}

func TestKindDiff(t *testing.T) {
	a := TokenizeString("# A\np\n", Options{})
	b := TokenizeString("# B\nq\n", Options{})
	assert.Empty(t, KindDiff(a, b))

	c := TokenizeString("p\nq\n", Options{})
	d := KindDiff(a, c)
	assert.Contains(t, d, "-header")
	assert.Contains(t, d, "+paragraph")
}
