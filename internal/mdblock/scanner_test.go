package mdblock

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_HeadersAndParagraphs(t *testing.T) {
	lines := []string{"# Title\n", "Some text.\n", "\n", "## Sub\n", "More text.\n"}
	blocks := Tokenize(lines, Options{})

	want := []Block{
		{Kind: KindHeader, Content: "# Title\n"},
		{Kind: KindParagraph, Content: "Some text.\n"},
		{Kind: KindHeader, Content: "## Sub\n"},
		{Kind: KindParagraph, Content: "More text.\n"},
	}
	assert.Equal(t, want, blocks)
}

func TestTokenize_FormulaBlock(t *testing.T) {
	blocks := Tokenize([]string{"$$\n", "x=1\n", "$$\n"}, Options{})
	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Kind: KindFormula, Content: "$$\nx=1\n$$\n"}, blocks[0])
}

func TestTokenize_SingleLineFormulas(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"inline", "$x=1$\n"},
		{"inline padded", "  $ a + b $  \n"},
		{"display", "$$E=mc^2$$\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Tokenize([]string{tt.line}, Options{})
			require.Len(t, blocks, 1)
			assert.Equal(t, KindFormula, blocks[0].Kind)
			assert.Equal(t, tt.line, blocks[0].Content)
		})
	}
}

func TestTokenize_SingleLineKinds(t *testing.T) {
	tests := []struct {
		line string
		want Kind
	}{
		{"![figure 1](img/fig1.png)\n", KindLink},
		{"   ![[diagram.png]]  \n", KindLink},
		{"![a](b.png) trailing words\n", KindParagraph},
		{"<table><tr><td>1</td></tr></table>\n", KindTable},
		{"#NoSpace heading\n", KindHeader},
		{"Plain sentence.\n", KindParagraph},
		{"a $ inline $ mid sentence\n", KindParagraph},
	}
	for _, tt := range tests {
		blocks := Tokenize([]string{tt.line}, Options{})
		require.Len(t, blocks, 1, "line %q", tt.line)
		assert.Equal(t, tt.want, blocks[0].Kind, "line %q", tt.line)
	}
}

func TestTokenize_CodeFenceShieldsContents(t *testing.T) {
	lines := []string{
		"```python\n",
		"# not a header\n",
		"$$\n",
		"| a | b |\n",
		"---\n",
		"```\n",
		"after\n",
	}
	blocks := Tokenize(lines, Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, KindCodeBlock, blocks[0].Kind)
	assert.Equal(t, strings.Join(lines[:6], ""), blocks[0].Content)
	assert.Equal(t, Block{Kind: KindParagraph, Content: "after\n"}, blocks[1])
}

func TestTokenize_TableClosedByHeader(t *testing.T) {
	lines := []string{"| a | b |\n", "|---|:-:|\n", "| 1 | 2 |\n", "# Next\n"}
	blocks := Tokenize(lines, Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Kind: KindMarkdownTable, Content: "| a | b |\n|---|:-:|\n| 1 | 2 |\n"}, blocks[0])
	assert.Equal(t, Block{Kind: KindHeader, Content: "# Next\n"}, blocks[1])
}

func TestTokenize_TableAtEndOfInput(t *testing.T) {
	blocks := Tokenize([]string{"intro\n", "| x |\n", "| y |\n"}, Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
	assert.Equal(t, Block{Kind: KindMarkdownTable, Content: "| x |\n| y |\n"}, blocks[1])
}

func TestTokenize_UnterminatedBlocksAreFlushed(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Kind
	}{
		{"code", []string{"```\n", "x := 1\n"}, KindCodeBlock},
		{"formula", []string{"$$\n", "a^2\n"}, KindFormula},
		{"yaml", []string{"---\n", "title: x\n"}, KindYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Tokenize(tt.lines, Options{})
			require.Len(t, blocks, 1)
			assert.Equal(t, tt.want, blocks[0].Kind)
			assert.Equal(t, strings.Join(tt.lines, ""), blocks[0].Content)
		})
	}
}

func TestTokenize_YAMLFrontMatter(t *testing.T) {
	lines := []string{"---\n", "title: Paper\n", "---\n", "# Abstract\n"}
	blocks := Tokenize(lines, Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Kind: KindYAML, Content: "---\ntitle: Paper\n---\n"}, blocks[0])
	assert.Equal(t, KindHeader, blocks[1].Kind)
}

func TestTokenize_MidDocumentRuleToggles(t *testing.T) {
	blocks := Tokenize([]string{"para\n", "---\n", "more\n"}, Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
	assert.Equal(t, Block{Kind: KindYAML, Content: "---\nmore\n"}, blocks[1])
}

func TestTokenize_KeepEmpty(t *testing.T) {
	blocks := Tokenize([]string{"a\n", "  \n", "b\n"}, Options{KeepEmpty: true})
	require.Len(t, blocks, 3)
	assert.Equal(t, Block{Kind: KindEmptyLine, Content: "  \n"}, blocks[1])
}

func TestTokenize_RoundTrip(t *testing.T) {
	doc := "---\ntitle: t\n---\n# Intro\n\nText with $x$ inside.\n$$\n\\int f\n$$\n" +
		"| a |\n|---|\n\n```\ncode\n```\n![f](f.png)\n<table></table>\n## Tail\nunterminated\n```\nopen fence"
	lines := SplitLines(doc)
	blocks := Tokenize(lines, Options{KeepEmpty: true})
	assert.Equal(t, doc, Concat(blocks))
}

func TestTokenize_Idempotent(t *testing.T) {
	doc := "# A\ntext\n\n$$\ny\n$$\n| a |\n| b |\nafter\n## B\n![x](y)\n"
	first := TokenizeString(doc, Options{})
	second := TokenizeString(Concat(first), Options{})
	assert.Equal(t, Kinds(first), Kinds(second))
}

func TestTokenize_ModeExclusivity(t *testing.T) {
	lines := []string{"$$\n", "```\n", "| a |\n", "$$\n", "```\n", "x\n", "```\n"}
	blocks := Tokenize(lines, Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Kind: KindFormula, Content: "$$\n```\n| a |\n$$\n"}, blocks[0])
	assert.Equal(t, Block{Kind: KindCodeBlock, Content: "```\nx\n```\n"}, blocks[1])
}

func TestTokenize_LastLineWithoutTerminator(t *testing.T) {
	blocks := TokenizeString("# T\nbody", Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, "body", blocks[1].Content)
}

func TestTokenize_EmptyInput(t *testing.T) {
	assert.Empty(t, Tokenize(nil, Options{}))
	assert.Empty(t, TokenizeString("", Options{KeepEmpty: true}))
}

func TestScanner_StepEmitsClosedTableAndLine(t *testing.T) {
	sc := NewScanner(Options{})
	st, out := sc.Step(State{}, "| a |\n")
	assert.Empty(t, out)
	assert.Equal(t, ModeTable, st.Mode)

	st, out = sc.Step(st, "text\n")
	require.Len(t, out, 2)
	assert.Equal(t, KindMarkdownTable, out[0].Kind)
	assert.Equal(t, KindParagraph, out[1].Kind)
	assert.False(t, st.Open())
	assert.Empty(t, sc.Flush(st))
}

func TestRules_PriorityOrder(t *testing.T) {
	var names []string
	for _, r := range Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"code_fence", "formula_delimiter", "yaml_delimiter", "markdown_table", "header",
		"link", "single_line_formula", "inline_formula", "html_table", "empty_line", "paragraph",
	}, names)
}

func TestClassify_DelimiterBeatsInlineFormula(t *testing.T) {
	r := Classify("$$\n")
	assert.Equal(t, "formula_delimiter", r.Name)
	assert.Equal(t, ModeFormula, r.Opens)

	r = Classify("$$ a $$\n")
	assert.Equal(t, "single_line_formula", r.Name)
	assert.Equal(t, ModeNormal, r.Opens)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a\n", "b\r\n", "c"}, SplitLines("a\nb\r\nc"))
	assert.Equal(t, []string{"a\n", "\n"}, SplitLines("a\n\n"))
	assert.Nil(t, SplitLines(""))
}
