package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/papertrans/internal/mdblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a\nb\r\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a\n", "b\r\n", "\n", "c"}, lines)

	lines, err = ReadLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLoad_MarkdownIsVerbatim(t *testing.T) {
	src := "---\ntitle: Deep Nets\n---\n# Intro\n\ntext  \n"
	doc, err := Load(strings.NewReader(src), "paper.md", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Deep Nets", doc.Title)
	assert.Equal(t, "Deep Nets", doc.Meta.Title)
	assert.Equal(t, src, strings.Join(doc.Lines, ""))
}

func TestLoad_MarkdownTitleFromFilename(t *testing.T) {
	doc, err := Load(strings.NewReader("# A\n"), "dir/notes.markdown", Options{})
	require.NoError(t, err)
	assert.Equal(t, "notes", doc.Title)
	assert.Empty(t, doc.Meta.Title)
}

func TestLoad_CSVBecomesMarkdownTable(t *testing.T) {
	doc, err := Load(strings.NewReader("name,score\nalice,3\nbob\n"), "scores.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, "scores", doc.Title)

	blocks := mdblock.Tokenize(doc.Lines, mdblock.Options{})
	require.Len(t, blocks, 1)
	assert.Equal(t, mdblock.KindMarkdownTable, blocks[0].Kind)
	assert.Equal(t, "| name | score |\n| --- | --- |\n| alice | 3 |\n| bob |  |\n", blocks[0].Content)
}

func TestLoad_HTML(t *testing.T) {
	src := `<html><head><title>Paper</title></head><body>
<h1>Intro</h1><p>Some   text
here.</p><pre>x := 1
y := 2</pre><table><tr><td>a</td></tr></table>
<h2>Sub</h2><p>more</p><script>var x;</script></body></html>`
	doc, err := Load(strings.NewReader(src), "paper.html", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Paper", doc.Title)

	blocks := mdblock.Tokenize(doc.Lines, mdblock.Options{})
	assert.Equal(t, []mdblock.Kind{
		mdblock.KindHeader, mdblock.KindParagraph, mdblock.KindCodeBlock,
		mdblock.KindTable, mdblock.KindHeader, mdblock.KindParagraph,
	}, mdblock.Kinds(blocks))
	assert.Equal(t, "## Sub\n", blocks[4].Content)
	assert.Equal(t, "Some text here.\n", blocks[1].Content)
}

func TestLoad_Unsupported(t *testing.T) {
	_, err := Load(strings.NewReader("x"), "image.png", Options{})
	assert.Error(t, err)
	assert.False(t, IsSupportedExtension("image.png"))
	assert.True(t, IsSupportedExtension("PAPER.PDF"))
}

func TestParseFrontMatter(t *testing.T) {
	blocks := mdblock.TokenizeString("---\ntitle: T\ntags: [nlp, mt]\nyear: 2020\n---\n# A\n", mdblock.Options{})
	meta, ok := ParseFrontMatter(blocks)
	require.True(t, ok)
	assert.Equal(t, "T", meta.Title)
	assert.Equal(t, []string{"nlp", "mt"}, meta.Tags)

	_, ok = ParseFrontMatter(mdblock.TokenizeString("# A\n---\ntitle: x\n---\n", mdblock.Options{}))
	assert.False(t, ok)
}

func TestHeadingLevelTags(t *testing.T) {
	assert.Equal(t, 3, headingLevel("h3"))
	assert.Equal(t, 0, headingLevel("hr"))
	assert.Equal(t, 2, docxHeadingLevel("heading 2"))
	assert.Equal(t, 6, docxHeadingLevel("Heading6"))
	assert.Equal(t, 0, docxHeadingLevel("Heading10"))
	assert.Equal(t, 0, docxHeadingLevel("Normal"))
}
