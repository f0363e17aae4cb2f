package chunker

import (
	"strings"
	"testing"

	"github.com/dgallion1/papertrans/internal/mdblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(words int) mdblock.Block {
	return mdblock.Block{Kind: mdblock.KindParagraph, Content: strings.TrimSpace(strings.Repeat("w ", words)) + "\n"}
}

func header(content string) mdblock.Block {
	return mdblock.Block{Kind: mdblock.KindHeader, Content: content + "\n"}
}

func ranges(chunks []Chunk) [][2]int {
	out := make([][2]int, len(chunks))
	for i, c := range chunks {
		out[i] = [2]int{c.Start, c.End}
	}
	return out
}

func TestMerge_Empty(t *testing.T) {
	assert.Nil(t, Merge(nil, DefaultOptions()))
}

func TestMerge_PrefersFarthestFittingHeader(t *testing.T) {
	blocks := []mdblock.Block{
		header("# A"), para(4),
		header("## B"), para(4),
		header("## C"), para(10),
	}
	chunks := Merge(blocks, Options{Budget: 12})
	assert.Equal(t, [][2]int{{0, 4}, {4, 6}}, ranges(chunks))
	assert.Equal(t, 10, chunks[0].Words)
	assert.Equal(t, 11, chunks[1].Words)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestMerge_OversizedSingleton(t *testing.T) {
	blocks := []mdblock.Block{para(50), para(3)}
	chunks := Merge(blocks, Options{Budget: 10})
	require.Len(t, chunks, 2)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, ranges(chunks))
	assert.Equal(t, 50, chunks[0].Words)
}

func TestMerge_WholeDocumentFits(t *testing.T) {
	blocks := mdblock.TokenizeString("# A\nshort text\n## B\nshort text\n", mdblock.Options{})
	chunks := Merge(blocks, Options{Budget: 100})
	require.Len(t, chunks, 1)
	assert.Equal(t, 4, chunks[0].Len())
}

func TestMerge_TopLevelOnly(t *testing.T) {
	blocks := []mdblock.Block{
		header("# A"), para(4),
		header("## B"), para(4),
		header("# C"), para(4),
	}
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 6}}, ranges(Merge(blocks, Options{Budget: 8})))
	assert.Equal(t, [][2]int{{0, 3}, {3, 4}, {4, 6}}, ranges(Merge(blocks, Options{Budget: 8, TopLevelOnly: true})))
}

func TestMerge_IgnoreHeaders(t *testing.T) {
	blocks := []mdblock.Block{header("# A"), para(4), header("# B"), para(4)}
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}}, ranges(Merge(blocks, Options{Budget: 6})))
	assert.Equal(t, [][2]int{{0, 3}, {3, 4}}, ranges(Merge(blocks, Options{Budget: 6, IgnoreHeaders: true})))
}

func TestMerge_BudgetRespectAndCoverage(t *testing.T) {
	var blocks []mdblock.Block
	sizes := []int{3, 17, 1, 8, 25, 2, 2, 9, 14, 5, 30, 1, 6}
	for i, n := range sizes {
		if i%4 == 0 {
			blocks = append(blocks, header("## Part"))
		}
		blocks = append(blocks, para(n))
	}

	for _, budget := range []int{1, 5, 10, 20, 40, 1000} {
		chunks := Merge(blocks, Options{Budget: budget})
		next := 0
		for _, c := range chunks {
			assert.Equal(t, next, c.Start, "budget %d: chunks must be contiguous", budget)
			assert.Greater(t, c.Len(), 0)
			if c.Len() > 1 {
				assert.LessOrEqual(t, c.Words, budget, "budget %d: chunk %d", budget, c.Index)
			}
			next = c.End
		}
		assert.Equal(t, len(blocks), next, "budget %d: all blocks covered", budget)
	}
}

func TestSections_SplitsAtTopLevelHeaders(t *testing.T) {
	blocks := mdblock.TokenizeString("# A\np\n## a1\np\n# B\np\n", mdblock.Options{})
	sections := Sections(blocks)
	require.Len(t, sections, 2)
	assert.Equal(t, [][2]int{{0, 4}, {4, 6}}, ranges(sections))
	assert.Equal(t, "# A\n", sections[0].Blocks[0].Content)
	assert.Equal(t, "# B\n", sections[1].Blocks[0].Content)
	assert.Equal(t, "A", sections[0].Title())
}

func TestSections_PreambleJoinsFirstSection(t *testing.T) {
	blocks := mdblock.TokenizeString("---\nt: x\n---\npre\n# A\np\n# B\np\n", mdblock.Options{})
	sections := Sections(blocks)
	require.Len(t, sections, 2)
	assert.Equal(t, [][2]int{{0, 4}, {4, 6}}, ranges(sections))
	assert.Equal(t, mdblock.KindYAML, sections[0].Blocks[0].Kind)
	assert.Equal(t, "A", sections[0].Title())
}

func TestSections_NoTopLevelHeader(t *testing.T) {
	blocks := mdblock.TokenizeString("## x\np\n", mdblock.Options{})
	sections := Sections(blocks)
	require.Len(t, sections, 1)
	assert.Equal(t, 2, sections[0].Len())
	assert.Nil(t, Sections(nil))
}

func TestChunk_ContentAndJoin(t *testing.T) {
	blocks := mdblock.TokenizeString("# T\nbody\n", mdblock.Options{})
	c := Merge(blocks, DefaultOptions())[0]
	assert.Equal(t, "# T\nbody\n", c.Content())
	assert.Equal(t, "# T\n\n\nbody\n", c.Join("\n\n"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("..."))
	assert.Equal(t, 13, EstimateTokens(strings.Repeat("word ", 10)))
}
