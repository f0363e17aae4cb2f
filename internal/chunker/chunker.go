package chunker

import (
	"strings"

	"github.com/dgallion1/papertrans/internal/mdblock"
)

// DefaultBudget is the word budget used when none is configured.
const DefaultBudget = 1000

// Options controls budget merging.
type Options struct {
	Budget        int  // Maximum words per chunk.
	TopLevelOnly  bool // Only depth-1 headers are boundary candidates.
	IgnoreHeaders bool // Pack blocks by budget alone.
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Budget: DefaultBudget}
}

// Chunk is the contiguous block range [Start, End) of a document.
type Chunk struct {
	Index  int             `json:"index"`
	Start  int             `json:"start"`
	End    int             `json:"end"`
	Words  int             `json:"words"`
	Blocks []mdblock.Block `json:"blocks"`
}

// Len returns the number of blocks in the chunk.
func (c Chunk) Len() int { return c.End - c.Start }

// Content concatenates the block contents unchanged.
func (c Chunk) Content() string { return mdblock.Concat(c.Blocks) }

// Join joins block contents with sep.
func (c Chunk) Join(sep string) string {
	parts := make([]string, len(c.Blocks))
	for i, b := range c.Blocks {
		parts[i] = b.Content
	}
	return strings.Join(parts, sep)
}

// Title returns the text of the chunk's first header block, or "".
func (c Chunk) Title() string {
	for _, b := range c.Blocks {
		if b.Kind == mdblock.KindHeader {
			return strings.TrimSpace(strings.Trim(strings.TrimSpace(b.Content), "#"))
		}
	}
	return ""
}

// Merge groups blocks into chunks of at most opts.Budget words. Blocks are
// never split: a block larger than the budget becomes a chunk of its own.
// From each chunk start the farthest header whose preceding blocks still
// fit the budget ends the chunk; when no header fits, blocks are packed
// one by one until the next would overflow.
func Merge(blocks []mdblock.Block, opts Options) []Chunk {
	if len(blocks) == 0 {
		return nil
	}
	words := prefixWords(blocks)
	between := func(start, end int) int { return words[end] - words[start] }

	var headers []int
	if !opts.IgnoreHeaders {
		headers = headerIndices(blocks, opts.TopLevelOnly)
	}

	var chunks []Chunk
	cur, h := 0, 0
	for cur < len(blocks) {
		end := cur
		for h < len(headers) && headers[h] <= cur {
			h++
		}
		for i := h; i < len(headers); i++ {
			if between(cur, headers[i]) > opts.Budget {
				break
			}
			end = headers[i]
		}
		// The end of the document is as good a boundary as a header.
		if end > cur && between(cur, len(blocks)) <= opts.Budget {
			end = len(blocks)
		}

		if end == cur {
			end = cur + 1
			for end < len(blocks) && between(cur, end+1) <= opts.Budget {
				end++
			}
		}

		chunks = append(chunks, newChunk(blocks, len(chunks), cur, end, between(cur, end)))
		cur = end
	}
	return chunks
}

// Sections splits blocks at every depth-1 header, ignoring any budget.
// Blocks before the first depth-1 header belong to the first section; a
// document without depth-1 headers is a single section.
func Sections(blocks []mdblock.Block) []Chunk {
	if len(blocks) == 0 {
		return nil
	}
	words := prefixWords(blocks)
	starts := headerIndices(blocks, true)
	if len(starts) == 0 || starts[0] != 0 {
		if len(starts) > 0 {
			starts = starts[1:]
		}
		starts = append([]int{0}, starts...)
	}

	sections := make([]Chunk, 0, len(starts))
	for i, start := range starts {
		end := len(blocks)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		sections = append(sections, newChunk(blocks, i, start, end, words[end]-words[start]))
	}
	return sections
}

func newChunk(blocks []mdblock.Block, index, start, end, words int) Chunk {
	return Chunk{
		Index:  index,
		Start:  start,
		End:    end,
		Words:  words,
		Blocks: blocks[start:end:end],
	}
}

// prefixWords returns cumulative word counts; words[i] is the total of
// blocks[:i].
func prefixWords(blocks []mdblock.Block) []int {
	words := make([]int, len(blocks)+1)
	for i, b := range blocks {
		words[i+1] = words[i] + b.Words()
	}
	return words
}

func headerIndices(blocks []mdblock.Block, topLevelOnly bool) []int {
	var out []int
	for i, b := range blocks {
		if b.Kind != mdblock.KindHeader {
			continue
		}
		if topLevelOnly && b.Level() != 1 {
			continue
		}
		out = append(out, i)
	}
	return out
}
