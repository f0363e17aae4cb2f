package parser

import (
	"io"

	"github.com/dgallion1/papertrans/internal/doctree"
	"github.com/dgallion1/papertrans/internal/headings"
	"github.com/dgallion1/papertrans/internal/mdblock"
)

// MarkdownParser builds the section outline of a markdown paper from its
// blocks. Headings are reduced to plain text; every other block becomes
// section text. A leading yaml block supplies the title and is dropped.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	blocks := mdblock.Tokenize(lines, mdblock.Options{})

	tree := &doctree.DocTree{Title: stripExt(filename)}
	if meta, ok := ParseFrontMatter(blocks); ok {
		if meta.Title != "" {
			tree.Title = meta.Title
		}
		blocks = blocks[1:]
	}

	b := newTreeBuilder(tree.Title)
	for _, blk := range blocks {
		if blk.Kind == mdblock.KindHeader {
			b.heading(headings.Plain(blk.Content), blk.Level())
			continue
		}
		b.text(blk.Content)
	}
	tree.Children = b.finish()
	return tree, nil
}
