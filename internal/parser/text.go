package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/papertrans/internal/doctree"
)

// TextParser handles plain text, typically OCR output with hard-wrapped
// lines. Each blank-line separated paragraph is unwrapped to one line.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, unwrap(current.String()))
			current.Reset()
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{Title: stripExt(filename)}
	for _, para := range paragraphs {
		tree.Children = append(tree.Children, &doctree.DocNode{Text: para})
	}
	return tree, nil
}
