package parser

import (
	"strings"

	"github.com/dgallion1/papertrans/internal/doctree"
)

// treeBuilder nests sections by heading level as headings and text arrive
// in document order.
type treeBuilder struct {
	root    *doctree.DocNode
	stack   []stackEntry
	pending []string
}

type stackEntry struct {
	node  *doctree.DocNode
	level int
}

func newTreeBuilder(title string) *treeBuilder {
	root := &doctree.DocNode{Title: title}
	return &treeBuilder{root: root, stack: []stackEntry{{node: root, level: 0}}}
}

func (b *treeBuilder) flush() {
	if len(b.pending) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1].node
	t := strings.Join(b.pending, "\n\n")
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
	b.pending = b.pending[:0]
}

func (b *treeBuilder) heading(title string, level int) {
	if title == "" {
		return
	}
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, stackEntry{node: node, level: level})
}

func (b *treeBuilder) text(t string) {
	if t = strings.TrimSpace(t); t != "" {
		b.pending = append(b.pending, t)
	}
}

// finish returns the top-level nodes. Text seen before the first heading
// becomes an untitled leading node.
func (b *treeBuilder) finish() []*doctree.DocNode {
	b.flush()
	children := b.root.Children
	if b.root.Text != "" {
		children = append([]*doctree.DocNode{{Text: b.root.Text}}, children...)
	}
	return children
}
