package doctree

import "strings"

// DocTree is the root of a parsed non-markdown document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     `json:"title,omitempty"`    // Section heading (empty for leaf text)
	Text     string     `json:"text,omitempty"`     // Paragraphs separated by blank lines
	Page     int        `json:"page,omitempty"`     // Source page (0 if N/A)
	Children []*DocNode `json:"children,omitempty"` // Subsections
}

// Markdown renders the tree as markdown. Titled nodes become ATX headings
// whose depth follows nesting (capped at 6); text paragraphs are separated
// by blank lines.
func (t *DocTree) Markdown() string {
	var sb strings.Builder
	for _, n := range t.Children {
		renderNode(&sb, n, 1)
	}
	return sb.String()
}

func renderNode(sb *strings.Builder, n *DocNode, depth int) {
	childDepth := depth
	if n.Title != "" {
		sb.WriteString(strings.Repeat("#", min(depth, 6)))
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(strings.Fields(n.Title), " "))
		sb.WriteString("\n\n")
		childDepth = depth + 1
	}
	for _, para := range strings.Split(n.Text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sb.WriteString(para)
		sb.WriteString("\n\n")
	}
	for _, c := range n.Children {
		renderNode(sb, c, childDepth)
	}
}

// Headings returns every titled node depth-first with its depth.
func (t *DocTree) Headings() []Heading {
	var out []Heading
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			d := depth
			if n.Title != "" {
				out = append(out, Heading{Title: n.Title, Depth: depth})
				d = depth + 1
			}
			walk(n.Children, d)
		}
	}
	walk(t.Children, 1)
	return out
}

// Heading is a flattened outline entry.
type Heading struct {
	Title string `json:"title"`
	Depth int    `json:"depth"`
}
