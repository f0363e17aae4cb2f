package headings

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Plain returns the heading text of a header line with markers and inline
// markup removed. Lines that are not ATX headings for goldmark (e.g. "#Title")
// fall back to trimming the marker run.
func Plain(content string) string {
	src := []byte(strings.TrimSpace(content))
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var heading *ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			heading = h
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if heading == nil {
		return strings.TrimSpace(strings.TrimLeft(string(src), "#"))
	}

	var buf strings.Builder
	inlineText(heading, src, &buf)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func inlineText(n ast.Node, src []byte, buf *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
		case *ast.RawHTML:
		default:
			inlineText(c, src, buf)
		}
	}
}

// SafeName turns a title into a file-name fragment of at most limit runes.
func SafeName(title string, limit int) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return '_'
		}
		return r
	}, title)
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	if r := []rune(name); limit > 0 && len(r) > limit {
		name = string(r[:limit])
	}
	return name
}
