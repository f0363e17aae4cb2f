package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/papertrans/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Heading styles become sections and the
// "Title" style becomes the document title.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "papertrans-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	tree := &doctree.DocTree{Title: stripExt(filename)}
	b := newTreeBuilder(tree.Title)

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		style := docxStyle(para)
		switch {
		case strings.EqualFold(style, "Title"):
			tree.Title = text
		case docxHeadingLevel(style) > 0:
			b.heading(text, docxHeadingLevel(style))
		case strings.HasPrefix(strings.ToLower(style), "list"):
			b.text("- " + text)
		default:
			b.text(text)
		}
	}

	tree.Children = b.finish()
	return tree, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel understands both "Heading2" and "heading 2" style ids.
func docxHeadingLevel(style string) int {
	s := strings.ReplaceAll(strings.ToLower(style), " ", "")
	if !strings.HasPrefix(s, "heading") || len(s) != len("heading")+1 {
		return 0
	}
	if d := s[len(s)-1]; d >= '1' && d <= '6' {
		return int(d - '0')
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}
