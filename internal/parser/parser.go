package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/papertrans/internal/doctree"
	"github.com/dgallion1/papertrans/internal/mdblock"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tunes format-specific parsers.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsMarkdown reports whether filename is read as raw markdown lines.
func IsMarkdown(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}

// Document is a source file reduced to markdown lines.
type Document struct {
	Title string
	Lines []string
	Meta  FrontMatter
}

// Load reads a supported file as markdown lines. Markdown is taken
// verbatim; every other format is parsed into a DocTree and rendered.
func Load(r io.Reader, filename string, opts Options) (*Document, error) {
	if IsMarkdown(filename) {
		lines, err := ReadLines(r)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filename, err)
		}
		doc := &Document{Title: stripExt(filename), Lines: lines}
		if meta, ok := ParseFrontMatter(mdblock.Tokenize(lines, mdblock.Options{})); ok {
			doc.Meta = meta
			if meta.Title != "" {
				doc.Title = meta.Title
			}
		}
		return doc, nil
	}

	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	return &Document{Title: tree.Title, Lines: mdblock.SplitLines(tree.Markdown())}, nil
}

func stripExt(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
