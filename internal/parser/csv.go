package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/papertrans/internal/doctree"
)

// CSVParser renders CSV files as a single markdown table.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: stripExt(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}

	var text strings.Builder
	writeRow(&text, records[0], width)
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&text, sep, width)
	for _, rec := range records[1:] {
		writeRow(&text, rec, width)
	}

	tree.Children = []*doctree.DocNode{{Text: strings.TrimSuffix(text.String(), "\n")}}
	return tree, nil
}

func writeRow(sb *strings.Builder, cells []string, width int) {
	sb.WriteString("|")
	for i := range width {
		cell := ""
		if i < len(cells) {
			cell = strings.ReplaceAll(strings.Join(strings.Fields(cells[i]), " "), "|", `\|`)
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteByte('\n')
}
