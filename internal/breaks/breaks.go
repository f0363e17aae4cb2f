// Package breaks finds paragraphs whose boundaries look broken by OCR:
// paragraphs that start mid-sentence, end without terminal punctuation,
// or reference entries that do not start with a citation marker.
package breaks

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/papertrans/internal/mdblock"
)

const terminalPunct = `.!?;:"'`

// Issue is one suspicious paragraph.
type Issue struct {
	Line      int    `json:"line"`
	Content   string `json:"content"`
	BadStart  bool   `json:"bad_start,omitempty"`
	BadEnd    bool   `json:"bad_end,omitempty"`
	Reference bool   `json:"bad_reference,omitempty"`
}

// Check scans the body paragraphs up to the references heading, then the
// paragraphs directly following it. lines are the source lines of blocks
// and are used for line numbers only.
func Check(blocks []mdblock.Block, lines []string) []Issue {
	var (
		scanned []int
		refAt   = -1
	)
	for i, b := range blocks {
		if b.Kind == mdblock.KindParagraph || b.Kind == mdblock.KindFormula {
			scanned = append(scanned, i)
		}
		if isReferencesHeader(b) {
			refAt = i
			break
		}
	}

	pos := mdblock.LocateLines(lines, blocks)
	var issues []Issue
	for n, i := range scanned {
		b := blocks[i]
		if b.Kind != mdblock.KindParagraph {
			continue
		}
		content := strings.TrimSpace(b.Content)
		if content == "" {
			continue
		}
		badStart := !goodStart(content)
		badEnd := false
		if !goodEnd(content) {
			nextIsFormula := n+1 < len(scanned) && blocks[scanned[n+1]].Kind == mdblock.KindFormula
			badEnd = !nextIsFormula
		}
		if badStart || badEnd {
			issues = append(issues, Issue{Line: pos[i], Content: content, BadStart: badStart, BadEnd: badEnd})
		}
	}

	if refAt >= 0 {
		for i := refAt + 1; i < len(blocks) && blocks[i].Kind == mdblock.KindParagraph; i++ {
			content := strings.TrimSpace(blocks[i].Content)
			if content == "" {
				continue
			}
			r, _ := utf8.DecodeRuneInString(content)
			if r != '[' && !unicode.IsDigit(r) {
				issues = append(issues, Issue{Line: pos[i], Content: content, Reference: true})
			}
		}
	}
	return issues
}

func isReferencesHeader(b mdblock.Block) bool {
	return b.Kind == mdblock.KindHeader && strings.Contains(strings.ToLower(b.Content), "references")
}

func goodStart(content string) bool {
	r, _ := utf8.DecodeRuneInString(content)
	return unicode.IsUpper(r) || r == '-' || unicode.IsDigit(r) || r == '[' ||
		strings.HasPrefix(strings.ToLower(content), "where")
}

func goodEnd(content string) bool {
	r, _ := utf8.DecodeLastRuneInString(content)
	return strings.ContainsRune(terminalPunct, r)
}

// Render writes the markdown break report placed at the top of translated
// output.
func Render(w io.Writer, issues []Issue) error {
	var sb strings.Builder
	sb.WriteString("# Line-break check\n\n")
	if len(issues) == 0 {
		sb.WriteString("No abnormal line breaks found.\n")
	} else {
		sb.WriteString("Abnormal line breaks found:\n\n")
		for _, is := range issues {
			fmt.Fprintf(&sb, "- line %d: %s\n", is.Line, is.Content)
			if is.BadStart {
				sb.WriteString("  - bad start\n")
			}
			if is.BadEnd {
				sb.WriteString("  - bad end\n")
			}
			if is.Reference {
				sb.WriteString("  - bad reference format\n")
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
