package mdblock

import (
	"regexp"
	"strings"
)

// Mode is the scanner's multi-line accumulation state.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeCode
	ModeFormula
	ModeYAML
	ModeTable
)

func (m Mode) String() string {
	switch m {
	case ModeCode:
		return "code"
	case ModeFormula:
		return "formula"
	case ModeYAML:
		return "yaml"
	case ModeTable:
		return "table"
	}
	return "normal"
}

// Kind returns the kind of block a mode accumulates.
func (m Mode) Kind() Kind {
	switch m {
	case ModeCode:
		return KindCodeBlock
	case ModeFormula:
		return KindFormula
	case ModeYAML:
		return KindYAML
	case ModeTable:
		return KindMarkdownTable
	}
	return KindNone
}

var (
	formulaDelimRe  = regexp.MustCompile(`^\$\$\s*$`)
	yamlDelimRe     = regexp.MustCompile(`^---\s*$`)
	tableRowRe      = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	tableSepRe      = regexp.MustCompile(`^\s*\|[\s\-\|:]*\|\s*$`)
	standardLinkRe  = regexp.MustCompile(`^\s*!\[(.*?)\]\((.*?)\)\s*$`)
	wikiLinkRe      = regexp.MustCompile(`^\s*!\[\[(.*?)\]\]\s*$`)
	singleFormulaRe = regexp.MustCompile(`^\$\$.*\$\$$`)
	inlineFormulaRe = regexp.MustCompile(`^\s*\$\s*.*\s*\$\s*$`)
	htmlTableRe     = regexp.MustCompile(`^<table>.*</table>$`)
)

// Rule is one entry of the ordered line classification table. A rule whose
// Opens is not ModeNormal starts a multi-line block instead of emitting one.
type Rule struct {
	Name  string
	Kind  Kind
	Opens Mode
	Match func(line string) bool
}

// rules are evaluated first to last in normal mode; the final rule always
// matches.
var rules = []Rule{
	{Name: "code_fence", Kind: KindCodeBlock, Opens: ModeCode, Match: isCodeFence},
	{Name: "formula_delimiter", Kind: KindFormula, Opens: ModeFormula, Match: formulaDelimRe.MatchString},
	{Name: "yaml_delimiter", Kind: KindYAML, Opens: ModeYAML, Match: yamlDelimRe.MatchString},
	{Name: "markdown_table", Kind: KindMarkdownTable, Opens: ModeTable, Match: isTableLine},
	{Name: "header", Kind: KindHeader, Match: isHeader},
	{Name: "link", Kind: KindLink, Match: isLink},
	{Name: "single_line_formula", Kind: KindFormula, Match: singleFormulaRe.MatchString},
	{Name: "inline_formula", Kind: KindFormula, Match: inlineFormulaRe.MatchString},
	{Name: "html_table", Kind: KindTable, Match: htmlTableRe.MatchString},
	{Name: "empty_line", Kind: KindEmptyLine, Match: isBlank},
	{Name: "paragraph", Kind: KindParagraph, Match: func(string) bool { return true }},
}

// Rules returns a copy of the classification table in priority order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the first rule matching line in normal mode.
func Classify(line string) Rule {
	body := stripTerminator(line)
	for _, r := range rules {
		if r.Match(body) {
			return r
		}
	}
	return rules[len(rules)-1]
}

// closes reports whether line terminates an open block of mode m. For
// tables the terminating line is not part of the block.
func closes(m Mode, line string) bool {
	body := stripTerminator(line)
	switch m {
	case ModeCode:
		return isCodeFence(body)
	case ModeFormula:
		return formulaDelimRe.MatchString(body)
	case ModeYAML:
		return yamlDelimRe.MatchString(body)
	case ModeTable:
		return !isTableLine(body)
	}
	return true
}

func stripTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func isCodeFence(line string) bool { return strings.HasPrefix(line, "```") }

func isTableLine(line string) bool {
	return tableRowRe.MatchString(line) || tableSepRe.MatchString(line)
}

func isHeader(line string) bool { return strings.HasPrefix(line, "#") }

func isLink(line string) bool {
	return standardLinkRe.MatchString(line) || wikiLinkRe.MatchString(line)
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }
