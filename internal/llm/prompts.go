package llm

import (
	"fmt"
	"strings"
)

// Style selects how translated text is laid out.
type Style string

const (
	// StyleBilingual alternates each source sentence with its translation.
	StyleBilingual Style = "bilingual"
	// StyleReplace emits the translation only, keeping the block layout.
	StyleReplace Style = "replace"
)

// ParseStyle accepts "" as bilingual.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleBilingual:
		return StyleBilingual, nil
	case StyleReplace:
		return StyleReplace, nil
	}
	return "", fmt.Errorf("unknown translation style %q", s)
}

// DefaultLanguage is the translation target when none is configured.
const DefaultLanguage = "Simplified Chinese"

const translatePrompt = `You are a highly skilled translation engine specialised in academic papers. Translate academic text into %s, rendering complex concepts and technical terms accurately without changing the scholarly tone or adding explanations.
Notes:
- Keep the formatting of the source.
- Leave formulas, code blocks and links untranslated.
- Do not omit anything.
`

const bilingualRule = `
Give the translation sentence by sentence: one source sentence on its own line, followed by its translation on the next line.`

const replaceRule = `
Output only the translation. Keep every line break and blank line of the source so the block layout is unchanged.`

// SystemPrompt returns the translation system prompt for a target
// language and style.
func SystemPrompt(lang string, style Style) string {
	p := fmt.Sprintf(translatePrompt, lang)
	if style == StyleReplace {
		return p + replaceRule
	}
	return p + bilingualRule
}

const titlePrompt = `You translate markdown document headings into %s.
1. Keep the heading level (the number of #) of every heading unchanged.
2. Keep section numbers, if any, unchanged.
3. One heading per line.
4. Output only the translated headings, without any explanation.`

const relevelPrompt = `Tidy up the messy markdown heading hierarchy below:
- Re-level the whole document so the structure starts at level 1 (#).
- The paper title and the chapter headings are both level 1 (#).
- Subsections use ##, ### and so on by depth.
- Keep the existing section numbers, if any.
- Keep the heading text unchanged, only adjust the number of #.
- Output only the re-levelled markdown headings, without any explanation.

`

const referencePrompt = `You translate bibliography entries of academic papers into %s.
Notes:
- Keep the original layout, including line breaks, indentation and punctuation.
- Keep the original citation numbering.
- Output only the translation, without any explanation.`

// fewShot seeds bilingual conversations with a worked example. The example
// is only meaningful for the default target language.
var fewShot = []Message{
	{
		Role:    RoleUser,
		Content: "A microservice system in industry is usually a large-scale distributed system consisting of dozens to thousands of services running in different machines. An anomaly of the system often can be reflected in traces and logs, which record inter-service interactions and intra-service behaviors respectively.",
	},
	{
		Role: RoleAssistant,
		Content: "A microservice system in industry is usually a large-scale distributed system consisting of dozens to thousands of services running in different machines.\n" +
			"工业中的微服务系统通常是由数十到数千个服务在不同机器上运行的大规模分布式系统。\n" +
			"An anomaly of the system often can be reflected in traces and logs, which record inter-service interactions and intra-service behaviors respectively.\n" +
			"系统的异常通常可以在痕迹和日志中反映出来，分别记录服务间交互和服务内行为。",
	},
}
