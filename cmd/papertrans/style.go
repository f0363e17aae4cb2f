package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FAFFF")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FD75F")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	addStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
	delStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	hunkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AF87FF"))
)

// preview shortens s to one line of at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

// colorDiff highlights the lines of a unified diff.
func colorDiff(d string) string {
	lines := strings.SplitAfter(d, "\n")
	var sb strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(dimStyle.Render(body))
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(hunkStyle.Render(body))
		case strings.HasPrefix(line, "+"):
			sb.WriteString(addStyle.Render(body))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(delStyle.Render(body))
		default:
			sb.WriteString(body)
		}
		if strings.HasSuffix(line, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// markEdges highlights the broken start and end of an OCR paragraph: its
// first or last word.
func markEdges(content string, badStart, badEnd bool) string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return content
	}
	if badStart {
		words[0] = badStyle.Render(words[0])
	}
	if badEnd {
		words[len(words)-1] = badStyle.Render(words[len(words)-1])
	}
	return strings.Join(words, " ")
}
