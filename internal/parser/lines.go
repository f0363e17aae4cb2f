package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"
)

// ReadLines reads r into lines that keep their terminators.
func ReadLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// unwrap joins the hard-wrapped lines of one paragraph into a single line,
// merging words hyphenated across a line break.
func unwrap(para string) string {
	var out string
	for _, line := range strings.Split(para, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case out == "":
			out = line
		case strings.HasSuffix(out, "-") && unicode.IsLower([]rune(line)[0]):
			out = strings.TrimSuffix(out, "-") + line
		default:
			out += " " + line
		}
	}
	return out
}
