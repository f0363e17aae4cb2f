package mdblock

import "strings"

// Options controls tokenization.
type Options struct {
	// KeepEmpty emits blank lines as empty_line blocks instead of
	// dropping them.
	KeepEmpty bool
}

// State is the scanner state threaded through Step. The zero value is the
// initial normal-mode state.
type State struct {
	Mode  Mode
	Lines []string
}

// Open reports whether a multi-line block is being accumulated.
func (s State) Open() bool { return s.Mode != ModeNormal }

func (s State) block() Block {
	return Block{Kind: s.Mode.Kind(), Content: strings.Join(s.Lines, "")}
}

// Scanner is the line-by-line block tokenizer.
type Scanner struct {
	opts Options
}

func NewScanner(opts Options) Scanner {
	return Scanner{opts: opts}
}

// Step consumes one line and returns the successor state along with any
// blocks completed by it. At most two blocks are returned: a table closed
// by line, followed by the block line itself produced. The accumulated
// lines of st may be reused by the returned state, so st must not be
// stepped again.
func (s Scanner) Step(st State, line string) (State, []Block) {
	switch st.Mode {
	case ModeNormal:
		return s.normal(line)
	case ModeTable:
		if !closes(ModeTable, line) {
			st.Lines = append(st.Lines, line)
			return st, nil
		}
		table := st.block()
		next, out := s.normal(line)
		return next, append([]Block{table}, out...)
	default:
		st.Lines = append(st.Lines, line)
		if closes(st.Mode, line) {
			return State{}, []Block{st.block()}
		}
		return st, nil
	}
}

func (s Scanner) normal(line string) (State, []Block) {
	r := Classify(line)
	if r.Opens != ModeNormal {
		return State{Mode: r.Opens, Lines: []string{line}}, nil
	}
	if r.Kind == KindEmptyLine && !s.opts.KeepEmpty {
		return State{}, nil
	}
	return State{}, []Block{{Kind: r.Kind, Content: line}}
}

// Flush emits whatever an unterminated block has accumulated at end of
// input.
func (s Scanner) Flush(st State) []Block {
	if !st.Open() || len(st.Lines) == 0 {
		return nil
	}
	return []Block{st.block()}
}

// Tokenize splits lines into blocks in document order.
func Tokenize(lines []string, opts Options) []Block {
	sc := NewScanner(opts)
	var (
		st     State
		blocks []Block
		out    []Block
	)
	for _, line := range lines {
		st, out = sc.Step(st, line)
		blocks = append(blocks, out...)
	}
	return append(blocks, sc.Flush(st)...)
}

// TokenizeString splits text into lines and tokenizes them.
func TokenizeString(text string, opts Options) []Block {
	return Tokenize(SplitLines(text), opts)
}

// SplitLines splits text after every '\n', keeping terminators. A final
// fragment without terminator is kept as its own line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
