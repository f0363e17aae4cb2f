package mdblock

import (
	"fmt"
	"strings"

	diff "github.com/shogoki/gotextdiff"
)

// CheckOptions controls the structural comparison.
type CheckOptions struct {
	// SkipYAML drops yaml blocks from both sequences before comparing.
	SkipYAML bool
}

// Mismatch describes the first position where two block sequences differ
// structurally. Line numbers are 1-based, 0 when the block could not be
// located or does not exist.
type Mismatch struct {
	Index         int  `json:"mismatch_index"`
	ReferenceLine int  `json:"reference_line"`
	CandidateLine int  `json:"candidate_line"`
	ReferenceKind Kind `json:"reference_kind"`
	CandidateKind Kind `json:"candidate_kind"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("block %d: reference %s (line %d) vs candidate %s (line %d)",
		m.Index, m.ReferenceKind, m.ReferenceLine, m.CandidateKind, m.CandidateLine)
}

// Report is the result of Check.
type Report struct {
	OK              bool      `json:"ok"`
	ReferenceBlocks int       `json:"reference_blocks"`
	CandidateBlocks int       `json:"candidate_blocks"`
	Mismatch        *Mismatch `json:"mismatch,omitempty"`
}

// Check compares two block sequences by kind and count. Content is never
// compared. refLines and candLines are the source lines the sequences were
// tokenized from and are only used to resolve line numbers.
func Check(ref, cand []Block, refLines, candLines []string, opts CheckOptions) Report {
	if opts.SkipYAML {
		ref = withoutKind(ref, KindYAML)
		cand = withoutKind(cand, KindYAML)
	}
	rep := Report{OK: true, ReferenceBlocks: len(ref), CandidateBlocks: len(cand)}

	idx := -1
	n := min(len(ref), len(cand))
	for i := range n {
		if ref[i].Kind != cand[i].Kind {
			idx = i
			break
		}
	}
	if idx < 0 && len(ref) != len(cand) {
		idx = n
	}
	if idx < 0 {
		return rep
	}

	refPos := LocateLines(refLines, ref)
	candPos := LocateLines(candLines, cand)
	m := &Mismatch{Index: idx}
	if idx < len(ref) {
		m.ReferenceKind = ref[idx].Kind
		m.ReferenceLine = refPos[idx]
	}
	if idx < len(cand) {
		m.CandidateKind = cand[idx].Kind
		m.CandidateLine = candPos[idx]
	}
	rep.OK = false
	rep.Mismatch = m
	return rep
}

// LocateLines returns the 1-based source line of each block's first line.
// After a match the cursor skips the block's own lines, so a line repeated
// inside an earlier block never resolves a later one.
func LocateLines(lines []string, blocks []Block) []int {
	pos := make([]int, len(blocks))
	cursor := 0
	for i, b := range blocks {
		first := stripTerminator(b.FirstLine())
		for j := cursor; j < len(lines); j++ {
			if stripTerminator(lines[j]) == first {
				pos[i] = j + 1
				cursor = j + max(len(SplitLines(b.Content)), 1)
				break
			}
		}
	}
	return pos
}

// KindDiff renders a unified diff of the two kind sequences, one kind per
// line. It returns "" when the sequences are identical.
func KindDiff(ref, cand []Block) string {
	a, b := kindListing(ref), kindListing(cand)
	if string(a) == string(b) {
		return ""
	}
	return string(diff.Diff("reference", a, "candidate", b))
}

func kindListing(blocks []Block) []byte {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Kind.String())
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

func withoutKind(blocks []Block, k Kind) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind != k {
			out = append(out, b)
		}
	}
	return out
}
