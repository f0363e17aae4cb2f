// Package headings restructures the heading hierarchy of OCR'd papers.
//
// OCR output frequently flattens or skews heading depths so that a paper
// has a single top-level title and every section nested below it. Papers
// are processed section by section, so the hierarchy is first re-levelled
// by an external Leveler until more than one depth-1 heading exists.
package headings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/papertrans/internal/mdblock"
)

var (
	ErrTitleCountMismatch = errors.New("title count mismatch")
	ErrTooFewTopLevel     = errors.New("fewer than two top-level titles")
)

// Leveler proposes a re-levelled version of a document's heading lines,
// one output title per input title in the same order.
type Leveler interface {
	Relevel(ctx context.Context, titles []string) ([]string, error)
}

// Options controls Restructure.
type Options struct {
	Attempts     int  // Leveler calls before giving up (default 3).
	StripNumbers bool // Remove section numbers from the resulting titles.
}

// TopLevelCount returns the number of depth-1 header blocks.
func TopLevelCount(blocks []mdblock.Block) int {
	n := 0
	for _, b := range blocks {
		if b.Level() == 1 {
			n++
		}
	}
	return n
}

// NeedsRelevel reports whether the document lacks a usable top-level
// structure.
func NeedsRelevel(blocks []mdblock.Block) bool {
	return TopLevelCount(blocks) <= 1
}

// Titles returns the header block contents without line terminators.
func Titles(blocks []mdblock.Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Kind == mdblock.KindHeader {
			out = append(out, strings.TrimRight(b.Content, "\r\n"))
		}
	}
	return out
}

// ParseTitles extracts heading lines from a free-form model response.
func ParseTitles(response string) []string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out
}

// SameLevels reports whether two title lists have equal length and equal
// heading depth at every position.
func SameLevels(orig, cand []string) bool {
	if len(orig) != len(cand) {
		return false
	}
	for i := range orig {
		if mdblock.HeadingLevel(orig[i]) != mdblock.HeadingLevel(cand[i]) {
			return false
		}
	}
	return true
}

// Validate checks a proposed re-levelling against the original titles.
func Validate(orig, proposed []string) error {
	if len(orig) != len(proposed) {
		return fmt.Errorf("%w: have %d, proposed %d", ErrTitleCountMismatch, len(orig), len(proposed))
	}
	top := 0
	for _, t := range proposed {
		if mdblock.HeadingLevel(t) == 1 {
			top++
		}
	}
	if top <= 1 {
		return fmt.Errorf("%w: got %d", ErrTooFewTopLevel, top)
	}
	return nil
}

// Replace substitutes header blocks positionally with titles, keeping each
// block's line terminator. Non-header blocks are returned unchanged.
func Replace(blocks []mdblock.Block, titles []string) ([]mdblock.Block, error) {
	if n := mdblock.CountKind(blocks, mdblock.KindHeader); n != len(titles) {
		return nil, fmt.Errorf("%w: %d headers, %d titles", ErrTitleCountMismatch, n, len(titles))
	}
	out := make([]mdblock.Block, len(blocks))
	next := 0
	for i, b := range blocks {
		if b.Kind == mdblock.KindHeader {
			b.Content = strings.TrimRight(titles[next], "\r\n") + terminator(b.Content)
			next++
		}
		out[i] = b
	}
	return out, nil
}

// StripNumbering removes leading section numbers ("2.1 ", "3. ") from
// header text.
func StripNumbering(blocks []mdblock.Block) []mdblock.Block {
	out := make([]mdblock.Block, len(blocks))
	for i, b := range blocks {
		if b.Kind == mdblock.KindHeader {
			body := strings.TrimRight(b.Content, "\r\n")
			if prefix, rest, ok := strings.Cut(body, " "); ok {
				b.Content = prefix + " " + strings.TrimLeft(rest, "0123456789. ") + terminator(b.Content)
			}
		}
		out[i] = b
	}
	return out
}

// Restructure asks lv to re-level the document's headings until the
// proposal keeps every title and yields more than one top-level title.
func Restructure(ctx context.Context, blocks []mdblock.Block, lv Leveler, opts Options) ([]mdblock.Block, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	titles := Titles(blocks)
	if len(titles) == 0 {
		return blocks, nil
	}

	var lastErr error
	for range opts.Attempts {
		proposed, err := lv.Relevel(ctx, titles)
		if err == nil {
			err = Validate(titles, proposed)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		out, err := Replace(blocks, proposed)
		if err != nil {
			return nil, err
		}
		if opts.StripNumbers {
			out = StripNumbering(out)
		}
		return out, nil
	}
	return nil, fmt.Errorf("relevel headings after %d attempts: %w", opts.Attempts, lastErr)
}

func terminator(s string) string {
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(s, "\n"):
		return "\n"
	}
	return ""
}
