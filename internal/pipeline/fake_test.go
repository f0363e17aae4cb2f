package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/papertrans/internal/llm"
)

// fakeModel answers each prompt kind deterministically:
//   - titles: every heading gets a "-zh" suffix
//   - relevel: every heading becomes depth 1
//   - references: every entry is prefixed with "zh "
//   - body: "ZH:" plus the text (bilingual) or each line prefixed (replace)
type fakeModel struct {
	mu    sync.Mutex
	calls map[string]int

	// failIf makes body translations containing the substring fail.
	failIf string
	// retryable errors returned before the first body translation succeeds.
	transient int
	// badLayout makes the first n replace-style replies add a heading.
	badLayout int
	// onBody runs on every body translation request.
	onBody func()
}

func newFakeModel() *fakeModel { return &fakeModel{calls: map[string]int{}} }

func (f *fakeModel) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeModel) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	first := req.Messages[0].Content
	last := req.Messages[len(req.Messages)-1].Content
	switch {
	case strings.Contains(first, "markdown document headings"):
		f.calls["titles"]++
		var out []string
		for _, line := range strings.Split(last, "\n") {
			if strings.HasPrefix(line, "#") {
				out = append(out, line+"-zh")
			}
		}
		return &llm.Response{Text: strings.Join(out, "\n")}, nil

	case strings.Contains(first, "Tidy up"):
		f.calls["relevel"]++
		var out []string
		for _, line := range strings.Split(last, "\n") {
			if strings.HasPrefix(line, "#") {
				out = append(out, "# "+strings.TrimLeft(line, "# "))
			}
		}
		return &llm.Response{Text: strings.Join(out, "\n")}, nil

	case strings.Contains(first, "bibliography entries"):
		f.calls["references"]++
		body := strings.TrimPrefix(last, "Translate these references:\n")
		var out []string
		for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
			out = append(out, "zh "+line)
		}
		return &llm.Response{Text: strings.Join(out, "\n")}, nil
	}

	f.calls["body"]++
	if f.onBody != nil {
		f.onBody()
	}
	if f.transient > 0 {
		f.transient--
		return nil, &llm.RetryableError{StatusCode: 429, Message: "slow down"}
	}
	if f.failIf != "" && strings.Contains(last, f.failIf) {
		return nil, io.ErrUnexpectedEOF
	}
	if strings.Contains(first, "Output only the translation") {
		var out []string
		for _, line := range strings.Split(strings.TrimRight(last, "\n"), "\n") {
			out = append(out, "译"+line)
		}
		if f.badLayout > 0 {
			f.badLayout--
			out = append(out, "# stray heading")
		}
		return &llm.Response{Text: strings.Join(out, "\n")}, nil
	}
	return &llm.Response{Text: "ZH:" + strings.TrimSpace(last)}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noBackoff(int) time.Duration { return 0 }

func testEngine(m *fakeModel, opts EngineOptions) *Engine {
	opts.Backoff = noBackoff
	tr := llm.NewTranslator(m, llm.TranslatorOptions{})
	return NewEngine(tr, discardLogger(), opts)
}
