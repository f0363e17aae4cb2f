package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/papertrans/internal/headings"
)

// scriptedCompleter replays canned replies and records every request.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	reqs    []Request
}

func (s *scriptedCompleter) Complete(_ context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.reqs)
	s.reqs = append(s.reqs, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.replies) {
		return nil, errors.New("no scripted reply")
	}
	return &Response{Text: s.replies[i]}, nil
}

func TestParseStyle(t *testing.T) {
	for in, want := range map[string]Style{"": StyleBilingual, "Bilingual": StyleBilingual, " replace ": StyleReplace} {
		got, err := ParseStyle(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStyle("poetic")
	assert.Error(t, err)
}

func TestConversationSeed(t *testing.T) {
	tr := NewTranslator(&scriptedCompleter{}, TranslatorOptions{})
	msgs := tr.NewConversation(StyleBilingual).Messages("text")
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, DefaultLanguage)
	assert.Contains(t, msgs[0].Content, "sentence by sentence")
	assert.Equal(t, RoleUser, msgs[3].Role)

	msgs = tr.NewConversation(StyleReplace).Messages("text")
	require.Len(t, msgs, 2, "replace style has no worked example")
	assert.Contains(t, msgs[0].Content, "Output only the translation")

	fr := NewTranslator(&scriptedCompleter{}, TranslatorOptions{Language: "French"})
	assert.Len(t, fr.NewConversation(StyleBilingual).Messages("x"), 2)
}

func TestTranslateRecordsHistory(t *testing.T) {
	c := &scriptedCompleter{replies: []string{" one ", "two"}}
	tr := NewTranslator(c, TranslatorOptions{Language: "French"})
	conv := tr.NewConversation(StyleReplace)

	out, err := tr.Translate(context.Background(), conv, "first")
	require.NoError(t, err)
	assert.Equal(t, "one", out)
	_, err = tr.Translate(context.Background(), conv, "second")
	require.NoError(t, err)

	assert.Equal(t, 2, conv.Len())
	last := c.reqs[1].Messages
	require.Len(t, last, 4)
	assert.Equal(t, "first", last[1].Content)
	assert.Equal(t, "one", last[2].Content)
	assert.Equal(t, "second", last[3].Content)
}

func TestTranslateFailureLeavesHistory(t *testing.T) {
	c := &scriptedCompleter{errs: []error{&RetryableError{StatusCode: 429}}, replies: []string{"", "  "}}
	tr := NewTranslator(c, TranslatorOptions{})
	conv := tr.NewConversation(StyleBilingual)

	_, err := tr.Translate(context.Background(), conv, "x")
	var re *RetryableError
	assert.True(t, errors.As(err, &re))
	_, err = tr.Translate(context.Background(), conv, "x")
	assert.ErrorContains(t, err, "empty translation")
	assert.Zero(t, conv.Len())
}

func TestConversationMaxTurns(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"a", "b", "c"}}
	tr := NewTranslator(c, TranslatorOptions{Language: "German", MaxTurns: 1})
	conv := tr.NewConversation(StyleReplace)
	for _, s := range []string{"1", "2", "3"} {
		_, err := tr.Translate(context.Background(), conv, s)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, conv.Len())
	msgs := conv.Messages("4")
	require.Len(t, msgs, 4)
	assert.Equal(t, "3", msgs[1].Content)
	assert.Equal(t, "c", msgs[2].Content)
}

func TestTranslateTitles(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"```markdown\n# 引言\n## 方法\n```"}}
	tr := NewTranslator(c, TranslatorOptions{})
	got, err := tr.TranslateTitles(context.Background(), []string{"# Introduction", "## Method"})
	require.NoError(t, err)
	assert.Equal(t, []string{"# 引言", "## 方法"}, got)
	assert.True(t, headings.SameLevels([]string{"# Introduction", "## Method"}, got))
	assert.Contains(t, c.reqs[0].Messages[1].Content, "# Introduction\n## Method")
}

func TestRelevelImplementsLeveler(t *testing.T) {
	var _ headings.Leveler = (*Translator)(nil)

	c := &scriptedCompleter{replies: []string{"Here you go:\n# Title\n# 1 Intro\n## 1.1 Scope\n"}}
	tr := NewTranslator(c, TranslatorOptions{})
	got, err := tr.Relevel(context.Background(), []string{"# Title", "## 1 Intro", "### 1.1 Scope"})
	require.NoError(t, err)
	assert.Equal(t, []string{"# Title", "# 1 Intro", "## 1.1 Scope"}, got)
	assert.True(t, strings.HasSuffix(c.reqs[0].Messages[0].Content, "# Title\n## 1 Intro\n### 1.1 Scope"))
}

func TestTranslateReferences(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"[1] 张三. 论文.\n"}}
	tr := NewTranslator(c, TranslatorOptions{})
	got, err := tr.TranslateReferences(context.Background(), "[1] Zhang San. Paper.")
	require.NoError(t, err)
	assert.Equal(t, "[1] 张三. 论文.", got)
	assert.Equal(t, RoleSystem, c.reqs[0].Messages[0].Role)
}

func TestStripCodeBlock(t *testing.T) {
	assert.Equal(t, "# a", stripCodeBlock("```\n# a\n```"))
	assert.Equal(t, "# a", stripCodeBlock("```md\n# a\n```"))
	assert.Equal(t, "# a", stripCodeBlock("  # a \n"))
}
