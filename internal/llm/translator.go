package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/papertrans/internal/chunker"
	"github.com/dgallion1/papertrans/internal/headings"
)

// Translator wraps a Completer with the prompts used for academic papers.
type Translator struct {
	c        Completer
	lang     string
	maxTurns int
}

// TranslatorOptions configures a Translator.
type TranslatorOptions struct {
	Language string // target language, DefaultLanguage when empty
	// MaxTurns bounds the exchanges a Conversation keeps besides its seed.
	// Zero keeps all of them.
	MaxTurns int
}

func NewTranslator(c Completer, opts TranslatorOptions) *Translator {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	return &Translator{c: c, lang: opts.Language, maxTurns: opts.MaxTurns}
}

func (t *Translator) Language() string { return t.lang }

// Conversation is the running chat history of one translation unit.
// Earlier batches give later ones context for terminology.
type Conversation struct {
	seed     []Message
	turns    []Message
	maxTurns int
}

// NewConversation starts a history with the system prompt for style, plus
// a worked example when translating bilingually into the default language.
func (t *Translator) NewConversation(style Style) *Conversation {
	seed := []Message{{Role: RoleSystem, Content: SystemPrompt(t.lang, style)}}
	if style == StyleBilingual && t.lang == DefaultLanguage {
		seed = append(seed, fewShot...)
	}
	return &Conversation{seed: seed, maxTurns: t.maxTurns}
}

// Messages returns the full history including a pending user message.
func (c *Conversation) Messages(pending string) []Message {
	out := make([]Message, 0, len(c.seed)+len(c.turns)+1)
	out = append(out, c.seed...)
	out = append(out, c.turns...)
	return append(out, Message{Role: RoleUser, Content: pending})
}

// Len is the number of recorded exchanges.
func (c *Conversation) Len() int { return len(c.turns) / 2 }

func (c *Conversation) record(user, assistant string) {
	c.turns = append(c.turns,
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAssistant, Content: assistant},
	)
	if c.maxTurns > 0 && len(c.turns) > 2*c.maxTurns {
		c.turns = c.turns[len(c.turns)-2*c.maxTurns:]
	}
}

// Undo drops the most recent exchange, used when a reply is rejected
// after the fact.
func (c *Conversation) Undo() {
	if len(c.turns) >= 2 {
		c.turns = c.turns[:len(c.turns)-2]
	}
}

// Translate sends text within conv and records the exchange on success.
func (t *Translator) Translate(ctx context.Context, conv *Conversation, text string) (string, error) {
	resp, err := t.c.Complete(ctx, Request{
		Messages:    conv.Messages(text),
		MaxTokens:   completionBudget(text, 4),
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp.Text)
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	conv.record(text, out)
	return out, nil
}

// TranslateTitles translates heading lines in one call and returns the
// heading lines of the reply. Callers validate levels with
// headings.SameLevels.
func (t *Translator) TranslateTitles(ctx context.Context, titles []string) ([]string, error) {
	text := strings.Join(titles, "\n")
	resp, err := t.c.Complete(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: fmt.Sprintf(titlePrompt, t.lang)},
			{Role: RoleUser, Content: "Translate these markdown headings:\n" + text},
		},
		MaxTokens:   completionBudget(text, 4),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}
	return headings.ParseTitles(stripCodeBlock(resp.Text)), nil
}

// Relevel implements headings.Leveler.
func (t *Translator) Relevel(ctx context.Context, titles []string) ([]string, error) {
	text := strings.Join(titles, "\n")
	resp, err := t.c.Complete(ctx, Request{
		Messages:    []Message{{Role: RoleUser, Content: relevelPrompt + text}},
		MaxTokens:   completionBudget(text, 2),
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}
	return headings.ParseTitles(stripCodeBlock(resp.Text)), nil
}

// TranslateReferences translates a batch of bibliography entries.
func (t *Translator) TranslateReferences(ctx context.Context, text string) (string, error) {
	resp, err := t.c.Complete(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: fmt.Sprintf(referencePrompt, t.lang)},
			{Role: RoleUser, Content: "Translate these references:\n" + text},
		},
		MaxTokens:   completionBudget(text, 3),
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// completionBudget sizes the completion limit from the request text. The
// client caps it at its configured maximum.
func completionBudget(text string, factor int) int {
	return max(chunker.EstimateTokens(text)*factor, 1024)
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:markdown|md)?\\s*(.*?)\\s*```$")

// stripCodeBlock removes a fence some models wrap markdown replies in.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
