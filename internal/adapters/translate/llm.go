// Package translate provides a ports.Translator backed by the chat model.
package translate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

var _ ports.Translator = (*LLMTranslator)(nil)

var promptTemplate = template.Must(template.New("translate").Parse(
	`Translate the following text into {{.Language}}.
Reply with the translation only, without quotes or explanations.

{{.Text}}`))

// LLMTranslator asks the configured LLM for translations.
type LLMTranslator struct {
	llm ports.LLMService
}

// NewLLMTranslator creates a translator.
func NewLLMTranslator(llm ports.LLMService) *LLMTranslator {
	return &LLMTranslator{llm: llm}
}

// Translate returns text in targetLanguage. Blank text is returned unchanged.
func (t *LLMTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" || targetLanguage == "" {
		return text, nil
	}

	var prompt bytes.Buffer
	if err := promptTemplate.Execute(&prompt, struct{ Language, Text string }{targetLanguage, text}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	out, err := t.llm.Chat(ctx, []entities.ChatMessage{
		{Role: entities.RoleUser, Content: prompt.String()},
	}, ports.ChatOptions{Temperature: 0.1, MaxTokens: 1024})
	if err != nil {
		return "", fmt.Errorf("translating to %s: %w", targetLanguage, err)
	}
	return strings.TrimSpace(out), nil
}
