package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// Defaults for an OpenAI-compatible server such as llama.cpp.
const (
	DefaultOpenAIBaseURL = "http://localhost:8080"
	DefaultOpenAIModel   = "local"
	DefaultTimeout       = 120 * time.Second
)

var _ ports.LLMService = (*OpenAIAdapter)(nil)

// OpenAIConfig holds configuration for the OpenAI-compatible adapter.
type OpenAIConfig struct {
	// BaseURL is the server root. "/v1" is appended when missing.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIAdapter implements ports.LLMService against /v1/chat/completions.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenAIAdapter creates a new adapter.
func NewOpenAIAdapter(cfg OpenAIConfig) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = apiBase(cfg.BaseURL)
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func apiBase(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func (a *OpenAIAdapter) request(messages []entities.ChatMessage, opts ports.ChatOptions) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	temperature := opts.Temperature
	if temperature == 0 {
		// go-openai omits a zero temperature; the server would apply its own default.
		temperature = math.SmallestNonzeroFloat32
	}
	return openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   opts.MaxTokens,
	}
}

// Chat returns the full completion.
func (a *OpenAIAdapter) Chat(ctx context.Context, messages []entities.ChatMessage, opts ports.ChatOptions) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, a.request(messages, opts))
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completions returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatStream streams the completion token by token.
func (a *OpenAIAdapter) ChatStream(ctx context.Context, messages []entities.ChatMessage, opts ports.ChatOptions) (<-chan ports.StreamToken, error) {
	stream, err := a.client.CreateChatCompletionStream(ctx, a.request(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("opening chat completions stream: %w", err)
	}

	ch := make(chan ports.StreamToken, 100)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				ch <- ports.StreamToken{Done: true}
				return
			}
			if err != nil {
				ch <- ports.StreamToken{Done: true, Error: err}
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case ch <- ports.StreamToken{Content: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
