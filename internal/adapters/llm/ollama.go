// Package llm provides LLM adapters implementing ports.LLMService:
// an OpenAI-compatible client (llama.cpp, vLLM, LM Studio) and a native Ollama client.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

var _ ports.LLMService = (*OllamaAdapter)(nil)

// OllamaAdapter implements ports.LLMService using the Ollama chat API.
type OllamaAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaAdapter creates a new Ollama adapter.
func NewOllamaAdapter(baseURL, model string) *OllamaAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatRequest is the /api/chat request.
type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []entities.ChatMessage `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  ollamaOptions          `json:"options"`
}

// ollamaChatResponse is one /api/chat response line.
type ollamaChatResponse struct {
	Message entities.ChatMessage `json:"message"`
	Done    bool                 `json:"done"`
	Error   string               `json:"error,omitempty"`
}

func (a *OllamaAdapter) post(ctx context.Context, messages []entities.ChatMessage, opts ports.ChatOptions, stream bool) (*http.Response, error) {
	jsonData, err := json.Marshal(ollamaChatRequest{
		Model:    a.model,
		Messages: messages,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// Chat returns the full assistant reply.
func (a *OllamaAdapter) Chat(ctx context.Context, messages []entities.ChatMessage, opts ports.ChatOptions) (string, error) {
	resp, err := a.post(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("ollama: %s", chatResp.Error)
	}
	return chatResp.Message.Content, nil
}

// ChatStream streams the reply. Ollama sends one JSON object per line.
func (a *OllamaAdapter) ChatStream(ctx context.Context, messages []entities.ChatMessage, opts ports.ChatOptions) (<-chan ports.StreamToken, error) {
	resp, err := a.post(ctx, messages, opts, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamToken, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				ch <- ports.StreamToken{Done: true, Error: ctx.Err()}
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue // Skip malformed lines
			}
			if chunk.Error != "" {
				ch <- ports.StreamToken{Done: true, Error: fmt.Errorf("ollama: %s", chunk.Error)}
				return
			}

			ch <- ports.StreamToken{
				Content: chunk.Message.Content,
				Done:    chunk.Done,
			}

			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- ports.StreamToken{Done: true, Error: err}
		}
	}()

	return ch, nil
}
