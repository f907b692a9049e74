package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

var hello = []entities.ChatMessage{{Role: entities.RoleUser, Content: "Hi"}}

func TestOllamaAdapter_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Stream {
			t.Error("Chat should not request streaming")
		}
		if req.Options.NumPredict != 64 {
			t.Errorf("expected num_predict 64, got %d", req.Options.NumPredict)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "Hello there!"},
			"done":    true,
		})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "test-model")
	resp, err := adapter.Chat(context.Background(), hello, ports.ChatOptions{MaxTokens: 64})

	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if resp != "Hello there!" {
		t.Errorf("unexpected response: %s", resp)
	}
}

func TestOllamaAdapter_ZeroTemperatureIsSent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			Options map[string]any `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if v, ok := raw.Options["temperature"]; !ok || v != float64(0) {
			t.Errorf("expected temperature 0 in options, got %v", raw.Options)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "ok"},
			"done":    true,
		})
	}))
	defer server.Close()

	if _, err := NewOllamaAdapter(server.URL, "test-model").Chat(context.Background(), hello, ports.ChatOptions{}); err != nil {
		t.Fatalf("chat failed: %v", err)
	}
}

func TestOllamaAdapter_ChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Streaming response - newline delimited JSON
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hello"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":" world"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":"!"},"done":true}` + "\n"))
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "test")
	ch, err := adapter.ChatStream(context.Background(), hello, ports.ChatOptions{})

	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	var text string
	for token := range ch {
		text += token.Content
		if token.Done {
			break
		}
	}

	if text != "Hello world!" {
		t.Errorf("unexpected streamed text: %q", text)
	}
}

func TestOllamaAdapter_StreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"model not found"}` + "\n"))
	}))
	defer server.Close()

	ch, err := NewOllamaAdapter(server.URL, "missing").ChatStream(context.Background(), hello, ports.ChatOptions{})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	tok := <-ch
	if tok.Error == nil {
		t.Error("expected error token")
	}
}

func TestOllamaAdapter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "test")
	_, err := adapter.Chat(context.Background(), hello, ports.ChatOptions{})

	if err == nil {
		t.Error("should error on 404")
	}
}

func TestOllamaAdapter_DefaultValues(t *testing.T) {
	adapter := NewOllamaAdapter("", "")
	if adapter.baseURL != "http://localhost:11434" {
		t.Error("should default to localhost")
	}
	if adapter.model != "llama3.2" {
		t.Error("should default to llama3.2")
	}
}
