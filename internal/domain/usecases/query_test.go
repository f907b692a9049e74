package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// mockLLM implements ports.LLMService for testing.
type mockLLM struct {
	response string
	err      error
	messages []entities.ChatMessage
	opts     ports.ChatOptions
}

func (m *mockLLM) Chat(ctx context.Context, messages []entities.ChatMessage, opts ports.ChatOptions) (string, error) {
	m.messages = messages
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked answer", nil
}

func (m *mockLLM) ChatStream(ctx context.Context, messages []entities.ChatMessage, opts ports.ChatOptions) (<-chan ports.StreamToken, error) {
	m.messages = messages
	ch := make(chan ports.StreamToken, 2)
	ch <- ports.StreamToken{Content: m.response}
	ch <- ports.StreamToken{Done: true}
	close(ch)
	return ch, nil
}

type mockTranslator struct {
	err   error
	calls []string
}

func (m *mockTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	m.calls = append(m.calls, lang)
	if m.err != nil {
		return "", m.err
	}
	return "[" + lang + "] " + text, nil
}

type mockFiles struct{ path string }

func (m *mockFiles) Read(ctx context.Context, rel string) (*entities.ToolResult, error) {
	m.path = rel
	if rel == "missing.txt" {
		return nil, entities.ErrNotFound
	}
	return &entities.ToolResult{Tool: "filesystem.read", Target: rel, Content: "file body"}, nil
}

type mockFetcher struct{ url string }

func (m *mockFetcher) Get(ctx context.Context, url string) (*entities.ToolResult, error) {
	m.url = url
	return &entities.ToolResult{Tool: "fetch.get", Target: url, Status: 200, Content: "ok"}, nil
}

func sampleHits() []entities.SearchHit {
	return []entities.SearchHit{
		{Source: "guide.md", Content: "install with make", Score: 2},
		{Source: "faq.txt", Content: "run make test", Score: 1},
	}
}

func TestQueryUseCase_AskInjectsSnippets(t *testing.T) {
	store := &mockIndexStore{hits: sampleHits()}
	llm := &mockLLM{response: "Use make."}
	uc := NewQueryUseCase(store, llm, QueryConfig{})

	resp, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "how do I install it?", UseRAG: true})
	require.NoError(t, err)

	assert.Equal(t, "Use make.", resp.Answer)
	assert.Len(t, resp.Sources, 2)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, entities.RoleSystem, llm.messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, llm.messages[0].Content)
	assert.Equal(t, entities.RoleUser, llm.messages[1].Role)
	assert.Equal(t,
		"RAG_SNIPPETS:\nguide.md\ninstall with make\n---\nfaq.txt\nrun make test\n\nhow do I install it?",
		llm.messages[1].Content)

	assert.InDelta(t, 0.7, llm.opts.Temperature, 1e-6)
	assert.Equal(t, 512, llm.opts.MaxTokens)
}

func TestQueryUseCase_ZeroTemperature(t *testing.T) {
	llm := &mockLLM{response: "ok"}
	zero := float32(0)
	uc := NewQueryUseCase(&mockIndexStore{}, llm, QueryConfig{Temperature: &zero})

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "hi"})
	require.NoError(t, err)

	assert.Zero(t, llm.opts.Temperature)
}

func TestQueryUseCase_AskUsesChatTopK(t *testing.T) {
	var gotK int
	store := &mockIndexStore{searchFn: func(q string, k int) ([]entities.SearchHit, error) {
		gotK = k
		return nil, nil
	}}
	uc := NewQueryUseCase(store, &mockLLM{}, QueryConfig{})

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "a long enough question", UseRAG: true})
	require.NoError(t, err)
	assert.Equal(t, 4, gotK)
}

func TestQueryUseCase_ShortMessageSkipsRetrieval(t *testing.T) {
	store := &mockIndexStore{hits: sampleHits()}
	llm := &mockLLM{}
	uc := NewQueryUseCase(store, llm, QueryConfig{})

	resp, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "hello", UseRAG: true})
	require.NoError(t, err)

	assert.Empty(t, store.queries)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, "hello", llm.messages[1].Content)
}

func TestQueryUseCase_RAGDisabled(t *testing.T) {
	store := &mockIndexStore{hits: sampleHits()}
	uc := NewQueryUseCase(store, &mockLLM{}, QueryConfig{})

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "how do I install it?", UseRAG: false})
	require.NoError(t, err)
	assert.Empty(t, store.queries)
}

func TestQueryUseCase_NoHitsNoBlock(t *testing.T) {
	llm := &mockLLM{}
	uc := NewQueryUseCase(&mockIndexStore{}, llm, QueryConfig{})

	resp, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "nothing matches this", UseRAG: true})
	require.NoError(t, err)

	assert.Empty(t, resp.Sources)
	assert.NotContains(t, llm.messages[1].Content, "RAG_SNIPPETS")
}

func TestQueryUseCase_HistoryIsKept(t *testing.T) {
	llm := &mockLLM{}
	uc := NewQueryUseCase(&mockIndexStore{}, llm, QueryConfig{SystemPrompt: "be brief"})

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{
		Message: "and then?",
		History: []entities.ChatMessage{
			{Role: entities.RoleUser, Content: "previous Q"},
			{Role: entities.RoleAssistant, Content: "previous A"},
		},
	})
	require.NoError(t, err)

	require.Len(t, llm.messages, 4)
	assert.Equal(t, "be brief", llm.messages[0].Content)
	assert.Equal(t, "previous A", llm.messages[2].Content)
	assert.Equal(t, "and then?", llm.messages[3].Content)
}

func TestQueryUseCase_FilesystemDirective(t *testing.T) {
	files := &mockFiles{}
	llm := &mockLLM{}
	uc := NewQueryUseCase(&mockIndexStore{}, llm, QueryConfig{}, WithTools(files, &mockFetcher{}))

	resp, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "filesystem.read:  notes/a.md ", UseRAG: true})
	require.NoError(t, err)

	require.NotNil(t, resp.Tool)
	assert.Equal(t, "notes/a.md", files.path)
	assert.Equal(t, "file body", resp.Tool.Content)
	assert.Nil(t, llm.messages, "directives never reach the LLM")
}

func TestQueryUseCase_FetchDirective(t *testing.T) {
	fetcher := &mockFetcher{}
	uc := NewQueryUseCase(&mockIndexStore{}, &mockLLM{}, QueryConfig{}, WithTools(&mockFiles{}, fetcher))

	resp, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "fetch.get:http://localhost:9000/x"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/x", fetcher.url)
	assert.Equal(t, 200, resp.Tool.Status)
}

func TestQueryUseCase_DirectiveErrors(t *testing.T) {
	uc := NewQueryUseCase(&mockIndexStore{}, &mockLLM{}, QueryConfig{}, WithTools(&mockFiles{}, nil))

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "filesystem.read:missing.txt"})
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = uc.Ask(context.Background(), &entities.ChatRequest{Message: "fetch.get:http://localhost/"})
	assert.ErrorIs(t, err, entities.ErrToolUnavailable)
}

func TestQueryUseCase_EmptyMessage(t *testing.T) {
	uc := NewQueryUseCase(&mockIndexStore{}, &mockLLM{}, QueryConfig{})

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, entities.ErrEmptyQuery)
}

func TestQueryUseCase_LLMError(t *testing.T) {
	uc := NewQueryUseCase(&mockIndexStore{}, &mockLLM{err: errors.New("connection refused")}, QueryConfig{})

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "what is this about?"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestQueryUseCase_StorageErrorPropagates(t *testing.T) {
	store := &mockIndexStore{searchFn: func(string, int) ([]entities.SearchHit, error) {
		return nil, &entities.StorageError{Op: "search", Err: errors.New("locked")}
	}}
	uc := NewQueryUseCase(store, &mockLLM{}, QueryConfig{})

	_, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "what is this about?", UseRAG: true})
	assert.True(t, entities.IsStorageError(err))
}

func TestQueryUseCase_Translation(t *testing.T) {
	store := &mockIndexStore{hits: sampleHits()}
	tr := &mockTranslator{}
	llm := &mockLLM{response: "answer"}
	uc := NewQueryUseCase(store, llm, QueryConfig{IndexLanguage: "English", UserLanguage: "Catalan"}, WithTranslator(tr))

	resp, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "com s'instal·la?", UseRAG: true})
	require.NoError(t, err)

	require.Len(t, store.queries, 1)
	assert.True(t, strings.HasPrefix(store.queries[0], "[English] "))
	assert.Equal(t, "[Catalan] answer", resp.Answer)
	assert.Equal(t, []string{"English", "Catalan"}, tr.calls)
}

func TestQueryUseCase_TranslationFailureFallsBack(t *testing.T) {
	store := &mockIndexStore{hits: sampleHits()}
	uc := NewQueryUseCase(store, &mockLLM{response: "answer"},
		QueryConfig{IndexLanguage: "English", UserLanguage: "Catalan"},
		WithTranslator(&mockTranslator{err: errors.New("model offline")}))

	resp, err := uc.Ask(context.Background(), &entities.ChatRequest{Message: "com s'instal·la?", UseRAG: true})
	require.NoError(t, err)

	assert.Equal(t, "com s'instal·la?", store.queries[0])
	assert.Equal(t, "answer", resp.Answer)
}

func TestQueryUseCase_AskStream(t *testing.T) {
	store := &mockIndexStore{hits: sampleHits()}
	uc := NewQueryUseCase(store, &mockLLM{response: "streamed"}, QueryConfig{})

	resp, tokens, err := uc.AskStream(context.Background(), &entities.ChatRequest{Message: "how do I install it?", UseRAG: true})
	require.NoError(t, err)
	assert.Len(t, resp.Sources, 2)

	var sb strings.Builder
	for tok := range tokens {
		sb.WriteString(tok.Content)
	}
	assert.Equal(t, "streamed", sb.String())
}

func TestQueryUseCase_AskStreamDirective(t *testing.T) {
	uc := NewQueryUseCase(&mockIndexStore{}, &mockLLM{}, QueryConfig{}, WithTools(&mockFiles{}, nil))

	resp, tokens, err := uc.AskStream(context.Background(), &entities.ChatRequest{Message: "filesystem.read:a.txt"})
	require.NoError(t, err)
	assert.Nil(t, tokens)
	assert.NotNil(t, resp.Tool)
}

func TestQueryUseCase_Search(t *testing.T) {
	var gotK int
	store := &mockIndexStore{searchFn: func(q string, k int) ([]entities.SearchHit, error) {
		gotK = k
		return sampleHits(), nil
	}}
	uc := NewQueryUseCase(store, &mockLLM{}, QueryConfig{TopK: 3})

	results, err := uc.Search(context.Background(), "make", 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 3, gotK)

	_, err = uc.Search(context.Background(), " \t", 5)
	assert.ErrorIs(t, err, entities.ErrEmptyQuery)
}

func TestSnippetBlock(t *testing.T) {
	block := SnippetBlock([]entities.SearchHit{{Source: "a.txt", Content: "alpha"}})
	assert.Equal(t, "RAG_SNIPPETS:\na.txt\nalpha", block)
}
