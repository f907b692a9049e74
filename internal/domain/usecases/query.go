// Package usecases - query.go handles search and chat response generation.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// Tool directive prefixes recognized at the start of a chat message.
const (
	DirectiveFilesystemRead = "filesystem.read:"
	DirectiveFetchGet       = "fetch.get:"
)

// DefaultTemperature is the sampling temperature when none is configured.
const DefaultTemperature float32 = 0.7

// DefaultSystemPrompt is sent as the first message of every chat.
const DefaultSystemPrompt = "You are a concise assistant. If the user asks for document-based answers, " +
	"you may call RAG to retrieve snippets."

// QueryConfig tunes search and chat behaviour.
type QueryConfig struct {
	TopK           int // Default k for Search
	ChatTopK       int // Fragments injected into a chat turn
	MinQueryLength int // Shorter chat messages skip retrieval
	SystemPrompt   string
	Temperature    *float32 // nil uses DefaultTemperature; 0 is honoured
	MaxTokens      int

	// Optional translation around search. Empty disables each direction.
	IndexLanguage string
	UserLanguage  string
}

func (c *QueryConfig) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.ChatTopK <= 0 {
		c.ChatTopK = 4
	}
	if c.MinQueryLength <= 0 {
		c.MinQueryLength = 8
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 512
	}
}

// QueryOption configures optional collaborators of a QueryUseCase.
type QueryOption func(*QueryUseCase)

// WithTools enables the filesystem.read and fetch.get directives.
func WithTools(files ports.FileReader, fetcher ports.Fetcher) QueryOption {
	return func(uc *QueryUseCase) {
		uc.files = files
		uc.fetcher = fetcher
	}
}

// WithTranslator enables translation around search.
func WithTranslator(t ports.Translator) QueryOption {
	return func(uc *QueryUseCase) { uc.translator = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) QueryOption {
	return func(uc *QueryUseCase) {
		if l != nil {
			uc.logger = l
		}
	}
}

// QueryUseCase handles search and response generation.
type QueryUseCase struct {
	store      ports.IndexStore
	llm        ports.LLMService
	translator ports.Translator
	files      ports.FileReader
	fetcher    ports.Fetcher
	cfg        QueryConfig
	logger     *zap.Logger
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(store ports.IndexStore, llm ports.LLMService, cfg QueryConfig, opts ...QueryOption) *QueryUseCase {
	cfg.applyDefaults()
	uc := &QueryUseCase{
		store:  store,
		llm:    llm,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Search only retrieves relevant fragments without LLM generation.
// k <= 0 uses the configured default.
func (uc *QueryUseCase) Search(ctx context.Context, query string, k int) ([]entities.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, entities.ErrEmptyQuery
	}
	if k <= 0 {
		k = uc.cfg.TopK
	}
	return uc.store.Search(ctx, query, k)
}

// Ask answers one chat message.
// Tool directives are executed directly and never reach the LLM.
func (uc *QueryUseCase) Ask(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	turn, err := uc.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if turn.resp.Tool != nil {
		return turn.resp, nil
	}

	answer, err := uc.llm.Chat(ctx, turn.messages, uc.chatOptions())
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}
	turn.resp.Answer = uc.toUserLanguage(ctx, answer)
	return turn.resp, nil
}

// AskStream is Ask with a streamed answer. Retrieval happens before the
// stream opens, so the returned response already carries the sources.
// For tool directives the channel is nil and the response carries the result.
func (uc *QueryUseCase) AskStream(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, <-chan ports.StreamToken, error) {
	turn, err := uc.prepare(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if turn.resp.Tool != nil {
		return turn.resp, nil, nil
	}

	tokens, err := uc.llm.ChatStream(ctx, turn.messages, uc.chatOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("starting response stream: %w", err)
	}
	return turn.resp, tokens, nil
}

type chatTurn struct {
	messages []entities.ChatMessage
	resp     *entities.ChatResponse
}

func (uc *QueryUseCase) prepare(ctx context.Context, req *entities.ChatRequest) (*chatTurn, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, entities.ErrEmptyQuery
	}

	if tool, ok, err := uc.runDirective(ctx, msg); ok {
		if err != nil {
			return nil, err
		}
		return &chatTurn{resp: &entities.ChatResponse{Tool: tool}}, nil
	}

	resp := &entities.ChatResponse{}
	var blocks []string
	if req.UseRAG && utf8.RuneCountInString(msg) >= uc.cfg.MinQueryLength {
		hits, err := uc.store.Search(ctx, uc.toIndexLanguage(ctx, msg), uc.cfg.ChatTopK)
		if err != nil {
			return nil, fmt.Errorf("searching index: %w", err)
		}
		if len(hits) > 0 {
			resp.Sources = hits
			blocks = append(blocks, SnippetBlock(hits))
		}
	}

	messages := make([]entities.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, entities.ChatMessage{Role: entities.RoleSystem, Content: uc.cfg.SystemPrompt})
	messages = append(messages, req.History...)
	messages = append(messages, entities.ChatMessage{
		Role:    entities.RoleUser,
		Content: strings.Join(append(blocks, msg), "\n\n"),
	})

	return &chatTurn{messages: messages, resp: resp}, nil
}

// runDirective executes a tool directive. ok is false when msg is not one.
func (uc *QueryUseCase) runDirective(ctx context.Context, msg string) (result *entities.ToolResult, ok bool, err error) {
	if rest, found := strings.CutPrefix(msg, DirectiveFilesystemRead); found {
		if uc.files == nil {
			return nil, true, fmt.Errorf("%w: filesystem.read", entities.ErrToolUnavailable)
		}
		result, err = uc.files.Read(ctx, strings.TrimSpace(rest))
		return result, true, err
	}
	if rest, found := strings.CutPrefix(msg, DirectiveFetchGet); found {
		if uc.fetcher == nil {
			return nil, true, fmt.Errorf("%w: fetch.get", entities.ErrToolUnavailable)
		}
		result, err = uc.fetcher.Get(ctx, strings.TrimSpace(rest))
		return result, true, err
	}
	return nil, false, nil
}

// SnippetBlock formats search hits as the context block handed to the LLM.
func SnippetBlock(hits []entities.SearchHit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Source + "\n" + h.Content
	}
	return "RAG_SNIPPETS:\n" + strings.Join(parts, "\n---\n")
}

func (uc *QueryUseCase) chatOptions() ports.ChatOptions {
	return ports.ChatOptions{Temperature: *uc.cfg.Temperature, MaxTokens: uc.cfg.MaxTokens}
}

// toIndexLanguage translates the search text. Failures fall back to the original.
func (uc *QueryUseCase) toIndexLanguage(ctx context.Context, text string) string {
	return uc.translate(ctx, text, uc.cfg.IndexLanguage)
}

func (uc *QueryUseCase) toUserLanguage(ctx context.Context, text string) string {
	return uc.translate(ctx, text, uc.cfg.UserLanguage)
}

func (uc *QueryUseCase) translate(ctx context.Context, text, lang string) string {
	if uc.translator == nil || lang == "" {
		return text
	}
	out, err := uc.translator.Translate(ctx, text, lang)
	if err != nil {
		uc.logger.Warn("translation failed, using original text", zap.String("language", lang), zap.Error(err))
		return text
	}
	return out
}
