// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
)

// IndexStore persists fragments and answers ranked lexical queries.
type IndexStore interface {
	// Replace deletes every stored fragment and inserts the given ones as one unit.
	// Returns the number of fragments inserted.
	Replace(ctx context.Context, fragments []entities.Fragment) (int, error)

	// Search returns up to k fragments ordered by decreasing relevance.
	// The query is matched literally; an empty result is not an error.
	Search(ctx context.Context, query string, k int) ([]entities.SearchHit, error)

	// Count returns the number of stored fragments.
	Count(ctx context.Context) (int, error)
}

// DocumentSource enumerates and reads eligible documents under a root directory.
type DocumentSource interface {
	// List returns eligible files under root in a stable order, plus the
	// entries that could not be inspected (unreadable directories, dangling links).
	// Returns entities.ErrDirectoryNotFound when root does not exist.
	List(ctx context.Context, root string) ([]string, []entities.FileError, error)

	// Load reads one file. The document Source is relative to root.
	Load(ctx context.Context, root, path string) (*entities.Document, error)
}

// ChatOptions tunes one completion call.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
}

// LLMService generates chat completions from a language model.
type LLMService interface {
	// Chat returns the full assistant reply.
	Chat(ctx context.Context, messages []entities.ChatMessage, opts ChatOptions) (string, error)

	// ChatStream returns the reply token by token.
	ChatStream(ctx context.Context, messages []entities.ChatMessage, opts ChatOptions) (<-chan StreamToken, error)
}

// StreamToken represents a single token in a streaming LLM response.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// Translator converts text between languages around search.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// FileReader reads documents below the documents root for the filesystem tool.
type FileReader interface {
	Read(ctx context.Context, relPath string) (*entities.ToolResult, error)
}

// Fetcher performs restricted HTTP GETs for the fetch tool.
type Fetcher interface {
	Get(ctx context.Context, url string) (*entities.ToolResult, error)
}

// FileWatcher monitors a directory tree for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
	FileRenamed
)
