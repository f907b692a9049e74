// Package mcp exposes search, ingestion and the document tools over the
// Model Context Protocol.
package mcp

import (
	"context"
	"errors"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// ErrMissingSearcher is returned when the search service is not provided.
var ErrMissingSearcher = errors.New("mcp: searcher is required")

// Searcher runs ranked lexical searches.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]entities.SearchHit, error)
}

// Ingester rebuilds the index.
type Ingester interface {
	IngestDirectory(ctx context.Context, dir string) (*entities.IngestReport, error)
}

// Ports aggregates the services the MCP server needs.
type Ports struct {
	Search  Searcher
	Ingest  Ingester // optional
	DocsDir string
	Files   ports.FileReader // optional
	Fetcher ports.Fetcher    // optional
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearcher
	}
	return nil
}
