package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to search for; matched literally, no query syntax"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of fragments to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []entities.SearchHit `json:"results"`
	Count   int                  `json:"count"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct{}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Files     int      `json:"files"`
	Fragments int      `json:"fragments"`
	Skipped   []string `json:"skipped,omitempty"`
}

// ReadInput is the input schema for the filesystem_read tool.
type ReadInput struct {
	Path string `json:"path" jsonschema:"file path relative to the documents directory"`
}

// FetchInput is the input schema for the fetch_get tool.
type FetchInput struct {
	URL string `json:"url" jsonschema:"http(s) URL on an allowed host"`
}

// registerTools registers all tool handlers with the MCP server.
// Optional tools are only offered when their service is configured.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Full-text search over the indexed documents, best matches first",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Rebuild the index from the documents directory",
		}, s.handleIngest)
	}
	if s.ports.Files != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "filesystem_read",
			Description: "Read a file below the documents directory",
		}, s.handleRead)
	}
	if s.ports.Fetcher != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "fetch_get",
			Description: "HTTP GET restricted to the allowed hosts",
		}, s.handleFetch)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.Search.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Results: hits, Count: len(hits)}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Ingest.IngestDirectory(ctx, s.ports.DocsDir)
	if err != nil {
		return nil, IngestOutput{}, fmt.Errorf("ingest: %w", err)
	}
	out := IngestOutput{Files: report.Files, Fragments: report.Fragments}
	for i := range report.Skipped {
		out.Skipped = append(out.Skipped, report.Skipped[i].Error())
	}
	return nil, out, nil
}

func (s *Server) handleRead(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadInput,
) (*mcp.CallToolResult, entities.ToolResult, error) {
	res, err := s.ports.Files.Read(ctx, input.Path)
	if err != nil {
		return nil, entities.ToolResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleFetch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, entities.ToolResult, error) {
	res, err := s.ports.Fetcher.Get(ctx, input.URL)
	if err != nil {
		return nil, entities.ToolResult{}, err
	}
	return nil, *res, nil
}
