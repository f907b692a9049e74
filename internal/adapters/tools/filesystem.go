// Package tools implements the filesystem.read and fetch.get tools
// available to chat directives and MCP clients.
package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// DefaultMaxBytes caps tool output.
const DefaultMaxBytes = 200_000

// Tool names as reported in results.
const (
	ToolFilesystemRead = "filesystem.read"
	ToolFetchGet       = "fetch.get"
)

var _ ports.FileReader = (*FileReader)(nil)

// FileReader reads files below a fixed root directory.
type FileReader struct {
	root     string
	maxBytes int64
}

// NewFileReader creates a reader confined to root.
func NewFileReader(root string, maxBytes int64) (*FileReader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileReader{root: abs, maxBytes: maxBytes}, nil
}

// Read returns the first maxBytes of relPath, decoded best-effort.
func (r *FileReader) Read(ctx context.Context, relPath string) (*entities.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.resolve(relPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, relPath)
		}
		return nil, fmt.Errorf("opening %s: %w", relPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", relPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", entities.ErrNotFound, relPath)
	}

	data, err := io.ReadAll(io.LimitReader(f, r.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}

	return &entities.ToolResult{
		Tool:    ToolFilesystemRead,
		Target:  path,
		Content: strings.ToValidUTF8(string(data), ""),
	}, nil
}

// resolve joins relPath to the root and rejects anything that escapes it,
// including through symlinks.
func (r *FileReader) resolve(relPath string) (string, error) {
	if strings.TrimSpace(relPath) == "" {
		return "", fmt.Errorf("%w: empty path", entities.ErrNotFound)
	}

	path := filepath.Join(r.root, relPath)
	if !within(r.root, path) {
		return "", fmt.Errorf("%w: %s", entities.ErrPathOutsideRoot, relPath)
	}

	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", entities.ErrNotFound, relPath)
		}
		return "", fmt.Errorf("resolving %s: %w", relPath, err)
	}
	realRoot, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	if !within(realRoot, real) {
		return "", fmt.Errorf("%w: %s", entities.ErrPathOutsideRoot, relPath)
	}
	return real, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
