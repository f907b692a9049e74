// Package loader provides the document source adapter: it walks a directory
// tree for eligible text files and reads them with best-effort decoding.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// DefaultExtensions are the eligible document extensions.
var DefaultExtensions = []string{".txt", ".md", ".log"}

var _ ports.DocumentSource = (*TextSource)(nil)

// TextSource loads plain text documents (.txt, .md, .log).
type TextSource struct {
	extensions map[string]struct{}
}

// NewTextSource creates a text document source. Extensions are matched
// case-insensitively; the leading dot is optional.
func NewTextSource(extensions []string) *TextSource {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	return &TextSource{extensions: exts}
}

// SupportedExtensions returns the eligible extensions, sorted.
func (s *TextSource) SupportedExtensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Eligible reports whether path has an eligible extension.
func (s *TextSource) Eligible(path string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// List walks root recursively and returns eligible regular files in lexical order.
// Unreadable subdirectories and eligible names that cannot be stat'ed are
// skipped and returned as FileErrors.
func (s *TextSource) List(ctx context.Context, root string) ([]string, []entities.FileError, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", entities.ErrDirectoryNotFound, root)
		}
		return nil, nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is not a directory", entities.ErrDirectoryNotFound, root)
	}

	var (
		paths   []string
		skipped []entities.FileError
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				skipped = append(skipped, entities.FileError{Path: path, Err: walkErr})
				return filepath.SkipDir
			}
			if s.Eligible(path) {
				skipped = append(skipped, entities.FileError{Path: path, Err: walkErr})
			}
			return nil
		}
		if d.IsDir() || !s.Eligible(path) {
			return nil
		}
		if !d.Type().IsRegular() {
			// Follow symlinks to regular files, ignore everything else.
			fi, err := os.Stat(path)
			if err != nil {
				skipped = append(skipped, entities.FileError{Path: path, Err: err})
				return nil
			}
			if !fi.Mode().IsRegular() {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, skipped, nil
}

// Load reads a text document. Bytes that are not valid UTF-8 are dropped.
func (s *TextSource) Load(ctx context.Context, root, path string) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &entities.FileError{Path: path, Err: err}
	}

	content := strings.ToValidUTF8(string(data), "")
	content = strings.TrimPrefix(content, "\ufeff")

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &entities.Document{
		Source:  SourceID(root, path),
		Path:    abs,
		Content: content,
	}, nil
}

// SourceID returns the slash-separated path of file relative to root.
// Files outside root keep their base name.
func SourceID(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}
