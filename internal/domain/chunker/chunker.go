// Package chunker splits document text into fixed-size overlapping windows.
//
// Windows are measured in runes, not bytes, so every fragment is valid UTF-8.
// Boundaries ignore words and sentences: a fragment may end mid-word.
package chunker

import (
	"fmt"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
)

// Default window configuration.
const (
	DefaultSize    = 1200
	DefaultOverlap = 150
)

// Chunker produces overlapping fragments of a fixed size.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. overlap must be in [0, size).
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", entities.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", entities.ErrInvalidChunkConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than size %d",
			entities.ErrInvalidChunkConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a Chunker with DefaultSize and DefaultOverlap.
func Default() *Chunker {
	return &Chunker{size: DefaultSize, overlap: DefaultOverlap}
}

// Size returns the window size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of runes shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Stride is the distance between the starts of consecutive windows.
func (c *Chunker) Stride() int { return c.size - c.overlap }

// Split returns the windows of text in order. Empty text yields no windows.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	starts := c.Offsets(len(runes))
	out := make([]string, 0, len(starts))
	for _, start := range starts {
		end := min(start+c.size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

// Offsets returns the rune offset of every window for a text of n runes.
func (c *Chunker) Offsets(n int) []int {
	if n <= 0 {
		return nil
	}
	stride := c.Stride()
	offsets := make([]int, 0, (n+stride-1)/stride)
	for start := 0; start < n; start += stride {
		offsets = append(offsets, start)
	}
	return offsets
}

// Fragments chunks a document into fragments tagged with its source.
func (c *Chunker) Fragments(doc *entities.Document) []entities.Fragment {
	parts := c.Split(doc.Content)
	fragments := make([]entities.Fragment, len(parts))
	for i, p := range parts {
		fragments[i] = entities.Fragment{
			Source:  doc.Source,
			Content: p,
			Index:   i,
		}
	}
	return fragments
}
