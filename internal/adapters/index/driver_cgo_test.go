//go:build sqlite_fts5

package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_CGODriver(t *testing.T) {
	store, err := NewSQLiteStore(Options{Driver: DriverCGO, Path: filepath.Join(t.TempDir(), "rag.db")})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	n, err := store.Replace(ctx, haystack())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	hits, err := store.Search(ctx, `needle "OR`, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c.txt", hits[0].Source)
}
