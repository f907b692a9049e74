//go:build sqlite_fts5

package index

import (
	_ "github.com/mattn/go-sqlite3" // registers DriverCGO, FTS5 enabled by the build tag
)

// CGOAvailable reports whether DriverCGO is compiled in.
const CGOAvailable = true
