//go:build !sqlite_fts5

package index

// CGOAvailable reports whether DriverCGO is compiled in.
// Build with -tags sqlite_fts5 to enable it.
const CGOAvailable = false
