package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const memoryDSN = ":memory:"

// normalizeDSN accepts either a plain filesystem path or a sqlite:// URL
// and returns the path the driver expects. Relative paths are anchored with
// "./" so the driver never misreads them as URI options.
func normalizeDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("empty sqlite DSN")
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == memoryDSN {
		return memoryDSN, nil
	}

	var query string
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, query = path[:i], path[i+1:]
	}

	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if query != "" {
		path += "?" + query
	}
	return path, nil
}

func isMemoryDSN(path string) bool {
	return path == memoryDSN || strings.HasPrefix(path, memoryDSN+"?")
}
