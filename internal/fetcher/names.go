package fetcher

import (
	"net/url"
	"path"
	"strings"
)

// FilenameFromURL returns the final path segment of a URL. The query string
// and fragment are ignored.
func FilenameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return path.Base(raw)
}
