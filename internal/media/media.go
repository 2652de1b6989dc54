// Package media turns stored media paths into absolute URLs.
package media

import (
	"net/url"
	"strings"
)

// AbsoluteURL resolves path against base. It returns "" when path is empty,
// and path unchanged when it already is an absolute URL or base is unusable.
// Relative paths are served under /media/.
func AbsoluteURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	b, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil || !b.IsAbs() {
		return path
	}
	rel := strings.TrimLeft(path, "/")
	if !strings.HasPrefix(rel, "media/") {
		rel = "media/" + rel
	}
	ref, err := url.Parse(rel)
	if err != nil {
		return path
	}
	return b.ResolveReference(ref).String()
}
