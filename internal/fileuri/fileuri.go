// Package fileuri converts between file:// URIs and local paths.
package fileuri

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

const scheme = "file://"

// FromPath returns the file URI of path. Relative paths are made absolute.
func FromPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if runtime.GOOS == "windows" || !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}

// ToPath returns the local path of a file URI. Anything else is returned
// unchanged, so plain paths pass through.
func ToPath(uri string) string {
	if !strings.HasPrefix(uri, scheme) {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return filepath.FromSlash(strings.TrimPrefix(uri, scheme))
	}
	path := u.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
	}
	return filepath.FromSlash(path)
}
