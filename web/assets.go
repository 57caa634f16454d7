//go:build !dev
// +build !dev

// Package web carries the single-page client served at the root
// route: the index.html shell plus its scripts and styles.
package web

//go:generate go run -tags generate ../cmd/generate

import (
	"embed"
	"net/http"
)

//go:embed index.html static
var embeddedFiles embed.FS

// GetFileSystem returns the embedded client as an http.FileSystem
func GetFileSystem() http.FileSystem {
	return http.FS(embeddedFiles)
}
