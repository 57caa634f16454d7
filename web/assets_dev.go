//go:build dev
// +build dev

package web

import (
	"net/http"
	"os"
	"path/filepath"
)

// GetFileSystem serves the client straight from disk so edits show up
// without rebuilding. The server must run from the repository root.
func GetFileSystem() http.FileSystem {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return http.Dir(filepath.Join(wd, "web"))
}
