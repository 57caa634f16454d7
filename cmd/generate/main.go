//go:build generate

// Regenerates web/assets_vfsdata.go from the files under web/.
// Run from the repository root: go run -tags generate ./cmd/generate
package main

import (
	"log"
	"net/http"

	"github.com/shurcooL/vfsgen"
)

func main() {
	err := vfsgen.Generate(http.Dir("web"), vfsgen.Options{
		Filename:     "web/assets_vfsdata.go",
		PackageName:  "web",
		BuildTags:    "vfs,!dev",
		VariableName: "Assets",
	})
	if err != nil {
		log.Fatalln(err)
	}
}
