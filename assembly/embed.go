package assembly

import (
	"embed"
	"io/fs"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// Embedded returns the sample scripts shipped with the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(ScriptsFS, "scripts")
	if err != nil {
		panic(err)
	}
	return sub
}
