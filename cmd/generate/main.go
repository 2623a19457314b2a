package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/internal/fatxtest"
)

// main for writing the sample images. Can be executed using 'go generate' from the project root.
func main() {
	dest := "testdata"
	fs := afero.NewOsFs()

	if err := fs.MkdirAll(dest, 0755); err != nil {
		panic(err)
	}

	for _, platform := range []fatx.Platform{fatx.Xbox, fatx.Xbox360} {
		path := filepath.Join(dest, platform.String()+".img")
		if err := afero.WriteFile(fs, path, fatxtest.Sample(platform).Bytes(), 0644); err != nil {
			panic(err)
		}
		fmt.Println("wrote", path)
	}
}
