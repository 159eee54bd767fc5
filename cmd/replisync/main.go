// File: cmd/replisync/main.go
package main

import (
	"os"

	// Explicitly import catalog sources to ensure their init() functions run and they register themselves
	_ "replisync/internal/catalog/source/file"
	_ "replisync/internal/catalog/source/gcs"
	_ "replisync/internal/catalog/source/s3"
)

func main() {
	os.Exit(Execute())
}
