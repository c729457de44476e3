// file: main_test.go
// version: 1.0.0
// guid: ad4dd6e8-4e5a-4fa8-b1d2-ac3f49bada97

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMainHelp(t *testing.T) {
	tempDir := t.TempDir()

	origArgs := os.Args
	defer func() {
		os.Args = origArgs
	}()

	os.Args = []string{
		"shelfkeeper",
		"--data-dir",
		filepath.Join(tempDir, "data"),
		"--help",
	}

	main()
}
