// Package integration contains integration tests for runtests.
package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

// module describes one executable in a fixture directory.
type module struct {
	name string
	exit int
	body string // overrides exit when set
	mode os.FileMode
}

// fixture lays out modules and extra files in a fresh directory.
func fixture(t *testing.T, modules []module, files map[string]string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}
	dir := t.TempDir()

	for _, m := range modules {
		body := m.body
		if body == "" {
			body = "exit " + strconv.Itoa(m.exit)
		}
		mode := m.mode
		if mode == 0 {
			mode = 0755
		}
		writeFile(t, filepath.Join(dir, m.name), "#!/bin/sh\n"+body+"\n", mode)
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, path, content, 0644)
	}
	return dir
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
