package lifecycle

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/SanjoDeundiak/forge/pkg/lib"
	"github.com/stretchr/testify/require"
)

// fakeServerName returns a short binary name unique to this run. Linux
// truncates command names to 15 characters.
func fakeServerName() string {
	return "pb" + strings.ReplaceAll(lib.NewID(), "-", "")[:8]
}

// writeFakeServer writes a shell script standing in for the server binary.
func writeFakeServer(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping: fake servers are shell scripts")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("Skipping: sh not available")
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// requireProcessTools skips unless the real process table can be inspected.
func requireProcessTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("Skipping: not running on Linux")
	}
	for _, tool := range []string{"pgrep", "pkill", "ps"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("Skipping: %s not available", tool)
		}
	}
}

const readyServer = `echo "> Server started at http://127.0.0.1:8090"
while :; do sleep 0.1; done`
