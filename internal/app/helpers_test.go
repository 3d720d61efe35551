package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/config"
)

const testInventory = `
apps:
  - package: org.example.camera
    label: Camera
    installer:
      installing: com.android.vending
    requested:
      - {id: android.permission.CAMERA, status: granted}
      - {id: android.permission.INTERNET, status: granted}
  - package: org.example.camera
    user: 10
    requested: []
  - package: com.android.vending
    label: Store
    system: true
    requested:
      - {id: android.permission.REQUEST_INSTALL_PACKAGES, status: granted}
`

// setupTestEnv points the config directory and the global config at a temp
// dir containing testInventory.
func setupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("NO_COLOR", "1")

	dir := filepath.Join(tmpDir, "permscope")
	c := config.Default(dir)
	c.InventoryPath = filepath.Join(tmpDir, "inventory.yaml")
	if err := os.WriteFile(c.InventoryPath, []byte(testInventory), 0644); err != nil {
		t.Fatalf("failed to write inventory: %v", err)
	}

	origCfg, origLogger := cfg, logger
	cfg = c
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(func() {
		cfg, logger = origCfg, origLogger
	})
	return tmpDir
}

// captureStdout returns what fn prints to stdout.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		buf.ReadFrom(r)
		done <- buf.String()
	}()

	runErr := fn()
	w.Close()
	os.Stdout = origStdout
	return <-done, runErr
}

// run invokes a command's RunE with a background context and captures its
// output.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	cmd.SetContext(context.Background())
	return captureStdout(t, func() error { return cmd.RunE(cmd, args) })
}

// scanQuietly stores a snapshot of the current inventory.
func scanQuietly(t *testing.T) {
	t.Helper()
	orig := scanQuiet
	scanQuiet = true
	defer func() { scanQuiet = orig }()

	if _, err := run(t, scanCmd); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
}
