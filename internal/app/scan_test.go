package app

import (
	"os"
	"strings"
	"testing"
)

func TestScanCommand(t *testing.T) {
	if scanCmd.Use != "scan" {
		t.Errorf("expected Use to be 'scan', got '%s'", scanCmd.Use)
	}
	if scanCmd.Short == "" || scanCmd.Long == "" || scanCmd.Example == "" {
		t.Error("expected Short, Long and Example to be set")
	}
	if scanCmd.RunE == nil {
		t.Error("expected RunE to be set")
	}
}

func TestScanCommandFlags(t *testing.T) {
	tests := []struct {
		flagName     string
		defaultValue string
	}{
		{"quiet", "false"},
		{"list", "false"},
		{"prune", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := scanCmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("expected --%s flag to be registered", tt.flagName)
			}
			if flag.DefValue != tt.defaultValue {
				t.Errorf("expected default %q, got %q", tt.defaultValue, flag.DefValue)
			}
		})
	}
}

func TestRunScanStoresThenReuses(t *testing.T) {
	setupTestEnv(t)

	out, err := run(t, scanCmd)
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if !strings.Contains(out, "Stored snapshot #1") {
		t.Errorf("expected new snapshot, got:\n%s", out)
	}
	if !strings.Contains(out, "3 apps") {
		t.Errorf("expected app count, got:\n%s", out)
	}

	out, err = run(t, scanCmd)
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if !strings.Contains(out, "Snapshot #1 up to date") {
		t.Errorf("expected unchanged snapshot to be reused, got:\n%s", out)
	}
}

func TestRunScanList(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	orig := scanList
	scanList = true
	defer func() { scanList = orig }()

	out, err := run(t, scanCmd)
	if err != nil {
		t.Fatalf("scan --list failed: %v", err)
	}
	if strings.Contains(out, "No snapshots found") {
		t.Errorf("expected a snapshot row, got:\n%s", out)
	}
}

func TestRunScanMissingInventory(t *testing.T) {
	setupTestEnv(t)
	if err := os.Remove(cfg.InventoryPath); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, scanCmd); err == nil {
		t.Error("expected error for missing inventory")
	}
}

func TestCountNoun(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 apps"},
		{1, "1 app"},
		{12, "12 apps"},
	}
	for _, tt := range tests {
		if got := countNoun(tt.n, "app"); got != tt.want {
			t.Errorf("countNoun(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
