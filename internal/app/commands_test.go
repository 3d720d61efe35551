package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/grouping"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/settings"
	"github.com/blackwell-systems/permscope/internal/snapshots"
)

func TestCommandsRequireSnapshot(t *testing.T) {
	setupTestEnv(t)

	for _, cmd := range []*cobra.Command{appsCmd, permsCmd, overviewCmd} {
		t.Run(cmd.Name(), func(t *testing.T) {
			_, err := run(t, cmd)
			if !errors.Is(err, snapshots.ErrNoSnapshot) {
				t.Errorf("expected ErrNoSnapshot, got %v", err)
			}
		})
	}
}

func TestRunApps(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	out, err := run(t, appsCmd)
	if err != nil {
		t.Fatalf("apps failed: %v", err)
	}
	for _, want := range []string{"Camera", "Store", "3 apps"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunAppsUsesSavedFilters(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	s, closeFn, err := openSettings()
	if err != nil {
		t.Fatalf("openSettings failed: %v", err)
	}
	if err := s.Set(settings.AppsFilters, []string{"system"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	closeFn()

	out, err := run(t, appsCmd)
	if err != nil {
		t.Fatalf("apps failed: %v", err)
	}
	if strings.Contains(out, "Camera") || !strings.Contains(out, "Store") {
		t.Errorf("expected only system apps, got:\n%s", out)
	}
	if !strings.Contains(out, "Filters: system") {
		t.Errorf("expected active filters line, got:\n%s", out)
	}
}

func TestRunPerms(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	orig := permsExpand
	permsExpand = []string{"all"}
	defer func() { permsExpand = orig }()

	out, err := run(t, permsCmd)
	if err != nil {
		t.Fatalf("perms failed: %v", err)
	}
	for _, want := range []string{"android.permission.CAMERA", "1/1 granted", "permissions in"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunAppDetails(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	out, err := run(t, appCmd, "org.example.camera")
	if err != nil {
		t.Fatalf("app failed: %v", err)
	}
	for _, want := range []string{"Camera", "android.permission.CAMERA", "org.example.camera@10"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	if _, err := run(t, appCmd, "org.example.missing"); err == nil {
		t.Error("expected error for unknown app")
	}
}

func TestRunPermDetails(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	out, err := run(t, permCmd, "android.permission.CAMERA")
	if err != nil {
		t.Fatalf("perm failed: %v", err)
	}
	if !strings.Contains(out, "Camera") {
		t.Errorf("expected requesting app in output:\n%s", out)
	}

	if _, err := run(t, permCmd, "org.example.NOPE"); err == nil {
		t.Error("expected error for unknown permission")
	}
}

func TestRunOverview(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	out, err := run(t, overviewCmd)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if !strings.Contains(out, "Snapshot 1") || !strings.Contains(out, "Apps in this profile") {
		t.Errorf("unexpected overview:\n%s", out)
	}
}

func TestEngineResolutionMatchesLatestSnapshot(t *testing.T) {
	setupTestEnv(t)
	scanQuietly(t)

	ctx := context.Background()
	e, err := openEngine(ctx, false)
	if err != nil {
		t.Fatalf("openEngine failed: %v", err)
	}
	defer e.Close()

	res, err := e.resolution(ctx)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if res.ID != 1 {
		t.Errorf("expected snapshot 1, got %d", res.ID)
	}
	if _, ok := res.App(apps.PkgID{PkgName: "org.example.camera", User: 10}); !ok {
		t.Error("expected work-profile camera in resolution")
	}
}

func TestParseAppArg(t *testing.T) {
	setupTestEnv(t)
	cfg.PrimaryUser = 10

	tests := []struct {
		arg     string
		want    apps.PkgID
		wantErr bool
	}{
		{arg: "org.example.camera", want: apps.PkgID{PkgName: "org.example.camera", User: 10}},
		{arg: "org.example.camera@0", want: apps.PkgID{PkgName: "org.example.camera", User: 0}},
		{arg: "@3", wantErr: true},
		{arg: "org.example.camera@x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseAppArg(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseAppArg(%q) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestApplyExpansion(t *testing.T) {
	start := grouping.NewExpansion(perms.GroupID("camera"))

	exp, err := applyExpansion(start, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exp.Expanded()) != 0 {
		t.Errorf("expected collapse to clear expansion, got %v", exp.Expanded())
	}

	exp, err = applyExpansion(start, false, []string{"all"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range perms.AllGroupIDs() {
		if !exp.IsExpanded(id) {
			t.Errorf("expected %s expanded", id)
		}
	}

	exp, err = applyExpansion(start, false, []string{"camera"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exp.IsExpanded("camera") {
		t.Error("expanding an expanded group must keep it expanded")
	}

	if _, err := applyExpansion(start, false, []string{"nope"}); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestOverride(t *testing.T) {
	s, err := settings.Open(nil, nil)
	if err != nil {
		t.Fatalf("settings.Open failed: %v", err)
	}
	defer s.Close()

	var names []string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringSliceVar(&names, "filter", nil, "")
	parse := func() (filter.Set[filter.AppKey], error) {
		return filter.ParseKeys(filter.AppFilters, names)
	}

	got, err := override(cmd, "filter", s.AppsFilters, false, parse)
	if err != nil || !got.Empty() {
		t.Fatalf("expected saved default, got %v (err %v)", got, err)
	}

	if err := cmd.Flags().Set("filter", "user"); err != nil {
		t.Fatal(err)
	}
	got, err = override(cmd, "filter", s.AppsFilters, false, parse)
	if err != nil || !got.Has(filter.AppUser) {
		t.Fatalf("expected flag value, got %v (err %v)", got, err)
	}
	if !s.AppsFilters.Get().Empty() {
		t.Error("override without save must not change the setting")
	}

	if _, err := override(cmd, "filter", s.AppsFilters, true, parse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.AppsFilters.Get().Has(filter.AppUser) {
		t.Error("override with save must store the value")
	}

	if err := cmd.Flags().Set("filter", "bogus"); err != nil {
		t.Fatal(err)
	}
	if _, err := override(cmd, "filter", s.AppsFilters, true, parse); err == nil {
		t.Error("expected error for invalid filter")
	}
}

func TestSettingsSetAndReset(t *testing.T) {
	setupTestEnv(t)

	out, err := run(t, settingsSetCmd, "perms.sort", "granted")
	if err != nil {
		t.Fatalf("settings set failed: %v", err)
	}
	if !strings.Contains(out, "perms.sort = granted") {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = run(t, settingsCmd)
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	if !strings.Contains(out, "granted") || !strings.Contains(out, "choices:") {
		t.Errorf("expected stored value and choices, got:\n%s", out)
	}

	if _, err := run(t, settingsResetCmd, "perms.sort"); err != nil {
		t.Fatalf("settings reset failed: %v", err)
	}

	if _, err := run(t, settingsSetCmd, "perms.sort", "bogus"); err == nil {
		t.Error("expected error for invalid sort key")
	}
	if _, err := run(t, settingsSetCmd, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestRunStatus(t *testing.T) {
	setupTestEnv(t)

	out, err := run(t, statusCmd)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "not set up") {
		t.Errorf("expected setup hint without database, got:\n%s", out)
	}

	scanQuietly(t)

	out, err = run(t, statusCmd)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"stopped", "watch --daemon", "#1", "3 apps"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in status output:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "just now"},
		{4, "just now"},
		{30, "30 seconds ago"},
		{120, "2 minutes ago"},
		{7200, "2 hours ago"},
		{86400, "1 day ago"},
		{3 * 86400, "3 days ago"},
	}
	for _, tt := range tests {
		if got := formatDuration(time.Duration(tt.secs) * time.Second); got != tt.want {
			t.Errorf("formatDuration(%ds) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
