// Package output provides terminal output utilities for permscope.
//
// This package includes:
//   - Table rendering for app lists, grouped permission lists and snapshots
//   - Detail pages for a single app or permission and the device overview
//   - Spinners for indeterminate operations
//
// All rendering functions return strings built from ASCII columns and ANSI
// color codes; color is dropped when stdout is not a terminal.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/grouping"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/resolve"
	"github.com/blackwell-systems/permscope/internal/store"
)

// ANSI color codes for grant status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderAppTable renders the app list in the order given.
func RenderAppTable(items []*resolve.AppResolution) string {
	if len(items) == 0 {
		return "No apps match.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-36s %-5s %-6s %-9s %-8s %s\n",
		"App", "User", "Type", "Granted", "Declared", "Groups"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, a := range items {
		kind := "user"
		if a.Pkg.IsSystemApp {
			kind = "system"
		}
		groups := make([]string, len(a.TopGroups))
		for i, g := range a.TopGroups {
			groups[i] = string(g)
		}

		sb.WriteString(fmt.Sprintf("%-36s %-5d %-6s %-9s %-8d %s\n",
			truncate(appName(a.Pkg), 36),
			a.Pkg.ID.User,
			kind,
			fmt.Sprintf("%d/%d", a.Granted, a.Total),
			a.DeclaredCount,
			strings.Join(groups, ",")))
	}

	sb.WriteString(fmt.Sprintf("\n%d apps\n", len(items)))
	return sb.String()
}

// RenderPermissionListing renders the grouped permission list. Collapsed
// groups show only their header.
func RenderPermissionListing(l grouping.Listing[*resolve.PermResolution]) string {
	if l.PermissionCount == 0 {
		return "No permissions match.\n"
	}

	var sb strings.Builder
	for _, row := range l.Rows {
		if row.IsHeader() {
			marker := "▸"
			if row.Header.Expanded {
				marker = "▾"
			}
			sb.WriteString(colorize(colorBold, fmt.Sprintf("%s %s (%d)", marker, row.Header.Group.Label, row.Header.Count)))
			sb.WriteString("\n")
			continue
		}

		p := row.Item
		sb.WriteString(fmt.Sprintf("    %-52s %-9s %s\n",
			truncate(p.ID(), 52),
			perms.VariantOf(p.Permission).String(),
			fmt.Sprintf("%d/%d granted", p.GrantedCount(), p.RequestingCount())))
	}

	sb.WriteString(fmt.Sprintf("\n%d permissions in %d groups\n", l.PermissionCount, l.GroupCount))
	return sb.String()
}

// RenderEdgeTable renders one app's permission rows.
func RenderEdgeTable(edges []resolve.Edge) string {
	if len(edges) == 0 {
		return "  No permissions match.\n"
	}

	var sb strings.Builder
	for _, e := range edges {
		var marks []string
		if e.IsRuntime() {
			marks = append(marks, "runtime")
		}
		if e.IsSpecialAccess() {
			marks = append(marks, "special")
		}
		if e.DeclaredByApp {
			marks = append(marks, "own")
		}
		if !e.Resolved() {
			marks = append(marks, "undefined")
		}

		sb.WriteString(fmt.Sprintf("  %s %-52s %s\n",
			colorize(statusColor(e.Status), fmt.Sprintf("%-15s", e.Status.String())),
			truncate(e.PermissionID, 52),
			strings.Join(marks, ",")))
	}
	return sb.String()
}

// RenderSnapshotTable renders a table of snapshots.
func RenderSnapshotTable(snapshots []*store.Snapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-6s %-16s %-6s %-14s %s\n",
		"ID", "Created", "Apps", "Fingerprint", "Source"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, snap := range snapshots {
		sb.WriteString(fmt.Sprintf("%-6d %-16s %-6d %-14s %s\n",
			snap.ID,
			formatRelativeTime(snap.CreatedAt),
			snap.AppCount,
			truncate(snap.Fingerprint, 12),
			snap.Source))
	}

	return sb.String()
}

// statusColor returns the ANSI color code for a grant status.
func statusColor(s apps.Status) string {
	switch s {
	case apps.StatusGranted:
		return colorGreen
	case apps.StatusGrantedInUse:
		return colorYellow
	case apps.StatusDenied:
		return colorRed
	default:
		return colorGray
	}
}

// appName returns "Label (package)" or just the package when unlabeled.
func appName(p *apps.Pkg) string {
	if p.Label == "" || p.Label == p.ID.PkgName {
		return p.ID.PkgName
	}
	return fmt.Sprintf("%s (%s)", p.Label, p.ID.PkgName)
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
