package output

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/permscope/internal/analyzer"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/view"
)

// RenderAppDetails renders one app's details page.
func RenderAppDetails(d view.AppDetailsData) string {
	a := d.App
	p := a.Pkg

	var sb strings.Builder
	sb.WriteString(colorize(colorBold, p.DisplayLabel()))
	sb.WriteString("\n")

	field(&sb, "Package", p.ID.String())
	if p.IsSystemApp {
		field(&sb, "Type", "system")
	} else {
		field(&sb, "Type", "user")
	}
	if p.VersionName != "" || p.VersionCode != 0 {
		field(&sb, "Version", fmt.Sprintf("%s (%d)", p.VersionName, p.VersionCode))
	}
	if api := p.APILevels; api.Target != 0 || api.Minimum != 0 || api.Compile != 0 {
		field(&sb, "API", fmt.Sprintf("target %d, min %d, compile %d", api.Target, api.Minimum, api.Compile))
	}
	field(&sb, "Installed", formatRelativeTime(p.InstalledAt))
	field(&sb, "Updated", formatRelativeTime(p.UpdatedAt))
	field(&sb, "Internet", p.InternetAccess.String())
	if p.IsSideloaded() {
		field(&sb, "Sideloaded", "yes")
	}

	for _, inst := range d.Installers {
		field(&sb, "Installer", fmt.Sprintf("%s (%s)", refName(inst.PkgRef), inst.Role))
	}
	for _, t := range d.Twins {
		field(&sb, "Twin", refName(t))
	}
	for _, s := range d.Siblings {
		field(&sb, "Sibling", refName(s))
	}

	sb.WriteString(fmt.Sprintf("\nPermissions (%d/%d granted, %d declared", a.Granted, a.Total, a.DeclaredCount))
	if !d.Filters.Empty() {
		sb.WriteString(", filter: " + d.Filters.String())
	}
	sb.WriteString(")\n")
	sb.WriteString(RenderEdgeTable(d.Edges))

	return sb.String()
}

// RenderPermissionDetails renders one permission's details page.
func RenderPermissionDetails(d view.PermissionDetailsData) string {
	p := d.Permission

	var sb strings.Builder
	sb.WriteString(colorize(colorBold, perms.DisplayLabel(p.Permission)))
	sb.WriteString("\n")

	field(&sb, "ID", p.ID())
	field(&sb, "Kind", d.Variant.String())
	if len(d.Tags) > 0 {
		names := make([]string, len(d.Tags))
		for i, t := range d.Tags {
			names[i] = t.String()
		}
		field(&sb, "Tags", strings.Join(names, ", "))
	}
	if d.ProtectionType != "" {
		field(&sb, "Protection", d.ProtectionType)
	}
	if len(d.ProtectionFlags) > 0 {
		flags := strings.Join(d.ProtectionFlags, ", ")
		if d.MoreFlags > 0 {
			flags += fmt.Sprintf(" +%d", d.MoreFlags)
		}
		field(&sb, "Flags", flags)
	}
	for _, pkg := range d.Declaring {
		field(&sb, "Declared by", appName(pkg))
	}

	sb.WriteString(fmt.Sprintf("\nRequested by %d user apps (%d granted) and %d system apps (%d granted)",
		d.TotalUser, d.GrantedUser, d.TotalSystem, d.GrantedSystem))
	if !d.Filters.Empty() {
		sb.WriteString(", filter: " + d.Filters.String())
	}
	sb.WriteString("\n")

	for _, r := range d.Requesting {
		kind := "user"
		if r.Pkg.IsSystemApp {
			kind = "system"
		}
		sb.WriteString(fmt.Sprintf("  %s %-6s %s\n",
			colorize(statusColor(r.Status), fmt.Sprintf("%-15s", r.Status.String())),
			kind,
			appName(r.Pkg)))
	}

	return sb.String()
}

// RenderOverview renders the device summary.
func RenderOverview(s analyzer.Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Snapshot %d\n\n", s.SnapshotID))
	sb.WriteString(fmt.Sprintf("%-34s %6s %6s\n", "", "User", "System"))
	sb.WriteString(strings.Repeat("─", 48))
	sb.WriteString("\n")

	rows := []struct {
		label string
		split analyzer.Split
	}{
		{"Apps in this profile", s.ActiveProfile},
		{"Apps in other profiles", s.OtherProfiles},
		{"Can install other apps", s.InstallerApps},
		{"Can draw over other apps", s.SystemAlertWindow},
		{"No direct internet access", s.NoInternet},
		{"Installed in several profiles", s.Clones},
		{"Sharing an identity", s.SharedIDs},
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-34s %6d %6d\n", r.label, r.split.User, r.split.System))
	}
	sb.WriteString(fmt.Sprintf("%-34s %6d %6s\n", "Sideloaded", s.Sideloaded, "-"))

	return sb.String()
}

func field(sb *strings.Builder, name, value string) {
	sb.WriteString(fmt.Sprintf("  %-12s %s\n", name+":", value))
}

func refName(r view.PkgRef) string {
	if r.Label == "" || r.Label == r.ID.PkgName {
		return r.ID.String()
	}
	return fmt.Sprintf("%s (%s)", r.Label, r.ID)
}
