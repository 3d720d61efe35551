package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/settings"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved view settings",
		Long: `Show the saved view settings with their accepted values.

Settings are the default filters, sort keys and expanded groups the apps,
perms, app and perm commands use when no flag overrides them. They are
stored in the database next to the snapshots.`,
		Example: `  # Show every setting
  permscope settings

  # Hide system apps by default
  permscope settings set apps.filters user

  # Back to defaults
  permscope settings reset apps.filters`,
		Args: cobra.NoArgs,
		RunE: runSettings,
	}

	settingsSetCmd = &cobra.Command{
		Use:   "set <key> [value...]",
		Short: "Replace a setting",
		Long:  "Replace a setting. Giving no values clears filters and expansion.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSettingsSet,
	}

	settingsResetCmd = &cobra.Command{
		Use:   "reset <key>",
		Short: "Restore a setting's default",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsReset,
	}
)

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
}

// openSettings opens the settings stored in the configured database. The
// returned function releases them.
func openSettings() (*settings.Settings, func(), error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	s, err := settings.Open(st, logger)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, func() {
		s.Close()
		st.Close()
	}, nil
}

func runSettings(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSettings()
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Print(renderSettings(s))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSettings()
	if err != nil {
		return err
	}
	defer closeFn()

	key := settings.Key(args[0])
	if err := s.Set(key, args[1:]); err != nil {
		return err
	}
	values, _ := s.Values(key)
	fmt.Printf("✓ %s = %s\n", key, formatValues(values))
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSettings()
	if err != nil {
		return err
	}
	defer closeFn()

	key := settings.Key(args[0])
	if err := s.Reset(key); err != nil {
		return err
	}
	values, _ := s.Values(key)
	fmt.Printf("✓ %s reset to %s\n", key, formatValues(values))
	return nil
}

// renderSettings lists each key with its value and accepted choices.
func renderSettings(s *settings.Settings) string {
	var sb strings.Builder
	for _, key := range s.Keys() {
		values, _ := s.Values(key)
		choices, _ := s.Choices(key)
		sb.WriteString(fmt.Sprintf("%-22s %s\n", key, formatValues(values)))
		sb.WriteString(fmt.Sprintf("%-22s choices: %s\n", "", strings.Join(choices, ", ")))
	}
	return sb.String()
}

func formatValues(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ",")
}
