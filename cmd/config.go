package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"geosat/internal/config"
)

func newConfigCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize settings",
	}

	var showSecrets bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings (file, environment and defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# %s\n", c.settingsPath())
			values := c.settings.Flatten(showSecrets)
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "%s = %v\n", k, values[k])
			}
			if err := c.settings.Validate(); err != nil {
				fmt.Fprintf(w, "\n%v\n", err)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&showSecrets, "show-secrets", false, "print credentials unmasked")

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.settingsPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("settings file %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to check settings file: %w", err)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing settings file")

	analyticsCmd := &cobra.Command{
		Use:       "analytics on|off",
		Short:     "Opt in or out of anonymous usage analytics",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			if err := c.app.SetAnalytics(enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analytics %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, analyticsCmd)
	return cmd
}
