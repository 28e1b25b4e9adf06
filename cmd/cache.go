package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"geosat/internal/app"
	"geosat/internal/common"
)

func newCacheCommand(c *cli) *cobra.Command {
	var provider string
	var asJSON bool

	providers := func() ([]string, error) {
		if provider == "" {
			return app.Providers(), nil
		}
		if !common.ValidProvider(provider) {
			return nil, fmt.Errorf("unknown imagery provider %q", provider)
		}
		return []string{provider}, nil
	}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the on-disk tile cache",
	}
	cmd.PersistentFlags().StringVar(&provider, "provider", "", "limit to one provider (default: all)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tile counts and sizes per provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := providers()
			if err != nil {
				return err
			}
			all := make([]app.CacheStats, 0, len(names))
			for _, p := range names {
				s, err := c.app.GetCacheStats(p)
				if err != nil {
					return err
				}
				all = append(all, s)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}
			for _, s := range all {
				fmt.Fprintf(w, "%s\n  path:  %s\n  tiles: %d (%s)\n",
					common.ProviderDisplayName(s.Provider), s.CachePath, s.Tiles, s.Size)
				zooms := make([]int, 0, len(s.Zooms))
				for z := range s.Zooms {
					zooms = append(zooms, z)
				}
				sort.Ints(zooms)
				for _, z := range zooms {
					fmt.Fprintf(w, "  z%-2d   %d\n", z, s.Zooms[z])
				}
			}
			return nil
		},
	}
	statsCmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached tiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := providers()
			if err != nil {
				return err
			}
			for _, p := range names {
				if err := c.app.ClearCache(p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s cache\n", common.ProviderDisplayName(p))
			}
			return nil
		},
	}

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
