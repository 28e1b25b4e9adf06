package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"geosat/internal/imagery"
)

func newLayersCommand(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layers",
		Short: "List the layers of the configured Sentinel Hub instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layers, err := c.app.Layers(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(layers)
			}

			current := c.settings.Sentinel.Layer
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tLAYER\tTITLE\tWEB MERCATOR")
			for _, l := range layers {
				marker := ""
				if l.Name == current {
					marker = "*"
				}
				mercator := "no"
				if l.SupportsMatrixSet(imagery.TileMatrixSet) {
					mercator = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, l.Name, l.Title, mercator)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print layers as JSON")
	return cmd
}
