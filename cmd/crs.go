package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"geosat/internal/crs"
)

func newCRSCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crs",
		Short: "List, show or select the drawing coordinate reference system",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the built-in coordinate reference systems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := c.settings.CRS
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tCODE\tNAME\tKIND")
			for _, e := range crs.All() {
				marker := ""
				if e.Code == current {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, e.Code, e.Name, e.Params.Kind)
			}
			fmt.Fprintln(tw, "\tEPSG:326xx / 327xx\tWGS 84 / UTM zone xx N / S\ttransverse mercator")
			return tw.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the persisted drawing CRS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.app.DrawingCRS()
			if err != nil {
				return err
			}
			printEntry(cmd, entry)
			return nil
		},
	}

	use := &cobra.Command{
		Use:     "use CODE",
		Short:   "Persist the drawing CRS, e.g. EPSG:32633",
		Example: "  geosat crs use EPSG:32633\n  geosat crs use 32734",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.app.SetDrawingCRS(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Drawing CRS set to %s\n", entry)
			return nil
		},
	}

	zone := &cobra.Command{
		Use:     "zone LON,LAT",
		Short:   "Suggest the UTM zone containing a WGS84 position",
		Example: "  geosat crs zone 15.2,44.8\n  geosat crs zone -- -3.7,40.4",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lon, lat, err := parsePoint(args[0])
			if err != nil {
				return err
			}
			printEntry(cmd, crs.UTMZoneFor(lon, lat))
			return nil
		},
	}

	cmd.AddCommand(list, show, use, zone)
	return cmd
}

func printEntry(cmd *cobra.Command, e crs.Entry) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Code: %s\n", e.Code)
	fmt.Fprintf(w, "Name: %s\n", e.Name)
	fmt.Fprintf(w, "Kind: %s\n", e.Params.Kind)
	if e.Params.Kind == crs.KindTransverseMercator {
		fmt.Fprintf(w, "Central meridian: %g\n", e.Params.CentralMeridian)
		fmt.Fprintf(w, "False easting/northing: %g / %g\n", e.Params.FalseEasting, e.Params.FalseNorthing)
	}
}
