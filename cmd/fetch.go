package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"geosat/internal/app"
	"geosat/internal/common"
	"geosat/internal/pipeline"
)

type fetchFlags struct {
	from     string
	to       string
	opts     app.FetchOptions
	zoom     int
	asJSON   bool
	quiet    bool
	provider string
}

func newFetchCommand(c *cli) *cobra.Command {
	f := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a georeferenced mosaic for a rectangle in the drawing CRS",
		Example: `  geosat fetch --crs EPSG:32633 --from 500000,4965000 --to 502000,4967000
  geosat fetch --from 1670000,5000000 --to 1680000,5010000 --format tif --footprint --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			x1, y1, err := parsePoint(f.from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			x2, y2, err := parsePoint(f.to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			f.opts.Provider = f.provider
			if cmd.Flags().Changed("zoom") {
				f.opts.Zoom = &f.zoom
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runFetch(ctx, c.app, cmd.OutOrStdout(), cmd.ErrOrStderr(), x1, y1, x2, y2, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "first corner as x,y in the drawing CRS")
	fl.StringVar(&f.to, "to", "", "opposite corner as x,y in the drawing CRS")
	fl.StringVar(&f.opts.CRS, "crs", "", "drawing CRS (default: the persisted one, see `geosat crs use`)")
	fl.StringVar(&f.opts.OutputDir, "out", "", "output directory")
	fl.StringVar(&f.provider, "provider", "", "imagery provider: mapbox or sentinel")
	fl.IntVar(&f.zoom, "zoom", pipeline.AutoZoom, "force a zoom level 0-18 (-1 chooses from imaging.target_resolution)")
	fl.StringVar(&f.opts.Format, "format", "", "output format: jpg, png or tif")
	fl.BoolVar(&f.opts.Footprint, "footprint", false, "write a GeoJSON footprint next to the image")
	fl.BoolVar(&f.asJSON, "json", false, "print the placement result as JSON")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runFetch(ctx context.Context, a *app.App, out, progress io.Writer, x1, y1, x2, y2 float64, f *fetchFlags) error {
	var onState func(pipeline.State)
	var onProgress func(done, total int)
	if !f.quiet {
		onState = func(s pipeline.State) {
			if s == pipeline.Done || s == pipeline.Failed {
				return
			}
			fmt.Fprintf(progress, "%s...\n", s)
		}
		onProgress = func(done, total int) {
			fmt.Fprintf(progress, "\rtiles %d/%d", done, total)
			if done == total {
				fmt.Fprintln(progress)
			}
		}
	}

	res, err := a.Fetch(ctx, x1, y1, x2, y2, f.opts, onState, onProgress)
	if err != nil {
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printPlacement(out, res)
	return nil
}

func printPlacement(w io.Writer, res pipeline.PlacementResult) {
	fmt.Fprintf(w, "Image:      %s\n", res.ImagePath)
	fmt.Fprintf(w, "World file: %s\n", res.WorldFilePath)
	if res.FootprintPath != "" {
		fmt.Fprintf(w, "Footprint:  %s\n", res.FootprintPath)
	}
	fmt.Fprintf(w, "Provider:   %s\n", common.ProviderDisplayName(res.Provider))
	fmt.Fprintf(w, "CRS:        %s\n", res.CRS)
	fmt.Fprintf(w, "Insertion:  %.4f, %.4f\n", res.InsertionX, res.InsertionY)
	fmt.Fprintf(w, "Size:       %.4f x %.4f drawing units\n", res.Width, res.Height)
	fmt.Fprintf(w, "Pixels:     %d x %d\n", res.WidthPx, res.HeightPx)
	fmt.Fprintf(w, "Tiles:      %d at zoom %d\n", res.TileCount, res.Zoom)
}

// parsePoint reads "x,y"
func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected x,y but got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x %q: %w", parts[0], err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y %q: %w", parts[1], err)
	}
	return x, y, nil
}
