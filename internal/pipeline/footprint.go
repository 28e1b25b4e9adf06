package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"

	"geosat/internal/tiles"
	"geosat/internal/utils/naming"
)

// footprint is the GeoJSON sidecar describing what a mosaic covers
type footprint struct {
	Extent    tiles.BoundingBox
	Requested tiles.BoundingBox
	Range     tiles.Range
	Result    PlacementResult
	Created   time.Time
}

// collection holds two WGS84 polygons: the covered tile extent and the requested area
func (f footprint) collection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	extent := geojson.NewFeature(f.Extent.Bound().ToPolygon())
	extent.Properties["role"] = "extent"
	extent.Properties["image"] = filepath.Base(f.Result.ImagePath)
	extent.Properties["provider"] = f.Result.Provider
	extent.Properties["crs"] = f.Result.CRS
	extent.Properties["zoom"] = f.Range.Zoom
	extent.Properties["tiles"] = f.Range.Total()
	extent.Properties["tileRange"] = f.Range.String()
	extent.Properties["quadkey"] = naming.CenterQuadkey(f.Range)
	extent.Properties["label"] = naming.BBoxLabel(f.Extent)
	extent.Properties["widthPx"] = f.Result.WidthPx
	extent.Properties["heightPx"] = f.Result.HeightPx
	extent.Properties["created"] = f.Created.UTC().Format(time.RFC3339)
	fc.Append(extent)

	requested := geojson.NewFeature(f.Requested.Bound().ToPolygon())
	requested.Properties["role"] = "requested"
	fc.Append(requested)

	return fc
}

func (f footprint) write(path string) error {
	data, err := f.collection().MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal footprint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write footprint: %w", err)
	}
	return nil
}
