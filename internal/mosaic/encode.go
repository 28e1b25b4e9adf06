package mosaic

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"geosat/internal/common"
	"geosat/pkg/geotiff"
)

// DefaultQuality is the JPEG quality used when none is configured
const DefaultQuality = 90

// Encode writes img in the given format. geo is only used for GeoTIFF output.
func Encode(w io.Writer, img image.Image, format common.OutputFormat, quality int, geo *geotiff.Georef) error {
	switch format {
	case common.FormatJPEG, "":
		if quality <= 0 || quality > 100 {
			quality = DefaultQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
	case common.FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
	case common.FormatGeoTIFF:
		if err := geotiff.Encode(w, img, geo); err != nil {
			return fmt.Errorf("failed to encode GeoTIFF: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}
