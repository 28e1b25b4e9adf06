package common

import (
	"fmt"
	"strings"
)

// OutputFormat is the raster encoding of the stitched mosaic
type OutputFormat string

const (
	FormatJPEG    OutputFormat = "jpg"
	FormatPNG     OutputFormat = "png"
	FormatGeoTIFF OutputFormat = "tif"
)

// ParseOutputFormat converts a format string to an OutputFormat
// Accepted values: "jpg", "jpeg", "png", "tif", "tiff", "geotiff"
func ParseOutputFormat(format string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "tif", "tiff", "geotiff":
		return FormatGeoTIFF, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'jpg', 'png', or 'tif')", format)
	}
}

// Extension returns the file extension including the leading dot
func (f OutputFormat) Extension() string {
	return "." + string(f)
}

func (f OutputFormat) String() string {
	return string(f)
}
