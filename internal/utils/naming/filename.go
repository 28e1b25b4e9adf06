package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"geosat/internal/common"
)

// OutputBaseName is the mosaic name without extension.
// Format: geosat_{yyyyMMdd_HHmmss}
func OutputBaseName(t time.Time) string {
	return "geosat_" + t.Format(common.OutputTimestamp)
}

// OutputPath returns a path in dir for a mosaic created at t.
// Runs landing in the same second get a numeric suffix instead of
// overwriting an earlier image.
func OutputPath(dir string, t time.Time, format common.OutputFormat) string {
	base := OutputBaseName(t)
	path := filepath.Join(dir, base+format.Extension())
	for i := 2; exists(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, format.Extension()))
	}
	return path
}

// FootprintPath returns the GeoJSON sidecar path next to an image
func FootprintPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return imagePath[:len(imagePath)-len(ext)] + ".geojson"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
