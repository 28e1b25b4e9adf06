package naming

import (
	"fmt"
	"math"
	"strings"

	"geosat/internal/tiles"
)

// Quadkey returns the Bing-style quadkey of a tile, one digit per zoom level
func Quadkey(key tiles.Key) string {
	var quadkey strings.Builder
	for i := key.Zoom; i > 0; i-- {
		digit := 0
		mask := 1 << (i - 1)
		if (key.X & mask) != 0 {
			digit++
		}
		if (key.Y & mask) != 0 {
			digit += 2
		}
		quadkey.WriteByte(byte('0' + digit))
	}
	return quadkey.String()
}

// CenterQuadkey returns the quadkey of the tile holding the center of r
func CenterQuadkey(r tiles.Range) string {
	return Quadkey(tiles.Key{
		Zoom: r.Zoom,
		X:    (r.MinX + r.MaxX) / 2,
		Y:    (r.MinY + r.MaxY) / 2,
	})
}

// BBoxLabel renders a WGS84 box as S-N_W-E with hemisphere suffixes
func BBoxLabel(b tiles.BoundingBox) string {
	return fmt.Sprintf("%s-%s_%s-%s",
		SanitizeCoordinate(b.MinLat, true),
		SanitizeCoordinate(b.MaxLat, true),
		SanitizeCoordinate(b.MinLon, false),
		SanitizeCoordinate(b.MaxLon, false))
}

// SanitizeCoordinate formats a coordinate for use in filenames (removes minus sign, uses N/S/E/W)
// Replaces decimal point with 'p' for Windows compatibility
func SanitizeCoordinate(coord float64, isLat bool) string {
	dir := "E"
	if isLat {
		if coord < 0 {
			dir = "S"
		} else {
			dir = "N"
		}
	} else if coord < 0 {
		dir = "W"
	}
	coordStr := fmt.Sprintf("%.4f", math.Abs(coord))
	coordStr = strings.Replace(coordStr, ".", "p", 1)
	return coordStr + dir
}
