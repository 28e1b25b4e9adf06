package tiles

import (
	"math"
)

const (
	// TileSize is the edge length of a slippy-map tile in pixels
	TileSize = 256

	// MaxZoom is the deepest zoom level the pipeline requests
	MaxZoom = 18

	// EarthCircumference is the equatorial circumference in meters
	EarthCircumference = 40075016.686
)

// Key addresses one tile in the Web Mercator slippy-map grid
type Key struct {
	Zoom int `json:"z"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

// Valid reports whether the key lies inside its zoom level's grid
func (k Key) Valid() bool {
	if k.Zoom < 0 || k.Zoom > MaxZoom {
		return false
	}
	n := 1 << k.Zoom
	return k.X >= 0 && k.X < n && k.Y >= 0 && k.Y < n
}

func tilesAt(zoom int) float64 {
	return math.Exp2(float64(zoom))
}

func clampIndex(v float64, zoom int) int {
	i := int(math.Floor(v))
	if i < 0 {
		return 0
	}
	if maxIdx := (1 << zoom) - 1; i > maxIdx {
		return maxIdx
	}
	return i
}

// LonToTileX returns the tile column containing lon
func LonToTileX(lon float64, zoom int) int {
	return clampIndex((lon+180)/360*tilesAt(zoom), zoom)
}

// LatToTileY returns the tile row containing lat. Rows grow southward.
func LatToTileY(lat float64, zoom int) int {
	lat = math.Max(MinLat, math.Min(MaxLat, lat))
	rad := lat * math.Pi / 180
	v := (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2 * tilesAt(zoom)
	return clampIndex(v, zoom)
}

// TileXToLon returns the western edge of column x
func TileXToLon(x, zoom int) float64 {
	return float64(x)/tilesAt(zoom)*360 - 180
}

// TileYToLat returns the northern edge of row y
func TileYToLat(y, zoom int) float64 {
	n := math.Pi - 2*math.Pi*float64(y)/tilesAt(zoom)
	return math.Atan(math.Sinh(n)) * 180 / math.Pi
}

// TileBounds returns the WGS84 extent of a single tile
func TileBounds(k Key) BoundingBox {
	return BoundingBox{
		MinLon: TileXToLon(k.X, k.Zoom),
		MinLat: TileYToLat(k.Y+1, k.Zoom),
		MaxLon: TileXToLon(k.X+1, k.Zoom),
		MaxLat: TileYToLat(k.Y, k.Zoom),
	}
}

// GroundResolution returns meters per pixel at lat for zoom
func GroundResolution(lat float64, zoom int) float64 {
	return EarthCircumference * math.Cos(lat*math.Pi/180) / (TileSize * tilesAt(zoom))
}

// ChooseZoom returns the shallowest zoom whose ground resolution at lat is
// at most targetMetersPerPixel, or MaxZoom when none qualifies
func ChooseZoom(lat, targetMetersPerPixel float64) int {
	for z := 0; z <= MaxZoom; z++ {
		if GroundResolution(lat, z) <= targetMetersPerPixel {
			return z
		}
	}
	return MaxZoom
}
