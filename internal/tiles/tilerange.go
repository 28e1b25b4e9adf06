package tiles

import (
	"fmt"
	"iter"
)

// Range is an inclusive rectangle of tiles at one zoom level
type Range struct {
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
	Zoom int `json:"zoom"`
}

// GetTileRange returns the tiles covering bbox at zoom.
// MinY comes from MaxLat because rows grow southward.
func GetTileRange(bbox BoundingBox, zoom int) Range {
	return Range{
		MinX: LonToTileX(bbox.MinLon, zoom),
		MaxX: LonToTileX(bbox.MaxLon, zoom),
		MinY: LatToTileY(bbox.MaxLat, zoom),
		MaxY: LatToTileY(bbox.MinLat, zoom),
		Zoom: zoom,
	}
}

func (r Range) CountX() int { return r.MaxX - r.MinX + 1 }
func (r Range) CountY() int { return r.MaxY - r.MinY + 1 }
func (r Range) Total() int  { return r.CountX() * r.CountY() }

// WidthPx and HeightPx are the mosaic dimensions for the range
func (r Range) WidthPx() int  { return r.CountX() * TileSize }
func (r Range) HeightPx() int { return r.CountY() * TileSize }

// Contains reports whether k lies inside the range
func (r Range) Contains(k Key) bool {
	return k.Zoom == r.Zoom && k.X >= r.MinX && k.X <= r.MaxX && k.Y >= r.MinY && k.Y <= r.MaxY
}

// Validate checks ordering and grid limits
func (r Range) Validate() error {
	if r.Zoom < 0 || r.Zoom > MaxZoom {
		return fmt.Errorf("zoom %d out of range [0, %d]", r.Zoom, MaxZoom)
	}
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return fmt.Errorf("invalid tile range %s", r)
	}
	n := 1 << r.Zoom
	if r.MinX < 0 || r.MinY < 0 || r.MaxX >= n || r.MaxY >= n {
		return fmt.Errorf("tile range %s outside grid of %d tiles", r, n)
	}
	return nil
}

// Tiles yields every key in row-major order (y outer, x inner).
// The sequence is computed from the bounds and can be ranged over repeatedly.
func (r Range) Tiles() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for y := r.MinY; y <= r.MaxY; y++ {
			for x := r.MinX; x <= r.MaxX; x++ {
				if !yield(Key{Zoom: r.Zoom, X: x, Y: y}) {
					return
				}
			}
		}
	}
}

// Bounds returns the WGS84 box enclosing the whole range: the NW corner of
// (MinX, MinY) to the NW corner of (MaxX+1, MaxY+1)
func (r Range) Bounds() BoundingBox {
	return RangeBounds(r)
}

// RangeBounds is the functional form of Range.Bounds
func RangeBounds(r Range) BoundingBox {
	return BoundingBox{
		MinLon: TileXToLon(r.MinX, r.Zoom),
		MaxLon: TileXToLon(r.MaxX+1, r.Zoom),
		MaxLat: TileYToLat(r.MinY, r.Zoom),
		MinLat: TileYToLat(r.MaxY+1, r.Zoom),
	}
}

func (r Range) String() string {
	return fmt.Sprintf("z%d x[%d..%d] y[%d..%d]", r.Zoom, r.MinX, r.MaxX, r.MinY, r.MaxY)
}
