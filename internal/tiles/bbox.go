package tiles

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Web Mercator validity limits
const (
	MinLat = -85.0511287798
	MaxLat = 85.0511287798
	MinLon = -180.0
	MaxLon = 180.0
)

// BoundingBox is an axis-aligned WGS84 box in degrees
type BoundingBox struct {
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

// NewBoundingBox builds a box from two arbitrary corners
func NewBoundingBox(lon1, lat1, lon2, lat2 float64) BoundingBox {
	return BoundingBox{
		MinLon: math.Min(lon1, lon2),
		MinLat: math.Min(lat1, lat2),
		MaxLon: math.Max(lon1, lon2),
		MaxLat: math.Max(lat1, lat2),
	}
}

// FromBound converts an orb.Bound (X=lon, Y=lat)
func FromBound(b orb.Bound) BoundingBox {
	return NewBoundingBox(b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
}

// Bound converts the box to an orb.Bound
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

func (b BoundingBox) Width() float64  { return b.MaxLon - b.MinLon }
func (b BoundingBox) Height() float64 { return b.MaxLat - b.MinLat }

// Center returns the box midpoint as (lon, lat)
func (b BoundingBox) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// Contains reports whether other lies fully inside b
func (b BoundingBox) Contains(other BoundingBox) bool {
	return b.MinLon <= other.MinLon && b.MaxLon >= other.MaxLon &&
		b.MinLat <= other.MinLat && b.MaxLat >= other.MaxLat
}

// Validate checks ordering and the geographic value range
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bounding box has non-finite coordinate: %+v", b)
		}
	}
	if b.MinLat > b.MaxLat {
		return fmt.Errorf("minLat (%f) must not exceed maxLat (%f)", b.MinLat, b.MaxLat)
	}
	if b.MinLon > b.MaxLon {
		return fmt.Errorf("minLon (%f) must not exceed maxLon (%f)", b.MinLon, b.MaxLon)
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]: minLat=%f, maxLat=%f", b.MinLat, b.MaxLat)
	}
	if b.MinLon < MinLon || b.MaxLon > MaxLon {
		return fmt.Errorf("longitude out of range [-180, 180]: minLon=%f, maxLon=%f", b.MinLon, b.MaxLon)
	}
	return nil
}

// ValidateMercator runs Validate and also rejects latitudes outside the Web
// Mercator limits, where no tile range can cover the box
func (b BoundingBox) ValidateMercator() error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.MinLat < MinLat || b.MaxLat > MaxLat {
		return fmt.Errorf("latitude outside Web Mercator limits [%.6f, %.6f]: minLat=%f, maxLat=%f",
			MinLat, MaxLat, b.MinLat, b.MaxLat)
	}
	return nil
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.6f,%.6f %.6f,%.6f]", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}
