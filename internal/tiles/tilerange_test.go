package tiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTileRangeInvertsY(t *testing.T) {
	bbox := NewBoundingBox(13.0, 52.0, 13.8, 52.8)
	r := GetTileRange(bbox, 10)

	assert.Equal(t, LatToTileY(52.8, 10), r.MinY)
	assert.Equal(t, LatToTileY(52.0, 10), r.MaxY)
	assert.Less(t, r.MinY, r.MaxY)
	require.NoError(t, r.Validate())
}

func TestRangeBoundsEnclosesBox(t *testing.T) {
	boxes := []BoundingBox{
		NewBoundingBox(13.0, 52.0, 13.8, 52.8),
		NewBoundingBox(-74.05, 40.6, -73.9, 40.9),
		NewBoundingBox(151.1, -33.95, 151.3, -33.8),
		NewBoundingBox(-0.01, -0.01, 0.01, 0.01),
		NewBoundingBox(10, 45, 10, 45),
	}
	for _, bbox := range boxes {
		for z := 0; z <= MaxZoom; z++ {
			enclosing := RangeBounds(GetTileRange(bbox, z))
			assert.True(t, enclosing.Contains(bbox), "z%d %s not inside %s", z, bbox, enclosing)
		}
	}
}

func TestSinglePointRange(t *testing.T) {
	for z := 0; z <= MaxZoom; z++ {
		r := GetTileRange(NewBoundingBox(8.5417, 47.3769, 8.5417, 47.3769), z)
		assert.Equal(t, 1, r.Total(), "zoom %d", z)
	}
}

func TestTilesEnumeration(t *testing.T) {
	ranges := []Range{
		{MinX: 0, MinY: 0, MaxX: 0, MaxY: 0, Zoom: 0},
		{MinX: 10, MinY: 20, MaxX: 14, MaxY: 24, Zoom: 6},
		{MinX: 3, MinY: 1, MaxX: 9, MaxY: 2, Zoom: 4},
	}
	for _, r := range ranges {
		count := 0
		for k := range r.Tiles() {
			assert.True(t, r.Contains(k))
			count++
		}
		assert.Equal(t, r.Total(), count, "range %s", r)
	}
}

func TestTilesRowMajorAndRestartable(t *testing.T) {
	r := Range{MinX: 1, MinY: 5, MaxX: 2, MaxY: 6, Zoom: 4}
	want := []Key{
		{Zoom: 4, X: 1, Y: 5},
		{Zoom: 4, X: 2, Y: 5},
		{Zoom: 4, X: 1, Y: 6},
		{Zoom: 4, X: 2, Y: 6},
	}

	collect := func() []Key {
		var got []Key
		for k := range r.Tiles() {
			got = append(got, k)
		}
		return got
	}
	assert.Equal(t, want, collect())
	assert.Equal(t, want, collect())

	// early break stops the sequence
	n := 0
	for range r.Tiles() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRangeValidate(t *testing.T) {
	assert.Error(t, Range{MinX: 2, MaxX: 1, Zoom: 3}.Validate())
	assert.Error(t, Range{MaxX: 8, Zoom: 3}.Validate())
	assert.Error(t, Range{Zoom: MaxZoom + 1}.Validate())
	assert.NoError(t, Range{MaxX: 7, MaxY: 7, Zoom: 3}.Validate())
}

func TestRangeDimensions(t *testing.T) {
	r := Range{MinX: 10, MinY: 20, MaxX: 12, MaxY: 21, Zoom: 8}
	assert.Equal(t, 3, r.CountX())
	assert.Equal(t, 2, r.CountY())
	assert.Equal(t, 6, r.Total())
	assert.Equal(t, 768, r.WidthPx())
	assert.Equal(t, 512, r.HeightPx())
}

func TestBoundingBox(t *testing.T) {
	b := NewBoundingBox(10, 50, 9, 48)
	assert.Equal(t, BoundingBox{MinLon: 9, MinLat: 48, MaxLon: 10, MaxLat: 50}, b)
	lon, lat := b.Center()
	assert.Equal(t, 9.5, lon)
	assert.Equal(t, 49.0, lat)
	assert.Equal(t, b, FromBound(b.Bound()))
	assert.NoError(t, b.Validate())
	assert.Error(t, BoundingBox{MinLon: -200, MaxLon: 0}.Validate())
}

func TestValidateMercator(t *testing.T) {
	tests := []struct {
		name    string
		box     BoundingBox
		wantErr bool
	}{
		{"mid latitudes", NewBoundingBox(13, 52, 14, 53), false},
		{"whole mercator world", NewBoundingBox(MinLon, MinLat, MaxLon, MaxLat), false},
		{"north of the limit", NewBoundingBox(-10, 85.06, 10, 86), true},
		{"crosses the south limit", NewBoundingBox(0, -86, 1, -80), true},
		{"pole", NewBoundingBox(0, 89, 1, 90), true},
		{"invalid longitude", BoundingBox{MinLon: -200, MaxLon: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.ValidateMercator()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, z := range []int{0, 1, 5, MaxZoom} {
				enclosing := RangeBounds(GetTileRange(tt.box, z))
				assert.True(t, enclosing.Contains(tt.box), "z%d %s not inside %s", z, tt.box, enclosing)
			}
		})
	}
}
