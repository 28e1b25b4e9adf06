package tiles

import (
	"math"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLonLatToTile(t *testing.T) {
	tests := []struct {
		name  string
		lon   float64
		lat   float64
		zoom  int
		wantX int
		wantY int
	}{
		{name: "origin z0", lon: 0, lat: 0, zoom: 0, wantX: 0, wantY: 0},
		{name: "origin z1", lon: 0, lat: 0, zoom: 1, wantX: 1, wantY: 1},
		{name: "north west z1", lon: -90, lat: 45, zoom: 1, wantX: 0, wantY: 0},
		{name: "berlin z10", lon: 13.4050, lat: 52.5200, zoom: 10, wantX: 550, wantY: 335},
		{name: "antimeridian clamps", lon: 180, lat: 0, zoom: 3, wantX: 7, wantY: 4},
		{name: "pole clamps", lon: 0, lat: 90, zoom: 4, wantX: 8, wantY: 0},
		{name: "south pole clamps", lon: 0, lat: -90, zoom: 4, wantX: 8, wantY: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantX, LonToTileX(tt.lon, tt.zoom))
			assert.Equal(t, tt.wantY, LatToTileY(tt.lat, tt.zoom))
		})
	}
}

func TestTileBoundsRoundTrip(t *testing.T) {
	for z := 0; z <= MaxZoom; z += 3 {
		n := 1 << z
		samples := []int{0, n / 3, n / 2, n - 1}
		for _, x := range samples {
			for _, y := range samples {
				k := Key{Zoom: z, X: x, Y: y}
				b := TileBounds(k)

				lon, lat := b.Center()
				assert.Equal(t, x, LonToTileX(lon, z), "center x of %+v", k)
				assert.Equal(t, y, LatToTileY(lat, z), "center y of %+v", k)

				// NW corner nudged inside the tile
				eps := b.Height() * 1e-6
				assert.Equal(t, x, LonToTileX(b.MinLon+eps, z), "corner x of %+v", k)
				assert.Equal(t, y, LatToTileY(b.MaxLat-eps, z), "corner y of %+v", k)
			}
		}
	}
}

func TestTileBoundsMatchesMaptile(t *testing.T) {
	keys := []Key{
		{Zoom: 0, X: 0, Y: 0},
		{Zoom: 5, X: 17, Y: 11},
		{Zoom: 12, X: 2200, Y: 1343},
		{Zoom: 18, X: 140000, Y: 85000},
	}
	for _, k := range keys {
		want := maptile.New(uint32(k.X), uint32(k.Y), maptile.Zoom(k.Zoom)).Bound()
		got := TileBounds(k)
		assert.InDelta(t, want.Min.Lon(), got.MinLon, 1e-9)
		assert.InDelta(t, want.Max.Lon(), got.MaxLon, 1e-9)
		assert.InDelta(t, want.Min.Lat(), got.MinLat, 1e-9)
		assert.InDelta(t, want.Max.Lat(), got.MaxLat, 1e-9)
	}
}

func TestChooseZoom(t *testing.T) {
	assert.Equal(t, 14, ChooseZoom(0, 10))
	assert.Equal(t, 0, ChooseZoom(0, 1e6))
	assert.Equal(t, MaxZoom, ChooseZoom(0, 0.01))
	assert.GreaterOrEqual(t, ChooseZoom(0, 10), ChooseZoom(70, 10))

	prev := ChooseZoom(0, 10)
	for lat := 0.0; lat <= 85; lat += 5 {
		z := ChooseZoom(lat, 10)
		assert.LessOrEqual(t, z, prev, "lat %.0f", lat)
		assert.Equal(t, z, ChooseZoom(-lat, 10), "symmetry at lat %.0f", lat)
		prev = z
	}
}

func TestGroundResolution(t *testing.T) {
	require.InDelta(t, 156543.03, GroundResolution(0, 0), 0.01)
	assert.InDelta(t, GroundResolution(0, 1)/2, GroundResolution(0, 2), 1e-9)
	assert.InDelta(t, GroundResolution(0, 10)*math.Cos(60*math.Pi/180), GroundResolution(60, 10), 1e-9)
}

func TestKeyValid(t *testing.T) {
	assert.True(t, Key{Zoom: 0}.Valid())
	assert.True(t, Key{Zoom: 3, X: 7, Y: 7}.Valid())
	assert.False(t, Key{Zoom: 3, X: 8, Y: 0}.Valid())
	assert.False(t, Key{Zoom: 3, X: 0, Y: -1}.Valid())
	assert.False(t, Key{Zoom: MaxZoom + 1}.Valid())
}
