package crs

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geosat/internal/common"
	"geosat/internal/tiles"
)

func TestUTMToWGS84(t *testing.T) {
	tr, err := NewTransformer(UTMZone(33, true))
	require.NoError(t, err)

	lon, lat, err := tr.ToWGS84(500000, 4965000)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, lon, 1e-6, "easting 500000 sits on the central meridian")
	assert.Greater(t, lat, 40.0)
	assert.Less(t, lat, 55.0)
	assert.InDelta(t, 44.838, lat, 0.005)
}

func TestUTMRoundTrip(t *testing.T) {
	tr, err := NewTransformer(UTMZone(33, true))
	require.NoError(t, err)

	points := [][2]float64{
		{500000, 4965000},
		{510000, 4970000},
		{489250.5, 5301000.25},
	}
	for _, p := range points {
		lon, lat, err := tr.ToWGS84(p[0], p[1])
		require.NoError(t, err)
		x, y, err := tr.FromWGS84(lon, lat)
		require.NoError(t, err)
		assert.InDelta(t, p[0], x, 1e-6)
		assert.InDelta(t, p[1], y, 1e-6)
	}
}

func TestUTMRoundTripAwayFromMeridian(t *testing.T) {
	tr, err := NewTransformer(UTMZone(34, true))
	require.NoError(t, err)

	lon, lat, err := tr.ToWGS84(300000, 5500000)
	require.NoError(t, err)
	x, y, err := tr.FromWGS84(lon, lat)
	require.NoError(t, err)
	assert.InDelta(t, 300000, x, 1e-3)
	assert.InDelta(t, 5500000, y, 1e-3)
}

func TestUTMInverseAcrossZone(t *testing.T) {
	tr, err := NewTransformer(UTMZone(33, true))
	require.NoError(t, err)

	x, y, err := tr.FromWGS84(15, 50)
	require.NoError(t, err)
	assert.InDelta(t, 500000, x, 1e-3)
	assert.InDelta(t, 5538630.703, y, 1e-3)

	// up to 3 degrees off the central meridian
	for _, lon := range []float64{15, 15.1, 13, 12, 18} {
		for _, lat := range []float64{0.5, 30, 50, 70} {
			x, y, err := tr.FromWGS84(lon, lat)
			require.NoError(t, err)
			gotLon, gotLat, err := tr.ToWGS84(x, y)
			require.NoError(t, err)
			assert.InDelta(t, lon, gotLon, 1e-9, "lon at (%v, %v)", lon, lat)
			assert.InDelta(t, lat, gotLat, 1e-9, "lat at (%v, %v)", lon, lat)
		}
	}
}

func TestSouthernUTM(t *testing.T) {
	tr, err := NewTransformer(UTMZone(56, false))
	require.NoError(t, err)

	x, y, err := tr.FromWGS84(153, -33.9)
	require.NoError(t, err)
	assert.InDelta(t, 500000, x, 1e-3)
	assert.Greater(t, y, 6000000.0)
	assert.Less(t, y, 10000000.0)
}

func TestWebMercator(t *testing.T) {
	tr, err := NewTransformer(WebMercator)
	require.NoError(t, err)

	x, y, err := tr.FromWGS84(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, _, err = tr.FromWGS84(180, 0)
	require.NoError(t, err)
	assert.InDelta(t, tiles.EarthCircumference/2, x, 1)

	lon, lat, err := tr.ToWGS84(1113194.9079, 6800125.4544)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, lon, 1e-6)
	assert.InDelta(t, 52.0, lat, 1e-6)

	_, _, err = tr.FromWGS84(0, 90)
	var perr *common.ProjectionError
	assert.True(t, errors.As(err, &perr))
}

func TestGeographicIdentity(t *testing.T) {
	tr, err := NewTransformer(WGS84)
	require.NoError(t, err)

	lon, lat, err := tr.ToWGS84(8.5, 47.3)
	require.NoError(t, err)
	assert.Equal(t, 8.5, lon)
	assert.Equal(t, 47.3, lat)

	_, _, err = tr.ToWGS84(8.5, 91)
	assert.Error(t, err)
}

func TestBoxToWGS84Normalizes(t *testing.T) {
	tr, err := NewTransformer(UTMZone(33, true))
	require.NoError(t, err)

	// corners given SE then NW
	box, err := tr.BoxToWGS84(501000, 4964000, 499000, 4966000)
	require.NoError(t, err)
	assert.Less(t, box.MinLon, box.MaxLon)
	assert.Less(t, box.MinLat, box.MaxLat)
	require.NoError(t, box.Validate())

	minX, minY, maxX, maxY, err := tr.BoxFromWGS84(box)
	require.NoError(t, err)
	assert.InDelta(t, 499000, minX, 1)
	assert.InDelta(t, 501000, maxX, 1)
	assert.InDelta(t, 4964000, minY, 1)
	assert.InDelta(t, 4966000, maxY, 1)
}

func TestNonFiniteInput(t *testing.T) {
	tr, err := NewTransformer(UTMZone(33, true))
	require.NoError(t, err)

	_, _, err = tr.ToWGS84(math.NaN(), 0)
	var perr *common.ProjectionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "EPSG:32633", perr.Code)

	_, _, err = tr.FromWGS84(math.Inf(1), 0)
	assert.True(t, errors.As(err, &perr))
}

func TestUnsupportedParams(t *testing.T) {
	_, err := NewTransformer(Entry{Code: "EPSG:1", Params: Params{Kind: Kind(42)}})
	var perr *common.ProjectionError
	assert.True(t, errors.As(err, &perr))

	_, err = NewTransformer(Entry{Code: "EPSG:2", Params: Params{Kind: KindTransverseMercator}})
	assert.True(t, errors.As(err, &perr))
}
