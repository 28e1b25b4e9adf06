package crs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geosat/internal/common"
)

func TestCatalog(t *testing.T) {
	entries := All()
	require.Len(t, entries, 6)

	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{"EPSG:4326", "EPSG:3857", "EPSG:32632", "EPSG:32633", "EPSG:32634", "EPSG:32635"}, codes)
	assert.Equal(t, "WGS 84 (Lat/Lon)", entries[0].Name)
	assert.Equal(t, "UTM Zone 33N", entries[3].Name)

	// callers cannot mutate the catalog
	entries[0].Name = "changed"
	assert.Equal(t, "WGS 84 (Lat/Lon)", All()[0].Name)
}

func TestUTMZone(t *testing.T) {
	n := UTMZone(33, true)
	assert.Equal(t, "EPSG:32633", n.Code)
	assert.Equal(t, "UTM Zone 33N", n.Name)
	assert.Equal(t, 15.0, n.Params.CentralMeridian)
	assert.Equal(t, 0.0, n.Params.FalseNorthing)
	assert.Equal(t, 32633, n.EPSG())

	s := UTMZone(56, false)
	assert.Equal(t, "EPSG:32756", s.Code)
	assert.Equal(t, "UTM Zone 56S", s.Name)
	assert.Equal(t, 153.0, s.Params.CentralMeridian)
	assert.Equal(t, 10000000.0, s.Params.FalseNorthing)

	// value equality
	assert.Equal(t, UTMZone(33, true), n)
	assert.True(t, UTMZone(33, true) == n)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		code    string
		want    string
		wantErr bool
	}{
		{code: "EPSG:4326", want: "EPSG:4326"},
		{code: "epsg:3857", want: "EPSG:3857"},
		{code: "32633", want: "EPSG:32633"},
		{code: " EPSG:32610 ", want: "EPSG:32610"},
		{code: "EPSG:32760", want: "EPSG:32760"},
		{code: "EPSG:32661", wantErr: true},
		{code: "EPSG:2056", wantErr: true},
		{code: "not-a-code", wantErr: true},
		{code: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e, err := Lookup(tt.code)
			if tt.wantErr {
				var perr *common.ProjectionError
				require.Error(t, err)
				assert.True(t, errors.As(err, &perr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Code)
		})
	}
}

func TestUTMZoneFor(t *testing.T) {
	assert.Equal(t, "EPSG:32633", UTMZoneFor(15.2, 48).Code)
	assert.Equal(t, "EPSG:32756", UTMZoneFor(151.2, -33.9).Code)
	assert.Equal(t, "EPSG:32660", UTMZoneFor(180, 10).Code)
	assert.Equal(t, "EPSG:32601", UTMZoneFor(-180, 10).Code)
}
