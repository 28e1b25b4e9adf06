package crs

import (
	"fmt"
	"strconv"
	"strings"

	"geosat/internal/common"
)

// Kind selects the projection family of an Entry
type Kind int

const (
	KindGeographic Kind = iota
	KindWebMercator
	KindTransverseMercator
)

func (k Kind) String() string {
	switch k {
	case KindGeographic:
		return "geographic"
	case KindWebMercator:
		return "web-mercator"
	case KindTransverseMercator:
		return "transverse-mercator"
	default:
		return "unknown"
	}
}

// Params holds the projection parameters of a CRS.
// The transverse Mercator fields are only meaningful for KindTransverseMercator.
type Params struct {
	Kind             Kind
	CentralMeridian  float64
	LatitudeOfOrigin float64
	ScaleFactor      float64
	FalseEasting     float64
	FalseNorthing    float64
}

// Entry is an immutable catalog record. Entries compare equal by value.
type Entry struct {
	Code   string
	Name   string
	Params Params
}

// EPSG returns the numeric part of the code
func (e Entry) EPSG() int {
	n, _ := strconv.Atoi(strings.TrimPrefix(e.Code, "EPSG:"))
	return n
}

// Geographic reports whether coordinates are lon/lat degrees
func (e Entry) Geographic() bool {
	return e.Params.Kind == KindGeographic
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.Code, e.Name)
}

var (
	WGS84 = Entry{
		Code:   "EPSG:4326",
		Name:   "WGS 84 (Lat/Lon)",
		Params: Params{Kind: KindGeographic},
	}
	WebMercator = Entry{
		Code:   "EPSG:3857",
		Name:   "Web Mercator",
		Params: Params{Kind: KindWebMercator},
	}
)

// catalog is the static list offered to users, in display order
var catalog = []Entry{
	WGS84,
	WebMercator,
	UTMZone(32, true),
	UTMZone(33, true),
	UTMZone(34, true),
	UTMZone(35, true),
}

// All returns a copy of the static catalog
func All() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// UTMZone synthesizes a WGS 84 / UTM entry for zone 1..60
func UTMZone(zone int, north bool) Entry {
	code := 32700 + zone
	hemi := "S"
	falseNorthing := 10000000.0
	if north {
		code = 32600 + zone
		hemi = "N"
		falseNorthing = 0
	}
	return Entry{
		Code: fmt.Sprintf("EPSG:%d", code),
		Name: fmt.Sprintf("UTM Zone %d%s", zone, hemi),
		Params: Params{
			Kind:             KindTransverseMercator,
			CentralMeridian:  float64(zone*6 - 183),
			LatitudeOfOrigin: 0,
			ScaleFactor:      0.9996,
			FalseEasting:     500000,
			FalseNorthing:    falseNorthing,
		},
	}
}

// NormalizeCode canonicalizes "epsg:32633", "32633" and "EPSG:32633"
func NormalizeCode(code string) (string, int, error) {
	s := strings.TrimSpace(strings.ToUpper(code))
	s = strings.TrimPrefix(s, "EPSG:")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("invalid CRS code %q", code)
	}
	return fmt.Sprintf("EPSG:%d", n), n, nil
}

// Lookup resolves a code from the catalog or synthesizes a UTM zone
func Lookup(code string) (Entry, error) {
	canonical, n, err := NormalizeCode(code)
	if err != nil {
		return Entry{}, &common.ProjectionError{Code: code, Op: "lookup", Err: err}
	}

	for _, e := range catalog {
		if e.Code == canonical {
			return e, nil
		}
	}

	switch {
	case n > 32600 && n <= 32660:
		return UTMZone(n-32600, true), nil
	case n > 32700 && n <= 32760:
		return UTMZone(n-32700, false), nil
	}

	return Entry{}, &common.ProjectionError{Code: canonical, Op: "lookup", Reason: "unsupported CRS"}
}

// UTMZoneFor returns the UTM entry whose zone contains lon/lat
func UTMZoneFor(lon, lat float64) Entry {
	zone := int((lon+180)/6) + 1
	if zone > 60 {
		zone = 60
	}
	if zone < 1 {
		zone = 1
	}
	return UTMZone(zone, lat >= 0)
}
