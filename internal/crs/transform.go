package crs

import (
	"fmt"
	"math"

	"github.com/wroge/wgs84"

	"geosat/internal/common"
	"geosat/internal/tiles"
)

type transformFunc = func(a, b, c float64) (a2, b2, c2 float64)

// Transformer converts between one CRS and WGS84 lon/lat
type Transformer struct {
	entry   Entry
	toGeo   transformFunc
	fromGeo transformFunc
}

// NewTransformer builds forward and inverse transforms for entry
func NewTransformer(entry Entry) (*Transformer, error) {
	lonLat := wgs84.WGS84().LonLat()
	t := &Transformer{entry: entry}

	switch entry.Params.Kind {
	case KindGeographic:
		identity := func(a, b, c float64) (float64, float64, float64) { return a, b, c }
		t.toGeo, t.fromGeo = identity, identity
	case KindWebMercator:
		mercator := wgs84.WebMercator()
		t.toGeo = wgs84.Transform(mercator, lonLat)
		t.fromGeo = wgs84.Transform(lonLat, mercator)
	case KindTransverseMercator:
		p := entry.Params
		if p.ScaleFactor <= 0 {
			return nil, &common.ProjectionError{Code: entry.Code, Op: "init", Reason: fmt.Sprintf("invalid scale factor %v", p.ScaleFactor)}
		}
		tm := wgs84.WGS84().TransverseMercator(p.CentralMeridian, p.LatitudeOfOrigin, p.ScaleFactor, p.FalseEasting, p.FalseNorthing)
		t.fromGeo = wgs84.Transform(lonLat, tm)
		t.toGeo = refineInverse(wgs84.Transform(tm, lonLat), t.fromGeo)
	default:
		return nil, &common.ProjectionError{Code: entry.Code, Op: "init", Reason: "unsupported projection " + entry.Params.Kind.String()}
	}

	return t, nil
}

// Entry returns the CRS the transformer was built for
func (t *Transformer) Entry() Entry {
	return t.entry
}

// ToWGS84 converts a drawing-CRS point to lon/lat degrees
func (t *Transformer) ToWGS84(x, y float64) (lon, lat float64, err error) {
	if !finite(x, y) {
		return 0, 0, t.singular("inverse", x, y)
	}
	lon, lat, _ = t.toGeo(x, y, 0)
	if !finite(lon, lat) || math.Abs(lat) > 90 {
		return 0, 0, t.singular("inverse", x, y)
	}
	return lon, lat, nil
}

// FromWGS84 converts lon/lat degrees to the drawing CRS
func (t *Transformer) FromWGS84(lon, lat float64) (x, y float64, err error) {
	if !finite(lon, lat) || math.Abs(lat) > 90 {
		return 0, 0, t.singular("forward", lon, lat)
	}
	// Web Mercator is unbounded at the poles
	if t.entry.Params.Kind == KindWebMercator && math.Abs(lat) == 90 {
		return 0, 0, t.singular("forward", lon, lat)
	}
	x, y, _ = t.fromGeo(lon, lat, 0)
	if !finite(x, y) {
		return 0, 0, t.singular("forward", lon, lat)
	}
	return x, y, nil
}

// BoxToWGS84 transforms two drawing-CRS corners and re-normalizes min/max
func (t *Transformer) BoxToWGS84(x1, y1, x2, y2 float64) (tiles.BoundingBox, error) {
	lon1, lat1, err := t.ToWGS84(x1, y1)
	if err != nil {
		return tiles.BoundingBox{}, err
	}
	lon2, lat2, err := t.ToWGS84(x2, y2)
	if err != nil {
		return tiles.BoundingBox{}, err
	}
	return tiles.NewBoundingBox(lon1, lat1, lon2, lat2), nil
}

// BoxFromWGS84 transforms a WGS84 box to drawing-CRS min/max corners
func (t *Transformer) BoxFromWGS84(b tiles.BoundingBox) (minX, minY, maxX, maxY float64, err error) {
	x1, y1, err := t.FromWGS84(b.MinLon, b.MinLat)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	x2, y2, err := t.FromWGS84(b.MaxLon, b.MaxLat)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return math.Min(x1, x2), math.Min(y1, y2), math.Max(x1, x2), math.Max(y1, y2), nil
}

const (
	// inverseTolerance is the accepted forward residual in CRS units
	inverseTolerance = 1e-9
	inverseMaxSteps  = 8
	// jacobianStep is the finite-difference step in degrees
	jacobianStep = 1e-7
)

// refineInverse wraps an approximate inverse with Newton steps on the forward
// transform. The library's transverse Mercator inverse drifts by meters away
// from the central meridian while its forward series is exact to the millimeter.
func refineInverse(approx, forward transformFunc) transformFunc {
	return func(x, y, z float64) (float64, float64, float64) {
		lon, lat, _ := approx(x, y, z)
		if !finite(lon, lat) {
			return lon, lat, z
		}
		for range inverseMaxSteps {
			fx, fy, _ := forward(lon, lat, 0)
			rx, ry := fx-x, fy-y
			if math.Hypot(rx, ry) < inverseTolerance {
				break
			}

			// central differences for the 2x2 Jacobian of (lon, lat) -> (x, y)
			xe, ye, _ := forward(lon+jacobianStep, lat, 0)
			xw, yw, _ := forward(lon-jacobianStep, lat, 0)
			xn, yn, _ := forward(lon, lat+jacobianStep, 0)
			xs, ys, _ := forward(lon, lat-jacobianStep, 0)
			a := (xe - xw) / (2 * jacobianStep)
			b := (xn - xs) / (2 * jacobianStep)
			c := (ye - yw) / (2 * jacobianStep)
			d := (yn - ys) / (2 * jacobianStep)

			det := a*d - b*c
			if det == 0 || !finite(det) {
				break
			}
			dLon := (d*rx - b*ry) / det
			dLat := (a*ry - c*rx) / det
			lon -= dLon
			lat -= dLat
			if math.Abs(dLon) < 1e-15 && math.Abs(dLat) < 1e-15 {
				break
			}
		}
		return lon, lat, z
	}
}

func (t *Transformer) singular(op string, a, b float64) error {
	return &common.ProjectionError{
		Code:   t.entry.Code,
		Op:     op,
		Reason: fmt.Sprintf("no finite result for (%v, %v)", a, b),
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
