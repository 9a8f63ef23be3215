// Package geo handles geographic data structures and geometry normalization.
package geo

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type" yaml:"type"`
	Features []GeoJSONFeature `json:"features" yaml:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry" yaml:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature (Point, Polygon, etc.).
// Coordinates are kept as received, so nested arrays of any depth and
// orb geometries produced by the WKT parser are both valid values.
type GeoJSONGeometry struct {
	Type        string            `json:"type" yaml:"type"`
	Coordinates interface{}       `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Geometries  []GeoJSONGeometry `json:"geometries,omitempty" yaml:"geometries,omitempty"`
}

// NewFeatureCollection returns an empty, non-nil feature collection.
func NewFeatureCollection() GeoJSONFeatureCollection {
	return GeoJSONFeatureCollection{Type: "FeatureCollection", Features: []GeoJSONFeature{}}
}

// NewFeature wraps a geometry into a feature. Nil properties become an empty object.
func NewFeature(g GeoJSONGeometry, props map[string]interface{}) GeoJSONFeature {
	if props == nil {
		props = map[string]interface{}{}
	}
	return GeoJSONFeature{Type: "Feature", Geometry: g, Properties: props}
}

// Bound returns the bounding box of all features. ok is false when no
// feature carries a readable coordinate.
func (fc GeoJSONFeatureCollection) Bound() (b orb.Bound, ok bool) {
	for _, f := range fc.Features {
		fb, fok := f.Geometry.Bound()
		if !fok {
			continue
		}
		if !ok {
			b, ok = fb, true
			continue
		}
		b = b.Union(fb)
	}
	return b, ok
}

// Bound returns the bounding box of the geometry.
func (g GeoJSONGeometry) Bound() (orb.Bound, bool) {
	var pts orb.MultiPoint
	if g.Type == "GeometryCollection" {
		for _, child := range g.Geometries {
			if cb, ok := child.Bound(); ok {
				pts = append(pts, cb.Min, cb.Max)
			}
		}
	} else {
		pts = collectPoints(g.Coordinates, pts)
	}

	if len(pts) == 0 {
		return orb.Bound{}, false
	}
	return pts.Bound(), true
}

func collectPoints(v interface{}, acc orb.MultiPoint) orb.MultiPoint {
	switch c := v.(type) {
	case orb.Geometry:
		if c == nil {
			return acc
		}
		b := c.Bound()
		return append(acc, b.Min, b.Max)
	case []float64:
		if len(c) >= 2 {
			acc = append(acc, orb.Point{c[0], c[1]})
		}
	case []interface{}:
		if p, ok := asPosition(c); ok {
			return append(acc, p)
		}
		for _, item := range c {
			acc = collectPoints(item, acc)
		}
	}
	return acc
}

// asPosition reports whether v is a single [x, y, ...] position.
func asPosition(v []interface{}) (orb.Point, bool) {
	if len(v) < 2 {
		return orb.Point{}, false
	}
	x, okX := toFloat(v[0])
	y, okY := toFloat(v[1])
	if !okX || !okY {
		return orb.Point{}, false
	}
	return orb.Point{x, y}, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
