package geo

import (
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// BuildGeometry turns a raw field value into a GeoJSON geometry.
//
// The value is tried, in order, as a GeoJSON object, as a WKT string and, for
// geo_point fields only, as one of the geo-point encodings. ok is false when
// none of them apply or when a GeoJSON object names an unknown type; callers
// drop such records.
func BuildGeometry(fieldType string, value interface{}) (GeoJSONGeometry, bool) {
	if obj, ok := value.(map[string]interface{}); ok && isGeoJSON(obj) {
		return fromGeoJSON(obj)
	}

	if s, ok := value.(string); ok {
		if g, err := ParseWKT(s); err == nil {
			return g, true
		}
	}

	if fieldType == FieldTypeGeoPoint {
		return ConvertGeoPoint(value)
	}

	return GeoJSONGeometry{}, false
}

const wktNumber = `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`

var (
	wktDimension  = regexp.MustCompile(`(?i)\b(POINT|LINESTRING|POLYGON|MULTIPOINT|MULTILINESTRING|MULTIPOLYGON|GEOMETRYCOLLECTION)\s+(?:ZM|Z|M)\s*([(]|EMPTY\b)`)
	wktExtraOrds  = regexp.MustCompile(`(` + wktNumber + `)\s+(` + wktNumber + `)(?:\s+` + wktNumber + `)+`)
	wktMultiPoint = regexp.MustCompile(`(?i)\bMULTIPOINT\s*\(([^()]*)\)`)
)

// ParseWKT parses a well-known-text string into a geometry. Z and M
// ordinates are dropped.
func ParseWKT(s string) (GeoJSONGeometry, error) {
	g, err := wkt.Unmarshal(normalizeWKT(s))
	if err != nil {
		return GeoJSONGeometry{}, err
	}
	return FromOrb(g), nil
}

// normalizeWKT rewrites the forms the decoder does not read: dimension tags
// with their extra ordinates, and multipoints without parentheses around
// each point.
func normalizeWKT(s string) string {
	s = strings.TrimSpace(s)
	s = wktDimension.ReplaceAllString(s, "$1 $2")
	s = wktExtraOrds.ReplaceAllString(s, "$1 $2")
	return wktMultiPoint.ReplaceAllStringFunc(s, func(m string) string {
		open := strings.IndexByte(m, '(')
		points := strings.Split(m[open+1:len(m)-1], ",")
		for i, p := range points {
			points[i] = "(" + strings.TrimSpace(p) + ")"
		}
		return m[:open] + "(" + strings.Join(points, ", ") + ")"
	})
}

// FromOrb converts an orb geometry to its GeoJSON form.
func FromOrb(g orb.Geometry) GeoJSONGeometry {
	switch v := g.(type) {
	case orb.Collection:
		out := GeoJSONGeometry{Type: "GeometryCollection", Geometries: make([]GeoJSONGeometry, 0, len(v))}
		for _, child := range v {
			out.Geometries = append(out.Geometries, FromOrb(child))
		}
		return out
	case orb.Ring:
		return GeoJSONGeometry{Type: "Polygon", Coordinates: orb.Polygon{v}}
	case orb.Bound:
		return GeoJSONGeometry{Type: "Polygon", Coordinates: v.ToPolygon()}
	}
	return GeoJSONGeometry{Type: g.GeoJSONType(), Coordinates: g}
}

func isGeoJSON(obj map[string]interface{}) bool {
	if _, ok := obj["type"].(string); !ok {
		return false
	}
	if _, ok := obj["coordinates"]; ok {
		return true
	}
	_, ok := obj["geometries"].([]interface{})
	return ok
}

func fromGeoJSON(obj map[string]interface{}) (GeoJSONGeometry, bool) {
	name, _ := obj["type"].(string)
	t, ok := CanonicalType(name)
	if !ok {
		return GeoJSONGeometry{}, false
	}

	if t != "GeometryCollection" {
		return GeoJSONGeometry{Type: t, Coordinates: obj["coordinates"]}, true
	}

	members, _ := obj["geometries"].([]interface{})
	out := GeoJSONGeometry{Type: t, Geometries: make([]GeoJSONGeometry, 0, len(members))}
	for _, m := range members {
		child, isObj := m.(map[string]interface{})
		if !isObj || !isGeoJSON(child) {
			return GeoJSONGeometry{}, false
		}
		g, ok := fromGeoJSON(child)
		if !ok {
			return GeoJSONGeometry{}, false
		}
		out.Geometries = append(out.Geometries, g)
	}
	return out, true
}
