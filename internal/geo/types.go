package geo

import "strings"

// Geo field types understood by the geometry builder.
const (
	FieldTypeGeoPoint = "geo_point"
	FieldTypeGeoShape = "geo_shape"
)

// canonicalTypes maps lowercase geo_shape type names to GeoJSON type names.
// https://opensearch.org/docs/1.3/opensearch/supported-field-types/geo-shape
var canonicalTypes = map[string]string{
	"point":              "Point",
	"linestring":         "LineString",
	"polygon":            "Polygon",
	"multipoint":         "MultiPoint",
	"multilinestring":    "MultiLineString",
	"multipolygon":       "MultiPolygon",
	"geometrycollection": "GeometryCollection",
}

// CanonicalType returns the GeoJSON spelling of a geometry type name, in any case.
func CanonicalType(name string) (string, bool) {
	t, ok := canonicalTypes[strings.ToLower(name)]
	return t, ok
}
