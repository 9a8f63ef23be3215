package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func geometryJSON(t *testing.T, g GeoJSONGeometry) string {
	t.Helper()
	b, err := json.Marshal(g)
	require.NoError(t, err)
	return string(b)
}

func TestBuildGeometryGeoJSONTypes(t *testing.T) {
	cases := map[string]string{
		"point":              "Point",
		"linestring":         "LineString",
		"polygon":            "Polygon",
		"multipoint":         "MultiPoint",
		"multilinestring":    "MultiLineString",
		"multipolygon":       "MultiPolygon",
		"Point":              "Point",
		"MULTIPOLYGON":       "MultiPolygon",
		"geometrycollection": "GeometryCollection",
	}

	coords := []interface{}{1.0, 2.0}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			g, ok := BuildGeometry(FieldTypeGeoShape, map[string]interface{}{
				"type":        in,
				"coordinates": coords,
			})
			require.True(t, ok)
			assert.Equal(t, want, g.Type)
			if want != "GeometryCollection" {
				assert.Equal(t, coords, g.Coordinates)
			}
		})
	}
}

func TestBuildGeometryPassesCoordinatesThrough(t *testing.T) {
	raw := decode(t, `{"type":"polygon","coordinates":[[[0,0],[10,0],[10,10],[0,0]]]}`)

	g, ok := BuildGeometry(FieldTypeGeoShape, raw)
	require.True(t, ok)
	assert.Equal(t, "Polygon", g.Type)
	assert.Equal(t, raw.(map[string]interface{})["coordinates"], g.Coordinates)
}

func TestBuildGeometryUnknownGeoJSONType(t *testing.T) {
	_, ok := BuildGeometry(FieldTypeGeoShape, map[string]interface{}{
		"type":        "circle",
		"coordinates": []interface{}{1.0, 2.0},
		"radius":      "10m",
	})
	assert.False(t, ok)
}

func TestBuildGeometryCollection(t *testing.T) {
	raw := decode(t, `{"type":"geometrycollection","geometries":[
		{"type":"point","coordinates":[1,2]},
		{"type":"linestring","coordinates":[[1,2],[3,4]]}
	]}`)

	g, ok := BuildGeometry(FieldTypeGeoShape, raw)
	require.True(t, ok)
	require.Len(t, g.Geometries, 2)
	assert.Equal(t, "Point", g.Geometries[0].Type)
	assert.Equal(t, "LineString", g.Geometries[1].Type)

	bad := decode(t, `{"type":"geometrycollection","geometries":[{"type":"envelope","coordinates":[[1,2],[3,4]]}]}`)
	_, ok = BuildGeometry(FieldTypeGeoShape, bad)
	assert.False(t, ok)
}

func TestBuildGeometryWKT(t *testing.T) {
	cases := []struct {
		wkt  string
		want string
	}{
		{"POINT (30 10)", `{"type":"Point","coordinates":[30,10]}`},
		{"LINESTRING (30 10, 10 30, 40 40)", `{"type":"LineString","coordinates":[[30,10],[10,30],[40,40]]}`},
		{"POLYGON ((30 10, 40 40, 20 40, 30 10))", `{"type":"Polygon","coordinates":[[[30,10],[40,40],[20,40],[30,10]]]}`},
		{"MULTILINESTRING ((10 10, 20 20), (40 40, 30 30))", `{"type":"MultiLineString","coordinates":[[[10,10],[20,20]],[[40,40],[30,30]]]}`},
		{"MULTIPOLYGON (((30 20, 45 40, 10 40, 30 20)))", `{"type":"MultiPolygon","coordinates":[[[[30,20],[45,40],[10,40],[30,20]]]]}`},
		{"MULTIPOINT (10 40, 40 30)", `{"type":"MultiPoint","coordinates":[[10,40],[40,30]]}`},
		{"MULTIPOINT ((10 40), (40 30))", `{"type":"MultiPoint","coordinates":[[10,40],[40,30]]}`},
		{"POINT Z (30 10 5)", `{"type":"Point","coordinates":[30,10]}`},
		{"point m (30 10 7)", `{"type":"Point","coordinates":[30,10]}`},
		{"LINESTRING ZM (30 10 1 2, 10 30 3 4)", `{"type":"LineString","coordinates":[[30,10],[10,30]]}`},
	}

	for _, tc := range cases {
		t.Run(tc.wkt, func(t *testing.T) {
			g, ok := BuildGeometry(FieldTypeGeoShape, tc.wkt)
			require.True(t, ok)
			assert.JSONEq(t, tc.want, geometryJSON(t, g))
		})
	}
}

func TestNormalizeWKT(t *testing.T) {
	cases := map[string]string{
		"  POINT (30 10) ":                      "POINT (30 10)",
		"MULTIPOINT (10 40, 40 30)":             "MULTIPOINT ((10 40), (40 30))",
		"multipoint(-1.5 2e3,3 4)":              "multipoint((-1.5 2e3), (3 4))",
		"POINT Z (30 10 5)":                     "POINT (30 10)",
		"POLYGON Z EMPTY":                       "POLYGON EMPTY",
		"MULTIPOINT Z (1 2 3, 4 5 6)":           "MULTIPOINT ((1 2), (4 5))",
		"GEOMETRYCOLLECTION (MULTIPOINT (1 2))": "GEOMETRYCOLLECTION (MULTIPOINT ((1 2)))",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeWKT(in), in)
	}
}

func TestBuildGeometryWKTCollection(t *testing.T) {
	g, ok := BuildGeometry(FieldTypeGeoShape, "GEOMETRYCOLLECTION(POINT(4 6),LINESTRING(4 6,7 10))")
	require.True(t, ok)
	assert.Equal(t, "GeometryCollection", g.Type)
	require.Len(t, g.Geometries, 2)
	assert.Equal(t, "Point", g.Geometries[0].Type)
	assert.Equal(t, "LineString", g.Geometries[1].Type)
}

func TestBuildGeometryGeoPoint(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
	}{
		{"object", decode(t, `{"lat":40.7,"lon":-74.0}`)},
		{"object with strings", decode(t, `{"lat":"40.7","lon":"-74.0"}`)},
		{"lat lon string", "40.7,-74.0"},
		{"lat lon string with spaces", " 40.7 , -74.0 "},
		{"array", decode(t, `[-74.0, 40.7]`)},
		{"array with z", decode(t, `[-74.0, 40.7, 12]`)},
		{"wkt", "POINT (-74.0 40.7)"},
		{"geojson", decode(t, `{"type":"Point","coordinates":[-74.0,40.7]}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, ok := BuildGeometry(FieldTypeGeoPoint, tc.value)
			require.True(t, ok)
			assert.Equal(t, "Point", g.Type)
			assert.JSONEq(t, `{"type":"Point","coordinates":[-74,40.7]}`, geometryJSON(t, g))
		})
	}
}

func TestBuildGeometryGeohash(t *testing.T) {
	g, ok := BuildGeometry(FieldTypeGeoPoint, "u4pruydqqvj")
	require.True(t, ok)

	coords, isSlice := g.Coordinates.([]float64)
	require.True(t, isSlice)
	assert.InDelta(t, 10.40744, coords[0], 1e-4)
	assert.InDelta(t, 57.64911, coords[1], 1e-4)
}

func TestBuildGeometryRejects(t *testing.T) {
	cases := []struct {
		name      string
		fieldType string
		value     interface{}
	}{
		{"nil", FieldTypeGeoPoint, nil},
		{"number", FieldTypeGeoPoint, 42.0},
		{"shape with point object", FieldTypeGeoShape, decode(t, `{"lat":40.7,"lon":-74.0}`)},
		{"shape with garbage string", FieldTypeGeoShape, "not a geometry"},
		{"point with garbage string", FieldTypeGeoPoint, "not a geometry!"},
		{"point out of range", FieldTypeGeoPoint, "95,10"},
		{"point missing lon", FieldTypeGeoPoint, decode(t, `{"lat":40.7}`)},
		{"short array", FieldTypeGeoPoint, decode(t, `[1]`)},
		{"empty string", FieldTypeGeoPoint, ""},
		{"unknown field type", "keyword", "40.7,-74.0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := BuildGeometry(tc.fieldType, tc.value)
			assert.False(t, ok)
		})
	}
}

func TestCanonicalType(t *testing.T) {
	got, ok := CanonicalType("MultiLineString")
	require.True(t, ok)
	assert.Equal(t, "MultiLineString", got)

	_, ok = CanonicalType("envelope")
	assert.False(t, ok)
}
