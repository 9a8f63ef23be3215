package geo

import (
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"
)

// ConvertGeoPoint converts the non-GeoJSON geo_point encodings to a Point:
//
//	{"lat": 41.12, "lon": -71.34}   object, numbers or numeric strings
//	"41.12,-71.34"                  "lat,lon" string
//	[-71.34, 41.12]                 [lon, lat] array, optional z ignored
//	"drm3btev3e86"                  geohash
//
// Coordinates are always emitted as [lon, lat].
func ConvertGeoPoint(value interface{}) (GeoJSONGeometry, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		lat, okLat := numeric(v["lat"])
		lon, okLon := numeric(v["lon"])
		if !okLat || !okLon {
			return GeoJSONGeometry{}, false
		}
		return point(lon, lat)

	case []interface{}:
		if len(v) < 2 || len(v) > 3 {
			return GeoJSONGeometry{}, false
		}
		lon, okLon := numeric(v[0])
		lat, okLat := numeric(v[1])
		if !okLat || !okLon {
			return GeoJSONGeometry{}, false
		}
		return point(lon, lat)

	case []float64:
		if len(v) < 2 || len(v) > 3 {
			return GeoJSONGeometry{}, false
		}
		return point(v[0], v[1])

	case string:
		s := strings.TrimSpace(v)
		if parts := strings.Split(s, ","); len(parts) == 2 {
			lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if errLat != nil || errLon != nil {
				return GeoJSONGeometry{}, false
			}
			return point(lon, lat)
		}
		if s == "" || geohash.Validate(strings.ToLower(s)) != nil {
			return GeoJSONGeometry{}, false
		}
		lat, lon := geohash.DecodeCenter(strings.ToLower(s))
		return point(lon, lat)
	}

	return GeoJSONGeometry{}, false
}

func point(lon, lat float64) (GeoJSONGeometry, bool) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return GeoJSONGeometry{}, false
	}
	return GeoJSONGeometry{Type: "Point", Coordinates: []float64{lon, lat}}, true
}

func numeric(v interface{}) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return toFloat(v)
}
