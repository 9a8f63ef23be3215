package geo

import (
	"strconv"
	"strings"
)

// FieldValue resolves a dot separated path ("location.geo") inside a document
// source. Numeric path segments index into arrays. An empty path, a missing key
// or a non-container on the way all yield (nil, false).
func FieldValue(source map[string]interface{}, path string) (interface{}, bool) {
	if path == "" || source == nil {
		return nil, false
	}

	var cur interface{} = source
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}

	return cur, true
}
