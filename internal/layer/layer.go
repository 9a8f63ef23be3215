package layer

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SourceCluster is the source category of cluster map layers.
const SourceCluster = "geospatial"

// Map renderer layer types.
// https://maplibre.org/maplibre-style-spec/layers/#type
const (
	TypeFill          = "fill"
	TypeLine          = "line"
	TypeSymbol        = "symbol"
	TypeCircle        = "circle"
	TypeHeatmap       = "heatmap"
	TypeFillExtrusion = "fill-extrusion"
	TypeRaster        = "raster"
	TypeHillshade     = "hillshade"
	TypeBackground    = "background"
)

// SourceProperties lists the properties each map source type accepts.
// https://maplibre.org/maplibre-style-spec/sources/
var SourceProperties = map[string][]string{
	"vector": {"attribution", "bounds", "maxzoom", "minzoom", "promoteId",
		"scheme", "tiles", "url", "volatile"},
	"raster": {"attribution", "bounds", "maxzoom", "minzoom", "scheme",
		"tileSize", "tiles", "url", "volatile"},
	"geojson": {"attribution", "buffer", "cluster", "clusterMaxZoom", "clusterMinPoints",
		"clusterProperties", "clusterRadius", "data", "filter", "generateId", "lineMetrics",
		"maxzoom", "promoteId", "tolerance"},
}

// Layer carries the identity shared by every map layer.
type Layer struct {
	CreatedTime time.Time `json:"createdTime"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ID          string    `json:"id"`
	Type        string    `json:"type"`
}

// NewLayer returns a layer with a fresh random id.
func NewLayer(name, sourceType, description string) Layer {
	return Layer{
		CreatedTime: time.Now(),
		Name:        name,
		Description: description,
		ID:          uuid.New().String(),
		Type:        sourceType,
	}
}

// IsSourceProperty reports whether property is valid for the given source type.
func IsSourceProperty(sourceType, property string) bool {
	return slices.Contains(SourceProperties[sourceType], property)
}
