package layer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrInvalidSourceProperty is returned for source properties the cluster
// source type does not accept.
var ErrInvalidSourceProperty = errors.New("property is not part of the cluster source type")

// clusterSourceType is the map source type backing cluster layers.
const clusterSourceType = "geojson"

// ClusterMapLayerProps describes the visual part of a cluster map layer.
//
// Filter is an expression selecting the source features to display and Paint
// holds the paint properties of the layer.
type ClusterMapLayerProps struct {
	Paint       map[string]interface{}
	Name        string
	Description string
	Filter      []interface{}
}

// ClusterMapLayer is a validated cluster layer ready to be added to a map.
type ClusterMapLayer struct {
	Layer
	sourceProps map[string]interface{}
	paint       map[string]interface{}
	layerType   string
	filter      []interface{}
}

// NewClusterMapLayer validates the source properties and builds a circle layer.
func NewClusterMapLayer(props ClusterMapLayerProps, sourceProps map[string]interface{}) (*ClusterMapLayer, error) {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(sourceProps)) {
		if !IsSourceProperty(clusterSourceType, name) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidSourceProperty, name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &ClusterMapLayer{
		Layer:       NewLayer(props.Name, SourceCluster, props.Description),
		sourceProps: maps.Clone(sourceProps),
		layerType:   TypeCircle,
		filter:      props.Filter,
		paint:       maps.Clone(props.Paint),
	}, nil
}

// LayerType returns the renderer layer type.
func (l *ClusterMapLayer) LayerType() string { return l.layerType }

// SourceJSON returns the map source document of the layer.
func (l *ClusterMapLayer) SourceJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(l.sourceProps)+1)
	maps.Copy(out, l.sourceProps)
	out["type"] = clusterSourceType
	return out
}

// LayerJSON returns the map layer document of the layer bound to sourceID.
func (l *ClusterMapLayer) LayerJSON(sourceID string) map[string]interface{} {
	out := map[string]interface{}{
		"id":     l.ID,
		"type":   l.layerType,
		"source": sourceID,
	}
	if len(l.filter) > 0 {
		out["filter"] = l.filter
	}
	if len(l.paint) > 0 {
		out["paint"] = l.paint
	}
	return out
}
