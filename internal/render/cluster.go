// Package render turns layer specifications and documents into map sources and layers.
package render

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/clustermap/internal/geo"
	"github.com/woozymasta/clustermap/internal/layer"
	"github.com/woozymasta/clustermap/internal/maplibre"
	"github.com/woozymasta/clustermap/internal/search"
)

// MapRef points at the map instance, which may not exist yet. Attribution,
// when set, is attached to every source the render adds.
type MapRef struct {
	Current     maplibre.Map
	Attribution string
}

// LayerSource builds the feature collection of a layer. Documents whose geo
// field is missing or cannot be turned into a geometry are left out.
func LayerSource(docs []search.Document, spec layer.ClusterLayerSpecification) geo.GeoJSONFeatureCollection {
	fc := geo.NewFeatureCollection()
	fieldName := spec.Source.GeoFieldName
	fieldType := spec.Source.GeoFieldType

	for _, doc := range docs {
		value, ok := geo.FieldValue(doc.Source, fieldName)
		if !ok {
			continue
		}
		geometry, ok := geo.BuildGeometry(fieldType, value)
		if !ok {
			continue
		}

		// TODO: pass spec.Source.TooltipFields once the viewer renders tooltips.
		fc.Features = append(fc.Features, geo.NewFeature(geometry, BuildProperties(doc, nil)))
	}

	return fc
}

// BuildProperties copies the listed fields of a document into a property map.
// Fields absent from the document are skipped.
func BuildProperties(doc search.Document, fields []string) map[string]interface{} {
	props := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		if v, ok := geo.FieldValue(doc.Source, field); ok {
			props[field] = v
		}
	}
	return props
}

// CircleSpec maps a layer specification to its circle style.
func CircleSpec(spec layer.ClusterLayerSpecification) maplibre.CircleLayerSpecification {
	return maplibre.CircleLayerSpecification{
		SourceID:     spec.ID,
		FillColor:    spec.Style.FillColor,
		OutlineColor: spec.Style.BorderColor,
		Visibility:   spec.Visibility,
		Radius:       spec.Style.MarkerSize,
		Width:        spec.Style.BorderThickness,
		Opacity:      spec.Opacity,
		MinZoom:      spec.MinZoom(),
		MaxZoom:      spec.MaxZoom(),
	}
}

// Render adds the layer to the map, or updates it when the map already has
// it. Rendering the same data twice leaves the map as a single render would.
// A nil map is a no-op.
func Render(ref *MapRef, spec layer.ClusterLayerSpecification, docs []search.Document, beforeLayerID string) error {
	if ref == nil || ref.Current == nil {
		return nil
	}

	m := ref.Current
	fc := LayerSource(docs, spec)

	log.Debug().
		Str("layer", spec.ID).
		Int("documents", len(docs)).
		Int("features", len(fc.Features)).
		Msg("Rendering cluster layer")

	if maplibre.HasLayer(m, spec.ID) {
		return updateLayer(m, spec, fc)
	}
	return addNewLayer(m, spec, fc, ref.Attribution, beforeLayerID)
}

func addNewLayer(m maplibre.Map, spec layer.ClusterLayerSpecification, fc geo.GeoJSONFeatureCollection, attribution, beforeLayerID string) error {
	src := maplibre.Source{Type: "geojson", Data: fc}
	if attribution != "" {
		src.Options = map[string]interface{}{"attribution": attribution}
	}
	if err := m.AddSource(spec.ID, src); err != nil {
		return fmt.Errorf("add layer %s: %w", spec.ID, err)
	}
	if _, err := maplibre.AddCircleLayer(m, CircleSpec(spec), beforeLayerID); err != nil {
		return fmt.Errorf("add layer %s: %w", spec.ID, err)
	}
	return nil
}

func updateLayer(m maplibre.Map, spec layer.ClusterLayerSpecification, fc geo.GeoJSONFeatureCollection) error {
	if _, ok := m.GetSource(spec.ID); ok {
		if err := m.SetSourceData(spec.ID, fc); err != nil {
			return fmt.Errorf("update layer %s: %w", spec.ID, err)
		}
	}
	if _, err := maplibre.UpdateCircleLayer(m, CircleSpec(spec)); err != nil {
		return fmt.Errorf("update layer %s: %w", spec.ID, err)
	}
	return nil
}

// Remove deletes the circle layer and source of a layer id.
func Remove(m maplibre.Map, id string) error {
	if m == nil {
		return nil
	}
	if _, ok := m.GetLayer(maplibre.CircleLayerID(id)); ok {
		if err := m.RemoveLayer(maplibre.CircleLayerID(id)); err != nil {
			return err
		}
	}
	if _, ok := m.GetSource(id); ok {
		return m.RemoveSource(id)
	}
	return nil
}

// RenderClusterMap adds a cluster map layer to the map. The source is only
// added when sourceAlreadyAdded is false, so several layers can share it.
func RenderClusterMap(m maplibre.Map, l *layer.ClusterMapLayer, sourceID string, sourceAlreadyAdded bool) error {
	if m == nil || l == nil {
		return nil
	}

	if !sourceAlreadyAdded {
		if err := m.AddSource(sourceID, sourceFromJSON(l.SourceJSON())); err != nil {
			return fmt.Errorf("cluster map %s: %w", l.Name, err)
		}
	}
	if err := m.AddLayer(layerFromJSON(l.LayerJSON(sourceID)), ""); err != nil {
		return fmt.Errorf("cluster map %s: %w", l.Name, err)
	}
	return nil
}

func sourceFromJSON(doc map[string]interface{}) maplibre.Source {
	src := maplibre.Source{Options: map[string]interface{}{}}
	for k, v := range doc {
		switch k {
		case "type":
			src.Type, _ = v.(string)
		case "data":
			src.Data = v
		default:
			src.Options[k] = v
		}
	}
	return src
}

func layerFromJSON(doc map[string]interface{}) maplibre.Layer {
	l := maplibre.Layer{}
	l.ID, _ = doc["id"].(string)
	l.Type, _ = doc["type"].(string)
	l.Source, _ = doc["source"].(string)
	l.Filter, _ = doc["filter"].([]interface{})
	l.Paint, _ = doc["paint"].(map[string]interface{})
	return l
}
