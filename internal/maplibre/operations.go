package maplibre

import (
	"errors"
	"fmt"
)

// CircleLayerSpecification carries the circle style of a layer.
// Opacity is a percentage (0..100).
type CircleLayerSpecification struct {
	SourceID     string
	FillColor    string
	OutlineColor string
	Visibility   string
	Radius       float64
	Width        float64
	Opacity      float64
	MinZoom      float64
	MaxZoom      float64
}

// CircleLayerID returns the id of the circle layer drawn from sourceID.
func CircleLayerID(sourceID string) string {
	return sourceID + "-circle"
}

// HasLayer reports whether any layer draws from the source named id.
func HasLayer(m Map, id string) bool {
	if m == nil {
		return false
	}
	for _, l := range m.Layers() {
		if l.Source == id {
			return true
		}
	}
	return false
}

// AddCircleLayer adds a circle layer for spec.SourceID before beforeID and
// applies the style. It returns the new layer id.
func AddCircleLayer(m Map, spec CircleLayerSpecification, beforeID string) (string, error) {
	id := CircleLayerID(spec.SourceID)
	err := m.AddLayer(Layer{
		ID:     id,
		Type:   "circle",
		Source: spec.SourceID,
	}, beforeID)
	if err != nil {
		return "", err
	}
	return UpdateCircleLayer(m, spec)
}

// UpdateCircleLayer applies spec to the existing circle layer of spec.SourceID.
func UpdateCircleLayer(m Map, spec CircleLayerSpecification) (string, error) {
	id := CircleLayerID(spec.SourceID)
	opacity := spec.Opacity / 100

	paint := []struct {
		name  string
		value interface{}
	}{
		{"circle-opacity", opacity},
		{"circle-color", spec.FillColor},
		{"circle-stroke-opacity", opacity},
		{"circle-stroke-color", spec.OutlineColor},
		{"circle-stroke-width", spec.Width},
		{"circle-radius", spec.Radius},
	}

	var errs []error
	for _, p := range paint {
		if err := m.SetPaintProperty(id, p.name, p.value); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.SetLayoutProperty(id, "visibility", spec.Visibility); err != nil {
		errs = append(errs, err)
	}
	if err := m.SetLayerZoomRange(id, spec.MinZoom, spec.MaxZoom); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return id, fmt.Errorf("update circle layer %s: %w", id, errors.Join(errs...))
	}
	return id, nil
}
