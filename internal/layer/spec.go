// Package layer holds the cluster layer configuration and the map layer model.
package layer

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/woozymasta/clustermap/internal/geo"
)

// TypeCluster is the only layer type rendered by this module.
const TypeCluster = "cluster"

// Visibility values accepted by the map style.
const (
	VisibilityVisible = "visible"
	VisibilityNone    = "none"
)

// Zoom limits of the map renderer.
const (
	MinZoom = 0
	MaxZoom = 24
)

var colorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ClusterLayerSpecification is the user declared description of a cluster layer.
type ClusterLayerSpecification struct {
	ID          string     `yaml:"id" json:"id" toml:"id"`
	Name        string     `yaml:"name" json:"name" toml:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty" toml:"description"`
	Type        string     `yaml:"type,omitempty" json:"type" toml:"type"`
	ZoomRange   [2]float64 `yaml:"zoomRange,flow" json:"zoomRange" toml:"zoomRange"`
	Opacity     float64    `yaml:"opacity" json:"opacity" toml:"opacity"`
	Visibility  string     `yaml:"visibility,omitempty" json:"visibility" toml:"visibility"`
	Source      Source     `yaml:"source" json:"source" toml:"source"`
	Style       Style      `yaml:"style" json:"style" toml:"style"`
}

// Source describes where documents come from and which field carries geometry.
type Source struct {
	GeoFieldName            string   `yaml:"geoFieldName" json:"geoFieldName" toml:"geoFieldName"`
	GeoFieldType            string   `yaml:"geoFieldType" json:"geoFieldType" toml:"geoFieldType"`
	Index                   string   `yaml:"index,omitempty" json:"index,omitempty" toml:"index"`
	Documents               string   `yaml:"documents,omitempty" json:"-" toml:"documents"`
	DocumentRequestNumber   int      `yaml:"documentRequestNumber,omitempty" json:"documentRequestNumber" toml:"documentRequestNumber"`
	TooltipFields           []string `yaml:"tooltipFields,omitempty" json:"tooltipFields,omitempty" toml:"tooltipFields"`
	ShowTooltips            bool     `yaml:"showTooltips,omitempty" json:"showTooltips" toml:"showTooltips"`
	UseGeoBoundingBoxFilter bool     `yaml:"useGeoBoundingBoxFilter,omitempty" json:"useGeoBoundingBoxFilter" toml:"useGeoBoundingBoxFilter"`
}

// Style holds the circle paint attributes of a layer.
type Style struct {
	FillColor       string  `yaml:"fillColor,omitempty" json:"fillColor" toml:"fillColor"`
	BorderColor     string  `yaml:"borderColor,omitempty" json:"borderColor" toml:"borderColor"`
	BorderThickness float64 `yaml:"borderThickness,omitempty" json:"borderThickness" toml:"borderThickness"`
	MarkerSize      float64 `yaml:"markerSize,omitempty" json:"markerSize" toml:"markerSize"`
}

// MinZoom returns the lower bound of the zoom range.
func (s ClusterLayerSpecification) MinZoom() float64 { return s.ZoomRange[0] }

// MaxZoom returns the upper bound of the zoom range.
func (s ClusterLayerSpecification) MaxZoom() float64 { return s.ZoomRange[1] }

// Validate checks the specification and reports every problem found.
func (s ClusterLayerSpecification) Validate() error {
	var errs []error

	if s.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if s.Type != "" && s.Type != TypeCluster {
		errs = append(errs, fmt.Errorf("unsupported layer type %q", s.Type))
	}

	switch s.Source.GeoFieldType {
	case geo.FieldTypeGeoPoint, geo.FieldTypeGeoShape:
	default:
		errs = append(errs, fmt.Errorf("unsupported geo field type %q", s.Source.GeoFieldType))
	}
	if s.Source.GeoFieldName == "" {
		errs = append(errs, errors.New("source.geoFieldName is required"))
	}
	if s.Source.DocumentRequestNumber < 0 {
		errs = append(errs, fmt.Errorf("source.documentRequestNumber must not be negative, got %d", s.Source.DocumentRequestNumber))
	}

	minZoom, maxZoom := s.ZoomRange[0], s.ZoomRange[1]
	if minZoom < MinZoom || maxZoom > MaxZoom || minZoom > maxZoom {
		errs = append(errs, fmt.Errorf("invalid zoom range [%g, %g]", minZoom, maxZoom))
	}
	if s.Opacity < 0 || s.Opacity > 100 {
		errs = append(errs, fmt.Errorf("opacity must be within 0..100, got %g", s.Opacity))
	}
	switch s.Visibility {
	case VisibilityVisible, VisibilityNone:
	default:
		errs = append(errs, fmt.Errorf("unsupported visibility %q", s.Visibility))
	}

	if !colorRegex.MatchString(s.Style.FillColor) {
		errs = append(errs, fmt.Errorf("invalid style.fillColor %q", s.Style.FillColor))
	}
	if !colorRegex.MatchString(s.Style.BorderColor) {
		errs = append(errs, fmt.Errorf("invalid style.borderColor %q", s.Style.BorderColor))
	}
	if s.Style.BorderThickness < 0 {
		errs = append(errs, fmt.Errorf("style.borderThickness must not be negative, got %g", s.Style.BorderThickness))
	}
	if s.Style.MarkerSize < 0 {
		errs = append(errs, fmt.Errorf("style.markerSize must not be negative, got %g", s.Style.MarkerSize))
	}

	if len(errs) == 0 {
		return nil
	}
	if s.ID != "" {
		return fmt.Errorf("layer %q: %w", s.ID, errors.Join(errs...))
	}
	return errors.Join(errs...)
}
