// Package maplibre keeps a MapLibre style document in memory. It exposes the
// same source and layer calls as the browser library, so layers can be
// rendered server side and handed to the client as style JSON.
package maplibre

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// StyleVersion is the MapLibre style specification version.
const StyleVersion = 8

var (
	ErrSourceExists   = errors.New("source already exists")
	ErrSourceNotFound = errors.New("source not found")
	ErrLayerExists    = errors.New("layer already exists")
	ErrLayerNotFound  = errors.New("layer not found")
)

// Map is the subset of the map API the renderers rely on.
type Map interface {
	AddSource(id string, src Source) error
	GetSource(id string) (Source, bool)
	SetSourceData(id string, data interface{}) error
	RemoveSource(id string) error
	AddLayer(l Layer, beforeID string) error
	GetLayer(id string) (Layer, bool)
	Layers() []Layer
	RemoveLayer(id string) error
	MoveLayer(id, beforeID string) error
	SetPaintProperty(layerID, name string, value interface{}) error
	SetLayoutProperty(layerID, name string, value interface{}) error
	SetLayerZoomRange(layerID string, minZoom, maxZoom float64) error
}

// Source is a style source. Options carries any extra source properties
// (cluster, clusterRadius, attribution, ...).
type Source struct {
	Data    interface{}
	Options map[string]interface{}
	Type    string
}

// MarshalJSON flattens the options next to type and data.
func (s Source) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Options)+2)
	maps.Copy(out, s.Options)
	out["type"] = s.Type
	if s.Data != nil {
		out["data"] = s.Data
	}
	return json.Marshal(out)
}

// Layer is a style layer.
type Layer struct {
	Paint   map[string]interface{} `json:"paint,omitempty"`
	Layout  map[string]interface{} `json:"layout,omitempty"`
	MinZoom *float64               `json:"minzoom,omitempty"`
	MaxZoom *float64               `json:"maxzoom,omitempty"`
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	Source  string                 `json:"source,omitempty"`
	Filter  []interface{}          `json:"filter,omitempty"`
}

func (l Layer) clone() Layer {
	l.Paint = maps.Clone(l.Paint)
	l.Layout = maps.Clone(l.Layout)
	l.Filter = slices.Clone(l.Filter)
	if l.MinZoom != nil {
		v := *l.MinZoom
		l.MinZoom = &v
	}
	if l.MaxZoom != nil {
		v := *l.MaxZoom
		l.MaxZoom = &v
	}
	return l
}

// Style is an in-memory style document safe for concurrent use.
type Style struct {
	sources map[string]Source
	name    string
	glyphs  string
	layers  []Layer
	center  [2]float64
	zoom    float64
	mu      sync.RWMutex
}

// NewStyle returns an empty style.
func NewStyle(name string, center [2]float64, zoom float64) *Style {
	return &Style{
		name:    name,
		center:  center,
		zoom:    zoom,
		sources: make(map[string]Source),
	}
}

// SetGlyphs sets the glyphs URL template of the style.
func (s *Style) SetGlyphs(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glyphs = url
}

// AddSource registers a new source.
func (s *Style) AddSource(id string, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[id]; ok {
		return fmt.Errorf("%w: %s", ErrSourceExists, id)
	}
	s.sources[id] = src
	return nil
}

// GetSource returns a source by id.
func (s *Style) GetSource(id string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[id]
	return src, ok
}

// SetSourceData replaces the data of a geojson source.
func (s *Style) SetSourceData(id string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	if src.Type != "geojson" {
		return fmt.Errorf("source %s has type %s, data can only be set on geojson sources", id, src.Type)
	}
	src.Data = data
	s.sources[id] = src
	return nil
}

// RemoveSource deletes a source. Layers still using it are left untouched.
func (s *Style) RemoveSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	delete(s.sources, id)
	return nil
}

// AddLayer appends a layer, or inserts it before beforeID when that layer exists.
func (s *Style) AddLayer(l Layer, beforeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(l.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrLayerExists, l.ID)
	}
	if l.Source != "" {
		if _, ok := s.sources[l.Source]; !ok {
			return fmt.Errorf("layer %s: %w: %s", l.ID, ErrSourceNotFound, l.Source)
		}
	}

	l = l.clone()
	if i := s.indexOf(beforeID); beforeID != "" && i >= 0 {
		s.layers = slices.Insert(s.layers, i, l)
		return nil
	}
	s.layers = append(s.layers, l)
	return nil
}

// GetLayer returns a copy of a layer by id.
func (s *Style) GetLayer(id string) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Layer{}, false
	}
	return s.layers[i].clone(), true
}

// Layers returns copies of all layers in draw order.
func (s *Style) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Layer, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l.clone())
	}
	return out
}

// RemoveLayer deletes a layer.
func (s *Style) RemoveLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	return nil
}

// MoveLayer moves a layer before beforeID, or to the top when beforeID is
// empty or unknown.
func (s *Style) MoveLayer(id, beforeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	if id == beforeID {
		return nil
	}

	l := s.layers[i]
	s.layers = slices.Delete(s.layers, i, i+1)
	if j := s.indexOf(beforeID); j >= 0 {
		s.layers = slices.Insert(s.layers, j, l)
		return nil
	}
	s.layers = append(s.layers, l)
	return nil
}

// SetPaintProperty sets one paint property of a layer.
func (s *Style) SetPaintProperty(layerID, name string, value interface{}) error {
	return s.update(layerID, func(l *Layer) {
		if l.Paint == nil {
			l.Paint = make(map[string]interface{})
		}
		l.Paint[name] = value
	})
}

// SetLayoutProperty sets one layout property of a layer.
func (s *Style) SetLayoutProperty(layerID, name string, value interface{}) error {
	return s.update(layerID, func(l *Layer) {
		if l.Layout == nil {
			l.Layout = make(map[string]interface{})
		}
		l.Layout[name] = value
	})
}

// SetLayerZoomRange sets the zoom range in which a layer is displayed.
func (s *Style) SetLayerZoomRange(layerID string, minZoom, maxZoom float64) error {
	return s.update(layerID, func(l *Layer) {
		l.MinZoom = &minZoom
		l.MaxZoom = &maxZoom
	})
}

func (s *Style) update(layerID string, fn func(*Layer)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(layerID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	fn(&s.layers[i])
	return nil
}

// indexOf must be called with the lock held.
func (s *Style) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.layers, func(l Layer) bool { return l.ID == id })
}

type styleDocument struct {
	Sources map[string]Source `json:"sources"`
	Name    string            `json:"name,omitempty"`
	Glyphs  string            `json:"glyphs,omitempty"`
	Layers  []Layer           `json:"layers"`
	Center  [2]float64        `json:"center"`
	Zoom    float64           `json:"zoom"`
	Version int               `json:"version"`
}

// MarshalJSON renders the style document.
func (s *Style) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layers := s.layers
	if layers == nil {
		layers = []Layer{}
	}
	return json.Marshal(styleDocument{
		Version: StyleVersion,
		Name:    s.name,
		Glyphs:  s.glyphs,
		Center:  s.center,
		Zoom:    s.zoom,
		Sources: s.sources,
		Layers:  layers,
	})
}
