package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/clustermap/assets"
	"github.com/woozymasta/clustermap/internal/config"
	"github.com/woozymasta/clustermap/internal/geo"
	"github.com/woozymasta/clustermap/internal/layer"
	"github.com/woozymasta/clustermap/internal/maplibre"
	"github.com/woozymasta/clustermap/internal/render"
	"github.com/woozymasta/clustermap/internal/search"
)

// BackgroundLayerID is the id of the optional background layer.
const BackgroundLayerID = "background"

// DefaultConcurrency bounds concurrent layer searches during a reload.
const DefaultConcurrency = 4

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Searcher    search.Searcher
	config      *config.Config
	style       *maplibre.Style
	collections map[string]geo.GeoJSONFeatureCollection
	IndexHTML   []byte
	Favicon     []byte
	Concurrency int
	generation  uint64

	reloadMu sync.Mutex
	mu       sync.RWMutex
}

// LayerInfo describes a rendered layer.
type LayerInfo struct {
	Bounds   *[4]float64                     `json:"bounds,omitempty"` // [minLon, minLat, maxLon, maxLat]
	Spec     layer.ClusterLayerSpecification `json:"spec"`
	Features int                             `json:"features"`
}

// NewServerContext initializes the context for cfg. Layers are rendered by
// the first call to Reload.
func NewServerContext(cfg *config.Config, searcher search.Searcher) *ServerContext {
	log.Info().Int("config_layers_count", len(cfg.Layers)).Msg("Initializing server context")

	return &ServerContext{
		Searcher:    searcher,
		Concurrency: DefaultConcurrency,
		IndexHTML:   assets.Index,
		Favicon:     assets.Favicon,
		config:      cfg,
		style:       newStyle(cfg),
		collections: make(map[string]geo.GeoJSONFeatureCollection),
	}
}

func newStyle(cfg *config.Config) *maplibre.Style {
	style := maplibre.NewStyle(cfg.Style.Name, cfg.Style.Center, cfg.Style.Zoom)
	style.SetGlyphs(cfg.Style.Glyphs)
	return style
}

// Config returns the configuration currently served.
func (s *ServerContext) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Style returns the style currently served.
func (s *ServerContext) Style() *maplibre.Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// Generation is incremented by every successful reload.
func (s *ServerContext) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Reload fetches documents for every configured layer and renders them again.
func (s *ServerContext) Reload(ctx context.Context) error {
	return s.Apply(ctx, s.Config())
}

// Apply switches the server to cfg. Documents are fetched for every layer,
// layers are rendered and ordered as configured and layers no longer
// configured are removed. A changed view or attribution starts a new style. On error the previously served state is kept as
// far as it was not already updated.
func (s *ServerContext) Apply(ctx context.Context, cfg *config.Config) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	docs, err := search.FetchLayers(ctx, s.Searcher, cfg.Layers, s.Concurrency, nil)
	if err != nil {
		return err
	}

	prev := s.Config()
	style := s.Style()
	if !sameView(prev.Style, cfg.Style) || prev.Attribution != cfg.Attribution {
		style = newStyle(cfg)
	}

	collections := make(map[string]geo.GeoJSONFeatureCollection, len(cfg.Layers))
	ref := &render.MapRef{Current: style, Attribution: cfg.Attribution}
	var errs []error

	// Walk backwards so every layer ends up below the layer that follows it.
	before := ""
	for i := len(cfg.Layers) - 1; i >= 0; i-- {
		spec := cfg.Layers[i]
		layerDocs, ok := docs[spec.ID]
		if !ok {
			// fetch failed, keep what is already drawn
			fc, kept := s.collection(spec.ID)
			if !kept || style != s.Style() {
				continue
			}
			collections[spec.ID] = fc
		} else {
			if err := render.Render(ref, spec, layerDocs, before); err != nil {
				errs = append(errs, err)
				continue
			}
			collections[spec.ID] = render.LayerSource(layerDocs, spec)
		}

		id := maplibre.CircleLayerID(spec.ID)
		if err := style.MoveLayer(id, before); err != nil {
			errs = append(errs, fmt.Errorf("move layer %s: %w", spec.ID, err))
		}
		before = id
	}

	for _, old := range prev.Layers {
		if _, ok := cfg.Layer(old.ID); ok {
			continue
		}
		if err := render.Remove(style, old.ID); err != nil {
			errs = append(errs, fmt.Errorf("remove layer %s: %w", old.ID, err))
		}
		log.Debug().Str("layer", old.ID).Msg("Layer removed")
	}

	if err := applyBackground(style, cfg.Style.Background); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	s.config = cfg
	s.style = style
	s.collections = collections
	s.generation++
	s.mu.Unlock()

	log.Info().
		Int("layers", len(cfg.Layers)).
		Int("rendered", len(collections)).
		Msg("Layers reloaded")

	return errors.Join(errs...)
}

// sameView reports whether two styles differ only in their background.
func sameView(a, b config.Style) bool {
	a.Background, b.Background = "", ""
	return a == b
}

func (s *ServerContext) collection(id string) (geo.GeoJSONFeatureCollection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fc, ok := s.collections[id]
	return fc, ok
}

// applyBackground keeps a background layer at the bottom of the style.
func applyBackground(m maplibre.Map, color string) error {
	_, exists := m.GetLayer(BackgroundLayerID)

	switch {
	case color == "" && exists:
		return m.RemoveLayer(BackgroundLayerID)
	case color == "":
		return nil
	case exists:
		return m.SetPaintProperty(BackgroundLayerID, "background-color", color)
	}

	bottom := ""
	if layers := m.Layers(); len(layers) > 0 {
		bottom = layers[0].ID
	}
	return m.AddLayer(maplibre.Layer{
		ID:    BackgroundLayerID,
		Type:  layer.TypeBackground,
		Paint: map[string]interface{}{"background-color": color},
	}, bottom)
}

// Layers returns the rendered layers in configuration order.
func (s *ServerContext) Layers() []LayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LayerInfo, 0, len(s.config.Layers))
	for _, spec := range s.config.Layers {
		fc, ok := s.collections[spec.ID]
		if !ok {
			continue
		}
		out = append(out, LayerInfo{
			Spec:     spec,
			Features: len(fc.Features),
			Bounds:   bounds(fc),
		})
	}
	return out
}

// LayerCollection returns the feature collection rendered for a layer.
func (s *ServerContext) LayerCollection(id string) (geo.GeoJSONFeatureCollection, bool) {
	return s.collection(id)
}

func bounds(fc geo.GeoJSONFeatureCollection) *[4]float64 {
	b, ok := fc.Bound()
	if !ok {
		return nil
	}
	return &[4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}
