// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler returns the routes of the viewer and its API.
func (s *ServerContext) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/style.json", s.HandleStyle)
	mux.HandleFunc("GET /api/layers", s.HandleLayersList)
	mux.HandleFunc("GET /api/layers/{id}/geojson", s.HandleLayerGeoJSON)
	mux.HandleFunc("POST /api/reload", s.HandleReload)
	mux.HandleFunc("GET /favicon.svg", s.HandleFavicon)
	mux.HandleFunc("GET /", s.HandleIndex)
	return RequestLogger(mux)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleStyle serves the rendered style document. The ETag changes with
// every reload.
func (s *ServerContext) HandleStyle(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(s.Style())
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode style")
		http.Error(w, "failed to encode style", http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`"%x-%x"`, s.Generation(), len(body))
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(body)
}

// HandleLayersList serves the rendered layers with feature counts and bounds.
func (s *ServerContext) HandleLayersList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "application/json", s.Layers())
}

// HandleLayerGeoJSON serves the feature collection of one layer.
func (s *ServerContext) HandleLayerGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc, ok := s.LayerCollection(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, "application/geo+json", fc)
}

// HandleReload fetches and renders all layers again.
func (s *ServerContext) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		log.Error().Err(err).Msg("Reload failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, "application/json", map[string]interface{}{
		"generation": s.Generation(),
		"layers":     len(s.Layers()),
	})
}

func writeJSON(w http.ResponseWriter, contentType string, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
