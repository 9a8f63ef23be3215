// Package search loads search-result documents from files or an OpenSearch cluster.
package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is a single search hit. Only Source is used for rendering.
type Document struct {
	Source map[string]interface{} `json:"_source" yaml:"_source"`
	ID     string                 `json:"_id,omitempty" yaml:"_id,omitempty"`
	Index  string                 `json:"_index,omitempty" yaml:"_index,omitempty"`
}

// Internal structure of a _search response
type searchResponse struct {
	Hits struct {
		Hits []Document `json:"hits"`
	} `json:"hits"`
}

// DecodeDocuments reads either a JSON array of hits or a full search response.
func DecodeDocuments(r io.Reader) ([]Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Document{}, nil
	}

	if trimmed[0] == '[' {
		var docs []Document
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decode hits: %w", err)
		}
		return docs, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if resp.Hits.Hits == nil {
		return []Document{}, nil
	}
	return resp.Hits.Hits, nil
}

// LoadFile reads documents from a JSON file.
func LoadFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return DecodeDocuments(f)
}

// SaveFile writes documents as a JSON array of hits.
func SaveFile(path string, docs []Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	if err := enc.Encode(docs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
