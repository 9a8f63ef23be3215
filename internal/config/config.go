// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/clustermap/internal/layer"
)

// Config represents the root configuration file structure.
type Config struct {
	Attribution string                            `yaml:"attribution,omitempty" json:"attribution,omitempty" toml:"attribution"`
	Style       Style                             `yaml:"style" json:"style" toml:"style"`
	OpenSearch  OpenSearch                        `yaml:"opensearch" json:"-" toml:"opensearch"`
	Layers      []layer.ClusterLayerSpecification `yaml:"layers" json:"layers" toml:"layers"`
}

// Style holds the global attributes of the generated map style.
type Style struct {
	Name       string     `yaml:"name,omitempty" json:"name" toml:"name"`
	Glyphs     string     `yaml:"glyphs,omitempty" json:"glyphs,omitempty" toml:"glyphs"`
	Background string     `yaml:"background,omitempty" json:"background,omitempty" toml:"background"`
	Center     [2]float64 `yaml:"center,flow" json:"center" toml:"center"` // [Lon, Lat]
	Zoom       float64    `yaml:"zoom,omitempty" json:"zoom" toml:"zoom"`
}

// OpenSearch describes the cluster layers are searched in.
type OpenSearch struct {
	URL      string   `yaml:"url,omitempty" toml:"url"`
	Username string   `yaml:"username,omitempty" toml:"username"`
	Password string   `yaml:"password,omitempty" toml:"password"`
	Timeout  Duration `yaml:"timeout,omitempty" toml:"timeout"`
	Insecure bool     `yaml:"insecure,omitempty" toml:"insecure"`
}

// DefaultTimeout bounds a single search request.
const DefaultTimeout = 15 * time.Second

// Duration is a time.Duration written as "15s" in both YAML and TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Load reads and parses the configuration file from the specified path.
// Files ending in .toml are read as TOML, anything else as YAML.
// The returned configuration is validated and has defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate applies defaults and checks every layer. All problems are
// reported at once.
func (c *Config) Validate() error {
	if c.Style.Name == "" {
		c.Style.Name = "clustermap"
	}
	if c.Style.Zoom == 0 {
		c.Style.Zoom = 1
	}
	if c.OpenSearch.Timeout <= 0 {
		c.OpenSearch.Timeout = Duration(DefaultTimeout)
	}

	var errs []error
	seen := make(map[string]bool, len(c.Layers))
	for i := range c.Layers {
		l := &c.Layers[i]
		layer.ApplyDefaults(l, i)
		if err := l.Validate(); err != nil {
			errs = append(errs, err)
		}
		if l.ID != "" && seen[l.ID] {
			errs = append(errs, fmt.Errorf("duplicate layer id %q", l.ID))
		}
		seen[l.ID] = true

		if l.Source.Index != "" && c.OpenSearch.URL == "" && l.Source.Documents == "" {
			errs = append(errs, fmt.Errorf("layer %q: index %q set but opensearch.url is empty", l.ID, l.Source.Index))
		}
	}

	return errors.Join(errs...)
}

// Layer returns the layer with the given id.
func (c *Config) Layer(id string) (layer.ClusterLayerSpecification, bool) {
	for _, l := range c.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return layer.ClusterLayerSpecification{}, false
}

// resolvePaths makes relative document paths relative to the config directory.
func (c *Config) resolvePaths(dir string) {
	for i := range c.Layers {
		p := c.Layers[i].Source.Documents
		if p != "" && !filepath.IsAbs(p) {
			c.Layers[i].Source.Documents = filepath.Join(dir, p)
		}
	}
}
