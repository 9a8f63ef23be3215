package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/woozymasta/clustermap/internal/config"
	"github.com/woozymasta/clustermap/internal/layer"
	"github.com/woozymasta/clustermap/internal/maplibre"
	"github.com/woozymasta/clustermap/internal/render"
	"github.com/woozymasta/clustermap/internal/search"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	ConfigFile string `short:"c" long:"config"    description:"Configuration file with the layer (YAML or TOML)"`
	LayerID    string `short:"l" long:"layer"     description:"Id of the configured layer to render"`
	GeoField   string `short:"g" long:"geo-field" description:"Geo field path when no configured layer is used"`
	GeoType    string `short:"t" long:"geo-type"  description:"Geo field type when no configured layer is used" choice:"geo_point" choice:"geo_shape" default:"geo_point"`
	Input      string `short:"i" long:"in"        description:"Documents file (hits array or search response). Uses the layer documents or stdin if empty"`
	Output     string `short:"o" long:"out"       description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format"    description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Mode       string `short:"m" long:"mode"      description:"Render a feature collection or a full style" choice:"features" choice:"style" default:"features"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, spec, err := resolveLayer(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	docs, err := readDocuments(opts.Input, spec.Source.Documents)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading documents: %v\n", err)
		os.Exit(1)
	}

	out, count, err := build(opts.Mode, cfg, spec, docs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering layer: %v\n", err)
		os.Exit(1)
	}

	data, err := marshal(out, opts.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Rendered %d of %d documents to %s (format: %s)\n", count, len(docs), opts.Output, opts.Format)
	} else {
		fmt.Println(string(data))
	}
}

// resolveLayer returns the configured layer, or an ad-hoc layer built from
// the geo field flags.
func resolveLayer(opts Options) (*config.Config, layer.ClusterLayerSpecification, error) {
	if opts.LayerID == "" {
		if opts.GeoField == "" {
			return nil, layer.ClusterLayerSpecification{}, fmt.Errorf("either --layer or --geo-field is required")
		}
		cfg := &config.Config{Layers: []layer.ClusterLayerSpecification{{
			ID:     "documents",
			Source: layer.Source{GeoFieldName: opts.GeoField, GeoFieldType: opts.GeoType},
		}}}
		if err := cfg.Validate(); err != nil {
			return nil, layer.ClusterLayerSpecification{}, err
		}
		return cfg, cfg.Layers[0], nil
	}

	if opts.ConfigFile == "" {
		return nil, layer.ClusterLayerSpecification{}, fmt.Errorf("--layer requires --config")
	}
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, layer.ClusterLayerSpecification{}, err
	}
	spec, ok := cfg.Layer(opts.LayerID)
	if !ok {
		return nil, layer.ClusterLayerSpecification{}, fmt.Errorf("layer %q not found in %s", opts.LayerID, opts.ConfigFile)
	}
	return cfg, spec, nil
}

func readDocuments(input, fallback string) ([]search.Document, error) {
	switch {
	case input != "":
		return search.LoadFile(input)
	case fallback != "":
		return search.LoadFile(fallback)
	default:
		return search.DecodeDocuments(os.Stdin)
	}
}

// build renders the layer and returns the output document with the number
// of features drawn.
func build(mode string, cfg *config.Config, spec layer.ClusterLayerSpecification, docs []search.Document) (interface{}, int, error) {
	fc := render.LayerSource(docs, spec)
	if mode != "style" {
		return fc, len(fc.Features), nil
	}

	center := cfg.Style.Center
	if b, ok := fc.Bound(); ok && center == [2]float64{} {
		c := b.Center()
		center = [2]float64{c.Lon(), c.Lat()}
	}

	style := maplibre.NewStyle(cfg.Style.Name, center, cfg.Style.Zoom)
	style.SetGlyphs(cfg.Style.Glyphs)
	if err := render.Render(&render.MapRef{Current: style, Attribution: cfg.Attribution}, spec, docs, ""); err != nil {
		return nil, 0, err
	}
	return style, len(fc.Features), nil
}

// marshal encodes v as indented JSON or as YAML with the same keys.
func marshal(v interface{}, format string) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil || format != "yaml" {
		return data, err
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}
