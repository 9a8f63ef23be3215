package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/woozymasta/clustermap/internal/config"
	"github.com/woozymasta/clustermap/internal/layer"
	"github.com/woozymasta/clustermap/internal/logger"
	"github.com/woozymasta/clustermap/internal/search"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"      env:"CONFIG_FILE"  description:"Path to configuration file (YAML or TOML)" default:"config.yaml"`
	Limit       []string `short:"l" long:"limit"       env:"LIMIT_LAYERS" description:"Limit processing to specific layer ids"`
	OutDir      string   `short:"o" long:"out-dir"     env:"OUT_DIR"      description:"Directory for layers without a documents path" default:"data"`
	BBox        string   `short:"b" long:"bbox"        env:"BBOX"         description:"Bounding box minLon,minLat,maxLon,maxLat for layers with the filter enabled"`
	Concurrency int      `short:"p" long:"concurrency" env:"CONCURRENCY"  description:"Concurrent layer searches" default:"4"`
	Force       bool     `short:"f" long:"force"       description:"Force overwrite of existing files"`
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

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	searcher := search.FromConfig(cfg.OpenSearch)
	if searcher == nil {
		log.Fatal().Msg("opensearch.url is not configured")
	}

	bound, err := parseBBox(opts.BBox)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --bbox")
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	outDir := opts.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(filepath.Dir(opts.ConfigFile), outDir)
	}

	layers := selectLayers(cfg.Layers, opts.Limit)

	// fetch from the index even when a documents file is configured,
	// the file is where the result goes
	targets := make(map[string]string, len(layers))
	queue := make([]layer.ClusterLayerSpecification, 0, len(layers))
	for _, spec := range layers {
		if spec.Source.Index == "" {
			log.Debug().Str("layer", spec.ID).Msg("Skipping layer without index")
			continue
		}

		target := spec.Source.Documents
		if target == "" {
			target = filepath.Join(outDir, spec.ID+".json")
		}
		if _, err := os.Stat(target); err == nil && !opts.Force {
			log.Info().Str("layer", spec.ID).Str("path", target).Msg("Documents file exists, skipping (use --force)")
			continue
		}

		spec.Source.Documents = ""
		targets[spec.ID] = target
		queue = append(queue, spec)
	}

	log.Info().
		Int("layers_total", len(cfg.Layers)).
		Int("layers_queued", len(queue)).
		Msg("Starting loader")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := search.FetchLayers(ctx, searcher, queue, opts.Concurrency, bound)
	if err != nil {
		log.Fatal().Err(err).Msg("Loader interrupted")
	}

	failed := 0
	for _, spec := range queue {
		docs, ok := results[spec.ID]
		if !ok {
			failed++
			continue
		}

		target := targets[spec.ID]
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			log.Error().Err(err).Str("layer", spec.ID).Msg("Failed to create directory")
			failed++
			continue
		}
		if err := search.SaveFile(target, docs); err != nil {
			log.Error().Err(err).Str("layer", spec.ID).Msg("Failed to save documents")
			failed++
			continue
		}

		log.Info().
			Str("layer", spec.ID).
			Str("path", target).
			Int("documents", len(docs)).
			Msg("Documents saved")
	}

	if failed > 0 {
		log.Fatal().Int("failed", failed).Msg("Loader finished with errors")
	}
	log.Info().Msg("Loader finished successfully")
}

func selectLayers(all []layer.ClusterLayerSpecification, limit []string) []layer.ClusterLayerSpecification {
	if len(limit) == 0 {
		return all
	}

	available := make(map[string]layer.ClusterLayerSpecification, len(all))
	for _, l := range all {
		available[l.ID] = l
	}

	seen := make(map[string]bool)
	out := make([]layer.ClusterLayerSpecification, 0, len(limit))
	for _, id := range limit {
		if seen[id] {
			continue
		}
		seen[id] = true

		if l, ok := available[id]; ok {
			out = append(out, l)
		} else {
			log.Error().
				Str("id", id).
				Msg("Layer specified in --limit not found in configuration")
		}
	}
	return out
}

// parseBBox reads "minLon,minLat,maxLon,maxLat". An empty string means no box.
func parseBBox(s string) (*orb.Bound, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected 4 comma separated numbers, got %d", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}

	b := orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
	if b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() {
		return nil, fmt.Errorf("min corner %v is above max corner %v", b.Min, b.Max)
	}
	return &b, nil
}
