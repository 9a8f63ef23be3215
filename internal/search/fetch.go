package search

import (
	"context"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/woozymasta/clustermap/internal/layer"
)

// RequestFor builds the search request of a layer. bound is only applied
// when the layer enables the bounding box filter.
func RequestFor(spec layer.ClusterLayerSpecification, bound *orb.Bound) Request {
	req := Request{
		GeoFieldName: spec.Source.GeoFieldName,
		Fields:       spec.Source.TooltipFields,
		Size:         spec.Source.DocumentRequestNumber,
	}
	if spec.Source.UseGeoBoundingBoxFilter {
		req.Bound = bound
	}
	return req
}

// Documents loads the documents of one layer. A documents file takes
// priority over the index; a layer with neither yields no documents.
func Documents(ctx context.Context, s Searcher, spec layer.ClusterLayerSpecification, bound *orb.Bound) ([]Document, error) {
	if spec.Source.Documents != "" {
		return LoadFile(spec.Source.Documents)
	}
	if spec.Source.Index == "" || s == nil {
		return []Document{}, nil
	}
	return s.Search(ctx, spec.Source.Index, RequestFor(spec, bound))
}

// FetchLayers loads documents for every layer with at most concurrency
// requests in flight. Layers that fail are logged and left out of the result.
func FetchLayers(
	ctx context.Context,
	s Searcher,
	specs []layer.ClusterLayerSpecification,
	concurrency int,
	bound *orb.Bound,
) (map[string][]Document, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	var mu sync.Mutex
	results := make(map[string][]Document, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			docs, err := Documents(gctx, s, spec, bound)
			if err != nil {
				log.Error().
					Err(err).
					Str("layer", spec.ID).
					Str("index", spec.Source.Index).
					Str("file", spec.Source.Documents).
					Msg("Failed to load layer documents")
				return nil
			}

			log.Debug().
				Str("layer", spec.ID).
				Int("documents", len(docs)).
				Msg("Layer documents loaded")

			mu.Lock()
			results[spec.ID] = docs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
