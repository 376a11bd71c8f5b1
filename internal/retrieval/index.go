package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const queryCacheSize = 512

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModel() string
}

type Match struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Index is an immutable, in-memory set of embedded documents searched by
// brute-force cosine similarity. Safe for concurrent use.
type Index struct {
	name     string
	docs     []Document
	vectors  [][]float32
	norms    []float64
	embedder Embedder

	queryCache *lru.Cache[string, []float32]
}

// BuildIndex embeds the documents, reusing the vectors already in the store.
// The store is optional; store failures are logged and the documents embedded anew.
func BuildIndex(
	ctx context.Context,
	name string,
	docs []Document,
	embedder Embedder,
	store EmbeddingStore,
) (_ *Index, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "retrieval.buildIndex")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("index", name),
		attribute.Int("documents", len(docs)),
	)

	model := embedder.EmbeddingModel()
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}

	vectors := make([][]float32, len(docs))
	if store != nil {
		cached, err := store.GetMany(ctx, model, contents)
		if err != nil {
			log.Errorf("index [%s]: get cached embeddings: %s", name, err)
		}
		for i, v := range cached {
			vectors[i] = v
		}
	}

	var missingIdx []int
	var missingContents []string
	for i, v := range vectors {
		if v == nil {
			missingIdx = append(missingIdx, i)
			missingContents = append(missingContents, contents[i])
		}
	}

	log.Debugf("index [%s]: %d cached embeddings, %d to embed", name, len(docs)-len(missingIdx), len(missingIdx))
	span.SetAttributes(attribute.Int("to-embed", len(missingIdx)))

	if len(missingContents) > 0 {
		embedded, err := embedder.Embed(ctx, missingContents)
		if err != nil {
			return nil, fmt.Errorf("embed %s documents: %w", name, err)
		}
		if len(embedded) != len(missingContents) {
			return nil, fmt.Errorf("embed %s documents: expected %d vectors, got %d", name, len(missingContents), len(embedded))
		}
		for i, idx := range missingIdx {
			vectors[idx] = embedded[i]
		}

		if store != nil {
			if err := store.SetMany(ctx, model, missingContents, embedded); err != nil {
				log.Errorf("index [%s]: store embeddings: %s", name, err)
			}
		}
	}

	queryCache, err := lru.New[string, []float32](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	idx := &Index{
		name:       name,
		docs:       docs,
		vectors:    vectors,
		norms:      make([]float64, len(vectors)),
		embedder:   embedder,
		queryCache: queryCache,
	}
	for i, v := range vectors {
		idx.norms[i] = norm(v)
	}

	return idx, nil
}

func (i *Index) Name() string {
	return i.name
}

func (i *Index) Len() int {
	return len(i.docs)
}

// Search returns up to k documents with a cosine similarity of at least threshold, best first.
func (i *Index) Search(ctx context.Context, query string, k int, threshold float64) (_ []Match, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "retrieval.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("index", i.name),
		attribute.Int("k", k),
		attribute.Float64("threshold", threshold),
	)

	if k < 1 {
		return nil, fmt.Errorf("search k must be positive, got %d", k)
	}

	queryVector, err := i.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	queryNorm := norm(queryVector)

	matches := make([]Match, 0, k)
	for idx, v := range i.vectors {
		score := cosine(queryVector, queryNorm, v, i.norms[idx])
		if score < threshold {
			continue
		}
		matches = append(matches, Match{
			Document: i.docs[idx],
			Score:    score,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))

	return matches, nil
}

func (i *Index) queryVector(ctx context.Context, query string) ([]float32, error) {
	if v, ok := i.queryCache.Get(query); ok {
		return v, nil
	}

	vectors, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}

	i.queryCache.Add(query, vectors[0])
	return vectors[0], nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 for zero vectors and vectors of different dimensions.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if len(a) != len(b) || aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
