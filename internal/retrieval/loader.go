package retrieval

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CorpusFiles maps each topic to its CSV corpus path.
type CorpusFiles map[Topic]string

// LoadIndexes reads and indexes all corpora concurrently.
func LoadIndexes(
	ctx context.Context,
	files CorpusFiles,
	embedder Embedder,
	store EmbeddingStore,
	metricsManager *metrics.Manager,
) (map[Topic]*Index, error) {
	var mu sync.Mutex
	indexes := make(map[Topic]*Index, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	for topic, path := range files {
		g.Go(func() error {
			idx, err := loadIndex(gCtx, topic, path, embedder, store)
			if err != nil {
				return err
			}

			mu.Lock()
			indexes[topic] = idx
			mu.Unlock()

			if metricsManager != nil {
				metricsManager.GaugeIndexedDocs.WithLabelValues(string(topic)).Set(float64(idx.Len()))
			}
			log.Infof("retrieval index [%s] ready with %d documents", topic, idx.Len())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return indexes, nil
}

func loadIndex(ctx context.Context, topic Topic, path string, embedder Embedder, store EmbeddingStore) (*Index, error) {
	corpusFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s corpus: %w", topic, err)
	}
	defer func() {
		if err := corpusFile.Close(); err != nil {
			log.Warnf("close %s corpus file: %s", topic, err)
		}
	}()

	docs, err := LoadCSVCorpus(path, corpusFile)
	if err != nil {
		return nil, err
	}

	return BuildIndex(ctx, string(topic), docs, embedder, store)
}

// Searchers adapts the loaded indexes for the QA.
func Searchers(indexes map[Topic]*Index) map[Topic]Searcher {
	searchers := make(map[Topic]Searcher, len(indexes))
	for topic, idx := range indexes {
		searchers[topic] = idx
	}
	return searchers
}
