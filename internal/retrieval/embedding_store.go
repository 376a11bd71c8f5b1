package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

// EmbeddingStore persists document vectors so a restart does not re-embed the corpus.
type EmbeddingStore interface {
	// GetMany returns the known vectors, keyed by the index of the content.
	GetMany(ctx context.Context, model string, contents []string) (map[int][]float32, error)
	SetMany(ctx context.Context, model string, contents []string, vectors [][]float32) error
}

type RedisEmbeddingStore struct {
	redisClient *redis.Client
}

func NewRedisEmbeddingStore(redisClient *redis.Client) *RedisEmbeddingStore {
	return &RedisEmbeddingStore{
		redisClient: redisClient,
	}
}

func EmbeddingKey(model, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("embedding::%s::%s", model, hex.EncodeToString(sum[:]))
}

func (s *RedisEmbeddingStore) GetMany(ctx context.Context, model string, contents []string) (_ map[int][]float32, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "embeddingStore.getMany")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("contents", len(contents)))

	found := make(map[int][]float32)
	if len(contents) == 0 {
		return found, nil
	}

	keys := make([]string, len(contents))
	for i, c := range contents {
		keys[i] = EmbeddingKey(model, c)
	}

	values, err := s.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget embeddings: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok || raw == "" {
			continue
		}
		var vector []float32
		if err := json.Unmarshal([]byte(raw), &vector); err != nil {
			// treated as a miss, will be re-embedded and overwritten
			continue
		}
		found[i] = vector
	}
	span.SetAttributes(attribute.Int("found", len(found)))

	return found, nil
}

func (s *RedisEmbeddingStore) SetMany(ctx context.Context, model string, contents []string, vectors [][]float32) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "embeddingStore.setMany")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if len(contents) != len(vectors) {
		return fmt.Errorf("got %d contents and %d vectors", len(contents), len(vectors))
	}
	if len(contents) == 0 {
		return nil
	}

	pairs := make([]interface{}, 0, 2*len(contents))
	for i, c := range contents {
		vectorJson, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("marshal vector: %w", err)
		}
		pairs = append(pairs, EmbeddingKey(model, c), string(vectorJson))
	}

	if err := s.redisClient.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("redis mset embeddings: %w", err)
	}
	return nil
}
