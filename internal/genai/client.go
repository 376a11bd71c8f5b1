package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/cenkalti/backoff/v4"
	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// ErrUpstream marks failures of the hosted model API. Callers surface it as-is.
var ErrUpstream = errors.New("upstream failure")

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// MaxEmbedBatch is the largest batch accepted by batchEmbedContents.
	MaxEmbedBatch = 100

	cacheSizeBytes = 20 * 1024 * 1024
)

type Params struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float64
	Timeout        time.Duration
	// MaxRetries of transient failures (transport errors, 429, 5xx); 0 disables retries.
	MaxRetries int
	// CacheTTL of generated answers for identical prompts; 0 disables the cache.
	CacheTTL       time.Duration
	EmbedPerSecond float64
	HTTPClient     *http.Client
	Metrics        *metrics.Manager
}

type Client struct {
	baseURL        string
	apiKey         string
	model          string
	embeddingModel string
	temperature    float64
	timeout        time.Duration
	maxRetries     int
	httpClient     *http.Client
	metrics        *metrics.Manager

	cache    *freecache.Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter

	retryInitialInterval time.Duration
}

func NewClient(params Params) *Client {
	c := &Client{
		baseURL:              strings.TrimSuffix(params.BaseURL, "/"),
		apiKey:               params.APIKey,
		model:                params.Model,
		embeddingModel:       params.EmbeddingModel,
		temperature:          params.Temperature,
		timeout:              params.Timeout,
		maxRetries:           params.MaxRetries,
		httpClient:           params.HTTPClient,
		metrics:              params.Metrics,
		cacheTTL:             params.CacheTTL,
		retryInitialInterval: 500 * time.Millisecond,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if params.CacheTTL > 0 {
		c.cache = freecache.NewCache(cacheSizeBytes)
	}

	limit := rate.Inf
	if params.EmbedPerSecond > 0 {
		limit = rate.Limit(params.EmbedPerSecond)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	return c
}

// Generate returns the model's answer to the prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "genai.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("genai.model", c.model),
		attribute.Int("genai.prompt.length", len(prompt)),
	)

	cacheKey := c.cacheKey(prompt)
	if c.cache != nil {
		if cached, err := c.cache.Get(cacheKey); err == nil {
			log.Tracef("genai: answer for prompt found in cache")
			span.SetAttributes(attribute.Bool("genai.from-cache", true))
			c.metrics.CounterGenAICalls.WithLabelValues("generate", metrics.OutcomeCached).Inc()
			return string(cached), nil
		}
	}

	reqBody := generateRequest{
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: prompt}},
			},
		},
		GenerationConfig: generationConfig{
			Temperature: c.temperature,
		},
	}

	begin := time.Now()
	var genResp generateResponse
	err = c.post(ctx, c.modelURL(c.model, "generateContent"), reqBody, &genResp)
	c.metrics.HistGenAIDuration.Observe(time.Since(begin).Seconds())
	if err != nil {
		c.metrics.CounterGenAICalls.WithLabelValues("generate", metrics.OutcomeError).Inc()
		return "", err
	}

	text, err := genResp.text()
	if err != nil {
		c.metrics.CounterGenAICalls.WithLabelValues("generate", metrics.OutcomeError).Inc()
		return "", err
	}
	c.metrics.CounterGenAICalls.WithLabelValues("generate", metrics.OutcomeOK).Inc()

	if c.cache != nil {
		if err := c.cache.Set(cacheKey, []byte(text), cacheExpireSeconds(c.cacheTTL)); err != nil {
			log.Errorf("genai: failed to cache generated answer: %s", err)
		}
	}

	return text, nil
}

// Embed returns one embedding vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) (_ [][]float32, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "genai.embed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("genai.embedding-model", c.embeddingModel),
		attribute.Int("genai.texts", len(texts)),
	)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxEmbedBatch {
		end := min(start+MaxEmbedBatch, len(texts))

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed rate limiter: %w", err)
		}

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			c.metrics.CounterGenAICalls.WithLabelValues("embed", metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		c.metrics.CounterGenAICalls.WithLabelValues("embed", metrics.OutcomeOK).Inc()
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (c *Client) EmbeddingModel() string {
	return c.embeddingModel
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := batchEmbedRequest{
		Requests: make([]embedRequest, 0, len(texts)),
	}
	for _, text := range texts {
		reqBody.Requests = append(reqBody.Requests, embedRequest{
			Model:   "models/" + c.embeddingModel,
			Content: content{Parts: []part{{Text: text}}},
		})
	}

	var embedResp batchEmbedResponse
	if err := c.post(ctx, c.modelURL(c.embeddingModel, "batchEmbedContents"), reqBody, &embedResp); err != nil {
		return nil, err
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrUpstream, len(texts), len(embedResp.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range embedResp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// cacheExpireSeconds rounds the TTL up to whole seconds, freecache reads 0 as no expiry.
func cacheExpireSeconds(ttl time.Duration) int {
	return int(math.Ceil(ttl.Seconds()))
}

// post sends the request, retrying transient failures with exponential backoff.
func (c *Client) post(ctx context.Context, url string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retryInitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(c.maxRetries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.postOnce(ctx, url, payload, respBody)
		if err != nil {
			log.Warnf("genai: attempt %d to %s failed: %s", attempt, url, err)
		}
		return err
	}, policy)
}

func (c *Client) postOnce(ctx context.Context, url string, payload []byte, respBody any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http client do: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%w: status %s: %s", ErrUpstream, resp.Status, bytes.TrimSpace(respBytes))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	if err := json.Unmarshal(respBytes, respBody); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: unmarshal response: %w", ErrUpstream, err))
	}

	return nil
}

func (c *Client) modelURL(model, method string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:%s", c.baseURL, model, method)
}

func (c *Client) cacheKey(prompt string) []byte {
	sum := sha256.Sum256([]byte(prompt))
	return []byte("generate::" + c.model + "::" + hex.EncodeToString(sum[:]))
}

func (r generateResponse) text() (string, error) {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", ErrUpstream, r.PromptFeedback.BlockReason)
	}
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrUpstream)
	}

	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
