package videosearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	DefaultEndpoint = "https://youtube.googleapis.com/"
	searchPrefix    = "How to do "
)

var ErrNotFound = errors.New("no video found")

// Api resolves an exercise name to a "how to" video id.
type Api struct {
	service     *youtube.Service
	apiKey      string
	redisClient *redis.Client
	cacheTTL    time.Duration
	metrics     *metrics.Manager
}

type ApiParams struct {
	Endpoint    string
	ApiKey      string
	HttpClient  *http.Client
	RedisClient *redis.Client
	// CacheTTL of zero keeps cached ids forever.
	CacheTTL time.Duration
	Metrics  *metrics.Manager
}

func NewApi(ctx context.Context, params ApiParams) (*Api, error) {
	endpoint := params.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	httpClient := params.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	service, err := youtube.NewService(
		ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Api{
		service:     service,
		apiKey:      params.ApiKey,
		redisClient: params.RedisClient,
		cacheTTL:    params.CacheTTL,
		metrics:     params.Metrics,
	}, nil
}

func cacheKey(exercise string) string {
	return fmt.Sprintf("video-id::%s", strings.ToLower(exercise))
}

func (a *Api) VideoID(ctx context.Context, exercise string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "videoSearch.videoId")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exercise = strings.TrimSpace(exercise)
	span.SetAttributes(attribute.String("exercise", exercise))
	if exercise == "" {
		return "", fmt.Errorf("exercise must be set")
	}

	key := cacheKey(exercise)
	if a.redisClient != nil {
		cached, err := a.redisClient.Get(ctx, key).Result()
		switch {
		case err == nil && cached != "":
			span.SetAttributes(attribute.Bool("from-cache", true))
			a.metrics.CounterVideoLookups.WithLabelValues(metrics.OutcomeCached).Inc()
			return cached, nil
		case err != nil && !errors.Is(err, redis.Nil):
			log.Errorf("failed to get video id from redis for [%s]: %s", key, err)
		default:
			log.Debugf("video id for [%s] not cached", exercise)
		}
	}
	span.SetAttributes(attribute.Bool("from-cache", false))

	videoID, err := a.search(ctx, exercise)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.metrics.CounterVideoLookups.WithLabelValues(metrics.OutcomeNotFound).Inc()
		} else {
			a.metrics.CounterVideoLookups.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return "", err
	}
	a.metrics.CounterVideoLookups.WithLabelValues(metrics.OutcomeOK).Inc()

	if a.redisClient != nil {
		if err := a.redisClient.Set(ctx, key, videoID, a.cacheTTL).Err(); err != nil {
			log.Errorf("failed to cache video id in redis for %s: %s", exercise, err)
		} else {
			log.Debugf("video id cache set in redis for: %s", exercise)
		}
	}

	return videoID, nil
}

func (a *Api) search(ctx context.Context, exercise string) (string, error) {
	call := a.service.Search.List([]string{"id", "snippet"}).
		Q(searchPrefix + exercise).
		Type("video").
		RelevanceLanguage("en").
		MaxResults(1).
		Context(ctx)

	var opts []googleapi.CallOption
	if a.apiKey != "" {
		opts = append(opts, googleapi.QueryParameter("key", a.apiKey))
	}

	resp, err := call.Do(opts...)
	if err != nil {
		return "", fmt.Errorf("youtube search [%s]: %w", exercise, err)
	}

	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			return item.Id.VideoId, nil
		}
	}
	return "", fmt.Errorf("%w for [%s]", ErrNotFound, exercise)
}
