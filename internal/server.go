package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitcoach/internal/cache"
	"github.com/2beens/fitcoach/internal/coach"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/db"
	"github.com/2beens/fitcoach/internal/genai"
	"github.com/2beens/fitcoach/internal/insights"
	"github.com/2beens/fitcoach/internal/middleware"
	"github.com/2beens/fitcoach/internal/retrieval"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/videosearch"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

const (
	serviceName     = "fitcoach-backend"
	reportCacheSize = 1000
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	adminTokenHash    string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	genAI         *genai.Client
	qa            *retrieval.QA
	videoApi      *videosearch.Api
	insightsStore *insights.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	GenAIApiKey             string
	YouTubeApiKey           string
	RedisPassword           string
	PostgresPassword        string
	AdminTokenHash          string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, serviceName, rdb)
	if err != nil {
		return nil, fmt.Errorf("honeycomb setup: %w", err)
	}

	var dbPool *pgxpool.Pool
	var extraCollectors []prometheus.Collector
	if cfg.Features.PersistInsights {
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	promRegistry := metrics.SetupPrometheus(extraCollectors...)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	genAIClient := genai.NewClient(genai.Params{
		BaseURL:        cfg.GenAI.BaseURL,
		APIKey:         params.GenAIApiKey,
		Model:          cfg.GenAI.Model,
		EmbeddingModel: cfg.GenAI.EmbeddingModel,
		Temperature:    cfg.GenAI.Temperature,
		Timeout:        cfg.GenAI.Timeout.Duration,
		MaxRetries:     cfg.GenAI.MaxRetries,
		CacheTTL:       cfg.GenAI.CacheTTL.Duration,
		EmbedPerSecond: cfg.GenAI.EmbedPerSecond,
		HTTPClient:     tracedHttpClient,
		Metrics:        metricsManager,
	})

	s := &Server{
		config:         cfg,
		dbPool:         dbPool,
		redisClient:    rdb,
		versionInfo:    params.VersionInfo,
		adminTokenHash: params.AdminTokenHash,
		genAI:          genAIClient,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if cfg.Features.Retrieval {
		indexes, err := retrieval.LoadIndexes(
			ctx,
			CorpusFiles(cfg),
			genAIClient,
			retrieval.NewRedisEmbeddingStore(rdb),
			metricsManager,
		)
		if err != nil {
			return nil, fmt.Errorf("load retrieval indexes: %w", err)
		}
		s.qa = retrieval.NewQA(retrieval.QAParams{
			Searchers: retrieval.Searchers(indexes),
			Generator: genAIClient,
			TopK:      cfg.Retrieval.TopK,
			Threshold: cfg.Retrieval.ScoreThreshold,
			Metrics:   metricsManager,
		})
	}

	if cfg.Features.VideoSearch {
		if params.YouTubeApiKey == "" {
			log.Warnln("video search enabled, but youtube API key is not set")
		}
		s.videoApi, err = videosearch.NewApi(ctx, videosearch.ApiParams{
			Endpoint:    cfg.Video.Endpoint,
			ApiKey:      params.YouTubeApiKey,
			HttpClient:  tracedHttpClient,
			RedisClient: rdb,
			CacheTTL:    cfg.Video.CacheTTL.Duration,
			Metrics:     metricsManager,
		})
		if err != nil {
			return nil, fmt.Errorf("new video search api: %w", err)
		}
	}

	if cfg.Features.PersistInsights {
		reportCache, err := cache.NewRistrettoCache(reportCacheSize)
		if err != nil {
			return nil, fmt.Errorf("new report cache: %w", err)
		}
		s.insightsStore = insights.NewService(insights.NewRepo(dbPool), reportCache)
	}

	return s, nil
}

// CorpusFiles maps the retrieval topics to the configured corpus paths.
func CorpusFiles(cfg *config.Config) retrieval.CorpusFiles {
	return retrieval.CorpusFiles{
		retrieval.TopicExercise: cfg.Retrieval.WorkoutCsvPath,
		retrieval.TopicDiet:     cfg.Retrieval.DietCsvPath,
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	// only non-nil features are handed over, a typed nil would register the routes
	handlerParams := coach.HandlerParams{
		Generator:   s.genAI,
		Metrics:     s.metricsManager,
		VersionInfo: s.versionInfo,
	}
	if s.qa != nil {
		handlerParams.QA = s.qa
	}
	if s.videoApi != nil {
		handlerParams.Videos = s.videoApi
	}
	if s.insightsStore != nil {
		handlerParams.Reports = s.insightsStore
	}

	coachHandler := coach.NewHandler(handlerParams)
	coachHandler.SetupRoutes(r, redis_rate.NewLimiter(s.redisClient), s.config.RateLimitPerMin)

	if s.insightsStore != nil {
		insightsHandler := insights.NewHandler(s.insightsStore)
		r.HandleFunc("/insights/reports/page/{page}/size/{size}", insightsHandler.HandleGetPage).Methods("GET", "OPTIONS").Name("list-reports")
		r.HandleFunc("/insights/reports/{id}", insightsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-report")
	}

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		middleware.NewBcryptTokenChecker(s.adminTokenHash),
	)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var errs error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown metrics http server: %w", err))
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return errs
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
