package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/fitcoach/internal"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/genai"
	"github.com/2beens/fitcoach/internal/logging"
	"github.com/2beens/fitcoach/internal/retrieval"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// indexer embeds both corpora and stores the vectors in redis, so the service starts warm.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("envfile", ".env", "optional file with the secret env vars")
	timeout := flag.Duration("timeout", 10*time.Minute, "max duration of the whole indexing")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Debugf("env file [%s] not loaded: %s", *envFile, err)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	if cfg.GenAI.EmbeddingModel == "" {
		log.Fatalln("genai embedding_model must be set in the config")
	}

	genAIApiKey := os.Getenv("GENAI_API_KEY")
	if genAIApiKey == "" {
		log.Fatalln("genai API key not set, use GENAI_API_KEY env var to set it")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("FITCOACH_REDIS_PASS"),
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %s", err)
	}

	// not exported anywhere, the manager only backs the clients' counters
	metricsManager := metrics.NewManager("indexer", "main", prometheus.NewRegistry())

	genAIClient := genai.NewClient(genai.Params{
		BaseURL:        cfg.GenAI.BaseURL,
		APIKey:         genAIApiKey,
		Model:          cfg.GenAI.Model,
		EmbeddingModel: cfg.GenAI.EmbeddingModel,
		Timeout:        cfg.GenAI.Timeout.Duration,
		MaxRetries:     cfg.GenAI.MaxRetries,
		EmbedPerSecond: cfg.GenAI.EmbedPerSecond,
		HTTPClient:     &http.Client{},
		Metrics:        metricsManager,
	})

	start := time.Now()
	indexes, err := retrieval.LoadIndexes(
		ctx,
		internal.CorpusFiles(cfg),
		genAIClient,
		retrieval.NewRedisEmbeddingStore(rdb),
		metricsManager,
	)
	if err != nil {
		log.Fatalf("index corpora: %s", err)
	}

	for topic, idx := range indexes {
		fmt.Printf("%s: %d documents\n", topic, idx.Len())
	}
	fmt.Printf("indexing done in %s\n", time.Since(start).Round(time.Millisecond))
}
