package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/fitcoach/internal"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/logging"
	"github.com/2beens/fitcoach/pkg"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("envfile", ".env", "optional file with the secret env vars")
	hashToken := flag.String("hash-token", "", "print the FITCOACH_ADMIN_TOKEN_HASH value for the given admin token and exit")
	flag.Parse()

	if *hashToken != "" {
		tokenHash, err := pkg.HashSecret(*hashToken, pkg.DefaultHashCost)
		if err != nil {
			fmt.Printf("hash admin token: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(tokenHash)
		return
	}

	fmt.Println("starting ...")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debugf("env file [%s] not loaded: %s", *envFile, err)
	}

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logsCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "fitcoach-service",
	})
	defer func() {
		if err := logsCloser.Close(); err != nil {
			fmt.Printf("close logs: %s\n", err)
		}
	}()

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	genAIApiKey := os.Getenv("GENAI_API_KEY")
	if genAIApiKey == "" {
		log.Errorf("genai API key not set, use GENAI_API_KEY env var to set it")
	}

	youTubeApiKey := os.Getenv("YOUTUBE_API_KEY")
	if youTubeApiKey == "" && cfg.Features.VideoSearch {
		log.Errorf("youtube API key not set, use YOUTUBE_API_KEY env var to set it")
	}

	adminTokenHash := os.Getenv("FITCOACH_ADMIN_TOKEN_HASH")
	if adminTokenHash == "" {
		log.Errorf("admin token hash not set, admin routes are locked. use FITCOACH_ADMIN_TOKEN_HASH")
	}

	redisPassword := os.Getenv("FITCOACH_REDIS_PASS")
	if redisPassword == "" {
		log.Warnln("redis password not set. use FITCOACH_REDIS_PASS")
	}

	if cfg.Features.Retrieval {
		for _, path := range []string{cfg.Retrieval.WorkoutCsvPath, cfg.Retrieval.DietCsvPath} {
			exists, err := pkg.PathExists(path, false)
			if err != nil || !exists {
				log.Fatalf("retrieval corpus [%s] not found: %v", path, err)
			}
		}
	}

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			GenAIApiKey:             genAIApiKey,
			YouTubeApiKey:           youTubeApiKey,
			RedisPassword:           redisPassword,
			PostgresPassword:        os.Getenv("FITCOACH_PG_PASS"),
			AdminTokenHash:          adminTokenHash,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	if err := server.GracefulShutdown(); err != nil {
		log.Errorf("graceful shutdown: %s", err)
	}
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}
