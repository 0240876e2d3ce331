package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"tradingagents/internal/adapters/ai"
	"tradingagents/internal/adapters/config"
	"tradingagents/internal/adapters/embeddings"
	"tradingagents/internal/adapters/errors/noop"
	"tradingagents/internal/adapters/errors/sentry"
	"tradingagents/internal/adapters/kafka"
	"tradingagents/internal/adapters/postgres"
	"tradingagents/internal/domain/decision"
	"tradingagents/internal/domain/memory"
	"tradingagents/internal/engine"
	"tradingagents/internal/metrics"
	"tradingagents/internal/repository/inmem"
	repo "tradingagents/internal/repository/postgres"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

func main() {
	payloadPath := flag.String("payload", "-", "path to the payload JSON file, or - for stdin")
	migrationsDir := flag.String("migrations", "file://migrations", "migrations source URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)
	metrics.Init()

	if cfg.App.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.App.MetricsAddr, mux); err != nil {
				log.Warnf("Metrics server stopped: %v", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *payloadPath, *migrationsDir, log); err != nil {
		_ = errorTracker.Flush(context.Background())
		log.Fatalf("Run failed: %v", err)
	}
	_ = errorTracker.Flush(context.Background())
}

func run(ctx context.Context, cfg *config.Config, payloadPath, migrationsDir string, log *logger.Logger) error {
	payload, err := readPayload(payloadPath)
	if err != nil {
		return err
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
	}

	var (
		decisionRepo decision.Repository
		memoryRepo   memory.Repository
		usage        ai.UsageRecorder
	)
	if cfg.Postgres.Enabled() {
		if err := postgres.Migrate(migrationsDir, cfg.Postgres); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		client, err := postgres.NewClient(cfg.Postgres)
		if err != nil {
			return errors.Wrap(err, "connect to postgres")
		}
		defer func() { _ = client.Close() }()

		decisionRepo = repo.NewRunRepository(client.DB())
		memoryRepo = repo.NewMemoryRepository(client.DB())
		usage = repo.NewUsageRepository(client.DB())
	} else {
		log.Info("Postgres not configured, persistence disabled")
		memoryRepo = inmem.NewMemoryRepository()
	}

	dispatcher, err := ai.BuildDispatcher(ctx, cfg.AI, cfg.Engine, redisClient, usage)
	if err != nil {
		return err
	}

	memoryService := memory.NewService(memoryRepo, buildEmbeddings(cfg, log), memory.Config{
		MaxEntries: cfg.Memory.MaxEntries,
		Window:     cfg.Memory.Window(),
	}, log)

	var events engine.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer func() { _ = producer.Close() }()
		events = kafka.NewDecisionPublisher(producer)
	}

	eng := engine.New(dispatcher, memoryService, decisionRepo, events, engine.Config{
		DefaultModel:       cfg.AI.DefaultModel,
		InvestDebateRounds: cfg.Engine.InvestDebateRounds,
		RiskDebateRounds:   cfg.Engine.RiskDebateRounds,
		Temperature:        cfg.Engine.Temperature,
		MaxTokens:          cfg.Engine.MaxTokens,
		RetryAttempts:      cfg.Engine.RetryAttempts,
		LogsPath:           cfg.App.LogsDir,
	}, log)

	result, err := eng.RunDecision(ctx, payload)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal decision")
	}
	fmt.Println(string(out))
	return nil
}

func readPayload(path string) (*decision.Payload, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read payload")
	}

	var payload decision.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "decode payload: %v", err)
	}
	return &payload, nil
}

// buildEmbeddings picks the embedding backend: OpenAI when credentials are
// present, a deterministic local embedder in mock mode, nothing otherwise.
func buildEmbeddings(cfg *config.Config, log *logger.Logger) embeddings.Provider {
	if cfg.AI.MockMode {
		return embeddings.NewLocalProvider(0)
	}
	if cfg.AI.OpenAIKey != "" {
		provider, err := embeddings.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.EmbeddingModel, cfg.Engine.DispatchTimeout)
		if err != nil {
			log.Warnf("Embeddings disabled: %v", err)
			return nil
		}
		return provider
	}
	log.Info("No embedding credentials, persona memory disabled")
	return nil
}

func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}
