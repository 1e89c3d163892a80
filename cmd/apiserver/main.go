// Package main runs the commander-forge REST API server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ramonehamilton/commander-forge/internal/api"
	"github.com/ramonehamilton/commander-forge/internal/config"
	"github.com/ramonehamilton/commander-forge/internal/logging"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/pipeline"
	"github.com/ramonehamilton/commander-forge/internal/pool"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
	"github.com/ramonehamilton/commander-forge/internal/storage"
	"github.com/ramonehamilton/commander-forge/internal/version"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath = flag.String("config", "", "Config file path (default: ~/.commander-forge/config.toml)")
	port       = flag.Int("port", 0, "Override the configured API port")
	dbPath     = flag.String("db", "", "Override the configured database path")
)

func main() {
	flag.Parse()

	// .env first: API keys come from the environment, never the config
	// file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, level, err := logging.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting commander-forge api server",
		zap.String("version", version.Version),
		zap.String("addr", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	db, err := storage.Open(storage.DefaultConfig(cfg.Storage.Path))
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", zap.Error(err))
		}
	}()
	store := storage.NewDeckStore(db)

	cards := scryfall.NewClient(&scryfall.Config{BaseURL: cfg.Scryfall.BaseURL})

	// Validate has already checked both duration strings.
	cacheTTL, _ := cfg.CacheTTL()
	oracleTimeout, _ := cfg.OracleTimeout()

	resolver := pool.NewResolver(cards, &pool.Config{
		MaxPoolSize: cfg.Pipeline.PoolCeiling,
		CacheTTL:    cacheTTL,
	}, logger)

	providers := buildProviders(cfg, oracleTimeout, logger)

	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.BatchConcurrency = cfg.Pipeline.BatchConcurrency
	builder := pipeline.NewBuilder(resolver, providers, pipeCfg, logger)

	server := api.NewServer(&api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, api.Deps{
		Builder:   builder,
		Cards:     cards,
		Store:     store,
		Providers: providers,
	}, logger)

	if err := server.Start(); err != nil {
		logger.Fatal("starting api server", zap.Error(err))
	}

	// The watcher applies log-level changes live; everything else in
	// the file needs a restart.
	watcher, err := config.Watch(*configPath, logger, func(next *config.Config) {
		parsed, perr := zapcore.ParseLevel(next.Logging.Level)
		if perr != nil {
			logger.Warn("config reload: unusable log level", zap.String("level", next.Logging.Level))
			return
		}
		level.SetLevel(parsed)
		logger.Info("log level updated", zap.String("level", next.Logging.Level))
	})
	if err != nil {
		logger.Warn("config watcher disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("api server stopped")
}

// buildProviders wires the configured oracle providers. The local
// provider is always present; the remote one only when its API key is
// in the environment.
func buildProviders(cfg *config.Config, oracleTimeout time.Duration, logger *zap.Logger) oracle.Providers {
	localCfg := oracle.DefaultOllamaConfig()
	if cfg.Oracle.Local.BaseURL != "" {
		localCfg.BaseURL = cfg.Oracle.Local.BaseURL
	}
	if cfg.Oracle.Local.Model != "" {
		localCfg.Model = cfg.Oracle.Local.Model
	}
	localCfg.InferenceTimeout = oracleTimeout

	providers := oracle.Providers{Local: oracle.NewOllama(localCfg, logger)}

	if key := os.Getenv(cfg.Oracle.Remote.APIKeyEnv); key != "" {
		geminiCfg := oracle.DefaultGeminiConfig()
		geminiCfg.APIKey = key
		if cfg.Oracle.Remote.Model != "" {
			geminiCfg.Model = cfg.Oracle.Remote.Model
		}
		remote, err := oracle.NewGemini(context.Background(), geminiCfg)
		if err != nil {
			logger.Warn("remote oracle unavailable", zap.Error(err))
		} else {
			providers.Remote = remote
			logger.Info("remote oracle configured", zap.String("model", geminiCfg.Model))
		}
	} else {
		logger.Info("remote oracle not configured",
			zap.String("keyEnv", cfg.Oracle.Remote.APIKeyEnv))
	}

	return providers
}
