// Package main builds one Commander deck from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/charts"
	"github.com/ramonehamilton/commander-forge/internal/config"
	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/logging"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
	"github.com/ramonehamilton/commander-forge/internal/pipeline"
	"github.com/ramonehamilton/commander-forge/internal/pool"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

const streamBuffer = 64

var (
	commanderFlag = flag.String("commander", "", "Commander card name or Scryfall UUID (required)")
	modelFlag     = flag.String("model", "", `Oracle model, "local" or "remote" (default: config)`)
	powerFlag     = flag.Int("power", 0, "Target power level, 1-10 (default: 7)")
	budgetFlag    = flag.Float64("budget", 0, "Rough deck budget in USD (0 = no limit)")
	themeFlag     = flag.String("theme", "", "Theme to emphasize, e.g. \"token swarm\"")
	comboFlag     = flag.Bool("combo", true, "Allow infinite combo lines")
	outFlag       = flag.String("out", "", "Decklist output path (default: stdout)")
	chartsFlag    = flag.String("charts", "", "Write chart HTML files to this directory")
	configFlag    = flag.String("config", "", "Config file path (default: ~/.commander-forge/config.toml)")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	if *commanderFlag == "" {
		fmt.Fprintln(os.Stderr, "deckbuilder: -commander is required")
		fmt.Fprintln(os.Stderr, "Usage: deckbuilder -commander <name-or-uuid> [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// The event lines below are the CLI's output; keep the logger to
	// warnings so it does not drown them.
	logger, _, err := logging.New(cfg.Logging.Mode, "warn")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cards := scryfall.NewClient(&scryfall.Config{BaseURL: cfg.Scryfall.BaseURL})

	commander, err := resolveCommander(ctx, cards, *commanderFlag)
	if err != nil {
		log.Fatalf("Failed to resolve commander %q: %v", *commanderFlag, err)
	}
	fmt.Fprintf(os.Stderr, "Building a deck for %s\n", commander.Name)

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

	req := pipeline.Request{
		CommanderID: commander.ID,
		Model:       *modelFlag,
		Options: pipeline.Options{
			Budget:     *budgetFlag,
			PowerLevel: *powerFlag,
			FocusTheme: *themeFlag,
		},
	}
	if req.Model == "" {
		req.Model = cfg.Oracle.DefaultProvider
	}
	// Only an explicit -combo=false should override the default.
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "combo" {
			v := *comboFlag
			req.Options.IncludeCombo = &v
		}
	})
	if err := req.Validate(); err != nil {
		log.Fatalf("Invalid build request: %v", err)
	}

	stream := events.NewStream(streamBuffer)

	var (
		final    *deck.FinalDeck
		buildErr error
	)
	go func() {
		defer stream.Close()
		final, buildErr = builder.Build(ctx, req, stream)
	}()

	for ev := range stream.Events() {
		printEvent(os.Stderr, ev)
	}

	// The stream closes only after Build returns, so final and buildErr
	// are settled here.
	if buildErr != nil {
		log.Fatalf("Build failed: %v", buildErr)
	}

	text := deck.ExportText(final)
	if *outFlag != "" {
		if err := os.WriteFile(*outFlag, []byte(text), 0o644); err != nil {
			log.Fatalf("Failed to write decklist: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Decklist written to %s\n", *outFlag)
	} else {
		fmt.Print(text)
	}

	if *chartsFlag != "" {
		if err := charts.SaveDeckCharts(*chartsFlag, final, charts.DefaultConfig()); err != nil {
			log.Fatalf("Failed to write charts: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Charts written to %s\n", *chartsFlag)
	}
}

// resolveCommander turns a card name or UUID into a card. Names go
// through the commander search and take the first match.
func resolveCommander(ctx context.Context, cards *scryfall.Client, ref string) (*scryfall.Card, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return cards.Card(ctx, ref)
	}

	page, err := cards.SearchPage(ctx, scryfall.CommanderSearchQuery(ref), 1)
	if err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, fmt.Errorf("no commander matches %q", ref)
	}
	return &page.Data[0], nil
}

func printEvent(w io.Writer, ev events.Event) {
	switch ev.Type {
	case events.TypeConnected:
		fmt.Fprintf(w, "* %s\n", ev.Message)
	case events.TypeStageStarted:
		fmt.Fprintf(w, "[%s] %s\n", ev.Stage, ev.Message)
	case events.TypeProgress:
		fmt.Fprintf(w, "[%s] %3d%% %s\n", ev.Stage, ev.Percent, ev.Message)
	case events.TypeStageFinished:
		fmt.Fprintf(w, "[%s] %s\n", ev.Stage, ev.Message)
	case events.TypeComplete:
		if ev.Result != nil {
			fmt.Fprintf(w, "Deck complete: %d cards (%d lands, %d creatures, %d spells)\n",
				ev.Result.TotalCards, len(ev.Result.Lands), len(ev.Result.Creatures), len(ev.Result.Spells))
		}
	case events.TypeError:
		fmt.Fprintf(w, "Build error: %s\n", ev.Error)
	}
}

// buildProviders wires the configured oracle providers, same shape as
// the API server: local always, remote only with an API key present.
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
		}
	}

	return providers
}
