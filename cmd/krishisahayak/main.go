// Krishisahayak is a voice-first farm assistant daemon. A farmer speaks an
// activity or a sale, the daemon structures it, reads it back for
// confirmation and writes it to the farm ledger. It also serves the local
// weather with crop advice.
//
// Usage:
//
//	krishisahayak [flags]
//	krishisahayak --config /path/to/krishisahayak.yaml
//
//	@title						krishisahayak API
//	@version					1.0
//	@description				Voice command sessions, farm ledger and weather for one farmer.
//	@BasePath					/
//	@schemes					http
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/hasti-ptl/Krishisahayk/internal/assistant"
	"github.com/hasti-ptl/Krishisahayk/internal/capture"
	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/health"
	"github.com/hasti-ptl/Krishisahayk/internal/intent"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
	anthropicinterp "github.com/hasti-ptl/Krishisahayk/internal/interpreter/anthropic"
	localinterp "github.com/hasti-ptl/Krishisahayk/internal/interpreter/local"
	openaiinterp "github.com/hasti-ptl/Krishisahayk/internal/interpreter/openai"
	"github.com/hasti-ptl/Krishisahayk/internal/ledger"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
	"github.com/hasti-ptl/Krishisahayk/internal/store"
	filestore "github.com/hasti-ptl/Krishisahayk/internal/store/file"
	redisstore "github.com/hasti-ptl/Krishisahayk/internal/store/redis"
	sqlitestore "github.com/hasti-ptl/Krishisahayk/internal/store/sqlite"
	"github.com/hasti-ptl/Krishisahayk/internal/telemetry"
	"github.com/hasti-ptl/Krishisahayk/internal/telemetry/geo"
	"github.com/hasti-ptl/Krishisahayk/internal/telemetry/weatherapi"
	"github.com/hasti-ptl/Krishisahayk/internal/transport"
	grpctransport "github.com/hasti-ptl/Krishisahayk/internal/transport/grpc"
	httptransport "github.com/hasti-ptl/Krishisahayk/internal/transport/http"
	mqtttransport "github.com/hasti-ptl/Krishisahayk/internal/transport/mqtt"
	"github.com/hasti-ptl/Krishisahayk/internal/tts"
	"github.com/hasti-ptl/Krishisahayk/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/krishisahayak.yaml)")
	envFile := flag.String("env", ".env", "dotenv file with API keys; missing is fine")
	flag.Parse()

	if *showVersion {
		fmt.Printf("krishisahayak %s\n", version)
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("reading env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("krishisahayak starting", "version", version, "farmer_id", cfg.Farmer.ID)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("krishisahayak failed", "error", err)
		os.Exit(1)
	}
	slog.Info("krishisahayak stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()
	clock := clockwork.NewRealClock()
	healthServer := health.New(cfg.Server.HealthPort)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	if p, ok := st.(store.Pinger); ok {
		healthServer.AddCheck("store", p.Ping)
	}
	slog.Info("store ready", "backend", cfg.Store.Backend)

	oracle, transcriber := newInterpreter(cfg.Interpreter)
	if oracle != nil {
		defer oracle.Close()
		slog.Info("using interpreter", "backend", oracle.Name())
	} else {
		slog.Info("no interpreter configured, commands are structured offline")
	}

	// Transports are built first: MQTT doubles as the speech sink.
	var transports []transport.Transport
	var grpcT *grpctransport.Transport
	var sink tts.Sink = tts.LogSink{Logger: logger}
	if cfg.Transports.GRPC.Enabled {
		grpcT = grpctransport.New(cfg.Transports.GRPC, logger)
		transports = append(transports, grpcT)
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, logger))
	}
	if cfg.Transports.MQTT.Enabled {
		mt := mqtttransport.New(cfg.Transports.MQTT, cfg.Farmer.ID, logger)
		transports = append(transports, mt)
		sink = mt
	}
	if len(transports) == 0 {
		return errors.New("no transports enabled, enable at least one in config")
	}

	var synth tts.Synthesizer
	if cfg.TTS.Enabled {
		synth = piper.New(cfg.TTS.Piper, logger)
	}
	announcer := tts.NewAnnouncer(synth, sink, cfg.TTS.Timeout, logger)
	defer announcer.Close()

	inbox := capture.NewInbox()
	books := ledger.New(st, clock, cfg.Farmer.ID)
	sess := session.New(inbox, intent.New(oracle, logger), books, announcer, session.Options{
		Language:         cfg.Farmer.Language,
		ResetDelay:       cfg.Session.ResetDelay,
		ListenTimeout:    cfg.Session.ListenTimeout,
		StructureTimeout: cfg.Session.StructureTimeout,
		Clock:            clock,
		Logger:           logger,
	})
	defer sess.Close()

	weather := newResolver(cfg.Telemetry, st, clock, logger)
	svc := assistant.New(sess, inbox, books, weather, transcriber, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthServer.ListenAndServe(gctx) })
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(gctx, svc); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			return nil
		})
	}

	healthServer.SetReady(true)
	slog.Info("krishisahayak ready",
		"transports", len(transports),
		"language", cfg.Farmer.Language,
		"health_port", cfg.Server.HealthPort)

	<-gctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)
	if grpcT != nil {
		grpcT.SetServing(false)
	}

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "file":
		return filestore.New(cfg.File.Dir)
	case "sqlite":
		return sqlitestore.Open(ctx, cfg.SQLite.Path)
	case "redis":
		return redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newInterpreter returns the oracle (nil for offline structuring) and the
// transcriber (nil when the backend has no speech recognition).
func newInterpreter(cfg config.InterpreterConfig) (interpreter.Oracle, interpreter.Transcriber) {
	var (
		oracle      interpreter.Oracle
		transcriber interpreter.Transcriber
	)
	switch cfg.Backend {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			slog.Warn("openai backend selected without an API key, falling back to offline")
			return nil, nil
		}
		in := openaiinterp.New(cfg.OpenAI)
		oracle, transcriber = in, in
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			slog.Warn("anthropic backend selected without an API key, falling back to offline")
			return nil, nil
		}
		oracle = anthropicinterp.New(cfg.Anthropic)
	case "local":
		in := localinterp.New(cfg.Local)
		oracle, transcriber = in, in
	default:
		return nil, nil
	}
	if cfg.RateLimit.RPS > 0 {
		oracle = interpreter.NewRateLimited(oracle, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return oracle, transcriber
}

func newResolver(cfg config.TelemetryConfig, cache store.Store, clock clockwork.Clock, logger *slog.Logger) *telemetry.Resolver {
	var forecaster telemetry.Forecaster = weatherapi.New(cfg.WeatherAPI.APIKey, cfg.WeatherAPI.BaseURL, logger)
	if rl := cfg.WeatherAPI.RateLimit; rl.RPS > 0 {
		forecaster = telemetry.NewRateLimitedForecaster(forecaster, rl.RPS, rl.Burst)
	}

	var locator telemetry.Locator
	switch cfg.Location.Provider {
	case "ip":
		locator = geo.NewIPLocator(cfg.Location.Endpoint, logger)
	case "static":
		locator = geo.Static{Coord: farm.Coordinate{Lat: cfg.Location.Lat, Lon: cfg.Location.Lon}}
	}

	def := farm.Coordinate{Lat: cfg.Default.Lat, Lon: cfg.Default.Lon}
	return telemetry.NewResolver(locator, forecaster, cache, telemetry.Options{
		LocateTimeout: cfg.Location.Timeout,
		Default:       &def,
		Clock:         clock,
		Logger:        logger,
	})
}
