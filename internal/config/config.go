// Package config handles loading and validating the krishisahayak configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the krishisahayak daemon.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Farmer      FarmerConfig      `mapstructure:"farmer"`
	Session     SessionConfig     `mapstructure:"session"`
	Transports  TransportsConfig  `mapstructure:"transports"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Store       StoreConfig       `mapstructure:"store"`
	TTS         TTSConfig         `mapstructure:"tts"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// FarmerConfig identifies the single farmer this daemon serves.
type FarmerConfig struct {
	ID       int64  `mapstructure:"id"`
	Language string `mapstructure:"language"` // BCP 47 tag: en-IN, hi-IN, mr-IN
}

// SessionConfig tunes the voice command state machine.
type SessionConfig struct {
	ResetDelay       time.Duration `mapstructure:"reset_delay"`       // Succeeded -> Idle
	ListenTimeout    time.Duration `mapstructure:"listen_timeout"`    // no transcript -> CaptureError
	StructureTimeout time.Duration `mapstructure:"structure_timeout"` // bound on one oracle call
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

// GRPCConfig configures the gRPC health transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Enabled      bool  `mapstructure:"enabled"`
	Port         int   `mapstructure:"port"`
	MaxAudioSize int64 `mapstructure:"max_audio_size"` // bytes
}

// MQTTConfig configures the MQTT transport. Topics are rooted at
// <topic_prefix>/<farmer id>.
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"` // random when empty
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         byte   `mapstructure:"qos"`
}

// InterpreterConfig selects and configures the NLU oracle backend.
type InterpreterConfig struct {
	Backend   string          `mapstructure:"backend"` // "openai", "anthropic", "local" or "offline"
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Local     LocalConfig     `mapstructure:"local"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	CompletionModel    string `mapstructure:"completion_model"`
}

// AnthropicConfig holds Anthropic Messages API settings.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// LocalConfig holds self-hosted model settings.
type LocalConfig struct {
	WhisperEndpoint string `mapstructure:"whisper_endpoint"`
	WhisperType     string `mapstructure:"whisper_type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	LLMEndpoint     string `mapstructure:"llm_endpoint"`
	LLMModel        string `mapstructure:"llm_model"` // Ollama model name (e.g., "llama3.2:1b")
	VADFilter       bool   `mapstructure:"vad_filter"`
}

// RateLimitConfig is a token bucket: RPS may be fractional. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// TelemetryConfig configures the weather provider and location lookup.
type TelemetryConfig struct {
	WeatherAPI WeatherAPIConfig `mapstructure:"weatherapi"`
	Location   LocationConfig   `mapstructure:"location"`
	Default    CoordinateConfig `mapstructure:"default"`
}

// WeatherAPIConfig holds WeatherAPI.com settings.
type WeatherAPIConfig struct {
	APIKey    string          `mapstructure:"api_key"`
	BaseURL   string          `mapstructure:"base_url"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// LocationConfig selects how the farm's position is found.
type LocationConfig struct {
	Provider string        `mapstructure:"provider"` // "ip", "static" or "none"
	Endpoint string        `mapstructure:"endpoint"` // ip geolocation URL
	Timeout  time.Duration `mapstructure:"timeout"`
	Lat      float64       `mapstructure:"lat"` // static provider
	Lon      float64       `mapstructure:"lon"`
}

// CoordinateConfig is a latitude/longitude pair.
type CoordinateConfig struct {
	Lat float64 `mapstructure:"lat"`
	Lon float64 `mapstructure:"lon"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string       `mapstructure:"backend"` // "file", "sqlite", "redis" or "memory"
	File    FileConfig   `mapstructure:"file"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
	Redis   RedisConfig  `mapstructure:"redis"`
}

// FileConfig holds the JSON directory store settings.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// SQLiteConfig holds the SQLite store settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds the Redis store settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"` // "piper"
	Timeout time.Duration `mapstructure:"timeout"`
	Piper   PiperConfig   `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. If both are set, Endpoints takes
// precedence and Endpoint is the fallback.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`  // Default Wyoming TCP endpoint (host:port)
	Endpoints map[string]string `mapstructure:"endpoints"` // ISO-639-1 language code -> Wyoming TCP endpoint
	Voices    map[string]string `mapstructure:"voices"`    // ISO-639-1 language code -> Piper voice model name
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./krishisahayak.yaml, ./configs/krishisahayak.yaml,
// /etc/krishisahayak/krishisahayak.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("krishisahayak")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/krishisahayak")
	}

	// Environment variables: KRISHI_STORE_BACKEND, KRISHI_TELEMETRY_WEATHERAPI_API_KEY, etc.
	v.SetEnvPrefix("KRISHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional: env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${WEATHER_API_KEY}")
	cfg.Interpreter.OpenAI.APIKey = resolveEnvRef(cfg.Interpreter.OpenAI.APIKey)
	cfg.Interpreter.Anthropic.APIKey = resolveEnvRef(cfg.Interpreter.Anthropic.APIKey)
	cfg.Telemetry.WeatherAPI.APIKey = resolveEnvRef(cfg.Telemetry.WeatherAPI.APIKey)
	cfg.Store.Redis.Password = resolveEnvRef(cfg.Store.Redis.Password)
	cfg.Transports.MQTT.Password = resolveEnvRef(cfg.Transports.MQTT.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("farmer.id", 1)
	v.SetDefault("farmer.language", "en-IN")
	v.SetDefault("session.reset_delay", "3s")
	v.SetDefault("session.listen_timeout", "30s")
	v.SetDefault("session.structure_timeout", "20s")
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.max_audio_size", 10<<20)
	v.SetDefault("transports.mqtt.enabled", false)
	v.SetDefault("transports.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("transports.mqtt.topic_prefix", "krishi")
	v.SetDefault("transports.mqtt.qos", 1)
	v.SetDefault("transports.mqtt.client_id", "")
	v.SetDefault("transports.mqtt.username", "")
	v.SetDefault("transports.mqtt.password", "")
	v.SetDefault("interpreter.backend", "openai")
	v.SetDefault("interpreter.openai.api_key", "")
	v.SetDefault("interpreter.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("interpreter.openai.transcription_model", "gpt-4o-transcribe")
	v.SetDefault("interpreter.openai.completion_model", "gpt-4o-mini")
	v.SetDefault("interpreter.anthropic.api_key", "")
	v.SetDefault("interpreter.anthropic.base_url", "")
	v.SetDefault("interpreter.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("interpreter.anthropic.max_tokens", 1024)
	v.SetDefault("interpreter.local.whisper_endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("interpreter.local.whisper_type", "openai")
	v.SetDefault("interpreter.local.llm_endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("interpreter.local.llm_model", "llama3")
	v.SetDefault("interpreter.local.vad_filter", false)
	v.SetDefault("interpreter.rate_limit.rps", 1)
	v.SetDefault("interpreter.rate_limit.burst", 3)
	v.SetDefault("telemetry.weatherapi.api_key", "")
	v.SetDefault("telemetry.weatherapi.base_url", "https://api.weatherapi.com/v1")
	v.SetDefault("telemetry.weatherapi.rate_limit.rps", 0.5)
	v.SetDefault("telemetry.weatherapi.rate_limit.burst", 2)
	v.SetDefault("telemetry.location.provider", "ip")
	v.SetDefault("telemetry.location.timeout", "8s")
	v.SetDefault("telemetry.location.endpoint", "")
	v.SetDefault("telemetry.location.lat", 0.0)
	v.SetDefault("telemetry.location.lon", 0.0)
	v.SetDefault("telemetry.default.lat", 20.5937)
	v.SetDefault("telemetry.default.lon", 78.9629)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.file.dir", "./data")
	v.SetDefault("store.sqlite.path", "./data/krishisahayak.db")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.prefix", "krishi:")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.timeout", "15s")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects settings the daemon cannot start with.
func (c *Config) Validate() error {
	switch c.Interpreter.Backend {
	case "openai", "anthropic", "local", "offline":
	default:
		return fmt.Errorf("unknown interpreter backend %q", c.Interpreter.Backend)
	}
	switch c.Store.Backend {
	case "file", "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Telemetry.Location.Provider {
	case "ip", "static", "none":
	default:
		return fmt.Errorf("unknown location provider %q", c.Telemetry.Location.Provider)
	}
	if c.Session.ResetDelay <= 0 || c.Session.ListenTimeout <= 0 || c.Session.StructureTimeout <= 0 {
		return fmt.Errorf("session timeouts must be positive")
	}
	if c.Transports.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos %d out of range", c.Transports.MQTT.QoS)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	slog.SetDefault(NewLogger(cfg))
}

// NewLogger builds the logger SetupLogging installs.
func NewLogger(cfg LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
