package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Intel     IntelConfig     `mapstructure:"intel"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool               `mapstructure:"enabled"`
	URL        string             `mapstructure:"url"`
	StreamName string             `mapstructure:"stream_name"`
	Subjects   NATSSubjectsConfig `mapstructure:"subjects"`
}

type NATSSubjectsConfig struct {
	AnalysisCompleted string `mapstructure:"analysis_completed"`
	ThreatDetected    string `mapstructure:"threat_detected"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// AnalysisConfig carries the pipeline tunables. The calibration constants are
// tuning values, not accuracy guarantees; they are kept configurable on purpose.
type AnalysisConfig struct {
	MaxThreats       int           `mapstructure:"max_threats"`
	ResultTTL        time.Duration `mapstructure:"result_ttl"`
	GeneratorTimeout time.Duration `mapstructure:"generator_timeout"`

	ConfidenceCeiling  float64 `mapstructure:"confidence_ceiling"`
	ChainBaseline      float64 `mapstructure:"chain_baseline"`
	IndustryMultiplier float64 `mapstructure:"industry_multiplier"`
	SignalLikelihood   float64 `mapstructure:"signal_likelihood_step"`

	Weights     CompositeWeights  `mapstructure:"weights"`
	Bonuses     ProvenanceBonuses `mapstructure:"bonuses"`
	QuickTopN   int               `mapstructure:"quick_top_n"`
	RulesetPath string            `mapstructure:"ruleset_path"`
}

// CompositeWeights are the fixed weights of the composite ranking score.
type CompositeWeights struct {
	Severity   float64 `mapstructure:"severity"`
	Likelihood float64 `mapstructure:"likelihood"`
	Confidence float64 `mapstructure:"confidence"`
}

// ProvenanceBonuses reward candidates from generators that tend to surface
// threats the rule table cannot see yet.
type ProvenanceBonuses struct {
	Emerging float64 `mapstructure:"emerging"`
	Industry float64 `mapstructure:"industry"`
}

type IntelConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	FeedURL      string        `mapstructure:"feed_url"`
	APIKey       string        `mapstructure:"api_key"`
}

// DefaultAnalysisConfig returns the documented default tuning.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MaxThreats:         25,
		ResultTTL:          time.Hour,
		GeneratorTimeout:   10 * time.Second,
		ConfidenceCeiling:  0.98,
		ChainBaseline:      0.85,
		IndustryMultiplier: 1.1,
		SignalLikelihood:   0.01,
		Weights: CompositeWeights{
			Severity:   0.3,
			Likelihood: 0.25,
			Confidence: 0.25,
		},
		Bonuses: ProvenanceBonuses{
			Emerging: 0.05,
			Industry: 0.05,
		},
		QuickTopN: 5,
	}
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/threatscope-lab")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("THREATSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.host", "THREATSCOPE_REDIS_HOST")
	v.BindEnv("redis.port", "THREATSCOPE_REDIS_PORT")
	v.BindEnv("redis.password", "THREATSCOPE_REDIS_PASSWORD")
	v.BindEnv("database.host", "THREATSCOPE_DATABASE_HOST")
	v.BindEnv("database.port", "THREATSCOPE_DATABASE_PORT")
	v.BindEnv("database.user", "THREATSCOPE_DATABASE_USER")
	v.BindEnv("database.password", "THREATSCOPE_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "THREATSCOPE_DATABASE_DBNAME")
	v.BindEnv("nats.enabled", "THREATSCOPE_NATS_ENABLED")
	v.BindEnv("intel.api_key", "THREATSCOPE_INTEL_API_KEY")
	v.BindEnv("auth.api_key", "THREATSCOPE_AUTH_API_KEY")
	v.BindEnv("app.environment", "THREATSCOPE_APP_ENVIRONMENT")

	// Read config file; a missing file falls back to defaults + env
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "threatscope-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "threatscope:")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.stream_name", "THREATSCOPE_ANALYSES")
	v.SetDefault("nats.subjects.analysis_completed", "analyses.completed")
	v.SetDefault("nats.subjects.threat_detected", "analyses.threats")

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	def := DefaultAnalysisConfig()
	v.SetDefault("analysis.max_threats", def.MaxThreats)
	v.SetDefault("analysis.result_ttl", def.ResultTTL)
	v.SetDefault("analysis.generator_timeout", def.GeneratorTimeout)
	v.SetDefault("analysis.confidence_ceiling", def.ConfidenceCeiling)
	v.SetDefault("analysis.chain_baseline", def.ChainBaseline)
	v.SetDefault("analysis.industry_multiplier", def.IndustryMultiplier)
	v.SetDefault("analysis.signal_likelihood_step", def.SignalLikelihood)
	v.SetDefault("analysis.weights.severity", def.Weights.Severity)
	v.SetDefault("analysis.weights.likelihood", def.Weights.Likelihood)
	v.SetDefault("analysis.weights.confidence", def.Weights.Confidence)
	v.SetDefault("analysis.bonuses.emerging", def.Bonuses.Emerging)
	v.SetDefault("analysis.bonuses.industry", def.Bonuses.Industry)
	v.SetDefault("analysis.quick_top_n", def.QuickTopN)

	v.SetDefault("intel.enabled", true)
	v.SetDefault("intel.fetch_timeout", 5*time.Second)
}
