package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "ARVAIA"

// Dataset source kinds.
const (
	SourceFile   = "file"
	SourceXLSX   = "xlsx"
	SourceSheets = "sheets"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Insights  InsightsConfig  `yaml:"insights" envconfig:"INSIGHTS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"45s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/arvaia.log"`
}

// DatasetConfig selects where harvest records are read from.
type DatasetConfig struct {
	Source        string `yaml:"source" envconfig:"SOURCE" default:"file"`
	Path          string `yaml:"path" envconfig:"FILE" default:"data/distribuzione_2025.tsv"`
	SheetName     string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	SpreadsheetID string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Range         string `yaml:"range" envconfig:"RANGE" default:"A:H"`
	APIKey        string `yaml:"api_key" envconfig:"API_KEY"`
	// WeekOneMonday is the Monday week 1 starts on, YYYY-MM-DD. It changes
	// every season and is never derived from the data.
	WeekOneMonday string `yaml:"week_one_monday" envconfig:"WEEK_ONE_MONDAY" default:"2024-12-30"`
	// Watch reloads file sources when the file changes on disk.
	Watch         bool          `yaml:"watch" envconfig:"WATCH" default:"false"`
	WatchDebounce time.Duration `yaml:"watch_debounce" envconfig:"WATCH_DEBOUNCE" default:"500ms"`
}

// InsightsConfig configures the generative summary of the dataset.
type InsightsConfig struct {
	Enabled     bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	APIKeys     []string      `yaml:"api_keys" envconfig:"API_KEYS"`
	Model       string        `yaml:"model" envconfig:"MODEL" default:"gemini-3-flash-preview"`
	Temperature float32       `yaml:"temperature" envconfig:"TEMPERATURE" default:"0.7"`
	TopP        float32       `yaml:"top_p" envconfig:"TOP_P" default:"0.9"`
	MaxRecords  int           `yaml:"max_records" envconfig:"MAX_RECORDS" default:"50"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays values from the config file onto envConfig for every
// setting that was not given explicitly through the environment.
func mergeConfigs(fileConfig, envConfig Config) Config {
	str := func(key string, dst *string, src string) {
		if src != "" && !envSet(key) {
			*dst = src
		}
	}
	dur := func(key string, dst *time.Duration, src time.Duration) {
		if src != 0 && !envSet(key) {
			*dst = src
		}
	}

	if fileConfig.Server.Port != 0 && !envSet("SERVER_PORT") {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	dur("SERVER_READ_TIMEOUT", &envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout)
	dur("SERVER_WRITE_TIMEOUT", &envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout)
	dur("SERVER_REQUEST_TIMEOUT", &envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout)
	dur("SERVER_SHUTDOWN_TIMEOUT", &envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout)

	if len(fileConfig.Security.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if fileConfig.Security.RateLimit.RPS != 0 && !envSet("SECURITY_RATE_LIMIT_RPS") {
		envConfig.Security.RateLimit.RPS = fileConfig.Security.RateLimit.RPS
	}
	if fileConfig.Security.RateLimit.Burst != 0 && !envSet("SECURITY_RATE_LIMIT_BURST") {
		envConfig.Security.RateLimit.Burst = fileConfig.Security.RateLimit.Burst
	}

	str("LOGGING_LEVEL", &envConfig.Logging.Level, fileConfig.Logging.Level)
	str("LOGGING_OUTPUT", &envConfig.Logging.Output, fileConfig.Logging.Output)
	str("LOGGING_FILE_PATH", &envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	str("DATASET_SOURCE", &envConfig.Dataset.Source, fileConfig.Dataset.Source)
	str("DATASET_FILE", &envConfig.Dataset.Path, fileConfig.Dataset.Path)
	str("DATASET_SHEET_NAME", &envConfig.Dataset.SheetName, fileConfig.Dataset.SheetName)
	str("DATASET_SPREADSHEET_ID", &envConfig.Dataset.SpreadsheetID, fileConfig.Dataset.SpreadsheetID)
	str("DATASET_RANGE", &envConfig.Dataset.Range, fileConfig.Dataset.Range)
	str("DATASET_API_KEY", &envConfig.Dataset.APIKey, fileConfig.Dataset.APIKey)
	str("DATASET_WEEK_ONE_MONDAY", &envConfig.Dataset.WeekOneMonday, fileConfig.Dataset.WeekOneMonday)
	if fileConfig.Dataset.Watch && !envSet("DATASET_WATCH") {
		envConfig.Dataset.Watch = true
	}
	dur("DATASET_WATCH_DEBOUNCE", &envConfig.Dataset.WatchDebounce, fileConfig.Dataset.WatchDebounce)

	if len(fileConfig.Insights.APIKeys) > 0 && !envSet("INSIGHTS_API_KEYS") {
		envConfig.Insights.APIKeys = fileConfig.Insights.APIKeys
	}
	str("INSIGHTS_MODEL", &envConfig.Insights.Model, fileConfig.Insights.Model)
	if fileConfig.Insights.MaxRecords != 0 && !envSet("INSIGHTS_MAX_RECORDS") {
		envConfig.Insights.MaxRecords = fileConfig.Insights.MaxRecords
	}
	dur("INSIGHTS_TIMEOUT", &envConfig.Insights.Timeout, fileConfig.Insights.Timeout)

	return envConfig
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// resolvePaths makes relative file paths relative to the executable when
// they do not exist under the working directory.
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	if c.Dataset.Source != SourceSheets {
		c.Dataset.Path = paths.Resolve(c.Dataset.Path)
	}
	c.Logging.FilePath = paths.Resolve(c.Logging.FilePath)
	return nil
}

// WeekOneMonday parses Dataset.WeekOneMonday.
func (c *Config) WeekOneMonday() (time.Time, error) {
	return time.Parse(time.DateOnly, c.Dataset.WeekOneMonday)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch c.Dataset.Source {
	case SourceFile, SourceXLSX:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset path is required for source %q", c.Dataset.Source)
		}
	case SourceSheets:
		if c.Dataset.SpreadsheetID == "" {
			return fmt.Errorf("dataset spreadsheet id is required for source %q", SourceSheets)
		}
	default:
		return fmt.Errorf("unknown dataset source: %q", c.Dataset.Source)
	}

	monday, err := c.WeekOneMonday()
	if err != nil {
		return fmt.Errorf("invalid week one monday %q: %w", c.Dataset.WeekOneMonday, err)
	}
	if monday.Weekday() != time.Monday {
		return fmt.Errorf("week one monday %s is a %s", c.Dataset.WeekOneMonday, monday.Weekday())
	}

	if c.Insights.MaxRecords <= 0 {
		return fmt.Errorf("insights max records must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
			MaxUploadBytes:  10 << 20,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/arvaia.log",
		},
		Dataset: DatasetConfig{
			Source:        SourceFile,
			Path:          "data/distribuzione_2025.tsv",
			Range:         "A:H",
			WeekOneMonday: "2024-12-30",
			WatchDebounce: 500 * time.Millisecond,
		},
		Insights: InsightsConfig{
			Enabled:     true,
			Model:       "gemini-3-flash-preview",
			Temperature: 0.7,
			TopP:        0.9,
			MaxRecords:  50,
			Timeout:     30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
