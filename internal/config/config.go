package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/menta2k/dermascan/pkg/llamacpp"
	"github.com/menta2k/dermascan/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. DERMASCAN_SERVER_ADDR
const EnvPrefix = "DERMASCAN"

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `json:"server" mapstructure:"server"`
	Providers  ProvidersConfig  `json:"providers" mapstructure:"providers"`
	Simulation SimulationConfig `json:"simulation" mapstructure:"simulation"`
	Render     RenderConfig     `json:"render" mapstructure:"render"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds configuration for the HTTP boundary
type ServerConfig struct {
	Addr           string   `json:"addr" mapstructure:"addr"`
	Mode           string   `json:"mode" mapstructure:"mode"`
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBodyMB      int      `json:"max_body_mb" mapstructure:"max_body_mb"`
}

// ProvidersConfig holds upstream endpoints and fallback credentials.
// Credentials sent with a request take precedence over these.
type ProvidersConfig struct {
	Default         string        `json:"default" mapstructure:"default"`
	RoboflowBaseURL string        `json:"roboflow_base_url" mapstructure:"roboflow_base_url"`
	RoboflowAPIKey  string        `json:"roboflow_api_key" mapstructure:"roboflow_api_key"`
	RoboflowModelID string        `json:"roboflow_model_id" mapstructure:"roboflow_model_id"`
	GeminiBaseURL   string        `json:"gemini_base_url" mapstructure:"gemini_base_url"`
	GeminiAPIKey    string        `json:"gemini_api_key" mapstructure:"gemini_api_key"`
	OllamaURL       string        `json:"ollama_url" mapstructure:"ollama_url"`
	OllamaModel     string        `json:"ollama_model" mapstructure:"ollama_model"`
	LlamaCppURL     string        `json:"llamacpp_url" mapstructure:"llamacpp_url"`
	LlamaCppModel   string        `json:"llamacpp_model" mapstructure:"llamacpp_model"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxUploadDim    int           `json:"max_upload_dim" mapstructure:"max_upload_dim"`
}

// SimulationConfig holds configuration for the offline fallback
type SimulationConfig struct {
	Delay time.Duration `json:"delay" mapstructure:"delay"`
}

// RenderConfig holds configuration for annotated output
type RenderConfig struct {
	ContainerWidth float64 `json:"container_width" mapstructure:"container_width"`
	MaxHeight      float64 `json:"max_height" mapstructure:"max_height"`
	Format         string  `json:"format" mapstructure:"format"`
	Quality        int     `json:"quality" mapstructure:"quality"`
}

// LoggingConfig holds configuration for the zap logger
type LoggingConfig struct {
	Level       string `json:"level" mapstructure:"level"`
	Development bool   `json:"development" mapstructure:"development"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			Mode:           "release",
			AllowedOrigins: []string{"*"},
			MaxBodyMB:      20,
		},
		Providers: ProvidersConfig{
			Default:         string(types.ProviderRoboflow),
			RoboflowBaseURL: "https://serverless.roboflow.com",
			GeminiBaseURL:   "https://generativelanguage.googleapis.com",
			OllamaURL:       "http://localhost:11434",
			OllamaModel:     "llava",
			LlamaCppURL:     llamacpp.DefaultURL,
			Timeout:         60 * time.Second,
		},
		Simulation: SimulationConfig{
			Delay: 2 * time.Second,
		},
		Render: RenderConfig{
			ContainerWidth: 800,
			MaxHeight:      500,
			Format:         "png",
			Quality:        90,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// newViper returns a viper instance seeded with defaults and bound to the
// environment
func newViper() *viper.Viper {
	v := viper.New()
	def := Default()
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.mode", def.Server.Mode)
	v.SetDefault("server.allowed_origins", def.Server.AllowedOrigins)
	v.SetDefault("server.max_body_mb", def.Server.MaxBodyMB)
	v.SetDefault("providers.default", def.Providers.Default)
	v.SetDefault("providers.roboflow_base_url", def.Providers.RoboflowBaseURL)
	v.SetDefault("providers.roboflow_api_key", "")
	v.SetDefault("providers.roboflow_model_id", "")
	v.SetDefault("providers.gemini_base_url", def.Providers.GeminiBaseURL)
	v.SetDefault("providers.gemini_api_key", "")
	v.SetDefault("providers.ollama_url", def.Providers.OllamaURL)
	v.SetDefault("providers.ollama_model", def.Providers.OllamaModel)
	v.SetDefault("providers.llamacpp_url", def.Providers.LlamaCppURL)
	v.SetDefault("providers.llamacpp_model", "")
	v.SetDefault("providers.timeout", def.Providers.Timeout)
	v.SetDefault("providers.max_upload_dim", 0)
	v.SetDefault("simulation.delay", def.Simulation.Delay)
	v.SetDefault("render.container_width", def.Render.ContainerWidth)
	v.SetDefault("render.max_height", def.Render.MaxHeight)
	v.SetDefault("render.format", def.Render.Format)
	v.SetDefault("render.quality", def.Render.Quality)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.development", def.Logging.Development)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds the configuration from defaults, an optional file and the
// environment. An empty filename skips the file.
func Load(filename string) (*Config, error) {
	v := newViper()
	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (*Config, error) {
	return Load(filename)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test")
	}

	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("server.allowed_origins cannot be empty")
	}

	if c.Server.MaxBodyMB < 1 {
		return fmt.Errorf("server.max_body_mb must be positive")
	}

	switch types.ProviderKind(c.Providers.Default) {
	case types.ProviderRoboflow, types.ProviderGemini, types.ProviderOllama, types.ProviderLlamaCpp:
	default:
		return fmt.Errorf("providers.default must be roboflow, gemini, ollama or llamacpp")
	}

	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("providers.timeout must be positive")
	}

	if c.Providers.MaxUploadDim < 0 {
		return fmt.Errorf("providers.max_upload_dim cannot be negative")
	}

	if c.Simulation.Delay < 0 {
		return fmt.Errorf("simulation.delay cannot be negative")
	}

	if c.Render.ContainerWidth <= 0 || c.Render.MaxHeight <= 0 {
		return fmt.Errorf("render.container_width and render.max_height must be positive")
	}

	switch c.Render.Format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("render.format must be jpg, png or webp")
	}

	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100")
	}

	return nil
}

// Provider assembles the provider selection for kind, filling credentials
// from configuration. An empty kind selects Providers.Default. The local
// server settings follow the kind: ollama or llamacpp.
func (p ProvidersConfig) Provider(kind string) types.ProviderConfig {
	if kind == "" {
		kind = p.Default
	}
	local := types.LocalConfig{URL: p.OllamaURL, Model: p.OllamaModel}
	if types.ProviderKind(kind) == types.ProviderLlamaCpp {
		local = types.LocalConfig{URL: p.LlamaCppURL, Model: p.LlamaCppModel}
	}
	return types.ProviderConfig{
		Kind: types.ProviderKind(kind),
		Detector: types.DetectorConfig{
			APIKey:  p.RoboflowAPIKey,
			ModelID: p.RoboflowModelID,
		},
		Generative: types.GenerativeConfig{
			APIKey: p.GeminiAPIKey,
		},
		Local: local,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "dermascan", "config.json")
}
