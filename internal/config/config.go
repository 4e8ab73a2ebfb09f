package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mcuadros/go-defaults"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cast"
)

const appName = "gitprompt"

// dotEnvFile is read from the working directory for API keys and overrides.
var dotEnvFile = ".env"

// Config represents the gitprompt configuration.
type Config struct {
	Provider     string        `json:"provider" env:"GITPROMPT_PROVIDER" default:"openai"`
	Model        string        `json:"model,omitempty" env:"GITPROMPT_MODEL"`
	TokenModel   string        `json:"tokenModel" env:"GITPROMPT_TOKEN_MODEL" default:"gpt-4"`
	MaxTokens    int           `json:"maxTokens" env:"GITPROMPT_MAX_TOKENS" default:"120000"`
	TemplatesDir string        `json:"templatesDir,omitempty" env:"GITPROMPT_TEMPLATES_DIR"`
	OutputDir    string        `json:"outputDir" env:"GITPROMPT_OUTPUT_DIR" default:"Extracted JSON"`
	LogFile      string        `json:"logFile,omitempty" env:"GITPROMPT_LOG_FILE"`
	LogLevel     string        `json:"logLevel" env:"GITPROMPT_LOG_LEVEL" default:"info"`
	Exclude      []string      `json:"exclude,omitempty" env:"GITPROMPT_EXCLUDE"`
	Ollama       OllamaConfig  `json:"ollama"`
	Cache        CacheConfig   `json:"cache"`
	Privacy      PrivacyConfig `json:"privacy"`

	// Keys come from the environment only and are never written to disk.
	Keys APIKeys `json:"-"`
}

// OllamaConfig locates the local Ollama server.
type OllamaConfig struct {
	BaseURL string `json:"baseURL" env:"OLLAMA_BASE_URL" default:"http://localhost:11434/v1"`
	Model   string `json:"model" env:"OLLAMA_MODEL" default:"llama3.1:8b"`
}

// CacheConfig controls caching of LLM responses.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" env:"GITPROMPT_CACHE" default:"true"`
	Dir        string `json:"dir,omitempty" env:"GITPROMPT_CACHE_DIR"`
	TTLSeconds int    `json:"ttlSeconds" env:"GITPROMPT_CACHE_TTL" default:"86400"`
}

// PrivacyConfig controls redaction of diffs before they are sent anywhere.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets" env:"GITPROMPT_REDACT_SECRETS" default:"true"`
	RedactPaths   []string `json:"redactPaths,omitempty" env:"GITPROMPT_REDACT_PATHS"`
}

// APIKeys holds provider credentials.
type APIKeys struct {
	OpenAI    string `env:"OPENAI_API_KEY"`
	XAI       string `env:"XAI_API_KEY"`
	Gemini    string `env:"GEMINI_API_KEY"`
	Anthropic string `env:"ANTHROPIC_API_KEY"`
}

// For returns the key for a provider name, or "" when it needs none.
func (k APIKeys) For(provider string) string {
	switch provider {
	case "openai":
		return k.OpenAI
	case "xai", "grok":
		return k.XAI
	case "gemini", "google":
		return k.Gemini
	case "anthropic", "claude":
		return k.Anthropic
	default:
		return ""
	}
}

// Default returns a Config with all defaults applied.
func Default() Config {
	var cfg Config
	defaults.SetDefaults(&cfg)
	cfg.Privacy.RedactPaths = []string{"**/.env", "**/*secrets*"}
	return cfg
}

// ConfigDir returns the platform-appropriate config directory for gitprompt.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns the configured log file, defaulting to the config dir.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	dir, err := ConfigDir()
	if err != nil {
		return "git_extraction.log"
	}
	return filepath.Join(dir, "git_extraction.log")
}

// TemplatesPath returns the template directory, defaulting to the config dir.
func (c Config) TemplatesPath() string {
	if c.TemplatesDir != "" {
		return c.TemplatesDir
	}
	dir, err := ConfigDir()
	if err != nil {
		return "templates"
	}
	return filepath.Join(dir, "templates")
}

// ModelFor returns the model to use with provider: the configured model,
// the Ollama model for ollama, or "" for the provider default.
func (c Config) ModelFor(provider string) string {
	if provider == c.Provider && c.Model != "" {
		return c.Model
	}
	if provider == "ollama" {
		return c.Ollama.Model
	}
	return ""
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(context.Background(), &cfg, envLookuper()); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile returns the defaults merged with the config file only, for
// editing the file without capturing environment values.
func LoadFile() (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes the config file over cfg, so only keys present in the
// file replace defaults.
func mergeFile(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// envLookuper reads the process environment first, then .env.
func envLookuper() envconfig.Lookuper {
	values, err := godotenv.Read(dotEnvFile)
	if err != nil {
		values = map[string]string{}
	}
	return envconfig.MultiLookuper(envconfig.OsLookuper(), envconfig.MapLookuper(values))
}

func mergeEnv(ctx context.Context, cfg *Config, l envconfig.Lookuper) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         l,
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "tokenModel":
		cfg.TokenModel = value
	case "maxTokens":
		n, err := cast.ToIntE(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("maxTokens must be a positive integer: %q", value)
		}
		cfg.MaxTokens = n
	case "templatesDir":
		cfg.TemplatesDir = value
	case "outputDir":
		cfg.OutputDir = value
	case "logFile":
		cfg.LogFile = value
	case "logLevel":
		cfg.LogLevel = value
	case "exclude":
		cfg.Exclude = splitList(value)
	case "ollama.baseURL":
		cfg.Ollama.BaseURL = value
	case "ollama.model":
		cfg.Ollama.Model = value
	case "cache.enabled":
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be true or false: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("cache.ttlSeconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	case "privacy.redactSecrets":
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("privacy.redactSecrets must be true or false: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
