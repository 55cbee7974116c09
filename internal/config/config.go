// Package config manages application configuration from various sources.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
)

// Data defines storage configuration.
type Data struct {
	Directory string `json:"directory,omitempty"`
}

// SuggestConfig controls inline suggestions in the editor.
type SuggestConfig struct {
	Enabled     bool          `json:"enabled"`
	Debounce    time.Duration `json:"debounce,omitempty"`
	SendTimeout time.Duration `json:"sendTimeout,omitempty"`
	AcceptKeys  []string      `json:"acceptKeys,omitempty"`
	TriggerKeys []string      `json:"triggerKeys,omitempty"`
	ContextID   int           `json:"contextId,omitempty"`
	// Endpoint is the websocket URL of a ghosttext server. Empty runs
	// inference in-process.
	Endpoint string `json:"endpoint,omitempty"`
}

// InferenceConfig selects the model that produces suggestions.
type InferenceConfig struct {
	Provider   string        `json:"provider,omitempty"`
	Model      string        `json:"model,omitempty"`
	APIKey     string        `json:"apiKey,omitempty"`
	BaseURL    string        `json:"baseURL,omitempty"`
	MaxTokens  int64         `json:"maxTokens,omitempty"`
	Dialect    string        `json:"dialect,omitempty"`
	SchemaFile string        `json:"schemaFile,omitempty"`
	CacheTTL   time.Duration `json:"cacheTTL,omitempty"`
}

// ServerConfig defines where `ghosttext serve` listens.
type ServerConfig struct {
	Address string `json:"address,omitempty"`
}

// Config is the main configuration structure for the application.
type Config struct {
	Data       Data            `json:"data"`
	WorkingDir string          `json:"wd,omitempty"`
	Debug      bool            `json:"debug,omitempty"`
	Suggest    SuggestConfig   `json:"suggest"`
	Inference  InferenceConfig `json:"inference"`
	Server     ServerConfig    `json:"server"`
}

// Application constants
const (
	defaultDataDirectory = ".ghosttext"
	defaultLogLevel      = "info"
	appName              = "ghosttext"

	EventConfigChanged pubsub.EventType = "config_changed"
)

var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

var (
	mu      sync.RWMutex
	cfg     *Config
	level   *slog.LevelVar
	changes = pubsub.NewBroker[Config]()
)

// Load initializes the configuration from environment variables and config files.
// If debug is true, debug mode is enabled and log level is set to debug.
// lvl, when set, follows the debug setting across reloads.
func Load(workingDir string, debug bool, lvl *slog.LevelVar) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if cfg != nil {
		return cfg, nil
	}

	level = lvl
	configureViper()
	setDefaults(debug)

	// Read global config
	if err := readConfig(viper.ReadInConfig()); err != nil {
		return nil, err
	}

	loaded, err := build(workingDir)
	if err != nil {
		return nil, err
	}
	cfg = loaded
	applyLevel(cfg)
	return cfg, nil
}

// build merges the local config over the global one and decodes the result.
func build(workingDir string) (*Config, error) {
	mergeLocalConfig(workingDir)

	c := &Config{WorkingDir: workingDir}
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.WorkingDir = workingDir
	if c.Inference.APIKey == "" {
		if env, ok := providerKeyEnv[c.Inference.Provider]; ok {
			c.Inference.APIKey = os.Getenv(env)
		}
	}
	if err := validate(c); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func applyLevel(c *Config) {
	l := slog.LevelInfo
	if c.Debug {
		l = slog.LevelDebug
	}
	if level != nil {
		level.Set(l)
	}
	slog.SetLogLoggerLevel(l)
}

// configureViper sets up viper's configuration paths and environment variables.
func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// setDefaults configures default values for configuration options.
func setDefaults(debug bool) {
	viper.SetDefault("data.directory", defaultDataDirectory)

	viper.SetDefault("suggest.enabled", true)
	viper.SetDefault("suggest.debounce", "800ms")
	viper.SetDefault("suggest.sendTimeout", "5s")
	viper.SetDefault("suggest.acceptKeys", []string{"tab"})
	viper.SetDefault("suggest.triggerKeys", []string{"space"})
	viper.SetDefault("suggest.contextId", 0)
	viper.SetDefault("suggest.endpoint", "")

	viper.SetDefault("inference.provider", "openai")
	viper.SetDefault("inference.model", "")
	viper.SetDefault("inference.apiKey", "")
	viper.SetDefault("inference.baseURL", "")
	viper.SetDefault("inference.maxTokens", 256)
	viper.SetDefault("inference.dialect", "SQL")
	viper.SetDefault("inference.schemaFile", "")
	viper.SetDefault("inference.cacheTTL", "5m")

	viper.SetDefault("server.address", "127.0.0.1:7878")

	if debug {
		viper.SetDefault("debug", true)
		viper.Set("log.level", "debug")
	} else {
		viper.SetDefault("debug", false)
		viper.SetDefault("log.level", defaultLogLevel)
	}
}

// readConfig handles the result of reading a configuration file.
func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// mergeLocalConfig loads and merges configuration from the local directory.
func mergeLocalConfig(workingDir string) {
	local := viper.New()
	local.SetConfigName(fmt.Sprintf(".%s", appName))
	local.SetConfigType("json")
	local.AddConfigPath(workingDir)

	// Merge local config if it exists
	if err := local.ReadInConfig(); err == nil {
		if err := viper.MergeConfigMap(local.AllSettings()); err != nil {
			slog.Warn("Failed to merge local config", "path", local.ConfigFileUsed(), "error", err)
		}
	}
}

func validate(c *Config) error {
	if c.Suggest.Debounce < 0 {
		return fmt.Errorf("suggest.debounce must not be negative")
	}
	if c.Suggest.SendTimeout < 0 {
		return fmt.Errorf("suggest.sendTimeout must not be negative")
	}
	if c.Inference.MaxTokens < 0 {
		return fmt.Errorf("inference.maxTokens must not be negative")
	}
	if _, ok := providerKeyEnv[c.Inference.Provider]; !ok {
		return fmt.Errorf("unknown inference provider %q", c.Inference.Provider)
	}
	return nil
}

// Get returns the current configuration.
// It's safe to call this function multiple times.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// WorkingDirectory returns the current working directory from the configuration.
func WorkingDirectory() string {
	c := Get()
	if c == nil {
		panic("config not loaded")
	}
	return c.WorkingDir
}

// Subscribe delivers the new configuration each time the config file changes.
func Subscribe(ctx context.Context) <-chan pubsub.Event[Config] {
	return changes.Subscribe(ctx)
}

// Watch reloads the configuration whenever the global config file changes.
// It does nothing when no config file was found.
func Watch() {
	if viper.ConfigFileUsed() == "" {
		slog.Debug("No config file to watch")
		return
	}
	viper.OnConfigChange(onConfigChange)
	viper.WatchConfig()
}

func onConfigChange(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	mu.Lock()
	if cfg == nil {
		mu.Unlock()
		return
	}
	next, err := build(cfg.WorkingDir)
	if err != nil {
		mu.Unlock()
		slog.Warn("Ignoring invalid config change", "path", e.Name, "error", err)
		return
	}
	cfg = next
	applyLevel(cfg)
	snapshot := *cfg
	mu.Unlock()

	slog.Info("Config reloaded", "path", e.Name)
	changes.Publish(EventConfigChanged, snapshot)
}
