package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

// EnvPrefix marks environment variables that override config keys.
// APILENS_LOADER__ALLOW_PRIVATE_URLS maps to loader.allow-private-urls.
const EnvPrefix = "APILENS_"

const DefaultFile = "apilens.yaml"

type Config struct {
	ConfigDir string         `koanf:"config-dir"`
	Index     IndexConfig    `koanf:"index"`
	Session   SessionConfig  `koanf:"session"`
	Output    OutputConfig   `koanf:"output"`
	Loader    LoaderConfig   `koanf:"loader"`
	Docs      DocsConfig     `koanf:"docs"`
	Templates TemplateConfig `koanf:"templates"`
	Log       LogConfig      `koanf:"log"`
}

type IndexConfig struct {
	Backend string      `koanf:"backend"`
	Redis   RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Key      string `koanf:"key"`
}

type SessionConfig struct {
	StaleAfter time.Duration `koanf:"stale-after"`
}

type OutputConfig struct {
	DefaultFormat string `koanf:"default-format"`
}

type LoaderConfig struct {
	Timeout          time.Duration `koanf:"timeout"`
	InlineRefs       bool          `koanf:"inline-refs"`
	AllowPrivateURLs bool          `koanf:"allow-private-urls"`
}

type DocsConfig struct {
	OutputDir string `koanf:"output-dir"`
	Format    string `koanf:"format"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
}

func defaults() map[string]any {
	dir := ".apilens"
	if base, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(base, "apilens")
	}
	return map[string]any{
		"config-dir":                dir,
		"index.backend":             "file",
		"index.redis.addr":          "localhost:6379",
		"index.redis.db":            0,
		"index.redis.key":           "apilens:sessions",
		"session.stale-after":       "168h",
		"output.default-format":     "compact",
		"loader.timeout":            "30s",
		"loader.inline-refs":        true,
		"loader.allow-private-urls": false,
		"docs.output-dir":           ".",
		"docs.format":               "markdown",
		"log.level":                 "info",
		"log.encoding":              "console",
	}
}

// BindFlags registers the flags shared by every command.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: apilens.yaml)")
	flags.String("config-dir", "", "Directory holding the session index")
	flags.StringP("format", "f", "", "Output format: raw, compact, structured, markdown")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("index-backend", "", "Session index backend: file, redis")
	flags.String("redis-addr", "", "Redis address for the redis index backend")
	flags.String("templates", "", "Custom HTML templates directory")
	flags.Bool("allow-private-urls", false, "Allow loading specs from private network addresses")
}

// Load merges defaults, the config file, APILENS_* environment variables and
// command flags, in that order.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	flagsMap := buildFlagsMap(cmd)
	envMap := buildEnvMap(os.Environ())

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		configFile = findConfigFile(k, envMap, flagsMap)
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if len(envMap) > 0 {
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
	}
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.ConfigDir = expandHome(cfg.ConfigDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// findConfigFile looks for apilens.yaml in the working directory, then for
// config.yaml inside the config directory.
func findConfigFile(k *koanf.Koanf, overrides ...map[string]any) string {
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	dir := k.String("config-dir")
	for _, m := range overrides {
		if v, ok := m["config-dir"].(string); ok && v != "" {
			dir = v
		}
	}
	path := filepath.Join(expandHome(dir), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// buildEnvMap turns APILENS_SECTION__SOME_KEY into section.some-key.
func buildEnvMap(environ []string) map[string]any {
	m := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		if key == "" {
			continue
		}
		key = strings.ReplaceAll(key, "__", ".")
		key = strings.ReplaceAll(key, "_", "-")
		m[key] = value
	}
	return m
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	if v := getString("config-dir"); v != "" {
		m["config-dir"] = v
	}
	if v := getString("log-level"); v != "" {
		m["log.level"] = v
	}
	if v := getString("index-backend"); v != "" {
		m["index.backend"] = v
	}
	if v := getString("redis-addr"); v != "" {
		m["index.redis.addr"] = v
	}
	if v := getString("templates"); v != "" {
		m["templates.dir"] = v
	}
	if flagChanged("allow-private-urls") {
		m["loader.allow-private-urls"] = getBool("allow-private-urls")
	}

	return m
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func (c *Config) Validate() error {
	if c.ConfigDir == "" {
		return fmt.Errorf("config directory is required")
	}

	validBackends := map[string]bool{"file": true, "redis": true}
	if !validBackends[c.Index.Backend] {
		return fmt.Errorf("invalid index backend: %s (valid: file, redis)", c.Index.Backend)
	}
	if c.Index.Backend == "redis" && c.Index.Redis.Addr == "" {
		return fmt.Errorf("redis address is required for the redis index backend")
	}

	validFormats := map[string]bool{"raw": true, "compact": true, "structured": true, "markdown": true}
	if !validFormats[strings.ToLower(c.Output.DefaultFormat)] {
		return fmt.Errorf("invalid output format: %s (valid: raw, compact, structured, markdown)", c.Output.DefaultFormat)
	}

	validDocFormats := map[string]bool{"markdown": true, "html": true}
	if !validDocFormats[strings.ToLower(c.Docs.Format)] {
		return fmt.Errorf("invalid docs format: %s (valid: markdown, html)", c.Docs.Format)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	validEncodings := map[string]bool{"console": true, "json": true}
	if !validEncodings[c.Log.Encoding] {
		return fmt.Errorf("invalid log encoding: %s (valid: console, json)", c.Log.Encoding)
	}

	if c.Session.StaleAfter <= 0 {
		return fmt.Errorf("session stale-after must be positive")
	}
	if c.Loader.Timeout <= 0 {
		return fmt.Errorf("loader timeout must be positive")
	}

	return nil
}
