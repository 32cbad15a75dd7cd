package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ConfigDir: "/tmp/apilens",
		Index:     IndexConfig{Backend: "file"},
		Session:   SessionConfig{StaleAfter: 168 * time.Hour},
		Output:    OutputConfig{DefaultFormat: "compact"},
		Loader:    LoaderConfig{Timeout: 30 * time.Second, InlineRefs: true},
		Docs:      DocsConfig{OutputDir: ".", Format: "markdown"},
		Log:       LogConfig{Level: "info", Encoding: "console"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name:        "missing config dir",
			modify:      func(c *Config) { c.ConfigDir = "" },
			wantErr:     true,
			errContains: "config directory is required",
		},
		{
			name:        "invalid backend",
			modify:      func(c *Config) { c.Index.Backend = "sqlite" },
			wantErr:     true,
			errContains: "invalid index backend",
		},
		{
			name: "valid redis backend",
			modify: func(c *Config) {
				c.Index.Backend = "redis"
				c.Index.Redis.Addr = "localhost:6379"
			},
			wantErr: false,
		},
		{
			name:        "redis backend without address",
			modify:      func(c *Config) { c.Index.Backend = "redis" },
			wantErr:     true,
			errContains: "redis address is required",
		},
		{
			name:        "invalid output format",
			modify:      func(c *Config) { c.Output.DefaultFormat = "yaml" },
			wantErr:     true,
			errContains: "invalid output format",
		},
		{
			name:    "output format is case insensitive",
			modify:  func(c *Config) { c.Output.DefaultFormat = "Markdown" },
			wantErr: false,
		},
		{
			name:        "invalid docs format",
			modify:      func(c *Config) { c.Docs.Format = "pdf" },
			wantErr:     true,
			errContains: "invalid docs format",
		},
		{
			name:    "valid html docs format",
			modify:  func(c *Config) { c.Docs.Format = "html" },
			wantErr: false,
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Log.Level = "verbose" },
			wantErr:     true,
			errContains: "invalid log level",
		},
		{
			name:        "invalid log encoding",
			modify:      func(c *Config) { c.Log.Encoding = "xml" },
			wantErr:     true,
			errContains: "invalid log encoding",
		},
		{
			name:        "zero stale after",
			modify:      func(c *Config) { c.Session.StaleAfter = 0 },
			wantErr:     true,
			errContains: "stale-after must be positive",
		},
		{
			name:        "negative timeout",
			modify:      func(c *Config) { c.Loader.Timeout = -time.Second },
			wantErr:     true,
			errContains: "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func newCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	BindFlags(cmd)
	// keep lookups away from the real user config directory
	require.NoError(t, cmd.PersistentFlags().Set("config-dir", t.TempDir()))
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(newCommand(t))
	require.NoError(t, err)

	require.Equal(t, "file", cfg.Index.Backend)
	require.Equal(t, "apilens:sessions", cfg.Index.Redis.Key)
	require.Equal(t, 168*time.Hour, cfg.Session.StaleAfter)
	require.Equal(t, "compact", cfg.Output.DefaultFormat)
	require.Equal(t, 30*time.Second, cfg.Loader.Timeout)
	require.True(t, cfg.Loader.InlineRefs)
	require.False(t, cfg.Loader.AllowPrivateURLs)
	require.Equal(t, "markdown", cfg.Docs.Format)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
index:
  backend: redis
  redis:
    addr: cache:6379
    db: 2
session:
  stale-after: 24h
output:
  default-format: markdown
loader:
  timeout: 5s
  inline-refs: false
`
	err := os.WriteFile(filepath.Join(tmpDir, "apilens.yaml"), []byte(configContent), 0644)
	require.NoError(t, err)

	// apilens.yaml is picked up from the working directory
	t.Chdir(tmpDir)

	cfg, err := Load(newCommand(t))
	require.NoError(t, err)

	require.Equal(t, "redis", cfg.Index.Backend)
	require.Equal(t, "cache:6379", cfg.Index.Redis.Addr)
	require.Equal(t, 2, cfg.Index.Redis.DB)
	require.Equal(t, "apilens:sessions", cfg.Index.Redis.Key)
	require.Equal(t, 24*time.Hour, cfg.Session.StaleAfter)
	require.Equal(t, "markdown", cfg.Output.DefaultFormat)
	require.Equal(t, 5*time.Second, cfg.Loader.Timeout)
	require.False(t, cfg.Loader.InlineRefs)
}

func TestLoadFromConfigDir(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0644)
	require.NoError(t, err)

	cmd := newCommand(t)
	require.NoError(t, cmd.PersistentFlags().Set("config-dir", dir))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, dir, cfg.ConfigDir)
}

func TestLoadPrecedence(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
index:
  backend: redis
log:
  level: warn
  encoding: json
`
	err := os.WriteFile(filepath.Join(tmpDir, "apilens.yaml"), []byte(configContent), 0644)
	require.NoError(t, err)
	t.Chdir(tmpDir)

	t.Setenv("APILENS_LOG__LEVEL", "error")
	t.Setenv("APILENS_INDEX__BACKEND", "file")
	t.Setenv("APILENS_LOADER__ALLOW_PRIVATE_URLS", "true")

	cmd := newCommand(t)
	// flags beat the environment
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "debug"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Encoding)
	require.Equal(t, "file", cfg.Index.Backend)
	require.True(t, cfg.Loader.AllowPrivateURLs)
}

func TestLoadWithExplicitConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(t.TempDir())

	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	err := os.WriteFile(configPath, []byte("docs:\n  output-dir: ./site\n  format: html\n"), 0644)
	require.NoError(t, err)

	cmd := newCommand(t)
	require.NoError(t, cmd.PersistentFlags().Set("config", configPath))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "./site", cfg.Docs.OutputDir)
	require.Equal(t, "html", cfg.Docs.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	cmd := newCommand(t)
	require.NoError(t, cmd.PersistentFlags().Set("config", filepath.Join(t.TempDir(), "absent.yaml")))

	_, err := Load(cmd)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config file")
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newCommand(t)
	require.NoError(t, cmd.PersistentFlags().Set("index-backend", "etcd"))

	_, err := Load(cmd)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid index backend")
}

func TestBuildFlagsMap(t *testing.T) {
	cmd := &cobra.Command{}
	BindFlags(cmd)

	cmd.PersistentFlags().Set("config-dir", "/var/lib/apilens")
	cmd.PersistentFlags().Set("log-level", "warn")
	cmd.PersistentFlags().Set("index-backend", "redis")
	cmd.PersistentFlags().Set("redis-addr", "db:6379")
	cmd.PersistentFlags().Set("templates", "./tmpl")

	m := buildFlagsMap(cmd)

	require.Equal(t, "/var/lib/apilens", m["config-dir"])
	require.Equal(t, "warn", m["log.level"])
	require.Equal(t, "redis", m["index.backend"])
	require.Equal(t, "db:6379", m["index.redis.addr"])
	require.Equal(t, "./tmpl", m["templates.dir"])
	require.NotContains(t, m, "loader.allow-private-urls")

	cmd.PersistentFlags().Set("allow-private-urls", "false")
	m = buildFlagsMap(cmd)
	require.Equal(t, false, m["loader.allow-private-urls"])
}

func TestBuildEnvMap(t *testing.T) {
	m := buildEnvMap([]string{
		"HOME=/root",
		"APILENS_CONFIG_DIR=/data",
		"APILENS_INDEX__REDIS__ADDR=r:6379",
		"APILENS_SESSION__STALE_AFTER=48h",
		"APILENS_=ignored",
	})

	require.Equal(t, map[string]any{
		"config-dir":          "/data",
		"index.redis.addr":    "r:6379",
		"session.stale-after": "48h",
	}, m)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, ".config/apilens"), expandHome("~/.config/apilens"))
	require.Equal(t, "/abs/path", expandHome("/abs/path"))
	require.Equal(t, "rel~/x", expandHome("rel~/x"))
}
