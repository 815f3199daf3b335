package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, DefaultServerConfig(), cfg.Server)
			assert.Equal(t, DefaultCacheConfig(), cfg.Cache)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			if isYAML(path) {
				assert.True(t, strings.HasPrefix(string(data), "server_config:"), string(data))
			} else {
				assert.True(t, strings.HasPrefix(string(data), "{"), string(data))
			}

			again, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, again)
		})
	}
}

func TestLoadConfigKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_config": {"site_addr": ":9000"}, "cache_config": null}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.SiteAddr)
	assert.Equal(t, DefaultServerConfig().ApiAddr, cfg.Server.ApiAddr)
	assert.Equal(t, DefaultCacheConfig(), cfg.Cache)
	assert.True(t, cfg.Templates.DebugEnabled)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server_config: [unclosed"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestConfigManagerUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	cm.SetLogger(discardLogger())

	cfg := cm.Get()
	server := *cfg.Server
	server.LogLevel = "debug"
	cfg.Server = &server
	require.NoError(t, cm.Update(cfg))

	assert.Equal(t, slog.LevelDebug, cm.LevelVar().Level())
	saved, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", saved.Server.LogLevel)
}

func TestConfigManagerReload(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, testSiteFiles)
	path := writeTestConfig(t, root)

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	cm.SetLogger(discardLogger())
	site, err := NewSite(cm.Get(), discardLogger(), nil)
	require.NoError(t, err)
	cm.SetEngine(site.Engine)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Templates.DebugEnabled = false
	data, err := marshalConfig(path, cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, cm.Reload())
	assert.False(t, cm.Get().Templates.DebugEnabled)
	assert.False(t, site.Engine.GetConfig().DebugEnabled)
}

func TestConfigWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	cm.SetLogger(discardLogger())

	cw, err := NewConfigWatcher(cm, discardLogger())
	require.NoError(t, err)
	cw.debounceTime = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, cw.Start(ctx))
	t.Cleanup(cw.Stop)
	t.Cleanup(cancel)

	cfg := cm.Get()
	server := *cfg.Server
	server.LogLevel = "error"
	cfg.Server = &server
	data, err := marshalConfig(path, &cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.Eventually(t, func() bool {
		return cm.LevelVar().Level() == slog.LevelError
	}, 5*time.Second, 20*time.Millisecond)
}
