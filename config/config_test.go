package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/layout"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func loaderWithEnv(env map[string]string) *Loader {
	l := NewLoader()
	l.getenv = func(key string) string { return env[key] }
	return l
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, layout.DefaultOptions(), cfg.Layout)
	assert.Equal(t, 5*time.Second, cfg.Editor.TestTimeout.Std())
	assert.Equal(t, IDsSequential, cfg.Editor.IDs)
}

func TestLoader_NoLayers(t *testing.T) {
	cfg, err := loaderWithEnv(nil).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoader_LoadYAML(t *testing.T) {
	path := writeFile(t, "flowbuilder.yaml", `
layout:
  strategy: layered
  horizontal_spacing: 60
editor:
  save_timeout: 30s
  retry:
    max_attempts: 5
catalog:
  path: catalog.yaml
log:
  level: debug
`)

	cfg, err := loaderWithEnv(nil).LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, layout.StrategyLayered, cfg.Layout.Strategy)
	assert.Equal(t, 60.0, cfg.Layout.HorizontalSpacing)
	assert.Equal(t, 200.0, cfg.Layout.NodeWidth, "untouched keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Editor.SaveTimeout.Std())
	assert.Equal(t, 5, cfg.Editor.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Editor.Retry.InitialDelay.Std())
	assert.Equal(t, "catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoader_LoadJSONAndLayers(t *testing.T) {
	base := writeFile(t, "base.json", `{"editor": {"test_timeout": "2s", "ids": "uuid"}, "log": {"format": "json"}}`)
	override := writeFile(t, "override.yml", "editor:\n  test_timeout: 1d\n")

	l := loaderWithEnv(nil)
	l.AddLayer(base)
	l.AddLayer(override)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Editor.TestTimeout.Std())
	assert.Equal(t, IDsUUID, cfg.Editor.IDs)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestDeepMergeMaps(t *testing.T) {
	base := map[string]any{
		"editor": map[string]any{"auto_arrange": true, "ids": "sequential", "retry": map[string]any{"max_attempts": 3}},
		"log":    map[string]any{"level": "info"},
	}
	override := map[string]any{
		"editor":  map[string]any{"auto_arrange": false, "ids": nil, "retry": map[string]any{"max_attempts": 5}},
		"catalog": map[string]any{"path": "catalog.yaml"},
	}

	merged, err := deepMergeMaps(base, override)
	require.NoError(t, err)

	editor := merged["editor"].(map[string]any)
	assert.Equal(t, false, editor["auto_arrange"], "false overrides true")
	assert.Equal(t, "sequential", editor["ids"], "null keeps the base value")
	assert.Equal(t, 5, editor["retry"].(map[string]any)["max_attempts"])
	assert.Equal(t, "info", merged["log"].(map[string]any)["level"])
	assert.Equal(t, "catalog.yaml", merged["catalog"].(map[string]any)["path"])
}

func TestLoader_LayerDisablesAutoArrange(t *testing.T) {
	path := writeFile(t, "off.yaml", "editor:\n  auto_arrange: false\n")

	l := loaderWithEnv(nil)
	l.AddLayer(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.False(t, cfg.Editor.AutoArrange)
	assert.Equal(t, Default().Editor.TestTimeout, cfg.Editor.TestTimeout)
}

func TestLoader_EnvOverrides(t *testing.T) {
	path := writeFile(t, "flowbuilder.yaml", "log:\n  level: debug\n")
	l := loaderWithEnv(map[string]string{
		"FLOWBUILDER_LOG_LEVEL":             "warn",
		"FLOWBUILDER_CATALOG_PATH":          "/etc/flowbuilder/catalog.yaml",
		"FLOWBUILDER_LAYOUT_STRATEGY":       "layered",
		"FLOWBUILDER_EDITOR_SAVE_TIMEOUT":   "45s",
		"FLOWBUILDER_EDITOR_RETRY_ATTEMPTS": "1",
		"FLOWBUILDER_EDITOR_AUTO_ARRANGE":   "false",
	})

	cfg, err := l.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level, "environment wins over files")
	assert.Equal(t, "/etc/flowbuilder/catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, layout.StrategyLayered, cfg.Layout.Strategy)
	assert.Equal(t, 45*time.Second, cfg.Editor.SaveTimeout.Std())
	assert.Equal(t, 1, cfg.Editor.Retry.MaxAttempts)
	assert.False(t, cfg.Editor.AutoArrange)
}

func TestLoader_EnvOverrides_Invalid(t *testing.T) {
	tests := map[string]string{
		"FLOWBUILDER_EDITOR_TEST_TIMEOUT":   "soon",
		"FLOWBUILDER_EDITOR_RETRY_ATTEMPTS": "many",
		"FLOWBUILDER_EDITOR_AUTO_ARRANGE":   "perhaps",
		"FLOWBUILDER_LOG_LEVEL":             "in\x00fo",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := loaderWithEnv(map[string]string{key: val}).Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestLoader_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown log level", "log:\n  level: loud\n"},
		{"unknown strategy", "layout:\n  strategy: spiral\n"},
		{"zero node width", "layout:\n  node_width: 0\n"},
		{"zero attempts", "editor:\n  retry:\n    max_attempts: 0\n"},
		{"max delay below initial", "editor:\n  retry:\n    initial_delay: 5s\n    max_delay: 1s\n"},
		{"unknown id generator", "editor:\n  ids: random\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "flowbuilder.yaml", tt.content)
			_, err := loaderWithEnv(nil).LoadFile(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.True(t, errors.IsInvalid(err))
		})
	}

	// validation can be switched off
	path := writeFile(t, "flowbuilder.yaml", "log:\n  level: loud\n")
	l := loaderWithEnv(nil)
	l.EnableValidation(false)
	cfg, err := l.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "loud", cfg.Log.Level)
}

func TestLoader_FileErrors(t *testing.T) {
	_, err := loaderWithEnv(nil).LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loaderWithEnv(nil).LoadFile(writeFile(t, "flowbuilder.toml", "x = 1"))
	assert.ErrorContains(t, err, "only JSON or YAML")

	_, err = loaderWithEnv(nil).LoadFile("../etc/flowbuilder.yaml")
	assert.ErrorContains(t, err, "path traversal")

	_, err = loaderWithEnv(nil).LoadFile(writeFile(t, "broken.yaml", "log: [unclosed"))
	assert.ErrorIs(t, err, errors.ErrParsingFailed)

	_, err = loaderWithEnv(nil).LoadFile(writeFile(t, "bad-duration.yaml", "editor:\n  save_timeout: later\n"))
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
}

func TestDuration_Encoding(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Std())
	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, d.Std())
	assert.Error(t, json.Unmarshal([]byte(`"later"`), &d))

	out, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))

	var holder struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("d: 3d"), &holder))
	assert.Equal(t, 72*time.Hour, holder.D.Std())
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Layout.StartX = 999
	clone.Editor.Retry.MaxAttempts = 9

	assert.Equal(t, 100.0, cfg.Layout.StartX)
	assert.Equal(t, 3, cfg.Editor.Retry.MaxAttempts)

	var nilCfg *Config
	assert.Equal(t, Default(), nilCfg.Clone())
}

func TestConfig_RetryPolicy(t *testing.T) {
	cfg := Default()
	p := cfg.RetryPolicy(time.Second)

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, p.InitialDelay)
	assert.Equal(t, 2*time.Second, p.MaxDelay)
	assert.Equal(t, time.Second, p.AttemptTimeout)
	require.NotNil(t, p.Retryable)
	assert.True(t, p.Retryable(context.DeadlineExceeded))
	assert.False(t, p.Retryable(errors.ErrNodeNotFound))
}

func TestConfig_String(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "save_timeout: 10s")
	assert.Contains(t, s, "strategy: lane")
}

func TestReadLayer_Limits(t *testing.T) {
	dir := t.TempDir()

	asDir := filepath.Join(dir, "layer.yaml")
	require.NoError(t, os.Mkdir(asDir, 0o700))
	_, err := readLayer(asDir)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.ErrorContains(t, err, "not a regular file")

	big := filepath.Join(dir, "big.json")
	require.NoError(t, os.WriteFile(big, make([]byte, maxLayerBytes+1), 0o600))
	_, err = readLayer(big)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	_, err = readLayer("")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestCheckEnvValue(t *testing.T) {
	assert.NoError(t, checkEnvValue("FLOWBUILDER_LOG_LEVEL", "debug"))
	assert.NoError(t, checkEnvValue("FLOWBUILDER_LOG_LEVEL", ""))
	assert.Error(t, checkEnvValue("FLOWBUILDER_LOG_LEVEL", "de\x00bug"))
	assert.Error(t, checkEnvValue("FLOWBUILDER_LOG_LEVEL", "\xff"))
	assert.Error(t, checkEnvValue("FLOWBUILDER_CATALOG_PATH", strings.Repeat("a", maxEnvBytes+1)))
}
