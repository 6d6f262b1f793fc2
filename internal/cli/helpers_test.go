package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/quix/internal/config"
)

// writeHomeConfig points HOME at a temp dir holding content as the default
// config file.
func writeHomeConfig(t *testing.T, content string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvAPIURL, "")
	dir := filepath.Join(home, ".config", "quix")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func TestLoadConfigUsesDefaultFile(t *testing.T) {
	writeHomeConfig(t, "api:\n  base_url: http://mine.example\n")

	cfg, fallback, err := loadConfig(&GlobalFlags{})
	require.NoError(t, err)
	assert.NoError(t, fallback)
	assert.Equal(t, "http://mine.example", cfg.API.BaseURL)
}

func TestLoadConfigRejectsInvalidDefaultFile(t *testing.T) {
	writeHomeConfig(t, "api:\n  base_url: http://mine.example\ndisplay:\n  same_day_policy: agregate\n")

	cfg, fallback, err := loadConfig(&GlobalFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same_day_policy")
	assert.Nil(t, cfg)
	assert.NoError(t, fallback)
}

func TestLoadConfigRejectsMalformedDefaultFile(t *testing.T) {
	writeHomeConfig(t, "api: [unclosed\n")

	_, _, err := loadConfig(&GlobalFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestNewEnvWarnsWhenDefaultLocationUnavailable(t *testing.T) {
	t.Setenv("HOME", "")
	t.Setenv(config.EnvAPIURL, "")

	var logs bytes.Buffer
	e, err := newEnvLogTo(&GlobalFlags{APIURL: "http://flag.example"}, &logs)
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example", e.cfg.API.BaseURL)
	assert.Contains(t, logs.String(), "using default config")
}

func TestNewEnvWarnsAboutUnknownZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "display:\n  time_zones:\n    - city: Olympus\n      location: Mars/Olympus\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var logs bytes.Buffer
	_, err := newEnvLogTo(&GlobalFlags{Config: path, APIURL: "http://flag.example"}, &logs)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "unknown time zones shown in UTC")
	assert.Contains(t, logs.String(), "Mars/Olympus")
}
